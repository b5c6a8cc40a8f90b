package redis

import (
	"fmt"

	"github.com/replaybrowser/replaybrowser/internal/model"
)

// Key prefix for all replay-browser data
const keyPrefix = "rplbrowse"

// Key generation functions for each entity type

// accountKey returns the Redis key for an Account
func accountKey(id model.Identifier) string {
	return fmt.Sprintf("%s:account:%s", keyPrefix, id)
}

// tombstoneKey returns the Redis key for a GdprRequest tombstone
func tombstoneKey(id model.Identifier) string {
	return fmt.Sprintf("%s:gdpr:%s", keyPrefix, id)
}

// replayKey returns the Redis key for a Replay
func replayKey(id model.ReplayID) string {
	return fmt.Sprintf("%s:replay:%s", keyPrefix, id)
}

// replaysByDateKey returns the Redis key for the ZSET of replays scored by date
func replaysByDateKey() string {
	return fmt.Sprintf("%s:idx:replays_by_date", keyPrefix)
}

// playerReplaysKey returns the Redis key for the SET of replays an
// identifier participated in
func playerReplaysKey(id model.Identifier) string {
	return fmt.Sprintf("%s:idx:player_replays:%s", keyPrefix, id)
}
