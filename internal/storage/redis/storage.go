package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/replaybrowser/replaybrowser/internal/model"
	"github.com/replaybrowser/replaybrowser/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	key := accountKey(account.Identifier)

	// History on the value is ignored; the stored entries are kept so that
	// AppendHistory stays the only writer. The read and write run under
	// WATCH so a concurrent append cannot be clobbered.
	txf := func(tx *redis.Tx) error {
		stored := *account
		stored.History = nil

		data, err := tx.Get(ctx, key).Bytes()
		if err == nil {
			var existing model.Account
			if err := json.Unmarshal(data, &existing); err != nil {
				return err
			}
			stored.History = existing.History
		} else if !errors.Is(err, redis.Nil) {
			return err
		}

		updated, err := json.Marshal(&stored)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}

	return s.watchRetry(ctx, txf, key)
}

func (s *Storage) GetAccount(ctx context.Context, id model.Identifier) (*model.Account, error) {
	data, err := s.client.Get(ctx, accountKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrAccountNotFound
		}
		return nil, err
	}

	var account model.Account
	if err := json.Unmarshal(data, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Storage) DeleteAccount(ctx context.Context, id model.Identifier) error {
	// The account value owns its settings and history, so one DEL cascades.
	n, err := s.client.Del(ctx, accountKey(id)).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrAccountNotFound
	}
	return nil
}

func (s *Storage) AppendHistory(ctx context.Context, id model.Identifier, entry model.HistoryEntry) error {
	key := accountKey(id)

	// Optimistic read-modify-write so concurrent appends cannot drop entries
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrAccountNotFound
			}
			return err
		}

		var account model.Account
		if err := json.Unmarshal(data, &account); err != nil {
			return err
		}
		account.History = append(account.History, entry)

		updated, err := json.Marshal(&account)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		return err
	}

	return s.watchRetry(ctx, txf, key)
}

// Tombstone operations

func (s *Storage) SaveGdprRequest(ctx context.Context, req *model.GdprRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}

	// SETNX is the serialization point for concurrent permanent deletes
	ok, err := s.client.SetNX(ctx, tombstoneKey(req.Identifier), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return model.ErrTombstoneExists
	}
	return nil
}

func (s *Storage) HasGdprRequest(ctx context.Context, id model.Identifier) (bool, error) {
	n, err := s.client.Exists(ctx, tombstoneKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Replay operations

func (s *Storage) SaveReplay(ctx context.Context, replay *model.Replay) error {
	data, err := json.Marshal(replay)
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, replayKey(replay.ID), data, 0)
		pipe.ZAdd(ctx, replaysByDateKey(), redis.Z{
			Score:  float64(replay.Date.Unix()),
			Member: string(replay.ID),
		})
		for _, p := range replay.Players {
			if !p.Redacted {
				pipe.SAdd(ctx, playerReplaysKey(p.Identifier), string(replay.ID))
			}
		}
		return nil
	})
	return err
}

func (s *Storage) GetReplay(ctx context.Context, id model.ReplayID) (*model.Replay, error) {
	data, err := s.client.Get(ctx, replayKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrReplayNotFound
		}
		return nil, err
	}

	var replay model.Replay
	if err := json.Unmarshal(data, &replay); err != nil {
		return nil, err
	}
	return &replay, nil
}

func (s *Storage) ListReplays(ctx context.Context, opts storage.ListOptions) ([]*model.Replay, error) {
	stop := int64(-1)
	if opts.Limit > 0 {
		stop = int64(opts.Offset + opts.Limit - 1)
	}

	ids, err := s.client.ZRevRange(ctx, replaysByDateKey(), int64(opts.Offset), stop).Result()
	if err != nil {
		return nil, err
	}
	return s.loadReplays(ctx, ids)
}

func (s *Storage) SearchReplays(ctx context.Context, query string, opts storage.ListOptions) ([]*model.Replay, error) {
	// Substring filter over the date-ordered index. Matching happens
	// client-side; redis holds replays as opaque JSON values.
	ids, err := s.client.ZRevRange(ctx, replaysByDateKey(), 0, -1).Result()
	if err != nil {
		return nil, err
	}

	all, err := s.loadReplays(ctx, ids)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	var matches []*model.Replay
	for _, r := range all {
		if replayMatches(r, q) {
			matches = append(matches, r)
		}
	}

	if opts.Offset >= len(matches) {
		return nil, nil
	}
	matches = matches[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(matches) {
		matches = matches[:opts.Limit]
	}
	return matches, nil
}

// Participation operations

func (s *Storage) FindReplayIDsByPlayer(ctx context.Context, id model.Identifier) ([]model.ReplayID, error) {
	members, err := s.client.SMembers(ctx, playerReplaysKey(id)).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]model.ReplayID, 0, len(members))
	for _, m := range members {
		ids = append(ids, model.ReplayID(m))
	}
	return ids, nil
}

func (s *Storage) UpdatePlayers(ctx context.Context, replayID model.ReplayID, playerID model.Identifier, fn func(*model.Player) bool) (int, int, error) {
	key := replayKey(replayID)
	var matched, changed int

	txf := func(tx *redis.Tx) error {
		matched, changed = 0, 0

		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return model.ErrReplayNotFound
			}
			return err
		}

		var replay model.Replay
		if err := json.Unmarshal(data, &replay); err != nil {
			return err
		}

		remaining := false
		for i := range replay.Players {
			if replay.Players[i].Identifier != playerID {
				continue
			}
			matched++
			if fn(&replay.Players[i]) {
				changed++
			}
			if replay.Players[i].Identifier == playerID {
				remaining = true
			}
		}

		if changed == 0 {
			return nil
		}

		updated, err := json.Marshal(&replay)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			if !remaining {
				// No live record carries the identifier anymore; drop the
				// participation index entry along with the personal data.
				pipe.SRem(ctx, playerReplaysKey(playerID), string(replayID))
			}
			return nil
		})
		return err
	}

	if err := s.watchRetry(ctx, txf, key); err != nil {
		return 0, 0, err
	}
	return matched, changed, nil
}

// replayMatches reports whether a replay matches a lowercased query. Names
// on redacted records hold the sentinel, so redacted participants are not
// findable by their old names.
func replayMatches(r *model.Replay, q string) bool {
	if strings.Contains(strings.ToLower(r.Map), q) ||
		strings.Contains(strings.ToLower(r.Gamemode), q) ||
		strings.Contains(strings.ToLower(r.ServerName), q) ||
		strings.Contains(strings.ToLower(r.RoundEndText), q) {
		return true
	}
	for i := range r.Players {
		if strings.Contains(strings.ToLower(r.Players[i].ICName), q) ||
			strings.Contains(strings.ToLower(r.Players[i].OOCName), q) {
			return true
		}
	}
	return false
}

// loadReplays fetches replays by ID, preserving order
func (s *Storage) loadReplays(ctx context.Context, ids []string) ([]*model.Replay, error) {
	replays := make([]*model.Replay, 0, len(ids))
	for _, id := range ids {
		replay, err := s.GetReplay(ctx, model.ReplayID(id))
		if err != nil {
			if errors.Is(err, model.ErrReplayNotFound) {
				continue
			}
			return nil, err
		}
		replays = append(replays, replay)
	}
	return replays, nil
}

// watchRetry runs an optimistic WATCH transaction, retrying on contention
func (s *Storage) watchRetry(ctx context.Context, txf func(*redis.Tx) error, keys ...string) error {
	const maxRetries = 10
	for i := 0; i < maxRetries; i++ {
		err := s.client.Watch(ctx, txf, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return redis.TxFailedErr
}
