package storage

import (
	"context"

	"github.com/replaybrowser/replaybrowser/internal/model"
)

// ListOptions controls paging for replay listings.
type ListOptions struct {
	Offset int
	Limit  int
}

// Storage defines the interface for data persistence.
//
// Accounts are stored whole apart from history: SaveAccount writes the
// profile, settings and favorites in one call and leaves whatever history is
// on record untouched, so readers never observe a profile without its
// settings. History entries are append-only: AppendHistory is their sole
// writer, and only DeleteAccount's cascade removes them. UpdatePlayers is
// the one sub-record write on replays; backends must apply it as an atomic
// read-modify-write of the replay's participation records.
type Storage interface {
	// Account operations
	SaveAccount(ctx context.Context, account *model.Account) error
	GetAccount(ctx context.Context, id model.Identifier) (*model.Account, error)
	DeleteAccount(ctx context.Context, id model.Identifier) error
	AppendHistory(ctx context.Context, id model.Identifier, entry model.HistoryEntry) error

	// Tombstone operations. SaveGdprRequest returns model.ErrTombstoneExists
	// when a tombstone for the identifier is already on record.
	SaveGdprRequest(ctx context.Context, req *model.GdprRequest) error
	HasGdprRequest(ctx context.Context, id model.Identifier) (bool, error)

	// Replay operations. Replays are written once at ingest and never
	// deleted by this subsystem.
	SaveReplay(ctx context.Context, replay *model.Replay) error
	GetReplay(ctx context.Context, id model.ReplayID) (*model.Replay, error)
	ListReplays(ctx context.Context, opts ListOptions) ([]*model.Replay, error)
	SearchReplays(ctx context.Context, query string, opts ListOptions) ([]*model.Replay, error)

	// Participation operations. FindReplayIDsByPlayer takes a snapshot of
	// the replays referencing an identifier; records appended afterwards are
	// not part of the snapshot. UpdatePlayers applies fn to every
	// participation record in the replay carrying the identifier and
	// persists the result as one atomic write; fn reports whether it changed
	// the record. Returns how many records matched and how many changed.
	FindReplayIDsByPlayer(ctx context.Context, id model.Identifier) ([]model.ReplayID, error)
	UpdatePlayers(ctx context.Context, replayID model.ReplayID, playerID model.Identifier, fn func(*model.Player) bool) (matched, changed int, err error)
}
