package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/replaybrowser/replaybrowser/internal/model"
	"github.com/replaybrowser/replaybrowser/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	accounts   map[model.Identifier]*model.Account
	tombstones map[model.Identifier]*model.GdprRequest
	replays    map[model.ReplayID]*model.Replay
	replayIDs  []model.ReplayID // insertion order, oldest first
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		accounts:   make(map[model.Identifier]*model.Account),
		tombstones: make(map[model.Identifier]*model.GdprRequest),
		replays:    make(map[model.ReplayID]*model.Replay),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Account operations

func (s *Storage) SaveAccount(ctx context.Context, account *model.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := cloneAccount(account)
	// History on the value is ignored; AppendHistory is the only writer.
	if existing, ok := s.accounts[account.Identifier]; ok {
		clone.History = existing.History
	} else {
		clone.History = nil
	}
	s.accounts[account.Identifier] = clone
	return nil
}

func (s *Storage) GetAccount(ctx context.Context, id model.Identifier) (*model.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return cloneAccount(account), nil
}

func (s *Storage) DeleteAccount(ctx context.Context, id model.Identifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return model.ErrAccountNotFound
	}
	// Settings and history are owned by the account record, so removing it
	// cascades to them.
	delete(s.accounts, id)
	return nil
}

func (s *Storage) AppendHistory(ctx context.Context, id model.Identifier, entry model.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return model.ErrAccountNotFound
	}
	account.History = append(account.History, entry)
	return nil
}

// Tombstone operations

func (s *Storage) SaveGdprRequest(ctx context.Context, req *model.GdprRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tombstones[req.Identifier]; ok {
		return model.ErrTombstoneExists
	}
	r := *req
	s.tombstones[req.Identifier] = &r
	return nil
}

func (s *Storage) HasGdprRequest(ctx context.Context, id model.Identifier) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.tombstones[id]
	return ok, nil
}

// Replay operations

func (s *Storage) SaveReplay(ctx context.Context, replay *model.Replay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.replays[replay.ID]; !ok {
		s.replayIDs = append(s.replayIDs, replay.ID)
	}
	s.replays[replay.ID] = cloneReplay(replay)
	return nil
}

func (s *Storage) GetReplay(ctx context.Context, id model.ReplayID) (*model.Replay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	replay, ok := s.replays[id]
	if !ok {
		return nil, model.ErrReplayNotFound
	}
	return cloneReplay(replay), nil
}

func (s *Storage) ListReplays(ctx context.Context, opts storage.ListOptions) ([]*model.Replay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.page(s.sortedByDate(), opts), nil
}

func (s *Storage) SearchReplays(ctx context.Context, query string, opts storage.ListOptions) ([]*model.Replay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var matches []*model.Replay
	for _, r := range s.sortedByDate() {
		if replayMatches(r, q) {
			matches = append(matches, r)
		}
	}
	return s.page(matches, opts), nil
}

// Participation operations

func (s *Storage) FindReplayIDsByPlayer(ctx context.Context, id model.Identifier) ([]model.ReplayID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var ids []model.ReplayID
	for _, rid := range s.replayIDs {
		if s.replays[rid].PlayerFor(id) != nil {
			ids = append(ids, rid)
		}
	}
	return ids, nil
}

func (s *Storage) UpdatePlayers(ctx context.Context, replayID model.ReplayID, playerID model.Identifier, fn func(*model.Player) bool) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replay, ok := s.replays[replayID]
	if !ok {
		return 0, 0, model.ErrReplayNotFound
	}

	matched, changed := 0, 0
	for i := range replay.Players {
		if replay.Players[i].Identifier != playerID {
			continue
		}
		matched++
		if fn(&replay.Players[i]) {
			changed++
		}
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

// sortedByDate returns cloned replays newest first. Callers must hold the lock.
func (s *Storage) sortedByDate() []*model.Replay {
	out := make([]*model.Replay, 0, len(s.replayIDs))
	for _, rid := range s.replayIDs {
		out = append(out, cloneReplay(s.replays[rid]))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})
	return out
}

func (s *Storage) page(replays []*model.Replay, opts storage.ListOptions) []*model.Replay {
	if opts.Offset >= len(replays) {
		return nil
	}
	replays = replays[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(replays) {
		replays = replays[:opts.Limit]
	}
	return replays
}

// Clone helpers. The redaction engine mutates participation records in
// place, so stored values are copied on the way in and out to keep readers
// isolated from concurrent writes.

func cloneAccount(a *model.Account) *model.Account {
	out := *a
	out.FavoriteReplays = append([]model.ReplayID(nil), a.FavoriteReplays...)
	out.History = append([]model.HistoryEntry(nil), a.History...)
	out.Settings.Friends = append([]model.Identifier(nil), a.Settings.Friends...)
	return &out
}

func cloneReplay(r *model.Replay) *model.Replay {
	out := *r
	out.Players = append([]model.Player(nil), r.Players...)
	return &out
}
