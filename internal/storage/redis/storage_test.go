package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/replaybrowser/replaybrowser/internal/model"
	"github.com/replaybrowser/replaybrowser/internal/storage"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	s.storage = NewWithClient(client, DefaultConfig())
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

// Account tests

func (s *StorageSuite) TestSaveAndGetAccount() {
	account := &model.Account{
		Identifier: "alice-id",
		Username:   "Alice",
		CreatedAt:  time.Now().UTC(),
	}

	err := s.storage.SaveAccount(s.ctx, account)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetAccount(s.ctx, "alice-id")
	s.Require().NoError(err)
	s.Equal(account.Identifier, retrieved.Identifier)
	s.Equal(account.Username, retrieved.Username)
}

func (s *StorageSuite) TestGetAccountNotFound() {
	_, err := s.storage.GetAccount(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestDeleteAccount() {
	account := &model.Account{Identifier: "alice-id", Username: "Alice"}
	s.Require().NoError(s.storage.SaveAccount(s.ctx, account))

	err := s.storage.DeleteAccount(s.ctx, "alice-id")
	s.Require().NoError(err)

	_, err = s.storage.GetAccount(s.ctx, "alice-id")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestDeleteAccountNotFound() {
	err := s.storage.DeleteAccount(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestAppendHistory() {
	account := &model.Account{Identifier: "alice-id", Username: "Alice"}
	s.Require().NoError(s.storage.SaveAccount(s.ctx, account))

	entry := model.HistoryEntry{Action: model.HistoryRenamed, Details: "Alice -> Alicia"}
	s.Require().NoError(s.storage.AppendHistory(s.ctx, "alice-id", entry))

	retrieved, err := s.storage.GetAccount(s.ctx, "alice-id")
	s.Require().NoError(err)
	s.Require().Len(retrieved.History, 1)
	s.Equal(model.HistoryRenamed, retrieved.History[0].Action)
}

func (s *StorageSuite) TestAppendHistoryAccountNotFound() {
	err := s.storage.AppendHistory(s.ctx, "nonexistent", model.HistoryEntry{Action: model.HistoryCreated})
	s.ErrorIs(err, model.ErrAccountNotFound)
}

func (s *StorageSuite) TestSaveAccountPreservesHistory() {
	s.Require().NoError(s.storage.SaveAccount(s.ctx, &model.Account{Identifier: "alice-id", Username: "Alice"}))
	s.Require().NoError(s.storage.AppendHistory(s.ctx, "alice-id", model.HistoryEntry{Action: model.HistoryCreated}))

	// A stale caller copy carrying its own history must not clobber the
	// appended entries
	stale := &model.Account{
		Identifier: "alice-id",
		Username:   "Alicia",
		History:    []model.HistoryEntry{{Action: model.HistoryRenamed}, {Action: model.HistoryRenamed}},
	}
	s.Require().NoError(s.storage.SaveAccount(s.ctx, stale))

	retrieved, err := s.storage.GetAccount(s.ctx, "alice-id")
	s.Require().NoError(err)
	s.Equal("Alicia", retrieved.Username)
	s.Require().Len(retrieved.History, 1)
	s.Equal(model.HistoryCreated, retrieved.History[0].Action)
}

// Tombstone tests

func (s *StorageSuite) TestSaveGdprRequest() {
	req := &model.GdprRequest{Identifier: "alice-id", RequestedAt: time.Now().UTC()}
	s.Require().NoError(s.storage.SaveGdprRequest(s.ctx, req))

	exists, err := s.storage.HasGdprRequest(s.ctx, "alice-id")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *StorageSuite) TestSaveGdprRequestDuplicate() {
	req := &model.GdprRequest{Identifier: "alice-id", RequestedAt: time.Now().UTC()}
	s.Require().NoError(s.storage.SaveGdprRequest(s.ctx, req))

	err := s.storage.SaveGdprRequest(s.ctx, req)
	s.ErrorIs(err, model.ErrTombstoneExists)
}

// Replay tests

func (s *StorageSuite) TestSaveAndGetReplay() {
	replay := testReplay("replay-1", time.Now().UTC(), "alice-id")
	s.Require().NoError(s.storage.SaveReplay(s.ctx, replay))

	retrieved, err := s.storage.GetReplay(s.ctx, "replay-1")
	s.Require().NoError(err)
	s.Equal(replay.Map, retrieved.Map)
	s.Len(retrieved.Players, 1)
}

func (s *StorageSuite) TestListReplaysNewestFirst() {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.SaveReplay(s.ctx, testReplay("replay-old", base, "alice-id")))
	s.Require().NoError(s.storage.SaveReplay(s.ctx, testReplay("replay-new", base.Add(time.Hour), "alice-id")))

	replays, err := s.storage.ListReplays(s.ctx, storage.ListOptions{})
	s.Require().NoError(err)
	s.Require().Len(replays, 2)
	s.Equal(model.ReplayID("replay-new"), replays[0].ID)
	s.Equal(model.ReplayID("replay-old"), replays[1].ID)
}

func (s *StorageSuite) TestListReplaysPaging() {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []model.ReplayID{"r1", "r2", "r3"} {
		s.Require().NoError(s.storage.SaveReplay(s.ctx, testReplay(id, base.Add(time.Duration(i)*time.Hour), "alice-id")))
	}

	replays, err := s.storage.ListReplays(s.ctx, storage.ListOptions{Offset: 1, Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(replays, 1)
	s.Equal(model.ReplayID("r2"), replays[0].ID)
}

func (s *StorageSuite) TestSearchReplays() {
	now := time.Now().UTC()
	s.Require().NoError(s.storage.SaveReplay(s.ctx, testReplay("r1", now, "alice-id")))
	other := testReplay("r2", now, "bob-id")
	other.Gamemode = "Nukies"
	s.Require().NoError(s.storage.SaveReplay(s.ctx, other))

	replays, err := s.storage.SearchReplays(s.ctx, "nukies", storage.ListOptions{})
	s.Require().NoError(err)
	s.Require().Len(replays, 1)
	s.Equal(model.ReplayID("r2"), replays[0].ID)
}

// Participation tests

func (s *StorageSuite) TestFindReplayIDsByPlayer() {
	now := time.Now().UTC()
	s.Require().NoError(s.storage.SaveReplay(s.ctx, testReplay("r1", now, "alice-id")))
	s.Require().NoError(s.storage.SaveReplay(s.ctx, testReplay("r2", now, "bob-id")))

	ids, err := s.storage.FindReplayIDsByPlayer(s.ctx, "alice-id")
	s.Require().NoError(err)
	s.ElementsMatch([]model.ReplayID{"r1"}, ids)
}

func (s *StorageSuite) TestUpdatePlayersRedactsAndDropsIndex() {
	s.Require().NoError(s.storage.SaveReplay(s.ctx, testReplay("r1", time.Now().UTC(), "alice-id")))

	matched, changed, err := s.storage.UpdatePlayers(s.ctx, "r1", "alice-id", func(p *model.Player) bool {
		return p.Redact()
	})
	s.Require().NoError(err)
	s.Equal(1, matched)
	s.Equal(1, changed)

	retrieved, err := s.storage.GetReplay(s.ctx, "r1")
	s.Require().NoError(err)
	s.Equal(model.Identifier(model.RedactedSentinel), retrieved.Players[0].Identifier)
	s.True(retrieved.Players[0].Redacted)

	// The participation index entry goes away with the identifier
	ids, err := s.storage.FindReplayIDsByPlayer(s.ctx, "alice-id")
	s.Require().NoError(err)
	s.Empty(ids)
}

func (s *StorageSuite) TestUpdatePlayersNoChangeWritesNothing() {
	replay := testReplay("r1", time.Now().UTC(), "alice-id")
	s.Require().NoError(s.storage.SaveReplay(s.ctx, replay))

	matched, changed, err := s.storage.UpdatePlayers(s.ctx, "r1", "alice-id", func(p *model.Player) bool {
		return false
	})
	s.Require().NoError(err)
	s.Equal(1, matched)
	s.Equal(0, changed)

	retrieved, err := s.storage.GetReplay(s.ctx, "r1")
	s.Require().NoError(err)
	s.False(retrieved.Players[0].Redacted)
}

func (s *StorageSuite) TestUpdatePlayersReplayNotFound() {
	_, _, err := s.storage.UpdatePlayers(s.ctx, "nonexistent", "alice-id", func(p *model.Player) bool {
		return p.Redact()
	})
	s.ErrorIs(err, model.ErrReplayNotFound)
}

func testReplay(id model.ReplayID, date time.Time, player model.Identifier) *model.Replay {
	return &model.Replay{
		ID:         id,
		Map:        "Box Station",
		Gamemode:   "Traitor",
		ServerID:   "server-1",
		ServerName: "Main Server",
		Duration:   90 * time.Minute,
		Date:       date,
		Players: []model.Player{
			{
				Identifier: player,
				ICName:     "Character Name",
				OOCName:    "Player Name",
				Role:       "Captain",
			},
		},
	}
}
