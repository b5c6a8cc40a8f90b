package factory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/replaybrowser/replaybrowser/internal/model"
	"github.com/replaybrowser/replaybrowser/internal/storage"
)

type IntegrationSuite struct {
	suite.Suite
	app *TestApp
	ctx context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.ctx = context.Background()
	s.app.MockResolver.SetUsername("alice-id", "Alice")
	s.app.MockResolver.SetUsername("bob-id", "Bob")
}

func (s *IntegrationSuite) saveReplay(id model.ReplayID, players ...model.Player) {
	s.Require().NoError(s.app.Storage.SaveReplay(s.ctx, &model.Replay{
		ID:       id,
		Map:      "Box Station",
		Gamemode: "Traitor",
		Date:     s.app.MockClock.Now(),
		Players:  players,
	}))
}

// Test: full lifecycle from first login through permanent deletion
func (s *IntegrationSuite) TestPermanentDeletionLifecycle() {
	// Step 1: Alice logs in for the first time
	account, err := s.app.AccountService.OnLogin(s.ctx, "alice-id")
	s.Require().NoError(err)
	s.Equal("Alice", account.Username)

	session := s.app.AuthService.CreateSession(account.Identifier, account.Username)

	// Step 2: Alice plays some rounds alongside Bob
	s.saveReplay("r1",
		model.Player{Identifier: "alice-id", ICName: "Cmdr Vance", OOCName: "Alice"},
		model.Player{Identifier: "bob-id", ICName: "Eng Harlow", OOCName: "Bob"},
	)
	s.app.MockClock.Advance(time.Hour)
	s.saveReplay("r2",
		model.Player{Identifier: "alice-id", ICName: "Doc Mercer", OOCName: "Alice"},
	)

	// Step 3: Alice favorites a replay
	s.Require().NoError(s.app.ReplayService.AddFavorite(s.ctx, "alice-id", "r1"))

	// Step 4: Alice permanently deletes her account
	result, err := s.app.AccountService.DeleteOwn(s.ctx, "alice-id", true)
	s.Require().NoError(err)
	s.True(result.Permanent)
	s.False(result.RedactionIncomplete)
	s.Equal(2, result.Redaction.Redacted)

	s.app.AuthService.TerminateSessionsFor("alice-id")

	// Step 5: her session no longer works
	_, err = s.app.AuthService.ValidateSession(session.Token)
	s.Error(err)

	// Step 6: her records are scrubbed, Bob's are untouched
	r1, err := s.app.Storage.GetReplay(s.ctx, "r1")
	s.Require().NoError(err)
	s.Equal(model.RedactedSentinel, r1.Players[0].ICName)
	s.Equal(model.RedactedSentinel, r1.Players[0].OOCName)
	s.Equal("Eng Harlow", r1.Players[1].ICName)

	// Step 7: the replays themselves remain browsable
	replays, err := s.app.ReplayService.ListReplays(s.ctx, storage.ListOptions{})
	s.Require().NoError(err)
	s.Len(replays, 2)

	// Step 8: Alice can never come back
	_, err = s.app.AccountService.OnLogin(s.ctx, "alice-id")
	s.ErrorIs(err, model.ErrIdentifierTombstoned)

	// Step 9: a repeated deletion request changes nothing further
	again, err := s.app.AccountService.DeleteOwn(s.ctx, "alice-id", true)
	s.Require().NoError(err)
	s.Equal(0, again.Redaction.Redacted)
}

// Test: ordinary deletion followed by a clean return
func (s *IntegrationSuite) TestOrdinaryDeletionAndReturn() {
	_, err := s.app.AccountService.OnLogin(s.ctx, "alice-id")
	s.Require().NoError(err)
	s.saveReplay("r1", model.Player{Identifier: "alice-id", ICName: "Cmdr Vance", OOCName: "Alice"})

	_, err = s.app.AccountService.DeleteOwn(s.ctx, "alice-id", false)
	s.Require().NoError(err)

	// Names survive an ordinary deletion
	r1, err := s.app.Storage.GetReplay(s.ctx, "r1")
	s.Require().NoError(err)
	s.Equal("Alice", r1.Players[0].OOCName)

	// And Alice can start over
	account, err := s.app.AccountService.OnLogin(s.ctx, "alice-id")
	s.Require().NoError(err)
	s.Len(account.History, 1)
}
