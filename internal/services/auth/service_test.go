package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/replaybrowser/replaybrowser/internal/dependencies/mocks"
)

type ServiceSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.clock, DefaultConfig())
}

func (s *ServiceSuite) TestCreateSession() {
	session := s.service.CreateSession("alice-id", "Alice")

	s.NotEmpty(session.Token)
	s.Equal("Alice", session.Username)
	s.Equal(s.clock.Now(), session.CreatedAt)
	s.Equal(s.clock.Now().Add(24*time.Hour), session.ExpiresAt)
}

func (s *ServiceSuite) TestValidateSession() {
	session := s.service.CreateSession("alice-id", "Alice")

	validated, err := s.service.ValidateSession(session.Token)
	s.Require().NoError(err)
	s.Equal(session.Identifier, validated.Identifier)
}

func (s *ServiceSuite) TestValidateUnknownToken() {
	_, err := s.service.ValidateSession("sess_bogus")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateExpiredSession() {
	session := s.service.CreateSession("alice-id", "Alice")

	s.clock.Advance(25 * time.Hour)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestInvalidateSession() {
	session := s.service.CreateSession("alice-id", "Alice")

	s.service.InvalidateSession(session.Token)

	_, err := s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestTerminateSessionsFor() {
	first := s.service.CreateSession("alice-id", "Alice")
	second := s.service.CreateSession("alice-id", "Alice")
	other := s.service.CreateSession("bob-id", "Bob")

	s.service.TerminateSessionsFor("alice-id")

	_, err := s.service.ValidateSession(first.Token)
	s.ErrorIs(err, ErrInvalidSession)
	_, err = s.service.ValidateSession(second.Token)
	s.ErrorIs(err, ErrInvalidSession)

	// Other identifiers are untouched
	_, err = s.service.ValidateSession(other.Token)
	s.NoError(err)
}

func (s *ServiceSuite) TestCleanExpiredSessions() {
	expired := s.service.CreateSession("alice-id", "Alice")
	s.clock.Advance(25 * time.Hour)
	live := s.service.CreateSession("bob-id", "Bob")

	s.service.CleanExpiredSessions()

	_, err := s.service.ValidateSession(expired.Token)
	s.ErrorIs(err, ErrInvalidSession)
	_, err = s.service.ValidateSession(live.Token)
	s.NoError(err)
}

func (s *ServiceSuite) TestTokensAreUnique() {
	first := s.service.CreateSession("alice-id", "Alice")
	second := s.service.CreateSession("alice-id", "Alice")
	s.NotEqual(first.Token, second.Token)
}
