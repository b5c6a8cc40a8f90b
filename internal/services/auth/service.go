package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"
	"time"

	"github.com/replaybrowser/replaybrowser/internal/dependencies/clock"
	"github.com/replaybrowser/replaybrowser/internal/model"
)

// Errors
var (
	ErrInvalidSession = errors.New("invalid or expired session")
)

// Session represents an authenticated principal. The identifier was
// established by the external identity handshake before the session was
// issued; it is the only identity fact a session carries.
type Session struct {
	Token      string
	Identifier model.Identifier
	Username   string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// Service manages sessions for authenticated identifiers
type Service struct {
	clock clock.Clock

	mu       sync.RWMutex
	sessions map[string]*Session

	sessionDuration time.Duration
}

// Config holds configuration for the auth service
type Config struct {
	SessionDuration time.Duration
}

// DefaultConfig returns default auth configuration
func DefaultConfig() Config {
	return Config{
		SessionDuration: 24 * time.Hour,
	}
}

// New creates a new auth Service
func New(clock clock.Clock, cfg Config) *Service {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultConfig().SessionDuration
	}
	return &Service{
		clock:           clock,
		sessions:        make(map[string]*Session),
		sessionDuration: cfg.SessionDuration,
	}
}

// CreateSession issues a session token for an authenticated identifier
func (s *Service) CreateSession(id model.Identifier, username string) *Session {
	token := s.generateToken()
	now := s.clock.Now()

	session := &Session{
		Token:      token,
		Identifier: id,
		Username:   username,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.sessionDuration),
	}

	s.mu.Lock()
	s.sessions[token] = session
	s.mu.Unlock()

	return session
}

// ValidateSession checks if a session token is valid and returns the session
func (s *Service) ValidateSession(token string) (*Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrInvalidSession
	}

	if s.clock.Now().After(session.ExpiresAt) {
		s.mu.Lock()
		delete(s.sessions, token)
		s.mu.Unlock()
		return nil, ErrInvalidSession
	}

	return session, nil
}

// InvalidateSession removes a session
func (s *Service) InvalidateSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// TerminateSessionsFor removes every session held by an identifier. Called
// after account deletion and on tombstoned login attempts.
func (s *Service) TerminateSessionsFor(id model.Identifier) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if session.Identifier == id {
			delete(s.sessions, token)
		}
	}
}

// CleanExpiredSessions removes expired sessions (call periodically)
func (s *Service) CleanExpiredSessions() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if now.After(session.ExpiresAt) {
			delete(s.sessions, token)
		}
	}
}

// generateToken generates a random session token
func (s *Service) generateToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return "sess_" + base64.RawURLEncoding.EncodeToString(b)
}
