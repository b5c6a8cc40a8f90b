package mocks

import (
	"context"
	"errors"

	"github.com/replaybrowser/replaybrowser/internal/identity"
	"github.com/replaybrowser/replaybrowser/internal/model"
)

// MockResolver is a mock identity resolver for testing
type MockResolver struct {
	// Usernames maps identifiers to the username the provider reports
	Usernames map[model.Identifier]string
	// Err, when set, is returned for every lookup
	Err error
	// Calls records the identifiers resolved, in order
	Calls []model.Identifier
}

// Ensure MockResolver implements Resolver
var _ identity.Resolver = (*MockResolver)(nil)

// NewMockResolver creates an empty MockResolver
func NewMockResolver() *MockResolver {
	return &MockResolver{Usernames: make(map[model.Identifier]string)}
}

// SetUsername sets the username reported for an identifier
func (m *MockResolver) SetUsername(id model.Identifier, username string) {
	m.Usernames[id] = username
}

// Fail makes every subsequent lookup return an error
func (m *MockResolver) Fail() {
	m.Err = errors.New("identity api unavailable")
}

// Resolve returns the configured profile for the identifier
func (m *MockResolver) Resolve(ctx context.Context, id model.Identifier) (identity.Profile, error) {
	m.Calls = append(m.Calls, id)
	if m.Err != nil {
		return identity.Profile{}, m.Err
	}
	username, ok := m.Usernames[id]
	if !ok {
		return identity.Profile{}, errors.New("unknown identifier")
	}
	return identity.Profile{Identifier: id, Username: username}, nil
}
