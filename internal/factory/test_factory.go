package factory

import (
	"time"

	"github.com/replaybrowser/replaybrowser/internal/dependencies/mocks"
	"github.com/replaybrowser/replaybrowser/internal/services/auth"
	"github.com/replaybrowser/replaybrowser/internal/storage/memory"
	"github.com/replaybrowser/replaybrowser/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock    *mocks.MockClock
	MockResolver *mocks.MockResolver
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockResolver := mocks.NewMockResolver()

	app := newWithDependencies(store, mockClock, mockResolver, auth.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:          app,
		MockClock:    mockClock,
		MockResolver: mockResolver,
	}
}
