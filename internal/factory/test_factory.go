package factory

import (
	"time"

	"github.com/kwhittier/lobbyhub/internal/dependencies/mocks"
	"github.com/kwhittier/lobbyhub/internal/services/chat"
	"github.com/kwhittier/lobbyhub/internal/services/lobby"
	"github.com/kwhittier/lobbyhub/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	app := newWithDependencies(
		mockClock,
		mockRandom,
		lobby.DefaultRegistryConfig(),
		chat.DefaultRegistryConfig(),
		testutil.NopLogger(),
	)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
