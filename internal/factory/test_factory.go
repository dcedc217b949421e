package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/liveclass/internal/dependencies/mocks"
	"github.com/mcoot/liveclass/internal/services/auth"
)

// TestAdminSecret is the admin secret configured on every TestApp
const TestAdminSecret = "test-admin-secret"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// The coordinator is not started; callers run it with Coordinator.Run.
func NewTestApp() *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	authService, err := auth.New(auth.Config{Secret: TestAdminSecret})
	if err != nil {
		panic(err)
	}

	app := newWithDependencies(mockClock, mockRandom, authService, Config{}, logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
