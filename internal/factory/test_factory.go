package factory

import (
	"io"
	"log/slog"
	"time"

	"github.com/mcoot/wordduel/internal/dependencies/mocks"
	"github.com/mcoot/wordduel/internal/services/scheduler"
	"github.com/mcoot/wordduel/internal/storage/memory"
	"github.com/mcoot/wordduel/internal/web/ws"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Secret words come from the built-in list and the mock picks the first,
// so every round is played on APPLE unless LoadTestWords says otherwise.
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	app := newWithDependencies(store, mockClock, mockRandom, scheduler.DefaultConfig(), ws.DefaultConfig(), logger)

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}

// LoadTestWords replaces the secret word list
func (t *TestApp) LoadTestWords(words ...string) error {
	return t.Words.LoadWords(words)
}
