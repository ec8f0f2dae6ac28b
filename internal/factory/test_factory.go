package factory

import (
	"time"

	"github.com/mcoot/domonhunt/internal/bot"
	"github.com/mcoot/domonhunt/internal/catalog"
	"github.com/mcoot/domonhunt/internal/dependencies/mocks"
	"github.com/mcoot/domonhunt/internal/metrics"
	"github.com/mcoot/domonhunt/internal/services/battle"
	"github.com/mcoot/domonhunt/internal/services/spawn"
	"github.com/mcoot/domonhunt/internal/storage"
	"github.com/mcoot/domonhunt/internal/storage/memory"
	"github.com/mcoot/domonhunt/internal/testutil"
)

// TestOwnerID is the privileged user of a TestApp
const TestOwnerID = "owner"

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
}

// NewTestApp creates an App configured for testing with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithStorage(memory.New())
}

// NewTestAppWithStorage creates a TestApp over an existing store, e.g. to simulate a restart
func NewTestAppWithStorage(store storage.Storage) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()

	cfg := Config{
		Spawn:         spawn.DefaultConfig(),
		Battle:        battle.DefaultConfig(),
		Bot:           bot.Config{OwnerID: TestOwnerID},
		DailyLocation: time.UTC,
		Metrics:       metrics.NewManager(),
	}
	app := newWithDependencies(store, catalog.MustLoad(), mockClock, mockRandom, cfg, testutil.NopLogger())

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
	}
}
