package factory

import (
	"time"

	"github.com/mcoot/friendapi/internal/dependencies/mocks"
	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/storage/memory"
	"github.com/mcoot/friendapi/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MemoryStorage *memory.Storage
	MockClock     *mocks.MockClock
	MockResolver  *mocks.MockResolver
}

// NewTestApp creates an App backed by memory storage, a fake clock and a fake
// profile service that knows profiles
func NewTestApp(profiles ...model.FriendEntry) *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockResolver := mocks.NewMockResolver(profiles...)

	app := newWithDependencies(store, mockResolver, mockClock, 2, testutil.NopLogger())

	return &TestApp{
		App:           app,
		MemoryStorage: store,
		MockClock:     mockClock,
		MockResolver:  mockResolver,
	}
}
