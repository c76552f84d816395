package usecase

import (
	"io"
	"log/slog"
	"time"

	testhelpers "github.com/polkiloo/fooddispatch/internal/test"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newStore() *testhelpers.MemoryStore {
	store := testhelpers.NewMemoryStore()
	store.Now = func() time.Time { return fixedNow }
	return store
}
