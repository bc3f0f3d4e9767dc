package services_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"recall/internal/models"
	"recall/internal/services"
)

func logEntry(q string) models.QueryLogEntry {
	return models.QueryLogEntry{
		Query:       q,
		OwnerID:     "owner-1",
		ResultCount: 3,
		Method:      models.MethodCombined,
		ElapsedMs:   12,
	}
}

func TestAsyncQueryLogPersistsEntries(t *testing.T) {
	store := &fakeQueryLogStore{}
	q := services.NewAsyncQueryLog(store, 8)

	q.Record(logEntry("first"))
	q.Record(logEntry("second"))
	q.Close()

	assert.Equal(t, []string{"first", "second"}, store.queries())
	assert.Zero(t, q.Dropped())
}

func TestAsyncQueryLogFillsIdentityFields(t *testing.T) {
	store := &fakeQueryLogStore{}
	q := services.NewAsyncQueryLog(store, 8)

	q.Record(logEntry("first"))
	q.Close()

	require.Len(t, store.entries, 1)
	assert.NotEqual(t, uuid.Nil, store.entries[0].ID)
	assert.False(t, store.entries[0].ExecutedAt.IsZero())
}

func TestAsyncQueryLogDropsOldestOnOverflow(t *testing.T) {
	store := &fakeQueryLogStore{
		started: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
	q := services.NewAsyncQueryLog(store, 2)

	// Park the worker inside the store so the buffer backs up.
	q.Record(logEntry("in-flight"))
	select {
	case <-store.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the first entry")
	}

	q.Record(logEntry("a"))
	q.Record(logEntry("b"))
	q.Record(logEntry("c")) // buffer full: "a" is discarded

	assert.Equal(t, int64(1), q.Dropped())

	close(store.release)
	q.Close()

	assert.Equal(t, []string{"in-flight", "b", "c"}, store.queries())
}

func TestAsyncQueryLogRecordNeverBlocks(t *testing.T) {
	store := &fakeQueryLogStore{
		started: make(chan struct{}, 64),
		release: make(chan struct{}),
	}
	q := services.NewAsyncQueryLog(store, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			q.Record(logEntry("burst"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked under backpressure")
	}

	close(store.release)
	q.Close()
}

func TestAsyncQueryLogRecordAfterClose(t *testing.T) {
	store := &fakeQueryLogStore{}
	q := services.NewAsyncQueryLog(store, 4)
	q.Close()

	// Must be a silent no-op, not a panic on a closed channel.
	q.Record(logEntry("late"))
	assert.Empty(t, store.queries())
}

func TestNoopQueryRecorder(t *testing.T) {
	services.NoopQueryRecorder{}.Record(logEntry("ignored"))
}
