package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"recall/internal/models"
	"recall/internal/store"
)

// QueryRecorder accepts diagnostic records of completed searches. Record
// must never block or fail the caller.
type QueryRecorder interface {
	Record(entry models.QueryLogEntry)
}

// AsyncQueryLog buffers query log entries on a bounded channel drained by a
// single background worker. When the buffer is full the oldest entry is
// dropped so search latency is never coupled to the log store.
type AsyncQueryLog struct {
	store   store.QueryLogStore
	entries chan models.QueryLogEntry
	wg      sync.WaitGroup
	mu      sync.Mutex
	closed  bool
	dropped int64
}

const queryLogWriteTimeout = 5 * time.Second

func NewAsyncQueryLog(s store.QueryLogStore, buffer int) *AsyncQueryLog {
	if buffer < 1 {
		buffer = 1
	}
	q := &AsyncQueryLog{
		store:   s,
		entries: make(chan models.QueryLogEntry, buffer),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// Record enqueues an entry without blocking. On a full buffer the oldest
// pending entry is discarded in favor of the new one.
func (q *AsyncQueryLog) Record(entry models.QueryLogEntry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ExecutedAt.IsZero() {
		entry.ExecutedAt = time.Now()
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	for {
		select {
		case q.entries <- entry:
			return
		default:
		}
		select {
		case <-q.entries:
			q.dropped++
			log.WithField("droppedTotal", q.dropped).Warn("query log buffer full, dropping oldest entry")
		default:
		}
	}
}

// Dropped returns how many entries have been discarded due to backpressure.
func (q *AsyncQueryLog) Dropped() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

// Close stops accepting entries, flushes the buffer, and waits for the
// worker to exit.
func (q *AsyncQueryLog) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	close(q.entries)
	q.wg.Wait()
}

func (q *AsyncQueryLog) run() {
	defer q.wg.Done()
	for entry := range q.entries {
		ctx, cancel := context.WithTimeout(context.Background(), queryLogWriteTimeout)
		err := q.store.RecordQuery(ctx, &entry)
		cancel()
		if err != nil {
			// Diagnostics only; never escalate.
			log.WithError(err).WithFields(log.Fields{
				"owner":  entry.OwnerID,
				"method": entry.Method,
			}).Warn("failed to persist query log entry")
		}
	}
}

var _ QueryRecorder = (*AsyncQueryLog)(nil)

// NoopQueryRecorder discards every entry. Used when no log store is wired.
type NoopQueryRecorder struct{}

func (NoopQueryRecorder) Record(models.QueryLogEntry) {}
