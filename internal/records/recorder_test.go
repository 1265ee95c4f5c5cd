package records

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lost-and-found/server/logging"
	recordlog "lost-and-found/server/logging/records"
)

type flakyStore struct {
	mu       sync.Mutex
	failLeft int
	attempts int
	rows     []RetiredPlayer
}

func (s *flakyStore) Append(_ context.Context, rec RetiredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts++
	if s.failLeft > 0 {
		s.failLeft--
		return errors.New("store offline")
	}
	s.rows = append(s.rows, rec)
	return nil
}

func (s *flakyStore) List(_ context.Context, start, limit int) ([]RetiredPlayer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]RetiredPlayer, len(s.rows))
	copy(out, s.rows)
	return out, nil
}

func (s *flakyStore) attemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

type capturePublisher struct {
	mu     sync.Mutex
	events []logging.Event
}

func (p *capturePublisher) Publish(_ context.Context, evt logging.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
}

func (p *capturePublisher) byType(t logging.EventType) []logging.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []logging.Event
	for _, evt := range p.events {
		if evt.Type == t {
			out = append(out, evt)
		}
	}
	return out
}

func closeRecorder(t *testing.T, rec *Recorder) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rec.Close(ctx); err != nil {
		t.Fatalf("close recorder: %v", err)
	}
}

func TestRecorderWritesRecords(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store, nil, RecorderConfig{RetryDelay: func(int) time.Duration { return time.Millisecond }})

	rec.Record("alice", 30, 12.5)
	rec.Record("bob", 10, 3.25)
	closeRecorder(t, rec)

	rows, err := store.List(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("list records: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 records, got %d", len(rows))
	}
	if rows[0].Name != "alice" || rows[0].Score != 30 || rows[0].PlayTime != 12.5 {
		t.Fatalf("unexpected first record %+v", rows[0])
	}
}

func TestRecorderRetriesFailedAppends(t *testing.T) {
	store := &flakyStore{failLeft: 2}
	pub := &capturePublisher{}
	rec := NewRecorder(store, pub, RecorderConfig{RetryDelay: func(int) time.Duration { return time.Millisecond }})

	rec.Record("carol", 50, 8)
	closeRecorder(t, rec)

	rows, _ := store.List(context.Background(), 0, 10)
	if len(rows) != 1 || rows[0].Name != "carol" {
		t.Fatalf("expected carol stored after retries, got %+v", rows)
	}
	if got := store.attemptCount(); got != 3 {
		t.Fatalf("expected 3 append attempts, got %d", got)
	}
	if got := len(pub.byType(recordlog.EventAppendFailed)); got != 2 {
		t.Fatalf("expected 2 append_failed events, got %d", got)
	}
	if got := len(pub.byType(recordlog.EventRetryFlushed)); got != 1 {
		t.Fatalf("expected 1 retry_flushed event, got %d", got)
	}
}

func TestRecorderPreservesOrderAcrossRetries(t *testing.T) {
	store := &flakyStore{failLeft: 1}
	rec := NewRecorder(store, nil, RecorderConfig{RetryDelay: func(int) time.Duration { return time.Millisecond }})

	rec.Record("first", 1, 1)
	rec.Record("second", 2, 2)
	rec.Record("third", 3, 3)
	closeRecorder(t, rec)

	rows, _ := store.List(context.Background(), 0, 10)
	if len(rows) != 3 {
		t.Fatalf("expected 3 records, got %d", len(rows))
	}
	for i, name := range []string{"first", "second", "third"} {
		if rows[i].Name != name {
			t.Fatalf("expected %s at position %d, got %s", name, i, rows[i].Name)
		}
	}
}

func TestRecorderIgnoresRecordAfterClose(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store, nil, RecorderConfig{})
	closeRecorder(t, rec)

	rec.Record("late", 1, 1)

	if got := store.Len(); got != 0 {
		t.Fatalf("expected no records after close, got %d", got)
	}
}
