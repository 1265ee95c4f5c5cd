package records

import (
	"context"
	"sync"
	"time"

	"lost-and-found/server/logging"
	recordlog "lost-and-found/server/logging/records"
)

// RecorderConfig tunes the asynchronous recorder.
type RecorderConfig struct {
	// Buffer caps how many records may wait for the store before new ones
	// are dropped. Values below 16 are raised to 16.
	Buffer int
	// RetryDelay maps consecutive failures to the pause before the next
	// attempt. Nil selects an exponential delay capped at 32 seconds.
	RetryDelay func(failures int) time.Duration
	// Timeout bounds each store call. Zero selects 5 seconds.
	Timeout time.Duration
}

// Recorder drains retirement records to a Store on its own goroutine so the
// simulation never blocks on storage. Records that fail to append stay queued
// and are retried with increasing delays.
type Recorder struct {
	store   Store
	pub     logging.Publisher
	queue   chan RetiredPlayer
	stopped chan struct{}
	abort   chan struct{}
	retry   func(failures int) time.Duration
	timeout time.Duration

	mu      sync.Mutex
	closed  bool
	aborted bool

	// worker state, only the run goroutine touches these
	pending  []RetiredPlayer
	failures int
}

// NewRecorder starts the drain goroutine for store. pub may be nil.
func NewRecorder(store Store, pub logging.Publisher, cfg RecorderConfig) *Recorder {
	retry := cfg.RetryDelay
	if retry == nil {
		retry = defaultRetryDelay
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	r := &Recorder{
		store:   store,
		pub:     pub,
		queue:   make(chan RetiredPlayer, min(max(cfg.Buffer, 16), 1024)),
		stopped: make(chan struct{}),
		abort:   make(chan struct{}),
		retry:   retry,
		timeout: timeout,
	}
	go r.run()
	return r
}

func defaultRetryDelay(failures int) time.Duration {
	return time.Duration(1<<min(failures, 5)) * time.Second
}

// Record queues one retirement record. It never blocks; when the queue is
// full the record is dropped and a warning is published.
func (r *Recorder) Record(name string, score int, playTime float64) {
	rec := RetiredPlayer{Name: name, Score: score, PlayTime: playTime}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	select {
	case r.queue <- rec:
	default:
		recordlog.AppendFailed(context.Background(), r.pub, recordlog.AppendFailedPayload{
			Name:    rec.Name,
			Score:   rec.Score,
			Pending: len(r.queue),
			Reason:  "recorder queue full",
		})
	}
}

// Close stops accepting records and waits for the backlog to drain. When ctx
// expires first the worker is told to abandon whatever is still pending.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	select {
	case <-r.stopped:
		return nil
	case <-ctx.Done():
		r.mu.Lock()
		if !r.aborted {
			r.aborted = true
			close(r.abort)
		}
		r.mu.Unlock()
		return ctx.Err()
	}
}

func (r *Recorder) run() {
	defer close(r.stopped)
	for {
		if len(r.pending) == 0 {
			rec, ok := <-r.queue
			if !ok {
				break
			}
			r.pending = append(r.pending, rec)
			r.drain()
			continue
		}
		timer := time.NewTimer(r.retry(r.failures))
		select {
		case rec, ok := <-r.queue:
			timer.Stop()
			if !ok {
				r.flushRemaining()
				return
			}
			r.pending = append(r.pending, rec)
		case <-timer.C:
			r.drain()
		}
	}
	r.flushRemaining()
}

// flushRemaining keeps retrying after shutdown until the backlog is stored or
// Close gives up on the worker.
func (r *Recorder) flushRemaining() {
	for len(r.pending) > 0 {
		r.drain()
		if len(r.pending) == 0 {
			return
		}
		timer := time.NewTimer(r.retry(r.failures))
		select {
		case <-timer.C:
		case <-r.abort:
			timer.Stop()
			return
		}
	}
}

// drain writes pending records oldest first, stopping at the first failure so
// order is preserved across retries.
func (r *Recorder) drain() {
	flushed := 0
	for len(r.pending) > 0 {
		rec := r.pending[0]
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		err := r.store.Append(ctx, rec)
		cancel()
		if err != nil {
			r.failures++
			recordlog.AppendFailed(context.Background(), r.pub, recordlog.AppendFailedPayload{
				Name:    rec.Name,
				Score:   rec.Score,
				Pending: len(r.pending),
				Reason:  err.Error(),
			})
			return
		}
		r.pending = r.pending[1:]
		flushed++
	}
	if r.failures > 0 && flushed > 0 {
		recordlog.RetryFlushed(context.Background(), r.pub, recordlog.RetryFlushedPayload{Flushed: flushed})
	}
	r.failures = 0
	r.pending = nil
}
