package watch

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"git.home.luguber.info/inful/nocms/internal/logfields"
	"git.home.luguber.info/inful/nocms/internal/metrics"
)

// ErrQueueFull is returned by Enqueue when the buffer is exhausted. The
// event is not lost: it is folded into a single full rebuild that runs once
// the buffer drains.
var ErrQueueFull = stdErrors.New("watch queue is full")

// ErrQueueClosed is returned by Enqueue after the worker stopped.
var ErrQueueClosed = stdErrors.New("watch queue is closed")

// Queue is a FIFO of events drained by a single worker, so events are never
// processed concurrently. Events arriving while one is being handled wait.
type Queue struct {
	events   chan Event
	handle   func(context.Context, Event)
	recorder metrics.Recorder

	// overflow marks a full rebuild owed for events rejected while full.
	overflow atomic.Bool

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// NewQueue creates a queue holding up to size events.
func NewQueue(size int, handle func(context.Context, Event), recorder metrics.Recorder) *Queue {
	if size <= 0 {
		size = 256
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Queue{events: make(chan Event, size), handle: handle, recorder: recorder}
}

// Enqueue appends ev. It never blocks.
func (q *Queue) Enqueue(ev Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.events <- ev:
		q.recorder.SetQueueDepth(len(q.events))
		return nil
	default:
		q.overflow.Store(true)
		return ErrQueueFull
	}
}

// Length returns the number of waiting events.
func (q *Queue) Length() int { return len(q.events) }

// RebuildPending reports whether an overflow rebuild is owed.
func (q *Queue) RebuildPending() bool { return q.overflow.Load() }

// Start launches the worker. It exits when ctx is done or Stop is called.
func (q *Queue) Start(ctx context.Context) {
	q.wg.Add(1)
	go q.worker(ctx)
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-q.events:
			if !ok {
				q.flushOverflow(ctx)
				return
			}
			q.recorder.SetQueueDepth(len(q.events))
			q.process(ctx, ev)
			if len(q.events) == 0 {
				q.flushOverflow(ctx)
			}
		}
	}
}

// flushOverflow runs the owed full rebuild, at most once per overflow.
func (q *Queue) flushOverflow(ctx context.Context) {
	if q.overflow.CompareAndSwap(true, false) {
		slog.Warn("Watch queue overflowed; running full rebuild")
		q.process(ctx, Event{Op: OpRebuild})
	}
}

func (q *Queue) process(ctx context.Context, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Watch event handler panicked",
				logfields.Root(string(ev.Root)), logfields.Path(ev.Path), slog.Any("panic", r))
		}
	}()
	q.handle(ctx, ev)
}

// Stop closes the queue, lets the worker drain what is already queued and
// waits for it to exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.closed {
		q.closed = true
		close(q.events)
	}
	q.mu.Unlock()
	q.wg.Wait()
}
