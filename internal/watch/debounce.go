package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of events for the same path into one event,
// emitted once the path has been quiet for the configured window. Editors
// often write a file several times per save.
type Debouncer struct {
	quiet time.Duration
	emit  func(Event)

	mu      sync.Mutex
	pending map[string]*pendingEvent
	stopped bool
}

type pendingEvent struct {
	ev    Event
	timer *time.Timer
}

// NewDebouncer creates a debouncer calling emit after quiet has passed.
func NewDebouncer(quiet time.Duration, emit func(Event)) *Debouncer {
	return &Debouncer{quiet: quiet, emit: emit, pending: map[string]*pendingEvent{}}
}

// Trigger records ev and restarts the quiet window for its path.
func (d *Debouncer) Trigger(ev Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	key := ev.key()
	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
		p.ev.Op = merge(p.ev.Op, ev.Op)
		p.timer = time.AfterFunc(d.quiet, func() { d.fire(key) })
		return
	}
	d.pending[key] = &pendingEvent{
		ev:    ev,
		timer: time.AfterFunc(d.quiet, func() { d.fire(key) }),
	}
}

func (d *Debouncer) fire(key string) {
	d.mu.Lock()
	p, ok := d.pending[key]
	if ok {
		delete(d.pending, key)
	}
	stopped := d.stopped
	d.mu.Unlock()

	if ok && !stopped {
		d.emit(p.ev)
	}
}

// Pending returns how many paths are waiting for their quiet window.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels all pending events.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, key)
	}
}
