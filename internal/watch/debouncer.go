package watch

import (
	"sync"
	"time"
)

// DefaultDebounce is used when no quiet period is configured.
const DefaultDebounce = 200 * time.Millisecond

// Debouncer coalesces bursts of events per key. Only the last callback
// triggered for a key runs, once the key has been quiet for the duration.
type Debouncer struct {
	duration time.Duration

	mu      sync.Mutex
	pending map[string]*pendingCall
	seq     uint64
	stopped bool
}

type pendingCall struct {
	timer *time.Timer
	seq   uint64
}

// NewDebouncer creates a Debouncer. A non-positive duration uses
// DefaultDebounce.
func NewDebouncer(duration time.Duration) *Debouncer {
	if duration <= 0 {
		duration = DefaultDebounce
	}
	return &Debouncer{duration: duration, pending: make(map[string]*pendingCall)}
}

// Trigger schedules fn for key, replacing anything already scheduled for it.
func (d *Debouncer) Trigger(key string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
	}
	d.seq++
	seq := d.seq
	d.pending[key] = &pendingCall{
		seq: seq,
		timer: time.AfterFunc(d.duration, func() {
			d.mu.Lock()
			p, ok := d.pending[key]
			// A timer that fired while being replaced must not run.
			run := ok && p.seq == seq && !d.stopped
			if run {
				delete(d.pending, key)
			}
			d.mu.Unlock()
			if run {
				fn()
			}
		}),
	}
}

// Cancel drops the callback pending for key.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if p, ok := d.pending[key]; ok {
		p.timer.Stop()
		delete(d.pending, key)
	}
}

// Stop cancels everything and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for k, p := range d.pending {
		p.timer.Stop()
		delete(d.pending, k)
	}
}
