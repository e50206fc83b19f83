package watch

import (
	"log/slog"
	"sync"
	"time"
)

// Debouncer coalesces bursts of file events into one run. The callback
// receives the path of the last event in the burst.
type Debouncer struct {
	interval time.Duration
	callback func(path string)

	mu      sync.Mutex
	timer   *time.Timer
	pending string
	stopped bool
}

// NewDebouncer creates a debouncer that fires callback after interval
// without further events.
func NewDebouncer(interval time.Duration, callback func(path string)) *Debouncer {
	return &Debouncer{interval: interval, callback: callback}
}

// Trigger records an event for path and restarts the quiet period.
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending = path

	if d.timer == nil {
		d.timer = time.AfterFunc(d.interval, d.fire)
		return
	}

	d.timer.Reset(d.interval)
}

// Stop cancels any pending callback. Later triggers are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true

	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	path, stopped := d.pending, d.stopped
	d.mu.Unlock()

	if stopped {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("watch callback panicked", slog.Any("error", r), slog.String("path", path))
		}
	}()

	d.callback(path)
}
