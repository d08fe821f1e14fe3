// Package timer implements the countdown that gates re-issuing a one-time
// code. It is tick driven: nothing happens between calls to Tick.
package timer

import (
	"context"
	"sync"
	"time"
)

// DefaultSeconds is the resend window.
const DefaultSeconds = 60

// Resend is a cooperative countdown. It is not safe for concurrent use;
// the owner serialises Start, Tick and Cancel.
type Resend struct {
	remaining int
	running   bool
	canResend bool
}

// Start begins a countdown of seconds (DefaultSeconds when <= 0) and
// disables resend until it expires.
func (r *Resend) Start(seconds int) {
	if seconds <= 0 {
		seconds = DefaultSeconds
	}
	r.remaining = seconds
	r.running = true
	r.canResend = false
}

// Tick advances the countdown by one second. It reports whether the
// countdown expired on this tick. Ticks after Cancel or expiry do nothing.
func (r *Resend) Tick() bool {
	if !r.running {
		return false
	}
	r.remaining--
	if r.remaining > 0 {
		return false
	}
	r.remaining = 0
	r.running = false
	r.canResend = true
	return true
}

// Cancel stops the countdown and clears the remaining time. canResend is
// left as is.
func (r *Resend) Cancel() {
	r.running = false
	r.remaining = 0
}

// Reset cancels and clears canResend.
func (r *Resend) Reset() {
	r.Cancel()
	r.canResend = false
}

// DisableResend clears canResend without touching the countdown.
func (r *Resend) DisableResend() {
	r.canResend = false
}

func (r *Resend) Remaining() int  { return r.remaining }
func (r *Resend) Running() bool   { return r.running }
func (r *Resend) CanResend() bool { return r.canResend }

// Driver calls a tick function at a fixed interval until stopped.
type Driver struct {
	interval time.Duration
	tick     func()

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewDriver returns a stopped driver. interval defaults to one second.
func NewDriver(interval time.Duration, tick func()) *Driver {
	if interval <= 0 {
		interval = time.Second
	}
	return &Driver{interval: interval, tick: tick}
}

// Run starts ticking in a goroutine until ctx is done or Stop is called.
// Calling Run on a running driver does nothing.
func (d *Driver) Run(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})

	go func(done chan struct{}) {
		defer close(done)
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				d.tick()
			}
		}
	}(d.done)
}

// Stop halts the driver and waits for the ticking goroutine to exit.
func (d *Driver) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel, d.done = nil, nil
	d.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
