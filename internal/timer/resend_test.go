package timer_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/timer"
)

func TestResendCountdown(t *testing.T) {
	t.Run("start disables resend", func(t *testing.T) {
		var r timer.Resend
		r.Start(3)
		if r.CanResend() {
			t.Error("expected resend disabled after start")
		}
		if r.Remaining() != 3 {
			t.Errorf("expected 3 remaining, got %d", r.Remaining())
		}
	})

	t.Run("expires after exactly n ticks", func(t *testing.T) {
		var r timer.Resend
		r.Start(3)
		for i := 0; i < 2; i++ {
			if r.Tick() {
				t.Fatalf("expired early on tick %d", i+1)
			}
		}
		if !r.Tick() {
			t.Fatal("expected expiry on third tick")
		}
		if !r.CanResend() || r.Remaining() != 0 || r.Running() {
			t.Errorf("unexpected state after expiry: can=%v rem=%d running=%v", r.CanResend(), r.Remaining(), r.Running())
		}
	})

	t.Run("ticks after expiry do nothing", func(t *testing.T) {
		var r timer.Resend
		r.Start(1)
		r.Tick()
		if r.Tick() {
			t.Error("expected no second expiry")
		}
		if r.Remaining() != 0 {
			t.Errorf("expected 0 remaining, got %d", r.Remaining())
		}
	})

	t.Run("default window", func(t *testing.T) {
		var r timer.Resend
		r.Start(0)
		if r.Remaining() != timer.DefaultSeconds {
			t.Errorf("expected %d, got %d", timer.DefaultSeconds, r.Remaining())
		}
	})

	t.Run("cancel is immediate and keeps canResend", func(t *testing.T) {
		var r timer.Resend
		r.Start(1)
		r.Tick()
		r.Start(5)
		r.Cancel()
		if r.Tick() {
			t.Error("tick after cancel must not expire")
		}
		if r.Remaining() != 0 || r.Running() {
			t.Errorf("expected cleared countdown, got rem=%d running=%v", r.Remaining(), r.Running())
		}
		if r.CanResend() {
			t.Error("restart should have cleared canResend before cancel")
		}

		var q timer.Resend
		q.Start(1)
		q.Tick()
		q.Cancel()
		if !q.CanResend() {
			t.Error("cancel must leave canResend untouched")
		}
	})

	t.Run("reset clears canResend", func(t *testing.T) {
		var r timer.Resend
		r.Start(1)
		r.Tick()
		r.Reset()
		if r.CanResend() {
			t.Error("expected canResend false after reset")
		}
	})
}

func TestDriver(t *testing.T) {
	var ticks atomic.Int32
	d := timer.NewDriver(5*time.Millisecond, func() { ticks.Add(1) })

	d.Run(context.Background())
	d.Run(context.Background()) // second run is ignored

	deadline := time.After(time.Second)
	for ticks.Load() < 3 {
		select {
		case <-deadline:
			t.Fatalf("driver ticked only %d times", ticks.Load())
		case <-time.After(5 * time.Millisecond):
		}
	}

	d.Stop()
	after := ticks.Load()
	time.Sleep(30 * time.Millisecond)
	if ticks.Load() != after {
		t.Errorf("driver ticked after stop: %d -> %d", after, ticks.Load())
	}

	d.Stop() // stopping twice is safe
}
