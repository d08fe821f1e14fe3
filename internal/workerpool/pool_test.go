package workerpool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/workerpool"
)

func TestDo(t *testing.T) {
	p := workerpool.New("test", 2, 4)
	defer p.Close()

	t.Run("returns task error", func(t *testing.T) {
		want := errors.New("boom")
		if err := p.Do(context.Background(), func(ctx context.Context) error { return want }); !errors.Is(err, want) {
			t.Errorf("expected %v, got %v", want, err)
		}
	})

	t.Run("panic becomes error", func(t *testing.T) {
		err := p.Do(context.Background(), func(ctx context.Context) error { panic("oops") })
		if err == nil {
			t.Error("expected error from panicking task")
		}
	})

	t.Run("caller cancellation reaches task", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		started := make(chan struct{})
		seen := make(chan error, 1)
		go func() {
			<-started
			cancel()
		}()
		err := p.Do(ctx, func(taskCtx context.Context) error {
			close(started)
			<-taskCtx.Done()
			seen <- taskCtx.Err()
			return taskCtx.Err()
		})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected canceled, got %v", err)
		}
		select {
		case <-seen:
		case <-time.After(time.Second):
			t.Error("task context was not cancelled")
		}
	})
}

func TestTaskTimeout(t *testing.T) {
	p := workerpool.NewWithTimeout("timeout", 1, 1, 10*time.Millisecond)
	defer p.Close()

	err := p.Do(context.Background(), func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestQueueFull(t *testing.T) {
	p := workerpool.New("full", 1, 1)
	release := make(chan struct{})
	running := make(chan struct{})

	if err := p.Submit(func(ctx context.Context) { close(running); <-release }); err != nil {
		t.Fatal(err)
	}
	<-running
	if err := p.Submit(func(ctx context.Context) {}); err != nil {
		t.Fatalf("queue slot should be free: %v", err)
	}
	if err := p.Submit(func(ctx context.Context) {}); !errors.Is(err, workerpool.ErrQueueFull) {
		t.Errorf("expected queue full, got %v", err)
	}
	close(release)
	p.Close()
}

func TestClose(t *testing.T) {
	p := workerpool.New("close", 2, 8)
	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		if err := p.Submit(func(ctx context.Context) { ran.Add(1) }); err != nil {
			t.Fatal(err)
		}
	}
	p.Close()
	if ran.Load() != 5 {
		t.Errorf("queued tasks should drain on close, ran %d", ran.Load())
	}
	if err := p.Submit(func(ctx context.Context) {}); !errors.Is(err, workerpool.ErrPoolClosed) {
		t.Errorf("expected closed, got %v", err)
	}
	p.Close()
}
