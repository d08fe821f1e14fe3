package manager_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Goofygiraffe06/otpgate/internal/manager"
)

func TestWorkManager(t *testing.T) {
	m := manager.NewWorkManager(manager.WithDBWorkers(1), manager.WithHashWorkers(1), manager.WithMailWorkers(1), manager.WithQueueSize(2))
	defer m.Close()

	ctx := context.Background()
	ran := map[string]bool{}
	for name, run := range map[string]func(context.Context, func(context.Context) error) error{
		"db":   m.DB,
		"hash": m.Hash,
		"mail": m.Mail,
	} {
		name := name
		if err := run(ctx, func(ctx context.Context) error { ran[name] = true; return nil }); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if len(ran) != 3 {
		t.Errorf("expected all pools to run, got %v", ran)
	}

	want := errors.New("mail down")
	if err := m.Mail(ctx, func(ctx context.Context) error { return want }); !errors.Is(err, want) {
		t.Errorf("expected task error, got %v", err)
	}
}

func TestCloseNil(t *testing.T) {
	var m *manager.WorkManager
	m.Close()
}
