package session_test

import (
	"errors"
	"testing"

	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/Goofygiraffe06/otpgate/internal/session"
	"github.com/Goofygiraffe06/otpgate/store"
)

type failingStore struct {
	*store.KVStore
	failOn string
}

func (f failingStore) Set(key, value string) error {
	if key == f.failOn {
		return errors.New("write failed")
	}
	return f.KVStore.Set(key, value)
}

func TestPublish(t *testing.T) {
	kv := store.NewMemoryKV()
	var notified []models.Identity
	p := session.NewPublisher(kv, func(u models.Identity) { notified = append(notified, u) })

	user := models.Identity{ID: "u1", Email: "asha@gmail.com", Username: "asha"}
	if err := p.Publish("tok", user); err != nil {
		t.Fatal(err)
	}
	if len(notified) != 1 || notified[0].ID != "u1" {
		t.Errorf("expected one notification, got %v", notified)
	}

	token, got, ok := p.Current()
	if !ok || token != "tok" || got.Email != "asha@gmail.com" {
		t.Errorf("unexpected session %q %+v %v", token, got, ok)
	}

	if err := p.Clear(); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := p.Current(); ok {
		t.Error("expected cleared session")
	}
}

func TestPublishErrors(t *testing.T) {
	t.Run("empty token", func(t *testing.T) {
		p := session.NewPublisher(store.NewMemoryKV(), nil)
		if err := p.Publish("", models.Identity{}); !errors.Is(err, session.ErrEmptyToken) {
			t.Errorf("expected ErrEmptyToken, got %v", err)
		}
	})

	t.Run("user write failure rolls back token", func(t *testing.T) {
		kv := store.NewMemoryKV()
		called := false
		p := session.NewPublisher(failingStore{KVStore: kv, failOn: session.UserKey}, func(models.Identity) { called = true })
		if err := p.Publish("tok", models.Identity{ID: "u1"}); err == nil {
			t.Fatal("expected error")
		}
		if _, ok := kv.Get(session.TokenKey); ok {
			t.Error("token should be rolled back")
		}
		if called {
			t.Error("host must not be notified on failure")
		}
	})
}
