package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/Goofygiraffe06/otpgate/internal/flow"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/Goofygiraffe06/otpgate/internal/session"
	"github.com/Goofygiraffe06/otpgate/store"
	"github.com/fatih/color"
)

type stubService struct{}

func (stubService) SendRegistrationCode(context.Context, string) error { return nil }
func (stubService) SendResetCode(context.Context, string) error        { return nil }
func (stubService) VerifyCode(context.Context, string, string, models.Purpose) error {
	return nil
}
func (stubService) Register(context.Context, models.RegisterRequest) error { return nil }
func (stubService) Login(context.Context, string, string) (models.LoginResponse, error) {
	return models.LoginResponse{Token: "tok", User: models.Identity{ID: "u1", Email: "asha@gmail.com", Username: "asha"}}, nil
}
func (stubService) ResetPassword(context.Context, string, string, string) error { return nil }

// stubSessions accepts only the token "tok".
type stubSessions struct{ err error }

func (s stubSessions) Session(_ context.Context, token string) (models.Identity, error) {
	if s.err != nil {
		return models.Identity{}, s.err
	}
	if token != "tok" {
		return models.Identity{}, &models.ServiceError{Status: http.StatusUnauthorized, Code: models.CodeInvalidCredentials}
	}
	return models.Identity{ID: "u1", Email: "asha@gmail.com", Username: "asha", USN: "1JST21CS001"}, nil
}

func setupREPL(t *testing.T, script string) (*repl, *bytes.Buffer, *session.Publisher) {
	return setupREPLWith(t, script, store.NewMemoryKV(), stubSessions{})
}

func setupREPLWith(t *testing.T, script string, kv session.Store, sessions sessionChecker) (*repl, *bytes.Buffer, *session.Publisher) {
	t.Helper()
	color.NoColor = true

	var out bytes.Buffer
	pub := session.NewPublisher(kv, nil)
	r := newREPL(strings.NewReader(script), &out, pub, sessions)
	r.ctrl = flow.New(stubService{}, flow.WithPublisher(pub), flow.WithOnClose(r.closed))
	return r, &out, pub
}

func TestREPLRegistration(t *testing.T) {
	script := strings.Join([]string{
		"mode register",
		"set username asha",
		"set identifier 1JST21CS001",
		"set email asha@gmail.com",
		"set password Abcdef1!",
		"set confirmPassword Abcdef1!",
		"set branch CSE",
		"set section A",
		"set phone 9876543210",
		"send",
		"set otp 123456",
		"verify",
		"submit",
		"quit",
	}, "\n")
	r, out, _ := setupREPL(t, script)
	r.run(context.Background())

	if r.ctrl.State().Mode != flow.ModeLogin {
		t.Errorf("expected login mode after registration, got %s", r.ctrl.State().Mode)
	}
	if !strings.Contains(out.String(), flow.MsgRegistered) {
		t.Errorf("expected success banner in output:\n%s", out.String())
	}
	if strings.Contains(out.String(), "Abcdef1!") {
		t.Error("passwords must be masked")
	}
}

func TestREPLLoginEndsSession(t *testing.T) {
	script := "set email asha@gmail.com\nset password x\nsubmit\nshow\n"
	r, _, pub := setupREPL(t, script)
	r.run(context.Background())

	if !r.done {
		t.Error("expected the loop to end after login")
	}
	if token, _, ok := pub.Current(); !ok || token != "tok" {
		t.Errorf("expected stored session, got %q %v", token, ok)
	}
}

func TestREPLUnknownInput(t *testing.T) {
	r, out, _ := setupREPL(t, "mode sideways\nset nickname x\nfly\nquit\n")
	r.run(context.Background())

	for _, want := range []string{`unknown mode "sideways"`, "nickname: flow: unknown field", `unknown command "fly"`} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestREPLWhoami(t *testing.T) {
	signedIn := func(t *testing.T, token string) *store.KVStore {
		t.Helper()
		kv := store.NewMemoryKV()
		pub := session.NewPublisher(kv, nil)
		if err := pub.Publish(token, models.Identity{ID: "u1", Email: "asha@gmail.com", Username: "asha"}); err != nil {
			t.Fatal(err)
		}
		return kv
	}

	t.Run("valid session", func(t *testing.T) {
		r, out, pub := setupREPLWith(t, "whoami\nquit\n", signedIn(t, "tok"), stubSessions{})
		r.run(context.Background())

		if !strings.Contains(out.String(), "asha <asha@gmail.com> 1JST21CS001") {
			t.Errorf("expected server identity in output:\n%s", out.String())
		}
		if _, _, ok := pub.Current(); !ok {
			t.Error("valid session must be kept")
		}
	})

	t.Run("expired session is cleared", func(t *testing.T) {
		r, out, pub := setupREPLWith(t, "whoami\nquit\n", signedIn(t, "stale"), stubSessions{})
		r.run(context.Background())

		if !strings.Contains(out.String(), "Session expired. Please login again.") {
			t.Errorf("expected expiry notice:\n%s", out.String())
		}
		if _, _, ok := pub.Current(); ok {
			t.Error("expired session must be cleared")
		}
	})

	t.Run("server unreachable keeps session", func(t *testing.T) {
		down := stubSessions{err: errors.New("connection refused")}
		r, out, pub := setupREPLWith(t, "whoami\nquit\n", signedIn(t, "tok"), down)
		r.run(context.Background())

		if !strings.Contains(out.String(), "could not check session") {
			t.Errorf("expected check failure:\n%s", out.String())
		}
		if _, _, ok := pub.Current(); !ok {
			t.Error("session must survive a transport failure")
		}
	})

	t.Run("not signed in", func(t *testing.T) {
		r, out, _ := setupREPL(t, "whoami\nquit\n")
		r.run(context.Background())
		if !strings.Contains(out.String(), "not signed in") {
			t.Errorf("unexpected output:\n%s", out.String())
		}
	})
}
