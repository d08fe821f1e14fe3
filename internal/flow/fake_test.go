package flow_test

import (
	"context"
	"sync"

	"github.com/Goofygiraffe06/otpgate/internal/models"
)

// fakeService records every call and returns the configured errors.
type fakeService struct {
	mu    sync.Mutex
	calls []string

	sendErr     error
	verifyErr   error
	registerErr error
	loginErr    error
	resetErr    error
	login       models.LoginResponse

	lastRegister models.RegisterRequest
	lastPurpose  models.Purpose

	// block, when set, holds every call until it is closed.
	block chan struct{}
}

func (f *fakeService) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
}

func (f *fakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeService) count(name string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == name {
			n++
		}
	}
	return n
}

func (f *fakeService) SendRegistrationCode(ctx context.Context, email string) error {
	f.record("send-register")
	return f.sendErr
}

func (f *fakeService) SendResetCode(ctx context.Context, email string) error {
	f.record("send-reset")
	return f.sendErr
}

func (f *fakeService) VerifyCode(ctx context.Context, email, code string, purpose models.Purpose) error {
	f.mu.Lock()
	f.lastPurpose = purpose
	f.mu.Unlock()
	f.record("verify")
	return f.verifyErr
}

func (f *fakeService) Register(ctx context.Context, req models.RegisterRequest) error {
	f.mu.Lock()
	f.lastRegister = req
	f.mu.Unlock()
	f.record("register")
	return f.registerErr
}

func (f *fakeService) Login(ctx context.Context, email, password string) (models.LoginResponse, error) {
	f.record("login")
	return f.login, f.loginErr
}

func (f *fakeService) ResetPassword(ctx context.Context, email, newPassword, code string) error {
	f.record("reset")
	return f.resetErr
}

type fakePublisher struct {
	token string
	user  models.Identity
	err   error
}

func (p *fakePublisher) Publish(token string, user models.Identity) error {
	if p.err != nil {
		return p.err
	}
	p.token, p.user = token, user
	return nil
}
