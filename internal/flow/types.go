// Package flow is the state machine behind the login / registration /
// password-reset modal. It decides which actions are allowed, runs them
// against a VerificationService and records the outcome as form errors and
// banners for the presentation layer.
package flow

import (
	"context"
	"errors"

	"github.com/Goofygiraffe06/otpgate/internal/form"
	"github.com/Goofygiraffe06/otpgate/internal/models"
)

// Mode is the active flow. Exactly one is active at a time.
type Mode int

const (
	ModeLogin Mode = iota
	ModeRegister
	ModeForgotPassword
)

func (m Mode) String() string {
	switch m {
	case ModeLogin:
		return "login"
	case ModeRegister:
		return "register"
	case ModeForgotPassword:
		return "forgot-password"
	default:
		return "unknown"
	}
}

// Purpose maps the flow to the code purpose understood by the service.
func (m Mode) Purpose() models.Purpose {
	if m == ModeForgotPassword {
		return models.PurposeReset
	}
	return models.PurposeRegister
}

// ParseMode accepts the names returned by String.
func ParseMode(s string) (Mode, bool) {
	switch s {
	case "login":
		return ModeLogin, true
	case "register":
		return ModeRegister, true
	case "forgot-password", "forgot":
		return ModeForgotPassword, true
	}
	return ModeLogin, false
}

// OTPState is the lifecycle of the one-time code for the current flow.
type OTPState int

const (
	OTPNotSent OTPState = iota
	OTPSent
	OTPVerified
)

func (s OTPState) String() string {
	switch s {
	case OTPNotSent:
		return "not-sent"
	case OTPSent:
		return "sent"
	case OTPVerified:
		return "verified"
	default:
		return "unknown"
	}
}

// TopError is the single most recent failure or success message. An empty
// Field means a flow-level banner.
type TopError struct {
	Message string
	Field   form.Field
}

func (e TopError) Empty() bool  { return e.Message == "" }
func (e TopError) Banner() bool { return e.Message != "" && e.Field == "" }

// Outcome reports what an operation did.
type Outcome int

const (
	// Rejected: a gate was closed, a precondition for running was not met,
	// or the result arrived after a reset. Nothing changed.
	Rejected Outcome = iota
	// Invalid: client-side validation failed; no service call was made.
	Invalid
	// Failed: the service call failed; the error is in TopError.
	Failed
	// Succeeded: the service call succeeded and state advanced.
	Succeeded
)

func (o Outcome) String() string {
	switch o {
	case Rejected:
		return "rejected"
	case Invalid:
		return "invalid"
	case Failed:
		return "failed"
	case Succeeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

var (
	ErrUnknownField = errors.New("flow: unknown field")
	ErrFieldLocked  = errors.New("flow: field locked while code is verified")
)

// VerificationService issues and checks one-time codes and performs the
// credential operations. Failures should be *models.ServiceError where the
// service reported them; anything else is treated as a transport failure.
type VerificationService interface {
	SendRegistrationCode(ctx context.Context, email string) error
	SendResetCode(ctx context.Context, email string) error
	VerifyCode(ctx context.Context, email, code string, purpose models.Purpose) error
	Register(ctx context.Context, req models.RegisterRequest) error
	Login(ctx context.Context, email, password string) (models.LoginResponse, error)
	ResetPassword(ctx context.Context, email, newPassword, code string) error
}

// Publisher persists the session issued on login and notifies the host.
type Publisher interface {
	Publish(token string, user models.Identity) error
}
