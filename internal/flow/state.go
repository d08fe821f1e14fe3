package flow

import (
	"errors"
	"fmt"
)

// State is the controller's position on every axis. It only changes
// through transition.
type State struct {
	Mode         Mode
	OTP          OTPState
	OTPEmail     string
	Submitting   bool
	CodeInFlight bool
	// Epoch increments on every reset so results of calls that started
	// before the reset can be recognised and dropped.
	Epoch uint64
}

type eventKind int

const (
	evReset eventKind = iota
	evCodeBegin
	evCodeEnd
	evCodeSent
	evCodeVerified
	evSubmitBegin
	evSubmitEnd
	evFinish
)

func (k eventKind) String() string {
	return [...]string{"reset", "code-begin", "code-end", "code-sent", "code-verified", "submit-begin", "submit-end", "finish"}[k]
}

type event struct {
	kind  eventKind
	mode  Mode
	email string
}

var (
	errInvalidTransition = errors.New("flow: invalid transition")
	errBusy              = errors.New("flow: operation in flight")
)

// transition is the only place State changes. Resets keep the in-flight
// gates: they track real calls and are released by those calls.
func transition(s State, ev event) (State, error) {
	switch ev.kind {
	case evReset:
		return State{
			Mode:         ev.mode,
			Submitting:   s.Submitting,
			CodeInFlight: s.CodeInFlight,
			Epoch:        s.Epoch + 1,
		}, nil

	case evFinish:
		return transition(s, event{kind: evReset, mode: ModeLogin})

	case evCodeBegin:
		if s.CodeInFlight || s.Submitting {
			return s, errBusy
		}
		s.CodeInFlight = true
		return s, nil

	case evCodeEnd:
		s.CodeInFlight = false
		return s, nil

	case evCodeSent:
		if s.Mode == ModeLogin || s.OTP == OTPVerified || ev.email == "" {
			return s, invalid(s, ev)
		}
		s.OTP = OTPSent
		s.OTPEmail = ev.email
		return s, nil

	case evCodeVerified:
		if s.OTP != OTPSent || ev.email != s.OTPEmail {
			return s, invalid(s, ev)
		}
		s.OTP = OTPVerified
		return s, nil

	case evSubmitBegin:
		if s.Submitting || s.CodeInFlight {
			return s, errBusy
		}
		s.Submitting = true
		return s, nil

	case evSubmitEnd:
		s.Submitting = false
		return s, nil
	}
	return s, invalid(s, ev)
}

func invalid(s State, ev event) error {
	return fmt.Errorf("%w: %s in mode=%s otp=%s", errInvalidTransition, ev.kind, s.Mode, s.OTP)
}
