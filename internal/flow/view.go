package flow

import "github.com/Goofygiraffe06/otpgate/internal/form"

// View is a read-only copy of everything the presentation layer needs.
type View struct {
	Mode         Mode
	OTP          OTPState
	Form         form.Form
	FieldErrors  map[form.Field]string
	TopError     TopError
	Notice       string
	Remaining    int
	CanResend    bool
	Submitting   bool
	CodeInFlight bool
	CanSubmit    bool
}

// Snapshot returns the current view.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	errs := make(map[form.Field]string, len(c.fieldErrors))
	for k, v := range c.fieldErrors {
		errs[k] = v
	}
	return View{
		Mode:         c.state.Mode,
		OTP:          c.state.OTP,
		Form:         c.form.Clone(),
		FieldErrors:  errs,
		TopError:     c.topLocked(),
		Notice:       c.noticeLocked(),
		Remaining:    c.resend.Remaining(),
		CanResend:    c.resend.CanResend(),
		Submitting:   c.state.Submitting,
		CodeInFlight: c.state.CodeInFlight,
		CanSubmit:    c.canSubmitLocked(),
	}
}

// State returns the current state value.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CanSubmit is the submission gate for the active flow. It is derived on
// every call and never stored.
func (c *Controller) CanSubmit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canSubmitLocked()
}

func (c *Controller) canSubmitLocked() bool {
	if c.state.Submitting || c.state.CodeInFlight {
		return false
	}
	return submissionProblem(c.state.Mode, c.form, c.state.OTP) == nil
}

// TopError returns the current banner or field message.
func (c *Controller) TopError() TopError {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.topLocked()
}

// Notice returns the transient confirmation notice, if still showing.
func (c *Controller) Notice() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.noticeLocked()
}
