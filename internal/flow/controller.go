package flow

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/form"
	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/Goofygiraffe06/otpgate/internal/timer"
	"github.com/Goofygiraffe06/otpgate/internal/utils"
	"github.com/Goofygiraffe06/otpgate/internal/validate"
)

const (
	NoticeDuration = 2 * time.Second
	BannerDuration = 3 * time.Second
)

// Controller owns one modal activation: its form, its code session and
// its gates. Methods may be called from any goroutine; service calls run
// without holding the lock and concurrent actions are rejected by the gates.
type Controller struct {
	svc           VerificationService
	pub           Publisher
	onClose       func()
	now           func() time.Time
	resendSeconds int

	mu            sync.Mutex
	state         State
	form          form.Form
	fieldErrors   map[form.Field]string
	top           TopError
	topExpires    time.Time
	notice        string
	noticeExpires time.Time
	resend        timer.Resend
}

// Option configures a Controller.
type Option func(*Controller)

// WithPublisher sets where successful logins are published.
func WithPublisher(p Publisher) Option { return func(c *Controller) { c.pub = p } }

// WithOnClose sets the hook that dismisses the modal.
func WithOnClose(fn func()) Option { return func(c *Controller) { c.onClose = fn } }

// WithClock replaces time.Now for notice and banner expiry.
func WithClock(now func() time.Time) Option { return func(c *Controller) { c.now = now } }

// WithResendSeconds overrides the resend window.
func WithResendSeconds(n int) Option { return func(c *Controller) { c.resendSeconds = n } }

// WithMode starts the controller in mode instead of ModeLogin.
func WithMode(m Mode) Option { return func(c *Controller) { c.state.Mode = m } }

// New opens a modal activation with an empty form.
func New(svc VerificationService, opts ...Option) *Controller {
	c := &Controller{
		svc:           svc,
		now:           time.Now,
		resendSeconds: timer.DefaultSeconds,
		form:          form.New(),
		fieldErrors:   make(map[form.Field]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetField records user input. Editing a field clears its error. Changing
// the email while the code is unverified abandons the code session; while
// verified the email is locked.
func (c *Controller) SetField(field form.Field, value string) error {
	if !field.Known() {
		return ErrUnknownField
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if field == form.Email && value != c.form.Get(form.Email) {
		switch {
		case c.state.OTP == OTPVerified:
			return ErrFieldLocked
		case c.state.OTP == OTPSent || c.state.CodeInFlight:
			logging.DebugLog("Flow: email changed, abandoning code session [%s]", utils.HashEmail(c.state.OTPEmail))
			c.resetLocked(c.state.Mode)
		}
	}

	c.form.Set(field, value)
	delete(c.fieldErrors, field)
	if c.top.Field == field {
		c.clearTopLocked()
	}
	return nil
}

// Blur validates field on leaving it. Only the registration flow validates
// inline. It returns the error message, or "".
func (c *Controller) Blur(field form.Field) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Mode != ModeRegister {
		return ""
	}
	msg := validate.Field(field, c.form.Get(field), c.form)
	if msg != "" {
		c.fieldErrors[field] = msg
		c.setTopLocked(TopError{Message: msg, Field: field})
		return msg
	}
	delete(c.fieldErrors, field)
	if c.top.Field == field {
		c.clearTopLocked()
	}
	return ""
}

// RequestCode sends a code to the form's email for the active flow. It is
// rejected in the login flow, once the code is verified, and while an
// earlier code's resend window is still running.
func (c *Controller) RequestCode(ctx context.Context) Outcome {
	c.mu.Lock()
	s := c.state
	if s.Mode == ModeLogin || s.OTP == OTPVerified || (s.OTP == OTPSent && c.resend.Running()) {
		c.mu.Unlock()
		return Rejected
	}
	c.mu.Unlock()
	return c.requestCode(ctx)
}

// ResendCode re-issues the code once the resend window has expired.
func (c *Controller) ResendCode(ctx context.Context) Outcome {
	c.mu.Lock()
	s := c.state
	if !c.resend.CanResend() || s.OTP != OTPSent || s.CodeInFlight || s.Submitting {
		c.mu.Unlock()
		return Rejected
	}
	c.resend.Start(c.resendSeconds)
	c.mu.Unlock()

	logging.DebugLog("Flow: resending code [%s]", utils.HashEmail(s.OTPEmail))
	return c.requestCode(ctx)
}

func (c *Controller) requestCode(ctx context.Context) Outcome {
	c.mu.Lock()
	mode := c.state.Mode
	if mode == ModeLogin {
		c.mu.Unlock()
		return Rejected
	}
	if p := codeRequestProblem(mode, c.form); p != nil {
		c.setTopLocked(*p)
		c.mu.Unlock()
		return Invalid
	}
	next, err := transition(c.state, event{kind: evCodeBegin})
	if err != nil {
		c.mu.Unlock()
		return Rejected
	}
	c.state = next
	c.clearTopLocked()
	epoch := c.state.Epoch
	email := strings.TrimSpace(c.form.Get(form.Email))
	c.mu.Unlock()

	defer c.endCode()

	emailHash := utils.HashEmail(email)
	start := time.Now()
	if mode == ModeRegister {
		err = c.svc.SendRegistrationCode(ctx, email)
	} else {
		err = c.svc.SendResetCode(ctx, email)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.state.Epoch {
		logging.DebugLog("Flow: dropping stale send result [%s]", emailHash)
		return Rejected
	}
	if err != nil {
		field, msg := form.Email, MsgSendFailed
		if se, ok := models.AsServiceError(err); ok {
			if se.Message != "" {
				msg = se.Message
			}
			if se.RateLimited() {
				field = rateLimitField(mode)
			}
		}
		logging.WarnLog("Flow: send code failed [%s] mode=%s: %v", emailHash, mode, err)
		c.setTopLocked(TopError{Message: msg, Field: field})
		return Failed
	}

	next, err = transition(c.state, event{kind: evCodeSent, email: email})
	if err != nil {
		logging.ErrorLog("Flow: %v", err)
		c.setTopLocked(TopError{Message: MsgGeneric})
		return Failed
	}
	c.state = next
	c.resend.Start(c.resendSeconds)
	c.notice = MsgCodeSent
	c.noticeExpires = c.now().Add(NoticeDuration)
	logging.InfoLog("Flow: code sent [%s] mode=%s %v", emailHash, mode, time.Since(start))
	return Succeeded
}

// rateLimitField is the input a throttled send is reported against: the
// code input in registration, the last password input in reset where the
// code input is not shown yet.
func rateLimitField(mode Mode) form.Field {
	if mode == ModeForgotPassword {
		return form.ConfirmNewPassword
	}
	return form.OTP
}

// VerifyCode checks the entered code. It does nothing unless a code has
// been sent and six digits are entered.
func (c *Controller) VerifyCode(ctx context.Context) Outcome {
	c.mu.Lock()
	code := c.form.Get(form.OTP)
	if c.state.OTP != OTPSent || !validate.IsCode(code) {
		c.mu.Unlock()
		return Rejected
	}
	next, err := transition(c.state, event{kind: evCodeBegin})
	if err != nil {
		c.mu.Unlock()
		return Rejected
	}
	c.state = next
	c.clearTopLocked()
	email, mode, epoch := c.state.OTPEmail, c.state.Mode, c.state.Epoch
	c.mu.Unlock()

	defer c.endCode()

	emailHash := utils.HashEmail(email)
	err = c.svc.VerifyCode(ctx, email, code, mode.Purpose())

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.state.Epoch {
		logging.DebugLog("Flow: dropping stale verify result [%s]", emailHash)
		return Rejected
	}
	if err != nil {
		logging.WarnLog("Flow: verify failed [%s] mode=%s: %v", emailHash, mode, err)
		if models.IsRateLimited(err) {
			c.setTopLocked(TopError{Message: MsgTooManyAttempts, Field: form.OTP})
			return Failed
		}
		msg := MsgVerifyFailed
		if se, ok := models.AsServiceError(err); ok && se.Message != "" {
			msg = se.Message
		}
		c.setTopLocked(TopError{Message: msg, Field: form.OTP})
		return Failed
	}

	next, err = transition(c.state, event{kind: evCodeVerified, email: email})
	if err != nil {
		logging.ErrorLog("Flow: %v", err)
		c.setTopLocked(TopError{Message: MsgGeneric})
		return Failed
	}
	// Verification and timer cancellation share one critical section so a
	// tick cannot land between them.
	c.state = next
	c.resend.Cancel()
	c.resend.DisableResend()
	c.clearTopLocked()
	logging.InfoLog("Flow: code verified [%s] mode=%s", emailHash, mode)
	return Succeeded
}

// Submit runs the terminal action of the active flow once its gate holds.
func (c *Controller) Submit(ctx context.Context) Outcome {
	c.mu.Lock()
	if c.state.Submitting || c.state.CodeInFlight {
		c.mu.Unlock()
		return Rejected
	}
	c.clearTopLocked()
	if p := submissionProblem(c.state.Mode, c.form, c.state.OTP); p != nil {
		c.setTopLocked(*p)
		c.mu.Unlock()
		return Invalid
	}
	next, err := transition(c.state, event{kind: evSubmitBegin})
	if err != nil {
		c.mu.Unlock()
		return Rejected
	}
	c.state = next
	mode, epoch, f := c.state.Mode, c.state.Epoch, c.form.Clone()
	c.mu.Unlock()

	defer c.endSubmit()

	email := strings.TrimSpace(f.Get(form.Email))
	switch mode {
	case ModeLogin:
		return c.login(ctx, email, f.Get(form.Password), epoch)
	case ModeRegister:
		err = c.svc.Register(ctx, registerRequest(f))
		return c.finish(err, MsgRegistered, mode, email, epoch)
	default:
		err = c.svc.ResetPassword(ctx, email, f.Get(form.NewPassword), f.Get(form.OTP))
		return c.finish(err, MsgPasswordReset, mode, email, epoch)
	}
}

func registerRequest(f form.Form) models.RegisterRequest {
	return models.RegisterRequest{
		Username: strings.TrimSpace(f.Get(form.Username)),
		Password: f.Get(form.Password),
		USN:      strings.TrimSpace(f.Get(form.Identifier)),
		Branch:   f.Get(form.Branch),
		Section:  strings.TrimSpace(f.Get(form.Section)),
		Email:    strings.TrimSpace(f.Get(form.Email)),
		Phone:    strings.TrimSpace(f.Get(form.Phone)),
		Code:     f.Get(form.OTP),
	}
}

func (c *Controller) login(ctx context.Context, email, password string, epoch uint64) Outcome {
	emailHash := utils.HashEmail(email)
	res, err := c.svc.Login(ctx, email, password)

	c.mu.Lock()
	if epoch != c.state.Epoch {
		c.mu.Unlock()
		logging.DebugLog("Flow: dropping stale login result [%s]", emailHash)
		return Rejected
	}
	if err != nil {
		logging.WarnLog("Flow: login failed [%s]: %v", emailHash, err)
		c.setTopLocked(classify(err))
		c.mu.Unlock()
		return Failed
	}
	c.mu.Unlock()

	if c.pub != nil {
		if err := c.pub.Publish(res.Token, res.User); err != nil {
			logging.ErrorLog("Flow: publishing session failed [%s]: %v", emailHash, err)
			c.mu.Lock()
			c.setTopLocked(TopError{Message: MsgGeneric})
			c.mu.Unlock()
			return Failed
		}
	}

	logging.InfoLog("Flow: login succeeded [%s]", emailHash)
	c.Close()
	if c.onClose != nil {
		c.onClose()
	}
	return Succeeded
}

// finish applies the result of registration or password reset. Success
// returns the modal to the login flow with a cleared form.
func (c *Controller) finish(err error, banner string, mode Mode, email string, epoch uint64) Outcome {
	emailHash := utils.HashEmail(email)

	c.mu.Lock()
	defer c.mu.Unlock()

	if epoch != c.state.Epoch {
		logging.DebugLog("Flow: dropping stale %s result [%s]", mode, emailHash)
		return Rejected
	}
	if err != nil {
		logging.WarnLog("Flow: %s failed [%s]: %v", mode, emailHash, err)
		c.setTopLocked(classify(err))
		return Failed
	}

	c.state, _ = transition(c.state, event{kind: evFinish})
	c.resend.Reset()
	c.form.Reset()
	c.fieldErrors = make(map[form.Field]string)
	c.notice = ""
	c.top = TopError{Message: banner}
	c.topExpires = c.now().Add(BannerDuration)
	logging.InfoLog("Flow: %s succeeded [%s]", mode, emailHash)
	return Succeeded
}

// classify maps a service failure on submit to what the user sees.
func classify(err error) TopError {
	se, ok := models.AsServiceError(err)
	if !ok {
		return TopError{Message: MsgGeneric}
	}
	if se.RateLimited() {
		return TopError{Message: MsgTooManyAttempts, Field: form.OTP}
	}
	msg := se.Message
	if msg == "" {
		msg = MsgGeneric
	}
	return TopError{Message: msg, Field: wireField(se.Field)}
}

// wireField maps a field name reported by the service onto the form.
// Unknown names fall back to a banner.
func wireField(name string) form.Field {
	switch name {
	case "":
		return ""
	case "usn":
		return form.Identifier
	}
	if f := form.Field(name); f.Known() {
		return f
	}
	return ""
}

// ToggleMode switches flow and abandons any code session.
func (c *Controller) ToggleMode(mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(mode)
	c.clearTopLocked()
}

// Close discards the whole activation. The controller can be reused as a
// freshly opened modal.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetLocked(ModeLogin)
	c.form.Reset()
	c.clearTopLocked()
	c.notice = ""
}

func (c *Controller) resetLocked(mode Mode) {
	c.state, _ = transition(c.state, event{kind: evReset, mode: mode})
	c.resend.Reset()
	c.form.Clear(form.OTP, form.NewPassword, form.ConfirmNewPassword)
	c.fieldErrors = make(map[form.Field]string)
}

// Tick advances the resend countdown by one second.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resend.Tick() {
		logging.DebugLog("Flow: resend window open [%s]", utils.HashEmail(c.state.OTPEmail))
	}
}

func (c *Controller) endCode() {
	c.mu.Lock()
	c.state, _ = transition(c.state, event{kind: evCodeEnd})
	c.mu.Unlock()
}

func (c *Controller) endSubmit() {
	c.mu.Lock()
	c.state, _ = transition(c.state, event{kind: evSubmitEnd})
	c.mu.Unlock()
}

func (c *Controller) setTopLocked(e TopError) {
	c.top = e
	c.topExpires = time.Time{}
}

func (c *Controller) clearTopLocked() {
	c.setTopLocked(TopError{})
}

func (c *Controller) topLocked() TopError {
	if !c.topExpires.IsZero() && !c.now().Before(c.topExpires) {
		c.clearTopLocked()
	}
	return c.top
}

func (c *Controller) noticeLocked() string {
	if c.notice != "" && !c.now().Before(c.noticeExpires) {
		c.notice = ""
	}
	return c.notice
}
