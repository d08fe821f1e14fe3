package api_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/Goofygiraffe06/otpgate/internal/auth"
	"github.com/Goofygiraffe06/otpgate/internal/client"
	"github.com/Goofygiraffe06/otpgate/internal/flow"
	"github.com/Goofygiraffe06/otpgate/internal/form"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/Goofygiraffe06/otpgate/internal/session"
	"github.com/Goofygiraffe06/otpgate/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type e2e struct {
	env    *testEnv
	ctrl   *flow.Controller
	pub    *session.Publisher
	logins []models.Identity
	closed int
}

// setupE2E runs the flow controller through the HTTP client against the
// real router.
func setupE2E(t *testing.T) *e2e {
	t.Helper()
	env := setupTestEnv(t)
	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)

	e := &e2e{env: env}
	e.pub = session.NewPublisher(store.NewMemoryKV(), func(u models.Identity) {
		e.logins = append(e.logins, u)
	})
	e.ctrl = flow.New(client.New(srv.URL),
		flow.WithPublisher(e.pub),
		flow.WithOnClose(func() { e.closed++ }),
	)
	return e
}

func (e *e2e) fill(t *testing.T, values map[form.Field]string) {
	t.Helper()
	for f, v := range values {
		require.NoError(t, e.ctrl.SetField(f, v))
	}
}

func (e *e2e) registerThroughFlow(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	e.ctrl.ToggleMode(flow.ModeRegister)
	e.fill(t, map[form.Field]string{
		form.Username:        "asha",
		form.Identifier:      "1jst21cs001",
		form.Email:           email,
		form.Password:        "Abcdef1!",
		form.ConfirmPassword: "Abcdef1!",
		form.Branch:          "CSE",
		form.Section:         "A",
		form.Phone:           "9876543210",
	})

	require.Equal(t, flow.Succeeded, e.ctrl.RequestCode(ctx))
	require.NoError(t, e.ctrl.SetField(form.OTP, e.env.mail.code(email)))
	require.Equal(t, flow.Succeeded, e.ctrl.VerifyCode(ctx))
	require.True(t, e.ctrl.CanSubmit())
	require.Equal(t, flow.Succeeded, e.ctrl.Submit(ctx), "top error: %+v", e.ctrl.TopError())
}

func TestEndToEndRegisterAndLogin(t *testing.T) {
	e := setupE2E(t)
	ctx := context.Background()

	e.registerThroughFlow(t)

	v := e.ctrl.Snapshot()
	assert.Equal(t, flow.ModeLogin, v.Mode)
	assert.Equal(t, flow.MsgRegistered, v.TopError.Message)
	assert.Empty(t, v.Form.Get(form.Email))

	u, err := e.env.users.GetUser(ctx, email)
	require.NoError(t, err)
	assert.Equal(t, "1JST21CS001", u.USN)
	assert.Equal(t, "9876543210", u.Phone)

	e.fill(t, map[form.Field]string{form.Email: email, form.Password: "Abcdef1!"})
	require.Equal(t, flow.Succeeded, e.ctrl.Submit(ctx))

	token, user, ok := e.pub.Current()
	require.True(t, ok)
	assert.Equal(t, u.ID, user.ID)
	assert.Equal(t, 1, e.closed)
	require.Len(t, e.logins, 1)
	assert.Equal(t, "asha", e.logins[0].Username)

	claims, err := auth.VerifySessionToken(token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)
	assert.Equal(t, email, claims.Email)
}

func TestEndToEndServiceErrors(t *testing.T) {
	e := setupE2E(t)
	ctx := context.Background()
	e.registerThroughFlow(t)

	t.Run("wrong password", func(t *testing.T) {
		e.fill(t, map[form.Field]string{form.Email: email, form.Password: "Wrong123!"})
		assert.Equal(t, flow.Failed, e.ctrl.Submit(ctx))
		assert.Equal(t, "Invalid email or password.", e.ctrl.TopError().Message)
		assert.Zero(t, e.closed)
	})

	t.Run("email already registered", func(t *testing.T) {
		e.ctrl.ToggleMode(flow.ModeRegister)
		e.fill(t, map[form.Field]string{form.Email: email})
		assert.Equal(t, flow.Failed, e.ctrl.RequestCode(ctx))
		top := e.ctrl.TopError()
		assert.Equal(t, form.Email, top.Field)
		assert.NotEmpty(t, top.Message)
		assert.Equal(t, flow.OTPNotSent, e.ctrl.State().OTP)
	})

	t.Run("wrong code", func(t *testing.T) {
		e.ctrl.ToggleMode(flow.ModeForgotPassword)
		e.fill(t, map[form.Field]string{
			form.Email:              email,
			form.NewPassword:        "Newpass1!",
			form.ConfirmNewPassword: "Newpass1!",
		})
		require.Equal(t, flow.Succeeded, e.ctrl.RequestCode(ctx))

		wrong := "000000"
		if e.env.mail.code(email) == wrong {
			wrong = "111111"
		}
		require.NoError(t, e.ctrl.SetField(form.OTP, wrong))
		assert.Equal(t, flow.Failed, e.ctrl.VerifyCode(ctx))
		assert.Equal(t, form.OTP, e.ctrl.TopError().Field)
		assert.Equal(t, flow.OTPSent, e.ctrl.State().OTP)
	})
}

func TestEndToEndPasswordReset(t *testing.T) {
	e := setupE2E(t)
	ctx := context.Background()
	e.registerThroughFlow(t)

	e.ctrl.ToggleMode(flow.ModeForgotPassword)
	e.fill(t, map[form.Field]string{
		form.Email:              email,
		form.NewPassword:        "Newpass1!",
		form.ConfirmNewPassword: "Newpass1!",
	})
	require.Equal(t, flow.Succeeded, e.ctrl.RequestCode(ctx))
	require.NoError(t, e.ctrl.SetField(form.OTP, e.env.mail.code(email)))
	require.Equal(t, flow.Succeeded, e.ctrl.VerifyCode(ctx))
	require.Equal(t, flow.Succeeded, e.ctrl.Submit(ctx), "top error: %+v", e.ctrl.TopError())
	assert.Equal(t, flow.MsgPasswordReset, e.ctrl.TopError().Message)

	e.fill(t, map[form.Field]string{form.Email: email, form.Password: "Abcdef1!"})
	assert.Equal(t, flow.Failed, e.ctrl.Submit(ctx))

	require.NoError(t, e.ctrl.SetField(form.Password, "Newpass1!"))
	assert.Equal(t, flow.Succeeded, e.ctrl.Submit(ctx))
}
