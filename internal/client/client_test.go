package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Goofygiraffe06/otpgate/internal/client"
	"github.com/Goofygiraffe06/otpgate/internal/flow"
	"github.com/Goofygiraffe06/otpgate/internal/form"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ flow.VerificationService = (*client.Client)(nil)

type recorded struct {
	path string
	body map[string]string
}

func setupServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*client.Client, *[]recorded) {
	t.Helper()
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, recorded{path: r.URL.Path, body: body})
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return client.New(srv.URL + "/"), &calls
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestRoutes(t *testing.T) {
	c, calls := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/login" {
			writeJSON(w, http.StatusOK, models.LoginResponse{Token: "tok", User: models.Identity{ID: "u1"}})
			return
		}
		writeJSON(w, http.StatusOK, models.StatusResponse{Status: "ok"})
	})
	ctx := context.Background()

	require.NoError(t, c.SendRegistrationCode(ctx, "a@gmail.com"))
	require.NoError(t, c.SendResetCode(ctx, "a@gmail.com"))
	require.NoError(t, c.VerifyCode(ctx, "a@gmail.com", "123456", models.PurposeRegister))
	require.NoError(t, c.VerifyCode(ctx, "a@gmail.com", "123456", models.PurposeReset))
	require.NoError(t, c.Register(ctx, models.RegisterRequest{Email: "a@gmail.com", USN: "1JST", Code: "123456"}))
	require.NoError(t, c.ResetPassword(ctx, "a@gmail.com", "Abcdef1!", "654321"))
	resp, err := c.Login(ctx, "a@gmail.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", resp.Token)
	assert.Equal(t, "u1", resp.User.ID)

	paths := make([]string, 0, len(*calls))
	for _, call := range *calls {
		paths = append(paths, call.path)
	}
	assert.Equal(t, []string{
		"/api/auth/send-otp",
		"/api/auth/forgot-password/send-otp",
		"/api/auth/verify-otp",
		"/api/auth/forgot-password/verify-otp",
		"/api/auth/register",
		"/api/auth/reset-password",
		"/api/auth/login",
	}, paths)

	assert.Equal(t, "123456", (*calls)[2].body["otp"])
	assert.Equal(t, "1JST", (*calls)[4].body["usn"])
	assert.Equal(t, "Abcdef1!", (*calls)[5].body["newPassword"])
}

func TestServiceErrors(t *testing.T) {
	t.Run("field error", func(t *testing.T) {
		c, _ := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusConflict, models.ErrorResponse{
				Error:  "Email already registered. Please login.",
				Code:   models.CodeUserExists,
				Errors: []models.FieldIssue{{Field: "email", Message: "Email already registered. Please login."}},
			})
		})

		err := c.SendRegistrationCode(context.Background(), "a@gmail.com")
		se, ok := models.AsServiceError(err)
		require.True(t, ok, "expected ServiceError, got %v", err)
		assert.Equal(t, http.StatusConflict, se.Status)
		assert.Equal(t, "email", se.Field)
		assert.Equal(t, models.CodeUserExists, se.Code)
		assert.False(t, se.RateLimited())
	})

	t.Run("rate limited", func(t *testing.T) {
		c, _ := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusTooManyRequests, models.ErrorResponse{Error: "Slow down", Code: models.CodeRateLimited})
		})
		err := c.VerifyCode(context.Background(), "a@gmail.com", "123456", models.PurposeRegister)
		assert.True(t, models.IsRateLimited(err))
	})

	t.Run("non json body", func(t *testing.T) {
		c, _ := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream exploded", http.StatusBadGateway)
		})
		err := c.SendResetCode(context.Background(), "a@gmail.com")
		se, ok := models.AsServiceError(err)
		require.True(t, ok)
		assert.Equal(t, http.StatusBadGateway, se.Status)
		assert.Empty(t, se.Message)
		assert.Contains(t, err.Error(), http.StatusText(http.StatusBadGateway))

		ctrl := flow.New(c)
		require.NoError(t, ctrl.SetField(form.Email, "a@gmail.com"))
		require.NoError(t, ctrl.SetField(form.Password, "pw"))
		assert.Equal(t, flow.Failed, ctrl.Submit(context.Background()))
		assert.Equal(t, flow.MsgGeneric, ctrl.TopError().Message)
	})

	t.Run("login without token", func(t *testing.T) {
		c, _ := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, models.LoginResponse{})
		})
		_, err := c.Login(context.Background(), "a@gmail.com", "pw")
		assert.Error(t, err)
	})

	t.Run("transport failure is not a service error", func(t *testing.T) {
		c := client.New("http://127.0.0.1:1")
		err := c.SendRegistrationCode(context.Background(), "a@gmail.com")
		require.Error(t, err)
		_, ok := models.AsServiceError(err)
		assert.False(t, ok)
	})
}

func TestSession(t *testing.T) {
	c, _ := setupServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/auth/session" {
			writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "not found"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer good" {
			writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Invalid or expired token", Code: models.CodeInvalidCredentials})
			return
		}
		writeJSON(w, http.StatusOK, models.Identity{ID: "u1", Email: "a@gmail.com"})
	})
	ctx := context.Background()

	id, err := c.Session(ctx, "good")
	require.NoError(t, err)
	assert.Equal(t, "u1", id.ID)

	_, err = c.Session(ctx, "stale")
	se, ok := models.AsServiceError(err)
	require.True(t, ok, "expected ServiceError, got %v", err)
	assert.Equal(t, http.StatusUnauthorized, se.Status)
}
