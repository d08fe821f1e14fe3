// Package client talks to the verification HTTP API and implements
// flow.VerificationService.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/models"
)

const (
	DefaultTimeout = 15 * time.Second
	maxErrorBody   = 64 << 10
)

// Client is safe for concurrent use.
type Client struct {
	base string
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) SendRegistrationCode(ctx context.Context, email string) error {
	return c.post(ctx, "/api/auth/send-otp", models.SendCodeRequest{Email: email}, nil)
}

func (c *Client) SendResetCode(ctx context.Context, email string) error {
	return c.post(ctx, "/api/auth/forgot-password/send-otp", models.SendCodeRequest{Email: email}, nil)
}

func (c *Client) VerifyCode(ctx context.Context, email, code string, purpose models.Purpose) error {
	path := "/api/auth/verify-otp"
	if purpose == models.PurposeReset {
		path = "/api/auth/forgot-password/verify-otp"
	}
	return c.post(ctx, path, models.VerifyCodeRequest{Email: email, Code: code}, nil)
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) error {
	return c.post(ctx, "/api/auth/register", req, nil)
}

func (c *Client) Login(ctx context.Context, email, password string) (models.LoginResponse, error) {
	var resp models.LoginResponse
	if err := c.post(ctx, "/api/auth/login", models.LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return models.LoginResponse{}, err
	}
	if resp.Token == "" {
		return models.LoginResponse{}, errors.New("client: login response without token")
	}
	return resp, nil
}

func (c *Client) ResetPassword(ctx context.Context, email, newPassword, code string) error {
	req := models.ResetPasswordRequest{Email: email, NewPassword: newPassword, Code: code}
	return c.post(ctx, "/api/auth/reset-password", req, nil)
}

// Session resolves a stored session token to its user. An expired or
// revoked token is a *models.ServiceError with status 401.
func (c *Client) Session(ctx context.Context, token string) (models.Identity, error) {
	var id models.Identity
	if err := c.do(ctx, http.MethodGet, "/api/auth/session", token, nil, &id); err != nil {
		return models.Identity{}, err
	}
	return id, nil
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, path, "", body, out)
}

// do sends body, when non-nil, as JSON. A non-2xx answer becomes
// *models.ServiceError; out, when non-nil, receives a 2xx body.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logging.WarnLog("API %s failed: %v", path, err)
		return fmt.Errorf("client: %s: %w", path, err)
	}
	defer resp.Body.Close()
	logging.DebugLog("API %s %s %d %v", method, path, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: %s: decode: %w", path, err)
	}
	return nil
}

// decodeError turns an error answer into a ServiceError. The first field
// issue, if any, names the field. A body that is not the API's JSON (a
// proxy error page, say) leaves Message empty.
func decodeError(resp *http.Response) error {
	se := &models.ServiceError{Status: resp.StatusCode}

	var body models.ErrorResponse
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err := json.Unmarshal(raw, &body); err == nil {
		se.Code = body.Code
		se.Message = body.Error
		if len(body.Errors) > 0 {
			se.Field = body.Errors[0].Field
			if se.Message == "" {
				se.Message = body.Errors[0].Message
			}
		}
	}
	return se
}
