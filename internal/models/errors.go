package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeValidation         = "validation_failed"
	CodeRateLimited        = "rate_limited"
	CodeInvalidCode        = "invalid_code"
	CodeCodeExpired        = "code_expired"
	CodeNotVerified        = "code_not_verified"
	CodeUserExists         = "user_exists"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnavailable        = "unavailable"
	CodeInternal           = "internal"
)

// ServiceError is a failure reported by the verification service.
type ServiceError struct {
	Status  int
	Code    string
	Message string
	Field   string
}

// Error describes e for logs. An empty Message means the service gave no
// usable text and the caller shows its own default.
func (e *ServiceError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Field != "" {
		return fmt.Sprintf("verification service: %d %s: %s: %s", e.Status, e.Code, e.Field, msg)
	}
	return fmt.Sprintf("verification service: %d %s: %s", e.Status, e.Code, msg)
}

// RateLimited reports whether the service throttled the request.
func (e *ServiceError) RateLimited() bool {
	return e.Code == CodeRateLimited || e.Status == http.StatusTooManyRequests
}

// AsServiceError unwraps err into a *ServiceError.
func AsServiceError(err error) (*ServiceError, bool) {
	var se *ServiceError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsRateLimited reports whether err is a throttling failure.
func IsRateLimited(err error) bool {
	se, ok := AsServiceError(err)
	return ok && se.RateLimited()
}
