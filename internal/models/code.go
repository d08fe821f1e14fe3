package models

import "time"

// Purpose scopes a one-time code to the flow it was issued for.
type Purpose string

const (
	PurposeRegister Purpose = "register"
	PurposeReset    Purpose = "reset"
)

// CodeRecord is the server-side state of one issued code.
type CodeRecord struct {
	Code      string    `json:"code"`
	Attempts  int       `json:"attempts"`
	Verified  bool      `json:"verified"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the record is past its expiry at now.
func (r CodeRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// CodeKey is the store key for a purpose-scoped code.
func CodeKey(purpose Purpose, email string) string {
	return "otp:" + string(purpose) + ":" + email
}

// CooldownKey is the store key marking a running resend cooldown.
func CooldownKey(purpose Purpose, email string) string {
	return "otp-cooldown:" + string(purpose) + ":" + email
}

// CodeUpdate is what a store does with a record after an update callback.
type CodeUpdate int

const (
	CodeKeep CodeUpdate = iota
	CodeSave
	CodeDelete
)
