// Package validate holds the credential rule table shared by the flow
// controller and the verification service.
package validate

import (
	"strings"
	"unicode/utf8"

	"github.com/Goofygiraffe06/otpgate/internal/form"
)

const (
	MinPasswordLength = 8
	SpecialChars      = "!@#$%^&*"
	CodeLength        = 6
	gmailSuffix       = "@gmail.com"
	usnMarker         = "JST"
)

// Messages shared with the flow controller.
const (
	MsgPasswordRequired = "Password is required."
	MsgPasswordShort    = "Password must be at least 8 characters long."
	MsgPasswordDigit    = "Password must contain at least one number."
	MsgPasswordLower    = "Password must contain at least one lowercase letter."
	MsgPasswordUpper    = "Password must contain at least one uppercase letter."
	MsgPasswordSpecial  = "Password must contain a special character (e.g., !@#$%)."
	MsgUsernameRequired = "Username is required."
	MsgUSNRequired      = "USN is required."
	MsgUSNInvalid       = `Invalid USN. It must contain "JST".`
	MsgEmailRequired    = "Email is required."
	MsgEmailNotGmail    = "Please provide a valid @gmail.com email address."
	MsgConfirmRequired  = "Please confirm your password."
	MsgPasswordMismatch = "Passwords do not match."
	MsgPhoneRequired    = "Phone number is required."
	MsgPhoneInvalid     = "Please enter a valid 10 or 12-digit phone number."
	MsgBranchRequired   = "Branch is required."
	MsgSectionRequired  = "Section is required."
)

// Snapshot exposes the other form values a cross-field rule needs.
type Snapshot interface {
	Get(field form.Field) string
}

// Password checks strength and returns the first failing rule's message,
// or "" when the value passes.
func Password(value string) string {
	switch {
	case blank(value):
		return MsgPasswordRequired
	case utf8.RuneCountInString(value) < MinPasswordLength:
		return MsgPasswordShort
	case !strings.ContainsAny(value, "0123456789"):
		return MsgPasswordDigit
	case !strings.ContainsAny(value, "abcdefghijklmnopqrstuvwxyz"):
		return MsgPasswordLower
	case !strings.ContainsAny(value, "ABCDEFGHIJKLMNOPQRSTUVWXYZ"):
		return MsgPasswordUpper
	case !strings.ContainsAny(value, SpecialChars):
		return MsgPasswordSpecial
	}
	return ""
}

// Field applies the rule for name to value. snap supplies the current
// password for the confirmation rule and may be nil for other fields.
// Fields without a rule are always valid.
func Field(name form.Field, value string, snap Snapshot) string {
	switch name {
	case form.Username:
		if blank(value) {
			return MsgUsernameRequired
		}
	case form.Identifier:
		if blank(value) {
			return MsgUSNRequired
		}
		if !HasUSNMarker(value) {
			return MsgUSNInvalid
		}
	case form.Email:
		if blank(value) {
			return MsgEmailRequired
		}
		if !IsGmail(value) {
			return MsgEmailNotGmail
		}
	case form.Password:
		return Password(value)
	case form.ConfirmPassword:
		if blank(value) {
			return MsgConfirmRequired
		}
		password := ""
		if snap != nil {
			password = snap.Get(form.Password)
		}
		if password != value {
			return MsgPasswordMismatch
		}
	case form.Phone:
		if blank(value) {
			return MsgPhoneRequired
		}
		if !ValidPhone(value) {
			return MsgPhoneInvalid
		}
	case form.Branch:
		if blank(value) {
			return MsgBranchRequired
		}
	case form.Section:
		if blank(value) {
			return MsgSectionRequired
		}
	}
	return ""
}

// IsGmail reports whether email ends in @gmail.com, ignoring case.
func IsGmail(email string) bool {
	return strings.HasSuffix(strings.ToLower(email), gmailSuffix)
}

// HasUSNMarker reports whether usn contains "JST", ignoring case.
func HasUSNMarker(usn string) bool {
	return strings.Contains(strings.ToUpper(usn), usnMarker)
}

// PhoneDigits strips everything but ASCII digits.
func PhoneDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidPhone accepts numbers with exactly 10 or 12 digits once separators
// are stripped.
func ValidPhone(phone string) bool {
	n := len(PhoneDigits(phone))
	return n == 10 || n == 12
}

// IsCode reports whether code is exactly six ASCII digits.
func IsCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
