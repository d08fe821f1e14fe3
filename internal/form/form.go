package form

import "strings"

// Field names a credential input.
type Field string

const (
	Username           Field = "username"
	Password           Field = "password"
	ConfirmPassword    Field = "confirmPassword"
	Identifier         Field = "identifier"
	Branch             Field = "branch"
	Section            Field = "section"
	Email              Field = "email"
	Phone              Field = "phone"
	OTP                Field = "otp"
	NewPassword        Field = "newPassword"
	ConfirmNewPassword Field = "confirmNewPassword"
)

// All lists every field in display order.
var All = []Field{
	Username, Password, ConfirmPassword, Identifier, Branch, Section,
	Email, Phone, OTP, NewPassword, ConfirmNewPassword,
}

// Label returns the human name used in messages.
func (f Field) Label() string {
	switch f {
	case Identifier:
		return "USN"
	case ConfirmPassword:
		return "Confirm Password"
	case NewPassword:
		return "New Password"
	case ConfirmNewPassword:
		return "Confirm New Password"
	case OTP:
		return "OTP"
	}
	s := string(f)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Known reports whether f is one of the credential fields.
func (f Field) Known() bool {
	for _, k := range All {
		if k == f {
			return true
		}
	}
	return false
}

// Form holds the current value of each field. Missing keys read as empty.
type Form map[Field]string

// New returns an empty form with every field present.
func New() Form {
	f := make(Form, len(All))
	for _, k := range All {
		f[k] = ""
	}
	return f
}

// Get returns the value of field, or "" when unset.
func (f Form) Get(field Field) string {
	return f[field]
}

// Set stores value under field. The otp field keeps digits only.
func (f Form) Set(field Field, value string) {
	if field == OTP {
		value = digitsOnly(value)
	}
	f[field] = value
}

// Clear empties the given fields.
func (f Form) Clear(fields ...Field) {
	for _, k := range fields {
		f[k] = ""
	}
}

// Reset empties every field.
func (f Form) Reset() {
	f.Clear(All...)
}

// Clone returns an independent copy.
func (f Form) Clone() Form {
	out := make(Form, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
