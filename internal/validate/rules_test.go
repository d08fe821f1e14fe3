package validate_test

import (
	"testing"

	"github.com/Goofygiraffe06/otpgate/internal/form"
	"github.com/Goofygiraffe06/otpgate/internal/validate"
)

func TestPassword(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"empty", "", validate.MsgPasswordRequired},
		{"whitespace", "   ", validate.MsgPasswordRequired},
		{"short reported before missing classes", "abc", validate.MsgPasswordShort},
		{"no digit", "Abcdefgh!", validate.MsgPasswordDigit},
		{"no lowercase", "ABCDEFG1!", validate.MsgPasswordLower},
		{"no uppercase", "abcdefg1!", validate.MsgPasswordUpper},
		{"no special", "Abcdefg12", validate.MsgPasswordSpecial},
		{"valid", "Abcdef1!", ""},
		{"multibyte length counts runes", "Ab1!éé", validate.MsgPasswordShort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validate.Password(tt.value); got != tt.want {
				t.Errorf("Password(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestField(t *testing.T) {
	snap := form.New()
	snap.Set(form.Password, "Abcdef1!")

	tests := []struct {
		name  string
		field form.Field
		value string
		want  string
	}{
		{"username blank", form.Username, " ", validate.MsgUsernameRequired},
		{"usn without marker", form.Identifier, "1AB21CS001", validate.MsgUSNInvalid},
		{"usn lowercase marker", form.Identifier, "1jst21cs001", ""},
		{"usn blank", form.Identifier, "", validate.MsgUSNRequired},
		{"email blank", form.Email, "", validate.MsgEmailRequired},
		{"email other domain", form.Email, "a@yahoo.com", validate.MsgEmailNotGmail},
		{"email uppercase domain", form.Email, "A@GMAIL.COM", ""},
		{"confirm mismatch", form.ConfirmPassword, "Abcdef1?", validate.MsgPasswordMismatch},
		{"confirm match", form.ConfirmPassword, "Abcdef1!", ""},
		{"phone with separators", form.Phone, "+91-98765-43210", ""},
		{"phone nine digits", form.Phone, "987654321", validate.MsgPhoneInvalid},
		{"phone eleven digits", form.Phone, "98765432101", validate.MsgPhoneInvalid},
		{"branch blank", form.Branch, "", validate.MsgBranchRequired},
		{"section blank", form.Section, "", validate.MsgSectionRequired},
		{"otp has no blur rule", form.OTP, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := validate.Field(tt.field, tt.value, snap); got != tt.want {
				t.Errorf("Field(%s, %q) = %q, want %q", tt.field, tt.value, got, tt.want)
			}
		})
	}
}

func TestConfirmWithoutSnapshot(t *testing.T) {
	if got := validate.Field(form.ConfirmPassword, "x", nil); got != validate.MsgPasswordMismatch {
		t.Errorf("expected mismatch, got %q", got)
	}
}

func TestIsCode(t *testing.T) {
	for code, want := range map[string]bool{
		"123456":  true,
		"12345":   false,
		"1234567": false,
		"12345a":  false,
		"":        false,
	} {
		if got := validate.IsCode(code); got != want {
			t.Errorf("IsCode(%q) = %v, want %v", code, got, want)
		}
	}
}
