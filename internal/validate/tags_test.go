package validate_test

import (
	"testing"

	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/Goofygiraffe06/otpgate/internal/validate"
)

func TestStructTags(t *testing.T) {
	v := validate.New()

	t.Run("valid registration", func(t *testing.T) {
		req := models.RegisterRequest{
			Username: "asha",
			Password: "Abcdef1!",
			USN:      "1JST21CS001",
			Branch:   "CSE",
			Section:  "A",
			Email:    "asha@gmail.com",
			Phone:    "9876543210",
			Code:     "123456",
		}
		if err := v.Struct(req); err != nil {
			t.Fatalf("expected valid request, got %v", err)
		}
	})

	t.Run("issues use json names and rule messages", func(t *testing.T) {
		req := models.RegisterRequest{
			Username: "asha",
			Password: "abcdefgh",
			USN:      "1AB21CS001",
			Branch:   "CSE",
			Section:  "A",
			Email:    "asha@yahoo.com",
			Phone:    "12345",
			Code:     "12",
		}
		issues := validate.Issues(v.Struct(req))

		want := map[string]string{
			"password": validate.MsgPasswordDigit,
			"usn":      validate.MsgUSNInvalid,
			"email":    validate.MsgEmailNotGmail,
			"phone":    validate.MsgPhoneInvalid,
			"otp":      "OTP must be 6 digits.",
		}
		if len(issues) != len(want) {
			t.Fatalf("expected %d issues, got %d: %+v", len(want), len(issues), issues)
		}
		for _, is := range issues {
			if want[is.Field] != is.Message {
				t.Errorf("field %s: got %q, want %q", is.Field, is.Message, want[is.Field])
			}
		}
	})

	t.Run("required", func(t *testing.T) {
		issues := validate.Issues(v.Struct(models.SendCodeRequest{}))
		if len(issues) != 1 || issues[0].Field != "email" || issues[0].Message != "Please fill in email." {
			t.Errorf("unexpected issues: %+v", issues)
		}
	})

	t.Run("nil error", func(t *testing.T) {
		if validate.Issues(nil) != nil {
			t.Error("expected no issues")
		}
	})
}
