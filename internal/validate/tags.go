package validate

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Tag names registered by RegisterTags.
const (
	TagGmail          = "gmail"
	TagUSN            = "usn"
	TagPhone          = "phone"
	TagStrongPassword = "strongpassword"
	TagOTP            = "otp"
)

// New returns a validator with the credential tags registered and field
// names reported by their json tag.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	if err := RegisterTags(v); err != nil {
		panic("validate: register tags: " + err.Error())
	}
	return v
}

// RegisterTags makes the rule table available as struct tags so request
// payloads are checked by the same predicates as the form.
func RegisterTags(v *validator.Validate) error {
	rules := map[string]validator.Func{
		TagGmail:          func(fl validator.FieldLevel) bool { return IsGmail(fl.Field().String()) },
		TagUSN:            func(fl validator.FieldLevel) bool { return HasUSNMarker(fl.Field().String()) },
		TagPhone:          func(fl validator.FieldLevel) bool { return ValidPhone(fl.Field().String()) },
		TagStrongPassword: func(fl validator.FieldLevel) bool { return Password(fl.Field().String()) == "" },
		TagOTP:            func(fl validator.FieldLevel) bool { return IsCode(fl.Field().String()) },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// Issue is one failed field check.
type Issue struct {
	Field   string
	Message string
}

// Issues converts a validator error into user-facing messages, in struct
// field order. Non-validation errors yield a single issue with no field.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []Issue{{Message: err.Error()}}
	}
	out := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, Issue{Field: fe.Field(), Message: message(fe)})
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Please fill in " + fe.Field() + "."
	case "email", TagGmail:
		return MsgEmailNotGmail
	case TagUSN:
		return MsgUSNInvalid
	case TagPhone:
		return MsgPhoneInvalid
	case TagStrongPassword:
		s, _ := fe.Value().(string)
		return Password(s)
	case TagOTP:
		return "OTP must be 6 digits."
	case "max":
		return fe.Field() + " is too long."
	}
	return "Invalid " + fe.Field() + "."
}
