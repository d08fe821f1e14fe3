package flow

import (
	"strings"

	"github.com/Goofygiraffe06/otpgate/internal/form"
	"github.com/Goofygiraffe06/otpgate/internal/validate"
)

const (
	MsgEnterEmailFirst      = "Please enter your email first."
	MsgEnterEmail           = "Please enter your email."
	MsgEnterPassword        = "Please enter your password."
	MsgNewPasswordMismatch  = "New passwords do not match."
	MsgCodeSent             = "OTP sent to your email! Please check your inbox. OTP is valid for 1 minute."
	MsgSendFailed           = "Failed to send OTP. Please try again."
	MsgVerifyFailed         = "Invalid OTP. Please check and try again."
	MsgTooManyAttempts      = "Too many verification attempts. Please wait a moment and try again."
	MsgSendCodeFirst        = "Please click 'Send OTP' button first to send OTP to your email."
	MsgVerifyBeforeRegister = "Please verify your email with OTP before registering."
	MsgCodeRequiredRegister = "OTP is required for registration. Please verify your OTP again."
	MsgVerifyBeforeReset    = "Please verify your email with OTP before resetting password."
	MsgCodeRequiredReset    = "OTP is required. Please verify your OTP again."
	MsgRegistered           = "Registration successful! Please login now."
	MsgPasswordReset        = "Password reset successfully! Please login with your new password."
	MsgGeneric              = "Something went wrong. Please try again."
)

// registrationRequired is the order in which missing registration fields
// are reported.
var registrationRequired = []form.Field{
	form.Username, form.Identifier, form.Email, form.Password,
	form.ConfirmPassword, form.Branch, form.Section, form.Phone,
}

func problem(field form.Field, msg string) *TopError {
	return &TopError{Message: msg, Field: field}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// codeRequestProblem checks the preconditions of sending a code.
func codeRequestProblem(mode Mode, f form.Form) *TopError {
	email := f.Get(form.Email)
	if blank(email) {
		return problem(form.Email, MsgEnterEmailFirst)
	}
	if !validate.IsGmail(strings.TrimSpace(email)) {
		return problem(form.Email, validate.MsgEmailNotGmail)
	}
	if mode == ModeForgotPassword {
		if msg := validate.Password(f.Get(form.NewPassword)); msg != "" {
			return problem(form.NewPassword, msg)
		}
		if f.Get(form.NewPassword) != f.Get(form.ConfirmNewPassword) {
			return problem(form.ConfirmNewPassword, MsgNewPasswordMismatch)
		}
	}
	return nil
}

// submissionProblem is the submission gate: nil means the terminal action
// may run. Checks short-circuit in a fixed order per mode.
func submissionProblem(mode Mode, f form.Form, otp OTPState) *TopError {
	switch mode {
	case ModeLogin:
		return loginProblem(f)
	case ModeRegister:
		return registrationProblem(f, otp)
	case ModeForgotPassword:
		return resetProblem(f, otp)
	}
	return problem("", MsgGeneric)
}

func loginProblem(f form.Form) *TopError {
	if blank(f.Get(form.Email)) {
		return problem(form.Email, MsgEnterEmail)
	}
	if f.Get(form.Password) == "" {
		return problem(form.Password, MsgEnterPassword)
	}
	return nil
}

func registrationProblem(f form.Form, otp OTPState) *TopError {
	for _, field := range registrationRequired {
		if blank(f.Get(field)) {
			return problem(field, "Please fill in "+field.Label()+".")
		}
	}
	if !validate.HasUSNMarker(f.Get(form.Identifier)) {
		return problem(form.Identifier, validate.MsgUSNInvalid)
	}
	if !validate.IsGmail(strings.TrimSpace(f.Get(form.Email))) {
		return problem(form.Email, validate.MsgEmailNotGmail)
	}
	if msg := validate.Password(f.Get(form.Password)); msg != "" {
		return problem(form.Password, msg)
	}
	if f.Get(form.Password) != f.Get(form.ConfirmPassword) {
		return problem(form.ConfirmPassword, validate.MsgPasswordMismatch)
	}
	if !validate.ValidPhone(f.Get(form.Phone)) {
		return problem(form.Phone, validate.MsgPhoneInvalid)
	}
	switch otp {
	case OTPNotSent:
		return problem(form.OTP, MsgSendCodeFirst)
	case OTPSent:
		return problem(form.OTP, MsgVerifyBeforeRegister)
	}
	if !validate.IsCode(f.Get(form.OTP)) {
		return problem(form.OTP, MsgCodeRequiredRegister)
	}
	return nil
}

func resetProblem(f form.Form, otp OTPState) *TopError {
	email := strings.TrimSpace(f.Get(form.Email))
	if email == "" {
		return problem(form.Email, MsgEnterEmail)
	}
	if !validate.IsGmail(email) {
		return problem(form.Email, validate.MsgEmailNotGmail)
	}
	if otp != OTPVerified {
		return problem(form.OTP, MsgVerifyBeforeReset)
	}
	if msg := validate.Password(f.Get(form.NewPassword)); msg != "" {
		return problem(form.NewPassword, msg)
	}
	if f.Get(form.NewPassword) != f.Get(form.ConfirmNewPassword) {
		return problem(form.ConfirmNewPassword, MsgNewPasswordMismatch)
	}
	if !validate.IsCode(f.Get(form.OTP)) {
		return problem(form.OTP, MsgCodeRequiredReset)
	}
	return nil
}
