package models

type SendCodeRequest struct {
	Email string `json:"email" validate:"required,max=254,email,gmail"`
}

type VerifyCodeRequest struct {
	Email string `json:"email" validate:"required,max=254,email,gmail"`
	Code  string `json:"otp" validate:"required,otp"`
}

// RegisterRequest is the registration form minus confirmPassword, plus the
// verified code.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,strongpassword"`
	USN      string `json:"usn" validate:"required,max=32,usn"`
	Branch   string `json:"branch" validate:"required,max=128"`
	Section  string `json:"section" validate:"required,max=16"`
	Email    string `json:"email" validate:"required,max=254,email,gmail"`
	Phone    string `json:"phone" validate:"required,phone"`
	Code     string `json:"otp" validate:"required,otp"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,max=254,email"`
	Password string `json:"password" validate:"required"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,max=254,email,gmail"`
	NewPassword string `json:"newPassword" validate:"required,strongpassword"`
	Code        string `json:"otp" validate:"required,otp"`
}
