package models

type StatusResponse struct {
	Status string `json:"status"`
}

// FieldIssue is one field-level validation failure reported by the service.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error  string       `json:"error"`
	Code   string       `json:"code,omitempty"`
	Errors []FieldIssue `json:"errors,omitempty"`
}

// Identity is the public view of a user returned on login.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	USN      string `json:"usn"`
	Branch   string `json:"branch"`
	Section  string `json:"section"`
}

type LoginResponse struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}
