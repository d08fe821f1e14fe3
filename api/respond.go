package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/Goofygiraffe06/otpgate/internal/validate"
	"github.com/Goofygiraffe06/otpgate/internal/workerpool"
	"github.com/Goofygiraffe06/otpgate/store/ephemeral"
	"github.com/Goofygiraffe06/otpgate/store/redisstore"
)

func respondJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.ErrorLog("JSON encoding failed: %v", err)
	}
}

func respondOK(w http.ResponseWriter, code int) {
	respondJSON(w, code, models.StatusResponse{Status: "ok"})
}

// respondError writes a service error. A field-level error is repeated in
// errors so clients can attach it to an input.
func respondError(w http.ResponseWriter, se *models.ServiceError) {
	body := models.ErrorResponse{Error: se.Message, Code: se.Code}
	if se.Field != "" {
		body.Errors = []models.FieldIssue{{Field: se.Field, Message: se.Message}}
	}
	respondJSON(w, se.Status, body)
}

func respondIssues(w http.ResponseWriter, issues []validate.Issue) {
	body := models.ErrorResponse{Error: "Validation failed", Code: models.CodeValidation}
	for _, is := range issues {
		body.Errors = append(body.Errors, models.FieldIssue{Field: is.Field, Message: is.Message})
	}
	if len(body.Errors) > 0 {
		body.Error = body.Errors[0].Message
	}
	respondJSON(w, http.StatusBadRequest, body)
}

func svcErr(status int, code, field, msg string) *models.ServiceError {
	return &models.ServiceError{Status: status, Code: code, Field: field, Message: msg}
}

// decode reads a JSON body into dst, normalises its email and runs struct
// validation. It writes the response and returns false on failure.
func (d *Deps) decode(w http.ResponseWriter, r *http.Request, dst interface{}, email *string) bool {
	r.Body = http.MaxBytesReader(w, r.Body, d.Settings.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, svcErr(http.StatusRequestEntityTooLarge, models.CodeValidation, "", "Request too large"))
			return false
		}
		respondError(w, svcErr(http.StatusBadRequest, models.CodeValidation, "", "Invalid JSON"))
		return false
	}

	if email != nil {
		*email = strings.ToLower(strings.TrimSpace(*email))
	}

	if err := d.validate.Struct(dst); err != nil {
		respondIssues(w, validate.Issues(err))
		return false
	}
	return true
}

// internalError maps infrastructure failures: full stores and queues are
// temporary, anything else is a 500.
func internalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ephemeral.ErrStoreFull),
		errors.Is(err, workerpool.ErrQueueFull),
		errors.Is(err, workerpool.ErrPoolClosed),
		errors.Is(err, redisstore.ErrUnavailable):
		respondError(w, svcErr(http.StatusServiceUnavailable, models.CodeUnavailable, "", "Server busy, try again later"))
	default:
		respondError(w, svcErr(http.StatusInternalServerError, models.CodeInternal, "", "Internal error"))
	}
}
