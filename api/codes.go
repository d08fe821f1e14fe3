package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/auth"
	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/Goofygiraffe06/otpgate/internal/utils"
)

const (
	msgCooldown       = "Please wait before requesting another OTP."
	msgSendFailed     = "Failed to send OTP. Please try again."
	msgEmailExists    = "Email already registered. Please login."
	msgCodeExpired    = "OTP expired or not requested. Please request a new one."
	msgCodeInvalid    = "Invalid OTP. Please check and try again."
	msgTooManyTries   = "Too many incorrect attempts. Please request a new OTP."
	msgCodeUnverified = "Please verify your OTP first."
)

// SendRegistrationCodeHandler issues a registration code for an email that
// is not registered yet.
func SendRegistrationCodeHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req models.SendCodeRequest
		if !d.decode(w, r, &req, &req.Email) {
			logging.WarnLog("Registration code failed: invalid request")
			return
		}
		emailHash := utils.HashEmail(req.Email)

		exists, err := d.userExists(r.Context(), req.Email)
		if err != nil {
			logging.ErrorLog("Registration code failed: user lookup [%s]: %v", emailHash, err)
			internalError(w, err)
			return
		}
		if exists {
			logging.WarnLog("Registration code failed: user exists [%s]", emailHash)
			respondError(w, svcErr(http.StatusConflict, models.CodeUserExists, "email", msgEmailExists))
			return
		}

		if se, err := d.issueCode(r.Context(), models.PurposeRegister, req.Email); err != nil {
			logging.ErrorLog("Registration code failed [%s]: %v", emailHash, err)
			internalError(w, err)
			return
		} else if se != nil {
			respondError(w, se)
			return
		}

		logging.InfoLog("Registration code sent [%s] %v", emailHash, time.Since(start))
		respondOK(w, http.StatusOK)
	}
}

// SendResetCodeHandler issues a password reset code. Unknown emails get
// the same answer without a mail so accounts cannot be enumerated.
func SendResetCodeHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req models.SendCodeRequest
		if !d.decode(w, r, &req, &req.Email) {
			logging.WarnLog("Reset code failed: invalid request")
			return
		}
		emailHash := utils.HashEmail(req.Email)

		exists, err := d.userExists(r.Context(), req.Email)
		if err != nil {
			logging.ErrorLog("Reset code failed: user lookup [%s]: %v", emailHash, err)
			internalError(w, err)
			return
		}
		if !exists {
			// Do NOT reveal user existence
			logging.InfoLog("Reset code skipped: unknown user [%s]", emailHash)
			respondOK(w, http.StatusOK)
			return
		}

		if se, err := d.issueCode(r.Context(), models.PurposeReset, req.Email); err != nil {
			logging.ErrorLog("Reset code failed [%s]: %v", emailHash, err)
			internalError(w, err)
			return
		} else if se != nil {
			respondError(w, se)
			return
		}

		logging.InfoLog("Reset code sent [%s] %v", emailHash, time.Since(start))
		respondOK(w, http.StatusOK)
	}
}

// VerifyCodeHandler marks the code for purpose verified. Verifying an
// already verified code again succeeds.
func VerifyCodeHandler(d *Deps, purpose models.Purpose) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.VerifyCodeRequest
		if !d.decode(w, r, &req, &req.Email) {
			logging.WarnLog("Code verification failed: invalid request purpose=%s", purpose)
			return
		}
		emailHash := utils.HashEmail(req.Email)
		ctx := r.Context()

		result, err := d.checkCode(ctx, purpose, req.Email, req.Code, true)
		if err != nil {
			logging.ErrorLog("Code verification failed: store [%s]: %v", emailHash, err)
			internalError(w, err)
			return
		}
		if se := result.refusal(); se != nil {
			logging.WarnLog("Code verification failed: %s [%s] purpose=%s", result, emailHash, purpose)
			respondError(w, se)
			return
		}

		logging.InfoLog("Code verified [%s] purpose=%s", emailHash, purpose)
		respondOK(w, http.StatusOK)
	}
}

func (d *Deps) userExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := d.Work.DB(ctx, func(ctx context.Context) error {
		var err error
		exists, err = d.Users.Exists(ctx, email)
		return err
	})
	return exists, err
}

// issueCode enforces the resend cooldown, stores a fresh code and mails it.
// A non-nil ServiceError is a client-facing refusal.
func (d *Deps) issueCode(ctx context.Context, purpose models.Purpose, email string) (*models.ServiceError, error) {
	started, err := d.Codes.StartCooldown(ctx, purpose, email, d.Settings.ResendCooldown)
	if err != nil {
		return nil, err
	}
	if !started {
		logging.WarnLog("Code request throttled [%s] purpose=%s", utils.HashEmail(email), purpose)
		return svcErr(http.StatusTooManyRequests, models.CodeRateLimited, "", msgCooldown), nil
	}

	code, err := auth.GenerateCode()
	if err != nil {
		return nil, err
	}
	now := d.now()
	rec := models.CodeRecord{Code: code, IssuedAt: now, ExpiresAt: now.Add(d.Settings.CodeTTL)}
	if err := d.Codes.Save(ctx, purpose, email, rec); err != nil {
		return nil, err
	}

	err = d.Work.Mail(ctx, func(ctx context.Context) error {
		return d.Mail.SendCode(ctx, email, code, purpose)
	})
	if err != nil {
		logging.WarnLog("Code mail failed [%s]: %v", utils.HashEmail(email), err)
		if derr := d.Codes.Delete(ctx, purpose, email); derr != nil {
			logging.ErrorLog("Code delete failed [%s]: %v", utils.HashEmail(email), derr)
		}
		return svcErr(http.StatusServiceUnavailable, models.CodeUnavailable, "", msgSendFailed), nil
	}
	return nil, nil
}

type codeResult int

const (
	codeMissing codeResult = iota
	codeMismatch
	codeLocked
	codeUnverified
	codeAccepted
)

func (r codeResult) String() string {
	return [...]string{"missing", "mismatch", "locked", "unverified", "accepted"}[r]
}

// refusal is the client-facing error for r, nil when accepted.
func (r codeResult) refusal() *models.ServiceError {
	switch r {
	case codeMissing:
		return svcErr(http.StatusBadRequest, models.CodeCodeExpired, "otp", msgCodeExpired)
	case codeMismatch:
		return svcErr(http.StatusBadRequest, models.CodeInvalidCode, "otp", msgCodeInvalid)
	case codeLocked:
		return svcErr(http.StatusTooManyRequests, models.CodeRateLimited, "otp", msgTooManyTries)
	case codeUnverified:
		return svcErr(http.StatusForbidden, models.CodeNotVerified, "otp", msgCodeUnverified)
	}
	return nil
}

// checkCode applies one guess in a single store update. Every mismatch
// counts an attempt and the attempt reaching MaxAttempts drops the code.
// With verify set a match marks the record verified; without it an
// unverified record is refused before the code is looked at.
func (d *Deps) checkCode(ctx context.Context, purpose models.Purpose, email, code string, verify bool) (codeResult, error) {
	result := codeMissing
	live, err := d.Codes.Update(ctx, purpose, email, func(rec *models.CodeRecord) models.CodeUpdate {
		if !verify && !rec.Verified {
			result = codeUnverified
			return models.CodeKeep
		}
		if !auth.CodesEqual(rec.Code, code) {
			rec.Attempts++
			if rec.Attempts >= d.Settings.MaxAttempts {
				result = codeLocked
				return models.CodeDelete
			}
			result = codeMismatch
			return models.CodeSave
		}
		result = codeAccepted
		if rec.Verified {
			return models.CodeKeep
		}
		rec.Verified = true
		return models.CodeSave
	})
	if err != nil {
		return codeMissing, err
	}
	if !live {
		return codeMissing, nil
	}
	if result == codeLocked {
		logging.WarnLog("Code dropped after %d attempts [%s] purpose=%s", d.Settings.MaxAttempts, utils.HashEmail(email), purpose)
	}
	return result, nil
}

// consumeCheck requires a verified record matching code. The caller
// deletes it once the guarded action succeeded.
func (d *Deps) consumeCheck(ctx context.Context, purpose models.Purpose, email, code string) (*models.ServiceError, error) {
	result, err := d.checkCode(ctx, purpose, email, code, false)
	if err != nil {
		return nil, err
	}
	return result.refusal(), nil
}
