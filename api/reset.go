package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/auth"
	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/Goofygiraffe06/otpgate/internal/utils"
	"github.com/Goofygiraffe06/otpgate/store"
)

// ResetPasswordHandler replaces the password once the email's reset code
// has been verified. The code is consumed on success.
func ResetPasswordHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req models.ResetPasswordRequest
		if !d.decode(w, r, &req, &req.Email) {
			logging.WarnLog("Password reset failed: invalid request")
			return
		}
		emailHash := utils.HashEmail(req.Email)
		ctx := r.Context()

		if se, err := d.consumeCheck(ctx, models.PurposeReset, req.Email, req.Code); err != nil {
			logging.ErrorLog("Password reset failed: code lookup [%s]: %v", emailHash, err)
			internalError(w, err)
			return
		} else if se != nil {
			logging.WarnLog("Password reset failed: %s [%s]", se.Code, emailHash)
			respondError(w, se)
			return
		}

		var hash string
		err := d.Work.Hash(ctx, func(ctx context.Context) error {
			var err error
			hash, err = auth.HashPassword(req.NewPassword)
			return err
		})
		if err != nil {
			logging.ErrorLog("Password reset failed: hash [%s]: %v", emailHash, err)
			internalError(w, err)
			return
		}

		err = d.Work.DB(ctx, func(ctx context.Context) error {
			return d.Users.UpdatePassword(ctx, req.Email, hash)
		})
		if errors.Is(err, store.ErrUserNotFound) {
			logging.WarnLog("Password reset failed: user vanished [%s]", emailHash)
			respondError(w, svcErr(http.StatusBadRequest, models.CodeInvalidCode, "otp", msgCodeInvalid))
			return
		}
		if err != nil {
			logging.ErrorLog("Password reset failed: DB update [%s]: %v", emailHash, err)
			internalError(w, err)
			return
		}

		if err := d.Codes.Delete(ctx, models.PurposeReset, req.Email); err != nil {
			logging.ErrorLog("Password reset: code delete failed [%s]: %v", emailHash, err)
		}

		logging.InfoLog("Password reset success [%s] %v", emailHash, time.Since(start))
		respondOK(w, http.StatusOK)
	}
}
