package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/auth"
	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/Goofygiraffe06/otpgate/internal/utils"
	"github.com/Goofygiraffe06/otpgate/store"
)

// RegisterHandler creates the account once the email's registration code
// has been verified. The code is consumed on success.
func RegisterHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req models.RegisterRequest
		if !d.decode(w, r, &req, &req.Email) {
			logging.WarnLog("Registration failed: invalid request")
			return
		}

		req.Username = strings.TrimSpace(req.Username)
		req.USN = strings.ToUpper(strings.TrimSpace(req.USN))
		req.Section = strings.TrimSpace(req.Section)

		emailHash := utils.HashEmail(req.Email)
		usernameHash := utils.HashUsername(req.Username)
		ctx := r.Context()

		if se, err := d.consumeCheck(ctx, models.PurposeRegister, req.Email, req.Code); err != nil {
			logging.ErrorLog("Registration failed: code lookup [%s]: %v", emailHash, err)
			internalError(w, err)
			return
		} else if se != nil {
			logging.WarnLog("Registration failed: %s [%s][%s]", se.Code, emailHash, usernameHash)
			respondError(w, se)
			return
		}

		var hash string
		err := d.Work.Hash(ctx, func(ctx context.Context) error {
			var err error
			hash, err = auth.HashPassword(req.Password)
			return err
		})
		if err != nil {
			logging.ErrorLog("Registration failed: password hash [%s]: %v", emailHash, err)
			internalError(w, err)
			return
		}

		user := &models.User{
			Email:        req.Email,
			Username:     req.Username,
			USN:          req.USN,
			Branch:       req.Branch,
			Section:      req.Section,
			Phone:        req.Phone,
			PasswordHash: hash,
		}
		err = d.Work.DB(ctx, func(ctx context.Context) error {
			return d.Users.AddUser(ctx, user)
		})
		switch {
		case errors.Is(err, store.ErrUserExists):
			logging.WarnLog("Registration failed: user exists [%s]", emailHash)
			respondError(w, svcErr(http.StatusConflict, models.CodeUserExists, "email", msgEmailExists))
			return
		case errors.Is(err, store.ErrUSNExists):
			logging.WarnLog("Registration failed: usn exists [%s]", emailHash)
			respondError(w, svcErr(http.StatusConflict, models.CodeUserExists, "usn", "USN already registered."))
			return
		case err != nil:
			logging.ErrorLog("Registration failed: DB insert [%s]: %v", emailHash, err)
			internalError(w, err)
			return
		}

		if err := d.Codes.Delete(ctx, models.PurposeRegister, req.Email); err != nil {
			logging.ErrorLog("Registration: code delete failed [%s]: %v", emailHash, err)
		}

		logging.InfoLog("Registration success [%s][%s] %v", emailHash, usernameHash, time.Since(start))
		respondOK(w, http.StatusCreated)
	}
}
