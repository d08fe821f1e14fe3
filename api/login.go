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

const msgBadCredentials = "Invalid email or password."

// LoginHandler checks the password and returns a session token with the
// user's identity.
func LoginHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req models.LoginRequest
		if !d.decode(w, r, &req, &req.Email) {
			logging.WarnLog("Login failed: invalid request")
			return
		}
		emailHash := utils.HashEmail(req.Email)
		ctx := r.Context()

		var user models.User
		err := d.Work.DB(ctx, func(ctx context.Context) error {
			var err error
			user, err = d.Users.GetUser(ctx, req.Email)
			return err
		})
		if errors.Is(err, store.ErrUserNotFound) {
			// Do NOT reveal user existence
			logging.WarnLog("Login failed: unknown user [%s]", emailHash)
			respondError(w, svcErr(http.StatusUnauthorized, models.CodeInvalidCredentials, "", msgBadCredentials))
			return
		}
		if err != nil {
			logging.ErrorLog("Login failed: user lookup [%s]: %v", emailHash, err)
			internalError(w, err)
			return
		}

		var match bool
		err = d.Work.Hash(ctx, func(ctx context.Context) error {
			var err error
			match, err = auth.CheckPassword(user.PasswordHash, req.Password)
			return err
		})
		if err != nil {
			logging.ErrorLog("Login failed: password check [%s]: %v", emailHash, err)
			internalError(w, err)
			return
		}
		if !match {
			logging.WarnLog("Login failed: wrong password [%s]", emailHash)
			respondError(w, svcErr(http.StatusUnauthorized, models.CodeInvalidCredentials, "", msgBadCredentials))
			return
		}

		identity := user.Identity()
		token, err := auth.IssueSessionToken(identity)
		if err != nil {
			logging.ErrorLog("Login failed: token [%s]: %v", emailHash, err)
			internalError(w, err)
			return
		}

		logging.InfoLog("Login success [%s] %v", emailHash, time.Since(start))
		respondJSON(w, http.StatusOK, models.LoginResponse{Token: token, User: identity})
	}
}
