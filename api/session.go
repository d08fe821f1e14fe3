package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/Goofygiraffe06/otpgate/internal/auth"
	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/Goofygiraffe06/otpgate/internal/utils"
)

// SessionHandler returns the identity behind a bearer session token.
func SessionHandler(d *Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenStr, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(tokenStr) == "" {
			respondError(w, svcErr(http.StatusUnauthorized, models.CodeInvalidCredentials, "", "Missing token"))
			return
		}

		claims, err := auth.VerifySessionToken(strings.TrimSpace(tokenStr))
		if err != nil {
			respondError(w, svcErr(http.StatusUnauthorized, models.CodeInvalidCredentials, "", "Invalid or expired token"))
			return
		}

		var user models.User
		err = d.Work.DB(r.Context(), func(ctx context.Context) error {
			var err error
			user, err = d.Users.GetUser(ctx, claims.Email)
			return err
		})
		if err != nil || user.ID != claims.Subject {
			logging.WarnLog("Session lookup failed [%s]: %v", utils.HashEmail(claims.Email), err)
			respondError(w, svcErr(http.StatusUnauthorized, models.CodeInvalidCredentials, "", "Invalid or expired token"))
			return
		}

		respondJSON(w, http.StatusOK, user.Identity())
	}
}
