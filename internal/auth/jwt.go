package auth

import (
	"errors"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/config"
	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/Goofygiraffe06/otpgate/internal/utils"
	"github.com/golang-jwt/jwt/v5"
)

var ErrKeyNotInitialized = errors.New("Ed25519 key not initialized")

// SessionClaims are carried by the token returned on login.
type SessionClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// IssueSessionToken signs a session token for user.
func IssueSessionToken(user models.Identity) (string, error) {
	emailHash := utils.HashEmail(user.Email)

	key := GetSigningKey()
	if key == nil || key.PrivateKey == nil {
		logging.ErrorLog("Session token generation failed [%s]: Ed25519 key not initialized", emailHash)
		return "", ErrKeyNotInitialized
	}

	now := time.Now()
	claims := SessionClaims{
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    config.JWTIssuer(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(config.SessionExpiresIn())),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	tokenStr, err := token.SignedString(key.PrivateKey)
	if err != nil {
		logging.ErrorLog("Session token signing failed [%s]: %v", emailHash, err)
		return "", err
	}

	logging.DebugLog("Session token generated [%s]", emailHash)
	return tokenStr, nil
}

// VerifySessionToken parses tokenStr and checks signature, issuer and expiry.
func VerifySessionToken(tokenStr string) (*SessionClaims, error) {
	key := GetSigningKey()
	if key == nil || key.PublicKey == nil {
		logging.ErrorLog("Session token verification failed: Ed25519 key not initialized")
		return nil, ErrKeyNotInitialized
	}

	claims := &SessionClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		// Enforce that we only accept EdDSA signed tokens
		if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
			logging.DebugLog("Token verification failed: unexpected signing method %T", token.Method)
			return nil, errors.New("unexpected signing method")
		}
		return key.PublicKey, nil
	}, jwt.WithIssuer(config.JWTIssuer()), jwt.WithExpirationRequired())
	if err != nil {
		logging.DebugLog("Token verification failed: %v", err)
		return nil, err
	}

	logging.DebugLog("Token verified [%s]", utils.HashEmail(claims.Email))
	return claims, nil
}
