package config

import "time"

// JWTIssuer is the iss claim of session tokens.
func JWTIssuer() string {
	return GetEnv("JWT_ISSUER", "otpgate")
}

// SessionExpiresIn is the lifetime of a session token issued on login.
func SessionExpiresIn() time.Duration {
	return MustParseDuration("SESSION_EXPIRES_IN", "24h")
}

// SessionKeyPath is an optional PKCS#8 Ed25519 key. Without it the server
// signs with a per-process key.
func SessionKeyPath() string {
	return GetEnv("SESSION_KEY_PATH", "")
}

// SessionStorePath is where the terminal driver keeps its session.
func SessionStorePath() string {
	return GetEnv("SESSION_STORE_PATH", "otpgate-session.json")
}
