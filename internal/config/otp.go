package config

import "time"

func OTPTTL() time.Duration {
	return MustParseDuration("OTP_TTL", "60s")
}

// OTPResendCooldown is the minimum gap between two codes for one email.
func OTPResendCooldown() time.Duration {
	return MustParseDuration("OTP_RESEND_COOLDOWN", "30s")
}

// OTPMaxAttempts is how many wrong codes are accepted before the code is
// dropped and the caller is rate limited.
func OTPMaxAttempts() int {
	return positiveInt("OTP_MAX_ATTEMPTS", 5)
}

// RedisAddr selects the redis code store when set. Empty means the
// in-process store.
func RedisAddr() string {
	return GetEnv("REDIS_ADDR", "")
}
