package config

// SMTPAddr is the submission server used for outbound mail. Empty logs
// codes instead of mailing them.
func SMTPAddr() string {
	return GetEnv("SMTP_ADDR", "")
}

func SMTPUsername() string {
	return GetEnv("SMTP_USERNAME", "")
}

func SMTPPassword() string {
	return GetEnv("SMTP_PASSWORD", "")
}

func MailFrom() string {
	return GetEnv("MAIL_FROM", "no-reply@otpgate.local")
}

// DKIMSelector and DKIMKeyPath enable DKIM signing when both are set.
func DKIMSelector() string {
	return GetEnv("DKIM_SELECTOR", "")
}

func DKIMKeyPath() string {
	return GetEnv("DKIM_KEY_PATH", "")
}

// SMTPRelayIP is the address the relay sends from. When set, startup checks
// that SPF for the MAIL_FROM domain authorises it.
func SMTPRelayIP() string {
	return GetEnv("SMTP_RELAY_IP", "")
}
