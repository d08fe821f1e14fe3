package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"mime"
	"strings"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/google/uuid"
)

var ErrBadAddress = errors.New("mailer: invalid address")

// BuildMessage renders the code mail as an RFC 5322 message with CRLF
// line endings.
func BuildMessage(from, to, code string, purpose models.Purpose, ttl time.Duration, now time.Time) ([]byte, error) {
	if domainOf(from) == "" || domainOf(to) == "" || strings.ContainsAny(from+to, "\r\n") {
		return nil, ErrBadAddress
	}

	subject, intro := "Your registration OTP", "Use this code to verify your email and finish registering:"
	if purpose == models.PurposeReset {
		subject, intro = "Your password reset OTP", "Use this code to reset your password:"
	}

	var b bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }
	header("From", from)
	header("To", to)
	header("Subject", mime.QEncoding.Encode("utf-8", subject))
	header("Date", now.Format(time.RFC1123Z))
	header("Message-ID", "<"+uuid.NewString()+"@"+domainOf(from)+">")
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=utf-8")
	b.WriteString("\r\n")

	b.WriteString(intro + "\r\n\r\n")
	b.WriteString("    " + code + "\r\n\r\n")
	fmt.Fprintf(&b, "The code is valid for %s. If you did not ask for it, ignore this email.\r\n", humanDuration(ttl))
	return b.Bytes(), nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a short time"
	case d == time.Minute:
		return "1 minute"
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	default:
		return fmt.Sprintf("%d seconds", int(d/time.Second))
	}
}
