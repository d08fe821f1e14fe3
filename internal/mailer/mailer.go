// Package mailer delivers one-time codes by email.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/Goofygiraffe06/otpgate/internal/utils"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// SMTPMailer submits code mail to a relay, optionally DKIM-signed.
type SMTPMailer struct {
	addr   string
	from   string
	auth   sasl.Client
	signer *Signer
	ttl    time.Duration
	now    func() time.Time
}

// NewSMTPMailer submits through addr as from. Empty username disables AUTH.
// signer may be nil.
func NewSMTPMailer(addr, from, username, password string, signer *Signer, ttl time.Duration) *SMTPMailer {
	m := &SMTPMailer{
		addr:   addr,
		from:   from,
		signer: signer,
		ttl:    ttl,
		now:    time.Now,
	}
	if username != "" {
		m.auth = sasl.NewPlainClient("", username, password)
	}
	return m
}

// SendCode mails code to to. It returns when the relay accepted the
// message or ctx ended.
func (m *SMTPMailer) SendCode(ctx context.Context, to, code string, purpose models.Purpose) error {
	start := time.Now()
	toHash := utils.HashEmail(to)

	msg, err := BuildMessage(m.from, to, code, purpose, m.ttl, m.now())
	if err != nil {
		return err
	}
	if m.signer != nil {
		if msg, err = m.signer.Sign(msg); err != nil {
			logging.ErrorLog("Mail DKIM signing failed [%s]: %v", toHash, err)
			return err
		}
	}

	if err := m.submit(ctx, to, msg); err != nil {
		if ctx.Err() != nil {
			logging.WarnLog("Mail delivery abandoned [%s]: %v", toHash, ctx.Err())
			return fmt.Errorf("mailer: send: %w", ctx.Err())
		}
		logging.WarnLog("Mail delivery failed [%s]: %v", toHash, err)
		return fmt.Errorf("mailer: send: %w", err)
	}
	logging.InfoLog("Mail delivered [%s] purpose=%s %v", toHash, purpose, time.Since(start))
	return nil
}

// submit runs one SMTP transaction on a connection bound to ctx: its
// deadline follows ctx and cancellation interrupts any blocked read or
// write, so an abandoned send does not finish later.
func (m *SMTPMailer) submit(ctx context.Context, to string, msg []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	c := smtp.NewClient(conn)
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		host, _, _ := net.SplitHostPort(m.addr)
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if m.auth != nil {
		if err := c.Auth(m.auth); err != nil {
			return err
		}
	}
	if err := c.Mail(m.from, nil); err != nil {
		return err
	}
	if err := c.Rcpt(to, nil); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	// The relay accepted the message; a failed QUIT does not undo that.
	if err := c.Quit(); err != nil {
		logging.DebugLog("SMTP quit: %v", err)
	}
	return nil
}

// OutboxMailer writes each message to w instead of sending it. Used when
// no relay is configured.
type OutboxMailer struct {
	mu   sync.Mutex
	w    io.Writer
	from string
	ttl  time.Duration
}

func NewOutboxMailer(w io.Writer, from string, ttl time.Duration) *OutboxMailer {
	return &OutboxMailer{w: w, from: from, ttl: ttl}
}

func (m *OutboxMailer) SendCode(_ context.Context, to, code string, purpose models.Purpose) error {
	msg, err := BuildMessage(m.from, to, code, purpose, m.ttl, time.Now())
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.w.Write(append(msg, "\r\n"...)); err != nil {
		return err
	}
	logging.DebugLog("Mail written to outbox [%s]", utils.HashEmail(to))
	return nil
}

// domainOf returns the part of addr after the last @, lowercased.
func domainOf(addr string) string {
	addr = strings.Trim(strings.TrimSpace(addr), "<>")
	at := strings.LastIndexByte(addr, '@')
	if at < 0 {
		return ""
	}
	return strings.ToLower(addr[at+1:])
}
