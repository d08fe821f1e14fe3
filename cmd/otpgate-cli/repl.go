package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/Goofygiraffe06/otpgate/internal/flow"
	"github.com/Goofygiraffe06/otpgate/internal/form"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/Goofygiraffe06/otpgate/internal/session"
	"github.com/fatih/color"
)

const helpText = `commands:
  mode login|register|forgot   switch flow
  set <field> <value>          fill a field (fields: %s)
  check <field>                validate a field now
  send | resend | verify       code actions
  submit                       login, register or reset
  show                         print the form
  whoami | logout              stored session
  quit
`

// sessionChecker resolves a stored token against the server.
type sessionChecker interface {
	Session(ctx context.Context, token string) (models.Identity, error)
}

type repl struct {
	in       io.Reader
	out      io.Writer
	ctrl     *flow.Controller
	pub      *session.Publisher
	sessions sessionChecker
	done     bool

	title  *color.Color
	bad    *color.Color
	good   *color.Color
	faint  *color.Color
	prompt *color.Color
}

func newREPL(in io.Reader, out io.Writer, pub *session.Publisher, sessions sessionChecker) *repl {
	return &repl{
		in:       in,
		out:      out,
		pub:      pub,
		sessions: sessions,
		title:  color.New(color.FgCyan, color.Bold),
		bad:    color.New(color.FgRed),
		good:   color.New(color.FgGreen),
		faint:  color.New(color.FgHiBlack),
		prompt: color.New(color.FgYellow),
	}
}

// closed is the modal close hook: a successful login ends the session.
func (r *repl) closed() { r.done = true }

func (r *repl) run(ctx context.Context) {
	if token, user, ok := r.pub.Current(); ok && token != "" {
		r.good.Fprintf(r.out, "Already signed in as %s. Use logout to switch.\n", user.Email)
	}
	r.render()

	sc := bufio.NewScanner(r.in)
	for !r.done {
		r.prompt.Fprintf(r.out, "%s> ", r.ctrl.State().Mode)
		if !sc.Scan() || ctx.Err() != nil {
			return
		}
		if !r.exec(ctx, sc.Text()) {
			return
		}
	}
}

// exec runs one command line. It returns false to quit.
func (r *repl) exec(ctx context.Context, line string) bool {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "":
		return true
	case "quit", "exit":
		return false
	case "help":
		fmt.Fprintf(r.out, helpText, fieldNames())
		return true
	case "mode":
		m, ok := flow.ParseMode(rest)
		if !ok {
			r.bad.Fprintf(r.out, "unknown mode %q\n", rest)
			return true
		}
		r.ctrl.ToggleMode(m)
	case "set":
		name, value, _ := strings.Cut(rest, " ")
		if err := r.ctrl.SetField(form.Field(name), value); err != nil {
			r.bad.Fprintf(r.out, "%s: %v\n", name, err)
			return true
		}
	case "check":
		if msg := r.ctrl.Blur(form.Field(rest)); msg == "" {
			r.good.Fprintln(r.out, "ok")
		}
	case "send":
		r.report("send", r.ctrl.RequestCode(ctx))
	case "resend":
		r.report("resend", r.ctrl.ResendCode(ctx))
	case "verify":
		r.report("verify", r.ctrl.VerifyCode(ctx))
	case "submit":
		r.report("submit", r.ctrl.Submit(ctx))
		if r.done {
			return false
		}
	case "show":
	case "whoami":
		r.whoami(ctx)
		return true
	case "logout":
		if err := r.pub.Clear(); err != nil {
			r.bad.Fprintf(r.out, "logout: %v\n", err)
		}
		return true
	default:
		r.bad.Fprintf(r.out, "unknown command %q (try help)\n", cmd)
		return true
	}
	r.render()
	return true
}

// whoami checks the stored session with the server. A token the server
// no longer accepts is dropped.
func (r *repl) whoami(ctx context.Context) {
	token, user, ok := r.pub.Current()
	if !ok {
		r.faint.Fprintln(r.out, "not signed in")
		return
	}

	current, err := r.sessions.Session(ctx, token)
	if se, isSvc := models.AsServiceError(err); isSvc && se.Status == http.StatusUnauthorized {
		r.bad.Fprintln(r.out, "Session expired. Please login again.")
		if err := r.pub.Clear(); err != nil {
			r.bad.Fprintf(r.out, "logout: %v\n", err)
		}
		return
	}
	if err != nil {
		r.bad.Fprintf(r.out, "could not check session: %v\n", err)
		r.faint.Fprintf(r.out, "stored: %s <%s>\n", user.Username, user.Email)
		return
	}
	fmt.Fprintf(r.out, "%s <%s> %s %s-%s\n", current.Username, current.Email, current.USN, current.Branch, current.Section)
}

func (r *repl) report(action string, o flow.Outcome) {
	if o == flow.Rejected {
		r.faint.Fprintf(r.out, "%s: not available right now\n", action)
	}
}

func (r *repl) render() {
	v := r.ctrl.Snapshot()

	r.title.Fprintf(r.out, "== %s ==\n", strings.ToUpper(v.Mode.String()))
	if v.TopError.Banner() {
		r.good.Fprintln(r.out, v.TopError.Message)
	}
	for _, f := range visibleFields(v) {
		value := v.Form.Get(f)
		if isSecret(f) && value != "" {
			value = strings.Repeat("*", len(value))
		}
		fmt.Fprintf(r.out, "  %-22s %s\n", f.Label()+":", value)
		if v.TopError.Field == f {
			r.bad.Fprintf(r.out, "  %-22s %s\n", "", v.TopError.Message)
		} else if msg := v.FieldErrors[f]; msg != "" {
			r.bad.Fprintf(r.out, "  %-22s %s\n", "", msg)
		}
	}
	if v.Notice != "" {
		r.good.Fprintln(r.out, v.Notice)
	}
	switch {
	case v.OTP == flow.OTPVerified:
		r.good.Fprintln(r.out, "Email verified.")
	case v.OTP == flow.OTPSent && v.Remaining > 0:
		r.faint.Fprintf(r.out, "Resend OTP in %ds\n", v.Remaining)
	case v.OTP == flow.OTPSent && v.CanResend:
		r.faint.Fprintln(r.out, "You can resend the OTP now.")
	}
	if v.CanSubmit {
		r.faint.Fprintln(r.out, "Ready to submit.")
	}
}

func visibleFields(v flow.View) []form.Field {
	switch v.Mode {
	case flow.ModeRegister:
		return []form.Field{form.Username, form.Identifier, form.Email, form.Password,
			form.ConfirmPassword, form.Branch, form.Section, form.Phone, form.OTP}
	case flow.ModeForgotPassword:
		fields := []form.Field{form.Email, form.NewPassword, form.ConfirmNewPassword}
		if v.OTP != flow.OTPNotSent {
			fields = append(fields, form.OTP)
		}
		return fields
	default:
		return []form.Field{form.Email, form.Password}
	}
}

func isSecret(f form.Field) bool {
	switch f {
	case form.Password, form.ConfirmPassword, form.NewPassword, form.ConfirmNewPassword:
		return true
	}
	return false
}

func fieldNames() string {
	names := make([]string, 0, len(form.All))
	for _, f := range form.All {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
