package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Goofygiraffe06/otpgate/api"
	"github.com/Goofygiraffe06/otpgate/internal/auth"
	"github.com/Goofygiraffe06/otpgate/internal/config"
	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/mailer"
	"github.com/Goofygiraffe06/otpgate/internal/manager"
	"github.com/Goofygiraffe06/otpgate/store"
	"github.com/Goofygiraffe06/otpgate/store/ephemeral"
	"github.com/Goofygiraffe06/otpgate/store/redisstore"
)

// codeStore is the code store plus its shutdown.
type codeStore interface {
	api.CodeStore
	Close() error
}

func main() {
	// Initialize logger
	f, err := logging.InitLogger("otpgate.log")
	if err != nil {
		// If logging fails, we can't even log that error, so panic.
		panic("Failed to initialize logger: " + err.Error())
	}
	defer f.Close()
	defer logging.Sync()

	logging.InfoLog("Starting otpgate server")

	if path := config.SessionKeyPath(); path != "" {
		if err := auth.LoadSigningKey(path); err != nil {
			logging.FatalLog("Failed to load session key: %v", err)
		}
	} else {
		auth.InitSigningKey()
	}

	// Secure SQLite DB file if it exists
	dbFile := config.DBPath()
	if _, err := os.Stat(dbFile); err == nil {
		if err := os.Chmod(dbFile, 0600); err != nil {
			logging.ErrorLog("Failed to set restrictive permissions on %s: %v", dbFile, err)
		} else {
			logging.DebugLog("Permissions on %s set to 0600", dbFile)
		}
	}

	userStore, err := store.NewSQLiteStore(dbFile)
	if err != nil {
		logging.FatalLog("Failed to connect to DB: %v", err)
	}
	defer userStore.Close()
	logging.InfoLog("Connected to SQLite database: %s", dbFile)

	codes := openCodeStore()
	defer codes.Close()

	mail := openMailer()

	mgr := manager.NewWorkManager()
	defer mgr.Close()

	deps := api.NewDeps(userStore, codes, mail, mgr, api.SettingsFromEnv())
	router := api.NewRouter(deps, config.CORSAllowedOrigins())

	timeouts := config.ServerTimeouts()
	srv := &http.Server{
		Addr:              ":" + config.Port(),
		Handler:           router,
		ReadTimeout:       timeouts.Read,
		ReadHeaderTimeout: timeouts.ReadHeader,
		WriteTimeout:      timeouts.Write,
		IdleTimeout:       timeouts.Idle,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.InfoLog("otpgate server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		logging.ErrorLog("Server failed: %v", err)
	case sig := <-stop:
		logging.InfoLog("Shutdown signal received: %v", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.ErrorLog("Graceful shutdown failed: %v", err)
	}
	logging.InfoLog("otpgate server stopped")
}

// openCodeStore uses redis when REDIS_ADDR is set, else process memory.
func openCodeStore() codeStore {
	addr := config.RedisAddr()
	if addr == "" {
		logging.InfoLog("Code store: in-process")
		return ephemeral.NewCodeStore()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rs, err := redisstore.Dial(ctx, addr)
	if err != nil {
		logging.FatalLog("Failed to connect to redis at %s: %v", addr, err)
	}
	return rs
}

// openMailer submits through SMTP_ADDR when set; otherwise messages are
// written to stdout.
func openMailer() api.Mailer {
	from := config.MailFrom()
	ttl := config.OTPTTL()

	addr := config.SMTPAddr()
	if addr == "" {
		logging.WarnLog("SMTP_ADDR not set: OTP mail is written to stdout")
		return mailer.NewOutboxMailer(os.Stdout, from, ttl)
	}

	if ip := config.SMTPRelayIP(); ip != "" {
		if _, err := mailer.CheckRelay(ip, from); err != nil {
			logging.FatalLog("Mail relay check failed: %v", err)
		}
	}

	var signer *mailer.Signer
	if sel, keyPath := config.DKIMSelector(), config.DKIMKeyPath(); sel != "" && keyPath != "" {
		domain := from[strings.LastIndexByte(from, '@')+1:]
		s, err := mailer.LoadSigner(keyPath, domain, sel)
		if err != nil {
			logging.FatalLog("Failed to load DKIM key: %v", err)
		}
		signer = s
		logging.InfoLog("DKIM signing enabled: %s._domainkey.%s", sel, domain)
	}

	logging.InfoLog("Mailer: SMTP relay %s", addr)
	return mailer.NewSMTPMailer(addr, from, config.SMTPUsername(), config.SMTPPassword(), signer, ttl)
}
