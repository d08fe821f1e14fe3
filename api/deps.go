package api

import (
	"context"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/config"
	"github.com/Goofygiraffe06/otpgate/internal/manager"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/Goofygiraffe06/otpgate/internal/validate"
	"github.com/go-playground/validator/v10"
)

// UserStore persists registered users.
type UserStore interface {
	AddUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, email string) (models.User, error)
	Exists(ctx context.Context, email string) (bool, error)
	UpdatePassword(ctx context.Context, email, hash string) error
}

// CodeStore keeps issued codes and resend cooldowns.
type CodeStore interface {
	Save(ctx context.Context, purpose models.Purpose, email string, rec models.CodeRecord) error
	Update(ctx context.Context, purpose models.Purpose, email string, fn func(*models.CodeRecord) models.CodeUpdate) (bool, error)
	Delete(ctx context.Context, purpose models.Purpose, email string) error
	StartCooldown(ctx context.Context, purpose models.Purpose, email string, d time.Duration) (bool, error)
}

// Mailer delivers a code to its owner.
type Mailer interface {
	SendCode(ctx context.Context, to, code string, purpose models.Purpose) error
}

// Settings are the code and request limits.
type Settings struct {
	CodeTTL        time.Duration
	ResendCooldown time.Duration
	MaxAttempts    int
	MaxBodyBytes   int64
}

// SettingsFromEnv reads Settings from the environment.
func SettingsFromEnv() Settings {
	return Settings{
		CodeTTL:        config.OTPTTL(),
		ResendCooldown: config.OTPResendCooldown(),
		MaxAttempts:    config.OTPMaxAttempts(),
		MaxBodyBytes:   config.MaxRequestBodyBytes(),
	}
}

// Deps is everything the handlers need.
type Deps struct {
	Users    UserStore
	Codes    CodeStore
	Mail     Mailer
	Work     *manager.WorkManager
	Settings Settings

	validate *validator.Validate
	now      func() time.Time
}

// NewDeps wires the handler dependencies.
func NewDeps(users UserStore, codes CodeStore, mail Mailer, work *manager.WorkManager, settings Settings) *Deps {
	if settings.MaxAttempts <= 0 {
		settings.MaxAttempts = 5
	}
	if settings.MaxBodyBytes <= 0 {
		settings.MaxBodyBytes = 1 << 20
	}
	return &Deps{
		Users:    users,
		Codes:    codes,
		Mail:     mail,
		Work:     work,
		Settings: settings,
		validate: validate.New(),
		now:      time.Now,
	}
}
