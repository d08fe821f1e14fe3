// Package session persists the token and identity issued on login and
// tells the host application about the new session.
package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/Goofygiraffe06/otpgate/internal/utils"
)

const (
	TokenKey = "token"
	UserKey  = "user"
)

var ErrEmptyToken = errors.New("session: empty token")

// Store is the key-value storage the session lives in.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(key string) error
}

// Publisher writes sessions to a Store.
type Publisher struct {
	store   Store
	onLogin func(models.Identity)
}

// NewPublisher returns a publisher writing to store. onLogin may be nil.
func NewPublisher(store Store, onLogin func(models.Identity)) *Publisher {
	return &Publisher{store: store, onLogin: onLogin}
}

// Publish persists token and user, then notifies the host once.
func (p *Publisher) Publish(token string, user models.Identity) error {
	if token == "" {
		return ErrEmptyToken
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session: encode user: %w", err)
	}
	if err := p.store.Set(TokenKey, token); err != nil {
		return fmt.Errorf("session: store token: %w", err)
	}
	if err := p.store.Set(UserKey, string(raw)); err != nil {
		_ = p.store.Delete(TokenKey)
		return fmt.Errorf("session: store user: %w", err)
	}

	logging.InfoLog("Session published [%s]", utils.HashEmail(user.Email))
	if p.onLogin != nil {
		p.onLogin(user)
	}
	return nil
}

// Current returns the stored session, if any.
func (p *Publisher) Current() (string, models.Identity, bool) {
	token, ok := p.store.Get(TokenKey)
	if !ok || token == "" {
		return "", models.Identity{}, false
	}
	raw, ok := p.store.Get(UserKey)
	if !ok {
		return "", models.Identity{}, false
	}
	var user models.Identity
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		logging.WarnLog("Stored session user unreadable: %v", err)
		return "", models.Identity{}, false
	}
	return token, user, true
}

// Clear removes the stored session.
func (p *Publisher) Clear() error {
	if err := p.store.Delete(TokenKey); err != nil {
		return err
	}
	return p.store.Delete(UserKey)
}
