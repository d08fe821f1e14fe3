// Package ephemeral keeps one-time codes and resend cooldowns in process
// memory with per-entry expiry.
package ephemeral

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/models"
)

// CodeStore holds code records until they expire.
type CodeStore struct {
	core *coreStore
}

// NewCodeStore starts an empty store.
func NewCodeStore() *CodeStore {
	return NewCodeStoreWithClock(time.Now)
}

// NewCodeStoreWithClock is NewCodeStore with a custom time source.
func NewCodeStoreWithClock(now func() time.Time) *CodeStore {
	start := time.Now()
	store := &CodeStore{core: newCoreStore(now)}
	logging.InfoLog("Code store creation completed %v", time.Since(start))
	return store
}

// Save stores rec until rec.ExpiresAt.
func (s *CodeStore) Save(_ context.Context, purpose models.Purpose, email string, rec models.CodeRecord) error {
	ttl := rec.ExpiresAt.Sub(s.core.now())
	if ttl <= 0 {
		s.core.delete(models.CodeKey(purpose, email))
		return nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.core.set(models.CodeKey(purpose, email), string(raw), ttl)
}

// Load returns the live record for email, if any.
func (s *CodeStore) Load(_ context.Context, purpose models.Purpose, email string) (models.CodeRecord, bool, error) {
	raw, ok := s.core.get(models.CodeKey(purpose, email))
	if !ok {
		return models.CodeRecord{}, false, nil
	}
	var rec models.CodeRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return models.CodeRecord{}, false, err
	}
	return rec, true, nil
}

// Update applies fn to the live record for email atomically with respect
// to other calls on this store. It reports whether a record was live.
func (s *CodeStore) Update(_ context.Context, purpose models.Purpose, email string, fn func(*models.CodeRecord) models.CodeUpdate) (bool, error) {
	return s.core.update(models.CodeKey(purpose, email), func(raw string) (string, time.Duration, error) {
		var rec models.CodeRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return "", 0, err
		}
		ttl := rec.ExpiresAt.Sub(s.core.now())
		switch fn(&rec) {
		case models.CodeDelete:
			return "", 0, nil
		case models.CodeKeep:
			return raw, ttl, nil
		}
		out, err := json.Marshal(rec)
		if err != nil {
			return "", 0, err
		}
		return string(out), ttl, nil
	})
}

func (s *CodeStore) Delete(_ context.Context, purpose models.Purpose, email string) error {
	s.core.delete(models.CodeKey(purpose, email))
	return nil
}

// StartCooldown opens a resend cooldown for email. It returns false when
// one is already running.
func (s *CodeStore) StartCooldown(_ context.Context, purpose models.Purpose, email string, d time.Duration) (bool, error) {
	return s.core.setNX(models.CooldownKey(purpose, email), "1", d)
}

// Close stops the background sweeper.
func (s *CodeStore) Close() error {
	s.core.close()
	return nil
}
