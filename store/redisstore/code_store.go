// Package redisstore keeps one-time codes in redis so several server
// instances share them.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "otpgate"

// ErrUnavailable wraps every failure talking to redis.
var ErrUnavailable = errors.New("code store: redis unavailable")

// ErrContended is returned when Update keeps losing its optimistic lock.
var ErrContended = fmt.Errorf("%w: record contended", ErrUnavailable)

const maxUpdateRetries = 4

// CodeStore is a redis-backed code store.
type CodeStore struct {
	redis  *redis.Client
	prefix string
}

// New wraps an existing client.
func New(client *redis.Client) *CodeStore {
	return &CodeStore{redis: client, prefix: keyPrefix}
}

// Dial connects to addr and checks the connection.
func Dial(ctx context.Context, addr string) (*CodeStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	logging.InfoLog("Redis code store connected: %s", addr)
	return New(client), nil
}

func (s *CodeStore) key(k string) string {
	return s.prefix + ":" + k
}

// Save stores rec until rec.ExpiresAt.
func (s *CodeStore) Save(ctx context.Context, purpose models.Purpose, email string, rec models.CodeRecord) error {
	key := s.key(models.CodeKey(purpose, email))
	ttl := time.Until(rec.ExpiresAt)
	if ttl <= 0 {
		return s.del(ctx, key)
	}

	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Load returns the live record for email, if any.
func (s *CodeStore) Load(ctx context.Context, purpose models.Purpose, email string) (models.CodeRecord, bool, error) {
	data, err := s.redis.Get(ctx, s.key(models.CodeKey(purpose, email))).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.CodeRecord{}, false, nil
	}
	if err != nil {
		return models.CodeRecord{}, false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var rec models.CodeRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return models.CodeRecord{}, false, err
	}
	return rec, true, nil
}

// Update applies fn to the live record for email inside a WATCH/MULTI
// transaction, retrying when another writer got there first. fn may run
// more than once. It reports whether a record was live.
func (s *CodeStore) Update(ctx context.Context, purpose models.Purpose, email string, fn func(*models.CodeRecord) models.CodeUpdate) (bool, error) {
	key := s.key(models.CodeKey(purpose, email))

	for i := 0; i < maxUpdateRetries; i++ {
		var found bool
		var decodeErr error

		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				return nil
			}
			if err != nil {
				return err
			}

			var rec models.CodeRecord
			if decodeErr = json.Unmarshal(data, &rec); decodeErr != nil {
				return decodeErr
			}
			found = true

			action := fn(&rec)
			ttl := time.Until(rec.ExpiresAt)
			switch {
			case action == models.CodeKeep:
				return nil
			case action == models.CodeSave && ttl > 0:
				raw, err := json.Marshal(rec)
				if err != nil {
					return err
				}
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Set(ctx, key, raw, ttl)
					return nil
				})
				return err
			default:
				_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				})
				return err
			}
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if decodeErr != nil {
			return false, decodeErr
		}
		if err != nil {
			return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		return found, nil
	}

	logging.WarnLog("Redis code update contended: %s", models.CodeKey(purpose, "*"))
	return false, ErrContended
}

func (s *CodeStore) Delete(ctx context.Context, purpose models.Purpose, email string) error {
	return s.del(ctx, s.key(models.CodeKey(purpose, email)))
}

func (s *CodeStore) del(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// StartCooldown opens a resend cooldown for email. It returns false when
// one is already running.
func (s *CodeStore) StartCooldown(ctx context.Context, purpose models.Purpose, email string, d time.Duration) (bool, error) {
	ok, err := s.redis.SetNX(ctx, s.key(models.CooldownKey(purpose, email)), 1, d).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return ok, nil
}

// Close releases the client.
func (s *CodeStore) Close() error {
	return s.redis.Close()
}
