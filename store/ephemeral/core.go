package ephemeral

import (
	"errors"
	"sync"
	"time"

	"github.com/Goofygiraffe06/otpgate/internal/logging"
	"github.com/Goofygiraffe06/otpgate/internal/utils"
)

var (
	ErrTooLong   = errors.New("key too long")
	ErrStoreFull = errors.New("ephemeral store full")
)

const (
	maxKeyLength    = 300
	maxStoreSize    = 10_000
	cleanupInterval = time.Minute
)

type item struct {
	value     string
	expiresAt time.Time
}

type coreStore struct {
	data map[string]*item
	mu   sync.Mutex
	now  func() time.Time

	stop chan struct{}
	once sync.Once
}

func newCoreStore(now func() time.Time) *coreStore {
	store := &coreStore{
		data: make(map[string]*item),
		now:  now,
		stop: make(chan struct{}),
	}

	go store.cleanup()

	logging.DebugLog("Ephemeral store initialized")
	return store
}

func (s *coreStore) checkKey(key string) error {
	if len(key) > maxKeyLength {
		logging.DebugLog("Store set failed: key too long [%s] (length: %d)", utils.HashEmail(key), len(key))
		return ErrTooLong
	}
	return nil
}

func (s *coreStore) set(key, value string, ttl time.Duration) error {
	if err := s.checkKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.setLocked(key, value, ttl)
}

func (s *coreStore) setLocked(key, value string, ttl time.Duration) error {
	if _, exists := s.data[key]; !exists && len(s.data) >= maxStoreSize {
		logging.WarnLog("Store set failed: store full (size: %d)", len(s.data))
		return ErrStoreFull
	}

	s.data[key] = &item{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}

	logging.DebugLog("Store set success [%s] ttl=%v", utils.HashEmail(key), ttl)
	return nil
}

// setNX stores value only when key is absent or expired.
func (s *coreStore) setNX(key, value string, ttl time.Duration) (bool, error) {
	if err := s.checkKey(key); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if it, ok := s.data[key]; ok && s.now().Before(it.expiresAt) {
		return false, nil
	}
	if err := s.setLocked(key, value, ttl); err != nil {
		return false, err
	}
	return true, nil
}

func (s *coreStore) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.data[key]
	if !ok {
		return "", false
	}

	if !s.now().Before(it.expiresAt) {
		delete(s.data, key)
		return "", false
	}

	return it.value, true
}

// update replaces the live value of key with fn's result under the store
// lock. A ttl <= 0 from fn removes the key. It reports whether key was live.
func (s *coreStore) update(key string, fn func(value string) (string, time.Duration, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	it, ok := s.data[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(it.expiresAt) {
		delete(s.data, key)
		return false, nil
	}

	value, ttl, err := fn(it.value)
	if err != nil {
		return true, err
	}
	if ttl <= 0 {
		delete(s.data, key)
		logging.DebugLog("Store update removed [%s]", utils.HashEmail(key))
		return true, nil
	}
	it.value = value
	it.expiresAt = s.now().Add(ttl)
	return true, nil
}

func (s *coreStore) delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, existed := s.data[key]
	delete(s.data, key)

	if existed {
		logging.DebugLog("Store delete success [%s]", utils.HashEmail(key))
	}
}

func (s *coreStore) sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	expired := 0
	for k, v := range s.data {
		if !now.Before(v.expiresAt) {
			delete(s.data, k)
			expired++
		}
	}
	return expired
}

func (s *coreStore) cleanup() {
	logging.DebugLog("Store cleanup goroutine started")
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				logging.InfoLog("Store cleanup: removed %d expired items", n)
			}
		}
	}
}

func (s *coreStore) close() {
	s.once.Do(func() { close(s.stop) })
}
