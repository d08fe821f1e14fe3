package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/Goofygiraffe06/otpgate/internal/logging"
)

// SigningKey signs and verifies session tokens.
type SigningKey struct {
	PrivateKey ed25519.PrivateKey
	PublicKey  ed25519.PublicKey
}

var (
	keyMu      sync.RWMutex
	signingKey *SigningKey
)

var ErrNotEd25519 = errors.New("auth: key is not Ed25519")

// InitSigningKey installs a fresh random key unless one is already set.
// Tokens signed with it do not survive a restart; use LoadSigningKey for
// that.
func InitSigningKey() {
	keyMu.Lock()
	defer keyMu.Unlock()
	if signingKey != nil {
		return
	}

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic("auth: generate Ed25519 key: " + err.Error())
	}
	signingKey = &SigningKey{PrivateKey: priv, PublicKey: pub}
	logging.InfoLog("Session signing key generated (ephemeral)")
}

// LoadSigningKey reads a PEM encoded PKCS#8 Ed25519 private key and makes
// it the process key.
func LoadSigningKey(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read signing key: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return fmt.Errorf("signing key %s: no PEM block", path)
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return fmt.Errorf("parse signing key: %w", err)
	}
	priv, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return ErrNotEd25519
	}

	keyMu.Lock()
	signingKey = &SigningKey{PrivateKey: priv, PublicKey: priv.Public().(ed25519.PublicKey)}
	keyMu.Unlock()
	logging.InfoLog("Session signing key loaded from %s", path)
	return nil
}

// GetSigningKey returns the process key, or nil before initialisation.
func GetSigningKey() *SigningKey {
	keyMu.RLock()
	defer keyMu.RUnlock()
	return signingKey
}
