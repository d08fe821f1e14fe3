package mailer

import (
	"bytes"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"

	"github.com/emersion/go-msgauth/dkim"
)

// signedHeaders are covered by the DKIM signature.
var signedHeaders = []string{"From", "To", "Subject", "Date", "Message-ID", "MIME-Version", "Content-Type"}

// Signer adds a DKIM-Signature header for one domain and selector.
type Signer struct {
	domain   string
	selector string
	key      crypto.Signer
}

// NewSigner signs as selector._domainkey.domain with key (RSA or Ed25519).
func NewSigner(domain, selector string, key crypto.Signer) *Signer {
	return &Signer{domain: domain, selector: selector, key: key}
}

// LoadSigner reads a PEM private key (PKCS#8 or PKCS#1) from path.
func LoadSigner(path, domain, selector string) (*Signer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("dkim: no PEM block in key file")
	}

	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		signer, ok := key.(crypto.Signer)
		if !ok {
			return nil, fmt.Errorf("dkim: unsupported key type %T", key)
		}
		return NewSigner(domain, selector, signer), nil
	}
	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("dkim: parse key: %w", err)
	}
	return NewSigner(domain, selector, key), nil
}

// Sign returns msg with a DKIM-Signature header prepended.
func (s *Signer) Sign(msg []byte) ([]byte, error) {
	var out bytes.Buffer
	opts := &dkim.SignOptions{
		Domain:                 s.domain,
		Selector:               s.selector,
		Signer:                 s.key,
		HeaderCanonicalization: dkim.CanonicalizationRelaxed,
		BodyCanonicalization:   dkim.CanonicalizationRelaxed,
		HeaderKeys:             signedHeaders,
	}
	if err := dkim.Sign(&out, bytes.NewReader(msg), opts); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
