package storage

import (
	"context"
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/hilmarvdveen/hilmar-cv/internal/platform/config"
)

// Signer signs V4 URL payloads on behalf of a service account.
type Signer interface {
	// Email is used as the GoogleAccessID.
	Email() string
	SignBytes(ctx context.Context, payload []byte) ([]byte, error)
}

// KeySigner signs with a service account RSA private key held in memory.
type KeySigner struct {
	email string
	key   *rsa.PrivateKey
}

// NewKeySigner parses a PEM encoded PKCS#8 or PKCS#1 key. Escaped "\n" sequences, as found
// in env vars and secret payloads, are accepted.
func NewKeySigner(email, privateKeyPEM string) (*KeySigner, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, errors.New("storage: signer email is required")
	}
	key, err := parseRSAPrivateKey(strings.ReplaceAll(strings.TrimSpace(privateKeyPEM), `\n`, "\n"))
	if err != nil {
		return nil, err
	}
	return &KeySigner{email: email, key: key}, nil
}

// NewKeySignerFromJSON reads client_email and private_key from a service account key file.
func NewKeySignerFromJSON(data []byte) (*KeySigner, error) {
	var key struct {
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
	}
	if err := json.Unmarshal(data, &key); err != nil {
		return nil, fmt.Errorf("storage: decode service account json: %w", err)
	}
	return NewKeySigner(key.ClientEmail, key.PrivateKey)
}

// NewKeySignerFromConfig builds the signer from a service account key file when one is
// configured, otherwise from the separate email and private key.
func NewKeySignerFromConfig(cfg config.StorageConfig) (*KeySigner, error) {
	if raw := strings.TrimSpace(cfg.SignerCredentialsJSON); raw != "" {
		return NewKeySignerFromJSON([]byte(raw))
	}
	return NewKeySigner(cfg.SignerEmail, cfg.SignerPrivateKey)
}

// Email returns the service account email.
func (s *KeySigner) Email() string {
	if s == nil {
		return ""
	}
	return s.email
}

// SignBytes applies RSA SHA256 over payload.
func (s *KeySigner) SignBytes(ctx context.Context, payload []byte) ([]byte, error) {
	if s == nil || s.key == nil {
		return nil, errors.New("storage: signer not initialised")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("storage: sign payload: %w", err)
	}
	return sig, nil
}

func parseRSAPrivateKey(pemData string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("storage: failed to decode PEM private key")
	}
	if key, err := x509.ParsePKCS8PrivateKey(block.Bytes); err == nil {
		rsaKey, ok := key.(*rsa.PrivateKey)
		if !ok {
			return nil, errors.New("storage: private key is not RSA")
		}
		return rsaKey, nil
	}
	rsaKey, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("storage: parse RSA private key: %w", err)
	}
	return rsaKey, nil
}
