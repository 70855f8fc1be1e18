package crypt

import (
	"fmt"

	"github.com/awnumar/memguard"
)

// SecretSource supplies the shared secret used for encryption and decryption.
// Implementations must be safe for concurrent use.
type SecretSource interface {
	// Secret returns the shared secret.
	Secret() (string, error)
}

// StaticSecret is a SecretSource holding one secret sealed in an encrypted
// memguard enclave. It is safe for concurrent use.
type StaticSecret struct {
	enclave *memguard.Enclave
}

// NewStaticSecret seals secret into a StaticSecret. The secret must not be empty.
func NewStaticSecret(secret string) (*StaticSecret, error) {
	if secret == "" {
		return nil, fmt.Errorf("%w: secret must not be empty", ErrInvalidSecret)
	}
	// NewEnclave wipes its input, so hand it a private copy.
	return &StaticSecret{enclave: memguard.NewEnclave([]byte(secret))}, nil
}

// Secret opens the enclave and returns a copy of the secret.
func (s *StaticSecret) Secret() (string, error) {
	buf, err := s.enclave.Open()
	if err != nil {
		return "", fmt.Errorf("crypt: failed to open secret enclave: %w", err)
	}
	defer buf.Destroy()
	return string(buf.Bytes()), nil
}

// Compile-time interface check.
var _ SecretSource = (*StaticSecret)(nil)
