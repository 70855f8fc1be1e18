package crypt

import (
	"fmt"

	"github.com/awnumar/memguard"
)

// DeriveKey returns the 16-byte AES key for secret: the first 16 bytes of the
// SHA-256 digest of its UTF-8 encoding. The same secret always yields the same key.
func DeriveKey(secret string) ([]byte, error) {
	c, err := defaultCipher()
	if err != nil {
		return nil, err
	}
	return c.DeriveKey(secret)
}

// DeriveKey returns the 16-byte AES key for secret using the Cipher's primitives.
// A digest failure is logged and returned as is.
func (c *Cipher) DeriveKey(secret string) ([]byte, error) {
	data := []byte(secret)
	defer memguard.WipeBytes(data)

	sum, err := c.prims.Digest(data)
	if err != nil {
		c.logger.Error().Err(err).Msg("failed to derive AES key")
		return nil, err
	}
	defer memguard.WipeBytes(sum)

	if len(sum) < keySize {
		return nil, fmt.Errorf("%w: digest is only %d bytes", ErrInvalidKeySize, len(sum))
	}

	key := make([]byte, keySize)
	copy(key, sum[:keySize])
	return key, nil
}
