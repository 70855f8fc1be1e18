package crypt

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/awnumar/memguard"
)

// Encrypt encrypts text with the key derived from secret and returns
// hex(IV) + hex(ciphertext). Text that is not valid UTF-8 is rejected with
// ErrInvalidText.
func (c *Cipher) Encrypt(ctx context.Context, text, secret string) (string, error) {
	return c.encrypt(ctx, opEncrypt, []byte(text), secret, true)
}

// EncryptBytes is Encrypt for arbitrary binary plaintext.
func (c *Cipher) EncryptBytes(ctx context.Context, plaintext []byte, secret string) (string, error) {
	return c.encrypt(ctx, opEncryptBytes, plaintext, secret, false)
}

func (c *Cipher) encrypt(ctx context.Context, op string, plaintext []byte, secret string, text bool) (_ string, err error) {
	ctx, end := c.tel.start(ctx, op, len(plaintext))
	defer func() { end(err) }()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if text && !utf8.Valid(plaintext) {
		return "", fmt.Errorf("%w: plaintext", ErrInvalidText)
	}

	key, err := c.DeriveKey(secret)
	if err != nil {
		return "", err
	}
	defer memguard.WipeBytes(key)

	// Fresh IV per call; never derived from the key.
	iv, err := c.prims.RandomBytes(ivSize)
	if err != nil {
		return "", fmt.Errorf("crypt: failed to generate IV: %w", err)
	}
	if len(iv) != ivSize {
		return "", fmt.Errorf("crypt: random source returned %d bytes, want %d", len(iv), ivSize)
	}

	ciphertext, err := c.prims.EncryptCBC(key, iv, plaintext)
	if err != nil {
		return "", fmt.Errorf("crypt: encrypt failed: %w", err)
	}

	return formatBlob(iv, ciphertext), nil
}
