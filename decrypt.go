package crypt

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/awnumar/memguard"
)

// Decrypt decrypts a blob produced by Encrypt using the key derived from secret.
// Malformed blobs return ErrInvalidFormat, a wrong secret or tampered data
// returns ErrDecryptionFailed, and a plaintext that is not UTF-8 returns ErrInvalidText.
func (c *Cipher) Decrypt(ctx context.Context, blob, secret string) (string, error) {
	plaintext, err := c.decrypt(ctx, opDecrypt, blob, secret, true)
	if err != nil {
		return "", err
	}
	text := string(plaintext)
	memguard.WipeBytes(plaintext)
	return text, nil
}

// DecryptBytes is Decrypt for arbitrary binary plaintext.
func (c *Cipher) DecryptBytes(ctx context.Context, blob, secret string) ([]byte, error) {
	return c.decrypt(ctx, opDecryptBytes, blob, secret, false)
}

func (c *Cipher) decrypt(ctx context.Context, op, data, secret string, text bool) (_ []byte, err error) {
	ctx, end := c.tel.start(ctx, op, len(data))
	defer func() { end(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := c.DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(key)

	b, err := parseBlob(data, c.lenient)
	if err != nil {
		return nil, err
	}

	plaintext, err := c.prims.DecryptCBC(key, b.iv, b.ciphertext)
	if err != nil {
		if IsInvalidFormat(err) || IsInvalidKeySize(err) || IsDecryptionFailed(err) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrDecryptionFailed, err)
	}

	if text && !utf8.Valid(plaintext) {
		memguard.WipeBytes(plaintext)
		return nil, fmt.Errorf("%w: decrypted data", ErrInvalidText)
	}

	return plaintext, nil
}
