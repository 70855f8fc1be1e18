package crypt

import (
	"context"
	"fmt"

	"github.com/awnumar/memguard"
	"github.com/rbaliyan/config/codec"
)

// Codec wraps an inner codec with shared-secret encryption.
// On Encode, the inner codec serializes the value, then the result is encrypted
// and returned as the hex blob. On Decode, the blob is decrypted, then the inner
// codec deserializes the plaintext.
//
// Codec is safe for concurrent use if the SecretSource and inner codec are.
type Codec struct {
	inner  codec.Codec
	source SecretSource
	cipher *Cipher
	name   string
}

// Compile-time interface check.
var _ codec.Codec = (*Codec)(nil)

// NewCodec creates an encrypting codec that wraps the given inner codec.
// The codec name is "aescbc:<inner>", e.g. "aescbc:json". Options configure the
// underlying Cipher.
// Returns an error if inner or source is nil.
func NewCodec(inner codec.Codec, source SecretSource, opts ...Option) (*Codec, error) {
	if inner == nil {
		return nil, fmt.Errorf("crypt: NewCodec inner codec is nil")
	}
	if source == nil {
		return nil, fmt.Errorf("crypt: NewCodec secret source is nil")
	}
	c, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return &Codec{
		inner:  inner,
		source: source,
		cipher: c,
		name:   "aescbc:" + inner.Name(),
	}, nil
}

// Name returns the codec name, e.g. "aescbc:json".
func (c *Codec) Name() string {
	return c.name
}

// Encode serializes the value using the inner codec, then encrypts the result.
func (c *Codec) Encode(ctx context.Context, v any) ([]byte, error) {
	plaintext, err := c.inner.Encode(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("crypt: inner encode failed: %w", err)
	}

	secret, err := c.source.Secret()
	if err != nil {
		return nil, fmt.Errorf("crypt: failed to get secret: %w", err)
	}

	blob, err := c.cipher.EncryptBytes(ctx, plaintext, secret)
	memguard.WipeBytes(plaintext)
	if err != nil {
		return nil, err
	}
	return []byte(blob), nil
}

// Decode decrypts the data, then deserializes the plaintext using the inner codec.
func (c *Codec) Decode(ctx context.Context, data []byte, v any) error {
	secret, err := c.source.Secret()
	if err != nil {
		return fmt.Errorf("crypt: failed to get secret: %w", err)
	}

	plaintext, err := c.cipher.DecryptBytes(ctx, string(data), secret)
	if err != nil {
		return fmt.Errorf("crypt: decrypt failed: %w", err)
	}
	defer memguard.WipeBytes(plaintext)

	if err := c.inner.Decode(ctx, plaintext, v); err != nil {
		return fmt.Errorf("crypt: inner decode failed: %w", err)
	}
	return nil
}
