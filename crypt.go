// Package crypt encrypts text with a shared secret using AES-128-CBC.
//
// The AES key is the first 16 bytes of the SHA-256 digest of the secret. Every
// encryption uses a fresh random IV, and the result is transported as lowercase
// hexadecimal: hex(IV) followed by hex(ciphertext).
//
// Usage:
//
//	blob, err := crypt.Encrypt(ctx, "hello", "shared-secret-key")
//	text, err := crypt.Decrypt(ctx, blob, "shared-secret-key")
//
// The scheme is unauthenticated and is kept for compatibility with existing blobs.
package crypt

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Cipher performs the encrypt and decrypt operations. The zero value is not
// usable; create one with New.
//
// Cipher holds no per-call state and is safe for concurrent use.
type Cipher struct {
	prims   Primitives
	logger  zerolog.Logger
	lenient bool
	tel     *telemetry
}

// Option configures a Cipher.
type Option func(*options)

type options struct {
	prims          Primitives
	logger         *zerolog.Logger
	lenient        bool
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// WithPrimitives replaces the hash, random source and AES-CBC implementation.
func WithPrimitives(p Primitives) Option {
	return func(o *options) { o.prims = p }
}

// WithLogger sets the logger used to report key derivation failures.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// WithLenientHex makes Decrypt accept malformed hexadecimal the way older
// clients did, decoding it with HexToBytesLenient instead of rejecting it.
func WithLenientHex() Option {
	return func(o *options) { o.lenient = true }
}

// WithTracerProvider sets the OpenTelemetry tracer provider (default: global).
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tracerProvider = tp }
}

// WithMeterProvider sets the OpenTelemetry meter provider (default: global).
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.meterProvider = mp }
}

// New creates a Cipher. Without options it uses StdPrimitives, the global
// zerolog logger and the global OpenTelemetry providers.
func New(opts ...Option) (*Cipher, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.prims == nil {
		o.prims = StdPrimitives{}
	}
	if o.logger == nil {
		l := log.Logger.With().Str("component", "crypt").Logger()
		o.logger = &l
	}
	if o.tracerProvider == nil {
		o.tracerProvider = otel.GetTracerProvider()
	}
	if o.meterProvider == nil {
		o.meterProvider = otel.GetMeterProvider()
	}

	tel, err := newTelemetry(o.tracerProvider, o.meterProvider)
	if err != nil {
		return nil, err
	}

	return &Cipher{
		prims:   o.prims,
		logger:  *o.logger,
		lenient: o.lenient,
		tel:     tel,
	}, nil
}

var defaultCipher = sync.OnceValues(func() (*Cipher, error) {
	return New()
})

// Encrypt encrypts text with the key derived from secret and returns
// hex(IV) + hex(ciphertext). Each call uses a new random IV.
func Encrypt(ctx context.Context, text, secret string) (string, error) {
	c, err := defaultCipher()
	if err != nil {
		return "", err
	}
	return c.Encrypt(ctx, text, secret)
}

// Decrypt reverses Encrypt given the same secret.
func Decrypt(ctx context.Context, blob, secret string) (string, error) {
	c, err := defaultCipher()
	if err != nil {
		return "", err
	}
	return c.Decrypt(ctx, blob, secret)
}
