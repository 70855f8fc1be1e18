package crypt

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const testSecret = "shared-secret-key"

// testIV is the IV used for the known-answer vectors below.
var testIV = []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f}

// repeatReader yields its pattern over and over.
type repeatReader struct {
	pattern []byte
	off     int
}

func (r *repeatReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.pattern[r.off%len(r.pattern)]
		r.off++
	}
	return len(p), nil
}

func testCipher(t testing.TB, opts ...Option) *Cipher {
	t.Helper()
	base := []Option{
		WithLogger(zerolog.Nop()),
		WithTracerProvider(tracenoop.NewTracerProvider()),
		WithMeterProvider(metricnoop.NewMeterProvider()),
	}
	c, err := New(append(base, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// fixedIVCipher returns a Cipher whose IVs are always testIV.
func fixedIVCipher(t testing.TB, opts ...Option) *Cipher {
	t.Helper()
	prims := StdPrimitives{Rand: &repeatReader{pattern: testIV}}
	return testCipher(t, append([]Option{WithPrimitives(prims)}, opts...)...)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	c := testCipher(t)
	ctx := context.Background()

	tests := []struct {
		name string
		text string
	}{
		{"simple", "hello"},
		{"empty", ""},
		{"one block", "0123456789abcdef"},
		{"unicode", "héllo wörld ✓ こんにちは"},
		{"json", `{"key":"value","num":42}`},
		{"long", strings.Repeat("Lorem ipsum dolor sit amet. ", 200)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			blob, err := c.Encrypt(ctx, tc.text, testSecret)
			if err != nil {
				t.Fatalf("Encrypt: %v", err)
			}
			got, err := c.Decrypt(ctx, blob, testSecret)
			if err != nil {
				t.Fatalf("Decrypt: %v", err)
			}
			if got != tc.text {
				t.Errorf("Decrypt: got %q, want %q", got, tc.text)
			}
		})
	}
}

func TestEncryptBlobShape(t *testing.T) {
	c := testCipher(t)

	for _, text := range []string{"", "hello", "0123456789abcdef", "0123456789abcdef0"} {
		blob, err := c.Encrypt(context.Background(), text, testSecret)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", text, err)
		}
		// IV + PKCS#7 padded ciphertext, both hex.
		want := ivHexLen + 2*(len(text)/blockSize+1)*blockSize
		if len(blob) != want {
			t.Errorf("Encrypt(%q): blob length %d, want %d", text, len(blob), want)
		}
		if blob != strings.ToLower(blob) {
			t.Errorf("Encrypt(%q): blob is not lowercase: %q", text, blob)
		}
		if _, err := HexToBytes(blob); err != nil {
			t.Errorf("Encrypt(%q): blob is not hex: %v", text, err)
		}
	}
}

func TestEncryptKnownAnswer(t *testing.T) {
	c := fixedIVCipher(t)
	iv := "000102030405060708090a0b0c0d0e0f"

	tests := []struct {
		text   string
		secret string
		want   string
	}{
		{"hello", testSecret, iv + "076940909e618f94b229bb3af7a9bdb4"},
		{"0123456789abcdef", testSecret, iv + "c505b7893f102b504faad8b8c5ccec23e20045aff29d1fa3f3b43874245ae1fa"},
		{"héllo wörld ✓", testSecret, iv + "ffc6fa00db7c2e481a9e8a8639bdafb486bffdf5838bcf3c8e7adb112fde4d09"},
		{"", "k", iv + "a97be55f325801c10189756e967a1834"},
		{"hello", "k", iv + "4fa49651bc2d34bba100d497a8bd42db"},
	}

	for _, tc := range tests {
		got, err := c.Encrypt(context.Background(), tc.text, tc.secret)
		if err != nil {
			t.Fatalf("Encrypt(%q): %v", tc.text, err)
		}
		if got != tc.want {
			t.Errorf("Encrypt(%q, %q):\n got %s\nwant %s", tc.text, tc.secret, got, tc.want)
		}
	}
}

func TestDecryptKnownAnswer(t *testing.T) {
	// Blobs of this shape are what existing clients have stored.
	got, err := testCipher(t).Decrypt(context.Background(),
		"000102030405060708090a0b0c0d0e0f076940909e618f94b229bb3af7a9bdb4", testSecret)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != "hello" {
		t.Errorf("Decrypt: got %q, want %q", got, "hello")
	}
}

func TestEncryptDifferentEncryptionsSameInput(t *testing.T) {
	c := testCipher(t)
	ctx := context.Background()

	blob1, err := c.Encrypt(ctx, "hello", testSecret)
	if err != nil {
		t.Fatal(err)
	}
	blob2, err := c.Encrypt(ctx, "hello", testSecret)
	if err != nil {
		t.Fatal(err)
	}

	if blob1[:ivHexLen] == blob2[:ivHexLen] {
		t.Error("two encryptions used the same IV")
	}
	if blob1 == blob2 {
		t.Error("two encryptions of same input produced identical output")
	}

	for _, blob := range []string{blob1, blob2} {
		got, err := c.Decrypt(ctx, blob, testSecret)
		if err != nil {
			t.Fatal(err)
		}
		if got != "hello" {
			t.Errorf("got %q, want %q", got, "hello")
		}
	}
}

func TestDecryptWrongSecret(t *testing.T) {
	c := fixedIVCipher(t)
	ctx := context.Background()

	blob, err := c.Encrypt(ctx, "hello", testSecret)
	if err != nil {
		t.Fatal(err)
	}

	// With this IV the wrong key leaves an invalid padding byte.
	_, err = c.Decrypt(ctx, blob, "other-secret")
	if !IsDecryptionFailed(err) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestDecryptWrongSecretRandomIV(t *testing.T) {
	c := testCipher(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		blob, err := c.Encrypt(ctx, "hello", "secret-one")
		if err != nil {
			t.Fatal(err)
		}
		got, err := c.Decrypt(ctx, blob, "secret-two")
		if err == nil {
			t.Fatalf("Decrypt with wrong secret returned %q, want error", got)
		}
	}
}

func TestDecryptTooShort(t *testing.T) {
	c := testCipher(t)

	for _, blob := range []string{"", "00", strings.Repeat("a", ivHexLen-1)} {
		_, err := c.Decrypt(context.Background(), blob, testSecret)
		if !IsInvalidFormat(err) {
			t.Errorf("Decrypt(%q): expected ErrInvalidFormat, got %v", blob, err)
		}
	}
}

func TestDecryptMissingCiphertext(t *testing.T) {
	_, err := testCipher(t).Decrypt(context.Background(), "000102030405060708090a0b0c0d0e0f", testSecret)
	if !IsInvalidFormat(err) {
		t.Errorf("expected ErrInvalidFormat for IV-only blob, got %v", err)
	}
}

func TestDecryptPartialBlock(t *testing.T) {
	blob := "000102030405060708090a0b0c0d0e0f076940909e618f94b229bb3af7a9bd"
	_, err := testCipher(t).Decrypt(context.Background(), blob, testSecret)
	if !IsInvalidFormat(err) {
		t.Errorf("expected ErrInvalidFormat for truncated block, got %v", err)
	}
}

func TestDecryptInvalidHex(t *testing.T) {
	c := testCipher(t)

	tests := []string{
		"zz0102030405060708090a0b0c0d0e0f076940909e618f94b229bb3af7a9bdb4",
		"000102030405060708090a0b0c0d0e0f076940909e618f94b229bb3af7a9bdbg",
		"000102030405060708090a0b0c0d0e0f076940909e618f94b229bb3af7a9bdb4a",
	}
	for _, blob := range tests {
		_, err := c.Decrypt(context.Background(), blob, testSecret)
		if !IsInvalidFormat(err) {
			t.Errorf("Decrypt(%q): expected ErrInvalidFormat, got %v", blob, err)
		}
	}
}

func TestDecryptLenientHex(t *testing.T) {
	c := testCipher(t, WithLenientHex())
	ctx := context.Background()

	// A trailing odd character is ignored.
	got, err := c.Decrypt(ctx, "000102030405060708090a0b0c0d0e0f076940909e618f94b229bb3af7a9bdb4a", testSecret)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}

	// Non-hex characters decode to garbage instead of failing the parse.
	_, err = c.Decrypt(ctx, "zz0102030405060708090a0b0c0d0e0f076940909e618f94b229bb3af7a9bdb4", testSecret)
	if IsInvalidFormat(err) {
		t.Errorf("lenient decoding rejected non-hex IV: %v", err)
	}
}

func TestDecryptTamperedData(t *testing.T) {
	c := fixedIVCipher(t)
	ctx := context.Background()

	blob, err := c.Encrypt(ctx, "hello", testSecret)
	if err != nil {
		t.Fatal(err)
	}

	// Flip the last ciphertext byte, which lands in the padding.
	raw, _ := HexToBytes(blob)
	raw[len(raw)-1] ^= 0xFF
	_, err = c.Decrypt(ctx, BytesToHex(raw), testSecret)
	if !IsDecryptionFailed(err) {
		t.Errorf("expected ErrDecryptionFailed, got %v", err)
	}
}

func TestEncryptInvalidUTF8(t *testing.T) {
	_, err := testCipher(t).Encrypt(context.Background(), "bad \xff text", testSecret)
	if !IsInvalidText(err) {
		t.Errorf("expected ErrInvalidText, got %v", err)
	}
}

func TestDecryptInvalidUTF8(t *testing.T) {
	c := testCipher(t)
	ctx := context.Background()

	blob, err := c.EncryptBytes(ctx, []byte{0xff, 0xfe, 0xfd}, testSecret)
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Decrypt(ctx, blob, testSecret)
	if !IsInvalidText(err) {
		t.Errorf("expected ErrInvalidText, got %v", err)
	}

	// The byte variant does not care.
	got, err := c.DecryptBytes(ctx, blob, testSecret)
	if err != nil {
		t.Fatalf("DecryptBytes: %v", err)
	}
	if !bytes.Equal(got, []byte{0xff, 0xfe, 0xfd}) {
		t.Errorf("DecryptBytes: got %x", got)
	}
}

func TestEncryptCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testCipher(t).Encrypt(ctx, "hello", testSecret)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDecryptCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testCipher(t).Decrypt(ctx, strings.Repeat("0", 64), testSecret)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestCipherConcurrent(t *testing.T) {
	c := testCipher(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			text := strings.Repeat("x", n)
			blob, err := c.Encrypt(ctx, text, testSecret)
			if err != nil {
				t.Errorf("Encrypt(%d): %v", n, err)
				return
			}
			got, err := c.Decrypt(ctx, blob, testSecret)
			if err != nil {
				t.Errorf("Decrypt(%d): %v", n, err)
				return
			}
			if got != text {
				t.Errorf("got %q, want %q", got, text)
			}
		}(i)
	}
	wg.Wait()
}

func TestPackageLevelRoundTrip(t *testing.T) {
	ctx := context.Background()

	blob, err := Encrypt(ctx, "hello", testSecret)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if len(blob) < ivHexLen {
		t.Fatalf("blob too short: %q", blob)
	}
	got, err := Decrypt(ctx, blob, testSecret)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}

	blob, err = Encrypt(ctx, "", "k")
	if err != nil {
		t.Fatalf("Encrypt empty: %v", err)
	}
	got, err = Decrypt(ctx, blob, "k")
	if err != nil {
		t.Fatalf("Decrypt empty: %v", err)
	}
	if got != "" {
		t.Errorf("got %q, want empty string", got)
	}
}

func TestPackageLevelDecryptEmpty(t *testing.T) {
	_, err := Decrypt(context.Background(), "", testSecret)
	if !IsInvalidFormat(err) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}
}

// capturingPrimitives records the last buffer returned by DecryptCBC.
type capturingPrimitives struct {
	StdPrimitives
	last []byte
}

func (p *capturingPrimitives) DecryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	b, err := p.StdPrimitives.DecryptCBC(key, iv, ciphertext)
	p.last = b
	return b, err
}

func TestDecryptWipesPlaintextBuffer(t *testing.T) {
	prims := &capturingPrimitives{}
	c := testCipher(t, WithPrimitives(prims))

	got, err := c.Decrypt(context.Background(),
		"000102030405060708090a0b0c0d0e0f076940909e618f94b229bb3af7a9bdb4", testSecret)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != "hello" {
		t.Fatalf("Decrypt: got %q, want %q", got, "hello")
	}
	if len(prims.last) == 0 {
		t.Fatal("DecryptCBC was not called")
	}
	if !bytes.Equal(prims.last, make([]byte, len(prims.last))) {
		t.Errorf("plaintext buffer not wiped: %x", prims.last)
	}
}
