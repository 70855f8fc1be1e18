package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"io"

	"github.com/awnumar/memguard"
)

// Primitives is the cryptographic capability a Cipher is built on.
// Implementations must be safe for concurrent use.
type Primitives interface {
	// Digest returns the SHA-256 digest of data.
	Digest(data []byte) ([]byte, error)

	// RandomBytes returns n bytes from a cryptographically secure source.
	RandomBytes(n int) ([]byte, error)

	// EncryptCBC pads plaintext with PKCS#7 and encrypts it with AES-CBC.
	EncryptCBC(key, iv, plaintext []byte) ([]byte, error)

	// DecryptCBC decrypts AES-CBC ciphertext and strips PKCS#7 padding.
	DecryptCBC(key, iv, ciphertext []byte) ([]byte, error)
}

// StdPrimitives implements Primitives with the Go standard crypto packages.
type StdPrimitives struct {
	// Rand overrides the random source. Nil means crypto/rand.Reader.
	Rand io.Reader
}

// Compile-time interface check.
var _ Primitives = StdPrimitives{}

// Digest returns the SHA-256 digest of data.
func (StdPrimitives) Digest(data []byte) ([]byte, error) {
	sum := sha256.Sum256(data)
	return sum[:], nil
}

// RandomBytes reads n bytes from the configured random source.
func (p StdPrimitives) RandomBytes(n int) ([]byte, error) {
	r := p.Rand
	if r == nil {
		r = rand.Reader
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}

// EncryptCBC pads plaintext with PKCS#7 and encrypts it with AES-CBC.
func (StdPrimitives) EncryptCBC(key, iv, plaintext []byte) ([]byte, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}

	padded := pkcs7Pad(plaintext, blockSize)
	defer memguard.WipeBytes(padded)

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

// DecryptCBC decrypts AES-CBC ciphertext and strips PKCS#7 padding.
func (StdPrimitives) DecryptCBC(key, iv, ciphertext []byte) ([]byte, error) {
	block, err := newBlock(key, iv)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) == 0 || len(ciphertext)%blockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is not a multiple of the block size", ErrInvalidFormat)
	}

	plaintext := make([]byte, len(ciphertext))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ciphertext)

	n, ok := pkcs7Unpad(plaintext, blockSize)
	if !ok {
		memguard.WipeBytes(plaintext)
		return nil, fmt.Errorf("%w: bad padding", ErrDecryptionFailed)
	}
	return plaintext[:n], nil
}

func newBlock(key, iv []byte) (cipher.Block, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidKeySize, len(key))
	}
	if len(iv) != ivSize {
		return nil, fmt.Errorf("%w: IV must be %d bytes, got %d", ErrInvalidFormat, ivSize, len(iv))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypt: failed to create AES cipher: %w", err)
	}
	return block, nil
}

// pkcs7Pad returns a copy of data padded to a multiple of size. A full block of
// padding is added when data is already aligned.
func pkcs7Pad(data []byte, size int) []byte {
	padding := size - len(data)%size
	out := make([]byte, len(data)+padding)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(padding)
	}
	return out
}

// pkcs7Unpad returns the unpadded length of data. The padding bytes are checked
// without branching on their values.
func pkcs7Unpad(data []byte, size int) (int, bool) {
	if len(data) == 0 || len(data)%size != 0 {
		return 0, false
	}
	padding := int(data[len(data)-1])

	good := subtle.ConstantTimeLessOrEq(1, padding) & subtle.ConstantTimeLessOrEq(padding, size)
	start := subtle.ConstantTimeSelect(good, size-padding, 0)
	tail := data[len(data)-size:]
	for i := 0; i < size; i++ {
		inPad := subtle.ConstantTimeLessOrEq(start, i)
		match := subtle.ConstantTimeByteEq(tail[i], byte(padding))
		// Bytes outside the padding window always pass.
		good &= subtle.ConstantTimeSelect(inPad, match, 1)
	}
	if good != 1 {
		return 0, false
	}
	return len(data) - padding, true
}
