package crypt

import (
	"fmt"
	"strings"
	"unicode/utf16"
)

// Blob layout constants.
const (
	// keySize is the derived key size in bytes (AES-128).
	keySize = 16

	// blockSize is the AES block size in bytes.
	blockSize = 16

	// ivSize is the CBC initialization vector size in bytes.
	ivSize = blockSize

	// ivHexLen is the number of hex characters the IV occupies at the front of a blob.
	ivHexLen = 2 * ivSize
)

// blob is a parsed encrypted payload.
type blob struct {
	iv         []byte // 16 bytes
	ciphertext []byte // whole AES blocks
}

// formatBlob renders the wire form: hex(iv) immediately followed by hex(ciphertext).
func formatBlob(iv, ciphertext []byte) string {
	var sb strings.Builder
	sb.Grow(2 * (len(iv) + len(ciphertext)))
	sb.WriteString(BytesToHex(iv))
	sb.WriteString(BytesToHex(ciphertext))
	return sb.String()
}

// parseBlob splits s into IV and ciphertext. With lenient set, s is measured and
// split in UTF-16 code units and decoded with the lenient hex rules, so hex
// characters are never rejected.
func parseBlob(s string, lenient bool) (*blob, error) {
	var iv, ciphertext []byte
	if lenient {
		units := utf16.Encode([]rune(s))
		if len(units) < ivHexLen {
			return nil, fmt.Errorf("%w: data too short, got %d hex characters", ErrInvalidFormat, len(units))
		}
		iv = decodeUnitsLenient(units[:ivHexLen])
		ciphertext = decodeUnitsLenient(units[ivHexLen:])
	} else {
		if len(s) < ivHexLen {
			return nil, fmt.Errorf("%w: data too short, got %d hex characters", ErrInvalidFormat, len(s))
		}
		var err error
		if iv, err = HexToBytes(s[:ivHexLen]); err != nil {
			return nil, fmt.Errorf("%w: IV is not hex", ErrInvalidFormat)
		}
		if ciphertext, err = HexToBytes(s[ivHexLen:]); err != nil {
			return nil, fmt.Errorf("%w: ciphertext is not hex or has odd length", ErrInvalidFormat)
		}
	}

	if len(ciphertext) == 0 || len(ciphertext)%blockSize != 0 {
		return nil, fmt.Errorf("%w: ciphertext is %d bytes, not a positive multiple of %d",
			ErrInvalidFormat, len(ciphertext), blockSize)
	}

	return &blob{iv: iv, ciphertext: ciphertext}, nil
}
