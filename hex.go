package crypt

import (
	"encoding/hex"
	"fmt"
	"unicode/utf16"
)

// BytesToHex encodes b as lowercase hexadecimal, two zero-padded characters per byte.
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// HexToBytes decodes an even-length hexadecimal string.
// Odd lengths and non-hex characters return ErrInvalidFormat.
func HexToBytes(h string) ([]byte, error) {
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	return b, nil
}

// HexToBytesLenient decodes h the way blobs written by older clients were read:
// it never fails. h is walked in UTF-16 code units, two per output byte, so the
// result has len(utf16.Encode([]rune(h)))/2 bytes and a trailing odd unit is
// dropped. Each chunk is parsed as a base-16 integer prefix (leading white space,
// an optional sign and an optional 0x are accepted) and reduced modulo 256; a
// chunk without any hex digit decodes to 0.
func HexToBytesLenient(h string) []byte {
	return decodeUnitsLenient(utf16.Encode([]rune(h)))
}

func decodeUnitsLenient(units []uint16) []byte {
	out := make([]byte, len(units)/2)
	for i := range out {
		out[i] = parseHexChunk(units[2*i : 2*i+2])
	}
	return out
}

func parseHexChunk(s []uint16) byte {
	for len(s) > 0 && isSpaceUnit(s[0]) {
		s = s[1:]
	}

	neg := false
	if len(s) > 0 && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}

	var v int
	for _, u := range s {
		d, ok := hexDigit(u)
		if !ok {
			break
		}
		v = v*16 + int(d)
	}
	if neg {
		v = -v
	}
	return byte(v)
}

// isSpaceUnit reports whether u is an ECMAScript white space or line terminator.
func isSpaceUnit(u uint16) bool {
	switch u {
	case '\t', '\n', '\v', '\f', '\r', ' ', 0x00a0, 0x1680, 0x2028, 0x2029, 0x202f, 0x205f, 0x3000, 0xfeff:
		return true
	}
	return 0x2000 <= u && u <= 0x200a
}

func hexDigit(u uint16) (byte, bool) {
	switch {
	case '0' <= u && u <= '9':
		return byte(u - '0'), true
	case 'a' <= u && u <= 'f':
		return byte(u-'a') + 10, true
	case 'A' <= u && u <= 'F':
		return byte(u-'A') + 10, true
	}
	return 0, false
}
