package crypt

import "errors"

var (
	// ErrInvalidFormat is returned when an encrypted blob is malformed: too short,
	// not hexadecimal, or carrying a ciphertext that is not whole AES blocks.
	ErrInvalidFormat = errors.New("crypt: invalid encrypted data format")

	// ErrDecryptionFailed is returned when the cipher rejects the data (wrong secret, tampered data).
	ErrDecryptionFailed = errors.New("crypt: decryption failed")

	// ErrInvalidKeySize is returned when a key or IV does not have the required 16 bytes.
	ErrInvalidKeySize = errors.New("crypt: invalid key size, must be 16 bytes")

	// ErrInvalidText is returned when plaintext is not valid UTF-8.
	ErrInvalidText = errors.New("crypt: text is not valid UTF-8")

	// ErrInvalidSecret is returned when a secret source is given an empty secret.
	ErrInvalidSecret = errors.New("crypt: invalid secret")
)

// IsInvalidFormat returns true if the error is or wraps ErrInvalidFormat.
func IsInvalidFormat(err error) bool {
	return errors.Is(err, ErrInvalidFormat)
}

// IsDecryptionFailed returns true if the error is or wraps ErrDecryptionFailed.
func IsDecryptionFailed(err error) bool {
	return errors.Is(err, ErrDecryptionFailed)
}

// IsInvalidKeySize returns true if the error is or wraps ErrInvalidKeySize.
func IsInvalidKeySize(err error) bool {
	return errors.Is(err, ErrInvalidKeySize)
}

// IsInvalidText returns true if the error is or wraps ErrInvalidText.
func IsInvalidText(err error) bool {
	return errors.Is(err, ErrInvalidText)
}

// IsInvalidSecret returns true if the error is or wraps ErrInvalidSecret.
func IsInvalidSecret(err error) bool {
	return errors.Is(err, ErrInvalidSecret)
}
