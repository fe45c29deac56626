package adaptive

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// CipherType identifies the cipher algorithm.
type CipherType string

const (
	CipherAESGCM   CipherType = "aes-gcm"
	CipherChaCha20 CipherType = "chacha20-poly1305"
)

var (
	ErrUnknownCipher   = errors.New("adaptive: unknown cipher type")
	ErrInvalidKeySize  = errors.New("adaptive: invalid key size")
	ErrCiphertextShort = errors.New("adaptive: ciphertext too short")
)

// Cipher provides authenticated encryption.
type Cipher interface {
	// Type returns the cipher type.
	Type() CipherType

	// Encrypt seals plaintext, authenticating additionalData alongside it.
	Encrypt(plaintext, additionalData []byte) ([]byte, error)

	// Decrypt opens ciphertext produced by Encrypt with the same additionalData.
	Decrypt(ciphertext, additionalData []byte) ([]byte, error)

	// NonceSize returns the nonce size in bytes.
	NonceSize() int

	// Overhead returns the authentication tag size in bytes.
	Overhead() int
}

// ParseCipherType maps a configuration value to a CipherType. The empty
// string selects the platform default.
func ParseCipherType(s string) (CipherType, error) {
	switch CipherType(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultType(), nil
	case CipherAESGCM:
		return CipherAESGCM, nil
	case CipherChaCha20, "chacha20":
		return CipherChaCha20, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCipher, s)
	}
}

// DefaultType returns the algorithm New picks on this platform.
func DefaultType() CipherType {
	if hasAESNI() {
		return CipherAESGCM
	}
	return CipherChaCha20
}

// New creates a cipher using the platform default algorithm.
func New(key []byte) (Cipher, error) {
	return NewWithType(key, DefaultType())
}

// NewWithType creates a cipher of the specified type.
func NewWithType(key []byte, cipherType CipherType) (Cipher, error) {
	switch cipherType {
	case CipherAESGCM:
		return NewAESGCM(key)
	case CipherChaCha20:
		return NewChaCha20(key)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCipher, cipherType)
	}
}

// hasAESNI reports whether crypto/aes is hardware accelerated here.
// Go uses AES-NI on amd64 and the ARMv8 crypto extensions on arm64.
func hasAESNI() bool {
	switch runtime.GOARCH {
	case "amd64", "arm64":
		return true
	default:
		return false
	}
}
