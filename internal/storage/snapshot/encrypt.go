package snapshot

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"

	"github.com/yndnr/redkv/pkg/crypto/adaptive"
)

// Encryption errors.
var (
	ErrKeyTooShort       = errors.New("snapshot: encryption key too short (minimum 16 bytes)")
	ErrPassphraseTooWeak = errors.New("snapshot: passphrase too weak (minimum 8 characters)")
	ErrDecryptionFailed  = errors.New("snapshot: decryption failed - wrong key or corrupted data")
)

const (
	MinKeyLength        = 16
	MinPassphraseLength = 8
	SaltLength          = 16

	// Argon2id cost for passphrase keys. Derivation runs once per process
	// and once per foreign salt found on load.
	argon2Time    = 3
	argon2Memory  = 64 * 1024
	argon2Threads = 4

	cipherKeyLen = 32
	subkeyInfo   = "redkv snapshot v1"
)

// EncryptionConfig configures snapshot encryption. Either Key or
// Passphrase turns it on; Passphrase wins when both are set.
type EncryptionConfig struct {
	// Key is the master key. The cipher key is derived from it with HKDF,
	// so the master key never touches a file directly.
	Key []byte

	// Passphrase derives the cipher key with Argon2id.
	Passphrase []byte

	// Salt reproduces a passphrase key, typically the salt read from a
	// snapshot header. Nil generates a fresh one.
	Salt []byte

	// Algorithm is "aes-gcm" or "chacha20-poly1305". Empty picks the
	// platform default.
	Algorithm string
}

// Enabled reports whether cfg turns encryption on.
func (cfg EncryptionConfig) Enabled() bool {
	return len(cfg.Key) > 0 || len(cfg.Passphrase) > 0
}

func (cfg EncryptionConfig) validate() error {
	switch {
	case len(cfg.Passphrase) > 0:
		if len(cfg.Passphrase) < MinPassphraseLength {
			return ErrPassphraseTooWeak
		}
	case len(cfg.Key) > 0:
		if len(cfg.Key) < MinKeyLength {
			return ErrKeyTooShort
		}
	}
	return nil
}

// NewCipherFromConfig builds the snapshot cipher. For passphrase keys it
// also returns the salt, which must be written to the snapshot header.
// A nil cipher means encryption is off.
func NewCipherFromConfig(cfg EncryptionConfig) (adaptive.Cipher, []byte, error) {
	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}
	if !cfg.Enabled() {
		return nil, nil, nil
	}

	algo, err := adaptive.ParseCipherType(cfg.Algorithm)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: %w", err)
	}

	var key, salt []byte
	if len(cfg.Passphrase) > 0 {
		salt, key, err = passphraseKey(cfg.Passphrase, cfg.Salt)
	} else {
		key, err = masterSubkey(cfg.Key)
	}
	if err != nil {
		return nil, nil, err
	}

	c, err := adaptive.NewWithType(key, algo)
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot: %w", err)
	}
	return c, salt, nil
}

// passphraseKey runs Argon2id over passphrase. A nil salt is generated.
func passphraseKey(passphrase, salt []byte) ([]byte, []byte, error) {
	if salt == nil {
		salt = make([]byte, SaltLength)
		if _, err := rand.Read(salt); err != nil {
			return nil, nil, fmt.Errorf("snapshot: generate salt: %w", err)
		}
	} else if len(salt) != SaltLength {
		return nil, nil, fmt.Errorf("snapshot: salt must be %d bytes, got %d", SaltLength, len(salt))
	}
	key := argon2.IDKey(passphrase, salt, argon2Time, argon2Memory, argon2Threads, cipherKeyLen)
	return salt, key, nil
}

// masterSubkey derives the cipher key from a master key with HKDF-SHA256.
func masterSubkey(master []byte) ([]byte, error) {
	key := make([]byte, cipherKeyLen)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(subkeyInfo)), key); err != nil {
		return nil, fmt.Errorf("snapshot: derive subkey: %w", err)
	}
	return key, nil
}

// GenerateKey returns a random master key of length bytes, suitable for
// security.snapshot_key once hex encoded.
func GenerateKey(length int) ([]byte, error) {
	if length < MinKeyLength {
		return nil, ErrKeyTooShort
	}
	key := make([]byte, length)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("snapshot: generate key: %w", err)
	}
	return key, nil
}
