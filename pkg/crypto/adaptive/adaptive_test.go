package adaptive

import (
	"bytes"
	"errors"
	"testing"
)

var (
	key16 = make([]byte, 16) // AES-128
	key24 = make([]byte, 24) // AES-192
	key32 = make([]byte, 32) // AES-256 / ChaCha20
)

func init() {
	for i := range key16 {
		key16[i] = byte(i)
	}
	for i := range key24 {
		key24[i] = byte(i)
	}
	for i := range key32 {
		key32[i] = byte(i)
	}
}

func TestNew(t *testing.T) {
	cipher, err := New(key32)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if cipher.Type() != DefaultType() {
		t.Errorf("New() type = %s, want %s", cipher.Type(), DefaultType())
	}
}

func TestNewWithType(t *testing.T) {
	for _, typ := range []CipherType{CipherAESGCM, CipherChaCha20} {
		t.Run(string(typ), func(t *testing.T) {
			cipher, err := NewWithType(key32, typ)
			if err != nil {
				t.Fatalf("NewWithType(%s) error = %v", typ, err)
			}
			if cipher.Type() != typ {
				t.Errorf("Type() = %s, want %s", cipher.Type(), typ)
			}
		})
	}

	if _, err := NewWithType(key32, "rot13"); !errors.Is(err, ErrUnknownCipher) {
		t.Errorf("NewWithType(rot13) error = %v, want ErrUnknownCipher", err)
	}
}

func TestParseCipherType(t *testing.T) {
	tests := []struct {
		input   string
		want    CipherType
		wantErr bool
	}{
		{"aes-gcm", CipherAESGCM, false},
		{"AES-GCM", CipherAESGCM, false},
		{"chacha20-poly1305", CipherChaCha20, false},
		{"chacha20", CipherChaCha20, false},
		{" chacha20-poly1305 ", CipherChaCha20, false},
		{"", DefaultType(), false},
		{"des", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCipherType(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownCipher) {
					t.Errorf("ParseCipherType(%q) error = %v, want ErrUnknownCipher", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCipherType(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseCipherType(%q) = %s, want %s", tt.input, got, tt.want)
			}
		})
	}
}

func TestKeySizes(t *testing.T) {
	tests := []struct {
		name    string
		ctor    func([]byte) (Cipher, error)
		key     []byte
		wantErr bool
	}{
		{"AES-128", NewAESGCM, key16, false},
		{"AES-192", NewAESGCM, key24, false},
		{"AES-256", NewAESGCM, key32, false},
		{"AES 15 bytes", NewAESGCM, make([]byte, 15), true},
		{"AES 33 bytes", NewAESGCM, make([]byte, 33), true},
		{"ChaCha20 32 bytes", NewChaCha20, key32, false},
		{"ChaCha20 16 bytes", NewChaCha20, key16, true},
		{"ChaCha20 31 bytes", NewChaCha20, make([]byte, 31), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cipher, err := tt.ctor(tt.key)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidKeySize) {
					t.Errorf("error = %v, want ErrInvalidKeySize", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if cipher.NonceSize() != 12 {
				t.Errorf("NonceSize() = %d, want 12", cipher.NonceSize())
			}
			if cipher.Overhead() != 16 {
				t.Errorf("Overhead() = %d, want 16", cipher.Overhead())
			}
		})
	}
}

func ciphers(t *testing.T) []Cipher {
	t.Helper()
	aes, err := NewAESGCM(key32)
	if err != nil {
		t.Fatalf("NewAESGCM() error = %v", err)
	}
	chacha, err := NewChaCha20(key32)
	if err != nil {
		t.Fatalf("NewChaCha20() error = %v", err)
	}
	return []Cipher{aes, chacha}
}

func TestEncryptDecrypt(t *testing.T) {
	tests := []struct {
		name           string
		plaintext      []byte
		additionalData []byte
	}{
		{"Empty", []byte{}, nil},
		{"Simple", []byte("hello world"), nil},
		{"With AAD", []byte("secret data"), []byte("REDKVSNP header")},
		{"Large", bytes.Repeat([]byte("A"), 64*1024), nil},
		{"Binary", []byte{0x00, 0xFF, 0x7F, 0x80}, []byte{0x01, 0x02}},
	}

	for _, cipher := range ciphers(t) {
		for _, tt := range tests {
			t.Run(string(cipher.Type())+"/"+tt.name, func(t *testing.T) {
				ciphertext, err := cipher.Encrypt(tt.plaintext, tt.additionalData)
				if err != nil {
					t.Fatalf("Encrypt() error = %v", err)
				}

				wantLen := len(tt.plaintext) + cipher.NonceSize() + cipher.Overhead()
				if len(ciphertext) != wantLen {
					t.Errorf("ciphertext length = %d, want %d", len(ciphertext), wantLen)
				}

				plaintext, err := cipher.Decrypt(ciphertext, tt.additionalData)
				if err != nil {
					t.Fatalf("Decrypt() error = %v", err)
				}
				if !bytes.Equal(plaintext, tt.plaintext) {
					t.Errorf("Decrypt() = %v, want %v", plaintext, tt.plaintext)
				}
			})
		}
	}
}

func TestDecryptTampered(t *testing.T) {
	for _, cipher := range ciphers(t) {
		t.Run(string(cipher.Type()), func(t *testing.T) {
			aad := []byte("authenticated data")
			ciphertext, err := cipher.Encrypt([]byte("secret message"), aad)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}

			tampered := bytes.Clone(ciphertext)
			tampered[len(tampered)-1] ^= 0xFF
			if _, err := cipher.Decrypt(tampered, aad); err == nil {
				t.Error("Decrypt() should fail for tampered ciphertext")
			}

			if _, err := cipher.Decrypt(ciphertext, []byte("wrong aad")); err == nil {
				t.Error("Decrypt() should fail for wrong AAD")
			}

			if _, err := cipher.Decrypt(ciphertext[:cipher.NonceSize()], aad); !errors.Is(err, ErrCiphertextShort) {
				t.Errorf("Decrypt(short) error = %v, want ErrCiphertextShort", err)
			}
		})
	}
}

func TestDecryptWithOtherKey(t *testing.T) {
	other := bytes.Repeat([]byte{0x42}, 32)
	a, _ := NewChaCha20(key32)
	b, _ := NewChaCha20(other)

	ciphertext, err := a.Encrypt([]byte("payload"), nil)
	if err != nil {
		t.Fatalf("Encrypt() error = %v", err)
	}
	if _, err := b.Decrypt(ciphertext, nil); err == nil {
		t.Error("Decrypt() with a different key should fail")
	}
}

func TestEncrypt_Uniqueness(t *testing.T) {
	for _, cipher := range ciphers(t) {
		plaintext := []byte("same plaintext")
		c1, _ := cipher.Encrypt(plaintext, nil)
		c2, _ := cipher.Encrypt(plaintext, nil)
		if bytes.Equal(c1, c2) {
			t.Errorf("%s: two encryptions of the same plaintext should differ", cipher.Type())
		}
	}
}

func BenchmarkAESGCM_Encrypt_1KB(b *testing.B) {
	cipher, _ := NewAESGCM(key32)
	plaintext := bytes.Repeat([]byte("A"), 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cipher.Encrypt(plaintext, nil)
	}
}

func BenchmarkChaCha20_Encrypt_1KB(b *testing.B) {
	cipher, _ := NewChaCha20(key32)
	plaintext := bytes.Repeat([]byte("A"), 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = cipher.Encrypt(plaintext, nil)
	}
}
