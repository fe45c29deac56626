// Package adaptive provides the AEAD ciphers used to seal snapshot files.
//
// Supported algorithms:
//
//   - aes-gcm: AES-128/192/256-GCM, preferred where the CPU accelerates AES
//   - chacha20-poly1305: fallback for other architectures
//
// Ciphertexts carry their random nonce as a prefix, so a Cipher can be
// shared by concurrent callers.
//
//	c, err := adaptive.NewWithType(key, adaptive.CipherChaCha20)
//	sealed, err := c.Encrypt(plaintext, header)
//	plaintext, err := c.Decrypt(sealed, header)
package adaptive
