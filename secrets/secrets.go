// Package secrets encrypts stored credentials (the SMTP password) with
// AES-GCM. The key comes from the SETTINGS_ENCRYPTION_KEY environment
// variable and must be 16, 24 or 32 bytes.
package secrets

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"os"
)

var ErrNoKey = errors.New("SETTINGS_ENCRYPTION_KEY is not set")

// Box encrypts and decrypts short secrets with a fixed key
type Box struct {
	key []byte
}

// NewBox creates a Box with the given AES key
func NewBox(key []byte) (*Box, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("invalid key length %d: want 16, 24 or 32 bytes", len(key))
	}
	return &Box{key: key}, nil
}

// NewBoxFromEnv creates a Box from SETTINGS_ENCRYPTION_KEY
func NewBoxFromEnv() (*Box, error) {
	key := os.Getenv("SETTINGS_ENCRYPTION_KEY")
	if key == "" {
		return nil, ErrNoKey
	}
	return NewBox([]byte(key))
}

// Encrypt seals the plaintext with a fresh 12-byte nonce. Ciphertext and
// nonce are returned separately so they can be stored in separate columns.
func (b *Box) Encrypt(plaintext []byte) (ciphertext, nonce []byte, err error) {
	nonce = make([]byte, 12)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	block, err := aes.NewCipher(b.key)
	if err != nil {
		return nil, nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, nil, err
	}

	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// Decrypt opens a ciphertext produced by Encrypt
func (b *Box) Decrypt(ciphertext, nonce []byte) ([]byte, error) {
	block, err := aes.NewCipher(b.key)
	if err != nil {
		return nil, err
	}

	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt: %w", err)
	}

	return plaintext, nil
}
