package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

// FieldCipher seals small values at rest with XChaCha20-Poly1305.
type FieldCipher struct {
	key []byte
}

// NewFieldCipher derives a 256-bit key from appKey for the given purpose.
func NewFieldCipher(appKey, purpose string) (*FieldCipher, error) {
	if appKey == "" {
		return nil, errors.New("encryption key is empty")
	}
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(appKey), nil, []byte(purpose)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return &FieldCipher{key: key}, nil
}

func (c *FieldCipher) Encrypt(plaintext []byte) (string, error) {
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plaintext)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}
	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (c *FieldCipher) Decrypt(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}
	aead, err := chacha20poly1305.NewX(c.key)
	if err != nil {
		return nil, err
	}
	if len(raw) < aead.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	return aead.Open(nil, nonce, sealed, nil)
}
