// Package crypto seals short secrets, such as API tokens, for storage at rest
// using NaCl secretbox (XSalsa20-Poly1305).
package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	// KeySize is the required size for secretbox keys (32 bytes)
	KeySize = 32
	// NonceSize is the size of secretbox nonces (24 bytes)
	NonceSize = 24
)

var (
	ErrInvalidKeySize     = errors.New("encryption key must be 32 bytes")
	ErrCiphertextTooShort = errors.New("ciphertext too short")
	ErrDecryptionFailed   = errors.New("decryption failed: authentication error")
)

// Encryptor seals and opens strings with a fixed key
type Encryptor struct {
	key [KeySize]byte
}

// NewEncryptor creates a new Encryptor with the given key.
// Key must be exactly 32 bytes.
func NewEncryptor(key []byte) (*Encryptor, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKeySize
	}

	enc := &Encryptor{}
	copy(enc.key[:], key)
	return enc, nil
}

// NewEncryptorFromBase64 creates a new Encryptor from a base64-encoded key.
func NewEncryptorFromBase64(encodedKey string) (*Encryptor, error) {
	key, err := base64.StdEncoding.DecodeString(encodedKey)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 key: %w", err)
	}
	return NewEncryptor(key)
}

// Encrypt seals plaintext and returns base64 of nonce||box.
// An empty plaintext encrypts to an empty string.
func (e *Encryptor) Encrypt(plaintext string) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	var nonce [NonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &e.key)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a value produced by Encrypt.
func (e *Encryptor) Decrypt(encodedCiphertext string) (string, error) {
	if encodedCiphertext == "" {
		return "", nil
	}

	sealed, err := base64.StdEncoding.DecodeString(encodedCiphertext)
	if err != nil {
		return "", fmt.Errorf("failed to decode ciphertext: %w", err)
	}

	if len(sealed) < NonceSize+secretbox.Overhead {
		return "", ErrCiphertextTooShort
	}

	var nonce [NonceSize]byte
	copy(nonce[:], sealed[:NonceSize])

	plaintext, ok := secretbox.Open(nil, sealed[NonceSize:], &nonce, &e.key)
	if !ok {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}

// GenerateKey generates a new random key and returns it base64-encoded.
func GenerateKey() (string, error) {
	key, err := GenerateKeyBytes()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(key), nil
}

// GenerateKeyBytes generates a new random 32-byte key.
func GenerateKeyBytes() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return key, nil
}
