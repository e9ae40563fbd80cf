// internal/crypto/crypto.go
//
// This package seals the passwords kept in the profile store.
// Each value is encrypted with AES-256-GCM under a key derived from the
// master passphrase with Argon2id and a per-value random salt.

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	// KEY_SIZE is the AES-256 key length in bytes.
	KEY_SIZE = 32
	// SALT_SIZE is the length of the Argon2 salt stored in front of each value.
	SALT_SIZE = 16

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

var ErrEmptyPassphrase = errors.New("passphrase cannot be empty")

// Cipher encrypts and decrypts values with keys derived from a passphrase.
type Cipher struct {
	passphrase []byte
	rand       io.Reader
}

// NewCipher creates a Cipher for the given master passphrase.
func NewCipher(passphrase string) (*Cipher, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	return &Cipher{passphrase: []byte(passphrase), rand: rand.Reader}, nil
}

func (c *Cipher) deriveKey(salt []byte) []byte {
	return argon2.IDKey(c.passphrase, salt, argonTime, argonMemory, argonThreads, KEY_SIZE)
}

func (c *Cipher) gcm(salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(c.deriveKey(salt))
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return aesGCM, nil
}

// Encrypt returns hex(salt || nonce || ciphertext).
func (c *Cipher) Encrypt(plaintext string) (string, error) {
	salt := make([]byte, SALT_SIZE)
	if _, err := io.ReadFull(c.rand, salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}

	aesGCM, err := c.gcm(salt)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	combined := make([]byte, 0, len(salt)+len(nonce)+len(plaintext)+aesGCM.Overhead())
	combined = append(combined, salt...)
	combined = append(combined, nonce...)
	combined = aesGCM.Seal(combined, nonce, []byte(plaintext), nil)

	return hex.EncodeToString(combined), nil
}

// Decrypt reverses Encrypt. A wrong passphrase fails authentication.
func (c *Cipher) Decrypt(encryptedHex string) (string, error) {
	combined, err := hex.DecodeString(encryptedHex)
	if err != nil {
		return "", fmt.Errorf("failed to decode hex: %w", err)
	}
	if len(combined) < SALT_SIZE {
		return "", errors.New("ciphertext too short")
	}

	salt := combined[:SALT_SIZE]
	aesGCM, err := c.gcm(salt)
	if err != nil {
		return "", err
	}

	rest := combined[SALT_SIZE:]
	nonceSize := aesGCM.NonceSize()
	if len(rest) < nonceSize {
		return "", errors.New("ciphertext too short")
	}

	plaintext, err := aesGCM.Open(nil, rest[:nonceSize], rest[nonceSize:], nil)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt: %w", err)
	}
	return string(plaintext), nil
}
