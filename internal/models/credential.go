// internal/models/credential.go

package models

import (
	"errors"
	"sshProfiles/internal/crypto"
)

// Credential is a stored password, keyed by Profile.CredentialKey and user.
type Credential struct {
	Key      string `json:"key"`
	User     string `json:"user"`
	Password string `json:"password"` // zaszyfrowane hasło
}

// NewCredential tworzy nową instancję Credential dla profilu
func NewCredential(profile Profile, plainPassword string, cipher *crypto.Cipher) (*Credential, error) {
	if profile.Options.Host == "" {
		return nil, errors.New("profile has no host")
	}
	if plainPassword == "" {
		return nil, errors.New("password cannot be empty")
	}

	encryptedPass, err := cipher.Encrypt(plainPassword)
	if err != nil {
		return nil, err
	}

	return &Credential{
		Key:      profile.CredentialKey(),
		User:     profile.Options.User,
		Password: encryptedPass,
	}, nil
}

// Matches reports whether the credential belongs to profile.
func (c *Credential) Matches(profile Profile) bool {
	return c.Key == profile.CredentialKey() && c.User == profile.Options.User
}

// GetDecrypted zwraca odszyfrowane hasło
func (c *Credential) GetDecrypted(cipher *crypto.Cipher) (string, error) {
	return cipher.Decrypt(c.Password)
}
