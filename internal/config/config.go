// internal/config/config.go

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"sshProfiles/internal/crypto"
	apperr "sshProfiles/internal/error"
	"sshProfiles/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	DefaultConfigFileName = "profiles.json"
	DefaultConfigDir      = ".config/sshprofiles"
	DefaultFilePerms      = 0600
)

var (
	ErrProfileNotFound    = errors.New("profile not found")
	ErrCredentialNotFound = errors.New("no stored password for profile")
)

var log = logrus.WithField("component", "config")

// Manager is the JSON-backed profile and credential store.
type Manager struct {
	configPath string
	config     *models.Config
	cipher     *crypto.Cipher
}

// NewManager tworzy nowego menedżera konfiguracji
func NewManager(configPath string) *Manager {
	if configPath == "" {
		defaultPath, err := GetDefaultConfigPath()
		if err == nil {
			configPath = defaultPath
		} else {
			// Fallback do bieżącego katalogu jeśli nie można uzyskać ścieżki domowej
			log.WithError(err).Warn("falling back to working directory for profile store")
			configPath = DefaultConfigFileName
		}
	}

	return &Manager{
		configPath: configPath,
		config:     &models.Config{},
	}
}

func (m *Manager) GetConfigPath() string {
	return m.configPath
}

// SetCipher sets the cipher used for stored passwords.
func (m *Manager) SetCipher(cipher *crypto.Cipher) {
	m.cipher = cipher
}

// Load wczytuje konfigurację z pliku
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Jeśli plik nie istnieje, tworzymy nową pustą konfigurację
			m.config = &models.Config{
				Profiles:    make([]models.Profile, 0),
				Credentials: make([]models.Credential, 0),
			}
			log.WithField("path", m.configPath).Info("creating empty profile store")
			return m.Save()
		}
		return apperr.New(apperr.FileError, "failed to read config file", err)
	}

	cfg := &models.Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return apperr.New(apperr.ConfigError, "failed to parse config file", err)
	}
	m.config = cfg
	return nil
}

// Save zapisuje konfigurację do pliku
func (m *Manager) Save() error {
	configDir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return apperr.New(apperr.FileError, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(m.config, "", "    ")
	if err != nil {
		return apperr.New(apperr.ConfigError, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, DefaultFilePerms); err != nil {
		return apperr.New(apperr.FileError, "failed to write config file", err)
	}
	return nil
}

// GetProfiles zwraca listę wszystkich profili
func (m *Manager) GetProfiles() []models.Profile {
	return m.config.Profiles
}

// AddProfile validates profile, gives it an ID if it has none and appends it.
func (m *Manager) AddProfile(profile models.Profile) (models.Profile, error) {
	if err := profile.Validate(); err != nil {
		return models.Profile{}, apperr.New(apperr.ValidationError, "invalid profile", err)
	}
	for _, p := range m.config.Profiles {
		if p.Name == profile.Name {
			return models.Profile{}, apperr.New(apperr.ValidationError,
				fmt.Sprintf("profile with name '%s' already exists", profile.Name), nil)
		}
	}
	if profile.ID == "" {
		profile.ID = fmt.Sprintf("%s:%s", models.ProfileType, uuid.NewString())
	}
	if profile.Type == "" {
		profile.Type = models.ProfileType
	}
	m.config.Profiles = append(m.config.Profiles, profile)
	return profile, nil
}

// UpdateProfile aktualizuje istniejący profil
func (m *Manager) UpdateProfile(profile models.Profile) error {
	if err := profile.Validate(); err != nil {
		return apperr.New(apperr.ValidationError, "invalid profile", err)
	}
	i := m.indexOf(profile.ID)
	if i < 0 {
		return ErrProfileNotFound
	}
	m.config.Profiles[i] = profile
	return nil
}

// DeleteProfile usuwa profil
func (m *Manager) DeleteProfile(id string) (models.Profile, error) {
	i := m.indexOf(id)
	if i < 0 {
		return models.Profile{}, ErrProfileNotFound
	}
	removed := m.config.Profiles[i]
	m.config.Profiles = append(m.config.Profiles[:i], m.config.Profiles[i+1:]...)
	return removed, nil
}

// FindProfile szuka profilu po ID lub nazwie
func (m *Manager) FindProfile(nameOrID string) (models.Profile, error) {
	for _, p := range m.config.Profiles {
		if p.ID == nameOrID || p.Name == nameOrID {
			return p, nil
		}
	}
	return models.Profile{}, ErrProfileNotFound
}

func (m *Manager) indexOf(id string) int {
	for i, p := range m.config.Profiles {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// SetPassword stores (or replaces) the password for profile.
func (m *Manager) SetPassword(profile models.Profile, password string) error {
	if m.cipher == nil {
		return apperr.New(apperr.CryptoError, "cipher not initialized", nil)
	}
	cred, err := models.NewCredential(profile, password, m.cipher)
	if err != nil {
		return apperr.New(apperr.CryptoError, "failed to seal password", err)
	}
	for i := range m.config.Credentials {
		if m.config.Credentials[i].Matches(profile) {
			m.config.Credentials[i] = *cred
			return nil
		}
	}
	m.config.Credentials = append(m.config.Credentials, *cred)
	return nil
}

// GetPassword zwraca odszyfrowane hasło dla profilu
func (m *Manager) GetPassword(profile models.Profile) (string, error) {
	if m.cipher == nil {
		return "", apperr.New(apperr.CryptoError, "cipher not initialized", nil)
	}
	for _, cred := range m.config.Credentials {
		if cred.Matches(profile) {
			plain, err := cred.GetDecrypted(m.cipher)
			if err != nil {
				return "", apperr.New(apperr.CryptoError, "failed to open password", err)
			}
			return plain, nil
		}
	}
	return "", ErrCredentialNotFound
}

// DeletePassword removes the stored password of profile. Deleting a password
// that was never stored is not an error.
func (m *Manager) DeletePassword(profile models.Profile) error {
	kept := m.config.Credentials[:0]
	removed := 0
	for _, cred := range m.config.Credentials {
		if cred.Matches(profile) {
			removed++
			continue
		}
		kept = append(kept, cred)
	}
	m.config.Credentials = kept
	if removed == 0 {
		return nil
	}
	log.WithField("key", profile.CredentialKey()).Debug("deleted stored password")
	return m.Save()
}

func GetDefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get home directory: %w", err)
	}
	return filepath.Join(homeDir, DefaultConfigDir, DefaultConfigFileName), nil
}
