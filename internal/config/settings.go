package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Settings are the application settings, as opposed to the profiles
// themselves.
type Settings struct {
	// Profiles is the path of the profile store.
	Profiles string `mapstructure:"profiles" yaml:"profiles"`
	// Blacklist adds algorithm names to the built-in exclusion set.
	Blacklist []string `mapstructure:"blacklist" yaml:"blacklist"`
	LogLevel  string   `mapstructure:"log_level" yaml:"log_level"`
	// KnownHosts is the known_hosts file used for host key verification.
	KnownHosts string `mapstructure:"known_hosts" yaml:"known_hosts"`
}

const settingsName = "sshprofiles"

// DefaultSettings returns the settings used when nothing else is configured.
func DefaultSettings() Settings {
	s := Settings{LogLevel: "info", Blacklist: []string{}}
	if path, err := GetDefaultConfigPath(); err == nil {
		s.Profiles = path
		s.KnownHosts = filepath.Join(filepath.Dir(path), "known_hosts")
	}
	return s
}

func settingsPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not get user config directory: %w", err)
	}
	return filepath.Join(dir, settingsName, settingsName+".yaml"), nil
}

// LoadSettings merges, in increasing precedence: defaults, the settings file
// (explicit path or sshprofiles.yaml in the user config dir or the working
// directory), SSHPROFILES_* environment variables and the given flags.
func LoadSettings(flags *pflag.FlagSet, explicitPath string) (Settings, error) {
	defaults := DefaultSettings()
	v := viper.New()

	v.SetDefault("profiles", defaults.Profiles)
	v.SetDefault("blacklist", defaults.Blacklist)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("known_hosts", defaults.KnownHosts)

	if explicitPath != "" {
		v.SetConfigFile(explicitPath)
	} else {
		v.SetConfigName(settingsName)
		v.SetConfigType("yaml")
		if p, err := settingsPath(); err == nil {
			v.AddConfigPath(filepath.Dir(p))
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Settings{}, fmt.Errorf("failed to read settings: %w", err)
		}
	}

	v.SetEnvPrefix(settingsName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		bind := map[string]string{
			"profiles":    "profiles",
			"log_level":   "log-level",
			"known_hosts": "known-hosts",
			"blacklist":   "blacklist",
		}
		for key, flag := range bind {
			if f := flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Settings{}, err
				}
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("failed to decode settings: %w", err)
	}
	return s, nil
}

// WriteSettings writes s as yaml to path, or to the default location when
// path is empty. It returns the path written.
func WriteSettings(s Settings, path string) (string, error) {
	if path == "" {
		p, err := settingsPath()
		if err != nil {
			return "", err
		}
		path = p
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("could not create config directory %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, DefaultFilePerms); err != nil {
		return "", err
	}
	return path, nil
}
