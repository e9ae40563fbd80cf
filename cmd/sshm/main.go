// cmd/sshm/main.go sets up the sshm command line: profile management,
// the algorithm catalog, quick-connect parsing and connection checks.

package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"sshProfiles/internal/algorithms"
	"sshProfiles/internal/config"
	"sshProfiles/internal/crypto"
	apperr "sshProfiles/internal/error"
	"sshProfiles/internal/profiles"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var version = "dev" // set by the linker

// app holds what every subcommand needs once settings are loaded.
type app struct {
	settings    config.Settings
	store       *config.Manager
	storeLoaded bool
	provider    *profiles.Provider
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "sshm",
		Short: "sshm manages SSH connection profiles.",
		Long: `sshm keeps SSH connection profiles, including the key exchange,
host key, cipher and MAC algorithms each profile negotiates.

Running without a subcommand opens the quick-connect prompt.`,
		Version:       version,
		SilenceUsage:  true,
		Args:          cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConnect(cmd, args, false)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (default is <user config dir>/sshprofiles/sshprofiles.yaml)")
	cmd.PersistentFlags().String("profiles", "", "profile store path")
	cmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("known-hosts", "", "known_hosts file used for host key verification")
	cmd.PersistentFlags().StringSlice("blacklist", nil, "additional algorithms to exclude")

	cmd.AddCommand(
		newAlgorithmsCmd(a),
		newParseCmd(a),
		newProfilesCmd(a),
		newPasswdCmd(a),
		newConnectCmd(a),
		newExecCmd(a),
		newInitCmd(a),
	)
	return cmd
}

func (a *app) init(cmd *cobra.Command, cfgFile string) error {
	settings, err := config.LoadSettings(cmd.Flags(), cfgFile)
	if err != nil {
		return apperr.New(apperr.ConfigError, "failed to load settings", err)
	}
	a.settings = settings

	level, err := logrus.ParseLevel(settings.LogLevel)
	if err != nil {
		return apperr.New(apperr.ConfigError, "invalid log level", err)
	}
	logrus.SetLevel(level)
	logrus.SetOutput(os.Stderr)

	a.store = config.NewManager(settings.Profiles)

	blacklist := algorithms.DefaultBlacklist().Union(settings.Blacklist...)
	a.provider, err = profiles.NewProvider(algorithms.EngineTables(), blacklist, a.store)
	if err != nil {
		return apperr.New(apperr.CatalogError, "failed to resolve SSH algorithms", err)
	}
	logrus.WithFields(logrus.Fields{
		"profiles":  settings.Profiles,
		"blacklist": blacklist.Names(),
	}).Debug("initialized")
	return nil
}

// profiles loads the profile store on first use. Commands that never touch
// profiles leave the store file alone.
func (a *app) profiles() (*config.Manager, error) {
	if !a.storeLoaded {
		if err := a.store.Load(); err != nil {
			return nil, err
		}
		a.storeLoaded = true
	}
	return a.store, nil
}

// unlock sets up the credential cipher, asking for the master passphrase
// unless SSHPROFILES_PASSPHRASE is set.
func (a *app) unlock() error {
	passphrase := os.Getenv("SSHPROFILES_PASSPHRASE")
	if passphrase == "" {
		p, err := readSecret("Master passphrase: ")
		if err != nil {
			return err
		}
		passphrase = p
	}
	cipher, err := crypto.NewCipher(passphrase)
	if err != nil {
		return apperr.New(apperr.CryptoError, "invalid passphrase", err)
	}
	a.store.SetCipher(cipher)
	return nil
}

func readSecret(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("cannot prompt for secrets: stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(string(secret), "\r\n"), nil
}
