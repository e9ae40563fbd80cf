package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"sshProfiles/internal/algorithms"
	"sshProfiles/internal/config"
	"sshProfiles/internal/endpoint"
	apperr "sshProfiles/internal/error"
	"sshProfiles/internal/models"
	sshconn "sshProfiles/internal/ssh"
	"sshProfiles/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newAlgorithmsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "algorithms",
		Short: "List the SSH algorithms profiles can use ('*' marks the defaults)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			resolved := a.provider.Resolved()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(map[string]map[algorithms.Category][]string{
					"supported":        resolved.Supported,
					"enabledByDefault": resolved.EnabledByDefault,
				})
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderCatalog(resolved))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func newParseCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <query>",
		Short: "Show how a quick-connect query is understood",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ep := endpoint.Parse(args[0])
			fmt.Fprintln(cmd.OutOrStdout(), ui.RenderEndpoint(ep))
			if !ep.Valid() {
				logrus.WithField("query", args[0]).Warn("endpoint is not dialable")
			}
			return nil
		},
	}
}

func newProfilesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"profile"},
		Short:   "Manage saved profiles",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.profiles()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.RenderProfiles(store.GetProfiles()))
			return nil
		},
	}

	var name, auth string
	var keepalive, readyTimeout int
	algos := map[algorithms.Category]*[]string{}
	add := &cobra.Command{
		Use:   "add <query>",
		Short: "Save a profile for user@host:port",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile := a.provider.NewProfile(name, args[0])
			profile.Options.Auth = models.AuthMethod(auth)
			if keepalive > 0 {
				profile.Options.KeepaliveInterval = &keepalive
			}
			if readyTimeout > 0 {
				profile.Options.ReadyTimeout = &readyTimeout
			}
			for cat, names := range algos {
				if !cmd.Flags().Changed(cat.String()) {
					continue
				}
				if bad := a.provider.Resolved().Unsupported(cat, *names); len(bad) > 0 {
					return apperr.New(apperr.ValidationError,
						fmt.Sprintf("unsupported %s algorithms: %s", cat.Title(), strings.Join(bad, ", ")), nil)
				}
				profile.Options.Algorithms[cat] = append([]string(nil), *names...)
			}

			store, err := a.profiles()
			if err != nil {
				return err
			}
			saved, err := store.AddProfile(profile)
			if err != nil {
				return err
			}
			if err := store.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%s)\n", saved.Name, saved.ID)
			return nil
		},
	}
	add.Flags().StringVar(&name, "name", "", "profile name (default is the query)")
	add.Flags().StringVar(&auth, "auth", "", "auth method: password, publicKey, agent, keyboardInteractive")
	add.Flags().IntVar(&keepalive, "keepalive", 0, "keepalive interval in milliseconds")
	add.Flags().IntVar(&readyTimeout, "ready-timeout", 0, "connect and handshake timeout in milliseconds")
	for _, cat := range algorithms.Categories() {
		algos[cat] = add.Flags().StringSlice(cat.String(), nil, cat.Title()+" algorithms, in preference order")
	}

	rm := &cobra.Command{
		Use:     "rm <name|id>",
		Aliases: []string{"delete"},
		Short:   "Delete a profile and its stored password",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.profiles()
			if err != nil {
				return err
			}
			profile, err := store.FindProfile(args[0])
			if err != nil {
				return err
			}
			if _, err := store.DeleteProfile(profile.ID); err != nil {
				return err
			}
			a.provider.DeleteProfile(profile)
			if err := store.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", profile.Name)
			return nil
		},
	}

	cmd.AddCommand(list, add, rm)
	return cmd
}

func newPasswdCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd <name|id>",
		Short: "Store the password of a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.profiles()
			if err != nil {
				return err
			}
			profile, err := store.FindProfile(args[0])
			if err != nil {
				return err
			}
			if err := a.unlock(); err != nil {
				return err
			}
			password, err := readSecret(fmt.Sprintf("Password for %s@%s: ", profile.Options.User, profile.Options.Host))
			if err != nil {
				return err
			}
			if err := store.SetPassword(profile, password); err != nil {
				return err
			}
			return store.Save()
		},
	}
}

func newConnectCmd(a *app) *cobra.Command {
	var acceptNew bool
	cmd := &cobra.Command{
		Use:   "connect [name|id|query]",
		Short: "Check that a profile or quick-connect query can log in",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runConnect(cmd, args, acceptNew)
		},
	}
	cmd.Flags().BoolVar(&acceptNew, "accept-new", false, "trust and record the host key of unknown hosts")
	return cmd
}

func newExecCmd(a *app) *cobra.Command {
	var acceptNew bool
	cmd := &cobra.Command{
		Use:   "exec <name|id|query> -- <command>",
		Short: "Run a single command on a host",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			conn, err := a.dial(cmd.Context(), profile, acceptNew)
			if err != nil {
				return err
			}
			defer conn.Close()

			out, err := conn.ExecuteCommand(strings.Join(args[1:], " "))
			cmd.OutOrStdout().Write(out)
			return err
		},
	}
	cmd.Flags().BoolVar(&acceptNew, "accept-new", false, "trust and record the host key of unknown hosts")
	return cmd
}

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the current settings to the settings file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.WriteSettings(a.settings, "")
			if err != nil {
				return apperr.New(apperr.FileError, "failed to write settings", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
}

// lookup returns the saved profile named or identified by query, or a
// quick-connect profile seeded with the defaults.
func (a *app) lookup(query string) (models.Profile, error) {
	store, err := a.profiles()
	if err != nil {
		return models.Profile{}, err
	}
	if profile, err := store.FindProfile(query); err == nil {
		return profile, nil
	}
	profile := a.provider.QuickConnect(query)
	opts := a.provider.ConfigDefaults()
	opts.Host, opts.User, opts.Port = profile.Options.Host, profile.Options.User, profile.Options.Port
	profile.Options = opts
	return profile, nil
}

func (a *app) runConnect(cmd *cobra.Command, args []string, acceptNew bool) error {
	var query string
	if len(args) == 1 {
		query = args[0]
	} else {
		model := ui.NewQuickConnectModel("")
		if _, err := tea.NewProgram(model).Run(); err != nil {
			return fmt.Errorf("quick connect: %w", err)
		}
		if !model.Submitted() {
			return nil
		}
		query = model.Query()
	}

	profile, err := a.lookup(query)
	if err != nil {
		return err
	}
	conn, err := a.dial(cmd.Context(), profile, acceptNew)
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "%s connected to %s (%s)\n",
		ui.SuccessStyle.Render("ok"), sshconn.Address(profile), conn.GetClient().ServerVersion())
	return nil
}

// dial connects with the profile's algorithms narrowed to what the catalog
// allows.
func (a *app) dial(ctx context.Context, profile models.Profile, acceptNew bool) (*sshconn.Connection, error) {
	profile, err := a.provider.Prepare(profile)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	auth, closeAgent, err := a.authFor(profile)
	if err != nil {
		return nil, err
	}
	defer closeAgent()

	callback, err := sshconn.KnownHostsCallback(a.settings.KnownHosts)
	if err != nil {
		return nil, apperr.New(apperr.ConfigError, "failed to load known_hosts", err)
	}

	conn, err := sshconn.Dial(ctx, profile, auth, callback)
	if err == nil || !acceptNew || !sshconn.IsUnknownHost(err) {
		return conn, err
	}

	addr := sshconn.Address(profile)
	key, ferr := sshconn.FetchHostKey(ctx, addr, profile.Options.Algorithms[algorithms.HostKey])
	if ferr != nil {
		return nil, apperr.New(apperr.ConnectionError, "failed to fetch host key", ferr)
	}
	if err := sshconn.AppendKnownHost(a.settings.KnownHosts, addr, key); err != nil {
		return nil, apperr.New(apperr.FileError, "failed to record host key", err)
	}
	logrus.WithField("addr", addr).Info("recorded new host key")

	callback, err = sshconn.KnownHostsCallback(a.settings.KnownHosts)
	if err != nil {
		return nil, apperr.New(apperr.ConfigError, "failed to load known_hosts", err)
	}
	return sshconn.Dial(ctx, profile, auth, callback)
}

// authFor collects the stored password and the system agent, whichever the
// profile can use.
func (a *app) authFor(profile models.Profile) (sshconn.Auth, func(), error) {
	var auth sshconn.Auth
	closeAgent := func() {}

	switch profile.Options.Auth {
	case models.AuthNone, models.AuthPassword, models.AuthKeyboardInteractive:
		if err := a.unlock(); err != nil {
			if profile.Options.Auth != models.AuthNone {
				return auth, closeAgent, err
			}
			logrus.WithError(err).Debug("skipping stored password")
			break
		}
		password, err := a.store.GetPassword(profile)
		switch {
		case err == nil:
			auth.Password = password
		case errors.Is(err, config.ErrCredentialNotFound):
			if profile.Options.Auth != models.AuthNone {
				if auth.Password, err = readSecret(fmt.Sprintf("Password for %s@%s: ", profile.Options.User, profile.Options.Host)); err != nil {
					return auth, closeAgent, err
				}
			}
		default:
			return auth, closeAgent, err
		}
	}

	switch profile.Options.Auth {
	case models.AuthNone, models.AuthAgent, models.AuthPublicKey:
		ag, closeFn, err := sshconn.SystemAgent()
		if err != nil {
			logrus.WithError(err).Debug("ssh agent unavailable")
			break
		}
		auth.Agent = ag
		closeAgent = func() { closeFn() }
	}
	return auth, closeAgent, nil
}
