// internal/ssh/connect.go

package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"sync"
	"time"

	"sshProfiles/internal/algorithms"
	apperr "sshProfiles/internal/error"
	"sshProfiles/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

const (
	DefaultReadyTimeout      = 20 * time.Second
	DefaultKeepaliveCountMax = 3
)

var log = logrus.WithField("component", "ssh")

// Auth carries the secrets for one connection attempt.
type Auth struct {
	Password string
	// Agent is used for public key auth; nil disables it.
	Agent agent.Agent
}

// ClientConfig builds the x/crypto client configuration for profile. Every
// algorithm category must list at least one name; an empty one is never
// left to the engine defaults.
func ClientConfig(profile models.Profile, auth Auth, hostKeyCallback ssh.HostKeyCallback) (*ssh.ClientConfig, error) {
	opts := profile.Options
	if opts.Host == "" {
		return nil, apperr.New(apperr.ValidationError, "profile has no host", nil)
	}
	if opts.Port <= 0 || opts.Port > 65535 {
		return nil, apperr.New(apperr.ValidationError, fmt.Sprintf("invalid port %d", opts.Port), nil)
	}
	if hostKeyCallback == nil {
		return nil, apperr.New(apperr.ValidationError, "host key callback is required", nil)
	}

	cfg := &ssh.ClientConfig{
		User:            opts.User,
		HostKeyCallback: hostKeyCallback,
		Timeout:         DefaultReadyTimeout,
	}
	if opts.ReadyTimeout != nil && *opts.ReadyTimeout > 0 {
		cfg.Timeout = time.Duration(*opts.ReadyTimeout) * time.Millisecond
	}
	if !opts.SkipBanner {
		cfg.BannerCallback = ssh.BannerDisplayStderr()
	}

	for _, cat := range algorithms.Categories() {
		names := opts.Algorithms[cat]
		if len(names) == 0 {
			return nil, apperr.New(apperr.ValidationError,
				fmt.Sprintf("no usable %s algorithm", cat.Title()), nil)
		}
		names = append([]string(nil), names...)
		switch cat {
		case algorithms.KeyExchange:
			cfg.KeyExchanges = names
		case algorithms.HostKey:
			cfg.HostKeyAlgorithms = names
		case algorithms.Cipher:
			cfg.Ciphers = names
		case algorithms.MessageAuth:
			cfg.MACs = names
		}
	}

	usePassword := opts.Auth == models.AuthNone || opts.Auth == models.AuthPassword || opts.Auth == models.AuthKeyboardInteractive
	useAgent := opts.Auth == models.AuthNone || opts.Auth == models.AuthAgent || opts.Auth == models.AuthPublicKey

	if usePassword && auth.Password != "" {
		password := auth.Password
		cfg.Auth = append(cfg.Auth,
			ssh.Password(password),
			ssh.KeyboardInteractive(func(_, _ string, questions []string, _ []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range answers {
					answers[i] = password
				}
				return answers, nil
			}),
		)
	}
	if useAgent && auth.Agent != nil {
		cfg.Auth = append(cfg.Auth, ssh.PublicKeysCallback(auth.Agent.Signers))
	}
	if len(cfg.Auth) == 0 {
		return nil, apperr.New(apperr.ValidationError,
			fmt.Sprintf("no usable authentication method for auth mode %q", opts.Auth), nil)
	}
	return cfg, nil
}

// SystemAgent connects to the agent behind SSH_AUTH_SOCK. The returned close
// function must be called when the agent is no longer needed.
func SystemAgent() (agent.ExtendedAgent, func() error, error) {
	sock := os.Getenv("SSH_AUTH_SOCK")
	if sock == "" {
		return nil, nil, errors.New("SSH_AUTH_SOCK is not set")
	}
	conn, err := net.Dial("unix", sock)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to agent: %w", err)
	}
	return agent.NewClient(conn), conn.Close, nil
}

// Connection reprezentuje połączenie SSH
type Connection struct {
	client   *ssh.Client
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// Address is the dial address of profile.
func Address(profile models.Profile) string {
	return net.JoinHostPort(profile.Options.Host, strconv.Itoa(profile.Options.Port))
}

// Dial opens a client connection for profile. ctx bounds the TCP connect and
// the handshake; the connection outlives it.
func Dial(ctx context.Context, profile models.Profile, auth Auth, hostKeyCallback ssh.HostKeyCallback) (*Connection, error) {
	cfg, err := ClientConfig(profile, auth, hostKeyCallback)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	addr := Address(profile)
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, apperr.New(apperr.ConnectionError, "failed to dial "+addr, err)
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stopWatch := context.AfterFunc(ctx, func() { conn.Close() })
	c, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	stopWatch()
	if err != nil {
		conn.Close()
		return nil, apperr.New(apperr.ConnectionError, "handshake with "+addr+" failed", err)
	}
	_ = conn.SetDeadline(time.Time{})

	connection := &Connection{
		client: ssh.NewClient(c, chans, reqs),
		stop:   make(chan struct{}),
	}
	log.WithFields(logrus.Fields{"addr": addr, "user": profile.Options.User}).Debug("connected")

	if iv := profile.Options.KeepaliveInterval; iv != nil && *iv > 0 {
		countMax := DefaultKeepaliveCountMax
		if cm := profile.Options.KeepaliveCountMax; cm != nil && *cm > 0 {
			countMax = *cm
		}
		connection.wg.Add(1)
		go connection.keepAliveLoop(time.Duration(*iv)*time.Millisecond, countMax)
	}
	return connection, nil
}

// keepAliveLoop wysyła pakiety keepalive. Keepalive bez odpowiedzi do
// następnego tyknięcia albo zakończony błędem liczy się jako porażka; po
// countMax porażkach z rzędu połączenie jest zamykane.
func (c *Connection) keepAliveLoop(interval time.Duration, countMax int) {
	defer c.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// At most one request is in flight, so the sender never blocks on replies.
	replies := make(chan error, 1)
	inFlight := false
	failures := 0

	for {
		select {
		case err := <-replies:
			inFlight = false
			if err == nil {
				failures = 0
				continue
			}
			failures++
			log.WithError(err).WithField("failures", failures).Debug("keepalive failed")
		case <-ticker.C:
			if !inFlight {
				inFlight = true
				go func() {
					_, _, err := c.client.SendRequest("keepalive@openssh.com", true, nil)
					replies <- err
				}()
				continue
			}
			failures++
			log.WithField("failures", failures).Debug("keepalive unanswered")
		case <-c.stop:
			return
		}

		if failures >= countMax {
			log.WithField("failures", failures).Warn("keepalive limit reached, closing connection")
			c.client.Close()
			return
		}
	}
}

// Close zamyka połączenie
func (c *Connection) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	err := c.client.Close()
	c.wg.Wait()
	return err
}

// ExecuteCommand wykonuje pojedyncze polecenie
func (c *Connection) ExecuteCommand(command string) ([]byte, error) {
	session, err := c.client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	return session.CombinedOutput(command)
}

// GetClient zwraca klienta SSH
func (c *Connection) GetClient() *ssh.Client {
	return c.client
}
