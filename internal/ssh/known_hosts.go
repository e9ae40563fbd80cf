// internal/ssh/known_hosts.go

package ssh

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// KnownHostsCallback verifies host keys against path, creating an empty file
// when none exists yet.
func KnownHostsCallback(path string) (ssh.HostKeyCallback, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(path), err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open known_hosts file %s: %w", path, err)
	}
	f.Close()

	cb, err := knownhosts.New(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create hostKeyCallback: %w", err)
	}
	return cb, nil
}

// IsUnknownHost reports whether err means the host has no known_hosts entry
// at all, as opposed to a mismatching one.
func IsUnknownHost(err error) bool {
	var keyErr *knownhosts.KeyError
	return errors.As(err, &keyErr) && len(keyErr.Want) == 0
}

// FetchHostKey performs a handshake with addr only to capture its host key.
// The authentication failure that follows is expected and ignored.
func FetchHostKey(ctx context.Context, addr string, hostKeyAlgorithms []string) (ssh.PublicKey, error) {
	var hostKey ssh.PublicKey
	config := &ssh.ClientConfig{
		User: "hostkey",
		HostKeyCallback: func(_ string, _ net.Addr, key ssh.PublicKey) error {
			hostKey = key
			return nil
		},
		HostKeyAlgorithms: hostKeyAlgorithms,
		Timeout:           10 * time.Second,
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(config.Timeout))

	c, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err == nil {
		ssh.NewClient(c, chans, reqs).Close()
	}
	if hostKey == nil {
		if err == nil {
			err = errors.New("no host key received")
		}
		return nil, fmt.Errorf("could not retrieve host key from %s: %w", addr, err)
	}
	return hostKey, nil
}

// AppendKnownHost records key for addr in path, replacing earlier entries
// for the same address.
func AppendKnownHost(path, addr string, key ssh.PublicKey) error {
	normalized := knownhosts.Normalize(addr)
	newLine := knownhosts.Line([]string{normalized}, key)

	var kept []string
	if content, err := os.ReadFile(path); err == nil {
		for _, line := range strings.Split(string(content), "\n") {
			if line == "" {
				continue
			}
			fields := strings.Fields(line)
			if len(fields) > 0 && !strings.HasPrefix(line, "#") && hostsFieldContains(fields[0], normalized) {
				continue
			}
			kept = append(kept, line)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	kept = append(kept, newLine)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(strings.Join(kept, "\n")+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write known_hosts file %s: %w", path, err)
	}
	return nil
}

func hostsFieldContains(field, host string) bool {
	for _, h := range strings.Split(field, ",") {
		if h == host {
			return true
		}
	}
	return false
}
