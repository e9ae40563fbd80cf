package ssh

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sshProfiles/internal/algorithms"
	apperr "sshProfiles/internal/error"
	"sshProfiles/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

func intPtr(v int) *int { return &v }

func testProfile(host string, port int) models.Profile {
	return models.Profile{
		Name: "test",
		Options: models.Options{
			Host: host,
			Port: port,
			User: "alice",
			Algorithms: models.Algorithms{
				algorithms.KeyExchange: {"curve25519-sha256"},
				algorithms.HostKey:     {"ssh-ed25519"},
				algorithms.Cipher:      {"aes128-ctr", "chacha20-poly1305@openssh.com"},
				algorithms.MessageAuth: {"hmac-sha2-256-etm@openssh.com", "hmac-sha2-256"},
			},
		},
	}
}

func TestClientConfigAppliesAlgorithms(t *testing.T) {
	p := testProfile("example.com", 22)
	p.Options.ReadyTimeout = intPtr(1500)
	p.Options.SkipBanner = true

	cfg, err := ClientConfig(p, Auth{Password: "pw"}, ssh.InsecureIgnoreHostKey())
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.User)
	assert.Equal(t, []string{"curve25519-sha256"}, cfg.KeyExchanges)
	assert.Equal(t, []string{"aes128-ctr", "chacha20-poly1305@openssh.com"}, cfg.Ciphers)
	assert.Equal(t, []string{"hmac-sha2-256-etm@openssh.com", "hmac-sha2-256"}, cfg.MACs)
	assert.Equal(t, []string{"ssh-ed25519"}, cfg.HostKeyAlgorithms)
	assert.Equal(t, 1500*time.Millisecond, cfg.Timeout)
	assert.Nil(t, cfg.BannerCallback)
	assert.Len(t, cfg.Auth, 2)

	cfg.Ciphers[0] = "mutated"
	assert.Equal(t, "aes128-ctr", p.Options.Algorithms[algorithms.Cipher][0])
}

func TestClientConfigDefaults(t *testing.T) {
	cfg, err := ClientConfig(testProfile("example.com", 22), Auth{Password: "pw"}, ssh.InsecureIgnoreHostKey())
	require.NoError(t, err)
	assert.Equal(t, DefaultReadyTimeout, cfg.Timeout)
	assert.NotNil(t, cfg.BannerCallback)
}

func TestClientConfigAuthModes(t *testing.T) {
	keyring := agent.NewKeyring()

	p := testProfile("example.com", 22)
	p.Options.Auth = models.AuthAgent
	cfg, err := ClientConfig(p, Auth{Password: "pw", Agent: keyring}, ssh.InsecureIgnoreHostKey())
	require.NoError(t, err)
	assert.Len(t, cfg.Auth, 1)

	p.Options.Auth = models.AuthPassword
	_, err = ClientConfig(p, Auth{Agent: keyring}, ssh.InsecureIgnoreHostKey())
	assert.ErrorIs(t, err, &apperr.AppError{Type: apperr.ValidationError})

	p.Options.Auth = models.AuthNone
	cfg, err = ClientConfig(p, Auth{Password: "pw", Agent: keyring}, ssh.InsecureIgnoreHostKey())
	require.NoError(t, err)
	assert.Len(t, cfg.Auth, 3)
}

func TestClientConfigRejectsBadProfile(t *testing.T) {
	cb := ssh.InsecureIgnoreHostKey()
	for name, p := range map[string]models.Profile{
		"no host":  testProfile("", 22),
		"port 0":   testProfile("example.com", 0),
		"port big": testProfile("example.com", 70000),
	} {
		_, err := ClientConfig(p, Auth{Password: "pw"}, cb)
		assert.ErrorIs(t, err, &apperr.AppError{Type: apperr.ValidationError}, name)
	}

	_, err := ClientConfig(testProfile("example.com", 22), Auth{Password: "pw"}, nil)
	assert.Error(t, err)
}

func TestClientConfigRefusesEmptyCategory(t *testing.T) {
	for _, cat := range algorithms.Categories() {
		p := testProfile("example.com", 22)
		p.Options.Algorithms[cat] = []string{}
		_, err := ClientConfig(p, Auth{Password: "pw"}, ssh.InsecureIgnoreHostKey())
		assert.ErrorIs(t, err, &apperr.AppError{Type: apperr.ValidationError}, cat.String())
		assert.ErrorContains(t, err, "no usable "+cat.Title()+" algorithm")

		delete(p.Options.Algorithms, cat)
		_, err = ClientConfig(p, Auth{Password: "pw"}, ssh.InsecureIgnoreHostKey())
		assert.ErrorContains(t, err, "no usable "+cat.Title()+" algorithm")
	}
}

func TestDialRefusesEmptyCipherList(t *testing.T) {
	srv := startTestServer(t)
	p := testProfile(srv.host, srv.port)
	p.Options.Algorithms[algorithms.Cipher] = nil

	_, err := Dial(context.Background(), p, Auth{Password: "secret"}, ssh.FixedHostKey(srv.hostKey))
	assert.ErrorIs(t, err, &apperr.AppError{Type: apperr.ValidationError})
}

type testServer struct {
	addr    string
	host    string
	port    int
	hostKey ssh.PublicKey
}

func startTestServer(t *testing.T) testServer {
	t.Helper()
	return startServer(t, ssh.DiscardRequests)
}

// startServer runs an SSH server whose global requests, keepalives
// included, go to globals.
func startServer(t *testing.T, globals func(<-chan *ssh.Request)) testServer {
	t.Helper()

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	signer, err := ssh.NewSignerFromKey(priv)
	require.NoError(t, err)

	cfg := &ssh.ServerConfig{
		PasswordCallback: func(c ssh.ConnMetadata, pw []byte) (*ssh.Permissions, error) {
			if c.User() == "alice" && string(pw) == "secret" {
				return nil, nil
			}
			return nil, errors.New("access denied")
		},
	}
	cfg.AddHostKey(signer)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			nc, err := ln.Accept()
			if err != nil {
				return
			}
			go serveConn(nc, cfg, globals)
		}
	}()

	tcp := ln.Addr().(*net.TCPAddr)
	return testServer{addr: ln.Addr().String(), host: tcp.IP.String(), port: tcp.Port, hostKey: signer.PublicKey()}
}

func serveConn(nc net.Conn, cfg *ssh.ServerConfig, globals func(<-chan *ssh.Request)) {
	defer nc.Close()
	_, chans, reqs, err := ssh.NewServerConn(nc, cfg)
	if err != nil {
		return
	}
	go globals(reqs)

	for nch := range chans {
		if nch.ChannelType() != "session" {
			nch.Reject(ssh.UnknownChannelType, "unsupported")
			continue
		}
		ch, creqs, err := nch.Accept()
		if err != nil {
			continue
		}
		go func() {
			defer ch.Close()
			for req := range creqs {
				if req.Type != "exec" {
					req.Reply(false, nil)
					continue
				}
				var payload struct{ Command string }
				_ = ssh.Unmarshal(req.Payload, &payload)
				req.Reply(true, nil)
				ch.Write([]byte("ran: " + payload.Command))
				ch.SendRequest("exit-status", false, ssh.Marshal(struct{ Status uint32 }{0}))
				return
			}
		}()
	}
}

func TestDialAndExecute(t *testing.T) {
	srv := startTestServer(t)
	khPath := filepath.Join(t.TempDir(), "known_hosts")
	require.NoError(t, AppendKnownHost(khPath, srv.addr, srv.hostKey))

	cb, err := KnownHostsCallback(khPath)
	require.NoError(t, err)

	p := testProfile(srv.host, srv.port)
	p.Options.KeepaliveInterval = intPtr(50)
	p.Options.SkipBanner = true

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, p, Auth{Password: "secret"}, cb)
	require.NoError(t, err)

	out, err := conn.ExecuteCommand("uptime")
	require.NoError(t, err)
	assert.Equal(t, "ran: uptime", string(out))

	time.Sleep(200 * time.Millisecond)
	out, err = conn.ExecuteCommand("hostname")
	require.NoError(t, err, "answered keepalives keep the connection open")
	assert.Equal(t, "ran: hostname", string(out))
	assert.NoError(t, conn.Close())
}

func TestKeepaliveClosesUnresponsiveConnection(t *testing.T) {
	// Requests are read but never answered.
	srv := startServer(t, func(reqs <-chan *ssh.Request) {
		for range reqs {
		}
	})

	const interval = 30 * time.Millisecond
	p := testProfile(srv.host, srv.port)
	p.Options.SkipBanner = true
	p.Options.KeepaliveInterval = intPtr(int(interval / time.Millisecond))
	p.Options.KeepaliveCountMax = intPtr(2)

	conn, err := Dial(context.Background(), p, Auth{Password: "secret"}, ssh.FixedHostKey(srv.hostKey))
	require.NoError(t, err)
	start := time.Now()

	done := make(chan struct{})
	go func() {
		conn.GetClient().Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("connection still open after unanswered keepalives")
	}
	assert.GreaterOrEqual(t, time.Since(start), 2*interval)

	closed := make(chan struct{})
	go func() {
		conn.Close()
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("Close blocked after the keepalive loop gave up")
	}
}

func TestKeepaliveClosesDroppedConnection(t *testing.T) {
	srv := startServer(t, func(reqs <-chan *ssh.Request) {
		for range reqs {
		}
	})
	p := testProfile(srv.host, srv.port)
	p.Options.SkipBanner = true
	p.Options.KeepaliveInterval = intPtr(20)
	p.Options.KeepaliveCountMax = intPtr(3)

	conn, err := Dial(context.Background(), p, Auth{Password: "secret"}, ssh.FixedHostKey(srv.hostKey))
	require.NoError(t, err)
	defer conn.Close()

	// Cutting the transport from the client side makes every keepalive fail.
	require.NoError(t, conn.GetClient().Conn.Close())

	finished := make(chan struct{})
	go func() {
		conn.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(3 * time.Second):
		t.Fatal("keepalive loop kept running on a dead connection")
	}
}

func TestDialWrongPassword(t *testing.T) {
	srv := startTestServer(t)
	p := testProfile(srv.host, srv.port)
	p.Options.SkipBanner = true

	_, err := Dial(context.Background(), p, Auth{Password: "nope"}, ssh.FixedHostKey(srv.hostKey))
	assert.ErrorIs(t, err, &apperr.AppError{Type: apperr.ConnectionError})
}

func TestFetchHostKey(t *testing.T) {
	srv := startTestServer(t)

	key, err := FetchHostKey(context.Background(), srv.addr, nil)
	require.NoError(t, err)
	assert.Equal(t, srv.hostKey.Marshal(), key.Marshal())
}

func TestKnownHostsUnknownAndReplace(t *testing.T) {
	srv := startTestServer(t)
	khPath := filepath.Join(t.TempDir(), "sub", "known_hosts")

	cb, err := KnownHostsCallback(khPath)
	require.NoError(t, err)
	remote, _ := net.ResolveTCPAddr("tcp", srv.addr)
	err = cb(srv.addr, remote, srv.hostKey)
	require.Error(t, err)
	assert.True(t, IsUnknownHost(err))

	_, priv, _ := ed25519.GenerateKey(rand.Reader)
	other, _ := ssh.NewSignerFromKey(priv)
	require.NoError(t, AppendKnownHost(khPath, srv.addr, other.PublicKey()))
	require.NoError(t, AppendKnownHost(khPath, srv.addr, srv.hostKey))

	content, err := os.ReadFile(khPath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(content), "\n"))

	cb, err = KnownHostsCallback(khPath)
	require.NoError(t, err)
	assert.NoError(t, cb(srv.addr, remote, srv.hostKey))

	err = cb(srv.addr, remote, other.PublicKey())
	require.Error(t, err)
	assert.False(t, IsUnknownHost(err))
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "[::1]:2222", Address(testProfile("::1", 2222)))
	assert.Equal(t, "example.com:22", Address(testProfile("example.com", 22)))
}
