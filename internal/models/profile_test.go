package models

import (
	"encoding/json"
	"testing"

	"sshProfiles/internal/algorithms"
	"sshProfiles/internal/crypto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionsClone(t *testing.T) {
	interval := 5000
	warn := true
	orig := Options{
		Host:              "example.com",
		Port:              22,
		PrivateKeys:       []string{"~/.ssh/id_ed25519"},
		KeepaliveInterval: &interval,
		WarnOnClose:       &warn,
		Algorithms:        Algorithms{algorithms.Cipher: {"aes128-ctr"}},
		ForwardedPorts:    []ForwardedPort{{Type: PortForwardLocal, Host: "127.0.0.1", Port: 8080}},
	}

	cp := orig.Clone()
	cp.PrivateKeys[0] = "changed"
	cp.Algorithms[algorithms.Cipher][0] = "changed"
	*cp.KeepaliveInterval = 1
	*cp.WarnOnClose = false
	cp.ForwardedPorts[0].Port = 1

	assert.Equal(t, "~/.ssh/id_ed25519", orig.PrivateKeys[0])
	assert.Equal(t, "aes128-ctr", orig.Algorithms[algorithms.Cipher][0])
	assert.Equal(t, 5000, *orig.KeepaliveInterval)
	assert.True(t, *orig.WarnOnClose)
	assert.Equal(t, 8080, orig.ForwardedPorts[0].Port)
	assert.Nil(t, Options{}.Clone().KeepaliveCountMax)
}

func TestProfileJSON(t *testing.T) {
	p := Profile{
		ID:   "ssh:1",
		Type: ProfileType,
		Name: "web",
		Options: Options{
			Host:       "web",
			Port:       22,
			User:       "root",
			Algorithms: Algorithms{algorithms.KeyExchange: {"curve25519-sha256"}, algorithms.HostKey: {"ssh-ed25519"}},
		},
	}
	data, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"algorithms":{"kex":["curve25519-sha256"],"serverHostKey":["ssh-ed25519"]}`)
	assert.NotContains(t, string(data), "keepaliveInterval")

	var back Profile
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back)
}

func TestProfileValidate(t *testing.T) {
	p := Profile{Name: "x", Options: Options{Host: "h", Port: 22}}
	require.NoError(t, p.Validate())

	bad := p
	bad.Options.Port = 0
	assert.Error(t, bad.Validate())

	bad = p
	bad.Name = ""
	assert.Error(t, bad.Validate())

	bad = p
	bad.Options.ForwardedPorts = []ForwardedPort{{Type: "Sideways"}}
	assert.Error(t, bad.Validate())

	for _, auth := range []AuthMethod{AuthNone, AuthPassword, AuthPublicKey, AuthAgent, AuthKeyboardInteractive} {
		ok := p
		ok.Options.Auth = auth
		assert.NoError(t, ok.Validate(), string(auth))
	}
	bad = p
	bad.Options.Auth = "bogus"
	assert.ErrorContains(t, bad.Validate(), `invalid auth method "bogus"`)
}

func TestCredential(t *testing.T) {
	c, err := crypto.NewCipher("master")
	require.NoError(t, err)

	p := Profile{Options: Options{Host: "db", Port: 5022, User: "app"}}
	assert.Equal(t, "ssh@db:5022", p.CredentialKey())

	cred, err := NewCredential(p, "pw", c)
	require.NoError(t, err)
	assert.True(t, cred.Matches(p))

	plain, err := cred.GetDecrypted(c)
	require.NoError(t, err)
	assert.Equal(t, "pw", plain)

	other := p
	other.Options.User = "root"
	assert.False(t, cred.Matches(other))

	_, err = NewCredential(p, "", c)
	assert.Error(t, err)
	_, err = NewCredential(Profile{}, "pw", c)
	assert.Error(t, err)
}
