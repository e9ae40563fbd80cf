package endpoint

import (
	"strings"
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want Endpoint
	}{
		{"root@example.com", Endpoint{"root", "example.com", 22}},
		{"example.com:2222", Endpoint{"root", "example.com", 2222}},
		{"user@[::1]:2222", Endpoint{"user", "::1", 2222}},
		{"a@b@example.com", Endpoint{"a@b", "example.com", 22}},
		{"justahost", Endpoint{"root", "justahost", 22}},
		{"admin@10.0.0.1:2200", Endpoint{"admin", "10.0.0.1", 2200}},
		{"[fe80::1]:22", Endpoint{"root", "fe80::1", 22}},
		{"@host", Endpoint{"", "host", 22}},
		{"", Endpoint{"root", "", 22}},
		{"user@", Endpoint{"user", "", 22}},

		// permissive port handling
		{"host:", Endpoint{"root", "host", 0}},
		{"host:abc", Endpoint{"root", "host", 0}},
		{"host:22abc", Endpoint{"root", "host", 22}},
		{"host: 23", Endpoint{"root", "host", 23}},
		{"host:-5", Endpoint{"root", "host", -5}},
		{"[::1]", Endpoint{"root", "::1", 0}},
		{"[::1]2222", Endpoint{"root", "::1", 2222}},
		{"[::1", Endpoint{"root", "::1", 0}},

		// "]" is looked up after the first "[", so a stray one before it is
		// part of the ignored prefix
		{"a]b[c]:2", Endpoint{"root", "c", 2}},
		{"u@x]y[::1]:2200", Endpoint{"u", "::1", 2200}},
		{"x]:5", Endpoint{"root", "x]", 5}},

		// only the first colon counts for unbracketed hosts
		{"fe80::1", Endpoint{"root", "fe80", 0}},
		{"host:22:33", Endpoint{"root", "host", 22}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.raw))
		})
	}
}

func TestParseNeverPanics(t *testing.T) {
	require.NoError(t, quick.Check(func(raw string) bool {
		_ = Parse(raw)
		return true
	}, nil))
}

func TestParseUserKeepsAtSigns(t *testing.T) {
	prop := func(user, host string) bool {
		host = strings.NewReplacer("@", "", "[", "", ":", "").Replace(host)
		ep := Parse(user + "@" + host)
		return ep.User == user && ep.Host == host && ep.Port == DefaultPort
	}
	require.NoError(t, quick.Check(prop, nil))
}

func TestEndpointValidAndString(t *testing.T) {
	assert.True(t, Parse("example.com").Valid())
	assert.False(t, Parse("example.com:").Valid())
	assert.False(t, Parse("example.com:70000").Valid())
	assert.False(t, Parse("user@").Valid())

	assert.Equal(t, "user@[::1]:2222", Parse("user@[::1]:2222").String())
	assert.Equal(t, "example.com:22", Parse("root@example.com").Address())
}
