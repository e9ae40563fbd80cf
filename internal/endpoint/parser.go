// internal/endpoint/parser.go
//
// Package endpoint turns quick-connect strings such as "user@host:port" or
// "user@[::1]:2222" into a user, host and port. Parsing is permissive: any
// input produces an Endpoint, possibly a useless one.

package endpoint

import (
	"net"
	"strconv"
	"strings"
)

const (
	DefaultUser = "root"
	DefaultPort = 22
)

// Endpoint is the result of Parse. A zero Port means the port text was empty
// or not a number.
type Endpoint struct {
	User string
	Host string
	Port int
}

// Parse splits raw into user, host and port. Rules, in order:
//
//   - everything before the last "@" is the user (so "a@b@host" has user "a@b");
//   - if the host part contains "[", the host is the text between the first
//     "[" and the first "]" after it, and the port is what follows that "]",
//     minus a leading ":". A "]" before the "[" is ignored;
//   - otherwise, if it contains ":", the host is the text before the first
//     colon and the port the text between the first and second colon.
//
// An unbracketed IPv6 literal therefore does not parse as a host.
func Parse(raw string) Endpoint {
	ep := Endpoint{User: DefaultUser, Host: raw, Port: DefaultPort}

	if i := strings.LastIndex(ep.Host, "@"); i >= 0 {
		ep.User = ep.Host[:i]
		ep.Host = ep.Host[i+1:]
	}

	if open := strings.Index(ep.Host, "["); open >= 0 {
		rest := ep.Host[open+1:]
		closing := strings.Index(rest, "]")
		if closing < 0 {
			ep.Host, ep.Port = rest, 0
			return ep
		}
		ep.Port = parsePort(strings.TrimPrefix(rest[closing+1:], ":"))
		ep.Host = rest[:closing]
	} else if colon := strings.Index(ep.Host, ":"); colon >= 0 {
		port := ep.Host[colon+1:]
		if next := strings.Index(port, ":"); next >= 0 {
			port = port[:next]
		}
		ep.Port = parsePort(port)
		ep.Host = ep.Host[:colon]
	}
	return ep
}

// parsePort reads a leading decimal integer the way quick-connect always has:
// surrounding whitespace and a sign are accepted, trailing garbage is ignored.
// Anything without a leading digit yields 0.
func parsePort(s string) int {
	s = strings.TrimLeft(s, " \t\n\r\v\f")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	if neg {
		return -n
	}
	return n
}

// Valid reports whether the endpoint can be dialed as is.
func (e Endpoint) Valid() bool {
	return e.Host != "" && e.Port > 0 && e.Port <= 65535
}

// Address is the host:port form accepted by net.Dial.
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

func (e Endpoint) String() string {
	return e.User + "@" + e.Address()
}
