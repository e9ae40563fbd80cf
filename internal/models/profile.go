// internal/models/profile.go

package models

import (
	"errors"
	"fmt"
	"strconv"

	"sshProfiles/internal/algorithms"
)

const ProfileType = "ssh"

// AuthMethod wybiera sposób uwierzytelnienia; pusty oznacza "spróbuj wszystkiego".
type AuthMethod string

const (
	AuthNone                AuthMethod = ""
	AuthPassword            AuthMethod = "password"
	AuthPublicKey           AuthMethod = "publicKey"
	AuthAgent               AuthMethod = "agent"
	AuthKeyboardInteractive AuthMethod = "keyboardInteractive"
)

// Valid reports whether a is one of the known methods.
func (a AuthMethod) Valid() bool {
	switch a {
	case AuthNone, AuthPassword, AuthPublicKey, AuthAgent, AuthKeyboardInteractive:
		return true
	}
	return false
}

// Algorithms holds the algorithm names a profile negotiates, per category.
type Algorithms map[algorithms.Category][]string

// Clone returns a deep copy so profiles never share the underlying slices.
func (a Algorithms) Clone() Algorithms {
	if a == nil {
		return nil
	}
	out := make(Algorithms, len(a))
	for cat, names := range a {
		cp := make([]string, len(names))
		copy(cp, names)
		out[cat] = cp
	}
	return out
}

type PortForwardType string

const (
	PortForwardLocal   PortForwardType = "Local"
	PortForwardRemote  PortForwardType = "Remote"
	PortForwardDynamic PortForwardType = "Dynamic"
)

type ForwardedPort struct {
	Type          PortForwardType `json:"type"`
	Host          string          `json:"host"`
	Port          int             `json:"port"`
	TargetAddress string          `json:"targetAddress,omitempty"`
	TargetPort    int             `json:"targetPort,omitempty"`
	Description   string          `json:"description,omitempty"`
}

// LoginScript sends Send once Expect shows up in the session output.
type LoginScript struct {
	Expect   string `json:"expect"`
	Send     string `json:"send"`
	IsRegex  bool   `json:"isRegex,omitempty"`
	Optional bool   `json:"optional,omitempty"`
}

// Options are the connection settings of a profile. Pointer fields are unset
// when nil; durations are in milliseconds.
type Options struct {
	Host              string          `json:"host"`
	Port              int             `json:"port"`
	User              string          `json:"user"`
	Auth              AuthMethod      `json:"auth,omitempty"`
	PrivateKeys       []string        `json:"privateKeys"`
	KeepaliveInterval *int            `json:"keepaliveInterval,omitempty"`
	KeepaliveCountMax *int            `json:"keepaliveCountMax,omitempty"`
	ReadyTimeout      *int            `json:"readyTimeout,omitempty"`
	X11               bool            `json:"x11"`
	SkipBanner        bool            `json:"skipBanner"`
	JumpHost          string          `json:"jumpHost,omitempty"`
	AgentForward      bool            `json:"agentForward"`
	WarnOnClose       *bool           `json:"warnOnClose,omitempty"`
	Algorithms        Algorithms      `json:"algorithms"`
	ProxyCommand      string          `json:"proxyCommand,omitempty"`
	ForwardedPorts    []ForwardedPort `json:"forwardedPorts"`
	Scripts           []LoginScript   `json:"scripts"`
}

// Clone copies every nested slice, map and pointer.
func (o Options) Clone() Options {
	out := o
	out.PrivateKeys = append([]string(nil), o.PrivateKeys...)
	out.ForwardedPorts = append([]ForwardedPort(nil), o.ForwardedPorts...)
	out.Scripts = append([]LoginScript(nil), o.Scripts...)
	out.Algorithms = o.Algorithms.Clone()
	out.KeepaliveInterval = cloneInt(o.KeepaliveInterval)
	out.KeepaliveCountMax = cloneInt(o.KeepaliveCountMax)
	out.ReadyTimeout = cloneInt(o.ReadyTimeout)
	if o.WarnOnClose != nil {
		v := *o.WarnOnClose
		out.WarnOnClose = &v
	}
	return out
}

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

type Profile struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Name       string  `json:"name"`
	Group      string  `json:"group,omitempty"`
	Icon       string  `json:"icon,omitempty"`
	Options    Options `json:"options"`
	IsBuiltin  bool    `json:"isBuiltin,omitempty"`
	IsTemplate bool    `json:"isTemplate,omitempty"`
	Weight     int     `json:"weight,omitempty"`
}

// CredentialKey identifies the stored password of the profile. Profiles that
// point at the same host and port share it.
func (p Profile) CredentialKey() string {
	return "ssh@" + p.Options.Host + ":" + strconv.Itoa(p.Options.Port)
}

// Validate sprawdza poprawność danych profilu
func (p *Profile) Validate() error {
	if p.Name == "" {
		return errors.New("name cannot be empty")
	}
	if p.Options.Host == "" {
		return errors.New("host cannot be empty")
	}
	if p.Options.Port <= 0 || p.Options.Port > 65535 {
		return fmt.Errorf("invalid port %d", p.Options.Port)
	}
	if !p.Options.Auth.Valid() {
		return fmt.Errorf("invalid auth method %q", p.Options.Auth)
	}
	for _, fp := range p.Options.ForwardedPorts {
		switch fp.Type {
		case PortForwardLocal, PortForwardRemote, PortForwardDynamic:
		default:
			return fmt.Errorf("invalid port forward type %q", fp.Type)
		}
	}
	return nil
}

// Config is the on-disk layout of the profile store.
type Config struct {
	Profiles    []Profile    `json:"profiles"`
	Credentials []Credential `json:"credentials"`
}
