// internal/profiles/provider.go
//
// Package profiles ties the algorithm catalog and the quick-connect parser to
// SSH profiles: it seeds new profiles with defaults, builds quick-connect
// profiles and forwards profile deletion to the credential store.

package profiles

import (
	"fmt"

	"sshProfiles/internal/algorithms"
	"sshProfiles/internal/endpoint"
	apperr "sshProfiles/internal/error"
	"sshProfiles/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const TemplateID = "ssh:template"

// CredentialStore removes the password stored for a profile.
type CredentialStore interface {
	DeletePassword(profile models.Profile) error
}

type Provider struct {
	resolved algorithms.Resolved
	store    CredentialStore
	log      *logrus.Entry
}

// NewProvider resolves the algorithm tables once. A table set missing a
// category fails here, not when a profile is later created.
func NewProvider(tables algorithms.Tables, blacklist algorithms.Blacklist, store CredentialStore) (*Provider, error) {
	resolved, err := algorithms.Resolve(tables, blacklist)
	if err != nil {
		return nil, err
	}
	return &Provider{
		resolved: resolved,
		store:    store,
		log:      logrus.WithField("component", "profiles"),
	}, nil
}

func (p *Provider) ID() string                 { return models.ProfileType }
func (p *Provider) Name() string               { return "SSH" }
func (p *Provider) SupportsQuickConnect() bool { return true }

// Resolved returns the algorithm catalog the provider was built with.
func (p *Provider) Resolved() algorithms.Resolved {
	return p.resolved
}

// SupportedAlgorithms returns a copy of the selectable algorithms per category.
func (p *Provider) SupportedAlgorithms() map[algorithms.Category][]string {
	out := make(map[algorithms.Category][]string, len(p.resolved.Supported))
	for _, cat := range algorithms.Categories() {
		out[cat] = p.resolved.SupportedFor(cat)
	}
	return out
}

// ConfigDefaults returns fresh default options for a new profile.
func (p *Provider) ConfigDefaults() models.Options {
	return SeedConfig(p.resolved)
}

func (p *Provider) BuiltinProfiles() []models.Profile {
	return []models.Profile{BuiltinTemplate()}
}

// QuickConnect turns a "user@host:port" query into a profile named after the
// query itself.
func (p *Provider) QuickConnect(query string) models.Profile {
	ep := endpoint.Parse(query)
	return models.Profile{
		Name: query,
		Type: models.ProfileType,
		Options: models.Options{
			Host: ep.Host,
			User: ep.User,
			Port: ep.Port,
		},
	}
}

// NewProfile builds a complete, savable profile from a quick-connect query.
// When name is empty the query is used.
func (p *Provider) NewProfile(name, query string) models.Profile {
	quick := p.QuickConnect(query)
	opts := p.ConfigDefaults()
	opts.Host = quick.Options.Host
	opts.User = quick.Options.User
	opts.Port = quick.Options.Port

	if name == "" {
		name = quick.Name
	}
	return models.Profile{
		ID:      fmt.Sprintf("%s:%s", models.ProfileType, uuid.NewString()),
		Type:    models.ProfileType,
		Name:    name,
		Options: opts,
	}
}

// Prepare returns a copy of profile whose algorithm lists hold only names
// the catalog allows, in the profile's order. Categories the profile does not
// mention get the catalog defaults. A category left empty is an error: the
// engine's own defaults would bring blacklisted algorithms back.
func (p *Provider) Prepare(profile models.Profile) (models.Profile, error) {
	out := profile
	out.Options = profile.Options.Clone()
	if out.Options.Algorithms == nil {
		out.Options.Algorithms = models.Algorithms{}
	}
	defaults := p.resolved.Defaults()

	for _, cat := range algorithms.Categories() {
		names, ok := out.Options.Algorithms[cat]
		if !ok {
			names = defaults[cat]
		}
		allowed := p.resolved.Restrict(cat, names)
		if dropped := p.resolved.Unsupported(cat, names); len(dropped) > 0 {
			p.log.WithFields(logrus.Fields{
				"profile":  profile.Name,
				"category": cat.String(),
				"dropped":  dropped,
			}).Warn("ignoring algorithms that are blacklisted or unsupported")
		}
		if len(allowed) == 0 {
			return models.Profile{}, apperr.New(apperr.ValidationError,
				fmt.Sprintf("no usable %s algorithm", cat.Title()), nil)
		}
		out.Options.Algorithms[cat] = allowed
	}
	return out, nil
}

// DeleteProfile drops the stored password of profile. Store failures are
// logged and otherwise ignored.
func (p *Provider) DeleteProfile(profile models.Profile) {
	if p.store == nil {
		return
	}
	if err := p.store.DeletePassword(profile); err != nil {
		p.log.WithError(err).WithField("profile", profile.Name).Warn("could not delete stored password")
	}
}

// BuiltinTemplate is the profile new-profile forms start from.
func BuiltinTemplate() models.Profile {
	return models.Profile{
		ID:   TemplateID,
		Type: models.ProfileType,
		Name: "SSH connection",
		Icon: "fas fa-desktop",
		Options: models.Options{
			Host: "",
			Port: endpoint.DefaultPort,
			User: endpoint.DefaultUser,
		},
		IsBuiltin:  true,
		IsTemplate: true,
		Weight:     -1,
	}
}

// SeedConfig returns the default options of a new profile, with the
// algorithms enabled by default in resolved. Nothing in the result is shared
// with resolved or with earlier results.
func SeedConfig(resolved algorithms.Resolved) models.Options {
	return models.Options{
		Port:           endpoint.DefaultPort,
		User:           endpoint.DefaultUser,
		Auth:           models.AuthNone,
		PrivateKeys:    []string{},
		Algorithms:     models.Algorithms(resolved.Defaults()),
		ForwardedPorts: []models.ForwardedPort{},
		Scripts:        []models.LoginScript{},
	}
}

// Describe is the one-line description shown next to a profile.
func Describe(profile models.Profile) string {
	return profile.Options.Host
}
