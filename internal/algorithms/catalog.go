// internal/algorithms/catalog.go
//
// Package algorithms computes, per algorithm category, which SSH algorithms a
// profile may select and which are enabled when the profile does not say
// otherwise. The input tables come from the SSH engine; an exclusion list is
// applied on top of whatever the engine reports.

package algorithms

import (
	"fmt"
	"sort"

	"golang.org/x/crypto/ssh"
)

// Table holds the engine's algorithm names for a single category, in the
// engine's own order.
type Table struct {
	Supported []string
	Default   []string
}

// Tables maps every category to the engine's table for it.
type Tables map[Category]Table

// Resolved is the blacklist-filtered, sorted view of Tables.
type Resolved struct {
	Supported        map[Category][]string
	EnabledByDefault map[Category][]string
}

// MissingCategoryError is returned by Resolve when the engine tables lack a
// category entirely.
type MissingCategoryError struct {
	Category Category
}

func (e *MissingCategoryError) Error() string {
	return fmt.Sprintf("algorithm tables have no entry for category %q", e.Category)
}

// EngineTables reads the capability tables of golang.org/x/crypto/ssh.
// Supported lists everything the package implements, insecure algorithms
// included; Default lists only the ones it considers safe.
func EngineTables() Tables {
	safe := ssh.SupportedAlgorithms()
	insecure := ssh.InsecureAlgorithms()

	join := func(a, b []string) []string {
		out := make([]string, 0, len(a)+len(b))
		out = append(out, a...)
		return append(out, b...)
	}

	return Tables{
		KeyExchange: {Supported: join(safe.KeyExchanges, insecure.KeyExchanges), Default: clone(safe.KeyExchanges)},
		HostKey:     {Supported: join(safe.HostKeys, insecure.HostKeys), Default: clone(safe.HostKeys)},
		Cipher:      {Supported: join(safe.Ciphers, insecure.Ciphers), Default: clone(safe.Ciphers)},
		MessageAuth: {Supported: join(safe.MACs, insecure.MACs), Default: clone(safe.MACs)},
	}
}

// Resolve filters both lists of every category through the blacklist and
// sorts the remainder. Duplicates in the input are preserved.
func Resolve(tables Tables, blacklist Blacklist) (Resolved, error) {
	r := Resolved{
		Supported:        make(map[Category][]string, len(categoryNames)),
		EnabledByDefault: make(map[Category][]string, len(categoryNames)),
	}
	for _, cat := range Categories() {
		t, ok := tables[cat]
		if !ok {
			return Resolved{}, &MissingCategoryError{Category: cat}
		}
		r.Supported[cat] = filterSorted(t.Supported, blacklist)
		r.EnabledByDefault[cat] = filterSorted(t.Default, blacklist)
	}
	return r, nil
}

func filterSorted(names []string, blacklist Blacklist) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if blacklist.Contains(name) {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SupportedFor returns a copy of the supported list of cat.
func (r Resolved) SupportedFor(cat Category) []string {
	return clone(r.Supported[cat])
}

// Defaults returns a deep copy of EnabledByDefault, safe to hand to a
// profile.
func (r Resolved) Defaults() map[Category][]string {
	out := make(map[Category][]string, len(r.EnabledByDefault))
	for cat, names := range r.EnabledByDefault {
		out[cat] = clone(names)
	}
	return out
}

// Unsupported returns the names that are not in the supported list of cat,
// in the order given.
func (r Resolved) Unsupported(cat Category, names []string) []string {
	supported := make(map[string]struct{}, len(r.Supported[cat]))
	for _, name := range r.Supported[cat] {
		supported[name] = struct{}{}
	}
	var out []string
	for _, name := range names {
		if _, ok := supported[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

// Restrict keeps the names that are in the supported list of cat, in the
// order given. Blacklisted names never survive, whatever the engine supports.
func (r Resolved) Restrict(cat Category, names []string) []string {
	bad := make(map[string]struct{})
	for _, name := range r.Unsupported(cat, names) {
		bad[name] = struct{}{}
	}
	out := make([]string, 0, len(names))
	for _, name := range names {
		if _, ok := bad[name]; !ok {
			out = append(out, name)
		}
	}
	return out
}

func clone(s []string) []string {
	out := make([]string, len(s))
	copy(out, s)
	return out
}
