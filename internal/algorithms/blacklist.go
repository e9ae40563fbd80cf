package algorithms

import "sort"

// Blacklist is an immutable set of algorithm names that are never offered,
// whatever the engine supports.
type Blacklist struct {
	names map[string]struct{}
}

var defaultBlacklist = []string{
	"diffie-hellman-group-exchange-sha1",
	"diffie-hellman-group-exchange-sha256",
}

// DefaultBlacklist returns the built-in exclusion set.
func DefaultBlacklist() Blacklist {
	return NewBlacklist(defaultBlacklist...)
}

func NewBlacklist(names ...string) Blacklist {
	b := Blacklist{names: make(map[string]struct{}, len(names))}
	for _, name := range names {
		b.names[name] = struct{}{}
	}
	return b
}

// Union returns a new set holding the names of b plus extra.
func (b Blacklist) Union(extra ...string) Blacklist {
	out := NewBlacklist(extra...)
	for name := range b.names {
		out.names[name] = struct{}{}
	}
	return out
}

func (b Blacklist) Contains(name string) bool {
	_, ok := b.names[name]
	return ok
}

// Names returns the members in sorted order.
func (b Blacklist) Names() []string {
	out := make([]string, 0, len(b.names))
	for name := range b.names {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (b Blacklist) Len() int {
	return len(b.names)
}
