// internal/algorithms/category.go

package algorithms

import "fmt"

// Category is one of the negotiable SSH capability classes.
type Category int

const (
	KeyExchange Category = iota
	HostKey
	Cipher
	MessageAuth
)

var categoryNames = [...]string{
	KeyExchange: "kex",
	HostKey:     "serverHostKey",
	Cipher:      "cipher",
	MessageAuth: "hmac",
}

// Categories returns every category in declaration order.
func Categories() []Category {
	return []Category{KeyExchange, HostKey, Cipher, MessageAuth}
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Title is the human readable label used by the CLI.
func (c Category) Title() string {
	switch c {
	case KeyExchange:
		return "Key exchange"
	case HostKey:
		return "Host key"
	case Cipher:
		return "Cipher"
	case MessageAuth:
		return "MAC"
	}
	return c.String()
}

func (c Category) MarshalText() ([]byte, error) {
	if c < 0 || int(c) >= len(categoryNames) {
		return nil, fmt.Errorf("unknown algorithm category %d", int(c))
	}
	return []byte(categoryNames[c]), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	cat, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = cat
	return nil
}

// ParseCategory maps the text form ("kex", "serverHostKey", "cipher", "hmac")
// back to a Category.
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown algorithm category %q", s)
}
