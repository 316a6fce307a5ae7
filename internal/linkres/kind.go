package linkres

import "fmt"

// Kind classifies a resolved link.
type Kind int

const (
	kindInternal Kind = iota // transient; never returned by Resolve
	External
	Section
	Interwiki
	Relative
	Absolute
)

// String returns the lower-case name used in reports and JSON.
func (k Kind) String() string {
	switch k {
	case External:
		return "external"
	case Section:
		return "section"
	case Interwiki:
		return "interwiki"
	case Relative:
		return "relative"
	case Absolute:
		return "absolute"
	default:
		return "internal"
	}
}

// MarshalText lets Kind serialise as its name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a name produced by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	for c := External; c <= Absolute; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("linkres: unknown link kind %q", b)
}

// IsPage reports whether the link targets a wiki page and therefore becomes a graph edge.
func (k Kind) IsPage() bool {
	return k == Relative || k == Absolute
}

// Link is the outcome of resolving one raw link.
type Link struct {
	Target string `json:"target"`
	Kind   Kind   `json:"kind"`
}
