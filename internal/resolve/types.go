// Package resolve decides which formatter executable to invoke.
//
// Three tiers are tried in order, each short-circuiting on success: an
// explicitly configured path, the process search path, and a copy acquired
// into private storage.
package resolve

import (
	"errors"
	"time"
)

// ErrConfiguredPathMissing is returned when a configured executable path
// does not exist.
var ErrConfiguredPathMissing = errors.New("configured executable not found")

// Mode records how a binary location was determined.
type Mode int

const (
	// ModeConfiguration means the path came from configuration.
	ModeConfiguration Mode = iota
	// ModeSearchPath means the executable was found on the search path.
	ModeSearchPath
	// ModeBundled means the executable lives in private storage.
	ModeBundled
)

func (m Mode) String() string {
	switch m {
	case ModeConfiguration:
		return "configuration"
	case ModeSearchPath:
		return "search-path"
	case ModeBundled:
		return "bundled"
	default:
		return "unknown"
	}
}

// Variant selects one of the two tracked executables.
type Variant int

const (
	// VariantStandard is the default formatter build.
	VariantStandard Variant = iota
	// VariantSecondary is the alternate dialect build.
	VariantSecondary
)

func (v Variant) String() string {
	switch v {
	case VariantStandard:
		return "standard"
	case VariantSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// Binary is the outcome of one resolution pass. A Binary is never modified
// after it has been published; a later pass replaces it.
type Binary struct {
	Standard  string
	Secondary string
	Mode      Mode

	// Version is the version reported by Standard, empty when unknown.
	Version string

	// Generation increases with every published pass.
	Generation uint64
	ResolvedAt time.Time
}

// Path returns the executable for variant.
func (b *Binary) Path(variant Variant) string {
	if variant == VariantSecondary && b.Secondary != "" {
		return b.Secondary
	}
	return b.Standard
}

// Stamp returns a copy of b carrying generation and resolution time.
func (b *Binary) Stamp(generation uint64, at time.Time) *Binary {
	c := *b
	c.Generation = generation
	c.ResolvedAt = at
	return &c
}
