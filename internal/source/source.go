// Package source reads joke performance events from a SQLite database or a
// CSV export of the same table.
package source

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/setlist-cli/internal/model"
)

var (
	// ErrUpstream wraps any failure while reading from the backing store.
	ErrUpstream = errors.New("upstream read failed")
	// ErrUnsupported indicates no opener handles the given path.
	ErrUnsupported = errors.New("unsupported source format")
)

// Kind selects which slice of the jokes table a Query returns.
type Kind int

const (
	// Scored returns every row with a score.
	Scored Kind = iota
	// Preceding returns scored rows joined with the joke told just before
	// them in the same set. Both jokes must occur at least MinOccurrences times.
	Preceding
	// AnchorSets returns the other jokes of every set in which Anchor scored
	// above its own average.
	AnchorSets
)

func (k Kind) String() string {
	switch k {
	case Scored:
		return "scored"
	case Preceding:
		return "preceding"
	case AnchorSets:
		return "anchor-sets"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// DefaultMinOccurrences is the occurrence floor used by Preceding queries when none is set.
const DefaultMinOccurrences = 5

// Query describes one read against a Source.
type Query struct {
	Kind           Kind
	Anchor         string // AnchorSets only
	MinOccurrences int    // Preceding only
}

// Source yields events. Implementations return either every matching event
// or an error wrapping ErrUpstream, never a partial result.
type Source interface {
	Events(ctx context.Context, q Query) ([]model.Event, error)
	Close() error
}

// Opener constructs a Source for the files it recognises.
type Opener interface {
	CanOpen(path string) bool
	Open(path string) (Source, error)
}

var registry []Opener

// Register adds an opener. Later registrations are tried after earlier ones.
func Register(o Opener) {
	registry = append(registry, o)
}

// Open picks an opener by file extension.
func Open(path string) (Source, error) {
	for _, o := range registry {
		if o.CanOpen(path) {
			return o.Open(path)
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func init() {
	Register(sqliteOpener{})
	Register(csvOpener{})
	Register(xlsxOpener{})
}
