// Package sink is where commands send their tables, series and reports.
package sink

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyName is returned when an output has no name.
var ErrEmptyName = errors.New("output name is empty")

// Kind classifies an output and picks its default file extension.
type Kind string

const (
	Table  Kind = "table"
	Series Kind = "series"
	Matrix Kind = "matrix"
	Graph  Kind = "graph"
	Report Kind = "report"
)

// Ext returns the default file extension for the kind.
func (k Kind) Ext() string {
	switch k {
	case Series:
		return ".yaml"
	case Report:
		return ".md"
	default:
		return ".csv"
	}
}

// Sink opens named outputs.
type Sink interface {
	Open(kind Kind, name string) (io.WriteCloser, error)
}

// Aborter is implemented by writers that can discard what was written
// instead of committing it on Close.
type Aborter interface {
	Abort() error
}

// Write opens an output, hands it to fn, and always releases it. When fn
// fails an Aborter is aborted so no partial output is committed; otherwise
// the output is closed and any close error is joined with fn's result.
func Write(s Sink, kind Kind, name string, fn func(io.Writer) error) (err error) {
	w, err := s.Open(kind, name)
	if err != nil {
		return fmt.Errorf("open %s %q: %w", kind, name, err)
	}
	defer func() {
		if err != nil {
			if a, ok := w.(Aborter); ok {
				err = errors.Join(err, a.Abort())
				return
			}
		}
		if cerr := w.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("close %s %q: %w", kind, name, cerr))
		}
	}()
	return fn(w)
}

func validName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid output name %q", name)
	}
	return name, nil
}
