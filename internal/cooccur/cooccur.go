// Package cooccur scores how well pairs of top groups do when performed in
// the same set.
package cooccur

import (
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/setlist-cli/internal/aggregate"
	"github.com/KaramelBytes/setlist-cli/internal/grouping"
	"github.com/KaramelBytes/setlist-cli/internal/model"
)

// ErrUnknownMode is returned by ParseMode for unsupported cell modes.
var ErrUnknownMode = errors.New("unknown co-occurrence mode")

// Mode decides how repeated co-occurrences of the same pair fill a cell.
type Mode string

const (
	// Overwrite keeps the value of the last co-occurrence in set order.
	Overwrite Mode = "overwrite"
	// Average keeps the mean over every co-occurrence.
	Average Mode = "average"
)

// ParseMode maps a config or flag value to a Mode. Empty means Overwrite.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Overwrite:
		return Overwrite, nil
	case Average:
		return Average, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// Matrix is a square, symmetric score matrix over Labels.
type Matrix struct {
	Labels []string    `json:"labels" yaml:"labels"`
	Values [][]float64 `json:"values" yaml:"values"`
}

func newMatrix(labels []string) *Matrix {
	m := &Matrix{Labels: append([]string(nil), labels...), Values: make([][]float64, len(labels))}
	for i := range m.Values {
		m.Values[i] = make([]float64, len(labels))
	}
	return m
}

// Len returns the matrix dimension.
func (m *Matrix) Len() int { return len(m.Labels) }

// At returns the cell at row i, column j.
func (m *Matrix) At(i, j int) float64 { return m.Values[i][j] }

// Symmetric reports whether the matrix equals its transpose and has a zero diagonal.
func (m *Matrix) Symmetric() bool {
	for i := range m.Values {
		if m.Values[i][i] != 0 {
			return false
		}
		for j := i + 1; j < len(m.Values); j++ {
			if m.Values[i][j] != m.Values[j][i] {
				return false
			}
		}
	}
	return true
}

type set struct {
	groups []string
	scores []float64
}

// Build computes the pair matrix for the groups in top. Scored events are
// partitioned into sets by their SetKey; within a set every pair of events
// whose groups are both in top contributes (s_i + s_j) / 2 to its cell.
// Pairs of the same group are ignored so the diagonal stays zero.
func Build(events []model.Event, idx *grouping.Index, top []string, mode Mode) (*Matrix, error) {
	if mode == "" {
		mode = Overwrite
	}
	if mode != Overwrite && mode != Average {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}

	col := make(map[string]int, len(top))
	for i, g := range top {
		col[g] = i
	}
	m := newMatrix(top)

	var (
		order []model.SetKey
		sets  = make(map[model.SetKey]*set)
	)
	for i, e := range events {
		if !e.HasScore() {
			continue
		}
		g, ok := idx.Lookup(e.ID)
		if !ok {
			return nil, fmt.Errorf("%w: event %d id %q", aggregate.ErrUnmappedIdentifier, i, e.ID)
		}
		if _, ok := col[g]; !ok {
			continue
		}
		s, ok := sets[e.Key]
		if !ok {
			s = &set{}
			sets[e.Key] = s
			order = append(order, e.Key)
		}
		s.groups = append(s.groups, g)
		s.scores = append(s.scores, *e.Score)
	}

	var counts [][]int
	if mode == Average {
		counts = make([][]int, len(top))
		for i := range counts {
			counts[i] = make([]int, len(top))
		}
	}

	for _, k := range order {
		s := sets[k]
		for i := 0; i < len(s.groups); i++ {
			for j := i + 1; j < len(s.groups); j++ {
				a, b := col[s.groups[i]], col[s.groups[j]]
				if a == b {
					continue
				}
				v := (s.scores[i] + s.scores[j]) / 2
				switch mode {
				case Overwrite:
					m.Values[a][b], m.Values[b][a] = v, v
				case Average:
					m.Values[a][b] += v
					counts[a][b]++
				}
			}
		}
	}

	if mode == Average {
		// Accumulated in whichever orientation each pair arrived; fold and mirror.
		for a := range top {
			for b := a + 1; b < len(top); b++ {
				n := counts[a][b] + counts[b][a]
				if n == 0 {
					continue
				}
				v := (m.Values[a][b] + m.Values[b][a]) / float64(n)
				m.Values[a][b], m.Values[b][a] = v, v
			}
		}
	}
	return m, nil
}
