// Package aggregate computes per-group statistics over events whose
// identifiers have been remapped through a frozen grouping index.
package aggregate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KaramelBytes/setlist-cli/internal/grouping"
	"github.com/KaramelBytes/setlist-cli/internal/model"
)

// ErrUnmappedIdentifier means an event references an identifier the index does not know.
var ErrUnmappedIdentifier = errors.New("identifier missing from grouping index")

// Remapped is an event with identifiers replaced by canonical group ids.
type Remapped struct {
	Group       string
	Predecessor string // empty when the event has no predecessor
	Score       *float64
	Key         model.SetKey
}

// Remap replaces current and predecessor identifiers with canonical ids.
// It fails rather than skip events, so aggregation never sees a partial remap.
func Remap(events []model.Event, idx *grouping.Index) ([]Remapped, error) {
	out := make([]Remapped, 0, len(events))
	for i, e := range events {
		g, ok := idx.Lookup(e.ID)
		if !ok {
			return nil, fmt.Errorf("%w: event %d id %q", ErrUnmappedIdentifier, i, e.ID)
		}
		r := Remapped{Group: g, Score: e.Score, Key: e.Key}
		if e.HasPredecessor() {
			p, ok := idx.Lookup(*e.Predecessor)
			if !ok {
				return nil, fmt.Errorf("%w: event %d predecessor %q", ErrUnmappedIdentifier, i, *e.Predecessor)
			}
			r.Predecessor = p
		}
		out = append(out, r)
	}
	return out, nil
}

// DropStats counts records excluded from pairwise aggregation.
type DropStats struct {
	Total              int `json:"total" yaml:"total"`
	Kept               int `json:"kept" yaml:"kept"`
	MissingScore       int `json:"missing_score" yaml:"missing_score"`
	MissingPredecessor int `json:"missing_predecessor" yaml:"missing_predecessor"`
}

// Add merges other into d.
func (d *DropStats) Add(other DropStats) {
	d.Total += other.Total
	d.Kept += other.Kept
	d.MissingScore += other.MissingScore
	d.MissingPredecessor += other.MissingPredecessor
}

// Dropped returns the number of excluded records.
func (d DropStats) Dropped() int { return d.MissingScore + d.MissingPredecessor }

// PairStat aggregates every scored record for one (group, predecessor) pair.
type PairStat struct {
	Group       string  `json:"group" yaml:"group"`
	Predecessor string  `json:"predecessor" yaml:"predecessor"`
	Count       int     `json:"count" yaml:"count"`
	Sum         float64 `json:"sum" yaml:"sum"`
	Mean        float64 `json:"mean" yaml:"mean"`
}

type pairKey struct{ group, pred string }

// PairTable is the intermediate grouped table, ordered by first appearance
// of each pair in the input.
type PairTable struct {
	rows []PairStat
}

// Rows returns a copy of the pair rows in first-appearance order.
func (t *PairTable) Rows() []PairStat {
	if t == nil {
		return nil
	}
	return append([]PairStat(nil), t.rows...)
}

// Len returns the number of pairs.
func (t *PairTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Pairs groups records by (group, predecessor) and computes count and mean.
// Records without a score or without a predecessor are dropped and counted.
func Pairs(records []Remapped) (*PairTable, DropStats) {
	stats := DropStats{Total: len(records)}
	pos := make(map[pairKey]int)
	t := &PairTable{}
	for _, r := range records {
		if r.Score == nil {
			stats.MissingScore++
			continue
		}
		if r.Predecessor == "" {
			stats.MissingPredecessor++
			continue
		}
		stats.Kept++
		k := pairKey{r.Group, r.Predecessor}
		i, ok := pos[k]
		if !ok {
			i = len(t.rows)
			pos[k] = i
			t.rows = append(t.rows, PairStat{Group: r.Group, Predecessor: r.Predecessor})
		}
		t.rows[i].Count++
		t.rows[i].Sum += *r.Score
	}
	for i := range t.rows {
		t.rows[i].Mean = t.rows[i].Sum / float64(t.rows[i].Count)
	}
	return t, stats
}

// Best is the one-row-per-group result of best-predecessor selection.
type Best struct {
	Group       string  `json:"group" yaml:"group"`
	Predecessor string  `json:"predecessor" yaml:"predecessor"`
	MeanScore   float64 `json:"mean_score" yaml:"mean_score"`
	Count       int     `json:"count" yaml:"count"`
}

// BestPredecessors picks, per group, the predecessor with the highest mean
// score. Ties keep the pair that appears first in the table. The result is
// stably sorted by count descending; equal counts keep group first-appearance order.
func BestPredecessors(t *PairTable) []Best {
	pos := make(map[string]int)
	var out []Best
	for _, p := range t.Rows() {
		i, ok := pos[p.Group]
		if !ok {
			pos[p.Group] = len(out)
			out = append(out, Best{Group: p.Group, Predecessor: p.Predecessor, MeanScore: p.Mean, Count: p.Count})
			continue
		}
		if p.Mean > out[i].MeanScore {
			out[i] = Best{Group: p.Group, Predecessor: p.Predecessor, MeanScore: p.Mean, Count: p.Count}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}
