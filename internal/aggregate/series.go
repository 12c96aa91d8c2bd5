package aggregate

import (
	"fmt"
	"sort"

	"github.com/KaramelBytes/setlist-cli/internal/grouping"
	"github.com/KaramelBytes/setlist-cli/internal/model"
)

// Frequency is the number of events performed under one group.
type Frequency struct {
	Group string `json:"group" yaml:"group"`
	Count int    `json:"count" yaml:"count"`
}

// GroupMean is the mean score of one group over its scored events.
type GroupMean struct {
	Group string  `json:"group" yaml:"group"`
	Mean  float64 `json:"mean" yaml:"mean"`
	Count int     `json:"count" yaml:"count"`
}

// Frequencies counts events per group, most frequent first. Equal counts
// keep the order in which groups were first seen.
func Frequencies(events []model.Event, idx *grouping.Index) ([]Frequency, error) {
	pos := make(map[string]int)
	var out []Frequency
	for i, e := range events {
		g, ok := idx.Lookup(e.ID)
		if !ok {
			return nil, fmt.Errorf("%w: event %d id %q", ErrUnmappedIdentifier, i, e.ID)
		}
		p, seen := pos[g]
		if !seen {
			p = len(out)
			pos[g] = p
			out = append(out, Frequency{Group: g})
		}
		out[p].Count++
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}

// GroupMeans averages scores per group, highest mean first. Events without a
// score do not contribute; groups with no scored event are omitted.
func GroupMeans(events []model.Event, idx *grouping.Index) ([]GroupMean, error) {
	type acc struct {
		sum float64
		n   int
	}
	pos := make(map[string]int)
	var (
		groups []string
		accs   []acc
	)
	for i, e := range events {
		g, ok := idx.Lookup(e.ID)
		if !ok {
			return nil, fmt.Errorf("%w: event %d id %q", ErrUnmappedIdentifier, i, e.ID)
		}
		if !e.HasScore() {
			continue
		}
		p, seen := pos[g]
		if !seen {
			p = len(groups)
			pos[g] = p
			groups = append(groups, g)
			accs = append(accs, acc{})
		}
		accs[p].sum += *e.Score
		accs[p].n++
	}
	out := make([]GroupMean, len(groups))
	for i, g := range groups {
		out[i] = GroupMean{Group: g, Mean: accs[i].sum / float64(accs[i].n), Count: accs[i].n}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Mean > out[j].Mean })
	return out, nil
}

// TopN returns the first n elements of s. n <= 0 returns all of them.
func TopN[T any](s []T, n int) []T {
	if n <= 0 || n >= len(s) {
		return s
	}
	return s[:n]
}

// GroupNames lists the group of each GroupMean in order.
func GroupNames(means []GroupMean) []string {
	out := make([]string, len(means))
	for i, m := range means {
		out[i] = m.Group
	}
	return out
}
