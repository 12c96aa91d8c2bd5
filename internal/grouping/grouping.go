// Package grouping merges near-duplicate joke identifiers into canonical groups.
//
// Grouping runs in two phases. A policy first assigns every distinct
// identifier to a group ordinal, then the assignment is frozen into an Index
// that only supports lookups. Aggregation always works against a frozen Index.
package grouping

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/setlist-cli/internal/similarity"
	"github.com/KaramelBytes/setlist-cli/pkg/logger"
)

// Sentinel errors returned by Build and ParsePolicy.
var (
	ErrInvalidThreshold = errors.New("similarity threshold must be within [0,100]")
	ErrUnknownPolicy    = errors.New("unknown grouping policy")
)

// Policy names a grouping algorithm.
type Policy string

const (
	// Greedy compares each new identifier against existing group keys only.
	// The first identifier of a group is its canonical id.
	Greedy Policy = "greedy"
	// Batch gathers every identifier scoring above the threshold against an
	// unassigned identifier. The shortest member is the canonical id.
	Batch Policy = "batch"
)

// ParsePolicy converts a configuration value to a Policy. Empty selects Greedy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Greedy:
		return Greedy, nil
	case Batch:
		return Batch, nil
	default:
		return "", fmt.Errorf("%w: %s (use greedy|batch)", ErrUnknownPolicy, s)
	}
}

// Group is a set of identifiers deemed equivalent.
type Group struct {
	Canonical string   `json:"canonical" yaml:"canonical"`
	Members   []string `json:"members" yaml:"members"`
}

// Build groups ids with the configured policy and returns a frozen Index.
// Duplicate ids are ignored after their first occurrence.
func Build(ctx context.Context, ids []string, opts ...Option) (*Index, error) {
	o := options{policy: Greedy, threshold: DefaultThreshold, scorer: similarity.Ratio}
	for _, opt := range opts {
		opt(&o)
	}
	if o.threshold < 0 || o.threshold > 100 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidThreshold, o.threshold)
	}
	distinct := dedupe(ids)

	var a assignment
	switch o.policy {
	case Greedy, "":
		a = greedy(ctx, distinct, o)
	case Batch:
		a = batch(ctx, distinct, o)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, o.policy)
	}
	idx := a.freeze(distinct)
	if o.log != nil {
		o.log.Debug(ctx, "identifiers grouped",
			logger.String("policy", string(o.policy)),
			logger.Float64("threshold", o.threshold),
			logger.Int("identifiers", len(distinct)),
			logger.Int("groups", idx.Len()))
	}
	return idx, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// assignment is the mutable output of a policy: the group ordinal of every
// distinct id (by position) and each group's canonical position.
type assignment struct {
	ordinal   []int
	canonical []int
}

// greedy implements the nearest-key policy: O(n*k) for k groups.
func greedy(ctx context.Context, ids []string, o options) assignment {
	a := assignment{ordinal: make([]int, len(ids))}
	keys := make([]string, 0)
	for i, id := range ids {
		m, ok := similarity.ExtractOne(id, keys, o.scorer)
		if ok && m.Score >= o.threshold {
			a.ordinal[i] = m.Index
			if o.log != nil {
				o.log.Debug(ctx, "grouped identifier",
					logger.String("id", id), logger.String("group", m.Choice), logger.Float64("score", m.Score))
			}
			continue
		}
		a.ordinal[i] = len(keys)
		a.canonical = append(a.canonical, i)
		keys = append(keys, id)
		if o.log != nil {
			fields := []logger.Field{logger.String("id", id)}
			if ok {
				fields = append(fields, logger.String("best", m.Choice), logger.Float64("score", m.Score))
			}
			o.log.Debug(ctx, "created group", fields...)
		}
	}
	return a
}

// batch implements the all-pairs policy: O(n^2) comparisons in the worst case.
func batch(ctx context.Context, ids []string, o options) assignment {
	a := assignment{ordinal: make([]int, len(ids))}
	assigned := make([]bool, len(ids))
	for i, id := range ids {
		if assigned[i] {
			continue
		}
		members := []int{i}
		for _, m := range similarity.ExtractAbove(id, ids, o.scorer, o.threshold) {
			if m.Index == i || assigned[m.Index] {
				continue
			}
			members = append(members, m.Index)
		}
		canon := i
		for _, p := range members {
			if shorter(ids[p], ids[canon]) {
				canon = p
			}
		}
		g := len(a.canonical)
		a.canonical = append(a.canonical, canon)
		for _, p := range members {
			a.ordinal[p] = g
			assigned[p] = true
		}
		if o.log != nil {
			o.log.Debug(ctx, "created group",
				logger.String("canonical", ids[canon]), logger.Int("members", len(members)))
		}
	}
	return a
}

// shorter orders candidates for canonical id: fewer runes first, then lexicographic.
func shorter(a, b string) bool {
	la, lb := len([]rune(a)), len([]rune(b))
	if la != lb {
		return la < lb
	}
	return a < b
}
