package grouping_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/setlist-cli/internal/grouping"
	"github.com/KaramelBytes/setlist-cli/internal/similarity"
)

var jokeIDs = []string{
	"AI_killing_poetry",
	"dentist_visit",
	"AI_kiling_poetry",
	"dentist_visits",
	"tax_return",
	"AI_killing_poetry", // duplicate
	"dentist",
}

func build(t *testing.T, ids []string, opts ...grouping.Option) *grouping.Index {
	t.Helper()
	idx, err := grouping.Build(context.Background(), ids, opts...)
	require.NoError(t, err)
	return idx
}

func assertTotalMapping(t *testing.T, idx *grouping.Index, ids []string) {
	t.Helper()
	counts := map[string]int{}
	for _, g := range idx.Groups() {
		assert.Contains(t, g.Members, g.Canonical, "canonical must be a member")
		for _, m := range g.Members {
			counts[m]++
		}
	}
	for _, id := range ids {
		assert.Equal(t, 1, counts[id], "id %q must appear in exactly one group", id)
		_, ok := idx.Lookup(id)
		assert.True(t, ok, "id %q must be indexed", id)
	}
}

func TestBuildPolicies(t *testing.T) {
	for _, p := range []grouping.Policy{grouping.Greedy, grouping.Batch} {
		t.Run(string(p), func(t *testing.T) {
			idx := build(t, jokeIDs, grouping.WithPolicy(p))
			assertTotalMapping(t, idx, jokeIDs)
			assert.Equal(t, 6, idx.Size())
		})
	}
}

func TestGreedyCanonicalIsFirstSeen(t *testing.T) {
	idx := build(t, jokeIDs, grouping.WithPolicy(grouping.Greedy))

	c, ok := idx.Lookup("AI_kiling_poetry")
	require.True(t, ok)
	assert.Equal(t, "AI_killing_poetry", c)

	c, _ = idx.Lookup("dentist_visits")
	assert.Equal(t, "dentist_visit", c)

	c, _ = idx.Lookup("tax_return")
	assert.Equal(t, "tax_return", c)
}

func TestBatchCanonicalIsShortest(t *testing.T) {
	ids := []string{"dentist_visits", "dentist_visit", "tax_return"}
	idx := build(t, ids, grouping.WithPolicy(grouping.Batch))

	c, _ := idx.Lookup("dentist_visits")
	assert.Equal(t, "dentist_visit", c)
	c, _ = idx.Lookup("dentist_visit")
	assert.Equal(t, "dentist_visit", c)
	assert.Equal(t, 2, idx.Len())
}

func TestBatchShortestTieIsLexicographic(t *testing.T) {
	idx := build(t, []string{"jokeb", "jokea"}, grouping.WithPolicy(grouping.Batch), grouping.WithThreshold(50))
	require.Equal(t, 1, idx.Len())
	assert.Equal(t, "jokea", idx.Canonical(0))
}

func TestBatchAlreadyGroupedGuard(t *testing.T) {
	// "abcd" pulls in "abce"; "abce" must not be regrouped with "xbce" later.
	ids := []string{"abcd", "abce", "xbce"}
	idx := build(t, ids, grouping.WithPolicy(grouping.Batch), grouping.WithThreshold(75))
	assertTotalMapping(t, idx, ids)

	g1, _ := idx.GroupOf("abcd")
	g2, _ := idx.GroupOf("abce")
	g3, _ := idx.GroupOf("xbce")
	assert.Equal(t, g1, g2)
	assert.NotEqual(t, g1, g3)
}

func TestThresholdZeroGreedyCollapses(t *testing.T) {
	idx := build(t, jokeIDs, grouping.WithPolicy(grouping.Greedy), grouping.WithThreshold(0))
	require.Equal(t, 1, idx.Len())
	assert.Equal(t, "AI_killing_poetry", idx.Canonical(0))
	for _, id := range jokeIDs {
		c, _ := idx.Lookup(id)
		assert.Equal(t, "AI_killing_poetry", c)
	}
}

func TestThresholdZeroBatchCollapses(t *testing.T) {
	idx := build(t, jokeIDs, grouping.WithPolicy(grouping.Batch), grouping.WithThreshold(0))
	require.Equal(t, 1, idx.Len())
	assert.Equal(t, "dentist", idx.Canonical(0))
}

func TestThresholdHundredIsExactMatch(t *testing.T) {
	for _, p := range []grouping.Policy{grouping.Greedy, grouping.Batch} {
		t.Run(string(p), func(t *testing.T) {
			idx := build(t, jokeIDs, grouping.WithPolicy(p), grouping.WithThreshold(100))
			assert.Equal(t, 6, idx.Len())
			for _, g := range idx.Groups() {
				assert.Equal(t, []string{g.Canonical}, g.Members)
			}
		})
	}
}

func TestEdgeCases(t *testing.T) {
	idx := build(t, nil)
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Mapping())

	idx = build(t, []string{"solo"})
	require.Equal(t, 1, idx.Len())
	assert.Equal(t, "solo", idx.Canonical(0))

	_, ok := idx.Lookup("missing")
	assert.False(t, ok)
}

func TestInvalidThreshold(t *testing.T) {
	_, err := grouping.Build(context.Background(), jokeIDs, grouping.WithThreshold(101))
	assert.ErrorIs(t, err, grouping.ErrInvalidThreshold)
	_, err = grouping.Build(context.Background(), jokeIDs, grouping.WithThreshold(-1))
	assert.ErrorIs(t, err, grouping.ErrInvalidThreshold)
}

func TestParsePolicy(t *testing.T) {
	p, err := grouping.ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, grouping.Greedy, p)

	p, err = grouping.ParsePolicy(" BATCH ")
	require.NoError(t, err)
	assert.Equal(t, grouping.Batch, p)

	_, err = grouping.ParsePolicy("louvain")
	assert.ErrorIs(t, err, grouping.ErrUnknownPolicy)
}

func TestCustomScorer(t *testing.T) {
	ids := []string{"poetry_AI_killing", "AI killing poetry"}
	plain := build(t, ids, grouping.WithThreshold(95))
	assert.Equal(t, 2, plain.Len())

	sorted := build(t, ids, grouping.WithThreshold(95), grouping.WithScorer(similarity.TokenSortRatio))
	assert.Equal(t, 1, sorted.Len())
}

func TestGroupsIsACopy(t *testing.T) {
	idx := build(t, jokeIDs)
	gs := idx.Groups()
	gs[0].Members[0] = "mutated"
	assert.NotEqual(t, "mutated", idx.Groups()[0].Members[0])
}
