package network

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/setlist-cli/internal/aggregate"
)

var best = []aggregate.Best{
	{Group: "dentist_visit", Predecessor: "tax_return", MeanScore: 6, Count: 9},
	{Group: "AI_killing_poetry", Predecessor: "dentist_visit", MeanScore: 9.5, Count: 7},
	{Group: "tax_return", Predecessor: "AI_killing_poetry", MeanScore: 6, Count: 5},
	{Group: "cats", Predecessor: "dogs", MeanScore: 2, Count: 5},
}

func TestEdgesTopNByMean(t *testing.T) {
	edges := Edges(best, 3)
	require.Len(t, edges, 3)
	assert.Equal(t, Edge{From: "AI_killing_poetry", To: "dentist_visit", Weight: 9.5, Count: 7}, edges[0])
	assert.Equal(t, "dentist_visit", edges[1].From)
	assert.Equal(t, "tax_return", edges[2].From)

	assert.Len(t, Edges(best, 0), 4)
	assert.Empty(t, Edges(nil, 20))
	// input untouched
	assert.Equal(t, "dentist_visit", best[0].Group)
}

func TestNodes(t *testing.T) {
	nodes := Nodes(Edges(best, 3))
	assert.Equal(t, []string{"AI_killing_poetry", "dentist_visit", "tax_return"}, nodes)
}

func TestDOT(t *testing.T) {
	out := DOT("best predecessors", Edges(best, 1))
	assert.True(t, strings.HasPrefix(out, "digraph \"best predecessors\" {\n"))
	assert.Contains(t, out, "\"AI_killing_poetry\" -> \"dentist_visit\" [label=\"9.50\"];")
	assert.True(t, strings.HasSuffix(out, "}\n"))
}
