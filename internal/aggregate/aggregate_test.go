package aggregate_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/setlist-cli/internal/aggregate"
	"github.com/KaramelBytes/setlist-cli/internal/grouping"
	"github.com/KaramelBytes/setlist-cli/internal/model"
)

func ev(id, pred string, score *float64) model.Event {
	e := model.Event{ID: id, Score: score}
	if pred != "" {
		e.Predecessor = model.Str(pred)
	}
	return e
}

// exactIndex groups only identical identifiers so tests control canonical ids.
func exactIndex(t *testing.T, events []model.Event) *grouping.Index {
	t.Helper()
	idx, err := grouping.Build(context.Background(), model.IDs(events), grouping.WithThreshold(100))
	require.NoError(t, err)
	return idx
}

func TestPairsAndBestPredecessor(t *testing.T) {
	events := []model.Event{
		ev("A", "B", model.Float(10)),
		ev("A", "B", model.Float(20)),
		ev("A", "C", model.Float(5)),
	}
	rem, err := aggregate.Remap(events, exactIndex(t, events))
	require.NoError(t, err)

	table, drops := aggregate.Pairs(rem)
	assert.Equal(t, aggregate.DropStats{Total: 3, Kept: 3}, drops)

	rows := table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, aggregate.PairStat{Group: "A", Predecessor: "B", Count: 2, Sum: 30, Mean: 15}, rows[0])
	assert.Equal(t, aggregate.PairStat{Group: "A", Predecessor: "C", Count: 1, Sum: 5, Mean: 5}, rows[1])

	best := aggregate.BestPredecessors(table)
	require.Len(t, best, 1)
	assert.Equal(t, aggregate.Best{Group: "A", Predecessor: "B", MeanScore: 15, Count: 2}, best[0])
}

func TestMissingScoreOnlyReducesItsPair(t *testing.T) {
	full := []model.Event{
		ev("A", "B", model.Float(10)),
		ev("A", "B", model.Float(20)),
		ev("A", "C", model.Float(5)),
	}
	withGap := append(append([]model.Event(nil), full...), ev("A", "B", nil))
	idx := exactIndex(t, withGap)

	rem, err := aggregate.Remap(withGap, idx)
	require.NoError(t, err)
	table, drops := aggregate.Pairs(rem)
	assert.Equal(t, 1, drops.MissingScore)
	assert.Equal(t, 0, drops.MissingPredecessor)
	assert.Equal(t, 1, drops.Dropped())

	rows := table.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Count)
	assert.Equal(t, 1, rows[1].Count)

	// Removing a scored record instead changes exactly one pair count.
	rem, err = aggregate.Remap(full[1:], idx)
	require.NoError(t, err)
	table, _ = aggregate.Pairs(rem)
	rows = table.Rows()
	assert.Equal(t, 1, rows[0].Count)
	assert.Equal(t, 1, rows[1].Count)
}

func TestMissingPredecessorDropped(t *testing.T) {
	events := []model.Event{
		ev("A", "", model.Float(10)),
		ev("B", "A", model.Float(7)),
	}
	rem, err := aggregate.Remap(events, exactIndex(t, events))
	require.NoError(t, err)
	table, drops := aggregate.Pairs(rem)
	assert.Equal(t, 1, drops.MissingPredecessor)
	assert.Equal(t, 1, drops.Kept)
	assert.Equal(t, 1, table.Len())
}

func TestBestPredecessorTieKeepsFirst(t *testing.T) {
	events := []model.Event{
		ev("A", "C", model.Float(8)),
		ev("A", "B", model.Float(8)),
	}
	rem, err := aggregate.Remap(events, exactIndex(t, events))
	require.NoError(t, err)
	table, _ := aggregate.Pairs(rem)
	best := aggregate.BestPredecessors(table)
	require.Len(t, best, 1)
	assert.Equal(t, "C", best[0].Predecessor)
}

func TestBestTableStableSortByCount(t *testing.T) {
	events := []model.Event{
		ev("X", "P", model.Float(1)),
		ev("Y", "P", model.Float(1)),
		ev("Z", "P", model.Float(1)),
		ev("Z", "P", model.Float(3)),
		ev("W", "P", model.Float(1)),
	}
	rem, err := aggregate.Remap(events, exactIndex(t, events))
	require.NoError(t, err)
	table, _ := aggregate.Pairs(rem)
	best := aggregate.BestPredecessors(table)

	var order []string
	for _, b := range best {
		order = append(order, b.Group)
	}
	assert.Equal(t, []string{"Z", "X", "Y", "W"}, order)
	for i := 1; i < len(best); i++ {
		assert.GreaterOrEqual(t, best[i-1].Count, best[i].Count)
	}
}

func TestRemapUsesCanonicalGroups(t *testing.T) {
	events := []model.Event{
		ev("AI_killing_poetry", "tax_return", model.Float(9)),
		ev("AI_kiling_poetry", "tax_return", model.Float(7)),
	}
	idx, err := grouping.Build(context.Background(), model.IDs(events))
	require.NoError(t, err)

	rem, err := aggregate.Remap(events, idx)
	require.NoError(t, err)
	table, _ := aggregate.Pairs(rem)
	rows := table.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "AI_killing_poetry", rows[0].Group)
	assert.Equal(t, 2, rows[0].Count)
	assert.InDelta(t, 8.0, rows[0].Mean, 1e-9)
}

func TestRemapUnmappedIdentifier(t *testing.T) {
	idx := exactIndex(t, []model.Event{ev("A", "", nil)})
	_, err := aggregate.Remap([]model.Event{ev("A", "ghost", model.Float(1))}, idx)
	assert.ErrorIs(t, err, aggregate.ErrUnmappedIdentifier)

	_, err = aggregate.Frequencies([]model.Event{ev("ghost", "", nil)}, idx)
	assert.ErrorIs(t, err, aggregate.ErrUnmappedIdentifier)
}

func TestEmptyInput(t *testing.T) {
	idx := exactIndex(t, nil)
	rem, err := aggregate.Remap(nil, idx)
	require.NoError(t, err)
	table, drops := aggregate.Pairs(rem)
	assert.Equal(t, 0, table.Len())
	assert.Equal(t, aggregate.DropStats{}, drops)
	assert.Empty(t, aggregate.BestPredecessors(table))

	freq, err := aggregate.Frequencies(nil, idx)
	require.NoError(t, err)
	assert.Empty(t, freq)
}

func TestFrequencies(t *testing.T) {
	events := []model.Event{
		ev("tax_return", "", nil),
		ev("dentist_visit", "", nil),
		ev("dentist_visits", "", nil),
		ev("solo", "", nil),
	}
	idx, err := grouping.Build(context.Background(), model.IDs(events))
	require.NoError(t, err)

	freq, err := aggregate.Frequencies(events, idx)
	require.NoError(t, err)
	assert.Equal(t, []aggregate.Frequency{
		{Group: "dentist_visit", Count: 2},
		{Group: "tax_return", Count: 1},
		{Group: "solo", Count: 1},
	}, freq)
	assert.Len(t, aggregate.TopN(freq, 1), 1)
	assert.Len(t, aggregate.TopN(freq, 0), 3)
	assert.Len(t, aggregate.TopN(freq, 10), 3)
}

func TestGroupMeans(t *testing.T) {
	events := []model.Event{
		ev("A", "", model.Float(4)),
		ev("B", "", model.Float(9)),
		ev("A", "", model.Float(6)),
		ev("C", "", nil),
	}
	means, err := aggregate.GroupMeans(events, exactIndex(t, events))
	require.NoError(t, err)
	assert.Equal(t, []aggregate.GroupMean{
		{Group: "B", Mean: 9, Count: 1},
		{Group: "A", Mean: 5, Count: 2},
	}, means)
	assert.Equal(t, []string{"B", "A"}, aggregate.GroupNames(means))
}

func TestDropStatsAdd(t *testing.T) {
	d := aggregate.DropStats{Total: 2, Kept: 1, MissingScore: 1}
	d.Add(aggregate.DropStats{Total: 3, Kept: 1, MissingPredecessor: 2})
	assert.Equal(t, aggregate.DropStats{Total: 5, Kept: 2, MissingScore: 1, MissingPredecessor: 2}, d)
}
