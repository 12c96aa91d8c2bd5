package accidents

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-03-04 is a Monday, 2024-03-05 a Tuesday.
const sample = `Date,Time,Borough,Latitude,Longitude,Contributing Factor,Cyclists Injured,Cyclists Killed
2024-03-04,08:15:00,BROOKLYN,40.6,-73.9,Driver Inattention/Distraction,1,0
2024-03-04,08:45:00,BROOKLYN,40.6,-73.9,Unspecified,0,0
2024-03-04,not-a-time,QUEENS,40.7,-73.8,Unspecified,1,0
2024-03-05,17:30:00,QUEENS,40.7,-73.8,Failure to Yield Right-of-Way,2,1
garbage,17:05:00,,,,Unspecified,1,
2024-03-05,,MANHATTAN,40.8,-73.9,Unspecified,1,0
`

func load(t *testing.T) *Dataset {
	t.Helper()
	ds, err := Load(strings.NewReader(sample), ',')
	require.NoError(t, err)
	return ds
}

func TestLoadDropsBadTime(t *testing.T) {
	ds := load(t)
	assert.Equal(t, 6, ds.Total)
	assert.Equal(t, 2, ds.Dropped)
	require.Len(t, ds.Records, 4)
	assert.Equal(t, 8, ds.Records[0].Hour)
	assert.Equal(t, "Monday", ds.Records[0].DayOfWeek)
	assert.Equal(t, "", ds.Records[3].DayOfWeek)
	assert.Equal(t, 0, ds.Records[3].Killed)
}

func TestAnalyze(t *testing.T) {
	st := Analyze(load(t))

	assert.Equal(t, []Bucket{
		{Key: "8", Events: 2, Injured: 1},
		{Key: "17", Events: 2, Injured: 3, Killed: 1},
	}, st.ByHour)
	assert.Equal(t, []Bucket{
		{Key: "Monday", Events: 2, Injured: 1},
		{Key: "Tuesday", Events: 1, Injured: 2, Killed: 1},
	}, st.ByDay)
	assert.Equal(t, []string{"BROOKLYN", "QUEENS"}, keys(st.ByBorough))
	assert.Equal(t, []string{"40.6,-73.9", "40.7,-73.8"}, keys(st.ByLocation))

	assert.InDelta(t, 0.5, st.Chance[SlotKey{Day: "Monday", Hour: 8}], 1e-9)
	assert.InDelta(t, 3.0, st.Chance[SlotKey{Day: "Tuesday", Hour: 17}], 1e-9)
	assert.Len(t, st.Chance, 2)

	require.Len(t, st.TopFactors, 3)
	assert.Equal(t, "Ignored Right-of-Way", st.TopFactors[0].Key)
	assert.Equal(t, "Driver Inattention", st.TopFactors[1].Key)
	assert.Equal(t, "Unspecified", st.TopFactors[2].Key)
}

func TestTopFactorsCapped(t *testing.T) {
	var b strings.Builder
	b.WriteString("Date,Time,Contributing Factor,Cyclists Injured,Cyclists Killed\n")
	for i, f := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		b.WriteString("2024-03-04,10:00:00," + f + ",1,0\n")
		if i%2 == 0 {
			b.WriteString("2024-03-04,11:00:00," + f + ",1,0\n")
		}
	}
	ds, err := Load(strings.NewReader(b.String()), ',')
	require.NoError(t, err)
	st := Analyze(ds)
	require.Len(t, st.TopFactors, TopFactorCount)
	assert.Equal(t, []string{"a", "c", "e", "g", "b"}, keys(st.TopFactors))
}

func TestWriteEnriched(t *testing.T) {
	ds := load(t)
	var buf bytes.Buffer
	require.NoError(t, WriteEnriched(&buf, ds, Analyze(ds)))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasSuffix(lines[0], ",Hour,DayOfWeek,Chances of Death or Injury"))
	assert.True(t, strings.HasSuffix(lines[1], ",8,Monday,0.5"))
	assert.True(t, strings.HasSuffix(lines[3], ",17,Tuesday,3"))
	assert.True(t, strings.HasSuffix(lines[4], ",17,,"))
}

func TestWriteBuckets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBuckets(&buf, "Borough", []Bucket{{Key: "QUEENS", Events: 1, Injured: 2, Killed: 1}}))
	assert.Equal(t, "Borough,events,Cyclists Injured,Cyclists Killed\nQUEENS,1,2,1\n", buf.String())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(strings.NewReader("Date,Borough\n"), ',')
	assert.ErrorIs(t, err, ErrMissingColumn)

	ds, err := Load(strings.NewReader(""), ',')
	require.NoError(t, err)
	assert.Empty(t, ds.Records)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestLoadFileTSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cyclist_accidents.tsv")
	body := "Date\tTime\tCyclists Injured\tCyclists Killed\n2024-03-04\t23:59:59\t1\t0\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	ds, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, ds.Records, 1)
	assert.Equal(t, 23, ds.Records[0].Hour)
}

func keys(bs []Bucket) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Key
	}
	return out
}
