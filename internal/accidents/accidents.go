// Package accidents summarises cyclist accident reports: injuries and deaths
// by hour, weekday, borough, location and contributing factor.
package accidents

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Column names expected in the input header.
const (
	ColDate      = "Date"
	ColTime      = "Time"
	ColBorough   = "Borough"
	ColLatitude  = "Latitude"
	ColLongitude = "Longitude"
	ColFactor    = "Contributing Factor"
	ColInjured   = "Cyclists Injured"
	ColKilled    = "Cyclists Killed"

	ColHour      = "Hour"
	ColDayOfWeek = "DayOfWeek"
	ColChance    = "Chances of Death or Injury"
)

// TopFactorCount is how many contributing factors Stats.TopFactors keeps.
const TopFactorCount = 5

// ErrMissingColumn is returned when a required header column is absent.
var ErrMissingColumn = errors.New("missing column")

// FactorLabels shortens long contributing-factor names for charts.
var FactorLabels = map[string]string{
	"Pedestrian/Bicyclist/Other Pedestrian Error/Confusion": "Pedestrian Error",
	"Driver Inattention/Distraction":                        "Driver Inattention",
	"Failure to Yield Right-of-Way":                         "Ignored Right-of-Way",
	"Traffic Control Disregarded":                           "Traffic Control Ignored",
}

var weekdays = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Record is one accident row that survived cleaning.
type Record struct {
	Date      time.Time // zero when the date did not parse
	Hour      int
	DayOfWeek string // empty when Date is zero
	Borough   string
	Latitude  string
	Longitude string
	Factor    string
	Injured   int
	Killed    int

	raw []string
}

// Casualties is injured plus killed.
func (r Record) Casualties() int { return r.Injured + r.Killed }

// Dataset is the cleaned input.
type Dataset struct {
	Header  []string
	Records []Record
	Total   int // data rows read
	Dropped int // rows with a missing or malformed Time
}

// LoadFile reads an accident CSV from disk.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return Load(f, sniffDelimiter(path))
}

// Load parses accident rows from r. Rows whose Time is not HH:MM:SS are
// dropped and counted. Missing injury or death counts read as zero.
func Load(r io.Reader, delim rune) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	if delim != 0 {
		cr.Comma = delim
	}

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return &Dataset{}, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, need := range []string{ColDate, ColTime, ColInjured, ColKilled} {
		if _, ok := idx[need]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrMissingColumn, need)
		}
	}
	get := func(rec []string, col string) string {
		i, ok := idx[col]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	ds := &Dataset{Header: append([]string(nil), header...)}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		ds.Total++
		t, err := time.Parse("15:04:05", get(rec, ColTime))
		if err != nil {
			ds.Dropped++
			continue
		}
		rc := Record{
			Hour:      t.Hour(),
			Borough:   get(rec, ColBorough),
			Latitude:  get(rec, ColLatitude),
			Longitude: get(rec, ColLongitude),
			Factor:    get(rec, ColFactor),
			Injured:   parseCount(get(rec, ColInjured)),
			Killed:    parseCount(get(rec, ColKilled)),
			raw:       append([]string(nil), rec...),
		}
		if d, ok := parseTimeMaybe(get(rec, ColDate)); ok {
			rc.Date = d
			rc.DayOfWeek = d.Weekday().String()
		}
		ds.Records = append(ds.Records, rc)
	}
	return ds, nil
}

func parseCount(s string) int {
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) {
		return int(f)
	}
	return 0
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func parseTimeMaybe(s string) (time.Time, bool) {
	layouts := []string{
		time.RFC3339, "2006-01-02", "2006/01/02", "01/02/2006", "1/2/2006",
		"2006-01-02 15:04:05", "2006-01-02T15:04:05", "01/02/2006 15:04:05",
	}
	for _, l := range layouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Bucket aggregates accidents sharing one key.
type Bucket struct {
	Key     string
	Events  int
	Injured int
	Killed  int
}

// SlotKey is a (weekday, hour) pair.
type SlotKey struct {
	Day  string
	Hour int
}

// Stats holds every aggregation of a dataset.
type Stats struct {
	ByHour     []Bucket // hour 0..23 ascending, hours without accidents omitted
	ByDay      []Bucket // Monday first
	ByBorough  []Bucket // alphabetical
	ByLocation []Bucket // keyed "lat,lon", sorted by latitude then longitude
	ByFactor   []Bucket // alphabetical
	TopFactors []Bucket // TopFactorCount factors by injuries, labels shortened
	Chance     map[SlotKey]float64
}

type bucketSet struct {
	order []string
	m     map[string]*Bucket
}

func newBucketSet() *bucketSet { return &bucketSet{m: map[string]*Bucket{}} }

func (s *bucketSet) add(key string, r Record) {
	if key == "" {
		return
	}
	b, ok := s.m[key]
	if !ok {
		b = &Bucket{Key: key}
		s.m[key] = b
		s.order = append(s.order, key)
	}
	b.Events++
	b.Injured += r.Injured
	b.Killed += r.Killed
}

func (s *bucketSet) sorted(less func(a, b string) bool) []Bucket {
	keys := append([]string(nil), s.order...)
	sort.SliceStable(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	out := make([]Bucket, len(keys))
	for i, k := range keys {
		out[i] = *s.m[k]
	}
	return out
}

// Analyze computes per-hour, per-day, per-borough, per-location and
// per-factor sums plus the chance of injury or death per (weekday, hour) slot.
func Analyze(ds *Dataset) *Stats {
	hours, days, boroughs, locs, factors := newBucketSet(), newBucketSet(), newBucketSet(), newBucketSet(), newBucketSet()
	type slotAcc struct{ casualties, events int }
	slots := map[SlotKey]*slotAcc{}

	for _, r := range ds.Records {
		hours.add(strconv.Itoa(r.Hour), r)
		days.add(r.DayOfWeek, r)
		boroughs.add(r.Borough, r)
		if r.Latitude != "" && r.Longitude != "" {
			locs.add(r.Latitude+","+r.Longitude, r)
		}
		factors.add(r.Factor, r)
		if r.DayOfWeek == "" {
			continue
		}
		k := SlotKey{Day: r.DayOfWeek, Hour: r.Hour}
		a, ok := slots[k]
		if !ok {
			a = &slotAcc{}
			slots[k] = a
		}
		a.casualties += r.Casualties()
		a.events++
	}

	st := &Stats{Chance: make(map[SlotKey]float64, len(slots))}
	for k, a := range slots {
		st.Chance[k] = float64(a.casualties) / float64(a.events)
	}
	st.ByHour = hours.sorted(func(a, b string) bool {
		x, _ := strconv.Atoi(a)
		y, _ := strconv.Atoi(b)
		return x < y
	})
	st.ByDay = days.sorted(func(a, b string) bool { return weekdayIndex(a) < weekdayIndex(b) })
	st.ByBorough = boroughs.sorted(func(a, b string) bool { return a < b })
	st.ByLocation = locs.sorted(lessLocation)
	st.ByFactor = factors.sorted(func(a, b string) bool { return a < b })

	top := append([]Bucket(nil), st.ByFactor...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Injured > top[j].Injured })
	if len(top) > TopFactorCount {
		top = top[:TopFactorCount]
	}
	for i := range top {
		top[i].Key = ShortFactor(top[i].Key)
	}
	st.TopFactors = top
	return st
}

// ShortFactor returns the chart label for a contributing factor.
func ShortFactor(f string) string {
	if s, ok := FactorLabels[f]; ok {
		return s
	}
	return f
}

func weekdayIndex(d string) int {
	for i, w := range weekdays {
		if w == d {
			return i
		}
	}
	return len(weekdays)
}

func lessLocation(a, b string) bool {
	la, oa := splitLocation(a)
	lb, ob := splitLocation(b)
	if la != lb {
		return la < lb
	}
	return oa < ob
}

func splitLocation(k string) (float64, float64) {
	lat, lon, _ := strings.Cut(k, ",")
	x, _ := strconv.ParseFloat(lat, 64)
	y, _ := strconv.ParseFloat(lon, 64)
	return x, y
}

// WriteEnriched writes the cleaned rows with Hour, DayOfWeek and the
// chance of injury or death for their (weekday, hour) slot appended.
// The chance is empty for rows whose date did not parse.
func WriteEnriched(w io.Writer, ds *Dataset, st *Stats) error {
	cw := csv.NewWriter(w)
	header := append(append([]string(nil), ds.Header...), ColHour, ColDayOfWeek, ColChance)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range ds.Records {
		row := make([]string, len(ds.Header), len(ds.Header)+3)
		copy(row, r.raw)
		chance := ""
		if r.DayOfWeek != "" {
			chance = strconv.FormatFloat(st.Chance[SlotKey{Day: r.DayOfWeek, Hour: r.Hour}], 'f', -1, 64)
		}
		row = append(row, strconv.Itoa(r.Hour), r.DayOfWeek, chance)
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBuckets writes a bucket table with the given key column name.
func WriteBuckets(w io.Writer, keyName string, buckets []Bucket) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{keyName, "events", ColInjured, ColKilled}); err != nil {
		return err
	}
	for _, b := range buckets {
		if err := cw.Write([]string{b.Key, strconv.Itoa(b.Events), strconv.Itoa(b.Injured), strconv.Itoa(b.Killed)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
