// Package model contains the records passed between the source, grouping and
// aggregation layers.
package model

// SetKey identifies a single performance set: one date at one venue.
type SetKey struct {
	Date  string `json:"date" yaml:"date"`
	Venue string `json:"venue" yaml:"venue"`
}

// String renders the key as "date@venue".
func (k SetKey) String() string { return k.Date + "@" + k.Venue }

// Event is one joke performance as read from a source.
type Event struct {
	ID          string   // joke identifier as written by the performer
	Predecessor *string  // joke told immediately before, nil for the first joke of a set
	Score       *float64 // audience score, nil when not recorded
	Key         SetKey
	Seq         int // position within the set
}

// HasScore reports whether the event carries a score.
func (e Event) HasScore() bool { return e.Score != nil }

// HasPredecessor reports whether the event has a preceding joke.
func (e Event) HasPredecessor() bool { return e.Predecessor != nil && *e.Predecessor != "" }

// IDs returns the distinct identifiers of events (current and predecessor)
// in first-seen order.
func IDs(events []Event) []string {
	seen := make(map[string]struct{}, len(events))
	out := make([]string, 0, len(events))
	add := func(id string) {
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	for _, e := range events {
		add(e.ID)
		if e.HasPredecessor() {
			add(*e.Predecessor)
		}
	}
	return out
}

// Float returns a pointer to v. Handy for building events in sources and tests.
func Float(v float64) *float64 { return &v }

// Str returns a pointer to s.
func Str(s string) *string { return &s }
