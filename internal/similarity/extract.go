package similarity

// Match is a scored choice returned by the extract helpers.
type Match struct {
	Choice string
	Score  float64
	Index  int // position of Choice in the choices slice
}

// ExtractOne returns the best scoring choice for query. Ties keep the earliest
// choice. ok is false when choices is empty.
func ExtractOne(query string, choices []string, scorer Scorer) (best Match, ok bool) {
	if scorer == nil {
		scorer = Ratio
	}
	for i, c := range choices {
		s := scorer(query, c)
		if !ok || s > best.Score {
			best = Match{Choice: c, Score: s, Index: i}
			ok = true
		}
	}
	return best, ok
}

// ExtractAbove returns every choice scoring at least threshold against query,
// in the order the choices were given.
func ExtractAbove(query string, choices []string, scorer Scorer, threshold float64) []Match {
	if scorer == nil {
		scorer = Ratio
	}
	var out []Match
	for i, c := range choices {
		if s := scorer(query, c); s >= threshold {
			out = append(out, Match{Choice: c, Score: s, Index: i})
		}
	}
	return out
}
