// Package similarity scores how close two joke identifiers are on a 0-100 scale.
package similarity

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// ErrUnknownScorer is returned by ByName for names it does not recognize.
var ErrUnknownScorer = errors.New("unknown scorer")

// Scorer returns a symmetric similarity in [0,100]; identical strings score 100.
type Scorer func(a, b string) float64

// Names of the built-in scorers, as accepted by ByName.
const (
	NameRatio       = "ratio"
	NameLevenshtein = "levenshtein"
	NameTokenSort   = "token_sort"
)

// ByName resolves a scorer from configuration. Empty selects Ratio.
func ByName(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", NameRatio:
		return Ratio, nil
	case NameLevenshtein, "lev":
		return LevenshteinRatio, nil
	case NameTokenSort, "token-sort", "tokensort":
		return TokenSortRatio, nil
	default:
		return nil, fmt.Errorf("%w: %s (use ratio|levenshtein|token_sort)", ErrUnknownScorer, name)
	}
}

// Ratio is the normalized insertion/deletion similarity:
// 100 * (1 - indel(a,b) / (len(a)+len(b))), measured in runes.
func Ratio(a, b string) float64 {
	if a == b {
		return 100
	}
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100
	}
	lcs := lcsLength(ra, rb)
	dist := total - 2*lcs
	return 100 * (1 - float64(dist)/float64(total))
}

// LevenshteinRatio is 100 * (1 - lev(a,b) / max(len(a), len(b))).
func LevenshteinRatio(a, b string) float64 {
	if a == b {
		return 100
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 100
	}
	return 100 * (1 - float64(Levenshtein(ra, rb))/float64(maxLen))
}

// TokenSortRatio lower-cases both inputs, splits them on separators, sorts the
// tokens and compares the rejoined strings with Ratio. Identifiers such as
// "poetry_AI_killing" and "AI killing poetry" score 100.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortedTokens(a), sortedTokens(b))
}

func sortedTokens(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	sort.Strings(fields)
	return strings.Join(fields, " ")
}

// Levenshtein returns the edit distance between two rune slices.
func Levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// lcsLength is the longest common subsequence length, two rows at a time.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
		clear(curr)
	}
	return prev[len(b)]
}
