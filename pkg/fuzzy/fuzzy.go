// Package fuzzy scores how closely a typed query matches a candidate name.
//
// The score is a heuristic, not an exact search: a prefix or substring hit earns a
// fixed bonus, and a normalized Levenshtein term rewards near misses on the leading
// part of the candidate. Scores are deterministic and always fall in [0, 1].
package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Constants for scoring
const (
	PrefixBonus    = 0.6
	ContainsBonus  = 0.3
	DistanceWeight = 0.4
)

// Normalize folds s into the form used for matching: NFKC, trimmed, lowercase,
// with control characters removed.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
	return strings.TrimSpace(s)
}

// Score returns the similarity between query and candidate in [0, 1].
// An empty query carries no match signal and always scores 0.
func Score(query, candidate string) float64 {
	q := []rune(Normalize(query))
	if len(q) == 0 {
		return 0
	}
	c := []rune(Normalize(candidate))

	qs, cs := string(q), string(c)
	score := 0.0
	switch {
	case strings.HasPrefix(cs, qs):
		score = PrefixBonus
	case strings.Contains(cs, qs):
		score = ContainsBonus
	}

	head := c
	if len(head) > len(q) {
		head = head[:len(q)]
	}
	// len(q) > 0, so the denominator is never zero
	denom := max(len(q), len(head))
	dist := levenshteinRunes(q, head)
	score += DistanceWeight * (1 - float64(dist)/float64(denom))

	return min(max(score, 0), 1)
}

// Levenshtein returns the edit distance between a and b counted in runes.
func Levenshtein(a, b string) int {
	return levenshteinRunes([]rune(a), []rune(b))
}

// levenshteinRunes is a single-row DP over rune slices
func levenshteinRunes(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			next := min(row[j]+1, row[j-1]+1, diag+cost)
			diag = row[j]
			row[j] = next
		}
	}
	return row[len(b)]
}
