// Package similarity provides string similarity scoring for entity
// resolution. Scores are normalized to [0,100] so thresholds read as
// percentages.
//
// TokenSortRatio is the primary metric: it is invariant to the order of
// whitespace-delimited tokens, which makes "Smith John" and "John Smith"
// score as near-identical. The underlying distance is indel (insertions
// and deletions only), matching the common fuzzy-matching convention.
package similarity

import (
	"sort"
	"strings"
)

// Ratio returns the normalized indel similarity of a and b in [0,100].
// Two empty strings are identical (100); one empty string scores 0
// against any non-empty string.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 100.0
	}
	dist := indelDistance(ra, rb)
	return 100.0 * (1.0 - float64(dist)/float64(total))
}

// TokenSortRatio sorts the whitespace-delimited tokens of each input,
// rejoins them with single spaces, and returns the Ratio of the results.
// The score is therefore insensitive to token order and to the amount of
// whitespace between tokens.
func TokenSortRatio(a, b string) float64 {
	return Ratio(sortTokens(a), sortTokens(b))
}

// Levenshtein returns the classic edit distance between a and b
// (insertions, deletions, and substitutions all cost 1). Operates on
// runes, not bytes.
func Levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	// Two-row dynamic programming; prev is row i-1, curr is row i.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// indelDistance is the edit distance when substitution is not allowed:
// len(a) + len(b) - 2*LCS(a, b).
func indelDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
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
		for j := range curr {
			curr[j] = 0
		}
	}
	lcs := prev[len(b)]
	return len(a) + len(b) - 2*lcs
}

func sortTokens(s string) string {
	tokens := strings.Fields(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
