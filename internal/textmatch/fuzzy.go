package textmatch

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Similarity is the normalized Levenshtein similarity of a and b over runes,
// in [0,1]. Two empty strings are identical.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	sim := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
	return min(max(sim, 0), 1)
}
