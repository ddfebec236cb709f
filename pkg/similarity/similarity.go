package similarity

import "strings"

// Score calculates a name similarity score between 0.0 and 1.0 using a
// normalized Levenshtein distance. Inputs are lowercased and trimmed
// before comparison; if either side normalizes to empty the score is 0.0.
// Distance is measured over runes so multi-byte names score correctly.
func Score(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == "" || b == "" {
		return 0.0
	}
	if a == b {
		return 1.0
	}

	ra := []rune(a)
	rb := []rune(b)
	maxLen := max(len(ra), len(rb))

	return 1.0 - float64(distance(ra, rb))/float64(maxLen)
}

// distance calculates the edit distance between two rune slices
func distance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Create two rows for dynamic programming
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(min(row[j-1]+1, prevRow[j]+1), prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}
