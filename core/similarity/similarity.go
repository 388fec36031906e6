// Package similarity provides Levenshtein-based approximate string
// matching. The restoration engine's partial-match strategy uses the
// score to decide how far a speculative match window may grow.
package similarity

// DefaultThreshold is the score below which the partial-match strategy
// stops extending a candidate window and rejects it.
const DefaultThreshold = 0.7

// Score returns a similarity ratio in [0,1] between two strings:
// (maxLen - editDistance) / maxLen over Unicode code points. Two empty
// strings score 1.0; identical strings score 1.0.
func Score(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)

	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}
	return float64(maxLen-Distance(ra, rb)) / float64(maxLen)
}

// Distance computes the classic Levenshtein edit distance between two
// rune slices. Insert, delete and substitute all cost 1.
func Distance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Two-row DP over the edit matrix.
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
