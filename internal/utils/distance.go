package utils

import "strings"

// LevenshteinDistance returns the edit distance between a and b
func LevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Closest returns the candidate nearest to target, ignoring case, when it is
// within maxDist edits. Ties go to the earlier candidate.
func Closest(target string, candidates []string, maxDist int) (string, bool) {
	lowerTarget := strings.ToLower(target)
	best, bestDist := "", maxDist+1
	for _, c := range candidates {
		if d := LevenshteinDistance(lowerTarget, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist <= maxDist
}
