// Package suggest finds near matches for mistyped order numbers and
// status values using Levenshtein distance.
package suggest

import (
	"sort"
	"strings"
)

// distance returns the edit distance between a and b, compared rune-wise
func distance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

// Closest returns up to limit candidates within a few edits of input,
// best first. Comparison ignores case; ties keep candidate order.
func Closest(input string, candidates []string, limit int) []string {
	in := strings.ToLower(strings.TrimSpace(input))
	if in == "" || limit <= 0 {
		return nil
	}
	maxDist := max(2, len([]rune(in))/3)

	type scored struct {
		value string
		dist  int
	}
	var hits []scored
	seen := make(map[string]bool)
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		if d := distance(in, strings.ToLower(c)); d <= maxDist {
			hits = append(hits, scored{c, d})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].dist < hits[j].dist })

	out := make([]string, 0, min(limit, len(hits)))
	for i := 0; i < len(hits) && i < limit; i++ {
		out = append(out, hits[i].value)
	}
	return out
}
