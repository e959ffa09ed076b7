package eval

import (
	"sort"

	"github.com/agnivade/levenshtein"
)

// SuggestFunctionNames returns up to max known names within edit distance 2
// of name, nearest first, for use in "unknown function" diagnostics.
func SuggestFunctionNames(name string, known []string, max int) []string {
	type scored struct {
		name string
		dist int
	}
	var candidates []scored
	for _, k := range known {
		d := levenshtein.ComputeDistance(name, k)
		if d <= 2 {
			candidates = append(candidates, scored{k, d})
		}
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].dist != candidates[j].dist {
			return candidates[i].dist < candidates[j].dist
		}
		return candidates[i].name < candidates[j].name
	})
	if len(candidates) > max {
		candidates = candidates[:max]
	}
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = c.name
	}
	return out
}
