package suggest

import "sort"

// MinSimilarity is the score below which a candidate is not offered.
const MinSimilarity = 0.6

type scored struct {
	name  string
	score float64
}

// Names returns up to limit candidates similar to name, best first. Exact
// matches are excluded since they would already have resolved.
func Names(name string, candidates []string, limit int) []string {
	var ranked []scored

	seen := make(map[string]bool, len(candidates))

	for _, c := range candidates {
		if c == name || seen[c] {
			continue
		}

		seen[c] = true

		if s := Similarity(name, c); s >= MinSimilarity {
			ranked = append(ranked, scored{name: c, score: s})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}

		return ranked[i].name < ranked[j].name
	})

	out := make([]string, 0, min(limit, len(ranked)))
	for i := 0; i < len(ranked) && i < limit; i++ {
		out = append(out, ranked[i].name)
	}

	return out
}
