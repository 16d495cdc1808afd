package matching

import (
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// MatchColor resolves a parallel color. Parallel names are often shortened
// ("Gold" for "Gold Refractor") so the containment bar is lower than for sets.
func (m *Matcher) MatchColor(name string) MatchResult[models.Color] {
	var result MatchResult[models.Color]
	n := normalizers.Normalize(name)
	if n == "" {
		return result
	}

	colors := m.idx.Colors()
	for _, c := range colors {
		if c.Norm == n {
			result.Exact = append(result.Exact, colorCandidate(c.Color, 1.0))
		}
	}
	if len(result.Exact) > 0 {
		rank(result.Exact)
		return result
	}

	for _, c := range colors {
		if !m.scorer.Contains(n, c.Norm) {
			continue
		}
		if sim := m.scorer.Similarity(n, c.Norm); sim >= m.policy.ColorMinSimilarity {
			result.Fuzzy = append(result.Fuzzy, colorCandidate(c.Color, sim))
		}
	}
	rank(result.Fuzzy)
	result.Fuzzy = capCandidates(result.Fuzzy, m.policy.MaxFuzzyCandidates)
	return result
}

func colorCandidate(c models.Color, confidence float64) Candidate[models.Color] {
	return Candidate[models.Color]{
		Type:       models.EntityTypeColor,
		ID:         c.ID,
		Name:       c.Name,
		Confidence: confidence,
		Entity:     c,
	}
}
