package matching

import (
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// MatchSet resolves a set name within a year. Fuzzy candidates must contain,
// or be contained by, the input.
func (m *Matcher) MatchSet(name string, year int) MatchResult[models.Set] {
	var result MatchResult[models.Set]
	n := normalizers.Normalize(name)
	if n == "" {
		return result
	}

	sets := m.idx.SetsForYear(year)
	for _, s := range sets {
		if s.Norm == n {
			result.Exact = append(result.Exact, setCandidate(s.Set, 1.0))
		}
	}
	if len(result.Exact) > 0 {
		rank(result.Exact)
		return result
	}

	for _, s := range sets {
		if !m.scorer.Contains(n, s.Norm) {
			continue
		}
		if sim := m.scorer.Similarity(n, s.Norm); sim >= m.policy.SetMinSimilarity {
			result.Fuzzy = append(result.Fuzzy, setCandidate(s.Set, sim))
		}
	}
	rank(result.Fuzzy)
	result.Fuzzy = capCandidates(result.Fuzzy, m.policy.MaxFuzzyCandidates)
	return result
}

func setCandidate(s models.Set, confidence float64) Candidate[models.Set] {
	return Candidate[models.Set]{
		Type:       models.EntityTypeSet,
		ID:         s.ID,
		Name:       s.Name,
		Confidence: confidence,
		Entity:     s,
	}
}
