package matching

import (
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// IsBaseSeriesName reports whether a normalized series input asks for the
// set's base series
func IsBaseSeriesName(norm string) bool {
	return norm == "" || norm == "base" || norm == "base set"
}

// MatchSeries resolves a series name within a resolved set. An empty name,
// "base" or "base set" resolves to the set's base series: the one flagged as
// base, or the one sharing the set's name.
func (m *Matcher) MatchSeries(name string, setID int64) MatchResult[models.Series] {
	var result MatchResult[models.Series]
	n := normalizers.Normalize(name)
	series := m.idx.SeriesForSet(setID)

	if IsBaseSeriesName(n) {
		set, ok := m.idx.Set(setID)
		for _, s := range series {
			if s.IsBase || (ok && s.Norm == set.Norm) {
				result.Exact = append(result.Exact, seriesCandidate(s.Series, 1.0))
			}
		}
		if len(result.Exact) > 0 || n == "" {
			rank(result.Exact)
			return result
		}
	}

	for _, s := range series {
		if s.Norm == n {
			result.Exact = append(result.Exact, seriesCandidate(s.Series, 1.0))
		}
	}
	if len(result.Exact) > 0 {
		rank(result.Exact)
		return result
	}

	for _, s := range series {
		if !m.scorer.Contains(n, s.Norm) {
			continue
		}
		if sim := m.scorer.Similarity(n, s.Norm); sim >= m.policy.SeriesMinSimilarity {
			result.Fuzzy = append(result.Fuzzy, seriesCandidate(s.Series, sim))
		}
	}
	rank(result.Fuzzy)
	result.Fuzzy = capCandidates(result.Fuzzy, m.policy.MaxFuzzyCandidates)
	return result
}

func seriesCandidate(s models.Series, confidence float64) Candidate[models.Series] {
	return Candidate[models.Series]{
		Type:       models.EntityTypeSeries,
		ID:         s.ID,
		Name:       s.Name,
		Confidence: confidence,
		Entity:     s,
	}
}
