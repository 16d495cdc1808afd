package matching

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/Ramsey-B/fern/pkg/index"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// team fuzzy tiers, best first
const (
	tierAbbreviation = iota
	tierNamePrefix
	tierOther
)

type rankedTeam struct {
	candidate Candidate[models.Team]
	tier      int
}

// MatchTeam resolves a team name. Exact matches compare the strict team form
// of the input against name, city, mascot and abbreviation. Fuzzy candidates
// are tiered (abbreviation, then name prefix, then the rest) and ordered by
// ascending name length within a tier.
func (m *Matcher) MatchTeam(name string) MatchResult[models.Team] {
	var result MatchResult[models.Team]
	n := normalizers.NormalizeTeam(name)
	if n == "" {
		return result
	}

	teams := m.idx.Teams()
	for _, t := range teams {
		if slices.Contains(t.Fields(), n) {
			result.Exact = append(result.Exact, teamCandidate(t.Team, 1.0))
		}
	}
	if len(result.Exact) > 0 {
		rank(result.Exact)
		return result
	}

	var fuzzy []rankedTeam
	for _, t := range teams {
		score := m.teamScore(n, t)
		nameSim := m.scorer.Similarity(n, t.Name)
		if score < m.policy.TeamAcceptThreshold && !m.policy.AcceptTeamName(nameSim) {
			continue
		}
		fuzzy = append(fuzzy, rankedTeam{
			candidate: teamCandidate(t.Team, max(score, nameSim)),
			tier:      teamTier(n, t),
		})
	}

	slices.SortStableFunc(fuzzy, func(a, b rankedTeam) int {
		if c := cmp.Compare(a.tier, b.tier); c != 0 {
			return c
		}
		if c := cmp.Compare(utf8.RuneCountInString(a.candidate.Name), utf8.RuneCountInString(b.candidate.Name)); c != 0 {
			return c
		}
		if c := cmp.Compare(b.candidate.Confidence, a.candidate.Confidence); c != 0 {
			return c
		}
		return cmp.Compare(a.candidate.ID, b.candidate.ID)
	})

	for _, f := range fuzzy {
		result.Fuzzy = append(result.Fuzzy, f.candidate)
	}
	result.Fuzzy = capCandidates(result.Fuzzy, m.policy.MaxFuzzyCandidates)
	return result
}

// teamScore is the best similarity of the strict input against any team field
func (m *Matcher) teamScore(n string, t index.TeamEntry) float64 {
	best := 0.0
	for _, f := range t.Fields() {
		best = max(best, m.scorer.Similarity(n, f))
	}
	return best
}

func teamTier(n string, t index.TeamEntry) int {
	if t.Abbreviation != "" && (strings.HasPrefix(t.Abbreviation, n) || strings.HasPrefix(n, t.Abbreviation)) {
		return tierAbbreviation
	}
	if t.Name != "" && strings.HasPrefix(t.Name, n) {
		return tierNamePrefix
	}
	return tierOther
}

// teamMatchesName reports whether any field of team scores at least threshold
// against a strict-form team name
func (m *Matcher) teamMatchesName(team models.Team, strictName string, threshold float64) bool {
	if strictName == "" {
		return false
	}
	for _, f := range []string{team.Name, team.City, team.Mascot, team.Abbreviation} {
		f = normalizers.NormalizeTeam(f)
		if f != "" && m.scorer.Similarity(strictName, f) >= threshold {
			return true
		}
	}
	return false
}

func teamCandidate(t models.Team, confidence float64) Candidate[models.Team] {
	return Candidate[models.Team]{
		Type:       models.EntityTypeTeam,
		ID:         t.ID,
		Name:       t.Name,
		Confidence: confidence,
		Entity:     t,
	}
}
