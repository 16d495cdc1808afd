package matching

import (
	"strings"

	"github.com/Ramsey-B/fern/pkg/index"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// fuzzyPrefixLen is how many leading runes of a name token a player must
// share to enter the fuzzy pool
const fuzzyPrefixLen = 3

// PlayerName is a parsed player input
type PlayerName struct {
	First string
	Last  string
}

// Full returns "first last" in normalized form
func (p PlayerName) Full() string {
	return strings.TrimSpace(p.First + " " + p.Last)
}

// SingleToken reports whether the input was a single word ("Ichiro")
func (p PlayerName) SingleToken() bool {
	return p.First != "" && p.Last == ""
}

// ParsePlayerName reads "First Last" or "Last, First". Everything after the
// first word is treated as the last name ("Ronald Acuña Jr." -> acuna jr).
func ParsePlayerName(raw string) PlayerName {
	if i := strings.Index(raw, ","); i >= 0 {
		last := normalizers.Normalize(raw[:i])
		first := normalizers.Normalize(raw[i+1:])
		if first == "" {
			return PlayerName{First: last}
		}
		return PlayerName{First: first, Last: last}
	}

	tokens := strings.Fields(normalizers.Normalize(raw))
	switch len(tokens) {
	case 0:
		return PlayerName{}
	case 1:
		return PlayerName{First: tokens[0]}
	default:
		return PlayerName{First: tokens[0], Last: strings.Join(tokens[1:], " ")}
	}
}

// MatchPlayer resolves a player name. It tries, in order: exact "first last",
// the swapped order, registered aliases, then fuzzy. A single-word input that
// equals a player's first, last or nick name is promoted ahead of generic
// fuzzy candidates. When teamContext names the teams on the card, candidates
// associated with one of those teams are preferred; if none is, every
// candidate is returned at reduced confidence.
func (m *Matcher) MatchPlayer(name string, teamContext []string) MatchResult[models.PlayerWithTeams] {
	var result MatchResult[models.PlayerWithTeams]
	input := ParsePlayerName(name)
	full := input.Full()
	if full == "" {
		return result
	}

	players := m.idx.Players()
	for _, p := range players {
		if p.Full == full || (input.Last != "" && p.First == input.Last && p.Last == input.First) {
			result.Exact = append(result.Exact, playerCandidate(p.PlayerWithTeams, 1.0))
		}
	}
	for _, id := range m.playersByAlias(name, full) {
		if containsID(result.Exact, id) {
			continue
		}
		if p, ok := m.idx.Player(id); ok {
			result.Exact = append(result.Exact, playerCandidate(p.PlayerWithTeams, 1.0))
		}
	}

	if len(result.Exact) > 0 {
		rank(result.Exact)
	} else {
		result.Fuzzy = m.fuzzyPlayers(input, players)
	}

	return m.applyTeamContext(result, teamContext)
}

func (m *Matcher) playersByAlias(raw, full string) []int64 {
	ids := m.idx.PlayersByAlias(full)
	if n := normalizers.Normalize(raw); n != full {
		ids = append(ids, m.idx.PlayersByAlias(n)...)
	}
	return ids
}

func (m *Matcher) fuzzyPlayers(input PlayerName, players []index.PlayerEntry) []Candidate[models.PlayerWithTeams] {
	var promoted, fuzzy []Candidate[models.PlayerWithTeams]
	full := input.Full()
	prefixes := namePrefixes(input)

	for _, p := range players {
		if input.SingleToken() && (p.First == input.First || p.Last == input.First || (p.Nick != "" && p.Nick == input.First)) {
			promoted = append(promoted, playerCandidate(p.PlayerWithTeams, m.policy.SingleTokenConfidence))
			continue
		}
		if !sharesPrefix(p, prefixes) {
			continue
		}

		var targets []string
		if input.SingleToken() {
			targets = []string{p.First, p.Last, p.Nick}
		} else {
			targets = []string{p.Full, strings.TrimSpace(p.Last + " " + p.First)}
		}

		best, accepted := 0.0, false
		for _, target := range targets {
			if target == "" {
				continue
			}
			if m.policy.Accept(m.scorer, full, target) {
				accepted = true
				best = max(best, m.scorer.Similarity(full, target))
			}
		}
		if accepted {
			fuzzy = append(fuzzy, playerCandidate(p.PlayerWithTeams, best))
		}
	}

	rank(fuzzy)
	if len(promoted) == 0 {
		return capCandidates(fuzzy, m.policy.MaxFuzzyCandidates)
	}

	rank(promoted)
	promoted = capCandidates(promoted, m.policy.MaxFuzzyCandidates)
	return append(promoted, capCandidates(fuzzy, m.policy.PromotedCandidateCap)...)
}

// applyTeamContext keeps only candidates associated with one of the card's
// teams. With no such candidate, only the best candidate is returned, capped
// at TeamMismatchConfidence. An exact name hit stays in Exact so the player
// is not mistaken for a new one.
func (m *Matcher) applyTeamContext(result MatchResult[models.PlayerWithTeams], teamContext []string) MatchResult[models.PlayerWithTeams] {
	if result.Empty() {
		return result
	}

	var contexts []string
	for _, t := range teamContext {
		if n := normalizers.NormalizeTeam(t); n != "" {
			contexts = append(contexts, n)
		}
	}
	if len(contexts) == 0 {
		return result
	}

	qualifies := func(c Candidate[models.PlayerWithTeams]) bool {
		for _, team := range c.Entity.Teams {
			for _, tc := range contexts {
				if m.teamMatchesName(team, tc, m.policy.TeamContextSimilarity) {
					return true
				}
			}
		}
		return false
	}

	var filtered MatchResult[models.PlayerWithTeams]
	for _, c := range result.Exact {
		if qualifies(c) {
			filtered.Exact = append(filtered.Exact, c)
		}
	}
	for _, c := range result.Fuzzy {
		if qualifies(c) {
			filtered.Fuzzy = append(filtered.Fuzzy, c)
		}
	}
	if !filtered.Empty() {
		return filtered
	}

	best, _ := result.Best()
	best.Confidence = min(best.Confidence, m.policy.TeamMismatchConfidence)
	var demoted MatchResult[models.PlayerWithTeams]
	if len(result.Exact) > 0 {
		demoted.Exact = []Candidate[models.PlayerWithTeams]{best}
	} else {
		demoted.Fuzzy = []Candidate[models.PlayerWithTeams]{best}
	}
	return demoted
}

func namePrefixes(input PlayerName) []string {
	var out []string
	for _, tok := range strings.Fields(input.Full()) {
		out = append(out, prefix(tok, fuzzyPrefixLen))
	}
	return out
}

func sharesPrefix(p index.PlayerEntry, prefixes []string) bool {
	for _, pre := range prefixes {
		if pre == "" {
			continue
		}
		if strings.HasPrefix(p.First, pre) || strings.HasPrefix(p.Last, pre) || (p.Nick != "" && strings.HasPrefix(p.Nick, pre)) {
			return true
		}
	}
	return false
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

func playerCandidate(p models.PlayerWithTeams, confidence float64) Candidate[models.PlayerWithTeams] {
	return Candidate[models.PlayerWithTeams]{
		Type:       models.EntityTypePlayer,
		ID:         p.ID,
		Name:       p.DisplayName(),
		Confidence: confidence,
		Entity:     p,
	}
}
