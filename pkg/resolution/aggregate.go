package resolution

import (
	"github.com/Ramsey-B/fern/pkg/cardparse"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// selectCandidate picks the candidate to auto-select from a result. One exact
// match wins. Several exact matches, or several fuzzy ones without a single
// candidate at the auto-accept bar, are ambiguous and nothing is picked.
func selectCandidate[T any](r matching.MatchResult[T], autoAccept float64) (*matching.Candidate[T], bool) {
	switch {
	case len(r.Exact) == 1:
		c := r.Exact[0]
		return &c, false
	case len(r.Exact) > 1:
		return nil, true
	case len(r.Fuzzy) == 1:
		c := r.Fuzzy[0]
		return &c, false
	case len(r.Fuzzy) > 1:
		if r.Fuzzy[0].Confidence >= autoAccept && r.Fuzzy[1].Confidence < autoAccept {
			c := r.Fuzzy[0]
			return &c, false
		}
		return nil, true
	}
	return nil, false
}

// requiresNew is set for a non-empty input with no exact match and no
// candidate at the auto-accept bar
func requiresNew[T any](input string, r matching.MatchResult[T], autoAccept float64) bool {
	if normalizers.Normalize(input) == "" {
		return false
	}
	return len(r.Exact) == 0 && r.MaxConfidence() < autoAccept
}

func confident[T any](c *matching.Candidate[T], autoAccept float64) bool {
	return c != nil && c.Confidence >= autoAccept
}

// aggregate resolves one card against the matcher. Player/team association
// ids are attached afterwards in one batch for the whole job.
func aggregate(m *matching.Matcher, card models.ProvisionalCard) ResolutionRecord {
	policy := m.Policy()
	bar := policy.AutoAcceptConfidence
	rec := ResolutionRecord{Card: card}

	var ambiguous bool
	rec.Set = m.MatchSet(card.SetName, card.Year)
	rec.SelectedSet, ambiguous = selectCandidate(rec.Set, bar)
	rec.NeedsReview = rec.NeedsReview || ambiguous
	rec.RequiresNewSet = requiresNew(card.SetName, rec.Set, bar)

	seriesName := normalizers.Normalize(card.SeriesName)
	if rec.SelectedSet != nil {
		rec.Series = m.MatchSeries(card.SeriesName, rec.SelectedSet.ID)
		rec.SelectedSeries, ambiguous = selectCandidate(rec.Series, bar)
		rec.NeedsReview = rec.NeedsReview || ambiguous
	}
	rec.SeriesRequired = seriesName != "" || rec.SelectedSeries != nil
	rec.RequiresNewSeries = requiresNew(card.SeriesName, rec.Series, bar)

	if normalizers.Normalize(card.ColorName) != "" {
		rec.Color = m.MatchColor(card.ColorName)
		rec.SelectedColor, ambiguous = selectCandidate(rec.Color, bar)
		rec.NeedsReview = rec.NeedsReview || ambiguous
		rec.RequiresNewColor = requiresNew(card.ColorName, rec.Color, bar)
	}

	teamsByInput := make(map[string]*TeamResolution)
	for _, name := range cardparse.ParseMultiEntityField(card.TeamNames) {
		tr := TeamResolution{Input: name, Match: m.MatchTeam(name)}
		tr.Selected, tr.NeedsReview = selectCandidate(tr.Match, bar)
		tr.RequiresNew = requiresNew(name, tr.Match, bar)
		rec.RequiresNewTeam = rec.RequiresNewTeam || tr.RequiresNew
		rec.NeedsReview = rec.NeedsReview || tr.NeedsReview
		rec.Teams = append(rec.Teams, tr)
	}
	for i := range rec.Teams {
		teamsByInput[rec.Teams[i].Input] = &rec.Teams[i]
	}

	entries := cardparse.BuildPlayerFieldEntries(card.PlayerNames, card.TeamNames)
	rec.Players = make([]PlayerResolution, len(entries))
	for i, entry := range entries {
		pr := resolvePlayer(m, entry, teamsByInput)
		rec.RequiresNewPlayer = rec.RequiresNewPlayer || pr.RequiresNew
		rec.NeedsReview = rec.NeedsReview || pr.NeedsReview
		rec.Players[i] = pr
	}

	rec.FullyResolved = fullyResolved(&rec, bar)
	return rec
}

// resolvePlayer matches one entry and applies the auto-acceptance policy: a
// lone candidate is selected together with its guessed teams. With several
// candidates, the one that already has an association with a guessed team is
// selected if it is the only one; otherwise the entry is left for review.
func resolvePlayer(m *matching.Matcher, entry models.PlayerFieldEntry, teamsByInput map[string]*TeamResolution) PlayerResolution {
	bar := m.Policy().AutoAcceptConfidence
	pr := PlayerResolution{
		Entry:       entry,
		Match:       m.MatchPlayer(entry.PlayerName, entry.TeamGuesses),
		NeedsReview: entry.NeedsReview,
	}
	pr.RequiresNew = requiresNew(entry.PlayerName, pr.Match, bar)

	var guessedTeams []matching.Candidate[models.Team]
	guessedIDs := make(map[int64]struct{})
	for _, guess := range entry.TeamGuesses {
		tr, ok := teamsByInput[guess]
		if !ok {
			continue
		}
		if tr.Selected != nil {
			guessedTeams = append(guessedTeams, *tr.Selected)
		}
		for _, c := range tr.Match.All() {
			guessedIDs[c.ID] = struct{}{}
		}
	}

	candidates := pr.Match.All()
	switch {
	case len(candidates) == 1:
		c := candidates[0]
		pr.Selected = &c
	case len(candidates) > 1:
		var associated []matching.Candidate[models.PlayerWithTeams]
		for _, c := range candidates {
			for id := range guessedIDs {
				if c.Entity.HasTeam(id) {
					associated = append(associated, c)
					break
				}
			}
		}
		if len(associated) == 1 {
			c := associated[0]
			pr.Selected = &c
		} else {
			pr.NeedsReview = true
		}
	}

	if pr.Selected != nil {
		pr.Teams = guessedTeams
	}
	return pr
}

// fullyResolved holds when the set, the series (if one is required) and every
// player have a selected candidate at the auto-accept bar
func fullyResolved(rec *ResolutionRecord, bar float64) bool {
	if !confident(rec.SelectedSet, bar) {
		return false
	}
	if rec.SeriesRequired && !confident(rec.SelectedSeries, bar) {
		return false
	}
	for i := range rec.Players {
		if !confident(rec.Players[i].Selected, bar) {
			return false
		}
	}
	return true
}
