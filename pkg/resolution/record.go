package resolution

import (
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
)

// TeamResolution is one team name from the card's team field
type TeamResolution struct {
	Input       string                            `json:"input"`
	Match       matching.MatchResult[models.Team] `json:"match"`
	Selected    *matching.Candidate[models.Team]  `json:"selected,omitempty"`
	RequiresNew bool                              `json:"requires_new"`
	NeedsReview bool                              `json:"needs_review"`
}

// PlayerResolution is the result for one parsed player field entry. Teams are
// the auto-selected teams from the entry's team guesses; PlayerTeamIDs are the
// existing associations between the selected player and those teams, and
// NewAssociations the pairs that do not exist yet.
type PlayerResolution struct {
	Entry           models.PlayerFieldEntry                      `json:"entry"`
	Match           matching.MatchResult[models.PlayerWithTeams] `json:"match"`
	Selected        *matching.Candidate[models.PlayerWithTeams]  `json:"selected,omitempty"`
	Teams           []matching.Candidate[models.Team]            `json:"teams"`
	PlayerTeamIDs   []int64                                      `json:"player_team_ids"`
	NewAssociations []models.PlayerTeamPair                      `json:"new_associations,omitempty"`
	RequiresNew     bool                                         `json:"requires_new"`
	NeedsReview     bool                                         `json:"needs_review"`
}

// ResolutionRecord is everything the engine decided about one card. It is
// owned by the caller once returned.
type ResolutionRecord struct {
	Card models.ProvisionalCard `json:"card"`

	Set            matching.MatchResult[models.Set]    `json:"set"`
	SelectedSet    *matching.Candidate[models.Set]     `json:"selected_set,omitempty"`
	Series         matching.MatchResult[models.Series] `json:"series"`
	SelectedSeries *matching.Candidate[models.Series]  `json:"selected_series,omitempty"`
	SeriesRequired bool                                `json:"series_required"`
	Color          matching.MatchResult[models.Color]  `json:"color"`
	SelectedColor  *matching.Candidate[models.Color]   `json:"selected_color,omitempty"`

	Teams   []TeamResolution   `json:"teams"`
	Players []PlayerResolution `json:"players"`

	RequiresNewSet    bool `json:"requires_new_set"`
	RequiresNewSeries bool `json:"requires_new_series"`
	RequiresNewPlayer bool `json:"requires_new_player"`
	RequiresNewTeam   bool `json:"requires_new_team"`
	RequiresNewColor  bool `json:"requires_new_color"`
	NeedsReview       bool `json:"needs_review"`
	FullyResolved     bool `json:"fully_resolved"`

	ExistingCardID *int64 `json:"existing_card_id,omitempty"`
}

// Outcome buckets the record for metrics and event routing
func (r *ResolutionRecord) Outcome() string {
	switch {
	case r.FullyResolved && !r.NeedsReview:
		return metrics.OutcomeFullyResolved
	case r.NeedsReview:
		return metrics.OutcomeNeedsReview
	default:
		return metrics.OutcomePartial
	}
}
