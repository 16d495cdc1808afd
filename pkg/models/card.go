package models

import "strings"

// ProvisionalCard is an unresolved card description, built from one
// spreadsheet row or one crowdsourced submission. PlayerNames and TeamNames
// may each hold several names separated by "/", ",", "&", ";" or "and".
type ProvisionalCard struct {
	Year        int    `json:"year" validate:"omitempty,min=1800,max=2200"`
	SetName     string `json:"set_name" validate:"required"`
	SeriesName  string `json:"series_name,omitempty"`
	CardNumber  string `json:"card_number" validate:"required"`
	PlayerNames string `json:"player_names,omitempty"`
	TeamNames   string `json:"team_names,omitempty"`
	ColorName   string `json:"color_name,omitempty"`
	PrintRun    *int   `json:"print_run,omitempty"`
	IsRookie    bool   `json:"is_rookie"`
	IsAutograph bool   `json:"is_autograph"`
	IsRelic     bool   `json:"is_relic"`
	Notes       string `json:"notes,omitempty"`
	SortOrder   int    `json:"sort_order"`
}

// IsBlank reports whether the card is missing its required card number.
func (c ProvisionalCard) IsBlank() bool {
	return strings.TrimSpace(c.CardNumber) == ""
}

// ImportRow is a provisional card read from a bulk import together with the
// 1-based row it came from
type ImportRow struct {
	ProvisionalCard
	SourceRow int `json:"source_row"`
}

// PlayerFieldEntry is one player parsed out of a card's player field, with
// the team paired to it by position. TeamGuesses is the set of team names
// used to decide which player/team associations to check; it contains every
// team on the card when the position is ambiguous.
type PlayerFieldEntry struct {
	Position    int      `json:"position"`
	PlayerName  string   `json:"player_name"`
	TeamName    *string  `json:"team_name"`
	TeamGuesses []string `json:"team_guesses"`
	NeedsReview bool     `json:"needs_review"`
}
