package models

import "strings"

// EntityType identifies which catalog table a candidate came from
type EntityType string

const (
	EntityTypeSet        EntityType = "set"
	EntityTypeSeries     EntityType = "series"
	EntityTypeColor      EntityType = "color"
	EntityTypeTeam       EntityType = "team"
	EntityTypePlayer     EntityType = "player"
	EntityTypePlayerTeam EntityType = "player_team"
	EntityTypeCard       EntityType = "card"
)

// Set is a card set released in a single year (e.g. "2023 Topps Chrome")
type Set struct {
	ID   int64  `json:"set_id" db:"set_id" yaml:"id"`
	Name string `json:"name" db:"name" yaml:"name"`
	Year int    `json:"year" db:"year" yaml:"year"`
}

// Series belongs to a set. The base series of a set is either flagged IsBase
// or carries the same name as its set; parallels point at the series they
// are a variant of.
type Series struct {
	ID                 int64  `json:"series_id" db:"series_id" yaml:"id"`
	SetID              int64  `json:"set_id" db:"set_id" yaml:"set_id"`
	Name               string `json:"name" db:"name" yaml:"name"`
	IsBase             bool   `json:"is_base" db:"is_base" yaml:"is_base"`
	ParallelOfSeriesID *int64 `json:"parallel_of_series_id,omitempty" db:"parallel_of_series_id" yaml:"parallel_of_series_id,omitempty"`
	ColorID            *int64 `json:"color_id,omitempty" db:"color_id" yaml:"color_id,omitempty"`
}

// Color is a parallel color/finish name (e.g. "Gold Refractor")
type Color struct {
	ID   int64  `json:"color_id" db:"color_id" yaml:"id"`
	Name string `json:"name" db:"name" yaml:"name"`
}

// Team is a professional, minor-league or college team
type Team struct {
	ID             int64  `json:"team_id" db:"team_id" yaml:"id"`
	Name           string `json:"name" db:"name" yaml:"name"`
	City           string `json:"city,omitempty" db:"city" yaml:"city,omitempty"`
	Mascot         string `json:"mascot,omitempty" db:"mascot" yaml:"mascot,omitempty"`
	Abbreviation   string `json:"abbreviation,omitempty" db:"abbreviation" yaml:"abbreviation,omitempty"`
	OrganizationID *int64 `json:"organization_id,omitempty" db:"organization_id" yaml:"organization_id,omitempty"`
}

// Player is a person who appears on cards
type Player struct {
	ID        int64  `json:"player_id" db:"player_id" yaml:"id"`
	FirstName string `json:"first_name" db:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" db:"last_name" yaml:"last_name"`
	NickName  string `json:"nick_name,omitempty" db:"nick_name" yaml:"nick_name,omitempty"`
}

// DisplayName returns "First Last", falling back to whichever half is set.
func (p Player) DisplayName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// PlayerAlias is an alternate spelling registered for a player
type PlayerAlias struct {
	PlayerID int64  `json:"player_id" db:"player_id" yaml:"player_id"`
	Alias    string `json:"alias" db:"alias_name" yaml:"alias"`
}

// PlayerTeam links a player to a team they have appeared on cards for.
// Unique per (PlayerID, TeamID).
type PlayerTeam struct {
	ID       int64 `json:"player_team_id" db:"player_team_id" yaml:"id"`
	PlayerID int64 `json:"player_id" db:"player_id" yaml:"player_id"`
	TeamID   int64 `json:"team_id" db:"team_id" yaml:"team_id"`
}

// PlayerTeamPair is a (player, team) lookup key
type PlayerTeamPair struct {
	PlayerID int64 `json:"player_id"`
	TeamID   int64 `json:"team_id"`
}

// PlayerWithTeams is a player plus every team they are associated with,
// deduplicated by team id
type PlayerWithTeams struct {
	Player
	Teams []Team `json:"teams"`
}

// HasTeam reports whether the player is associated with teamID.
func (p PlayerWithTeams) HasTeam(teamID int64) bool {
	for _, t := range p.Teams {
		if t.ID == teamID {
			return true
		}
	}
	return false
}

// Card is an existing catalog card, identified by series, number and the
// player/team associations printed on it
type Card struct {
	ID            int64   `json:"card_id" db:"card_id" yaml:"id"`
	SeriesID      int64   `json:"series_id" db:"series_id" yaml:"series_id"`
	CardNumber    string  `json:"card_number" db:"card_number" yaml:"card_number"`
	PlayerTeamIDs []int64 `json:"player_team_ids" yaml:"player_team_ids"`
}
