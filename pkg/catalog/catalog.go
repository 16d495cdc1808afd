// Package catalog defines the read-only reference catalog the resolution
// engine queries, plus an in-memory implementation.
package catalog

import (
	"context"

	"github.com/Ramsey-B/fern/pkg/models"
)

// Catalog is the reference data source. Every method is side-effect free and
// returns a snapshot the caller may keep for the lifetime of a job.
type Catalog interface {
	// FindSets returns the sets released in year, or every set when year is nil.
	FindSets(ctx context.Context, year *int) ([]models.Set, error)
	FindSeriesBySet(ctx context.Context, setID int64) ([]models.Series, error)
	FindColors(ctx context.Context) ([]models.Color, error)
	// FindTeamsMatchingAny returns every team whose name, city, mascot or
	// abbreviation matches any of the normalized candidates, in one query.
	// An empty orgs slice disables the organization filter.
	FindTeamsMatchingAny(ctx context.Context, candidates []string, orgs []int64) ([]models.Team, error)
	// FindPlayersWithTeams returns players with at least one team in orgs, each
	// carrying all of their teams. An empty orgs slice returns every player.
	FindPlayersWithTeams(ctx context.Context, orgs []int64) ([]models.PlayerWithTeams, error)
	FindPlayerAliases(ctx context.Context) ([]models.PlayerAlias, error)
	FindExistingPlayerTeamAssociations(ctx context.Context, pairs []models.PlayerTeamPair) ([]models.PlayerTeam, error)
	// FindExistingCard returns the id of a card in seriesID with cardNumber and
	// exactly the given player/team associations, or nil.
	FindExistingCard(ctx context.Context, seriesID int64, cardNumber string, playerTeamIDs []int64) (*int64, error)
}

// TeamSearchTerm is the prefix used to pre-filter teams for a normalized
// candidate. Both implementations use it so the in-memory catalog behaves
// like the database one.
func TeamSearchTerm(candidate string) string {
	r := []rune(candidate)
	if len(r) > 3 {
		r = r[:3]
	}
	return string(r)
}
