package catalog

import (
	"context"
	"slices"
	"strings"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Memory is a Catalog backed by slices. It is used by tests, by the CLI with
// a YAML fixture, and anywhere a database is not available.
type Memory struct {
	Sets        []models.Set         `yaml:"sets"`
	Series      []models.Series      `yaml:"series"`
	Colors      []models.Color       `yaml:"colors"`
	Teams       []models.Team        `yaml:"teams"`
	Players     []models.Player      `yaml:"players"`
	Aliases     []models.PlayerAlias `yaml:"aliases"`
	PlayerTeams []models.PlayerTeam  `yaml:"player_teams"`
	Cards       []models.Card        `yaml:"cards"`
}

var _ Catalog = (*Memory)(nil)

func (m *Memory) FindSets(_ context.Context, year *int) ([]models.Set, error) {
	var out []models.Set
	for _, s := range m.Sets {
		if year == nil || s.Year == *year {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) FindSeriesBySet(_ context.Context, setID int64) ([]models.Series, error) {
	var out []models.Series
	for _, s := range m.Series {
		if s.SetID == setID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *Memory) FindColors(_ context.Context) ([]models.Color, error) {
	return slices.Clone(m.Colors), nil
}

func (m *Memory) FindTeamsMatchingAny(_ context.Context, candidates []string, orgs []int64) ([]models.Team, error) {
	var out []models.Team
	for _, team := range m.Teams {
		if !inOrgs(team.OrganizationID, orgs) {
			continue
		}
		for _, c := range candidates {
			if teamMatchesCandidate(team, c) {
				out = append(out, team)
				break
			}
		}
	}
	return out, nil
}

func (m *Memory) FindPlayersWithTeams(_ context.Context, orgs []int64) ([]models.PlayerWithTeams, error) {
	teamsByID := make(map[int64]models.Team, len(m.Teams))
	for _, t := range m.Teams {
		teamsByID[t.ID] = t
	}

	out := make([]models.PlayerWithTeams, 0, len(m.Players))
	for _, p := range m.Players {
		pw := models.PlayerWithTeams{Player: p}
		inFilter := len(orgs) == 0
		for _, pt := range m.PlayerTeams {
			if pt.PlayerID != p.ID {
				continue
			}
			team, ok := teamsByID[pt.TeamID]
			if !ok || pw.HasTeam(team.ID) {
				continue
			}
			pw.Teams = append(pw.Teams, team)
			if inOrgs(team.OrganizationID, orgs) {
				inFilter = true
			}
		}
		if inFilter {
			out = append(out, pw)
		}
	}
	return out, nil
}

func (m *Memory) FindPlayerAliases(_ context.Context) ([]models.PlayerAlias, error) {
	return slices.Clone(m.Aliases), nil
}

func (m *Memory) FindExistingPlayerTeamAssociations(_ context.Context, pairs []models.PlayerTeamPair) ([]models.PlayerTeam, error) {
	want := make(map[models.PlayerTeamPair]struct{}, len(pairs))
	for _, p := range pairs {
		want[p] = struct{}{}
	}

	var out []models.PlayerTeam
	for _, pt := range m.PlayerTeams {
		if _, ok := want[models.PlayerTeamPair{PlayerID: pt.PlayerID, TeamID: pt.TeamID}]; ok {
			out = append(out, pt)
		}
	}
	return out, nil
}

func (m *Memory) FindExistingCard(_ context.Context, seriesID int64, cardNumber string, playerTeamIDs []int64) (*int64, error) {
	want := slices.Clone(playerTeamIDs)
	slices.Sort(want)
	for _, c := range m.Cards {
		if c.SeriesID != seriesID || !strings.EqualFold(strings.TrimSpace(c.CardNumber), strings.TrimSpace(cardNumber)) {
			continue
		}
		have := slices.Clone(c.PlayerTeamIDs)
		slices.Sort(have)
		if slices.Equal(have, want) {
			id := c.ID
			return &id, nil
		}
	}
	return nil, nil
}

func inOrgs(orgID *int64, orgs []int64) bool {
	if len(orgs) == 0 {
		return true
	}
	return orgID != nil && slices.Contains(orgs, *orgID)
}

func teamMatchesCandidate(team models.Team, candidate string) bool {
	candidate = normalizers.NormalizeTeam(candidate)
	if candidate == "" {
		return false
	}
	if abbr := normalizers.NormalizeTeam(team.Abbreviation); abbr != "" && abbr == candidate {
		return true
	}
	term := TeamSearchTerm(candidate)
	for _, field := range []string{team.Name, team.City, team.Mascot} {
		if f := normalizers.NormalizeTeam(field); f != "" && strings.Contains(f, term) {
			return true
		}
	}
	return false
}
