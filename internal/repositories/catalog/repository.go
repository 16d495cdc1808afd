// Package catalog is the Postgres implementation of the reference catalog
package catalog

import (
	"context"
	"database/sql"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/pkg/catalog"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// batchSize caps the OR-composed conditions of one statement
const batchSize = 500

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Repository reads the card catalog from Postgres
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

var _ catalog.Catalog = (*Repository)(nil)

// NewRepository creates a new catalog repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) selectAll(ctx context.Context, name string, dest any, sb *sqlbuilder.SelectBuilder) error {
	query, args := sb.Build()

	start := time.Now()
	err := r.db.SelectContext(ctx, dest, query, args...)
	metrics.CatalogQueryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithField("query", name).Error("Catalog query failed")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to query "+name)
	}
	return nil
}

// FindSets returns the sets of year, or every set
func (r *Repository) FindSets(ctx context.Context, year *int) ([]models.Set, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Repository.FindSets")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("set_id", "name", "year")
	sb.From("sets")
	if year != nil {
		sb.Where(sb.Equal("year", *year))
	}
	sb.OrderBy("set_id")

	var sets []models.Set
	if err := r.selectAll(ctx, "sets", &sets, sb); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return sets, nil
}

func (r *Repository) FindSeriesBySet(ctx context.Context, setID int64) ([]models.Series, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Repository.FindSeriesBySet")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("series_id", "set_id", "name", "is_base", "parallel_of_series_id", "color_id")
	sb.From("series")
	sb.Where(sb.Equal("set_id", setID))
	sb.OrderBy("series_id")

	var series []models.Series
	if err := r.selectAll(ctx, "series", &series, sb); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return series, nil
}

func (r *Repository) FindColors(ctx context.Context) ([]models.Color, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Repository.FindColors")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("color_id", "name")
	sb.From("colors")
	sb.OrderBy("color_id")

	var colors []models.Color
	if err := r.selectAll(ctx, "colors", &colors, sb); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return colors, nil
}

// FindTeamsMatchingAny pre-filters teams whose name, city or mascot contains
// the search term of any candidate, or whose abbreviation equals one. Large
// candidate lists are split into batches of OR-composed conditions.
func (r *Repository) FindTeamsMatchingAny(ctx context.Context, candidates []string, orgs []int64) ([]models.Team, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Repository.FindTeamsMatchingAny")
	defer span.End()

	normalized := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if n := normalizers.NormalizeTeam(c); n != "" && !slices.Contains(normalized, n) {
			normalized = append(normalized, n)
		}
	}
	if len(normalized) == 0 {
		return nil, nil
	}

	seen := make(map[int64]struct{})
	var teams []models.Team
	for batch := range slices.Chunk(normalized, batchSize) {
		sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
		sb.Select("team_id", "name", "city", "mascot", "abbreviation", "organization_id")
		sb.From("teams")

		conds := make([]string, 0, len(batch)*4)
		for _, c := range batch {
			pattern := "%" + likeEscaper.Replace(catalog.TeamSearchTerm(c)) + "%"
			conds = append(conds,
				sb.Equal("lower(abbreviation)", c),
				sb.Like(squashed("name"), pattern),
				sb.Like(squashed("city"), pattern),
				sb.Like(squashed("mascot"), pattern),
			)
		}
		sb.Where(sb.Or(conds...))
		if len(orgs) > 0 {
			sb.Where(sb.In("organization_id", int64Args(orgs)...))
		}
		sb.OrderBy("team_id")

		var found []models.Team
		if err := r.selectAll(ctx, "teams", &found, sb); err != nil {
			tracing.RecordError(span, err)
			return nil, err
		}
		for _, t := range found {
			if _, ok := seen[t.ID]; ok {
				continue
			}
			seen[t.ID] = struct{}{}
			teams = append(teams, t)
		}
	}

	return teams, nil
}

type playerTeamRow struct {
	models.Player
	TeamID         sql.NullInt64  `db:"team_id"`
	TeamName       sql.NullString `db:"name"`
	City           sql.NullString `db:"city"`
	Mascot         sql.NullString `db:"mascot"`
	Abbreviation   sql.NullString `db:"abbreviation"`
	OrganizationID sql.NullInt64  `db:"organization_id"`
}

// FindPlayersWithTeams loads players and all of their teams in one joined
// query. With orgs set, only players with a team in orgs are returned, still
// carrying every team they have.
func (r *Repository) FindPlayersWithTeams(ctx context.Context, orgs []int64) ([]models.PlayerWithTeams, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Repository.FindPlayersWithTeams")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"p.player_id", "p.first_name", "p.last_name", "p.nick_name",
		"t.team_id", "t.name", "t.city", "t.mascot", "t.abbreviation", "t.organization_id",
	)
	sb.From("players p")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "player_teams pt", "pt.player_id = p.player_id")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "teams t", "t.team_id = pt.team_id")
	if len(orgs) > 0 {
		sub := sqlbuilder.PostgreSQL.NewSelectBuilder()
		sub.Select("opt.player_id")
		sub.From("player_teams opt")
		sub.Join("teams ot", "ot.team_id = opt.team_id")
		sub.Where(sub.In("ot.organization_id", int64Args(orgs)...))
		sb.Where(sb.In("p.player_id", sub))
	}
	sb.OrderBy("p.player_id", "t.team_id")

	var rows []playerTeamRow
	if err := r.selectAll(ctx, "players", &rows, sb); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	var players []models.PlayerWithTeams
	for _, row := range rows {
		if n := len(players); n == 0 || players[n-1].ID != row.Player.ID {
			players = append(players, models.PlayerWithTeams{Player: row.Player})
		}
		if !row.TeamID.Valid {
			continue
		}
		current := &players[len(players)-1]
		if current.HasTeam(row.TeamID.Int64) {
			continue
		}
		team := models.Team{
			ID:           row.TeamID.Int64,
			Name:         row.TeamName.String,
			City:         row.City.String,
			Mascot:       row.Mascot.String,
			Abbreviation: row.Abbreviation.String,
		}
		if row.OrganizationID.Valid {
			org := row.OrganizationID.Int64
			team.OrganizationID = &org
		}
		current.Teams = append(current.Teams, team)
	}

	return players, nil
}

func (r *Repository) FindPlayerAliases(ctx context.Context) ([]models.PlayerAlias, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Repository.FindPlayerAliases")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("player_id", "alias_name")
	sb.From("player_aliases")
	sb.OrderBy("player_id")

	var aliases []models.PlayerAlias
	if err := r.selectAll(ctx, "player_aliases", &aliases, sb); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}
	return aliases, nil
}

// FindExistingPlayerTeamAssociations looks pairs up in batches of OR'd
// (player_id, team_id) conditions
func (r *Repository) FindExistingPlayerTeamAssociations(ctx context.Context, pairs []models.PlayerTeamPair) ([]models.PlayerTeam, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Repository.FindExistingPlayerTeamAssociations")
	defer span.End()

	var out []models.PlayerTeam
	for batch := range slices.Chunk(pairs, batchSize) {
		sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
		sb.Select("player_team_id", "player_id", "team_id")
		sb.From("player_teams")

		conds := make([]string, 0, len(batch))
		for _, p := range batch {
			conds = append(conds, sb.And(sb.Equal("player_id", p.PlayerID), sb.Equal("team_id", p.TeamID)))
		}
		sb.Where(sb.Or(conds...))
		sb.OrderBy("player_team_id")

		var found []models.PlayerTeam
		if err := r.selectAll(ctx, "player_teams", &found, sb); err != nil {
			tracing.RecordError(span, err)
			return nil, err
		}
		out = append(out, found...)
	}

	return out, nil
}

type cardRow struct {
	CardID       int64         `db:"card_id"`
	PlayerTeamID sql.NullInt64 `db:"player_team_id"`
}

// FindExistingCard returns the card in seriesID with cardNumber whose
// player/team associations are exactly playerTeamIDs
func (r *Repository) FindExistingCard(ctx context.Context, seriesID int64, cardNumber string, playerTeamIDs []int64) (*int64, error) {
	ctx, span := tracing.StartSpan(ctx, "catalog.Repository.FindExistingCard")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("c.card_id", "cpt.player_team_id")
	sb.From("cards c")
	sb.JoinWithOption(sqlbuilder.LeftJoin, "card_player_teams cpt", "cpt.card_id = c.card_id")
	sb.Where(
		sb.Equal("c.series_id", seriesID),
		sb.Equal("lower(trim(c.card_number))", strings.ToLower(strings.TrimSpace(cardNumber))),
	)
	sb.OrderBy("c.card_id", "cpt.player_team_id")

	var rows []cardRow
	if err := r.selectAll(ctx, "cards", &rows, sb); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	return matchCard(rows, playerTeamIDs), nil
}

// matchCard groups rows ordered by card id and returns the first card whose
// association set equals want
func matchCard(rows []cardRow, want []int64) *int64 {
	want = slices.Clone(want)
	slices.Sort(want)
	want = slices.Compact(want)

	for i := 0; i < len(rows); {
		id := rows[i].CardID
		var have []int64
		for ; i < len(rows) && rows[i].CardID == id; i++ {
			if rows[i].PlayerTeamID.Valid {
				have = append(have, rows[i].PlayerTeamID.Int64)
			}
		}
		slices.Sort(have)
		if slices.Equal(slices.Compact(have), want) {
			return &id
		}
	}
	return nil
}

// squashed lowercases a column and drops spaces and hyphens, the way team
// candidates are normalized
// squashed folds a column the way normalizers.NormalizeTeam folds a search
// term. Matches the expression of the teams trigram indexes.
func squashed(column string) string {
	return "replace(replace(replace(fern_unaccent(lower(" + column + ")), ' ', ''), '-', ''), '.', '')"
}

func int64Args(ids []int64) []any {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}
