package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/fern/internal/database"
	"github.com/Ramsey-B/fern/pkg/models"
)

const seed = `
TRUNCATE card_player_teams, cards, player_teams, player_aliases, players, teams, series, colors, sets RESTART IDENTITY CASCADE;
INSERT INTO sets (set_id, name, year) VALUES (1, 'Topps Chrome', 2023), (2, 'Topps Chrome', 2022);
INSERT INTO colors (color_id, name) VALUES (1, 'Gold Refractor');
INSERT INTO series (series_id, set_id, name, is_base) VALUES (10, 1, 'Topps Chrome', TRUE);
INSERT INTO series (series_id, set_id, name, parallel_of_series_id, color_id) VALUES (11, 1, 'Gold Refractor', 10, 1);
INSERT INTO teams (team_id, name, city, mascot, abbreviation, organization_id) VALUES
  (100, 'Los Angeles Angels', 'Los Angeles', 'Angels', 'LAA', 1),
  (101, 'Boston Red Sox', 'Boston', 'Red Sox', 'BOS', 1),
  (102, 'Salt Lake Bees', 'Salt Lake', 'Bees', 'SLC', 2),
  (103, 'St. Louis Cardinals', 'St. Louis', 'Cardinals', 'STL', 1),
  (104, 'Águilas Cibaeñas', 'Santiago', 'Águilas', 'AGU', 1);
INSERT INTO players (player_id, first_name, last_name) VALUES (1000, 'Mike', 'Trout'), (1001, 'Reid', 'Detmers');
INSERT INTO player_aliases (player_id, alias_name) VALUES (1000, 'Millville Meteor');
INSERT INTO player_teams (player_team_id, player_id, team_id) VALUES (5000, 1000, 100), (5001, 1001, 102);
INSERT INTO cards (card_id, series_id, card_number) VALUES (9000, 10, '27');
INSERT INTO card_player_teams (card_id, player_team_id) VALUES (9000, 5000);
`

func integrationRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("FERN_TEST_DATABASE_URL")
	if testing.Short() || dsn == "" {
		t.Skip("FERN_TEST_DATABASE_URL not set")
	}
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})

	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{
		MigrationFolderPath: filepath.Join("..", "..", "..", "db", "pg"),
	})
	require.NoError(t, migrations.MigratePostgres(db.DB, "fern_test"))

	_, err = db.Exec(seed)
	require.NoError(t, err)

	return NewRepository(db, logger)
}

func TestRepository_Integration(t *testing.T) {
	repo := integrationRepo(t)
	ctx := context.Background()

	year := 2023
	sets, err := repo.FindSets(ctx, &year)
	require.NoError(t, err)
	require.Len(t, sets, 1)

	series, err := repo.FindSeriesBySet(ctx, 1)
	require.NoError(t, err)
	require.Len(t, series, 2)
	require.NotNil(t, series[1].ParallelOfSeriesID)
	assert.Equal(t, int64(10), *series[1].ParallelOfSeriesID)

	teams, err := repo.FindTeamsMatchingAny(ctx, []string{"Red-Sox", "laa"}, []int64{1})
	require.NoError(t, err)
	ids := make([]int64, len(teams))
	for i, tm := range teams {
		ids[i] = tm.ID
	}
	assert.ElementsMatch(t, []int64{100, 101}, ids)

	teams, err = repo.FindTeamsMatchingAny(ctx, []string{"St Louis", "aguilas"}, []int64{1})
	require.NoError(t, err)
	ids = ids[:0]
	for _, tm := range teams {
		ids = append(ids, tm.ID)
	}
	assert.ElementsMatch(t, []int64{103, 104}, ids)

	players, err := repo.FindPlayersWithTeams(ctx, []int64{1})
	require.NoError(t, err)
	require.Len(t, players, 1)
	assert.Equal(t, int64(1000), players[0].ID)

	aliases, err := repo.FindPlayerAliases(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.PlayerAlias{{PlayerID: 1000, Alias: "Millville Meteor"}}, aliases)

	pts, err := repo.FindExistingPlayerTeamAssociations(ctx, []models.PlayerTeamPair{{PlayerID: 1000, TeamID: 100}, {PlayerID: 1000, TeamID: 101}})
	require.NoError(t, err)
	require.Len(t, pts, 1)
	assert.Equal(t, int64(5000), pts[0].ID)

	card, err := repo.FindExistingCard(ctx, 10, "27", []int64{5000})
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, int64(9000), *card)

	card, err = repo.FindExistingCard(ctx, 10, "27", []int64{5001})
	require.NoError(t, err)
	assert.Nil(t, card)
}
