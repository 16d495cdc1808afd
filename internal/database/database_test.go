package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_DSN(t *testing.T) {
	cfg := Config{Host: "db", Port: "5432", User: "fern", Password: "p@ss word", Name: "catalog", SSLMode: "disable"}
	assert.Equal(t, "postgres://fern:p%40ss%20word@db:5432/catalog?sslmode=disable", cfg.DSN())

	cfg = Config{Host: "localhost", Port: "5433", Name: "fern"}
	assert.Equal(t, "postgres://localhost:5433/fern", cfg.DSN())
}

func TestGetLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_catalog.up.sql",
		"000001_catalog.down.sql",
		"000003_card_numbers.up.sql",
		"000002_aliases.up.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("-- noop"), 0o600))
	}

	latest, err := getLatestVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, latest)

	_, err = getLatestVersion(t.TempDir())
	assert.Error(t, err)
}

func TestMigrationFolderShipsWithRepo(t *testing.T) {
	latest, err := getLatestVersion(filepath.Join("..", "..", "db", "pg"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, latest, 2)
}
