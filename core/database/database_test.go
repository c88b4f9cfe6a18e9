package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/subbot/migrations"
)

func TestMigrationURL(t *testing.T) {
	pg := Config{Driver: DriverPostgres, User: "bot", Password: "p@ss", Host: "db", Port: "5432", Name: "subbot"}
	assert.Equal(t, "postgres://bot:p%40ss@db:5432/subbot?sslmode=disable", pg.MigrationURL())

	lite := Config{Driver: DriverSQLite, Path: "/var/lib/subbot.db"}
	assert.Equal(t, "sqlite:///var/lib/subbot.db", lite.MigrationURL())
	assert.Equal(t, "/var/lib/subbot.db", lite.DSN())
}

func TestListMigrationFilesPerDialect(t *testing.T) {
	for _, dialect := range []string{DriverPostgres, DriverSQLite} {
		files := listMigrationFiles(migrations.FS, dialect)
		require.NotEmpty(t, files, dialect)
		assert.Equal(t, "0001_identity.up.sql", files[0])
	}
	assert.Equal(t, 1, countApplied([]string{"0001_identity.up.sql", "0002_next.up.sql"}, 0, 1))
}

func TestSQLiteConnectAndMigrate(t *testing.T) {
	cfg := Config{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "identity.db")}
	require.NoError(t, RunMigrations(cfg))
	// second run is a no-op
	require.NoError(t, RunMigrations(cfg))

	db, err := Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var tables []string
	require.NoError(t, db.Select(&tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name IN ('owner', 'users', 'user_bot') ORDER BY name`))
	assert.Equal(t, []string{"owner", "user_bot", "users"}, tables)
}
