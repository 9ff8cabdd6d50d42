package cli

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whogoverns/api/internal/storage"
)

func openMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := storage.Open(context.Background(), storage.DialectSQLite, ":memory:?_foreign_keys=on", storage.PoolOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrate_AppliesThenReportsUpToDate(t *testing.T) {
	db := openMemoryDB(t)
	cmd := &MigrateCommand{globals: &GlobalFlags{}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithDB(db, storage.DialectSQLite))
	})
	assert.Contains(t, output, "Applied migration 1")

	output = captureOutput(t, func() {
		require.NoError(t, cmd.executeWithDB(db, storage.DialectSQLite))
	})
	assert.Contains(t, output, "Schema is up to date.")
}

func TestMigrate_DryRunLeavesSchemaUntouched(t *testing.T) {
	db := openMemoryDB(t)
	cmd := &MigrateCommand{DryRun: true, globals: &GlobalFlags{}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithDB(db, storage.DialectSQLite))
	})
	assert.Contains(t, output, "Pending migrations: [1]")

	pending, err := storage.NewMigrationRunner(db, storage.DialectSQLite).Pending()
	require.NoError(t, err)
	assert.Equal(t, []int{1}, pending)
}

func TestMigrate_JSONOutput(t *testing.T) {
	db := openMemoryDB(t)
	cmd := &MigrateCommand{globals: &GlobalFlags{JSON: true}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithDB(db, storage.DialectSQLite))
	})

	var result migrateJSON
	decodeOutput(t, output, &result)
	assert.Equal(t, "sqlite3", result.Driver)
	assert.False(t, result.DryRun)
	assert.Equal(t, []int{1}, result.Pending)
	assert.Equal(t, []int{1}, result.Applied)
}
