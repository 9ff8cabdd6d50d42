package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/whogoverns/api/internal/storage/storagetest"
)

func TestStatus_SeededStore(t *testing.T) {
	store, _ := storagetest.OpenSeeded(t)
	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, sqliteConfig()))
	})

	assert.Contains(t, output, "whogoverns Status")
	assert.Contains(t, output, "Version:       dev")
	assert.Contains(t, output, "Driver:        sqlite3")
	assert.Contains(t, output, "Database:      ok")
	assert.Contains(t, output, "Years:         1945-2025")
	assert.Contains(t, output, "Countries:     5")
	assert.Regexp(t, `available\s+3`, output)
	assert.Regexp(t, `in_progress\s+1`, output)
	assert.Regexp(t, `planned\s+1`, output)
	assert.Contains(t, output, "European Union")
}

func TestStatus_EmptyStore(t *testing.T) {
	store, _ := storagetest.OpenEmpty(t)
	cmd := &StatusCommand{globals: &GlobalFlags{}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, sqliteConfig()))
	})

	assert.Contains(t, output, "Countries:     0")
	assert.Regexp(t, `available\s+0`, output)
}

func TestStatus_JSONOutput(t *testing.T) {
	store, _ := storagetest.OpenSeeded(t)
	cmd := &StatusCommand{globals: &GlobalFlags{JSON: true}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, sqliteConfig()))
	})

	var result statusJSON
	decodeOutput(t, output, &result)

	assert.Equal(t, "dev", result.Version)
	assert.Equal(t, "ok", result.Database)
	assert.Empty(t, result.Error)
	assert.Equal(t, 5, result.Countries)
	require.NotNil(t, result.Coverage)
	assert.Equal(t, 3, result.Coverage.Available)
	require.Len(t, result.Groups, 2)
	assert.Equal(t, "EU", result.Groups[0].Code)
}

func TestStatus_UnreachableStoreIsReported(t *testing.T) {
	store, db := storagetest.OpenEmpty(t)
	require.NoError(t, db.Close())
	cmd := &StatusCommand{globals: &GlobalFlags{JSON: true}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(context.Background(), store, sqliteConfig()))
	})

	var result statusJSON
	decodeOutput(t, output, &result)
	assert.Equal(t, "unavailable", result.Database)
	assert.NotEmpty(t, result.Error)
	assert.Nil(t, result.Coverage)
	assert.Empty(t, result.Groups)
}

func TestStatus_DownDatabaseIsReportedByExecute(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	// The parent directory does not exist, so SQLite cannot open the file.
	yaml := "database:\n  driver: sqlite3\n  url: " + filepath.Join(dir, "missing", "whogoverns.db") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("DATABASE_URL", "")

	cmd := &StatusCommand{globals: &GlobalFlags{Config: path}, version: "dev"}
	var err error
	output := captureOutput(t, func() {
		err = cmd.Execute(nil)
	})

	require.NoError(t, err)
	assert.Contains(t, output, "Database:      unavailable (")
	assert.Contains(t, output, "Years:         1945-2025")
	assert.NotContains(t, output, "Coverage:")
}
