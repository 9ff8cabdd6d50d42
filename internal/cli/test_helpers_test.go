package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/whogoverns/api/internal/config"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// decodeOutput unmarshals JSON captured from stdout into v.
func decodeOutput(t *testing.T, output string, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(output), v), "output should be valid JSON: %s", output)
}

// sqliteConfig returns the defaults pointed at an in-memory SQLite database.
func sqliteConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Database.Driver = "sqlite3"
	cfg.Database.URL = ":memory:?_foreign_keys=on"
	return cfg
}
