package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionFlag(t *testing.T) {
	var err error
	output := captureOutput(t, func() {
		err = RunWithArgs("0.1.0-test", []string{"--version"})
	})

	assert.NoError(t, err)
	assert.Contains(t, output, "whogoverns 0.1.0-test")
}

func TestVersionOutputFormat(t *testing.T) {
	output := captureOutput(t, func() {
		_ = RunWithArgs("1.2.3", []string{"--version"})
	})

	assert.Equal(t, "whogoverns 1.2.3", strings.TrimSpace(output))
}

func TestVersionAfterDoubleDashIsNotAFlag(t *testing.T) {
	err := RunWithArgs("test", []string{"timeline", "--", "--version"})
	require.Error(t, err)
}

func TestAllSubcommandsExist(t *testing.T) {
	expected := []string{"serve", "migrate", "status", "timeline", "init"}
	parser, _, _ := buildParser("test")

	for _, name := range expected {
		cmd := parser.Find(name)
		assert.NotNil(t, cmd, "subcommand %q should exist", name)
	}
}

func TestUnknownSubcommandFails(t *testing.T) {
	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"ingest"})
	require.Error(t, err)
}

func TestHelpFlagDoesNotError(t *testing.T) {
	err := RunWithArgs("test", []string{"--help"})
	assert.NoError(t, err)
}

func TestGlobalFlags(t *testing.T) {
	parser, globals, _ := buildParser("test")
	// Parse only; status would otherwise try to reach the configured database.
	parser.SubcommandsOptional = true
	_, err := parser.ParseArgs([]string{"--json", "--verbose", "--config", "/tmp/test.yaml"})
	require.NoError(t, err)

	assert.True(t, globals.JSON)
	assert.True(t, globals.Verbose)
	assert.Equal(t, "/tmp/test.yaml", globals.Config)
}

func TestServeFlags(t *testing.T) {
	parser, _, cmds := buildParser("test")
	cmd := parser.Find("serve")
	require.NotNil(t, cmd)

	for _, name := range []string{"host", "port", "log-level", "migrate"} {
		assert.NotNil(t, cmd.FindOptionByLongName(name), "serve should accept --%s", name)
	}
	assert.Equal(t, 0, cmds.Serve.Port)
}

func TestTimelineFlagsDefaults(t *testing.T) {
	parser, _, cmds := buildParser("test")
	cmd := parser.Find("timeline")
	require.NotNil(t, cmd)

	lang := cmd.FindOptionByLongName("lang")
	require.NotNil(t, lang)
	assert.Equal(t, []string{"en"}, lang.Default)
	assert.Equal(t, []string{"en", "fr"}, lang.Choices)
	assert.False(t, cmds.Timeline.Leader)
}

func TestTimelineRequiresISO3(t *testing.T) {
	err := RunWithArgs("test", []string{"timeline"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--iso3 is required")
}

func TestTimelineRejectsUnknownLang(t *testing.T) {
	err := RunWithArgs("test", []string{"timeline", "--iso3", "FRA", "--lang", "de"})
	require.Error(t, err)
}

func TestStatusFailsOnInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: mysql\n  url: x\n"), 0o644))

	err := RunWithArgs("test", []string{"--config", path, "status"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.driver")
}

func TestStatusEndToEndWithSQLiteConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	dbPath := filepath.Join(t.TempDir(), "whogoverns.db")
	yaml := "database:\n  driver: sqlite3\n  url: " + dbPath + "\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("DATABASE_URL", "")

	var err error
	output := captureOutput(t, func() {
		err = RunWithArgs("test", []string{"--config", path, "migrate"})
	})
	require.NoError(t, err)
	assert.Contains(t, output, "Applied migration 1")

	output = captureOutput(t, func() {
		err = RunWithArgs("test", []string{"--config", path, "status"})
	})
	require.NoError(t, err)
	assert.Contains(t, output, "Database:      ok")
	assert.Contains(t, output, "EU")
}

func TestFormatNumber(t *testing.T) {
	cases := map[int64]string{
		0:       "0",
		999:     "999",
		1000:    "1,000",
		123456:  "123,456",
		1234567: "1,234,567",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatNumber(in), "formatNumber(%d)", in)
	}
}

func TestNormalizeISO3(t *testing.T) {
	got, err := normalizeISO3(" fra ")
	require.NoError(t, err)
	assert.Equal(t, "FRA", got)

	for _, bad := range []string{"", "FR", "FRAN", "F1A"} {
		_, err := normalizeISO3(bad)
		assert.Error(t, err, "normalizeISO3(%q)", bad)
	}
}
