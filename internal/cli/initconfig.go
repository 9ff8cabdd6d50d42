package cli

import (
	"errors"
	"fmt"

	"github.com/whogoverns/api/internal/config"
)

// Execute implements the go-flags Commander interface for InitCommand.
func (c *InitCommand) Execute(args []string) error {
	path := c.Path
	if path == "" && c.globals != nil {
		path = c.globals.Config
	}
	if path == "" {
		return errors.New("--path (or --config) is required")
	}

	if err := config.WriteDefault(path); err != nil {
		return err
	}

	if isJSON(c.globals) {
		return printJSON(map[string]string{"written": path})
	}
	fmt.Printf("Wrote default config to %s\n", path)
	fmt.Printf("Set database.url (or %s) before running serve.\n", config.DatabaseURLEnv)
	return nil
}
