package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve    *ServeCommand
	Migrate  *MigrateCommand
	Status   *StatusCommand
	Timeline *TimelineCommand
	Init     *InitCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "whogoverns"
	parser.LongDescription = "Read-only API over the ruling-power dataset: who governed which country, year by year."

	cmds := &commands{
		Serve:    &ServeCommand{globals: &globals, version: version},
		Migrate:  &MigrateCommand{globals: &globals, version: version},
		Status:   &StatusCommand{globals: &globals, version: version},
		Timeline: &TimelineCommand{globals: &globals, version: version},
		Init:     &InitCommand{globals: &globals, version: version},
	}

	parser.AddCommand("serve", "Run the HTTP API", "Run the read-only HTTP API until SIGINT or SIGTERM.", cmds.Serve)
	parser.AddCommand("migrate", "Apply schema migrations", "Create or upgrade the tables the API reads.", cmds.Migrate)
	parser.AddCommand("status", "Show store health and coverage", "Show database reachability, the dataset window and per-status coverage counts.", cmds.Status)
	parser.AddCommand("timeline", "Print a country's power timeline", "Print the compressed power segments of one country.", cmds.Timeline)
	parser.AddCommand("init", "Write a default config file", "Write the default configuration as YAML. Existing files are never overwritten.", cmds.Init)

	return parser, &globals, cmds
}

// Run is the main entry point for the CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// go-flags requires a subcommand, but --version is valid without one.
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("whogoverns %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
