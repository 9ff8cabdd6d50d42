package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// ServeCommand runs the read-only HTTP API until interrupted.
type ServeCommand struct {
	Host     string `long:"host" description:"Override listen host"`
	Port     int    `long:"port" description:"Override listen port"`
	LogLevel string `long:"log-level" description:"Override log level"`
	Migrate  bool   `long:"migrate" description:"Apply pending schema migrations before serving"`

	globals *GlobalFlags
	version string
}

// MigrateCommand brings the database schema up to date.
type MigrateCommand struct {
	DryRun bool `long:"dry-run" description:"List pending migrations without applying them"`

	globals *GlobalFlags
	version string
}

// StatusCommand reports store reachability and dataset coverage.
type StatusCommand struct {
	globals *GlobalFlags
	version string
}

// TimelineCommand prints the compressed power timeline of one country.
type TimelineCommand struct {
	ISO3   string `long:"iso3" description:"Country ISO3 code (required)"`
	From   int    `long:"from" description:"First year (default: dataset minimum)"`
	To     int    `long:"to" description:"Last year (default: dataset maximum)"`
	Lang   string `long:"lang" description:"Country name language" choice:"en" choice:"fr" default:"en"`
	Leader bool   `long:"leader" description:"Also split segments when the leader changes"`
	Years  bool   `long:"years" description:"Print one line per covered year instead of segments"`

	globals *GlobalFlags
	version string
}

// InitCommand writes the default configuration as YAML.
type InitCommand struct {
	Path string `long:"path" description:"Where to write the config (default: --config)"`

	globals *GlobalFlags
	version string
}
