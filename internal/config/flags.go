package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
	flagMaxSize = flag.Int("max-file-size", 0, "Maximum input file size in MB (0 = unlimited)")
	flagLogFile = flag.String("log-file", "", "Write logs to this file")
	flagStrict  = flag.Bool("strict", false, "Exit non-zero when an import produced warnings")
)

// ParseFlags parses command-line flags from args and returns the
// remaining positional arguments. Call this early in main(), before
// Load(), so the flag overrides are visible.
func ParseFlags(args []string) []string {
	// the default flag set is ExitOnError, so a bad flag exits here
	flag.CommandLine.Parse(args)
	return flag.Args()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagMaxSize > 0 {
		cfg.Importer.MaxFileSizeMB = *flagMaxSize
	}
	if *flagLogFile != "" {
		cfg.Logging.LogFile = *flagLogFile
	}
	if *flagStrict {
		cfg.Importer.StrictWarnings = true
	}
}
