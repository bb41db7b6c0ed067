// Package config handles importer configuration loading and management.
package config

// Config holds all importer settings.
type Config struct {
	Importer ImporterConfig `yaml:"importer"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ImporterConfig holds the limits enforced around an import call.
type ImporterConfig struct {
	// MaxFileSizeMB bounds accepted input files; 0 disables the check.
	MaxFileSizeMB int `yaml:"max_file_size_mb"`

	// StrictWarnings makes the CLI exit non-zero when an import produced
	// any warnings.
	StrictWarnings bool `yaml:"strict_warnings"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// MaxFileSizeBytes converts the configured limit to bytes.
func (c ImporterConfig) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Importer: ImporterConfig{
			MaxFileSizeMB:  256,
			StrictWarnings: false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
