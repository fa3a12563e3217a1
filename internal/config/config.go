// Package config provides process settings and run-file loading.
// Settings come from built-in defaults overridden by REQTRACE_* environment
// variables and are validated on startup to fail fast on misconfiguration.
package config

import "time"

// EnvPrefix is the prefix of every environment variable the loader reads.
const EnvPrefix = "REQTRACE_"

// Config holds all process settings.
type Config struct {
	Log    LogConfig    `koanf:"log"`
	Run    RunConfig    `koanf:"run"`
	Output OutputConfig `koanf:"output"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `koanf:"level"`

	// Format is the log format: text or json (default: text)
	Format string `koanf:"format"`
}

// RunConfig locates the run file.
type RunConfig struct {
	// Config is the path of the YAML run file (REQTRACE_RUN_CONFIG)
	Config string `koanf:"config"`
}

// OutputConfig selects export targets. An empty path disables a target.
type OutputConfig struct {
	// Dir is the base directory for relative output paths (default: output)
	Dir string `koanf:"dir"`

	// CSV is the unified table CSV path (default: requirements.csv)
	CSV string `koanf:"csv"`

	// SQLite is the SQLite database path (default: requirements.db)
	SQLite string `koanf:"sqlite"`

	// PostgresURL enables the COPY export when set
	PostgresURL string `koanf:"postgres_url"`

	// PostgresTable is the COPY target table (default: requirements)
	PostgresTable string `koanf:"postgres_table"`

	// MaxConcurrent is how many writers run at once (default: 2)
	MaxConcurrent int `koanf:"max_concurrent"`

	// Timeout bounds the whole export stage (default: 10m)
	Timeout time.Duration `koanf:"timeout"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Output: OutputConfig{
			Dir:           "output",
			CSV:           "requirements.csv",
			SQLite:        "requirements.db",
			PostgresTable: "requirements",
			MaxConcurrent: 2,
			Timeout:       10 * time.Minute,
		},
	}
}
