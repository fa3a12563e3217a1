package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Load reads settings from defaults and REQTRACE_* environment variables,
// then applies each override in order. Validation runs once, after the
// overrides, and its failure is returned.
func Load(overrides ...func(*Config)) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config load defaults: %w", err)
	}

	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return transformEnvKey(strings.TrimPrefix(key, EnvPrefix)), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("config load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal: %w", err)
	}

	for _, apply := range overrides {
		apply(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// transformEnvKey converts environment variable names to koanf paths.
// For example: OUTPUT_POSTGRES_URL -> output.postgres_url
func transformEnvKey(s string) string {
	parts := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '_'
	})

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	return parts[0] + "." + strings.Join(parts[1:], "_")
}

// Validate checks all settings and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("REQTRACE_LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.Log.Format)] {
		errs = append(errs, fmt.Sprintf("REQTRACE_LOG_FORMAT (%q) must be one of: text, json", c.Log.Format))
	}

	if c.Output.MaxConcurrent <= 0 {
		errs = append(errs, "REQTRACE_OUTPUT_MAX_CONCURRENT must be positive")
	}
	if c.Output.Timeout <= 0 {
		errs = append(errs, "REQTRACE_OUTPUT_TIMEOUT must be positive")
	}
	if c.Output.PostgresURL != "" && strings.TrimSpace(c.Output.PostgresTable) == "" {
		errs = append(errs, "REQTRACE_OUTPUT_POSTGRES_TABLE is required when REQTRACE_OUTPUT_POSTGRES_URL is set")
	}
	if c.Output.CSV != "" && c.Output.CSV == c.Output.SQLite {
		errs = append(errs, fmt.Sprintf("REQTRACE_OUTPUT_CSV and REQTRACE_OUTPUT_SQLITE must differ (both %q)", c.Output.CSV))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// OutputPath resolves an output file against Output.Dir. Blank stays blank.
func (c *Config) OutputPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Output.Dir, name)
}

// String returns a safe string representation of the config for logging.
// The Postgres URL is masked.
func (c *Config) String() string {
	pg := ""
	if c.Output.PostgresURL != "" {
		pg = "[MASKED]"
	}

	var b strings.Builder
	b.WriteString("Config{")
	b.WriteString(fmt.Sprintf("Log: {Level: %q, Format: %q}, ", c.Log.Level, c.Log.Format))
	b.WriteString(fmt.Sprintf("Run: {Config: %q}, ", c.Run.Config))
	b.WriteString(fmt.Sprintf("Output: {Dir: %q, CSV: %q, SQLite: %q, PostgresURL: %q, PostgresTable: %q, MaxConcurrent: %d}",
		c.Output.Dir, c.Output.CSV, c.Output.SQLite, pg, c.Output.PostgresTable, c.Output.MaxConcurrent))
	b.WriteString("}")
	return b.String()
}
