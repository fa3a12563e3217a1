// Command reqtrace normalizes requirement document exports into one
// traceable table and writes it to CSV, SQLite and optionally Postgres.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/reqtrace/internal/config"
	"github.com/JonMunkholm/reqtrace/internal/logging"
)

// errRunFailed signals a run that completed with skipped inputs or failed
// exports. Details were already printed.
var errRunFailed = errors.New("run completed with failures")

type rootOptions struct {
	runFile   string
	logLevel  string
	logFormat string
	outputDir string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "reqtrace",
		Short:         "Normalize requirement exports into a unified trace table",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&opts.runFile, "config", "c", "", "run file (overrides REQTRACE_RUN_CONFIG)")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "log format: text, json")
	flags.StringVar(&opts.outputDir, "output-dir", "", "base directory for relative output paths")

	root.AddCommand(
		newNormalizeCmd(opts),
		newDocTypesCmd(opts),
	)
	return root
}

// apply lays command-line flags over the environment settings.
func (o *rootOptions) apply(cfg *config.Config) {
	if o.runFile != "" {
		cfg.Run.Config = o.runFile
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.logFormat != "" {
		cfg.Log.Format = o.logFormat
	}
	if o.outputDir != "" {
		cfg.Output.Dir = o.outputDir
	}
}

// loadSettings reads .env, the environment and the command line, in that
// order of precedence from lowest to highest, and configures logging.
func loadSettings(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	// Overload lets .env win over the inherited environment; a missing file is fine
	envErr := godotenv.Overload()

	cfg, err := config.Load(opts.apply)
	if err != nil {
		return nil, err
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if envErr == nil {
		slog.Debug("loaded .env file (overwriting existing env vars)")
	}
	slog.Debug("configuration loaded", "config", cfg.String())

	return cfg, nil
}
