package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/reqtrace/internal/config"
	"github.com/JonMunkholm/reqtrace/internal/core"
	"github.com/JonMunkholm/reqtrace/internal/export"
	"github.com/JonMunkholm/reqtrace/internal/rowsource"
	"github.com/JonMunkholm/reqtrace/internal/schema"
)

func newNormalizeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "normalize",
		Short: "Normalize every input in the run file and export the unified table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSettings(cmd, opts)
			if err != nil {
				return err
			}
			return runNormalize(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}
}

func runNormalize(ctx context.Context, out io.Writer, cfg *config.Config) error {
	if cfg.Run.Config == "" {
		return errors.New("no run file: pass --config or set REQTRACE_RUN_CONFIG")
	}

	rf, err := config.LoadRunFile(cfg.Run.Config, slog.Default())
	if err != nil {
		return err
	}
	registry, err := rf.Registry(schema.Default())
	if err != nil {
		return fmt.Errorf("build schema registry: %s", core.FormatUserError(err))
	}

	service := core.NewService(registry, rowsource.NewFileSource())
	res, err := service.Run(ctx, rf.Inputs)
	if err != nil {
		return err
	}

	writers, closeWriters, err := openWriters(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeWriters()

	exportCtx, cancel := context.WithTimeout(ctx, cfg.Output.Timeout)
	defer cancel()
	limiter := export.NewLimiter(cfg.Output.MaxConcurrent, cfg.Output.Timeout)
	exportErr := export.WriteAll(exportCtx, res, limiter, writers...)

	printSummary(out, res, exportErr)

	if res.Failed() || exportErr != nil {
		return errRunFailed
	}
	return nil
}

// openWriters builds a writer per configured target. The returned func
// releases any database pool.
func openWriters(ctx context.Context, cfg *config.Config) ([]export.Writer, func(), error) {
	var writers []export.Writer
	closer := func() {}

	if path := cfg.OutputPath(cfg.Output.CSV); path != "" {
		writers = append(writers, export.NewCSVWriter(path))
	}
	if path := cfg.OutputPath(cfg.Output.SQLite); path != "" {
		writers = append(writers, export.NewSQLiteWriter(path))
	}
	if cfg.Output.PostgresURL != "" {
		pool, err := export.OpenPostgres(ctx, cfg.Output.PostgresURL)
		if err != nil {
			return nil, closer, err
		}
		closer = pool.Close
		writers = append(writers, export.NewPostgresWriter(pool, cfg.Output.PostgresTable))
	}
	return writers, closer, nil
}

func printSummary(out io.Writer, res *core.Result, exportErr error) {
	fmt.Fprintf(out, "run %s (schema %s)\n", res.RunID, res.SchemaVersion)

	for _, d := range res.Documents {
		fmt.Fprintf(out, "  %-12s %-8s %5d records  %4d headers  %4d skipped\n",
			d.DocName, d.DocType, d.Stats.Produced, d.Stats.Headers, d.Stats.Skipped())
	}
	for _, f := range res.Failures {
		fmt.Fprintf(out, "  SKIPPED %s: %s\n", f.Input.Path, core.FormatUserError(f.Err))
	}

	fmt.Fprintf(out, "%d records, %d trace references resolved late, %d dangling\n",
		len(res.Records), res.Rewritten, len(res.Dangling))

	if exportErr != nil {
		for _, err := range unjoin(exportErr) {
			fmt.Fprintf(out, "  EXPORT %s (%v)\n", core.FormatUserError(err), err)
		}
	}
}

func unjoin(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}
