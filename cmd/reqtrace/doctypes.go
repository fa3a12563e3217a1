package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/reqtrace/internal/config"
	"github.com/JonMunkholm/reqtrace/internal/schema"
)

func newDocTypesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctypes",
		Short: "List the document families the schema registry knows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadSettings(cmd, opts)
			if err != nil {
				return err
			}

			registry := schema.Default()
			if cfg.Run.Config != "" {
				rf, err := config.LoadRunFile(cfg.Run.Config, nil)
				if err != nil {
					return err
				}
				if registry, err = rf.Registry(registry); err != nil {
					return err
				}
			}
			return printDocTypes(cmd.OutOrStdout(), registry)
		},
	}
}

func printDocTypes(out io.Writer, registry *schema.Registry) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "schema %s\n", registry.Version())
	fmt.Fprintln(tw, "DOC TYPE\tNORMALIZER\tALIASES\tREQUIRED COLUMNS")
	for _, spec := range registry.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			spec.DocType,
			spec.Normalizer,
			orDash(strings.Join(spec.Aliases, ", ")),
			orDash(strings.Join(spec.RequiredColumns, ", ")),
		)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
