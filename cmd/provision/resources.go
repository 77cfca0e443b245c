package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/zhang1980s/web-stack-provisioner/setup"
)

// newResourcesCommand lists what a run created, for manual cleanup.
func newResourcesCommand(rootOpts *rootOptions, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:           "resources <run-id>",
		Short:         "List the resources a run created",
		Long:          "List the resources recorded in the journal table (JOURNAL_TABLE_NAME) for one run.",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := rootOpts.load()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			if cfg.JournalTableName == "" {
				return errors.New("JOURNAL_TABLE_NAME is not set")
			}
			stack, err := setup.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}

			runID := args[0]
			entries, err := stack.Journal.Resources(cmd.Context(), runID)
			if err != nil {
				return err
			}
			result, err := stack.Journal.Result(cmd.Context(), runID)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KIND\tIDENTIFIER\tCREATED")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\n", e.Kind, e.Identifier, time.Unix(e.CreatedAt, 0).UTC().Format(time.RFC3339))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if result == nil {
				fmt.Fprintln(out, "run did not complete")
			} else {
				fmt.Fprintf(out, "db_host_name=%s cloudfront_domain_name=%s\n", result.DBHostName, result.CloudFrontDomainName)
			}
			return nil
		},
	}
}
