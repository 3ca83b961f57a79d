package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"retailhub/internal/etl"
	"retailhub/internal/logging"
)

// Test seams.
var (
	runPipeline   = etl.Run
	rebuildSchema = etl.RebuildSchema
)

func newRunCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Rebuild the warehouse and load every table",
		Long: `run drops and recreates the warehouse schema, then reads, cleans,
transforms and loads every configured source. A source that cannot be read
is skipped. The command fails when any table or the export failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := g.load()
			if err != nil {
				return err
			}
			if err := check(p, cmd.ErrOrStderr()); err != nil {
				return err
			}

			flush := setupMetrics(p.Job, p.Metrics)
			defer flush()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			sum, err := runPipeline(ctx, *p)
			sum.Log()
			if err != nil {
				return err
			}
			if failed := sum.FailedTables(); len(failed) > 0 {
				return fmt.Errorf("%d table(s) failed to load: %s", len(failed), strings.Join(failed, ", "))
			}
			if sum.ExportErr != nil {
				return fmt.Errorf("export: %w", sum.ExportErr)
			}
			return nil
		},
	}
}

func newSchemaCmd(g *globalFlags) *cobra.Command {
	schemaCmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the warehouse schema",
	}
	schemaCmd.AddCommand(&cobra.Command{
		Use:   "rebuild",
		Short: "Drop and recreate every warehouse table without loading data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := g.load()
			if err != nil {
				return err
			}
			if err := check(p, cmd.ErrOrStderr()); err != nil {
				return err
			}
			if err := rebuildSchema(cmd.Context(), *p); err != nil {
				return err
			}
			logging.Info().Str("storage", p.Storage.Kind).Msg("schema: rebuild complete")
			return nil
		},
	})
	return schemaCmd
}
