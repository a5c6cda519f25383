package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fincal/internal/calendar"
	"github.com/sells-group/fincal/internal/fiscal"
	"github.com/sells-group/fincal/internal/pipeline"
	"github.com/sells-group/fincal/internal/warehouse"
)

// extractFacts reads the configured sources and enriches them.
func extractFacts(cmd *cobra.Command, r *fiscal.Resolver) (*pipeline.Facts, error) {
	loader, err := newSourceLoader()
	if err != nil {
		return nil, err
	}
	facts, err := pipeline.Extract(cmd.Context(), loader, newEnricher(r))
	if err != nil {
		return nil, err
	}
	if verbose, _ := cmd.Flags().GetBool("reports"); verbose {
		formatTableReports(cmd.OutOrStdout(), facts.Reports)
	}
	return facts, nil
}

// calendarRows generates the configured calendar unless --skip-calendar is set.
func calendarRows(cmd *cobra.Command) ([]calendar.Row, error) {
	if skip, _ := cmd.Flags().GetBool("skip-calendar"); skip {
		return nil, nil
	}
	start, end, err := cfg.Calendar.Range()
	if err != nil {
		return nil, err
	}
	return calendar.Generate(start, end)
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Extract, enrich and load facts into the warehouse",
	Long:  "Reads the source extracts, builds fiscal-tagged sales and payment facts plus the customer, product, supplier and representative dimensions, and upserts them with the calendar into the clearvue schema.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("load"); err != nil {
			return err
		}

		pool, err := warehousePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		if err := warehouse.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "load: migrate")
		}

		facts, err := extractFacts(cmd, fiscal.NewResolver())
		if err != nil {
			return err
		}
		cal, err := calendarRows(cmd)
		if err != nil {
			return err
		}

		wh := warehouse.New(pool, warehouse.Options{BatchSize: cfg.Warehouse.BatchSize, Retry: warehouseRetry()})
		summary, err := pipeline.Load(ctx, wh, cal, facts)
		if err != nil {
			return err
		}

		zap.L().Info("load complete", zap.String("batch_id", summary.BatchID), zap.Int64("rows", summary.Rows()))
		formatLoadSummary(cmd.OutOrStdout(), summary)
		return nil
	},
}

func init() {
	loadCmd.Flags().Bool("skip-calendar", false, "do not reload the calendar dimension")
	loadCmd.Flags().Bool("reports", false, "print the per-table source report")
	rootCmd.AddCommand(loadCmd)
}
