package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fincal/internal/calendar"
	"github.com/sells-group/fincal/internal/export"
	"github.com/sells-group/fincal/internal/fiscal"
	"github.com/sells-group/fincal/internal/warehouse"
)

// calendarRange applies --start/--end over the configured range.
func calendarRange(cmd *cobra.Command) (fiscal.Date, fiscal.Date, error) {
	c := cfg.Calendar
	if v, _ := cmd.Flags().GetString("start"); v != "" {
		c.Start = v
	}
	if v, _ := cmd.Flags().GetString("end"); v != "" {
		c.End = v
	}
	return c.Range()
}

var calendarCmd = &cobra.Command{
	Use:   "calendar",
	Short: "Generate the calendar dimension",
	Long:  "Generates one row per day with its financial period and writes it to XLSX, or upserts it into clearvue.calendar_dim with --load.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		start, end, err := calendarRange(cmd)
		if err != nil {
			return err
		}
		rows, err := calendar.Generate(start, end)
		if err != nil {
			return err
		}

		if load, _ := cmd.Flags().GetBool("load"); load {
			pool, err := warehousePool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := warehouse.Migrate(ctx, pool); err != nil {
				return eris.Wrap(err, "calendar: migrate")
			}

			wh := warehouse.New(pool, warehouse.Options{BatchSize: cfg.Warehouse.BatchSize, Retry: warehouseRetry()})
			res, err := wh.LoadCalendar(ctx, warehouse.NewBatchID(), rows)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d calendar rows (batch %s)\n", res.Rows, res.BatchID)
			return nil
		}

		dir, _ := cmd.Flags().GetString("dir")
		if dir == "" {
			dir = cfg.Export.Dir
		}
		ex, err := export.New(export.Options{Dir: dir}, nil)
		if err != nil {
			return err
		}
		results, err := ex.Export(ctx, export.CalendarDataset(rows))
		if err != nil {
			return err
		}
		zap.L().Info("calendar dimension written", zap.String("start", start.String()), zap.String("end", end.String()))
		formatExportResults(cmd.OutOrStdout(), results)
		return nil
	},
}

func init() {
	calendarCmd.Flags().String("start", "", "first date, YYYY-MM-DD (default calendar.start)")
	calendarCmd.Flags().String("end", "", "last date, YYYY-MM-DD (default calendar.end)")
	calendarCmd.Flags().String("dir", "", "output directory (default export.dir)")
	calendarCmd.Flags().Bool("load", false, "upsert into the warehouse instead of writing XLSX")
	rootCmd.AddCommand(calendarCmd)
}
