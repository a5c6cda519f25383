package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/fincal/internal/warehouse"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent warehouse loads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("migrate"); err != nil {
			return err
		}

		pool, err := warehousePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		entries, err := warehouse.NewLoadLog(pool).Recent(ctx, historyLimit)
		if err != nil {
			return err
		}
		formatLoadHistory(cmd.OutOrStdout(), entries)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "number of loads to show")
	rootCmd.AddCommand(historyCmd)
}
