package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/fincal/internal/warehouse"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply warehouse schema migrations",
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

		if err := warehouse.Migrate(ctx, pool); err != nil {
			return eris.Wrap(err, "migrate: warehouse")
		}
		fmt.Fprintln(cmd.OutOrStdout(), "warehouse schema up to date")

		if withStore, _ := cmd.Flags().GetBool("store"); withStore {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			fmt.Fprintf(cmd.OutOrStdout(), "%s stream store up to date\n", cfg.Store.Driver)
		}
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("store", false, "also migrate the payment stream store")
	rootCmd.AddCommand(migrateCmd)
}
