package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fincal/internal/monitoring"
	"github.com/sells-group/fincal/internal/warehouse"
)

var monitorOnce bool

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Alert on failed or stale loads and unclassified payments",
	Long:  "Periodically checks the warehouse load log and the payment stream store and posts alerts to monitoring.webhook_url when thresholds are breached.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("monitor"); err != nil {
			return err
		}

		pool, err := warehousePool(ctx)
		if err != nil {
			return err
		}
		defer pool.Close()

		var payments monitoring.PaymentLister
		if withStore, _ := cmd.Flags().GetBool("store"); withStore {
			st, err := openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
			payments = st
		}

		collector := monitoring.NewCollector(warehouse.NewLoadLog(pool), payments)
		checker := monitoring.NewChecker(collector, monitoring.NewAlerter(cfg.Monitoring), cfg.Monitoring)

		if !monitorOnce {
			checker.Run(ctx)
			return nil
		}

		alerts, err := checker.Check(ctx)
		if err != nil {
			return err
		}
		zap.L().Info("monitor check complete", zap.Int("alerts", len(alerts)))
		for _, a := range alerts {
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s: %s\n", a.Severity, a.Type, a.Message)
		}
		if len(alerts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
		}
		return nil
	},
}

func init() {
	monitorCmd.Flags().BoolVar(&monitorOnce, "once", false, "run a single check and exit")
	monitorCmd.Flags().Bool("store", true, "include the payment stream store")
	rootCmd.AddCommand(monitorCmd)
}
