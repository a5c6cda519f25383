package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/fincal/internal/config"
	"github.com/sells-group/fincal/internal/db"
	"github.com/sells-group/fincal/internal/fiscal"
	"github.com/sells-group/fincal/internal/store"
	"github.com/sells-group/fincal/internal/stream"
)

var servePort int

// openStore opens the payment stream store. A postgres store without its own
// URL shares the warehouse database.
func openStore(ctx context.Context) (store.Store, error) {
	sc := store.Config{Driver: cfg.Store.Driver, Path: cfg.Store.Path, DSN: cfg.Store.DatabaseURL}
	var pw db.PasswordFunc
	if sc.Driver == "postgres" && sc.DSN == "" {
		dsn, p, err := warehouseDSN(ctx)
		if err != nil {
			return nil, err
		}
		sc.DSN, pw = dsn, p
	}
	st, err := store.Open(ctx, sc, pw)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "store: migrate")
	}
	return st, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the payment stream server",
	Long:  "Accepts payment events on POST /api/payments/webhook, tags each with its financial period and persists it to the stream store.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		handler := stream.NewServer(st, fiscal.NewResolver(), stream.Options{
			RequestsPerSecond: cfg.Server.RequestsPerSecond,
			Burst:             cfg.Server.Burst,
			AllowedOrigins:    cfg.Server.AllowedOrigins,
		}).Handler()

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Seconds(cfg.Server.ShutdownTimeoutSecs))
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("server shutdown", zap.Error(err))
			}
		}()

		zap.L().Info("starting server", zap.Int("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
