package main

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/fincal/internal/config"
	"github.com/sells-group/fincal/internal/db"
	"github.com/sells-group/fincal/internal/enrich"
	"github.com/sells-group/fincal/internal/fetcher"
	"github.com/sells-group/fincal/internal/fiscal"
	"github.com/sells-group/fincal/internal/resilience"
	"github.com/sells-group/fincal/internal/source"
	"github.com/sells-group/fincal/internal/warehouse"
)

// rdsConfig maps the config section onto the warehouse type.
func rdsConfig() warehouse.RDSConfig {
	r := cfg.Warehouse.RDS
	return warehouse.RDSConfig{
		Endpoint: r.Endpoint,
		Port:     r.Port,
		Region:   r.Region,
		User:     r.User,
		Name:     r.Name,
		Profile:  r.Profile,
	}
}

// warehouseDSN returns the warehouse connection string and, for RDS IAM auth,
// the token source used as the connection password.
func warehouseDSN(ctx context.Context) (string, db.PasswordFunc, error) {
	if cfg.Warehouse.DatabaseURL != "" {
		return cfg.Warehouse.DatabaseURL, nil, nil
	}
	if cfg.Warehouse.RDS.Endpoint == "" {
		return "", nil, eris.New("warehouse: no database configured (set warehouse.database_url or warehouse.rds.endpoint)")
	}
	rds := rdsConfig()
	dsn, err := rds.DSN()
	if err != nil {
		return "", nil, err
	}
	pw, err := warehouse.IAMPassword(ctx, rds)
	if err != nil {
		return "", nil, err
	}
	return dsn, pw, nil
}

// warehousePool opens the warehouse connection pool.
func warehousePool(ctx context.Context) (*pgxpool.Pool, error) {
	dsn, pw, err := warehouseDSN(ctx)
	if err != nil {
		return nil, err
	}
	pool, err := db.Connect(ctx, dsn, db.PoolOptions{MaxConns: cfg.Warehouse.MaxConns, Password: pw})
	if err != nil {
		return nil, eris.Wrap(err, "warehouse: connect")
	}
	zap.L().Info("connected to warehouse")
	return pool, nil
}

func warehouseRetry() resilience.RetryConfig {
	r := cfg.Warehouse.Retry
	return resilience.FromRetryConfig(r.MaxAttempts, r.InitialBackoffMs, r.MaxBackoffMs)
}

// newSourceLoader builds the source loader from the source section.
func newSourceLoader() (*source.Loader, error) {
	manifest, err := source.LoadManifest(cfg.Source.Manifest)
	if err != nil {
		return nil, err
	}
	return source.NewLoader(source.Options{
		Root:        cfg.Source.Root,
		TempDir:     cfg.Source.TempDir,
		Manifest:    manifest,
		Concurrency: cfg.Batch.Concurrency,
		Fetch: fetcher.Options{
			HTTP: fetcher.HTTPOptions{
				UserAgent:         cfg.Source.HTTP.UserAgent,
				Timeout:           config.Seconds(cfg.Source.HTTP.TimeoutSecs),
				RequestsPerSecond: cfg.Source.HTTP.RequestsPerSecond,
				Retry:             warehouseRetry(),
			},
			FTP: fetcher.FTPOptions{Timeout: config.Seconds(cfg.Source.FTP.TimeoutSecs)},
		},
	})
}

func newEnricher(r *fiscal.Resolver) *enrich.Enricher {
	return enrich.New(r, cfg.Batch.Concurrency)
}
