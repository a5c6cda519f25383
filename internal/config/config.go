package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/fincal/internal/fiscal"
)

// Config holds the full application configuration.
type Config struct {
	Source     SourceConfig     `yaml:"source" mapstructure:"source"`
	Warehouse  WarehouseConfig  `yaml:"warehouse" mapstructure:"warehouse"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Batch      BatchConfig      `yaml:"batch" mapstructure:"batch"`
	Calendar   CalendarConfig   `yaml:"calendar" mapstructure:"calendar"`
	Export     ExportConfig     `yaml:"export" mapstructure:"export"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// SourceConfig locates the source extracts.
type SourceConfig struct {
	// Root is a local directory or an ftp://, http:// or https:// base URL.
	Root     string     `yaml:"root" mapstructure:"root"`
	TempDir  string     `yaml:"temp_dir" mapstructure:"temp_dir"`
	Manifest string     `yaml:"manifest" mapstructure:"manifest"`
	HTTP     HTTPConfig `yaml:"http" mapstructure:"http"`
	FTP      FTPConfig  `yaml:"ftp" mapstructure:"ftp"`
}

// HTTPConfig configures HTTP source downloads.
type HTTPConfig struct {
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// FTPConfig configures FTP source downloads.
type FTPConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// WarehouseConfig configures the Postgres analytical store.
type WarehouseConfig struct {
	DatabaseURL string      `yaml:"database_url" mapstructure:"database_url"`
	BatchSize   int         `yaml:"batch_size" mapstructure:"batch_size"`
	MaxConns    int32       `yaml:"max_conns" mapstructure:"max_conns"`
	RDS         RDSConfig   `yaml:"rds" mapstructure:"rds"`
	Retry       RetryConfig `yaml:"retry" mapstructure:"retry"`
}

// RDSConfig configures IAM authentication against RDS. Used when database_url is empty.
type RDSConfig struct {
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Region   string `yaml:"region" mapstructure:"region"`
	User     string `yaml:"user" mapstructure:"user"`
	Name     string `yaml:"name" mapstructure:"name"`
	Profile  string `yaml:"profile" mapstructure:"profile"`
}

// RetryConfig configures retries for transient I/O failures.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
}

// StoreConfig configures the payment stream database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	RequestsPerSecond   float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst               int      `yaml:"burst" mapstructure:"burst"`
	AllowedOrigins      []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ShutdownTimeoutSecs int      `yaml:"shutdown_timeout_secs" mapstructure:"shutdown_timeout_secs"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`
}

// CalendarConfig bounds the generated calendar dimension (YYYY-MM-DD, inclusive).
type CalendarConfig struct {
	Start string `yaml:"start" mapstructure:"start"`
	End   string `yaml:"end" mapstructure:"end"`
}

// Range parses Start and End.
func (c CalendarConfig) Range() (fiscal.Date, fiscal.Date, error) {
	start, err := fiscal.ParseDate(c.Start)
	if err != nil {
		return fiscal.Date{}, fiscal.Date{}, eris.Wrap(err, "config: calendar.start")
	}
	end, err := fiscal.ParseDate(c.End)
	if err != nil {
		return fiscal.Date{}, fiscal.Date{}, eris.Wrap(err, "config: calendar.end")
	}
	return start, end, nil
}

// ExportConfig configures dataset export.
type ExportConfig struct {
	Dir      string `yaml:"dir" mapstructure:"dir"`
	S3Bucket string `yaml:"s3_bucket" mapstructure:"s3_bucket"`
	S3Prefix string `yaml:"s3_prefix" mapstructure:"s3_prefix"`
	Region   string `yaml:"region" mapstructure:"region"`
	Profile  string `yaml:"profile" mapstructure:"profile"`
}

// MonitoringConfig configures load and stream health alerts.
type MonitoringConfig struct {
	WebhookURL                string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs         int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours       int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold      float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	UnclassifiedRateThreshold float64 `yaml:"unclassified_rate_threshold" mapstructure:"unclassified_rate_threshold"`
	StaleAfterHours           int     `yaml:"stale_after_hours" mapstructure:"stale_after_hours"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Seconds converts a config seconds value to a duration.
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Load reads configuration from ./config.yaml (optional) and the environment.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile reads configuration from path, or from ./config.yaml when path is empty.
// Environment variables prefixed FINCAL_ override file values.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("FINCAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.root", "./data")
	v.SetDefault("source.temp_dir", "/tmp/fincal")
	v.SetDefault("source.manifest", "")
	v.SetDefault("source.http.user_agent", "fincal/1.0")
	v.SetDefault("source.http.timeout_secs", 60)
	v.SetDefault("source.http.requests_per_second", 5)
	v.SetDefault("source.ftp.timeout_secs", 30)
	v.SetDefault("warehouse.database_url", "")
	v.SetDefault("warehouse.batch_size", 5000)
	v.SetDefault("warehouse.max_conns", 10)
	v.SetDefault("warehouse.rds.endpoint", "")
	v.SetDefault("warehouse.rds.port", 5432)
	v.SetDefault("warehouse.rds.region", "af-south-1")
	v.SetDefault("warehouse.rds.user", "")
	v.SetDefault("warehouse.rds.name", "clearvue")
	v.SetDefault("warehouse.rds.profile", "")
	v.SetDefault("warehouse.retry.max_attempts", 3)
	v.SetDefault("warehouse.retry.initial_backoff_ms", 500)
	v.SetDefault("warehouse.retry.max_backoff_ms", 30000)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "fincal.db")
	v.SetDefault("store.database_url", "")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.requests_per_second", 50)
	v.SetDefault("server.burst", 100)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.shutdown_timeout_secs", 10)
	v.SetDefault("batch.concurrency", 8)
	v.SetDefault("calendar.start", "2018-01-01")
	v.SetDefault("calendar.end", "2025-12-31")
	v.SetDefault("export.dir", "./export")
	v.SetDefault("export.s3_bucket", "")
	v.SetDefault("export.s3_prefix", "fincal")
	v.SetDefault("export.region", "af-south-1")
	v.SetDefault("export.profile", "")
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.10)
	v.SetDefault("monitoring.unclassified_rate_threshold", 0.05)
	v.SetDefault("monitoring.stale_after_hours", 36)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional unless named explicitly)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings the named command depends on. Modes: load,
// migrate, serve, export, calendar, monitor.
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Batch.Concurrency < 1 || c.Batch.Concurrency > 64 {
		errs = append(errs, "batch.concurrency must be between 1 and 64")
	}

	warehouseDB := func() {
		if c.Warehouse.DatabaseURL == "" && c.Warehouse.RDS.Endpoint == "" {
			errs = append(errs, "warehouse.database_url or warehouse.rds.endpoint is required")
		}
		if c.Warehouse.DatabaseURL == "" && c.Warehouse.RDS.Endpoint != "" && c.Warehouse.RDS.User == "" {
			errs = append(errs, "warehouse.rds.user is required for IAM auth")
		}
	}
	calendarRange := func() {
		start, end, err := c.Calendar.Range()
		if err != nil {
			errs = append(errs, err.Error())
			return
		}
		if end.Before(start) {
			errs = append(errs, "calendar.end must not be before calendar.start")
		}
	}

	switch mode {
	case "load":
		if c.Source.Root == "" {
			errs = append(errs, "source.root is required")
		}
		if c.Warehouse.BatchSize < 1 {
			errs = append(errs, "warehouse.batch_size must be > 0")
		}
		warehouseDB()
		calendarRange()
	case "migrate":
		warehouseDB()
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
		switch c.Store.Driver {
		case "sqlite":
			if c.Store.Path == "" {
				errs = append(errs, "store.path is required for sqlite")
			}
		case "postgres":
			if c.Store.DatabaseURL == "" && c.Warehouse.DatabaseURL == "" && c.Warehouse.RDS.Endpoint == "" {
				errs = append(errs, "store.database_url is required for postgres")
			}
		default:
			errs = append(errs, "store.driver must be sqlite or postgres")
		}
	case "export":
		if c.Export.Dir == "" {
			errs = append(errs, "export.dir is required")
		}
		if c.Export.S3Bucket != "" && c.Export.Region == "" {
			errs = append(errs, "export.region is required for s3 upload")
		}
		calendarRange()
	case "calendar":
		calendarRange()
	case "monitor":
		warehouseDB()
		if c.Monitoring.FailureRateThreshold < 0 || c.Monitoring.FailureRateThreshold > 1 {
			errs = append(errs, "monitoring.failure_rate_threshold must be between 0 and 1")
		}
		if c.Monitoring.UnclassifiedRateThreshold < 0 || c.Monitoring.UnclassifiedRateThreshold > 1 {
			errs = append(errs, "monitoring.unclassified_rate_threshold must be between 0 and 1")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
