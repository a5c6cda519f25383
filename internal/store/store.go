// Package store persists payment events received on the stream. SQLite backs
// local runs; Postgres writes to the warehouse payment_stream table.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fincal/internal/db"
	"github.com/sells-group/fincal/internal/fiscal"
	"github.com/sells-group/fincal/internal/model"
)

// ErrNotFound is returned by GetPayment for an unknown payment id.
var ErrNotFound = eris.New("store: payment not found")

// PaymentFilter specifies criteria for listing payments. Zero fields do not filter.
type PaymentFilter struct {
	FinancialYear  int `json:"financial_year,omitempty"`
	FinancialMonth int `json:"financial_month,omitempty"`
	Limit          int `json:"limit,omitempty"`
}

const defaultListLimit = 100

func (f PaymentFilter) limit() int {
	if f.Limit <= 0 {
		return defaultListLimit
	}
	return f.Limit
}

// Store defines the persistence interface for streamed payments.
type Store interface {
	// SavePayment inserts ev. It reports false without error when a payment
	// with the same PaymentID was already stored.
	SavePayment(ctx context.Context, ev *model.PaymentEvent) (bool, error)
	GetPayment(ctx context.Context, paymentID string) (*model.PaymentEvent, error)
	ListPayments(ctx context.Context, filter PaymentFilter) ([]model.PaymentEvent, error)

	Migrate(ctx context.Context) error
	Close() error
}

// Config selects and locates the backing database.
type Config struct {
	Driver string // "sqlite" or "postgres"
	Path   string // sqlite file
	DSN    string // postgres connection string
}

// Open returns the Store named by cfg.Driver. password is only used by Postgres
// and may be nil.
func Open(ctx context.Context, cfg Config, password db.PasswordFunc) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		if cfg.Path == "" {
			return nil, eris.New("store: sqlite path is required")
		}
		return NewSQLite(cfg.Path)
	case "postgres":
		if cfg.DSN == "" {
			return nil, eris.New("store: postgres dsn is required")
		}
		return NewPostgres(ctx, cfg.DSN, password)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// periodFrom rebuilds a stored period. A NULL financial year means Unknown.
func periodFrom(year, month, quarter *int, start, end *time.Time) fiscal.Period {
	if year == nil || month == nil {
		return fiscal.Unknown
	}
	p := fiscal.Period{FinancialYear: *year, FinancialMonth: *month, Known: true}
	if quarter != nil {
		p.FinancialQuarter = *quarter
	} else if q, ok := fiscal.QuarterOf(*month); ok {
		p.FinancialQuarter = q
	}
	if start != nil {
		p.PeriodStart = fiscal.DateOf(*start)
	}
	if end != nil {
		p.PeriodEnd = fiscal.DateOf(*end)
	}
	return p
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
