package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/fincal/internal/db"
	"github.com/sells-group/fincal/internal/fiscal"
	"github.com/sells-group/fincal/internal/model"
	"github.com/sells-group/fincal/internal/warehouse"
)

// PostgresStore implements Store on the warehouse payment_stream table.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, password db.PasswordFunc) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, db.PoolOptions{MaxConns: 10, Password: password})
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Close does not close it.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

// Migrate applies the warehouse migrations, which own payment_stream.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return warehouse.Migrate(ctx, s.pool)
}

// Close releases the pool when the store opened it.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

var paymentStreamTable = warehouse.Schema + ".payment_stream"

var pgPaymentSelect = `SELECT id, payment_id, customer_number, deposit_ref, order_id, amount, currency,
	payment_method, status, event_timestamp, deposit_date, financial_year, financial_month,
	financial_quarter, period_start, period_end, processed_at, payload FROM ` + paymentStreamTable

func (s *PostgresStore) SavePayment(ctx context.Context, ev *model.PaymentEvent) (bool, error) {
	if ev.PaymentID == "" {
		return false, eris.New("postgres: payment id is required")
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.ProcessedAt.IsZero() {
		ev.ProcessedAt = time.Now().UTC()
	}

	var payload any
	if len(ev.Payload) > 0 {
		payload = ev.Payload
	}
	args := []any{
		ev.ID, ev.PaymentID, nullString(ev.CustomerNumber), nullString(ev.DepositRef), nullString(ev.OrderID),
		ev.Amount, nullString(ev.Currency), nullString(ev.Method), nullString(ev.Status), ev.Timestamp,
		warehouse.DateValue(ev.DepositDate),
	}
	args = append(args, warehouse.FiscalValues(ev.Fiscal)...)
	args = append(args, ev.ProcessedAt, payload)

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO `+paymentStreamTable+` (id, payment_id, customer_number, deposit_ref, order_id, amount,
			currency, payment_method, status, event_timestamp, deposit_date, financial_period, financial_year,
			financial_month, financial_quarter, period_start, period_end, processed_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (payment_id) DO NOTHING`,
		args...,
	)
	if err != nil {
		return false, eris.Wrap(err, "postgres: save payment")
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) GetPayment(ctx context.Context, paymentID string) (*model.PaymentEvent, error) {
	row := s.pool.QueryRow(ctx, pgPaymentSelect+` WHERE payment_id = $1`, paymentID)
	ev, err := scanPGPayment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get payment %s", paymentID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get payment")
	}
	return ev, nil
}

func (s *PostgresStore) ListPayments(ctx context.Context, filter PaymentFilter) ([]model.PaymentEvent, error) {
	var where []string
	var args []any
	if filter.FinancialYear != 0 {
		args = append(args, filter.FinancialYear)
		where = append(where, fmt.Sprintf("financial_year = $%d", len(args)))
	}
	if filter.FinancialMonth != 0 {
		args = append(args, filter.FinancialMonth)
		where = append(where, fmt.Sprintf("financial_month = $%d", len(args)))
	}
	q := pgPaymentSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, filter.limit())
	q += fmt.Sprintf(" ORDER BY processed_at DESC, payment_id LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list payments")
	}
	defer rows.Close()

	var out []model.PaymentEvent
	for rows.Next() {
		ev, err := scanPGPayment(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan payment")
		}
		out = append(out, *ev)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate payments")
}

func scanPGPayment(row pgx.Row) (*model.PaymentEvent, error) {
	var (
		ev                             model.PaymentEvent
		customer, ref, order, currency *string
		method, status                 *string
		ts, deposit, start, end        *time.Time
		year, month, quarter           *int
	)
	err := row.Scan(&ev.ID, &ev.PaymentID, &customer, &ref, &order, &ev.Amount, &currency,
		&method, &status, &ts, &deposit, &year, &month, &quarter, &start, &end, &ev.ProcessedAt, &ev.Payload)
	if err != nil {
		return nil, err
	}
	ev.CustomerNumber, ev.DepositRef, ev.OrderID = deref(customer), deref(ref), deref(order)
	ev.Currency, ev.Method, ev.Status = deref(currency), deref(method), deref(status)
	ev.Timestamp = ts
	if deposit != nil {
		ev.DepositDate = fiscal.DateOf(*deposit)
	}
	ev.Fiscal = periodFrom(year, month, quarter, start, end)
	return &ev, nil
}
