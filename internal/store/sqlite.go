package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/fincal/internal/fiscal"
	"github.com/sells-group/fincal/internal/model"
)

// sqliteTimestamp is fixed width so TEXT ordering matches time ordering.
const sqliteTimestamp = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS payment_stream (
	id                TEXT PRIMARY KEY,
	payment_id        TEXT NOT NULL UNIQUE,
	customer_number   TEXT,
	deposit_ref       TEXT,
	order_id          TEXT,
	amount            REAL NOT NULL DEFAULT 0,
	currency          TEXT,
	payment_method    TEXT,
	status            TEXT,
	event_timestamp   TEXT,
	deposit_date      TEXT,
	financial_period  TEXT,
	financial_year    INTEGER,
	financial_month   INTEGER,
	financial_quarter INTEGER,
	period_start      TEXT,
	period_end        TEXT,
	processed_at      TEXT NOT NULL,
	payload           TEXT
);

CREATE INDEX IF NOT EXISTS idx_payment_stream_period ON payment_stream(financial_year, financial_month);
CREATE INDEX IF NOT EXISTS idx_payment_stream_processed ON payment_stream(processed_at);
`

// Migrate creates the payment_stream table.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const paymentSelect = `SELECT id, payment_id, customer_number, deposit_ref, order_id, amount, currency,
	payment_method, status, event_timestamp, deposit_date, financial_year, financial_month,
	financial_quarter, period_start, period_end, processed_at, payload FROM payment_stream`

func (s *SQLiteStore) SavePayment(ctx context.Context, ev *model.PaymentEvent) (bool, error) {
	if ev.PaymentID == "" {
		return false, eris.New("sqlite: payment id is required")
	}
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	if ev.ProcessedAt.IsZero() {
		ev.ProcessedAt = time.Now().UTC()
	}

	var ts any
	if ev.Timestamp != nil {
		ts = ev.Timestamp.UTC().Format(sqliteTimestamp)
	}
	var year, month, quarter, start, end any
	if !ev.Fiscal.IsUnknown() {
		year, month, quarter = ev.Fiscal.FinancialYear, ev.Fiscal.FinancialMonth, ev.Fiscal.FinancialQuarter
		start, end = ev.Fiscal.PeriodStart.String(), ev.Fiscal.PeriodEnd.String()
	}
	var payload any
	if len(ev.Payload) > 0 {
		payload = string(ev.Payload)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO payment_stream (id, payment_id, customer_number, deposit_ref, order_id, amount, currency,
			payment_method, status, event_timestamp, deposit_date, financial_period, financial_year,
			financial_month, financial_quarter, period_start, period_end, processed_at, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(payment_id) DO NOTHING`,
		ev.ID, ev.PaymentID, nullString(ev.CustomerNumber), nullString(ev.DepositRef), nullString(ev.OrderID),
		ev.Amount, nullString(ev.Currency), nullString(ev.Method), nullString(ev.Status), ts,
		sqliteDate(ev.DepositDate), nullString(ev.Fiscal.Code()), year, month, quarter, start, end,
		ev.ProcessedAt.UTC().Format(sqliteTimestamp), payload,
	)
	if err != nil {
		return false, eris.Wrap(err, "sqlite: save payment")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n == 1, nil
}

func (s *SQLiteStore) GetPayment(ctx context.Context, paymentID string) (*model.PaymentEvent, error) {
	row := s.db.QueryRowContext(ctx, paymentSelect+` WHERE payment_id = ?`, paymentID)
	ev, err := scanSQLitePayment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get payment %s", paymentID)
	}
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *SQLiteStore) ListPayments(ctx context.Context, filter PaymentFilter) ([]model.PaymentEvent, error) {
	var where []string
	var args []any
	if filter.FinancialYear != 0 {
		where = append(where, "financial_year = ?")
		args = append(args, filter.FinancialYear)
	}
	if filter.FinancialMonth != 0 {
		where = append(where, "financial_month = ?")
		args = append(args, filter.FinancialMonth)
	}
	q := paymentSelect
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY processed_at DESC, payment_id LIMIT ?"
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list payments")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.PaymentEvent
	for rows.Next() {
		ev, err := scanSQLitePayment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ev)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate payments")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanSQLitePayment(row scannable) (*model.PaymentEvent, error) {
	var (
		ev                             model.PaymentEvent
		customer, ref, order, currency sql.NullString
		method, status, ts, deposit    sql.NullString
		start, end, payload            sql.NullString
		year, month, quarter           sql.NullInt64
		processed                      string
	)
	err := row.Scan(&ev.ID, &ev.PaymentID, &customer, &ref, &order, &ev.Amount, &currency,
		&method, &status, &ts, &deposit, &year, &month, &quarter, &start, &end, &processed, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan payment")
	}

	ev.CustomerNumber, ev.DepositRef, ev.OrderID = customer.String, ref.String, order.String
	ev.Currency, ev.Method, ev.Status = currency.String, method.String, status.String
	if payload.Valid {
		ev.Payload = []byte(payload.String)
	}
	if ts.Valid {
		t, err := time.Parse(time.RFC3339Nano, ts.String)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: parse event timestamp")
		}
		ev.Timestamp = &t
	}
	if ev.ProcessedAt, err = time.Parse(time.RFC3339Nano, processed); err != nil {
		return nil, eris.Wrap(err, "sqlite: parse processed_at")
	}
	if deposit.Valid {
		if ev.DepositDate, err = fiscal.ParseDate(deposit.String); err != nil {
			return nil, eris.Wrap(err, "sqlite: parse deposit_date")
		}
	}
	if year.Valid && month.Valid {
		y, m, q := int(year.Int64), int(month.Int64), int(quarter.Int64)
		ev.Fiscal = periodFrom(&y, &m, &q, sqliteTime(start), sqliteTime(end))
	}
	return &ev, nil
}

func sqliteDate(d fiscal.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.String()
}

func sqliteTime(s sql.NullString) *time.Time {
	if !s.Valid {
		return nil
	}
	d, err := fiscal.ParseDate(s.String)
	if err != nil {
		return nil
	}
	t := d.Time()
	return &t
}
