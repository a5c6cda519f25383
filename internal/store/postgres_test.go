package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fincal/internal/fiscal"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

var paymentColumns = []string{
	"id", "payment_id", "customer_number", "deposit_ref", "order_id", "amount", "currency",
	"payment_method", "status", "event_timestamp", "deposit_date", "financial_year", "financial_month",
	"financial_quarter", "period_start", "period_end", "processed_at", "payload",
}

func ptr[T any](v T) *T { return &v }

func TestPostgresStore_SavePayment(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	ev := testEvent("PAY-1", fiscal.NewDate(2025, time.March, 14))
	ev.ID = "evt-1"

	args := make([]any, 19)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	args[0], args[1], args[11], args[12], args[13] = "evt-1", "PAY-1", "2025-02", 2025, 2
	mock.ExpectExec(`INSERT INTO clearvue\.payment_stream .* ON CONFLICT \(payment_id\) DO NOTHING`).
		WithArgs(args...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	inserted, err := s.SavePayment(context.Background(), ev)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SavePayment_Duplicate(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`INSERT INTO clearvue\.payment_stream`).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := s.SavePayment(context.Background(), testEvent("PAY-1", fiscal.Date{}))
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SavePayment_Error(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectExec(`INSERT INTO clearvue\.payment_stream`).
		WillReturnError(errors.New("connection reset"))

	_, err := s.SavePayment(context.Background(), testEvent("PAY-1", fiscal.Date{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save payment")
}

func TestPostgresStore_GetPayment(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	processed := time.Date(2025, time.March, 14, 9, 31, 0, 0, time.UTC)
	start := time.Date(2025, time.February, 22, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.March, 28, 0, 0, 0, 0, time.UTC)
	deposit := time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)

	rows := pgxmock.NewRows(paymentColumns).AddRow(
		"evt-1", "PAY-1", ptr("C001"), ptr("DEP-1"), nil, 125.5, ptr("ZAR"),
		ptr("eft"), ptr("completed"), nil, &deposit, ptr(2025), ptr(2), ptr(1),
		&start, &end, processed, []byte(`{}`),
	)
	mock.ExpectQuery(`SELECT .* FROM clearvue\.payment_stream WHERE payment_id = \$1`).
		WithArgs("PAY-1").
		WillReturnRows(rows)

	got, err := s.GetPayment(context.Background(), "PAY-1")
	require.NoError(t, err)
	assert.Equal(t, "C001", got.CustomerNumber)
	assert.Empty(t, got.OrderID)
	assert.Nil(t, got.Timestamp)
	assert.Equal(t, fiscal.NewDate(2025, time.March, 14), got.DepositDate)
	assert.Equal(t, fiscal.Resolve(got.DepositDate), got.Fiscal)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetPayment_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`SELECT .* FROM clearvue\.payment_stream WHERE payment_id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetPayment(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListPayments_Filter(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	processed := time.Date(2025, time.March, 14, 9, 31, 0, 0, time.UTC)

	rows := pgxmock.NewRows(paymentColumns).AddRow(
		"evt-2", "PAY-2", nil, nil, nil, 10.0, nil,
		nil, nil, nil, nil, nil, nil, nil,
		nil, nil, processed, nil,
	)
	mock.ExpectQuery(`WHERE financial_year = \$1 AND financial_month = \$2 ORDER BY processed_at DESC, payment_id LIMIT \$3`).
		WithArgs(2025, 2, 20).
		WillReturnRows(rows)

	got, err := s.ListPayments(context.Background(), PaymentFilter{FinancialYear: 2025, FinancialMonth: 2, Limit: 20})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Fiscal.IsUnknown())
	assert.True(t, got[0].DepositDate.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListPayments_DefaultLimit(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	mock.ExpectQuery(`FROM clearvue\.payment_stream ORDER BY processed_at DESC, payment_id LIMIT \$1`).
		WithArgs(defaultListLimit).
		WillReturnRows(pgxmock.NewRows(paymentColumns))

	got, err := s.ListPayments(context.Background(), PaymentFilter{})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CloseWithoutOwnedPool(t *testing.T) {
	s, _ := newMockPostgresStore(t)
	assert.NoError(t, s.Close())
}
