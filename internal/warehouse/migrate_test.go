package warehouse

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func expectLock(mock pgxmock.PgxPoolIface) {
	mock.ExpectExec("SELECT pg_advisory_lock").WithArgs(migrationLockID).WillReturnResult(pgxmock.NewResult("SELECT", 1))
}

func expectUnlock(mock pgxmock.PgxPoolIface) {
	mock.ExpectExec("SELECT pg_advisory_unlock").WithArgs(migrationLockID).WillReturnResult(pgxmock.NewResult("SELECT", 1))
}

func expectApply(mock pgxmock.PgxPoolIface, name string) {
	mock.ExpectBegin()
	mock.ExpectExec(".*").WillReturnResult(pgxmock.NewResult("EXEC", 0))
	mock.ExpectExec("INSERT INTO clearvue.schema_migrations").WithArgs(name).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
}

func TestMigrationNames_Sorted(t *testing.T) {
	names, err := migrationNames()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "001_calendar_dim.sql", names[0])
	assert.IsIncreasing(t, names)
}

func TestMigrate_FreshDB(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	names, err := migrationNames()
	require.NoError(t, err)

	expectLock(mock)
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS clearvue").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT filename FROM clearvue.schema_migrations").WillReturnRows(pgxmock.NewRows([]string{"filename"}))
	for _, name := range names {
		expectApply(mock, name)
	}
	expectUnlock(mock)

	require.NoError(t, Migrate(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_SkipsApplied(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	names, err := migrationNames()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(names), 2)

	applied := pgxmock.NewRows([]string{"filename"})
	for _, name := range names[:len(names)-1] {
		applied.AddRow(name)
	}

	expectLock(mock)
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS clearvue").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT filename FROM clearvue.schema_migrations").WillReturnRows(applied)
	expectApply(mock, names[len(names)-1])
	expectUnlock(mock)

	require.NoError(t, Migrate(context.Background(), mock))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_FailureRollsBackAndUnlocks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	expectLock(mock)
	mock.ExpectExec("CREATE SCHEMA IF NOT EXISTS clearvue").WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectQuery("SELECT filename FROM clearvue.schema_migrations").WillReturnRows(pgxmock.NewRows([]string{"filename"}))
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS clearvue.calendar_dim").WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()
	expectUnlock(mock)

	err = Migrate(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply migration 001_calendar_dim.sql")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_LockFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("SELECT pg_advisory_lock").WithArgs(migrationLockID).WillReturnError(errors.New("timeout"))

	err = Migrate(context.Background(), mock)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "advisory lock")
}
