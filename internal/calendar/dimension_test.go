package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/fincal/internal/fiscal"
)

func TestGenerate_RangeInclusive(t *testing.T) {
	rows, err := Generate(fiscal.NewDate(2024, time.December, 30), fiscal.NewDate(2025, time.January, 2))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, fiscal.NewDate(2024, time.December, 30), rows[0].Date)
	assert.Equal(t, fiscal.NewDate(2025, time.January, 2), rows[3].Date)
}

func TestGenerate_FullYear(t *testing.T) {
	rows, err := Generate(fiscal.NewDate(2024, time.January, 1), fiscal.NewDate(2024, time.December, 31))
	require.NoError(t, err)
	assert.Len(t, rows, 366)
}

func TestGenerate_RowFields(t *testing.T) {
	rows, err := Generate(fiscal.NewDate(2025, time.February, 1), fiscal.NewDate(2025, time.February, 1))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, "2025-01", r.FinancialPeriod)
	assert.Equal(t, 2025, r.Year)
	assert.Equal(t, 2, r.Month)
	assert.Equal(t, "February", r.MonthName)
	assert.Equal(t, 1, r.Quarter)
	assert.Equal(t, 5, r.WeekOfYear)
	assert.Equal(t, "Saturday", r.DayOfWeek)
	assert.True(t, r.IsWeekend)
	assert.Equal(t, 2025, r.FinancialYear)
	assert.Equal(t, 1, r.FinancialMonth)
	assert.Equal(t, 1, r.FinancialQuarter)
	assert.Equal(t, fiscal.NewDate(2025, time.January, 25), r.PeriodStart)
	assert.Equal(t, fiscal.NewDate(2025, time.February, 28), r.PeriodEnd)
}

func TestGenerate_WeekdayFlags(t *testing.T) {
	rows, err := Generate(fiscal.NewDate(2025, time.March, 3), fiscal.NewDate(2025, time.March, 9))
	require.NoError(t, err)
	require.Len(t, rows, 7)

	for i, r := range rows {
		assert.Equal(t, i >= 5, r.IsWeekend, r.DayOfWeek)
	}
	assert.Equal(t, "Monday", rows[0].DayOfWeek)
	assert.Equal(t, "Sunday", rows[6].DayOfWeek)
}

func TestGenerate_Errors(t *testing.T) {
	_, err := Generate(fiscal.NewDate(2025, time.March, 2), fiscal.NewDate(2025, time.March, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "before start")

	_, err = Generate(fiscal.Date{}, fiscal.NewDate(2025, time.March, 1))
	require.Error(t, err)
}

func TestRow_ValuesMatchColumns(t *testing.T) {
	rows, err := Generate(fiscal.NewDate(2025, time.January, 10), fiscal.NewDate(2025, time.January, 10))
	require.NoError(t, err)

	vals := rows[0].Values()
	require.Len(t, vals, len(Columns()))
	assert.Equal(t, time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC), vals[0])
	assert.Equal(t, "2023-12", vals[1])
}
