// Package calendar materialises the calendar dimension used by BI reports.
package calendar

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fincal/internal/fiscal"
)

// Row is one day of the calendar dimension.
type Row struct {
	Date             fiscal.Date
	FinancialPeriod  string
	Year             int
	Month            int
	MonthName        string
	Quarter          int // calendar quarter
	WeekOfYear       int // ISO week
	DayOfWeek        string
	IsWeekend        bool
	FinancialYear    int
	FinancialMonth   int
	FinancialQuarter int
	PeriodStart      fiscal.Date
	PeriodEnd        fiscal.Date
}

// Columns returns the dimension's column names in Values order.
func Columns() []string {
	return []string{
		"date", "financial_period", "year", "month", "month_name", "quarter",
		"week_of_year", "day_of_week", "is_weekend",
		"financial_year", "financial_month", "financial_quarter",
		"period_start", "period_end",
	}
}

// Values returns r's cells in Columns order.
func (r Row) Values() []any {
	return []any{
		r.Date.Time(), r.FinancialPeriod, r.Year, r.Month, r.MonthName, r.Quarter,
		r.WeekOfYear, r.DayOfWeek, r.IsWeekend,
		r.FinancialYear, r.FinancialMonth, r.FinancialQuarter,
		r.PeriodStart.Time(), r.PeriodEnd.Time(),
	}
}

// Generate returns one Row per day from start to end inclusive.
func Generate(start, end fiscal.Date) ([]Row, error) {
	if !start.Valid() || !end.Valid() {
		return nil, eris.Wrapf(fiscal.ErrInvalidCalendarInput, "calendar: range %s..%s", start, end)
	}
	if end.Before(start) {
		return nil, eris.Errorf("calendar: end %s is before start %s", end, start)
	}

	r := fiscal.NewResolver()
	days := int(end.Time().Sub(start.Time()).Hours()/24) + 1
	rows := make([]Row, 0, days)
	for d := start; !d.After(end); d = d.AddDays(1) {
		rows = append(rows, NewRow(r, d))
	}
	return rows, nil
}

// NewRow builds the dimension row for d.
func NewRow(r *fiscal.Resolver, d fiscal.Date) Row {
	p := r.Resolve(d)
	_, week := d.Time().ISOWeek()
	wd := d.Weekday()

	return Row{
		Date:             d,
		FinancialPeriod:  p.Code(),
		Year:             d.Year,
		Month:            int(d.Month),
		MonthName:        d.Month.String(),
		Quarter:          (int(d.Month)-1)/3 + 1,
		WeekOfYear:       week,
		DayOfWeek:        wd.String(),
		IsWeekend:        wd == time.Saturday || wd == time.Sunday,
		FinancialYear:    p.FinancialYear,
		FinancialMonth:   p.FinancialMonth,
		FinancialQuarter: p.FinancialQuarter,
		PeriodStart:      p.PeriodStart,
		PeriodEnd:        p.PeriodEnd,
	}
}
