package fiscal

import (
	"encoding/json"
	"fmt"
	"time"
)

// Period is the financial calendar position of a calendar date.
// The zero value is Unknown.
type Period struct {
	FinancialYear    int
	FinancialMonth   int // 1..12, February = 1
	FinancialQuarter int // 1..4
	PeriodStart      Date
	PeriodEnd        Date
	Known            bool
}

// Unknown is returned for inputs that cannot be classified.
var Unknown = Period{}

// IsUnknown reports whether p is the Unknown sentinel.
func (p Period) IsUnknown() bool {
	return !p.Known
}

// Code renders p as "YYYY-MM" (financial year, financial month), or "" when unknown.
func (p Period) Code() string {
	if !p.Known {
		return ""
	}
	return fmt.Sprintf("%d-%02d", p.FinancialYear, p.FinancialMonth)
}

type periodJSON struct {
	FinancialYear    *int   `json:"financial_year"`
	FinancialMonth   *int   `json:"financial_month"`
	FinancialQuarter *int   `json:"financial_quarter"`
	PeriodStart      *Date  `json:"period_start"`
	PeriodEnd        *Date  `json:"period_end"`
	FinancialPeriod  string `json:"financial_period,omitempty"`
}

// MarshalJSON encodes every field of an Unknown period as null.
func (p Period) MarshalJSON() ([]byte, error) {
	if !p.Known {
		return json.Marshal(periodJSON{})
	}
	return json.Marshal(periodJSON{
		FinancialYear:    &p.FinancialYear,
		FinancialMonth:   &p.FinancialMonth,
		FinancialQuarter: &p.FinancialQuarter,
		PeriodStart:      &p.PeriodStart,
		PeriodEnd:        &p.PeriodEnd,
		FinancialPeriod:  p.Code(),
	})
}

var quarterOfMonth = map[int]int{
	1: 1, 2: 1, 3: 1,
	4: 2, 5: 2, 6: 2,
	7: 3, 8: 3, 9: 3,
	10: 4, 11: 4, 12: 4,
}

// QuarterOf returns the financial quarter for a financial month.
func QuarterOf(financialMonth int) (int, bool) {
	q, ok := quarterOfMonth[financialMonth]
	return q, ok
}

// Resolve returns the financial period of d, or Unknown when d is missing or
// not a real calendar day. Only d's year and month affect the result.
func Resolve(d Date) Period {
	if !d.Valid() {
		return Unknown
	}
	return resolveMonth(d.Year, d.Month)
}

func resolveMonth(year int, month time.Month) Period {
	prevYear, prevMonth := year, month-1
	if month == time.January {
		prevYear, prevMonth = year-1, time.December
	}

	start, err := LastWeekdayOfMonth(prevYear, prevMonth, time.Saturday)
	if err != nil {
		return Unknown
	}
	end, err := LastWeekdayOfMonth(year, month, time.Friday)
	if err != nil {
		return Unknown
	}

	fy := start.Year
	var fm int
	switch {
	case month == time.February:
		fm = 1
	case month > time.February:
		fm = int(month) - 1
	default:
		// January closes the year that started the previous February, and the
		// label drops one further year below the December start date.
		fm = 12
		fy--
	}

	q, ok := QuarterOf(fm)
	if !ok {
		return Unknown
	}

	return Period{
		FinancialYear:    fy,
		FinancialMonth:   fm,
		FinancialQuarter: q,
		PeriodStart:      start,
		PeriodEnd:        end,
		Known:            true,
	}
}

// ResolveTime resolves the wall-clock date of t. A nil t is Unknown.
func ResolveTime(t *time.Time) Period {
	if t == nil || t.IsZero() {
		return Unknown
	}
	return Resolve(DateOf(*t))
}

// ResolveString parses s with ParseAny and resolves it. Unparseable input is Unknown.
func ResolveString(s string) Period {
	d, err := ParseAny(s)
	if err != nil {
		return Unknown
	}
	return Resolve(d)
}
