package fiscal

import (
	"time"

	"github.com/rotisserie/eris"
)

// LastWeekdayOfMonth returns the last day in the given month that falls on wd.
// It walks back from the month's last day by a non-negative offset in [0,6].
func LastWeekdayOfMonth(year int, month time.Month, wd time.Weekday) (Date, error) {
	if month < time.January || month > time.December {
		return Date{}, eris.Wrapf(ErrOutOfRangeMonth, "fiscal: month %d", int(month))
	}

	// Day 0 of the next month normalises to the last day of this one.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	offset := (int(last.Weekday()) - int(wd) + 7) % 7
	return DateOf(last.AddDate(0, 0, -offset)), nil
}
