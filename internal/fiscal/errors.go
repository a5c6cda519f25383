package fiscal

import "github.com/rotisserie/eris"

var (
	// ErrInvalidCalendarInput is returned for dates or period codes that cannot be decoded.
	ErrInvalidCalendarInput = eris.New("fiscal: invalid calendar input")

	// ErrOutOfRangeMonth is returned when a month falls outside 1..12.
	ErrOutOfRangeMonth = eris.New("fiscal: month out of range")
)
