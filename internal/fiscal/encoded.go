package fiscal

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// representativeDay is the day used to stand in for a whole month. Fiscal
// assignment depends only on the calendar month, so any day would do.
const representativeDay = 15

// DecodePeriodCode splits a YYYYMM period code into year and month. Accepted
// inputs are Go integers, whole floats, json.Number and numeric strings.
func DecodePeriodCode(v any) (int, time.Month, error) {
	code, err := periodCodeInt(v)
	if err != nil {
		return 0, 0, err
	}
	if code <= 0 {
		return 0, 0, eris.Wrapf(ErrInvalidCalendarInput, "fiscal: period code %d", code)
	}

	year, month := int(code/100), int(code%100)
	if month < 1 || month > 12 {
		return 0, 0, eris.Wrapf(ErrOutOfRangeMonth, "fiscal: period code %d has month %d", code, month)
	}
	if year < 1 {
		return 0, 0, eris.Wrapf(ErrInvalidCalendarInput, "fiscal: period code %d has year %d", code, year)
	}
	return year, time.Month(month), nil
}

func periodCodeInt(v any) (int64, error) {
	switch x := v.(type) {
	case nil:
		return 0, eris.Wrap(ErrInvalidCalendarInput, "fiscal: missing period code")
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		if x > math.MaxInt64 {
			return 0, eris.Wrap(ErrInvalidCalendarInput, "fiscal: period code overflows")
		}
		return int64(x), nil
	case float32:
		return wholeFloat(float64(x))
	case float64:
		return wholeFloat(x)
	case json.Number:
		return periodCodeInt(x.String())
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, nil
		}
		// Spreadsheet numerics often arrive as "202503.0".
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, eris.Wrapf(ErrInvalidCalendarInput, "fiscal: period code %q is not numeric", x)
		}
		return wholeFloat(f)
	default:
		return 0, eris.Wrapf(ErrInvalidCalendarInput, "fiscal: unsupported period code type %T", v)
	}
}

func wholeFloat(f float64) (int64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, eris.Wrapf(ErrInvalidCalendarInput, "fiscal: period code %v is not a whole number", f)
	}
	return int64(f), nil
}

// ResolveFromEncodedPeriod resolves a YYYYMM period code via the 15th of that
// month. Undecodable codes yield Unknown.
func ResolveFromEncodedPeriod(v any) Period {
	year, month, err := DecodePeriodCode(v)
	if err != nil {
		return Unknown
	}
	return Resolve(NewDate(year, month, representativeDay))
}
