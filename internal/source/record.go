package source

import (
	"slices"
	"strconv"
	"strings"

	"github.com/sells-group/fincal/internal/fetcher"
	"github.com/sells-group/fincal/internal/fiscal"
)

// columns indexes a header row by trimmed, upper-cased column name.
type columns map[string]int

func indexHeader(header []string) columns {
	c := make(columns, len(header))
	for i, h := range header {
		key := strings.ToUpper(strings.TrimSpace(h))
		if _, dup := c[key]; !dup && key != "" {
			c[key] = i
		}
	}
	return c
}

// has reports whether any of names is present.
func (c columns) has(names ...string) bool {
	for _, n := range names {
		if _, ok := c[n]; ok {
			return true
		}
	}
	return false
}

// record is one data row bound to its header.
type record struct {
	cols columns
	row  []string
}

func (r record) raw(names ...string) string {
	for _, n := range names {
		if i, ok := r.cols[n]; ok && i < len(r.row) {
			return strings.TrimSpace(r.row[i])
		}
	}
	return ""
}

// values returns every non-empty cell keyed by column name, minus exclude.
func (r record) values(exclude ...string) map[string]string {
	out := make(map[string]string, len(r.cols))
	for name := range r.cols {
		if slices.Contains(exclude, name) {
			continue
		}
		if v := r.raw(name); v != "" {
			out[name] = v
		}
	}
	return out
}

// code returns a join key. Codes exported through Excel as floats ("12.0")
// compare equal to their integer form.
func (r record) code(names ...string) string {
	return NormalizeCode(r.raw(names...))
}

func (r record) text(names ...string) string {
	return r.raw(names...)
}

func (r record) float(names ...string) float64 {
	s := strings.ReplaceAll(r.raw(names...), ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return f
}

// date returns the zero Date when the cell is empty or unparseable.
func (r record) date(names ...string) fiscal.Date {
	s := r.raw(names...)
	if s == "" {
		return fiscal.Date{}
	}
	d, err := fiscal.ParseAny(s)
	if err != nil {
		return fiscal.Date{}
	}
	return d
}

// NormalizeCode trims s and drops a trailing ".0" fraction.
func NormalizeCode(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '.'); i > 0 && strings.Trim(s[i+1:], "0") == "" {
		if _, err := strconv.ParseInt(s[:i], 10, 64); err == nil {
			return s[:i]
		}
	}
	return s
}

func records(sheet *fetcher.Sheet) (columns, []record) {
	cols := indexHeader(sheet.Header)
	out := make([]record, len(sheet.Rows))
	for i, row := range sheet.Rows {
		out[i] = record{cols: cols, row: row}
	}
	return cols, out
}
