package fiscal

import (
	"sync"
	"time"
)

type monthKey struct {
	year  int
	month time.Month
}

// Resolver memoises Resolve per calendar month. It is safe for concurrent use
// and the zero value is ready to use.
type Resolver struct {
	cache sync.Map // monthKey -> Period
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve is the cached form of the package-level Resolve.
func (r *Resolver) Resolve(d Date) Period {
	if !d.Valid() {
		return Unknown
	}
	key := monthKey{year: d.Year, month: d.Month}
	if p, ok := r.cache.Load(key); ok {
		return p.(Period)
	}
	p := resolveMonth(d.Year, d.Month)
	r.cache.Store(key, p)
	return p
}

// ResolveTime is the cached form of the package-level ResolveTime.
func (r *Resolver) ResolveTime(t *time.Time) Period {
	if t == nil || t.IsZero() {
		return Unknown
	}
	return r.Resolve(DateOf(*t))
}

// ResolveFromEncodedPeriod is the cached form of the package-level ResolveFromEncodedPeriod.
func (r *Resolver) ResolveFromEncodedPeriod(v any) Period {
	year, month, err := DecodePeriodCode(v)
	if err != nil {
		return Unknown
	}
	return r.Resolve(NewDate(year, month, representativeDay))
}
