package insights

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultVATRate is the sales tax removed by NetFromGross when none is configured.
var DefaultVATRate = decimal.NewFromFloat(0.18)

// Resolver answers which slice of time financial figures may use for a given
// year. It is a pure function of the tracking start cutoff, the tax rate, the
// location used for calendar boundaries and "now".
type Resolver struct {
	trackingStart *time.Time
	vatRate       decimal.Decimal
	loc           *time.Location
	now           time.Time
}

// NewResolver builds a Resolver. A nil loc means UTC.
func NewResolver(trackingStart *time.Time, vatRate decimal.Decimal, loc *time.Location, now time.Time) *Resolver {
	if loc == nil {
		loc = time.UTC
	}
	return &Resolver{trackingStart: trackingStart, vatRate: vatRate, loc: loc, now: now.In(loc)}
}

func (r *Resolver) Now() time.Time { return r.now }

func (r *Resolver) Location() *time.Location { return r.loc }

func (r *Resolver) CurrentYear() int { return r.now.Year() }

func (r *Resolver) YearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 0, 0, 0, 0, r.loc)
}

// EffectiveStart is the later of January 1st of year and the configured
// financial tracking start.
func (r *Resolver) EffectiveStart(year int) time.Time {
	start := r.YearStart(year)
	if r.trackingStart != nil && r.trackingStart.After(start) {
		return r.trackingStart.In(r.loc)
	}
	return start
}

// PeriodEnd is the exclusive end of a year's data: the start of the next year,
// or now for the running year.
func (r *Resolver) PeriodEnd(year int) time.Time {
	end := r.YearStart(year + 1)
	if r.now.Before(end) {
		return r.now
	}
	return end
}

// Contains reports whether t falls inside the trusted window of its own year.
func (r *Resolver) Contains(t time.Time) bool {
	t = t.In(r.loc)
	year := t.Year()
	return !t.Before(r.EffectiveStart(year)) && t.Before(r.PeriodEnd(year))
}

// RelevantYears returns the last n calendar years, oldest first, ending with
// the current one.
func (r *Resolver) RelevantYears(n int) []int {
	if n < 1 {
		n = 1
	}
	current := r.CurrentYear()
	years := make([]int, 0, n)
	for y := current - n + 1; y <= current; y++ {
		years = append(years, y)
	}
	return years
}

// NetFromGross strips sales tax from a gross amount.
func (r *Resolver) NetFromGross(amount decimal.Decimal) decimal.Decimal {
	return amount.Div(decimal.NewFromInt(1).Add(r.vatRate))
}
