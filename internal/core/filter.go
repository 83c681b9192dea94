package core

import (
	"time"
)

const (
	PeriodAll    FilterPeriod = "all"
	PeriodToday  FilterPeriod = "today"
	PeriodWeek   FilterPeriod = "week"
	PeriodMonth  FilterPeriod = "month"
	PeriodCustom FilterPeriod = "custom"
)

type (
	// FilterPeriod selects the date window for period income/expense totals
	// and list views. It never affects cumulative balances or the trailing
	// chart windows, which always see the full set.
	FilterPeriod string

	// CustomDateRange is the inclusive [start, end] window for PeriodCustom,
	// both ends in YYYY-MM-DD form.
	CustomDateRange struct {
		StartDate string
		EndDate   string
	}
)

// referenceLocation is the fixed timezone all period boundaries are resolved
// in. Using the execution host's local zone would make "today" drift for
// users in other zones, so the reference is pinned to the business locale.
var referenceLocation = loadReferenceLocation()

func loadReferenceLocation() *time.Location {
	if loc, err := time.LoadLocation("America/Caracas"); err == nil {
		return loc
	}
	// containers without tzdata still get the right offset
	return time.FixedZone("VET", -4*60*60)
}

// ReferenceLocation returns the timezone used to resolve "today" and the
// week/month boundaries: America/Caracas (UTC-4).
func ReferenceLocation() *time.Location {
	return referenceLocation
}

// Valid reports whether p is one of the five known periods.
func (p FilterPeriod) Valid() bool {
	switch p {
	case PeriodAll, PeriodToday, PeriodWeek, PeriodMonth, PeriodCustom:
		return true
	}
	return false
}

// FilterByPeriod returns the transactions whose date falls inside the
// period, resolved against now in the reference timezone. Boundaries are
// inclusive on both ends. Unknown periods behave as PeriodAll; a custom
// range with start after end yields an empty result. It never fails.
func FilterByPeriod(txs []Transaction, period FilterPeriod, custom CustomDateRange, now time.Time) []Transaction {
	if period == PeriodAll || !period.Valid() {
		out := make([]Transaction, len(txs))
		copy(out, txs)
		return out
	}

	start, end, empty := periodBounds(period, custom, now)
	out := make([]Transaction, 0, len(txs))
	if empty {
		return out
	}
	for _, t := range txs {
		d := t.Date.Time
		if !d.Before(start) && !d.After(end) {
			out = append(out, t)
		}
	}
	return out
}

// periodBounds resolves the inclusive window as midnight-UTC dates so they
// compare directly against Date values. The empty flag signals a window
// that cannot match anything.
func periodBounds(period FilterPeriod, custom CustomDateRange, now time.Time) (start, end time.Time, empty bool) {
	local := now.In(referenceLocation)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)

	switch period {
	case PeriodToday:
		return today, today, false
	case PeriodWeek:
		// Monday is the configured week start.
		offset := int(today.Weekday()) - int(time.Monday)
		if offset < 0 {
			offset += 7
		}
		start = today.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 6), false
	case PeriodMonth:
		start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
		return start, start.AddDate(0, 1, -1), false
	case PeriodCustom:
		s, errS := ParseDate(custom.StartDate)
		e, errE := ParseDate(custom.EndDate)
		if errS != nil || errE != nil {
			return time.Time{}, time.Time{}, true
		}
		if s.After(e.Time) {
			return time.Time{}, time.Time{}, true
		}
		// The end date counts through its last instant; with midnight-UTC
		// dates an inclusive compare on the day itself is equivalent.
		return s.Time, e.Time, false
	}
	return time.Time{}, time.Time{}, true
}
