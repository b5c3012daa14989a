package wtd

import (
	"math"
	"time"
)

const hoursPerWeek = 7 * 24

// WeekRange returns the Monday and Sunday (both at 00:00) of the ISO week containing t.
func WeekRange(t time.Time) (time.Time, time.Time) {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	monday := StartOfDay(t.AddDate(0, 0, -(wd - 1)))
	return monday, monday.AddDate(0, 0, 6)
}

// StartOfDay returns 00:00:00 of the same day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// inRange reports whether day d lies in [from, to], compared by calendar day.
func inRange(d, from, to time.Time) bool {
	d = StartOfDay(d)
	return !d.Before(StartOfDay(from)) && !d.After(StartOfDay(to))
}

// calendarDays counts the days from from to to inclusive. Days are compared
// by calendar date, so a 23h or 25h day still counts as one.
func calendarDays(from, to time.Time) int {
	return int(dateOnly(to).Sub(dateOnly(from)).Hours()/24) + 1
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func hoursBetween(from, to time.Time) float64 {
	return to.Sub(from).Hours()
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
