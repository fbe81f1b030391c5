package model

import "time"

// DateLayout is the canonical date format used in storage, config and CLI output
const DateLayout = "2006-01-02"

// DaysPerWeek is the number of dates covered by one schedule
const DaysPerWeek = 7

// Date normalises t to midnight UTC of its calendar day
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string into a civil date
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// DayIndex returns 0 for Monday through 6 for Sunday
func DayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// WeekStart returns the Monday on or before t
func WeekStart(t time.Time) time.Time {
	d := Date(t)
	return d.AddDate(0, 0, -DayIndex(d))
}

// IsWeekStart reports whether t is a Monday
func IsWeekStart(t time.Time) bool {
	return DayIndex(t) == 0
}

// WeekDates returns the seven dates of the week starting at weekStart
func WeekDates(weekStart time.Time) []time.Time {
	dates := make([]time.Time, DaysPerWeek)
	for i := range dates {
		dates[i] = Date(weekStart).AddDate(0, 0, i)
	}
	return dates
}

// SameDate compares two times by calendar date only
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
