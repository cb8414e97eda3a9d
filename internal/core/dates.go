package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateLayout      = "Jan 2, 2006"
	timeLayout      = "03:04 PM"
	monthYearLayout = "January 2006"
)

// WeekStart is the weekday a calendar week begins on.
type WeekStart = time.Weekday

// DefaultWeekStart matches the app's day-0-is-Sunday week numbering.
const DefaultWeekStart WeekStart = time.Sunday

// ParseWeekStart accepts a weekday name ("sunday", "Mon", ...).
func ParseWeekStart(s string) (WeekStart, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultWeekStart, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return d, nil
		}
	}
	return DefaultWeekStart, fmt.Errorf("invalid week start %q", s)
}

// FormatDate renders t as "Jan 2, 2006".
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// FormatTime renders t as "03:04 PM".
func FormatTime(t time.Time) string {
	return t.Format(timeLayout)
}

// FormatDateTime renders t as "Jan 2, 2006 at 03:04 PM".
func FormatDateTime(t time.Time) string {
	return FormatDate(t) + " at " + FormatTime(t)
}

// MonthYear renders t as "January 2006".
func MonthYear(t time.Time) string {
	return t.Format(monthYearLayout)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the most recent weekStart on or before now.
func StartOfWeek(now time.Time, weekStart WeekStart) time.Time {
	offset := (int(now.Weekday()) - int(weekStart) + 7) % 7
	y, m, d := now.Date()
	return time.Date(y, m, d-offset, 0, 0, 0, 0, now.Location())
}

// IsToday reports whether t falls on now's calendar day.
func IsToday(t, now time.Time) bool {
	t = t.In(now.Location())
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	return ty == ny && tm == nm && td == nd
}

// IsThisWeek reports whether t lies between the start of now's week and now.
// Weeks are calendar aligned, not a rolling seven days.
func IsThisWeek(t, now time.Time, weekStart WeekStart) bool {
	start := StartOfWeek(now, weekStart)
	return !t.Before(start) && !t.After(now)
}

// IsThisMonth reports calendar month and year equality with now.
func IsThisMonth(t, now time.Time) bool {
	t = t.In(now.Location())
	return t.Year() == now.Year() && t.Month() == now.Month()
}

// IsThisYear reports calendar year equality with now.
func IsThisYear(t, now time.Time) bool {
	return t.In(now.Location()).Year() == now.Year()
}
