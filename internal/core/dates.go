package core

import (
	"fmt"
	"strings"
	"time"
)

// Date is a calendar day with no time of day and no time zone. All
// dashboard arithmetic works on these fields only.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate builds a Date, normalizing out-of-range fields the way calendar
// construction does (month 13 rolls into the next year, day 0 is the last
// day of the previous month).
func NewDate(year int, month time.Month, day int) Date {
	// UTC here is only a carrier for field arithmetic; no instant is derived.
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ToISODate formats the calendar day of t as YYYY-MM-DD.
func ToISODate(t time.Time) string {
	return DateOf(t).String()
}

// String formats d as YYYY-MM-DD. The year is not padded.
func (d Date) String() string {
	return fmt.Sprintf("%d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// AddDays returns d shifted by n calendar days.
func (d Date) AddDays(n int) Date {
	return NewDate(d.Year, d.Month, d.Day+n)
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or
// after o.
func (d Date) Compare(o Date) int {
	switch {
	case d.Year != o.Year:
		return cmpInt(d.Year, o.Year)
	case d.Month != o.Month:
		return cmpInt(int(d.Month), int(o.Month))
	default:
		return cmpInt(d.Day, o.Day)
	}
}

func (d Date) Before(o Date) bool { return d.Compare(o) < 0 }
func (d Date) After(o Date) bool  { return d.Compare(o) > 0 }

// FirstOfMonth returns the first day of d's month.
func (d Date) FirstOfMonth() Date {
	return Date{Year: d.Year, Month: d.Month, Day: 1}
}

// LastOfMonth returns the last day of d's month.
func (d Date) LastOfMonth() Date {
	return NewDate(d.Year, d.Month+1, 0)
}

// MonthKey formats d's month as YYYY-MM.
func (d Date) MonthKey() string {
	return fmt.Sprintf("%d-%02d", d.Year, int(d.Month))
}

// ParseISODate reads a YYYY-MM-DD string. Each dash separated part is read
// as a leading integer; the result is false when fewer than three parts are
// present or any of them has no digits. Overflowing fields are normalized,
// so 2026-02-30 yields 2026-03-02.
func ParseISODate(s string) (Date, bool) {
	parts := strings.Split(s, "-")
	if len(parts) < 3 {
		return Date{}, false
	}
	var fields [3]int
	for i := 0; i < 3; i++ {
		n, ok := leadingInt(parts[i])
		if !ok {
			return Date{}, false
		}
		fields[i] = n
	}
	return NewDate(fields[0], time.Month(fields[1]), fields[2]), true
}

// ParseMonthKey reads a YYYY-MM month key and returns the first day of
// that month.
func ParseMonthKey(s string) (Date, bool) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return Date{}, false
	}
	y, ok := leadingInt(parts[0])
	if !ok || len(strings.TrimSpace(parts[0])) != 4 {
		return Date{}, false
	}
	m, ok := leadingInt(parts[1])
	if !ok || m < 1 || m > 12 {
		return Date{}, false
	}
	return Date{Year: y, Month: time.Month(m), Day: 1}, true
}

// ScheduledDate returns the day a monthly template falls on in month. Days
// past the end of the month are clamped to its last day.
func ScheduledDate(month Date, dayOfMonth int) Date {
	last := month.LastOfMonth()
	if dayOfMonth > last.Day {
		return last
	}
	if dayOfMonth < 1 {
		dayOfMonth = 1
	}
	return Date{Year: month.Year, Month: month.Month, Day: dayOfMonth}
}

// MonthRange returns the first and last day of d's month.
func MonthRange(d Date) Period {
	return Period{Start: d.FirstOfMonth().String(), End: d.LastOfMonth().String()}
}

// LastDaysRange returns the inclusive window of days calendar days ending
// on now's calendar day. Non-positive counts yield a single-day window.
func LastDaysRange(days int, now time.Time) Period {
	today := DateOf(now)
	back := days - 1
	if back < 0 {
		back = 0
	}
	return Period{Start: today.AddDays(-back).String(), End: today.String()}
}

// DaysBetween returns the number of calendar days from a to b. Unix
// seconds are used since time.Duration overflows past ~292 years.
func DaysBetween(a, b Date) int {
	ta := time.Date(a.Year, a.Month, a.Day, 0, 0, 0, 0, time.UTC)
	tb := time.Date(b.Year, b.Month, b.Day, 0, 0, 0, 0, time.UTC)
	return int((tb.Unix() - ta.Unix()) / 86400)
}

// leadingInt parses an optional sign followed by decimal digits, ignoring
// leading whitespace and anything after the digits.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\n\r")
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		if n > 1e8 {
			return 0, false
		}
		n = n*10 + int(s[digits]-'0')
		digits++
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
