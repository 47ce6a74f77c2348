// Package calendar decides whether the service location is closed on a
// given date. All rules are computed, never looked up, so any year works.
package calendar

import "time"

// IsClosed reports whether the service is closed on the given date.
// Only the year, month and day of d are considered.
func IsClosed(d time.Time) bool {
	y, m, day := d.Date()

	// Fixed-date statutory holidays.
	switch {
	case m == time.January && day == 1: // New Year's Day
		return true
	case m == time.July && day == 1: // Canada Day
		return true
	case m == time.November && day == 11: // Remembrance Day
		return true
	case m == time.December && day == 25: // Christmas Day
		return true
	case m == time.December && day == 26: // Boxing Day
		return true
	}

	// Floating "Nth weekday of month" holidays.
	switch {
	case m == time.February && day == nthWeekday(y, time.February, time.Monday, 3): // Family Day
		return true
	case m == time.May && day == victoriaDay(y): // Victoria Day
		return true
	case m == time.August && day == nthWeekday(y, time.August, time.Monday, 1): // BC Day
		return true
	case m == time.September && day == nthWeekday(y, time.September, time.Monday, 1): // Labour Day
		return true
	case m == time.October && day == nthWeekday(y, time.October, time.Monday, 2): // Thanksgiving
		return true
	}

	// Good Friday: two days before Easter Sunday.
	gf := easterSunday(y).AddDate(0, 0, -2)
	if gf.Month() == m && gf.Day() == day {
		return true
	}

	return false
}

// nthWeekday returns the day-of-month of the nth occurrence of weekday wd
// in the given month.
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) int {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	return 1 + offset + 7*(n-1)
}

// victoriaDay returns the day-of-month of Victoria Day, the Monday
// immediately preceding May 25.
func victoriaDay(year int) int {
	may25 := time.Date(year, time.May, 25, 0, 0, 0, 0, time.UTC)
	back := (int(may25.Weekday()) - int(time.Monday) + 7) % 7
	if back == 0 {
		back = 7
	}
	return 25 - back
}

// easterSunday computes Gregorian Easter using the Meeus/Jones/Butcher
// algorithm. The returned time is midnight UTC on Easter Sunday.
func easterSunday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
