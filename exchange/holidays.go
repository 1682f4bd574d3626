package exchange

import "time"

// holidayRule returns the exchange holidays of one year.
type holidayRule func(year int) []time.Time

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// easter returns Easter Sunday of the Gregorian calendar.
func easter(year int) time.Time {
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
	return date(year, time.Month(month), day)
}

// nthWeekday returns the n-th weekday of a month; n < 0 counts from the end.
func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	if n > 0 {
		d := date(year, month, 1)
		for d.Weekday() != wd {
			d = d.AddDate(0, 0, 1)
		}
		return d.AddDate(0, 0, 7*(n-1))
	}
	d := date(year, month+1, 0)
	for d.Weekday() != wd {
		d = d.AddDate(0, 0, -1)
	}
	return d.AddDate(0, 0, 7*(n+1))
}

// nearestWeekday moves Saturday to Friday and Sunday to Monday.
func nearestWeekday(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, -1)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}

// nyseHolidays covers the regular NYSE/Nasdaq closures. Unscheduled
// closures belong in a session file.
func nyseHolidays(year int) []time.Time {
	var out []time.Time

	// Saturday New Year is not observed on the prior Friday.
	if ny := date(year, time.January, 1); ny.Weekday() == time.Sunday {
		out = append(out, ny.AddDate(0, 0, 1))
	} else if ny.Weekday() != time.Saturday {
		out = append(out, ny)
	}

	if year >= 1998 {
		out = append(out, nthWeekday(year, time.January, time.Monday, 3))
	}
	out = append(out,
		nthWeekday(year, time.February, time.Monday, 3),
		easter(year).AddDate(0, 0, -2),
		nthWeekday(year, time.May, time.Monday, -1),
	)
	if year >= 2022 {
		out = append(out, nearestWeekday(date(year, time.June, 19)))
	}
	out = append(out,
		nearestWeekday(date(year, time.July, 4)),
		nthWeekday(year, time.September, time.Monday, 1),
		nthWeekday(year, time.November, time.Thursday, 4),
		nearestWeekday(date(year, time.December, 25)),
	)
	return out
}

// lseHolidays covers England and Wales bank holidays observed by the LSE.
func lseHolidays(year int) []time.Time {
	out := []time.Time{substitute(date(year, time.January, 1))}

	e := easter(year)
	out = append(out,
		e.AddDate(0, 0, -2),
		e.AddDate(0, 0, 1),
		nthWeekday(year, time.May, time.Monday, 1),
		nthWeekday(year, time.May, time.Monday, -1),
		nthWeekday(year, time.August, time.Monday, -1),
	)

	xmas := date(year, time.December, 25)
	boxing := date(year, time.December, 26)
	switch xmas.Weekday() {
	case time.Friday:
		out = append(out, xmas, date(year, time.December, 28))
	case time.Saturday:
		out = append(out, date(year, time.December, 27), date(year, time.December, 28))
	case time.Sunday:
		out = append(out, boxing, date(year, time.December, 27))
	default:
		out = append(out, xmas, boxing)
	}
	return out
}

// substitute moves a weekend holiday to the following Monday.
func substitute(d time.Time) time.Time {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDate(0, 0, 2)
	case time.Sunday:
		return d.AddDate(0, 0, 1)
	}
	return d
}
