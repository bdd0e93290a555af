package recurrence

import "time"

const secondsPerDay = 24 * 60 * 60

// IsLeapYear reports whether year has a February 29th.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in month of year.
func DaysInMonth(year int, month time.Month) int {
	switch month {
	case time.April, time.June, time.September, time.November:
		return 30
	case time.February:
		if IsLeapYear(year) {
			return 29
		}
		return 28
	default:
		return 31
	}
}

// DaysInYear returns 366 for leap years and 365 otherwise.
func DaysInYear(year int) int {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

// firstWeekStart returns the first day of week 1 of year: the week starting
// on wkst that holds at least four days of the year.
func firstWeekStart(year int, wkst time.Weekday) time.Time {
	jan1 := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	off := weekdayOffset(jan1.Weekday(), wkst)
	if off <= 3 {
		return jan1.AddDate(0, 0, -off)
	}
	return jan1.AddDate(0, 0, 7-off)
}

// WeeksInYear returns 52 or 53, the number of weeks numbered in year when
// weeks start on wkst.
func WeeksInYear(year int, wkst time.Weekday) int {
	return daysBetween(firstWeekStart(year, wkst), firstWeekStart(year+1, wkst)) / 7
}

// WeekNumber returns the week-numbering year and week of date. With wkst set
// to Monday this is the ISO 8601 week.
func WeekNumber(date time.Time, wkst time.Weekday) (year, week int) {
	d := dateOf(date)
	year = d.Year()
	if next := firstWeekStart(year+1, wkst); !d.Before(next) {
		return year + 1, 1
	}
	start := firstWeekStart(year, wkst)
	if d.Before(start) {
		year--
		start = firstWeekStart(year, wkst)
	}
	return year, daysBetween(start, d)/7 + 1
}

// weekdayOffset counts the days from wkst forward to wd.
func weekdayOffset(wd, wkst time.Weekday) int {
	return (int(wd) - int(wkst) + 7) % 7
}

func startOfWeek(date time.Time, wkst time.Weekday) time.Time {
	d := dateOf(date)
	return d.AddDate(0, 0, -weekdayOffset(d.Weekday(), wkst))
}

// daysBetween counts whole days from a to b. Both must be civil times.
// Unix seconds are used so spans beyond the range of time.Duration work.
func daysBetween(a, b time.Time) int {
	return int((b.Unix() - a.Unix()) / secondsPerDay)
}
