package recurrence

import (
	"fmt"
	"strings"
	"time"
)

const (
	dateFormat        = "20060102"
	dateTimeFormat    = "20060102T150405"
	dateTimeUTCFormat = "20060102T150405Z"
)

// DateTime is a zoned date-time, or a calendar date when DateOnly is set.
// Date-only values keep their date in Time's location at midnight.
type DateTime struct {
	Time     time.Time
	DateOnly bool
}

// Date returns a date-only value.
func Date(year int, month time.Month, day int, loc *time.Location) DateTime {
	if loc == nil {
		loc = time.UTC
	}
	return DateTime{Time: time.Date(year, month, day, 0, 0, 0, 0, loc), DateOnly: true}
}

// At returns a date-time value for t truncated to whole seconds.
func At(t time.Time) DateTime {
	return DateTime{Time: t.Truncate(time.Second)}
}

// ParseDateTime parses an RFC 5545 DATE or DATE-TIME value. Floating values
// and dates are read in loc; values with a trailing Z are UTC.
func ParseDateTime(value string, loc *time.Location) (DateTime, error) {
	if loc == nil {
		loc = time.UTC
	}
	value = strings.TrimSpace(value)

	switch len(value) {
	case len(dateFormat):
		t, err := time.ParseInLocation(dateFormat, value, loc)
		if err != nil {
			return DateTime{}, fmt.Errorf("invalid date %q: %w", value, err)
		}
		return DateTime{Time: t, DateOnly: true}, nil
	case len(dateTimeUTCFormat):
		t, err := time.Parse(dateTimeUTCFormat, value)
		if err != nil {
			return DateTime{}, fmt.Errorf("invalid UTC date-time %q: %w", value, err)
		}
		return DateTime{Time: t}, nil
	case len(dateTimeFormat):
		t, err := time.ParseInLocation(dateTimeFormat, value, loc)
		if err != nil {
			return DateTime{}, fmt.Errorf("invalid date-time %q: %w", value, err)
		}
		return DateTime{Time: t}, nil
	}
	return DateTime{}, fmt.Errorf("invalid date or date-time %q", value)
}

// IsZero reports whether d holds no time.
func (d DateTime) IsZero() bool {
	return d.Time.IsZero()
}

// Location returns the zone d is expressed in.
func (d DateTime) Location() *time.Location {
	if d.Time.IsZero() {
		return time.UTC
	}
	return d.Time.Location()
}

// String renders d in RFC 5545 form. Date-times are rendered in UTC.
func (d DateTime) String() string {
	if d.DateOnly {
		return d.Time.Format(dateFormat)
	}
	return d.Time.UTC().Format(dateTimeUTCFormat)
}

// civil returns the wall clock reading of t as a UTC time, so calendar
// arithmetic never crosses a zone transition.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return time.Date(y, m, d, hh, mm, ss, 0, time.UTC)
}

// zoned reads the wall clock c in loc. Wall times skipped by a transition
// are read with the offset in effect before the gap, which moves them forward
// by the length of the gap.
func zoned(c time.Time, loc *time.Location) time.Time {
	t := time.Date(c.Year(), c.Month(), c.Day(), c.Hour(), c.Minute(), c.Second(), 0, loc)
	if civil(t).Equal(c) {
		return t
	}
	_, off := t.Zone()
	_, other := time.Unix(c.Unix()-int64(off), 0).In(loc).Zone()
	return time.Unix(c.Unix()-int64(min(off, other)), 0).In(loc)
}

func dateOf(c time.Time) time.Time {
	return time.Date(c.Year(), c.Month(), c.Day(), 0, 0, 0, 0, time.UTC)
}

type dateKey struct {
	year  int
	month time.Month
	day   int
}

func keyOf(t time.Time) dateKey {
	y, m, d := t.Date()
	return dateKey{year: y, month: m, day: d}
}
