package event

import (
	"fmt"
	"time"

	"github.com/ItsaMeTuni/caser/server/recurrence"
)

// Span is the time an event occupies. All-day spans run from midnight of the
// start date to midnight of the (exclusive) end date.
type Span struct {
	Start  time.Time
	End    time.Time
	AllDay bool
}

// DateSpan returns an all-day span. Times of day are dropped.
func DateSpan(start, end time.Time) (Span, error) {
	s := Span{Start: midnight(start), End: midnight(end.In(start.Location())), AllDay: true}
	if !s.End.After(s.Start) {
		return Span{}, fmt.Errorf("%w: end date %s is not after start date %s",
			ErrInvalidSpan, s.End.Format(time.DateOnly), s.Start.Format(time.DateOnly))
	}
	return s, nil
}

// DateTimeSpan returns a timed span. Zero-length spans are allowed.
func DateTimeSpan(start, end time.Time) (Span, error) {
	s := Span{Start: start.Truncate(time.Second), End: end.Truncate(time.Second)}
	if s.End.Before(s.Start) {
		return Span{}, fmt.Errorf("%w: end %s is before start %s",
			ErrInvalidSpan, s.End.Format(time.RFC3339), s.Start.Format(time.RFC3339))
	}
	return s, nil
}

// Duration is the length of the span. For all-day spans it is the number of
// days times 24h, whatever the zone transitions in between.
func (s Span) Duration() time.Duration {
	if s.AllDay {
		return time.Duration(s.Days()) * 24 * time.Hour
	}
	return s.End.Sub(s.Start)
}

// Days is the number of calendar days an all-day span covers.
func (s Span) Days() int {
	days := 0
	for d := s.Start; d.Before(s.End); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}

// DateTime returns the span's start as a recurrence value: a date for
// all-day spans.
func (s Span) DateTime() recurrence.DateTime {
	if s.AllDay {
		y, m, d := s.Start.Date()
		return recurrence.Date(y, m, d, s.Start.Location())
	}
	return recurrence.At(s.Start)
}

// Overlaps reports whether the span overlaps [from, to). Zero-length spans
// overlap when they start inside the range.
func (s Span) Overlaps(from, to time.Time) bool {
	if !s.Start.Before(to) {
		return false
	}
	if s.End.Equal(s.Start) {
		return !s.Start.Before(from)
	}
	return s.End.After(from)
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
