package event

import (
	"fmt"
	"time"

	"github.com/ItsaMeTuni/caser/server/recurrence"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

const (
	plainDateFormat     = "2006-01-02"
	plainTimeFormat     = "15:04"
	plainDateTimeFormat = "2006-01-02T15:04"
)

// Plain is the serializable form of an event, a recurring event or an
// instance. Every field is optional so the same type serves partial updates.
//
//   - single events have no recurrence
//   - recurring events have a recurrence with an rrule
//   - instances have a parent_id and no id
//   - moved instances have both an id and a parent_id
type Plain struct {
	ID           *uuid.UUID       `json:"id"`
	ParentID     *uuid.UUID       `json:"parent_id"`
	StartDate    *string          `json:"start_date"`
	StartTime    *string          `json:"start_time"`
	EndDate      *string          `json:"end_date"`
	EndTime      *string          `json:"end_time"`
	Recurrence   *RecurrencePlain `json:"recurrence"`
	LastModified *string          `json:"last_modified"`
}

// RecurrencePlain is the serializable form of a recurrence. Dates are
// formatted as YYYY-MM-DD.
type RecurrencePlain struct {
	RRule   *string  `json:"rrule"`
	ExDates []string `json:"exdates"`
	RDates  []string `json:"rdates"`
}

// Validate checks a Plain meant to create or replace an event: both dates
// are set, start and end times are set together, and a recurrence carries
// rrule, exdates and rdates.
func (p Plain) Validate() error {
	if p.StartDate == nil {
		return fmt.Errorf("%w: start_date", ErrMissingField)
	}
	if p.EndDate == nil {
		return fmt.Errorf("%w: end_date", ErrMissingField)
	}
	if (p.StartTime == nil) != (p.EndTime == nil) {
		return fmt.Errorf("%w: start_time and end_time must be set together", ErrInvalidSpan)
	}
	if r := p.Recurrence; r != nil {
		switch {
		case r.RRule == nil:
			return fmt.Errorf("%w: recurrence.rrule", ErrMissingField)
		case r.ExDates == nil:
			return fmt.Errorf("%w: recurrence.exdates", ErrMissingField)
		case r.RDates == nil:
			return fmt.Errorf("%w: recurrence.rdates", ErrMissingField)
		}
	}
	return nil
}

// FromPlain builds an event from its plain form. Dates and times are read in
// loc (UTC when nil).
func FromPlain(p Plain, loc *time.Location) (*Event, error) {
	if loc == nil {
		loc = time.UTC
	}
	if p.ID == nil {
		return nil, fmt.Errorf("%w: id", ErrMissingField)
	}
	if p.LastModified == nil {
		return nil, fmt.Errorf("%w: last_modified", ErrMissingField)
	}
	if p.StartDate == nil || p.EndDate == nil {
		return nil, fmt.Errorf("%w: start_date and end_date", ErrMissingField)
	}

	span, err := plainSpan(p, loc)
	if err != nil {
		return nil, err
	}
	lastModified, err := time.ParseInLocation(plainDateTimeFormat, *p.LastModified, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid last_modified %q: %w", *p.LastModified, err)
	}

	e := &Event{
		ID:           *p.ID,
		Span:         span,
		LastModified: lastModified,
	}

	if p.Recurrence == nil {
		if p.ParentID != nil {
			e.ParentID = mo.Some(*p.ParentID)
		}
		return e, nil
	}

	r := p.Recurrence
	if r.RRule == nil {
		return nil, fmt.Errorf("%w: recurrence.rrule", ErrMissingField)
	}
	rule, err := recurrence.Parse(*r.RRule, span.DateTime())
	if err != nil {
		return nil, err
	}
	exdates, err := parsePlainDates(r.ExDates, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid exdates: %w", err)
	}
	rdates, err := parsePlainDates(r.RDates, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid rdates: %w", err)
	}
	e.Recurrence = mo.Some(Recurrence{Rule: rule, ExDates: exdates, RDates: rdates})
	return e, nil
}

func plainSpan(p Plain, loc *time.Location) (Span, error) {
	startDate, err := time.ParseInLocation(plainDateFormat, *p.StartDate, loc)
	if err != nil {
		return Span{}, fmt.Errorf("%w: start_date %q", ErrInvalidSpan, *p.StartDate)
	}
	endDate, err := time.ParseInLocation(plainDateFormat, *p.EndDate, loc)
	if err != nil {
		return Span{}, fmt.Errorf("%w: end_date %q", ErrInvalidSpan, *p.EndDate)
	}

	switch {
	case p.StartTime == nil && p.EndTime == nil:
		return DateSpan(startDate, endDate)
	case p.StartTime == nil || p.EndTime == nil:
		return Span{}, fmt.Errorf("%w: start_time and end_time must be set together", ErrInvalidSpan)
	}

	start, err := withClock(startDate, *p.StartTime)
	if err != nil {
		return Span{}, err
	}
	end, err := withClock(endDate, *p.EndTime)
	if err != nil {
		return Span{}, err
	}
	return DateTimeSpan(start, end)
}

func withClock(date time.Time, clock string) (time.Time, error) {
	c, err := time.Parse(plainTimeFormat, clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: time %q", ErrInvalidSpan, clock)
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, c.Hour(), c.Minute(), 0, 0, date.Location()), nil
}

func parsePlainDates(values []string, loc *time.Location) ([]recurrence.DateTime, error) {
	dates := make([]recurrence.DateTime, 0, len(values))
	for _, v := range values {
		t, err := time.ParseInLocation(plainDateFormat, v, loc)
		if err != nil {
			return nil, err
		}
		dates = append(dates, recurrence.DateTime{Time: t, DateOnly: true})
	}
	return dates, nil
}

// Plain returns the serializable form of the event.
func (e *Event) Plain() Plain {
	p := spanPlain(e.Span)
	id := e.ID
	p.ID = &id
	if parent, ok := e.ParentID.Get(); ok {
		p.ParentID = &parent
	}
	lastModified := e.LastModified.UTC().Format(plainDateTimeFormat)
	p.LastModified = &lastModified

	if rec, ok := e.Recurrence.Get(); ok {
		rrule := rec.Rule.String()
		p.Recurrence = &RecurrencePlain{
			RRule:   &rrule,
			ExDates: formatPlainDates(rec.ExDates, e.Span.Start.Location()),
			RDates:  formatPlainDates(rec.RDates, e.Span.Start.Location()),
		}
	}
	return p
}

// Plain returns the serializable form of the instance.
func (i Instance) Plain() Plain {
	p := spanPlain(i.Span)
	parent := i.ParentID
	p.ParentID = &parent
	return p
}

func spanPlain(s Span) Plain {
	startDate := s.Start.Format(plainDateFormat)
	endDate := s.End.In(s.Start.Location()).Format(plainDateFormat)
	p := Plain{StartDate: &startDate, EndDate: &endDate}
	if !s.AllDay {
		startTime := s.Start.Format(plainTimeFormat)
		endTime := s.End.In(s.Start.Location()).Format(plainTimeFormat)
		p.StartTime, p.EndTime = &startTime, &endTime
	}
	return p
}

func formatPlainDates(dates []recurrence.DateTime, loc *time.Location) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		t := d.Time
		if !d.DateOnly {
			t = t.In(loc)
		}
		out = append(out, t.Format(plainDateFormat))
	}
	return out
}
