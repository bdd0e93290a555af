// Package event models calendar events on top of the recurrence engine:
// single events, recurring events and the instances they generate.
package event

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ItsaMeTuni/caser/server/recurrence"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

var (
	// ErrMissingField is returned when a required field is absent.
	ErrMissingField = errors.New("missing field")
	// ErrInvalidSpan is returned for spans whose bounds do not fit together.
	ErrInvalidSpan = errors.New("invalid span")
)

// Recurrence is the recurrence part of an event.
type Recurrence struct {
	Rule    *recurrence.Rule
	ExDates []recurrence.DateTime
	RDates  []recurrence.DateTime
}

// Event is a single or recurring event.
//
// A single event with a ParentID replaces an instance of the recurring event
// it points to: the instance's date was added to the parent's ExDates and this
// event took its place.
type Event struct {
	ID           uuid.UUID
	ParentID     mo.Option[uuid.UUID]
	Span         Span
	Recurrence   mo.Option[Recurrence]
	LastModified time.Time
}

// Instance is one generated occurrence of an event.
type Instance struct {
	ParentID uuid.UUID
	Span     Span
	// Addition is set for instances that exist only because of an RDATE.
	Addition bool
}

// Expander expands one event's recurrence. *recurrence.Engine implements it.
type Expander interface {
	Expand(masterStart recurrence.DateTime, masterEnd time.Time,
		info recurrence.RecurrenceInfo,
		rangeStart, rangeEnd time.Time,
		opts recurrence.ExpansionOptions) ([]recurrence.TimeOccurrence, error)
}

// NewSingle creates a non-recurring event with a fresh ID.
func NewSingle(span Span) *Event {
	return &Event{
		ID:           uuid.New(),
		Span:         span,
		LastModified: time.Now().UTC().Truncate(time.Second),
	}
}

// NewRecurring creates a recurring event with a fresh ID. rrule is parsed
// against the span's start.
func NewRecurring(span Span, rrule string, exdates, rdates []recurrence.DateTime) (*Event, error) {
	rule, err := recurrence.Parse(rrule, span.DateTime())
	if err != nil {
		return nil, err
	}
	e := NewSingle(span)
	e.Recurrence = mo.Some(Recurrence{
		Rule:    rule,
		ExDates: slices.Clone(exdates),
		RDates:  slices.Clone(rdates),
	})
	return e, nil
}

// IsRecurring reports whether the event has a recurrence rule.
func (e *Event) IsRecurring() bool {
	return e.Recurrence.IsPresent()
}

// RecurrenceInfo returns the event's recurrence in the engine's terms. Single
// events return an empty value.
func (e *Event) RecurrenceInfo() recurrence.RecurrenceInfo {
	rec, ok := e.Recurrence.Get()
	if !ok {
		return recurrence.RecurrenceInfo{}
	}
	return recurrence.RecurrenceInfo{
		RRULE:  rec.Rule.String(),
		RDATE:  rec.RDates,
		EXDATE: rec.ExDates,
	}
}

// Series returns the event as input for recurrence.Engine.ExpandEvents.
func (e *Event) Series() recurrence.EventSeries {
	return recurrence.EventSeries{
		ID:         e.ID.String(),
		Start:      e.Span.DateTime(),
		End:        e.Span.End,
		Recurrence: e.RecurrenceInfo(),
	}
}

// Exclude adds the occurrence starting at start to the event's exceptions.
// It is used when an instance is moved out into its own single event.
func (e *Event) Exclude(start recurrence.DateTime) error {
	rec, ok := e.Recurrence.Get()
	if !ok {
		return fmt.Errorf("event %s is not recurring", e.ID)
	}
	rec.ExDates = append(slices.Clone(rec.ExDates), start)
	e.Recurrence = mo.Some(rec)
	return nil
}

// Instances returns the instances overlapping [from, to), each keeping the
// event's length. A single event yields at most itself. Expansion is bounded
// by recurrence.DefaultExpansionOptions.
func (e *Event) Instances(x Expander, from, to time.Time) ([]Instance, error) {
	if !e.IsRecurring() && !e.Span.Overlaps(from, to) {
		return []Instance{}, nil
	}
	occurrences, err := x.Expand(e.Span.DateTime(), e.Span.End, e.RecurrenceInfo(), from, to, recurrence.DefaultExpansionOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to expand event %s: %w", e.ID, err)
	}
	return InstancesFromOccurrences(e.ID, occurrences), nil
}

// InstancesFromOccurrences converts engine output for the event parentID.
func InstancesFromOccurrences(parentID uuid.UUID, occurrences []recurrence.TimeOccurrence) []Instance {
	instances := make([]Instance, 0, len(occurrences))
	for _, o := range occurrences {
		instances = append(instances, Instance{
			ParentID: parentID,
			Span:     Span{Start: o.Start, End: o.End, AllDay: o.AllDay},
			Addition: o.IsAddition,
		})
	}
	return instances
}
