package event

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ItsaMeTuni/caser/server/recurrence"
	"github.com/emersion/go-ical"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

// IDFromUID maps an iCalendar UID to an event ID. UIDs that are UUIDs are
// used as is; others get a stable name-based UUID.
func IDFromUID(uid string) uuid.UUID {
	if id, err := uuid.Parse(uid); err == nil {
		return id
	}
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(uid))
}

// DecodeICS reads the VEVENTs of an iCalendar stream. Floating times are read
// in loc. Overrides (VEVENTs with a RECURRENCE-ID) become single events whose
// parent is the series with the same UID; the overridden instance is excluded
// from the series.
func DecodeICS(r io.Reader, loc *time.Location, logger *slog.Logger) ([]*Event, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cal, err := ical.NewDecoder(r).Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to decode calendar: %w", err)
	}

	var (
		events    []*Event
		overrides []*ical.Component
		series    = make(map[uuid.UUID]*Event)
	)
	for _, comp := range cal.Children {
		if comp.Name != ical.CompEvent {
			continue
		}
		if comp.Props.Get("RECURRENCE-ID") != nil {
			overrides = append(overrides, comp)
			continue
		}
		e, _, err := decodeEvent(comp, loc, logger)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
		series[e.ID] = e
	}

	for _, comp := range overrides {
		e, info, err := decodeEvent(comp, loc, logger)
		if err != nil {
			return nil, err
		}
		id, ok := info.RecurrenceID.Get()
		if !ok {
			logger.Warn("skipping override without a usable RECURRENCE-ID", "uid", comp.Props.Get(ical.PropUID).Value)
			continue
		}
		parentID := e.ID
		e.ID = uuid.NewSHA1(parentID, []byte(id.String()))
		e.ParentID = mo.Some(parentID)

		if parent, ok := series[parentID]; ok && parent.IsRecurring() {
			if err := parent.Exclude(id); err != nil {
				return nil, err
			}
		} else {
			logger.Warn("override without a recurring series", "uid", comp.Props.Get(ical.PropUID).Value)
		}
		events = append(events, e)
	}
	return events, nil
}

func decodeEvent(comp *ical.Component, loc *time.Location, logger *slog.Logger) (*Event, recurrence.RecurrenceInfo, error) {
	uidProp := comp.Props.Get(ical.PropUID)
	if uidProp == nil || uidProp.Value == "" {
		return nil, recurrence.RecurrenceInfo{}, fmt.Errorf("%w: UID", ErrMissingField)
	}
	uid := uidProp.Value

	start, end, ok := recurrence.ExtractBasicTimeInfoFromComponent(comp, loc)
	if !ok {
		return nil, recurrence.RecurrenceInfo{}, fmt.Errorf("event %s: %w: DTSTART", uid, ErrMissingField)
	}
	var (
		span Span
		err  error
	)
	if start.DateOnly {
		span, err = DateSpan(start.Time, end)
	} else {
		span, err = DateTimeSpan(start.Time, end)
	}
	if err != nil {
		return nil, recurrence.RecurrenceInfo{}, fmt.Errorf("event %s: %w", uid, err)
	}

	info, err := recurrence.ExtractRecurrenceInfoFromComponent(comp, loc, logger)
	if err != nil {
		return nil, recurrence.RecurrenceInfo{}, fmt.Errorf("event %s: %w", uid, err)
	}

	lastModified, err := comp.Props.DateTime(ical.PropLastModified, time.UTC)
	if err != nil {
		logger.Warn("ignoring invalid LAST-MODIFIED", "uid", uid, "error", err)
		lastModified = time.Time{}
	}

	e := &Event{
		ID:           IDFromUID(uid),
		Span:         span,
		LastModified: lastModified,
	}
	if info.RRULE != "" && info.RecurrenceID.IsAbsent() {
		rule, err := recurrence.Parse(info.RRULE, span.DateTime())
		if err != nil {
			return nil, recurrence.RecurrenceInfo{}, fmt.Errorf("event %s: %w", uid, err)
		}
		e.Recurrence = mo.Some(Recurrence{Rule: rule, ExDates: info.EXDATE, RDates: info.RDATE})
	} else if len(info.RDATE) > 0 && info.RecurrenceID.IsAbsent() {
		// RDATE without RRULE: a rule that only yields DTSTART.
		rule, err := recurrence.New(recurrence.Options{Freq: recurrence.Daily, Count: mo.Some(1)}, span.DateTime())
		if err != nil {
			return nil, recurrence.RecurrenceInfo{}, fmt.Errorf("event %s: %w", uid, err)
		}
		e.Recurrence = mo.Some(Recurrence{Rule: rule, ExDates: info.EXDATE, RDates: info.RDATE})
	}
	return e, info, nil
}
