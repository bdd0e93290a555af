package recurrence

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/samber/mo"
)

const propRecurrenceID = "RECURRENCE-ID"

// ExtractRecurrenceInfoFromComponent collects RRULE, RDATE, EXDATE and
// RECURRENCE-ID from an iCal component. Floating values are read in loc.
// Values that cannot be parsed are logged and skipped; an unknown TZID is an
// error.
func ExtractRecurrenceInfoFromComponent(comp *ical.Component, loc *time.Location, logger *slog.Logger) (RecurrenceInfo, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if loc == nil {
		loc = time.UTC
	}
	info := RecurrenceInfo{}

	rrules := comp.Props[ical.PropRecurrenceRule]
	if len(rrules) > 0 {
		info.RRULE = strings.TrimSpace(rrules[0].Value)
		if len(rrules) > 1 {
			logger.Warn("ignoring additional RRULE properties", "count", len(rrules)-1)
		}
	}

	for _, prop := range comp.Props[ical.PropRecurrenceDates] {
		dates, err := parseDateList(&prop, loc, logger)
		if err != nil {
			return RecurrenceInfo{}, err
		}
		info.RDATE = append(info.RDATE, dates...)
	}

	for _, prop := range comp.Props[ical.PropExceptionDates] {
		dates, err := parseDateList(&prop, loc, logger)
		if err != nil {
			return RecurrenceInfo{}, err
		}
		info.EXDATE = append(info.EXDATE, dates...)
	}

	if prop := comp.Props.Get(propRecurrenceID); prop != nil && prop.Value != "" {
		id, err := parseDateTime(prop, loc)
		if err != nil {
			logger.Warn("skipping invalid RECURRENCE-ID", "value", prop.Value, "error", err)
		} else {
			info.RecurrenceID = mo.Some(id)
		}
	}

	return info, nil
}

// ExtractBasicTimeInfoFromComponent extracts start and end times from an iCal component
func ExtractBasicTimeInfoFromComponent(comp *ical.Component, loc *time.Location) (start DateTime, end time.Time, hasTime bool) {
	if loc == nil {
		loc = time.UTC
	}

	if prop := comp.Props.Get(ical.PropDateTimeStart); prop != nil {
		dtstart, err := parseDateTime(prop, loc)
		if err == nil {
			start = dtstart
			hasTime = true

			// Get end time - either from DTEND or DURATION or default
			if endProp := comp.Props.Get(ical.PropDateTimeEnd); endProp != nil {
				if dtend, err := parseDateTime(endProp, loc); err == nil {
					end = dtend.Time
					// An all-day event ending on its start date lasts one day.
					if start.DateOnly && !end.After(start.Time) {
						end = start.Time.AddDate(0, 0, 1)
					}
				} else {
					hasTime = false
					return
				}
			} else if durationProp := comp.Props.Get(ical.PropDuration); durationProp != nil {
				duration, err := durationProp.Duration()
				if err != nil {
					hasTime = false
					return
				}
				if start.DateOnly && duration%(24*time.Hour) == 0 {
					end = start.Time.AddDate(0, 0, int(duration/(24*time.Hour)))
				} else {
					end = start.Time.Add(duration)
				}
			} else if start.DateOnly {
				end = start.Time.AddDate(0, 0, 1)
			} else {
				end = start.Time
			}
		}
	}

	// For VTODO, also check DUE property
	if comp.Name == ical.CompToDo {
		if prop := comp.Props.Get(ical.PropDue); prop != nil {
			if due, err := parseDateTime(prop, loc); err == nil {
				if !hasTime {
					start = due
					end = due.Time
					hasTime = true
				} else if due.Time.After(end) {
					end = due.Time
				}
			}
		}
	}

	return start, end, hasTime
}

// parseDateList parses a comma separated RDATE or EXDATE value. PERIOD
// values contribute their start.
func parseDateList(prop *ical.Prop, def *time.Location, logger *slog.Logger) ([]DateTime, error) {
	loc, err := propLocation(prop, def)
	if err != nil {
		return nil, err
	}

	var dates []DateTime
	for _, value := range strings.Split(prop.Value, ",") {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if start, _, isPeriod := strings.Cut(value, "/"); isPeriod {
			value = start
		}
		d, err := ParseDateTime(value, loc)
		if err != nil {
			logger.Warn("skipping invalid date", "property", prop.Name, "value", value, "error", err)
			continue
		}
		dates = append(dates, d)
	}
	return dates, nil
}

func parseDateTime(prop *ical.Prop, def *time.Location) (DateTime, error) {
	loc, err := propLocation(prop, def)
	if err != nil {
		return DateTime{}, err
	}
	d, err := ParseDateTime(prop.Value, loc)
	if err != nil {
		return DateTime{}, err
	}
	if strings.EqualFold(prop.Params.Get(ical.ParamValue), string(ical.ValueDate)) && !d.DateOnly {
		return DateTime{}, fmt.Errorf("%s: VALUE=DATE with date-time %q", prop.Name, prop.Value)
	}
	return d, nil
}

func propLocation(prop *ical.Prop, def *time.Location) (*time.Location, error) {
	tzid := prop.Params.Get(ical.ParamTimezoneID)
	if tzid == "" {
		return def, nil
	}
	loc, err := time.LoadLocation(tzid)
	if err != nil {
		return nil, fmt.Errorf("%s: unknown TZID %q: %w", prop.Name, tzid, err)
	}
	return loc, nil
}
