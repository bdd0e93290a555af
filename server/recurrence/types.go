package recurrence

import (
	"time"

	"github.com/samber/mo"
)

// RecurrenceInfo contains all recurrence-related information for an event
type RecurrenceInfo struct {
	RRULE        string     // The RRULE value (without "RRULE:" prefix)
	RDATE        []DateTime // Additional recurrence dates
	EXDATE       []DateTime // Exception dates (excluded occurrences)
	RecurrenceID mo.Option[DateTime]
}

// TimeOccurrence is one occurrence of an event with its end derived from the
// master event's duration.
type TimeOccurrence struct {
	Start      time.Time
	End        time.Time
	AllDay     bool
	IsAddition bool // True when the occurrence only exists because of RDATE
}

// ExpansionOptions bounds an expansion.
type ExpansionOptions struct {
	MaxOccurrences int           // Maximum number of occurrences to return (0 = engine default)
	MaxTimeSpan    time.Duration // Maximum width of the expanded range (0 = unlimited)
}

// DefaultExpansionOptions bounds the expansion of a single event's instances.
var DefaultExpansionOptions = ExpansionOptions{
	MaxOccurrences: 1000,
	MaxTimeSpan:    365 * 24 * time.Hour * 2, // 2 years
}

// EventSeries is the recurrence-relevant part of one event, used for batch
// expansion.
type EventSeries struct {
	ID         string
	Start      DateTime
	End        time.Time
	Recurrence RecurrenceInfo
}

// SeriesOccurrences holds the expansion of one EventSeries.
type SeriesOccurrences struct {
	ID          string
	Occurrences []TimeOccurrence
}
