// Package recurrence expands RFC 5545 recurrence rules.
//
// A Rule is parsed from RRULE text (or xCal) against a DTSTART and validated
// up front. A Sequencer combines a rule with RDATE additions and EXDATE
// exceptions and yields occurrences in strictly increasing order; every
// query runs on its own ExpansionState, so a Sequencer can be shared.
// Between and NextN clip the sequence to a window.
//
// Engine sits on top for calendar events: it derives occurrence end times
// from the master event, caches results and expands many events at once.
package recurrence
