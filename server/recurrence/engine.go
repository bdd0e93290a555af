package recurrence

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"
)

// Engine expands recurring events: a master start and end plus the event's
// RRULE, RDATE and EXDATE values. Unlike a bare Sequencer, the engine always
// treats the master start as an occurrence, as iCalendar does.
type Engine struct {
	cache  *RecurrenceCache
	config EngineConfig
	logger *slog.Logger
}

// NewEngine creates an engine without a result cache.
func NewEngine() *Engine {
	return NewEngineWithConfig(DisabledCacheConfig)
}

// Close releases the cache, if any.
func (e *Engine) Close() {
	if e.cache != nil {
		e.cache.Close()
	}
}

// CacheStats reports the cache state, or None when caching is disabled.
func (e *Engine) CacheStats() mo.Option[CacheStats] {
	if e.cache == nil {
		return mo.None[CacheStats]()
	}
	return mo.Some(e.cache.Stats())
}

// Sequencer returns the occurrence sequence of an event. Events without an
// RRULE yield their master start and RDATEs.
func (e *Engine) Sequencer(masterStart DateTime, recurrence RecurrenceInfo) (*Sequencer, error) {
	var (
		rule *Rule
		err  error
	)
	if recurrence.RRULE != "" {
		rule, err = Parse(recurrence.RRULE, masterStart)
		if err != nil {
			return nil, fmt.Errorf("failed to parse RRULE %q: %w", recurrence.RRULE, err)
		}
	} else {
		rule, err = New(Options{Freq: Daily, Until: mo.Some(masterStart)}, masterStart)
		if err != nil {
			return nil, err
		}
	}

	additions := append(slices.Clone(recurrence.RDATE), masterStart)
	return NewSequencer(rule, recurrence.EXDATE, additions), nil
}

// HasOccurrenceInRange reports whether any occurrence overlaps the half-open
// range [rangeStart, rangeEnd). Zero-length events overlap when they start
// inside the range. Expansion stops at the first match.
func (e *Engine) HasOccurrenceInRange(
	masterStart DateTime, masterEnd time.Time,
	recurrence RecurrenceInfo,
	rangeStart, rangeEnd time.Time,
) (bool, error) {
	const operation = "has-occurrence"
	if e.cache != nil {
		if cached, ok := e.cache.Get(operation, masterStart, masterEnd, recurrence, rangeStart, rangeEnd).Get(); ok {
			e.logger.Debug("recurrence cache hit", "operation", operation)
			return cached.(bool), nil
		}
	}

	seq, err := e.Sequencer(masterStart, recurrence)
	if err != nil {
		return false, err
	}

	found := false
	for o := range seq.Between(rangeStart.Add(-e.span(masterStart, masterEnd)), rangeEnd) {
		if end := occurrenceEnd(o, masterStart, masterEnd); overlaps(o.Time, end, rangeStart) {
			found = true
			break
		}
	}

	if e.cache != nil {
		e.cache.Set(operation, masterStart, masterEnd, recurrence, rangeStart, rangeEnd, found)
	}
	return found, nil
}

// Expand returns the occurrences overlapping [rangeStart, rangeEnd), bounded
// by opts.
func (e *Engine) Expand(
	masterStart DateTime, masterEnd time.Time,
	recurrence RecurrenceInfo,
	rangeStart, rangeEnd time.Time,
	opts ExpansionOptions,
) ([]TimeOccurrence, error) {
	if opts.MaxTimeSpan > 0 && rangeEnd.Sub(rangeStart) > opts.MaxTimeSpan {
		rangeEnd = rangeStart.Add(opts.MaxTimeSpan)
	}
	limit := opts.MaxOccurrences
	if limit <= 0 {
		limit = e.config.MaxExpansionOccurrences
	}

	operation := fmt.Sprintf("expand:%d", limit)
	if e.cache != nil {
		if cached, ok := e.cache.Get(operation, masterStart, masterEnd, recurrence, rangeStart, rangeEnd).Get(); ok {
			e.logger.Debug("recurrence cache hit", "operation", operation)
			return slices.Clone(cached.([]TimeOccurrence)), nil
		}
	}

	seq, err := e.Sequencer(masterStart, recurrence)
	if err != nil {
		return nil, err
	}

	var out []TimeOccurrence
	for o := range seq.Between(rangeStart.Add(-e.span(masterStart, masterEnd)), rangeEnd) {
		end := occurrenceEnd(o, masterStart, masterEnd)
		if !overlaps(o.Time, end, rangeStart) {
			continue
		}
		out = append(out, TimeOccurrence{
			Start:      o.Time,
			End:        end,
			AllDay:     o.DateOnly,
			IsAddition: o.Additional,
		})
		if len(out) >= limit {
			e.logger.Debug("expansion truncated", "rrule", recurrence.RRULE, "limit", limit)
			break
		}
	}
	e.logger.Debug("expanded recurrence",
		"rrule", recurrence.RRULE,
		"range_start", rangeStart,
		"range_end", rangeEnd,
		"occurrences", len(out))

	if e.cache != nil {
		e.cache.Set(operation, masterStart, masterEnd, recurrence, rangeStart, rangeEnd, slices.Clone(out))
	}
	return out, nil
}

// ExpandEvents expands independent events concurrently. Results keep the
// order of series. The first failure cancels the remaining expansions.
func (e *Engine) ExpandEvents(ctx context.Context, series []EventSeries, rangeStart, rangeEnd time.Time) ([]SeriesOccurrences, error) {
	results := make([]SeriesOccurrences, len(series))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.config.MaxConcurrentExpansions)
	for i, s := range series {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			occurrences, err := e.Expand(s.Start, s.End, s.Recurrence, rangeStart, rangeEnd, ExpansionOptions{})
			if err != nil {
				return fmt.Errorf("event %s: %w", s.ID, err)
			}
			results[i] = SeriesOccurrences{ID: s.ID, Occurrences: occurrences}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// span is how far before a range an occurrence may start and still overlap
// it. All-day spans get a day of slack for zone transitions.
func (e *Engine) span(masterStart DateTime, masterEnd time.Time) time.Duration {
	d := masterEnd.Sub(masterStart.Time)
	if d < 0 {
		return 0
	}
	if masterStart.DateOnly {
		d += 24 * time.Hour
	}
	return d
}

// occurrenceEnd applies the master event's length to o. All-day events keep
// their length in days.
func occurrenceEnd(o Occurrence, masterStart DateTime, masterEnd time.Time) time.Time {
	if !masterEnd.After(masterStart.Time) {
		return o.Time
	}
	if masterStart.DateOnly {
		days := daysBetween(dateOf(civil(masterStart.Time)), dateOf(civil(masterEnd.In(masterStart.Location()))))
		return o.Time.AddDate(0, 0, days)
	}
	return o.Time.Add(masterEnd.Sub(masterStart.Time))
}

func overlaps(start, end, rangeStart time.Time) bool {
	if end.Equal(start) {
		return !start.Before(rangeStart)
	}
	return end.After(rangeStart)
}
