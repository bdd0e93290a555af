package recurrence

import (
	"iter"
	"time"
)

// Between returns the occurrences in [start, end). Periods wholly before
// start are skipped without being expanded, and generation stops at the first
// period beginning after end.
func (s *Sequencer) Between(start, end time.Time) iter.Seq[Occurrence] {
	return func(yield func(Occurrence) bool) {
		if !start.Before(end) {
			return
		}
		st := s.Start()
		st.Clip(end)
		s.seek(st, start)
		for {
			o, ok := s.Next(st)
			if !ok {
				return
			}
			if o.Time.Before(start) {
				continue
			}
			if !yield(o) {
				st.Stop()
				return
			}
		}
	}
}

// NextN returns up to n occurrences at or after after.
func (s *Sequencer) NextN(after time.Time, n int) []Occurrence {
	if n <= 0 {
		return nil
	}
	st := s.Start()
	s.seek(st, after)
	out := make([]Occurrence, 0, min(n, 64))
	for len(out) < n {
		o, ok := s.Next(st)
		if !ok {
			break
		}
		if o.Time.Before(after) {
			continue
		}
		out = append(out, o)
	}
	st.Stop()
	return out
}

// OccurrencesInRange lazily yields the occurrences of rule in
// [rangeStart, rangeEnd), with exceptions removed and additions merged in.
func OccurrencesInRange(rule *Rule, exceptions, additions []DateTime, rangeStart, rangeEnd time.Time) iter.Seq[Occurrence] {
	return NewSequencer(rule, exceptions, additions).Between(rangeStart, rangeEnd)
}

// NextNOccurrences returns at most n occurrences of rule at or after after,
// in order.
func NextNOccurrences(rule *Rule, exceptions, additions []DateTime, after time.Time, n int) []Occurrence {
	return NewSequencer(rule, exceptions, additions).NextN(after, n)
}
