package recurrence

import (
	"iter"
	"slices"
	"sort"
	"time"
)

// maxYear bounds the search for rules that can never match again, such as
// FREQ=YEARLY;BYMONTH=2;BYMONTHDAY=30.
const maxYear = 9999

// State is the position of an expansion in its lifecycle.
type State int

const (
	Seeding State = iota
	Emitting
	ExhaustedByCount
	ExhaustedByUntil
	ExhaustedByWindow
	Terminated
)

var stateNames = [...]string{
	Seeding:           "seeding",
	Emitting:          "emitting",
	ExhaustedByCount:  "exhausted-by-count",
	ExhaustedByUntil:  "exhausted-by-until",
	ExhaustedByWindow: "exhausted-by-window",
	Terminated:        "terminated",
}

func (s State) String() string {
	if s < Seeding || s > Terminated {
		return "unknown"
	}
	return stateNames[s]
}

// Done reports whether no more occurrences can be produced.
func (s State) Done() bool {
	return s >= ExhaustedByCount
}

// Occurrence is one firing of a recurring event.
type Occurrence struct {
	DateTime
	// Additional is set for RDATE entries the rule did not generate itself.
	Additional bool
}

// Sequencer combines a rule with its exception and addition dates. It holds
// no iteration state and may be shared by concurrent queries, each driving
// its own ExpansionState.
type Sequencer struct {
	rule       *Rule
	exceptions exceptionSet
	additions  []time.Time
}

// NewSequencer prepares rule for expansion. Exceptions are matched by date
// when either the rule or the exception is date-only, and by instant
// otherwise. Date-only additions to a date-time rule take DTSTART's time of
// day.
func NewSequencer(rule *Rule, exceptions, additions []DateTime) *Sequencer {
	s := &Sequencer{
		rule:       rule,
		exceptions: newExceptionSet(rule, exceptions),
	}
	loc := rule.Location()
	dt := civil(rule.dtstart.Time)
	for _, a := range additions {
		if a.IsZero() {
			continue
		}
		var t time.Time
		switch {
		case rule.dtstart.DateOnly:
			y, m, d := a.Time.Date()
			if !a.DateOnly {
				y, m, d = a.Time.In(loc).Date()
			}
			t = time.Date(y, m, d, 0, 0, 0, 0, loc)
		case a.DateOnly:
			y, m, d := a.Time.Date()
			t = zoned(time.Date(y, m, d, dt.Hour(), dt.Minute(), dt.Second(), 0, time.UTC), loc)
		default:
			t = a.Time.Truncate(time.Second).In(loc)
		}
		s.additions = append(s.additions, t)
	}
	slices.SortFunc(s.additions, func(a, b time.Time) int { return a.Compare(b) })
	s.additions = slices.CompactFunc(s.additions, func(a, b time.Time) bool { return a.Equal(b) })
	return s
}

// Rule returns the rule being expanded.
func (s *Sequencer) Rule() *Rule { return s.rule }

// ExpansionState is the cursor of a single expansion. It must not be shared
// between goroutines.
type ExpansionState struct {
	state   State
	gen     generator
	batch   []time.Time
	pos     int
	addPos  int
	counted int
	last    time.Time
	limit   time.Time

	// ruleEnd is the state the rule stream stopped in, Seeding while it
	// still runs. Additions may be pending after it stops.
	ruleEnd State
}

// State returns the current state.
func (st *ExpansionState) State() State { return st.state }

// Clip sets the exclusive upper bound of the expansion. Reaching it ends the
// expansion with ExhaustedByWindow.
func (st *ExpansionState) Clip(end time.Time) { st.limit = end }

// Stop abandons the expansion.
func (st *ExpansionState) Stop() { st.state = Terminated }

// Start returns a fresh expansion positioned before the first occurrence.
func (s *Sequencer) Start() *ExpansionState {
	r := s.rule
	return &ExpansionState{
		state: Seeding,
		gen:   newGenerator(r.opts.Freq, r.opts.Interval, r.dtstart.Time, r.wkst),
	}
}

// Next returns the next occurrence, or false once st is exhausted.
func (s *Sequencer) Next(st *ExpansionState) (Occurrence, bool) {
	for !st.state.Done() {
		rt, rok := s.peekRule(st)
		at, aok := s.peekAddition(st)
		if !rok && !aok {
			st.state = st.ruleEnd
			break
		}

		t, fromRule := rt, rok
		if !rok || (aok && at.Before(rt)) {
			t, fromRule = at, false
		}
		if !st.limit.IsZero() && !t.Before(st.limit) {
			st.state = ExhaustedByWindow
			break
		}
		if fromRule {
			st.pos++
		}
		if aok && at.Equal(t) {
			st.addPos++
		}

		if !st.last.IsZero() && !t.After(st.last) {
			continue
		}
		if s.exceptions.contains(t) {
			continue
		}
		if fromRule {
			st.counted++
		}
		st.last = t
		st.state = Emitting
		return Occurrence{
			DateTime:   DateTime{Time: t, DateOnly: s.rule.dtstart.DateOnly},
			Additional: !fromRule,
		}, true
	}
	return Occurrence{}, false
}

func (s *Sequencer) peekAddition(st *ExpansionState) (time.Time, bool) {
	if st.addPos < len(s.additions) {
		return s.additions[st.addPos], true
	}
	return time.Time{}, false
}

// peekRule returns the next rule candidate at or after DTSTART that COUNT
// and UNTIL still allow, generating periods as needed.
func (s *Sequencer) peekRule(st *ExpansionState) (time.Time, bool) {
	r := s.rule
	loc := r.Location()
	count, hasCount := r.opts.Count.Get()
	until, hasUntil := r.until.Get()

	for st.ruleEnd == Seeding {
		if hasCount && st.counted >= count {
			st.ruleEnd = ExhaustedByCount
			break
		}
		if st.pos < len(st.batch) {
			t := zoned(st.batch[st.pos], loc)
			if t.Before(r.dtstart.Time) {
				st.pos++
				continue
			}
			if hasUntil && t.After(until) {
				st.ruleEnd = ExhaustedByUntil
				break
			}
			return t, true
		}

		st.state = Seeding
		start, end := st.gen.bounds()
		if start.Year() > maxYear {
			st.ruleEnd = Terminated
			break
		}
		lower := zoned(start.AddDate(0, 0, -1), loc)
		if hasUntil && lower.After(until) {
			st.ruleEnd = ExhaustedByUntil
			break
		}
		if !st.limit.IsZero() && !lower.Before(st.limit) {
			st.ruleEnd = ExhaustedByWindow
			break
		}

		st.batch = r.plan.expand(start, end)
		st.pos = 0
		st.gen.advance()
		if len(st.batch) == 0 {
			if hint := r.plan.skipHint(start); !hint.IsZero() {
				st.gen.skipTo(hint)
			}
		}
	}
	return time.Time{}, false
}

// seek fast-forwards a fresh expansion to the periods that may hold
// occurrences at or after from. Rules with COUNT are walked from the start
// since skipped occurrences still count.
func (s *Sequencer) seek(st *ExpansionState, from time.Time) {
	st.addPos = sort.Search(len(s.additions), func(i int) bool {
		return !s.additions[i].Before(from)
	})
	if s.rule.opts.Count.IsPresent() {
		return
	}
	c := civil(from.In(s.rule.Location())).AddDate(0, 0, -1)
	st.gen.skipTo(c)
	st.batch, st.pos = nil, 0
}

// All returns every occurrence in order. Unbounded rules yield forever, so
// callers must stop pulling.
func (s *Sequencer) All() iter.Seq[Occurrence] {
	return func(yield func(Occurrence) bool) {
		st := s.Start()
		for {
			o, ok := s.Next(st)
			if !ok || !yield(o) {
				st.Stop()
				return
			}
		}
	}
}

type exceptionSet struct {
	loc      *time.Location
	dates    map[dateKey]struct{}
	instants map[int64]struct{}
	dateOnly bool
}

func newExceptionSet(rule *Rule, exceptions []DateTime) exceptionSet {
	set := exceptionSet{
		loc:      rule.Location(),
		dates:    make(map[dateKey]struct{}),
		instants: make(map[int64]struct{}),
		dateOnly: rule.dtstart.DateOnly,
	}
	for _, e := range exceptions {
		switch {
		case e.IsZero():
		case e.DateOnly:
			set.dates[keyOf(e.Time)] = struct{}{}
		case set.dateOnly:
			set.dates[keyOf(e.Time.In(set.loc))] = struct{}{}
		default:
			set.instants[e.Time.Unix()] = struct{}{}
		}
	}
	return set
}

func (e exceptionSet) contains(t time.Time) bool {
	if _, ok := e.instants[t.Unix()]; ok {
		return true
	}
	_, ok := e.dates[keyOf(t.In(e.loc))]
	return ok
}
