package recurrence

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
)

// Frequency is the base period of a rule, ordered from finest to coarsest.
type Frequency int

const (
	Secondly Frequency = iota
	Minutely
	Hourly
	Daily
	Weekly
	Monthly
	Yearly
)

var frequencyNames = [...]string{
	Secondly: "SECONDLY",
	Minutely: "MINUTELY",
	Hourly:   "HOURLY",
	Daily:    "DAILY",
	Weekly:   "WEEKLY",
	Monthly:  "MONTHLY",
	Yearly:   "YEARLY",
}

func (f Frequency) String() string {
	if f < Secondly || f > Yearly {
		return "Frequency(" + strconv.Itoa(int(f)) + ")"
	}
	return frequencyNames[f]
}

var weekdayNames = [...]string{
	time.Sunday:    "SU",
	time.Monday:    "MO",
	time.Tuesday:   "TU",
	time.Wednesday: "WE",
	time.Thursday:  "TH",
	time.Friday:    "FR",
	time.Saturday:  "SA",
}

// WeekdayNum is a BYDAY entry: a weekday with an optional ordinal. N is zero
// when no ordinal is given, e.g. "MO"; "2TU" is the second Tuesday and
// "-1FR" the last Friday of the containing month or year.
type WeekdayNum struct {
	N       int
	Weekday time.Weekday
}

func (w WeekdayNum) String() string {
	if w.N == 0 {
		return weekdayNames[w.Weekday]
	}
	return strconv.Itoa(w.N) + weekdayNames[w.Weekday]
}

// Options is the structured form of a recurrence rule. Empty BY* slices mean
// the part is not specified. A zero Interval means 1.
type Options struct {
	Freq       Frequency
	Interval   int
	Count      mo.Option[int]
	Until      mo.Option[DateTime]
	ByMonth    []int
	ByWeekNo   []int
	ByYearDay  []int
	ByMonthDay []int
	ByDay      []WeekdayNum
	ByHour     []int
	ByMinute   []int
	BySecond   []int
	BySetPos   []int
	WeekStart  mo.Option[time.Weekday]
}

func (o Options) clone() Options {
	o.ByMonth = slices.Clone(o.ByMonth)
	o.ByWeekNo = slices.Clone(o.ByWeekNo)
	o.ByYearDay = slices.Clone(o.ByYearDay)
	o.ByMonthDay = slices.Clone(o.ByMonthDay)
	o.ByDay = slices.Clone(o.ByDay)
	o.ByHour = slices.Clone(o.ByHour)
	o.ByMinute = slices.Clone(o.ByMinute)
	o.BySecond = slices.Clone(o.BySecond)
	o.BySetPos = slices.Clone(o.BySetPos)
	return o
}

// Rule is a validated recurrence rule bound to its DTSTART. It is immutable
// and safe for concurrent use.
type Rule struct {
	opts    Options
	dtstart DateTime
	wkst    time.Weekday
	until   mo.Option[time.Time]
	plan    plan
}

// New validates opts against dtstart and returns the rule.
func New(opts Options, dtstart DateTime) (*Rule, error) {
	if dtstart.IsZero() {
		return nil, invalid("DTSTART", "", "is required")
	}
	opts = opts.clone()
	if opts.Interval == 0 {
		opts.Interval = 1
	}
	if err := validate(opts, dtstart); err != nil {
		return nil, err
	}

	dtstart.Time = dtstart.Time.Truncate(time.Second)
	if dtstart.DateOnly {
		y, m, d := dtstart.Time.Date()
		dtstart.Time = time.Date(y, m, d, 0, 0, 0, 0, dtstart.Time.Location())
	}

	r := &Rule{
		opts:    opts,
		dtstart: dtstart,
		wkst:    opts.WeekStart.OrElse(time.Monday),
	}
	if until, ok := opts.Until.Get(); ok {
		if until.DateOnly {
			// A date-only UNTIL includes the whole day.
			y, m, d := until.Time.Date()
			r.until = mo.Some(time.Date(y, m, d+1, 0, 0, 0, 0, dtstart.Location()).Add(-time.Second))
		} else {
			r.until = mo.Some(until.Time)
		}
	}
	r.plan = newPlan(r)
	return r, nil
}

// Freq returns the rule frequency.
func (r *Rule) Freq() Frequency { return r.opts.Freq }

// Interval returns the number of periods between recurrences.
func (r *Rule) Interval() int { return r.opts.Interval }

// Count returns the COUNT part, if any.
func (r *Rule) Count() mo.Option[int] { return r.opts.Count }

// Until returns the UNTIL part, if any.
func (r *Rule) Until() mo.Option[DateTime] { return r.opts.Until }

// WeekStart returns WKST, Monday unless specified.
func (r *Rule) WeekStart() time.Weekday { return r.wkst }

// Dtstart returns the start the rule is anchored to.
func (r *Rule) Dtstart() DateTime { return r.dtstart }

// Location returns the zone occurrences are computed in.
func (r *Rule) Location() *time.Location { return r.dtstart.Location() }

// Options returns a copy of the rule parts as written, without defaults
// derived from DTSTART.
func (r *Rule) Options() Options { return r.opts.clone() }

// String renders the rule as RRULE text. Parts derived from DTSTART are not
// rendered.
func (r *Rule) String() string {
	o := r.opts
	parts := []string{"FREQ=" + o.Freq.String()}
	if o.Interval > 1 {
		parts = append(parts, "INTERVAL="+strconv.Itoa(o.Interval))
	}
	if count, ok := o.Count.Get(); ok {
		parts = append(parts, "COUNT="+strconv.Itoa(count))
	}
	if until, ok := o.Until.Get(); ok {
		parts = append(parts, "UNTIL="+until.String())
	}
	parts = appendInts(parts, "BYSECOND", o.BySecond)
	parts = appendInts(parts, "BYMINUTE", o.ByMinute)
	parts = appendInts(parts, "BYHOUR", o.ByHour)
	if len(o.ByDay) > 0 {
		days := make([]string, len(o.ByDay))
		for i, d := range o.ByDay {
			days[i] = d.String()
		}
		parts = append(parts, "BYDAY="+strings.Join(days, ","))
	}
	parts = appendInts(parts, "BYMONTHDAY", o.ByMonthDay)
	parts = appendInts(parts, "BYYEARDAY", o.ByYearDay)
	parts = appendInts(parts, "BYWEEKNO", o.ByWeekNo)
	parts = appendInts(parts, "BYMONTH", o.ByMonth)
	parts = appendInts(parts, "BYSETPOS", o.BySetPos)
	if wkst, ok := o.WeekStart.Get(); ok {
		parts = append(parts, "WKST="+weekdayNames[wkst])
	}
	return strings.Join(parts, ";")
}

func appendInts(parts []string, name string, values []int) []string {
	if len(values) == 0 {
		return parts
	}
	strs := make([]string, len(values))
	for i, v := range values {
		strs[i] = strconv.Itoa(v)
	}
	return append(parts, name+"="+strings.Join(strs, ","))
}

type bound struct {
	field     string
	values    []int
	min, max  int
	plusMinus bool // -max..-min is valid too
}

func validate(o Options, dtstart DateTime) error {
	if o.Freq < Secondly || o.Freq > Yearly {
		return invalid("FREQ", o.Freq.String(), "unknown frequency")
	}
	if o.Interval < 0 {
		return invalid("INTERVAL", strconv.Itoa(o.Interval), "must be a positive integer")
	}
	if o.Count.IsPresent() && o.Until.IsPresent() {
		return invalid("UNTIL", "", "COUNT and UNTIL are mutually exclusive")
	}
	if count, ok := o.Count.Get(); ok && count < 0 {
		return invalid("COUNT", strconv.Itoa(count), "must not be negative")
	}
	if until, ok := o.Until.Get(); ok {
		if until.IsZero() {
			return invalid("UNTIL", "", "is empty")
		}
		if until.DateOnly != dtstart.DateOnly {
			if dtstart.DateOnly {
				return invalid("UNTIL", until.String(), "must be a date when DTSTART is a date")
			}
			return invalid("UNTIL", until.String(), "must be a date-time when DTSTART is a date-time")
		}
	}

	bounds := []bound{
		{"BYSECOND", o.BySecond, 0, 59, false},
		{"BYMINUTE", o.ByMinute, 0, 59, false},
		{"BYHOUR", o.ByHour, 0, 23, false},
		{"BYMONTHDAY", o.ByMonthDay, 1, 31, true},
		{"BYYEARDAY", o.ByYearDay, 1, 366, true},
		{"BYWEEKNO", o.ByWeekNo, 1, 53, true},
		{"BYMONTH", o.ByMonth, 1, 12, false},
		{"BYSETPOS", o.BySetPos, 1, 366, true},
	}
	for _, b := range bounds {
		for _, v := range b.values {
			if v >= b.min && v <= b.max {
				continue
			}
			if b.plusMinus && v <= -b.min && v >= -b.max {
				continue
			}
			reason := fmt.Sprintf("must be between %d and %d", b.min, b.max)
			if b.plusMinus {
				reason = fmt.Sprintf("must be between %d and %d or %d and %d", b.min, b.max, -b.max, -b.min)
			}
			return invalid(b.field, strconv.Itoa(v), reason)
		}
	}

	hasOrdinal := false
	for _, d := range o.ByDay {
		if d.Weekday < time.Sunday || d.Weekday > time.Saturday {
			return invalid("BYDAY", d.String(), "unknown weekday")
		}
		if d.N < -53 || d.N > 53 {
			return invalid("BYDAY", d.String(), "ordinal must be between 1 and 53 or -53 and -1")
		}
		if d.N != 0 {
			hasOrdinal = true
		}
	}
	if wkst, ok := o.WeekStart.Get(); ok && (wkst < time.Sunday || wkst > time.Saturday) {
		return invalid("WKST", strconv.Itoa(int(wkst)), "unknown weekday")
	}

	if len(o.ByWeekNo) > 0 && o.Freq != Yearly {
		return unsupported("BYWEEKNO", "only allowed with FREQ=YEARLY")
	}
	if len(o.ByYearDay) > 0 && (o.Freq == Daily || o.Freq == Weekly || o.Freq == Monthly) {
		return unsupported("BYYEARDAY", "not allowed with FREQ="+o.Freq.String())
	}
	if len(o.ByMonthDay) > 0 && o.Freq == Weekly {
		return unsupported("BYMONTHDAY", "not allowed with FREQ=WEEKLY")
	}
	if hasOrdinal && o.Freq != Monthly && o.Freq != Yearly {
		return unsupported("BYDAY", "ordinal weekdays are only allowed with FREQ=MONTHLY or FREQ=YEARLY")
	}
	if hasOrdinal && o.Freq == Yearly && len(o.ByWeekNo) > 0 {
		return unsupported("BYDAY", "ordinal weekdays are not allowed together with BYWEEKNO")
	}

	if len(o.BySetPos) > 0 && !expandsPeriod(o) {
		return invalid("BYSETPOS", "", "requires another BY* part that yields several candidates per period")
	}

	if dtstart.DateOnly {
		if o.Freq < Daily {
			return invalid("FREQ", o.Freq.String(), "not allowed with a date-only DTSTART")
		}
		for _, b := range bounds[:3] {
			if len(b.values) > 0 {
				return invalid(b.field, "", "not allowed with a date-only DTSTART")
			}
		}
	}
	return nil
}

// expandsPeriod reports whether any explicit BY* part is finer than the
// frequency and so can yield more than one candidate per period.
func expandsPeriod(o Options) bool {
	switch {
	case len(o.BySecond) > 0 && o.Freq > Secondly:
		return true
	case len(o.ByMinute) > 0 && o.Freq > Minutely:
		return true
	case len(o.ByHour) > 0 && o.Freq > Hourly:
		return true
	case len(o.ByDay) > 0 && o.Freq > Daily:
		return true
	case len(o.ByMonthDay) > 0 && o.Freq > Weekly:
		return true
	case (len(o.ByYearDay) > 0 || len(o.ByWeekNo) > 0 || len(o.ByMonth) > 0) && o.Freq == Yearly:
		return true
	}
	return false
}
