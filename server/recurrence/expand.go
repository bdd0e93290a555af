package recurrence

import (
	"slices"
	"time"
)

// plan is the BY* part set of a rule after DTSTART defaults are filled in.
type plan struct {
	freq      Frequency
	wkst      time.Weekday
	months    [13]bool
	hasMonths bool
	weekNos   []int
	yearDays  []int
	monthDays []int
	weekdays  [7]bool
	ordinals  []WeekdayNum
	hasByDay  bool
	hours     []int
	minutes   []int
	seconds   []int
	setPos    []int
}

func newPlan(r *Rule) plan {
	o := r.opts
	dt := civil(r.dtstart.Time)
	p := plan{
		freq:      o.Freq,
		wkst:      r.wkst,
		weekNos:   unique(o.ByWeekNo),
		yearDays:  unique(o.ByYearDay),
		monthDays: unique(o.ByMonthDay),
		hours:     unique(o.ByHour),
		minutes:   unique(o.ByMinute),
		seconds:   unique(o.BySecond),
		setPos:    unique(o.BySetPos),
	}
	months := o.ByMonth
	byDay := o.ByDay

	if len(o.ByWeekNo) == 0 && len(o.ByYearDay) == 0 && len(o.ByMonthDay) == 0 && len(o.ByDay) == 0 {
		switch o.Freq {
		case Yearly:
			if len(months) == 0 {
				months = []int{int(dt.Month())}
			}
			p.monthDays = []int{dt.Day()}
		case Monthly:
			p.monthDays = []int{dt.Day()}
		case Weekly:
			byDay = []WeekdayNum{{Weekday: dt.Weekday()}}
		}
	} else if o.Freq == Yearly && len(o.ByWeekNo) > 0 &&
		len(o.ByYearDay) == 0 && len(o.ByMonthDay) == 0 && len(o.ByDay) == 0 {
		byDay = []WeekdayNum{{Weekday: dt.Weekday()}}
	}

	for _, m := range months {
		p.months[m] = true
		p.hasMonths = true
	}
	for _, d := range byDay {
		p.hasByDay = true
		if d.N == 0 {
			p.weekdays[d.Weekday] = true
		} else {
			p.ordinals = append(p.ordinals, d)
		}
	}

	if len(p.hours) == 0 && o.Freq > Hourly {
		p.hours = []int{dt.Hour()}
	}
	if len(p.minutes) == 0 && o.Freq > Minutely {
		p.minutes = []int{dt.Minute()}
	}
	if len(p.seconds) == 0 && o.Freq > Secondly {
		p.seconds = []int{dt.Second()}
	}
	return p
}

func unique(values []int) []int {
	if len(values) == 0 {
		return nil
	}
	out := slices.Clone(values)
	slices.Sort(out)
	return slices.Compact(out)
}

// expand returns the sorted candidates of the period [start, end). Parts
// finer than the frequency expand the period, the others limit it.
func (p *plan) expand(start, end time.Time) []time.Time {
	hours := p.timeValues(p.hours, Hourly, start.Hour())
	minutes := p.timeValues(p.minutes, Minutely, start.Minute())
	seconds := p.timeValues(p.seconds, Secondly, start.Second())
	if len(hours) == 0 || len(minutes) == 0 || len(seconds) == 0 {
		return nil
	}

	var out []time.Time
	for d := dateOf(start); d.Before(end); {
		if p.hasMonths && !p.months[d.Month()] {
			d = time.Date(d.Year(), d.Month()+1, 1, 0, 0, 0, 0, time.UTC)
			continue
		}
		if p.matchDate(d) {
			for _, h := range hours {
				for _, m := range minutes {
					for _, s := range seconds {
						out = append(out, time.Date(d.Year(), d.Month(), d.Day(), h, m, s, 0, time.UTC))
					}
				}
			}
		}
		d = d.AddDate(0, 0, 1)
	}

	if len(p.setPos) > 0 {
		out = p.selectPositions(out)
	}
	return out
}

// timeValues expands a time part when it is finer than the frequency and
// otherwise checks the period's own value against it.
func (p *plan) timeValues(set []int, unit Frequency, current int) []int {
	if p.freq > unit {
		return set
	}
	if len(set) == 0 || slices.Contains(set, current) {
		return []int{current}
	}
	return nil
}

func (p *plan) matchDate(d time.Time) bool {
	if p.hasMonths && !p.months[d.Month()] {
		return false
	}
	if len(p.weekNos) > 0 {
		wy, wk := WeekNumber(d, p.wkst)
		if !matchIndex(p.weekNos, wk, WeeksInYear(wy, p.wkst)) {
			return false
		}
	}
	if len(p.yearDays) > 0 && !matchIndex(p.yearDays, d.YearDay(), DaysInYear(d.Year())) {
		return false
	}
	if len(p.monthDays) > 0 && !matchIndex(p.monthDays, d.Day(), DaysInMonth(d.Year(), d.Month())) {
		return false
	}
	if p.hasByDay && !p.matchWeekday(d) {
		return false
	}
	return true
}

// matchIndex reports whether value is selected by set, where negative
// entries count back from length.
func matchIndex(set []int, value, length int) bool {
	for _, v := range set {
		if v > 0 && v == value {
			return true
		}
		if v < 0 && length+v+1 == value {
			return true
		}
	}
	return false
}

// matchWeekday resolves plain and ordinal BYDAY entries. Ordinals count
// within the month for MONTHLY rules and YEARLY rules with BYMONTH, and
// within the year otherwise.
func (p *plan) matchWeekday(d time.Time) bool {
	wd := d.Weekday()
	if p.weekdays[wd] {
		return true
	}
	if len(p.ordinals) == 0 {
		return false
	}

	var idx, length int
	if p.freq == Monthly || (p.freq == Yearly && p.hasMonths) {
		idx, length = d.Day()-1, DaysInMonth(d.Year(), d.Month())
	} else {
		idx, length = d.YearDay()-1, DaysInYear(d.Year())
	}
	for _, o := range p.ordinals {
		if o.Weekday != wd {
			continue
		}
		if o.N > 0 && idx/7+1 == o.N {
			return true
		}
		if o.N < 0 && (length-1-idx)/7+1 == -o.N {
			return true
		}
	}
	return false
}

// selectPositions applies BYSETPOS to the sorted candidates of one period.
// Positions outside the set are ignored.
func (p *plan) selectPositions(candidates []time.Time) []time.Time {
	n := len(candidates)
	idx := make([]int, 0, len(p.setPos))
	for _, pos := range p.setPos {
		i := pos - 1
		if pos < 0 {
			i = n + pos
		}
		if i >= 0 && i < n {
			idx = append(idx, i)
		}
	}
	slices.Sort(idx)
	idx = slices.Compact(idx)

	out := make([]time.Time, len(idx))
	for k, i := range idx {
		out[k] = candidates[i]
	}
	return out
}

// skipHint returns the start of the next unit worth generating after an
// empty period, or the zero time when the next period should be tried.
func (p *plan) skipHint(start time.Time) time.Time {
	if p.freq > Daily {
		return time.Time{}
	}
	if p.hasMonths && !p.months[start.Month()] {
		return time.Date(start.Year(), start.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	}
	if p.freq == Daily {
		return time.Time{}
	}
	d := dateOf(start)
	if !p.matchDate(d) {
		return d.AddDate(0, 0, 1)
	}
	if p.freq < Hourly && len(p.hours) > 0 && !slices.Contains(p.hours, start.Hour()) {
		return time.Date(d.Year(), d.Month(), d.Day(), start.Hour()+1, 0, 0, 0, time.UTC)
	}
	if p.freq < Minutely && len(p.minutes) > 0 && !slices.Contains(p.minutes, start.Minute()) {
		return time.Date(d.Year(), d.Month(), d.Day(), start.Hour(), start.Minute()+1, 0, 0, time.UTC)
	}
	return time.Time{}
}
