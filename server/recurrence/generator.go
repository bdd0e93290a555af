package recurrence

import "time"

// generator enumerates the coarse periods of a rule: one period per INTERVAL
// units of the frequency, starting with the period that holds DTSTART. All
// bounds are civil times. A generator is a plain value, so copying it forks
// the enumeration.
type generator struct {
	freq     Frequency
	interval int
	anchor   time.Time
	n        int
}

func newGenerator(freq Frequency, interval int, dtstart time.Time, wkst time.Weekday) generator {
	c := civil(dtstart)
	var anchor time.Time
	switch freq {
	case Yearly:
		anchor = time.Date(c.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	case Monthly:
		anchor = time.Date(c.Year(), c.Month(), 1, 0, 0, 0, 0, time.UTC)
	case Weekly:
		anchor = startOfWeek(c, wkst)
	case Daily:
		anchor = dateOf(c)
	case Hourly:
		anchor = c.Truncate(time.Hour)
	case Minutely:
		anchor = c.Truncate(time.Minute)
	default:
		anchor = c
	}
	return generator{freq: freq, interval: interval, anchor: anchor}
}

// offset returns the start of the period k units after the anchor.
func (g *generator) offset(k int) time.Time {
	a := g.anchor
	switch g.freq {
	case Yearly:
		return time.Date(a.Year()+k, time.January, 1, 0, 0, 0, 0, time.UTC)
	case Monthly:
		return time.Date(a.Year(), a.Month()+time.Month(k), 1, 0, 0, 0, 0, time.UTC)
	case Weekly:
		return time.Date(a.Year(), a.Month(), a.Day()+7*k, 0, 0, 0, 0, time.UTC)
	case Daily:
		return time.Date(a.Year(), a.Month(), a.Day()+k, 0, 0, 0, 0, time.UTC)
	case Hourly:
		return time.Date(a.Year(), a.Month(), a.Day(), a.Hour()+k, 0, 0, 0, time.UTC)
	case Minutely:
		return time.Date(a.Year(), a.Month(), a.Day(), a.Hour(), a.Minute()+k, 0, 0, time.UTC)
	default:
		return time.Date(a.Year(), a.Month(), a.Day(), a.Hour(), a.Minute(), a.Second()+k, 0, time.UTC)
	}
}

// bounds returns the current period as [start, end).
func (g *generator) bounds() (start, end time.Time) {
	k := g.n * g.interval
	return g.offset(k), g.offset(k + 1)
}

func (g *generator) advance() {
	g.n++
}

// skipTo moves forward to the first period ending after c. It never moves
// backward.
func (g *generator) skipTo(c time.Time) {
	var units int64
	a := g.anchor
	switch g.freq {
	case Yearly:
		units = int64(c.Year() - a.Year())
	case Monthly:
		units = int64(c.Year()-a.Year())*12 + int64(c.Month()-a.Month())
	case Weekly:
		units = int64(daysBetween(a, c) / 7)
	case Daily:
		units = int64(daysBetween(a, c))
	case Hourly:
		units = (c.Unix() - a.Unix()) / 3600
	case Minutely:
		units = (c.Unix() - a.Unix()) / 60
	default:
		units = c.Unix() - a.Unix()
	}
	if n := int(units / int64(g.interval)); n > g.n {
		g.n = n
	}
	for {
		if _, end := g.bounds(); end.After(c) {
			return
		}
		g.n++
	}
}
