package recurrence

import (
	"strconv"
	"strings"
	"time"

	"github.com/samber/mo"
)

var frequencies = map[string]Frequency{
	"SECONDLY": Secondly,
	"MINUTELY": Minutely,
	"HOURLY":   Hourly,
	"DAILY":    Daily,
	"WEEKLY":   Weekly,
	"MONTHLY":  Monthly,
	"YEARLY":   Yearly,
}

var weekdays = map[string]time.Weekday{
	"SU": time.Sunday,
	"MO": time.Monday,
	"TU": time.Tuesday,
	"WE": time.Wednesday,
	"TH": time.Thursday,
	"FR": time.Friday,
	"SA": time.Saturday,
}

// Parse parses RRULE text such as "FREQ=WEEKLY;BYDAY=MO,WE" against dtstart.
// A leading "RRULE:" is accepted. Experimental X- parts are ignored.
func Parse(text string, dtstart DateTime) (*Rule, error) {
	opts, err := ParseOptions(text, dtstart.Location())
	if err != nil {
		return nil, err
	}
	return New(opts, dtstart)
}

// ParseOptions parses RRULE text into Options without validating it against a
// DTSTART. Floating UNTIL values are read in loc.
func ParseOptions(text string, loc *time.Location) (Options, error) {
	var opts Options
	text = strings.TrimSpace(text)
	if len(text) >= 6 && strings.EqualFold(text[:6], "RRULE:") {
		text = text[6:]
	}
	if text == "" {
		return opts, invalid("FREQ", "", "is required")
	}

	seen := make(map[string]bool)
	for _, part := range strings.Split(text, ";") {
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		key = strings.ToUpper(strings.TrimSpace(key))
		if !ok {
			return opts, invalid(key, "", "missing value")
		}
		if seen[key] {
			return opts, invalid(key, value, "appears more than once")
		}
		seen[key] = true
		value = strings.TrimSpace(value)
		if value == "" {
			return opts, invalid(key, "", "missing value")
		}

		var err error
		switch key {
		case "FREQ":
			f, found := frequencies[strings.ToUpper(value)]
			if !found {
				return opts, invalid(key, value, "unknown frequency")
			}
			opts.Freq = f
		case "INTERVAL":
			n, convErr := strconv.Atoi(value)
			if convErr != nil || n < 1 {
				return opts, invalid(key, value, "must be a positive integer")
			}
			opts.Interval = n
		case "COUNT":
			n, convErr := strconv.Atoi(value)
			if convErr != nil || n < 0 {
				return opts, invalid(key, value, "must be a non-negative integer")
			}
			opts.Count = mo.Some(n)
		case "UNTIL":
			until, parseErr := ParseDateTime(value, loc)
			if parseErr != nil {
				return opts, &RuleError{Field: key, Value: value, Reason: parseErr.Error(), Err: ErrInvalidRule}
			}
			opts.Until = mo.Some(until)
		case "BYSECOND":
			opts.BySecond, err = parseInts(key, value)
		case "BYMINUTE":
			opts.ByMinute, err = parseInts(key, value)
		case "BYHOUR":
			opts.ByHour, err = parseInts(key, value)
		case "BYDAY":
			opts.ByDay, err = parseWeekdays(value)
		case "BYMONTHDAY":
			opts.ByMonthDay, err = parseInts(key, value)
		case "BYYEARDAY":
			opts.ByYearDay, err = parseInts(key, value)
		case "BYWEEKNO":
			opts.ByWeekNo, err = parseInts(key, value)
		case "BYMONTH":
			opts.ByMonth, err = parseInts(key, value)
		case "BYSETPOS":
			opts.BySetPos, err = parseInts(key, value)
		case "WKST":
			wd, found := weekdays[strings.ToUpper(value)]
			if !found {
				return opts, invalid(key, value, "unknown weekday")
			}
			opts.WeekStart = mo.Some(wd)
		default:
			if strings.HasPrefix(key, "X-") {
				continue
			}
			return opts, invalid(key, value, "unknown rule part")
		}
		if err != nil {
			return opts, err
		}
	}

	if !seen["FREQ"] {
		return opts, invalid("FREQ", "", "is required")
	}
	return opts, nil
}

func parseInts(field, value string) ([]int, error) {
	items := strings.Split(value, ",")
	out := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil {
			return nil, invalid(field, item, "not an integer")
		}
		out = append(out, n)
	}
	return out, nil
}

func parseWeekdays(value string) ([]WeekdayNum, error) {
	items := strings.Split(value, ",")
	out := make([]WeekdayNum, 0, len(items))
	for _, item := range items {
		item = strings.ToUpper(strings.TrimSpace(item))
		if len(item) < 2 {
			return nil, invalid("BYDAY", item, "unknown weekday")
		}
		wd, ok := weekdays[item[len(item)-2:]]
		if !ok {
			return nil, invalid("BYDAY", item, "unknown weekday")
		}
		w := WeekdayNum{Weekday: wd}
		if prefix := item[:len(item)-2]; prefix != "" {
			n, err := strconv.Atoi(prefix)
			if err != nil {
				return nil, invalid("BYDAY", item, "ordinal is not an integer")
			}
			if n == 0 {
				return nil, invalid("BYDAY", item, "ordinal must not be zero")
			}
			w.N = n
		}
		out = append(out, w)
	}
	return out, nil
}
