package recurrence

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// XCalNamespace is the xCal (RFC 6321) namespace.
const XCalNamespace = "urn:ietf:params:xml:ns:icalendar-2.0"

const (
	xcalDateFormat        = "2006-01-02"
	xcalDateTimeUTCFormat = "2006-01-02T15:04:05Z"
)

// XCal renders the rule as an xCal <recur> element. Parts derived from
// DTSTART are not rendered.
func (r *Rule) XCal() *etree.Element {
	o := r.opts
	recur := etree.NewElement("recur")
	recur.CreateElement("freq").SetText(o.Freq.String())
	if until, ok := o.Until.Get(); ok {
		recur.CreateElement("until").SetText(xcalDateTime(until))
	}
	if count, ok := o.Count.Get(); ok {
		recur.CreateElement("count").SetText(strconv.Itoa(count))
	}
	if o.Interval > 1 {
		recur.CreateElement("interval").SetText(strconv.Itoa(o.Interval))
	}
	addInts(recur, "bysecond", o.BySecond)
	addInts(recur, "byminute", o.ByMinute)
	addInts(recur, "byhour", o.ByHour)
	for _, d := range o.ByDay {
		recur.CreateElement("byday").SetText(d.String())
	}
	addInts(recur, "bymonthday", o.ByMonthDay)
	addInts(recur, "byyearday", o.ByYearDay)
	addInts(recur, "byweekno", o.ByWeekNo)
	addInts(recur, "bymonth", o.ByMonth)
	addInts(recur, "bysetpos", o.BySetPos)
	if wkst, ok := o.WeekStart.Get(); ok {
		recur.CreateElement("wkst").SetText(weekdayNames[wkst])
	}
	return recur
}

func addInts(parent *etree.Element, tag string, values []int) {
	for _, v := range values {
		parent.CreateElement(tag).SetText(strconv.Itoa(v))
	}
}

// MarshalXCal encodes the rule as an indented <recur> document in the xCal
// namespace.
func MarshalXCal(r *Rule) ([]byte, error) {
	recur := r.XCal()
	recur.CreateAttr("xmlns", XCalNamespace)
	doc := etree.NewDocumentWithRoot(recur)
	doc.Indent(2)
	return doc.WriteToBytes()
}

// ParseXCal decodes the first <recur> element of data and validates it
// against dtstart.
func ParseXCal(data []byte, dtstart DateTime) (*Rule, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to read xCal: %w", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("failed to read xCal: empty document")
	}
	recur := root
	if recur.Tag != "recur" {
		recur = root.FindElement(".//recur")
	}
	if recur == nil {
		return nil, errors.New("failed to read xCal: no recur element")
	}

	opts, err := OptionsFromXCal(recur, dtstart.Location())
	if err != nil {
		return nil, err
	}
	return New(opts, dtstart)
}

// OptionsFromXCal reads a <recur> element. Child elements map one to one to
// RRULE parts; repeated BY* elements form the part's value list.
func OptionsFromXCal(recur *etree.Element, loc *time.Location) (Options, error) {
	var (
		order  []string
		values = make(map[string][]string)
	)
	for _, child := range recur.ChildElements() {
		key := strings.ToUpper(child.Tag)
		value := strings.TrimSpace(child.Text())
		if strings.ContainsAny(value, ";=") {
			return Options{}, invalid(key, value, "contains a rule separator")
		}
		if !strings.HasPrefix(key, "BY") && strings.Contains(value, ",") {
			return Options{}, invalid(key, value, "takes a single value")
		}
		if key == "UNTIL" {
			value = strings.NewReplacer("-", "", ":", "").Replace(value)
		}
		if _, seen := values[key]; !seen {
			order = append(order, key)
		} else if !strings.HasPrefix(key, "BY") {
			return Options{}, invalid(key, value, "appears more than once")
		}
		values[key] = append(values[key], value)
	}

	parts := make([]string, 0, len(order))
	for _, key := range order {
		parts = append(parts, key+"="+strings.Join(values[key], ","))
	}
	return ParseOptions(strings.Join(parts, ";"), loc)
}

func xcalDateTime(d DateTime) string {
	if d.DateOnly {
		return d.Time.Format(xcalDateFormat)
	}
	return d.Time.UTC().Format(xcalDateTimeUTCFormat)
}
