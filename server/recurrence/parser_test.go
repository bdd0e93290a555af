package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testStart = At(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC))

func TestParse(t *testing.T) {
	rule, err := Parse("RRULE:freq=monthly;interval=2;count=4;byday=TU,-1su,+2MO;wkst=su;X-NAME=ignored", testStart)
	require.NoError(t, err)

	assert.Equal(t, Monthly, rule.Freq())
	assert.Equal(t, 2, rule.Interval())
	assert.Equal(t, 4, rule.Count().MustGet())
	assert.True(t, rule.Until().IsAbsent())
	assert.Equal(t, time.Sunday, rule.WeekStart())
	assert.Equal(t, []WeekdayNum{
		{Weekday: time.Tuesday},
		{N: -1, Weekday: time.Sunday},
		{N: 2, Weekday: time.Monday},
	}, rule.Options().ByDay)
}

func TestParse_Defaults(t *testing.T) {
	rule, err := Parse("FREQ=DAILY", testStart)
	require.NoError(t, err)

	assert.Equal(t, 1, rule.Interval())
	assert.Equal(t, time.Monday, rule.WeekStart())
	assert.True(t, rule.Count().IsAbsent())
	assert.True(t, rule.Options().WeekStart.IsAbsent())
}

func TestParse_Until(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)
	dtstart := At(time.Date(2024, 1, 1, 9, 0, 0, 0, loc))

	rule, err := Parse("FREQ=DAILY;UNTIL=20240105T090000", dtstart)
	require.NoError(t, err)
	until := rule.Until().MustGet()
	assert.False(t, until.DateOnly)
	assert.True(t, until.Time.Equal(time.Date(2024, 1, 5, 9, 0, 0, 0, loc)))

	allDay, err := Parse("FREQ=DAILY;UNTIL=20240105", Date(2024, 1, 1, loc))
	require.NoError(t, err)
	assert.True(t, allDay.Until().MustGet().DateOnly)
}

func TestParse_Errors(t *testing.T) {
	dateStart := Date(2024, 1, 1, time.UTC)

	tests := []struct {
		name        string
		rule        string
		dtstart     DateTime
		field       string
		unsupported bool
	}{
		{"empty", "", testStart, "FREQ", false},
		{"missing freq", "INTERVAL=2", testStart, "FREQ", false},
		{"unknown freq", "FREQ=FORTNIGHTLY", testStart, "FREQ", false},
		{"zero interval", "FREQ=DAILY;INTERVAL=0", testStart, "INTERVAL", false},
		{"negative interval", "FREQ=DAILY;INTERVAL=-1", testStart, "INTERVAL", false},
		{"negative count", "FREQ=DAILY;COUNT=-1", testStart, "COUNT", false},
		{"count and until", "FREQ=DAILY;COUNT=2;UNTIL=20240110T000000Z", testStart, "UNTIL", false},
		{"date until on date-time start", "FREQ=DAILY;UNTIL=20240110", testStart, "UNTIL", false},
		{"date-time until on date start", "FREQ=DAILY;UNTIL=20240110T000000Z", dateStart, "UNTIL", false},
		{"malformed until", "FREQ=DAILY;UNTIL=tomorrow", testStart, "UNTIL", false},
		{"hour out of range", "FREQ=DAILY;BYHOUR=24", testStart, "BYHOUR", false},
		{"minute out of range", "FREQ=DAILY;BYMINUTE=60", testStart, "BYMINUTE", false},
		{"second out of range", "FREQ=DAILY;BYSECOND=-1", testStart, "BYSECOND", false},
		{"month out of range", "FREQ=DAILY;BYMONTH=13", testStart, "BYMONTH", false},
		{"zero week number", "FREQ=YEARLY;BYWEEKNO=0", testStart, "BYWEEKNO", false},
		{"year day out of range", "FREQ=YEARLY;BYYEARDAY=367", testStart, "BYYEARDAY", false},
		{"month day out of range", "FREQ=MONTHLY;BYMONTHDAY=-32", testStart, "BYMONTHDAY", false},
		{"zero month day", "FREQ=MONTHLY;BYMONTHDAY=0", testStart, "BYMONTHDAY", false},
		{"zero ordinal", "FREQ=MONTHLY;BYDAY=0MO", testStart, "BYDAY", false},
		{"ordinal out of range", "FREQ=YEARLY;BYDAY=54MO", testStart, "BYDAY", false},
		{"unknown weekday", "FREQ=WEEKLY;BYDAY=MX", testStart, "BYDAY", false},
		{"zero set position", "FREQ=MONTHLY;BYDAY=MO;BYSETPOS=0", testStart, "BYSETPOS", false},
		{"set position alone", "FREQ=MONTHLY;BYSETPOS=1", testStart, "BYSETPOS", false},
		{"set position with limiting part only", "FREQ=DAILY;BYMONTH=1;BYSETPOS=1", testStart, "BYSETPOS", false},
		{"unknown wkst", "FREQ=WEEKLY;WKST=XX", testStart, "WKST", false},
		{"unknown part", "FREQ=DAILY;FOO=1", testStart, "FOO", false},
		{"duplicate part", "FREQ=DAILY;FREQ=WEEKLY", testStart, "FREQ", false},
		{"missing value", "FREQ=DAILY;COUNT", testStart, "COUNT", false},
		{"not an integer", "FREQ=DAILY;BYHOUR=nine", testStart, "BYHOUR", false},
		{"hourly on date start", "FREQ=HOURLY", dateStart, "FREQ", false},
		{"byhour on date start", "FREQ=DAILY;BYHOUR=9", dateStart, "BYHOUR", false},
		{"year day with monthly", "FREQ=MONTHLY;BYYEARDAY=1", testStart, "BYYEARDAY", true},
		{"year day with daily", "FREQ=DAILY;BYYEARDAY=1", testStart, "BYYEARDAY", true},
		{"month day with weekly", "FREQ=WEEKLY;BYMONTHDAY=1", testStart, "BYMONTHDAY", true},
		{"week number with monthly", "FREQ=MONTHLY;BYWEEKNO=1", testStart, "BYWEEKNO", true},
		{"ordinal with weekly", "FREQ=WEEKLY;BYDAY=1MO", testStart, "BYDAY", true},
		{"ordinal with week number", "FREQ=YEARLY;BYWEEKNO=1;BYDAY=1MO", testStart, "BYDAY", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := Parse(tt.rule, tt.dtstart)
			require.Error(t, err)
			assert.Nil(t, rule)
			assert.ErrorIs(t, err, ErrInvalidRule)
			assert.Equal(t, tt.unsupported, errors.Is(err, ErrUnsupportedCombination))

			var ruleErr *RuleError
			require.ErrorAs(t, err, &ruleErr)
			assert.Equal(t, tt.field, ruleErr.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestNew_RequiresDtstart(t *testing.T) {
	_, err := New(Options{Freq: Daily}, DateTime{})
	assert.ErrorIs(t, err, ErrInvalidRule)
}

func TestNew_DoesNotAliasOptions(t *testing.T) {
	opts := Options{Freq: Monthly, ByMonthDay: []int{1, 15}}
	rule, err := New(opts, testStart)
	require.NoError(t, err)

	opts.ByMonthDay[0] = 31
	got := rule.Options()
	assert.Equal(t, []int{1, 15}, got.ByMonthDay)

	got.ByMonthDay[1] = 20
	assert.Equal(t, []int{1, 15}, rule.Options().ByMonthDay)
}

func TestRule_String(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"FREQ=DAILY", "FREQ=DAILY"},
		{"FREQ=DAILY;INTERVAL=1", "FREQ=DAILY"},
		{"WKST=MO;BYDAY=TU,SU;COUNT=4;INTERVAL=2;FREQ=WEEKLY", "FREQ=WEEKLY;INTERVAL=2;COUNT=4;BYDAY=TU,SU;WKST=MO"},
		{"FREQ=MONTHLY;BYSETPOS=-1;BYDAY=MO,TU,WE,TH,FR;UNTIL=20241231T235959Z", "FREQ=MONTHLY;UNTIL=20241231T235959Z;BYDAY=MO,TU,WE,TH,FR;BYSETPOS=-1"},
		{"FREQ=YEARLY;BYMONTH=3;BYDAY=-1SU;BYHOUR=2;BYMINUTE=30", "FREQ=YEARLY;BYMINUTE=30;BYHOUR=2;BYDAY=-1SU;BYMONTH=3"},
		{"FREQ=YEARLY;BYYEARDAY=1,-1;BYWEEKNO=1", "FREQ=YEARLY;BYYEARDAY=1,-1;BYWEEKNO=1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			rule, err := Parse(tt.in, testStart)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rule.String())

			again, err := Parse(rule.String(), testStart)
			require.NoError(t, err)
			assert.Equal(t, rule.Options(), again.Options())
		})
	}
}

func TestParseDateTime(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	d, err := ParseDateTime("20240315", loc)
	require.NoError(t, err)
	assert.True(t, d.DateOnly)
	assert.Equal(t, "20240315", d.String())
	assert.Equal(t, loc, d.Location())

	d, err = ParseDateTime("20240315T083000", loc)
	require.NoError(t, err)
	assert.False(t, d.DateOnly)
	assert.Equal(t, "20240315T123000Z", d.String())

	d, err = ParseDateTime("20240315T083000Z", loc)
	require.NoError(t, err)
	assert.Equal(t, time.UTC, d.Time.Location())

	_, err = ParseDateTime("2024-03-15", loc)
	assert.Error(t, err)
	_, err = ParseDateTime("20241315", loc)
	assert.Error(t, err)
}
