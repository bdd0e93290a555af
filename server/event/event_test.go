package event

import (
	"errors"
	"testing"
	"time"

	"github.com/ItsaMeTuni/caser/server/recurrence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockExpander struct {
	mock.Mock
}

func (m *mockExpander) Expand(masterStart recurrence.DateTime, masterEnd time.Time,
	info recurrence.RecurrenceInfo,
	rangeStart, rangeEnd time.Time,
	opts recurrence.ExpansionOptions,
) ([]recurrence.TimeOccurrence, error) {
	args := m.Called(masterStart, masterEnd, info, rangeStart, rangeEnd, opts)
	occurrences, _ := args.Get(0).([]recurrence.TimeOccurrence)
	return occurrences, args.Error(1)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSpan(t *testing.T) {
	allDay, err := DateSpan(time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC), day(2024, 1, 3))
	require.NoError(t, err)
	assert.True(t, allDay.AllDay)
	assert.Equal(t, day(2024, 1, 1), allDay.Start)
	assert.Equal(t, 2, allDay.Days())
	assert.Equal(t, 48*time.Hour, allDay.Duration())
	assert.Equal(t, recurrence.Date(2024, 1, 1, time.UTC), allDay.DateTime())

	_, err = DateSpan(day(2024, 1, 3), day(2024, 1, 3))
	assert.ErrorIs(t, err, ErrInvalidSpan)

	timed, err := DateTimeSpan(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, timed.Duration())
	assert.False(t, timed.DateTime().DateOnly)

	_, err = DateTimeSpan(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrInvalidSpan)
}

func TestSpan_Overlaps(t *testing.T) {
	nine := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	ten := nine.Add(time.Hour)
	meeting := Span{Start: nine, End: ten}
	instant := Span{Start: nine, End: nine}

	tests := []struct {
		name     string
		span     Span
		from, to time.Time
		want     bool
	}{
		{"contains", meeting, nine.Add(-time.Hour), ten.Add(time.Hour), true},
		{"starts inside", meeting, nine.Add(-time.Hour), nine.Add(time.Minute), true},
		{"ends inside", meeting, nine.Add(30 * time.Minute), ten.Add(time.Hour), true},
		{"ends at range start", meeting, ten, ten.Add(time.Hour), false},
		{"starts at range end", meeting, nine.Add(-time.Hour), nine, false},
		{"instant at range start", instant, nine, ten, true},
		{"instant before range", instant, nine.Add(time.Second), ten, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.span.Overlaps(tt.from, tt.to))
		})
	}
}

func TestEvent_Instances(t *testing.T) {
	engine := recurrence.NewEngine()

	t.Run("recurring all-day event", func(t *testing.T) {
		span, err := DateSpan(day(2024, 1, 1), day(2024, 1, 3))
		require.NoError(t, err)
		e, err := NewRecurring(span, "FREQ=WEEKLY;COUNT=3", nil, nil)
		require.NoError(t, err)
		assert.True(t, e.IsRecurring())

		instances, err := e.Instances(engine, day(2024, 1, 1), day(2024, 2, 1))
		require.NoError(t, err)
		require.Len(t, instances, 3)
		for i, inst := range instances {
			assert.Equal(t, e.ID, inst.ParentID)
			assert.True(t, inst.Span.AllDay)
			assert.Equal(t, day(2024, 1, 1+7*i), inst.Span.Start)
			assert.Equal(t, 2, inst.Span.Days())
		}
	})

	t.Run("single event", func(t *testing.T) {
		span, err := DateTimeSpan(time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC), time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		e := NewSingle(span)
		assert.False(t, e.IsRecurring())

		instances, err := e.Instances(engine, day(2024, 1, 1), day(2024, 2, 1))
		require.NoError(t, err)
		require.Len(t, instances, 1)
		assert.Equal(t, span, instances[0].Span)

		instances, err = e.Instances(engine, day(2024, 2, 1), day(2024, 3, 1))
		require.NoError(t, err)
		assert.Empty(t, instances)
	})

	t.Run("moved instance", func(t *testing.T) {
		span, err := DateTimeSpan(time.Date(2020, 9, 1, 18, 0, 0, 0, time.UTC), time.Date(2020, 9, 1, 19, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		series, err := NewRecurring(span, "FREQ=WEEKLY", nil, []recurrence.DateTime{recurrence.Date(2020, 9, 20, time.UTC)})
		require.NoError(t, err)

		require.NoError(t, series.Exclude(recurrence.Date(2020, 9, 8, time.UTC)))
		assert.Error(t, NewSingle(span).Exclude(recurrence.Date(2020, 9, 8, time.UTC)))

		instances, err := series.Instances(engine, day(2020, 9, 1), day(2020, 9, 23))
		require.NoError(t, err)
		var starts []string
		for _, inst := range instances {
			starts = append(starts, inst.Span.Start.Format(time.RFC3339))
		}
		assert.Equal(t, []string{
			"2020-09-01T18:00:00Z",
			"2020-09-15T18:00:00Z",
			"2020-09-20T18:00:00Z",
			"2020-09-22T18:00:00Z",
		}, starts)
		assert.True(t, instances[2].Addition)
	})

	t.Run("expansion failure", func(t *testing.T) {
		x := new(mockExpander)
		x.On("Expand", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, recurrence.ErrInvalidRule)

		e := NewSingle(Span{Start: day(2024, 1, 1), End: day(2024, 1, 2), AllDay: true})
		_, err := e.Instances(x, day(2024, 1, 1), day(2024, 2, 1))
		assert.ErrorIs(t, err, recurrence.ErrInvalidRule)
		assert.Contains(t, err.Error(), e.ID.String())
		x.AssertExpectations(t)
	})

	t.Run("single event outside the range skips expansion", func(t *testing.T) {
		x := new(mockExpander)
		e := NewSingle(Span{Start: day(2024, 1, 1), End: day(2024, 1, 2), AllDay: true})
		instances, err := e.Instances(x, day(2024, 1, 2), day(2024, 2, 1))
		require.NoError(t, err)
		assert.Empty(t, instances)
		x.AssertNotCalled(t, "Expand", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("time span is capped", func(t *testing.T) {
		span, err := DateSpan(day(2024, 1, 1), day(2024, 1, 2))
		require.NoError(t, err)
		e, err := NewRecurring(span, "FREQ=YEARLY", nil, nil)
		require.NoError(t, err)

		instances, err := e.Instances(engine, day(2024, 1, 1), day(2034, 1, 1))
		require.NoError(t, err)
		require.Len(t, instances, 2)
		assert.Equal(t, day(2025, 1, 1), instances[1].Span.Start)
	})

	t.Run("expander receives the event", func(t *testing.T) {
		span, err := DateTimeSpan(time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC), time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		e, err := NewRecurring(span, "FREQ=DAILY;INTERVAL=2", nil, nil)
		require.NoError(t, err)

		x := new(mockExpander)
		x.On("Expand", span.DateTime(), span.End, recurrence.RecurrenceInfo{RRULE: "FREQ=DAILY;INTERVAL=2"},
			day(2024, 1, 1), day(2024, 1, 2), recurrence.DefaultExpansionOptions).
			Return([]recurrence.TimeOccurrence{{Start: span.Start, End: span.End}}, nil)

		instances, err := e.Instances(x, day(2024, 1, 1), day(2024, 1, 2))
		require.NoError(t, err)
		assert.Equal(t, []Instance{{ParentID: e.ID, Span: span}}, instances)
		x.AssertExpectations(t)
	})
}

func TestEvent_Series(t *testing.T) {
	span, err := DateSpan(day(2024, 1, 1), day(2024, 1, 2))
	require.NoError(t, err)
	e, err := NewRecurring(span, "FREQ=MONTHLY", []recurrence.DateTime{recurrence.Date(2024, 2, 1, time.UTC)}, nil)
	require.NoError(t, err)

	s := e.Series()
	assert.Equal(t, e.ID.String(), s.ID)
	assert.True(t, s.Start.DateOnly)
	assert.Equal(t, day(2024, 1, 2), s.End)
	assert.Equal(t, "FREQ=MONTHLY", s.Recurrence.RRULE)
	assert.Len(t, s.Recurrence.EXDATE, 1)

	_, err = NewRecurring(span, "FREQ=HOURLY", nil, nil)
	assert.True(t, errors.Is(err, recurrence.ErrInvalidRule))
}
