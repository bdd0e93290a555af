package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysInMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.January, 31},
		{2024, time.February, 29},
		{2023, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DaysInMonth(tt.year, tt.month), "%d-%02d", tt.year, tt.month)
	}
	assert.Equal(t, 366, DaysInYear(2024))
	assert.Equal(t, 365, DaysInYear(2100))
}

func TestWeeksInYear(t *testing.T) {
	assert.Equal(t, 53, WeeksInYear(2020, time.Monday))
	assert.Equal(t, 52, WeeksInYear(2021, time.Monday))
	assert.Equal(t, 52, WeeksInYear(2024, time.Monday))
	assert.Equal(t, 53, WeeksInYear(2026, time.Monday))
	assert.Equal(t, 53, WeeksInYear(2015, time.Monday))
}

func TestWeekNumber(t *testing.T) {
	tests := []struct {
		name     string
		date     time.Time
		wkst     time.Weekday
		wantYear int
		wantWeek int
	}{
		{"first monday of 2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Monday, 2024, 1},
		{"sunday belongs to previous year", time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC), time.Monday, 2020, 53},
		{"late december in next year", time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC), time.Monday, 2025, 1},
		{"mid year", time.Date(1997, 5, 12, 0, 0, 0, 0, time.UTC), time.Monday, 1997, 20},
		{"time of day ignored", time.Date(2024, 1, 7, 23, 59, 59, 0, time.UTC), time.Monday, 2024, 1},
		{"sunday start", time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC), time.Sunday, 2024, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, week := WeekNumber(tt.date, tt.wkst)
			assert.Equal(t, tt.wantYear, year)
			assert.Equal(t, tt.wantWeek, week)
		})
	}
}

func TestDaysBetweenBeyondDurationRange(t *testing.T) {
	a := time.Date(1601, 1, 1, 0, 0, 0, 0, time.UTC)
	b := time.Date(2401, 1, 1, 0, 0, 0, 0, time.UTC)
	// 800 Gregorian years hold exactly two 400-year cycles of 146097 days.
	assert.Equal(t, 2*146097, daysBetween(a, b))
}
