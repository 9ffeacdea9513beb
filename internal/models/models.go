package models

import "time"

// DateLayout is the on-disk and display format for observation dates.
const DateLayout = "2006-01-02"

type Observation struct {
	Date  time.Time // calendar date, midnight UTC
	Value float64
}

// DailyPoint is one day of the dense, interpolated series.
type DailyPoint struct {
	DayOffset int
	Value     float64
}

// Rate is a weekly rate of change. Valid is false when no rate can be
// computed (first record, or two records on the same day).
type Rate struct {
	Value float64
	Valid bool
}

type TrendRecord struct {
	Date       time.Time
	DayOffset  int
	Value      float64
	Change     float64
	WeeklyRate Rate
	EMA7       float64
	EMA30      float64
}

// Day truncates t to its calendar date in t's location and returns it as
// midnight UTC, so that date arithmetic never crosses a DST boundary.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
