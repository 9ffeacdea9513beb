package trend

import (
	"slices"
	"time"

	"github.com/lox/weightlog/internal/models"
)

const day = 24 * time.Hour

// DayOffset returns the number of calendar days from a to b.
func DayOffset(a, b time.Time) int {
	return int(models.Day(b).Sub(models.Day(a)) / day)
}

// sortedCopy normalizes dates to calendar days and stably sorts by date,
// leaving the caller's slice untouched.
func sortedCopy(obs []models.Observation) []models.Observation {
	out := make([]models.Observation, len(obs))
	for i, o := range obs {
		out[i] = models.Observation{Date: models.Day(o.Date), Value: o.Value}
	}
	slices.SortStableFunc(out, func(a, b models.Observation) int {
		return a.Date.Compare(b.Date)
	})
	return out
}

// Dedupe collapses observations that share a calendar date, keeping the last
// one in input order. The input must already be sorted by date.
func Dedupe(sorted []models.Observation) []models.Observation {
	if len(sorted) == 0 {
		return nil
	}
	out := make([]models.Observation, 0, len(sorted))
	for _, o := range sorted {
		if n := len(out); n > 0 && out[n-1].Date.Equal(o.Date) {
			out[n-1] = o
			continue
		}
		out = append(out, o)
	}
	return out
}

// Interpolate expands observations into one point per calendar day from the
// first to the last date. Points on an observed date carry that observation's
// value exactly; days in between are linearly interpolated from the two
// bracketing observations.
func Interpolate(obs []models.Observation) []models.DailyPoint {
	knots := Dedupe(sortedCopy(obs))
	if len(knots) == 0 {
		return nil
	}

	origin := knots[0].Date
	span := DayOffset(origin, knots[len(knots)-1].Date)
	points := make([]models.DailyPoint, 0, span+1)
	points = append(points, models.DailyPoint{DayOffset: 0, Value: knots[0].Value})

	for i := 1; i < len(knots); i++ {
		prev, next := knots[i-1], knots[i]
		prevOff := DayOffset(origin, prev.Date)
		nextOff := DayOffset(origin, next.Date)
		gap := float64(nextOff - prevOff)

		for off := prevOff + 1; off < nextOff; off++ {
			v := prev.Value + (next.Value-prev.Value)*float64(off-prevOff)/gap
			points = append(points, models.DailyPoint{DayOffset: off, Value: v})
		}
		points = append(points, models.DailyPoint{DayOffset: nextOff, Value: next.Value})
	}

	return points
}
