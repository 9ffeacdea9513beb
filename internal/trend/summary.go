package trend

import (
	"github.com/lox/weightlog/internal/models"
)

// Recent returns the tail of records dated within days calendar days of the
// last record. Records must be in the order Reconstruct returns them.
func Recent(records []models.TrendRecord, days int) []models.TrendRecord {
	if len(records) == 0 || days <= 0 {
		return nil
	}
	last := records[len(records)-1].DayOffset
	for i, r := range records {
		if last-r.DayOffset < days {
			return records[i:]
		}
	}
	return nil
}

type Summary struct {
	Count         int
	First         models.TrendRecord
	Last          models.TrendRecord
	Min           float64
	Max           float64
	TotalChange   float64
	SpanDays      int
	AvgWeeklyRate models.Rate
}

// Summarize reports the overall movement across records.
func Summarize(records []models.TrendRecord) Summary {
	if len(records) == 0 {
		return Summary{}
	}

	first, last := records[0], records[len(records)-1]
	s := Summary{
		Count:       len(records),
		First:       first,
		Last:        last,
		Min:         first.Value,
		Max:         first.Value,
		TotalChange: last.Value - first.Value,
		SpanDays:    last.DayOffset - first.DayOffset,
	}
	for _, r := range records[1:] {
		s.Min = min(s.Min, r.Value)
		s.Max = max(s.Max, r.Value)
	}
	if s.SpanDays > 0 {
		s.AvgWeeklyRate = models.Rate{Value: s.TotalChange / float64(s.SpanDays) * 7, Valid: true}
	}
	return s
}
