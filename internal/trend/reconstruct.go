package trend

import (
	"github.com/lox/weightlog/internal/models"
)

// Reconstruct derives one TrendRecord per observation. Observations are
// sorted by date first; the EMAs are computed over the daily interpolated
// series and sampled at each observation's day offset.
func Reconstruct(obs []models.Observation) []models.TrendRecord {
	if len(obs) == 0 {
		return nil
	}

	sorted := sortedCopy(obs)
	daily := Interpolate(sorted)

	values := make([]float64, len(daily))
	for i, p := range daily {
		values[i] = p.Value
	}
	ema7 := EMA(values, ShortSpan)
	ema30 := EMA(values, LongSpan)

	origin := sorted[0].Date
	records := make([]models.TrendRecord, len(sorted))
	for i, o := range sorted {
		off := DayOffset(origin, o.Date)
		rec := models.TrendRecord{
			Date:      o.Date,
			DayOffset: off,
			Value:     o.Value,
			EMA7:      ema7[off],
			EMA30:     ema30[off],
		}

		if i > 0 {
			prev := records[i-1]
			rec.Change = o.Value - prev.Value
			if interval := off - prev.DayOffset; interval > 0 {
				rec.WeeklyRate = models.Rate{
					Value: rec.Change / float64(interval) * 7,
					Valid: true,
				}
			}
		}

		records[i] = rec
	}

	return records
}
