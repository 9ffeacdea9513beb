package api

import (
	"github.com/lox/weightlog/internal/models"
	"github.com/lox/weightlog/internal/trend"
)

type IndexData struct {
	Records []models.TrendRecord
	Summary trend.Summary
}

type HealthStatus struct {
	Status   string `json:"status"`
	Records  int    `json:"records"`
	LastDate string `json:"last_date,omitempty"`
}

// RecordView is the JSON form of a trend record. WeeklyRate is null where
// no rate is defined.
type RecordView struct {
	Date       string   `json:"date"`
	DayOffset  int      `json:"day_offset"`
	Value      float64  `json:"value"`
	Change     float64  `json:"change"`
	WeeklyRate *float64 `json:"weekly_rate"`
	EMA7       float64  `json:"ema_7"`
	EMA30      float64  `json:"ema_30"`
}

func newRecordView(r models.TrendRecord) RecordView {
	return RecordView{
		Date:       r.Date.Format(models.DateLayout),
		DayOffset:  r.DayOffset,
		Value:      r.Value,
		Change:     r.Change,
		WeeklyRate: rateValue(r.WeeklyRate),
		EMA7:       r.EMA7,
		EMA30:      r.EMA30,
	}
}

type SummaryView struct {
	Count         int      `json:"count"`
	First         string   `json:"first,omitempty"`
	Last          string   `json:"last,omitempty"`
	Min           float64  `json:"min"`
	Max           float64  `json:"max"`
	TotalChange   float64  `json:"total_change"`
	SpanDays      int      `json:"span_days"`
	AvgWeeklyRate *float64 `json:"avg_weekly_rate"`
}

func newSummaryView(s trend.Summary) SummaryView {
	v := SummaryView{
		Count:         s.Count,
		Min:           s.Min,
		Max:           s.Max,
		TotalChange:   s.TotalChange,
		SpanDays:      s.SpanDays,
		AvgWeeklyRate: rateValue(s.AvgWeeklyRate),
	}
	if s.Count > 0 {
		v.First = s.First.Date.Format(models.DateLayout)
		v.Last = s.Last.Date.Format(models.DateLayout)
	}
	return v
}

func rateValue(r models.Rate) *float64 {
	if !r.Valid {
		return nil
	}
	v := r.Value
	return &v
}
