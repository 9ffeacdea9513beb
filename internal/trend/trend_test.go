package trend

import (
	"math"
	"testing"
	"time"

	"github.com/lox/weightlog/internal/models"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func obs(t *testing.T, pairs ...any) []models.Observation {
	t.Helper()
	var out []models.Observation
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, models.Observation{Date: date(t, pairs[i].(string)), Value: pairs[i+1].(float64)})
	}
	return out
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestDayOffset(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want int
	}{
		{"same day", "2024-01-01", "2024-01-01", 0},
		{"one week", "2024-01-01", "2024-01-08", 7},
		{"leap day", "2024-02-28", "2024-03-01", 2},
		{"year boundary", "2023-12-31", "2024-01-01", 1},
		{"backwards", "2024-01-08", "2024-01-01", -7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DayOffset(date(t, tt.a), date(t, tt.b)); got != tt.want {
				t.Errorf("DayOffset(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestDayOffset_IgnoresTimeOfDayAndDST(t *testing.T) {
	loc, err := time.LoadLocation("Australia/Melbourne")
	if err != nil {
		t.Skipf("load timezone: %v", err)
	}
	// Daylight saving starts on 2024-10-06 in Melbourne.
	a := time.Date(2024, 10, 5, 23, 30, 0, 0, loc)
	b := time.Date(2024, 10, 7, 0, 15, 0, 0, loc)
	if got := DayOffset(a, b); got != 2 {
		t.Errorf("DayOffset across DST = %d, want 2", got)
	}
}

func TestInterpolate_Empty(t *testing.T) {
	if got := Interpolate(nil); len(got) != 0 {
		t.Errorf("Interpolate(nil) = %v, want empty", got)
	}
}

func TestInterpolate_Single(t *testing.T) {
	got := Interpolate(obs(t, "2024-03-01", 70.0))
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].DayOffset != 0 || got[0].Value != 70.0 {
		t.Errorf("point = %+v, want {0 70}", got[0])
	}
}

func TestInterpolate_Midpoint(t *testing.T) {
	got := Interpolate(obs(t, "2024-05-10", 100.0, "2024-05-12", 102.0))
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[1].Value != 101.0 {
		t.Errorf("value at d0+1 = %v, want 101", got[1].Value)
	}
}

func TestInterpolate_DenseAndExact(t *testing.T) {
	input := obs(t,
		"2024-01-01", 82.4,
		"2024-01-04", 81.9,
		"2024-01-05", 82.1,
		"2024-01-19", 80.3,
		"2024-02-02", 80.8,
	)
	points := Interpolate(input)

	wantLen := DayOffset(input[0].Date, input[len(input)-1].Date) + 1
	if len(points) != wantLen {
		t.Fatalf("len = %d, want %d", len(points), wantLen)
	}
	for i, p := range points {
		if p.DayOffset != i {
			t.Fatalf("points[%d].DayOffset = %d, want %d", i, p.DayOffset, i)
		}
	}

	for _, o := range input {
		off := DayOffset(input[0].Date, o.Date)
		if points[off].Value != o.Value {
			t.Errorf("value at %s = %v, want exact %v", o.Date.Format(models.DateLayout), points[off].Value, o.Value)
		}
	}

	for i := 1; i < len(input); i++ {
		a, b := input[i-1], input[i]
		lo, hi := min(a.Value, b.Value), max(a.Value, b.Value)
		from := DayOffset(input[0].Date, a.Date)
		to := DayOffset(input[0].Date, b.Date)
		for off := from + 1; off < to; off++ {
			if v := points[off].Value; v < lo || v > hi {
				t.Errorf("value at offset %d = %v, outside [%v, %v]", off, v, lo, hi)
			}
		}
	}
}

func TestInterpolate_UnsortedInput(t *testing.T) {
	got := Interpolate(obs(t, "2024-01-03", 3.0, "2024-01-01", 1.0))
	want := []float64{1, 2, 3}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Value != w {
			t.Errorf("points[%d] = %v, want %v", i, got[i].Value, w)
		}
	}
}

func TestDedupe_LastWins(t *testing.T) {
	got := Dedupe(obs(t,
		"2024-01-01", 80.0,
		"2024-01-01", 81.0,
		"2024-01-02", 79.0,
		"2024-01-02", 78.5,
		"2024-01-02", 78.0,
	))
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Value != 81.0 {
		t.Errorf("first day = %v, want 81", got[0].Value)
	}
	if got[1].Value != 78.0 {
		t.Errorf("second day = %v, want 78", got[1].Value)
	}
}

func TestEMA(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		if got := EMA(nil, ShortSpan); got != nil {
			t.Errorf("EMA(nil) = %v, want nil", got)
		}
	})

	t.Run("seeded with first value", func(t *testing.T) {
		got := EMA([]float64{80, 90}, ShortSpan)
		if got[0] != 80 {
			t.Errorf("ema[0] = %v, want 80", got[0])
		}
		// alpha = 0.25 for a 7 day span
		if got[1] != 82.5 {
			t.Errorf("ema[1] = %v, want 82.5", got[1])
		}
	})

	t.Run("constant series", func(t *testing.T) {
		values := []float64{72.3, 72.3, 72.3, 72.3, 72.3}
		for _, span := range []int{ShortSpan, LongSpan} {
			for i, v := range EMA(values, span) {
				if v != 72.3 {
					t.Errorf("span %d ema[%d] = %v, want 72.3", span, i, v)
				}
			}
		}
	})
}

func TestAlpha(t *testing.T) {
	if got := Alpha(7); got != 0.25 {
		t.Errorf("Alpha(7) = %v, want 0.25", got)
	}
	if got := Alpha(30); !approx(got, 2.0/31.0) {
		t.Errorf("Alpha(30) = %v, want %v", got, 2.0/31.0)
	}
}

func TestStepEMA_ZeroInterval(t *testing.T) {
	if got := StepEMA(ShortSpan, 80, 90, 0, 81.5); got != 81.5 {
		t.Errorf("StepEMA with zero interval = %v, want 81.5", got)
	}
}

func TestStepEMA_MatchesDailySeries(t *testing.T) {
	input := obs(t,
		"2024-01-01", 82.4,
		"2024-01-02", 82.0,
		"2024-01-09", 81.1,
		"2024-01-10", 81.4,
		"2024-02-14", 78.9,
		"2024-02-20", 79.6,
	)
	records := Reconstruct(input)

	ema7, ema30 := input[0].Value, input[0].Value
	for i := 1; i < len(input); i++ {
		interval := DayOffset(input[i-1].Date, input[i].Date)
		ema7 = StepEMA(ShortSpan, input[i-1].Value, input[i].Value, interval, ema7)
		ema30 = StepEMA(LongSpan, input[i-1].Value, input[i].Value, interval, ema30)

		if !approx(records[i].EMA7, ema7) {
			t.Errorf("record %d ema7 = %v, step ema = %v", i, records[i].EMA7, ema7)
		}
		if !approx(records[i].EMA30, ema30) {
			t.Errorf("record %d ema30 = %v, step ema = %v", i, records[i].EMA30, ema30)
		}
	}
}

func TestReconstruct_Empty(t *testing.T) {
	if got := Reconstruct(nil); len(got) != 0 {
		t.Errorf("Reconstruct(nil) = %v, want empty", got)
	}
}

func TestReconstruct_TwoObservationsAWeekApart(t *testing.T) {
	got := Reconstruct(obs(t, "2024-01-01", 80.0, "2024-01-08", 79.0))
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	if got[0].DayOffset != 0 || got[1].DayOffset != 7 {
		t.Errorf("offsets = [%d %d], want [0 7]", got[0].DayOffset, got[1].DayOffset)
	}
	if got[0].Change != 0 || got[1].Change != -1.0 {
		t.Errorf("changes = [%v %v], want [0 -1]", got[0].Change, got[1].Change)
	}
	if got[0].WeeklyRate.Valid {
		t.Errorf("first weekly rate = %+v, want sentinel", got[0].WeeklyRate)
	}
	if !got[1].WeeklyRate.Valid || !approx(got[1].WeeklyRate.Value, -1.0) {
		t.Errorf("second weekly rate = %+v, want -1", got[1].WeeklyRate)
	}
	if got[0].EMA7 != 80.0 || got[0].EMA30 != 80.0 {
		t.Errorf("first emas = (%v, %v), want (80, 80)", got[0].EMA7, got[0].EMA30)
	}
	if got[1].EMA7 >= 80.0 || got[1].EMA7 <= 79.0 {
		t.Errorf("second ema7 = %v, want strictly between 79 and 80", got[1].EMA7)
	}
	if got[1].EMA30 <= got[1].EMA7 {
		t.Errorf("ema30 = %v should lag ema7 = %v on a falling series", got[1].EMA30, got[1].EMA7)
	}
}

func TestReconstruct_SingleObservation(t *testing.T) {
	got := Reconstruct(obs(t, "2024-03-01", 70.0))
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	r := got[0]
	if r.DayOffset != 0 || r.Change != 0 {
		t.Errorf("record = %+v, want offset 0 and change 0", r)
	}
	if r.EMA7 != 70.0 || r.EMA30 != 70.0 {
		t.Errorf("emas = (%v, %v), want (70, 70)", r.EMA7, r.EMA30)
	}
	if r.WeeklyRate.Valid {
		t.Errorf("weekly rate = %+v, want sentinel", r.WeeklyRate)
	}
}

func TestReconstruct_SameDaySentinel(t *testing.T) {
	got := Reconstruct(obs(t,
		"2024-01-01", 80.0,
		"2024-01-02", 80.0,
		"2024-01-02", 80.0,
	))
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	// A genuine zero rate and the sentinel must not compare equal.
	if !got[1].WeeklyRate.Valid || got[1].WeeklyRate.Value != 0 {
		t.Errorf("record 1 rate = %+v, want valid zero", got[1].WeeklyRate)
	}
	if got[2].WeeklyRate.Valid {
		t.Errorf("record 2 rate = %+v, want sentinel", got[2].WeeklyRate)
	}
	if got[1].WeeklyRate == got[2].WeeklyRate {
		t.Error("sentinel rate is indistinguishable from a zero rate")
	}
}

func TestReconstruct_SameDayDuplicatesShareEMA(t *testing.T) {
	got := Reconstruct(obs(t,
		"2024-01-01", 80.0,
		"2024-01-05", 79.0,
		"2024-01-05", 78.0,
	))
	if got[1].EMA7 != got[2].EMA7 || got[1].EMA30 != got[2].EMA30 {
		t.Errorf("duplicates have different emas: %+v vs %+v", got[1], got[2])
	}
	if got[2].Change != -1.0 {
		t.Errorf("duplicate change = %v, want -1", got[2].Change)
	}

	// The daily series uses the last value for the day.
	want := Reconstruct(obs(t, "2024-01-01", 80.0, "2024-01-05", 78.0))
	if !approx(got[2].EMA7, want[1].EMA7) {
		t.Errorf("ema7 = %v, want %v", got[2].EMA7, want[1].EMA7)
	}
}

func TestReconstruct_SortsWithoutMutatingInput(t *testing.T) {
	input := obs(t, "2024-01-08", 79.0, "2024-01-01", 80.0)
	got := Reconstruct(input)

	if input[0].Value != 79.0 {
		t.Errorf("input was reordered: %+v", input)
	}
	if got[0].Value != 80.0 || got[1].Value != 79.0 {
		t.Errorf("values = [%v %v], want [80 79]", got[0].Value, got[1].Value)
	}
}

func TestReconstruct_OffsetsNonDecreasing(t *testing.T) {
	got := Reconstruct(obs(t,
		"2024-01-03", 81.0,
		"2024-01-01", 82.0,
		"2024-01-03", 80.5,
		"2024-02-10", 79.0,
		"2024-01-20", 80.0,
	))
	if got[0].DayOffset != 0 {
		t.Errorf("first offset = %d, want 0", got[0].DayOffset)
	}
	for i := 1; i < len(got); i++ {
		if got[i].DayOffset < got[i-1].DayOffset {
			t.Errorf("offset %d = %d < previous %d", i, got[i].DayOffset, got[i-1].DayOffset)
		}
	}
}

func TestReconstruct_ConstantSeries(t *testing.T) {
	got := Reconstruct(obs(t,
		"2024-01-01", 75.0,
		"2024-01-04", 75.0,
		"2024-02-15", 75.0,
	))
	for i, r := range got {
		if r.EMA7 != 75.0 || r.EMA30 != 75.0 {
			t.Errorf("record %d emas = (%v, %v), want 75", i, r.EMA7, r.EMA30)
		}
	}
}

func TestRecent(t *testing.T) {
	records := Reconstruct(obs(t,
		"2024-01-01", 82.0,
		"2024-02-01", 81.0,
		"2024-03-01", 80.0,
		"2024-03-30", 79.0,
	))

	tests := []struct {
		name string
		days int
		want int
	}{
		{"zero window", 0, 0},
		{"one day", 1, 1},
		{"thirty days", 30, 2},
		{"sixty days", 60, 3},
		{"longer than history", 365, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Recent(records, tt.days); len(got) != tt.want {
				t.Errorf("len(Recent(%d)) = %d, want %d", tt.days, len(got), tt.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	if got := Summarize(nil); got.Count != 0 {
		t.Errorf("Summarize(nil).Count = %d, want 0", got.Count)
	}

	s := Summarize(Reconstruct(obs(t,
		"2024-01-01", 82.0,
		"2024-01-08", 83.0,
		"2024-01-15", 80.0,
	)))
	if s.Count != 3 {
		t.Errorf("Count = %d, want 3", s.Count)
	}
	if s.Min != 80.0 || s.Max != 83.0 {
		t.Errorf("Min/Max = %v/%v, want 80/83", s.Min, s.Max)
	}
	if s.TotalChange != -2.0 {
		t.Errorf("TotalChange = %v, want -2", s.TotalChange)
	}
	if s.SpanDays != 14 {
		t.Errorf("SpanDays = %d, want 14", s.SpanDays)
	}
	if !s.AvgWeeklyRate.Valid || !approx(s.AvgWeeklyRate.Value, -1.0) {
		t.Errorf("AvgWeeklyRate = %+v, want -1", s.AvgWeeklyRate)
	}

	single := Summarize(Reconstruct(obs(t, "2024-01-01", 82.0)))
	if single.AvgWeeklyRate.Valid {
		t.Errorf("single AvgWeeklyRate = %+v, want sentinel", single.AvgWeeklyRate)
	}
}
