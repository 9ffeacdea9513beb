package trend

const (
	ShortSpan = 7
	LongSpan  = 30
)

// Alpha returns the smoothing factor for an EMA of the given span.
func Alpha(span int) float64 {
	return 2.0 / (float64(span) + 1.0)
}

// EMA runs the exponential moving average over a daily series. The first
// value seeds the average, so there is no warm-up bias.
func EMA(values []float64, span int) []float64 {
	if len(values) == 0 {
		return nil
	}

	alpha := Alpha(span)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = out[i-1] + alpha*(values[i]-out[i-1])
	}
	return out
}

// StepEMA advances ema across a gap of interval days between two
// observations, applying one daily update per day with the linearly
// interpolated value for that day. An interval of zero leaves ema unchanged.
func StepEMA(span int, prev, now float64, interval int, ema float64) float64 {
	alpha := Alpha(span)
	for i := 1; i <= interval; i++ {
		v := prev + (now-prev)*float64(i)/float64(interval)
		ema += alpha * (v - ema)
	}
	return ema
}
