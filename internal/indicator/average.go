// Package indicator smooths short market price series.
package indicator

// SMA returns the simple moving averages of series over period.
// The result has len(series)-period+1 values, or none when series is short.
func SMA(series []float64, period int) []float64 {
	if period <= 0 || len(series) < period {
		return nil
	}

	out := make([]float64, 0, len(series)-period+1)
	var sum float64
	for i := 0; i < period; i++ {
		sum += series[i]
	}
	out = append(out, sum/float64(period))

	for i := period; i < len(series); i++ {
		sum += series[i] - series[i-period]
		out = append(out, sum/float64(period))
	}
	return out
}

// EMA returns the exponential moving averages of series over period,
// seeded with the SMA of the first period values.
func EMA(series []float64, period int) []float64 {
	seed := SMA(series[:min(period, len(series))], period)
	if len(seed) == 0 || len(series) < period {
		return nil
	}

	out := make([]float64, 0, len(series)-period+1)
	k := 2.0 / float64(period+1)
	ema := seed[0]
	out = append(out, ema)
	for _, p := range series[period:] {
		ema += (p - ema) * k
		out = append(out, ema)
	}
	return out
}

// Anchor is the latest EMA over half the series, the level a trend is
// measured against. ok is false for series shorter than two points.
func Anchor(series []float64) (level float64, ok bool) {
	if len(series) < 2 {
		return 0, false
	}
	ema := EMA(series, max(2, len(series)/2))
	if len(ema) == 0 {
		return 0, false
	}
	return ema[len(ema)-1], true
}
