package bias

import "math"

// mean returns the arithmetic mean of values; 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

// stdDev returns the population standard deviation of values; 0 for fewer than two values.
func stdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}

	m := mean(values)

	var sumSquares float64
	for _, v := range values {
		d := v - m
		sumSquares += d * d
	}

	return math.Sqrt(sumSquares / float64(len(values)))
}

// clampConfidence bounds a confidence value into [0, max].
func clampConfidence(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}

	return v
}
