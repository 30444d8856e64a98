package common

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Statistical helpers shared by the analyzers. All of them accept empty
// input and return 0 rather than NaN.

// Mean calculates the arithmetic mean of a slice using gonum
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// StandardDeviation calculates the sample standard deviation using gonum
func StandardDeviation(data []float64) float64 {
	if len(data) < 2 {
		return 0.0
	}
	return stat.StdDev(data, nil)
}

// Percentile calculates the p-th percentile (p between 0 and 1)
func Percentile(data []float64, p float64) float64 {
	if len(data) == 0 || p < 0 || p > 1 {
		return 0.0
	}

	sorted := make([]float64, len(data))
	copy(sorted, data)
	sort.Float64s(sorted)

	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// Median returns the middle value, averaging the two central values for
// even lengths.
func Median(data []float64) float64 {
	n := len(data)
	if n == 0 {
		return 0.0
	}

	sorted := make([]float64, n)
	copy(sorted, data)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2.0
}

// RMS calculates root mean square
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Sqrt(floats.Dot(data, data) / float64(len(data)))
}

// Peak returns the maximum absolute value
func Peak(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return math.Max(math.Abs(floats.Max(data)), math.Abs(floats.Min(data)))
}

// Sanitize returns a copy of data with NaN and ±Inf replaced by zero
func Sanitize(data []float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = v
	}
	return out
}

// Scale returns a copy of data multiplied by factor
func Scale(data []float64, factor float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	floats.Scale(factor, out)
	return out
}

// FractionAbove returns the fraction of samples with |x| > threshold
func FractionAbove(data []float64, threshold float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	count := 0
	for _, v := range data {
		if math.Abs(v) > threshold {
			count++
		}
	}
	return float64(count) / float64(len(data))
}

// FractionBelow returns the fraction of samples with |x| < threshold
func FractionBelow(data []float64, threshold float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	count := 0
	for _, v := range data {
		if math.Abs(v) < threshold {
			count++
		}
	}
	return float64(count) / float64(len(data))
}

// FindPeaks returns indices of local maxima at least minHeight tall and at
// least minDistance apart. When two peaks are closer, the taller one wins.
func FindPeaks(data []float64, minHeight float64, minDistance int) []int {
	if len(data) < 3 {
		return []int{}
	}

	peaks := []int{}
	for i := 1; i < len(data)-1; i++ {
		if data[i] <= data[i-1] || data[i] < data[i+1] || data[i] < minHeight {
			continue
		}

		if n := len(peaks); n > 0 && i-peaks[n-1] < minDistance {
			if data[i] > data[peaks[n-1]] {
				peaks[n-1] = i
			}
			continue
		}
		peaks = append(peaks, i)
	}

	return peaks
}

// Clamp constrains a value to a range
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// IsFinite reports whether v is neither NaN nor infinite
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
