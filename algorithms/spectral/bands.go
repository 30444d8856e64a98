package spectral

import (
	"math"
)

// BandSums holds summed spectral magnitude for three frequency bands that
// partition the spectrum.
type BandSums struct {
	Low   float64 `json:"low"`
	Mid   float64 `json:"mid"`
	High  float64 `json:"high"`
	Total float64 `json:"total"`
}

// SumBands adds up magnitude (not power) over every frame, splitting bins
// into f < lowCut, lowCut <= f < highCut and f >= highCut. magnitude is
// Time x Frequency and freqs gives the frequency of each bin.
func SumBands(magnitude [][]float64, freqs []float64, lowCut, highCut float64) BandSums {
	var sums BandSums

	for _, frame := range magnitude {
		for k, mag := range frame {
			if k >= len(freqs) {
				break
			}
			switch f := freqs[k]; {
			case f < lowCut:
				sums.Low += mag
			case f < highCut:
				sums.Mid += mag
			default:
				sums.High += mag
			}
			sums.Total += mag
		}
	}

	return sums
}

// Ratios divides each band by total+epsilon. A silent spectrum yields zeros.
func (b BandSums) Ratios(epsilon float64) (low, mid, high float64) {
	denom := b.Total + epsilon
	if denom <= 0 {
		return 0, 0, 0
	}
	return b.Low / denom, b.Mid / denom, b.High / denom
}

// LogMagnitude converts a Time x Frequency magnitude matrix into a
// Frequency x Time matrix of 20*log10(mag+floor) values, the layout used by
// heatmap plots. It also returns the min and max dB values.
func LogMagnitude(magnitude [][]float64, floor float64) (db [][]float64, minDB, maxDB float64) {
	if len(magnitude) == 0 || len(magnitude[0]) == 0 {
		return [][]float64{}, 0, 0
	}

	frames := len(magnitude)
	bins := len(magnitude[0])

	minDB = math.Inf(1)
	maxDB = math.Inf(-1)

	db = make([][]float64, bins)
	for k := range bins {
		db[k] = make([]float64, frames)
		for t := range frames {
			v := 20.0 * math.Log10(magnitude[t][k]+floor)
			db[k][t] = v
			minDB = math.Min(minDB, v)
			maxDB = math.Max(maxDB, v)
		}
	}

	return db, minDB, maxDB
}
