package filters

import "math"

// DCBlocker is a one-pole DC blocking high-pass filter:
//
//	y[n] = x[n] - x[n-1] + R*y[n-1]
//
// See J. O. Smith, "Introduction to Digital Filters", DC Blocker.
// Cheap microphones often add a constant offset that would otherwise
// bias frame energies and the autocorrelation used for pitch.
type DCBlocker struct {
	pole float64

	x1 float64
	y1 float64
}

// NewDCBlocker creates a DC blocker with the given -3 dB cutoff.
// The pole is R = 1 - 2*pi*fc/fs, kept within [0.9, 0.9999].
func NewDCBlocker(sampleRate int, cutoffHz float64) *DCBlocker {
	pole := 0.995
	if sampleRate > 0 && cutoffHz > 0 {
		pole = 1 - 2*math.Pi*cutoffHz/float64(sampleRate)
	}
	return &DCBlocker{pole: min(max(pole, 0.9), 0.9999)}
}

// Pole returns R
func (d *DCBlocker) Pole() float64 {
	return d.pole
}

// Reset clears the filter state
func (d *DCBlocker) Reset() {
	d.x1 = 0
	d.y1 = 0
}

// Process filters a whole signal into a new slice. The state is primed
// with the first sample so a constant input produces no start-up step.
func (d *DCBlocker) Process(signal []float64) []float64 {
	out := make([]float64, len(signal))
	if len(signal) == 0 {
		return out
	}

	d.x1 = signal[0]
	d.y1 = 0
	for i, x := range signal {
		out[i] = d.Step(x)
	}
	return out
}

// Step filters one sample
func (d *DCBlocker) Step(x float64) float64 {
	y := x - d.x1 + d.pole*d.y1
	d.x1 = x
	d.y1 = y
	return y
}
