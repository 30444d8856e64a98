package spectral

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// FFT provides Fast Fourier Transform functionality
type FFT struct{}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the Fast Fourier Transform using mjibson/go-dsp.
// go-dsp handles all sizes, including non-power-of-2 lengths.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}

	return fft.FFTReal(x)
}

// Magnitudes returns |X[k]| for the non-negative frequency bins of a real
// signal, i.e. the first len(x)/2+1 coefficients.
func (f *FFT) Magnitudes(x []float64) []float64 {
	if len(x) == 0 {
		return []float64{}
	}

	coeffs := f.Compute(x)
	bins := len(x)/2 + 1
	mags := make([]float64, bins)
	for k := range bins {
		mags[k] = cmplx.Abs(coeffs[k])
	}
	return mags
}

// BinFrequencies returns the centre frequency in Hz of every real-FFT bin
// for a transform of length n, matching numpy.fft.rfftfreq.
func BinFrequencies(n, sampleRate int) []float64 {
	if n <= 0 || sampleRate <= 0 {
		return []float64{}
	}

	plan := fourier.NewFFT(n)
	bins := n/2 + 1
	freqs := make([]float64, bins)
	for k := range bins {
		freqs[k] = plan.Freq(k) * float64(sampleRate)
	}
	return freqs
}
