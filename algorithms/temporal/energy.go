package temporal

import (
	"math"
)

// Energy computes frame-based energy envelopes
type Energy struct {
	frameSize  int
	hopSize    int
	sampleRate int
}

// NewEnergy creates a new energy calculator
func NewEnergy(frameSize, hopSize, sampleRate int) *Energy {
	return &Energy{
		frameSize:  frameSize,
		hopSize:    hopSize,
		sampleRate: sampleRate,
	}
}

// NewEnergyForDuration sizes frames and hops in seconds
func NewEnergyForDuration(frameSeconds, hopSeconds float64, sampleRate int) *Energy {
	frameSize := max(1, int(frameSeconds*float64(sampleRate)))
	hopSize := max(1, int(hopSeconds*float64(sampleRate)))
	return NewEnergy(frameSize, hopSize, sampleRate)
}

// FrameSeconds returns the time step between consecutive frames
func (e *Energy) FrameSeconds() float64 {
	if e.sampleRate <= 0 {
		return 0
	}
	return float64(e.hopSize) / float64(e.sampleRate)
}

// ComputeShortTimeEnergy calculates RMS energy for overlapping frames
func (e *Energy) ComputeShortTimeEnergy(signal []float64) []float64 {
	if len(signal) < e.frameSize || e.hopSize <= 0 || e.frameSize <= 0 {
		return []float64{}
	}

	numFrames := (len(signal)-e.frameSize)/e.hopSize + 1
	energies := make([]float64, numFrames)

	for i := range numFrames {
		startIdx := i * e.hopSize
		endIdx := startIdx + e.frameSize

		sumSquares := 0.0
		for j := startIdx; j < endIdx; j++ {
			sumSquares += signal[j] * signal[j]
		}
		energies[i] = math.Sqrt(sumSquares / float64(e.frameSize))
	}

	return energies
}

// ComputeLogEnergy calculates log energy in dB scale
func (e *Energy) ComputeLogEnergy(signal []float64, floor float64) []float64 {
	energies := e.ComputeShortTimeEnergy(signal)
	logEnergies := make([]float64, len(energies))

	for i, energy := range energies {
		if energy < floor {
			energy = floor
		}
		logEnergies[i] = 20.0 * math.Log10(energy)
	}

	return logEnergies
}

// Downsample decimates a signal longer than maxPoints by keeping every
// len/maxPoints-th sample. The integer step means the result can exceed
// maxPoints by less than a factor of two. It returns the kept samples and
// their source indices.
func Downsample(signal []float64, maxPoints int) ([]float64, []int) {
	if len(signal) == 0 || maxPoints <= 0 {
		return []float64{}, []int{}
	}

	step := 1
	if len(signal) > maxPoints {
		step = max(1, len(signal)/maxPoints)
	}

	n := (len(signal) + step - 1) / step
	values := make([]float64, 0, n)
	indices := make([]int, 0, n)
	for i := 0; i < len(signal); i += step {
		values = append(values, signal[i])
		indices = append(indices, i)
	}

	return values, indices
}
