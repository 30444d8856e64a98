package tonal

import (
	"math"

	"github.com/RyanBlaney/sonido-coach/algorithms/common"
)

// PitchParams configures the autocorrelation pitch tracker
type PitchParams struct {
	SampleRate int     `json:"sample_rate"`
	FrameSize  int     `json:"frame_size"`
	HopSize    int     `json:"hop_size"`
	MinFreq    float64 `json:"min_freq"`
	MaxFreq    float64 `json:"max_freq"`
	// Normalised autocorrelation a peak must exceed to count as voiced
	VoicingThreshold float64 `json:"voicing_threshold"`
	// Frames quieter than this RMS are skipped as silence
	MinRMS float64 `json:"min_rms"`
}

// DefaultPitchParams returns speech-oriented defaults (40 ms frames, 10 ms hop)
func DefaultPitchParams(sampleRate int) PitchParams {
	return PitchParams{
		SampleRate:       sampleRate,
		FrameSize:        int(0.04 * float64(sampleRate)),
		HopSize:          int(0.01 * float64(sampleRate)),
		MinFreq:          75,
		MaxFreq:          400,
		VoicingThreshold: 0.3,
		MinRMS:           0.01,
	}
}

// PitchTracker estimates the fundamental frequency frame by frame
type PitchTracker struct {
	params PitchParams
}

// NewPitchTracker creates a new pitch tracker
func NewPitchTracker(params PitchParams) *PitchTracker {
	return &PitchTracker{params: params}
}

// Track returns one pitch estimate in Hz per frame, 0 for unvoiced frames
func (pt *PitchTracker) Track(signal []float64) []float64 {
	p := pt.params
	if p.SampleRate <= 0 || p.FrameSize <= 0 || p.HopSize <= 0 || len(signal) < p.FrameSize {
		return []float64{}
	}

	numFrames := (len(signal)-p.FrameSize)/p.HopSize + 1
	track := make([]float64, numFrames)

	for i := range numFrames {
		start := i * p.HopSize
		frame := signal[start : start+p.FrameSize]
		if common.RMS(frame) < p.MinRMS {
			continue
		}
		track[i] = pt.detectFrame(frame)
	}

	return track
}

// detectFrame picks the strongest normalised autocorrelation peak within the
// allowed lag range and refines it with parabolic interpolation
func (pt *PitchTracker) detectFrame(frame []float64) float64 {
	p := pt.params

	minLag := max(1, int(float64(p.SampleRate)/p.MaxFreq))
	maxLag := min(len(frame)-2, int(float64(p.SampleRate)/p.MinFreq))
	if minLag >= maxLag {
		return 0
	}

	energy := 0.0
	for _, v := range frame {
		energy += v * v
	}
	if energy == 0 {
		return 0
	}

	acf := make([]float64, maxLag+2)
	for lag := minLag - 1; lag <= maxLag+1; lag++ {
		if lag < 0 {
			continue
		}
		sum := 0.0
		for j := 0; j+lag < len(frame); j++ {
			sum += frame[j] * frame[j+lag]
		}
		acf[lag] = sum / energy
	}

	bestLag := 0
	bestCorr := p.VoicingThreshold
	for lag := minLag; lag <= maxLag; lag++ {
		if acf[lag] > acf[lag-1] && acf[lag] >= acf[lag+1] && acf[lag] > bestCorr {
			bestLag = lag
			bestCorr = acf[lag]
		}
	}
	if bestLag == 0 {
		return 0
	}

	refined := parabolicInterpolation(acf, bestLag)
	if refined <= 0 {
		return 0
	}
	return float64(p.SampleRate) / refined
}

func parabolicInterpolation(data []float64, peakIdx int) float64 {
	if peakIdx <= 0 || peakIdx >= len(data)-1 {
		return float64(peakIdx)
	}

	y1 := data[peakIdx-1]
	y2 := data[peakIdx]
	y3 := data[peakIdx+1]

	a := (y1 - 2*y2 + y3) / 2
	b := (y3 - y1) / 2
	if a == 0 {
		return float64(peakIdx)
	}

	return float64(peakIdx) - b/(2*a)
}

// SemitoneSpread returns the standard deviation, in semitones, of the voiced
// frames of a pitch track relative to their median. Fewer than two voiced
// frames give 0.
func SemitoneSpread(track []float64) float64 {
	voiced := make([]float64, 0, len(track))
	for _, f := range track {
		if f > 0 {
			voiced = append(voiced, f)
		}
	}
	if len(voiced) < 2 {
		return 0
	}

	ref := common.Median(voiced)
	semitones := make([]float64, len(voiced))
	for i, f := range voiced {
		semitones[i] = 12 * math.Log2(f/ref)
	}

	return common.StandardDeviation(semitones)
}
