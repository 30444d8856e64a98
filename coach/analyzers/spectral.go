package analyzers

import (
	"github.com/RyanBlaney/sonido-coach/algorithms/spectral"
	"github.com/RyanBlaney/sonido-coach/algorithms/temporal"
	"github.com/RyanBlaney/sonido-coach/algorithms/windowing"
	"github.com/RyanBlaney/sonido-coach/coach/config"
	"github.com/RyanBlaney/sonido-coach/logging"
)

// Spectrogram is log-magnitude heatmap data laid out Frequency x Time
type Spectrogram struct {
	Times []float64   `json:"times"`
	Freqs []float64   `json:"freqs"`
	DB    [][]float64 `json:"db"`
	MinDB float64     `json:"min_db"`
	MaxDB float64     `json:"max_db"`
}

// BandEnergy is the share of spectral magnitude in the low, mid and high
// bands. The ratios sum to ~1 for any non-silent input.
type BandEnergy struct {
	Duration  float64 `json:"duration"`
	RatioLow  float64 `json:"ratio_low"`
	RatioMid  float64 `json:"ratio_mid"`
	RatioHigh float64 `json:"ratio_high"`
}

// Env returns the band energy keyed by the names rule expressions use
func (b BandEnergy) Env() map[string]float64 {
	return map[string]float64{
		"duration":   b.Duration,
		"ratio_low":  b.RatioLow,
		"ratio_mid":  b.RatioMid,
		"ratio_high": b.RatioHigh,
	}
}

// Waveform is a decimated signal for plotting
type Waveform struct {
	X []int     `json:"x"`
	Y []float64 `json:"y"`
}

// SpectralAnalyzer computes the spectrogram and band energy of a signal
type SpectralAnalyzer struct {
	config config.SpectralConfig
	stft   *spectral.STFT
	window *windowing.Hann
	logger logging.Logger
}

// NewSpectralAnalyzer creates a new spectral analyzer
func NewSpectralAnalyzer(cfg config.SpectralConfig) *SpectralAnalyzer {
	return &SpectralAnalyzer{
		config: cfg,
		stft:   spectral.NewSTFT(),
		window: windowing.NewHann(cfg.WindowSize),
		logger: logging.WithFields(logging.Fields{
			"component": "spectral_analyzer",
		}),
	}
}

// Analyze runs one STFT and derives both the spectrogram and band energy.
// Empty input or a non-positive sample rate yields zero structures.
func (sa *SpectralAnalyzer) Analyze(signal []float64, sampleRate int) (*Spectrogram, BandEnergy) {
	result, duration := sa.transform(signal, sampleRate)
	if result == nil {
		return emptySpectrogram(), BandEnergy{}
	}

	freqs := spectral.BinFrequencies(sa.config.WindowSize, sampleRate)
	return sa.spectrogram(result, freqs), sa.bandEnergy(result, freqs, duration)
}

// ComputeSpectrogram returns log-magnitude heatmap data for the first
// MaxSeconds of the signal
func (sa *SpectralAnalyzer) ComputeSpectrogram(signal []float64, sampleRate int) *Spectrogram {
	spec, _ := sa.Analyze(signal, sampleRate)
	return spec
}

// ComputeBandEnergy returns the low/mid/high magnitude ratios for the first
// MaxSeconds of the signal
func (sa *SpectralAnalyzer) ComputeBandEnergy(signal []float64, sampleRate int) BandEnergy {
	_, bands := sa.Analyze(signal, sampleRate)
	return bands
}

func (sa *SpectralAnalyzer) transform(signal []float64, sampleRate int) (*spectral.STFTResult, float64) {
	if len(signal) == 0 || sampleRate <= 0 {
		return nil, 0
	}

	x := signal
	if limit := int(sa.config.MaxSeconds * float64(sampleRate)); limit > 0 && len(x) > limit {
		x = x[:limit]
	}

	result, err := sa.stft.ComputeWithWindow(x, sa.config.WindowSize, sa.config.HopSize, sampleRate, sa.window)
	if err != nil {
		sa.logger.Warn("STFT failed, returning empty spectrum", logging.Fields{
			"error":       err.Error(),
			"samples":     len(x),
			"sample_rate": sampleRate,
		})
		return nil, 0
	}

	sa.logger.Debug("STFT computed", logging.Fields{
		"frames": result.TimeFrames,
		"bins":   result.FreqBins,
	})

	return result, float64(len(x)) / float64(sampleRate)
}

func (sa *SpectralAnalyzer) spectrogram(result *spectral.STFTResult, freqs []float64) *Spectrogram {
	db, minDB, maxDB := spectral.LogMagnitude(result.Magnitude, sa.config.LogFloor)

	times := make([]float64, result.TimeFrames)
	for i := range times {
		times[i] = float64(i) * result.TimeResolution
	}

	return &Spectrogram{
		Times: times,
		Freqs: freqs,
		DB:    db,
		MinDB: minDB,
		MaxDB: maxDB,
	}
}

func (sa *SpectralAnalyzer) bandEnergy(result *spectral.STFTResult, freqs []float64, duration float64) BandEnergy {
	sums := spectral.SumBands(result.Magnitude, freqs, sa.config.LowCutoff, sa.config.HighCutoff)
	low, mid, high := sums.Ratios(rmsEpsilon)

	return BandEnergy{
		Duration:  duration,
		RatioLow:  low,
		RatioMid:  mid,
		RatioHigh: high,
	}
}

func emptySpectrogram() *Spectrogram {
	return &Spectrogram{
		Times: []float64{},
		Freqs: []float64{},
		DB:    [][]float64{},
	}
}

// NewWaveform decimates a signal to roughly maxPoints for plotting. An empty
// signal is drawn as a single zero sample.
func NewWaveform(signal []float64, maxPoints int) Waveform {
	if len(signal) == 0 {
		return Waveform{X: []int{0}, Y: []float64{0}}
	}

	y, _ := temporal.Downsample(signal, maxPoints)
	x := make([]int, len(y))
	for i := range x {
		x[i] = i
	}
	return Waveform{X: x, Y: y}
}
