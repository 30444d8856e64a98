package extractors

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-coach/algorithms/common"
	"github.com/RyanBlaney/sonido-coach/algorithms/filters"
	"github.com/RyanBlaney/sonido-coach/algorithms/temporal"
	"github.com/RyanBlaney/sonido-coach/algorithms/tonal"
	"github.com/RyanBlaney/sonido-coach/coach/analyzers"
	"github.com/RyanBlaney/sonido-coach/coach/config"
	"github.com/RyanBlaney/sonido-coach/coach/traits"
	"github.com/RyanBlaney/sonido-coach/logging"
)

// AcousticParams tunes the heuristic acoustic extractor
type AcousticParams struct {
	FrameSeconds float64 `json:"frame_seconds"`
	HopSeconds   float64 `json:"hop_seconds"`
	DCCutoffHz   float64 `json:"dc_cutoff_hz"`

	// Voicing threshold is the larger of MinVoicedRMS and RelativeThreshold
	// times the 95th percentile of the energy envelope
	MinVoicedRMS      float64 `json:"min_voiced_rms"`
	RelativeThreshold float64 `json:"relative_threshold"`

	MinSyllableSeconds float64 `json:"min_syllable_seconds"`
	MinPauseSeconds    float64 `json:"min_pause_seconds"`
	SyllablesPerWord   float64 `json:"syllables_per_word"`

	// Semitone spread that maps to an intonation value of 1
	SemitonesPerUnit float64 `json:"semitones_per_unit"`
	LoudnessOffset   float64 `json:"loudness_offset"`
	ClipLevel        float64 `json:"clip_level"`
	ClipPenalty      float64 `json:"clip_penalty"`
}

// DefaultAcousticParams returns speech-oriented defaults
func DefaultAcousticParams(loudnessOffset float64) AcousticParams {
	return AcousticParams{
		FrameSeconds:       0.025,
		HopSeconds:         0.010,
		DCCutoffHz:         20,
		MinVoicedRMS:       0.01,
		RelativeThreshold:  0.15,
		MinSyllableSeconds: 0.05,
		MinPauseSeconds:    0.15,
		SyllablesPerWord:   1.5,
		SemitonesPerUnit:   2.5,
		LoudnessOffset:     loudnessOffset,
		ClipLevel:          0.98,
		ClipPenalty:        5,
	}
}

// AcousticExtractor derives the trait values from the signal itself:
// voiced-run onsets for speed, pitch spread for intonation, level for
// loudness, speech-band share for clarity and inter-phrase gaps for pause.
type AcousticExtractor struct {
	params   AcousticParams
	spectral *analyzers.SpectralAnalyzer
	logger   logging.Logger
}

// NewAcousticExtractor creates an acoustic extractor
func NewAcousticExtractor(params AcousticParams, spectralCfg config.SpectralConfig) *AcousticExtractor {
	return &AcousticExtractor{
		params:   params,
		spectral: analyzers.NewSpectralAnalyzer(spectralCfg),
		logger: logging.WithFields(logging.Fields{
			"component": "acoustic_feature_extractor",
		}),
	}
}

func (a *AcousticExtractor) Name() string { return "acoustic" }

// Extract computes the five trait values from a mono signal
func (a *AcousticExtractor) Extract(samples []float64, sampleRate int) (traits.Values, error) {
	if len(samples) == 0 {
		return nil, ErrEmptySignal
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	p := a.params
	duration := float64(len(samples)) / float64(sampleRate)

	// Level and clipping are measured on the raw signal. Envelope, pitch and
	// bands use an offset-free copy scaled to unit peak so voicing does not
	// depend on the recording level.
	centred := filters.NewDCBlocker(sampleRate, p.DCCutoffHz).Process(samples)
	if peak := common.Peak(centred); peak > 0 {
		centred = common.Scale(centred, 1/peak)
	}

	energy := temporal.NewEnergyForDuration(p.FrameSeconds, p.HopSeconds, sampleRate)
	envelope := energy.ComputeShortTimeEnergy(centred)
	threshold := math.Max(p.MinVoicedRMS, p.RelativeThreshold*common.Percentile(envelope, 0.95))

	seg := temporal.NewSegmentation(energy.FrameSeconds())
	segments := seg.Split(envelope, threshold)

	syllables := 0
	for _, s := range segments {
		if s.Voiced && s.Duration >= p.MinSyllableSeconds {
			syllables++
		}
	}

	pitch := tonal.NewPitchTracker(tonal.DefaultPitchParams(sampleRate)).Track(centred)
	bands := a.spectral.ComputeBandEnergy(centred, sampleRate)

	rms := common.RMS(samples)
	dbfs := 20 * math.Log10(math.Max(rms, 1e-12))

	values := traits.Values{
		traits.Speed:      float64(syllables) / p.SyllablesPerWord / (duration / 60),
		traits.Intonation: tonal.SemitoneSpread(pitch) / p.SemitonesPerUnit,
		traits.Loudness:   dbfs + p.LoudnessOffset,
		traits.Clarity:    common.Clamp(bands.RatioMid-p.ClipPenalty*clipFraction(samples, p.ClipLevel), 0, 1),
		traits.Pause:      common.Mean(seg.Pauses(segments, p.MinPauseSeconds)),
	}

	a.logger.Debug("Acoustic features extracted", logging.Fields{
		"duration":  duration,
		"syllables": syllables,
		"threshold": threshold,
		"voiced":    seg.VoicedSeconds(segments),
	})

	return values, nil
}

func clipFraction(x []float64, level float64) float64 {
	if len(x) == 0 {
		return 0
	}
	n := 0
	for _, v := range x {
		if math.Abs(v) >= level {
			n++
		}
	}
	return float64(n) / float64(len(x))
}
