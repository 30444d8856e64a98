package extractors

import (
	"errors"
	"fmt"

	"github.com/RyanBlaney/sonido-coach/coach/config"
	"github.com/RyanBlaney/sonido-coach/coach/traits"
	"github.com/RyanBlaney/sonido-coach/logging"
)

// ErrEmptySignal is returned when there is no audio to extract from
var ErrEmptySignal = errors.New("empty signal")

// FeatureExtractor turns a mono signal into one raw value per voice trait
type FeatureExtractor interface {
	Extract(samples []float64, sampleRate int) (traits.Values, error)
	Name() string
}

// New creates the extractor selected by cfg.Kind
func New(cfg config.ExtractorConfig, spectralCfg config.SpectralConfig) (FeatureExtractor, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "feature_extractor_factory",
		"kind":      cfg.Kind,
	})

	switch cfg.Kind {
	case config.ExtractorSynthetic, "":
		logger.Debug("Creating synthetic feature extractor")
		return NewSyntheticExtractor(cfg.Seed), nil

	case config.ExtractorAcoustic:
		logger.Debug("Creating acoustic feature extractor")
		return NewAcousticExtractor(DefaultAcousticParams(cfg.LoudnessOffset), spectralCfg), nil

	default:
		return nil, fmt.Errorf("unknown extractor kind %q", cfg.Kind)
	}
}
