// Package coach analyses a short speech recording and turns it into
// coaching feedback: signal metrics, trait evaluation, rule-based advice,
// plot data with explanations and an episode recommendation.
package coach

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-coach/coach/analyzers"
	"github.com/RyanBlaney/sonido-coach/coach/cache"
	"github.com/RyanBlaney/sonido-coach/coach/config"
	"github.com/RyanBlaney/sonido-coach/coach/enrich"
	"github.com/RyanBlaney/sonido-coach/coach/extractors"
	"github.com/RyanBlaney/sonido-coach/coach/feedback"
	"github.com/RyanBlaney/sonido-coach/coach/recommend"
	"github.com/RyanBlaney/sonido-coach/coach/rules"
	"github.com/RyanBlaney/sonido-coach/coach/traits"
	"github.com/RyanBlaney/sonido-coach/logging"
)

// Radar is the radar chart series in canonical trait order
type Radar struct {
	Labels []string  `json:"labels"`
	Values []float64 `json:"values"`
}

// Visualization holds the plot payloads
type Visualization struct {
	Waveform    analyzers.Waveform     `json:"waveform"`
	Radar       Radar                  `json:"radar"`
	Spectrogram *analyzers.Spectrogram `json:"spectrogram"`
}

// AnalysisResult is everything one analysis produces
type AnalysisResult struct {
	ID         string                  `json:"id"`
	CreatedAt  time.Time               `json:"created_at"`
	SampleRate int                     `json:"sample_rate"`
	Channels   int                     `json:"channels"`
	Duration   float64                 `json:"duration"`
	Signal     analyzers.SignalMetrics `json:"signal"`
	Thresholds analyzers.Thresholds    `json:"thresholds"`
	Bands      analyzers.BandEnergy    `json:"bands"`

	// Raw trait values from the extractor and their 0..1 radar scores
	Features   traits.Values     `json:"features"`
	Scores     traits.Values     `json:"scores"`
	Evaluation traits.Evaluation `json:"evaluation"`
	Weakest    traits.Name       `json:"weakest,omitempty"`
	Strongest  traits.Name       `json:"strongest,omitempty"`

	Feedback       feedback.Feedback         `json:"feedback"`
	Comments       feedback.GraphComments    `json:"comments"`
	Visualization  Visualization             `json:"visualization"`
	Recommendation *recommend.Recommendation `json:"recommendation,omitempty"`

	// Set when feature extraction failed
	ExtractionError string `json:"extraction_error,omitempty"`
}

// Analyzer runs the analysis pipeline. It is safe for concurrent use when
// its extractor and chooser are.
type Analyzer struct {
	config      *config.AnalysisConfig
	extractor   extractors.FeatureExtractor
	chooser     rules.Chooser
	cache       *cache.Manager
	spectral    *analyzers.SpectralAnalyzer
	composer    *feedback.Composer
	engine      *rules.Engine
	recommender *recommend.Recommender
	enricher    *enrich.Client
	logger      logging.Logger
}

// NewAnalyzer creates an analyzer. A nil config uses the defaults. The
// extractor is built from config unless WithExtractor is given.
func NewAnalyzer(cfg *config.AnalysisConfig, opts ...Option) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.DefaultAnalysisConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis config: %w", err)
	}

	a := &Analyzer{config: cfg}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = logging.WithFields(logging.Fields{
			"component": "coach_analyzer",
		})
	}
	if a.extractor == nil {
		ex, err := extractors.New(cfg.Extractor, cfg.Spectral)
		if err != nil {
			return nil, err
		}
		a.extractor = ex
	}
	if a.chooser == nil {
		seed := cfg.Extractor.Seed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		a.chooser = rules.NewLockedChooser(rand.New(rand.NewSource(seed)))
	}
	if a.cache == nil {
		a.cache = cache.NewManager(nil)
	}

	a.spectral = analyzers.NewSpectralAnalyzer(cfg.Spectral)
	a.composer = feedback.NewComposer(cfg)
	a.engine = rules.NewEngine(a.cache, cfg.TemplatesPath, a.chooser, cfg.Feedback.DefaultHeading)
	a.recommender = recommend.NewRecommender(a.cache, cfg.EpisodesPath, a.chooser, cfg)
	a.enricher = enrich.NewClient(cfg.Enrichment)

	a.logger.Debug("Analyzer created", logging.Fields{
		"extractor": a.extractor.Name(),
		"templates": cfg.TemplatesPath,
		"episodes":  cfg.EpisodesPath,
	})
	return a, nil
}

// Config returns the analyzer's configuration
func (a *Analyzer) Config() *config.AnalysisConfig {
	return a.config
}

// Analyze runs the whole pipeline on buf. It never fails: degenerate input
// yields zero metrics and a failed extraction yields zero features with a
// "could not analyse" overall line.
func (a *Analyzer) Analyze(buf analyzers.AudioBuffer) *AnalysisResult {
	start := time.Now()
	cfg := a.config

	prep := analyzers.PrepareForAnalysis(buf, cfg.Signal)
	result := &AnalysisResult{
		ID:         uuid.New().String(),
		CreatedAt:  start,
		SampleRate: buf.SampleRate,
		Channels:   buf.Channels,
		Duration:   prep.Duration,
		Signal:     prep.Metrics,
		Thresholds: prep.Thresholds,
	}

	logger := a.logger.WithFields(logging.Fields{
		"function":    "Analyze",
		"analysis_id": result.ID,
	})

	window := analyzers.FeatureWindow(prep.Signal, prep.SampleRate, cfg.Signal.FeatureWindowSeconds)
	features, extractErr := a.extractor.Extract(window, prep.SampleRate)
	if extractErr != nil {
		logger.Warn("Feature extraction failed, continuing with zero features", logging.Fields{
			"error": extractErr.Error(),
		})
		result.ExtractionError = extractErr.Error()
		features = zeroValues()
		result.Evaluation = traits.Evaluation{}
	} else {
		result.Evaluation = traits.Evaluate(features, cfg.Ranges())
	}
	result.Features = features
	result.Scores = traits.RadarScores(features, cfg.RadarScales())
	if n, ok := traits.Weakest(result.Scores); ok {
		result.Weakest = n
	}
	if n, ok := traits.Strongest(result.Scores); ok {
		result.Strongest = n
	}

	spec, bands := a.spectral.Analyze(prep.Signal, prep.SampleRate)
	result.Bands = bands

	env := rules.Merge(prep.Metrics.Env(), bands.Env(), map[string]float64{"duration": prep.Duration})
	sections := a.engine.Render(env)

	if extractErr != nil {
		result.Feedback = a.composer.Failed(extractErr)
		result.Feedback.Sections = sections
	} else {
		result.Feedback = a.composer.Compose(result.Evaluation, sections)
	}

	result.Comments = a.composer.GraphComments(feedback.CommentInput{
		Metrics:  prep.Metrics,
		Scores:   result.Scores,
		Bands:    bands,
		Duration: prep.Duration,
	})

	if rec, ok := a.recommender.Pick(result.Scores, prep.Metrics.DBFS); ok {
		result.Recommendation = rec
	}

	result.Visualization = Visualization{
		Waveform:    analyzers.NewWaveform(prep.Signal, cfg.Visualization.MaxWaveformPoints),
		Radar:       a.radar(result.Scores),
		Spectrogram: spec,
	}

	logger.Info("Analysis complete", logging.Fields{
		"duration":      prep.Duration,
		"dbfs":          prep.Metrics.DBFS,
		"score":         result.Feedback.Score,
		"rule_sections": len(sections),
		"elapsed_ms":    time.Since(start).Milliseconds(),
	})
	return result
}

// Enrich asks the configured chat-completions endpoint for extra tips on
// result and returns them as a Markdown section, or "" when enrichment is
// disabled or fails. The result is not modified.
func (a *Analyzer) Enrich(ctx context.Context, result *AnalysisResult) string {
	if result == nil || !a.enricher.Enabled() {
		return ""
	}
	ctx = logging.ContextWithFields(ctx, logging.Fields{"analysis_id": result.ID})
	text := a.enricher.Advise(ctx, enrich.NewPayload(result.Signal, result.Thresholds))
	return enrich.Section(text)
}

// InvalidateCaches drops the cached templates and episode catalogue
func (a *Analyzer) InvalidateCaches() {
	a.cache.InvalidateAll()
}

func (a *Analyzer) radar(scores traits.Values) Radar {
	labels := make([]string, len(traits.Order))
	for i, n := range traits.Order {
		labels[i] = a.config.Label(n)
	}
	return Radar{Labels: labels, Values: scores.Slice()}
}

func zeroValues() traits.Values {
	v := make(traits.Values, len(traits.Order))
	for _, n := range traits.Order {
		v[n] = 0
	}
	return v
}
