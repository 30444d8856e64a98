package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/RyanBlaney/sonido-coach/coach/traits"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Environment variables honoured by ApplyEnv
const (
	EnvTemplatesPath = "ADVICE_TEMPLATES_PATH"
	EnvEpisodesPath  = "VOICY_EPISODES_PATH"
	EnvAPIBase       = "MYGPT_API_BASE"
	EnvAPIKey        = "MYGPT_API_KEY"
	EnvModelID       = "MYGPT_MODEL_ID"
)

// Extractor kinds
const (
	ExtractorSynthetic = "synthetic"
	ExtractorAcoustic  = "acoustic"
)

// AnalysisConfig holds everything a single analysis needs
type AnalysisConfig struct {
	Signal        SignalConfig                `json:"signal" yaml:"signal"`
	Spectral      SpectralConfig              `json:"spectral" yaml:"spectral"`
	Traits        map[traits.Name]TraitConfig `json:"traits" yaml:"traits"`
	Feedback      FeedbackConfig              `json:"feedback" yaml:"feedback"`
	Extractor     ExtractorConfig             `json:"extractor" yaml:"extractor"`
	Enrichment    EnrichmentConfig            `json:"enrichment" yaml:"enrichment"`
	Visualization VisualizationConfig         `json:"visualization" yaml:"visualization"`

	TemplatesPath string `json:"templates_path" yaml:"templates_path"`
	EpisodesPath  string `json:"episodes_path" yaml:"episodes_path"`
}

// SignalConfig controls preprocessing and threshold derivation
type SignalConfig struct {
	ClipLevel        float64 `json:"clip_level" yaml:"clip_level"`
	SilenceThreshold float64 `json:"silence_threshold" yaml:"silence_threshold"`
	// AutoTune derives the silence threshold from the leading noise floor
	// and uses the default clip level, ignoring the two manual values above
	AutoTune             bool    `json:"auto_tune" yaml:"auto_tune"`
	NoiseProbeSeconds    float64 `json:"noise_probe_seconds" yaml:"noise_probe_seconds"`
	NoiseFloorFallback   float64 `json:"noise_floor_fallback" yaml:"noise_floor_fallback"`
	SilenceMin           float64 `json:"silence_min" yaml:"silence_min"`
	SilenceMax           float64 `json:"silence_max" yaml:"silence_max"`
	TargetPeak           float64 `json:"target_peak" yaml:"target_peak"`
	FeatureWindowSeconds float64 `json:"feature_window_seconds" yaml:"feature_window_seconds"`
}

// SpectralConfig controls the STFT used for the spectrogram and band energy
type SpectralConfig struct {
	WindowSize int     `json:"window_size" yaml:"window_size"`
	HopSize    int     `json:"hop_size" yaml:"hop_size"`
	MaxSeconds float64 `json:"max_seconds" yaml:"max_seconds"`
	LogFloor   float64 `json:"log_floor" yaml:"log_floor"`
	LowCutoff  float64 `json:"low_cutoff" yaml:"low_cutoff"`   // Hz
	HighCutoff float64 `json:"high_cutoff" yaml:"high_cutoff"` // Hz
}

// TraitConfig describes how one trait is judged and talked about
type TraitConfig struct {
	Label      string                     `json:"label" yaml:"label"`
	Range      traits.Range               `json:"range" yaml:"range"`
	RadarScale float64                    `json:"radar_scale" yaml:"radar_scale"`
	Messages   map[traits.Category]string `json:"messages" yaml:"messages"`
	Advice     string                     `json:"advice" yaml:"advice"`
	Intro      string                     `json:"intro" yaml:"intro"`
}

// FeedbackConfig holds the fixed sentences of the composer
type FeedbackConfig struct {
	// Overall tiers, best first, selected at 0.8 / 0.6 / 0.4
	Tiers          [4]string `json:"tiers" yaml:"tiers"`
	Encouragement  string    `json:"encouragement" yaml:"encouragement"`
	AnalysisFailed string    `json:"analysis_failed" yaml:"analysis_failed"`
	DefaultHeading string    `json:"default_heading" yaml:"default_heading"`
	DefaultIntro   string    `json:"default_intro" yaml:"default_intro"`
}

// ExtractorConfig selects the feature extractor
type ExtractorConfig struct {
	Kind string `json:"kind" yaml:"kind"`
	// Seed for the synthetic extractor; 0 seeds from the clock
	Seed int64 `json:"seed" yaml:"seed"`
	// Added to dBFS to approximate a loudness in dB
	LoudnessOffset float64 `json:"loudness_offset" yaml:"loudness_offset"`
}

// EnrichmentConfig configures the optional chat-completions call
type EnrichmentConfig struct {
	BaseURL     string        `json:"base_url" yaml:"base_url"`
	APIKey      string        `json:"-" yaml:"api_key"`
	Model       string        `json:"model" yaml:"model"`
	Timeout     time.Duration `json:"timeout" yaml:"timeout"`
	Temperature float64       `json:"temperature" yaml:"temperature"`
	TopP        float64       `json:"top_p" yaml:"top_p"`
	MaxTokens   int           `json:"max_tokens" yaml:"max_tokens"`
}

// Enabled reports whether every connection setting is present
func (e EnrichmentConfig) Enabled() bool {
	return e.BaseURL != "" && e.APIKey != "" && e.Model != ""
}

// VisualizationConfig bounds the plot payloads
type VisualizationConfig struct {
	MaxWaveformPoints int `json:"max_waveform_points" yaml:"max_waveform_points"`
}

// DefaultAnalysisConfig returns the reference configuration
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		Signal:        DefaultSignalConfig(),
		Spectral:      DefaultSpectralConfig(),
		Traits:        DefaultTraitConfigs(),
		Feedback:      DefaultFeedbackConfig(),
		Extractor:     DefaultExtractorConfig(),
		Enrichment:    DefaultEnrichmentConfig(),
		Visualization: VisualizationConfig{MaxWaveformPoints: 10_000},
		TemplatesPath: "templates/advice.yaml",
		EpisodesPath:  "templates/episodes.yaml",
	}
}

func DefaultSignalConfig() SignalConfig {
	return SignalConfig{
		ClipLevel:            0.98,
		SilenceThreshold:     0.02,
		AutoTune:             true,
		NoiseProbeSeconds:    0.5,
		NoiseFloorFallback:   0.005,
		SilenceMin:           0.01,
		SilenceMax:           0.08,
		TargetPeak:           0.98,
		FeatureWindowSeconds: 60,
	}
}

func DefaultSpectralConfig() SpectralConfig {
	return SpectralConfig{
		WindowSize: 1024,
		HopSize:    512,
		MaxSeconds: 10,
		LogFloor:   1e-8,
		LowCutoff:  300,
		HighCutoff: 3000,
	}
}

func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		Kind:           ExtractorSynthetic,
		LoudnessOffset: 90,
	}
}

func DefaultEnrichmentConfig() EnrichmentConfig {
	return EnrichmentConfig{
		Timeout:     8 * time.Second,
		Temperature: 0.8,
		TopP:        0.9,
		MaxTokens:   600,
	}
}

func DefaultFeedbackConfig() FeedbackConfig {
	return FeedbackConfig{
		Tiers: [4]string{
			"Excellent delivery! You will leave a strong impression on your listeners.",
			"Good delivery. Working on a few points will make it even more effective.",
			"The basics are in place. Working through the improvements will make you more effective.",
			"There is room to grow. Use the advice below and keep practising.",
		},
		Encouragement:  "Steady practice is what improves a speaking voice. Record yourself and listen back to spot what to work on.",
		AnalysisFailed: "The recording could not be analysed.",
		DefaultHeading: "Template feedback",
		DefaultIntro:   "Today's pick is an episode that suits how your voice sounds right now.",
	}
}

// DefaultTraitConfigs returns labels, ranges and sentences for every trait
func DefaultTraitConfigs() map[traits.Name]TraitConfig {
	ranges := traits.DefaultRanges()
	scales := traits.DefaultRadarScales()

	return map[traits.Name]TraitConfig{
		traits.Speed: {
			Label:      "Speed",
			Range:      ranges[traits.Speed],
			RadarScale: scales[traits.Speed],
			Messages: map[traits.Category]string{
				traits.TooSlow: "Speaking a little faster will help keep your listeners' attention.",
				traits.TooFast: "Slowing down a little will make your content easier to follow.",
				traits.Good:    "Your pace is appropriate and easy for listeners to follow.",
			},
			Advice: "Practise with your pace in mind. A metronome works well.",
			Intro:  "Today's pick is for you if you want to settle your speaking **speed and tempo**.",
		},
		traits.Intonation: {
			Label:      "Intonation",
			Range:      ranges[traits.Intonation],
			RadarScale: scales[traits.Intonation],
			Messages: map[traits.Category]string{
				traits.TooFlat:   "A bit more intonation will make your talk lively and engaging.",
				traits.TooVaried: "Very large pitch swings can sound restless. Try toning them down a little.",
				traits.Good:      "Your intonation is well balanced and keeps listeners interested.",
			},
			Advice: "Practise speaking with feeling. Reading poems or stories aloud helps.",
			Intro:  "Today's pick is for you if you want more **intonation and contrast**.",
		},
		traits.Loudness: {
			Label:      "Loudness",
			Range:      ranges[traits.Loudness],
			RadarScale: scales[traits.Loudness],
			Messages: map[traits.Category]string{
				traits.TooQuiet: "Speaking a little louder will make you sound confident and persuasive.",
				traits.TooLoud:  "A very loud voice can feel overbearing. Try holding back a little.",
				traits.Good:     "Your volume is right: easy to hear and confident.",
			},
			Advice: "Keep an appropriate volume in mind. Recording yourself to check helps.",
			Intro:  "Today's pick is for you if you want more **volume and energy** in your voice.",
		},
		traits.Clarity: {
			Label:      "Clarity",
			Range:      ranges[traits.Clarity],
			RadarScale: scales[traits.Clarity],
			Messages: map[traits.Category]string{
				traits.Unclear: "Clearer articulation will make your content easier to understand.",
				traits.Good:    "Your articulation is clear and easy to understand.",
			},
			Advice: "Do pronunciation drills. Tongue twisters and articulation exercises work well.",
			Intro:  "Today's pick is for you if you want to polish how **clearly your words come across**.",
		},
		traits.Pause: {
			Label:      "Pause",
			Range:      ranges[traits.Pause],
			RadarScale: scales[traits.Pause],
			Messages: map[traits.Category]string{
				traits.TooFew:  "Pausing at key points gives listeners time to digest and makes you memorable.",
				traits.TooMany: "Too many pauses can make the flow of your talk feel broken.",
				traits.Good:    "Your use of pauses is appropriate and helps listeners follow along.",
			},
			Advice: "Practise taking deliberate pauses at important points.",
			Intro:  "Today's pick is for you if you want to improve your **pauses and rhythm**.",
		},
	}
}

// LoadFile reads a YAML (or JSON) file over the defaults
func LoadFile(path string) (*AnalysisConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := DefaultAnalysisConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.fillTraitDefaults()

	return cfg, nil
}

// fillTraitDefaults completes partially specified trait entries, since a
// YAML map entry replaces the default entry wholesale
func (c *AnalysisConfig) fillTraitDefaults() {
	defaults := DefaultTraitConfigs()
	if c.Traits == nil {
		c.Traits = defaults
		return
	}

	for name, def := range defaults {
		tc, ok := c.Traits[name]
		if !ok {
			c.Traits[name] = def
			continue
		}
		if tc.Label == "" {
			tc.Label = def.Label
		}
		if tc.Range == (traits.Range{}) {
			tc.Range = def.Range
		}
		if tc.RadarScale == 0 {
			tc.RadarScale = def.RadarScale
		}
		if tc.Messages == nil {
			tc.Messages = map[traits.Category]string{}
		}
		for cat, msg := range def.Messages {
			if tc.Messages[cat] == "" {
				tc.Messages[cat] = msg
			}
		}
		if tc.Advice == "" {
			tc.Advice = def.Advice
		}
		if tc.Intro == "" {
			tc.Intro = def.Intro
		}
		c.Traits[name] = tc
	}
}

// ApplyEnv overrides paths and enrichment settings from the environment
func (c *AnalysisConfig) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvTemplatesPath); ok && v != "" {
		c.TemplatesPath = v
	}
	if v, ok := os.LookupEnv(EnvEpisodesPath); ok && v != "" {
		c.EpisodesPath = v
	}
	if v, ok := os.LookupEnv(EnvAPIBase); ok {
		c.Enrichment.BaseURL = strings.TrimRight(v, "/")
	}
	if v, ok := os.LookupEnv(EnvAPIKey); ok {
		c.Enrichment.APIKey = v
	}
	if v, ok := os.LookupEnv(EnvModelID); ok {
		c.Enrichment.Model = v
	}
}

// Ranges returns the ideal range of every configured trait
func (c *AnalysisConfig) Ranges() map[traits.Name]traits.Range {
	out := make(map[traits.Name]traits.Range, len(c.Traits))
	for n, tc := range c.Traits {
		out[n] = tc.Range
	}
	return out
}

// RadarScales returns the radar divisor of every configured trait
func (c *AnalysisConfig) RadarScales() map[traits.Name]float64 {
	out := make(map[traits.Name]float64, len(c.Traits))
	for n, tc := range c.Traits {
		out[n] = tc.RadarScale
	}
	return out
}

// Label returns the display label of a trait, falling back to its name
func (c *AnalysisConfig) Label(n traits.Name) string {
	if tc, ok := c.Traits[n]; ok && tc.Label != "" {
		return tc.Label
	}
	return string(n)
}

// Validate reports every invalid setting at once
func (c *AnalysisConfig) Validate() error {
	var err error

	s := c.Signal
	if s.ClipLevel <= 0 || s.ClipLevel > 1 {
		err = multierr.Append(err, fmt.Errorf("signal.clip_level must be in (0, 1], got %v", s.ClipLevel))
	}
	if s.SilenceThreshold < 0 || s.SilenceThreshold >= 1 {
		err = multierr.Append(err, fmt.Errorf("signal.silence_threshold must be in [0, 1), got %v", s.SilenceThreshold))
	}
	if s.SilenceMin > s.SilenceMax {
		err = multierr.Append(err, fmt.Errorf("signal.silence_min %v exceeds silence_max %v", s.SilenceMin, s.SilenceMax))
	}
	if s.NoiseProbeSeconds < 0 {
		err = multierr.Append(err, fmt.Errorf("signal.noise_probe_seconds must not be negative"))
	}
	if s.TargetPeak <= 0 || s.TargetPeak > 1 {
		err = multierr.Append(err, fmt.Errorf("signal.target_peak must be in (0, 1], got %v", s.TargetPeak))
	}
	if s.FeatureWindowSeconds <= 0 {
		err = multierr.Append(err, fmt.Errorf("signal.feature_window_seconds must be positive"))
	}

	sp := c.Spectral
	if sp.WindowSize <= 0 || sp.HopSize <= 0 {
		err = multierr.Append(err, fmt.Errorf("spectral window_size and hop_size must be positive"))
	}
	if sp.MaxSeconds <= 0 {
		err = multierr.Append(err, fmt.Errorf("spectral.max_seconds must be positive"))
	}
	if sp.LogFloor <= 0 {
		err = multierr.Append(err, fmt.Errorf("spectral.log_floor must be positive"))
	}
	if sp.LowCutoff <= 0 || sp.LowCutoff >= sp.HighCutoff {
		err = multierr.Append(err, fmt.Errorf("spectral cutoffs must satisfy 0 < low < high, got %v/%v", sp.LowCutoff, sp.HighCutoff))
	}

	for _, n := range traits.Order {
		tc, ok := c.Traits[n]
		if !ok {
			err = multierr.Append(err, fmt.Errorf("trait %s is not configured", n))
			continue
		}
		if tc.Range.Lo > tc.Range.Hi {
			err = multierr.Append(err, fmt.Errorf("trait %s: range lo %v exceeds hi %v", n, tc.Range.Lo, tc.Range.Hi))
		}
		if tc.RadarScale <= 0 {
			err = multierr.Append(err, fmt.Errorf("trait %s: radar_scale must be positive", n))
		}
	}
	for n := range c.Traits {
		if _, perr := traits.ParseName(string(n)); perr != nil {
			err = multierr.Append(err, perr)
		}
	}

	switch c.Extractor.Kind {
	case ExtractorSynthetic, ExtractorAcoustic:
	default:
		err = multierr.Append(err, fmt.Errorf("extractor.kind must be %q or %q, got %q",
			ExtractorSynthetic, ExtractorAcoustic, c.Extractor.Kind))
	}

	if c.Enrichment.Timeout <= 0 {
		err = multierr.Append(err, fmt.Errorf("enrichment.timeout must be positive"))
	}
	if c.Visualization.MaxWaveformPoints <= 0 {
		err = multierr.Append(err, fmt.Errorf("visualization.max_waveform_points must be positive"))
	}

	return err
}
