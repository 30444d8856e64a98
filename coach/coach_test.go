package coach

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/RyanBlaney/sonido-coach/coach/analyzers"
	"github.com/RyanBlaney/sonido-coach/coach/cache"
	"github.com/RyanBlaney/sonido-coach/coach/config"
	"github.com/RyanBlaney/sonido-coach/coach/enrich"
	"github.com/RyanBlaney/sonido-coach/coach/extractors"
	"github.com/RyanBlaney/sonido-coach/coach/traits"
)

type stubExtractor struct {
	values traits.Values
	err    error
}

func (s stubExtractor) Name() string { return "stub" }

func (s stubExtractor) Extract([]float64, int) (traits.Values, error) {
	return s.values, s.err
}

type fixedChooser int

func (f fixedChooser) Intn(n int) int { return int(f) % n }

const templates = `
sections:
  - heading: Volume check
    rules:
      - if: "dbfs < -30 and clip_ratio < 0.01"
        text: ["Speak up a little", "A touch more volume"]
      - if: "clip_ratio > 0.1"
        text: "Back off the mic"
`

const episodes = `
episodes:
  - title: Speak with colour
    url: https://example.com/colour
    reason: Bringing melody into speech
    targets: [intonation]
  - title: Find your rhythm
    url: https://example.com/rhythm
    reason: Pauses and pacing
    targets: [pause]
`

func testConfig(t *testing.T) *config.AnalysisConfig {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultAnalysisConfig()
	cfg.TemplatesPath = filepath.Join(dir, "advice.yaml")
	cfg.EpisodesPath = filepath.Join(dir, "episodes.yaml")
	if err := os.WriteFile(cfg.TemplatesPath, []byte(templates), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.EpisodesPath, []byte(episodes), 0o644); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func tone(freq, amp float64, sampleRate, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return x
}

var flatSpeaker = traits.Values{
	traits.Speed:      135,
	traits.Intonation: 0.2,
	traits.Loudness:   65,
	traits.Clarity:    0.8,
	traits.Pause:      1.0,
}

func TestAnalyzeSilence(t *testing.T) {
	cfg := testConfig(t)
	cfg.Extractor.Seed = 7
	a, err := NewAnalyzer(cfg)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}

	r := a.Analyze(analyzers.AudioBuffer{Samples: make([]float64, 16000), SampleRate: 16000, Channels: 1})

	if _, err := uuid.Parse(r.ID); err != nil {
		t.Errorf("ID %q is not a uuid: %v", r.ID, err)
	}
	if r.Signal.RMS != 0 || math.Abs(r.Signal.DBFS-analyzers.DBFSFloor) > 1e-9 || r.Signal.ClipRatio != 0 || r.Signal.SilenceRatio != 1 {
		t.Errorf("signal = %+v", r.Signal)
	}
	if r.Duration != 1 {
		t.Errorf("duration = %v, want 1", r.Duration)
	}

	matched := false
	for _, p := range extractors.Patterns {
		if p.Contains(r.Features) {
			matched = true
		}
	}
	if !matched {
		t.Errorf("synthetic features %v match no pattern", r.Features)
	}

	if len(r.Feedback.Advice) == 0 || r.Feedback.Advice[len(r.Feedback.Advice)-1] != cfg.Feedback.Encouragement {
		t.Errorf("advice = %v", r.Feedback.Advice)
	}
	if len(r.Visualization.Radar.Labels) != 5 || len(r.Visualization.Radar.Values) != 5 {
		t.Errorf("radar = %+v", r.Visualization.Radar)
	}
	if len(r.Visualization.Waveform.Y) == 0 {
		t.Error("waveform is empty")
	}

	// digital silence is very quiet and never clips
	if len(r.Feedback.Sections) != 1 || r.Feedback.Sections[0].Heading != "Volume check" {
		t.Errorf("sections = %+v", r.Feedback.Sections)
	}

	if _, err := json.Marshal(r); err != nil {
		t.Errorf("result is not serialisable: %v", err)
	}
}

func TestAnalyzeWithFixedFeatures(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewAnalyzer(cfg,
		WithExtractor(stubExtractor{values: flatSpeaker}),
		WithChooser(fixedChooser(1)),
		WithCacheManager(cache.NewManager(nil)),
	)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}

	r := a.Analyze(analyzers.AudioBuffer{Samples: tone(440, 0.01, 16000, 32000), SampleRate: 16000, Channels: 1})

	if r.Evaluation[traits.Intonation] != traits.TooFlat || r.Evaluation[traits.Speed] != traits.Good {
		t.Errorf("evaluation = %v", r.Evaluation)
	}
	if r.Weakest != traits.Intonation {
		t.Errorf("weakest = %q, want intonation", r.Weakest)
	}
	if r.Strongest != traits.Clarity {
		t.Errorf("strongest = %q, want clarity", r.Strongest)
	}
	if r.Feedback.Score != 0.8 || r.Feedback.Overall != cfg.Feedback.Tiers[0] {
		t.Errorf("score/overall = %v/%q", r.Feedback.Score, r.Feedback.Overall)
	}

	if len(r.Feedback.Sections) != 1 || r.Feedback.Sections[0].Lines[0] != "A touch more volume" {
		t.Errorf("sections = %+v", r.Feedback.Sections)
	}

	if r.Recommendation == nil || r.Recommendation.Episode.Title != "Speak with colour" {
		t.Fatalf("recommendation = %+v", r.Recommendation)
	}
	if r.Recommendation.Intro != cfg.Traits[traits.Intonation].Intro {
		t.Errorf("intro = %q", r.Recommendation.Intro)
	}

	sum := r.Bands.RatioLow + r.Bands.RatioMid + r.Bands.RatioHigh
	if math.Abs(sum-1) > 1e-3 {
		t.Errorf("band ratios sum to %v", sum)
	}
	if r.Duration != 2 {
		t.Errorf("duration = %v", r.Duration)
	}
}

func TestAnalyzeExtractionFailure(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewAnalyzer(cfg, WithExtractor(stubExtractor{err: errors.New("model offline")}))
	if err != nil {
		t.Fatal(err)
	}

	r := a.Analyze(analyzers.AudioBuffer{Samples: tone(200, 0.3, 16000, 16000), SampleRate: 16000, Channels: 1})

	if !strings.Contains(r.Feedback.Overall, "model offline") || r.ExtractionError != "model offline" {
		t.Errorf("overall = %q, error = %q", r.Feedback.Overall, r.ExtractionError)
	}
	for _, n := range traits.Order {
		if r.Features[n] != 0 || r.Scores[n] != 0 {
			t.Errorf("%s not zeroed: %v / %v", n, r.Features[n], r.Scores[n])
		}
	}
	if len(r.Evaluation) != 0 {
		t.Errorf("evaluation = %v, want empty", r.Evaluation)
	}
	if len(r.Feedback.Advice) == 0 {
		t.Error("advice should never be empty")
	}
}

func TestAnalyzeDegenerateInput(t *testing.T) {
	cfg := testConfig(t)
	cfg.TemplatesPath = filepath.Join(t.TempDir(), "missing.yaml")
	cfg.EpisodesPath = filepath.Join(t.TempDir(), "missing.yaml")
	a, err := NewAnalyzer(cfg, WithExtractor(stubExtractor{values: flatSpeaker}))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		buf  analyzers.AudioBuffer
	}{
		{"empty", analyzers.AudioBuffer{SampleRate: 16000, Channels: 1}},
		{"non-finite", analyzers.AudioBuffer{Samples: []float64{math.NaN(), math.Inf(1), 0.5}, SampleRate: 16000, Channels: 1}},
		{"int16 scale stereo", analyzers.AudioBuffer{Samples: tone(300, 20000, 8000, 8000), SampleRate: 8000, Channels: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := a.Analyze(tt.buf)
			for k, v := range r.Signal.Payload() {
				if math.IsNaN(v) || math.IsInf(v, 0) {
					t.Errorf("%s = %v", k, v)
				}
			}
			if r.Signal.Peak > 1 {
				t.Errorf("peak %v above 1 after auto-range", r.Signal.Peak)
			}
			if len(r.Feedback.Sections) != 0 || r.Recommendation != nil {
				t.Error("missing files should contribute nothing")
			}
			if r.Markdown() == "" {
				t.Error("empty report")
			}
		})
	}
}

// speechBursts returns 8 bursts of a 200/1000/1400 Hz tone (0.25 s on,
// 0.5 s apart) scaled by amp, 6 s in total at 16 kHz
func speechBursts(amp float64) []float64 {
	const sr = 16000
	var x []float64
	silence := func(sec float64) { x = append(x, make([]float64, int(sec*sr))...) }

	silence(0.25)
	for i := range 8 {
		for j := range sr / 4 {
			ts := float64(j) / sr
			x = append(x, amp*(0.15*math.Sin(2*math.Pi*200*ts)+
				0.3*math.Sin(2*math.Pi*1000*ts)+
				0.2*math.Sin(2*math.Pi*1400*ts)))
		}
		if i < 7 {
			silence(0.5)
		}
	}
	silence(0.25)
	return x
}

func TestAnalyzeAcousticFollowsRecordingLevel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Extractor.Kind = config.ExtractorAcoustic
	a, err := NewAnalyzer(cfg)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}

	quiet := a.Analyze(analyzers.AudioBuffer{Samples: speechBursts(0.01), SampleRate: 16000, Channels: 1})
	loud := a.Analyze(analyzers.AudioBuffer{Samples: speechBursts(0.9), SampleRate: 16000, Channels: 1})

	if quiet.ExtractionError != "" || loud.ExtractionError != "" {
		t.Fatalf("extraction errors: %q / %q", quiet.ExtractionError, loud.ExtractionError)
	}

	diff := loud.Features[traits.Loudness] - quiet.Features[traits.Loudness]
	if want := 20 * math.Log10(90); math.Abs(diff-want) > 1e-6 {
		t.Errorf("loudness difference = %v dB, want %v", diff, want)
	}
	if got := quiet.Evaluation[traits.Loudness]; got != traits.TooQuiet {
		t.Errorf("quiet take loudness = %q, want %q", got, traits.TooQuiet)
	}
	if got := loud.Evaluation[traits.Loudness]; got != traits.Good {
		t.Errorf("loud take loudness = %q (%v), want %q", got, loud.Features[traits.Loudness], traits.Good)
	}

	if quiet.Features[traits.Speed] <= 0 || math.Abs(quiet.Features[traits.Speed]-loud.Features[traits.Speed]) > 1e-9 {
		t.Errorf("speed = %v / %v, want equal and non-zero", quiet.Features[traits.Speed], loud.Features[traits.Speed])
	}
}

func TestMarkdown(t *testing.T) {
	cfg := testConfig(t)
	a, err := NewAnalyzer(cfg, WithExtractor(stubExtractor{values: flatSpeaker}), WithChooser(fixedChooser(0)))
	if err != nil {
		t.Fatal(err)
	}

	md := a.Analyze(analyzers.AudioBuffer{Samples: tone(440, 0.01, 16000, 16000), SampleRate: 16000, Channels: 1}).Markdown()

	for _, want := range []string{
		"## Overall",
		"- Speed: ",
		"- Intonation: ",
		"## Your voice in numbers",
		"- dBFS: ",
		"- Clipping (threshold 0.980)",
		"### Reading the waveform",
		"### Reading the radar chart",
		"### Reading the spectrogram",
		"## Volume check\n- Speak up a little",
		"[Speak with colour](https://example.com/colour)",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestMarkdownFallbacks(t *testing.T) {
	r := &AnalysisResult{}
	md := r.Markdown()
	for _, want := range []string{noStrengths, noImprovements, noAdvice} {
		if !strings.Contains(md, want) {
			t.Errorf("report missing fallback %q", want)
		}
	}
}

func TestEnrich(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"- breathe before key words"}}]}`))
	}))
	defer srv.Close()

	cfg := testConfig(t)
	buf := analyzers.AudioBuffer{Samples: tone(440, 0.1, 16000, 16000), SampleRate: 16000, Channels: 1}

	disabled, err := NewAnalyzer(cfg, WithExtractor(stubExtractor{values: flatSpeaker}))
	if err != nil {
		t.Fatal(err)
	}
	if got := disabled.Enrich(context.Background(), disabled.Analyze(buf)); got != "" {
		t.Errorf("disabled Enrich = %q", got)
	}

	enabled := *cfg
	enabled.Enrichment.BaseURL = srv.URL
	enabled.Enrichment.APIKey = "k"
	enabled.Enrichment.Model = "m"
	a, err := NewAnalyzer(&enabled, WithExtractor(stubExtractor{values: flatSpeaker}))
	if err != nil {
		t.Fatal(err)
	}

	r := a.Analyze(buf)
	before := r.Markdown()
	got := a.Enrich(context.Background(), r)
	if !strings.Contains(got, enrich.Heading) || !strings.Contains(got, "- breathe before key words") {
		t.Errorf("Enrich = %q", got)
	}
	if r.Markdown() != before {
		t.Error("Enrich modified the result")
	}
}

func TestNewAnalyzerErrors(t *testing.T) {
	bad := config.DefaultAnalysisConfig()
	bad.Signal.ClipLevel = 2
	if _, err := NewAnalyzer(bad); err == nil {
		t.Error("expected validation error")
	}

	unknown := config.DefaultAnalysisConfig()
	unknown.Extractor.Kind = "neural"
	if _, err := NewAnalyzer(unknown); err == nil {
		t.Error("expected unknown extractor error")
	}
}
