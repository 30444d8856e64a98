package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-coach/coach/traits"
	"go.uber.org/multierr"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultAnalysisConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	for _, n := range traits.Order {
		tc := cfg.Traits[n]
		for _, cat := range traits.Categories(n) {
			if tc.Messages[cat] == "" {
				t.Errorf("trait %s has no message for %s", n, cat)
			}
		}
	}
	if cfg.Enrichment.Enabled() {
		t.Error("enrichment should be disabled by default")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "coach.yaml")
	content := `
signal:
  auto_tune: false
  silence_threshold: 0.03
traits:
  speed:
    range: {lo: 100, hi: 140}
extractor:
  kind: acoustic
enrichment:
  timeout: 3s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.Signal.AutoTune || cfg.Signal.SilenceThreshold != 0.03 {
		t.Errorf("signal = %+v", cfg.Signal)
	}
	if cfg.Signal.ClipLevel != 0.98 {
		t.Errorf("unset clip level lost its default: %v", cfg.Signal.ClipLevel)
	}
	if got := cfg.Traits[traits.Speed].Range; got.Lo != 100 || got.Hi != 140 {
		t.Errorf("speed range = %+v", got)
	}
	if cfg.Traits[traits.Speed].Label != "Speed" || cfg.Traits[traits.Speed].RadarScale != 180 {
		t.Errorf("partial trait entry was not completed: %+v", cfg.Traits[traits.Speed])
	}
	if cfg.Traits[traits.Speed].Messages[traits.TooFast] == "" {
		t.Error("messages were not filled")
	}
	if cfg.Traits[traits.Pause].Range.Hi != 2.0 {
		t.Error("untouched trait lost its defaults")
	}
	if cfg.Extractor.Kind != ExtractorAcoustic {
		t.Errorf("extractor kind = %q", cfg.Extractor.Kind)
	}
	if cfg.Enrichment.Timeout != 3*time.Second {
		t.Errorf("timeout = %v", cfg.Enrichment.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("signal: [unterminated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvTemplatesPath, "/tmp/tpl.yaml")
	t.Setenv(EnvEpisodesPath, "/tmp/ep.yaml")
	t.Setenv(EnvAPIBase, "https://llm.example.com/v1/")
	t.Setenv(EnvAPIKey, "secret")
	t.Setenv(EnvModelID, "model-x")

	cfg := DefaultAnalysisConfig()
	cfg.ApplyEnv()

	if cfg.TemplatesPath != "/tmp/tpl.yaml" || cfg.EpisodesPath != "/tmp/ep.yaml" {
		t.Errorf("paths = %q %q", cfg.TemplatesPath, cfg.EpisodesPath)
	}
	if cfg.Enrichment.BaseURL != "https://llm.example.com/v1" {
		t.Errorf("base url = %q", cfg.Enrichment.BaseURL)
	}
	if !cfg.Enrichment.Enabled() {
		t.Error("enrichment should be enabled")
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := DefaultAnalysisConfig()
	cfg.Signal.ClipLevel = 2
	cfg.Spectral.HopSize = 0
	cfg.Extractor.Kind = "neural"
	delete(cfg.Traits, traits.Pause)

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	if n := len(multierr.Errors(err)); n != 4 {
		t.Errorf("got %d errors, want 4: %v", n, err)
	}
	if !strings.Contains(err.Error(), "trait pause") {
		t.Errorf("missing trait error not reported: %v", err)
	}
}

func TestLabelFallback(t *testing.T) {
	cfg := DefaultAnalysisConfig()
	if got := cfg.Label(traits.Clarity); got != "Clarity" {
		t.Errorf("Label = %q", got)
	}
	if got := cfg.Label("volume"); got != "volume" {
		t.Errorf("Label fallback = %q", got)
	}
}
