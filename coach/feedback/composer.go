package feedback

import (
	"fmt"

	"github.com/RyanBlaney/sonido-coach/coach/config"
	"github.com/RyanBlaney/sonido-coach/coach/rules"
	"github.com/RyanBlaney/sonido-coach/coach/traits"
)

// Overall tier thresholds, best first
var tierThresholds = [3]float64{0.8, 0.6, 0.4}

// Feedback is the composed textual result of an analysis
type Feedback struct {
	Strengths    []string       `json:"strengths"`
	Improvements []string       `json:"improvements"`
	Overall      string         `json:"overall"`
	Advice       []string       `json:"advice"`
	Score        float64        `json:"score"`
	Sections     rules.Sections `json:"sections,omitempty"`
}

// Composer turns trait evaluations into feedback text
type Composer struct {
	config *config.AnalysisConfig
}

// NewComposer creates a composer. A nil config uses the defaults.
func NewComposer(cfg *config.AnalysisConfig) *Composer {
	if cfg == nil {
		cfg = config.DefaultAnalysisConfig()
	}
	return &Composer{config: cfg}
}

// Tier maps a score to an index into the overall sentences: 0 for >= 0.8,
// 1 for >= 0.6, 2 for >= 0.4 and 3 otherwise
func Tier(score float64) int {
	for i, threshold := range tierThresholds {
		if score >= threshold {
			return i
		}
	}
	return len(tierThresholds)
}

// Compose sorts evaluated traits into strengths and improvements, scores the
// share of good traits and attaches the rule sections. Advice always ends
// with the encouragement line.
func (c *Composer) Compose(eval traits.Evaluation, sections rules.Sections) Feedback {
	fb := Feedback{
		Strengths:    []string{},
		Improvements: []string{},
		Advice:       []string{},
		Sections:     sections,
	}

	for _, n := range traits.Order {
		cat, ok := eval[n]
		if !ok {
			continue
		}

		tc := c.config.Traits[n]
		line := fmt.Sprintf("%s: %s", c.config.Label(n), c.message(tc, cat))
		if cat == traits.Good {
			fb.Strengths = append(fb.Strengths, line)
			continue
		}

		fb.Improvements = append(fb.Improvements, line)
		if tc.Advice != "" {
			fb.Advice = append(fb.Advice, tc.Advice)
		}
	}

	good, total := eval.GoodCount()
	if total > 0 {
		fb.Score = float64(good) / float64(total)
	}
	fb.Overall = c.config.Feedback.Tiers[Tier(fb.Score)]
	fb.Advice = append(fb.Advice, c.config.Feedback.Encouragement)

	return fb
}

// Failed is the feedback for an analysis whose features could not be
// extracted
func (c *Composer) Failed(err error) Feedback {
	overall := c.config.Feedback.AnalysisFailed
	if err != nil {
		overall = fmt.Sprintf("%s (%v)", overall, err)
	}
	return Feedback{
		Strengths:    []string{},
		Improvements: []string{},
		Overall:      overall,
		Advice:       []string{c.config.Feedback.Encouragement},
	}
}

func (c *Composer) message(tc config.TraitConfig, cat traits.Category) string {
	if msg := tc.Messages[cat]; msg != "" {
		return msg
	}
	return string(cat)
}
