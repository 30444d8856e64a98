package coach

import (
	"fmt"
	"strings"
)

const (
	noStrengths    = "No clear strengths stood out yet, so let's grow them together from here."
	noImprovements = "Nothing major to fix. Relax and enjoy speaking first."
	noAdvice       = "For today, just aim to get used to recording yourself."
)

// Markdown renders the full report: overall verdict, strengths,
// improvements, advice, the numeric signal metrics, the graph
// explanations, rule-based sections and the recommendation
func (r *AnalysisResult) Markdown() string {
	var b strings.Builder
	fb := r.Feedback

	fmt.Fprintf(&b, "## Overall 💌\n%s\n\n", fb.Overall)

	b.WriteString("## What is already working ✨\n")
	b.WriteString("Let's start with the good news. Be proud of these.\n\n")
	b.WriteString(bulletList(fb.Strengths, noStrengths))
	b.WriteString("\n\n")

	b.WriteString("## Room to grow 🌱\n")
	b.WriteString("Not criticism, just the points that will make you much easier to listen to.\n\n")
	b.WriteString(bulletList(fb.Improvements, noImprovements))
	b.WriteString("\n\n")

	b.WriteString("## Practical advice 🎙\n")
	b.WriteString("Small tips you can try right away. Pick just one for your next recording.\n\n")
	b.WriteString(bulletList(fb.Advice, noAdvice))
	b.WriteString("\n\n")

	b.WriteString(r.metricsMarkdown())

	for _, c := range []string{r.Comments.Waveform, r.Comments.Radar, r.Comments.Spectrogram} {
		if c != "" {
			b.WriteString("\n")
			b.WriteString(c)
			b.WriteString("\n")
		}
	}

	b.WriteString(fb.Sections.Markdown())
	if r.Recommendation != nil {
		b.WriteString("\n")
		b.WriteString(r.Recommendation.Markdown())
	}

	return b.String()
}

func (r *AnalysisResult) metricsMarkdown() string {
	m := r.Signal
	th := r.Thresholds

	lines := []string{
		"---",
		"",
		"## Your voice in numbers",
		"",
		fmt.Sprintf("- Peak: %.3f (close to 1.0 means a fairly loud voice)", m.Peak),
		fmt.Sprintf("- RMS: %.4f (average level; around 0.03 to 0.07 stays comfortable for long listening)", m.RMS),
		fmt.Sprintf("- dBFS: %.1f dBFS (0 is the maximum; -25 to -15 dBFS is a comfortable guide)", m.DBFS),
		fmt.Sprintf("- Clipping (threshold %.3f): %.2f %% (share of distorted samples; near 0%% means good control)", th.Clip, m.ClipRatio*100),
		fmt.Sprintf("- Silence (threshold %.3f): %.1f %% (how much space you leave; 40 to 70%% balances breath and pauses)", th.Silence, m.SilenceRatio*100),
		fmt.Sprintf("- Crest factor: %.2f (sharpness of the voice; usually 3 to 15, above 20 means sharp peaks and strong contrast)", m.CrestFactor),
		"",
	}
	return strings.Join(lines, "\n")
}

func bulletList(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = "- " + it
	}
	return strings.Join(lines, "\n")
}
