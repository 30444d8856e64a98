package feedback

import (
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-coach/coach/analyzers"
	"github.com/RyanBlaney/sonido-coach/coach/traits"
)

// CommentInput is what the graph comments are written from
type CommentInput struct {
	Metrics  analyzers.SignalMetrics
	Scores   traits.Values // radar scores in [0, 1]
	Bands    analyzers.BandEnergy
	Duration float64 // seconds of audio analysed
}

// GraphComments holds a Markdown explanation per plot
type GraphComments struct {
	Waveform    string `json:"waveform"`
	Radar       string `json:"radar"`
	Spectrogram string `json:"spectrogram"`
}

// DescribeLevel turns a 0..1 score into a coarse description
func DescribeLevel(v float64) string {
	switch {
	case v >= 0.85:
		return "very strong"
	case v >= 0.65:
		return "fairly strong"
	case v >= 0.45:
		return "just right"
	case v >= 0.25:
		return "somewhat subdued"
	default:
		return "very subdued"
	}
}

// GraphComments writes the waveform, radar and spectrogram explanations
func (c *Composer) GraphComments(in CommentInput) GraphComments {
	return GraphComments{
		Waveform:    waveformComment(in.Metrics),
		Radar:       c.radarComment(in.Scores),
		Spectrogram: spectrogramComment(in.Duration, in.Bands),
	}
}

func waveformComment(m analyzers.SignalMetrics) string {
	var loud string
	switch {
	case m.DBFS > -12:
		loud = "Your voice is coming through very strongly. In an online meeting you could turn the mic input down a notch and still be heard clearly."
	case m.DBFS >= -25 && m.DBFS <= -15:
		loud = "A comfortable, easy-to-hear level. Treat this as your personal standard and let your body remember it."
	default:
		loud = "The level is on the quiet side. Try pushing your voice forward a little just before the key words."
	}

	clip := "Almost no distortion, a pleasant balance for the ear. That stability is a real strength."
	if m.ClipRatio > 0.02 {
		clip = "The sound is starting to distort in places. When your emotions run high, take a breath before you start speaking."
	}

	var silence string
	switch {
	case m.SilenceRatio > 0.65:
		silence = "Your style leaves generous gaps. When explaining, picking up the tempo half a step makes you much easier to follow."
	case m.SilenceRatio < 0.3:
		silence = "Few pauses, so the information comes out densely packed. Try a 0.3 second pause just before key words."
	default:
		silence = "Your pauses feel natural and the tempo is relaxed to listen to. Keep nurturing this rhythm."
	}

	return strings.Join([]string{
		"### Reading the waveform",
		"",
		"The horizontal axis is **time** and the vertical axis is **loudness**. " +
			"Tall peaks are where your feelings come forward; flat stretches are breaths and pauses.",
		"",
		"- Volume: " + loud,
		"- Distortion: " + clip,
		"- Pauses: " + silence,
	}, "\n")
}

func (c *Composer) radarComment(scores traits.Values) string {
	var lines []string

	strongest, okStrong := traits.Strongest(scores)
	weakest, okWeak := traits.Weakest(scores)
	if okStrong {
		lines = append(lines, fmt.Sprintf(
			"- **%s** stands out this time (%s). It is already one of your strengths, so use it with confidence.",
			c.config.Label(strongest), DescribeLevel(scores[strongest])))
	}
	if okWeak && len(scores) > 1 && weakest != strongest {
		lines = append(lines, fmt.Sprintf(
			"- **%s** is more subdued (%s). Rather than aiming for perfect, start by paying it 10%% more attention.",
			c.config.Label(weakest), DescribeLevel(scores[weakest])))
	}
	if len(lines) == 0 {
		lines = append(lines,
			"- Your voice is evenly balanced. Decide which element you want to stand out and add contrast a little at a time.")
	}

	labels := make([]string, 0, len(traits.Order))
	for _, n := range traits.Order {
		labels = append(labels, c.config.Label(n))
	}

	return strings.Join([]string{
		"### Reading the radar chart",
		"",
		"The radar chart shows " + strings.Join(labels, ", ") + " together. " +
			"The further a point reaches outward, the more that element comes through.",
		"",
		"This time:",
		"",
		strings.Join(lines, "\n"),
	}, "\n")
}

func spectrogramComment(duration float64, bands analyzers.BandEnergy) string {
	var length string
	switch {
	case duration <= 0:
		length = "This recording was very short. Speaking for 30 seconds to a minute shows your habits and pitch changes much more clearly."
	case duration < 20:
		length = fmt.Sprintf("This recording lasted about **%.1f seconds**, a good warm-up length. Next time try a slightly longer take.", duration)
	default:
		length = fmt.Sprintf("This recording lasted about **%.1f seconds**. You spoke at length, so the character and stability of your voice show clearly.", duration)
	}

	lines := []string{
		"### Reading the spectrogram",
		"",
		"The vertical axis is **frequency (pitch)**, the horizontal axis is **time** and the colour is **energy**.",
		"",
		"- Strong colour low down means a calm, grounded foundation.",
		"- Colour higher up adds brightness and sparkle.",
		"",
		length,
	}
	if remark := bandRemark(bands); remark != "" {
		lines = append(lines, "", remark)
	}
	return strings.Join(lines, "\n")
}

// bandRemark comments on the low/mid/high balance. Silent or empty input
// gets no remark.
func bandRemark(b analyzers.BandEnergy) string {
	total := b.RatioLow + b.RatioMid + b.RatioHigh
	if total <= 0 {
		return ""
	}

	switch {
	case b.RatioLow >= 0.5:
		return fmt.Sprintf("Most of the energy (%.0f%%) sits below 300 Hz, giving a deep, warm tone. A little more mid-range will help words cut through.", b.RatioLow*100)
	case b.RatioHigh >= 0.3:
		return fmt.Sprintf("A good share of the energy (%.0f%%) sits above 3 kHz, so the voice sounds bright. Watch for harsh sibilants.", b.RatioHigh*100)
	case b.RatioMid >= 0.5:
		return fmt.Sprintf("The energy is centred in the speech range (%.0f%% between 300 Hz and 3 kHz), which keeps words easy to catch.", b.RatioMid*100)
	default:
		return "Energy is spread evenly across low, mid and high frequencies."
	}
}
