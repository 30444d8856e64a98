package enrich

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/RyanBlaney/sonido-coach/coach/analyzers"
)

// TargetDBFSRange is the comfortable speaking level quoted to the model
const TargetDBFSRange = "[-25, -15]"

// Notes gives the model the reference points behind the numbers
type Notes struct {
	TargetDBFSRange  string  `json:"target_dbfs_range"`
	ClipThreshold    float64 `json:"clip_threshold"`
	SilenceThreshold float64 `json:"silence_threshold"`
}

// Payload is the flat, JSON-safe metrics set sent for enrichment
type Payload struct {
	DBFS         float64 `json:"dbfs"`
	ClipRatio    float64 `json:"clip_ratio"`
	SilenceRatio float64 `json:"silence_ratio"`
	CrestFactor  float64 `json:"crest_factor"`
	RMS          float64 `json:"rms"`
	Peak         float64 `json:"peak"`
	Notes        Notes   `json:"notes"`
}

// NewPayload builds a payload from signal metrics. Non-finite values are
// sent as 0.
func NewPayload(m analyzers.SignalMetrics, th analyzers.Thresholds) Payload {
	safe := m.Payload()
	return Payload{
		DBFS:         safe["dbfs"],
		ClipRatio:    safe["clip_ratio"],
		SilenceRatio: safe["silence_ratio"],
		CrestFactor:  safe["crest_factor"],
		RMS:          safe["rms"],
		Peak:         safe["peak"],
		Notes: Notes{
			TargetDBFSRange:  TargetDBFSRange,
			ClipThreshold:    th.Clip,
			SilenceThreshold: th.Silence,
		},
	}
}

const systemPrompt = "You are a warm, upbeat voice coach with a radio presenter's energy. " +
	"You are talking to a listener you have supported for years. " +
	"Be friendly but polite and keep the energy positive.\n" +
	"- Frame every point as \"this will make it even better\", never as criticism\n" +
	"- Avoid jargon so a beginner can follow\n" +
	"- Give 3 to 6 concrete bullet points\n"

const userPrompt = "Using the objective voice metrics below, write additional feedback.\n" +
	"Tone:\n" +
	"- Like chatting with a listener you know well\n" +
	"- A coach practising alongside them, not talking down\n" +
	"- Keep sentences short\n" +
	"Content:\n" +
	"- Short and to the point (3 to 6 items)\n" +
	"- Gentle, suggestive phrasing\n" +
	"- Concrete actions (for example: pause for 0.3 seconds before a key word)\n" +
	"- Finish with a longer, light-hearted overall impression and positive note\n\n"

// BuildPrompts returns the system and user prompts with the payload
// embedded as indented JSON
func BuildPrompts(p Payload) (system, user string, err error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", "", fmt.Errorf("enrich: marshal payload: %w", err)
	}

	var b strings.Builder
	b.WriteString(userPrompt)
	b.Write(data)
	return systemPrompt, b.String(), nil
}
