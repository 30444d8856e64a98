package temporal

// Segment is a run of frames sharing the same voicing decision
type Segment struct {
	StartFrame int     `json:"start_frame"`
	EndFrame   int     `json:"end_frame"` // exclusive
	Voiced     bool    `json:"voiced"`
	Duration   float64 `json:"duration"` // seconds
}

// Segmentation splits an energy envelope into voiced and silent runs
type Segmentation struct {
	frameSeconds float64
}

// NewSegmentation creates a segmenter for envelopes whose frames are
// frameSeconds apart
func NewSegmentation(frameSeconds float64) *Segmentation {
	return &Segmentation{frameSeconds: frameSeconds}
}

// Split groups consecutive frames above/below threshold into segments
func (s *Segmentation) Split(envelope []float64, threshold float64) []Segment {
	if len(envelope) == 0 {
		return []Segment{}
	}

	var segments []Segment
	start := 0
	voiced := envelope[0] >= threshold

	for i := 1; i <= len(envelope); i++ {
		if i < len(envelope) && (envelope[i] >= threshold) == voiced {
			continue
		}
		segments = append(segments, Segment{
			StartFrame: start,
			EndFrame:   i,
			Voiced:     voiced,
			Duration:   float64(i-start) * s.frameSeconds,
		})
		if i < len(envelope) {
			start = i
			voiced = envelope[i] >= threshold
		}
	}

	return segments
}

// Pauses returns the durations of silent segments that sit between two
// voiced segments and last at least minPause seconds. Leading and trailing
// silence is not a pause.
func (s *Segmentation) Pauses(segments []Segment, minPause float64) []float64 {
	pauses := []float64{}
	for i := 1; i < len(segments)-1; i++ {
		seg := segments[i]
		if seg.Voiced || seg.Duration < minPause {
			continue
		}
		if segments[i-1].Voiced && segments[i+1].Voiced {
			pauses = append(pauses, seg.Duration)
		}
	}
	return pauses
}

// VoicedSeconds sums the duration of voiced segments
func (s *Segmentation) VoicedSeconds(segments []Segment) float64 {
	total := 0.0
	for _, seg := range segments {
		if seg.Voiced {
			total += seg.Duration
		}
	}
	return total
}
