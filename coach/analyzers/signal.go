package analyzers

import (
	"math"

	"github.com/RyanBlaney/sonido-coach/algorithms/common"
	"github.com/RyanBlaney/sonido-coach/coach/config"
)

const (
	// DBFSFloor is the level reported for digital silence, 20*log10(1e-12)
	DBFSFloor = -240.0

	// AutoClipLevel is the clip threshold used when thresholds are auto-tuned
	AutoClipLevel = 0.98

	rmsEpsilon   = 1e-12
	silencePeak  = 1e-6
	int16Range   = 32768.0
	int16Max     = 32767.0
	rawScaleHint = 1.5
)

// AudioBuffer is raw audio as delivered by the caller. Samples are
// interleaved when Channels > 1 and need not lie in [-1, 1].
type AudioBuffer struct {
	Samples    []float64 `json:"-"`
	SampleRate int       `json:"sample_rate"`
	Channels   int       `json:"channels"`
}

// Frames returns the number of sample frames
func (b AudioBuffer) Frames() int {
	if b.Channels <= 1 {
		return len(b.Samples)
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the buffer length in seconds
func (b AudioBuffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Mono returns the buffer averaged down to one channel
func (b AudioBuffer) Mono() []float64 {
	return downmix(b.Samples, b.Channels)
}

func downmix(samples []float64, channels int) []float64 {
	if channels <= 1 {
		out := make([]float64, len(samples))
		copy(out, samples)
		return out
	}

	frames := len(samples) / channels
	out := make([]float64, frames)
	for i := range frames {
		sum := 0.0
		for c := range channels {
			sum += samples[i*channels+c]
		}
		out[i] = sum / float64(channels)
	}
	return out
}

// Thresholds are the amplitude levels used to classify samples
type Thresholds struct {
	Silence    float64 `json:"silence"`
	Clip       float64 `json:"clip"`
	NoiseFloor float64 `json:"noise_floor"`
	Auto       bool    `json:"auto"`
}

// SignalMetrics summarises the level of a buffer
type SignalMetrics struct {
	Peak         float64 `json:"peak"`
	RMS          float64 `json:"rms"`
	DBFS         float64 `json:"dbfs"`
	ClipRatio    float64 `json:"clip_ratio"`
	SilenceRatio float64 `json:"silence_ratio"`
	// CrestFactor is +Inf for a non-empty buffer of zeros
	CrestFactor float64 `json:"-"`
}

// Env returns the metrics keyed by the names rule expressions use
func (m SignalMetrics) Env() map[string]float64 {
	return map[string]float64{
		"peak":          m.Peak,
		"rms":           m.RMS,
		"dbfs":          m.DBFS,
		"clip_ratio":    m.ClipRatio,
		"silence_ratio": m.SilenceRatio,
		"crest_factor":  m.CrestFactor,
	}
}

// Payload is Env with non-finite values replaced by 0 so it always
// serialises as JSON
func (m SignalMetrics) Payload() map[string]float64 {
	env := m.Env()
	for k, v := range env {
		if !common.IsFinite(v) {
			env[k] = 0
		}
	}
	return env
}

// AutoRange rescales a buffer into [-1, 1]. A peak above 1.5 is taken to
// mean 16-bit integer scale and divided by 32768; anything still above 1.0
// is divided by its peak.
func AutoRange(samples []float64) []float64 {
	out := common.Sanitize(samples)
	peak := common.Peak(out)

	if peak > rawScaleHint {
		out = common.Scale(out, 1/int16Range)
		peak = common.Peak(out)
	}
	if peak > 1.0 {
		out = common.Scale(out, 1/peak)
	}

	return out
}

// AutoThresholds derives the silence threshold from the median absolute
// amplitude of the leading probe window. With AutoTune disabled the manual
// values from cfg are used instead; the noise floor is still measured.
func AutoThresholds(samples []float64, sampleRate, channels int, cfg config.SignalConfig) Thresholds {
	probe := int(cfg.NoiseProbeSeconds * float64(sampleRate) * float64(max(1, channels)))
	probe = max(0, min(len(samples), probe))

	floor := cfg.NoiseFloorFallback
	if probe > 0 {
		abs := make([]float64, probe)
		for i, v := range samples[:probe] {
			abs[i] = math.Abs(v)
		}
		floor = common.Median(abs)
	}

	if !cfg.AutoTune {
		return Thresholds{
			Silence:    cfg.SilenceThreshold,
			Clip:       cfg.ClipLevel,
			NoiseFloor: floor,
		}
	}

	return Thresholds{
		Silence:    common.Clamp(3*floor, cfg.SilenceMin, cfg.SilenceMax),
		Clip:       AutoClipLevel,
		NoiseFloor: floor,
		Auto:       true,
	}
}

// ComputeSignalMetrics measures a buffer against the given thresholds.
// NaN and Inf samples count as 0. An empty buffer yields zero metrics with
// DBFS at DBFSFloor.
func ComputeSignalMetrics(samples []float64, th Thresholds) SignalMetrics {
	if len(samples) == 0 {
		return SignalMetrics{DBFS: DBFSFloor}
	}

	x := common.Sanitize(samples)
	peak := common.Peak(x)
	rms := common.RMS(x)

	m := SignalMetrics{
		Peak:         peak,
		RMS:          rms,
		DBFS:         20 * math.Log10(math.Max(rms, rmsEpsilon)),
		ClipRatio:    common.FractionAbove(x, th.Clip),
		SilenceRatio: common.FractionBelow(x, th.Silence),
	}

	if rms > 0 {
		m.CrestFactor = peak / (rms + rmsEpsilon)
	} else {
		m.CrestFactor = math.Inf(1)
	}

	return m
}

// Prepared is a buffer made ready for analysis
type Prepared struct {
	// Signal is the range-normalised mono signal
	Signal     []float64     `json:"-"`
	SampleRate int           `json:"sample_rate"`
	Duration   float64       `json:"duration"`
	Metrics    SignalMetrics `json:"metrics"`
	Thresholds Thresholds    `json:"thresholds"`
}

// PrepareForAnalysis sanitises and auto-ranges a buffer, derives the
// thresholds and computes the signal metrics over every channel
func PrepareForAnalysis(buf AudioBuffer, cfg config.SignalConfig) Prepared {
	ranged := AutoRange(buf.Samples)
	th := AutoThresholds(ranged, buf.SampleRate, buf.Channels, cfg)

	return Prepared{
		Signal:     downmix(ranged, buf.Channels),
		SampleRate: buf.SampleRate,
		Duration:   buf.Duration(),
		Metrics:    ComputeSignalMetrics(ranged, th),
		Thresholds: th,
	}
}

// FeatureWindow returns a sanitised copy of x capped to maxSeconds. The
// level is preserved so extractors can measure loudness and clipping.
func FeatureWindow(x []float64, sampleRate int, maxSeconds float64) []float64 {
	out := common.Sanitize(x)
	if sampleRate > 0 && maxSeconds > 0 {
		if limit := int(maxSeconds * float64(sampleRate)); len(out) > limit {
			out = out[:limit]
		}
	}
	return out
}

// NormalizeForSaving scales a buffer so its peak equals target, clamping to
// [-1, 1]. Near-silent buffers come back unchanged (after sanitising) and an
// empty buffer becomes a single zero sample. The function is idempotent.
func NormalizeForSaving(x []float64, target float64) []float64 {
	if len(x) == 0 {
		return []float64{0}
	}

	out := common.Sanitize(x)
	peak := common.Peak(out)
	if peak < silencePeak {
		return out
	}
	if math.Abs(peak-target) <= 1e-9 && peak <= 1.0 {
		return out
	}

	if peak > 1.0 {
		out = common.Scale(out, 1/peak)
		peak = 1.0
	}

	scale := target / math.Max(peak, silencePeak)
	for i, v := range out {
		out[i] = common.Clamp(v*scale, -1, 1)
	}
	return out
}

// ToInt16 converts [-1, 1] samples to 16-bit PCM, truncating toward zero
func ToInt16(x []float64) []int16 {
	out := make([]int16, len(x))
	for i, v := range x {
		if !common.IsFinite(v) {
			continue
		}
		out[i] = int16(common.Clamp(v, -1, 1) * int16Max)
	}
	return out
}
