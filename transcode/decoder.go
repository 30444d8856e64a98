package transcode

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-coach/logging"
)

// ErrInvalidWAV is returned for input that is not a readable PCM WAV file
var ErrInvalidWAV = errors.New("invalid WAV file")

// pcmScaleBits is the bit depth decoded samples are expressed in
const pcmScaleBits = 16

// AudioData represents decoded audio data
type AudioData struct {
	// Interleaved samples at 16-bit integer scale regardless of the source
	// depth, so callers auto-range them like a raw recording
	PCM        []float64      `json:"-"`
	SampleRate int            `json:"sample_rate"`
	Channels   int            `json:"channels"`
	Duration   time.Duration  `json:"duration"`
	Timestamp  time.Time      `json:"timestamp"`
	Metadata   *AudioMetadata `json:"metadata,omitempty"`
}

// AudioMetadata describes the source file
type AudioMetadata struct {
	Path     string `json:"path,omitempty"`
	Format   string `json:"format"`
	BitDepth int    `json:"bit_depth"`
}

// DecoderConfig holds decoder configuration
type DecoderConfig struct {
	// Decoded audio is truncated to this length; 0 keeps everything
	MaxDuration time.Duration `json:"max_duration"`
}

// DefaultDecoderConfig returns a config that keeps the whole file
func DefaultDecoderConfig() *DecoderConfig {
	return &DecoderConfig{}
}

// Decoder reads PCM WAV audio
type Decoder struct {
	config *DecoderConfig
}

// NewDecoder creates a new audio decoder
func NewDecoder(config *DecoderConfig) *Decoder {
	if config == nil {
		config = DefaultDecoderConfig()
	}
	return &Decoder{config: config}
}

// DecodeWAVFile decodes a WAV file with the default decoder
func DecodeWAVFile(path string) (*AudioData, error) {
	return NewDecoder(nil).DecodeFile(path)
}

// DecodeWAV decodes WAV data with the default decoder
func DecodeWAV(r io.ReadSeeker) (*AudioData, error) {
	return NewDecoder(nil).DecodeReader(r)
}

// DecodeFile decodes a WAV file and returns PCM data
func (d *Decoder) DecodeFile(filename string) (*AudioData, error) {
	logger := logging.WithFields(logging.Fields{
		"component": "audio_decoder",
		"function":  "DecodeFile",
		"filename":  filename,
	})

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer f.Close()

	data, err := d.DecodeReader(f)
	if err != nil {
		logger.Error(err, "Failed to decode audio file")
		return nil, err
	}
	data.Metadata.Path = filename

	logger.Debug("Audio file decoded", logging.Fields{
		"sample_rate": data.SampleRate,
		"channels":    data.Channels,
		"bit_depth":   data.Metadata.BitDepth,
		"duration":    data.Duration.Seconds(),
	})
	return data, nil
}

// DecodeReader decodes WAV data from a seekable reader
func (d *Decoder) DecodeReader(r io.ReadSeeker) (*AudioData, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, ErrInvalidWAV
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: could not read PCM buffer: %v", ErrInvalidWAV, err)
	}
	if buf.Format == nil || buf.Format.SampleRate <= 0 || buf.Format.NumChannels <= 0 {
		return nil, fmt.Errorf("%w: missing format", ErrInvalidWAV)
	}

	sampleRate := buf.Format.SampleRate
	channels := buf.Format.NumChannels
	bitDepth := int(dec.BitDepth)

	samples := buf.Data
	if d.config.MaxDuration > 0 {
		limit := int(d.config.MaxDuration.Seconds()*float64(sampleRate)) * channels
		if limit < len(samples) {
			samples = samples[:limit]
		}
	}

	scale := depthScale(bitDepth)
	pcm := make([]float64, len(samples))
	for i, v := range samples {
		pcm[i] = float64(v) * scale
	}

	frames := len(pcm) / channels
	return &AudioData{
		PCM:        pcm,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   time.Duration(float64(frames) / float64(sampleRate) * float64(time.Second)),
		Timestamp:  time.Now(),
		Metadata: &AudioMetadata{
			Format:   "wav",
			BitDepth: bitDepth,
		},
	}, nil
}

// depthScale maps integer samples of the given depth onto 16-bit scale
func depthScale(bitDepth int) float64 {
	if bitDepth <= 0 || bitDepth == pcmScaleBits {
		return 1
	}
	if bitDepth > pcmScaleBits {
		return 1 / float64(int(1)<<(bitDepth-pcmScaleBits))
	}
	return float64(int(1) << (pcmScaleBits - bitDepth))
}
