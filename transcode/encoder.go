package transcode

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/RyanBlaney/sonido-coach/coach/analyzers"
)

// DefaultTargetPeak is the peak exported recordings are normalised to
// unless the caller asks for another
const DefaultTargetPeak = 0.98

const wavFormatPCM = 1

// TempFileName returns record_YYYYMMDD_HHMMSS.wav for t
func TempFileName(t time.Time) string {
	return "record_" + t.Format("20060102_150405") + ".wav"
}

// WriteTempWAV normalises samples to targetPeak, converts them to 16-bit PCM
// and writes them to a timestamped file in dir (the system temp dir when
// empty). It returns the file path.
func WriteTempWAV(dir string, sampleRate, channels int, targetPeak float64, samples []float64) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, TempFileName(time.Now()))
	if err := WriteWAV(path, sampleRate, channels, targetPeak, samples); err != nil {
		return "", err
	}
	return path, nil
}

// WriteWAV writes samples as a 16-bit PCM WAV file after normalising their
// peak to targetPeak, which must lie in (0, 1]
func WriteWAV(path string, sampleRate, channels int, targetPeak float64, samples []float64) error {
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("invalid format: %d Hz, %d channels", sampleRate, channels)
	}
	if targetPeak <= 0 || targetPeak > 1 {
		return fmt.Errorf("target peak must be in (0, 1], got %v", targetPeak)
	}

	pcm := analyzers.ToInt16(analyzers.NormalizeForSaving(samples, targetPeak))
	data := make([]int, len(pcm))
	for i, v := range pcm {
		data[i] = int(v)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output file creation error: %w", err)
	}
	defer out.Close()

	enc := wav.NewEncoder(out, sampleRate, 16, channels, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("data writing error: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalise WAV: %w", err)
	}
	return nil
}
