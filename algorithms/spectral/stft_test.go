package spectral

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-coach/algorithms/windowing"
)

func sine(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

func TestFrameCount(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want int
	}{
		{"empty", 0, 0},
		{"shorter than window", 100, 1},
		{"exactly one window", 1024, 1},
		{"one sample over", 1025, 2},
		{"exact hops", 1024 + 512*3, 4},
		{"partial tail", 1024 + 512*3 + 10, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FrameCount(tt.n, 1024, 512); got != tt.want {
				t.Errorf("FrameCount(%d) = %d, want %d", tt.n, got, tt.want)
			}
		})
	}
}

func TestSTFTPeakBin(t *testing.T) {
	const sampleRate = 16000
	// 1000 Hz lands exactly on bin 64 for a 1024-point transform
	signal := sine(1000, sampleRate, sampleRate)

	result, err := NewSTFT().ComputeWithWindow(signal, 1024, 512, sampleRate, windowing.NewHann(1024))
	if err != nil {
		t.Fatalf("ComputeWithWindow: %v", err)
	}

	if result.FreqBins != 513 {
		t.Fatalf("FreqBins = %d, want 513", result.FreqBins)
	}
	if result.TimeFrames != FrameCount(len(signal), 1024, 512) {
		t.Fatalf("TimeFrames = %d", result.TimeFrames)
	}

	frame := result.Magnitude[2]
	peak := 0
	for k := range frame {
		if frame[k] > frame[peak] {
			peak = k
		}
	}
	if peak != 64 {
		t.Errorf("peak bin = %d, want 64", peak)
	}
}

func TestSTFTZeroPadsTail(t *testing.T) {
	signal := make([]float64, 1500)
	for i := range signal {
		signal[i] = 1
	}

	result, err := NewSTFT().ComputeWithWindow(signal, 1024, 512, 8000, nil)
	if err != nil {
		t.Fatalf("ComputeWithWindow: %v", err)
	}
	if result.TimeFrames != 2 {
		t.Fatalf("TimeFrames = %d, want 2", result.TimeFrames)
	}

	// Without a window the DC bin is the sum of the frame: 988 real samples
	// followed by zero padding.
	if dc := result.Magnitude[1][0]; math.Abs(dc-988) > 1e-9 {
		t.Errorf("padded frame DC = %v, want 988", dc)
	}
}

func TestSTFTRejectsBadInput(t *testing.T) {
	s := NewSTFT()
	if _, err := s.ComputeWithWindow(nil, 1024, 512, 16000, nil); err == nil {
		t.Error("expected error for empty signal")
	}
	if _, err := s.ComputeWithWindow([]float64{1}, 0, 512, 16000, nil); err == nil {
		t.Error("expected error for zero window")
	}
	if _, err := s.ComputeWithWindow([]float64{1}, 1024, 512, 0, nil); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestBinFrequencies(t *testing.T) {
	freqs := BinFrequencies(1024, 16000)
	if len(freqs) != 513 {
		t.Fatalf("len = %d, want 513", len(freqs))
	}
	if freqs[0] != 0 {
		t.Errorf("freqs[0] = %v", freqs[0])
	}
	if math.Abs(freqs[1]-15.625) > 1e-9 {
		t.Errorf("freqs[1] = %v, want 15.625", freqs[1])
	}
	if math.Abs(freqs[512]-8000) > 1e-9 {
		t.Errorf("nyquist = %v, want 8000", freqs[512])
	}

	if len(BinFrequencies(0, 16000)) != 0 || len(BinFrequencies(1024, 0)) != 0 {
		t.Error("invalid input should yield no bins")
	}
}

func TestSumBands(t *testing.T) {
	freqs := []float64{0, 100, 400, 2000, 3000, 5000}
	magnitude := [][]float64{
		{1, 1, 2, 2, 3, 3},
		{1, 1, 2, 2, 3, 3},
	}

	sums := SumBands(magnitude, freqs, 300, 3000)
	if sums.Low != 4 || sums.Mid != 8 || sums.High != 12 || sums.Total != 24 {
		t.Fatalf("sums = %+v", sums)
	}

	low, mid, high := sums.Ratios(1e-12)
	if math.Abs(low+mid+high-1) > 1e-9 {
		t.Errorf("ratios sum to %v", low+mid+high)
	}

	low, mid, high = BandSums{}.Ratios(1e-12)
	if low != 0 || mid != 0 || high != 0 {
		t.Errorf("silent spectrum ratios = %v %v %v", low, mid, high)
	}
}

func TestLogMagnitude(t *testing.T) {
	magnitude := [][]float64{
		{0, 1},
		{10, 0},
	}

	db, minDB, maxDB := LogMagnitude(magnitude, 1e-8)
	if len(db) != 2 || len(db[0]) != 2 {
		t.Fatalf("unexpected shape %dx%d", len(db), len(db[0]))
	}
	if math.Abs(db[0][0]-(-160)) > 1e-6 {
		t.Errorf("floor = %v, want -160", db[0][0])
	}
	if math.Abs(db[0][1]-20) > 1e-6 {
		t.Errorf("db[0][1] = %v, want 20 (transposed)", db[0][1])
	}
	if math.Abs(minDB-(-160)) > 1e-6 || math.Abs(maxDB-20) > 1e-6 {
		t.Errorf("min/max = %v/%v", minDB, maxDB)
	}

	if db, _, _ := LogMagnitude(nil, 1e-8); len(db) != 0 {
		t.Errorf("empty input should give empty matrix")
	}
}
