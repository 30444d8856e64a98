package temporal

import (
	"math"
	"testing"
)

func TestComputeShortTimeEnergy(t *testing.T) {
	e := NewEnergy(4, 2, 8)
	signal := []float64{1, 1, 1, 1, 0, 0, 0, 0}

	got := e.ComputeShortTimeEnergy(signal)
	want := []float64{1, math.Sqrt(0.5), 0}
	if len(got) != len(want) {
		t.Fatalf("frames = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("frame %d = %v, want %v", i, got[i], want[i])
		}
	}

	if e.FrameSeconds() != 0.25 {
		t.Errorf("FrameSeconds = %v", e.FrameSeconds())
	}
	if len(e.ComputeShortTimeEnergy([]float64{1})) != 0 {
		t.Error("signal shorter than a frame should yield no frames")
	}
}

func TestComputeLogEnergyFloor(t *testing.T) {
	e := NewEnergy(2, 2, 4)
	got := e.ComputeLogEnergy([]float64{0, 0, 1, 1}, 1e-5)
	if math.Abs(got[0]+100) > 1e-9 || math.Abs(got[1]) > 1e-9 {
		t.Errorf("log energy = %v", got)
	}
}

func TestNewEnergyForDuration(t *testing.T) {
	e := NewEnergyForDuration(0.02, 0.01, 16000)
	if e.frameSize != 320 || e.hopSize != 160 {
		t.Errorf("frame/hop = %d/%d", e.frameSize, e.hopSize)
	}
}

func TestDownsample(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		maxPoints int
		wantLen   int
	}{
		{"short", 10, 100, 10},
		{"exact", 100, 100, 100},
		{"double", 200, 100, 100},
		{"uneven", 250, 100, 125},
		{"empty", 0, 100, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signal := make([]float64, tt.n)
			for i := range signal {
				signal[i] = float64(i)
			}
			values, idx := Downsample(signal, tt.maxPoints)
			if len(values) != tt.wantLen || len(idx) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(values), tt.wantLen)
			}
			for i := range values {
				if values[i] != float64(idx[i]) {
					t.Errorf("value %v does not match index %d", values[i], idx[i])
				}
			}
		})
	}
}

func TestSegmentation(t *testing.T) {
	s := NewSegmentation(0.1)
	envelope := []float64{0, 0, 1, 1, 0, 0, 0, 1, 0, 1, 1, 0}

	segments := s.Split(envelope, 0.5)
	if len(segments) != 7 {
		t.Fatalf("segments = %d, want 7: %+v", len(segments), segments)
	}
	if segments[0].Voiced || !segments[1].Voiced || segments[1].StartFrame != 2 || segments[1].EndFrame != 4 {
		t.Errorf("unexpected leading segments: %+v", segments[:2])
	}

	pauses := s.Pauses(segments, 0.15)
	if len(pauses) != 1 || math.Abs(pauses[0]-0.3) > 1e-12 {
		t.Errorf("pauses = %v, want [0.3]", pauses)
	}

	all := s.Pauses(segments, 0)
	if len(all) != 2 {
		t.Errorf("pauses without minimum = %v", all)
	}

	if v := s.VoicedSeconds(segments); math.Abs(v-0.5) > 1e-12 {
		t.Errorf("voiced = %v, want 0.5", v)
	}

	if len(s.Split(nil, 0.5)) != 0 {
		t.Error("empty envelope should yield no segments")
	}
}
