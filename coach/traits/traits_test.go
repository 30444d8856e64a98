package traits

import (
	"math"
	"testing"
)

func TestClassifyBoundaries(t *testing.T) {
	ranges := DefaultRanges()
	const eps = 1e-9

	tests := []struct {
		name  string
		trait Name
		value float64
		want  Category
	}{
		{"speed at lo", Speed, 120, Good},
		{"speed at hi", Speed, 150, Good},
		{"speed below", Speed, 120 - eps, TooSlow},
		{"speed above", Speed, 150 + eps, TooFast},
		{"intonation below", Intonation, 0.4, TooFlat},
		{"intonation above", Intonation, 1.6, TooVaried},
		{"loudness below", Loudness, 59.9, TooQuiet},
		{"loudness above", Loudness, 75.1, TooLoud},
		{"clarity below", Clarity, 0.69, Unclear},
		{"clarity above is one-sided", Clarity, 1.5, Good},
		{"pause below", Pause, 0.2, TooFew},
		{"pause above", Pause, 2.5, TooMany},
		{"pause at lo", Pause, 0.5, Good},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.trait, tt.value, ranges[tt.trait]); got != tt.want {
				t.Errorf("Classify(%s, %v) = %s, want %s", tt.trait, tt.value, got, tt.want)
			}
		})
	}
}

func TestEvaluateSkipsMissing(t *testing.T) {
	values := Values{Speed: 130, Clarity: 0.5, "volume": 3}
	ranges := map[Name]Range{Speed: {120, 150}, Clarity: {0.7, 1}, Pause: {0.5, 2}}

	eval := Evaluate(values, ranges)
	if len(eval) != 2 {
		t.Fatalf("len(eval) = %d, want 2: %v", len(eval), eval)
	}
	if eval[Speed] != Good || eval[Clarity] != Unclear {
		t.Errorf("eval = %v", eval)
	}

	// Identical input yields identical output
	again := Evaluate(values, ranges)
	for k, v := range eval {
		if again[k] != v {
			t.Errorf("non-deterministic result for %s", k)
		}
	}
}

func TestRadarScores(t *testing.T) {
	values := Values{Speed: 270, Intonation: 1, Loudness: -10, Clarity: math.NaN(), Pause: 1.5}
	scores := RadarScores(values, DefaultRadarScales())

	want := Values{Speed: 1, Intonation: 0.5, Loudness: 0, Clarity: 0, Pause: 0.5}
	for n, w := range want {
		if math.Abs(scores[n]-w) > 1e-12 {
			t.Errorf("score[%s] = %v, want %v", n, scores[n], w)
		}
	}
}

func TestWeakestStrongest(t *testing.T) {
	tests := []struct {
		name      string
		scores    Values
		weakest   Name
		strongest Name
		ok        bool
	}{
		{"distinct", Values{Speed: 0.8, Intonation: 0.2, Loudness: 0.9}, Intonation, Loudness, true},
		{"tie goes to canonical order", Values{Pause: 0.3, Speed: 0.3, Clarity: 0.3}, Speed, Speed, true},
		{"empty", Values{}, "", "", false},
		{"unknown only", Values{"volume": 1}, "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, ok := Weakest(tt.scores)
			if ok != tt.ok || w != tt.weakest {
				t.Errorf("Weakest = %q,%v want %q,%v", w, ok, tt.weakest, tt.ok)
			}
			s, _ := Strongest(tt.scores)
			if s != tt.strongest {
				t.Errorf("Strongest = %q, want %q", s, tt.strongest)
			}
		})
	}
}

func TestCategoriesAndParse(t *testing.T) {
	if got := Categories(Clarity); len(got) != 2 {
		t.Errorf("Categories(clarity) = %v", got)
	}
	if got := Categories(Speed); len(got) != 3 {
		t.Errorf("Categories(speed) = %v", got)
	}
	if _, err := ParseName("pause"); err != nil {
		t.Errorf("ParseName(pause): %v", err)
	}
	if _, err := ParseName("volume"); err == nil {
		t.Error("expected error for unknown trait")
	}
}

func TestGoodCount(t *testing.T) {
	good, total := Evaluation{Speed: Good, Pause: TooFew, Clarity: Good}.GoodCount()
	if good != 2 || total != 3 {
		t.Errorf("GoodCount = %d/%d", good, total)
	}
}
