package traits

import (
	"fmt"
	"math"
)

// Name identifies one of the five voice traits
type Name string

const (
	Speed      Name = "speed"
	Intonation Name = "intonation"
	Loudness   Name = "loudness"
	Clarity    Name = "clarity"
	Pause      Name = "pause"
)

// Order is the canonical trait order used for rendering and tie-breaks
var Order = []Name{Speed, Intonation, Loudness, Clarity, Pause}

// Category is the categorical evaluation of a single trait
type Category string

const (
	Good      Category = "good"
	TooSlow   Category = "too_slow"
	TooFast   Category = "too_fast"
	TooFlat   Category = "too_flat"
	TooVaried Category = "too_varied"
	TooQuiet  Category = "too_quiet"
	TooLoud   Category = "too_loud"
	Unclear   Category = "unclear"
	TooFew    Category = "too_few"
	TooMany   Category = "too_many"
)

// categories maps each trait to its low-side and high-side category. An
// empty high-side category means the trait is one-sided.
var categories = map[Name][2]Category{
	Speed:      {TooSlow, TooFast},
	Intonation: {TooFlat, TooVaried},
	Loudness:   {TooQuiet, TooLoud},
	Clarity:    {Unclear, ""},
	Pause:      {TooFew, TooMany},
}

// Range is an inclusive ideal range
type Range struct {
	Lo float64 `json:"lo" yaml:"lo"`
	Hi float64 `json:"hi" yaml:"hi"`
}

// Contains reports whether v lies within the range, boundaries included
func (r Range) Contains(v float64) bool {
	return v >= r.Lo && v <= r.Hi
}

// Values holds one scalar per trait
type Values map[Name]float64

// Evaluation holds one category per trait
type Evaluation map[Name]Category

// ParseName validates a trait name
func ParseName(s string) (Name, error) {
	n := Name(s)
	if _, ok := categories[n]; !ok {
		return "", fmt.Errorf("unknown trait %q", s)
	}
	return n, nil
}

// Categories returns every category valid for the trait, Good first
func Categories(n Name) []Category {
	c, ok := categories[n]
	if !ok {
		return nil
	}
	out := []Category{Good, c[0]}
	if c[1] != "" {
		out = append(out, c[1])
	}
	return out
}

// DefaultRanges returns the ideal range for each trait
func DefaultRanges() map[Name]Range {
	return map[Name]Range{
		Speed:      {Lo: 120, Hi: 150}, // words per minute
		Intonation: {Lo: 0.5, Hi: 1.5},
		Loudness:   {Lo: 60, Hi: 75}, // dB
		Clarity:    {Lo: 0.7, Hi: 1.0},
		Pause:      {Lo: 0.5, Hi: 2.0}, // seconds
	}
}

// DefaultRadarScales returns the divisor mapping each raw trait value onto
// the radar chart's 0..1 axis
func DefaultRadarScales() map[Name]float64 {
	return map[Name]float64{
		Speed:      180,
		Intonation: 2,
		Loudness:   100,
		Clarity:    1,
		Pause:      3,
	}
}

// Classify places a single value against a trait's range
func Classify(n Name, v float64, r Range) Category {
	c, ok := categories[n]
	if !ok {
		return ""
	}
	switch {
	case v < r.Lo:
		return c[0]
	case v > r.Hi && c[1] != "":
		return c[1]
	default:
		return Good
	}
}

// Evaluate classifies every trait present in both values and ranges. Traits
// missing from either map are skipped.
func Evaluate(values Values, ranges map[Name]Range) Evaluation {
	eval := make(Evaluation, len(values))
	for _, n := range Order {
		v, ok := values[n]
		if !ok {
			continue
		}
		r, ok := ranges[n]
		if !ok {
			continue
		}
		eval[n] = Classify(n, v, r)
	}
	return eval
}

// RadarScores divides each value by its scale and clamps into [0, 1].
// Non-finite values and traits without a positive scale score 0.
func RadarScores(values Values, scales map[Name]float64) Values {
	scores := make(Values, len(Order))
	for _, n := range Order {
		v, ok := values[n]
		if !ok {
			continue
		}
		s := scales[n]
		if s <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			scores[n] = 0
			continue
		}
		scores[n] = math.Max(0, math.Min(1, v/s))
	}
	return scores
}

// Weakest returns the trait with the smallest score. Ties go to the trait
// that comes first in Order. ok is false when no known trait is present.
func Weakest(scores Values) (Name, bool) {
	return pick(scores, func(a, b float64) bool { return a < b })
}

// Strongest returns the trait with the largest score, with the same
// tie-break as Weakest
func Strongest(scores Values) (Name, bool) {
	return pick(scores, func(a, b float64) bool { return a > b })
}

func pick(scores Values, better func(a, b float64) bool) (Name, bool) {
	var best Name
	found := false
	for _, n := range Order {
		v, ok := scores[n]
		if !ok || math.IsNaN(v) {
			continue
		}
		if !found || better(v, scores[best]) {
			best = n
			found = true
		}
	}
	return best, found
}

// Slice returns the values in canonical order, 0 for missing traits
func (v Values) Slice() []float64 {
	out := make([]float64, len(Order))
	for i, n := range Order {
		out[i] = v[n]
	}
	return out
}

// GoodCount returns how many traits evaluated as Good and the total count
func (e Evaluation) GoodCount() (good, total int) {
	for _, c := range e {
		if c == Good {
			good++
		}
		total++
	}
	return good, total
}
