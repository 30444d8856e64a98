package extractors

import (
	"math/rand"
	"sync"
	"time"

	"github.com/RyanBlaney/sonido-coach/coach/traits"
)

// interval is a closed sampling range for one trait
type interval struct {
	lo, hi float64
}

// Pattern is a canned speaking style the synthetic extractor draws from
type Pattern struct {
	Name      string
	intervals map[traits.Name]interval
}

// Patterns lists the five speaking styles of the placeholder model
var Patterns = []Pattern{
	{
		Name: "fast_flat",
		intervals: map[traits.Name]interval{
			traits.Speed:      {160, 180},
			traits.Intonation: {0.3, 0.5},
			traits.Loudness:   {60, 70},
			traits.Clarity:    {0.6, 0.8},
			traits.Pause:      {0.2, 0.4},
		},
	},
	{
		Name: "slow_expressive",
		intervals: map[traits.Name]interval{
			traits.Speed:      {100, 120},
			traits.Intonation: {1.2, 1.8},
			traits.Loudness:   {65, 75},
			traits.Clarity:    {0.8, 1.0},
			traits.Pause:      {1.5, 2.5},
		},
	},
	{
		Name: "quiet",
		intervals: map[traits.Name]interval{
			traits.Speed:      {130, 150},
			traits.Intonation: {0.4, 0.6},
			traits.Loudness:   {50, 60},
			traits.Clarity:    {0.5, 0.7},
			traits.Pause:      {0.5, 1.0},
		},
	},
	{
		Name: "balanced",
		intervals: map[traits.Name]interval{
			traits.Speed:      {130, 150},
			traits.Intonation: {0.8, 1.2},
			traits.Loudness:   {65, 75},
			traits.Clarity:    {0.8, 1.0},
			traits.Pause:      {0.8, 1.5},
		},
	},
	{
		Name: "energetic",
		intervals: map[traits.Name]interval{
			traits.Speed:      {140, 160},
			traits.Intonation: {1.5, 1.8},
			traits.Loudness:   {75, 85},
			traits.Clarity:    {0.7, 0.9},
			traits.Pause:      {0.3, 0.8},
		},
	},
}

// Contains reports whether every trait in v lies in the pattern's intervals
func (p Pattern) Contains(v traits.Values) bool {
	for n, iv := range p.intervals {
		x, ok := v[n]
		if !ok || x < iv.lo || x > iv.hi {
			return false
		}
	}
	return true
}

// SyntheticExtractor ignores the audio and returns values drawn from one of
// the canned speaking patterns. It stands in for a real acoustic model.
type SyntheticExtractor struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSyntheticExtractor creates a synthetic extractor. A zero seed seeds
// from the clock.
func NewSyntheticExtractor(seed int64) *SyntheticExtractor {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SyntheticExtractor{rng: rand.New(rand.NewSource(seed))}
}

func (s *SyntheticExtractor) Name() string { return "synthetic" }

// Extract picks a pattern at random and samples each trait uniformly from it
func (s *SyntheticExtractor) Extract(samples []float64, sampleRate int) (traits.Values, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := Patterns[s.rng.Intn(len(Patterns))]
	values := make(traits.Values, len(traits.Order))
	for _, n := range traits.Order {
		iv := p.intervals[n]
		values[n] = iv.lo + s.rng.Float64()*(iv.hi-iv.lo)
	}
	return values, nil
}
