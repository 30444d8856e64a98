package recommend

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/RyanBlaney/sonido-coach/coach/cache"
	"github.com/RyanBlaney/sonido-coach/coach/config"
	"github.com/RyanBlaney/sonido-coach/coach/rules"
	"github.com/RyanBlaney/sonido-coach/coach/traits"
	"github.com/RyanBlaney/sonido-coach/logging"
)

// TargetConfidence is an episode target outside the five traits, offered to
// very quiet speakers
const TargetConfidence = "confidence"

// QuietDBFS is the level below which loudness and confidence episodes are
// offered when nothing targets the weakest trait
const QuietDBFS = -30.0

// Heading of the recommendation section
const Heading = "Picked for you today 🎧"

// Episode is one catalogue entry
type Episode struct {
	Title     string   `json:"title" yaml:"title"`
	URL       string   `json:"url" yaml:"url"`
	Reason    string   `json:"reason" yaml:"reason"`
	Presenter string   `json:"presenter,omitempty" yaml:"presenter"`
	Targets   []string `json:"targets" yaml:"targets"`
}

// Catalogue is the episode file layout
type Catalogue struct {
	Episodes []Episode `json:"episodes" yaml:"episodes"`
}

// ParseCatalogue decodes a YAML (or JSON) episode catalogue
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse episode catalogue: %w", err)
	}
	return &c, nil
}

// LoadCatalogueFile reads and parses an episode catalogue
func LoadCatalogueFile(path string) (*Catalogue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read episode catalogue: %w", err)
	}
	return ParseCatalogue(data)
}

// Recommendation is the picked episode with its framing text
type Recommendation struct {
	Target  traits.Name `json:"target,omitempty"`
	Intro   string      `json:"intro"`
	Episode Episode     `json:"episode"`
}

// Markdown renders the recommendation as a report section
func (r *Recommendation) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n---\n\n## %s\n\n%s\n\n", Heading, r.Intro)
	fmt.Fprintf(&b, "▶️ **[%s](%s)**\n", r.Episode.Title, r.Episode.URL)
	if r.Episode.Presenter != "" {
		fmt.Fprintf(&b, "%s\n", r.Episode.Presenter)
	}
	b.WriteString("\n**Why:**\n")
	if r.Episode.Reason != "" {
		fmt.Fprintf(&b, "- %s\n", r.Episode.Reason)
	}
	b.WriteString("- It suits the current state of your voice from this analysis.\n")
	return b.String()
}

// Recommender picks a catalogue episode for the weakest trait
type Recommender struct {
	episodes *cache.FileCache[*Catalogue]
	chooser  rules.Chooser
	config   *config.AnalysisConfig
	logger   logging.Logger
}

// NewRecommender creates a recommender reading the catalogue at path
// through the cache manager
func NewRecommender(m *cache.Manager, path string, chooser rules.Chooser, cfg *config.AnalysisConfig) *Recommender {
	if cfg == nil {
		cfg = config.DefaultAnalysisConfig()
	}
	return &Recommender{
		episodes: cache.NewFileCache(m, path, LoadCatalogueFile),
		chooser:  chooser,
		config:   cfg,
		logger: logging.WithFields(logging.Fields{
			"component": "recommender",
			"path":      path,
		}),
	}
}

// Pick chooses an episode: those targeting the weakest trait first, then for
// quiet recordings those targeting loudness or confidence, then any episode.
// An empty or unreadable catalogue yields no recommendation.
func (r *Recommender) Pick(scores traits.Values, dbfs float64) (*Recommendation, bool) {
	cat, err := r.episodes.Get()
	if err != nil {
		r.logger.Warn("Episode catalogue unavailable", logging.Fields{
			"error": err.Error(),
		})
		return nil, false
	}
	if cat == nil || len(cat.Episodes) == 0 {
		return nil, false
	}

	target, hasTarget := traits.Weakest(scores)

	var candidates []Episode
	if hasTarget {
		candidates = filter(cat.Episodes, string(target))
	}
	if len(candidates) == 0 && dbfs < QuietDBFS {
		candidates = filter(cat.Episodes, string(traits.Loudness), TargetConfidence)
	}
	if len(candidates) == 0 {
		candidates = cat.Episodes
	}

	ep := candidates[0]
	if r.chooser != nil && len(candidates) > 1 {
		ep = candidates[r.chooser.Intn(len(candidates))]
	}

	rec := &Recommendation{Episode: ep, Intro: r.config.Feedback.DefaultIntro}
	if hasTarget {
		rec.Target = target
		if intro := r.config.Traits[target].Intro; intro != "" {
			rec.Intro = intro
		}
	}

	r.logger.Debug("Picked episode", logging.Fields{
		"target":     target,
		"candidates": len(candidates),
		"title":      ep.Title,
	})
	return rec, true
}

func filter(episodes []Episode, targets ...string) []Episode {
	var out []Episode
	for _, ep := range episodes {
		for _, t := range targets {
			if slices.Contains(ep.Targets, t) {
				out = append(out, ep)
				break
			}
		}
	}
	return out
}
