package coach

import (
	"github.com/RyanBlaney/sonido-coach/coach/cache"
	"github.com/RyanBlaney/sonido-coach/coach/extractors"
	"github.com/RyanBlaney/sonido-coach/coach/rules"
	"github.com/RyanBlaney/sonido-coach/logging"
)

// Option customises an Analyzer
type Option func(*Analyzer)

// WithLogger sets the analyzer's logger
func WithLogger(l logging.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithExtractor replaces the configured feature extractor
func WithExtractor(e extractors.FeatureExtractor) Option {
	return func(a *Analyzer) { a.extractor = e }
}

// WithChooser sets the random choice used for template text and episodes
func WithChooser(c rules.Chooser) Option {
	return func(a *Analyzer) { a.chooser = c }
}

// WithCacheManager shares a template/episode cache manager between analyzers
func WithCacheManager(m *cache.Manager) Option {
	return func(a *Analyzer) { a.cache = m }
}
