package rules

import (
	"github.com/RyanBlaney/sonido-coach/coach/cache"
	"github.com/RyanBlaney/sonido-coach/logging"
)

// Engine renders rule-based feedback from a hot-reloaded template file
type Engine struct {
	templates *cache.FileCache[*CompiledTemplate]
	chooser   Chooser
	logger    logging.Logger
}

// NewEngine creates an engine reading templates from path through the
// cache manager. Templates are recompiled only when the file's modification
// time changes.
func NewEngine(m *cache.Manager, path string, chooser Chooser, defaultHeading string) *Engine {
	logger := logging.WithFields(logging.Fields{
		"component": "rule_engine",
		"path":      path,
	})

	load := func(p string) (*CompiledTemplate, error) {
		tpl, err := LoadTemplateFile(p)
		if err != nil {
			return nil, err
		}
		ct := CompileTemplate(tpl, defaultHeading)
		for _, err := range ct.Errors() {
			logger.Warn("Template rule will never fire", logging.Fields{
				"error": err.Error(),
			})
		}
		return ct, nil
	}

	return &Engine{
		templates: cache.NewFileCache(m, path, load),
		chooser:   chooser,
		logger:    logger,
	}
}

// Render evaluates the current template against env. A missing or broken
// template file contributes no sections.
func (e *Engine) Render(env Env) Sections {
	ct, err := e.templates.Get()
	if err != nil {
		e.logger.Warn("Templates unavailable, skipping rule-based feedback", logging.Fields{
			"error": err.Error(),
		})
		return Sections{}
	}

	sections := ct.Render(env, e.chooser)
	e.logger.Debug("Rendered rule-based feedback", logging.Fields{
		"sections": len(sections),
	})
	return sections
}
