package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Chooser picks an index in [0, n). *rand.Rand satisfies it.
type Chooser interface {
	Intn(n int) int
}

type lockedChooser struct {
	mu  sync.Mutex
	src Chooser
}

// NewLockedChooser makes a Chooser safe for concurrent use
func NewLockedChooser(src Chooser) Chooser {
	return &lockedChooser{src: src}
}

func (l *lockedChooser) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.src.Intn(n)
}

// Texts is the text of a rule: a single line, or a list of alternatives
type Texts []string

// UnmarshalYAML accepts a scalar or a sequence of scalars
func (t *Texts) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*t = nil
			return nil
		}
		*t = Texts{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*t = list
		return nil
	default:
		return fmt.Errorf("text must be a string or a list of strings (line %d)", node.Line)
	}
}

// UnmarshalJSON accepts a string or an array of strings
func (t *Texts) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*t = Texts{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("text must be a string or a list of strings: %w", err)
	}
	*t = list
	return nil
}

// nonEmpty drops blank alternatives
func (t Texts) nonEmpty() []string {
	out := make([]string, 0, len(t))
	for _, s := range t {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

// Rule emits its text when its condition holds
type Rule struct {
	If   string `json:"if" yaml:"if"`
	Text Texts  `json:"text" yaml:"text"`
}

// SectionTemplate is a heading with an ordered list of rules
type SectionTemplate struct {
	Heading string `json:"heading" yaml:"heading"`
	Rules   []Rule `json:"rules" yaml:"rules"`
}

// Template is the decoded form of a template file
type Template struct {
	Sections []SectionTemplate `json:"sections" yaml:"sections"`
}

// ParseTemplate decodes YAML, or JSON since JSON is valid YAML
func ParseTemplate(data []byte) (*Template, error) {
	var tpl Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &tpl, nil
}

// LoadTemplateFile reads and decodes a template file
func LoadTemplateFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	return ParseTemplate(data)
}

// Section is a rendered section: a heading and the lines of firing rules
type Section struct {
	Heading string   `json:"heading"`
	Lines   []string `json:"lines"`
}

// Sections is an ordered list of rendered sections
type Sections []Section

// Markdown renders each section as a "---" separated "## heading" block of
// bullet lines. No sections render as the empty string.
func (s Sections) Markdown() string {
	var sb strings.Builder
	for _, sec := range s {
		sb.WriteString("\n---\n\n## ")
		sb.WriteString(sec.Heading)
		sb.WriteString("\n")
		for i, line := range sec.Lines {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString("- ")
			sb.WriteString(line)
		}
	}
	return sb.String()
}

type compiledRule struct {
	source string
	expr   Expr // nil when the condition failed to compile
	err    error
	texts  []string
}

type compiledSection struct {
	heading string
	rules   []compiledRule
}

// CompiledTemplate is a template whose conditions have been parsed and
// validated once. Rules whose condition failed to compile never fire.
type CompiledTemplate struct {
	sections []compiledSection
}

// CompileTemplate compiles every rule of tpl. Rules with an empty condition
// or no text are dropped, and sections without a heading get
// defaultHeading.
func CompileTemplate(tpl *Template, defaultHeading string) *CompiledTemplate {
	ct := &CompiledTemplate{}
	if tpl == nil {
		return ct
	}

	for _, sec := range tpl.Sections {
		cs := compiledSection{heading: strings.TrimSpace(sec.Heading)}
		if cs.heading == "" {
			cs.heading = defaultHeading
		}

		for _, rule := range sec.Rules {
			cond := strings.TrimSpace(rule.If)
			texts := rule.Text.nonEmpty()
			if cond == "" || len(texts) == 0 {
				continue
			}

			expr, err := Compile(cond)
			cs.rules = append(cs.rules, compiledRule{
				source: cond,
				expr:   expr,
				err:    err,
				texts:  texts,
			})
		}

		ct.sections = append(ct.sections, cs)
	}

	return ct
}

// Errors returns the compile error of every rule that can never fire
func (ct *CompiledTemplate) Errors() []error {
	var errs []error
	for _, sec := range ct.sections {
		for _, r := range sec.rules {
			if r.err != nil {
				errs = append(errs, fmt.Errorf("rule %q: %w", r.source, r.err))
			}
		}
	}
	return errs
}

// Render evaluates every rule against env. A firing rule contributes its
// text, or one alternative picked by chooser. Sections where nothing fired
// are omitted. Evaluation errors count as non-matches.
func (ct *CompiledTemplate) Render(env Env, chooser Chooser) Sections {
	out := Sections{}
	if ct == nil {
		return out
	}

	for _, sec := range ct.sections {
		var lines []string
		for _, r := range sec.rules {
			if r.expr == nil {
				continue
			}
			ok, err := Truthy(r.expr, env)
			if err != nil || !ok {
				continue
			}
			lines = append(lines, pickText(r.texts, chooser))
		}
		if len(lines) > 0 {
			out = append(out, Section{Heading: sec.heading, Lines: lines})
		}
	}

	return out
}

func pickText(texts []string, chooser Chooser) string {
	if len(texts) == 1 || chooser == nil {
		return texts[0]
	}
	i := chooser.Intn(len(texts))
	if i < 0 || i >= len(texts) {
		i = 0
	}
	return texts[i]
}
