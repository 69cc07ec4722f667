// Package content decides the raw body of a file that does not carry one
// inline: a configured template, a configured body keyed by file name or
// pattern, or a default for the file's type.
package content

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/agentic-research/fsbuild/api"
	"github.com/agentic-research/fsbuild/internal/config"
	"gopkg.in/yaml.v3"
)

// Source tells where a body came from.
type Source string

const (
	SourceInline   Source = "inline"
	SourceTemplate Source = "template"
	SourceExact    Source = "file_contents"
	SourcePattern  Source = "file_contents_pattern"
	SourceDefault  Source = "default"
	SourceNone     Source = "none"
)

// Body is a resolved raw body. Templated bodies still need substitution;
// defaults are final text.
type Body struct {
	Text      string
	Source    Source
	Templated bool
}

type pattern struct {
	key string
	re  *regexp.Regexp
}

// Resolver resolves bodies against an optional configuration.
type Resolver struct {
	cfg      *config.Config
	patterns []pattern
}

// NewResolver compiles the file_contents patterns of cfg. cfg may be nil.
func NewResolver(cfg *config.Config) (*Resolver, error) {
	r := &Resolver{cfg: cfg}
	for _, k := range cfg.PatternKeys() {
		// Patterns match from the start of the name.
		re, err := regexp.Compile("^(?:" + k + ")")
		if err != nil {
			return nil, &api.Error{
				Op:   "content",
				Kind: api.KindInvalidDescription,
				Err:  fmt.Errorf("file_contents pattern %q: %w", k, err),
			}
		}
		r.patterns = append(r.patterns, pattern{key: k, re: re})
	}
	return r, nil
}

// Resolve returns the raw body for f, whose name has already been resolved
// to name.
func (r *Resolver) Resolve(f *api.File, name string) (Body, error) {
	if f.Body != "" {
		return Body{Text: f.Body, Source: SourceInline, Templated: true}, nil
	}

	if f.Template != "" {
		text, err := r.template(f.Template)
		if err != nil {
			return Body{}, err
		}
		return Body{Text: text, Source: SourceTemplate, Templated: true}, nil
	}

	if r != nil && r.cfg != nil {
		if text, ok := r.cfg.FileContents[name]; ok {
			return Body{Text: text, Source: SourceExact, Templated: true}, nil
		}
		for _, p := range r.patterns {
			if p.re.MatchString(name) {
				return Body{Text: r.cfg.FileContents[p.key], Source: SourcePattern, Templated: true}, nil
			}
		}
	}

	if f.Type != "" {
		return Body{Text: Default(f.Type, name), Source: SourceDefault}, nil
	}
	return Body{Source: SourceNone}, nil
}

func (r *Resolver) template(ref string) (string, error) {
	var cfg *config.Config
	if r != nil {
		cfg = r.cfg
	}
	if strings.HasPrefix(ref, "$") {
		text, ok, err := cfg.Query(ref)
		if err != nil {
			return "", &api.Error{Op: "content.template", Kind: api.KindInvalidDescription, Err: err}
		}
		if !ok {
			return "", &api.Error{Op: "content.template", Kind: api.KindInvalidDescription, Err: fmt.Errorf("jsonpath %q matched nothing", ref)}
		}
		return text, nil
	}
	text, ok := cfg.Template(ref)
	if !ok {
		return "", &api.Error{Op: "content.template", Kind: api.KindInvalidDescription, Err: fmt.Errorf("unknown template %q", ref)}
	}
	return text, nil
}

// Default returns the built-in body for a file of type t named name.
func Default(t api.FileType, name string) string {
	switch t {
	case api.FileText:
		return "# File: " + name + "\n"
	case api.FileJSON:
		return "{\n  \"name\": " + strconv.Quote(name) + "\n}\n"
	case api.FileYAML:
		doc, err := yaml.Marshal(map[string]string{"name": name})
		if err != nil {
			return ""
		}
		return "# " + oneLine.Replace(name) + "\n" + string(doc)
	case api.FileXML:
		var b strings.Builder
		b.WriteString("<?xml version=\"1.0\"?>\n<root>\n  <file>")
		_ = xml.EscapeText(&b, []byte(name))
		b.WriteString("</file>\n</root>\n")
		return b.String()
	default:
		return ""
	}
}

var oneLine = strings.NewReplacer("\r", " ", "\n", " ")
