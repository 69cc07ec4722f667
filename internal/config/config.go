// Package config loads generator configuration: named templates, bodies
// keyed by file name or pattern, and attribute defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/agentic-research/fsbuild/api"
	"github.com/go-playground/validator/v10"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"
)

// Config is a loaded configuration document. The struct tags describe the
// document for Schema; decoding is done by hand so keys stay
// case-insensitive and scalars are coerced.
type Config struct {
	FileContents map[string]string `json:"file_contents,omitempty" jsonschema:"description=File bodies keyed by exact file name or by a regular expression matched against the start of the name"`
	Templates    map[string]string `json:"templates,omitempty" jsonschema:"description=Named bodies referenced by the template attribute"`
	Defaults     Defaults          `json:"defaults,omitempty"`

	doc any
}

// Defaults holds attribute defaults applied to files the description
// leaves unset.
type Defaults struct {
	Encoding        string `json:"encoding,omitempty" jsonschema:"example=UTF-8"`
	ReplaceIfExists *bool  `json:"replaceifexists,omitempty"`
	Type            string `json:"type,omitempty" validate:"omitempty,oneof=text binary json yaml xml" jsonschema:"enum=text,enum=binary,enum=json,enum=yaml,enum=xml"`
	Permissions     string `json:"permissions,omitempty" validate:"omitempty,octalperm" jsonschema:"oneof_type=string;integer,description=Octal file mode such as 644"`
	Executable      bool   `json:"executable,omitempty"`
	Format          bool   `json:"format,omitempty" jsonschema:"description=Format generated .go and .hcl/.tf files"`
	MaxIterations   int    `json:"max_iterations,omitempty" validate:"gte=0" jsonschema:"minimum=0,description=Iteration cap per loop; 0 keeps the built-in cap"`
}

// Load reads a JSON or YAML configuration file, selected by extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data according to ext (".json", ".yaml" or ".yml").
func Parse(data []byte, ext string) (*Config, error) {
	var doc any
	switch strings.ToLower(ext) {
	case ".json":
		v, err := oj.Parse(data)
		if err != nil {
			return nil, invalid(fmt.Errorf("parse json: %w", err))
		}
		doc = v
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, invalid(fmt.Errorf("parse yaml: %w", err))
		}
	default:
		return nil, invalid(fmt.Errorf("unsupported config format: %q", ext))
	}
	return fromDocument(doc)
}

// Empty returns a configuration with no templates and default attributes.
func Empty() *Config {
	return &Config{FileContents: map[string]string{}, Templates: map[string]string{}, doc: map[string]any{}}
}

func fromDocument(doc any) (*Config, error) {
	if doc == nil {
		return Empty(), nil
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, invalid(errors.New("top level must be an object"))
	}

	cfg := &Config{doc: root}
	var err error
	if cfg.FileContents, err = stringMap(root, "file_contents"); err != nil {
		return nil, err
	}
	if cfg.Templates, err = stringMap(root, "templates"); err != nil {
		return nil, err
	}
	if cfg.Defaults, err = defaults(root["defaults"]); err != nil {
		return nil, err
	}
	if err := validate(cfg.Defaults); err != nil {
		return nil, err
	}
	return cfg, nil
}

func stringMap(root map[string]any, key string) (map[string]string, error) {
	out := map[string]string{}
	raw, ok := root[key]
	if !ok || raw == nil {
		return out, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, invalid(fmt.Errorf("%s must be an object", key))
	}
	for k, v := range m {
		s, ok := v.(string)
		if !ok {
			return nil, invalid(fmt.Errorf("%s.%s must be a string", key, k))
		}
		out[k] = s
	}
	return out, nil
}

func defaults(raw any) (Defaults, error) {
	var d Defaults
	if raw == nil {
		return d, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return d, invalid(errors.New("defaults must be an object"))
	}
	for k, v := range m {
		var err error
		switch strings.ToLower(k) {
		case "encoding":
			d.Encoding, err = AsString(k, v)
		case "replaceifexists":
			var b bool
			b, err = AsBool(k, v)
			d.ReplaceIfExists = &b
		case "type":
			d.Type, err = AsString(k, v)
			d.Type = strings.ToLower(d.Type)
		case "permissions":
			d.Permissions, err = AsString(k, v)
		case "executable":
			d.Executable, err = AsBool(k, v)
		case "format":
			d.Format, err = AsBool(k, v)
		case "max_iterations":
			var n int64
			n, err = AsInt(k, v)
			d.MaxIterations = int(n)
		case "hidden":
			// Windows-only attribute, accepted and ignored.
		default:
			err = fmt.Errorf("unknown default %q", k)
		}
		if err != nil {
			return d, invalid(err)
		}
	}
	return d, nil
}

var (
	validateOnce sync.Once
	validateInst *validator.Validate
)

func validate(d Defaults) error {
	validateOnce.Do(func() {
		validateInst = validator.New()
		_ = validateInst.RegisterValidation("octalperm", func(fl validator.FieldLevel) bool {
			_, err := ParseMode(fl.Field().String())
			return err == nil
		})
	})
	if err := validateInst.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return invalid(fmt.Errorf("defaults.%s: invalid value %v", strings.ToLower(fe.Field()), fe.Value()))
		}
		return invalid(err)
	}
	return nil
}

// FileDefaults converts the configured defaults into api.FileDefaults.
func (c *Config) FileDefaults() api.FileDefaults {
	fd := api.DefaultFileDefaults()
	if c == nil {
		return fd
	}
	d := c.Defaults
	if d.Encoding != "" {
		fd.Encoding = d.Encoding
	}
	if d.ReplaceIfExists != nil {
		fd.AllowOverwrite = *d.ReplaceIfExists
	}
	fd.Type = api.FileType(d.Type)
	if d.Permissions != "" {
		// Validated as octal on load.
		m, _ := ParseMode(d.Permissions)
		fd.Mode = m
	}
	fd.Executable = d.Executable
	fd.Format = d.Format
	return fd
}

// MaxIterations returns the configured loop cap, or zero when unset.
func (c *Config) MaxIterations() int {
	if c == nil {
		return 0
	}
	return c.Defaults.MaxIterations
}

// Template returns the named template.
func (c *Config) Template(name string) (string, bool) {
	if c == nil {
		return "", false
	}
	t, ok := c.Templates[name]
	return t, ok
}

// Query evaluates a JSONPath expression against the configuration document
// and returns the first match, which must be a string.
func (c *Config) Query(path string) (string, bool, error) {
	if c == nil {
		return "", false, nil
	}
	x, err := jp.ParseString(path)
	if err != nil {
		return "", false, fmt.Errorf("invalid jsonpath '%s': %w", path, err)
	}
	results := x.Get(c.doc)
	if len(results) == 0 {
		return "", false, nil
	}
	s, ok := results[0].(string)
	if !ok {
		return "", false, fmt.Errorf("jsonpath '%s' selects %T, want string", path, results[0])
	}
	return s, true, nil
}

// PatternKeys returns the file_contents keys in sorted order.
func (c *Config) PatternKeys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, 0, len(c.FileContents))
	for k := range c.FileContents {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseMode parses an octal permission string such as "644" or "0755".
func ParseMode(s string) (fs.FileMode, error) {
	n, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(s), "0o"), 8, 32)
	if err != nil {
		return 0, fmt.Errorf("permissions %q: not an octal mode", s)
	}
	if n > 0o7777 {
		return 0, fmt.Errorf("permissions %q: out of range", s)
	}
	return fs.FileMode(n), nil
}

func invalid(err error) error {
	return &api.Error{Op: "config", Kind: api.KindInvalidDescription, Err: err}
}
