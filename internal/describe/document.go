package describe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/fsbuild/api"
	"github.com/agentic-research/fsbuild/internal/config"
	"github.com/ohler55/ojg/oj"
	"gopkg.in/yaml.v3"
)

// A document is either a list of entries, as written by api.Export, or an
// object {"version": ..., "entries": [...]}. Each entry is tagged by
// "type": "folder", "file", "for_loop", "stdout" or "stdin".
func parseDocument(src []byte, format Format, defaults api.FileDefaults) (*api.Description, error) {
	var doc any
	switch format {
	case FormatJSON:
		v, err := oj.Parse(src)
		if err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
		doc = v
	case FormatYAML:
		if err := yaml.Unmarshal(src, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	}

	d := &api.Description{Version: DefaultVersion}
	var entries any
	switch root := doc.(type) {
	case []any:
		entries = root
	case map[string]any:
		if v, ok := root["version"]; ok {
			s, err := config.AsString("version", v)
			if err != nil {
				return nil, err
			}
			d.Version = s
		}
		entries = root["entries"]
	case nil:
		return d, nil
	default:
		return nil, fmt.Errorf("top level must be a list or an object, got %T", doc)
	}

	w := docWalker{defaults: defaults}
	decls, err := w.entries(entries, "entries")
	if err != nil {
		return nil, err
	}
	d.Decls = decls
	return d, nil
}

type docWalker struct {
	defaults api.FileDefaults
}

func (w docWalker) entries(raw any, where string) ([]api.Declaration, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: want a list, got %T", where, raw)
	}
	decls := make([]api.Declaration, 0, len(list))
	for i, item := range list {
		at := fmt.Sprintf("%s[%d]", where, i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s: want an object, got %T", at, item)
		}
		d, err := w.entry(m, at)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
}

func (w docWalker) entry(m map[string]any, at string) (api.Declaration, error) {
	kind, err := config.AsString("type", m["type"])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", at, err)
	}
	switch strings.ToLower(kind) {
	case "folder":
		return w.folder(m, at)
	case "file":
		return w.file(m, at)
	case "for_loop", "for":
		return w.loop(m, at)
	case "stdout":
		text, err := stringField(m, "message", at)
		if err != nil {
			return nil, err
		}
		return &api.Output{Text: text}, nil
	case "stdin":
		name, err := stringField(m, "var_name", at)
		if err != nil {
			return nil, err
		}
		return &api.Input{Var: name}, nil
	}
	return nil, fmt.Errorf("%s: unknown entry type %q", at, kind)
}

func (w docWalker) folder(m map[string]any, at string) (api.Declaration, error) {
	name, err := stringField(m, "name", at)
	if err != nil {
		return nil, err
	}
	f := &api.Folder{Name: name}
	attrs, err := attrMap(m, at)
	if err != nil {
		return nil, err
	}
	if err := applyFolderAttrs(f, attrs); err != nil {
		return nil, fmt.Errorf("%s: %w", at, err)
	}
	if f.Children, err = w.entries(m["children"], at+".children"); err != nil {
		return nil, err
	}
	return f, nil
}

func (w docWalker) file(m map[string]any, at string) (api.Declaration, error) {
	name, err := stringField(m, "name", at)
	if err != nil {
		return nil, err
	}
	f := w.defaults.NewFile(name)
	attrs, err := attrMap(m, at)
	if err != nil {
		return nil, err
	}
	if err := applyFileAttrs(f, attrs); err != nil {
		return nil, fmt.Errorf("%s: %w", at, err)
	}
	return f, nil
}

func (w docWalker) loop(m map[string]any, at string) (api.Declaration, error) {
	l := &api.Loop{}
	var err error
	if l.Var, err = stringField(m, "var_name", at); err != nil {
		return nil, err
	}
	if _, counted := m["start"]; counted {
		err = countedLoop(l, m)
	} else {
		for _, f := range []struct {
			key string
			dst *string
		}{{"init", &l.Init}, {"cond", &l.Cond}, {"step", &l.Step}} {
			if *f.dst, err = stringField(m, f.key, at); err != nil {
				break
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", at, err)
	}
	if l.Body, err = w.entries(m["children"], at+".children"); err != nil {
		return nil, err
	}
	return l, nil
}

// countedLoop reads the start/end/condition/step form: start and end are
// integers, condition a comparison operator and step a signed increment.
func countedLoop(l *api.Loop, m map[string]any) error {
	start, err := config.AsInt("start", m["start"])
	if err != nil {
		return err
	}
	end, err := config.AsInt("end", m["end"])
	if err != nil {
		return err
	}
	op := "<"
	if v, ok := m["condition"]; ok {
		if op, err = config.AsString("condition", v); err != nil {
			return err
		}
	}
	switch op {
	case "<", "<=", ">", ">=", "!=":
	default:
		return fmt.Errorf("unsupported condition %q", op)
	}
	step := int64(1)
	if v, ok := m["step"]; ok {
		if step, err = config.AsInt("step", v); err != nil {
			return err
		}
	}
	if step == 0 {
		return errors.New("step must not be zero")
	}
	l.Init = fmt.Sprint(start)
	l.Cond = fmt.Sprintf("%s %s %d", l.Var, op, end)
	if step > 0 {
		l.Step = fmt.Sprintf("%s + %d", l.Var, step)
	} else {
		l.Step = fmt.Sprintf("%s - %d", l.Var, -step)
	}
	return nil
}

func stringField(m map[string]any, key, at string) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", fmt.Errorf("%s: missing %q", at, key)
	}
	s, err := config.AsString(key, v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", at, err)
	}
	return s, nil
}

func attrMap(m map[string]any, at string) (map[string]any, error) {
	raw, ok := m["attributes"]
	if !ok || raw == nil {
		return nil, nil
	}
	attrs, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s.attributes: want an object, got %T", at, raw)
	}
	return attrs, nil
}
