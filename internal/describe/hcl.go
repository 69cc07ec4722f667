package describe

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agentic-research/fsbuild/api"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// HCL descriptions:
//
//	version = "1"
//
//	folder "src" {
//	  permissions = "755"
//
//	  file "test.h" {
//	    content = "#pragma once\n"
//	  }
//
//	  for "i" {
//	    init = 0
//	    cond = i < 10
//	    step = i + 1
//
//	    file {
//	      name    = "test${i}.cpp"
//	      content = "// ${i}\n"
//	    }
//	  }
//	}
//
//	stdin "n" {}
//	stdout {
//	  message = "generated ${n} files\n"
//	}
//
// Names come from the block label or a name attribute; labels cannot hold
// interpolations, so names that reference variables use the attribute.
// Loop expressions are kept as source text.
type hclLoader struct {
	src      []byte
	defaults api.FileDefaults
}

func parseHCL(src []byte, filename string, defaults api.FileDefaults) (*api.Description, error) {
	f, diags := hclsyntax.ParseConfig(src, filename, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, diags
	}
	body, ok := f.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected body type %T", filename, f.Body)
	}

	d := &api.Description{Version: DefaultVersion}
	for name, attr := range body.Attributes {
		if name != "version" {
			return nil, rangeErr(attr.SrcRange, "unexpected top-level attribute %q", name)
		}
		v, err := literal(attr.Expr)
		if err != nil {
			return nil, err
		}
		if d.Version, err = ctyString(v, attr.Expr.Range()); err != nil {
			return nil, err
		}
	}

	l := &hclLoader{src: src, defaults: defaults}
	decls, err := l.blocks(body.Blocks)
	if err != nil {
		return nil, err
	}
	d.Decls = decls
	return d, nil
}

func (l *hclLoader) blocks(blocks hclsyntax.Blocks) ([]api.Declaration, error) {
	decls := make([]api.Declaration, 0, len(blocks))
	for _, b := range blocks {
		var (
			d   api.Declaration
			err error
		)
		switch b.Type {
		case "folder":
			d, err = l.folder(b)
		case "file":
			d, err = l.file(b)
		case "for":
			d, err = l.loop(b)
		case "stdout":
			d, err = l.output(b)
		case "stdin":
			d, err = l.input(b)
		default:
			err = rangeErr(b.TypeRange, "unknown block type %q", b.Type)
		}
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
}

func (l *hclLoader) folder(b *hclsyntax.Block) (api.Declaration, error) {
	name, attrs, err := l.named(b)
	if err != nil {
		return nil, err
	}
	f := &api.Folder{Name: name}
	if err := applyFolderAttrs(f, attrs); err != nil {
		return nil, rangeErr(b.DefRange(), "%v", err)
	}
	if f.Children, err = l.blocks(b.Body.Blocks); err != nil {
		return nil, err
	}
	return f, nil
}

func (l *hclLoader) file(b *hclsyntax.Block) (api.Declaration, error) {
	if len(b.Body.Blocks) > 0 {
		return nil, rangeErr(b.Body.Blocks[0].DefRange(), "file blocks cannot contain blocks")
	}
	name, attrs, err := l.named(b)
	if err != nil {
		return nil, err
	}
	f := l.defaults.NewFile(name)
	if err := applyFileAttrs(f, attrs); err != nil {
		return nil, rangeErr(b.DefRange(), "%v", err)
	}
	return f, nil
}

func (l *hclLoader) loop(b *hclsyntax.Block) (api.Declaration, error) {
	if len(b.Labels) != 1 {
		return nil, rangeErr(b.DefRange(), "for block needs exactly one label, the loop variable")
	}
	lp := &api.Loop{Var: b.Labels[0]}
	fields := map[string]*string{"init": &lp.Init, "cond": &lp.Cond, "step": &lp.Step}
	for name, attr := range b.Body.Attributes {
		dst, ok := fields[name]
		if !ok {
			return nil, rangeErr(attr.SrcRange, "unknown loop attribute %q", name)
		}
		*dst = l.source(attr.Expr)
	}
	for _, name := range []string{"init", "cond", "step"} {
		if *fields[name] == "" {
			return nil, rangeErr(b.DefRange(), "for %q: missing %s", lp.Var, name)
		}
	}
	var err error
	if lp.Body, err = l.blocks(b.Body.Blocks); err != nil {
		return nil, err
	}
	return lp, nil
}

func (l *hclLoader) output(b *hclsyntax.Block) (api.Declaration, error) {
	if len(b.Labels) > 0 || len(b.Body.Blocks) > 0 {
		return nil, rangeErr(b.DefRange(), "stdout block takes no labels or blocks")
	}
	o := &api.Output{}
	for name, attr := range b.Body.Attributes {
		if name != "message" {
			return nil, rangeErr(attr.SrcRange, "unknown stdout attribute %q", name)
		}
		s, err := template(attr.Expr)
		if err != nil {
			return nil, err
		}
		o.Text = s
	}
	if _, ok := b.Body.Attributes["message"]; !ok {
		return nil, rangeErr(b.DefRange(), "stdout: missing message")
	}
	return o, nil
}

func (l *hclLoader) input(b *hclsyntax.Block) (api.Declaration, error) {
	if len(b.Labels) != 1 {
		return nil, rangeErr(b.DefRange(), "stdin block needs exactly one label, the variable")
	}
	if len(b.Body.Attributes) > 0 || len(b.Body.Blocks) > 0 {
		return nil, rangeErr(b.DefRange(), "stdin block must be empty")
	}
	return &api.Input{Var: b.Labels[0]}, nil
}

// named returns the declaration name and the remaining attributes of b.
func (l *hclLoader) named(b *hclsyntax.Block) (string, map[string]any, error) {
	attrs := map[string]any{}
	var name string
	switch len(b.Labels) {
	case 0:
	case 1:
		name = b.Labels[0]
	default:
		return "", nil, rangeErr(b.DefRange(), "%s block takes at most one label", b.Type)
	}

	keys := make([]string, 0, len(b.Body.Attributes))
	for k := range b.Body.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		attr := b.Body.Attributes[k]
		if k == "name" || k == attrContent || k == attrTemplate {
			s, err := template(attr.Expr)
			if err != nil {
				return "", nil, err
			}
			if k == "name" {
				if name != "" {
					return "", nil, rangeErr(attr.SrcRange, "name given both as label and attribute")
				}
				name = s
				continue
			}
			attrs[k] = s
			continue
		}
		v, err := literal(attr.Expr)
		if err != nil {
			return "", nil, err
		}
		if attrs[k], err = ctyGo(v, attr.Expr.Range()); err != nil {
			return "", nil, err
		}
	}
	if name == "" {
		return "", nil, rangeErr(b.DefRange(), "%s block needs a label or a name attribute", b.Type)
	}
	return name, attrs, nil
}

// source returns the text of a loop expression. A quoted string without
// interpolations is unwrapped, so both step = i + 1 and step = "i++" work.
func (l *hclLoader) source(e hclsyntax.Expression) string {
	if t, ok := e.(*hclsyntax.TemplateExpr); ok && t.IsStringLiteral() {
		if v, diags := t.Value(nil); !diags.HasErrors() && v.Type().Equals(cty.String) {
			return v.AsString()
		}
	}
	return strings.TrimSpace(string(e.Range().SliceBytes(l.src)))
}

// template rebuilds a ${name} template from an HCL string expression. Only
// literal text and bare variable references are allowed; literal "${"
// sequences (written $${ in HCL) are escaped again.
func template(e hclsyntax.Expression) (string, error) {
	var parts []hclsyntax.Expression
	switch t := e.(type) {
	case *hclsyntax.TemplateExpr:
		parts = t.Parts
	case *hclsyntax.TemplateWrapExpr:
		parts = []hclsyntax.Expression{t.Wrapped}
	case *hclsyntax.LiteralValueExpr:
		parts = []hclsyntax.Expression{t}
	default:
		return "", rangeErr(e.Range(), "expected a string")
	}

	var b strings.Builder
	for _, p := range parts {
		switch p := p.(type) {
		case *hclsyntax.LiteralValueExpr:
			s, err := ctyString(p.Val, p.SrcRange)
			if err != nil {
				return "", err
			}
			b.WriteString(strings.ReplaceAll(s, "${", "$${"))
		case *hclsyntax.ScopeTraversalExpr:
			if len(p.Traversal) != 1 {
				return "", rangeErr(p.SrcRange, "only plain variable references can be interpolated")
			}
			b.WriteString("${" + p.Traversal.RootName() + "}")
		default:
			return "", rangeErr(p.Range(), "only variable references can be interpolated")
		}
	}
	return b.String(), nil
}

func literal(e hclsyntax.Expression) (cty.Value, error) {
	v, diags := e.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, diags
	}
	return v, nil
}

// ctyGo converts a known primitive to the Go value the attribute setters
// accept.
func ctyGo(v cty.Value, rng hcl.Range) (any, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch {
	case v.Type().Equals(cty.String):
		return v.AsString(), nil
	case v.Type().Equals(cty.Bool):
		return v.True(), nil
	case v.Type().Equals(cty.Number):
		bf := v.AsBigFloat()
		if !bf.IsInt() {
			return nil, rangeErr(rng, "expected a whole number")
		}
		n, _ := bf.Int64()
		return n, nil
	}
	return nil, rangeErr(rng, "unsupported value of type %s", v.Type().FriendlyName())
}

func ctyString(v cty.Value, rng hcl.Range) (string, error) {
	if v.IsNull() || !v.Type().Equals(cty.String) {
		return "", rangeErr(rng, "expected a string")
	}
	return v.AsString(), nil
}

func rangeErr(rng hcl.Range, format string, args ...any) error {
	return &hcl.Diagnostic{
		Severity: hcl.DiagError,
		Summary:  fmt.Sprintf(format, args...),
		Subject:  rng.Ptr(),
	}
}
