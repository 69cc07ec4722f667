// Package expr compiles and evaluates the small integer expressions used in
// loop headers. Parsing and evaluation are delegated to HCL's native
// expression syntax; loop variables are exposed as cty numbers.
package expr

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/agentic-research/fsbuild/api"
	"github.com/agentic-research/fsbuild/internal/scope"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
)

// Expr is a compiled expression. It is immutable and safe to reuse.
type Expr struct {
	src  string
	expr hclsyntax.Expression
}

// compiled caches parsed expressions by trimmed source.
var compiled, _ = lru.New[string, *Expr](1024)

// Compile parses src as an HCL expression. A minus written directly after
// a name ("i-1") is subtraction, not part of the name.
func Compile(src string) (*Expr, error) {
	trimmed := strings.TrimSpace(src)
	if trimmed == "" {
		return nil, &api.Error{Op: "expr.compile", Kind: api.KindInvalidExpression, Err: errors.New("empty expression")}
	}
	trimmed = splitMinus(trimmed)
	if e, ok := compiled.Get(trimmed); ok {
		return e, nil
	}
	e, diags := hclsyntax.ParseExpression([]byte(trimmed), "expr", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, &api.Error{
			Op:   "expr.compile",
			Kind: api.KindInvalidExpression,
			Err:  fmt.Errorf("%q: %s", trimmed, diags.Error()),
		}
	}
	x := &Expr{src: trimmed, expr: e}
	compiled.Add(trimmed, x)
	return x, nil
}

// splitMinus rewrites identifiers that HCL lexes with an embedded '-' into
// subtractions. Loop variables never contain '-', so "n-i" can only mean
// n - i.
func splitMinus(src string) string {
	if !strings.Contains(src, "-") {
		return src
	}
	toks, diags := hclsyntax.LexExpression([]byte(src), "expr", hcl.InitialPos)
	if diags.HasErrors() {
		return src
	}
	var b strings.Builder
	last := 0
	for _, t := range toks {
		if t.Type != hclsyntax.TokenIdent || !bytes.ContainsRune(t.Bytes, '-') {
			continue
		}
		b.WriteString(src[last:t.Range.Start.Byte])
		b.WriteString(strings.ReplaceAll(string(t.Bytes), "-", " - "))
		last = t.Range.End.Byte
	}
	if last == 0 {
		return src
	}
	b.WriteString(src[last:])
	return b.String()
}

// CompileUpdate compiles an update of variable name. Besides a plain
// expression it accepts the C-style forms name++, name--, name += e,
// name -= e, name *= e and name = e.
func CompileUpdate(name, src string) (*Expr, error) {
	return Compile(normalizeUpdate(name, src))
}

func normalizeUpdate(name, src string) string {
	s := strings.TrimSpace(src)
	switch s {
	case name + "++", "++" + name:
		return name + " + 1"
	case name + "--", "--" + name:
		return name + " - 1"
	}
	rest, ok := strings.CutPrefix(s, name)
	if !ok {
		return s
	}
	rest = strings.TrimSpace(rest)
	for _, op := range []string{"+", "-", "*"} {
		if r, ok := strings.CutPrefix(rest, op+"="); ok {
			return name + " " + op + " (" + strings.TrimSpace(r) + ")"
		}
	}
	if r, ok := strings.CutPrefix(rest, "="); ok && !strings.HasPrefix(r, "=") {
		return strings.TrimSpace(r)
	}
	return s
}

// String returns the (normalized) source text.
func (e *Expr) String() string { return e.src }

// Variables returns the root names the expression references, in order of
// first appearance.
func (e *Expr) Variables() []string {
	var names []string
	seen := map[string]bool{}
	for _, t := range e.expr.Variables() {
		n := t.RootName()
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}

// Int evaluates the expression and requires a whole number.
func (e *Expr) Int(sc *scope.Scope) (int64, error) {
	v, err := e.eval(sc)
	if err != nil {
		return 0, err
	}
	if !v.Type().Equals(cty.Number) {
		return 0, e.fail(fmt.Errorf("want number, got %s", v.Type().FriendlyName()))
	}
	bf := v.AsBigFloat()
	if !bf.IsInt() {
		return 0, e.fail(fmt.Errorf("result %s is not an integer", bf.Text('g', -1)))
	}
	n, acc := bf.Int64()
	if acc != big.Exact {
		return 0, e.fail(fmt.Errorf("result %s overflows int64", bf.Text('g', -1)))
	}
	return n, nil
}

// Bool evaluates the expression and requires a boolean.
func (e *Expr) Bool(sc *scope.Scope) (bool, error) {
	v, err := e.eval(sc)
	if err != nil {
		return false, err
	}
	if !v.Type().Equals(cty.Bool) {
		return false, e.fail(fmt.Errorf("want bool, got %s", v.Type().FriendlyName()))
	}
	return v.True(), nil
}

func (e *Expr) eval(sc *scope.Scope) (cty.Value, error) {
	for _, name := range e.Variables() {
		if _, ok := sc.Lookup(name); !ok {
			return cty.NilVal, &api.Error{
				Op:   "expr.eval",
				Kind: api.KindUnboundVariable,
				Err:  fmt.Errorf("%q references unbound variable %q", e.src, name),
			}
		}
	}
	v, diags := e.expr.Value(evalContext(sc))
	if diags.HasErrors() {
		return cty.NilVal, e.fail(errors.New(diags.Error()))
	}
	if v.IsNull() || !v.IsKnown() {
		return cty.NilVal, e.fail(errors.New("expression has no value"))
	}
	return v, nil
}

func (e *Expr) fail(err error) error {
	return &api.Error{Op: "expr.eval", Kind: api.KindInvalidExpression, Err: fmt.Errorf("%q: %w", e.src, err)}
}

func evalContext(sc *scope.Scope) *hcl.EvalContext {
	vars := sc.Vars()
	values := make(map[string]cty.Value, len(vars))
	for k, v := range vars {
		values[k] = cty.NumberIntVal(v)
	}
	return &hcl.EvalContext{Variables: values}
}
