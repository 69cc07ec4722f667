package describe

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agentic-research/fsbuild/api"
)

// The fsb language:
//
//	folder src (permissions = "755") {
//	    file "test.h" (content = "#pragma once\n")
//	    for [i = 0; i < 10; i++] {
//	        file "test${i}.cpp" (template = "cpp")
//	    }
//	}
//	stdin >> n
//	stdout << "generated ${n} files\n"
//
// Keywords are case-insensitive. Names are identifiers or strings.
// Attribute values are strings, integers, true, false, null or bare words.
type fsbParser struct {
	lex      *lexer
	tok      token
	defaults api.FileDefaults
}

func parseFSB(src []byte, filename string, defaults api.FileDefaults) (*api.Description, error) {
	p := &fsbParser{lex: newLexer(filename, string(src)), defaults: defaults}
	if err := p.next(); err != nil {
		return nil, err
	}
	decls, err := p.block(false)
	if err != nil {
		return nil, err
	}
	return &api.Description{Version: DefaultVersion, Decls: decls}, nil
}

func (p *fsbParser) next() error {
	t, err := p.lex.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

func (p *fsbParser) errorf(format string, args ...any) error {
	return p.lex.errorf(p.tok.pos, format, args...)
}

func (p *fsbParser) isPunct(s string) bool {
	return p.tok.kind == tokPunct && p.tok.text == s
}

func (p *fsbParser) expect(s string) error {
	if !p.isPunct(s) {
		return p.errorf("expected %q, got %s", s, p.tok)
	}
	return p.next()
}

// block parses statements until '}' (nested) or end of input (top level).
func (p *fsbParser) block(nested bool) ([]api.Declaration, error) {
	var decls []api.Declaration
	for {
		switch {
		case p.tok.kind == tokEOF:
			if nested {
				return nil, p.errorf("expected '}', got end of input")
			}
			return decls, nil
		case nested && p.isPunct("}"):
			return decls, p.next()
		}
		d, err := p.statement()
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
}

func (p *fsbParser) statement() (api.Declaration, error) {
	if p.tok.kind != tokIdent {
		return nil, p.errorf("expected a statement, got %s", p.tok)
	}
	switch strings.ToLower(p.tok.text) {
	case "folder":
		return p.folder()
	case "file":
		return p.file()
	case "for":
		return p.loop()
	case "stdout":
		return p.output()
	case "stdin":
		return p.input()
	}
	return nil, p.errorf("unknown statement %q", p.tok.text)
}

func (p *fsbParser) name(what string) (string, error) {
	if p.tok.kind != tokIdent && p.tok.kind != tokString {
		return "", p.errorf("expected %s name, got %s", what, p.tok)
	}
	n := p.tok.text
	return n, p.next()
}

func (p *fsbParser) folder() (api.Declaration, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	name, err := p.name("folder")
	if err != nil {
		return nil, err
	}
	f := &api.Folder{Name: name}
	if p.isPunct("(") {
		pos := p.tok.pos
		attrs, err := p.attrs()
		if err != nil {
			return nil, err
		}
		if err := applyFolderAttrs(f, attrs); err != nil {
			return nil, p.lex.errorf(pos, "%v", err)
		}
	}
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	if f.Children, err = p.block(true); err != nil {
		return nil, err
	}
	return f, nil
}

func (p *fsbParser) file() (api.Declaration, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	name, err := p.name("file")
	if err != nil {
		return nil, err
	}
	f := p.defaults.NewFile(name)
	if p.isPunct("(") {
		pos := p.tok.pos
		attrs, err := p.attrs()
		if err != nil {
			return nil, err
		}
		if err := applyFileAttrs(f, attrs); err != nil {
			return nil, p.lex.errorf(pos, "%v", err)
		}
	}
	return f, nil
}

func (p *fsbParser) loop() (api.Declaration, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.tok.kind != tokHeader {
		return nil, p.errorf("expected loop header '[...]', got %s", p.tok)
	}
	l, err := parseHeader(p.tok.text)
	if err != nil {
		return nil, p.errorf("%v", err)
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	if l.Body, err = p.block(true); err != nil {
		return nil, err
	}
	return l, nil
}

// output parses stdout << "message".
func (p *fsbParser) output() (api.Declaration, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect("<<"); err != nil {
		return nil, err
	}
	if p.tok.kind != tokString {
		return nil, p.errorf("expected message string, got %s", p.tok)
	}
	o := &api.Output{Text: p.tok.text}
	return o, p.next()
}

// input parses stdin >> name.
func (p *fsbParser) input() (api.Declaration, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	if err := p.expect(">>"); err != nil {
		return nil, err
	}
	if p.tok.kind != tokIdent {
		return nil, p.errorf("expected variable name, got %s", p.tok)
	}
	in := &api.Input{Var: p.tok.text}
	return in, p.next()
}

// attrs parses '(' key = value [, key = value]... ')'. Commas are optional.
func (p *fsbParser) attrs() (map[string]any, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	attrs := map[string]any{}
	for !p.isPunct(")") {
		if p.tok.kind != tokIdent {
			return nil, p.errorf("expected attribute name, got %s", p.tok)
		}
		key := p.tok.text
		if err := p.next(); err != nil {
			return nil, err
		}
		if err := p.expect("="); err != nil {
			return nil, err
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		attrs[key] = v
		if p.isPunct(",") {
			if err := p.next(); err != nil {
				return nil, err
			}
		}
	}
	return attrs, p.next()
}

func (p *fsbParser) value() (any, error) {
	t := p.tok
	var v any
	switch t.kind {
	case tokString:
		v = t.text
	case tokNumber:
		n, err := strconv.ParseInt(t.text, 10, 64)
		if err != nil {
			return nil, p.errorf("invalid number %s", t.text)
		}
		v = n
	case tokIdent:
		switch strings.ToLower(t.text) {
		case "true":
			v = true
		case "false":
			v = false
		case "null":
			v = nil
		default:
			v = t.text
		}
	default:
		return nil, p.errorf("expected attribute value, got %s", t)
	}
	return v, p.next()
}

// parseHeader splits "i = 0; i < 10; i++" into a loop.
func parseHeader(text string) (*api.Loop, error) {
	parts := strings.Split(text, ";")
	if len(parts) != 3 {
		return nil, errHeader(text, "want three ';'-separated parts")
	}
	head := strings.TrimSpace(parts[0])
	name, value, ok := strings.Cut(head, "=")
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if !ok || strings.HasPrefix(value, "=") || !api.IsIdent(name) {
		return nil, errHeader(text, "initializer must be 'name = expression'")
	}
	l := &api.Loop{
		Var:  name,
		Init: value,
		Cond: strings.TrimSpace(parts[1]),
		Step: strings.TrimSpace(parts[2]),
	}
	if l.Init == "" || l.Cond == "" || l.Step == "" {
		return nil, errHeader(text, "empty expression")
	}
	return l, nil
}

func errHeader(text, msg string) error {
	return fmt.Errorf("loop header [%s]: %s", text, msg)
}
