// Package materialize walks a tree description and issues directory and
// file operations against a sink, in declared order.
package materialize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path/filepath"

	"github.com/agentic-research/fsbuild/api"
	"github.com/agentic-research/fsbuild/internal/content"
	"github.com/agentic-research/fsbuild/internal/format"
	"github.com/agentic-research/fsbuild/internal/loop"
	"github.com/agentic-research/fsbuild/internal/scope"
	"github.com/agentic-research/fsbuild/internal/sink"
	"github.com/agentic-research/fsbuild/internal/subst"
)

// Record is one resolved output entry together with what the sink did
// with it.
type Record struct {
	api.Entry
	Outcome sink.Outcome
	Decl    string
}

// Report summarizes a completed run. Paths are in traversal order.
type Report struct {
	Directories []string
	Written     []string
	Skipped     []string
	// Messages holds the substituted text of every stdout declaration.
	Messages []string
	// Entries is only filled when Engine.Record is set.
	Entries []Record
}

// Engine materializes declarations into a Sink.
type Engine struct {
	Sink sink.Sink
	// Loops evaluates loop headers. Nil uses the default iteration cap.
	Loops *loop.Evaluator
	// Content resolves bodies of files without an inline body. Nil means
	// such files are written empty.
	Content *content.Resolver
	// Format configures gofumpt for Go files that request formatting.
	Format format.Options
	// Record keeps every resolved entry, with content, in the report.
	Record bool
	// Inputs supplies the values bound by stdin declarations.
	Inputs map[string]int64
	// Stdout receives stdout messages as they are reached. Nil only logs
	// them.
	Stdout io.Writer
	Logger *slog.Logger
}

// NewEngine returns an engine writing into s with default settings.
func NewEngine(s sink.Sink) *Engine {
	return &Engine{Sink: s, Loops: loop.NewEvaluator(0)}
}

// run carries the state of a single Materialize call.
type run struct {
	e      *Engine
	ctx    context.Context
	log    *slog.Logger
	report *Report
}

// Materialize processes decls under basePath with sc as the outer scope.
// The first fatal error aborts the traversal; writes made before it are
// kept. The error names the path and declaration where it occurred.
func (e *Engine) Materialize(ctx context.Context, decls []api.Declaration, basePath string, sc *scope.Scope) (*Report, error) {
	if e.Sink == nil {
		return nil, errors.New("materialize: no sink configured")
	}
	log := e.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	r := &run{e: e, ctx: ctx, log: log, report: &Report{}}
	if err := r.decls(decls, basePath, sc); err != nil {
		return r.report, err
	}
	log.Debug("materialize done",
		"directories", len(r.report.Directories),
		"written", len(r.report.Written),
		"skipped", len(r.report.Skipped))
	return r.report, nil
}

func (r *run) decls(decls []api.Declaration, base string, sc *scope.Scope) error {
	for _, d := range decls {
		if err := r.ctx.Err(); err != nil {
			return &api.Error{Op: "materialize", Kind: api.KindCanceled, Path: base, Decl: d.Label(), Err: err}
		}
		var err error
		switch d := d.(type) {
		case *api.Folder:
			err = r.folder(d, base, sc)
		case *api.File:
			err = r.file(d, base, sc)
		case *api.Loop:
			err = r.loop(d, base, sc)
		case *api.Output:
			err = r.output(d, base, sc)
		case *api.Input:
			// The binding is visible to the remaining siblings only.
			sc, err = r.input(d, base, sc)
		default:
			err = &api.Error{Op: "materialize", Kind: api.KindInvalidDescription, Path: base, Err: fmt.Errorf("unknown declaration %T", d)}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *run) folder(f *api.Folder, base string, sc *scope.Scope) error {
	name, err := r.segment(f.Name, sc)
	if err != nil {
		return api.Annotate(err, "materialize.folder", base, f.Label())
	}
	path := filepath.Join(base, name)
	if err := r.e.Sink.CreateDirectory(path, f.Attributes.Mode); err != nil {
		return api.Annotate(err, "materialize.folder", path, f.Label())
	}
	r.log.Debug("directory", "path", path)
	r.report.Directories = append(r.report.Directories, path)
	if r.e.Record {
		r.report.Entries = append(r.report.Entries, Record{
			Entry:   api.Entry{Path: path, Kind: api.EntryDirectory, Mode: f.Attributes.Mode},
			Outcome: sink.Written,
			Decl:    f.Label(),
		})
	}
	return r.decls(f.Children, path, sc)
}

func (r *run) file(f *api.File, base string, sc *scope.Scope) error {
	name, err := r.segment(f.Name, sc)
	if err != nil {
		return api.Annotate(err, "materialize.file", base, f.Label())
	}
	path := filepath.Join(base, name)

	// Resolve everything before touching the sink.
	data, err := r.body(f, name, sc)
	if err != nil {
		return api.Annotate(err, "materialize.file", path, f.Label())
	}
	mode := fileMode(f.Attributes)

	if !f.AllowOverwrite {
		exists, err := r.e.Sink.Exists(path)
		if err != nil {
			return api.Annotate(err, "materialize.file", path, f.Label())
		}
		if exists {
			r.skip(f, path, mode)
			return nil
		}
	}

	outcome, err := r.e.Sink.WriteFile(path, data, sink.WriteOptions{Overwrite: f.AllowOverwrite, Mode: mode})
	if err != nil {
		return api.Annotate(err, "materialize.file", path, f.Label())
	}
	if outcome == sink.Skipped {
		r.skip(f, path, mode)
		return nil
	}
	r.log.Debug("write", "path", path, "bytes", len(data))
	r.report.Written = append(r.report.Written, path)
	if r.e.Record {
		r.report.Entries = append(r.report.Entries, Record{
			Entry:   api.Entry{Path: path, Kind: api.EntryFile, Content: data, Mode: mode},
			Outcome: sink.Written,
			Decl:    f.Label(),
		})
	}
	return nil
}

func (r *run) skip(f *api.File, path string, mode fs.FileMode) {
	r.log.Info("skipped existing file", "path", path)
	r.report.Skipped = append(r.report.Skipped, path)
	if r.e.Record {
		r.report.Entries = append(r.report.Entries, Record{
			Entry:   api.Entry{Path: path, Kind: api.EntryFile, Mode: mode},
			Outcome: sink.Skipped,
			Decl:    f.Label(),
		})
	}
}

func (r *run) body(f *api.File, name string, sc *scope.Scope) ([]byte, error) {
	b := content.Body{Text: f.Body, Source: content.SourceInline, Templated: true}
	if r.e.Content != nil {
		var err error
		if b, err = r.e.Content.Resolve(f, name); err != nil {
			return nil, err
		}
	}
	text := b.Text
	if b.Templated {
		var err error
		if text, err = subst.Substitute(text, sc); err != nil {
			return nil, err
		}
	}
	data := []byte(text)
	if f.Format && format.Applies(name) {
		out, ok := format.Source(data, name, r.e.Format)
		if !ok {
			r.log.Warn("format failed, writing unformatted", "file", name)
		}
		data = out
	}
	return data, nil
}

func (r *run) loop(l *api.Loop, base string, sc *scope.Scope) error {
	n := 0
	for it, err := range r.e.Loops.Evaluate(l, sc) {
		if err != nil {
			return api.Annotate(err, "materialize.loop", base, l.Label())
		}
		if err := r.decls(it.Body, base, it.Scope); err != nil {
			return err
		}
		n++
	}
	r.log.Debug("loop", "decl", l.Label(), "iterations", n)
	return nil
}

func (r *run) output(o *api.Output, base string, sc *scope.Scope) error {
	text, err := subst.Substitute(o.Text, sc)
	if err != nil {
		return api.Annotate(err, "materialize.stdout", base, o.Label())
	}
	r.log.Info("stdout", "message", text)
	r.report.Messages = append(r.report.Messages, text)
	if r.e.Stdout != nil {
		if _, err := io.WriteString(r.e.Stdout, text); err != nil {
			return &api.Error{Op: "materialize.stdout", Kind: api.KindIO, Path: base, Decl: o.Label(), Err: err}
		}
	}
	return nil
}

func (r *run) input(in *api.Input, base string, sc *scope.Scope) (*scope.Scope, error) {
	v, ok := r.e.Inputs[in.Var]
	if !ok {
		return sc, &api.Error{
			Op:   "materialize.stdin",
			Kind: api.KindUnboundVariable,
			Path: base,
			Decl: in.Label(),
			Err:  fmt.Errorf("no value supplied for input %q", in.Var),
		}
	}
	r.log.Debug("input", "var", in.Var, "value", v)
	return sc.Bind(in.Var, v), nil
}

// segment substitutes a name template and checks that the result is a
// single path segment.
func (r *run) segment(tmpl string, sc *scope.Scope) (string, error) {
	name, err := subst.Substitute(tmpl, sc)
	if err != nil {
		return "", err
	}
	if !api.IsSegment(name) {
		return "", &api.Error{
			Op:   "materialize",
			Kind: api.KindInvalidDescription,
			Err:  fmt.Errorf("name %q does not resolve to a single path segment", name),
		}
	}
	return name, nil
}

// fileMode applies the executable attribute on top of the declared mode.
func fileMode(a api.Attributes) fs.FileMode {
	m := a.Mode
	if a.Executable {
		if m == 0 {
			m = sink.DefaultFileMode
		}
		m |= 0o111
	}
	return m
}
