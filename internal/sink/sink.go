// Package sink defines the write target of a materialization run and its
// implementations: a go-billy backed filesystem and a recording dry-run plan.
package sink

import (
	"errors"
	"io/fs"

	"github.com/agentic-research/fsbuild/api"
)

const (
	DefaultDirMode  fs.FileMode = 0o755
	DefaultFileMode fs.FileMode = 0o644
)

// Outcome is the non-error result of a write.
type Outcome int

const (
	Written Outcome = iota
	// Skipped means the target existed and overwriting was not allowed.
	Skipped
)

func (o Outcome) String() string {
	if o == Skipped {
		return "skipped"
	}
	return "written"
}

// WriteOptions controls a single WriteFile call.
type WriteOptions struct {
	Overwrite bool
	Mode      fs.FileMode // zero means DefaultFileMode
}

// Sink is the only externally visible mutable resource of a run. Paths are
// slash-separated and relative to the sink's root.
type Sink interface {
	// CreateDirectory creates path and any missing parents. An existing
	// directory is not an error.
	CreateDirectory(path string, mode fs.FileMode) error
	// Exists reports whether anything exists at path.
	Exists(path string) (bool, error)
	// WriteFile writes data to path. When the target exists and
	// opts.Overwrite is false nothing is written and Skipped is returned.
	WriteFile(path string, data []byte, opts WriteOptions) (Outcome, error)
}

// classify maps a filesystem error onto the permission/io kinds.
func classify(op, path string, err error) error {
	if err == nil {
		return nil
	}
	kind := api.KindIO
	if errors.Is(err, fs.ErrPermission) {
		kind = api.KindPermission
	}
	return &api.Error{Op: op, Kind: kind, Path: path, Err: err}
}

func dirMode(m fs.FileMode) fs.FileMode {
	if m == 0 {
		return DefaultDirMode
	}
	return m.Perm()
}

func fileMode(m fs.FileMode) fs.FileMode {
	if m == 0 {
		return DefaultFileMode
	}
	return m.Perm()
}
