package sink

import (
	"errors"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/agentic-research/fsbuild/api"
	billy "github.com/go-git/go-billy/v5"
)

// Plan is a dry-run sink. It records what would be created without
// touching the base filesystem, and answers Exists from the recorded plan
// first, then from base (which may be nil). Conflicts with entries already
// in base fail the same way they would on disk.
type Plan struct {
	base    billy.Filesystem
	log     []api.Entry
	dirs    map[string]bool
	files   map[string][]byte
	skipped []string
}

var _ Sink = (*Plan)(nil)

// NewPlan returns an empty plan over base.
func NewPlan(base billy.Filesystem) *Plan {
	return &Plan{
		base:  base,
		dirs:  map[string]bool{},
		files: map[string][]byte{},
	}
}

func (p *Plan) CreateDirectory(path string, mode fs.FileMode) error {
	path = filepath.Clean(path)
	if _, ok := p.files[path]; ok {
		return &api.Error{Op: "plan.mkdir", Kind: api.KindIO, Path: path, Err: errors.New("exists and is not a directory")}
	}
	if p.dirs[path] {
		return nil
	}
	fi, err := p.baseStat("plan.mkdir", path)
	if err != nil {
		return err
	}
	if fi != nil && !fi.IsDir() {
		return &api.Error{Op: "plan.mkdir", Kind: api.KindIO, Path: path, Err: errors.New("exists and is not a directory")}
	}
	p.dirs[path] = true
	p.log = append(p.log, api.Entry{Path: path, Kind: api.EntryDirectory, Mode: dirMode(mode)})
	return nil
}

func (p *Plan) Exists(path string) (bool, error) {
	path = filepath.Clean(path)
	if p.dirs[path] {
		return true, nil
	}
	if _, ok := p.files[path]; ok {
		return true, nil
	}
	fi, err := p.baseStat("plan.stat", path)
	return fi != nil, err
}

// baseStat stats path in base. A missing path, or no base, is (nil, nil).
func (p *Plan) baseStat(op, path string) (fs.FileInfo, error) {
	if p.base == nil {
		return nil, nil
	}
	fi, err := p.base.Stat(path)
	switch {
	case err == nil:
		return fi, nil
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	}
	return nil, classify(op, path, err)
}

func (p *Plan) WriteFile(path string, data []byte, opts WriteOptions) (Outcome, error) {
	path = filepath.Clean(path)
	if p.dirs[path] {
		return Written, &api.Error{Op: "plan.write", Kind: api.KindIO, Path: path, Err: errors.New("is a directory")}
	}
	if !opts.Overwrite {
		exists, err := p.Exists(path)
		if err != nil {
			return Written, err
		}
		if exists {
			p.skipped = append(p.skipped, path)
			return Skipped, nil
		}
	} else if _, planned := p.files[path]; !planned {
		fi, err := p.baseStat("plan.write", path)
		if err != nil {
			return Written, err
		}
		if fi != nil && fi.IsDir() {
			return Written, &api.Error{Op: "plan.write", Kind: api.KindIO, Path: path, Err: errors.New("is a directory")}
		}
	}
	cp := append([]byte(nil), data...)
	p.files[path] = cp
	p.log = append(p.log, api.Entry{Path: path, Kind: api.EntryFile, Content: cp, Mode: fileMode(opts.Mode)})
	return Written, nil
}

// Entries returns every recorded operation in the order it was issued.
// A path written twice appears twice.
func (p *Plan) Entries() []api.Entry {
	return append([]api.Entry(nil), p.log...)
}

// Final returns one entry per path holding its final state, sorted by path.
func (p *Plan) Final() []api.Entry {
	last := map[string]api.Entry{}
	for _, e := range p.log {
		last[e.Path] = e
	}
	out := make([]api.Entry, 0, len(last))
	for _, e := range last {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// Skipped lists paths whose write was refused, in order.
func (p *Plan) Skipped() []string {
	return append([]string(nil), p.skipped...)
}
