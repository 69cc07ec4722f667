package sink

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/agentic-research/fsbuild/api"
	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/helper/chroot"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// FS writes into a billy.Filesystem.
type FS struct {
	fs billy.Filesystem
}

var _ Sink = (*FS)(nil)

// NewFS wraps an existing billy filesystem.
func NewFS(bfs billy.Filesystem) *FS {
	return &FS{fs: bfs}
}

// NewDisk returns a sink rooted at dir on the local disk, creating dir if
// it does not exist yet.
func NewDisk(dir string) (*FS, error) {
	if err := osfs.Default.MkdirAll(dir, DefaultDirMode); err != nil {
		return nil, classify("sink.open", dir, err)
	}
	return &FS{fs: chroot.New(osfs.Default, dir)}, nil
}

// NewMemory returns a sink backed by an in-memory filesystem.
func NewMemory() *FS {
	return &FS{fs: memfs.New()}
}

// Filesystem exposes the underlying filesystem (read access for previews
// and drift checks).
func (s *FS) Filesystem() billy.Filesystem {
	return s.fs
}

func (s *FS) CreateDirectory(path string, mode fs.FileMode) error {
	info, err := s.fs.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return &api.Error{
			Op:   "sink.mkdir",
			Kind: api.KindIO,
			Path: path,
			Err:  errors.New("exists and is not a directory"),
		}
	case !errors.Is(err, fs.ErrNotExist):
		return classify("sink.mkdir", path, err)
	}
	return classify("sink.mkdir", path, s.fs.MkdirAll(path, dirMode(mode)))
}

func (s *FS) Exists(path string) (bool, error) {
	_, err := s.fs.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, classify("sink.stat", path, err)
}

func (s *FS) WriteFile(path string, data []byte, opts WriteOptions) (Outcome, error) {
	if !opts.Overwrite {
		exists, err := s.Exists(path)
		if err != nil {
			return Written, err
		}
		if exists {
			return Skipped, nil
		}
	}

	mode := fileMode(opts.Mode)
	f, err := s.fs.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return Written, classify("sink.write", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return Written, classify("sink.write", path, err)
	}
	if err := f.Close(); err != nil {
		return Written, classify("sink.write", path, err)
	}

	// OpenFile honours the umask and leaves the mode of an existing file
	// alone; apply explicit modes afterwards.
	if opts.Mode != 0 {
		if ch, ok := s.fs.(billy.Change); ok {
			if err := ch.Chmod(path, mode); err != nil {
				return Written, classify("sink.chmod", path, err)
			}
		}
	}
	return Written, nil
}

// ReadFile returns the content at path.
func (s *FS) ReadFile(path string) ([]byte, error) {
	b, err := util.ReadFile(s.fs, path)
	if err != nil {
		return nil, classify("sink.read", path, err)
	}
	return b, nil
}

// String describes the sink root.
func (s *FS) String() string {
	return fmt.Sprintf("billy:%s", s.fs.Root())
}
