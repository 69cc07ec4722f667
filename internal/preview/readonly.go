package preview

import (
	"errors"
	"os"

	billy "github.com/go-git/go-billy/v5"
)

var errReadOnly = errors.New("read-only filesystem")

// readOnlyFS rejects every mutating call on the wrapped filesystem.
type readOnlyFS struct {
	billy.Filesystem
}

// ReadOnly wraps fs so that reads pass through and writes fail.
func ReadOnly(fs billy.Filesystem) billy.Filesystem {
	return readOnlyFS{Filesystem: fs}
}

func (readOnlyFS) Create(string) (billy.File, error) { return nil, errReadOnly }

func (r readOnlyFS) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR|os.O_APPEND|os.O_CREATE|os.O_TRUNC) != 0 {
		return nil, errReadOnly
	}
	return r.Filesystem.OpenFile(filename, flag, perm)
}

func (readOnlyFS) Rename(string, string) error { return errReadOnly }
func (readOnlyFS) Remove(string) error { return errReadOnly }
func (readOnlyFS) TempFile(string, string) (billy.File, error) { return nil, errReadOnly }
func (readOnlyFS) MkdirAll(string, os.FileMode) error { return errReadOnly }
func (readOnlyFS) Symlink(string, string) error { return errReadOnly }

func (r readOnlyFS) Chroot(path string) (billy.Filesystem, error) {
	fs, err := r.Filesystem.Chroot(path)
	if err != nil {
		return nil, err
	}
	return ReadOnly(fs), nil
}
