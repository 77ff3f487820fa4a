package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Storage keeps uploaded content under one directory of an afero
// filesystem. Production uses the OS filesystem; tests use memory.
type Storage struct {
	fs  afero.Fs
	dir string
}

func NewStorage(fs afero.Fs, dir string) (*Storage, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Storage{fs: fs, dir: dir}, nil
}

func NewDiskStorage(dir string) (*Storage, error) {
	return NewStorage(afero.NewOsFs(), dir)
}

func (s *Storage) Dir() string {
	return s.dir
}

// Save writes r to name, refusing to write more than limit bytes. The
// partially written file is removed on any failure.
func (s *Storage) Save(name string, r io.Reader, limit int64) (int64, error) {
	path := s.path(name)
	out, err := s.fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, err
	}

	written, err := io.Copy(out, io.LimitReader(r, limit+1))
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && written > limit {
		err = errTooLarge
	}
	if err != nil {
		_ = s.fs.Remove(path)
		return written, err
	}
	return written, nil
}

func (s *Storage) Open(name string) (afero.File, error) {
	return s.fs.Open(s.path(name))
}

// Remove deletes name. A file that is already gone is not an error.
func (s *Storage) Remove(name string) error {
	err := s.fs.Remove(s.path(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *Storage) path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

var errTooLarge = errors.New("file exceeds size limit")
