package avatar

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// Storage is where the generated avatars are persisted.
type Storage interface {
	// WriteFile writes the data to the file at path, replacing it if it
	// exists. The parent directory must exist.
	WriteFile(ctx context.Context, path string, data []byte) error
	// Exists returns true if the file at path exists. An error means that
	// the storage could not tell.
	Exists(ctx context.Context, path string) (bool, error)
}

const avatarPerm os.FileMode = 0644

// NewFsStorage returns a [Storage] writing on the given afero filesystem.
func NewFsStorage(fs afero.Fs) Storage {
	return &fsStorage{fs}
}

type fsStorage struct {
	fs afero.Fs
}

// WriteFile writes in a temporary file in the same directory, renamed at
// the end, so that a concurrent writer or reader never sees a partial image.
func (s *fsStorage) WriteFile(ctx context.Context, path string, data []byte) error {
	f, err := afero.TempFile(s.fs, filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return err
	}
	tmpname := f.Name()

	_, err = f.Write(data)
	if errc := f.Close(); err == nil {
		err = errc
	}
	if err == nil {
		err = s.fs.Chmod(tmpname, avatarPerm)
	}
	if err == nil {
		err = s.fs.Rename(tmpname, path)
	}
	if err != nil {
		_ = s.fs.Remove(tmpname)
		return err
	}
	return nil
}

func (s *fsStorage) Exists(ctx context.Context, path string) (bool, error) {
	return afero.Exists(s.fs, path)
}
