package photos

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/petitions/petitiond/internal/common"
	"github.com/petitions/petitiond/internal/filex"
)

// FileSystem keeps photos as plain files in a single directory.
type FileSystem struct {
	root string
}

// NewFileSystem creates dir if needed and returns a store rooted there.
func NewFileSystem(dir string) (*FileSystem, error) {
	root, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, fmt.Errorf("photo dir: %w", err)
	}
	return &FileSystem{root: root}, nil
}

// Root returns the absolute storage directory.
func (s *FileSystem) Root() string {
	return s.root
}

func (s *FileSystem) Put(_ context.Context, name, _ string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	return filex.WriteFileAtomic(filepath.Join(s.root, name), data, 0o640)
}

func (s *FileSystem) Get(_ context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("read photo: %w", err)
	}
	return data, nil
}
