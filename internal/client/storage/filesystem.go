package storage

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/feedbackkit/internal/common"
	"github.com/dmitrijs2005/feedbackkit/internal/filex"
)

const fileExt = ".json"

// FileSystemMedium keeps one file per name in a single directory.
type FileSystemMedium struct {
	dir string
}

var (
	_ Medium = (*FileSystemMedium)(nil)
	_ Lister = (*FileSystemMedium)(nil)
)

// NewFileSystemMedium creates base/folder when missing.
func NewFileSystemMedium(base, folder string) (*FileSystemMedium, error) {
	dir, err := filex.EnsureDir(base, folder)
	if err != nil {
		return nil, common.FileSystem(filepath.Join(base, folder), err.Error())
	}
	return &FileSystemMedium{dir: dir}, nil
}

func (m *FileSystemMedium) Dir() string { return m.dir }

func (m *FileSystemMedium) path(name string) string {
	return filepath.Join(m.dir, name+fileExt)
}

func (m *FileSystemMedium) Read(_ context.Context, name string) ([]byte, error) {
	if err := validName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(m.path(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, common.FileSystem(m.path(name), err.Error())
	}
	return data, nil
}

func (m *FileSystemMedium) Write(_ context.Context, name string, data []byte) error {
	if err := validName(name); err != nil {
		return err
	}
	if err := filex.WriteFileAtomic(m.path(name), data, 0o600); err != nil {
		return common.FileSystem(m.path(name), err.Error())
	}
	return nil
}

func (m *FileSystemMedium) Delete(_ context.Context, name string) error {
	if err := validName(name); err != nil {
		return err
	}
	err := os.Remove(m.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return common.FileSystem(m.path(name), err.Error())
	}
	return nil
}

func (m *FileSystemMedium) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return nil, common.FileSystem(m.dir, err.Error())
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), fileExt))
	}
	sort.Strings(names)
	return names, nil
}
