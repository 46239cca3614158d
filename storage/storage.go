// Package storage keeps uploaded files on the local disk.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"insights/utils"
)

// ErrOutsideRoot is returned for paths that do not belong to the store.
var ErrOutsideRoot = errors.New("path outside upload directory")

// FileStore saves files under a single directory.
type FileStore struct {
	root string
}

// NewFileStore creates root if needed.
func NewFileStore(root string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &FileStore{root: abs}, nil
}

func (s *FileStore) Root() string { return s.root }

// Save writes r to a new file named "<uuid>-<sanitized name>" and returns
// its path.
func (s *FileStore) Save(name string, r io.Reader) (string, error) {
	path := filepath.Join(s.root, uuid.NewString()+"-"+utils.SanitizeFilename(name))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close file: %w", err)
	}
	return path, nil
}

func (s *FileStore) Open(path string) (io.ReadCloser, error) {
	if err := s.checkPath(path); err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Remove deletes the file. A missing file is not an error.
func (s *FileStore) Remove(path string) error {
	if err := s.checkPath(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

func (s *FileStore) checkPath(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(abs, s.root+string(filepath.Separator)) {
		return ErrOutsideRoot
	}
	return nil
}
