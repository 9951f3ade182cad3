// Package file stores the friend list as a JSON file on disk.
package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/mcoot/friendapi/internal/model"
	"github.com/mcoot/friendapi/internal/storage"
)

const (
	dirPerm  = 0o700
	filePerm = 0o600
)

// Storage is a JSON-file-backed implementation of the storage interface
type Storage struct {
	path string

	mu          sync.Mutex
	lastWritten []byte
}

// New creates file storage at path. The file is created on first save.
func New(path string) *Storage {
	return &Storage{path: filepath.Clean(path)}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Path returns the location of the friends file
func (s *Storage) Path() string {
	return s.path
}

func (s *Storage) Load(ctx context.Context) ([]model.FriendEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.FriendEntry{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.lastWritten = data
	s.mu.Unlock()

	return storage.Decode(data)
}

func (s *Storage) Save(ctx context.Context, entries []model.FriendEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := storage.Encode(entries)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	s.lastWritten = data
	return nil
}

// modifiedExternally reports whether the file content differs from what this
// storage last read or wrote
func (s *Storage) modifiedExternally() bool {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return errors.Is(err, fs.ErrNotExist) && s.hasWritten()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return !bytes.Equal(data, s.lastWritten)
}

func (s *Storage) hasWritten() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastWritten != nil
}

// writeFileAtomic writes data next to path and renames it into place so
// readers never see a partially written file
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("create dir for %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp for %s: %w", path, err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return fmt.Errorf("chmod temp for %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp for %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename temp for %s: %w", path, err)
	}
	return nil
}
