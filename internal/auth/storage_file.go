package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStorage keeps the credential record in a local JSON file,
// the Go equivalent of the browser-scoped local store the editor
// originally relied on.
type FileStorage struct {
	path string
}

// NewFileStorage creates a file-backed credential storage at path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) Read() ([]byte, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return data, true, nil
}

func (s *FileStorage) Write(data []byte) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create credentials directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}

// MemoryStorage is an in-memory Storage for tests.
type MemoryStorage struct {
	data []byte
	set  bool
}

func (s *MemoryStorage) Read() ([]byte, bool, error) { return s.data, s.set, nil }

func (s *MemoryStorage) Write(data []byte) error {
	s.data = append([]byte(nil), data...)
	s.set = true
	return nil
}
