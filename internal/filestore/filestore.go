// Package filestore persists opaque file blobs (generated documents, uploaded
// signatures) under generated names. The name stored on a quote record is the
// only linkage; there is no content hashing and no cleanup of orphans.
package filestore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Store is the minimal surface the handlers and services need.
type Store interface {
	Save(name string, data []byte) error
	Open(name string) (io.ReadCloser, error)
	Read(name string) ([]byte, error)
	Exists(name string) bool
	Path(name string) (string, error)
}

// Local stores files in a single directory on disk.
type Local struct {
	baseDir string
}

func NewLocal(baseDir string) (*Local, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create file directory: %w", err)
	}
	return &Local{baseDir: baseDir}, nil
}

func (s *Local) Save(name string, data []byte) error {
	path, err := s.safeJoin(name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *Local) Open(name string) (io.ReadCloser, error) {
	path, err := s.safeJoin(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", name)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

func (s *Local) Read(name string) ([]byte, error) {
	f, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Local) Exists(name string) bool {
	path, err := s.safeJoin(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Path resolves name inside the base directory, rejecting traversal outside
// of it.
func (s *Local) Path(name string) (string, error) {
	return s.safeJoin(name)
}

func (s *Local) safeJoin(name string) (string, error) {
	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(s.baseDir, name))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes store directory: %s", name)
	}
	return absPath, nil
}
