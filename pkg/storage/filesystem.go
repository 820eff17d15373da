package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrTooLarge is returned when a stream exceeds the configured size limit.
var ErrTooLarge = errors.New("file exceeds size limit")

// ErrInvalidKey is returned for keys escaping the storage root.
var ErrInvalidKey = errors.New("invalid storage key")

// LocalStorage keeps proposal documents on disk below a root directory.
type LocalStorage struct {
	root    string
	maxSize int64
}

// NewLocalStorage creates root if needed. maxSize <= 0 disables the limit.
func NewLocalStorage(root string, maxSize int64) (*LocalStorage, error) {
	if root == "" {
		root = "./uploads"
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStorage{root: abs, maxSize: maxSize}, nil
}

// Put streams r into key and returns the number of bytes written.
// A partially written file is removed when the limit is exceeded.
func (s *LocalStorage) Put(key string, r io.Reader) (int64, error) {
	path, err := s.resolve(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("prepare document directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create document: %w", err)
	}

	src := r
	if s.maxSize > 0 {
		src = io.LimitReader(r, s.maxSize+1)
	}
	n, copyErr := io.Copy(file, src)
	closeErr := file.Close()
	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return 0, fmt.Errorf("write document: %w", copyErr)
	case s.maxSize > 0 && n > s.maxSize:
		_ = os.Remove(path)
		return 0, ErrTooLarge
	case closeErr != nil:
		return 0, fmt.Errorf("close document: %w", closeErr)
	}
	return n, nil
}

// Open returns a reader for key. The caller closes it.
func (s *LocalStorage) Open(key string) (*os.File, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	return file, nil
}

// Delete removes key; missing files are not an error.
func (s *LocalStorage) Delete(key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Path exposes the absolute location of key.
func (s *LocalStorage) Path(key string) (string, error) {
	return s.resolve(key)
}

func (s *LocalStorage) resolve(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || filepath.IsAbs(key) {
		return "", ErrInvalidKey
	}
	path := filepath.Join(s.root, filepath.Clean(key))
	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", ErrInvalidKey
	}
	return path, nil
}
