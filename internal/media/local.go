package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps objects in a directory served under urlPrefix.
type LocalStorage struct {
	dir       string
	urlPrefix string
}

func NewLocalStorage(dir, urlPrefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &LocalStorage{dir: dir, urlPrefix: urlPrefix}, nil
}

// Dir returns the root directory, for serving files over HTTP.
func (s *LocalStorage) Dir() string {
	return s.dir
}

// URLPrefix returns the path prefix files are served under.
func (s *LocalStorage) URLPrefix() string {
	return s.urlPrefix
}

func (s *LocalStorage) path(name string) (string, error) {
	clean := filepath.Clean("/" + name)
	if clean == "/" || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

func (s *LocalStorage) Save(_ context.Context, name string, r io.Reader, _ int64, _ string) (string, error) {
	p, err := s.path(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
		return "", fmt.Errorf("create object directory: %w", err)
	}

	f, err := os.Create(p)
	if err != nil {
		return "", fmt.Errorf("create object: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(p)
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close object: %w", err)
	}
	return name, nil
}

func (s *LocalStorage) URL(name string) string {
	return joinURL(s.urlPrefix, name)
}

func (s *LocalStorage) Delete(_ context.Context, name string) error {
	p, err := s.path(name)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}
