// Package fsxlocal keeps blobs on local disk under one base directory.
package fsxlocal

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/Abraxas-365/academy/pkg/fsx"
)

// LocalStorage implements fsx.Storage on the local filesystem. urlPrefix is
// the route the server mounts the base directory under.
type LocalStorage struct {
	baseDir   string
	urlPrefix string
}

// NewLocalStorage creates the base directory if needed.
func NewLocalStorage(baseDir, urlPrefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fsx.ErrRegistry.NewWithCause(fsx.CodeWriteFailed, err).WithDetail("dir", baseDir)
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fsx.ErrRegistry.NewWithCause(fsx.CodeInvalidPath, err).WithDetail("dir", baseDir)
	}
	return &LocalStorage{
		baseDir:   abs,
		urlPrefix: strings.TrimSuffix(urlPrefix, "/"),
	}, nil
}

// resolve maps a storage key to an on-disk path, refusing escapes from the
// base directory.
func (s *LocalStorage) resolve(path string) (string, error) {
	clean := filepath.Clean("/" + path)
	full := filepath.Join(s.baseDir, clean)
	if !strings.HasPrefix(full, s.baseDir) {
		return "", fsx.ErrRegistry.New(fsx.CodeInvalidPath).WithDetail("path", path)
	}
	return full, nil
}

func (s *LocalStorage) Write(_ context.Context, path string, data []byte, _ string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fsx.ErrRegistry.NewWithCause(fsx.CodeWriteFailed, err).WithDetail("path", path)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return fsx.ErrRegistry.NewWithCause(fsx.CodeWriteFailed, err).WithDetail("path", path)
	}
	return nil
}

func (s *LocalStorage) Read(_ context.Context, path string) ([]byte, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fsx.ErrRegistry.New(fsx.CodeNotFound).WithDetail("path", path)
		}
		return nil, fsx.ErrRegistry.NewWithCause(fsx.CodeReadFailed, err).WithDetail("path", path)
	}
	return data, nil
}

func (s *LocalStorage) Delete(_ context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fsx.ErrRegistry.NewWithCause(fsx.CodeWriteFailed, err).WithDetail("path", path)
	}
	return nil
}

func (s *LocalStorage) Exists(_ context.Context, path string) (bool, error) {
	full, err := s.resolve(path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fsx.ErrRegistry.NewWithCause(fsx.CodeReadFailed, err).WithDetail("path", path)
	}
	return true, nil
}

// URL maps the key onto the statically served prefix.
func (s *LocalStorage) URL(path string) string {
	return s.urlPrefix + "/" + strings.TrimPrefix(path, "/")
}

// BaseDir exposes the root for static file serving.
func (s *LocalStorage) BaseDir() string {
	return s.baseDir
}
