package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStorage keeps files under basePath/<kind>/<name>
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the base path and one directory per kind
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	for _, kind := range Kinds {
		if err := os.MkdirAll(filepath.Join(basePath, string(kind)), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}
	return &LocalStorage{basePath: basePath}, nil
}

// BasePath returns the uploads root, used by the backup job
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

func (s *LocalStorage) path(kind Kind, name string) (string, error) {
	if !ValidName(name) {
		return "", fmt.Errorf("invalid file name: %q", name)
	}
	return filepath.Join(s.basePath, string(kind), name), nil
}

func (s *LocalStorage) Save(ctx context.Context, kind Kind, name, contentType string, data io.Reader, size int64) (int64, error) {
	fullPath, err := s.path(kind, name)
	if err != nil {
		return 0, err
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	written, err := io.Copy(file, data)
	if err != nil {
		os.Remove(fullPath)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	return written, nil
}

func (s *LocalStorage) Open(ctx context.Context, kind Kind, name string) (io.ReadCloser, error) {
	fullPath, err := s.path(kind, name)
	if err != nil {
		return nil, ErrNotFound
	}
	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *LocalStorage) Delete(ctx context.Context, kind Kind, name string) error {
	fullPath, err := s.path(kind, name)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) List(ctx context.Context, kind Kind) ([]Object, error) {
	entries, err := os.ReadDir(filepath.Join(s.basePath, string(kind)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", kind, err)
	}
	objects := make([]Object, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		objects = append(objects, Object{Name: e.Name(), Size: info.Size(), ModTime: info.ModTime()})
	}
	return objects, nil
}
