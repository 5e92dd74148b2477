// Package storage provides object storage adapters for spatial documents.
package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jobrunner/geopipe/internal/domain"
	"github.com/jobrunner/geopipe/internal/ports/output"
)

// LocalStorage implements ObjectStorage for a local directory.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new local storage adapter.
func NewLocalStorage(basePath string) *LocalStorage {
	return &LocalStorage{basePath: basePath}
}

// BasePath returns the watched directory.
func (s *LocalStorage) BasePath() string {
	return s.basePath
}

// List returns all spatial documents below the base directory.
func (s *LocalStorage) List(ctx context.Context) ([]output.StorageObject, error) {
	var objects []output.StorageObject

	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() || !domain.IsDocumentPath(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}

		objects = append(objects, output.StorageObject{
			Key:          filepath.ToSlash(relPath),
			Size:         info.Size(),
			LastModified: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, &domain.StorageError{Operation: "list", Err: err}
	}

	return objects, nil
}

// GetReader opens the document stored under key.
func (s *LocalStorage) GetReader(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := s.FullPath(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path) //#nosec G304 -- path is confined to the base directory
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &domain.StorageError{Operation: "read", Key: key, Err: domain.ErrDocumentNotFound}
	}
	if err != nil {
		return nil, &domain.StorageError{Operation: "read", Key: key, Err: err}
	}
	return f, nil
}

// Exists checks if a document exists.
func (s *LocalStorage) Exists(_ context.Context, key string) (bool, error) {
	path, err := s.FullPath(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, &domain.StorageError{Operation: "stat", Key: key, Err: err}
}

// FullPath returns the file path for a key. Keys may not leave the base
// directory.
func (s *LocalStorage) FullPath(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", &domain.StorageError{Operation: "resolve", Key: key, Err: domain.ErrInvalidInput}
	}
	return filepath.Join(s.basePath, clean), nil
}

// KeyFor returns the storage key of a file path below the base directory.
func (s *LocalStorage) KeyFor(path string) (string, error) {
	rel, err := filepath.Rel(s.basePath, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}
