package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/docassist/docassist/internal/diskspace"
	"github.com/docassist/docassist/internal/validation"
)

// LocalStore keeps blobs as files under a root directory.
type LocalStore struct {
	root string
}

// NewLocalStore creates root if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("local store directory is required")
	}
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("create local store %s: %w", root, err)
	}
	return &LocalStore{root: root}, nil
}

func (l *LocalStore) path(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}
	rel := filepath.FromSlash(key)
	if err := validation.ValidatePathInDirectory(rel, l.root); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return filepath.Join(l.root, rel), nil
}

// Put writes to a temp file and renames it into place so readers never
// see partial content.
func (l *LocalStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	target, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0700); err != nil {
		return fmt.Errorf("create blob directory: %w", err)
	}
	if size > 0 {
		if err := diskspace.CheckAvailableSpace(filepath.Dir(target), size, diskspace.DefaultSafetyMargin); err != nil {
			return fmt.Errorf("blob %s: %w", key, err)
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), ".blob-*")
	if err != nil {
		return fmt.Errorf("create temp blob: %w", err)
	}
	tmpName := tmp.Name()

	written, copyErr := io.Copy(tmp, r)
	closeErr := tmp.Close()
	if copyErr == nil && closeErr == nil && size >= 0 && written != size {
		copyErr = fmt.Errorf("wrote %d bytes, expected %d", written, size)
	}
	if copyErr != nil || closeErr != nil {
		os.Remove(tmpName)
		if copyErr == nil {
			copyErr = closeErr
		}
		if IsDiskFullError(copyErr) {
			return fmt.Errorf("blob %s: disk full: %w", key, copyErr)
		}
		return fmt.Errorf("write blob %s: %w", key, copyErr)
	}

	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("commit blob %s: %w", key, err)
	}
	return nil
}

func (l *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	target, err := l.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open blob %s: %w", key, err)
	}
	return f, nil
}

func (l *LocalStore) Delete(ctx context.Context, key string) error {
	target, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	return nil
}

func (l *LocalStore) Name() string { return "local" }
