// Package storage defines the blob store contract the dev backend keeps
// document bytes in, plus the in-memory and local-directory stores.
// The S3 and Azure stores live under cloud/providers.
package storage

import (
	"context"
	"io"
)

// BlobStore stores opaque document content by key.
type BlobStore interface {
	// Put writes size bytes from r under key, replacing any previous content.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error

	// Get opens the content stored under key. Missing keys return ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Name identifies the backend in logs ("memory", "local", "s3", "azure").
	Name() string
}
