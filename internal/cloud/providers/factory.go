// Package providers selects the dev backend blob store from preferences.
package providers

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/docassist/docassist/internal/cloud/providers/azure"
	"github.com/docassist/docassist/internal/cloud/providers/s3"
	"github.com/docassist/docassist/internal/cloud/storage"
	"github.com/docassist/docassist/internal/config"
	"github.com/docassist/docassist/internal/http"
	"github.com/docassist/docassist/internal/logging"
	"github.com/docassist/docassist/internal/pathutil"
)

// NewBlobStore creates the store named by prefs.BlobBackend. cfg supplies
// proxy settings for the cloud SDK HTTP clients and may be nil.
func NewBlobStore(ctx context.Context, prefs config.DevBackendPreferences, cfg *config.Config, logger *logging.Logger) (storage.BlobStore, error) {
	switch prefs.BlobBackend {
	case "", "memory":
		return storage.NewMemoryStore(), nil

	case "local":
		dir := prefs.LocalDir
		if dir == "" {
			dir = filepath.Join(config.ConfigDirectory(), "blobs")
		}
		dir, err := pathutil.ResolveAbsolutePath(dir)
		if err != nil {
			return nil, fmt.Errorf("invalid local blob directory: %w", err)
		}
		return storage.NewLocalStore(dir)

	case "s3":
		httpClient, err := http.CreateOptimizedClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		return s3.NewStore(ctx, s3.Options{
			Bucket:     prefs.S3Bucket,
			Region:     prefs.S3Region,
			Endpoint:   prefs.S3Endpoint,
			Prefix:     prefs.S3Prefix,
			HTTPClient: httpClient,
		}, logger)

	case "azure":
		httpClient, err := http.CreateOptimizedClient(cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		return azure.NewStore(azure.Options{
			Container:  prefs.AzureContainer,
			AccountURL: prefs.AzureAccountURL,
			HTTPClient: httpClient,
		}, logger)

	default:
		return nil, fmt.Errorf("unsupported blob backend: %s", prefs.BlobBackend)
	}
}
