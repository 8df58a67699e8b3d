// Package azure stores dev backend documents in an Azure blob container.
package azure

import (
	"context"
	"fmt"
	"io"
	nethttp "net/http"
	"os"
	"path"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"github.com/docassist/docassist/internal/cloud/storage"
	"github.com/docassist/docassist/internal/http"
	"github.com/docassist/docassist/internal/logging"
)

// ConnectionStringEnv overrides AccountURL when set.
const ConnectionStringEnv = "AZURE_STORAGE_CONNECTION_STRING"

// Options configures a Store.
type Options struct {
	Container  string
	AccountURL string // service URL carrying a SAS query
	Prefix     string

	HTTPClient *nethttp.Client
}

// Store implements storage.BlobStore on Azure blob storage.
type Store struct {
	client    *azblob.Client
	container string
	prefix    string
	retry     http.RetryConfig
}

// NewStore builds the azblob client from the connection string env var,
// falling back to the SAS account URL.
func NewStore(opts Options, logger *logging.Logger) (*Store, error) {
	if opts.Container == "" {
		return nil, fmt.Errorf("azure container is required")
	}
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}

	clientOpts := &azblob.ClientOptions{}
	if opts.HTTPClient != nil {
		clientOpts.ClientOptions = azcore.ClientOptions{Transport: opts.HTTPClient}
	}

	var (
		client *azblob.Client
		err    error
	)
	if conn := os.Getenv(ConnectionStringEnv); conn != "" {
		client, err = azblob.NewClientFromConnectionString(conn, clientOpts)
	} else if opts.AccountURL != "" {
		client, err = azblob.NewClientWithNoCredential(opts.AccountURL, clientOpts)
	} else {
		return nil, fmt.Errorf("azure account URL or %s is required", ConnectionStringEnv)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure client: %w", err)
	}

	retry := http.DefaultRetryConfig()
	retry.OnRetry = func(attempt int, err error, errType http.ErrorType) {
		logger.Warnf("Azure write retry %d (%s): %v", attempt, http.ErrorTypeName(errType), err)
	}

	return &Store{
		client:    client,
		container: opts.Container,
		prefix:    opts.Prefix,
		retry:     retry,
	}, nil
}

func (s *Store) blobName(key string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	if s.prefix == "" {
		return key, nil
	}
	return path.Join(s.prefix, key), nil
}

func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	name, err := s.blobName(key)
	if err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read blob %s: %w", key, err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("blob %s: read %d bytes, expected %d", key, len(data), size)
	}

	uploadOpts := &azblob.UploadBufferOptions{}
	if contentType != "" {
		uploadOpts.HTTPHeaders = &blob.HTTPHeaders{BlobContentType: &contentType}
	}

	return http.ExecuteWithRetry(ctx, s.retry, func() error {
		if _, err := s.client.UploadBuffer(ctx, s.container, name, data, uploadOpts); err != nil {
			return fmt.Errorf("upload %s/%s: %w", s.container, name, err)
		}
		return nil
	})
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	name, err := s.blobName(key)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.DownloadStream(ctx, s.container, name, nil)
	if err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("download %s/%s: %w", s.container, name, err)
	}
	return resp.Body, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	name, err := s.blobName(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteBlob(ctx, s.container, name, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.BlobNotFound) {
		return fmt.Errorf("delete %s/%s: %w", s.container, name, err)
	}
	return nil
}

func (s *Store) Name() string { return "azure" }
