// Package s3 stores dev backend documents in an S3 bucket (or any
// S3-compatible endpoint such as MinIO).
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"os"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/docassist/docassist/internal/cloud/storage"
	"github.com/docassist/docassist/internal/http"
	"github.com/docassist/docassist/internal/logging"
)

// Options configures a Store.
type Options struct {
	Bucket   string
	Region   string
	Endpoint string // custom endpoint; switches to path-style addressing
	Prefix   string // key prefix inside the bucket

	// HTTPClient is shared with the SDK for connection reuse.
	HTTPClient *nethttp.Client
}

// Store implements storage.BlobStore on S3.
type Store struct {
	client *s3.Client
	bucket string
	prefix string
	retry  http.RetryConfig
	logger *logging.Logger
}

// NewStore loads the default AWS config chain. Static credentials from
// AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY take precedence when set.
func NewStore(ctx context.Context, opts Options, logger *logging.Logger) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if opts.HTTPClient != nil {
		loadOpts = append(loadOpts, config.WithHTTPClient(opts.HTTPClient))
	}
	if key, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY"); key != "" && secret != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(key, secret, os.Getenv("AWS_SESSION_TOKEN")),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	retry := http.DefaultRetryConfig()
	retry.OnRetry = func(attempt int, err error, errType http.ErrorType) {
		logger.Warnf("S3 write retry %d (%s): %v", attempt, http.ErrorTypeName(errType), err)
	}

	return &Store{
		client: client,
		bucket: opts.Bucket,
		prefix: opts.Prefix,
		retry:  retry,
		logger: logger,
	}, nil
}

func (s *Store) objectKey(key string) (string, error) {
	if err := storage.ValidateKey(key); err != nil {
		return "", err
	}
	if s.prefix == "" {
		return key, nil
	}
	return path.Join(s.prefix, key), nil
}

// Put buffers the body so retries can resend it.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	objectKey, err := s.objectKey(key)
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

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(objectKey),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	return http.ExecuteWithRetry(ctx, s.retry, func() error {
		input.Body = bytes.NewReader(data)
		if _, err := s.client.PutObject(ctx, input); err != nil {
			return fmt.Errorf("put s3://%s/%s: %w", s.bucket, objectKey, err)
		}
		return nil
	})
}

func (s *Store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, objectKey, err)
	}
	return out.Body, nil
}

// Delete is idempotent; S3 reports success for missing keys.
func (s *Store) Delete(ctx context.Context, key string) error {
	objectKey, err := s.objectKey(key)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete s3://%s/%s: %w", s.bucket, objectKey, err)
	}
	return nil
}

func (s *Store) Name() string { return "s3" }

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var respErr *awshttp.ResponseError
	return errors.As(err, &respErr) && respErr.HTTPStatusCode() == nethttp.StatusNotFound
}
