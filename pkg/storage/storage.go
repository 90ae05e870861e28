// Package storage provides the object storage clients used by the remote
// dataset provider and pipeline sink.
//
// # Backends
//
//   - gcs: Google Cloud Storage (cloud.google.com/go/storage)
//   - s3: Amazon S3 or any S3 compatible endpoint (aws-sdk-go-v2)
//   - memory: an in-process store for development and tests
//
// Clients are built from config.StorageConfig with Build, usually through a
// Handle so that construction happens once, on first use:
//
//	h := storage.NewHandle(cfg.Storage, logger)
//	client, err := h.Get(ctx)
//	payload, err := client.GetFileFromURI(ctx, "gs://bucket/path/data.json")
package storage

import (
	"context"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/errors"
	"github.com/ajitpratap0/wrangler/pkg/metrics"
)

// URI schemes understood by ParseURI.
const (
	SchemeGCS = "gs"
	SchemeS3  = "s3"
)

// Client is an object storage client.
type Client interface {
	// GetFileFromURI returns the bytes of the object at uri
	// (gs://bucket/key or s3://bucket/key). A missing object is not_found.
	GetFileFromURI(ctx context.Context, uri string) ([]byte, error)
	// StoreFile writes content to <documentID>/<filename> in the client's
	// bucket.
	StoreFile(ctx context.Context, documentID, filename string, content []byte, opts UploadOptions) (FileRef, error)
	// BucketName is the bucket StoreFile writes to; may be empty.
	BucketName() string
	// Scheme is the URI scheme of the backend, "gs" or "s3".
	Scheme() string
	Close() error
}

// UploadOptions carries object attributes for StoreFile.
type UploadOptions struct {
	ContentType string
	Metadata    map[string]string
}

// FileRef identifies a stored object.
type FileRef struct {
	// Path is the object key within the bucket
	Path   string
	Bucket string
	Size   int64
}

// URI returns the scheme-qualified URI of the object, or the bare path when
// the bucket is unknown.
func (f FileRef) URI(scheme string) string {
	return BuildURI(scheme, f.Bucket, f.Path)
}

// BuildURI joins scheme, bucket and key. An empty bucket yields key alone.
func BuildURI(scheme, bucket, key string) string {
	if bucket == "" {
		return key
	}
	if scheme == "" {
		scheme = SchemeGCS
	}
	return scheme + "://" + bucket + "/" + strings.TrimLeft(key, "/")
}

// ParseURI splits a gs:// or s3:// URI into its scheme, bucket and key.
func ParseURI(uri string) (scheme, bucket, key string, err error) {
	i := strings.Index(uri, "://")
	if i <= 0 {
		return "", "", "", errors.Newf(errors.ErrorTypeInvalidArgument, "invalid storage URI %q", uri)
	}
	scheme = strings.ToLower(uri[:i])
	if scheme != SchemeGCS && scheme != SchemeS3 {
		return "", "", "", errors.Newf(errors.ErrorTypeInvalidArgument, "unsupported storage URI scheme %q", scheme)
	}
	rest := uri[i+3:]
	j := strings.IndexByte(rest, '/')
	if j <= 0 || j == len(rest)-1 {
		return "", "", "", errors.Newf(errors.ErrorTypeInvalidArgument, "storage URI %q must name a bucket and an object", uri)
	}
	return scheme, rest[:j], rest[j+1:], nil
}

// IsStorageURI reports whether s uses a scheme ParseURI accepts.
func IsStorageURI(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, SchemeGCS+"://") || strings.HasPrefix(lower, SchemeS3+"://")
}

// ObjectKey joins documentID and filename into an object key.
func ObjectKey(documentID, filename string) string {
	return strings.TrimLeft(path.Join(documentID, filename), "/")
}

// Build validates cfg and constructs the configured client. Storage that is
// not enabled is a disabled error; an invalid configuration is a config
// error.
func Build(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !cfg.Enabled {
		return nil, errors.New(errors.ErrorTypeDisabled,
			"Storage client is disabled; set STORAGE__ENABLED=true to use the rt provider or sink")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "Invalid storage configuration")
	}

	var (
		client Client
		err    error
	)
	switch cfg.Backend {
	case config.BackendGCS:
		client, err = NewGCSClient(ctx, cfg, logger)
	case config.BackendS3:
		client, err = NewS3Client(ctx, cfg, logger)
	case config.BackendMemory:
		client = NewMemoryClient(cfg.BucketName)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "Failed to build storage client").
			WithDetail("backend", cfg.Backend)
	}

	logger.Info("storage client initialized",
		zap.String("backend", cfg.Backend),
		zap.String("bucket", cfg.BucketName))

	return &instrumented{Client: client, backend: cfg.Backend, timeout: cfg.OperationTimeout}, nil
}

// instrumented records metrics for every call and applies the per-operation
// timeout.
type instrumented struct {
	Client
	backend string
	timeout time.Duration
}

func (i *instrumented) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if i.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, i.timeout)
}

func (i *instrumented) GetFileFromURI(ctx context.Context, uri string) ([]byte, error) {
	ctx, cancel := i.withTimeout(ctx)
	defer cancel()
	data, err := i.Client.GetFileFromURI(ctx, uri)
	metrics.ObserveStorageOperation(i.backend, "get", err)
	return data, err
}

func (i *instrumented) StoreFile(ctx context.Context, documentID, filename string, content []byte, opts UploadOptions) (FileRef, error) {
	ctx, cancel := i.withTimeout(ctx)
	defer cancel()
	ref, err := i.Client.StoreFile(ctx, documentID, filename, content, opts)
	metrics.ObserveStorageOperation(i.backend, "put", err)
	return ref, err
}
