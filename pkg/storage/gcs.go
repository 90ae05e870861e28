package storage

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"

	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/errors"
)

// GCSClient is a Client backed by Google Cloud Storage.
type GCSClient struct {
	client *gcs.Client
	bucket string
	logger *zap.Logger
}

// NewGCSClient creates a GCS client. Credentials come from
// cfg.CredentialsFile or the environment's application default credentials.
// cfg.Endpoint points the client at an emulator.
func NewGCSClient(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*GCSClient, error) {
	var opts []option.ClientOption

	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
		if cfg.CredentialsFile == "" {
			opts = append(opts, option.WithoutAuthentication())
		}
	}

	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return &GCSClient{
		client: client,
		bucket: cfg.BucketName,
		logger: logger.With(zap.String("component", "gcs_storage")),
	}, nil
}

// GetFileFromURI implements Client.
func (c *GCSClient) GetFileFromURI(ctx context.Context, uri string) ([]byte, error) {
	_, bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	r, err := c.client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		if stderrors.Is(err, gcs.ErrObjectNotExist) || stderrors.Is(err, gcs.ErrBucketNotExist) {
			return nil, errors.Wrap(err, errors.ErrorTypeNotFound, "Object not found").WithDetail("uri", uri)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "Failed to open GCS object").WithDetail("uri", uri)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "Failed to read GCS object").WithDetail("uri", uri)
	}

	c.logger.Debug("object downloaded", zap.String("uri", uri), zap.Int("bytes", len(data)))
	return data, nil
}

// StoreFile implements Client.
func (c *GCSClient) StoreFile(ctx context.Context, documentID, filename string, content []byte, opts UploadOptions) (FileRef, error) {
	key := ObjectKey(documentID, filename)

	writer := c.client.Bucket(c.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = opts.ContentType
	writer.Metadata = opts.Metadata

	if _, err := io.Copy(writer, bytes.NewReader(content)); err != nil {
		_ = writer.Close()
		return FileRef{}, errors.Wrap(err, errors.ErrorTypeConnection, "failed to write to GCS")
	}
	if err := writer.Close(); err != nil {
		return FileRef{}, errors.Wrap(err, errors.ErrorTypeConnection, "failed to close GCS writer")
	}

	c.logger.Info("object uploaded to GCS",
		zap.String("bucket", c.bucket),
		zap.String("object", key),
		zap.Int("bytes", len(content)))

	return FileRef{Path: key, Bucket: c.bucket, Size: int64(len(content))}, nil
}

// BucketName implements Client.
func (c *GCSClient) BucketName() string { return c.bucket }

// Scheme implements Client.
func (c *GCSClient) Scheme() string { return SchemeGCS }

// Close implements Client.
func (c *GCSClient) Close() error {
	return c.client.Close()
}
