package storage

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/errors"
)

const minPartSize = 5 * 1024 * 1024

// S3Client is a Client backed by Amazon S3 or an S3 compatible endpoint.
type S3Client struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
	logger   *zap.Logger
}

// NewS3Client creates an S3 client using the default AWS credential chain.
func NewS3Client(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (*S3Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	partSize := cfg.UploadPartSize
	if partSize < minPartSize {
		partSize = minPartSize
	}
	uploader := manager.NewUploader(client, func(u *manager.Uploader) {
		u.PartSize = partSize
		u.Concurrency = 4
	})

	return &S3Client{
		client:   client,
		uploader: uploader,
		bucket:   cfg.BucketName,
		logger:   logger.With(zap.String("component", "s3_storage")),
	}, nil
}

// GetFileFromURI implements Client.
func (c *S3Client) GetFileFromURI(ctx context.Context, uri string) ([]byte, error) {
	_, bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		var noBucket *types.NoSuchBucket
		if stderrors.As(err, &noKey) || stderrors.As(err, &noBucket) {
			return nil, errors.Wrap(err, errors.ErrorTypeNotFound, "Object not found").WithDetail("uri", uri)
		}
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "Failed to get S3 object").WithDetail("uri", uri)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "Failed to read S3 object").WithDetail("uri", uri)
	}

	c.logger.Debug("object downloaded", zap.String("uri", uri), zap.Int("bytes", len(data)))
	return data, nil
}

// StoreFile implements Client.
func (c *S3Client) StoreFile(ctx context.Context, documentID, filename string, content []byte, opts UploadOptions) (FileRef, error) {
	key := ObjectKey(documentID, filename)

	input := &s3.PutObjectInput{
		Bucket:   aws.String(c.bucket),
		Key:      aws.String(key),
		Body:     bytes.NewReader(content),
		Metadata: opts.Metadata,
	}
	if opts.ContentType != "" {
		input.ContentType = aws.String(opts.ContentType)
	}

	if _, err := c.uploader.Upload(ctx, input); err != nil {
		return FileRef{}, errors.Wrap(err, errors.ErrorTypeConnection, "failed to upload to S3")
	}

	c.logger.Info("object uploaded to S3",
		zap.String("bucket", c.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(content)))

	return FileRef{Path: key, Bucket: c.bucket, Size: int64(len(content))}, nil
}

// BucketName implements Client.
func (c *S3Client) BucketName() string { return c.bucket }

// Scheme implements Client.
func (c *S3Client) Scheme() string { return SchemeS3 }

// Close implements Client.
func (c *S3Client) Close() error { return nil }
