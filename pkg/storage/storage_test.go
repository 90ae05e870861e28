package storage

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/errors"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		uri     string
		scheme  string
		bucket  string
		key     string
		wantErr bool
	}{
		{"gs://bucket/x.json", "gs", "bucket", "x.json", false},
		{"gs://bucket/a/b/c.json.gz", "gs", "bucket", "a/b/c.json.gz", false},
		{"S3://bucket/k", "s3", "bucket", "k", false},
		{"gs://bucket", "", "", "", true},
		{"gs://bucket/", "", "", "", true},
		{"gs:///key", "", "", "", true},
		{"https://host/key", "", "", "", true},
		{"/local/path", "", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			scheme, bucket, key, err := ParseURI(tt.uri)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, scheme)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.key, key)
		})
	}
}

func TestBuildURIAndObjectKey(t *testing.T) {
	assert.Equal(t, "gs://b/specs/docetl/p/1.yaml", BuildURI("gs", "b", "specs/docetl/p/1.yaml"))
	assert.Equal(t, "s3://b/k", BuildURI("s3", "b", "/k"))
	assert.Equal(t, "specs/k", BuildURI("gs", "", "specs/k"))

	assert.Equal(t, "specs/docetl/p/1.yaml", ObjectKey("specs/docetl/p", "1.yaml"))
	assert.Equal(t, "x.yaml", ObjectKey("", "x.yaml"))
	assert.Equal(t, "a/x.yaml", ObjectKey("/a/", "x.yaml"))
}

func TestIsStorageURI(t *testing.T) {
	assert.True(t, IsStorageURI("gs://b/k"))
	assert.True(t, IsStorageURI("s3://b/k"))
	assert.False(t, IsStorageURI("https://b/k"))
	assert.False(t, IsStorageURI("b/k"))
}

func TestMemoryClient(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryClient("bucket")

	ref, err := m.StoreFile(ctx, "specs/docetl/p", "v1.yaml", []byte("a: 1"), UploadOptions{
		ContentType: "text/yaml",
		Metadata:    map[string]string{"version": "v1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "specs/docetl/p/v1.yaml", ref.Path)
	assert.Equal(t, "gs://bucket/specs/docetl/p/v1.yaml", ref.URI(m.Scheme()))
	assert.Equal(t, int64(4), ref.Size)

	data, err := m.GetFileFromURI(ctx, "gs://bucket/specs/docetl/p/v1.yaml")
	require.NoError(t, err)
	assert.Equal(t, "a: 1", string(data))

	obj, ok := m.Object("bucket", "specs/docetl/p/v1.yaml")
	require.True(t, ok)
	assert.Equal(t, "text/yaml", obj.ContentType)
	assert.Equal(t, "v1", obj.Metadata["version"])

	_, err = m.GetFileFromURI(ctx, "gs://bucket/missing.json")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))
}

func TestBuild(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	_, err := Build(ctx, config.StorageConfig{Enabled: false, Backend: config.BackendMemory}, logger)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDisabled))

	_, err = Build(ctx, config.StorageConfig{Enabled: true, Backend: config.BackendGCS}, logger)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	_, err = Build(ctx, config.StorageConfig{Enabled: true, Backend: "azure", BucketName: "b"}, logger)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	client, err := Build(ctx, config.StorageConfig{Enabled: true, Backend: config.BackendMemory, BucketName: "mem"}, logger)
	require.NoError(t, err)
	assert.Equal(t, "mem", client.BucketName())
	assert.Equal(t, SchemeGCS, client.Scheme())
	assert.NoError(t, client.Close())
}

func TestBuild_CloudBackendsWithEndpoint(t *testing.T) {
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	gcsClient, err := Build(ctx, config.StorageConfig{
		Enabled:    true,
		Backend:    config.BackendGCS,
		BucketName: "g",
		Endpoint:   "http://127.0.0.1:4443/storage/v1/",
	}, logger)
	require.NoError(t, err)
	assert.Equal(t, SchemeGCS, gcsClient.Scheme())
	assert.Equal(t, "g", gcsClient.BucketName())
	_ = gcsClient.Close()

	s3Client, err := Build(ctx, config.StorageConfig{
		Enabled:      true,
		Backend:      config.BackendS3,
		BucketName:   "s",
		Region:       "us-east-1",
		Endpoint:     "http://127.0.0.1:9000",
		UsePathStyle: true,
	}, logger)
	require.NoError(t, err)
	assert.Equal(t, SchemeS3, s3Client.Scheme())
	assert.Equal(t, "s", s3Client.BucketName())
}

func TestBuild_OperationTimeout(t *testing.T) {
	slow := &blockingClient{MemoryClient: NewMemoryClient("b")}
	c := &instrumented{Client: slow, backend: "memory", timeout: 10 * time.Millisecond}

	_, err := c.GetFileFromURI(context.Background(), "gs://b/k")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type blockingClient struct {
	*MemoryClient
}

func (b *blockingClient) GetFileFromURI(ctx context.Context, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestHandle_BuildsOnceUnderConcurrentFirstUse(t *testing.T) {
	var builds int32
	h := NewHandleFunc(func(ctx context.Context) (Client, error) {
		atomic.AddInt32(&builds, 1)
		time.Sleep(5 * time.Millisecond)
		return NewMemoryClient("b"), nil
	})

	var wg sync.WaitGroup
	clients := make([]Client, 16)
	for i := range clients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c, err := h.Get(context.Background())
			assert.NoError(t, err)
			clients[i] = c
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&builds))
	for _, c := range clients {
		assert.Same(t, clients[0], c)
	}
}

func TestHandle_FailuresAreNotMemoized(t *testing.T) {
	var builds int32
	h := NewHandleFunc(func(ctx context.Context) (Client, error) {
		if atomic.AddInt32(&builds, 1) == 1 {
			return nil, errors.New(errors.ErrorTypeConfig, "not yet")
		}
		return NewMemoryClient("b"), nil
	})

	_, err := h.Get(context.Background())
	require.Error(t, err)

	c, err := h.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "b", c.BucketName())
	assert.Equal(t, int32(2), atomic.LoadInt32(&builds))
}

func TestHandle_DisabledConfig(t *testing.T) {
	h := NewHandle(config.StorageConfig{Enabled: false}, zaptest.NewLogger(t))
	_, err := h.Get(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDisabled))
}

func TestHandle_WithClientAndClose(t *testing.T) {
	m := NewMemoryClient("b")
	h := NewHandleWithClient(m)

	c, err := h.Get(context.Background())
	require.NoError(t, err)
	assert.Same(t, m, c)

	require.NoError(t, h.Close())
	_, err = h.Get(context.Background())
	assert.Error(t, err)
}
