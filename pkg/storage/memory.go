package storage

import (
	"context"
	"sync"

	"github.com/ajitpratap0/wrangler/pkg/errors"
)

// Object is a stored object as seen by MemoryClient.
type Object struct {
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

// MemoryClient keeps objects in process memory. It accepts both gs:// and
// s3:// URIs and reports the gs scheme.
type MemoryClient struct {
	bucket string

	mu      sync.RWMutex
	objects map[string]Object
}

// NewMemoryClient returns an empty client writing to bucket.
func NewMemoryClient(bucket string) *MemoryClient {
	return &MemoryClient{
		bucket:  bucket,
		objects: make(map[string]Object),
	}
}

// Put seeds an object directly.
func (m *MemoryClient) Put(bucket, key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[bucket+"/"+key] = Object{Data: append([]byte(nil), data...)}
}

// Object returns a stored object.
func (m *MemoryClient) Object(bucket, key string) (Object, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[bucket+"/"+key]
	return obj, ok
}

// Len returns the number of stored objects.
func (m *MemoryClient) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

// GetFileFromURI implements Client.
func (m *MemoryClient) GetFileFromURI(ctx context.Context, uri string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[bucket+"/"+key]
	if !ok {
		return nil, errors.New(errors.ErrorTypeNotFound, "Object not found").WithDetail("uri", uri)
	}
	return append([]byte(nil), obj.Data...), nil
}

// StoreFile implements Client.
func (m *MemoryClient) StoreFile(ctx context.Context, documentID, filename string, content []byte, opts UploadOptions) (FileRef, error) {
	if err := ctx.Err(); err != nil {
		return FileRef{}, err
	}
	key := ObjectKey(documentID, filename)

	meta := make(map[string]string, len(opts.Metadata))
	for k, v := range opts.Metadata {
		meta[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[m.bucket+"/"+key] = Object{
		Data:        append([]byte(nil), content...),
		ContentType: opts.ContentType,
		Metadata:    meta,
	}
	return FileRef{Path: key, Bucket: m.bucket, Size: int64(len(content))}, nil
}

// BucketName implements Client.
func (m *MemoryClient) BucketName() string { return m.bucket }

// Scheme implements Client.
func (m *MemoryClient) Scheme() string { return SchemeGCS }

// Close implements Client.
func (m *MemoryClient) Close() error { return nil }
