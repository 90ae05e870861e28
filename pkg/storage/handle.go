package storage

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/errors"
	"github.com/ajitpratap0/wrangler/pkg/metrics"
)

// BuildFunc constructs a Client.
type BuildFunc func(ctx context.Context) (Client, error)

// Handle owns a lazily built Client. The client is constructed at most once,
// under a mutex, by the first successful Get; a failed construction is not
// remembered and the next Get tries again.
type Handle struct {
	mu     sync.Mutex
	client Client
	build  BuildFunc
}

// NewHandle returns a Handle that builds a client from cfg on first use.
func NewHandle(cfg config.StorageConfig, logger *zap.Logger) *Handle {
	return NewHandleFunc(func(ctx context.Context) (Client, error) {
		return Build(ctx, cfg, logger)
	})
}

// NewHandleFunc returns a Handle that calls build on first use.
func NewHandleFunc(build BuildFunc) *Handle {
	return &Handle{build: build}
}

// NewHandleWithClient returns a Handle around an existing client.
func NewHandleWithClient(client Client) *Handle {
	return &Handle{client: client}
}

// Get returns the client, building it if needed.
func (h *Handle) Get(ctx context.Context) (Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.client != nil {
		return h.client, nil
	}
	if h.build == nil {
		return nil, errors.New(errors.ErrorTypeConfig, "Storage client has been closed")
	}

	client, err := h.build(ctx)
	metrics.StorageClientsBuilt.WithLabelValues(metrics.Status(err)).Inc()
	if err != nil {
		return nil, err
	}
	h.client = client
	return client, nil
}

// Close closes the client if it was built.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.client == nil {
		return nil
	}
	err := h.client.Close()
	h.client = nil
	return err
}
