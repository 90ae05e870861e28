// Package dataset resolves dataset requests into JSON files materialized
// under a namespace directory.
//
// Two providers implement Provider:
//
//   - local: uploads, HTTP(S) URLs and local paths; files land in
//     <home>/.docetl/<namespace>/files
//   - rt: everything local does plus gs:// and s3:// objects and versioned
//     source envelopes; files land in <home>/.docetl/<namespace>/rt
//
// The provider is chosen once, from configuration:
//
//	provider, err := dataset.New(cfg)
//	result, err := provider.LoadDataset(ctx, dataset.LoadRequest{
//	    Namespace:  "ns1",
//	    DatasetURL: "https://example.com/people.csv",
//	})
package dataset

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ajitpratap0/wrangler/pkg/clients"
	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/layout"
	"github.com/ajitpratap0/wrangler/pkg/logger"
	"github.com/ajitpratap0/wrangler/pkg/models"
	"github.com/ajitpratap0/wrangler/pkg/storage"
)

// Provider names reported in result metadata.
const (
	ProviderLocal  = config.KindLocal
	ProviderRemote = config.KindRemote
)

// Namespace subdirectories used by each provider.
const (
	SubdirLocal  = "files"
	SubdirRemote = "rt"
)

// EnvelopeFilename is the name under which envelopes are materialized.
const EnvelopeFilename = "envelope.json"

// Provider resolves dataset requests.
type Provider interface {
	// SaveUpload stores an uploaded file or the body of a URL under the
	// namespace. Exactly one of req.Upload and req.URL must be set.
	SaveUpload(ctx context.Context, req UploadRequest) (*models.DatasetLoadResult, error)
	// LoadDataset resolves a URL, local path or source version.
	LoadDataset(ctx context.Context, req LoadRequest) (*models.DatasetLoadResult, error)
}

// Upload is an uploaded file.
type Upload struct {
	Filename string
	Content  []byte
}

// UploadRequest is the input to SaveUpload.
type UploadRequest struct {
	Namespace string
	Upload    *Upload
	URL       string
}

// LoadRequest is the input to LoadDataset. Subset is recorded in metadata
// but never interpreted.
type LoadRequest struct {
	Namespace         string
	DatasetURL        string
	SourceVersionID   string
	ProjectID         string
	Subset            string
	Env               string
	CanonicalSourceID string
}

// Downloader fetches a URL.
type Downloader interface {
	Download(ctx context.Context, url string) (*clients.Download, error)
}

// Option configures a provider.
type Option func(*options)

type options struct {
	downloader Downloader
	storage    storage.Client
	resolver   layout.Resolver
	logger     *zap.Logger
}

// WithHTTPClient sets the downloader used for http(s) URLs.
func WithHTTPClient(d Downloader) Option {
	return func(o *options) { o.downloader = d }
}

// WithStorage injects a prebuilt storage client instead of building one
// from configuration on first use.
func WithStorage(c storage.Client) Option {
	return func(o *options) { o.storage = c }
}

// WithLayoutResolver overrides the per-call layout resolver.
func WithLayoutResolver(r layout.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithLogger sets the logger. The default is the global logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New returns the provider selected by cfg.DataProvider.
func New(cfg *config.Config, opts ...Option) (Provider, error) {
	switch cfg.DataProvider {
	case config.KindLocal, "":
		return NewLocalProvider(cfg, opts...), nil
	case config.KindRemote:
		return NewRemoteProvider(cfg, opts...), nil
	default:
		return nil, fmt.Errorf("unsupported data provider: %q", cfg.DataProvider)
	}
}

func buildOptions(cfg *config.Config, opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	if o.downloader == nil {
		o.downloader = clients.NewHTTPClient(cfg.HTTP, o.logger)
	}
	return o
}
