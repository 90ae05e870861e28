package dataset

import (
	"context"

	"go.uber.org/zap"

	"github.com/ajitpratap0/wrangler/pkg/clients"
	"github.com/ajitpratap0/wrangler/pkg/compression"
	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/errors"
	"github.com/ajitpratap0/wrangler/pkg/format"
	"github.com/ajitpratap0/wrangler/pkg/layout"
	"github.com/ajitpratap0/wrangler/pkg/logger"
	"github.com/ajitpratap0/wrangler/pkg/models"
	"github.com/ajitpratap0/wrangler/pkg/storage"
)

// RemoteProvider understands object storage URIs and the envelope layout in
// addition to everything LocalProvider handles.
type RemoteProvider struct {
	base
	storage  *storage.Handle
	resolver layout.Resolver
	layout   config.LayoutConfig
	bucket   string
}

// NewRemoteProvider creates a RemoteProvider. The storage client is built
// from cfg.Storage on first use unless one is injected with WithStorage.
func NewRemoteProvider(cfg *config.Config, opts ...Option) *RemoteProvider {
	o := buildOptions(cfg, opts)

	handle := storage.NewHandle(cfg.Storage, o.logger)
	if o.storage != nil {
		handle = storage.NewHandleWithClient(o.storage)
	}

	return &RemoteProvider{
		base:     newBase(ProviderRemote, SubdirRemote, cfg.HomeDir, o),
		storage:  handle,
		resolver: o.resolver,
		layout:   cfg.Layout,
		bucket:   cfg.Storage.BucketName,
	}
}

// SaveUpload implements Provider. Uploads always land locally.
func (p *RemoteProvider) SaveUpload(ctx context.Context, req UploadRequest) (*models.DatasetLoadResult, error) {
	return p.saveUpload(ctx, req)
}

// LoadDataset implements Provider.
func (p *RemoteProvider) LoadDataset(ctx context.Context, req LoadRequest) (*models.DatasetLoadResult, error) {
	source := loadSource(req)
	if storage.IsStorageURI(req.DatasetURL) {
		source = sourceStorage
	}

	return p.instrument(ctx, "load_dataset", source, req.Namespace, func(ctx context.Context) (*models.DatasetLoadResult, error) {
		switch {
		case clients.IsHTTPURL(req.DatasetURL):
			return p.downloadAndWrite(ctx, req.Namespace, req.DatasetURL,
				models.NewMetadata("dataset_url", req.DatasetURL))
		case storage.IsStorageURI(req.DatasetURL):
			return p.fetchObject(ctx, req)
		case req.DatasetURL != "":
			return p.readLocal(req.DatasetURL, models.NewMetadata(
				"dataset_url", req.DatasetURL,
				"provider", ProviderRemote,
			))
		case req.SourceVersionID != "":
			return p.resolveSourceVersion(ctx, req)
		default:
			return nil, errors.New(errors.ErrorTypeInvalidArgument,
				"dataset_url or source_version_id is required")
		}
	})
}

// fetchObject downloads a gs:// or s3:// object, inflates it according to
// its extension and normalizes it.
func (p *RemoteProvider) fetchObject(ctx context.Context, req LoadRequest) (*models.DatasetLoadResult, error) {
	client, err := p.storage.Get(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := client.GetFileFromURI(ctx, req.DatasetURL)
	if err != nil {
		return nil, err
	}

	alg, filename := compression.AlgorithmForFilename(clients.FilenameFromURL(req.DatasetURL))
	if alg != compression.None {
		payload, err = compression.Decompress(alg, payload)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFormat, "Failed to decompress dataset object").
				WithDetail("uri", req.DatasetURL)
		}
	}

	return p.normalizeAndWrite(req.Namespace, filename, payload, models.NewMetadata(
		"dataset_url", req.DatasetURL,
		"source_uri", req.DatasetURL,
	))
}

// resolveSourceVersion locates the envelope for a source version through
// the storage layout and materializes it verbatim.
func (p *RemoteProvider) resolveSourceVersion(ctx context.Context, req LoadRequest) (*models.DatasetLoadResult, error) {
	client, err := p.storage.Get(ctx)
	if err != nil {
		return nil, err
	}

	l, err := p.layoutResolver(client).LoadLayout(ctx, req.Env)
	if err != nil {
		return nil, err
	}

	cid := layout.CanonicalSourceID(req.CanonicalSourceID, req.ProjectID)
	prefix := layout.EnvelopePrefix(l, cid, req.SourceVersionID)
	uri := storage.BuildURI(client.Scheme(), l.Bucket, layout.EnvelopeKey(prefix))

	logger.FromContext(ctx, p.logger).Debug("resolved envelope",
		zap.String("source_version_id", req.SourceVersionID),
		zap.String("canonical_source_id", cid),
		zap.String("uri", uri))

	payload, err := client.GetFileFromURI(ctx, uri)
	if err != nil {
		return nil, err
	}
	if !format.IsJSONOrJSONLines(payload) {
		return nil, errors.New(errors.ErrorTypeFormat, "Envelope is not valid JSON").WithDetail("uri", uri)
	}

	meta := models.NewMetadata(
		"source_version_id", req.SourceVersionID,
		"canonical_source_id", cid,
		"env", layout.EnvName(req.Env, l),
	)
	meta.SetIfNotEmpty("project_id", req.ProjectID)
	meta.SetIfNotEmpty("subset", req.Subset)
	meta.Set("source_uri", uri)

	return p.write(req.Namespace, EnvelopeFilename, payload, meta)
}

// layoutResolver returns the injected resolver or a fresh one for this
// call, so a descriptor is read at most once per call.
func (p *RemoteProvider) layoutResolver(client storage.Client) layout.Resolver {
	if p.resolver != nil {
		return p.resolver
	}
	bucket := client.BucketName()
	if bucket == "" {
		bucket = p.bucket
	}
	if p.layout.DescriptorURI != "" {
		return layout.NewDescriptorResolver(client, p.layout.DescriptorURI, bucket, p.logger)
	}
	return layout.NewStaticResolver(p.layout, bucket)
}

// Close releases the storage client if it was built.
func (p *RemoteProvider) Close() error {
	return p.storage.Close()
}
