package dataset

import (
	"context"
	"path/filepath"

	"github.com/ajitpratap0/wrangler/pkg/clients"
	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/errors"
	"github.com/ajitpratap0/wrangler/pkg/models"
)

// LocalProvider backs datasets by the local namespace tree. It cannot
// resolve source versions.
type LocalProvider struct {
	base
}

// NewLocalProvider creates a LocalProvider rooted at cfg.HomeDir.
func NewLocalProvider(cfg *config.Config, opts ...Option) *LocalProvider {
	o := buildOptions(cfg, opts)
	return &LocalProvider{base: newBase(ProviderLocal, SubdirLocal, cfg.HomeDir, o)}
}

// SaveUpload implements Provider.
func (p *LocalProvider) SaveUpload(ctx context.Context, req UploadRequest) (*models.DatasetLoadResult, error) {
	return p.saveUpload(ctx, req)
}

// LoadDataset implements Provider.
func (p *LocalProvider) LoadDataset(ctx context.Context, req LoadRequest) (*models.DatasetLoadResult, error) {
	return p.instrument(ctx, "load_dataset", loadSource(req), req.Namespace, func(ctx context.Context) (*models.DatasetLoadResult, error) {
		switch {
		case clients.IsHTTPURL(req.DatasetURL):
			return p.downloadAndWrite(ctx, req.Namespace, req.DatasetURL, nil)
		case req.DatasetURL != "":
			return p.readLocal(req.DatasetURL, models.NewMetadata(
				"provider", ProviderLocal,
				"filename", filepath.Base(req.DatasetURL),
			))
		case req.SourceVersionID != "":
			return nil, errors.New(errors.ErrorTypeInvalidArgument,
				"source_version_id requires the remote dataset provider")
		default:
			return nil, errors.New(errors.ErrorTypeInvalidArgument,
				"dataset_url or source_version_id is required")
		}
	})
}
