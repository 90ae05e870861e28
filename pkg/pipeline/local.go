package pipeline

import (
	"context"
	"os"
	"path/filepath"

	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/errors"
	"github.com/ajitpratap0/wrangler/pkg/models"
	"github.com/ajitpratap0/wrangler/pkg/namespace"
)

// LocalSink writes pipelines into the namespace tree. No history is kept.
type LocalSink struct {
	instrumented
	store *namespace.Store
}

// NewLocalSink creates a LocalSink rooted at cfg.HomeDir.
func NewLocalSink(cfg *config.Config, opts ...Option) *LocalSink {
	o := buildOptions(opts)
	return &LocalSink{
		instrumented: newInstrumented(SinkLocal, o.logger),
		store:        namespace.New(cfg.HomeDir),
	}
}

// Save implements Sink.
func (s *LocalSink) Save(ctx context.Context, req SaveRequest) (*models.PipelineSaveResult, error) {
	return s.run(ctx, req, func(ctx context.Context) (*models.PipelineSaveResult, error) {
		if err := validate(req); err != nil {
			return nil, err
		}

		intermediates := s.store.Subdir(req.Namespace, filepath.Join("pipelines", req.Name, "intermediates"))
		if err := os.MkdirAll(intermediates, 0o755); err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeFile, "Failed to create intermediates directory").
				WithDetail("dir", intermediates)
		}

		path, err := s.store.Materialize(req.Namespace, filepath.Join("pipelines", "configs"), req.Name+".yaml", []byte(req.YAML))
		if err != nil {
			return nil, err
		}

		manifest := models.NewMetadata(
			"pipeline_id", pipelineID(req),
			"version", LocalVersion,
			"owner", ownerValue(req.Metadata.Owner),
			"sink", SinkLocal,
		)
		manifest.SetIfNotEmpty("requested_version", req.Metadata.Version)
		addExtra(manifest, req.Metadata.Extra)

		return &models.PipelineSaveResult{
			Path:       path,
			Manifest:   manifest,
			InputPath:  req.Metadata.InputPath,
			OutputPath: req.Metadata.OutputPath,
		}, nil
	})
}
