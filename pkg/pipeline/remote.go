package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/models"
	"github.com/ajitpratap0/wrangler/pkg/storage"
)

// VersionLayout formats generated versions (UTC, second precision).
const VersionLayout = "20060102150405"

// ContentType is the content type of uploaded pipeline specs.
const ContentType = "text/yaml"

// RemoteSink uploads versioned pipeline specs to object storage.
type RemoteSink struct {
	instrumented
	storage *storage.Handle
	product string
	now     func() time.Time

	mu          sync.Mutex
	lastVersion string
	collisions  int
}

// NewRemoteSink creates a RemoteSink. The storage client is built from
// cfg.Storage on first use unless one is injected with WithStorage.
func NewRemoteSink(cfg *config.Config, opts ...Option) *RemoteSink {
	o := buildOptions(opts)

	handle := storage.NewHandle(cfg.Storage, o.logger)
	if o.storage != nil {
		handle = storage.NewHandleWithClient(o.storage)
	}

	product := cfg.Pipelines.Product
	if product == "" {
		product = "docetl"
	}

	return &RemoteSink{
		instrumented: newInstrumented(SinkRemote, o.logger),
		storage:      handle,
		product:      product,
		now:          o.now,
	}
}

// Save implements Sink.
func (s *RemoteSink) Save(ctx context.Context, req SaveRequest) (*models.PipelineSaveResult, error) {
	return s.run(ctx, req, func(ctx context.Context) (*models.PipelineSaveResult, error) {
		if err := validate(req); err != nil {
			return nil, err
		}

		client, err := s.storage.Get(ctx)
		if err != nil {
			return nil, err
		}

		id := pipelineID(req)
		version := req.Metadata.Version
		if version == "" {
			version = s.nextVersion()
		}

		prefix := "specs/" + s.product + "/" + id
		filename := version + ".yaml"

		objectMeta := map[string]string{
			"pipeline_id": id,
			"version":     version,
			"owner":       req.Metadata.Owner,
			"namespace":   req.Namespace,
		}
		for k, v := range req.Metadata.Extra {
			if _, exists := objectMeta[k]; !exists {
				objectMeta[k] = v
			}
		}

		ref, err := client.StoreFile(ctx, prefix, filename, []byte(req.YAML), storage.UploadOptions{
			ContentType: ContentType,
			Metadata:    objectMeta,
		})
		if err != nil {
			return nil, err
		}

		persisted := ref.Path
		if persisted == "" {
			persisted = storage.ObjectKey(prefix, filename)
		}
		uri := storage.BuildURI(client.Scheme(), client.BucketName(), persisted)

		manifest := models.NewMetadata(
			"pipeline_id", id,
			"version", version,
			"owner", ownerValue(req.Metadata.Owner),
			"sink", SinkRemote,
			"uri", uri,
			"saved_at", s.now().UTC().Format(time.RFC3339),
		)
		addExtra(manifest, req.Metadata.Extra)

		s.logger.Debug("pipeline spec uploaded",
			zap.String("uri", uri),
			zap.Int64("bytes", ref.Size))

		return &models.PipelineSaveResult{
			Path:       uri,
			URI:        uri,
			Manifest:   manifest,
			InputPath:  req.Metadata.InputPath,
			OutputPath: req.Metadata.OutputPath,
		}, nil
	})
}

// nextVersion returns the current UTC second. A second save within the same
// second gets a zero-padded -001, -002, ... suffix so no two generated
// versions collide and they still sort in save order.
func (s *RemoteSink) nextVersion() string {
	base := s.now().UTC().Format(VersionLayout)

	s.mu.Lock()
	defer s.mu.Unlock()

	if base != s.lastVersion {
		s.lastVersion = base
		s.collisions = 0
		return base
	}
	s.collisions++
	return fmt.Sprintf("%s-%03d", base, s.collisions)
}

// Close releases the storage client if it was built.
func (s *RemoteSink) Close() error {
	return s.storage.Close()
}
