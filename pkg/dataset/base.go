package dataset

import (
	"context"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/wrangler/pkg/clients"
	"github.com/ajitpratap0/wrangler/pkg/errors"
	"github.com/ajitpratap0/wrangler/pkg/format"
	"github.com/ajitpratap0/wrangler/pkg/logger"
	"github.com/ajitpratap0/wrangler/pkg/metrics"
	"github.com/ajitpratap0/wrangler/pkg/models"
	"github.com/ajitpratap0/wrangler/pkg/namespace"
	"github.com/ajitpratap0/wrangler/pkg/observability"
)

// Source labels for metrics and spans.
const (
	sourceUpload   = "upload"
	sourceHTTP     = "http"
	sourceStorage  = "storage"
	sourcePath     = "path"
	sourceEnvelope = "envelope"
	sourceNone     = "none"
)

// base holds what both providers share: the namespace store, the
// downloader and the instrumentation.
type base struct {
	kind       string
	subdir     string
	store      *namespace.Store
	downloader Downloader
	logger     *zap.Logger
	tracer     *observability.ComponentTracer
}

func newBase(kind, subdir, home string, o *options) base {
	return base{
		kind:       kind,
		subdir:     subdir,
		store:      namespace.New(home),
		downloader: o.downloader,
		logger:     o.logger.With(zap.String("component", "dataset_provider")),
		tracer:     observability.NewComponentTracer("dataset", kind),
	}
}

// instrument runs fn inside a span and records the operation metrics.
func (b *base) instrument(ctx context.Context, operation, source, ns string, fn func(ctx context.Context) (*models.DatasetLoadResult, error)) (*models.DatasetLoadResult, error) {
	timer := metrics.NewTimer()
	ctx = logger.ContextWithProvider(logger.ContextWithNamespace(ctx, ns), b.kind)
	ctx, span := b.tracer.StartSpan(ctx, operation,
		attribute.String("namespace", ns),
		attribute.String("source", source))

	result, err := fn(ctx)

	observability.End(span, err)
	metrics.ObserveDatasetOperation(b.kind, operation, source, err, timer.Stop())

	log := logger.FromContext(ctx, b.logger)
	if err != nil {
		log.Warn("dataset operation failed",
			zap.String("operation", operation),
			zap.String("source", source),
			zap.String("error_type", string(errors.TypeOf(err))),
			zap.Error(err))
		return nil, err
	}
	log.Info("dataset materialized",
		zap.String("operation", operation),
		zap.String("source", source),
		zap.String("path", result.Path),
		zap.Int("bytes", len(result.Content)),
		zap.Duration("duration", timer.Stop()))
	return result, nil
}

// saveUpload is SaveUpload for both providers.
func (b *base) saveUpload(ctx context.Context, req UploadRequest) (*models.DatasetLoadResult, error) {
	hasUpload := req.Upload != nil
	hasURL := req.URL != ""
	source := sourceUpload
	if hasURL {
		source = sourceHTTP
	}

	return b.instrument(ctx, "save_upload", source, req.Namespace, func(ctx context.Context) (*models.DatasetLoadResult, error) {
		switch {
		case !hasUpload && !hasURL:
			return nil, errors.New(errors.ErrorTypeInvalidArgument, "Either file or url must be provided")
		case hasUpload && hasURL:
			return nil, errors.New(errors.ErrorTypeInvalidArgument, "Only one of file or url may be provided")
		case hasURL:
			if !clients.IsHTTPURL(req.URL) {
				return nil, errors.New(errors.ErrorTypeInvalidArgument, "url must be an http or https URL").
					WithDetail("url", req.URL)
			}
			return b.downloadAndWrite(ctx, req.Namespace, req.URL, nil)
		default:
			return b.normalizeAndWrite(req.Namespace, req.Upload.Filename, req.Upload.Content, nil)
		}
	})
}

// downloadAndWrite fetches url and materializes the normalized body.
func (b *base) downloadAndWrite(ctx context.Context, ns, url string, extra *models.Metadata) (*models.DatasetLoadResult, error) {
	if err := namespace.Validate(ns); err != nil {
		return nil, err
	}
	d, err := b.downloader.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	return b.normalizeAndWrite(ns, clients.FilenameFromURL(url), d.Body, extra)
}

// normalizeAndWrite converts content to JSON and materializes it.
func (b *base) normalizeAndWrite(ns, filename string, content []byte, extra *models.Metadata) (*models.DatasetLoadResult, error) {
	if err := namespace.Validate(ns); err != nil {
		return nil, err
	}
	n, err := format.Normalize(content, filename)
	if err != nil {
		return nil, err
	}
	if n.Converted {
		metrics.CSVConversions.Inc()
	}
	return b.write(ns, n.Filename, n.Content, extra)
}

// write materializes content as-is and tags the result. The local provider
// reports {provider, filename, namespace}; the rt provider appends
// {filename, namespace, provider} to extra.
func (b *base) write(ns, filename string, content []byte, extra *models.Metadata) (*models.DatasetLoadResult, error) {
	path, err := b.store.Materialize(ns, b.subdir, filename, content)
	if err != nil {
		return nil, err
	}
	metrics.BytesMaterialized.WithLabelValues(b.kind).Add(float64(len(content)))

	meta := &models.Metadata{}
	if b.kind == ProviderLocal {
		meta.Set("provider", b.kind).
			Set("filename", filepath.Base(path)).
			Set("namespace", ns).
			Merge(extra)
	} else {
		meta.Merge(extra).
			Set("filename", filepath.Base(path)).
			Set("namespace", ns).
			Set("provider", b.kind)
	}
	return models.NewDatasetLoadResult(path, content, meta), nil
}

// readLocal returns a local path's bytes without normalization.
func (b *base) readLocal(path string, meta *models.Metadata) (*models.DatasetLoadResult, error) {
	abs, content, err := namespace.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return models.NewDatasetLoadResult(abs, content, meta), nil
}

func loadSource(req LoadRequest) string {
	switch {
	case clients.IsHTTPURL(req.DatasetURL):
		return sourceHTTP
	case req.DatasetURL != "":
		return sourcePath
	case req.SourceVersionID != "":
		return sourceEnvelope
	default:
		return sourceNone
	}
}
