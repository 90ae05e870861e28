// Package pipeline persists pipeline configuration documents.
//
// Two sinks implement Sink:
//
//   - local: writes <home>/.docetl/<ns>/pipelines/configs/<name>.yaml; the
//     version is always "local" and repeated saves overwrite
//   - rt: uploads specs/<product>/<pipeline_id>/<version>.yaml to object
//     storage; every unversioned save gets a new timestamp version
package pipeline

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/errors"
	"github.com/ajitpratap0/wrangler/pkg/logger"
	"github.com/ajitpratap0/wrangler/pkg/metrics"
	"github.com/ajitpratap0/wrangler/pkg/models"
	"github.com/ajitpratap0/wrangler/pkg/namespace"
	"github.com/ajitpratap0/wrangler/pkg/observability"
	"github.com/ajitpratap0/wrangler/pkg/storage"
)

// Sink kinds reported in the manifest.
const (
	SinkLocal  = config.KindLocal
	SinkRemote = config.KindRemote
)

// LocalVersion is the version of every locally saved pipeline.
const LocalVersion = "local"

// Sink persists pipeline configurations.
type Sink interface {
	Save(ctx context.Context, req SaveRequest) (*models.PipelineSaveResult, error)
}

// SaveRequest is the input to Save.
type SaveRequest struct {
	Namespace string
	Name      string
	YAML      string
	Metadata  models.PipelineMetadata
}

// Option configures a sink.
type Option func(*options)

type options struct {
	storage storage.Client
	logger  *zap.Logger
	now     func() time.Time
}

// WithStorage injects a prebuilt storage client.
func WithStorage(c storage.Client) Option {
	return func(o *options) { o.storage = c }
}

// WithLogger sets the logger. The default is the global logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New returns the sink named by sinkKind, or by cfg.PipelineSink when
// sinkKind is empty.
func New(cfg *config.Config, sinkKind string, opts ...Option) (Sink, error) {
	kind := strings.ToLower(strings.TrimSpace(sinkKind))
	if kind == "" {
		kind = cfg.PipelineSink
	}
	switch kind {
	case config.KindLocal, "":
		return NewLocalSink(cfg, opts...), nil
	case config.KindRemote:
		return NewRemoteSink(cfg, opts...), nil
	default:
		return nil, errors.Newf(errors.ErrorTypeInvalidArgument, "unsupported pipeline sink: %q", kind)
	}
}

func buildOptions(opts []Option) *options {
	o := &options{now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = logger.Get()
	}
	return o
}

func validate(req SaveRequest) error {
	if err := namespace.Validate(req.Namespace); err != nil {
		return err
	}
	if req.Name == "" {
		return errors.New(errors.ErrorTypeInvalidArgument, "pipeline name is required")
	}
	if strings.ContainsAny(req.Name, `/\`) || req.Name == "." || req.Name == ".." {
		return errors.Newf(errors.ErrorTypeInvalidArgument, "invalid pipeline name %q", req.Name)
	}
	return nil
}

func pipelineID(req SaveRequest) string {
	if req.Metadata.PipelineID != "" {
		return req.Metadata.PipelineID
	}
	return req.Name
}

// ownerValue renders an absent owner as JSON null.
func ownerValue(owner string) interface{} {
	if owner == "" {
		return nil
	}
	return owner
}

// addExtra appends caller extras in key order without replacing keys
// already present.
func addExtra(m *models.Metadata, extra map[string]string) {
	keys := make([]string, 0, len(extra))
	for k := range extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, exists := m.Get(k); !exists {
			m.Set(k, extra[k])
		}
	}
}

// instrumented wraps a save with a span, metrics and a log line.
type instrumented struct {
	kind   string
	logger *zap.Logger
	tracer *observability.ComponentTracer
}

func newInstrumented(kind string, l *zap.Logger) instrumented {
	return instrumented{
		kind:   kind,
		logger: l.With(zap.String("component", "pipeline_sink")),
		tracer: observability.NewComponentTracer("pipeline", kind),
	}
}

func (in *instrumented) run(ctx context.Context, req SaveRequest, fn func(ctx context.Context) (*models.PipelineSaveResult, error)) (*models.PipelineSaveResult, error) {
	timer := metrics.NewTimer()
	ctx = logger.ContextWithProvider(logger.ContextWithNamespace(ctx, req.Namespace), in.kind)
	ctx, span := in.tracer.StartSpan(ctx, "save",
		attribute.String("namespace", req.Namespace),
		attribute.String("pipeline", req.Name))

	result, err := fn(ctx)

	observability.End(span, err)
	metrics.PipelineSaves.WithLabelValues(in.kind, metrics.Status(err)).Inc()

	log := logger.FromContext(ctx, in.logger)
	if err != nil {
		log.Warn("pipeline save failed",
			zap.String("name", req.Name),
			zap.String("error_type", string(errors.TypeOf(err))),
			zap.Error(err))
		return nil, err
	}
	log.Info("pipeline saved",
		zap.String("name", req.Name),
		zap.String("path", result.Path),
		zap.String("version", result.Manifest.GetString("version")),
		zap.Duration("duration", timer.Stop()))
	return result, nil
}
