package layout

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/errors"
)

// StaticResolver resolves layouts from configuration. Environment names that
// are not mapped are used verbatim as the prefix.
type StaticResolver struct {
	Bucket       string
	DefaultEnv   string
	Environments map[string]string
}

// NewStaticResolver builds a StaticResolver from the layout section and the
// storage bucket.
func NewStaticResolver(cfg config.LayoutConfig, bucket string) *StaticResolver {
	return &StaticResolver{
		Bucket:       bucket,
		DefaultEnv:   cfg.DefaultEnv,
		Environments: cfg.Environments,
	}
}

// LoadLayout implements Resolver.
func (r *StaticResolver) LoadLayout(_ context.Context, env string) (Layout, error) {
	return resolve(r.Bucket, r.DefaultEnv, r.Environments, env)
}

func resolve(bucket, defaultEnv string, envs map[string]string, env string) (Layout, error) {
	if bucket == "" {
		return Layout{}, errors.New(errors.ErrorTypeConfig, "Storage layout has no bucket configured")
	}
	if env == "" {
		env = defaultEnv
	}
	prefix, ok := envs[env]
	if !ok {
		prefix = env
	}
	return Layout{Bucket: bucket, EnvPrefix: prefix}, nil
}

// ObjectReader fetches an object by URI.
type ObjectReader interface {
	GetFileFromURI(ctx context.Context, uri string) ([]byte, error)
}

// Descriptor is the YAML document read by DescriptorResolver:
//
//	bucket: rt-artifacts
//	default_env: prod
//	environments:
//	  prod: prod/
//	  staging: envs/staging/
type Descriptor struct {
	Bucket       string            `yaml:"bucket"`
	DefaultEnv   string            `yaml:"default_env"`
	Environments map[string]string `yaml:"environments"`
}

// DescriptorResolver reads a Descriptor object from storage the first time a
// layout is requested and serves every later request from it. A failed read
// is retried on the next call.
type DescriptorResolver struct {
	reader         ObjectReader
	uri            string
	fallbackBucket string
	logger         *zap.Logger

	mu         sync.Mutex
	descriptor *Descriptor
}

// NewDescriptorResolver creates a resolver for the descriptor at uri.
// fallbackBucket is used when the descriptor names no bucket.
func NewDescriptorResolver(reader ObjectReader, uri, fallbackBucket string, logger *zap.Logger) *DescriptorResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DescriptorResolver{
		reader:         reader,
		uri:            uri,
		fallbackBucket: fallbackBucket,
		logger:         logger,
	}
}

// LoadLayout implements Resolver.
func (r *DescriptorResolver) LoadLayout(ctx context.Context, env string) (Layout, error) {
	d, err := r.load(ctx)
	if err != nil {
		return Layout{}, err
	}
	bucket := d.Bucket
	if bucket == "" {
		bucket = r.fallbackBucket
	}
	return resolve(bucket, d.DefaultEnv, d.Environments, env)
}

func (r *DescriptorResolver) load(ctx context.Context) (*Descriptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.descriptor != nil {
		return r.descriptor, nil
	}

	raw, err := r.reader.GetFileFromURI(ctx, r.uri)
	if err != nil {
		return nil, errors.Wrap(err, errors.TypeOf(err), "Failed to read storage layout descriptor").
			WithDetail("uri", r.uri)
	}

	var d Descriptor
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "Invalid storage layout descriptor").
			WithDetail("uri", r.uri)
	}

	r.logger.Debug("loaded storage layout descriptor",
		zap.String("uri", r.uri),
		zap.String("bucket", d.Bucket),
		zap.Int("environments", len(d.Environments)))

	r.descriptor = &d
	return r.descriptor, nil
}
