package layout

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/errors"
)

func TestEnvelopePrefix(t *testing.T) {
	tests := []struct {
		name   string
		prefix string
		cid    string
		svid   string
		want   string
	}{
		{"trailing slash prefix", "prod/", "acme", "sv-1", "prod/acme/sv-1"},
		{"bare prefix", "prod", "acme", "sv-1", "prod/acme/sv-1"},
		{"nested prefix", "envs/staging/", "acme", "sv-1", "envs/staging/acme/sv-1"},
		{"empty prefix", "", "acme", "sv-1", "acme/sv-1"},
		{"surplus slashes", "prod//", "/acme/", "/sv-1", "prod/acme/sv-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Layout{Bucket: "b", EnvPrefix: tt.prefix}
			got := EnvelopePrefix(l, tt.cid, tt.svid)
			assert.Equal(t, tt.want, got)
			// Deterministic
			assert.Equal(t, got, EnvelopePrefix(l, tt.cid, tt.svid))
		})
	}
}

func TestEnvelopeKey(t *testing.T) {
	l := Layout{Bucket: "rt-bucket", EnvPrefix: "prod/"}
	prefix := EnvelopePrefix(l, "document", "sv-9")
	assert.Equal(t, "prod/document/sv-9/envelope/envelope.json", EnvelopeKey(prefix))
	assert.Equal(t, "envelope/envelope.json", EnvelopeKey(""))
}

func TestCanonicalSourceID(t *testing.T) {
	assert.Equal(t, "cid", CanonicalSourceID("cid", "proj"))
	assert.Equal(t, "proj", CanonicalSourceID("", "proj"))
	assert.Equal(t, "document", CanonicalSourceID("", ""))
}

func TestEnvName(t *testing.T) {
	assert.Equal(t, "staging", EnvName("staging", Layout{EnvPrefix: "prod/"}))
	assert.Equal(t, "prod", EnvName("", Layout{EnvPrefix: "prod/"}))
	assert.Equal(t, "", EnvName("", Layout{}))
}

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver(config.LayoutConfig{
		DefaultEnv:   "prod",
		Environments: map[string]string{"prod": "p/", "staging": "envs/staging/"},
	}, "rt-bucket")
	ctx := context.Background()

	l, err := r.LoadLayout(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, Layout{Bucket: "rt-bucket", EnvPrefix: "p/"}, l)

	l, err = r.LoadLayout(ctx, "staging")
	require.NoError(t, err)
	assert.Equal(t, "envs/staging/", l.EnvPrefix)

	l, err = r.LoadLayout(ctx, "qa")
	require.NoError(t, err)
	assert.Equal(t, "qa", l.EnvPrefix)
}

func TestStaticResolver_NoBucket(t *testing.T) {
	r := NewStaticResolver(config.LayoutConfig{DefaultEnv: "dev"}, "")
	_, err := r.LoadLayout(context.Background(), "dev")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

type countingReader struct {
	data  []byte
	err   error
	calls int32
}

func (c *countingReader) GetFileFromURI(_ context.Context, _ string) ([]byte, error) {
	atomic.AddInt32(&c.calls, 1)
	return c.data, c.err
}

func TestDescriptorResolver_LoadsOnce(t *testing.T) {
	reader := &countingReader{data: []byte(`
bucket: descriptor-bucket
default_env: prod
environments:
  prod: prod/
  staging: envs/staging/
`)}
	r := NewDescriptorResolver(reader, "gs://cfg/layout.yaml", "fallback", zaptest.NewLogger(t))
	ctx := context.Background()

	l, err := r.LoadLayout(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, Layout{Bucket: "descriptor-bucket", EnvPrefix: "prod/"}, l)

	l, err = r.LoadLayout(ctx, "staging")
	require.NoError(t, err)
	assert.Equal(t, "envs/staging/", l.EnvPrefix)

	assert.Equal(t, int32(1), atomic.LoadInt32(&reader.calls))
}

func TestDescriptorResolver_FallbackBucket(t *testing.T) {
	reader := &countingReader{data: []byte("default_env: dev\n")}
	r := NewDescriptorResolver(reader, "gs://cfg/layout.yaml", "fallback", nil)

	l, err := r.LoadLayout(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, Layout{Bucket: "fallback", EnvPrefix: "dev"}, l)
}

func TestDescriptorResolver_Errors(t *testing.T) {
	missing := &countingReader{err: errors.New(errors.ErrorTypeNotFound, "object not found")}
	r := NewDescriptorResolver(missing, "gs://cfg/layout.yaml", "b", nil)
	_, err := r.LoadLayout(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeNotFound))

	// Failures are not cached.
	_, _ = r.LoadLayout(context.Background(), "")
	assert.Equal(t, int32(2), atomic.LoadInt32(&missing.calls))

	bad := &countingReader{data: []byte("environments: [unclosed")}
	r = NewDescriptorResolver(bad, "gs://cfg/layout.yaml", "b", nil)
	_, err = r.LoadLayout(context.Background(), "")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
