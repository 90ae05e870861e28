package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/errors"
	"github.com/ajitpratap0/wrangler/pkg/metrics"
)

func testClient(t *testing.T) *HTTPClient {
	cfg := config.Default().HTTP
	cfg.EnableHTTP2 = false
	c := NewHTTPClient(cfg, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDownload_FollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/data.json", http.StatusFound)
	})
	mux.HandleFunc("/data.json", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Wrangler-HTTPClient/1.0", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"a":1}]`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(t)
	d, err := c.Download(context.Background(), srv.URL+"/old")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, d.StatusCode)
	assert.Equal(t, srv.URL+"/data.json", d.URL)
	assert.Equal(t, `[{"a":1}]`, string(d.Body))
	assert.Equal(t, "application/json", d.ContentType)
}

func TestDownload_Non200IsUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(t)
	_, err := c.Download(context.Background(), srv.URL+"/missing.csv")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUpstream))

	code, ok := errors.Detail(err, "status_code")
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, code)

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.HTTPRequests.WithLabelValues(u.Host, "404")))
}

func TestDownload_ZeroConfigFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a.json", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b.json", http.StatusFound)
	})
	mux.HandleFunc("/b.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewHTTPClient(config.HTTPConfig{}, nil)
	defer c.Close()

	d, err := c.Download(context.Background(), srv.URL+"/a.json")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/b.json", d.URL)
	assert.Equal(t, `{"ok":true}`, string(d.Body))
}

func TestDownload_TooManyRedirects(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+"/loop", http.StatusFound)
	}))
	defer srv.Close()

	c := testClient(t)
	_, err := c.Download(context.Background(), srv.URL+"/loop")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConnection))
	assert.Contains(t, err.Error(), "too many redirects")
}

func TestDownload_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(make([]byte, 2048))
	}))
	defer srv.Close()

	cfg := config.Default().HTTP
	cfg.MaxBodyBytes = 1024
	c := NewHTTPClient(cfg, zaptest.NewLogger(t))

	_, err := c.Download(context.Background(), srv.URL)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeUpstream))
}

func TestDownload_InvalidURL(t *testing.T) {
	c := testClient(t)
	_, err := c.Download(context.Background(), "http://[::1")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeInvalidArgument))
}

func TestFilenameFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://example.com/data/people.csv", "people.csv"},
		{"https://example.com/data/people.csv?token=abc", "people.csv"},
		{"https://example.com/export#frag", "export"},
		{"https://example.com/", DefaultFilename},
		{"https://example.com", DefaultFilename},
		{"gs://bucket/a/b/rows.json.gz", "rows.json.gz"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, FilenameFromURL(tt.url))
		})
	}
}

func TestIsHTTPURL(t *testing.T) {
	assert.True(t, IsHTTPURL("http://x"))
	assert.True(t, IsHTTPURL("https://x"))
	assert.False(t, IsHTTPURL("gs://x/y"))
	assert.False(t, IsHTTPURL("/tmp/data.json"))
}
