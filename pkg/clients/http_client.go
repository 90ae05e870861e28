// Package clients provides the HTTP client used to download datasets
package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/errors"
	"github.com/ajitpratap0/wrangler/pkg/metrics"
)

// DefaultFilename is used when a URL has no final path segment.
const DefaultFilename = "dataset.json"

// DefaultMaxRedirects applies when the configured limit is not positive.
const DefaultMaxRedirects = 10

// HTTPClient downloads datasets over HTTP(S), following redirects.
type HTTPClient struct {
	config     config.HTTPConfig
	logger     *zap.Logger
	httpClient *http.Client
	transport  *http.Transport
}

// Download is a fully read 200 response.
type Download struct {
	StatusCode  int
	URL         string // final URL after redirects
	ContentType string
	Body        []byte
}

// NewHTTPClient creates a client from cfg. A nil logger means zap.NewNop.
func NewHTTPClient(cfg config.HTTPConfig, logger *zap.Logger) *HTTPClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	client := &HTTPClient{
		config: cfg,
		logger: logger.With(zap.String("component", "http_client")),
	}

	client.transport = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   cfg.TLSHandshakeTimeout,
		ResponseHeaderTimeout: cfg.ResponseHeaderTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}

	if cfg.EnableHTTP2 {
		if err := http2.ConfigureTransport(client.transport); err != nil {
			client.logger.Warn("failed to configure HTTP/2", zap.Error(err))
		}
	}

	maxRedirects := cfg.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	client.httpClient = &http.Client{
		Transport: client.transport,
		Timeout:   cfg.RequestTimeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return client
}

// Download GETs rawURL and reads the whole body. Any final status other
// than 200 is an upstream error carrying a status_code detail.
func (c *HTTPClient) Download(ctx context.Context, rawURL string) (*Download, error) {
	req, err := c.newRequest(ctx, http.MethodGet, rawURL)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInvalidArgument, "Invalid dataset URL")
	}

	host := req.URL.Host
	timer := metrics.NewTimer()

	resp, err := c.httpClient.Do(req)
	metrics.HTTPLatency.WithLabelValues(host).Observe(timer.Stop().Seconds())
	if err != nil {
		metrics.HTTPRequests.WithLabelValues(host, "error").Inc()
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "Failed to download from URL").
			WithDetail("url", rawURL)
	}
	defer resp.Body.Close()

	metrics.HTTPRequests.WithLabelValues(host, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode != http.StatusOK {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
		return nil, errors.Newf(errors.ErrorTypeUpstream, "Failed to download from URL: %d", resp.StatusCode).
			WithDetail("status_code", resp.StatusCode).
			WithDetail("url", rawURL)
	}

	body, err := c.readBody(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("downloaded dataset",
		zap.String("url", rawURL),
		zap.String("final_url", resp.Request.URL.String()),
		zap.Int("bytes", len(body)),
		zap.Duration("duration", timer.Stop()))

	return &Download{
		StatusCode:  resp.StatusCode,
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}, nil
}

func (c *HTTPClient) readBody(r io.Reader) ([]byte, error) {
	limit := c.config.MaxBodyBytes
	if limit <= 0 {
		body, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrorTypeConnection, "Failed to read response body")
		}
		return body, nil
	}

	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConnection, "Failed to read response body")
	}
	if int64(len(body)) > limit {
		return nil, errors.Newf(errors.ErrorTypeUpstream, "Response body exceeds %d bytes", limit).
			WithDetail("max_body_bytes", limit)
	}
	return body, nil
}

func (c *HTTPClient) newRequest(ctx context.Context, method, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return nil, err
	}

	userAgent := c.config.UserAgent
	if userAgent == "" {
		userAgent = "Wrangler-HTTPClient/1.0"
	}
	req.Header.Set("User-Agent", userAgent)

	return req, nil
}

// Close releases idle connections.
func (c *HTTPClient) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

// FilenameFromURL returns the last path segment of rawURL with any query or
// fragment removed, or DefaultFilename when that segment is empty.
func FilenameFromURL(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		rawURL = u.Path
	} else if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		rawURL = rawURL[:i]
	}
	name := rawURL
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		return DefaultFilename
	}
	return name
}

// IsHTTPURL reports whether s is an http:// or https:// URL.
func IsHTTPURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
