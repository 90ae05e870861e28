// Package config provides the unified configuration for Wrangler.
//
// A single Config value drives provider and sink selection, the namespace
// root directory, remote storage, envelope layout and the ambient stack
// (logging, HTTP, tracing). The configuration is organized into sections:
//   - Storage: remote object storage backend and bucket
//   - Layout: environment name to envelope prefix mapping
//   - Pipelines: remote pipeline spec key layout
//   - HTTP: download client timeouts and limits
//   - Log, Observability: logging and tracing
//
// Values come from defaults, an optional YAML file, then environment
// variables (see Load).
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	provider, err := dataset.New(cfg)
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ajitpratap0/wrangler/pkg/logger"
)

// Provider kinds accepted by DataProvider and PipelineSink.
const (
	KindLocal  = "local"
	KindRemote = "rt"
)

// Storage backends accepted by StorageConfig.Backend.
const (
	BackendGCS    = "gcs"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// Config is the root configuration.
type Config struct {
	// HomeDir is the root under which .docetl/<namespace> trees live
	HomeDir string `yaml:"home_dir" json:"home_dir" mapstructure:"home_dir"`
	// DataProvider selects the dataset provider (local, rt)
	DataProvider string `yaml:"data_provider" json:"data_provider" mapstructure:"data_provider"`
	// PipelineSink selects the pipeline sink (local, rt)
	PipelineSink string `yaml:"pipeline_sink" json:"pipeline_sink" mapstructure:"pipeline_sink"`

	Storage       StorageConfig       `yaml:"storage" json:"storage" mapstructure:"storage"`
	Layout        LayoutConfig        `yaml:"layout" json:"layout" mapstructure:"layout"`
	Pipelines     PipelinesConfig     `yaml:"pipelines" json:"pipelines" mapstructure:"pipelines"`
	HTTP          HTTPConfig          `yaml:"http" json:"http" mapstructure:"http"`
	Log           logger.Config       `yaml:"log" json:"log" mapstructure:"log"`
	Observability ObservabilityConfig `yaml:"observability" json:"observability" mapstructure:"observability"`
}

// StorageConfig describes the remote object storage used by the rt provider
// and sink. It is validated lazily, on first remote use.
type StorageConfig struct {
	// Enabled must be true for any remote storage access
	Enabled bool `yaml:"enabled" json:"enabled" mapstructure:"enabled"`
	// Backend selects the client implementation (gcs, s3, memory)
	Backend string `yaml:"backend" json:"backend" mapstructure:"backend"`
	// BucketName is the default bucket for writes
	BucketName string `yaml:"bucket_name" json:"bucket_name" mapstructure:"bucket_name"`
	// ProjectID is the GCP project (gcs only)
	ProjectID string `yaml:"project_id" json:"project_id" mapstructure:"project_id"`
	// CredentialsFile points at a service account JSON file (gcs only)
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file" mapstructure:"credentials_file"`
	// Endpoint overrides the service endpoint (emulators, MinIO)
	Endpoint string `yaml:"endpoint" json:"endpoint" mapstructure:"endpoint"`
	// Region is the AWS region (s3 only)
	Region string `yaml:"region" json:"region" mapstructure:"region"`
	// UsePathStyle forces path-style S3 addressing
	UsePathStyle bool `yaml:"use_path_style" json:"use_path_style" mapstructure:"use_path_style"`
	// UploadPartSize is the multipart part size for S3 uploads
	UploadPartSize int64 `yaml:"upload_part_size" json:"upload_part_size" mapstructure:"upload_part_size"`
	// OperationTimeout bounds a single get or put; zero means no bound
	OperationTimeout time.Duration `yaml:"operation_timeout" json:"operation_timeout" mapstructure:"operation_timeout"`
}

// LayoutConfig maps environment names to envelope path prefixes.
type LayoutConfig struct {
	// DefaultEnv is used when a request names no environment
	DefaultEnv string `yaml:"default_env" json:"default_env" mapstructure:"default_env"`
	// Environments maps an environment name to its path prefix
	Environments map[string]string `yaml:"environments" json:"environments" mapstructure:"environments"`
	// DescriptorURI, when set, names a YAML layout descriptor object in storage
	DescriptorURI string `yaml:"descriptor_uri" json:"descriptor_uri" mapstructure:"descriptor_uri"`
}

// PipelinesConfig controls remote pipeline persistence.
type PipelinesConfig struct {
	// Product is the second segment of specs/<product>/<pipeline_id>/<version>.yaml
	Product string `yaml:"product" json:"product" mapstructure:"product"`
}

// HTTPConfig controls dataset downloads.
type HTTPConfig struct {
	RequestTimeout        time.Duration `yaml:"request_timeout" json:"request_timeout" mapstructure:"request_timeout"`
	DialTimeout           time.Duration `yaml:"dial_timeout" json:"dial_timeout" mapstructure:"dial_timeout"`
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout" json:"tls_handshake_timeout" mapstructure:"tls_handshake_timeout"`
	ResponseHeaderTimeout time.Duration `yaml:"response_header_timeout" json:"response_header_timeout" mapstructure:"response_header_timeout"`
	// MaxRedirects of zero or less falls back to the client default of 10
	MaxRedirects          int           `yaml:"max_redirects" json:"max_redirects" mapstructure:"max_redirects"`
	EnableHTTP2           bool          `yaml:"enable_http2" json:"enable_http2" mapstructure:"enable_http2"`
	UserAgent             string        `yaml:"user_agent" json:"user_agent" mapstructure:"user_agent"`
	// MaxBodyBytes caps a downloaded body; zero means unlimited
	MaxBodyBytes int64 `yaml:"max_body_bytes" json:"max_body_bytes" mapstructure:"max_body_bytes"`
}

// ObservabilityConfig controls tracing.
type ObservabilityConfig struct {
	EnableTracing     bool    `yaml:"enable_tracing" json:"enable_tracing" mapstructure:"enable_tracing"`
	TracingSampleRate float64 `yaml:"tracing_sample_rate" json:"tracing_sample_rate" mapstructure:"tracing_sample_rate"`
	ServiceName       string  `yaml:"service_name" json:"service_name" mapstructure:"service_name"`
}

// Default returns a Config with production defaults. HomeDir is the current
// user's home directory.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		HomeDir:      home,
		DataProvider: KindLocal,
		PipelineSink: KindLocal,
		Storage: StorageConfig{
			Enabled:        false,
			Backend:        BackendGCS,
			UploadPartSize: 5 * 1024 * 1024,
		},
		Layout: LayoutConfig{
			DefaultEnv:   "dev",
			Environments: map[string]string{},
		},
		Pipelines: PipelinesConfig{
			Product: "docetl",
		},
		HTTP: HTTPConfig{
			RequestTimeout:        5 * time.Minute,
			DialTimeout:           30 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			MaxRedirects:          10,
			EnableHTTP2:           true,
			UserAgent:             "Wrangler-HTTPClient/1.0",
		},
		Log: logger.Config{
			Level:    "info",
			Encoding: "json",
		},
		Observability: ObservabilityConfig{
			EnableTracing:     false,
			TracingSampleRate: 0.1,
			ServiceName:       "wrangler",
		},
	}
}

// Validate checks the process-level settings. Storage settings are checked
// when the storage client is first built so that a local-only deployment
// never fails on them.
func (c *Config) Validate() error {
	if c.HomeDir == "" {
		return fmt.Errorf("home_dir is required")
	}
	if !validKind(c.DataProvider) {
		return fmt.Errorf("data_provider must be %q or %q, got %q", KindLocal, KindRemote, c.DataProvider)
	}
	if !validKind(c.PipelineSink) {
		return fmt.Errorf("pipeline_sink must be %q or %q, got %q", KindLocal, KindRemote, c.PipelineSink)
	}
	if c.HTTP.MaxRedirects < 0 {
		return fmt.Errorf("http.max_redirects cannot be negative")
	}
	if c.HTTP.MaxBodyBytes < 0 {
		return fmt.Errorf("http.max_body_bytes cannot be negative")
	}
	if c.Observability.TracingSampleRate < 0 || c.Observability.TracingSampleRate > 1 {
		return fmt.Errorf("observability.tracing_sample_rate must be within [0, 1]")
	}
	return nil
}

// Validate checks that the storage section can build a client.
func (s *StorageConfig) Validate() error {
	switch s.Backend {
	case BackendGCS, BackendS3:
		if s.BucketName == "" {
			return fmt.Errorf("storage.bucket_name is required for backend %q", s.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unsupported storage backend: %q", s.Backend)
	}
	if s.Backend == BackendS3 && s.Region == "" && s.Endpoint == "" {
		return fmt.Errorf("storage.region is required for backend %q", s.Backend)
	}
	if s.UploadPartSize < 0 {
		return fmt.Errorf("storage.upload_part_size cannot be negative")
	}
	return nil
}

func validKind(kind string) bool {
	return kind == KindLocal || kind == KindRemote
}
