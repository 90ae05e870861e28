package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// HomeDirEnv names the environment variable that overrides HomeDir.
const HomeDirEnv = "DOCETL_HOME_DIR"

// Load builds a Config from defaults, then the YAML file at filePath (if
// non-empty, with ${VAR} substitution), then environment variables. Nested
// keys use a double underscore: storage.bucket_name is STORAGE__BUCKET_NAME.
func Load(filePath string) (*Config, error) {
	v := newViper()

	if filePath != "" {
		data, err := os.ReadFile(filePath) //nolint:gosec // G304: path is supplied by the operator
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		v.SetConfigType("yaml")
		if err := v.ReadConfig(bytes.NewReader([]byte(substituteEnvVars(string(data))))); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	cfg.DataProvider = strings.ToLower(strings.TrimSpace(cfg.DataProvider))
	cfg.PipelineSink = strings.ToLower(strings.TrimSpace(cfg.PipelineSink))
	cfg.Storage.Backend = strings.ToLower(strings.TrimSpace(cfg.Storage.Backend))
	if cfg.Layout.Environments == nil {
		cfg.Layout.Environments = map[string]string{}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newViper returns a viper instance seeded with every default so that
// AutomaticEnv can see each key during Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()
	_ = v.BindEnv("home_dir", HomeDirEnv)

	d := Default()
	v.SetDefault("home_dir", d.HomeDir)
	v.SetDefault("data_provider", d.DataProvider)
	v.SetDefault("pipeline_sink", d.PipelineSink)

	v.SetDefault("storage.enabled", d.Storage.Enabled)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.bucket_name", d.Storage.BucketName)
	v.SetDefault("storage.project_id", d.Storage.ProjectID)
	v.SetDefault("storage.credentials_file", d.Storage.CredentialsFile)
	v.SetDefault("storage.endpoint", d.Storage.Endpoint)
	v.SetDefault("storage.region", d.Storage.Region)
	v.SetDefault("storage.use_path_style", d.Storage.UsePathStyle)
	v.SetDefault("storage.upload_part_size", d.Storage.UploadPartSize)
	v.SetDefault("storage.operation_timeout", d.Storage.OperationTimeout)

	v.SetDefault("layout.default_env", d.Layout.DefaultEnv)
	v.SetDefault("layout.environments", d.Layout.Environments)
	v.SetDefault("layout.descriptor_uri", d.Layout.DescriptorURI)

	v.SetDefault("pipelines.product", d.Pipelines.Product)

	v.SetDefault("http.request_timeout", d.HTTP.RequestTimeout)
	v.SetDefault("http.dial_timeout", d.HTTP.DialTimeout)
	v.SetDefault("http.tls_handshake_timeout", d.HTTP.TLSHandshakeTimeout)
	v.SetDefault("http.response_header_timeout", d.HTTP.ResponseHeaderTimeout)
	v.SetDefault("http.max_redirects", d.HTTP.MaxRedirects)
	v.SetDefault("http.enable_http2", d.HTTP.EnableHTTP2)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("http.max_body_bytes", d.HTTP.MaxBodyBytes)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.development", d.Log.Development)
	v.SetDefault("log.encoding", d.Log.Encoding)

	v.SetDefault("observability.enable_tracing", d.Observability.EnableTracing)
	v.SetDefault("observability.tracing_sample_rate", d.Observability.TracingSampleRate)
	v.SetDefault("observability.service_name", d.Observability.ServiceName)

	return v
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
