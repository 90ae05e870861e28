// Package testutil provides fixtures shared by the wrangler test suites.
package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/wrangler/pkg/config"
)

// TestBucket is the bucket used by Config and the memory storage fixtures.
const TestBucket = "wrangler-test"

// TestLogger creates a test logger that writes to the test output.
func TestLogger(t *testing.T) *zap.Logger {
	return zaptest.NewLogger(t)
}

// TestContext creates a test context with a 30-second timeout that is
// cancelled when the test completes.
func TestContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// Config returns the default configuration rooted at a fresh temp home with
// in-memory storage enabled.
func Config(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.HomeDir = t.TempDir()
	cfg.Storage.Enabled = true
	cfg.Storage.Backend = config.BackendMemory
	cfg.Storage.BucketName = TestBucket
	cfg.Layout.DefaultEnv = "test"
	cfg.Layout.Environments = map[string]string{"test": "envs/test"}
	cfg.Pipelines.Product = "docetl"
	return cfg
}

// WriteFile writes content under dir, creating parent directories, and
// returns the path.
func WriteFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

// CSV builds a CSV document with an id,name,value header and n rows.
func CSV(n int) []byte {
	var b strings.Builder
	b.WriteString("id,name,value\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d,row_%d,%.2f\n", i, i, float64(i)*1.25)
	}
	return []byte(b.String())
}

// RequireFileContent fails the test unless path holds exactly want.
func RequireFileContent(t *testing.T, path string, want []byte) {
	t.Helper()

	got, err := os.ReadFile(path)
	require.NoError(t, err, "reading %s", path)
	require.Equal(t, string(want), string(got))
}
