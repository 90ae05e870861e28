package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/ajitpratap0/wrangler/pkg/config"
	"github.com/ajitpratap0/wrangler/pkg/storage"
)

// EnvironmentSuite is a testify suite with a temp home directory and an
// in-memory object store. Each test gets a fresh environment.
type EnvironmentSuite struct {
	suite.Suite

	Cfg     *config.Config
	Storage *storage.MemoryClient

	ctx    context.Context
	cancel context.CancelFunc
}

// SetupTest creates the per-test environment.
func (s *EnvironmentSuite) SetupTest() {
	s.Cfg = Config(s.T())
	s.Storage = storage.NewMemoryClient(TestBucket)
	s.ctx, s.cancel = context.WithTimeout(context.Background(), time.Minute)
}

// TearDownTest cancels the test context.
func (s *EnvironmentSuite) TearDownTest() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Context returns the per-test context.
func (s *EnvironmentSuite) Context() context.Context {
	return s.ctx
}

// Home returns the temp home directory.
func (s *EnvironmentSuite) Home() string {
	return s.Cfg.HomeDir
}
