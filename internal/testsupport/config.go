package testsupport

import (
	"path/filepath"
	"testing"

	"ludex/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithIGDBCredentials sets catalog credentials on the test config.
func WithIGDBCredentials(clientID, accessToken string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.IGDB.ClientID = clientID
		cfg.IGDB.AccessToken = accessToken
	}
}

// WithIGDBBaseURL points the catalog client at a test server.
func WithIGDBBaseURL(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.IGDB.BaseURL = baseURL
	}
}
