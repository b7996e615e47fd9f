package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"awstail/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config whose state directories live under a per-test
// temp dir. It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.AWS.Region = "us-east-1"
	cfg.Checkpoint.Dir = filepath.Join(base, "state")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithRegion overrides the region on the test config.
func WithRegion(region string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.AWS.Region = region
	}
}

// WithRetry sets the fetch retry policy on the test config.
func WithRetry(attempts int, backoff string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Retry.Attempts = attempts
		cfg.Retry.Backoff = backoff
	}
}

// WithCheckpoints turns on persisted watch anchors.
func WithCheckpoints() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Checkpoint.Enabled = true
	}
}

// WriteConfig serializes cfg as TOML at path and returns path.
func WriteConfig(t testing.TB, path string, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config %s: %v", path, err)
	}
	return path
}
