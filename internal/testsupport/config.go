// Package testsupport holds helpers shared by package tests.
package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"nexscan/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose data and log folders live in a fresh
// temp directory. Environment overrides are cleared for the test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	t.Setenv("NEXSCAN_DATA_DIR", "")
	t.Setenv("NEXSCAN_BUCKET", "")

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Local.DataDir = filepath.Join(base, "nexrad")
	cfgVal.Logging.Level = "warn"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := os.MkdirAll(builder.cfg.Local.DataDir, 0o755); err != nil {
		t.Fatalf("mkdir data dir: %v", err)
	}
	return builder.cfg
}

// WithMirrored turns on the mirrored folder layout.
func WithMirrored() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Local.MirroredStructure = true
	}
}

// WithLogDir routes the log file into the temp directory.
func WithLogDir() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Logging.Dir = filepath.Join(b.baseDir, "logs")
	}
}

// WithEndpoint points the archive at an S3-compatible endpoint.
func WithEndpoint(endpoint string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Archive.Endpoint = endpoint
	}
}

// WriteConfig encodes cfg as TOML next to its data directory and returns the
// file path.
func WriteConfig(t testing.TB, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("encode config: %v", err)
	}
	path := filepath.Join(filepath.Dir(cfg.Local.DataDir), "nexscan.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
