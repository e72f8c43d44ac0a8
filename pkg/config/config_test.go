package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystal-mush/mushconv/pkg/validate"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadEmptyPathGivesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAML(t *testing.T) {
	path := write(t, "mushconv.yaml", `
synthetic_prefix: Z
strict: true
lock_round_trip:
  t6h: fatal
metrics_path: /var/lib/node_exporter/mushconv.prom
cache_size: 128
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Z", cfg.SyntheticPrefix)
	assert.True(t, cfg.Strict)
	assert.Equal(t, 128, cfg.CacheSize)
	assert.Equal(t, "/var/lib/node_exporter/mushconv.prom", cfg.MetricsPath)

	opts, err := cfg.ValidateOptions()
	require.NoError(t, err)
	assert.Equal(t, validate.SevFatal, opts.LockRoundTrip["t6h"])
	assert.True(t, opts.Strict)
}

func TestLoadTOML(t *testing.T) {
	path := write(t, "mushconv.toml", `
synthetic_prefix = "Q"
store_path = "out.bolt"
reset_password = "hunter2"

[lock_round_trip]
t5x = "warning"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Q", cfg.SyntheticPrefix)
	assert.Equal(t, "out.bolt", cfg.StorePath)
	assert.Equal(t, "hunter2", cfg.ResetPassword)
	assert.Equal(t, "warning", cfg.LockRoundTrip["t5x"])
	assert.Equal(t, 4096, cfg.CacheSize)
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]string{
		"bad.yaml":  "lock_round_trip:\n  t5x: sometimes\n",
		"lin.yaml":  "lock_round_trip:\n  diku: fatal\n",
		"pre.toml":  "synthetic_prefix = \"\"\n",
		"conf.conf": "strict yes\n",
		"syn.yaml":  "strict: [\n",
	}
	for name, body := range tests {
		_, err := Load(write(t, name, body))
		assert.Error(t, err, name)
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
