package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 5*time.Minute, cfg.Timeout.Std())
	assert.Equal(t, "/opt/MegaRAID/storcli/storcli64", cfg.StorCLI.Path)
	assert.True(t, cfg.StorCLI.DetailedBBU)
	assert.Empty(t, cfg.Enabled)
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
output: /var/lib/node_exporter/textfile/tfcollect.prom
logLevel: debug
timeout: 90s
enabled:
  - zpool
  - smart
smart:
  wakeupDisks: true
  probeInterval: 250ms
storcli:
  path: /usr/local/bin/storcli64
apt:
  exclude:
    - linux-image-generic
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/node_exporter/textfile/tfcollect.prom", cfg.Output)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 90*time.Second, cfg.Timeout.Std())
	assert.Equal(t, []string{"zpool", "smart"}, cfg.Enabled)
	assert.True(t, cfg.Smart.WakeupDisks)
	assert.Equal(t, 250*time.Millisecond, cfg.Smart.ProbeInterval.Std())
	assert.Equal(t, "/usr/local/bin/storcli64", cfg.StorCLI.Path)
	// Defaults survive for fields the file does not set.
	assert.True(t, cfg.StorCLI.DetailedBBU)
	assert.Equal(t, []string{"linux-image-generic"}, cfg.Apt.Exclude)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoad_ZeroTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: 0s"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Timeout.Std())
}
