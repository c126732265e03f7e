/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/textfile-collector/pkg/collector"
	"github.com/NVIDIA/textfile-collector/pkg/config"
)

func TestRootCmdStructure(t *testing.T) {
	cmd := rootCmd()
	require.NotNil(t, cmd)
	assert.Equal(t, "tfcollect", cmd.Name)

	names := make(map[string]bool)
	for _, sub := range cmd.Commands {
		names[sub.Name] = true
	}
	assert.True(t, names["collect"])
	for _, spec := range collectorSpecs {
		assert.True(t, names[spec.name], "missing subcommand %q", spec.name)
	}
}

// Subcommand names must agree with the factory's collector names so
// --collector filters and subcommands speak the same vocabulary.
func TestCollectorSpecNamesMatchFactory(t *testing.T) {
	factory := collector.NewDefaultFactory(nil)
	for _, spec := range collectorSpecs {
		col := spec.create(factory)
		require.NotNil(t, col)
		assert.Equal(t, spec.name, col.Name())
	}
	assert.Len(t, collectorSpecs, len(factory.All()))
}

// captureConfig runs the root command with a probe subcommand so flag
// parsing happens exactly as it would in production.
func captureConfig(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()

	var cfg *config.Config
	var cfgErr error
	root := rootCmd()
	root.Commands = append(root.Commands, &cli.Command{
		Name:   "cfgprobe",
		Hidden: true,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, cfgErr = loadConfig(cmd)
			return nil
		},
	})

	argv := append([]string{"tfcollect"}, args...)
	argv = append(argv, "cfgprobe")
	require.NoError(t, root.Run(context.Background(), argv))
	return cfg, cfgErr
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
output: /var/lib/node_exporter/tfcollect.prom
timeout: 90s
enabled:
  - zpool
  - chrony
storcli:
  path: /usr/local/bin/storcli64
`), 0o644))

	cfg, err := captureConfig(t, "--config", path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/node_exporter/tfcollect.prom", cfg.Output)
	assert.Equal(t, 90*time.Second, cfg.Timeout.Std())
	assert.Equal(t, []string{"zpool", "chrony"}, cfg.Enabled)
	assert.Equal(t, "/usr/local/bin/storcli64", cfg.StorCLI.Path)
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	cfg, err := captureConfig(t, "--output", "-", "--timeout", "30s")
	require.NoError(t, err)
	assert.Equal(t, "-", cfg.Output)
	assert.Equal(t, 30*time.Second, cfg.Timeout.Std())
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := captureConfig(t)
	require.NoError(t, err)
	assert.Empty(t, cfg.Enabled)
	assert.Greater(t, cfg.Timeout.Std().Seconds(), 0.0)
	assert.True(t, cfg.StorCLI.DetailedBBU)
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := captureConfig(t, "--config", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
