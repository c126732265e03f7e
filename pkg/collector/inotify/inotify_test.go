/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package inotify

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProc lays out a minimal proc tree with two watchers, one idle
// process, and one zombie.
func fakeProc(t *testing.T) string {
	t.Helper()
	proc := t.TempDir()

	addProcess(t, proc, "123", "/usr/bin/daemon\x00--watch\x00", 2)
	addProcess(t, proc, "456", "", 0)
	addProcess(t, proc, "789", "/opt/agent\x00", 1)

	// Non-numeric entries are not processes.
	require.NoError(t, os.MkdirAll(filepath.Join(proc, "self"), 0o755))
	return proc
}

func addProcess(t *testing.T, proc, pid, cmdline string, instances int) {
	t.Helper()
	dir := filepath.Join(proc, pid)
	fdDir := filepath.Join(dir, "fd")
	require.NoError(t, os.MkdirAll(fdDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "status"), []byte("Name:\ttest\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cmdline"), []byte(cmdline), 0o644))

	for i := 0; i < instances; i++ {
		require.NoError(t, os.Symlink(notifyTarget, filepath.Join(fdDir, strconv.Itoa(i))))
	}
	require.NoError(t, os.Symlink("/dev/null", filepath.Join(fdDir, "9")))
}

func TestScanProcesses(t *testing.T) {
	procs, err := scanProcesses(fakeProc(t))
	require.NoError(t, err)
	require.Len(t, procs, 3)

	byPID := make(map[int]process)
	for _, p := range procs {
		byPID[p.PID] = p
	}

	assert.Equal(t, "daemon", byPID[123].Command)
	assert.Equal(t, 2, byPID[123].Instances)
	assert.Equal(t, "<zombie>", byPID[456].Command)
	assert.Equal(t, 0, byPID[456].Instances)
	assert.Equal(t, "agent", byPID[789].Command)
	assert.Equal(t, 1, byPID[789].Instances)
}

func TestCollect(t *testing.T) {
	c := New()
	c.proc = fakeProc(t)

	reg := prometheus.NewRegistry()
	require.NoError(t, c.Collect(context.Background(), reg))

	families, err := reg.Gather()
	require.NoError(t, err)

	uid := strconv.Itoa(os.Getuid())
	for _, mf := range families {
		switch mf.GetName() {
		case "inotify_instances":
			// The idle process produces no series.
			require.Len(t, mf.GetMetric(), 2)
			for _, metric := range mf.GetMetric() {
				labels := make(map[string]string)
				for _, lp := range metric.GetLabel() {
					labels[lp.GetName()] = lp.GetValue()
				}
				assert.Equal(t, uid, labels["uid"])
				switch labels["pid"] {
				case "123":
					assert.Equal(t, "daemon", labels["command"])
					assert.Equal(t, float64(2), metric.GetGauge().GetValue())
				case "789":
					assert.Equal(t, "agent", labels["command"])
					assert.Equal(t, float64(1), metric.GetGauge().GetValue())
				default:
					t.Fatalf("unexpected pid series %q", labels["pid"])
				}
			}
		case "inotify_user_instances":
			require.Len(t, mf.GetMetric(), 1)
			assert.Equal(t, float64(3), mf.GetMetric()[0].GetGauge().GetValue())
		}
	}
}

func TestProcessCommand(t *testing.T) {
	dir := t.TempDir()
	cmdline := filepath.Join(dir, "cmdline")

	require.NoError(t, os.WriteFile(cmdline, []byte("/usr/sbin/chronyd\x00-F\x001\x00"), 0o644))
	command, ok := processCommand(cmdline)
	require.True(t, ok)
	assert.Equal(t, "chronyd", command)

	require.NoError(t, os.WriteFile(cmdline, nil, 0o644))
	command, ok = processCommand(cmdline)
	require.True(t, ok)
	assert.Equal(t, "<zombie>", command)

	_, ok = processCommand(filepath.Join(dir, "missing"))
	assert.False(t, ok)
}

func TestCollectorName(t *testing.T) {
	assert.Equal(t, "inotify", New().Name())
}
