/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCollector struct {
	name string
	err  error
}

func (f *fakeCollector) Name() string { return f.name }

func (f *fakeCollector) Collect(_ context.Context, reg *prometheus.Registry) error {
	if f.err != nil {
		return f.err
	}
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: f.name + "_metric", Help: "fake"})
	g.Set(1)
	reg.MustRegister(g)
	return nil
}

func gatherNames(t *testing.T, reg *prometheus.Registry) map[string]bool {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	return names
}

func TestRunSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	err := Run(t.Context(), &fakeCollector{name: "fake"}, reg)
	require.NoError(t, err)

	names := gatherNames(t, reg)
	assert.True(t, names["fake_metric"])
	assert.True(t, names["textfile_collector_duration_seconds"])
	assert.True(t, names["textfile_collector_success"])
	assert.True(t, names["textfile_collector_last_run_seconds"])
}

func TestRunFailure(t *testing.T) {
	reg := prometheus.NewRegistry()
	wantErr := errors.New("probe failed")
	err := Run(t.Context(), &fakeCollector{name: "fake", err: wantErr}, reg)
	require.ErrorIs(t, err, wantErr)

	families, gerr := reg.Gather()
	require.NoError(t, gerr)
	for _, mf := range families {
		if mf.GetName() != "textfile_collector_success" {
			continue
		}
		require.Len(t, mf.GetMetric(), 1)
		assert.Equal(t, float64(0), mf.GetMetric()[0].GetGauge().GetValue())
		return
	}
	t.Fatal("textfile_collector_success not found")
}

func TestRunSharedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Run(t.Context(), &fakeCollector{name: "alpha"}, reg))
	wantErr := errors.New("probe failed")
	require.ErrorIs(t, m.Run(t.Context(), &fakeCollector{name: "beta", err: wantErr}, reg), wantErr)

	names := gatherNames(t, reg)
	assert.True(t, names["alpha_metric"])
	assert.False(t, names["beta_metric"])

	families, err := reg.Gather()
	require.NoError(t, err)
	success := make(map[string]float64)
	for _, mf := range families {
		if mf.GetName() != "textfile_collector_success" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			success[metric.GetLabel()[0].GetValue()] = metric.GetGauge().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{"alpha": 1, "beta": 0}, success)
}

func TestDefaultFactoryAll(t *testing.T) {
	f := NewDefaultFactory(nil)
	all := f.All()
	require.Len(t, all, 10)

	seen := make(map[string]bool, len(all))
	for _, c := range all {
		require.NotEmpty(t, c.Name())
		assert.False(t, seen[c.Name()], "duplicate collector name %s", c.Name())
		seen[c.Name()] = true
	}
	assert.True(t, seen["zpool"])
	assert.True(t, seen["smart"])
	assert.True(t, seen["nvme"])
}
