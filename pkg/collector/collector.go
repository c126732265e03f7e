// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package collector

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector gathers metrics from one system source into a registry.
type Collector interface {
	// Name returns the collector identifier used in suite metrics,
	// logs, and the enabled-collector configuration list.
	Name() string

	// Collect probes the source and registers its metrics on reg.
	// Implementations must honor context cancellation on any
	// subprocess or IPC call.
	Collect(ctx context.Context, reg *prometheus.Registry) error
}

// Metrics are the suite self-metrics shared by every collector of a
// run: duration, success flag, and last-run timestamp, labeled by
// collector. One instance serves the whole registry; the three vectors
// register exactly once.
type Metrics struct {
	duration *prometheus.GaugeVec
	success  *prometheus.GaugeVec
	lastRun  *prometheus.GaugeVec
}

// NewMetrics creates the suite self-metrics and registers them on reg.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		duration: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "textfile_collector_duration_seconds",
				Help: "Time taken by the last collector run",
			},
			[]string{"collector"},
		),
		success: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "textfile_collector_success",
				Help: "Whether the last collector run succeeded (1) or failed (0)",
			},
			[]string{"collector"},
		),
		lastRun: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "textfile_collector_last_run_seconds",
				Help: "Unix timestamp of the last collector run",
			},
			[]string{"collector"},
		),
	}
	reg.MustRegister(m.duration, m.success, m.lastRun)
	return m
}

// Run executes a collector and records its outcome in the suite
// self-metrics. A collector error is reported through
// textfile_collector_success rather than aborting the registry, so a
// scraper can alert on the failure while still seeing metrics from the
// collectors that succeeded.
func (m *Metrics) Run(ctx context.Context, c Collector, reg *prometheus.Registry) error {
	start := time.Now()
	err := c.Collect(ctx, reg)
	elapsed := time.Since(start)

	m.duration.WithLabelValues(c.Name()).Set(elapsed.Seconds())
	m.lastRun.WithLabelValues(c.Name()).Set(float64(start.Unix()))

	if err != nil {
		m.success.WithLabelValues(c.Name()).Set(0)
		slog.Error("collector failed",
			slog.String("collector", c.Name()),
			slog.Duration("duration", elapsed),
			slog.Any("error", err))
		return err
	}

	m.success.WithLabelValues(c.Name()).Set(1)
	slog.Debug("collector completed",
		slog.String("collector", c.Name()),
		slog.Duration("duration", elapsed))
	return nil
}

// Run executes a single collector with a fresh set of suite
// self-metrics on reg. Callers running several collectors against one
// shared registry must create the metrics once with NewMetrics and use
// its Run method instead.
func Run(ctx context.Context, c Collector, reg *prometheus.Registry) error {
	return NewMetrics(reg).Run(ctx, c, reg)
}
