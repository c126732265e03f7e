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

package chrony

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/textfile-collector/pkg/errors"
	"github.com/NVIDIA/textfile-collector/pkg/runner"
)

const namespace = "chrony"

// Collector exports chronyd synchronization state through the chronyc
// client's CSV output.
type Collector struct {
	runner *runner.Runner
}

// New creates a chrony collector.
func New() *Collector {
	return &Collector{runner: runner.New()}
}

func (c *Collector) Name() string { return "chrony" }

func (c *Collector) Collect(ctx context.Context, reg *prometheus.Registry) error {
	bin, err := runner.Find("chronyc")
	if err != nil {
		return err
	}

	// The three chronyc reports are independent. A malformed report
	// fails only its own contribution.
	var g errgroup.Group
	g.Go(func() error { return c.tracking(ctx, reg, bin) })
	g.Go(func() error { return c.sources(ctx, reg, bin) })
	g.Go(func() error { return c.sourceStats(ctx, reg, bin) })
	return g.Wait()
}

func (c *Collector) tracking(ctx context.Context, reg *prometheus.Registry, bin string) error {
	lines, err := c.runner.Lines(ctx, bin, "-c", "tracking")
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return errors.New(errors.ErrCodeParse, "empty tracking output")
	}

	t, err := parseTracking(lines[0])
	if err != nil {
		return err
	}

	refInfo := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tracking_reference_info",
		Help:      "The reference source the local clock is synchronized to.",
	}, []string{"ref_id", "ref_host"})
	reg.MustRegister(refInfo)
	refInfo.WithLabelValues(t.RefID, t.RefHost).Set(1)

	for _, gauge := range []struct {
		name  string
		help  string
		value float64
	}{
		{"tracking_stratum", "The stratum of the current preferred source.", t.Stratum},
		{"tracking_system_offset_seconds", "The current estimated drift of system time from true time.", t.SystemOffset},
		{"tracking_last_offset_seconds", "The estimated local offset on the last clock update.", t.LastOffset},
		{"tracking_root_dispersion_seconds", "The absolute bound on the local clock accuracy.", t.RootDispersion},
	} {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      gauge.name,
			Help:      gauge.help,
		})
		reg.MustRegister(g)
		g.Set(gauge.value)
	}
	return nil
}

func (c *Collector) sources(ctx context.Context, reg *prometheus.Registry, bin string) error {
	lines, err := c.runner.Lines(ctx, bin, "-c", "sources")
	if err != nil {
		return err
	}

	hostLabel := []string{"ref_host"}
	peer := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_peer_info",
		Help:      "Peer information.",
	}, []string{"ref_host", "stratum", "mode", "status"})
	poll := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_poll_rate_seconds",
		Help:      "The rate at which the source is being polled.",
	}, hostLabel)
	reach := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_reach_register",
		Help:      "The source reachability register.",
	}, hostLabel)
	received := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_last_received_seconds",
		Help:      "Seconds since the last sample was received from the source.",
	}, hostLabel)
	original := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_original_offset_seconds",
		Help:      "The adjusted offset between the local clock and the source.",
	}, hostLabel)
	measured := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_measured_offset_seconds",
		Help:      "The actual measured offset between the local clock and the source.",
	}, hostLabel)
	margin := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_offset_margin_seconds",
		Help:      "The error margin of the offset measurement.",
	}, hostLabel)
	reg.MustRegister(peer, poll, reach, received, original, measured, margin)

	for _, line := range lines {
		s, err := parseSource(line)
		if err != nil {
			return err
		}
		peer.WithLabelValues(s.RefHost, s.Stratum, s.Mode, s.Status).Set(1)
		poll.WithLabelValues(s.RefHost).Set(s.PollSeconds)
		reach.WithLabelValues(s.RefHost).Set(s.Reach)
		received.WithLabelValues(s.RefHost).Set(s.LastRx)
		original.WithLabelValues(s.RefHost).Set(s.OriginalOffset)
		measured.WithLabelValues(s.RefHost).Set(s.MeasuredOffset)
		margin.WithLabelValues(s.RefHost).Set(s.OffsetMargin)
	}
	return nil
}

func (c *Collector) sourceStats(ctx context.Context, reg *prometheus.Registry, bin string) error {
	lines, err := c.runner.Lines(ctx, bin, "-c", "sourcestats")
	if err != nil {
		return err
	}

	hostLabel := []string{"ref_host"}
	samples := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_sample_points",
		Help:      "The number of sample points currently retained for the server.",
	}, hostLabel)
	residuals := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_residual_runs",
		Help:      "The number of same-sign residual runs following the last regression.",
	}, hostLabel)
	span := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_sample_interval_span_seconds",
		Help:      "The interval between the oldest and newest samples.",
	}, hostLabel)
	frequency := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_frequency_ppm",
		Help:      "The estimated residual frequency for the server.",
	}, hostLabel)
	skew := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_frequency_skew_ppm",
		Help:      "The estimated error bounds on the residual frequency estimation.",
	}, hostLabel)
	stddev := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "source_std_dev_seconds",
		Help:      "The estimated sample standard deviation.",
	}, hostLabel)
	reg.MustRegister(samples, residuals, span, frequency, skew, stddev)

	for _, line := range lines {
		s, err := parseSourceStats(line)
		if err != nil {
			return err
		}
		samples.WithLabelValues(s.RefHost).Set(s.Samples)
		residuals.WithLabelValues(s.RefHost).Set(s.ResidualRuns)
		span.WithLabelValues(s.RefHost).Set(s.SpanSeconds)
		frequency.WithLabelValues(s.RefHost).Set(s.FrequencyPPM)
		skew.WithLabelValues(s.RefHost).Set(s.SkewPPM)
		stddev.WithLabelValues(s.RefHost).Set(s.StdDevSeconds)
	}
	return nil
}
