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

package needrestart

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NVIDIA/textfile-collector/pkg/runner"
)

// Collector reports restart debt found by needrestart: outdated
// kernels and microcode plus services, containers, and sessions still
// running pre-upgrade binaries.
//
// needrestart runs in batch mode only; nothing is restarted or
// upgraded.
type Collector struct {
	runner *runner.Runner
	now    func() time.Time
}

// New creates a needrestart collector.
func New() *Collector {
	return &Collector{runner: runner.New(), now: time.Now}
}

func (c *Collector) Name() string { return "needrestart" }

func (c *Collector) Collect(ctx context.Context, reg *prometheus.Registry) error {
	bin, err := runner.Find("needrestart")
	if err != nil {
		return err
	}

	lines, err := c.runner.Lines(ctx, bin, "-b")
	if err != nil {
		return err
	}

	report, err := parseReport(lines)
	if err != nil {
		return err
	}
	c.record(reg, report)
	return nil
}

func (c *Collector) record(reg *prometheus.Registry, report *Report) {
	ts := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "needrestart_timestamp_seconds",
		Help: "Information about the needrestart version and when it was last run.",
	}, []string{"version"})
	reg.MustRegister(ts)
	ts.WithLabelValues(report.Version).Set(float64(c.now().Unix()))

	if report.KernelStatus != KernelUnknown {
		kernel := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "needrestart_kernel_status_info",
			Help: "Information about the kernel status.",
		}, []string{"current", "expected"})
		reg.MustRegister(kernel)
		kernel.WithLabelValues(report.KernelCurrent, report.KernelExpected).
			Set(float64(report.KernelStatus))
	}

	if report.MicrocodeStatus != MicrocodeUnknown {
		microcode := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "needrestart_microcode_status_info",
			Help: "Information about the microcode status.",
		}, []string{"current", "expected"})
		reg.MustRegister(microcode)
		microcode.WithLabelValues(report.MicrocodeCurrent, report.MicrocodeExpected).
			Set(float64(report.MicrocodeStatus))
	}

	for _, total := range []struct {
		name  string
		help  string
		value int
	}{
		{"needrestart_services_total", "Number of services requiring a restart.", report.Services},
		{"needrestart_containers_total", "Number of containers requiring a restart.", report.Containers},
		{"needrestart_sessions_total", "Number of sessions requiring a restart.", report.Sessions},
	} {
		g := prometheus.NewGauge(prometheus.GaugeOpts{Name: total.name, Help: total.help})
		reg.MustRegister(g)
		g.Set(float64(total.value))
	}
}
