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

package smart

import (
	"context"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NVIDIA/textfile-collector/pkg/defaults"
	"github.com/NVIDIA/textfile-collector/pkg/runner"
)

const namespace = "smartmon"

// infoLabels is the fixed label set of smartmon_device_info, in order.
var infoLabels = []struct {
	key   string
	label string
}{
	{"Vendor", "vendor"},
	{"Product", "product"},
	{"Revision", "revision"},
	{"Logical Unit id", "lun_id"},
	{"Model Family", "model_family"},
	{"Device Model", "device_model"},
	{"Serial Number", "serial_number"},
	{"Firmware Version", "firmware_version"},
}

// Options configure the smart collector.
type Options struct {
	// WakeupDisks probes standby disks for full metrics, spinning them
	// up. Off by default so a metrics run does not defeat disk power
	// management.
	WakeupDisks bool

	// ByID indexes devices by /dev/disk/by-id aliases instead of
	// kernel names.
	ByID bool

	// ProbeInterval paces per-device smartctl invocations on a shared
	// bus.
	ProbeInterval time.Duration
}

// Collector gathers disk health metrics through smartctl.
type Collector struct {
	opts   Options
	runner *runner.Runner
}

// New creates a smart collector.
func New(opts Options) *Collector {
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = defaults.DeviceProbeInterval
	}
	return &Collector{
		opts: opts,
		// Per-device probes get the short probe timeout so one stuck
		// disk cannot starve the rest of the scan.
		runner: runner.New(
			runner.WithTimeout(defaults.DeviceProbeTimeout),
			runner.WithProbeInterval(opts.ProbeInterval),
		),
	}
}

func (c *Collector) Name() string { return "smart" }

type deviceMetrics struct {
	version   *prometheus.GaugeVec
	active    *prometheus.GaugeVec
	info      *prometheus.GaugeVec
	available *prometheus.GaugeVec
	enabled   *prometheus.GaugeVec
	healthy   *prometheus.GaugeVec
	attrValue *prometheus.GaugeVec
	attrWorst *prometheus.GaugeVec
	attrThr   *prometheus.GaugeVec
	attrRaw   *prometheus.GaugeVec
	errors    *prometheus.GaugeVec
}

func newDeviceMetrics(reg *prometheus.Registry) *deviceMetrics {
	gauge := func(name string, labels ...string) *prometheus.GaugeVec {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      "SMART metric " + name,
		}, labels)
		reg.MustRegister(g)
		return g
	}

	labels := make([]string, 0, len(infoLabels)+2)
	labels = append(labels, "device", "disk")
	for _, l := range infoLabels {
		labels = append(labels, l.label)
	}

	return &deviceMetrics{
		version:   gauge("smartctl_version", "version"),
		active:    gauge("device_active", "device", "disk"),
		info:      gauge("device_info", labels...),
		available: gauge("device_smart_available", "device", "disk"),
		enabled:   gauge("device_smart_enabled", "device", "disk"),
		healthy:   gauge("device_smart_healthy", "device", "disk"),
		attrValue: gauge("attr_value", "device", "disk", "name"),
		attrWorst: gauge("attr_worst", "device", "disk", "name"),
		attrThr:   gauge("attr_threshold", "device", "disk", "name"),
		attrRaw:   gauge("attr_raw_value", "device", "disk", "name"),
		errors:    gauge("device_errors", "device", "disk"),
	}
}

// Collect scans for SMART-capable devices and probes each in turn.
// Standby disks contribute only the activity gauge unless WakeupDisks
// is set; devices without SMART support stop after the capability
// gauges.
func (c *Collector) Collect(ctx context.Context, reg *prometheus.Registry) error {
	bin, err := runner.Find("smartctl", "/usr/sbin/smartctl", "/usr/local/sbin/smartctl")
	if err != nil {
		return err
	}

	m := newDeviceMetrics(reg)

	if version, err := c.version(ctx, bin); err == nil {
		m.version.WithLabelValues(version).Set(1)
	}

	scanArgs := []string{"--scan-open"}
	if c.opts.ByID {
		scanArgs = append(scanArgs, "-d", "by-id")
	}
	out, err := c.runner.Output(ctx, bin, scanArgs...)
	if err != nil {
		return err
	}

	for _, dev := range parseScan(string(out)) {
		if err := c.collectDevice(ctx, bin, dev, m); err != nil {
			return err
		}
	}
	return nil
}

func (c *Collector) collectDevice(ctx context.Context, bin string, dev Device, m *deviceMetrics) error {
	active := c.isActive(ctx, bin, dev)
	m.active.WithLabelValues(dev.Path, dev.Disk()).Set(boolValue(active))

	// Probing a standby disk would spin it up.
	if !active && !c.opts.WakeupDisks {
		return nil
	}

	out, err := c.runner.OutputIgnoreExit(ctx, bin, dev.args("--info")...)
	if err != nil {
		return err
	}
	info := parseInfo(string(out))

	values := make([]string, 0, len(infoLabels)+2)
	values = append(values, dev.Path, dev.Disk())
	for _, l := range infoLabels {
		values = append(values, info.Fields[l.key])
	}
	m.info.WithLabelValues(values...).Set(1)

	m.available.WithLabelValues(dev.Path, dev.Disk()).Set(boolValue(info.Available))
	m.enabled.WithLabelValues(dev.Path, dev.Disk()).Set(boolValue(info.Enabled))

	// Further smartctl invocations fail without SMART support.
	if !info.Available {
		return nil
	}

	out, err = c.runner.OutputIgnoreExit(ctx, bin, dev.args("--health")...)
	if err != nil {
		return err
	}
	m.healthy.WithLabelValues(dev.Path, dev.Disk()).Set(boolValue(parseHealth(string(out))))

	if !strings.HasPrefix(dev.Type, "sat") {
		return nil
	}

	out, err = c.runner.OutputIgnoreExit(ctx, bin, dev.args("--attributes")...)
	if err != nil {
		return err
	}
	for _, attr := range parseAttributes(string(out)) {
		m.attrValue.WithLabelValues(dev.Path, dev.Disk(), attr.Name).Set(attr.Value)
		m.attrWorst.WithLabelValues(dev.Path, dev.Disk(), attr.Name).Set(attr.Worst)
		m.attrThr.WithLabelValues(dev.Path, dev.Disk(), attr.Name).Set(attr.Threshold)
		m.attrRaw.WithLabelValues(dev.Path, dev.Disk(), attr.Name).Set(attr.RawValue)
	}

	out, err = c.runner.OutputIgnoreExit(ctx, bin, dev.args("-l", "xerror,1")...)
	if err != nil {
		return err
	}
	m.errors.WithLabelValues(dev.Path, dev.Disk()).Set(float64(parseErrorCount(string(out))))

	return nil
}

// isActive checks the power state without waking the disk. smartctl
// exits non-zero for standby devices.
func (c *Collector) isActive(ctx context.Context, bin string, dev Device) bool {
	_, err := c.runner.Output(ctx, bin, dev.args("--nocheck", "standby")...)
	return err == nil
}

func (c *Collector) version(ctx context.Context, bin string) (string, error) {
	lines, err := c.runner.Lines(ctx, bin, "-V")
	if err != nil {
		return "", err
	}
	if len(lines) == 0 {
		return "", nil
	}
	fields := strings.Fields(lines[0])
	if len(fields) < 2 {
		return "", nil
	}
	return fields[1], nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
