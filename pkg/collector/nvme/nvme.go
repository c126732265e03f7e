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

package nvme

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NVIDIA/textfile-collector/pkg/runner"
)

const namespace = "nvme"

var versionPattern = regexp.MustCompile(`^nvme version (\S+)`)

// Collector gathers NVMe device metrics through nvme-cli.
type Collector struct {
	runner *runner.Runner
}

// New creates an NVMe collector.
func New() *Collector {
	return &Collector{runner: runner.New()}
}

func (c *Collector) Name() string { return "nvme" }

type nvmeMetrics struct {
	cliInfo        *prometheus.GaugeVec
	controllerInfo *prometheus.GaugeVec

	sectorSize   *prometheus.GaugeVec
	physicalSize *prometheus.GaugeVec
	usedBytes    *prometheus.GaugeVec

	availSpare      *prometheus.GaugeVec
	spareThresh     *prometheus.GaugeVec
	percentUsed     *prometheus.GaugeVec
	criticalWarning *prometheus.GaugeVec
	temperature     *prometheus.GaugeVec

	dataUnitsRead      *prometheus.CounterVec
	dataUnitsWritten   *prometheus.CounterVec
	hostReadCommands   *prometheus.CounterVec
	hostWriteCommands  *prometheus.CounterVec
	mediaErrors        *prometheus.CounterVec
	errLogEntries      *prometheus.CounterVec
	powerCycles        *prometheus.CounterVec
	powerOnHours       *prometheus.CounterVec
	controllerBusyTime *prometheus.CounterVec
	unsafeShutdowns    *prometheus.CounterVec
}

func newNVMEMetrics(reg *prometheus.Registry) *nvmeMetrics {
	gauge := func(name, help string, labels ...string) *prometheus.GaugeVec {
		g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: name, Help: help,
		}, labels)
		reg.MustRegister(g)
		return g
	}
	counter := func(name, help string) *prometheus.CounterVec {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: name, Help: help,
		}, []string{"device"})
		reg.MustRegister(c)
		return c
	}

	return &nvmeMetrics{
		cliInfo: gauge("nvmecli_info", "nvme-cli tool information", "version"),
		controllerInfo: gauge("controller_info", "Controller information",
			"controller", "model", "firmware", "serial", "transport"),

		sectorSize:   gauge("sector_size_bytes", "Device sector size in bytes", "device"),
		physicalSize: gauge("physical_size_bytes", "Device size in bytes", "device"),
		usedBytes:    gauge("used_bytes", "Device used size in bytes", "device"),

		availSpare:      gauge("available_spare_ratio", "Device available spare ratio", "device"),
		spareThresh:     gauge("available_spare_threshold_ratio", "Device available spare threshold ratio", "device"),
		percentUsed:     gauge("percentage_used_ratio", "Device percentage used ratio", "device"),
		criticalWarning: gauge("critical_warning", "Device critical warning bitmap field", "device"),
		temperature:     gauge("temperature_celsius", "Device temperature in degrees Celsius", "device"),

		dataUnitsRead:      counter("data_units_read_total", "Number of 512-byte data units read by host, reported in thousands"),
		dataUnitsWritten:   counter("data_units_written_total", "Number of 512-byte data units written by host, reported in thousands"),
		hostReadCommands:   counter("host_read_commands_total", "Device read commands from host"),
		hostWriteCommands:  counter("host_write_commands_total", "Device write commands from host"),
		mediaErrors:        counter("media_errors_total", "Device media errors total"),
		errLogEntries:      counter("num_err_log_entries_total", "Device error log entry count"),
		powerCycles:        counter("power_cycles_total", "Device number of power cycles"),
		powerOnHours:       counter("power_on_hours_total", "Device power-on hours"),
		controllerBusyTime: counter("controller_busy_time_seconds_total", "Device controller busy time in seconds"),
		unsafeShutdowns:    counter("unsafe_shutdowns_total", "Device number of unsafe shutdowns"),
	}
}

// Collect enumerates controllers and namespaces from `nvme list` and
// reads the smart log of every namespace device.
func (c *Collector) Collect(ctx context.Context, reg *prometheus.Registry) error {
	bin, err := runner.Find("nvme", "/usr/sbin/nvme", "/usr/local/sbin/nvme")
	if err != nil {
		return err
	}

	m := newNVMEMetrics(reg)
	m.cliInfo.WithLabelValues(c.version(ctx, bin)).Set(1)

	var list deviceList
	// nvme-cli v2.11 forces verbose JSON; requesting it explicitly keeps
	// one schema across versions.
	if err := c.runner.JSON(ctx, &list, bin, "list", "--output-format", "json", "--verbose"); err != nil {
		return err
	}

	for _, dev := range list.Devices {
		for _, subsys := range dev.Subsystems {
			for _, ctrl := range subsys.Controllers {
				m.controllerInfo.WithLabelValues(
					ctrl.Controller,
					ctrl.ModelNumber,
					ctrl.Firmware,
					strings.TrimSpace(ctrl.SerialNumber),
					ctrl.Transport,
				).Set(1)

				for _, ns := range ctrl.Namespaces {
					if err := c.collectNamespace(ctx, bin, ns, m); err != nil {
						return err
					}
				}
			}
		}
	}
	return nil
}

func (c *Collector) collectNamespace(ctx context.Context, bin string, ns nsEntry, m *nvmeMetrics) error {
	device := ns.NameSpace

	m.sectorSize.WithLabelValues(device).Set(float64(ns.SectorSize))
	m.physicalSize.WithLabelValues(device).Set(float64(ns.PhysicalSize))
	m.usedBytes.WithLabelValues(device).Set(float64(ns.UsedBytes))

	var log smartLog
	err := c.runner.JSON(ctx, &log, bin, "smart-log", path.Join("/dev", device),
		"--output-format", "json", "--verbose")
	if err != nil {
		return err
	}

	m.dataUnitsRead.WithLabelValues(device).Add(float64(log.DataUnitsRead))
	m.dataUnitsWritten.WithLabelValues(device).Add(float64(log.DataUnitsWritten))
	m.hostReadCommands.WithLabelValues(device).Add(float64(log.HostReadCommands))
	m.hostWriteCommands.WithLabelValues(device).Add(float64(log.HostWriteCommands))
	m.mediaErrors.WithLabelValues(device).Add(float64(log.MediaErrors))
	m.errLogEntries.WithLabelValues(device).Add(float64(log.NumErrLogEntries))
	m.powerCycles.WithLabelValues(device).Add(float64(log.PowerCycles))
	m.powerOnHours.WithLabelValues(device).Add(float64(log.PowerOnHours))
	m.controllerBusyTime.WithLabelValues(device).Add(float64(log.ControllerBusyTime))
	m.unsafeShutdowns.WithLabelValues(device).Add(float64(log.UnsafeShutdowns))

	m.availSpare.WithLabelValues(device).Set(float64(log.AvailSpare) / 100)
	m.spareThresh.WithLabelValues(device).Set(float64(log.SpareThresh) / 100)
	m.percentUsed.WithLabelValues(device).Set(float64(log.PercentUsed) / 100)
	m.criticalWarning.WithLabelValues(device).Set(float64(log.CriticalWarning.Value))

	// Smart-log temperature is reported in kelvins.
	m.temperature.WithLabelValues(device).Set(float64(log.Temperature) - 273)

	return nil
}

func (c *Collector) version(ctx context.Context, bin string) string {
	lines, err := c.runner.Lines(ctx, bin, "version")
	if err != nil || len(lines) == 0 {
		return "unknown"
	}
	if m := versionPattern.FindStringSubmatch(lines[0]); m != nil {
		return m[1]
	}
	return "unknown"
}
