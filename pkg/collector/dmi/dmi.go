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

package dmi

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NVIDIA/textfile-collector/pkg/runner"
)

const valueNotSpecified = "Not Specified"

// Options configure the dmi collector.
type Options struct {
	// Path overrides the dmidecode binary location.
	Path string
}

// Collector exposes SMBIOS hardware identity gauges from dmidecode.
type Collector struct {
	opts   Options
	runner *runner.Runner
}

// New creates a dmi collector.
func New(opts Options) *Collector {
	return &Collector{opts: opts, runner: runner.New()}
}

func (c *Collector) Name() string { return "dmi" }

func (c *Collector) Collect(ctx context.Context, reg *prometheus.Registry) error {
	bin, err := runner.Find("dmidecode", c.opts.Path, "/usr/sbin/dmidecode")
	if err != nil {
		return err
	}

	// Indentation is significant, so the raw output is split without
	// trimming.
	out, err := c.runner.Output(ctx, bin)
	if err != nil {
		return err
	}

	record(reg, parseHandles(strings.Split(string(out), "\n")))
	return nil
}

// record translates the decoded handles to node_dmi_ gauges. Fields
// that are absent or "Not Specified" become empty label values.
func record(reg *prometheus.Registry, handles []Handle) {
	byType := make(map[string][]Handle)
	for _, h := range handles {
		byType[h.Type] = append(byType[h.Type], h)
	}

	hardware := newInfoVec(reg, "node_dmi_hardware_info",
		"System identity decoded from the SMBIOS system record.",
		[]string{"Manufacturer", "Product Name", "Serial Number"})
	for _, h := range byType["system"] {
		hardware.apply(h)
	}

	processor := newInfoVec(reg, "node_dmi_processor",
		"Processor sockets decoded from SMBIOS.",
		[]string{"Manufacturer", "Family", "Max Speed", "Core Count"})
	for _, h := range byType["processor"] {
		processor.apply(h)
	}

	memory := newInfoVec(reg, "node_dmi_memory_device",
		"Populated memory slots decoded from SMBIOS.",
		[]string{"Size", "Speed", "Manufacturer", "Serial Number", "Type",
			"Part Number", "Form Factor", "Locator", "Bank Locator"})
	for _, h := range byType["memory device"] {
		if h.Fields["Size"] == "No Module Installed" {
			continue
		}
		memory.apply(h)
	}

	bios := newInfoVec(reg, "node_dmi_bios",
		"Firmware identity decoded from the SMBIOS bios record.",
		[]string{"Vendor", "Version", "Release Date"})
	for _, h := range byType["bios"] {
		bios.apply(h)
	}
}

// infoVec is a value-1 gauge fed from a fixed set of handle fields.
type infoVec struct {
	vec    *prometheus.GaugeVec
	fields []string
}

func newInfoVec(reg *prometheus.Registry, name, help string, fields []string) *infoVec {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = labelName(f)
	}
	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: help}, names)
	reg.MustRegister(vec)
	return &infoVec{vec: vec, fields: fields}
}

func (v *infoVec) apply(h Handle) {
	values := make([]string, len(v.fields))
	for i, f := range v.fields {
		if value, ok := h.Fields[f]; ok && value != valueNotSpecified {
			values[i] = value
		}
	}
	v.vec.WithLabelValues(values...).Set(1)
}
