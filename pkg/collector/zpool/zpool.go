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

package zpool

import (
	"context"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/textfile-collector/pkg/errors"
	"github.com/NVIDIA/textfile-collector/pkg/runner"
)

const namespace = "zfs"

var poolMetadataColumns = []string{"health", "version", "readonly", "ashift", "autoreplace", "failmode"}

var poolSpaceColumns = []struct {
	name string
	help string
	unit string
}{
	{"size", "Total size of the storage pool", "bytes"},
	{"free", "The amount of free space available in the pool", "bytes"},
	{"freeing", "The amount of space waiting to be reclaimed from destroyed filesystems or snapshots", "bytes"},
	{"dedupratio", "The deduplication ratio", ""},
	{"fragmentation", "The amount of fragmentation in the pool", ""},
}

var datasetMetadataColumns = []string{"type", "creation", "mounted", "checksum", "compression", "readonly", "version", "dedup", "volblocksize"}

var datasetSpaceColumns = []struct {
	name string
	help string
	unit string
}{
	{"used", "The amount of space consumed by this dataset and all its descendents", "bytes"},
	{"available", "The amount of space available to the dataset and all its children", "bytes"},
	{"referenced", "The amount of data that is accessible by this dataset, which may or may not be shared with other datasets in the pool", "bytes"},
	{"compressratio", "For non-snapshots, the compression ratio achieved for the used space of this dataset, expressed as a multiplier", ""},
	{"reservation", "The minimum amount of space guaranteed to a dataset and its descendants", "bytes"},
	{"refreservation", "The minimum amount of space guaranteed to a dataset, not including its descendents", "bytes"},
	{"volsize", "For volumes, specifies the logical size of the volume", "bytes"},
}

const datasetTypes = "filesystem,volume"

// Collector gathers ZFS pool and dataset metrics from the zpool and
// zfs CLIs.
type Collector struct {
	runner *runner.Runner
}

// New creates a ZFS collector with default command execution.
func New() *Collector {
	return &Collector{runner: runner.New()}
}

func (c *Collector) Name() string { return "zpool" }

// Collect runs the five independent metric groups concurrently. A
// failing group aborts only its own contribution; the first error is
// reported after all groups finish.
func (c *Collector) Collect(ctx context.Context, reg *prometheus.Registry) error {
	zpoolBin, err := runner.Find("zpool", "/sbin/zpool", "/usr/sbin/zpool")
	if err != nil {
		return err
	}
	zfsBin, err := runner.Find("zfs", "/sbin/zfs", "/usr/sbin/zfs")
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.Go(func() error { return c.poolMetadata(ctx, zpoolBin, reg) })
	g.Go(func() error { return c.poolSpace(ctx, zpoolBin, reg) })
	g.Go(func() error { return c.datasetMetadata(ctx, zfsBin, reg) })
	g.Go(func() error { return c.datasetSpace(ctx, zfsBin, reg) })
	g.Go(func() error { return c.poolStatus(ctx, zpoolBin, reg) })
	return g.Wait()
}

// poolMetadata emits one constant gauge per pool carrying its
// configuration properties as labels.
func (c *Collector) poolMetadata(ctx context.Context, bin string, reg *prometheus.Registry) error {
	rows, err := c.tabular(ctx, bin, "list", "-H", "-o", "name,"+strings.Join(poolMetadataColumns, ","))
	if err != nil {
		return err
	}

	metric := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "zpool",
		Help:      "Constant metric with metadata about the zpool",
	}, append([]string{"zpool_name"}, poolMetadataColumns...))
	reg.MustRegister(metric)

	for _, row := range rows {
		if len(row) != len(poolMetadataColumns)+1 {
			return errors.New(errors.ErrCodeParse, "unexpected zpool list column count")
		}
		metric.WithLabelValues(row...).Set(1)
	}
	return nil
}

// poolSpace emits per-pool capacity gauges from parsable zpool list
// output.
func (c *Collector) poolSpace(ctx context.Context, bin string, reg *prometheus.Registry) error {
	cols := make([]string, 0, len(poolSpaceColumns)+1)
	cols = append(cols, "name")
	for _, col := range poolSpaceColumns {
		cols = append(cols, col.name)
	}

	rows, err := c.tabular(ctx, bin, "list", "-Hp", "-o", strings.Join(cols, ","))
	if err != nil {
		return err
	}

	metrics := make([]*prometheus.GaugeVec, len(poolSpaceColumns))
	for i, col := range poolSpaceColumns {
		metrics[i] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      withUnit("zpool_"+col.name, col.unit),
			Help:      col.help,
		}, []string{"pool_name"})
		reg.MustRegister(metrics[i])
	}

	for _, row := range rows {
		if len(row) != len(poolSpaceColumns)+1 {
			return errors.New(errors.ErrCodeParse, "unexpected zpool list column count")
		}
		for i := range poolSpaceColumns {
			v, err := strconv.ParseFloat(row[i+1], 64)
			if err != nil {
				return errors.Wrap(errors.ErrCodeParse, "invalid zpool list value "+row[i+1], err)
			}
			metrics[i].WithLabelValues(row[0]).Set(v)
		}
	}
	return nil
}

// datasetMetadata emits one constant gauge per filesystem or volume
// carrying its properties as labels.
func (c *Collector) datasetMetadata(ctx context.Context, bin string, reg *prometheus.Registry) error {
	rows, err := c.tabular(ctx, bin, "list", "-Hp", "-t", datasetTypes,
		"-o", "name,"+strings.Join(datasetMetadataColumns, ","))
	if err != nil {
		return err
	}

	metric := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dataset",
		Help:      "Constant metric with metadata about the zfs dataset",
	}, append([]string{"dataset_name"}, datasetMetadataColumns...))
	reg.MustRegister(metric)

	for _, row := range rows {
		if len(row) != len(datasetMetadataColumns)+1 {
			return errors.New(errors.ErrCodeParse, "unexpected zfs list column count")
		}
		metric.WithLabelValues(row...).Set(1)
	}
	return nil
}

// datasetSpace emits per-dataset space gauges. Properties reported as
// "-" do not apply to the dataset and are skipped; ratio values carry a
// trailing "x" that is stripped.
func (c *Collector) datasetSpace(ctx context.Context, bin string, reg *prometheus.Registry) error {
	cols := make([]string, 0, len(datasetSpaceColumns)+1)
	cols = append(cols, "name")
	for _, col := range datasetSpaceColumns {
		cols = append(cols, col.name)
	}

	rows, err := c.tabular(ctx, bin, "list", "-Hp", "-t", datasetTypes,
		"-o", strings.Join(cols, ","))
	if err != nil {
		return err
	}

	metrics := make([]*prometheus.GaugeVec, len(datasetSpaceColumns))
	for i, col := range datasetSpaceColumns {
		metrics[i] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      withUnit("dataset_"+col.name, col.unit),
			Help:      col.help,
		}, []string{"dataset_name"})
		reg.MustRegister(metrics[i])
	}

	for _, row := range rows {
		if len(row) != len(datasetSpaceColumns)+1 {
			return errors.New(errors.ErrCodeParse, "unexpected zfs list column count")
		}
		for i := range datasetSpaceColumns {
			raw := row[i+1]
			if raw == "-" {
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "x"), 64)
			if err != nil {
				return errors.Wrap(errors.ErrCodeParse, "invalid zfs list value "+raw, err)
			}
			metrics[i].WithLabelValues(row[0]).Set(v)
		}
	}
	return nil
}

// poolStatus parses `zpool status -p` and emits per-pool state, vdev
// topology, and scrub/resilver scan gauges.
func (c *Collector) poolStatus(ctx context.Context, bin string, reg *prometheus.Registry) error {
	out, err := c.runner.Output(ctx, bin, "status", "-p")
	if err != nil {
		return err
	}

	statuses := ParseStatus(string(out))
	if len(statuses) == 0 {
		return nil
	}

	stateMetric := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "zpool_status",
		Help:      "The status of the zpool",
	}, []string{"zpool_name", "state"})
	vdevMetric := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "zpool_vdev_info",
		Help:      "Information about the vdevs in a zpool",
	}, []string{"zpool_name", "vdev_name", "path", "state", "read", "write", "checksum"})
	reg.MustRegister(stateMetric, vdevMetric)

	scans := newScanMetrics(reg)

	for _, status := range statuses {
		stateMetric.WithLabelValues(status.Name, status.State).Set(1)

		if status.Scrub != nil {
			scans.record("scrub", status.Name, status.Scrub)
		}
		if status.Resilver != nil {
			scans.record("resilvering", status.Name, status.Resilver)
		}

		for _, dev := range status.Devices {
			vdevMetric.WithLabelValues(
				status.Name,
				dev.Name,
				vdevPath(dev.Path),
				dev.State,
				counterLabel(dev.Read),
				counterLabel(dev.Write),
				counterLabel(dev.Checksum),
			).Set(1)
		}
	}
	return nil
}

// scanMetrics lazily registers the per-activity scan gauges so pools
// without scan history emit nothing.
type scanMetrics struct {
	reg      *prometheus.Registry
	duration map[string]*prometheus.GaugeVec
	bytes    map[string]*prometheus.GaugeVec
	at       map[string]*prometheus.GaugeVec
}

func newScanMetrics(reg *prometheus.Registry) *scanMetrics {
	return &scanMetrics{
		reg:      reg,
		duration: make(map[string]*prometheus.GaugeVec),
		bytes:    make(map[string]*prometheus.GaugeVec),
		at:       make(map[string]*prometheus.GaugeVec),
	}
}

func (s *scanMetrics) record(activity, pool string, event *ScanEvent) {
	if _, ok := s.duration[activity]; !ok {
		s.duration[activity] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "zpool_" + activity + "_duration_seconds",
			Help:      "The duration of the latest zpool " + activity + " in seconds",
		}, []string{"zpool_name"})
		s.bytes[activity] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "zpool_" + activity + "_corrected_bytes",
			Help:      "The number of corrected bytes of the latest zpool " + activity,
		}, []string{"zpool_name"})
		s.at[activity] = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "zpool_" + activity + "_time_seconds",
			Help:      "The timestamp of the latest zpool " + activity,
		}, []string{"zpool_name"})
		s.reg.MustRegister(s.duration[activity], s.bytes[activity], s.at[activity])
	}

	s.duration[activity].WithLabelValues(pool).Set(event.Duration.Seconds())
	s.bytes[activity].WithLabelValues(pool).Set(float64(event.Corrected))
	s.at[activity].WithLabelValues(pool).Set(float64(event.At.Unix()))
}

// vdevPath renders a device path as root://seg1/seg2.
func vdevPath(path []string) string {
	if len(path) == 0 {
		return ""
	}
	return path[0] + "://" + strings.Join(path[1:], "/")
}

func counterLabel(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func withUnit(name, unit string) string {
	if unit == "" {
		return name
	}
	return name + "_" + unit
}

// tabular runs a command and splits each non-empty output line on tabs.
func (c *Collector) tabular(ctx context.Context, bin string, args ...string) ([][]string, error) {
	lines, err := c.runner.Lines(ctx, bin, args...)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, strings.Split(strings.TrimSpace(line), "\t"))
	}
	return rows, nil
}
