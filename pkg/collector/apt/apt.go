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

package apt

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NVIDIA/textfile-collector/pkg/runner"
)

const (
	updateStampPath  = "/var/lib/apt/periodic/update-success-stamp"
	listsPartialPath = "/var/lib/apt/lists/partial"
	rebootFlagPath   = "/run/reboot-required"
)

// Options configure the apt collector.
type Options struct {
	// Exclude lists package names ignored by the pending, held, and
	// autoremove gauges.
	Exclude []string
}

// Collector reports pending apt upgrades, holds, autoremovable
// packages, cache freshness, and the reboot-required flag.
//
// The collector never updates the apt cache itself; something else
// (normally APT::Periodic) must run "apt update" for the pending
// numbers to stay current.
type Collector struct {
	opts   Options
	runner *runner.Runner

	stampPath   string
	partialPath string
	rebootPath  string
}

// New creates an apt collector.
func New(opts Options) *Collector {
	return &Collector{
		opts:        opts,
		runner:      runner.New(),
		stampPath:   updateStampPath,
		partialPath: listsPartialPath,
		rebootPath:  rebootFlagPath,
	}
}

func (c *Collector) Name() string { return "apt" }

func (c *Collector) Collect(ctx context.Context, reg *prometheus.Registry) error {
	aptGet, err := runner.Find("apt-get")
	if err != nil {
		return err
	}
	aptMark, err := runner.Find("apt-mark")
	if err != nil {
		return err
	}

	exclude := excludeSet(c.opts.Exclude)

	// --ignore-hold keeps held packages visible in the simulation so
	// they can be split out against the showhold set.
	instLines, err := c.runner.Lines(ctx, aptGet, "--just-print", "--ignore-hold", "dist-upgrade")
	if err != nil {
		return err
	}
	holdLines, err := c.runner.Lines(ctx, aptMark, "showhold")
	if err != nil {
		return err
	}
	remvLines, err := c.runner.Lines(ctx, aptGet, "--just-print", "autoremove")
	if err != nil {
		return err
	}

	upgrades := parseUpgrades(instLines, exclude)
	holds := parseHolds(holdLines)

	var pending, held []upgrade
	for _, u := range upgrades {
		pending = append(pending, u)
		if _, ok := holds[u.Package]; ok {
			held = append(held, u)
		}
	}

	registerUpgradeGauge(reg, "apt_upgrades_pending",
		"Apt packages pending updates by origin.", pending)
	registerUpgradeGauge(reg, "apt_upgrades_held",
		"Apt packages pending updates but held back.", held)

	autoremove := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "apt_autoremove_pending",
		Help: "Apt packages pending autoremoval.",
	})
	reg.MustRegister(autoremove)
	autoremove.Set(float64(parseRemovals(remvLines, exclude)))

	c.cacheTimestamp(reg)
	c.rebootRequired(reg)
	return nil
}

func registerUpgradeGauge(reg *prometheus.Registry, name, help string, upgrades []upgrade) {
	if len(upgrades) == 0 {
		return
	}
	g := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: name,
		Help: help,
	}, []string{"origin", "arch"})
	reg.MustRegister(g)
	for key, count := range groupByOrigin(upgrades) {
		g.WithLabelValues(key.Origin, key.Arch).Set(float64(count))
	}
}

// cacheTimestamp exposes the last "apt update" time. The periodic
// success stamp is preferred; the lists/partial directory mtime is the
// fallback. A missing path leaves the gauge at zero.
func (c *Collector) cacheTimestamp(reg *prometheus.Registry) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "apt_package_cache_timestamp_seconds",
		Help: "Apt update last run time.",
	})
	reg.MustRegister(g)

	path := c.stampPath
	if _, err := os.Stat(path); err != nil {
		path = c.partialPath
	}
	if info, err := os.Stat(path); err == nil {
		g.Set(float64(info.ModTime().Unix()))
	}
}

func (c *Collector) rebootRequired(reg *prometheus.Registry) {
	g := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "node_reboot_required",
		Help: "Node reboot is required for software updates.",
	})
	reg.MustRegister(g)
	if _, err := os.Stat(c.rebootPath); err == nil {
		g.Set(1)
	}
}
