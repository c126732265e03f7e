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

package proclibs

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	systemd "github.com/coreos/go-systemd/v22/dbus"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/NVIDIA/textfile-collector/pkg/defaults"
)

const procPath = "/proc"

// unitResolver is the slice of the systemd D-Bus API the collector
// needs.
type unitResolver interface {
	GetUnitNameByPID(ctx context.Context, pid uint32) (string, error)
	Close()
}

// Collector finds processes still mapping shared libraries that were
// deleted on disk, typically after a package upgrade left the old
// binary running.
type Collector struct {
	proc    string
	connect func(ctx context.Context) (unitResolver, error)
}

// New creates a proclibs collector.
func New() *Collector {
	return &Collector{
		proc: procPath,
		connect: func(ctx context.Context) (unitResolver, error) {
			return systemd.NewSystemConnectionContext(ctx)
		},
	}
}

func (c *Collector) Name() string { return "proclibs" }

func (c *Collector) Collect(ctx context.Context, reg *prometheus.Registry) error {
	entries, err := os.ReadDir(c.proc)
	if err != nil {
		return err
	}

	// Per-process library sets. Unreadable or vanished processes are
	// skipped.
	byPID := make(map[int]map[string]struct{})
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(c.proc, entry.Name(), "maps"))
		if err != nil {
			continue
		}
		libs := deletedLibraries(strings.Split(string(raw), "\n"))
		if len(libs) > 0 {
			byPID[pid] = libs
		}
	}

	perLibrary := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "node_processes_linking_deleted_libraries",
		Help: "Count of running processes that link a deleted library.",
	}, []string{"library_path", "library_name"})
	reg.MustRegister(perLibrary)

	for _, libs := range byPID {
		for lib := range libs {
			dir, base := filepath.Split(lib)
			perLibrary.WithLabelValues(strings.TrimSuffix(dir, "/"), base).Add(1)
		}
	}

	c.unitMetrics(ctx, reg, byPID)
	return nil
}

// unitMetrics attributes affected processes to their systemd units so
// operators know what to restart. An unreachable system bus degrades
// to the per-library metric alone.
func (c *Collector) unitMetrics(ctx context.Context, reg *prometheus.Registry, byPID map[int]map[string]struct{}) {
	if len(byPID) == 0 {
		return
	}

	conn, err := c.connect(ctx)
	if err != nil {
		slog.Debug("systemd bus unavailable, skipping unit attribution",
			slog.Any("error", err))
		return
	}
	defer conn.Close()

	perUnit := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "node_systemd_unit_linking_deleted_libraries",
		Help: "Count of processes per systemd unit that link a deleted library.",
	}, []string{"unit"})
	reg.MustRegister(perUnit)

	for pid := range byPID {
		unit, err := unitNameByPID(ctx, conn, uint32(pid))
		if err != nil || unit == "" {
			continue
		}
		perUnit.WithLabelValues(unit).Add(1)
	}
}

// unitNameByPID bounds a single D-Bus lookup so a wedged bus cannot
// stall the whole collection.
func unitNameByPID(ctx context.Context, conn unitResolver, pid uint32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaults.DBusCallTimeout)
	defer cancel()
	return conn.GetUnitNameByPID(ctx, pid)
}

// deletedLibraries extracts the distinct deleted library mappings from
// one maps file. A deleted mapping carries a trailing "(deleted)"
// marker as a seventh field.
func deletedLibraries(lines []string) map[string]struct{} {
	var libs map[string]struct{}
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != 7 {
			continue
		}
		library, comment := fields[5], fields[6]
		if !strings.Contains(library, "/lib/") || !strings.Contains(comment, "(deleted)") {
			continue
		}
		if libs == nil {
			libs = make(map[string]struct{})
		}
		libs[library] = struct{}{}
	}
	return libs
}
