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

package inotify

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	procPath     = "/proc"
	notifyTarget = "anon_inode:inotify"
)

// process is one /proc entry holding at least zero inotify instances.
type process struct {
	PID       int
	UID       uint32
	Command   string
	Instances int
}

// Collector counts inotify(7) instances held open per process and per
// user.
//
// When run unprivileged only the invoking user's processes are
// readable; processes without inotify descriptors produce no series.
type Collector struct {
	proc string
}

// New creates an inotify collector.
func New() *Collector {
	return &Collector{proc: procPath}
}

func (c *Collector) Name() string { return "inotify" }

func (c *Collector) Collect(ctx context.Context, reg *prometheus.Registry) error {
	procs, err := scanProcesses(c.proc)
	if err != nil {
		return err
	}

	perProcess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "inotify",
		Name:      "instances",
		Help:      "Total number of inotify instances held open by a process.",
	}, []string{"pid", "uid", "command"})
	perUser := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "inotify",
		Name:      "user_instances",
		Help:      "Total number of inotify instances held open by a user.",
	}, []string{"uid"})
	reg.MustRegister(perProcess, perUser)

	for _, p := range procs {
		if p.Instances <= 0 {
			continue
		}
		uid := strconv.FormatUint(uint64(p.UID), 10)
		perProcess.WithLabelValues(strconv.Itoa(p.PID), uid, p.Command).Set(float64(p.Instances))
		perUser.WithLabelValues(uid).Add(float64(p.Instances))
	}
	return nil
}

// scanProcesses walks the proc tree. Processes that disappear or are
// not readable are skipped, not errors.
func scanProcesses(proc string) ([]process, error) {
	entries, err := os.ReadDir(proc)
	if err != nil {
		return nil, err
	}

	var procs []process
	for _, entry := range entries {
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		dir := filepath.Join(proc, entry.Name())

		uid, ok := processUID(filepath.Join(dir, "status"))
		if !ok {
			continue
		}
		command, ok := processCommand(filepath.Join(dir, "cmdline"))
		if !ok {
			continue
		}
		instances, ok := inotifyInstances(filepath.Join(dir, "fd"))
		if !ok {
			continue
		}

		procs = append(procs, process{
			PID:       pid,
			UID:       uid,
			Command:   command,
			Instances: instances,
		})
	}
	return procs, nil
}

func processUID(status string) (uint32, bool) {
	info, err := os.Stat(status)
	if err != nil {
		return 0, false
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, false
	}
	return stat.Uid, true
}

// processCommand reads the program name from cmdline. ps(1) is avoided
// because it truncates long comm values.
func processCommand(cmdline string) (string, bool) {
	raw, err := os.ReadFile(cmdline)
	if err != nil {
		return "", false
	}
	if len(raw) == 0 {
		return "<zombie>", true
	}
	for i, b := range raw {
		if b == 0 {
			raw = raw[:i]
			break
		}
	}
	return filepath.Base(string(raw)), true
}

func inotifyInstances(fdDir string) (int, bool) {
	fds, err := os.ReadDir(fdDir)
	if err != nil {
		return 0, false
	}
	instances := 0
	for _, fd := range fds {
		target, err := os.Readlink(filepath.Join(fdDir, fd.Name()))
		if err != nil {
			continue
		}
		if target == notifyTarget {
			instances++
		}
	}
	return instances, true
}
