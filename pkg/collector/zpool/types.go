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

import "time"

// PoolStatus is one parsed block of `zpool status` output.
type PoolStatus struct {
	// Name is the pool identifier.
	Name string

	// State is the pool health keyword (ONLINE, DEGRADED, UNAVAIL, ...).
	// Empty when absent from the input.
	State string

	// Devices is the flattened device hierarchy in input order.
	Devices []DeviceNode

	// Scrub holds the most recent completed scrub, if the scan line
	// reported one.
	Scrub *ScanEvent

	// Resilver holds the most recent completed resilver, if the scan
	// line reported one. At most one of Scrub/Resilver is set.
	Resilver *ScanEvent
}

// DeviceNode is one line of a pool's config tree.
type DeviceNode struct {
	// Name is the device or group identifier. When the source line
	// carries a "was <path>" comment the final path segment of the old
	// location is used instead, recovering a stable device name.
	Name string

	// Path lists ancestors from the pool root down to and including
	// this node, derived from indentation depth.
	Path []string

	// State is the per-device health keyword. Empty for bare group
	// markers such as "logs".
	State string

	// Read, Write, and Checksum are error counters. Nil when the
	// source columns were blank (spare devices report none).
	Read     *int64
	Write    *int64
	Checksum *int64

	// Comment is the trailing free-text annotation, e.g. "cannot open"
	// or "was /dev/dsk/c0t5000C5006349E003d0s0".
	Comment string

	// IsSpare marks this node and everything after the "spares" group
	// header in the same block.
	IsSpare bool
}

// ScanEvent describes a completed scrub or resilver pass.
type ScanEvent struct {
	// At is the completion timestamp.
	At time.Time

	// Duration is the elapsed time of the pass.
	Duration time.Duration

	// Corrected is the number of repaired bytes.
	Corrected int64
}
