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

package defaults

import "time"

// Subprocess timeouts for external tool invocations.
const (
	// CommandTimeout is the default timeout for a single external command.
	// Vendor CLIs occasionally hang on unreachable hardware; every
	// invocation is bounded by this unless the collector overrides it.
	CommandTimeout = 30 * time.Second

	// DeviceProbeTimeout is the timeout for a single per-device probe
	// (smartctl on one disk, nvme smart-log on one namespace). Shorter than
	// CommandTimeout because a stuck device should not starve the rest of
	// the scan.
	DeviceProbeTimeout = 10 * time.Second
)

// Run-level timeouts and pacing.
const (
	// CollectTimeout is the default budget for a full collect run across
	// all enabled collectors.
	CollectTimeout = 5 * time.Minute

	// DeviceProbeInterval is the minimum spacing between consecutive
	// per-device probes on shared buses. A value of 0 disables pacing.
	DeviceProbeInterval = 100 * time.Millisecond
)

// D-Bus timeouts.
const (
	// DBusCallTimeout bounds systemd D-Bus lookups in the proclibs
	// collector.
	DBusCallTimeout = 5 * time.Second
)
