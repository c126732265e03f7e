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
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// number tolerates nvme-cli's mixed marshaling: 128-bit counters are
// emitted as JSON strings while smaller fields are plain numbers.
type number float64

func (n *number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(bytes.Trim(bytes.TrimSpace(data), `"`)))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*n = number(v)
	return nil
}

// warningField reads critical_warning, which verbose output renders as
// an object with a "value" member and older output as a bare number.
type warningField struct {
	Value number
}

func (w *warningField) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj struct {
			Value number `json:"value"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		w.Value = obj.Value
		return nil
	}
	return w.Value.UnmarshalJSON(trimmed)
}

// deviceList mirrors `nvme list --output-format json --verbose`.
type deviceList struct {
	Devices []struct {
		Subsystems []struct {
			Controllers []controllerEntry `json:"Controllers"`
		} `json:"Subsystems"`
	} `json:"Devices"`
}

type controllerEntry struct {
	Controller   string    `json:"Controller"`
	ModelNumber  string    `json:"ModelNumber"`
	SerialNumber string    `json:"SerialNumber"`
	Firmware     string    `json:"Firmware"`
	Transport    string    `json:"Transport"`
	Namespaces   []nsEntry `json:"Namespaces"`
}

type nsEntry struct {
	NameSpace    string `json:"NameSpace"`
	SectorSize   number `json:"SectorSize"`
	PhysicalSize number `json:"PhysicalSize"`
	UsedBytes    number `json:"UsedBytes"`
}

// smartLog mirrors `nvme smart-log` JSON output.
type smartLog struct {
	CriticalWarning    warningField `json:"critical_warning"`
	Temperature        number       `json:"temperature"`
	AvailSpare         number       `json:"avail_spare"`
	SpareThresh        number       `json:"spare_thresh"`
	PercentUsed        number       `json:"percent_used"`
	DataUnitsRead      number       `json:"data_units_read"`
	DataUnitsWritten   number       `json:"data_units_written"`
	HostReadCommands   number       `json:"host_read_commands"`
	HostWriteCommands  number       `json:"host_write_commands"`
	ControllerBusyTime number       `json:"controller_busy_time"`
	PowerCycles        number       `json:"power_cycles"`
	PowerOnHours       number       `json:"power_on_hours"`
	UnsafeShutdowns    number       `json:"unsafe_shutdowns"`
	MediaErrors        number       `json:"media_errors"`
	NumErrLogEntries   number       `json:"num_err_log_entries"`
}
