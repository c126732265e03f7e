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

package storcli

import (
	"encoding/json"
	"strconv"
	"strings"
)

// report is the envelope of every storcli J command.
type report struct {
	Controllers []controllerReport `json:"Controllers"`
}

type controllerReport struct {
	CommandStatus commandStatus   `json:"Command Status"`
	ResponseData  json.RawMessage `json:"Response Data"`
}

type commandStatus struct {
	Controller int    `json:"Controller"`
	Status     string `json:"Status"`
}

// controllerData is the Response Data of `/cALL show all J`. Fields not
// present on every controller generation decode as zero values.
type controllerData struct {
	Basics struct {
		Controller     int    `json:"Controller"`
		Model          string `json:"Model"`
		SerialNumber   string `json:"Serial Number"`
		SystemTime     string `json:"Current System Date/time"`
		ControllerTime string `json:"Current Controller Date/Time"`
	} `json:"Basics"`
	Version struct {
		DriverName      string `json:"Driver Name"`
		FirmwareVersion string `json:"Firmware Version"`
	} `json:"Version"`
	HwCfg          map[string]json.RawMessage `json:"HwCfg"`
	Status         map[string]json.RawMessage `json:"Status"`
	ScheduledTasks struct {
		PatrolReadReoccurrence string `json:"Patrol Read Reoccurrence"`
	} `json:"Scheduled Tasks"`

	DriveGroups   *int      `json:"Drive Groups"`
	VirtualDrives int       `json:"Virtual Drives"`
	VDList        []vdEntry `json:"VD LIST"`

	PhysicalDrives int       `json:"Physical Drives"`
	PDList         []pdEntry `json:"PD LIST"`

	// mpt3sas controllers report drives here instead of PD LIST. Every
	// drive appears twice: once as a one-element basic array, once
	// under a "- Detailed Information" key.
	PhysicalDeviceInformation map[string]json.RawMessage `json:"Physical Device Information"`
}

type vdEntry struct {
	Position string          `json:"DG/VD"`
	Name     string          `json:"Name"`
	Cache    string          `json:"Cache"`
	Type     string          `json:"TYPE"`
	State    json.RawMessage `json:"State"`
}

type pdEntry struct {
	EIDSlt string          `json:"EID:Slt"`
	DID    json.RawMessage `json:"DID"`
	State  json.RawMessage `json:"State"`
	DG     json.RawMessage `json:"DG"`
	Intf   string          `json:"Intf"`
	Med    string          `json:"Med"`
	Model  string          `json:"Model"`
}

// kvPair is one row of the Property/Value tables used by the cv and
// bbu subcommands.
type kvPair struct {
	Property string          `json:"Property"`
	Value    json.RawMessage `json:"Value"`
}

// propertyTables maps section names ("BBU_Info", "Design_Info", ...) to
// their rows.
type propertyTables map[string][]kvPair

// search returns the trimmed value of a property within a section, or
// "" when absent.
func (t propertyTables) search(section, property string) string {
	for _, pair := range t[section] {
		if pair.Property == property {
			return strings.TrimSpace(rawString(pair.Value))
		}
	}
	return ""
}

// rawString renders a raw JSON scalar as its plain text: quoted strings
// lose their quotes, numbers keep their literal form.
func rawString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// rawFloat parses a raw JSON scalar (number or numeric string) as a
// float.
func rawFloat(raw json.RawMessage) (float64, bool) {
	s := strings.TrimSpace(rawString(raw))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// amountUnits splits "255 C" or "46 GB" style values.
func amountUnits(value string) (amount, units string, ok bool) {
	amount, units, ok = strings.Cut(value, " ")
	units = strings.TrimSpace(units)
	return amount, units, ok && amount != ""
}

// megabytes converts an amount with units to megabytes. Cache modules
// never leave the MB..GB range.
func megabytes(amount, units string) (float64, bool) {
	v, err := strconv.ParseFloat(amount, 64)
	if err != nil {
		return 0, false
	}
	if units == "GB" {
		return v * 1024, true
	}
	return v, true
}
