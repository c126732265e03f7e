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

package smart

import (
	"regexp"
	"strconv"
	"strings"
)

// attributeWhitelist limits reported ATA attributes to ones with
// well-defined numeric semantics across vendors.
var attributeWhitelist = map[string]bool{
	"airflow_temperature_cel": true,
	"command_timeout":         true,
	"current_pending_sector":  true,
	"end_to_end_error":        true,
	"erase_fail_count_total":  true,
	"g_sense_error_rate":      true,
	"hardware_ecc_recovered":  true,
	"host_reads_mib":          true,
	"host_reads_32mib":        true,
	"host_writes_mib":         true,
	"host_writes_32mib":       true,
	"load_cycle_count":        true,
	"media_wearout_indicator": true,
	"wear_leveling_count":     true,
	"nand_writes_1gib":        true,
	"offline_uncorrectable":   true,
	"power_cycle_count":       true,
	"power_on_hours":          true,
	"program_fail_count":      true,
	"raw_read_error_rate":     true,
	"reallocated_event_count": true,
	"reallocated_sector_ct":   true,
	"reported_uncorrect":      true,
	"sata_downshift_count":    true,
	"seek_error_rate":         true,
	"spin_retry_count":        true,
	"spin_up_time":            true,
	"start_stop_count":        true,
	"temperature_case":        true,
	"temperature_celsius":     true,
	"temperature_internal":    true,
	"total_lbas_read":         true,
	"total_lbas_written":      true,
	"udma_crc_error_count":    true,
	"unsafe_shutdown_count":   true,
	"workld_host_reads_perc":  true,
	"workld_media_wear_indic": true,
	"workload_minutes":        true,
}

var (
	// infoLinePattern matches both "Device Model:     X" and
	// "SMART support is: Enabled" forms.
	infoLinePattern = regexp.MustCompile(`^([^:]+?)(?:(?:\sis|):)\s*(.*)$`)

	healthPattern = regexp.MustCompile(`(?m)^SMART.*(PASSED|OK)$`)

	errorCountPattern = regexp.MustCompile(`(?m)^Error (\d+) \[\d+\] occurred`)

	rawValuePattern = regexp.MustCompile(`^(\d+)`)
)

// Device is one entry of `smartctl --scan-open` output.
type Device struct {
	// Path is the device node, e.g. /dev/sda.
	Path string

	// Type is the smartctl device type, e.g. "sat" or
	// "sat+megaraid,0".
	Type string
}

// Disk is the disk index label: the part of the type after "+", or "0"
// for plain devices.
func (d Device) Disk() string {
	if _, suffix, ok := strings.Cut(d.Type, "+"); ok && suffix != "" {
		return suffix
	}
	return "0"
}

// args builds a smartctl argument list selecting this device.
func (d Device) args(extra ...string) []string {
	return append(append([]string{}, extra...), "--device", d.Type, d.Path)
}

// parseScan extracts devices from --scan-open output. Each line carries
// the device path, a "-d <type>" selector, and a trailing "#" comment.
func parseScan(output string) []Device {
	var devices []Device

	for _, line := range strings.Split(output, "\n") {
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		dev := Device{Path: fields[0]}
		for i := 1; i < len(fields)-1; i++ {
			if fields[i] == "-d" || fields[i] == "--device" {
				dev.Type = fields[i+1]
			}
		}
		devices = append(devices, dev)
	}

	return devices
}

// DeviceInfo is the parsed `smartctl --info` output.
type DeviceInfo struct {
	// Fields maps info keys ("Device Model", "Serial Number", ...) to
	// their values.
	Fields map[string]string

	// Available and Enabled reflect the "SMART support" lines.
	Available bool
	Enabled   bool
}

// parseInfo reads the key/value section of --info output. The first
// three lines are the smartctl banner and are skipped.
func parseInfo(output string) DeviceInfo {
	info := DeviceInfo{Fields: make(map[string]string)}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) > 3 {
		lines = lines[3:]
	} else {
		lines = nil
	}

	for _, line := range lines {
		m := infoLinePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		key, value := m[1], m[2]

		// "SMART support" appears twice: availability and state.
		if key == "SMART support" {
			switch word, _, _ := strings.Cut(value, " "); word {
			case "Available":
				info.Available = true
			case "Enabled":
				info.Enabled = true
			}
			continue
		}
		info.Fields[key] = value
	}

	// Some drives report only under the lowercase serial key.
	if _, ok := info.Fields["Serial Number"]; !ok {
		if v, ok := info.Fields["Serial number"]; ok {
			info.Fields["Serial Number"] = v
		}
	}

	return info
}

// parseHealth reports whether the self-assessment line ends in PASSED
// or OK.
func parseHealth(output string) bool {
	return healthPattern.MatchString(output)
}

// Attribute is one whitelisted row of the ATA attribute table.
type Attribute struct {
	Name      string
	Value     float64
	Worst     float64
	Threshold float64
	RawValue  float64
}

// parseAttributes reads the --attributes table: seven banner/header
// lines, then whitespace-separated columns id/name/flag/value/worst/
// threshold/type/updated/when_failed/raw_value. Raw values keep only
// their leading integer; vendor extras like "36 (Min/Max 24/40)" are
// truncated. Duplicate attribute names keep the first occurrence.
func parseAttributes(output string) []Attribute {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) <= 7 {
		return nil
	}
	lines = lines[7:]

	var (
		attrs []Attribute
		seen  = make(map[string]bool)
	)

	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 10 {
			continue
		}

		name := strings.ToLower(fields[1])
		if !attributeWhitelist[name] || seen[name] {
			continue
		}

		raw := rawValuePattern.FindString(strings.Join(fields[9:], " "))
		if raw == "" {
			continue
		}

		threshold := fields[5]
		if threshold == "---" {
			threshold = "0"
		}

		value, err1 := strconv.ParseFloat(fields[3], 64)
		worst, err2 := strconv.ParseFloat(fields[4], 64)
		thr, err3 := strconv.ParseFloat(threshold, 64)
		rawValue, err4 := strconv.ParseFloat(raw, 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
			continue
		}

		attrs = append(attrs, Attribute{
			Name:      name,
			Value:     value,
			Worst:     worst,
			Threshold: thr,
			RawValue:  rawValue,
		})
		seen[name] = true
	}

	return attrs
}

// parseErrorCount reads the newest entry number from the extended error
// log, which equals the lifetime error count.
func parseErrorCount(output string) int {
	m := errorCountPattern.FindStringSubmatch(output)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
