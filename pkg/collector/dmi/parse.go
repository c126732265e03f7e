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
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// handleTypes names the SMBIOS record types worth keeping.
var handleTypes = map[int]string{
	0:  "bios",
	1:  "system",
	2:  "base board",
	3:  "chassis",
	4:  "processor",
	7:  "cache",
	8:  "port connector",
	9:  "system slot",
	10: "on board device",
	11: "OEM strings",
	15: "system event log",
	16: "physical memory array",
	17: "memory device",
	19: "memory array mapped address",
	24: "hardware security",
	25: "system power controls",
	27: "cooling device",
	32: "system boot",
	41: "onboard device",
}

// Handle is one decoded SMBIOS record.
type Handle struct {
	Type   string
	Title  string
	Fields map[string]string
	Lists  map[string][]string
}

// parseHandles walks full dmidecode output. Records of unrecognized
// types are dropped.
func parseHandles(lines []string) []Handle {
	var handles []Handle
	for i := 0; i < len(lines); i++ {
		if !strings.HasPrefix(lines[i], "Handle 0x") {
			continue
		}
		typ, ok := handleType(lines[i])
		if !ok {
			continue
		}
		name, ok := handleTypes[typ]
		if !ok {
			continue
		}
		h, next := parseSection(lines, i+1)
		h.Type = name
		handles = append(handles, h)
		i = next - 1
	}
	return handles
}

// handleType extracts N from "Handle 0x0004, DMI type N, 48 bytes".
func handleType(line string) (int, bool) {
	parts := strings.SplitN(line, ",", 3)
	if len(parts) < 2 {
		return 0, false
	}
	field := strings.TrimSpace(parts[1])
	if !strings.HasPrefix(field, "DMI type") {
		return 0, false
	}
	typ, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(field, "DMI type")))
	if err != nil {
		return 0, false
	}
	return typ, true
}

// parseSection reads one record body starting at the title line. A
// single-tab line is a key/value option; a key with an empty value
// opens a list whose members follow on double-tab lines. Returns the
// handle and the index of the first line past the section.
func parseSection(lines []string, start int) (Handle, int) {
	h := Handle{
		Fields: make(map[string]string),
		Lists:  make(map[string][]string),
	}
	if start >= len(lines) {
		return h, start
	}
	h.Title = strings.TrimRight(lines[start], " \t")

	listKey := ""
	i := start + 1
	for ; i < len(lines); i++ {
		line := strings.TrimRight(lines[i], " \t")
		switch {
		case strings.HasPrefix(line, "\t\t"):
			if listKey != "" {
				h.Lists[listKey] = append(h.Lists[listKey], strings.TrimSpace(line))
			}
		case strings.HasPrefix(line, "\t"):
			key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			value = strings.TrimSpace(value)
			if value == "" {
				listKey = key
				h.Lists[key] = nil
			} else {
				listKey = ""
				h.Fields[key] = value
			}
		default:
			return h, i
		}
	}
	return h, i
}

var lower = cases.Lower(language.English)

// labelName reduces a dmidecode field name to a lowercase-letter-only
// metric label ("Product Name" -> "productname").
func labelName(field string) string {
	var b strings.Builder
	for _, r := range lower.String(field) {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
