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
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/textfile-collector/pkg/errors"
)

// scanTimeLayout matches zpool's completion timestamps, e.g.
// "Sun Nov 12 07:22:03 2023". The day may be space padded.
const scanTimeLayout = "Mon Jan _2 15:04:05 2006"

var scanLinePattern = regexp.MustCompile(
	`^(scrub repaired|resilvered) (\S+) in (\S+) with (\d+) errors on (.+)$`)

// ParseStatus parses the full text of `zpool status -p` into one
// PoolStatus per pool block. Blocks without a parsable device tree are
// dropped. A scan line that fails to parse leaves both activity fields
// unset for its block and is logged, without affecting other blocks.
func ParseStatus(content string) []PoolStatus {
	var statuses []PoolStatus

	for _, block := range splitBlocks(content) {
		fields := extractFields(block)

		devices := buildHierarchy(fields["config"])
		if len(devices) == 0 {
			continue
		}

		status := PoolStatus{
			Name:    fields["pool"],
			State:   fields["state"],
			Devices: devices,
		}

		scrub, resilver, err := parseScanLine(fields["scan"])
		if err != nil {
			slog.Warn("skipping unparsable scan line",
				slog.String("pool", status.Name),
				slog.Any("error", err))
		} else {
			status.Scrub = scrub
			status.Resilver = resilver
		}

		statuses = append(statuses, status)
	}

	return statuses
}

// splitBlocks cuts the report into per-pool blocks, each starting at a
// "pool: <name>" line. Text before the first marker is discarded; input
// without any marker yields nothing.
func splitBlocks(content string) []string {
	var (
		blocks  []string
		current []string
		open    bool
	)

	flush := func() {
		if open {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		if isPoolMarker(line) {
			flush()
			open = true
		}
		if open {
			current = append(current, line)
		}
	}
	flush()

	return blocks
}

func isPoolMarker(line string) bool {
	rest, ok := strings.CutPrefix(strings.TrimLeft(line, " \t"), "pool:")
	if !ok {
		return false
	}
	// The marker needs whitespace and a name after the colon.
	return len(rest) > 0 && (rest[0] == ' ' || rest[0] == '\t') &&
		strings.TrimSpace(rest) != ""
}

// extractFields scans a block for top-of-line "<word>:" keys and
// accumulates each value up to the next key, preserving embedded
// newlines so the config tree survives intact.
func extractFields(block string) map[string]string {
	fields := make(map[string]string)

	var (
		key   string
		value []string
	)

	commit := func() {
		if key != "" {
			fields[key] = strings.TrimSpace(strings.Join(value, "\n"))
		}
	}

	for _, line := range strings.Split(block, "\n") {
		if k, rest, ok := cutKeyLine(line); ok {
			commit()
			key = k
			value = []string{rest}
			continue
		}
		if key != "" {
			value = append(value, line)
		}
	}
	commit()

	return fields
}

// cutKeyLine splits "  scan: scrub repaired ..." into key and remainder.
// A key is a run of word characters at the start of the line (after
// optional indentation) immediately followed by a colon. Device lines
// such as "pci-0000:00:..." do not qualify.
func cutKeyLine(line string) (key, rest string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")

	i := 0
	for i < len(trimmed) && isWordChar(trimmed[i]) {
		i++
	}
	if i == 0 || i >= len(trimmed) || trimmed[i] != ':' {
		return "", "", false
	}
	return trimmed[:i], trimmed[i+1:], true
}

func isWordChar(c byte) bool {
	return c == '_' ||
		('a' <= c && c <= 'z') ||
		('A' <= c && c <= 'Z') ||
		('0' <= c && c <= '9')
}

// configLine is one parsed line of the config tree before any
// hierarchy derivation.
type configLine struct {
	indent   int
	name     string
	state    string
	read     *int64
	write    *int64
	checksum *int64
	comment  string
}

// buildHierarchy turns the raw config section into the flattened device
// list. The first line is the column header and is dropped positionally;
// a section with no data lines after that yields nil, which suppresses
// the whole block.
func buildHierarchy(config string) []DeviceNode {
	lines := parseConfigLines(config)
	if len(lines) < 2 {
		return nil
	}
	lines = lines[1:]

	// The root line sets the indentation baseline for path depth.
	offset := lines[0].indent

	var (
		devices      []DeviceNode
		previousPath []string
		sparesActive bool
	)

	for _, ln := range lines {
		if ln.name == "spares" {
			sparesActive = true
		}

		name := ln.name
		if old, ok := strings.CutPrefix(ln.comment, "was "); ok {
			name = old[strings.LastIndex(old, "/")+1:]
		}

		level := ln.indent - offset
		if level < 0 {
			level = 0
		}
		if level > len(previousPath) {
			level = len(previousPath)
		}

		path := make([]string, 0, level+1)
		path = append(path, previousPath[:level]...)
		path = append(path, name)
		previousPath = path

		// The spares header is only a marker; its children keep the
		// "spares" path root.
		if ln.name == "spares" {
			continue
		}

		devices = append(devices, DeviceNode{
			Name:     name,
			Path:     path,
			State:    ln.state,
			Read:     ln.read,
			Write:    ln.write,
			Checksum: ln.checksum,
			Comment:  ln.comment,
			IsSpare:  sparesActive,
		})
	}

	return devices
}

// parseConfigLines decomposes each config line into indentation, name,
// state, error counters, and trailing comment. Lines carry either the
// name alone, name and state, or the full five columns with an optional
// comment; anything else is skipped.
func parseConfigLines(config string) []configLine {
	if config == "" {
		return nil
	}

	var lines []configLine
	for _, raw := range strings.Split(config, "\n") {
		ln, ok := parseConfigLine(raw)
		if !ok {
			continue
		}
		lines = append(lines, ln)
	}
	return lines
}

func parseConfigLine(raw string) (configLine, bool) {
	rest := strings.TrimLeft(raw, " \t")
	ln := configLine{indent: (len(raw) - len(rest)) / 2}

	var tokens []string
	for len(tokens) < 5 && rest != "" {
		var tok string
		tok, rest = cutToken(rest)
		tokens = append(tokens, tok)
	}

	switch len(tokens) {
	case 1:
		ln.name = tokens[0]
	case 2:
		ln.name = tokens[0]
		ln.state = tokens[1]
	case 5:
		ln.name = tokens[0]
		ln.state = tokens[1]
		ln.read = parseCounter(tokens[2])
		ln.write = parseCounter(tokens[3])
		ln.checksum = parseCounter(tokens[4])
		ln.comment = strings.TrimRight(rest, " \t")
	default:
		return configLine{}, false
	}
	return ln, true
}

// cutToken splits off the first whitespace-delimited token and trims
// the separator that follows it.
func cutToken(s string) (token, rest string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], " \t")
}

func parseCounter(s string) *int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// parseScanLine matches the completed-activity sentence, e.g.
//
//	scrub repaired 0B in 06:58:02 with 0 errors on Sun Nov 12 07:22:03 2023
//
// Unmatched input (in-progress scans, "none requested") yields neither
// activity and no error. A matched sentence with an unparsable amount,
// duration, or timestamp returns an error so a bad scale is never
// silently recorded.
func parseScanLine(scan string) (scrub, resilver *ScanEvent, err error) {
	m := scanLinePattern.FindStringSubmatch(scan)
	if m == nil {
		return nil, nil, nil
	}

	corrected, err := parseSIAmount(m[2])
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeParse, "invalid corrected amount", err)
	}

	duration, err := parseDuration(m[3])
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeParse, "invalid scan duration", err)
	}

	at, err := time.Parse(scanTimeLayout, m[5])
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeParse, "invalid scan timestamp", err)
	}

	event := &ScanEvent{At: at, Duration: duration, Corrected: corrected}
	if m[1] == "scrub repaired" {
		return event, nil, nil
	}
	return nil, event, nil
}
