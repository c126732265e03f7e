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
	"regexp"
	"sort"
	"strings"
)

// instPattern matches the simulation lines emitted by
// "apt-get --just-print dist-upgrade", e.g.
//
//	Inst base-files [12.4] (12.4+deb12u5 Debian:12.5/stable, Debian-Security:12/stable-security [amd64])
//
// The old-version bracket is absent for newly pulled-in dependencies.
var instPattern = regexp.MustCompile(`^Inst (\S+)(?: \[\S+\])? \(\S+ (.+?) \[(\S+)\]\)`)

var remvPattern = regexp.MustCompile(`^Remv (\S+)`)

// upgrade is one package install from a dist-upgrade simulation.
type upgrade struct {
	Package string
	Origins string
	Arch    string
}

// originKey groups upgrades the way the exposition labels them.
type originKey struct {
	Origin string
	Arch   string
}

func parseUpgrades(lines []string, exclude map[string]struct{}) []upgrade {
	var upgrades []upgrade
	for _, line := range lines {
		m := instPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if _, skip := exclude[m[1]]; skip {
			continue
		}
		upgrades = append(upgrades, upgrade{
			Package: m[1],
			Origins: normalizeOrigins(m[2]),
			Arch:    m[3],
		})
	}
	return upgrades
}

// normalizeOrigins sorts a comma-separated origin list into a stable
// label value.
func normalizeOrigins(origins string) string {
	parts := strings.Split(origins, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

// groupByOrigin counts upgrades per origin/architecture pair.
func groupByOrigin(upgrades []upgrade) map[originKey]int {
	counts := make(map[originKey]int)
	for _, u := range upgrades {
		counts[originKey{Origin: u.Origins, Arch: u.Arch}]++
	}
	return counts
}

// parseRemovals counts packages an autoremove simulation would purge.
func parseRemovals(lines []string, exclude map[string]struct{}) int {
	count := 0
	for _, line := range lines {
		m := remvPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if _, skip := exclude[m[1]]; skip {
			continue
		}
		count++
	}
	return count
}

// parseHolds builds the held-package set from "apt-mark showhold".
func parseHolds(lines []string) map[string]struct{} {
	holds := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		name := strings.TrimSpace(line)
		if name != "" {
			holds[name] = struct{}{}
		}
	}
	return holds
}

func excludeSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}
