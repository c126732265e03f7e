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

package needrestart

import (
	"strconv"
	"strings"

	"github.com/NVIDIA/textfile-collector/pkg/errors"
)

// KernelStatus enumerates the NEEDRESTART-KSTA values.
type KernelStatus int

const (
	KernelUnknown KernelStatus = iota
	KernelCurrent
	KernelABIUpgrade
	KernelVersionUpgrade
)

// MicrocodeStatus enumerates the NEEDRESTART-UCSTA values.
type MicrocodeStatus int

const (
	MicrocodeUnknown MicrocodeStatus = iota
	MicrocodeCurrent
	MicrocodeObsolete
)

// Report is one parsed "needrestart -b" batch run.
type Report struct {
	Version           string
	KernelStatus      KernelStatus
	KernelCurrent     string
	KernelExpected    string
	MicrocodeStatus   MicrocodeStatus
	MicrocodeCurrent  string
	MicrocodeExpected string
	Services          int
	Containers        int
	Sessions          int
}

func parseReport(lines []string) (*Report, error) {
	report := &Report{}
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "NEEDRESTART-VER":
			report.Version = value
		case "NEEDRESTART-KCUR":
			report.KernelCurrent = value
		case "NEEDRESTART-KEXP":
			report.KernelExpected = value
		case "NEEDRESTART-KSTA":
			status, err := parseStatus(value, int(KernelVersionUpgrade))
			if err != nil {
				return nil, err
			}
			report.KernelStatus = KernelStatus(status)
		case "NEEDRESTART-UCCUR":
			report.MicrocodeCurrent = value
		case "NEEDRESTART-UCEXP":
			report.MicrocodeExpected = value
		case "NEEDRESTART-UCSTA":
			status, err := parseStatus(value, int(MicrocodeObsolete))
			if err != nil {
				return nil, err
			}
			report.MicrocodeStatus = MicrocodeStatus(status)
		case "NEEDRESTART-SVC":
			report.Services++
		case "NEEDRESTART-CONT":
			report.Containers++
		case "NEEDRESTART-SESS":
			report.Sessions++
		}
	}
	return report, nil
}

func parseStatus(value string, max int) (int, error) {
	status, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.WrapWithContext(errors.ErrCodeParse,
			"invalid status value", err, map[string]any{"value": value})
	}
	if status < 0 || status > max {
		return 0, errors.NewWithContext(errors.ErrCodeParse,
			"status value out of range", map[string]any{"value": status})
	}
	return status, nil
}
