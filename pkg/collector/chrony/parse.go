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

package chrony

import (
	"math"
	"strconv"
	"strings"

	"github.com/NVIDIA/textfile-collector/pkg/errors"
)

const (
	trackingFieldCount    = 14
	sourceFieldCount      = 10
	sourceStatsFieldCount = 8
)

// Reachability symbols reported by chronyc sources.
var sourceStatusLabels = map[string]string{
	"*": "synchronized (system peer)",
	"+": "synchronized",
	"?": "unreachable",
	"x": "Falseticker",
	"-": "reference clock",
}

var sourceModeLabels = map[string]string{
	"^": "server",
	"=": "peer",
	"#": "reference clock",
}

// Tracking is one parsed "chronyc -c tracking" record.
type Tracking struct {
	RefID          string
	RefHost        string
	Stratum        float64
	SystemOffset   float64
	LastOffset     float64
	RootDispersion float64
}

func parseTracking(line string) (*Tracking, error) {
	fields := strings.Split(line, ",")
	if len(fields) != trackingFieldCount {
		return nil, errors.NewWithContext(errors.ErrCodeParse,
			"unexpected tracking field count",
			map[string]any{"fields": len(fields), "want": trackingFieldCount})
	}

	t := &Tracking{RefID: fields[0], RefHost: fields[1]}
	for _, col := range []struct {
		index int
		name  string
		dst   *float64
	}{
		{2, "stratum", &t.Stratum},
		{4, "system offset", &t.SystemOffset},
		{5, "last offset", &t.LastOffset},
		{11, "root dispersion", &t.RootDispersion},
	} {
		v, err := parseField(fields[col.index], col.name)
		if err != nil {
			return nil, err
		}
		*col.dst = v
	}
	return t, nil
}

// Source is one parsed "chronyc -c sources" row.
type Source struct {
	Mode           string
	Status         string
	RefHost        string
	Stratum        string
	PollSeconds    float64
	Reach          float64
	LastRx         float64
	OriginalOffset float64
	MeasuredOffset float64
	OffsetMargin   float64
}

func parseSource(line string) (*Source, error) {
	fields := strings.Split(line, ",")
	if len(fields) != sourceFieldCount {
		return nil, errors.NewWithContext(errors.ErrCodeParse,
			"unexpected sources field count",
			map[string]any{"fields": len(fields), "want": sourceFieldCount})
	}

	mode, ok := sourceModeLabels[fields[0]]
	if !ok {
		return nil, errors.NewWithContext(errors.ErrCodeParse,
			"unknown source mode", map[string]any{"mode": fields[0]})
	}
	status, ok := sourceStatusLabels[fields[1]]
	if !ok {
		return nil, errors.NewWithContext(errors.ErrCodeParse,
			"unknown source status", map[string]any{"status": fields[1]})
	}

	s := &Source{
		Mode:    mode,
		Status:  status,
		RefHost: fields[2],
		Stratum: fields[3],
	}

	rate, err := parseField(fields[4], "poll rate")
	if err != nil {
		return nil, err
	}
	// chronyc reports the poll interval as a power-of-two exponent.
	s.PollSeconds = math.Pow(2, rate)

	for _, col := range []struct {
		index int
		name  string
		dst   *float64
	}{
		{5, "reach register", &s.Reach},
		{6, "last rx", &s.LastRx},
		{7, "original offset", &s.OriginalOffset},
		{8, "measured offset", &s.MeasuredOffset},
		{9, "offset margin", &s.OffsetMargin},
	} {
		v, err := parseField(fields[col.index], col.name)
		if err != nil {
			return nil, err
		}
		*col.dst = v
	}
	return s, nil
}

// SourceStats is one parsed "chronyc -c sourcestats" row.
type SourceStats struct {
	RefHost       string
	Samples       float64
	ResidualRuns  float64
	SpanSeconds   float64
	FrequencyPPM  float64
	SkewPPM       float64
	StdDevSeconds float64
}

func parseSourceStats(line string) (*SourceStats, error) {
	fields := strings.Split(line, ",")
	if len(fields) != sourceStatsFieldCount {
		return nil, errors.NewWithContext(errors.ErrCodeParse,
			"unexpected sourcestats field count",
			map[string]any{"fields": len(fields), "want": sourceStatsFieldCount})
	}

	s := &SourceStats{RefHost: fields[0]}
	for _, col := range []struct {
		index int
		name  string
		dst   *float64
	}{
		{1, "sample points", &s.Samples},
		{2, "residual runs", &s.ResidualRuns},
		{3, "sample span", &s.SpanSeconds},
		{4, "frequency", &s.FrequencyPPM},
		{5, "frequency skew", &s.SkewPPM},
		{6, "standard deviation", &s.StdDevSeconds},
	} {
		v, err := parseField(fields[col.index], col.name)
		if err != nil {
			return nil, err
		}
		*col.dst = v
	}
	return s, nil
}

func parseField(value, name string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, errors.WrapWithContext(errors.ErrCodeParse,
			"invalid numeric field", err, map[string]any{"field": name, "value": value})
	}
	return v, nil
}
