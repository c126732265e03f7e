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
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/NVIDIA/textfile-collector/pkg/errors"
)

// siExponents maps zpool's size suffixes to base-1024 exponents.
var siExponents = map[byte]int{
	'B': 0,
	'K': 1,
	'M': 2,
	'G': 3,
	'T': 4,
	'P': 5,
	'E': 6,
	'Z': 7,
	'Y': 8,
}

// parseSIAmount converts a zpool size token to bytes. A bare decimal
// integer is taken literally; otherwise the last character is a
// base-1024 magnitude suffix scaling the preceding decimal number, with
// the result rounded to the nearest integer. An unknown suffix is a
// hard error rather than a guessed scale.
func parseSIAmount(value string) (int64, error) {
	if value == "" {
		return 0, errors.New(errors.ErrCodeParse, "empty size value")
	}

	if isDecimal(value) {
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeParse, "invalid size value "+value, err)
		}
		return n, nil
	}

	suffix := value[len(value)-1]
	if 'a' <= suffix && suffix <= 'z' {
		suffix -= 'a' - 'A'
	}
	exp, ok := siExponents[suffix]
	if !ok {
		return 0, errors.New(errors.ErrCodeParse, "unknown size suffix in "+value)
	}

	num, err := strconv.ParseFloat(value[:len(value)-1], 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeParse, "invalid size value "+value, err)
	}

	return int64(math.Round(num * math.Pow(1024, float64(exp)))), nil
}

func isDecimal(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// timeUnits maps zpool's single-letter duration suffixes to lengths.
// The same scale ladder orders the fields of the colon clock format.
var timeUnits = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
	'y': 365 * 24 * time.Hour,
}

var clockScale = []time.Duration{
	time.Second,
	time.Minute,
	time.Hour,
	24 * time.Hour,
	7 * 24 * time.Hour,
	365 * 24 * time.Hour,
}

// parseDuration reads either zpool's colon clock format ("06:58:02",
// fields scaling up right to left) or the compact suffixed format
// ("29h37m", accumulating left to right).
func parseDuration(value string) (time.Duration, error) {
	if strings.Contains(value, ":") {
		return parseClockDuration(value)
	}
	return parseCompactDuration(value)
}

func parseClockDuration(value string) (time.Duration, error) {
	parts := strings.Split(value, ":")
	if len(parts) > len(clockScale) {
		return 0, errors.New(errors.ErrCodeParse, "too many clock fields in "+value)
	}

	var total time.Duration
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, errors.Wrap(errors.ErrCodeParse, "invalid clock field in "+value, err)
		}
		total += time.Duration(n) * clockScale[len(parts)-1-i]
	}
	return total, nil
}

func parseCompactDuration(value string) (time.Duration, error) {
	var (
		total time.Duration
		num   int64
	)
	for i := 0; i < len(value); i++ {
		c := value[i]
		if '0' <= c && c <= '9' {
			num = num*10 + int64(c-'0')
			continue
		}
		unit, ok := timeUnits[c]
		if !ok {
			return 0, errors.New(errors.ErrCodeParse, "unknown duration unit in "+value)
		}
		total += time.Duration(num) * unit
		num = 0
	}
	return total, nil
}
