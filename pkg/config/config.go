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

package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NVIDIA/textfile-collector/pkg/defaults"
)

// DefaultPath is where Load looks when no explicit config file is given.
const DefaultPath = "/etc/tfcollect/config.yaml"

// Duration wraps time.Duration so YAML values can use the human form ("90s",
// "250ms") that time.ParseDuration accepts.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the suite-wide settings plus per-collector options.
type Config struct {
	// Output is the exposition target: empty or "-" for stdout, otherwise
	// a file path (conventionally ending in .prom).
	Output string `yaml:"output"`

	// LogLevel overrides the LOG_LEVEL environment variable when set.
	LogLevel string `yaml:"logLevel"`

	// Timeout bounds a full collect run.
	Timeout Duration `yaml:"timeout"`

	// Enabled lists the collectors the collect command runs. Empty means
	// all registered collectors.
	Enabled []string `yaml:"enabled"`

	Smart   SmartConfig   `yaml:"smart"`
	StorCLI StorCLIConfig `yaml:"storcli"`
	Apt     AptConfig     `yaml:"apt"`
	DMI     DMIConfig     `yaml:"dmi"`
}

// SmartConfig holds smartctl collector options.
type SmartConfig struct {
	// WakeupDisks probes disks in standby, spinning them up.
	WakeupDisks bool `yaml:"wakeupDisks"`

	// ByID indexes devices by /dev/disk/by-id instead of /dev/sdX.
	ByID bool `yaml:"byId"`

	// ProbeInterval paces per-disk smartctl invocations.
	ProbeInterval Duration `yaml:"probeInterval"`
}

// StorCLIConfig holds storcli collector options.
type StorCLIConfig struct {
	// Path to the storcli binary; the stock install location is not on PATH.
	Path string `yaml:"path"`

	// DetailedBBU enables the verbose battery/cachevault metric set.
	DetailedBBU bool `yaml:"detailedBbu"`
}

// AptConfig holds apt collector options.
type AptConfig struct {
	// Exclude lists package names ignored when counting pending upgrades.
	Exclude []string `yaml:"exclude"`
}

// DMIConfig holds dmidecode collector options.
type DMIConfig struct {
	// Path to the dmidecode binary.
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Timeout: Duration(defaults.CollectTimeout),
		Smart: SmartConfig{
			ProbeInterval: Duration(defaults.DeviceProbeInterval),
		},
		StorCLI: StorCLIConfig{
			Path:        "/opt/MegaRAID/storcli/storcli64",
			DetailedBBU: true,
		},
		DMI: DMIConfig{
			Path: "/usr/sbin/dmidecode",
		},
	}
}

// Load reads YAML configuration from path. An empty path falls back to
// DefaultPath; a missing default file yields the default configuration,
// while a missing explicit file is an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = Duration(defaults.CollectTimeout)
	}

	return cfg, nil
}
