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

package collector

import (
	"github.com/NVIDIA/textfile-collector/pkg/collector/apt"
	"github.com/NVIDIA/textfile-collector/pkg/collector/chrony"
	"github.com/NVIDIA/textfile-collector/pkg/collector/dmi"
	"github.com/NVIDIA/textfile-collector/pkg/collector/inotify"
	"github.com/NVIDIA/textfile-collector/pkg/collector/needrestart"
	"github.com/NVIDIA/textfile-collector/pkg/collector/nvme"
	"github.com/NVIDIA/textfile-collector/pkg/collector/proclibs"
	"github.com/NVIDIA/textfile-collector/pkg/collector/smart"
	"github.com/NVIDIA/textfile-collector/pkg/collector/storcli"
	"github.com/NVIDIA/textfile-collector/pkg/collector/zpool"
	"github.com/NVIDIA/textfile-collector/pkg/config"
)

// Factory creates collectors with their dependencies.
// This interface enables dependency injection for testing.
type Factory interface {
	CreateZpoolCollector() Collector
	CreateSmartCollector() Collector
	CreateNVMeCollector() Collector
	CreateStorCLICollector() Collector
	CreateChronyCollector() Collector
	CreateAptCollector() Collector
	CreateDMICollector() Collector
	CreateInotifyCollector() Collector
	CreateProcLibsCollector() Collector
	CreateNeedRestartCollector() Collector
}

// DefaultFactory creates collectors with production dependencies.
type DefaultFactory struct {
	cfg *config.Config
}

// NewDefaultFactory creates a factory backed by the given configuration.
// A nil config falls back to defaults.
func NewDefaultFactory(cfg *config.Config) *DefaultFactory {
	if cfg == nil {
		cfg = config.Default()
	}
	return &DefaultFactory{cfg: cfg}
}

// CreateZpoolCollector creates a ZFS pool and dataset collector.
func (f *DefaultFactory) CreateZpoolCollector() Collector {
	return zpool.New()
}

// CreateSmartCollector creates a smartctl disk collector.
func (f *DefaultFactory) CreateSmartCollector() Collector {
	return smart.New(smart.Options{
		WakeupDisks:   f.cfg.Smart.WakeupDisks,
		ByID:          f.cfg.Smart.ByID,
		ProbeInterval: f.cfg.Smart.ProbeInterval.Std(),
	})
}

// CreateNVMeCollector creates an nvme-cli collector.
func (f *DefaultFactory) CreateNVMeCollector() Collector {
	return nvme.New()
}

// CreateStorCLICollector creates a MegaRAID storcli collector.
func (f *DefaultFactory) CreateStorCLICollector() Collector {
	return storcli.New(storcli.Options{
		Path:        f.cfg.StorCLI.Path,
		DetailedBBU: f.cfg.StorCLI.DetailedBBU,
	})
}

// CreateChronyCollector creates a chronyc collector.
func (f *DefaultFactory) CreateChronyCollector() Collector {
	return chrony.New()
}

// CreateAptCollector creates an apt pending-upgrades collector.
func (f *DefaultFactory) CreateAptCollector() Collector {
	return apt.New(apt.Options{
		Exclude: f.cfg.Apt.Exclude,
	})
}

// CreateDMICollector creates a dmidecode hardware collector.
func (f *DefaultFactory) CreateDMICollector() Collector {
	return dmi.New(dmi.Options{
		Path: f.cfg.DMI.Path,
	})
}

// CreateInotifyCollector creates an inotify watch-count collector.
func (f *DefaultFactory) CreateInotifyCollector() Collector {
	return inotify.New()
}

// CreateProcLibsCollector creates a deleted-libraries collector.
func (f *DefaultFactory) CreateProcLibsCollector() Collector {
	return proclibs.New()
}

// CreateNeedRestartCollector creates a needrestart collector.
func (f *DefaultFactory) CreateNeedRestartCollector() Collector {
	return needrestart.New()
}

// All returns every collector the factory knows, in stable order.
func (f *DefaultFactory) All() []Collector {
	return []Collector{
		f.CreateZpoolCollector(),
		f.CreateSmartCollector(),
		f.CreateNVMeCollector(),
		f.CreateStorCLICollector(),
		f.CreateChronyCollector(),
		f.CreateAptCollector(),
		f.CreateDMICollector(),
		f.CreateInotifyCollector(),
		f.CreateProcLibsCollector(),
		f.CreateNeedRestartCollector(),
	}
}

// Enabled returns the collectors selected by the configuration. An empty
// enabled list means all collectors.
func (f *DefaultFactory) Enabled() []Collector {
	all := f.All()
	if len(f.cfg.Enabled) == 0 {
		return all
	}

	want := make(map[string]bool, len(f.cfg.Enabled))
	for _, name := range f.cfg.Enabled {
		want[name] = true
	}

	out := make([]Collector, 0, len(all))
	for _, c := range all {
		if want[c.Name()] {
			out = append(out, c)
		}
	}
	return out
}
