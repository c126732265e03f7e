/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/textfile-collector/pkg/collector"
	"github.com/NVIDIA/textfile-collector/pkg/exposition"
)

// collectorSpec binds one collector to its standalone subcommand.
type collectorSpec struct {
	name   string
	usage  string
	create func(collector.Factory) collector.Collector
}

var collectorSpecs = []collectorSpec{
	{"zpool", "ZFS pool health, space, and scan activity",
		func(f collector.Factory) collector.Collector { return f.CreateZpoolCollector() }},
	{"smart", "S.M.A.R.T. disk health via smartctl",
		func(f collector.Factory) collector.Collector { return f.CreateSmartCollector() }},
	{"nvme", "NVMe controller and namespace metrics via nvme-cli",
		func(f collector.Factory) collector.Collector { return f.CreateNVMeCollector() }},
	{"storcli", "MegaRAID controller, drive, and battery health via storcli",
		func(f collector.Factory) collector.Collector { return f.CreateStorCLICollector() }},
	{"chrony", "NTP synchronization state via chronyc",
		func(f collector.Factory) collector.Collector { return f.CreateChronyCollector() }},
	{"apt", "Pending apt upgrades, holds, and reboot flag",
		func(f collector.Factory) collector.Collector { return f.CreateAptCollector() }},
	{"dmi", "SMBIOS hardware identity via dmidecode",
		func(f collector.Factory) collector.Collector { return f.CreateDMICollector() }},
	{"inotify", "inotify instance consumption per process and user",
		func(f collector.Factory) collector.Collector { return f.CreateInotifyCollector() }},
	{"proclibs", "Processes linking deleted shared libraries",
		func(f collector.Factory) collector.Collector { return f.CreateProcLibsCollector() }},
	{"needrestart", "Outstanding restarts reported by needrestart",
		func(f collector.Factory) collector.Collector { return f.CreateNeedRestartCollector() }},
}

// collectorCmds builds one subcommand per collector. Each runs exactly
// that collector and prints exposition text to stdout, matching the
// one-job-per-invocation shape cron setups expect.
func collectorCmds() []*cli.Command {
	cmds := make([]*cli.Command, 0, len(collectorSpecs))
	for _, spec := range collectorSpecs {
		cmds = append(cmds, &cli.Command{
			Name:                  spec.name,
			EnableShellCompletion: true,
			Usage:                 spec.usage,
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return runSingle(ctx, cmd, spec)
			},
		})
	}
	return cmds
}

func runSingle(ctx context.Context, cmd *cli.Command, spec collectorSpec) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout.Std())
	defer cancel()

	col := spec.create(collector.NewDefaultFactory(cfg))
	reg := prometheus.NewRegistry()
	if err := collector.Run(ctx, col, reg); err != nil {
		return err
	}
	return exposition.Encode(os.Stdout, reg)
}
