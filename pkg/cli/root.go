/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/NVIDIA/textfile-collector/pkg/config"
	"github.com/NVIDIA/textfile-collector/pkg/logging"
)

const (
	name           = "tfcollect"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"
)

// Execute builds the root command and runs it. This is called by
// main.main().
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle SIGINT/SIGTERM for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down gracefully...")
		cancel()
	}()

	if err := rootCmd().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cli.Command {
	cmd := &cli.Command{
		Name:    name,
		Usage:   "Prometheus textfile collectors for host hardware and package state",
		Version: fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Description: `tfcollect gathers hardware and package health from system
utilities (zpool, smartctl, nvme, storcli, chronyc, apt, dmidecode,
needrestart) and from /proc, and renders Prometheus text exposition
suitable for the node_exporter textfile directory.

The collect command runs all enabled collectors concurrently and
writes one .prom file atomically. Each collector is also available as
its own subcommand printing to stdout, for cron jobs that schedule
sources at different intervals.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "config file path",
				Sources: cli.EnvVars("TFCOLLECT_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "exposition target: .prom file path, or '-' for stdout",
				Sources: cli.EnvVars("TFCOLLECT_OUTPUT"),
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "budget for a full collect run",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			logging.SetDefaultStructuredLoggerWithLevel(name, version, cmd.String("log-level"))
			slog.Debug("starting",
				"name", name,
				"version", version,
				"commit", commit,
				"date", date)
			return ctx, nil
		},
	}

	cmd.Commands = append([]*cli.Command{collectCmd()}, collectorCmds()...)
	return cmd
}

// loadConfig reads the configuration file and lets command-line flags
// override it.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, err
	}
	if cmd.IsSet("output") {
		cfg.Output = cmd.String("output")
	}
	if cmd.IsSet("log-level") {
		cfg.LogLevel = cmd.String("log-level")
	}
	if d := cmd.Duration("timeout"); d > 0 {
		cfg.Timeout = config.Duration(d)
	}
	if cmd.IsSet("collector") {
		cfg.Enabled = cmd.StringSlice("collector")
	}
	return cfg, nil
}
