/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/NVIDIA/textfile-collector/pkg/collector"
	"github.com/NVIDIA/textfile-collector/pkg/errors"
	"github.com/NVIDIA/textfile-collector/pkg/exposition"
)

func collectCmd() *cli.Command {
	return &cli.Command{
		Name:                  "collect",
		EnableShellCompletion: true,
		Usage:                 "Run all enabled collectors and write one exposition file",
		Description: `Run every enabled collector concurrently against a shared registry
and write the combined exposition atomically to the configured output.

A failing collector is reported through the textfile_collector_success
self-metric and does not abort the others; the run exits non-zero only
when the output cannot be written or no collector is enabled.

# Examples

Write to the node_exporter textfile directory:
  tfcollect collect --output /var/lib/node_exporter/tfcollect.prom

Restrict the run to two collectors:
  tfcollect collect --collector zpool --collector smart --output -`,
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "collector",
				Usage: "Collector to enable (can be repeated; default: all from config)",
			},
		},
		Action: runCollect,
	}
}

func runCollect(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout.Std())
	defer cancel()

	factory := collector.NewDefaultFactory(cfg)
	collectors := factory.Enabled()
	if len(collectors) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no collectors enabled")
	}

	runID := uuid.NewString()
	started := time.Now()
	slog.Info("collect starting",
		"run", runID,
		"collectors", len(collectors),
		"output", cfg.Output,
		"timeout", cfg.Timeout.Std().String())

	reg := prometheus.NewRegistry()
	metrics := collector.NewMetrics(reg)

	var g errgroup.Group
	for _, col := range collectors {
		g.Go(func() error {
			return metrics.Run(ctx, col, reg)
		})
	}
	// Run records per-collector failures in the suite self-metrics and
	// logs them; a partial result is still worth publishing.
	failed := g.Wait() != nil

	if err := exposition.NewWriter(cfg.Output).Write(reg); err != nil {
		return err
	}

	slog.Info("collect finished",
		"run", runID,
		"duration", time.Since(started).String(),
		"degraded", failed)
	return nil
}
