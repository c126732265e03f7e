// Package cli implements the tfcollect command-line interface.
//
// # Overview
//
// tfcollect renders Prometheus text exposition from system utilities
// (zpool, smartctl, nvme, storcli, chronyc, apt, dmidecode,
// needrestart) and from /proc, intended for the node_exporter
// textfile directory. It is batch tooling: every invocation collects
// once, writes its output, and exits.
//
// # Commands
//
// collect - Run all enabled collectors:
//
//	tfcollect collect [--output FILE] [--collector NAME]...
//
// Runs the enabled collectors concurrently against a shared registry
// and writes the combined exposition atomically (temp file + rename)
// so node_exporter never scrapes a partial file. A failing collector
// surfaces through the textfile_collector_success self-metric and
// does not abort the rest of the run.
//
// Per-collector subcommands - Run one collector, print to stdout:
//
//	tfcollect zpool
//	tfcollect smart
//	tfcollect storcli > /var/lib/node_exporter/storcli.prom
//
// These match the one-script-one-job shape typical of cron-driven
// textfile collectors, so sources can be scheduled at different
// intervals.
//
// # Global Flags
//
//	--config       Config file path (default: /etc/tfcollect/config.yaml)
//	--output, -o   Exposition target: file path, or '-' for stdout
//	--log-level    Logging verbosity (debug, info, warn, error)
//	--timeout      Budget for a full run
//
// # Environment Variables
//
//	TFCOLLECT_CONFIG  Config file path
//	TFCOLLECT_OUTPUT  Exposition target
//	LOG_LEVEL         Logging verbosity
//
// # Exit Codes
//
//	0  Success (including degraded runs with failed collectors)
//	1  Configuration error, no collectors enabled, or output not writable
//
// # Architecture
//
// The CLI uses the urfave/cli/v3 framework and delegates to
// specialized packages:
//   - pkg/collector - Collector interface, factory, suite self-metrics
//   - pkg/collector/<name> - One package per data source
//   - pkg/exposition - Text encoding and atomic file output
//   - pkg/config - YAML configuration
//   - pkg/logging - Structured logging
//
// Version information is embedded at build time using ldflags:
//
//	go build -ldflags="-X 'github.com/NVIDIA/textfile-collector/pkg/cli.version=1.0.0'"
package cli
