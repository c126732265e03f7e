// Package collector provides interfaces and implementations for collecting host metrics.
//
// # Overview
//
// This package defines a unified interface for gathering Prometheus metrics from
// various host sources: ZFS pools, SMART and NVMe disks, MegaRAID controllers,
// chrony time sync, apt package state, DMI hardware inventory, and running-process
// hygiene. Collectors run concurrently and register their metrics on a
// prometheus.Registry that is then rendered in text exposition format for the
// node_exporter textfile collector.
//
// # Core Interface
//
// The Collector interface defines a single method for gathering data:
//
//	type Collector interface {
//	    Name() string
//	    Collect(ctx context.Context, reg *prometheus.Registry) error
//	}
//
// All collectors support context-based cancellation for graceful shutdown and
// timeout handling.
//
// # Factory Pattern
//
// The Factory interface enables dependency injection and testing by abstracting
// collector creation. The DefaultFactory wires production collectors from the
// suite configuration:
//
//	factory := collector.NewDefaultFactory(cfg)
//	metrics := collector.NewMetrics(reg)
//	for _, c := range factory.Enabled() {
//	    _ = metrics.Run(ctx, c, reg)
//	}
//
// # Suite Metrics
//
// Metrics wraps every collector with three self-observation gauges so a scraper
// can alert on stale or failing textfiles:
//
//   - textfile_collector_duration_seconds
//   - textfile_collector_success
//   - textfile_collector_last_run_seconds
package collector
