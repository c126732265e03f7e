// Package config loads the YAML configuration for the collector suite.
//
// The file is optional; sensible defaults cover a stock install. CLI flags
// and environment variables override file values at the command layer.
//
// Example /etc/tfcollect/config.yaml:
//
//	output: /var/lib/node_exporter/textfile/tfcollect.prom
//	timeout: 2m
//	enabled:
//	  - zpool
//	  - smart
//	  - nvme
//	smart:
//	  probeInterval: 250ms
//	storcli:
//	  path: /opt/MegaRAID/storcli/storcli64
package config
