// Package exposition renders Prometheus registries in text exposition
// format and writes them either to stdout or atomically to a .prom file
// consumed by the node_exporter textfile collector.
package exposition
