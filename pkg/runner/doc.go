// Package runner executes the vendor CLI tools the collectors wrap.
//
// Every invocation runs with LC_ALL=C, a bounded timeout, and captured
// stderr. Collectors that issue many per-device probes (smartctl across a
// disk shelf) can pace invocations with WithProbeInterval to avoid hammering
// a shared bus.
//
// Usage:
//
//	run := runner.New(runner.WithTimeout(10 * time.Second))
//	out, err := run.Output(ctx, "zpool", "status", "-p")
//
// Tool discovery with fallback paths for hosts where sbin is not on PATH:
//
//	path, err := runner.Find("zpool", "/sbin/zpool", "/usr/sbin/zpool")
package runner
