// Package chrony exports chronyd synchronization state as chrony_
// prefixed metrics.
//
// It runs the chronyc client in CSV mode for the tracking, sources,
// and sourcestats reports. Source mode and reachability symbols are
// mapped to readable labels, and the power-of-two poll exponent is
// converted to seconds. The three reports run concurrently; a
// malformed report fails only its own metric group.
package chrony
