// Package needrestart parses "needrestart -b" batch output into
// kernel and microcode upgrade status enums plus counts of services,
// containers, and sessions that still need a restart.
package needrestart
