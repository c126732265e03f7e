// Package proclibs detects processes that still map shared libraries
// deleted on disk, usually binaries kept running across a security
// update. Affected processes are additionally attributed to their
// systemd unit through the system D-Bus when it is reachable.
package proclibs
