// Package apt exports Debian package manager state: upgrades pending
// per origin and architecture, held-back upgrades, autoremovable
// package counts, apt cache freshness, and whether the node needs a
// reboot.
//
// Pending work is read from "apt-get --just-print" simulations, so the
// collector itself never touches the package cache or the dpkg lock
// beyond apt's own locking of the simulation.
package apt
