// Package zpool collects ZFS pool and dataset metrics.
//
// Five independent metric groups run concurrently: pool metadata and
// capacity from `zpool list`, dataset metadata and space usage from
// `zfs list`, and pool health from `zpool status -p`. The status output
// is a human-oriented report; ParseStatus turns its indented device
// trees and scan summary sentences into structured PoolStatus records,
// including spare tracking and relocated-device name recovery.
package zpool
