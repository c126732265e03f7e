// Package smart collects disk health metrics through smartctl.
//
// Devices come from `smartctl --scan-open`. Each device reports an
// activity gauge; active (or woken) devices additionally report model
// info, SMART capability and health, and for ATA devices the
// whitelisted attribute table and extended error log count. Standby
// disks are left asleep unless wakeup is enabled.
package smart
