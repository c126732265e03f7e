// Package dmi exposes SMBIOS hardware identity as node_dmi_ gauges.
//
// dmidecode output is split into handle records (system, processor,
// memory device, bios, and the other recognized types), each record's
// tab-indented options parsed into fields and lists. Unpopulated
// memory slots are skipped and "Not Specified" values render as empty
// labels.
package dmi
