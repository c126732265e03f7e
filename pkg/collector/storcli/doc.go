// Package storcli exports Broadcom MegaRAID controller health as
// megaraid_ prefixed metrics using the storcli utility's JSON output.
//
// The collector issues "show all" against every controller plus the
// cachevault and bbu subdevices, then walks the returned documents:
//
//   - controller basics, temperature, and status for both the
//     megaraid_sas and mpt3sas driver families
//   - virtual drive and physical drive inventory with per-drive error
//     counters pulled from the detailed enclosure/slot listing
//   - cachevault and battery backup state, with an extended gauge set
//     (voltages, capacities, learn cycles) behind Options.DetailedBBU
//
// Controllers that report a non-Success command status, and battery
// subdevices that are absent, are skipped without failing the run.
package storcli
