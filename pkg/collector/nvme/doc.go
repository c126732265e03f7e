// Package nvme collects NVMe device metrics through nvme-cli.
//
// The device tree comes from `nvme list` in verbose JSON form; each
// namespace device then contributes its smart log. Temperatures are
// converted from kelvins and the spare/usage percentages to ratios.
package nvme
