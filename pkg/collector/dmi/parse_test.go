/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package dmi

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureLines(t *testing.T) []string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", "dmidecode.txt"))
	require.NoError(t, err)
	return strings.Split(string(raw), "\n")
}

func TestParseHandles(t *testing.T) {
	handles := parseHandles(fixtureLines(t))

	// DMI type 13 is not in the recognized set.
	require.Len(t, handles, 5)

	bios := handles[0]
	assert.Equal(t, "bios", bios.Type)
	assert.Equal(t, "BIOS Information", bios.Title)
	assert.Equal(t, "Dell Inc.", bios.Fields["Vendor"])
	assert.Equal(t, "2.19.0", bios.Fields["Version"])
	assert.Equal(t, []string{
		"PCI is supported",
		"BIOS is upgradeable",
		"UEFI is supported",
	}, bios.Lists["Characteristics"])

	system := handles[1]
	assert.Equal(t, "system", system.Type)
	assert.Equal(t, "PowerEdge R6515", system.Fields["Product Name"])
	assert.Equal(t, "ABC1234", system.Fields["Serial Number"])

	cpu := handles[2]
	assert.Equal(t, "processor", cpu.Type)
	assert.Equal(t, "Zen", cpu.Fields["Family"])
	assert.Equal(t, "32", cpu.Fields["Core Count"])

	assert.Equal(t, "memory device", handles[3].Type)
	assert.Equal(t, "32 GB", handles[3].Fields["Size"])
	assert.Equal(t, "memory device", handles[4].Type)
	assert.Equal(t, "No Module Installed", handles[4].Fields["Size"])
}

func TestHandleType(t *testing.T) {
	typ, ok := handleType("Handle 0x0400, DMI type 4, 48 bytes")
	require.True(t, ok)
	assert.Equal(t, 4, typ)

	_, ok = handleType("Handle 0x0400")
	assert.False(t, ok)
	_, ok = handleType("Handle 0x0400, something else, 48 bytes")
	assert.False(t, ok)
}

func TestLabelName(t *testing.T) {
	assert.Equal(t, "productname", labelName("Product Name"))
	assert.Equal(t, "serialnumber", labelName("Serial Number"))
	assert.Equal(t, "maxspeed", labelName("Max Speed"))
	assert.Equal(t, "vendor", labelName("Vendor"))
}

func TestRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	record(reg, parseHandles(fixtureLines(t)))

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]map[string]string)
	for _, mf := range families {
		for _, metric := range mf.GetMetric() {
			labels := make(map[string]string)
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			byName[mf.GetName()] = labels
			assert.Equal(t, float64(1), metric.GetGauge().GetValue())
		}
		if mf.GetName() == "node_dmi_memory_device" {
			// The unpopulated slot is skipped.
			assert.Len(t, mf.GetMetric(), 1)
		}
	}

	assert.Equal(t, map[string]string{
		"manufacturer": "Dell Inc.",
		"productname":  "PowerEdge R6515",
		"serialnumber": "ABC1234",
	}, byName["node_dmi_hardware_info"])

	assert.Equal(t, map[string]string{
		"manufacturer": "Advanced Micro Devices, Inc.",
		"family":       "Zen",
		"maxspeed":     "3150 MHz",
		"corecount":    "32",
	}, byName["node_dmi_processor"])

	mem := byName["node_dmi_memory_device"]
	assert.Equal(t, "32 GB", mem["size"])
	assert.Equal(t, "HMAA4GR7AJR8N-XN", mem["partnumber"])
	// "Not Specified" renders as an empty label.
	assert.Equal(t, "", mem["banklocator"])

	assert.Equal(t, map[string]string{
		"vendor":      "Dell Inc.",
		"version":     "2.19.0",
		"releasedate": "12/12/2023",
	}, byName["node_dmi_bios"])
}

func TestCollectorName(t *testing.T) {
	assert.Equal(t, "dmi", New(Options{}).Name())
}
