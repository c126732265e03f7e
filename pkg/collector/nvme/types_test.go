/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package nvme

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberString(t *testing.T) {
	var n number
	require.NoError(t, json.Unmarshal([]byte(`"340282366920938463463374607431768211455"`), &n))
	assert.InDelta(t, 3.4028236692093846e38, float64(n), 1e24)

	require.NoError(t, json.Unmarshal([]byte(`512`), &n))
	assert.Equal(t, number(512), n)

	require.NoError(t, json.Unmarshal([]byte(`null`), &n))
	assert.Equal(t, number(0), n)

	assert.Error(t, json.Unmarshal([]byte(`"not a number"`), &n))
}

func TestWarningFieldForms(t *testing.T) {
	var w warningField
	require.NoError(t, json.Unmarshal([]byte(`{"value":4,"available_spare":0}`), &w))
	assert.Equal(t, number(4), w.Value)

	require.NoError(t, json.Unmarshal([]byte(`0`), &w))
	assert.Equal(t, number(0), w.Value)
}

func TestSmartLogDecode(t *testing.T) {
	payload := `{
		"critical_warning": {"value": 0},
		"temperature": 310,
		"avail_spare": 100,
		"spare_thresh": 10,
		"percent_used": 3,
		"data_units_read": "186316742",
		"data_units_written": "122039910",
		"host_read_commands": "1155786173",
		"host_write_commands": "1131383508",
		"controller_busy_time": "2110",
		"power_cycles": "98",
		"power_on_hours": "13629",
		"unsafe_shutdowns": "39",
		"media_errors": "0",
		"num_err_log_entries": "0"
	}`

	var log smartLog
	require.NoError(t, json.Unmarshal([]byte(payload), &log))
	assert.Equal(t, number(310), log.Temperature)
	assert.Equal(t, number(186316742), log.DataUnitsRead)
	assert.Equal(t, number(98), log.PowerCycles)
	assert.Equal(t, number(0), log.CriticalWarning.Value)
}

func TestDeviceListDecode(t *testing.T) {
	payload := `{
		"Devices": [{
			"Subsystems": [{
				"Controllers": [{
					"Controller": "nvme0",
					"ModelNumber": "Samsung SSD 980 500GB",
					"SerialNumber": "S64DNL0T824602E ",
					"Firmware": "2B4QFXO7",
					"Transport": "pcie",
					"Namespaces": [{
						"NameSpace": "nvme0n1",
						"SectorSize": 512,
						"PhysicalSize": 500107862016,
						"UsedBytes": 14178410496
					}]
				}]
			}]
		}]
	}`

	var list deviceList
	require.NoError(t, json.Unmarshal([]byte(payload), &list))
	require.Len(t, list.Devices, 1)

	ctrl := list.Devices[0].Subsystems[0].Controllers[0]
	assert.Equal(t, "nvme0", ctrl.Controller)
	require.Len(t, ctrl.Namespaces, 1)
	assert.Equal(t, "nvme0n1", ctrl.Namespaces[0].NameSpace)
	assert.Equal(t, number(512), ctrl.Namespaces[0].SectorSize)
}
