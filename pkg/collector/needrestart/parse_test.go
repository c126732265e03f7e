/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package needrestart

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var batchLines = []string{
	"NEEDRESTART-VER: 3.6",
	"NEEDRESTART-KCUR: 6.1.0-13-amd64",
	"NEEDRESTART-KEXP: 6.1.0-18-amd64",
	"NEEDRESTART-KSTA: 3",
	"NEEDRESTART-UCSTA: 2",
	"NEEDRESTART-UCCUR: 0x2b000581",
	"NEEDRESTART-UCEXP: 0x2b000603",
	"NEEDRESTART-SVC: systemd-journald.service",
	"NEEDRESTART-SVC: cron.service",
	"NEEDRESTART-SVC: ssh.service",
	"NEEDRESTART-CONT: LXC web1",
	"NEEDRESTART-SESS: metrics @ user manager service",
	"NEEDRESTART-SESS: root @ session #1234",
}

func TestParseReport(t *testing.T) {
	report, err := parseReport(batchLines)
	require.NoError(t, err)

	assert.Equal(t, "3.6", report.Version)
	assert.Equal(t, KernelVersionUpgrade, report.KernelStatus)
	assert.Equal(t, "6.1.0-13-amd64", report.KernelCurrent)
	assert.Equal(t, "6.1.0-18-amd64", report.KernelExpected)
	assert.Equal(t, MicrocodeObsolete, report.MicrocodeStatus)
	assert.Equal(t, "0x2b000581", report.MicrocodeCurrent)
	assert.Equal(t, "0x2b000603", report.MicrocodeExpected)
	assert.Equal(t, 3, report.Services)
	assert.Equal(t, 1, report.Containers)
	assert.Equal(t, 2, report.Sessions)
}

func TestParseReportMinimal(t *testing.T) {
	report, err := parseReport([]string{"NEEDRESTART-VER: 3.5"})
	require.NoError(t, err)
	assert.Equal(t, "3.5", report.Version)
	assert.Equal(t, KernelUnknown, report.KernelStatus)
	assert.Equal(t, MicrocodeUnknown, report.MicrocodeStatus)
	assert.Equal(t, 0, report.Services)
}

func TestParseReportBadStatus(t *testing.T) {
	_, err := parseReport([]string{"NEEDRESTART-KSTA: high"})
	require.Error(t, err)

	_, err = parseReport([]string{"NEEDRESTART-KSTA: 9"})
	require.Error(t, err)

	_, err = parseReport([]string{"NEEDRESTART-UCSTA: 3"})
	require.Error(t, err)
}

func TestRecord(t *testing.T) {
	report, err := parseReport(batchLines)
	require.NoError(t, err)

	now := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	c := New()
	c.now = func() time.Time { return now }

	reg := prometheus.NewRegistry()
	c.record(reg, report)

	families, err := reg.Gather()
	require.NoError(t, err)

	values := make(map[string]float64)
	for _, mf := range families {
		values[mf.GetName()] = mf.GetMetric()[0].GetGauge().GetValue()
	}

	assert.Equal(t, float64(now.Unix()), values["needrestart_timestamp_seconds"])
	assert.Equal(t, float64(3), values["needrestart_kernel_status_info"])
	assert.Equal(t, float64(2), values["needrestart_microcode_status_info"])
	assert.Equal(t, float64(3), values["needrestart_services_total"])
	assert.Equal(t, float64(1), values["needrestart_containers_total"])
	assert.Equal(t, float64(2), values["needrestart_sessions_total"])
}

func TestRecordUnknownStatusOmitted(t *testing.T) {
	c := New()
	reg := prometheus.NewRegistry()
	c.record(reg, &Report{Version: "3.6"})

	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		assert.NotEqual(t, "needrestart_kernel_status_info", mf.GetName())
		assert.NotEqual(t, "needrestart_microcode_status_info", mf.GetName())
	}
}

func TestCollectorName(t *testing.T) {
	assert.Equal(t, "needrestart", New().Name())
}
