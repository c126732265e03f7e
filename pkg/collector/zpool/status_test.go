/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/

package zpool

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func i64(n int64) *int64 { return &n }

func TestParseStatusComplex(t *testing.T) {
	statuses := ParseStatus(fixture(t, "status_complex.txt"))
	require.Len(t, statuses, 2)

	pool0 := statuses[0]
	assert.Equal(t, "pool0", pool0.Name)
	assert.Equal(t, "ONLINE", pool0.State)
	require.Len(t, pool0.Devices, 5)

	assert.Equal(t, DeviceNode{
		Name: "pool0", Path: []string{"pool0"}, State: "ONLINE",
		Read: i64(0), Write: i64(0), Checksum: i64(0),
	}, pool0.Devices[0])
	assert.Equal(t, []string{"pool0", "raidz1-0"}, pool0.Devices[1].Path)
	assert.Equal(t, "ata-TOSHIBA_MG09ACA18TE_82X0A0QMFJDH", pool0.Devices[2].Name)
	assert.Equal(t,
		[]string{"pool0", "raidz1-0", "ata-TOSHIBA_MG09ACA18TE_82X0A0QMFJDH"},
		pool0.Devices[2].Path)
	assert.Equal(t,
		[]string{"pool0", "raidz1-0", "ata-TOSHIBA_MG09ACA18TE_82J0A00FFJDH"},
		pool0.Devices[3].Path)
	assert.Equal(t, "ata-TOSHIBA_MG09ACA18TE_82X0A0QPFJDH", pool0.Devices[4].Name)

	require.NotNil(t, pool0.Scrub)
	assert.Nil(t, pool0.Resilver)
	assert.Equal(t, 25082*time.Second, pool0.Scrub.Duration)
	assert.Equal(t, int64(0), pool0.Scrub.Corrected)
	assert.Equal(t, time.Date(2023, 11, 12, 7, 22, 3, 0, time.UTC), pool0.Scrub.At)

	pool1 := statuses[1]
	assert.Equal(t, "pool1", pool1.Name)
	require.Len(t, pool1.Devices, 4)
	assert.Equal(t,
		[]string{"pool1", "mirror-0", "nvme-Samsung_SSD_980_500GB_S64DNL0T824602E-part1"},
		pool1.Devices[2].Path)

	require.NotNil(t, pool1.Scrub)
	assert.Equal(t, 285*time.Second, pool1.Scrub.Duration)
	assert.Equal(t, int64(1048576), pool1.Scrub.Corrected)
	assert.Equal(t, time.Date(2023, 11, 12, 0, 28, 47, 0, time.UTC), pool1.Scrub.At)
}

func TestParseStatusUnavail(t *testing.T) {
	statuses := ParseStatus(fixture(t, "status_unavail.txt"))
	require.Len(t, statuses, 1)

	tank := statuses[0]
	assert.Equal(t, "tank", tank.Name)
	assert.Equal(t, "UNAVAIL", tank.State)
	assert.Nil(t, tank.Scrub)
	assert.Nil(t, tank.Resilver)

	require.Len(t, tank.Devices, 3)
	assert.Equal(t, "insufficient replicas", tank.Devices[0].Comment)
	assert.Equal(t, DeviceNode{
		Name: "c1t1d0", Path: []string{"tank", "c1t1d0"}, State: "UNAVAIL",
		Read: i64(4), Write: i64(1), Checksum: i64(0), Comment: "cannot open",
	}, tank.Devices[2])
}

func TestParseStatusDegraded(t *testing.T) {
	statuses := ParseStatus(fixture(t, "status_degraded.txt"))
	require.Len(t, statuses, 1)

	tank := statuses[0]
	assert.Equal(t, "DEGRADED", tank.State)
	require.Len(t, tank.Devices, 4)
	assert.Equal(t, []string{"tank", "mirror-0", "c1t0d0"}, tank.Devices[2].Path)
	assert.Equal(t, "UNAVAIL", tank.Devices[3].State)
	assert.Equal(t, "cannot open", tank.Devices[3].Comment)
	assert.Nil(t, tank.Scrub)
}

func TestParseStatusDegradedWithSpares(t *testing.T) {
	statuses := ParseStatus(fixture(t, "status_degraded_sparse.txt"))
	require.Len(t, statuses, 1)

	pool := statuses[0]
	assert.Equal(t, "test", pool.Name)
	assert.Equal(t, "DEGRADED", pool.State)
	require.Len(t, pool.Devices, 13)

	// spare-0 nests its active and faulted members one level deeper.
	assert.Equal(t, []string{"test", "mirror-0", "spare-0"}, pool.Devices[2].Path)
	assert.Equal(t, i64(1), pool.Devices[2].Read)
	assert.Equal(t,
		[]string{"test", "mirror-0", "spare-0", "ata-VBOX_HARDDISK_VBb80f1f56-538e9acf"},
		pool.Devices[3].Path)
	assert.Equal(t, i64(1), pool.Devices[3].Checksum)

	// The faulted member is named by its old path from the "was" comment.
	faulted := pool.Devices[4]
	assert.Equal(t, "pci-0000:00:0d.0-scsi-12:0:0:0-part1", faulted.Name)
	assert.Equal(t, "FAULTED", faulted.State)
	assert.Equal(t, "was /dev/disk/by-path/pci-0000:00:0d.0-scsi-12:0:0:0-part1", faulted.Comment)
	assert.Equal(t,
		[]string{"test", "mirror-0", "spare-0", "pci-0000:00:0d.0-scsi-12:0:0:0-part1"},
		faulted.Path)

	// The sibling after spare-0 returns to mirror-0 depth.
	assert.Equal(t,
		[]string{"test", "mirror-0", "ata-VBOX_HARDDISK_VB875e28a5-4b293298"},
		pool.Devices[5].Path)

	// The spares header itself is dropped; its members remain, flagged,
	// with the header as their path root and no error counters.
	for i, dev := range pool.Devices {
		if i < 9 {
			assert.False(t, dev.IsSpare, "device %d (%s) should not be a spare", i, dev.Name)
			continue
		}
		assert.True(t, dev.IsSpare, "device %d (%s) should be a spare", i, dev.Name)
		assert.Equal(t, []string{"spares", dev.Name}, dev.Path)
		assert.Equal(t, "AVAIL", dev.State)
		assert.Nil(t, dev.Read)
		assert.Nil(t, dev.Write)
		assert.Nil(t, dev.Checksum)
	}
	assert.Equal(t, "pci-0000:00:0d.0-scsi-10:0:0:0", pool.Devices[9].Name)
	assert.Equal(t, "pci-0000:00:0d.0-scsi-13:0:0:0", pool.Devices[12].Name)

	require.NotNil(t, pool.Resilver)
	assert.Nil(t, pool.Scrub)
	assert.Equal(t, time.Duration(0), pool.Resilver.Duration)
	assert.Equal(t, int64(27053261), pool.Resilver.Corrected)
	assert.Equal(t, time.Date(2014, 8, 22, 12, 2, 46, 0, time.UTC), pool.Resilver.At)
}

func TestParseStatusResilvered(t *testing.T) {
	statuses := ParseStatus(fixture(t, "status_resilvered.txt"))
	require.Len(t, statuses, 2)

	rpool := statuses[0]
	assert.Equal(t, "rpool", rpool.Name)
	require.NotNil(t, rpool.Resilver)
	assert.Nil(t, rpool.Scrub)
	assert.Equal(t, time.Duration(0), rpool.Resilver.Duration)
	assert.Equal(t, int64(1478492), rpool.Resilver.Corrected)
	assert.Equal(t, time.Date(2011, 11, 15, 5, 31, 36, 0, time.UTC), rpool.Resilver.At)
	require.Len(t, rpool.Devices, 5)
	assert.Equal(t, []string{"rpool", "mirror-0", "c2t1d0s0"}, rpool.Devices[3].Path)

	zp := statuses[1]
	assert.Equal(t, "zpool", zp.Name)
	assert.Equal(t, "UNAVAIL", zp.State)
	assert.Nil(t, zp.Scrub)
	assert.Nil(t, zp.Resilver)
	require.Len(t, zp.Devices, 5)
	assert.Equal(t, "insufficient replicas", zp.Devices[1].Comment)
}

func TestParseStatusScrub(t *testing.T) {
	statuses := ParseStatus(fixture(t, "status_scrub.txt"))
	require.Len(t, statuses, 2)

	boot := statuses[0]
	assert.Equal(t, "freenas-boot", boot.Name)
	require.Len(t, boot.Devices, 2)
	require.NotNil(t, boot.Scrub)
	assert.Equal(t, 120*time.Second, boot.Scrub.Duration)
	assert.Equal(t, time.Date(2017, 1, 25, 3, 47, 27, 0, time.UTC), boot.Scrub.At)

	vol := statuses[1]
	assert.Equal(t, "nas_zfs_vol0", vol.Name)
	require.Len(t, vol.Devices, 7)
	assert.Equal(t,
		[]string{"nas_zfs_vol0", "mirror-0", "gptid/a855d0c8-5218-11e3-9e38-10604b926998"},
		vol.Devices[2].Path)
	require.NotNil(t, vol.Scrub)
	assert.Equal(t, 25620*time.Second, vol.Scrub.Duration)
	// The completion date is space padded in the source output.
	assert.Equal(t, time.Date(2017, 1, 8, 7, 7, 22, 0, time.UTC), vol.Scrub.At)
}

func TestParseStatusLogs(t *testing.T) {
	statuses := ParseStatus(fixture(t, "status_logs.txt"))
	require.Len(t, statuses, 1)

	zones := statuses[0]
	require.Len(t, zones.Devices, 9)

	// Relocated device is renamed from its "was" comment.
	moved := zones.Devices[2]
	assert.Equal(t, "c0t5000C5006349E003d0s0", moved.Name)
	assert.Equal(t, []string{"zones", "mirror-0", "c0t5000C5006349E003d0s0"}, moved.Path)
	assert.Equal(t, "was /dev/dsk/c0t5000C5006349E003d0s0", moved.Comment)

	// The logs group header has no state and roots its own subtree.
	logs := zones.Devices[7]
	assert.Equal(t, DeviceNode{Name: "logs", Path: []string{"logs"}}, logs)
	assert.Equal(t, []string{"logs", "c0t55CD2E404B73663Dd0"}, zones.Devices[8].Path)

	require.NotNil(t, zones.Scrub)
	assert.Equal(t, 106620*time.Second, zones.Scrub.Duration)
	assert.Equal(t, int64(0), zones.Scrub.Corrected)
}

func TestParseStatusPathDepthInvariant(t *testing.T) {
	for _, name := range []string{
		"status_complex.txt", "status_unavail.txt", "status_degraded.txt",
		"status_resilvered.txt", "status_scrub.txt",
	} {
		for _, status := range ParseStatus(fixture(t, name)) {
			require.NotEmpty(t, status.Devices, name)
			assert.Len(t, status.Devices[0].Path, 1, name)
			for _, dev := range status.Devices {
				assert.Equal(t, dev.Name, dev.Path[len(dev.Path)-1], name)
			}
		}
	}
}

func TestParseStatusEmpty(t *testing.T) {
	assert.Empty(t, ParseStatus(""))
	assert.Empty(t, ParseStatus("\n\n"))
}

func TestParseStatusGarbage(t *testing.T) {
	// Marker lines without a config section are dropped entirely.
	assert.Empty(t, ParseStatus("pool: foo\npool: bar"))
	assert.Empty(t, ParseStatus("no markers here at all"))
}

func TestParseStatusHeaderOnlyConfig(t *testing.T) {
	input := "  pool: tank\n state: ONLINE\nconfig:\n\n\tNAME        STATE     READ WRITE CKSUM\n"
	assert.Empty(t, ParseStatus(input))
}

func TestParseStatusRootOnlyConfig(t *testing.T) {
	input := "  pool: tank\n state: ONLINE\nconfig:\n\n" +
		"\tNAME        STATE     READ WRITE CKSUM\n" +
		"\ttank        ONLINE       0     0     0\n"
	statuses := ParseStatus(input)
	require.Len(t, statuses, 1)
	require.Len(t, statuses[0].Devices, 1)
	assert.Equal(t, []string{"tank"}, statuses[0].Devices[0].Path)
}

func TestParseStatusBadScanLineKeepsDevices(t *testing.T) {
	input := "  pool: tank\n state: ONLINE\n" +
		"  scan: scrub repaired 5Q in 0h2m with 0 errors on Wed Jan 25 03:47:27 2017\n" +
		"config:\n\n" +
		"\tNAME        STATE     READ WRITE CKSUM\n" +
		"\ttank        ONLINE       0     0     0\n"
	statuses := ParseStatus(input)
	require.Len(t, statuses, 1)
	assert.Len(t, statuses[0].Devices, 1)
	assert.Nil(t, statuses[0].Scrub)
	assert.Nil(t, statuses[0].Resilver)
}

func TestSplitBlocks(t *testing.T) {
	blocks := splitBlocks("junk preamble\n  pool: a\n state: ONLINE\n  pool: b\n state: ONLINE\n")
	require.Len(t, blocks, 2)
	assert.True(t, isPoolMarker("  pool: a"))
	assert.False(t, isPoolMarker("  pool:"))
	assert.False(t, isPoolMarker("pooling: a"))
}

func TestExtractFields(t *testing.T) {
	fields := extractFields("  pool: tank\n state: ONLINE\nconfig:\n\n\tline one\n\tline two\nerrors: none\n")
	assert.Equal(t, "tank", fields["pool"])
	assert.Equal(t, "ONLINE", fields["state"])
	assert.Equal(t, "line one\n\tline two", fields["config"])
	assert.Equal(t, "none", fields["errors"])
}

func TestCutKeyLineRejectsDeviceNames(t *testing.T) {
	_, _, ok := cutKeyLine("\t    pci-0000:00:0d.0-scsi-12:0:0:0    AVAIL")
	assert.False(t, ok)

	key, rest, ok := cutKeyLine("  scan: scrub repaired")
	require.True(t, ok)
	assert.Equal(t, "scan", key)
	assert.Equal(t, " scrub repaired", rest)
}
