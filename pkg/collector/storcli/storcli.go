// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storcli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NVIDIA/textfile-collector/pkg/runner"
)

const (
	metricPrefix = "megaraid_"

	driverMegaRAID = "megaraid_sas"
	driverSAS      = "mpt3sas"

	controllerTimeLayout = "01/02/2006, 15:04:05"
	learnTimeLayout      = "2006/01/02 15:04:05"
)

// Options configure the storcli collector.
type Options struct {
	// Path is the storcli binary location.
	Path string

	// DetailedBBU enables the extended battery and cachevault gauges.
	DetailedBBU bool
}

// Collector gathers MegaRAID controller, virtual drive, physical drive,
// and battery health through the storcli utility.
type Collector struct {
	opts   Options
	runner *runner.Runner
}

// New creates a storcli collector.
func New(opts Options) *Collector {
	return &Collector{opts: opts, runner: runner.New()}
}

func (c *Collector) Name() string { return "storcli" }

// metricSet registers megaraid_ gauges lazily so only sections present
// on this hardware generation appear in the output.
type metricSet struct {
	reg  *prometheus.Registry
	vecs map[string]*prometheus.GaugeVec
}

func newMetricSet(reg *prometheus.Registry) *metricSet {
	return &metricSet{reg: reg, vecs: make(map[string]*prometheus.GaugeVec)}
}

// set records a sample, creating the gauge on first use. Every call
// site for a given name must pass the same label keys.
func (m *metricSet) set(name string, value float64, labels prometheus.Labels, names ...string) {
	vec, ok := m.vecs[name]
	if !ok {
		vec = prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: metricPrefix + name,
			Help: "MegaRAID " + strings.ReplaceAll(name, "_", " "),
		}, names)
		m.reg.MustRegister(vec)
		m.vecs[name] = vec
	}
	vec.With(labels).Set(value)
}

func (c *Collector) Collect(ctx context.Context, reg *prometheus.Registry) error {
	bin, err := runner.Find("storcli64", c.opts.Path, "/opt/MegaRAID/storcli/storcli64")
	if err != nil {
		return err
	}

	m := newMetricSet(reg)

	var all report
	if err := c.query(ctx, bin, &all, "/cALL", "show", "all", "J"); err != nil {
		return err
	}

	for _, ctrl := range all.Controllers {
		if ctrl.CommandStatus.Status != "Success" {
			continue
		}
		var data controllerData
		if err := json.Unmarshal(ctrl.ResponseData, &data); err != nil {
			slog.Warn("skipping unparsable controller data",
				slog.Int("controller", ctrl.CommandStatus.Controller),
				slog.Any("error", err))
			continue
		}

		c.handleCommon(m, &data)
		switch data.Version.DriverName {
		case driverMegaRAID:
			c.handleMegaRAID(ctx, bin, m, &data)
		case driverSAS:
			c.handleSAS(m, &data)
		}
	}

	// Battery subcommands fail cleanly on controllers without a cv or
	// bbu module; each section is independent.
	c.collectTables(ctx, bin, "cv", m, c.handleCacheVault)
	c.collectTables(ctx, bin, "bbu", m, c.handleBBU)

	return nil
}

func (c *Collector) query(ctx context.Context, bin string, v any, args ...string) error {
	out, err := c.runner.OutputIgnoreExit(ctx, bin, args...)
	if err != nil {
		return err
	}
	return json.Unmarshal(out, v)
}

func (c *Collector) collectTables(ctx context.Context, bin, section string, m *metricSet,
	handle func(*metricSet, int, propertyTables)) {
	var rep report
	if err := c.query(ctx, bin, &rep, "/cALL/"+section, "show", "all", "J"); err != nil {
		slog.Debug("battery section not available",
			slog.String("section", section),
			slog.Any("error", err))
		return
	}

	for _, ctrl := range rep.Controllers {
		if ctrl.CommandStatus.Status != "Success" {
			continue
		}
		var tables propertyTables
		if err := json.Unmarshal(ctrl.ResponseData, &tables); err != nil {
			continue
		}
		handle(m, ctrl.CommandStatus.Controller, tables)
	}
}

func (c *Collector) handleCommon(m *metricSet, data *controllerData) {
	idx := data.Basics.Controller
	base := controllerLabels(idx)

	m.set("controller_info", 1, prometheus.Labels{
		"controller": strconv.Itoa(idx),
		"model":      strings.TrimSpace(data.Basics.Model),
		"serial":     strings.TrimSpace(data.Basics.SerialNumber),
		"fwversion":  strings.TrimSpace(data.Version.FirmwareVersion),
	}, "controller", "model", "serial", "fwversion")

	// Older firmware misspells Celsius.
	for _, key := range []string{"ROC temperature(Degree Celsius)", "ROC temperature(Degree Celcius)"} {
		if v, ok := rawFloat(data.HwCfg[key]); ok {
			m.set("temperature", v, base, "controller")
			break
		}
	}
}

func (c *Collector) handleMegaRAID(ctx context.Context, bin string, m *metricSet, data *controllerData) {
	idx := data.Basics.Controller
	base := controllerLabels(idx)

	if v, ok := rawFloat(data.Status["BBU Status"]); ok {
		m.set("bbu_status", v, base, "controller")
	}

	status := rawString(data.Status["Controller Status"])
	m.set("degraded", boolValue(status == "Degraded"), base, "controller")
	m.set("failed", boolValue(status == "Failed"), base, "controller")
	m.set("healthy", boolValue(status == "Optimal"), base, "controller")

	if v, ok := rawFloat(data.HwCfg["Backend Port Count"]); ok {
		m.set("ports", v, base, "controller")
	}
	m.set("scheduled_patrol_read",
		boolValue(strings.Contains(data.ScheduledTasks.PatrolReadReoccurrence, "hrs")),
		base, "controller")

	if diff, ok := clockDifference(data.Basics.SystemTime, data.Basics.ControllerTime); ok {
		m.set("time_difference", diff, base, "controller")
	}

	// JBOD setups have no drive groups at all.
	if data.DriveGroups != nil {
		m.set("drive_groups", float64(*data.DriveGroups), base, "controller")
		m.set("virtual_drives", float64(data.VirtualDrives), base, "controller")

		for _, vd := range data.VDList {
			dg, vg := "-1", "-1"
			if before, after, ok := strings.Cut(vd.Position, "/"); ok {
				dg, vg = before, after
			}
			m.set("vd_info", 1, prometheus.Labels{
				"controller": strconv.Itoa(idx),
				"DG":         dg,
				"VG":         vg,
				"name":       strings.TrimSpace(vd.Name),
				"cache":      strings.TrimSpace(vd.Cache),
				"type":       strings.TrimSpace(vd.Type),
				"state":      rawString(vd.State),
			}, "controller", "DG", "VG", "name", "cache", "type", "state")
		}
	}

	m.set("physical_drives", float64(data.PhysicalDrives), base, "controller")

	detailed := c.drivesDetail(ctx, bin, idx)
	for _, pd := range data.PDList {
		c.physicalDrive(m, idx, pd, detailed)
	}
}

func (c *Collector) handleSAS(m *metricSet, data *controllerData) {
	idx := data.Basics.Controller
	base := controllerLabels(idx)

	status := rawString(data.Status["Controller Status"])
	m.set("healthy", boolValue(status == "OK"), base, "controller")
	if v, ok := rawFloat(data.HwCfg["Backend Port Count"]); ok {
		m.set("ports", v, base, "controller")
	}

	// Every drive is listed twice: basic info and detailed info.
	m.set("physical_drives", float64(len(data.PhysicalDeviceInformation)/2), base, "controller")

	for key, raw := range data.PhysicalDeviceInformation {
		if strings.Contains(key, "Detailed Information") {
			continue
		}
		var basic []pdEntry
		if err := json.Unmarshal(raw, &basic); err != nil || len(basic) == 0 {
			continue
		}
		c.physicalDrive(m, idx, basic[0], data.PhysicalDeviceInformation)
	}
}

// drivesDetail fetches per-drive detail maps for one controller.
func (c *Collector) drivesDetail(ctx context.Context, bin string, controller int) map[string]json.RawMessage {
	var rep report
	if err := c.query(ctx, bin, &rep, "/cALL/eALL/sALL", "show", "all", "J"); err != nil {
		return nil
	}
	for _, ctrl := range rep.Controllers {
		if ctrl.CommandStatus.Controller != controller || ctrl.CommandStatus.Status != "Success" {
			continue
		}
		var detail map[string]json.RawMessage
		if err := json.Unmarshal(ctrl.ResponseData, &detail); err == nil {
			return detail
		}
	}
	return nil
}

func (c *Collector) physicalDrive(m *metricSet, controller int, pd pdEntry, detailed map[string]json.RawMessage) {
	enclosure, slot, _ := strings.Cut(pd.EIDSlt, ":")

	base := prometheus.Labels{
		"controller": strconv.Itoa(controller),
		"enclosure":  enclosure,
		"slot":       slot,
	}
	baseNames := []string{"controller", "enclosure", "slot"}

	id := fmt.Sprintf("Drive /c%d/e%s/s%s", controller, enclosure, slot)
	if enclosure == " " {
		id = fmt.Sprintf("Drive /c%d/s%s", controller, slot)
	}

	firmware, serial := "", ""
	if info := subObject(detailed, id+" - Detailed Information"); info != nil {
		state := subObject(info, id+" State")
		attributes := subObject(info, id+" Device attributes")
		settings := subObject(info, id+" Policies/Settings")

		if v, ok := rawFloat(state["Shield Counter"]); ok {
			m.set("pd_shield_counter", v, base, baseNames...)
		}
		if v, ok := rawFloat(state["Media Error Count"]); ok {
			m.set("pd_media_errors", v, base, baseNames...)
		}
		if v, ok := rawFloat(state["Other Error Count"]); ok {
			m.set("pd_other_errors", v, base, baseNames...)
		}
		if v, ok := rawFloat(state["Predictive Failure Count"]); ok {
			m.set("pd_predictive_errors", v, base, baseNames...)
		}
		m.set("pd_smart_alerted",
			boolValue(rawString(state["S.M.A.R.T alert flagged by drive"]) == "Yes"),
			base, baseNames...)

		if v, ok := linkSpeed(rawString(attributes["Link Speed"])); ok {
			m.set("pd_link_speed_gbps", v, base, baseNames...)
		}
		if v, ok := linkSpeed(rawString(attributes["Device Speed"])); ok {
			m.set("pd_device_speed_gbps", v, base, baseNames...)
		}

		m.set("pd_commissioned_spare",
			boolValue(rawString(settings["Commissioned Spare"]) == "Yes"),
			base, baseNames...)
		m.set("pd_emergency_spare",
			boolValue(rawString(settings["Emergency Spare"]) == "Yes"),
			base, baseNames...)

		firmware = strings.TrimSpace(rawString(attributes["Firmware Revision"]))
		serial = strings.TrimSpace(rawString(attributes["SN"]))
	}

	m.set("pd_info", 1, prometheus.Labels{
		"controller": strconv.Itoa(controller),
		"enclosure":  enclosure,
		"slot":       slot,
		"disk_id":    rawString(pd.DID),
		"interface":  strings.TrimSpace(pd.Intf),
		"media":      strings.TrimSpace(pd.Med),
		"model":      strings.TrimSpace(pd.Model),
		"DG":         rawString(pd.DG),
		"state":      strings.TrimSpace(rawString(pd.State)),
		"firmware":   firmware,
		"serial":     serial,
	}, "controller", "enclosure", "slot", "disk_id", "interface", "media", "model", "DG", "state", "firmware", "serial")
}

func (c *Collector) handleCacheVault(m *metricSet, controller int, tables propertyTables) {
	base := controllerLabels(controller)

	m.set("cv_info", 1, prometheus.Labels{
		"controller":        strconv.Itoa(controller),
		"type":              tables.search("Cachevault_Info", "Type"),
		"manufactured_date": tables.search("Design_Info", "Date of Manufacture"),
		"serial":            tables.search("Design_Info", "Serial Number"),
		"manufacturer":      tables.search("Design_Info", "Manufacture Name"),
		"capacity":          tables.search("Design_Info", "Design Capacity"),
		"module_version":    tables.search("Design_Info", "Module Version"),
	}, "controller", "type", "manufactured_date", "serial", "manufacturer", "capacity", "module_version")

	state := tables.search("Cachevault_Info", "State")
	stateLabels := prometheus.Labels{"controller": strconv.Itoa(controller), "state": state}
	m.set("cv_state_optimal", boolValue(state == "Optimal"), stateLabels, "controller", "state")
	m.set("battery_backup_healthy", boolValue(state == "Optimal"), stateLabels, "controller", "state")

	if amount, units, ok := amountUnits(tables.search("Cachevault_Info", "Temperature")); ok {
		if v, err := strconv.ParseFloat(amount, 64); err == nil {
			m.set("cv_temperature", v, unitLabels(controller, units), "controller", "units")
		}
	}

	if !c.opts.DetailedBBU {
		return
	}

	if flash := tables.search("Design_Info", "CacheVault Flash Size"); flash != "N/A" {
		if amount, units, ok := amountUnits(flash); ok {
			if v, ok := megabytes(amount, units); ok {
				m.set("cv_info_flash_size", v, unitLabels(controller, units), "controller", "units")
			}
		}
	}

	m.set("cv_firmware_replacement_required",
		boolValue(tables.search("Firmware_Status", "Replacement required") != "No"),
		base, "controller")
	m.set("cv_firmware_no_offload_space",
		boolValue(tables.search("Firmware_Status", "No space to cache offload") != "No"),
		base, "controller")
	m.set("cv_firmware_microcode_update_required",
		boolValue(tables.search("Firmware_Status", "Module microcode update required") != "No"),
		base, "controller")

	if amount, units, ok := amountUnits(tables.search("GasGaugeStatus", "Pack Energy")); ok {
		if v, err := strconv.ParseFloat(amount, 64); err == nil {
			m.set("cv_gas_pack_energy", v, unitLabels(controller, units), "controller", "units")
		}
	}
	if amount, units, ok := amountUnits(tables.search("GasGaugeStatus", "Capacitance")); ok {
		if v, err := strconv.ParseFloat(amount, 64); err == nil {
			m.set("cv_gas_capacitance", v, unitLabels(controller, units), "controller", "units")
		}
	}
	if v, err := strconv.ParseFloat(tables.search("GasGaugeStatus", "Remaining Reserve Space"), 64); err == nil {
		m.set("cv_gas_remaining_reserved_space", v, base, "controller")
	}

	if ts, ok := learnTimestamp(tables.search("Properties", "Next Learn time")); ok {
		m.set("cv_next_learn_timestamp", ts, base, "controller")
	}
}

func (c *Collector) handleBBU(m *metricSet, controller int, tables propertyTables) {
	base := controllerLabels(controller)

	state := tables.search("BBU_Info", "Battery State")
	stateLabels := prometheus.Labels{"controller": strconv.Itoa(controller), "state": state}
	m.set("bbu_state_optimal", boolValue(state == "Optimal"), stateLabels, "controller", "state")
	m.set("battery_backup_healthy", boolValue(state == "Optimal"), stateLabels, "controller", "state")

	if amount, units, ok := amountUnits(tables.search("BBU_Info", "Temperature")); ok {
		if v, err := strconv.ParseFloat(amount, 64); err == nil {
			m.set("bbu_temperature", v, unitLabels(controller, units), "controller", "units")
		}
	}

	m.set("bbu_info", 1, prometheus.Labels{
		"controller":        strconv.Itoa(controller),
		"type":              tables.search("BBU_Info", "Type"),
		"manufactured_date": tables.search("BBU_Design_Info", "Date of Manufacture"),
		"serial":            tables.search("BBU_Design_Info", "Serial Number"),
		"manufacturer":      tables.search("BBU_Design_Info", "Manufacture Name"),
		"capacity":          tables.search("BBU_Design_Info", "Design Capacity"),
		"voltage":           tables.search("BBU_Design_Info", "Design Voltage"),
		"chemistry":         tables.search("BBU_Design_Info", "Device Chemistry"),
	}, "controller", "type", "manufactured_date", "serial", "manufacturer", "capacity", "voltage", "chemistry")

	if !c.opts.DetailedBBU {
		return
	}

	for name, property := range map[string]string{
		"bbu_voltage": "Voltage",
		"bbu_current": "Current",
	} {
		if amount, units, ok := amountUnits(tables.search("BBU_Info", property)); ok {
			if v, err := strconv.ParseFloat(amount, 64); err == nil {
				m.set(name, v, unitLabels(controller, units), "controller", "units")
			}
		}
	}

	for name, property := range map[string]string{
		"bbu_capacity_remaining":         "Remaining Capacity",
		"bbu_capacity_full_charge":       "Full Charge Capacity",
		"bbu_capacity_avg_time_to_empty": "Average time to empty",
	} {
		if amount, units, ok := amountUnits(tables.search("BBU_Capacity_Info", property)); ok {
			if v, err := strconv.ParseFloat(amount, 64); err == nil {
				m.set(name, v, unitLabels(controller, units), "controller", "units")
			}
		}
	}

	if v, err := strconv.ParseFloat(strings.TrimSuffix(
		tables.search("BBU_Capacity_Info", "Relative State of Charge"), "%"), 64); err == nil {
		m.set("bbu_capacity_relative_charge_pct", v, base, "controller")
	}
	if v, err := strconv.ParseFloat(strings.TrimSuffix(
		tables.search("BBU_Capacity_Info", "Absolute State of charge"), "%"), 64); err == nil {
		m.set("bbu_capacity_absolute_charge_pct", v, base, "controller")
	}

	if ts, ok := learnTimestamp(tables.search("BBU_Properties", "Next Learn time")); ok {
		m.set("bbu_next_learn_timestamp", ts, base, "controller")
	}

	mode := tables.search("BBU_Properties", "Auto-Learn Mode")
	m.set("bbu_auto_learn_mode_code", float64(learnModeCode(mode)),
		prometheus.Labels{"controller": strconv.Itoa(controller), "mode": mode},
		"controller", "mode")
}

func controllerLabels(controller int) prometheus.Labels {
	return prometheus.Labels{"controller": strconv.Itoa(controller)}
}

func unitLabels(controller int, units string) prometheus.Labels {
	return prometheus.Labels{"controller": strconv.Itoa(controller), "units": units}
}

func subObject(parent map[string]json.RawMessage, key string) map[string]json.RawMessage {
	raw, ok := parent[key]
	if !ok {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil
	}
	return obj
}

// linkSpeed extracts the numeric part of "6.0Gb/s" style values.
func linkSpeed(value string) (float64, bool) {
	before, _, _ := strings.Cut(value, ".")
	v, err := strconv.ParseFloat(before, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// clockDifference compares the host and controller clocks, in seconds.
func clockDifference(system, controller string) (float64, bool) {
	st, err1 := time.Parse(controllerTimeLayout, system)
	ct, err2 := time.Parse(controllerTimeLayout, controller)
	if err1 != nil || err2 != nil {
		return 0, false
	}
	diff := st.Sub(ct)
	if diff < 0 {
		diff = -diff
	}
	return diff.Seconds(), true
}

// learnTimestamp parses "2019/12/03  09:00:00" style next-learn values
// to a Unix timestamp in local time.
func learnTimestamp(value string) (float64, bool) {
	fields := strings.Fields(value)
	if len(fields) < 2 {
		return 0, false
	}
	t, err := time.ParseInLocation(learnTimeLayout, fields[0]+" "+fields[1], time.Local)
	if err != nil {
		return 0, false
	}
	return float64(t.Unix()), true
}

func learnModeCode(mode string) int {
	switch mode {
	case "Enabled":
		return 1
	case "Transparent":
		return 2
	default:
		return 0
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
