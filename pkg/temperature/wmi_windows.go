//go:build windows

// Vapor
// Copyright (c) 2026 The Vapor Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Vapor.
//
// Vapor is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Vapor is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Vapor.  If not, see <http://www.gnu.org/licenses/>.

package temperature

import (
	"context"
	"fmt"
	"strings"

	"github.com/yusufpapurcu/wmi"
)

const (
	lhmNamespace = `root\LibreHardwareMonitor`
	ohmNamespace = `root\OpenHardwareMonitor`
)

// hardwareSensor mirrors the Sensor WMI class that LibreHardwareMonitor
// and OpenHardwareMonitor publish while running.
type hardwareSensor struct {
	Name       string
	SensorType string
	Value      float32
}

// monitorProvider reads temperature sensors from a hardware monitor app's
// WMI namespace. The namespace only exists while the app runs, so a failed
// query means the source is unavailable, not broken.
type monitorProvider struct {
	name      string
	namespace string
	match     string
}

func newMonitorProvider(name, namespace, match string) *monitorProvider {
	return &monitorProvider{name: name, namespace: namespace, match: match}
}

func (p *monitorProvider) Name() string {
	return p.name
}

func (p *monitorProvider) Temperature(_ context.Context) (float64, error) {
	var sensors []hardwareSensor
	query := "SELECT Name, SensorType, Value FROM Sensor WHERE SensorType = 'Temperature'"
	if err := wmi.QueryNamespace(query, &sensors, p.namespace); err != nil {
		return 0, fmt.Errorf("%s query failed (%v): %w", p.name, err, ErrUnavailable)
	}

	// A CPU publishes one sensor per core plus a package sensor; take the
	// hottest of whatever matches.
	var hottest float64
	found := false
	for _, sensor := range sensors {
		if !strings.Contains(strings.ToLower(sensor.Name), p.match) {
			continue
		}
		value := float64(sensor.Value)
		if value <= 0 {
			continue
		}
		if !found || value > hottest {
			hottest = value
			found = true
		}
	}
	if !found {
		return 0, fmt.Errorf("%s has no matching temperature sensor: %w", p.name, ErrUnavailable)
	}
	return hottest, nil
}

// msAcpiThermalZone mirrors MSAcpi_ThermalZoneTemperature from root\wmi.
// CurrentTemperature is tenths of a kelvin.
type msAcpiThermalZone struct {
	InstanceName       string
	CurrentTemperature uint32
}

// msAcpiProvider reads the firmware ACPI thermal zone. It needs nothing
// installed but many boards report a constant or a single chipset sensor,
// so it is the last CPU fallback.
type msAcpiProvider struct{}

func (msAcpiProvider) Name() string {
	return "msacpi-thermal-zone"
}

func (msAcpiProvider) Temperature(_ context.Context) (float64, error) {
	var zones []msAcpiThermalZone
	query := "SELECT InstanceName, CurrentTemperature FROM MSAcpi_ThermalZoneTemperature"
	if err := wmi.QueryNamespace(query, &zones, `root\wmi`); err != nil {
		return 0, fmt.Errorf("thermal zone query failed (%v): %w", err, ErrUnavailable)
	}

	var hottest float64
	found := false
	for _, zone := range zones {
		celsius := (float64(zone.CurrentTemperature) - 2732) / 10
		// Discard the bogus constants broken firmware reports.
		if celsius <= 0 || celsius >= 150 {
			continue
		}
		if !found || celsius > hottest {
			hottest = celsius
			found = true
		}
	}
	if !found {
		return 0, fmt.Errorf("no plausible thermal zone reading: %w", ErrUnavailable)
	}
	return hottest, nil
}
