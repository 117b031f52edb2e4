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

package config

import (
	"path/filepath"
	"time"
)

// Temperature configures hardware temperature sampling during a session.
// Thresholds are degrees Celsius.
type Temperature struct {
	AlertSound         *string `toml:"alert_sound,omitempty"`
	SampleInterval     int     `toml:"sample_interval_seconds,omitempty" validate:"min=1,max=300"`
	CPUWarning         int     `toml:"cpu_warning" validate:"min=0,max=120"`
	CPUCritical        int     `toml:"cpu_critical" validate:"min=0,max=120,gtefield=CPUWarning"`
	GPUWarning         int     `toml:"gpu_warning" validate:"min=0,max=120"`
	GPUCritical        int     `toml:"gpu_critical" validate:"min=0,max=120,gtefield=GPUWarning"`
	Enabled            bool    `toml:"enabled"`
	RespectFocusAssist bool    `toml:"respect_focus_assist"`
}

func (c *Instance) TempMonitorEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Temperature.Enabled
}

func (c *Instance) SetTempMonitorEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Temperature.Enabled = enabled
}

// TempSampleInterval returns the interval between temperature samples while
// a session is active.
func (c *Instance) TempSampleInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Temperature.SampleInterval < 1 {
		return 10 * time.Second
	}
	return time.Duration(c.vals.Temperature.SampleInterval) * time.Second
}

func (c *Instance) SetTempSampleInterval(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Temperature.SampleInterval = seconds
}

// CPUTempThresholds returns the warning and critical CPU temperatures.
func (c *Instance) CPUTempThresholds() (warning, critical int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Temperature.CPUWarning, c.vals.Temperature.CPUCritical
}

func (c *Instance) SetCPUTempThresholds(warning, critical int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Temperature.CPUWarning = warning
	c.vals.Temperature.CPUCritical = critical
}

// GPUTempThresholds returns the warning and critical GPU temperatures.
func (c *Instance) GPUTempThresholds() (warning, critical int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Temperature.GPUWarning, c.vals.Temperature.GPUCritical
}

func (c *Instance) SetGPUTempThresholds(warning, critical int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Temperature.GPUWarning = warning
	c.vals.Temperature.GPUCritical = critical
}

// RespectFocusAssist reports whether temperature alerts should stay silent
// while Windows Focus Assist is suppressing notifications.
func (c *Instance) RespectFocusAssist() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Temperature.RespectFocusAssist
}

func (c *Instance) SetRespectFocusAssist(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Temperature.RespectFocusAssist = enabled
}

// AlertSoundPath returns the resolved path to the alert sound file and
// whether the alert chime is enabled. Returns ("", true) if nil (use the
// built-in chime), ("", false) if disabled (empty string), or
// (resolved_path, true) if a custom path is configured. Relative paths are
// resolved against dataDir.
func (c *Instance) AlertSoundPath(dataDir string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// nil = use built-in chime
	if c.vals.Temperature.AlertSound == nil {
		return "", true
	}

	// empty string = disabled
	if *c.vals.Temperature.AlertSound == "" {
		return "", false
	}

	path := *c.vals.Temperature.AlertSound

	// absolute path = use as-is
	if filepath.IsAbs(path) {
		return path, true
	}

	return filepath.Join(dataDir, path), true
}

func (c *Instance) SetAlertSound(path *string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Temperature.AlertSound = path
}
