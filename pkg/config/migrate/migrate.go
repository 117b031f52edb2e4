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

// Package migrate converts settings files from older Vapor releases into
// the current config format.
package migrate

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/VaporProject/vapor/pkg/config"
	"github.com/go-viper/mapstructure/v2"
)

// legacySettings mirrors the flat JSON settings file written by Vapor 1.x.
// Every field is a pointer so keys absent from the file keep their current
// defaults instead of being zeroed.
type legacySettings struct {
	CloseNotificationApps *bool     `mapstructure:"close_notification_apps"`
	CloseResourceApps     *bool     `mapstructure:"close_resource_apps"`
	RelaunchApps          *bool     `mapstructure:"relaunch_apps"`
	ManageSystemAudio     *bool     `mapstructure:"manage_system_audio"`
	ManageGameAudio       *bool     `mapstructure:"manage_game_audio"`
	EnableGameMode        *bool     `mapstructure:"enable_game_mode"`
	TempMonitorEnabled    *bool     `mapstructure:"temp_monitor_enabled"`
	StartWithWindows      *bool     `mapstructure:"start_with_windows"`
	EnableTelemetry       *bool     `mapstructure:"enable_telemetry"`
	SystemAudioLevel      *int      `mapstructure:"system_audio_level"`
	GameAudioLevel        *int      `mapstructure:"game_audio_level"`
	PollInterval          *int      `mapstructure:"poll_interval"`
	TempPollInterval      *int      `mapstructure:"temp_poll_interval"`
	CPUTempWarning        *int      `mapstructure:"cpu_temp_warning"`
	CPUTempCritical       *int      `mapstructure:"cpu_temp_critical"`
	GPUTempWarning        *int      `mapstructure:"gpu_temp_warning"`
	GPUTempCritical       *int      `mapstructure:"gpu_temp_critical"`
	DuringPowerPlan       *string   `mapstructure:"during_power_plan"`
	AfterPowerPlan        *string   `mapstructure:"after_power_plan"`
	SteamInstallDir       *string   `mapstructure:"steam_install_dir"`
	TempAlertSound        *string   `mapstructure:"temp_alert_sound"`
	CloseAppsHotkey       *string   `mapstructure:"close_apps_hotkey"`
	NotificationProcesses *[]string `mapstructure:"notification_processes"`
	ResourceProcesses     *[]string `mapstructure:"resource_processes"`
}

// JSONToToml reads a legacy vapor_settings.json file and converts it to
// config values, starting from the base defaults so missing keys keep their
// current default behavior. Unknown keys in the file are ignored.
func JSONToToml(jsonPath string) (config.Values, error) {
	vals := config.BaseDefaults

	data, err := os.ReadFile(jsonPath) //nolint:gosec // path comes from our own config dir
	if err != nil {
		return vals, fmt.Errorf("failed to read legacy settings: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return vals, fmt.Errorf("failed to parse legacy settings: %w", err)
	}

	var legacy legacySettings
	// Legacy files were written by hand in places, so numbers may appear as
	// strings and booleans as 0/1. Weak typing absorbs those.
	decoderConfig := &mapstructure.DecoderConfig{
		Result:           &legacy,
		WeaklyTypedInput: true,
	}

	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return vals, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(raw); err != nil {
		return vals, fmt.Errorf("failed to decode legacy settings: %w", err)
	}

	applyLegacy(&vals, &legacy)
	return vals, nil
}

//nolint:gocyclo,cyclop // straight field-by-field mapping
func applyLegacy(vals *config.Values, legacy *legacySettings) {
	if legacy.NotificationProcesses != nil {
		vals.Apps.NotificationProcesses = *legacy.NotificationProcesses
	}
	if legacy.ResourceProcesses != nil {
		vals.Apps.ResourceProcesses = *legacy.ResourceProcesses
	}
	if legacy.CloseNotificationApps != nil {
		vals.Apps.CloseNotificationApps = *legacy.CloseNotificationApps
	}
	if legacy.CloseResourceApps != nil {
		vals.Apps.CloseResourceApps = *legacy.CloseResourceApps
	}
	if legacy.RelaunchApps != nil {
		vals.Apps.RelaunchAfterSession = *legacy.RelaunchApps
	}
	if legacy.ManageSystemAudio != nil {
		vals.Volume.ManageSystemVolume = *legacy.ManageSystemAudio
	}
	if legacy.SystemAudioLevel != nil {
		vals.Volume.SystemLevel = *legacy.SystemAudioLevel
	}
	if legacy.ManageGameAudio != nil {
		vals.Volume.ManageGameVolume = *legacy.ManageGameAudio
	}
	if legacy.GameAudioLevel != nil {
		vals.Volume.GameLevel = *legacy.GameAudioLevel
	}
	if legacy.DuringPowerPlan != nil {
		vals.Power.DuringSession = *legacy.DuringPowerPlan
	}
	if legacy.AfterPowerPlan != nil {
		vals.Power.AfterSession = *legacy.AfterPowerPlan
	}
	if legacy.EnableGameMode != nil {
		vals.GameMode.Enabled = *legacy.EnableGameMode
	}
	if legacy.PollInterval != nil {
		vals.Monitor.PollInterval = *legacy.PollInterval
	}
	if legacy.SteamInstallDir != nil {
		vals.Monitor.SteamInstallDir = *legacy.SteamInstallDir
	}
	if legacy.TempMonitorEnabled != nil {
		vals.Temperature.Enabled = *legacy.TempMonitorEnabled
	}
	if legacy.TempPollInterval != nil {
		vals.Temperature.SampleInterval = *legacy.TempPollInterval
	}
	if legacy.CPUTempWarning != nil {
		vals.Temperature.CPUWarning = *legacy.CPUTempWarning
	}
	if legacy.CPUTempCritical != nil {
		vals.Temperature.CPUCritical = *legacy.CPUTempCritical
	}
	if legacy.GPUTempWarning != nil {
		vals.Temperature.GPUWarning = *legacy.GPUTempWarning
	}
	if legacy.GPUTempCritical != nil {
		vals.Temperature.GPUCritical = *legacy.GPUTempCritical
	}
	if legacy.TempAlertSound != nil && *legacy.TempAlertSound != "" {
		// Legacy empty string meant the stock chime, which is the nil
		// default in the new format. Only custom paths carry over.
		vals.Temperature.AlertSound = legacy.TempAlertSound
	}
	if legacy.CloseAppsHotkey != nil {
		vals.Hotkey.CloseApps = *legacy.CloseAppsHotkey
	}
	if legacy.StartWithWindows != nil {
		vals.Service.StartWithWindows = *legacy.StartWithWindows
	}
	if legacy.EnableTelemetry != nil {
		vals.Service.ErrorReporting = *legacy.EnableTelemetry
	}
}

// Required reports whether a legacy settings file exists at jsonPath and no
// converted config exists yet at cfgPath.
func Required(jsonPath, cfgPath string) bool {
	if _, err := os.Stat(cfgPath); err == nil {
		return false
	}
	_, err := os.Stat(jsonPath)
	return err == nil
}
