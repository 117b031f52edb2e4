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

package migrate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/VaporProject/vapor/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONToToml_Volume(t *testing.T) {
	t.Parallel()

	t.Run("custom levels are migrated", func(t *testing.T) {
		t.Parallel()

		jsonContent := `{
	"system_audio_level": 20,
	"game_audio_level": 80,
	"manage_system_audio": false
}`
		jsonPath := filepath.Join(t.TempDir(), "vapor_settings.json")
		err := os.WriteFile(jsonPath, []byte(jsonContent), 0o600)
		require.NoError(t, err)

		vals, err := JSONToToml(jsonPath)

		require.NoError(t, err)
		assert.Equal(t, 20, vals.Volume.SystemLevel)
		assert.Equal(t, 80, vals.Volume.GameLevel)
		assert.False(t, vals.Volume.ManageSystemVolume)
		assert.True(t, vals.Volume.ManageGameVolume, "unset keys keep defaults")
	})

	t.Run("weakly typed values are absorbed", func(t *testing.T) {
		t.Parallel()

		jsonContent := `{
	"system_audio_level": "25",
	"close_resource_apps": 0
}`
		jsonPath := filepath.Join(t.TempDir(), "vapor_settings.json")
		err := os.WriteFile(jsonPath, []byte(jsonContent), 0o600)
		require.NoError(t, err)

		vals, err := JSONToToml(jsonPath)

		require.NoError(t, err)
		assert.Equal(t, 25, vals.Volume.SystemLevel)
		assert.False(t, vals.Apps.CloseResourceApps)
	})

	t.Run("missing file returns error", func(t *testing.T) {
		t.Parallel()

		jsonPath := filepath.Join(t.TempDir(), "vapor_settings.json")

		_, err := JSONToToml(jsonPath)

		require.Error(t, err)
	})
}

func TestJSONToToml_OtherSettings(t *testing.T) {
	t.Parallel()

	t.Run("full legacy file is migrated", func(t *testing.T) {
		t.Parallel()

		jsonContent := `{
	"notification_processes": ["Telegram.exe", "slack.exe"],
	"resource_processes": ["spotify.exe"],
	"close_notification_apps": true,
	"close_resource_apps": true,
	"relaunch_apps": false,
	"during_power_plan": "High Performance",
	"after_power_plan": "Power saver",
	"enable_game_mode": false,
	"poll_interval": 5,
	"steam_install_dir": "D:\\Steam",
	"temp_monitor_enabled": true,
	"temp_poll_interval": 15,
	"cpu_temp_warning": 80,
	"cpu_temp_critical": 92,
	"gpu_temp_warning": 75,
	"gpu_temp_critical": 88,
	"close_apps_hotkey": "ctrl+shift+q",
	"start_with_windows": true,
	"enable_telemetry": true,
	"unknown_future_key": "ignored"
}`
		jsonPath := filepath.Join(t.TempDir(), "vapor_settings.json")
		err := os.WriteFile(jsonPath, []byte(jsonContent), 0o600)
		require.NoError(t, err)

		vals, err := JSONToToml(jsonPath)

		require.NoError(t, err)
		assert.Equal(t, []string{"Telegram.exe", "slack.exe"}, vals.Apps.NotificationProcesses)
		assert.Equal(t, []string{"spotify.exe"}, vals.Apps.ResourceProcesses)
		assert.False(t, vals.Apps.RelaunchAfterSession)
		assert.Equal(t, config.PowerPlanHighPerformance, vals.Power.DuringSession)
		assert.Equal(t, config.PowerPlanPowerSaver, vals.Power.AfterSession)
		assert.False(t, vals.GameMode.Enabled)
		assert.Equal(t, 5, vals.Monitor.PollInterval)
		assert.Equal(t, `D:\Steam`, vals.Monitor.SteamInstallDir)
		assert.Equal(t, 15, vals.Temperature.SampleInterval)
		assert.Equal(t, 80, vals.Temperature.CPUWarning)
		assert.Equal(t, 92, vals.Temperature.CPUCritical)
		assert.Equal(t, 75, vals.Temperature.GPUWarning)
		assert.Equal(t, 88, vals.Temperature.GPUCritical)
		assert.Equal(t, "ctrl+shift+q", vals.Hotkey.CloseApps)
		assert.True(t, vals.Service.StartWithWindows)
		assert.True(t, vals.Service.ErrorReporting)
		assert.Equal(t, config.SchemaVersion, vals.ConfigSchema)
	})

	t.Run("empty alert sound keeps stock chime", func(t *testing.T) {
		t.Parallel()

		jsonContent := `{"temp_alert_sound": ""}`
		jsonPath := filepath.Join(t.TempDir(), "vapor_settings.json")
		err := os.WriteFile(jsonPath, []byte(jsonContent), 0o600)
		require.NoError(t, err)

		vals, err := JSONToToml(jsonPath)

		require.NoError(t, err)
		assert.Nil(t, vals.Temperature.AlertSound, "empty legacy sound should map to built-in default")
	})

	t.Run("custom alert sound carries over", func(t *testing.T) {
		t.Parallel()

		jsonContent := `{"temp_alert_sound": "C:\\sounds\\alarm.wav"}`
		jsonPath := filepath.Join(t.TempDir(), "vapor_settings.json")
		err := os.WriteFile(jsonPath, []byte(jsonContent), 0o600)
		require.NoError(t, err)

		vals, err := JSONToToml(jsonPath)

		require.NoError(t, err)
		require.NotNil(t, vals.Temperature.AlertSound)
		assert.Equal(t, `C:\sounds\alarm.wav`, *vals.Temperature.AlertSound)
	})
}

func TestRequired(t *testing.T) {
	t.Parallel()

	t.Run("returns true when legacy file exists and toml does not", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		jsonPath := filepath.Join(tmpDir, "vapor_settings.json")
		tomlPath := filepath.Join(tmpDir, "vapor.toml")

		err := os.WriteFile(jsonPath, []byte("{}"), 0o600)
		require.NoError(t, err)

		assert.True(t, Required(jsonPath, tomlPath))
	})

	t.Run("returns false when both exist", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		jsonPath := filepath.Join(tmpDir, "vapor_settings.json")
		tomlPath := filepath.Join(tmpDir, "vapor.toml")

		err := os.WriteFile(jsonPath, []byte("{}"), 0o600)
		require.NoError(t, err)
		err = os.WriteFile(tomlPath, []byte("config_schema = 1"), 0o600)
		require.NoError(t, err)

		assert.False(t, Required(jsonPath, tomlPath))
	})

	t.Run("returns false when legacy file does not exist", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		jsonPath := filepath.Join(tmpDir, "vapor_settings.json")
		tomlPath := filepath.Join(tmpDir, "vapor.toml")

		assert.False(t, Required(jsonPath, tomlPath))
	})
}
