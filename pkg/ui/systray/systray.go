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

// Package systray renders the tray icon and menu, kept in sync with the
// session lifecycle through the service notification stream.
package systray

import (
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"fyne.io/systray"
	"github.com/VaporProject/vapor/pkg/config"
	"github.com/VaporProject/vapor/pkg/platforms"
	"github.com/VaporProject/vapor/pkg/service"
	"github.com/VaporProject/vapor/pkg/service/events"
	"github.com/nixinwang/dialog"
	"github.com/rs/zerolog/log"
)

const (
	statusIdle   = "No game running"
	statusPaused = "Monitoring paused"
)

func openCommand() string {
	switch runtime.GOOS {
	case "windows":
		return "explorer"
	case "darwin":
		return "open"
	default:
		return "xdg-open"
	}
}

// sensorReadings holds the last alert value seen per sensor for the
// temperatures menu line.
type sensorReadings struct {
	cpu float64
	gpu float64
}

func (r *sensorReadings) line() string {
	switch {
	case r.cpu > 0 && r.gpu > 0:
		return fmt.Sprintf("CPU %.0f°C / GPU %.0f°C", r.cpu, r.gpu)
	case r.cpu > 0:
		return fmt.Sprintf("CPU %.0f°C", r.cpu)
	case r.gpu > 0:
		return fmt.Sprintf("GPU %.0f°C", r.gpu)
	default:
		return "Temperatures: sampling"
	}
}

func systrayOnReady(
	cfg *config.Instance,
	pl platforms.Platform,
	svc *service.Service,
	icon []byte,
) func() {
	return func() {
		openCmd := openCommand()

		systray.SetIcon(icon)
		if runtime.GOOS != "darwin" {
			systray.SetTitle("Vapor")
		}
		systray.SetTooltip("Vapor")

		mStatus := systray.AddMenuItem(statusIdle, "")
		mStatus.Disable()
		mTemps := systray.AddMenuItem("", "")
		mTemps.Disable()
		mTemps.Hide()
		systray.AddSeparator()

		mPause := systray.AddMenuItem("Pause monitoring", "Stop reacting to game launches")
		mCloseApps := systray.AddMenuItem("Close apps now", "Close configured apps for the running game")
		mCloseApps.Disable()
		systray.AddSeparator()

		mEditSettings := systray.AddMenuItem("Edit Settings", "Edit the settings file")
		mReloadSettings := systray.AddMenuItem("Reload Settings", "Reload settings from disk")
		mOpenLog := systray.AddMenuItem("View Log", "View the log file")
		mExportHistory := systray.AddMenuItem("Export History", "Export session history to CSV")

		systray.AddSeparator()
		mVersion := systray.AddMenuItem("Version "+config.AppVersion, "")
		mVersion.Disable()
		mAbout := systray.AddMenuItem("About Vapor", "")

		systray.AddSeparator()
		mQuit := systray.AddMenuItem("Quit", "Quit and restore all changes")

		notifs, unsubscribe := svc.Notifications(100)

		go func() {
			defer unsubscribe()

			var temps sensorReadings
			sessionActive := svc.ActiveSession() != nil

			idleTitle := func() string {
				if svc.Paused() {
					return statusPaused
				}
				return statusIdle
			}

			for {
				select {
				case notif, ok := <-notifs:
					if !ok {
						return
					}
					switch notif.Method {
					case events.NotificationSessionStarted:
						var params events.SessionParams
						if err := json.Unmarshal(notif.Params, &params); err != nil {
							log.Warn().Err(err).Msg("bad session.started payload")
							continue
						}
						sessionActive = true
						temps = sensorReadings{}
						mStatus.SetTitle("Playing: " + params.Name)
						mCloseApps.Enable()
						if cfg.TempMonitorEnabled() {
							mTemps.SetTitle(temps.line())
							mTemps.Show()
						}
					case events.NotificationSessionStopped:
						sessionActive = false
						mStatus.SetTitle(idleTitle())
						mCloseApps.Disable()
						mTemps.Hide()
					case events.NotificationTemperatureAlert:
						var params events.TemperatureAlertParams
						if err := json.Unmarshal(notif.Params, &params); err != nil {
							log.Warn().Err(err).Msg("bad temperature.alert payload")
							continue
						}
						switch params.Sensor {
						case events.SensorCPU:
							temps.cpu = params.Celsius
						case events.SensorGPU:
							temps.gpu = params.Celsius
						}
						mTemps.SetTitle(temps.line())
					case events.NotificationMonitorPaused:
						mPause.SetTitle("Resume monitoring")
						if !sessionActive {
							mStatus.SetTitle(statusPaused)
						}
					case events.NotificationMonitorResumed:
						mPause.SetTitle("Pause monitoring")
						if !sessionActive {
							mStatus.SetTitle(statusIdle)
						}
					}
				case <-mPause.ClickedCh:
					svc.SetPaused(!svc.Paused())
				case <-mCloseApps.ClickedCh:
					svc.CloseAppsNow()
				case <-mEditSettings.ClickedCh:
					err := exec.Command(openCmd, cfg.Path()).Start()
					if err != nil {
						log.Error().Err(err).Msg("failed to open settings file")
					}
				case <-mReloadSettings.ClickedCh:
					if err := svc.ReloadSettings(); err != nil {
						log.Error().Err(err).Msg("failed to reload settings")
						dialog.Message("Failed to reload settings:\n%s", err).
							Title("Vapor").Error()
					} else {
						log.Info().Msg("reloaded settings from tray")
					}
				case <-mOpenLog.ClickedCh:
					err := exec.Command(openCmd,
						filepath.Join(pl.Settings().TempDir, config.LogFile)).Start()
					if err != nil {
						log.Error().Err(err).Msg("failed to open log file")
					}
				case <-mExportHistory.ClickedCh:
					path, err := svc.ExportHistory()
					if err != nil {
						log.Error().Err(err).Msg("failed to export history")
						dialog.Message("Failed to export history:\n%s", err).
							Title("Export History").Error()
					} else {
						log.Info().Str("path", path).Msg("exported session history")
						dialog.Message("Session history exported to:\n%s", path).
							Title("Export History").Info()
					}
				case <-mAbout.ClickedCh:
					msg := "Vapor\n" +
						"Version v%s\n\n" +
						"© %d Vapor Project Contributors\n" +
						"License: GPLv3"
					dialog.Message(msg, config.AppVersion, time.Now().Year()).
						Title("About Vapor").Info()
				case <-mQuit.ClickedCh:
					systray.Quit()
				}
			}
		}()
	}
}

// Quit exits the tray main loop, triggering the exit callback passed to
// Run.
func Quit() {
	systray.Quit()
}

// Run blocks on the tray main loop until Quit is chosen. exit runs on the
// way out.
func Run(
	cfg *config.Instance,
	pl platforms.Platform,
	svc *service.Service,
	exit func(),
) {
	systray.Run(systrayOnReady(cfg, pl, svc, Icon()), exit)
}
