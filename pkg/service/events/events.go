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

// Package events defines the notifications broadcast by the service core
// and consumed by the tray UI, the history tracker and external publishers.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	NotificationRunning          = "running"
	NotificationSessionStarted   = "session.started"
	NotificationSessionStopped   = "session.stopped"
	NotificationSessionSummary   = "session.summary"
	NotificationTemperatureAlert = "temperature.alert"
	NotificationSettingsReloaded = "settings.reloaded"
	NotificationMonitorPaused    = "monitor.paused"
	NotificationMonitorResumed   = "monitor.resumed"
)

// Notification is the wire shape shared by every consumer. Params is
// pre-marshaled so publishers can forward it without knowing the payload
// type.
type Notification struct {
	Method string
	Params json.RawMessage
}

// RunningParams announces the service after startup and rollback recovery
// have finished.
type RunningParams struct {
	Version  string `json:"version"`
	BootUUID string `json:"bootUuid"`
}

// SessionParams describes a detected game session. PID is the process the
// session lifecycle is bound to, which may differ from the launcher process
// Steam reported.
type SessionParams struct {
	StartedAt time.Time `json:"startedAt"`
	Name      string    `json:"name"`
	AppID     int64     `json:"appId"`
	PID       int32     `json:"pid"`
}

// SessionSummaryParams is emitted once per session after every mutation has
// been reverted.
type SessionSummaryParams struct {
	StartedAt       time.Time `json:"startedAt"`
	EndedAt         time.Time `json:"endedAt"`
	Name            string    `json:"name"`
	AppID           int64     `json:"appId"`
	DurationSeconds int64     `json:"durationSeconds"`
	CPUMaxTemp      float64   `json:"cpuMaxTemp,omitempty"`
	GPUMaxTemp      float64   `json:"gpuMaxTemp,omitempty"`
	AppsClosed      int       `json:"appsClosed"`
	AppsRelaunched  int       `json:"appsRelaunched"`
}

// TemperatureAlertParams is emitted when a sensor crosses a configured
// threshold. Sensor is "cpu" or "gpu", Level is "warning" or "critical".
type TemperatureAlertParams struct {
	Sensor    string  `json:"sensor"`
	Level     string  `json:"level"`
	Celsius   float64 `json:"celsius"`
	Threshold int     `json:"threshold"`
}

const (
	SensorCPU = "cpu"
	SensorGPU = "gpu"

	AlertLevelWarning  = "warning"
	AlertLevelCritical = "critical"
)

// FormatDuration renders a session length the way the tray and summary
// show it: "2h 5m", or just "41m" under an hour. Never shorter than "0m".
func FormatDuration(seconds int64) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// send marshals the payload and hands the notification to the broker
// channel. Sends never block: the session monitor and hotkey loop call
// these helpers, and a stalled consumer must not stall them.
func send(ns chan<- Notification, method string, payload any) {
	notif := Notification{Method: method}
	if payload != nil {
		params, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("method", method).
				Msg("failed to marshal notification params")
			return
		}
		notif.Params = params
	}
	select {
	case ns <- notif:
	default:
		log.Warn().Str("method", method).
			Msg("notification channel full, dropping notification")
	}
}

func Running(ns chan<- Notification, payload RunningParams) {
	send(ns, NotificationRunning, payload)
}

func SessionStarted(ns chan<- Notification, payload SessionParams) {
	send(ns, NotificationSessionStarted, payload)
}

func SessionStopped(ns chan<- Notification, payload SessionParams) {
	send(ns, NotificationSessionStopped, payload)
}

func SessionSummary(ns chan<- Notification, payload SessionSummaryParams) {
	send(ns, NotificationSessionSummary, payload)
}

func TemperatureAlert(ns chan<- Notification, payload TemperatureAlertParams) {
	send(ns, NotificationTemperatureAlert, payload)
}

func SettingsReloaded(ns chan<- Notification) {
	send(ns, NotificationSettingsReloaded, nil)
}

func MonitorPaused(ns chan<- Notification) {
	send(ns, NotificationMonitorPaused, nil)
}

func MonitorResumed(ns chan<- Notification) {
	send(ns, NotificationMonitorResumed, nil)
}
