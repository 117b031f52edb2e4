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

package platforms

import (
	"context"
	"errors"
	"time"

	"github.com/VaporProject/vapor/pkg/config"
)

var ErrNotSupported = errors.New("operation not supported on this platform")

const (
	PlatformIDWindows = "windows"
	PlatformIDMock    = "mock"
)

// ProcessInfo describes a running process as seen by the session monitor and
// the app closer.
type ProcessInfo struct {
	// Name is the process image name, e.g. "spotify.exe".
	Name string
	// Exe is the absolute path of the process image, when readable.
	Exe string
	// Cmdline is the full command line, used to relaunch the process with
	// the arguments it originally had.
	Cmdline []string
	// CreateTime is the process start time in milliseconds since the epoch.
	CreateTime int64
	PID        int32
	PPID       int32
}

// PowerPlan is one powercfg scheme.
type PowerPlan struct {
	GUID   string
	Name   string
	Active bool
}

// Scheme GUIDs shipped with every Windows install. Names are localized,
// these are not.
const (
	PowerPlanGUIDBalanced        = "381b4222-f694-41f0-9685-ff5bb260df2e"
	PowerPlanGUIDHighPerformance = "8c5e7fda-e8bf-4a96-9a85-a6e23a8c635c"
	PowerPlanGUIDPowerSaver      = "a1841308-3541-4fab-bc81-f71556f20b4a"
)

// AudioSession is one per-process audio session on the default render
// endpoint. Volume is a percentage of the session's own slider.
type AudioSession struct {
	ProcessName string
	PID         int32
	Volume      int
}

// Settings holds simple platform-specific values such as paths.
type Settings struct {
	DataDir   string
	ConfigDir string
	TempDir   string
}

type Platform interface {
	// ID returns the unique ID of this platform.
	ID() string
	// StartPre runs any necessary platform setup BEFORE the main service has
	// started running.
	StartPre(*config.Instance) error
	// StartPost runs any necessary platform setup AFTER the main service has
	// started running.
	StartPost(*config.Instance) error
	// Stop runs any necessary cleanup tasks before the rest of the service
	// starts shutting down.
	Stop() error
	// Settings returns all simple platform-specific settings such as paths.
	Settings() Settings

	// Processes returns a snapshot of running processes.
	Processes() ([]ProcessInfo, error)
	// IsProcessRunning reports whether the process with the given PID is
	// still alive. A PID that exists but has exited counts as not running.
	IsProcessRunning(pid int32) (bool, error)
	// TerminateProcess asks a process to close and kills it if it is still
	// alive after the grace period.
	TerminateProcess(ctx context.Context, pid int32, grace time.Duration) error
	// LaunchDetached starts a program without a parent-child relationship so
	// it outlives the service.
	LaunchDetached(path string, args ...string) error
	// BootTime returns the time the machine last booted.
	BootTime() (time.Time, error)

	// MasterVolume returns the default render endpoint volume in percent.
	MasterVolume() (int, error)
	// SetMasterVolume sets the default render endpoint volume in percent.
	SetMasterVolume(level int) error

	// AudioSessions returns the per-process audio sessions on the default
	// render endpoint.
	AudioSessions() ([]AudioSession, error)
	// SetAudioSessionVolume sets the session volume of the given process in
	// percent of the session's own slider.
	SetAudioSessionVolume(pid int32, level int) error

	// PowerPlans returns all power schemes known to the machine.
	PowerPlans() ([]PowerPlan, error)
	// ActivePowerPlan returns the currently active power scheme.
	ActivePowerPlan() (PowerPlan, error)
	// SetActivePowerPlan activates a power scheme by GUID.
	SetActivePowerPlan(guid string) error

	// GameModeEnabled reports whether Windows Game Mode is switched on.
	GameModeEnabled() (bool, error)
	// SetGameModeEnabled switches Windows Game Mode on or off.
	SetGameModeEnabled(enabled bool) error

	// FocusAssistActive reports whether the system is currently suppressing
	// notifications (Focus Assist / quiet hours).
	FocusAssistActive() (bool, error)

	// RegisterHotkey binds a chord like "ctrl+alt+k" to a handler. Returns
	// an unregister function.
	RegisterHotkey(chord string, handler func()) (unregister func() error, err error)

	// StartOnLogin reports whether the service is registered to start with
	// the user session.
	StartOnLogin() (bool, error)
	// SetStartOnLogin registers or unregisters the service from starting
	// with the user session.
	SetStartOnLogin(enabled bool) error
}
