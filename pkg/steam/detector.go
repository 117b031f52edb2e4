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

package steam

import (
	"context"
	"os"
	"path/filepath"

	"github.com/VaporProject/vapor/pkg/config"
	"github.com/VaporProject/vapor/pkg/helpers/syncutil"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Detector polls the Steam client state and reports game launch and exit
// transitions. A change from one AppID straight to another reports an exit
// followed by a launch.
type Detector struct {
	ctx      context.Context
	cancel   context.CancelFunc
	cfg      *config.Instance
	source   Source
	clock    clockwork.Clock
	onLaunch func(info AppInfo)
	onExit   func(appID int64)
	current  int64
	mu       syncutil.Mutex
}

func NewDetector(cfg *config.Instance, source Source, clock clockwork.Clock) *Detector {
	ctx, cancel := context.WithCancel(context.Background())
	return &Detector{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		source: source,
		clock:  clock,
	}
}

// SetLaunchHandler sets the callback for game launches.
func (d *Detector) SetLaunchHandler(fn func(info AppInfo)) {
	d.mu.Lock()
	d.onLaunch = fn
	d.mu.Unlock()
}

// SetExitHandler sets the callback for game exits.
func (d *Detector) SetExitHandler(fn func(appID int64)) {
	d.mu.Lock()
	d.onExit = fn
	d.mu.Unlock()
}

// Start begins polling. A game already running at startup is reported as a
// launch on the first poll.
func (d *Detector) Start() {
	go d.pollLoop()
}

// Stop ends polling. Handlers already in flight may still complete.
func (d *Detector) Stop() {
	d.cancel()
}

// Current returns the AppID seen on the last poll, 0 when idle.
func (d *Detector) Current() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *Detector) pollLoop() {
	interval := d.cfg.PollInterval()
	ticker := d.clock.NewTicker(interval)
	defer ticker.Stop()

	d.poll()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.Chan():
			d.poll()
			if next := d.cfg.PollInterval(); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

func (d *Detector) poll() {
	appID, err := d.source.RunningAppID()
	if err != nil {
		// Keep the last known state, a transient read failure is not an exit.
		log.Debug().Err(err).Msg("failed to read running app id")
		return
	}

	d.mu.Lock()
	prev := d.current
	d.current = appID
	onLaunch := d.onLaunch
	onExit := d.onExit
	d.mu.Unlock()

	if appID == prev {
		return
	}

	if prev != 0 {
		log.Info().Int64("appID", prev).Msg("steam game exited")
		if onExit != nil {
			onExit(prev)
		}
	}
	if appID != 0 {
		info := d.describeApp(appID)
		log.Info().Int64("appID", appID).Str("name", info.Name).Msg("steam game launched")
		if onLaunch != nil {
			onLaunch(info)
		}
	}
}

// steamAppsDir resolves the main steamapps directory: config override
// first, then the client's own install path, then stock locations.
func (d *Detector) steamAppsDir() string {
	if dir := d.cfg.SteamInstallDir(); dir != "" {
		return FindSteamAppsDir(dir)
	}

	if dir, err := d.source.InstallDir(); err == nil && dir != "" {
		return FindSteamAppsDir(dir)
	}

	for _, dir := range DefaultSteamAppsDirs() {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return ""
}

func (d *Detector) describeApp(appID int64) AppInfo {
	if dir := d.steamAppsDir(); dir != "" {
		if info, ok := LookupApp(dir, appID); ok {
			info.Name = FormatGameName(appID, info.Name)
			return info
		}
		// Non-Steam games launched through the client have no manifest.
		if info, ok := LookupShortcut(filepath.Dir(dir), appID); ok {
			return info
		}
	}
	return AppInfo{AppID: appID, Name: FormatGameName(appID, "")}
}
