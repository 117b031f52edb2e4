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

import "time"

// Monitor configures the Steam session polling loop.
type Monitor struct {
	SteamInstallDir string `toml:"steam_install_dir,omitempty"`
	PollInterval    int    `toml:"poll_interval_seconds,omitempty" validate:"min=1,max=60"`
}

// PollInterval returns the interval between Steam registry polls.
func (c *Instance) PollInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.vals.Monitor.PollInterval < 1 {
		return 3 * time.Second
	}
	return time.Duration(c.vals.Monitor.PollInterval) * time.Second
}

func (c *Instance) SetPollInterval(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Monitor.PollInterval = seconds
}

// SteamInstallDir returns the user-configured Steam install directory.
// Returns an empty string when Steam should be located via the registry.
func (c *Instance) SteamInstallDir() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Monitor.SteamInstallDir
}

func (c *Instance) SetSteamInstallDir(dir string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Monitor.SteamInstallDir = dir
}
