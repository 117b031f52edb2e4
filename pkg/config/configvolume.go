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

// Volume configures audio levels applied while a session is active. Levels
// are percentages from 0 to 100. The system level applies to the default
// render endpoint, the game level to the game's own audio session.
type Volume struct {
	ManageSystemVolume bool `toml:"manage_system_volume"`
	SystemLevel        int  `toml:"system_level" validate:"min=0,max=100"`
	ManageGameVolume   bool `toml:"manage_game_volume"`
	GameLevel          int  `toml:"game_level" validate:"min=0,max=100"`
}

func (c *Instance) ManageSystemVolume() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Volume.ManageSystemVolume
}

func (c *Instance) SetManageSystemVolume(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Volume.ManageSystemVolume = enabled
}

func (c *Instance) SystemVolumeLevel() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clampLevel(c.vals.Volume.SystemLevel)
}

func (c *Instance) SetSystemVolumeLevel(level int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Volume.SystemLevel = clampLevel(level)
}

func (c *Instance) ManageGameVolume() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Volume.ManageGameVolume
}

func (c *Instance) SetManageGameVolume(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Volume.ManageGameVolume = enabled
}

func (c *Instance) GameVolumeLevel() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clampLevel(c.vals.Volume.GameLevel)
}

func (c *Instance) SetGameVolumeLevel(level int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Volume.GameLevel = clampLevel(level)
}

func clampLevel(level int) int {
	if level < 0 {
		return 0
	}
	if level > 100 {
		return 100
	}
	return level
}
