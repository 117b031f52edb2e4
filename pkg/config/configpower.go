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

// Friendly names of the built-in Windows power schemes. Custom scheme names
// are also accepted and resolved against powercfg at apply time.
const (
	PowerPlanBalanced        = "Balanced"
	PowerPlanHighPerformance = "High Performance"
	PowerPlanPowerSaver      = "Power saver"
)

// Power configures the power plan switch around a session. Empty names
// disable the switch in that direction.
type Power struct {
	DuringSession string `toml:"during_session,omitempty"`
	AfterSession  string `toml:"after_session,omitempty"`
}

// GameMode configures toggling the Windows Game Mode registry setting.
type GameMode struct {
	Enabled bool `toml:"enabled"`
}

// PowerPlanDuringSession returns the power plan name to activate when a
// session starts, or an empty string when plan switching is disabled.
func (c *Instance) PowerPlanDuringSession() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Power.DuringSession
}

func (c *Instance) SetPowerPlanDuringSession(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Power.DuringSession = name
}

// PowerPlanAfterSession returns the power plan name to restore when a
// session ends. An empty string means restore whatever plan was active
// before the session.
func (c *Instance) PowerPlanAfterSession() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Power.AfterSession
}

func (c *Instance) SetPowerPlanAfterSession(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Power.AfterSession = name
}

func (c *Instance) GameModeEnabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.GameMode.Enabled
}

func (c *Instance) SetGameModeEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.GameMode.Enabled = enabled
}
