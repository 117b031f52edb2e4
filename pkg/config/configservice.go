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

type Service struct {
	DeviceID         string     `toml:"device_id"`
	Publishers       Publishers `toml:"publishers,omitempty"`
	StartWithWindows bool       `toml:"start_with_windows"`
	ErrorReporting   bool       `toml:"error_reporting"`
}

type Publishers struct {
	MQTT []MQTTPublisher `toml:"mqtt,omitempty"`
}

type MQTTPublisher struct {
	Enabled *bool    `toml:"enabled,omitempty"`
	Broker  string   `toml:"broker"`
	Topic   string   `toml:"topic"`
	Filter  []string `toml:"filter,omitempty,multiline"`
}

// History configures retention of the session and temperature history
// database. Zero values keep history forever.
type History struct {
	RetentionDays   int `toml:"retention_days" validate:"min=0"`
	SessionsPerGame int `toml:"sessions_per_game" validate:"min=0"`
}

func (c *Instance) DeviceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.DeviceID
}

func (c *Instance) GetMQTTPublishers() []MQTTPublisher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.Publishers.MQTT
}

func (c *Instance) StartWithWindows() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.StartWithWindows
}

func (c *Instance) SetStartWithWindows(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Service.StartWithWindows = enabled
}

// ErrorReporting reports whether crash reports may be sent to the project's
// error tracker. Disabled unless the user opted in.
func (c *Instance) ErrorReporting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.ErrorReporting
}

func (c *Instance) SetErrorReporting(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Service.ErrorReporting = enabled
}

// HistoryRetentionDays returns how many days of session history to keep,
// or 0 to keep everything.
func (c *Instance) HistoryRetentionDays() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.History.RetentionDays
}

func (c *Instance) SetHistoryRetentionDays(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.History.RetentionDays = days
}

// HistorySessionsPerGame returns the per-game cap on stored sessions, or 0
// for no cap.
func (c *Instance) HistorySessionsPerGame() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.History.SessionsPerGame
}

func (c *Instance) SetHistorySessionsPerGame(limit int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.History.SessionsPerGame = limit
}
