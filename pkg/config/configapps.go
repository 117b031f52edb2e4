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

import "strings"

// Apps configures which background applications are closed for a session.
// Notification apps are closed to stop popups interrupting gameplay, resource
// apps are closed to free CPU and memory. Matching is case-insensitive on the
// process image name.
type Apps struct {
	notificationSet       map[string]struct{}
	resourceSet           map[string]struct{}
	NotificationProcesses []string `toml:"notification_processes,omitempty,multiline"`
	ResourceProcesses     []string `toml:"resource_processes,omitempty,multiline"`
	CloseNotificationApps bool     `toml:"close_notification_apps"`
	CloseResourceApps     bool     `toml:"close_resource_apps"`
	RelaunchAfterSession  bool     `toml:"relaunch_after_session"`
}

// Hotkey configures global keyboard shortcuts.
type Hotkey struct {
	CloseApps string `toml:"close_apps,omitempty" validate:"omitempty,hotkey"`
}

func (c *Instance) NotificationProcesses() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.vals.Apps.NotificationProcesses))
	copy(out, c.vals.Apps.NotificationProcesses)
	return out
}

func (c *Instance) SetNotificationProcesses(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Apps.NotificationProcesses = names
	c.vals.Apps.notificationSet = newProcessSet(names)
}

func (c *Instance) ResourceProcesses() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.vals.Apps.ResourceProcesses))
	copy(out, c.vals.Apps.ResourceProcesses)
	return out
}

func (c *Instance) SetResourceProcesses(names []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Apps.ResourceProcesses = names
	c.vals.Apps.resourceSet = newProcessSet(names)
}

// IsNotificationProcess reports whether the given process image name is in
// the notification app list.
func (c *Instance) IsNotificationProcess(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.vals.Apps.notificationSet[strings.ToLower(name)]
	return ok
}

// IsResourceProcess reports whether the given process image name is in the
// resource app list.
func (c *Instance) IsResourceProcess(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.vals.Apps.resourceSet[strings.ToLower(name)]
	return ok
}

func (c *Instance) CloseNotificationApps() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Apps.CloseNotificationApps
}

func (c *Instance) SetCloseNotificationApps(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Apps.CloseNotificationApps = enabled
}

func (c *Instance) CloseResourceApps() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Apps.CloseResourceApps
}

func (c *Instance) SetCloseResourceApps(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Apps.CloseResourceApps = enabled
}

// RelaunchAfterSession reports whether closed apps should be started again
// once the game session ends.
func (c *Instance) RelaunchAfterSession() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Apps.RelaunchAfterSession
}

func (c *Instance) SetRelaunchAfterSession(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Apps.RelaunchAfterSession = enabled
}

// CloseAppsHotkey returns the configured chord for closing apps on demand,
// or an empty string when the hotkey is disabled.
func (c *Instance) CloseAppsHotkey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Hotkey.CloseApps
}

func (c *Instance) SetCloseAppsHotkey(chord string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.Hotkey.CloseApps = chord
}
