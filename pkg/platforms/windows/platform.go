//go:build windows

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

// Package windows implements the Platform interface against the Win32 API:
// process management via the toolhelp snapshot, volume via Core Audio COM,
// power plans via powercfg and the rest via the registry.
package windows

import (
	"path/filepath"

	"github.com/VaporProject/vapor/pkg/config"
	"github.com/VaporProject/vapor/pkg/platforms"
	"github.com/adrg/xdg"
)

type Platform struct {
	hotkeys *hotkeyManager
}

func NewPlatform() *Platform {
	return &Platform{
		hotkeys: newHotkeyManager(),
	}
}

func (*Platform) ID() string {
	return platforms.PlatformIDWindows
}

func (*Platform) StartPre(_ *config.Instance) error {
	return nil
}

func (*Platform) StartPost(_ *config.Instance) error {
	return nil
}

func (p *Platform) Stop() error {
	p.hotkeys.stopAll()
	return nil
}

func (*Platform) Settings() platforms.Settings {
	return platforms.Settings{
		DataDir:   filepath.Join(xdg.DataHome, config.AppName),
		ConfigDir: filepath.Join(xdg.ConfigHome, config.AppName),
		TempDir:   filepath.Join(xdg.CacheHome, config.AppName),
	}
}
