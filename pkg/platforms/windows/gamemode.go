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

package windows

import (
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

const gameBarKey = `Software\Microsoft\GameBar`

// GameModeEnabled reports whether auto Game Mode is on. A missing key or
// value means the user never touched the setting, which Windows treats as
// enabled.
func (p *Platform) GameModeEnabled() (bool, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, gameBarKey, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("failed to open GameBar key: %w", err)
	}
	defer func() {
		_ = key.Close()
	}()

	val, _, err := key.GetIntegerValue("AutoGameModeEnabled")
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("failed to read AutoGameModeEnabled: %w", err)
	}
	return val != 0, nil
}

func (p *Platform) SetGameModeEnabled(enabled bool) error {
	key, _, err := registry.CreateKey(registry.CURRENT_USER, gameBarKey, registry.SET_VALUE)
	if err != nil {
		return fmt.Errorf("failed to open GameBar key: %w", err)
	}
	defer func() {
		_ = key.Close()
	}()

	var val uint32
	if enabled {
		val = 1
	}
	if err := key.SetDWordValue("AutoGameModeEnabled", val); err != nil {
		return fmt.Errorf("failed to write AutoGameModeEnabled: %w", err)
	}
	return nil
}
