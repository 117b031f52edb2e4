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

package steam

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows/registry"
)

const steamUserKey = `Software\Valve\Steam`

var steamMissingOnce sync.Once

// registrySource reads Steam state from the registry. The client keeps
// HKCU\Software\Valve\Steam\RunningAppID current for whichever game is
// running, which is what lets detection work without a Steam API handshake.
type registrySource struct{}

// NewSource returns the Steam state source for this OS.
func NewSource() Source {
	return registrySource{}
}

func (registrySource) RunningAppID() (int64, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, steamUserKey, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			// No Steam install, so no running game.
			steamMissingOnce.Do(func() {
				log.Warn().Msg("Steam registry key not found, is Steam installed?")
			})
			return 0, nil
		}
		return 0, fmt.Errorf("failed to open Steam key: %w", err)
	}
	defer func() {
		_ = key.Close()
	}()

	val, _, err := key.GetIntegerValue("RunningAppID")
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read RunningAppID: %w", err)
	}
	//nolint:gosec // AppIDs are 32-bit values stored in a DWORD
	return int64(val), nil
}

func (registrySource) InstallDir() (string, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, steamUserKey, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to open Steam key: %w", err)
	}
	defer func() {
		_ = key.Close()
	}()

	// SteamPath is stored with forward slashes.
	path, _, err := key.GetStringValue("SteamPath")
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read SteamPath: %w", err)
	}
	return filepath.FromSlash(path), nil
}
