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
	"os"
	"path/filepath"
	"strings"

	"github.com/VaporProject/vapor/internal/vdfbinary"
	"github.com/rs/zerolog/log"
)

// LookupShortcut resolves a non-Steam game the client launched from a
// shortcut. Shortcut AppIDs have no app manifest; their names live in each
// user's binary shortcuts.vdf.
func LookupShortcut(steamDir string, appID int64) (AppInfo, bool) {
	pattern := filepath.Join(steamDir, "userdata", "*", "config", "shortcuts.vdf")
	paths, err := filepath.Glob(pattern)
	if err != nil || len(paths) == 0 {
		return AppInfo{}, false
	}

	for _, path := range paths {
		if info, ok := readShortcutsFile(path, appID); ok {
			return info, true
		}
	}
	return AppInfo{}, false
}

func readShortcutsFile(path string, appID int64) (AppInfo, bool) {
	//nolint:gosec // Safe: reads Steam config files
	f, err := os.Open(path)
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("failed to open shortcuts.vdf")
		return AppInfo{}, false
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing shortcuts.vdf")
		}
	}()

	shortcuts, err := vdfbinary.ParseShortcuts(f)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to parse shortcuts.vdf")
		return AppInfo{}, false
	}

	for _, s := range shortcuts {
		// The client reports shortcut sessions by the 32-bit shortcut id.
		if s.AppID != uint32(appID) { //nolint:gosec // intentional truncation
			continue
		}
		info := AppInfo{
			AppID: appID,
			Name:  FormatGameName(appID, s.AppName),
		}
		if dir := strings.Trim(s.StartDir, `"`); dir != "" {
			info.InstallPath = dir
		}
		return info, true
	}
	return AppInfo{}, false
}
