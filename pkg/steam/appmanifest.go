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

// Package steam locates the running Steam game and its install directory
// through the client registry state and app manifests.
package steam

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/andygrunwald/vdf"
	"github.com/rs/zerolog/log"
)

// AppInfo contains metadata for a Steam app from its manifest.
type AppInfo struct {
	Name        string
	InstallDir  string // directory name under steamapps/common
	InstallPath string // absolute install path, when a manifest was found
	AppID       int64
}

// vdfLookup finds a key in a parsed VDF map ignoring case. Manifests in the
// wild vary between "AppState" and "appstate".
func vdfLookup(m map[string]any, key string) (any, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

func vdfMap(m map[string]any, key string) (map[string]any, bool) {
	v, ok := vdfLookup(m, key)
	if !ok {
		return nil, false
	}
	sub, ok := v.(map[string]any)
	return sub, ok
}

func vdfString(m map[string]any, key string) (string, bool) {
	v, ok := vdfLookup(m, key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// ReadAppManifest reads a Steam app manifest from one steamapps directory.
func ReadAppManifest(steamAppsDir string, appID int64) (AppInfo, bool) {
	manifestPath := filepath.Join(steamAppsDir, fmt.Sprintf("appmanifest_%d.acf", appID))

	//nolint:gosec // Safe: reads Steam manifest files
	f, err := os.Open(manifestPath)
	if err != nil {
		log.Debug().Err(err).Int64("appID", appID).Msg("failed to open app manifest")
		return AppInfo{}, false
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing app manifest")
		}
	}()

	p := vdf.NewParser(f)
	m, err := p.Parse()
	if err != nil {
		log.Warn().Err(err).Int64("appID", appID).Msg("failed to parse app manifest")
		return AppInfo{}, false
	}

	appState, ok := vdfMap(m, "AppState")
	if !ok {
		log.Warn().Int64("appID", appID).Msg("AppState not found in manifest")
		return AppInfo{}, false
	}

	name, ok := vdfString(appState, "name")
	if !ok {
		log.Warn().Int64("appID", appID).Msg("name not found in manifest")
		return AppInfo{}, false
	}

	installDir, _ := vdfString(appState, "installdir")

	info := AppInfo{
		AppID:      appID,
		Name:       name,
		InstallDir: installDir,
	}
	if installDir != "" {
		info.InstallPath = filepath.Join(steamAppsDir, "common", installDir)
	}
	return info, true
}

// forEachLibrary iterates the steamapps directory of every Steam library
// that contains an app, starting with the main one. Iteration stops when the
// callback returns true.
func forEachLibrary(mainSteamAppsDir string, appID int64, callback func(steamAppsDir string) bool) {
	if callback(mainSteamAppsDir) {
		return
	}

	// The client has kept libraryfolders.vdf in two places across versions.
	candidates := []string{
		filepath.Join(mainSteamAppsDir, "libraryfolders.vdf"),
		filepath.Join(filepath.Dir(mainSteamAppsDir), "config", "libraryfolders.vdf"),
	}

	seen := map[string]struct{}{filepath.Clean(mainSteamAppsDir): {}}
	for _, path := range candidates {
		if walkLibraryFolders(path, appID, seen, callback) {
			return
		}
	}
}

// walkLibraryFolders calls the callback for every library listed in one
// libraryfolders.vdf that holds the app. Returns true when the callback
// stopped the walk.
func walkLibraryFolders(
	path string,
	appID int64,
	seen map[string]struct{},
	callback func(steamAppsDir string) bool,
) bool {
	//nolint:gosec // Safe: reads Steam config files
	f, err := os.Open(path)
	if err != nil {
		log.Debug().Err(err).Msg("failed to open libraryfolders.vdf")
		return false
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing libraryfolders.vdf")
		}
	}()

	p := vdf.NewParser(f)
	m, err := p.Parse()
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("failed to parse libraryfolders.vdf")
		return false
	}

	lfs, ok := vdfMap(m, "libraryfolders")
	if !ok {
		return false
	}

	appIDStr := strconv.FormatInt(appID, 10)
	for _, v := range lfs {
		ls, ok := v.(map[string]any)
		if !ok {
			continue
		}

		// Libraries list the apps they hold, skip ones without ours.
		if apps, hasApps := vdfMap(ls, "apps"); hasApps {
			if _, hasApp := apps[appIDStr]; !hasApp {
				continue
			}
		}

		libraryPath, ok := vdfString(ls, "path")
		if !ok {
			continue
		}

		librarySteamApps := filepath.Join(libraryPath, "steamapps")
		clean := filepath.Clean(librarySteamApps)
		if _, dup := seen[clean]; dup {
			continue
		}
		seen[clean] = struct{}{}

		if callback(librarySteamApps) {
			return true
		}
	}
	return false
}

// LookupApp searches the main library and every extra library folder for an
// app's manifest.
func LookupApp(steamAppsDir string, appID int64) (AppInfo, bool) {
	var result AppInfo
	found := false
	forEachLibrary(steamAppsDir, appID, func(dir string) bool {
		if info, ok := ReadAppManifest(dir, appID); ok {
			result = info
			found = true
			return true
		}
		return false
	})
	return result, found
}

// FindSteamAppsDir finds the steamapps directory under a Steam root
// directory, checking the case variations Steam has used.
func FindSteamAppsDir(steamDir string) string {
	candidates := []string{
		"steamapps",
		"SteamApps",
		"steam/steamapps",
	}

	for _, candidate := range candidates {
		path := filepath.Join(steamDir, candidate)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path
		}
	}

	return filepath.Join(steamDir, "steamapps")
}

// DefaultSteamAppsDirs returns the stock Steam install locations.
func DefaultSteamAppsDirs() []string {
	var dirs []string
	for _, env := range []string{"ProgramFiles(x86)", "ProgramFiles"} {
		if base := os.Getenv(env); base != "" {
			dirs = append(dirs, filepath.Join(base, "Steam", "steamapps"))
		}
	}
	return dirs
}

// FormatGameName returns a display name for a game, falling back to the
// AppID when the manifest had none.
func FormatGameName(appID int64, name string) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("Steam Game %d", appID)
}
