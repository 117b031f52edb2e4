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
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createMockManifest(t *testing.T, steamAppsDir string, appID int64, name string) {
	t.Helper()

	appIDStr := strconv.FormatInt(appID, 10)
	manifestPath := filepath.Join(steamAppsDir, "appmanifest_"+appIDStr+".acf")
	content := `"AppState"
{
	"appid"		"` + appIDStr + `"
	"name"		"` + name + `"
	"installdir"		"` + name + `"
	"StateFlags"		"4"
}`
	//nolint:gosec // G306: test file permissions are fine
	require.NoError(t, os.WriteFile(manifestPath, []byte(content), 0o644))
}

// escapeVDFPath escapes backslashes in paths for embedding in VDF content,
// needed on Windows where paths contain backslashes.
func escapeVDFPath(path string) string {
	return strings.ReplaceAll(path, `\`, `\\`)
}

func TestReadAppManifest(t *testing.T) {
	t.Parallel()

	t.Run("reads_valid_manifest", func(t *testing.T) {
		t.Parallel()

		steamAppsDir := t.TempDir()
		createMockManifest(t, steamAppsDir, 250900, "The Binding of Isaac: Rebirth")

		info, ok := ReadAppManifest(steamAppsDir, 250900)

		require.True(t, ok)
		assert.Equal(t, int64(250900), info.AppID)
		assert.Equal(t, "The Binding of Isaac: Rebirth", info.Name)
		assert.Equal(t,
			filepath.Join(steamAppsDir, "common", "The Binding of Isaac: Rebirth"),
			info.InstallPath)
	})

	t.Run("handles_case_variations", func(t *testing.T) {
		t.Parallel()

		steamAppsDir := t.TempDir()
		manifestPath := filepath.Join(steamAppsDir, "appmanifest_12345.acf")
		content := `"appstate"
{
	"appid"		"12345"
	"Name"		"Case Test"
	"InstallDir"		"CaseTest"
}`
		//nolint:gosec // G306: test file permissions are fine
		require.NoError(t, os.WriteFile(manifestPath, []byte(content), 0o644))

		info, ok := ReadAppManifest(steamAppsDir, 12345)

		require.True(t, ok)
		assert.Equal(t, "Case Test", info.Name)
		assert.Equal(t, "CaseTest", info.InstallDir)
	})

	t.Run("handles_invalid_vdf", func(t *testing.T) {
		t.Parallel()

		steamAppsDir := t.TempDir()
		manifestPath := filepath.Join(steamAppsDir, "appmanifest_12345.acf")
		//nolint:gosec // G306: test file permissions are fine
		require.NoError(t, os.WriteFile(manifestPath, []byte("invalid vdf content {{{"), 0o644))

		_, ok := ReadAppManifest(steamAppsDir, 12345)

		assert.False(t, ok)
	})

	t.Run("handles_missing_name", func(t *testing.T) {
		t.Parallel()

		steamAppsDir := t.TempDir()
		manifestPath := filepath.Join(steamAppsDir, "appmanifest_12345.acf")
		content := `"AppState"
{
	"appid"		"12345"
}`
		//nolint:gosec // G306: test file permissions are fine
		require.NoError(t, os.WriteFile(manifestPath, []byte(content), 0o644))

		_, ok := ReadAppManifest(steamAppsDir, 12345)

		assert.False(t, ok)
	})

	t.Run("handles_missing_manifest", func(t *testing.T) {
		t.Parallel()

		_, ok := ReadAppManifest(t.TempDir(), 999999)

		assert.False(t, ok)
	})
}

func TestLookupApp(t *testing.T) {
	t.Parallel()

	t.Run("finds_in_main_library", func(t *testing.T) {
		t.Parallel()

		steamAppsDir := t.TempDir()
		createMockManifest(t, steamAppsDir, 620, "Portal 2")

		info, ok := LookupApp(steamAppsDir, 620)

		require.True(t, ok)
		assert.Equal(t, "Portal 2", info.Name)
	})

	t.Run("finds_in_extra_library", func(t *testing.T) {
		t.Parallel()

		mainDir := t.TempDir()
		libraryRoot := t.TempDir()
		librarySteamApps := filepath.Join(libraryRoot, "steamapps")
		require.NoError(t, os.MkdirAll(librarySteamApps, 0o750))
		createMockManifest(t, librarySteamApps, 440, "Team Fortress 2")

		content := `"libraryfolders"
{
	"1"
	{
		"path"		"` + escapeVDFPath(libraryRoot) + `"
		"apps"
		{
			"440"		"15000000000"
		}
	}
}`
		//nolint:gosec // G306: test file permissions are fine
		require.NoError(t, os.WriteFile(
			filepath.Join(mainDir, "libraryfolders.vdf"), []byte(content), 0o644))

		info, ok := LookupApp(mainDir, 440)

		require.True(t, ok)
		assert.Equal(t, "Team Fortress 2", info.Name)
		assert.Equal(t,
			filepath.Join(librarySteamApps, "common", "Team Fortress 2"),
			info.InstallPath)
	})

	t.Run("finds_via_config_libraryfolders", func(t *testing.T) {
		t.Parallel()

		steamRoot := t.TempDir()
		mainDir := filepath.Join(steamRoot, "steamapps")
		require.NoError(t, os.MkdirAll(mainDir, 0o750))
		require.NoError(t, os.MkdirAll(filepath.Join(steamRoot, "config"), 0o750))

		libraryRoot := t.TempDir()
		librarySteamApps := filepath.Join(libraryRoot, "steamapps")
		require.NoError(t, os.MkdirAll(librarySteamApps, 0o750))
		createMockManifest(t, librarySteamApps, 105600, "Terraria")

		content := `"libraryfolders"
{
	"0"
	{
		"path"		"` + escapeVDFPath(libraryRoot) + `"
	}
}`
		//nolint:gosec // G306: test file permissions are fine
		require.NoError(t, os.WriteFile(
			filepath.Join(steamRoot, "config", "libraryfolders.vdf"), []byte(content), 0o644))

		info, ok := LookupApp(mainDir, 105600)

		require.True(t, ok)
		assert.Equal(t, "Terraria", info.Name)
	})

	t.Run("skips_libraries_without_app", func(t *testing.T) {
		t.Parallel()

		mainDir := t.TempDir()
		libraryRoot := t.TempDir()

		content := `"libraryfolders"
{
	"1"
	{
		"path"		"` + escapeVDFPath(libraryRoot) + `"
		"apps"
		{
			"999"		"1"
		}
	}
}`
		//nolint:gosec // G306: test file permissions are fine
		require.NoError(t, os.WriteFile(
			filepath.Join(mainDir, "libraryfolders.vdf"), []byte(content), 0o644))

		_, ok := LookupApp(mainDir, 440)

		assert.False(t, ok)
	})

	t.Run("returns_false_when_not_found", func(t *testing.T) {
		t.Parallel()

		_, ok := LookupApp(t.TempDir(), 12345)

		assert.False(t, ok)
	})
}

func TestFindSteamAppsDir(t *testing.T) {
	t.Parallel()

	t.Run("finds_lowercase", func(t *testing.T) {
		t.Parallel()

		steamDir := t.TempDir()
		expected := filepath.Join(steamDir, "steamapps")
		require.NoError(t, os.MkdirAll(expected, 0o750))

		assert.Equal(t, expected, FindSteamAppsDir(steamDir))
	})

	t.Run("falls_back_to_default", func(t *testing.T) {
		t.Parallel()

		steamDir := t.TempDir()

		assert.Equal(t, filepath.Join(steamDir, "steamapps"), FindSteamAppsDir(steamDir))
	})
}

func TestFormatGameName(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Half-Life 2", FormatGameName(220, "Half-Life 2"))
	assert.Equal(t, "Steam Game 220", FormatGameName(220, ""))
}
