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
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/VaporProject/vapor/pkg/platforms"
	"github.com/VaporProject/vapor/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gameProc(pid, ppid int32, exe string, created int64) platforms.ProcessInfo {
	return platforms.ProcessInfo{
		Name:       filepath.Base(exe),
		Exe:        exe,
		PID:        pid,
		PPID:       ppid,
		CreateTime: created,
	}
}

func TestGameProcesses(t *testing.T) {
	t.Parallel()

	installPath := filepath.Join(t.TempDir(), "common", "Portal 2")
	gameExe := filepath.Join(installPath, "portal2.exe")
	helperExe := filepath.Join(installPath, "bin", "helper.exe")

	t.Run("matches_by_path_prefix", func(t *testing.T) {
		t.Parallel()

		procs := []platforms.ProcessInfo{
			gameProc(100, 1, `C:\Windows\explorer.exe`, 10),
			gameProc(200, 1, gameExe, 20),
			gameProc(201, 200, helperExe, 30),
		}

		game := GameProcesses(procs, installPath)

		require.Len(t, game, 2)
		assert.Equal(t, int32(200), game[0].PID)
		assert.Equal(t, int32(201), game[1].PID)
	})

	t.Run("pulls_in_descendants_outside_install_dir", func(t *testing.T) {
		t.Parallel()

		outside := filepath.Join(t.TempDir(), "runtime", "overlay.exe")
		procs := []platforms.ProcessInfo{
			gameProc(200, 1, gameExe, 20),
			gameProc(300, 200, outside, 40),
			// grandchild of the game process
			gameProc(301, 300, outside, 50),
			gameProc(400, 1, outside, 60),
		}

		game := GameProcesses(procs, installPath)

		require.Len(t, game, 3)
		pids := []int32{game[0].PID, game[1].PID, game[2].PID}
		assert.Equal(t, []int32{200, 300, 301}, pids)
	})

	t.Run("matches_case_insensitively", func(t *testing.T) {
		t.Parallel()

		upper := filepath.Join(installPath, "PORTAL2.EXE")
		procs := []platforms.ProcessInfo{gameProc(200, 1, upper, 20)}

		assert.Len(t, GameProcesses(procs, installPath), 1)
	})

	t.Run("empty_install_path_matches_nothing", func(t *testing.T) {
		t.Parallel()

		procs := []platforms.ProcessInfo{gameProc(200, 1, gameExe, 20)}

		assert.Empty(t, GameProcesses(procs, ""))
	})

	t.Run("skips_processes_without_exe", func(t *testing.T) {
		t.Parallel()

		procs := []platforms.ProcessInfo{gameProc(200, 1, "", 20)}

		assert.Empty(t, GameProcesses(procs, installPath))
	})
}

func TestPrimaryProcess(t *testing.T) {
	t.Parallel()

	t.Run("picks_tree_root", func(t *testing.T) {
		t.Parallel()

		procs := []platforms.ProcessInfo{
			gameProc(200, 1, "game.exe", 20),
			gameProc(201, 200, "helper.exe", 30),
			gameProc(202, 201, "crashpad.exe", 40),
		}

		primary, ok := PrimaryProcess(procs)

		require.True(t, ok)
		assert.Equal(t, int32(200), primary.PID)
	})

	t.Run("oldest_root_wins", func(t *testing.T) {
		t.Parallel()

		// Two roots: launcher replaced by the real game, launcher gone.
		procs := []platforms.ProcessInfo{
			gameProc(300, 1, "game.exe", 25),
			gameProc(400, 2, "other.exe", 50),
		}

		primary, ok := PrimaryProcess(procs)

		require.True(t, ok)
		assert.Equal(t, int32(300), primary.PID)
	})

	t.Run("empty_set", func(t *testing.T) {
		t.Parallel()

		_, ok := PrimaryProcess(nil)

		assert.False(t, ok)
	})
}

func TestWaitForGameProcesses(t *testing.T) {
	t.Parallel()

	t.Run("returns_immediately_when_running", func(t *testing.T) {
		t.Parallel()

		pl := mocks.NewMockPlatform(t.TempDir())
		installPath := filepath.Join(`C:\games`, "Portal 2")
		pl.AddProcess("portal2.exe", filepath.Join(installPath, "portal2.exe"))

		procs, err := WaitForGameProcesses(
			context.Background(), clockwork.NewFakeClock(), pl, installPath)

		require.NoError(t, err)
		assert.Len(t, procs, 1)
	})

	t.Run("retries_until_process_appears", func(t *testing.T) {
		t.Parallel()

		pl := mocks.NewMockPlatform(t.TempDir())
		installPath := filepath.Join(`C:\games`, "Portal 2")
		clock := clockwork.NewFakeClock()

		type result struct {
			err   error
			procs []platforms.ProcessInfo
		}
		done := make(chan result, 1)
		go func() {
			procs, err := WaitForGameProcesses(context.Background(), clock, pl, installPath)
			done <- result{err: err, procs: procs}
		}()

		// First attempt finds nothing and blocks on the retry delay.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, clock.BlockUntilContext(ctx, 1))

		pl.AddProcess("portal2.exe", filepath.Join(installPath, "portal2.exe"))
		clock.Advance(resolveDelay)

		select {
		case res := <-done:
			require.NoError(t, res.err)
			assert.Len(t, res.procs, 1)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for resolution")
		}
	})

	t.Run("gives_up_after_max_attempts", func(t *testing.T) {
		t.Parallel()

		pl := mocks.NewMockPlatform(t.TempDir())
		clock := clockwork.NewFakeClock()

		done := make(chan error, 1)
		go func() {
			_, err := WaitForGameProcesses(
				context.Background(), clock, pl, `C:\games\Nothing`)
			done <- err
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for range resolveAttempts - 1 {
			require.NoError(t, clock.BlockUntilContext(ctx, 1))
			clock.Advance(resolveDelay)
		}

		select {
		case err := <-done:
			require.Error(t, err)
			assert.Contains(t, err.Error(), "after 10 attempts")
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for failure")
		}
	})

	t.Run("canceled_context_stops_waiting", func(t *testing.T) {
		t.Parallel()

		pl := mocks.NewMockPlatform(t.TempDir())
		clock := clockwork.NewFakeClock()
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan error, 1)
		go func() {
			_, err := WaitForGameProcesses(ctx, clock, pl, `C:\games\Nothing`)
			done <- err
		}()

		waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer waitCancel()
		require.NoError(t, clock.BlockUntilContext(waitCtx, 1))
		cancel()

		select {
		case err := <-done:
			require.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for cancel")
		}
	})
}
