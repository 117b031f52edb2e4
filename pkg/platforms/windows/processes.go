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
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"syscall"
	"time"

	"github.com/VaporProject/vapor/pkg/helpers"
	"github.com/VaporProject/vapor/pkg/platforms"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"
	"golang.org/x/sys/windows"
)

const stillActive = 259 // STILL_ACTIVE exit code for running processes

// terminatePollInterval is how often a closing process is re-checked while
// waiting out the grace period.
const terminatePollInterval = 200 * time.Millisecond

func (*Platform) Processes() ([]platforms.ProcessInfo, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	infos := make([]platforms.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			// Processes can die between the snapshot and this query.
			continue
		}

		info := platforms.ProcessInfo{
			PID:  p.Pid,
			Name: name,
		}

		// Best effort: access to these is denied for protected processes.
		if exe, err := p.Exe(); err == nil {
			info.Exe = exe
		}
		if cmdline, err := p.CmdlineSlice(); err == nil {
			info.Cmdline = cmdline
		}
		if created, err := p.CreateTime(); err == nil {
			info.CreateTime = created
		}
		if ppid, err := p.Ppid(); err == nil {
			info.PPID = ppid
		}

		infos = append(infos, info)
	}

	return infos, nil
}

func (*Platform) IsProcessRunning(pid int32) (bool, error) {
	if pid <= 0 {
		return false, nil
	}

	// PROCESS_QUERY_LIMITED_INFORMATION is the minimum access required to
	// query the exit code.
	//nolint:gosec // G115: Windows PIDs are 32-bit, positive check above ensures safe conversion
	handle, err := windows.OpenProcess(windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		// If the process can't be opened it's gone (or inaccessible, which
		// we treat the same for session tracking).
		return false, nil //nolint:nilerr // inaccessible means not tracked
	}
	defer func() { _ = windows.CloseHandle(handle) }()

	var exitCode uint32
	if err := windows.GetExitCodeProcess(handle, &exitCode); err != nil {
		return false, fmt.Errorf("failed to get exit code for pid %d: %w", pid, err)
	}

	return exitCode == stillActive, nil
}

// TerminateProcess asks the process to close its windows first, then kills
// it once the grace period runs out.
func (p *Platform) TerminateProcess(ctx context.Context, pid int32, grace time.Duration) error {
	running, err := p.IsProcessRunning(pid)
	if err != nil {
		return err
	}
	if !running {
		return nil
	}

	// taskkill without /F delivers WM_CLOSE, giving the app a chance to
	// flush state before it goes away.
	gracefulCtx, cancel := context.WithTimeout(ctx, grace)
	defer cancel()

	out, err := exec.CommandContext(gracefulCtx, "taskkill", "/PID", strconv.Itoa(int(pid))).CombinedOutput()
	if err != nil {
		log.Debug().Err(err).Str("output", string(out)).Int32("pid", pid).
			Msg("graceful close request failed, will fall back to kill")
	}

	ticker := time.NewTicker(terminatePollInterval)
	defer ticker.Stop()

	for {
		running, err := p.IsProcessRunning(pid)
		if err != nil {
			return err
		}
		if !running {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("terminate cancelled for pid %d: %w", pid, ctx.Err())
		case <-gracefulCtx.Done():
			return killProcess(pid)
		case <-ticker.C:
		}
	}
}

func killProcess(pid int32) error {
	//nolint:gosec // G115: Windows PIDs are 32-bit
	handle, err := windows.OpenProcess(windows.PROCESS_TERMINATE, false, uint32(pid))
	if err != nil {
		// Gone between the last liveness check and now.
		return nil //nolint:nilerr // already exited
	}
	defer func() { _ = windows.CloseHandle(handle) }()

	if err := windows.TerminateProcess(handle, 1); err != nil {
		return fmt.Errorf("failed to kill pid %d: %w", pid, err)
	}

	log.Info().Int32("pid", pid).Msg("process killed after grace period")
	return nil
}

// LaunchDetached starts a program in its own process group so it survives
// the service exiting.
func (*Platform) LaunchDetached(path string, args ...string) error {
	cmd := exec.Command(path, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: windows.DETACHED_PROCESS | windows.CREATE_NEW_PROCESS_GROUP,
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch %s: %w", path, err)
	}

	// Detach fully: the child is not waited on.
	if err := cmd.Process.Release(); err != nil {
		return fmt.Errorf("failed to release process handle: %w", err)
	}

	return nil
}

func (*Platform) BootTime() (time.Time, error) {
	uptime, err := helpers.GetSystemUptime()
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read system uptime: %w", err)
	}
	return time.Now().Add(-uptime), nil
}
