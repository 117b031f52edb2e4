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
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/VaporProject/vapor/pkg/platforms"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	resolveAttempts = 10
	resolveDelay    = time.Second
)

func normalizePath(p string) string {
	return strings.ToLower(filepath.Clean(p))
}

// GameProcesses returns every process belonging to a game install: those
// whose exe lives under installPath, plus their descendants. Games often
// run helpers from outside their install dir (anti-cheat, embedded
// runtimes), which only the parent links reveal.
func GameProcesses(procs []platforms.ProcessInfo, installPath string) []platforms.ProcessInfo {
	if installPath == "" {
		return nil
	}
	prefix := normalizePath(installPath) + string(filepath.Separator)

	matched := make(map[int32]platforms.ProcessInfo)
	for _, p := range procs {
		if p.Exe != "" && strings.HasPrefix(normalizePath(p.Exe), prefix) {
			matched[p.PID] = p
		}
	}
	if len(matched) == 0 {
		return nil
	}

	// Pull in descendants until the set stops growing.
	for {
		grew := false
		for _, p := range procs {
			if _, ok := matched[p.PID]; ok {
				continue
			}
			if _, ok := matched[p.PPID]; ok {
				matched[p.PID] = p
				grew = true
			}
		}
		if !grew {
			break
		}
	}

	result := make([]platforms.ProcessInfo, 0, len(matched))
	for _, p := range matched {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreateTime != result[j].CreateTime {
			return result[i].CreateTime < result[j].CreateTime
		}
		return result[i].PID < result[j].PID
	})
	return result
}

// PrimaryProcess picks the process to track for session liveness: the root
// of the game's process tree, oldest first when several roots exist.
func PrimaryProcess(procs []platforms.ProcessInfo) (platforms.ProcessInfo, bool) {
	if len(procs) == 0 {
		return platforms.ProcessInfo{}, false
	}

	pids := make(map[int32]struct{}, len(procs))
	for _, p := range procs {
		pids[p.PID] = struct{}{}
	}

	for _, p := range procs {
		if _, parentInSet := pids[p.PPID]; !parentInSet {
			return p, true
		}
	}
	// All parents are in the set, which means a cycle in stale PPID data.
	// The slice is create-time ordered, take the oldest.
	return procs[0], true
}

// WaitForGameProcesses polls the process table until the game has at least
// one process. Steam flips RunningAppID before the game's exe starts, so
// the first polls routinely come up empty.
func WaitForGameProcesses(
	ctx context.Context,
	clock clockwork.Clock,
	pl platforms.Platform,
	installPath string,
) ([]platforms.ProcessInfo, error) {
	for attempt := 1; attempt <= resolveAttempts; attempt++ {
		procs, err := pl.Processes()
		if err != nil {
			log.Debug().Err(err).Msg("failed to list processes")
		} else if game := GameProcesses(procs, installPath); len(game) > 0 {
			return game, nil
		}

		if attempt == resolveAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("game process resolution canceled: %w", ctx.Err())
		case <-clock.After(resolveDelay):
		}
	}
	return nil, fmt.Errorf("no game processes under %s after %d attempts",
		installPath, resolveAttempts)
}
