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

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// reloadDebounce coalesces the burst of write events editors produce when
// saving a file.
const reloadDebounce = 250 * time.Millisecond

// StartFileWatch reloads the config whenever the file changes on disk and
// then runs onChange. The parent directory is watched rather than the file
// itself so editors that replace the file via rename keep triggering events.
// The caller is responsible for closing the returned watcher.
func StartFileWatch(cfg *Instance, onChange func()) (*fsnotify.Watcher, error) {
	log.Info().Msg("starting config file watcher")

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	cfgPath := cfg.Path()

	go func() {
		var pending *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(cfgPath) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if pending != nil {
					pending.Stop()
				}
				pending = time.AfterFunc(reloadDebounce, func() {
					if err := cfg.Load(); err != nil {
						log.Error().Err(err).Msg("error reloading config, keeping previous values")
						return
					}
					log.Info().Msg("config reloaded from disk")
					if onChange != nil {
						onChange()
					}
				})
			case watchErr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Error().Msgf("error in config watcher: %s", watchErr)
			}
		}
	}()

	if err := watcher.Add(filepath.Dir(cfgPath)); err != nil {
		closeErr := watcher.Close()
		if closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing config watcher")
		}
		return nil, fmt.Errorf("failed to watch config directory: %w", err)
	}

	return watcher, nil
}
