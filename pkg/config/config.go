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
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/VaporProject/vapor/pkg/helpers/syncutil"
	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "VAPOR_CFG"
	AppEnv        = "VAPOR_APP"
)

type Values struct {
	Monitor      Monitor     `toml:"monitor,omitempty"`
	Apps         Apps        `toml:"apps,omitempty"`
	Hotkey       Hotkey      `toml:"hotkey,omitempty"`
	Volume       Volume      `toml:"volume,omitempty"`
	Power        Power       `toml:"power,omitempty"`
	GameMode     GameMode    `toml:"gamemode,omitempty"`
	Temperature  Temperature `toml:"temperature,omitempty"`
	History      History     `toml:"history,omitempty"`
	Service      Service     `toml:"service,omitempty"`
	ConfigSchema int         `toml:"config_schema"`
	DebugLogging bool        `toml:"debug_logging"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Monitor: Monitor{
		PollInterval: 3,
	},
	Apps: Apps{
		CloseNotificationApps: true,
		CloseResourceApps:     true,
		RelaunchAfterSession:  true,
		NotificationProcesses: []string{
			"WhatsApp.Root.exe",
			"Telegram.exe",
			"ms-teams.exe",
			"Messenger.exe",
			"slack.exe",
			"Signal.exe",
			"WeChat.exe",
		},
		ResourceProcesses: []string{
			"spotify.exe",
			"OneDrive.exe",
			"GoogleDriveFS.exe",
			"Dropbox.exe",
			"wallpaper64.exe",
		},
	},
	Hotkey: Hotkey{
		CloseApps: "ctrl+alt+k",
	},
	Volume: Volume{
		ManageSystemVolume: true,
		SystemLevel:        33,
		ManageGameVolume:   true,
		GameLevel:          100,
	},
	Power: Power{
		DuringSession: PowerPlanHighPerformance,
		AfterSession:  PowerPlanBalanced,
	},
	GameMode: GameMode{
		Enabled: true,
	},
	Temperature: Temperature{
		Enabled:            true,
		SampleInterval:     10,
		CPUWarning:         85,
		CPUCritical:        95,
		GPUWarning:         80,
		GPUCritical:        90,
		RespectFocusAssist: true,
	},
	History: History{
		SessionsPerGame: 100,
	},
}

type Instance struct {
	appPath  string
	cfgPath  string
	vals     Values
	defaults Values
	mu       syncutil.RWMutex
}

//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := os.Getenv(CfgEnv)
	log.Debug().Msgf("env config path: %s", cfgPath)

	if cfgPath == "" {
		cfgPath = filepath.Join(configDir, CfgFile)
	}

	cfg := Instance{
		mu:       syncutil.RWMutex{},
		appPath:  os.Getenv(AppEnv),
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := os.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	if _, err := os.Stat(c.cfgPath); err != nil {
		return fmt.Errorf("failed to stat config file: %w", err)
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top.
	// This ensures fields not present in the file retain their default values.
	newVals := c.defaults
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return errors.New("schema version mismatch")
	}

	if err := validateValues(&newVals); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	c.vals = newVals

	// prepare case-folded process sets for matching
	c.vals.Apps.notificationSet = newProcessSet(c.vals.Apps.NotificationProcesses)
	c.vals.Apps.resourceSet = newProcessSet(c.vals.Apps.ResourceProcesses)

	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	// set current schema version
	c.vals.ConfigSchema = SchemaVersion

	// generate a device id if one doesn't exist
	if c.vals.Service.DeviceID == "" {
		newID := uuid.New().String()
		c.vals.Service.DeviceID = newID
		log.Info().Msgf("generated new device id: %s", newID)
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Path returns the path of the loaded config file on disk.
func (c *Instance) Path() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfgPath
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

func newProcessSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return set
}
