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

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/VaporProject/vapor/internal/telemetry"
	"github.com/VaporProject/vapor/pkg/config"
	"github.com/VaporProject/vapor/pkg/config/migrate"
	"github.com/VaporProject/vapor/pkg/database"
	"github.com/VaporProject/vapor/pkg/database/historydb"
	"github.com/VaporProject/vapor/pkg/helpers"
	"github.com/VaporProject/vapor/pkg/platforms/windows"
	"github.com/VaporProject/vapor/pkg/service"
	"github.com/VaporProject/vapor/pkg/ui/systray"
	"github.com/nixinwang/dialog"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

func fatal(msg string, err error) {
	log.Error().Err(err).Msg(msg)
	dialog.Message("%s:\n%s", msg, err).Title("Vapor").Error()
	telemetry.Flush()
	os.Exit(1)
}

func main() {
	versionFlag := flag.Bool("version", false, "print version and exit")
	exportPath := flag.String("export-history", "", "export session history to CSV at the given path and exit")
	reloadFlag := flag.Bool("reload", false, "tell the running instance to reload settings and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("vapor v%s\n", config.AppVersion)
		os.Exit(0)
	}

	pl := windows.NewPlatform()

	if *reloadFlag {
		if err := windows.SendControl(windows.ControlReload); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Vapor is not running: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Settings reload requested")
		os.Exit(0)
	}

	cfg := loadConfig(pl)

	if *exportPath != "" {
		exportHistory(pl, *exportPath)
		os.Exit(0)
	}

	if windows.InstanceRunning() {
		dialog.Message("Vapor is already running.\nCheck the system tray.").
			Title("Vapor").Info()
		os.Exit(0)
	}

	if cfg.DebugLogging() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	logWriters := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}}
	sentryWriter, err := telemetry.Init(
		cfg.ErrorReporting(), cfg.DeviceID(), config.AppVersion, pl.ID())
	if err != nil {
		// Reporting failures must never stop the app from starting.
		log.Warn().Err(err).Msg("error reporting unavailable")
	} else if sentryWriter != nil {
		logWriters = append(logWriters, sentryWriter)
	}
	if err := helpers.InitLogging(pl, logWriters); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}

	svc, err := service.Start(pl, cfg)
	if err != nil {
		fatal("Error starting Vapor", err)
	}

	control := windows.NewControlServer(func(cmd string) {
		if cmd == windows.ControlReload {
			if reloadErr := svc.ReloadSettings(); reloadErr != nil {
				log.Error().Err(reloadErr).Msg("error reloading settings via control pipe")
			}
		}
	})
	if err := control.Start(); err != nil {
		// Lost a race with another starting instance.
		log.Error().Err(err).Msg("error starting control server")
		_ = svc.Stop()
		os.Exit(1)
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		systray.Quit()
	}()

	systray.Run(cfg, pl, svc, func() {
		control.Stop()
		if stopErr := svc.Stop(); stopErr != nil {
			log.Error().Err(stopErr).Msg("error stopping service")
		}
		telemetry.Close()
	})
}

// loadConfig reads the settings file, importing a 1.x JSON settings file
// first if one is present and the TOML file is not.
func loadConfig(pl *windows.Platform) *config.Instance {
	defaults := config.BaseDefaults

	configDir := helpers.ConfigDir(pl)
	legacyPath := filepath.Join(configDir, config.LegacySettingsFile)
	if migrate.Required(legacyPath, filepath.Join(configDir, config.CfgFile)) {
		migrated, err := migrate.JSONToToml(legacyPath)
		if err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Error migrating settings: %v\n", err)
			os.Exit(1)
		}
		defaults = migrated
	}

	cfg, err := config.NewConfig(configDir, defaults)
	if err != nil {
		fatal("Error loading settings", err)
	}
	return cfg
}

// exportHistory implements the -export-history flag: open the history
// database directly, write the CSV, exit.
func exportHistory(pl *windows.Platform, path string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	historyDB, err := historydb.OpenHistoryDB(ctx, pl)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error opening history database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = historyDB.Close()
	}()
	if err := historyDB.MigrateUp(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error migrating history database: %v\n", err)
		os.Exit(1)
	}

	db := &database.Database{History: historyDB}
	if err := service.ExportHistoryCSV(db, afero.NewOsFs(), path); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error exporting history: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Exported session history to", path)
}
