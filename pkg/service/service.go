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

// Package service wires the session lifecycle together: the Steam
// detector feeds the state machine, the coordinator applies and reverts
// system mutations around each session, and trackers record history and
// temperatures. Notifications fan out to the tray and any configured
// publishers through the broker.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/VaporProject/vapor/pkg/audio"
	"github.com/VaporProject/vapor/pkg/config"
	"github.com/VaporProject/vapor/pkg/database"
	"github.com/VaporProject/vapor/pkg/database/historydb"
	"github.com/VaporProject/vapor/pkg/helpers"
	"github.com/VaporProject/vapor/pkg/helpers/command"
	"github.com/VaporProject/vapor/pkg/journal"
	"github.com/VaporProject/vapor/pkg/platforms"
	"github.com/VaporProject/vapor/pkg/service/broker"
	"github.com/VaporProject/vapor/pkg/service/events"
	"github.com/VaporProject/vapor/pkg/service/publishers"
	"github.com/VaporProject/vapor/pkg/service/state"
	"github.com/VaporProject/vapor/pkg/steam"
	"github.com/VaporProject/vapor/pkg/temperature"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

var errUnknownPowerPlan = errors.New("unknown power plan")

func setupEnvironment(pl platforms.Platform) error {
	if _, ok := helpers.HasUserDir(); ok {
		log.Info().Msg("using 'user' directory for storage")
	}

	log.Info().Msg("creating platform directories")
	dirs := []string{
		helpers.ConfigDir(pl),
		pl.Settings().TempDir,
		helpers.DataDir(pl),
	}
	for _, dir := range dirs {
		err := os.MkdirAll(dir, 0o750)
		if err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

func makeDatabase(ctx context.Context, pl platforms.Platform) (*database.Database, error) {
	db := &database.Database{History: nil}

	log.Debug().Msg("opening history database")
	historyDB, err := historydb.OpenHistoryDB(ctx, pl)
	if err != nil {
		return db, fmt.Errorf("failed to open history database: %w", err)
	}

	log.Debug().Msg("running history database migrations")
	err = historyDB.MigrateUp()
	if err != nil {
		return db, fmt.Errorf("error migrating history database: %w", err)
	}

	db.History = historyDB
	return db, nil
}

// cleanupHistoryOnStartup closes rows left open by an unclean shutdown and
// applies the configured retention.
func cleanupHistoryOnStartup(cfg *config.Instance, db *database.Database) {
	log.Info().Msg("closing hanging session history entries")
	closed, err := db.History.CloseHangingSessions()
	switch {
	case err != nil:
		log.Error().Err(err).Msg("error closing hanging session entries")
	case closed > 0:
		log.Info().Msgf("closed %d hanging session entries", closed)
	}

	retention := cfg.HistoryRetentionDays()
	if retention > 0 {
		log.Info().Msgf("cleaning up session history older than %d days", retention)
		rowsDeleted, cleanupErr := db.History.CleanupSessions(retention)
		switch {
		case cleanupErr != nil:
			log.Error().Err(cleanupErr).Msg("error cleaning up session history")
		case rowsDeleted > 0:
			log.Info().Msgf("deleted %d old session history entries", rowsDeleted)
		default:
			log.Debug().Msg("no old session history entries to clean up")
		}
	} else {
		log.Debug().Msg("session history cleanup disabled (retention set to 0)")
	}
}

// Service is the running instance handle returned by Start. The tray menu
// drives pause, close-apps and export through it.
type Service struct {
	st      *state.State
	broker  *broker.Broker
	monitor *sessionMonitor
	db      *database.Database
	pl      platforms.Platform
	cfg     *config.Instance
	player  audio.Player
	done    chan struct{}
}

// Stop shuts the service down and blocks until cleanup has finished.
func (s *Service) Stop() error {
	s.st.StopService()
	<-s.done
	return nil
}

// Notifications subscribes to the event stream. The returned function
// cancels the subscription.
func (s *Service) Notifications(bufferSize int) (<-chan events.Notification, func()) {
	ch, id := s.broker.Subscribe(bufferSize)
	return ch, func() { s.broker.Unsubscribe(id) }
}

// SetPaused suspends or resumes game detection.
func (s *Service) SetPaused(paused bool) {
	s.st.SetPaused(paused)
}

// Paused reports whether game detection is suspended.
func (s *Service) Paused() bool {
	return s.st.Paused()
}

// ActiveSession returns a copy of the current session, or nil.
func (s *Service) ActiveSession() *state.Session {
	return s.st.ActiveSession()
}

// LastSummary returns the most recent session summary, or nil.
func (s *Service) LastSummary() *events.SessionSummaryParams {
	return s.st.LastSummary()
}

// CloseAppsNow closes the configured apps mid-session, same as the global
// hotkey.
func (s *Service) CloseAppsNow() {
	s.monitor.CloseAppsNow()
}

// ReloadSettings re-reads the settings file on demand, same as the file
// watcher does after an external edit.
func (s *Service) ReloadSettings() error {
	if err := s.cfg.Load(); err != nil {
		return fmt.Errorf("failed to reload settings: %w", err)
	}
	applyReloadedSettings(s.pl, s.cfg, s.player)
	events.SettingsReloaded(s.st.Notifications)
	return nil
}

// ExportHistory writes the session history as CSV to a timestamped file
// under the data directory and returns its path.
func (s *Service) ExportHistory() (string, error) {
	path := DefaultExportPath(s.pl, time.Now())
	if err := ExportHistoryCSV(s.db, afero.NewOsFs(), path); err != nil {
		return "", err
	}
	return path, nil
}

// Start brings the whole service up and returns a handle that tears it
// down, unwinding any session still active at that point.
func Start(
	pl platforms.Platform,
	cfg *config.Instance,
) (svc *Service, err error) {
	log.Info().Msgf("version: %s", config.AppVersion)

	bootUUID := uuid.New().String()
	log.Info().Msgf("boot session UUID: %s", bootUUID)

	clock := clockwork.NewRealClock()

	st, ns := state.NewState(bootUUID) // global state, notification queue (source)

	notifBroker := broker.NewBroker(st.GetContext(), ns)
	notifBroker.Start()

	err = setupEnvironment(pl)
	if err != nil {
		log.Error().Err(err).Msg("error setting up environment")
		return nil, err
	}

	log.Info().Msg("running platform pre start")
	err = pl.StartPre(cfg)
	if err != nil {
		log.Error().Err(err).Msg("platform start pre error")
		return nil, fmt.Errorf("platform start pre failed: %w", err)
	}

	log.Info().Msg("opening history database")
	db, err := makeDatabase(st.GetContext(), pl)
	if err != nil {
		log.Error().Err(err).Msg("error opening history database")
		return nil, err
	}

	cleanupHistoryOnStartup(cfg, db)

	log.Info().Msg("opening mutation journal")
	jour, err := journal.Open(pl, clock)
	if err != nil {
		log.Error().Err(err).Msg("error opening mutation journal")
		return nil, err
	}

	coord := newCoordinator(pl, cfg, jour, clock)

	// Undo anything a previous run left applied before this run touches
	// the system.
	coord.RollbackStale()

	log.Info().Msg("starting temperature tracker")
	player := audio.NewMalgoPlayer()
	chime := audio.AlertChime(cfg, pl, player)
	tempTracker := temperature.NewTracker(cfg, db, clock, st.Notifications,
		func() *temperature.Sampler {
			return temperature.DefaultSampler(&command.RealExecutor{})
		}, chime)

	tracker := newSessionTracker(pl, db, st, clock)
	go tracker.updatePlayTime(st.GetContext())

	monitor := newSessionMonitor(pl, cfg, st, coord, tempTracker, tracker, clock)

	log.Info().Msg("starting steam detector")
	detector := steam.NewDetector(cfg, steam.NewSource(), clock)
	monitor.Bind(detector)
	detector.Start()

	unregisterHotkey := registerCloseAppsHotkey(pl, cfg, monitor)

	log.Info().Msg("starting publishers")
	publisherNotifications, _ := notifBroker.Subscribe(100)
	activePublishers, cancelPublisherFanOut := startPublishers(st, cfg, publisherNotifications)

	log.Info().Msg("starting config file watcher")
	cfgWatcher, err := config.StartFileWatch(cfg, func() {
		applyReloadedSettings(pl, cfg, player)
		events.SettingsReloaded(st.Notifications)
	})
	if err != nil {
		log.Warn().Err(err).Msg("config file watching unavailable, edits need a manual reload")
	}

	log.Info().Msg("running platform post start")
	err = pl.StartPost(cfg)
	if err != nil {
		log.Error().Err(err).Msg("platform post start error")
		return nil, fmt.Errorf("platform start post failed: %w", err)
	}

	events.Running(st.Notifications, events.RunningParams{
		Version:  config.AppVersion,
		BootUUID: bootUUID,
	})
	log.Info().Msg("service fully initialized")

	doneCh := make(chan struct{})
	go func() {
		<-st.GetContext().Done()
		log.Info().Msg("service context cancelled, running cleanup")

		detector.Stop()
		if unregisterHotkey != nil {
			if hkErr := unregisterHotkey(); hkErr != nil {
				log.Warn().Err(hkErr).Msg("error unregistering hotkey")
			}
		}
		if cfgWatcher != nil {
			if watchErr := cfgWatcher.Close(); watchErr != nil {
				log.Warn().Err(watchErr).Msg("error closing config watcher")
			}
		}

		// A game may still be running; its session mutations must not
		// outlive the service.
		monitor.Shutdown()

		cancelPublisherFanOut()
		for _, publisher := range activePublishers {
			publisher.Stop()
		}
		if stopErr := pl.Stop(); stopErr != nil {
			log.Warn().Msgf("error stopping platform: %s", stopErr)
		}
		notifBroker.Stop()

		if closeErr := jour.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing mutation journal")
		}
		if closeErr := db.History.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("error closing history database")
		}

		log.Info().Msg("service cleanup completed")
		close(doneCh)
	}()

	return &Service{
		st:      st,
		broker:  notifBroker,
		monitor: monitor,
		db:      db,
		pl:      pl,
		cfg:     cfg,
		player:  player,
		done:    doneCh,
	}, nil
}

// registerCloseAppsHotkey binds the configured chord to the close-apps
// action. Returns nil when the hotkey is disabled or registration failed.
func registerCloseAppsHotkey(
	pl platforms.Platform,
	cfg *config.Instance,
	monitor *sessionMonitor,
) func() error {
	chord := cfg.CloseAppsHotkey()
	if chord == "" {
		return nil
	}

	unregister, err := pl.RegisterHotkey(chord, monitor.CloseAppsNow)
	if err != nil {
		if errors.Is(err, platforms.ErrNotSupported) {
			log.Debug().Msg("global hotkeys not supported on this platform")
		} else {
			log.Warn().Err(err).Str("chord", chord).Msg("failed to register close apps hotkey")
		}
		return nil
	}
	log.Info().Str("chord", chord).Msg("registered close apps hotkey")
	return unregister
}

// applyReloadedSettings pushes reloaded config values into the components
// that do not read the config on every use.
func applyReloadedSettings(pl platforms.Platform, cfg *config.Instance, player audio.Player) {
	// Custom alert sounds are cached; a reload may point at a new file.
	player.ClearFileCache()

	registered, err := pl.StartOnLogin()
	if err != nil {
		if !errors.Is(err, platforms.ErrNotSupported) {
			log.Warn().Err(err).Msg("failed to read login item state")
		}
		return
	}
	if want := cfg.StartWithWindows(); want != registered {
		if err := pl.SetStartOnLogin(want); err != nil {
			log.Warn().Err(err).Msg("failed to update login item")
		} else {
			log.Info().Bool("enabled", want).Msg("updated start with Windows")
		}
	}
}

// startPublishers initializes the configured publishers and starts the
// fan-out goroutine feeding them. The fan-out always runs, even with no
// publishers, so the subscriber channel keeps draining.
func startPublishers(
	st *state.State,
	cfg *config.Instance,
	notifChan <-chan events.Notification,
) ([]*publishers.MQTTPublisher, context.CancelFunc) {
	activePublishers := make([]*publishers.MQTTPublisher, 0)

	for _, mqttCfg := range cfg.GetMQTTPublishers() {
		// nil = enabled by default
		if mqttCfg.Enabled != nil && !*mqttCfg.Enabled {
			continue
		}

		log.Info().Msgf("starting MQTT publisher: %s (topic: %s)", mqttCfg.Broker, mqttCfg.Topic)

		publisher := publishers.NewMQTTPublisher(mqttCfg.Broker, mqttCfg.Topic, mqttCfg.Filter)
		if err := publisher.Start(); err != nil {
			log.Error().Err(err).Msgf("failed to start MQTT publisher for %s", mqttCfg.Broker)
			continue
		}

		activePublishers = append(activePublishers, publisher)
	}

	if len(activePublishers) > 0 {
		log.Info().Msgf("started %d MQTT publisher(s)", len(activePublishers))
	}

	ctx, cancel := context.WithCancel(st.GetContext())
	go func() {
		for {
			select {
			case <-ctx.Done():
				log.Debug().Msg("mqtt publisher fan-out: stopping")
				return
			case notif, ok := <-notifChan:
				if !ok {
					log.Debug().Msg("mqtt publisher fan-out: notification channel closed")
					return
				}
				for _, pub := range activePublishers {
					if err := pub.Publish(notif); err != nil {
						log.Warn().Err(err).Msgf("failed to publish %s notification", notif.Method)
					}
				}
			}
		}
	}()

	return activePublishers, cancel
}
