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

package temperature

import (
	"context"
	"time"

	"github.com/VaporProject/vapor/pkg/config"
	"github.com/VaporProject/vapor/pkg/database"
	"github.com/VaporProject/vapor/pkg/helpers/syncutil"
	"github.com/VaporProject/vapor/pkg/service/events"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ChimeFunc plays the audible cue for an alert level. Implementations
// decide whether quiet hours suppress the sound; the alert event itself is
// always emitted.
type ChimeFunc func(level string)

// Maxima is the per-session peak summary handed back when sampling stops.
type Maxima struct {
	CPU    float64
	GPU    float64
	HasCPU bool
	HasGPU bool
}

type alertKey struct {
	sensor string
	level  string
}

type thresholds struct {
	cpuWarning  int
	cpuCritical int
	gpuWarning  int
	gpuCritical int
}

// sessionRun is the sampling state of one game session.
type sessionRun struct {
	startedAt time.Time
	cancel    context.CancelFunc
	done      chan struct{}
	sampler   *Sampler
	fired     map[alertKey]bool
	gameName  string
	appID     int64

	mu      syncutil.RWMutex
	first   Reading
	latest  Reading
	maxima  Maxima
	sampled bool
}

// Tracker samples temperatures while a game session is active, emits
// threshold alerts and records per-session and lifetime peaks. The session
// monitor drives it: StartSession after a launch is detected, FinishSession
// once the session's mutations have been rolled back.
type Tracker struct {
	cfg        *config.Instance
	db         *database.Database
	clock      clockwork.Clock
	ns         chan<- events.Notification
	newSampler func() *Sampler
	chime      ChimeFunc

	mu  syncutil.Mutex
	run *sessionRun
}

// NewTracker creates a temperature tracker. newSampler is called once per
// session so sensor sources that were down get probed again next time.
// chime may be nil to disable the audible cue entirely.
func NewTracker(
	cfg *config.Instance,
	db *database.Database,
	clock clockwork.Clock,
	ns chan<- events.Notification,
	newSampler func() *Sampler,
	chime ChimeFunc,
) *Tracker {
	return &Tracker{
		cfg:        cfg,
		db:         db,
		clock:      clock,
		ns:         ns,
		newSampler: newSampler,
		chime:      chime,
	}
}

// StartSession begins sampling for a newly detected session. It is a no-op
// when temperature monitoring is disabled.
func (t *Tracker) StartSession(ctx context.Context, appID int64, gameName string, startedAt time.Time) {
	if !t.cfg.TempMonitorEnabled() {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.run != nil {
		// The monitor finishes a session before starting the next, so a
		// live run here means an exit event was lost. Drop it unsaved.
		log.Warn().Msg("previous temperature sampling still active, discarding it")
		t.run.cancel()
		<-t.run.done
		t.run = nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := &sessionRun{
		sampler:   t.newSampler(),
		cancel:    cancel,
		done:      make(chan struct{}),
		appID:     appID,
		gameName:  gameName,
		startedAt: startedAt,
		fired:     make(map[alertKey]bool),
	}
	t.run = run

	go t.sampleLoop(runCtx, run)
	log.Info().Msgf("temperature sampling started for %s", gameName)
}

// FinishSession stops sampling, persists the session's peaks and returns
// them for the session summary. ok is false when no sampling happened,
// either because monitoring is off or because no sensor source produced a
// reading.
func (t *Tracker) FinishSession() (maxima Maxima, ok bool) {
	t.mu.Lock()
	run := t.run
	t.run = nil
	t.mu.Unlock()

	if run == nil {
		return Maxima{}, false
	}

	run.cancel()
	<-run.done

	run.mu.RLock()
	maxima = run.maxima
	first := run.first
	sampled := run.sampled
	run.mu.RUnlock()

	if !sampled {
		log.Debug().Msgf("no temperature readings for %s, nothing to record", run.gameName)
		return Maxima{}, false
	}

	t.persist(run, maxima)

	stopLog := log.Info().Str("game", run.gameName)
	if maxima.HasCPU {
		stopLog = stopLog.Float64("cpuFirst", first.CPU).Float64("cpuMax", maxima.CPU)
	}
	if maxima.HasGPU {
		stopLog = stopLog.Float64("gpuFirst", first.GPU).Float64("gpuMax", maxima.GPU)
	}
	stopLog.Msg("temperature sampling stopped")

	return maxima, true
}

// Latest returns the most recent reading of the active session, for the
// tray temperatures line.
func (t *Tracker) Latest() (Reading, bool) {
	t.mu.Lock()
	run := t.run
	t.mu.Unlock()

	if run == nil {
		return Reading{}, false
	}

	run.mu.RLock()
	defer run.mu.RUnlock()
	if !run.sampled {
		return Reading{}, false
	}
	return run.latest, true
}

func (t *Tracker) sampleLoop(ctx context.Context, run *sessionRun) {
	defer close(run.done)

	// Sample immediately so the tray line and alerts do not wait out the
	// first interval.
	t.sample(ctx, run)

	ticker := t.clock.NewTicker(t.cfg.TempSampleInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			t.sample(ctx, run)
		}
	}
}

func (t *Tracker) sample(ctx context.Context, run *sessionRun) {
	reading, err := run.sampler.Sample(ctx)
	if err != nil {
		// Only cancellation reaches here; exhausted chains report absent.
		return
	}
	if !reading.HasCPU && !reading.HasGPU {
		return
	}

	// Thresholds are read per sample so a settings reload applies to the
	// running session.
	var th thresholds
	th.cpuWarning, th.cpuCritical = t.cfg.CPUTempThresholds()
	th.gpuWarning, th.gpuCritical = t.cfg.GPUTempThresholds()

	alerts := run.record(reading, th)
	for _, alert := range alerts {
		log.Warn().Msgf("%s temperature %s: %.0f°C (threshold %d°C)",
			alert.Sensor, alert.Level, alert.Celsius, alert.Threshold)
		events.TemperatureAlert(t.ns, alert)
		if t.chime != nil {
			t.chime(alert.Level)
		}
	}
}

func (t *Tracker) persist(run *sessionRun, maxima Maxima) {
	entry := &database.TempSession{
		AppID:       run.appID,
		GameName:    run.gameName,
		Timestamp:   run.startedAt,
		MaxCPUTemp:  maxima.CPU,
		MaxGPUTemp:  maxima.GPU,
		DurationSec: int(t.clock.Since(run.startedAt).Seconds()),
	}
	if err := t.db.History.AddTempSession(entry); err != nil {
		log.Error().Err(err).Msg("failed to save temperature session")
	} else if keep := t.cfg.HistorySessionsPerGame(); keep > 0 {
		if _, err := t.db.History.PruneTempSessions(run.appID, keep); err != nil {
			log.Warn().Err(err).Msg("failed to prune temperature sessions")
		}
	}

	lifetime := &database.TempLifetime{
		AppID:          run.appID,
		GameName:       run.gameName,
		LifetimeMaxCPU: maxima.CPU,
		LifetimeMaxGPU: maxima.GPU,
		UpdatedAt:      t.clock.Now(),
	}
	if err := t.db.History.UpsertTempLifetime(lifetime); err != nil {
		log.Error().Err(err).Msg("failed to update lifetime temperature peaks")
	}
}

// record folds a reading into the run's stats and returns the alerts this
// sample newly triggered. Alerts fire at most once per sensor and level for
// the lifetime of the session.
func (r *sessionRun) record(reading Reading, th thresholds) []events.TemperatureAlertParams {
	r.mu.Lock()
	defer r.mu.Unlock()

	if reading.HasCPU {
		if !r.maxima.HasCPU {
			r.first.CPU = reading.CPU
			r.first.HasCPU = true
			r.maxima.HasCPU = true
			r.maxima.CPU = reading.CPU
		} else if reading.CPU > r.maxima.CPU {
			r.maxima.CPU = reading.CPU
		}
		r.latest.CPU = reading.CPU
		r.latest.HasCPU = true
	}
	if reading.HasGPU {
		if !r.maxima.HasGPU {
			r.first.GPU = reading.GPU
			r.first.HasGPU = true
			r.maxima.HasGPU = true
			r.maxima.GPU = reading.GPU
		} else if reading.GPU > r.maxima.GPU {
			r.maxima.GPU = reading.GPU
		}
		r.latest.GPU = reading.GPU
		r.latest.HasGPU = true
	}
	r.sampled = true

	var alerts []events.TemperatureAlertParams
	if reading.HasCPU {
		alerts = r.appendAlerts(alerts, events.SensorCPU, reading.CPU, th.cpuWarning, th.cpuCritical)
	}
	if reading.HasGPU {
		alerts = r.appendAlerts(alerts, events.SensorGPU, reading.GPU, th.gpuWarning, th.gpuCritical)
	}
	return alerts
}

// appendAlerts must be called with r.mu held. A threshold of zero disables
// that level.
func (r *sessionRun) appendAlerts(
	alerts []events.TemperatureAlertParams,
	sensor string,
	value float64,
	warning, critical int,
) []events.TemperatureAlertParams {
	if critical > 0 && value >= float64(critical) {
		if !r.fired[alertKey{sensor, events.AlertLevelCritical}] {
			r.fired[alertKey{sensor, events.AlertLevelCritical}] = true
			// A critical alert makes a later warning for the same sensor
			// pure noise.
			r.fired[alertKey{sensor, events.AlertLevelWarning}] = true
			alerts = append(alerts, events.TemperatureAlertParams{
				Sensor:    sensor,
				Level:     events.AlertLevelCritical,
				Celsius:   value,
				Threshold: critical,
			})
		}
		return alerts
	}
	if warning > 0 && value >= float64(warning) && !r.fired[alertKey{sensor, events.AlertLevelWarning}] {
		r.fired[alertKey{sensor, events.AlertLevelWarning}] = true
		alerts = append(alerts, events.TemperatureAlertParams{
			Sensor:    sensor,
			Level:     events.AlertLevelWarning,
			Celsius:   value,
			Threshold: warning,
		})
	}
	return alerts
}
