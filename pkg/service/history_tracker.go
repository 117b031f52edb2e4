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

package service

import (
	"context"
	"time"

	"github.com/VaporProject/vapor/pkg/database"
	"github.com/VaporProject/vapor/pkg/helpers/syncutil"
	"github.com/VaporProject/vapor/pkg/platforms"
	"github.com/VaporProject/vapor/pkg/service/events"
	"github.com/VaporProject/vapor/pkg/service/state"
	"github.com/VaporProject/vapor/pkg/temperature"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// sessionTracker records play sessions in the history database. It opens a
// row when a session starts, bumps PlaySeconds every minute so a crash
// loses at most a minute, and closes the row with the final numbers when
// the session ends.
type sessionTracker struct {
	clock     clockwork.Clock
	db        *database.Database
	pl        platforms.Platform
	st        *state.State
	startMono time.Time
	session   *state.Session
	dbid      int64
	closed    int
	mu        syncutil.RWMutex
}

func newSessionTracker(
	pl platforms.Platform,
	db *database.Database,
	st *state.State,
	clock clockwork.Clock,
) *sessionTracker {
	return &sessionTracker{
		pl:    pl,
		db:    db,
		st:    st,
		clock: clock,
	}
}

// SessionStarted opens the history row for a new session. closedApps is
// how many apps the start mutations closed; it travels with the row so the
// summary survives a restart.
func (t *sessionTracker) SessionStarted(session *state.Session, closedApps int) {
	bootTime, err := t.pl.BootTime()
	if err != nil {
		log.Warn().Err(err).Msg("failed to read boot time for session row")
	}

	entry := &database.GameSession{
		ID:         session.ID,
		AppID:      session.AppID,
		GameName:   session.Name,
		StartTime:  session.StartedAt,
		BootTime:   bootTime,
		ClosedApps: closedApps,
		CreatedAt:  t.clock.Now(),
		UpdatedAt:  t.clock.Now(),
	}
	dbid, err := t.db.History.AddSession(entry)
	if err != nil {
		log.Error().Err(err).Msg("failed to add session history entry")
		dbid = 0
	}

	t.mu.Lock()
	t.dbid = dbid
	t.session = session
	t.closed = closedApps
	// Monotonic reading so the duration survives wall clock changes and
	// system sleep.
	t.startMono = time.Now()
	t.mu.Unlock()

	log.Debug().Int64("dbid", dbid).Str("name", session.Name).
		Msg("created session history entry")
}

// SessionFinished closes the history row and emits the session summary.
func (t *sessionTracker) SessionFinished(
	session *state.Session,
	relaunched int,
	maxima temperature.Maxima,
	sampled bool,
) {
	t.mu.Lock()
	dbid := t.dbid
	closedApps := t.closed
	startMono := t.startMono
	t.dbid = 0
	t.session = nil
	t.closed = 0
	t.startMono = time.Time{}
	t.mu.Unlock()

	endTime := t.clock.Now()
	var playSeconds int
	if !startMono.IsZero() {
		playSeconds = int(time.Since(startMono).Seconds())
	} else {
		playSeconds = int(endTime.Sub(session.StartedAt).Seconds())
	}

	if dbid != 0 {
		closed := &database.SessionClose{
			PlaySeconds: playSeconds,
			ClosedApps:  closedApps,
		}
		if sampled {
			closed.MaxCPUTemp = maxima.CPU
			closed.MaxGPUTemp = maxima.GPU
		}
		if err := t.db.History.CloseSession(dbid, endTime, closed); err != nil {
			log.Error().Err(err).Int64("dbid", dbid).
				Msg("failed to close session history entry")
		}
	}

	summary := events.SessionSummaryParams{
		AppID:           session.AppID,
		Name:            session.Name,
		StartedAt:       session.StartedAt,
		EndedAt:         endTime,
		DurationSeconds: int64(playSeconds),
		AppsClosed:      closedApps,
		AppsRelaunched:  relaunched,
	}
	if sampled {
		summary.CPUMaxTemp = maxima.CPU
		summary.GPUMaxTemp = maxima.GPU
	}
	t.st.SetLastSummary(&summary)
	events.SessionSummary(t.st.Notifications, summary)

	log.Info().Str("name", session.Name).
		Str("duration", events.FormatDuration(int64(playSeconds))).
		Int("appsClosed", closedApps).
		Msg("session finished")
}

// updatePlayTime bumps the open row's PlaySeconds once a minute until the
// service context ends.
func (t *sessionTracker) updatePlayTime(ctx context.Context) {
	ticker := t.clock.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			t.mu.RLock()
			dbid := t.dbid
			startMono := t.startMono
			t.mu.RUnlock()

			if dbid == 0 {
				continue
			}

			var playSeconds int
			if !startMono.IsZero() {
				playSeconds = int(time.Since(startMono).Seconds())
			} else {
				continue
			}

			if err := t.db.History.UpdateSessionPlayTime(dbid, playSeconds); err != nil {
				log.Warn().Err(err).Msg("failed to update session play time")
			}
		case <-ctx.Done():
			return
		}
	}
}
