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
	"github.com/VaporProject/vapor/pkg/config"
	"github.com/VaporProject/vapor/pkg/platforms"
	"github.com/VaporProject/vapor/pkg/service/state"
	"github.com/VaporProject/vapor/pkg/steam"
	"github.com/VaporProject/vapor/pkg/temperature"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// sessionMonitor drives the session lifecycle: it receives launch and exit
// transitions from the Steam detector and runs the start and teardown
// sequences in order. Teardown runs synchronously in the exit handler so
// mutations are undone, temperatures saved and the summary emitted before
// the next launch is processed.
type sessionMonitor struct {
	pl      platforms.Platform
	cfg     *config.Instance
	st      *state.State
	coord   *coordinator
	temps   *temperature.Tracker
	tracker *sessionTracker
	clock   clockwork.Clock
}

func newSessionMonitor(
	pl platforms.Platform,
	cfg *config.Instance,
	st *state.State,
	coord *coordinator,
	temps *temperature.Tracker,
	tracker *sessionTracker,
	clock clockwork.Clock,
) *sessionMonitor {
	return &sessionMonitor{
		pl:      pl,
		cfg:     cfg,
		st:      st,
		coord:   coord,
		temps:   temps,
		tracker: tracker,
		clock:   clock,
	}
}

// Bind attaches the monitor to a detector.
func (m *sessionMonitor) Bind(d *steam.Detector) {
	d.SetLaunchHandler(m.onLaunch)
	d.SetExitHandler(m.onExit)
}

func (m *sessionMonitor) onLaunch(info steam.AppInfo) {
	if m.st.Paused() {
		log.Info().Int64("appID", info.AppID).Str("name", info.Name).
			Msg("monitoring paused, ignoring game launch")
		return
	}

	if active := m.st.ActiveSession(); active != nil {
		// The registry flipped straight from one game to another, so the
		// exit transition already ran through onExit. A session still
		// active here means an exit was lost; tear it down first.
		log.Warn().Int64("appID", active.AppID).
			Msg("session still active on new launch, finishing it first")
		m.onExit(active.AppID)
	}

	session := &state.Session{
		ID:        uuid.NewString(),
		AppID:     info.AppID,
		Name:      info.Name,
		StartedAt: m.clock.Now(),
	}

	m.st.SetActiveSession(session)

	closed := m.coord.Apply(m.st.GetContext(), session.ID)

	m.temps.StartSession(m.st.GetContext(), session.AppID, session.Name, session.StartedAt)
	m.tracker.SessionStarted(session, closed)

	// The game volume apply needs the game's PIDs, which only exist once
	// the game's executable is actually running.
	go m.resolveAndSetGameVolume(session, info)
}

// resolveAndSetGameVolume waits for the game's processes to appear, then
// raises their audio sessions to the configured level.
func (m *sessionMonitor) resolveAndSetGameVolume(session *state.Session, info steam.AppInfo) {
	if info.InstallPath == "" {
		log.Debug().Int64("appID", info.AppID).
			Msg("no install path known, skipping game volume")
		return
	}

	ctx := m.st.GetContext()
	procs, err := steam.WaitForGameProcesses(ctx, m.clock, m.pl, info.InstallPath)
	if err != nil {
		log.Debug().Err(err).Msg("failed to resolve game processes")
		return
	}

	if primary, ok := steam.PrimaryProcess(procs); ok {
		log.Debug().Str("exe", primary.Exe).Int32("pid", primary.PID).
			Msg("resolved game process")
	}

	// The session may have ended while we were waiting.
	if active := m.st.ActiveSession(); active == nil || active.ID != session.ID {
		return
	}

	pids := make([]int32, 0, len(procs))
	for _, p := range procs {
		pids = append(pids, p.PID)
	}
	m.coord.ApplyGameVolume(ctx, session.ID, info.Name, pids)
}

// onExit tears the session down: revert mutations in reverse order, stop
// temperature sampling, close the history row and emit the summary. Exits
// are handled even while monitoring is paused, an active session must
// always be unwound.
func (m *sessionMonitor) onExit(appID int64) {
	session := m.st.ClearActiveSession()
	if session == nil {
		return
	}
	if session.AppID != appID {
		log.Warn().Int64("expected", session.AppID).Int64("got", appID).
			Msg("exit reported for a different app than the active session")
	}

	relaunched := m.coord.Revert(session.ID)
	maxima, sampled := m.temps.FinishSession()
	m.tracker.SessionFinished(session, relaunched, maxima, sampled)
}

// Shutdown unwinds a session that is still active when the service stops:
// the game keeps running, but every mutation is reverted and the history
// row closed.
func (m *sessionMonitor) Shutdown() {
	if session := m.st.ActiveSession(); session != nil {
		log.Info().Str("name", session.Name).
			Msg("session still active at shutdown, reverting its mutations")
		m.onExit(session.AppID)
	}
}

// CloseAppsNow runs the app-close mutations immediately, journaled under
// the live session so the closes are still relaunched at session end. A
// no-op outside a session: without one there is no teardown to undo the
// closes.
func (m *sessionMonitor) CloseAppsNow() {
	session := m.st.ActiveSession()
	if session == nil {
		log.Debug().Msg("close apps requested with no active session")
		return
	}
	m.coord.CloseAppsNow(m.st.GetContext(), session.ID)
}
