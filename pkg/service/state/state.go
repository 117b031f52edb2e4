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

package state

import (
	"context"
	"time"

	"github.com/VaporProject/vapor/pkg/helpers/syncutil"
	"github.com/VaporProject/vapor/pkg/service/events"
)

// Session describes one game session, bound to a specific process from
// start to exit. ID is unique per session and correlates journal entries,
// history rows and events.
type Session struct {
	StartedAt time.Time
	ID        string
	Name      string
	ExePath   string
	AppID     int64
	PID       int32
}

// Same reports whether other refers to the same running game instance.
func (s *Session) Same(other *Session) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.AppID == other.AppID && s.PID == other.PID
}

// State holds the runtime state of the Vapor service.
//
// LOCKING RULES: The mu mutex protects all mutable fields. To prevent
// deadlocks:
//   - Never send to channels while holding the lock
//   - Never call methods of other components while holding the lock
//   - Pattern: lock → modify state → copy needed data → unlock → notify
type State struct {
	ctx            context.Context
	ctxCancelFunc  context.CancelFunc
	activeSession  *Session
	lastSummary    *events.SessionSummaryParams
	Notifications  chan<- events.Notification
	bootUUID       string
	mu             syncutil.RWMutex
	paused         bool
	stopService    bool
}

// NewState creates the service state and its notification channel. The
// returned channel is the source side of the event broker.
func NewState(bootUUID string) (st *State, notificationCh <-chan events.Notification) {
	// Emit helpers drop rather than block when this fills, so size it for
	// worst-case bursts: alert storms during a session plus startup replay.
	ns := make(chan events.Notification, 500)
	ctx, ctxCancelFunc := context.WithCancel(context.Background())
	return &State{
		Notifications: ns,
		ctx:           ctx,
		ctxCancelFunc: ctxCancelFunc,
		bootUUID:      bootUUID,
	}, ns
}

// SetActiveSession records the start of a game session and notifies
// observers. Duplicate reports of the same running instance are ignored.
func (s *State) SetActiveSession(session *Session) {
	s.mu.Lock()

	if s.activeSession.Same(session) {
		s.mu.Unlock()
		return
	}

	s.activeSession = session

	// Prepare notification payload inside lock, send outside
	var payload *events.SessionParams
	if session != nil {
		payload = &events.SessionParams{
			AppID:     session.AppID,
			Name:      session.Name,
			PID:       session.PID,
			StartedAt: session.StartedAt,
		}
	}

	s.mu.Unlock()

	// Send notification outside lock to prevent deadlock
	if payload != nil {
		events.SessionStarted(s.Notifications, *payload)
	}
}

// ClearActiveSession ends the current session, returning it for teardown.
// Returns nil when no session was active.
func (s *State) ClearActiveSession() *Session {
	s.mu.Lock()

	session := s.activeSession
	s.activeSession = nil

	var payload *events.SessionParams
	if session != nil {
		payload = &events.SessionParams{
			AppID:     session.AppID,
			Name:      session.Name,
			PID:       session.PID,
			StartedAt: session.StartedAt,
		}
	}

	s.mu.Unlock()

	if payload != nil {
		events.SessionStopped(s.Notifications, *payload)
	}

	return session
}

// ActiveSession returns the current session, or nil when idle.
func (s *State) ActiveSession() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeSession == nil {
		return nil
	}
	session := *s.activeSession
	return &session
}

// SetPaused suspends or resumes session detection and notifies observers.
// Pausing has no effect on a session that is already active.
func (s *State) SetPaused(paused bool) {
	s.mu.Lock()
	if s.paused == paused {
		s.mu.Unlock()
		return
	}
	s.paused = paused
	s.mu.Unlock()

	if paused {
		events.MonitorPaused(s.Notifications)
	} else {
		events.MonitorResumed(s.Notifications)
	}
}

func (s *State) Paused() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paused
}

// SetLastSummary stores the most recent session summary for display.
func (s *State) SetLastSummary(summary *events.SessionSummaryParams) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSummary = summary
}

func (s *State) LastSummary() *events.SessionSummaryParams {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastSummary == nil {
		return nil
	}
	summary := *s.lastSummary
	return &summary
}

// BootUUID returns the identifier generated for this service run.
func (s *State) BootUUID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bootUUID
}

// StopService requests a service shutdown.
func (s *State) StopService() {
	s.mu.Lock()
	s.stopService = true
	s.mu.Unlock()
	s.ctxCancelFunc()
}

func (s *State) ShouldStopService() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopService
}

// GetContext returns a context that is cancelled when the service stops.
func (s *State) GetContext() context.Context {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ctx
}
