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
	"testing"
	"time"

	"github.com/VaporProject/vapor/pkg/database"
	"github.com/VaporProject/vapor/pkg/service/events"
	"github.com/VaporProject/vapor/pkg/service/state"
	"github.com/VaporProject/vapor/pkg/temperature"
	"github.com/VaporProject/vapor/pkg/testing/helpers"
	"github.com/VaporProject/vapor/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T) (*sessionTracker, *helpers.MockHistoryDBI, *state.State, <-chan events.Notification, *clockwork.FakeClock) {
	t.Helper()

	pl := mocks.NewMockPlatform(t.TempDir())
	clock := clockwork.NewFakeClockAt(time.Date(2026, 4, 2, 19, 0, 0, 0, time.UTC))
	st, ns := state.NewState("boot-uuid")
	history := helpers.NewMockHistoryDBI()
	db := &database.Database{History: history}

	return newSessionTracker(pl, db, st, clock), history, st, ns, clock
}

func TestSessionTrackerOpensAndClosesRow(t *testing.T) {
	t.Parallel()

	tracker, history, st, ns, clock := newTestTracker(t)

	session := &state.Session{
		ID:        "session-1",
		AppID:     1245620,
		Name:      "ELDEN RING",
		StartedAt: clock.Now(),
	}

	history.On("AddSession", mock.MatchedBy(func(entry *database.GameSession) bool {
		return entry.ID == "session-1" &&
			entry.AppID == 1245620 &&
			entry.GameName == "ELDEN RING" &&
			entry.ClosedApps == 3
	})).Return(int64(42), nil)
	history.On("CloseSession", int64(42), mock.Anything,
		mock.MatchedBy(func(closed *database.SessionClose) bool {
			return closed.ClosedApps == 3 &&
				closed.MaxCPUTemp == 87.5 &&
				closed.MaxGPUTemp == 79.0
		})).Return(nil)

	tracker.SessionStarted(session, 3)

	maxima := temperature.Maxima{CPU: 87.5, GPU: 79.0, HasCPU: true, HasGPU: true}
	tracker.SessionFinished(session, 2, maxima, true)

	history.AssertExpectations(t)

	// The summary notification carries the same numbers.
	summary := nextNotification(t, ns)
	assert.Equal(t, events.NotificationSessionSummary, summary.Method)

	last := st.LastSummary()
	require.NotNil(t, last)
	assert.Equal(t, "ELDEN RING", last.Name)
	assert.Equal(t, 3, last.AppsClosed)
	assert.Equal(t, 2, last.AppsRelaunched)
	assert.InDelta(t, 87.5, last.CPUMaxTemp, 0.01)
	assert.InDelta(t, 79.0, last.GPUMaxTemp, 0.01)
}

func TestSessionTrackerNoTemperatureData(t *testing.T) {
	t.Parallel()

	tracker, history, st, _, clock := newTestTracker(t)

	session := &state.Session{
		ID:        "session-1",
		AppID:     620,
		Name:      "Portal 2",
		StartedAt: clock.Now(),
	}

	history.On("AddSession", mock.Anything).Return(int64(1), nil)
	history.On("CloseSession", int64(1), mock.Anything,
		mock.MatchedBy(func(closed *database.SessionClose) bool {
			return closed.MaxCPUTemp == 0 && closed.MaxGPUTemp == 0
		})).Return(nil)

	tracker.SessionStarted(session, 0)
	tracker.SessionFinished(session, 0, temperature.Maxima{}, false)

	history.AssertExpectations(t)

	last := st.LastSummary()
	require.NotNil(t, last)
	assert.Zero(t, last.CPUMaxTemp)
	assert.Zero(t, last.GPUMaxTemp)
}

func TestSessionTrackerSurvivesInsertFailure(t *testing.T) {
	t.Parallel()

	tracker, history, st, _, clock := newTestTracker(t)

	session := &state.Session{
		ID:        "session-1",
		AppID:     620,
		Name:      "Portal 2",
		StartedAt: clock.Now(),
	}

	history.On("AddSession", mock.Anything).Return(int64(0), assert.AnError)

	tracker.SessionStarted(session, 0)
	// No row to close, but the summary still goes out.
	tracker.SessionFinished(session, 0, temperature.Maxima{}, false)

	history.AssertNotCalled(t, "CloseSession", mock.Anything, mock.Anything, mock.Anything)
	assert.NotNil(t, st.LastSummary())
}

func TestSessionTrackerPlayTimeUpdates(t *testing.T) {
	t.Parallel()

	tracker, history, _, _, clock := newTestTracker(t)

	session := &state.Session{
		ID:        "session-1",
		AppID:     620,
		Name:      "Portal 2",
		StartedAt: clock.Now(),
	}

	history.On("AddSession", mock.Anything).Return(int64(9), nil)

	updated := make(chan struct{}, 4)
	history.On("UpdateSessionPlayTime", int64(9), mock.Anything).
		Run(func(_ mock.Arguments) { updated <- struct{}{} }).Return(nil)

	tracker.SessionStarted(session, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tracker.updatePlayTime(ctx)

	clock.BlockUntil(1)
	clock.Advance(time.Minute)

	select {
	case <-updated:
	case <-time.After(time.Second):
		t.Fatal("expected a play time update after a minute")
	}

	history.AssertExpectations(t)
}
