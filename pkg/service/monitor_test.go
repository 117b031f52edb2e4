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
	"testing"
	"time"

	"github.com/VaporProject/vapor/pkg/database"
	"github.com/VaporProject/vapor/pkg/journal"
	"github.com/VaporProject/vapor/pkg/service/events"
	"github.com/VaporProject/vapor/pkg/service/state"
	"github.com/VaporProject/vapor/pkg/steam"
	"github.com/VaporProject/vapor/pkg/temperature"
	"github.com/VaporProject/vapor/pkg/testing/helpers"
	"github.com/VaporProject/vapor/pkg/testing/mocks"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type monitorFixture struct {
	monitor *sessionMonitor
	pl      *mocks.MockPlatform
	st      *state.State
	notifs  <-chan events.Notification
	history *helpers.MockHistoryDBI
}

func newMonitorFixture(t *testing.T) *monitorFixture {
	t.Helper()

	pl := mocks.NewMockPlatform(t.TempDir())
	cfg := newTestConfig(t)
	cfg.SetNotificationProcesses([]string{"discord.exe"})
	cfg.SetResourceProcesses(nil)
	// Temperature sampling and chimes are out of scope here.
	cfg.SetTempMonitorEnabled(false)

	clock := clockwork.NewFakeClockAt(time.Date(2026, 4, 2, 19, 0, 0, 0, time.UTC))

	st, ns := state.NewState("boot-uuid")

	jour, err := journal.Open(pl, clock)
	require.NoError(t, err)
	t.Cleanup(func() { _ = jour.Close() })

	coord := newCoordinator(pl, cfg, jour, clock)

	history := helpers.NewMockHistoryDBI()
	db := &database.Database{History: history}

	temps := temperature.NewTracker(cfg, db, clock, st.Notifications,
		func() *temperature.Sampler {
			return temperature.NewSampler(temperature.NewChain(), temperature.NewChain())
		}, nil)

	tracker := newSessionTracker(pl, db, st, clock)
	monitor := newSessionMonitor(pl, cfg, st, coord, temps, tracker, clock)

	return &monitorFixture{
		monitor: monitor,
		pl:      pl,
		st:      st,
		notifs:  ns,
		history: history,
	}
}

// nextNotification pulls one event off the state channel without blocking
// the test forever.
func nextNotification(t *testing.T, ch <-chan events.Notification) events.Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(time.Second):
		t.Fatal("expected a notification")
		return events.Notification{}
	}
}

func TestMonitorLaunchAndExit(t *testing.T) {
	t.Parallel()

	f := newMonitorFixture(t)
	f.history.On("AddSession", mock.Anything).Return(int64(7), nil)
	f.history.On("CloseSession", int64(7), mock.Anything, mock.Anything).Return(nil)

	discord := f.pl.AddProcess("discord.exe", "")

	f.monitor.onLaunch(steam.AppInfo{AppID: 1245620, Name: "ELDEN RING"})

	session := f.st.ActiveSession()
	require.NotNil(t, session)
	assert.Equal(t, int64(1245620), session.AppID)
	assert.Equal(t, []int32{discord.PID}, f.pl.Terminated())

	assert.Equal(t, events.NotificationSessionStarted,
		nextNotification(t, f.notifs).Method)

	f.monitor.onExit(1245620)

	assert.Nil(t, f.st.ActiveSession())
	assert.Equal(t, []string{discord.Exe}, f.pl.Launched())

	assert.Equal(t, events.NotificationSessionStopped,
		nextNotification(t, f.notifs).Method)
	assert.Equal(t, events.NotificationSessionSummary,
		nextNotification(t, f.notifs).Method)

	summary := f.st.LastSummary()
	require.NotNil(t, summary)
	assert.Equal(t, "ELDEN RING", summary.Name)
	assert.Equal(t, 1, summary.AppsClosed)
	assert.Equal(t, 1, summary.AppsRelaunched)

	f.history.AssertExpectations(t)
}

func TestMonitorPausedIgnoresLaunch(t *testing.T) {
	t.Parallel()

	f := newMonitorFixture(t)
	f.pl.AddProcess("discord.exe", "")

	f.st.SetPaused(true)
	assert.Equal(t, events.NotificationMonitorPaused,
		nextNotification(t, f.notifs).Method)

	f.monitor.onLaunch(steam.AppInfo{AppID: 620, Name: "Portal 2"})

	assert.Nil(t, f.st.ActiveSession())
	assert.Empty(t, f.pl.Terminated(), "no mutations while paused")
}

func TestMonitorExitHandledWhilePaused(t *testing.T) {
	t.Parallel()

	f := newMonitorFixture(t)
	f.history.On("AddSession", mock.Anything).Return(int64(1), nil)
	f.history.On("CloseSession", int64(1), mock.Anything, mock.Anything).Return(nil)

	f.monitor.onLaunch(steam.AppInfo{AppID: 620, Name: "Portal 2"})
	require.NotNil(t, f.st.ActiveSession())

	// Pausing mid-session must not leave the mutations applied when the
	// game exits.
	f.st.SetPaused(true)
	f.monitor.onExit(620)

	assert.Nil(t, f.st.ActiveSession())
	f.history.AssertExpectations(t)
}

func TestMonitorLostExitUnwindsPreviousSession(t *testing.T) {
	t.Parallel()

	f := newMonitorFixture(t)
	f.history.On("AddSession", mock.Anything).Return(int64(1), nil).Once()
	f.history.On("CloseSession", int64(1), mock.Anything, mock.Anything).Return(nil).Once()
	f.history.On("AddSession", mock.Anything).Return(int64(2), nil).Once()

	f.monitor.onLaunch(steam.AppInfo{AppID: 620, Name: "Portal 2"})
	first := f.st.ActiveSession()
	require.NotNil(t, first)

	// The registry flipped straight to another game; no exit was seen.
	f.monitor.onLaunch(steam.AppInfo{AppID: 1245620, Name: "ELDEN RING"})

	second := f.st.ActiveSession()
	require.NotNil(t, second)
	assert.Equal(t, int64(1245620), second.AppID)
	assert.NotEqual(t, first.ID, second.ID)

	f.history.AssertExpectations(t)
}

func TestMonitorShutdownUnwindsActiveSession(t *testing.T) {
	t.Parallel()

	f := newMonitorFixture(t)
	f.history.On("AddSession", mock.Anything).Return(int64(3), nil)
	f.history.On("CloseSession", int64(3), mock.Anything, mock.Anything).Return(nil)

	discord := f.pl.AddProcess("discord.exe", "")

	f.monitor.onLaunch(steam.AppInfo{AppID: 620, Name: "Portal 2"})
	require.Equal(t, []int32{discord.PID}, f.pl.Terminated())

	f.monitor.Shutdown()

	assert.Nil(t, f.st.ActiveSession())
	assert.Equal(t, []string{discord.Exe}, f.pl.Launched())
	f.history.AssertExpectations(t)
}

func TestMonitorShutdownNoSession(t *testing.T) {
	t.Parallel()

	f := newMonitorFixture(t)
	f.monitor.Shutdown()
	f.history.AssertNotCalled(t, "CloseSession", mock.Anything, mock.Anything, mock.Anything)
}

func TestMonitorCloseAppsNowRequiresSession(t *testing.T) {
	t.Parallel()

	f := newMonitorFixture(t)
	f.pl.AddProcess("discord.exe", "")

	f.monitor.CloseAppsNow()
	assert.Empty(t, f.pl.Terminated(), "hotkey without a session is a no-op")
}

func TestMonitorCloseAppsNowMidSession(t *testing.T) {
	t.Parallel()

	f := newMonitorFixture(t)
	f.history.On("AddSession", mock.Anything).Return(int64(4), nil)
	f.history.On("CloseSession", int64(4), mock.Anything, mock.Anything).Return(nil)

	f.monitor.onLaunch(steam.AppInfo{AppID: 620, Name: "Portal 2"})

	// The app started after the session did, the hotkey picks it up.
	discord := f.pl.AddProcess("discord.exe", "")
	f.monitor.CloseAppsNow()
	assert.Equal(t, []int32{discord.PID}, f.pl.Terminated())

	// Journaled under the live session, so exit still relaunches it.
	f.monitor.onExit(620)
	assert.Equal(t, []string{discord.Exe}, f.pl.Launched())
	f.history.AssertExpectations(t)
}
