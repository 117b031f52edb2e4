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

package historydb

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/VaporProject/vapor/pkg/database"
	"github.com/VaporProject/vapor/pkg/testing/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTempHistoryDB(t *testing.T) *HistoryDB {
	pl := mocks.NewMockPlatform(t.TempDir())
	db, err := OpenHistoryDB(context.Background(), pl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func insertSession(t *testing.T, db *HistoryDB, appID int64, name string, start time.Time) int64 {
	entry := &database.GameSession{
		ID:        fmt.Sprintf("uuid-%d-%d", appID, start.Unix()),
		AppID:     appID,
		GameName:  name,
		StartTime: start,
		BootTime:  start.Add(-2 * time.Hour),
		CreatedAt: start,
		UpdatedAt: start,
	}
	dbid, err := db.AddSession(entry)
	require.NoError(t, err)
	return dbid
}

func TestHistoryDB_OpenClose_Integration(t *testing.T) {
	db := setupTempHistoryDB(t)

	err := db.Truncate()
	require.NoError(t, err)

	err = db.Close()
	require.NoError(t, err)

	// After close, operations should fail with database closed error
	err = db.Truncate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is closed")
}

func TestHistoryDB_GetDBPath_Integration(t *testing.T) {
	db := setupTempHistoryDB(t)

	dbPath := db.GetDBPath()
	assert.NotEmpty(t, dbPath)
	assert.Contains(t, dbPath, "history.db")

	_, err := os.Stat(dbPath)
	assert.NoError(t, err, "Database file should exist at the returned path")
}

func TestHistoryDB_SessionLifecycle_Integration(t *testing.T) {
	db := setupTempHistoryDB(t)

	start := time.Now().Add(-30 * time.Minute).Truncate(time.Second)
	dbid := insertSession(t, db, 620, "Portal 2", start)
	assert.Positive(t, dbid)

	// A freshly added session is open.
	open, err := db.GetSessions(0, 10)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "Portal 2", open[0].GameName)
	assert.Equal(t, int64(620), open[0].AppID)
	assert.Nil(t, open[0].EndTime)
	assert.Equal(t, 0, open[0].PlaySeconds)
	assert.Equal(t, start.Unix(), open[0].StartTime.Unix())

	err = db.UpdateSessionPlayTime(dbid, 600)
	require.NoError(t, err)

	end := start.Add(45 * time.Minute)
	err = db.CloseSession(dbid, end, &database.SessionClose{
		PlaySeconds: 2700,
		ClosedApps:  2,
		MaxCPUTemp:  85.0,
		MaxGPUTemp:  79.5,
	})
	require.NoError(t, err)

	closed, err := db.GetSessions(0, 10)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	require.NotNil(t, closed[0].EndTime)
	assert.Equal(t, end.Unix(), closed[0].EndTime.Unix())
	assert.Equal(t, 2700, closed[0].PlaySeconds)
	assert.Equal(t, 2, closed[0].ClosedApps)
	assert.InDelta(t, 85.0, closed[0].MaxCPUTemp, 0.001)
	assert.InDelta(t, 79.5, closed[0].MaxGPUTemp, 0.001)
}

func TestHistoryDB_Pagination_Integration(t *testing.T) {
	db := setupTempHistoryDB(t)

	base := time.Now().Add(-40 * time.Hour).Truncate(time.Second)
	for i := range 30 {
		insertSession(t, db, int64(1000+i), fmt.Sprintf("Game %d", i), base.Add(time.Duration(i)*time.Hour))
	}

	// First page is the newest rows.
	page1, err := db.GetSessions(0, 10)
	require.NoError(t, err)
	require.Len(t, page1, 10)
	assert.Equal(t, "Game 29", page1[0].GameName)
	assert.Equal(t, "Game 20", page1[9].GameName)

	page2, err := db.GetSessions(int(page1[9].DBID), 10)
	require.NoError(t, err)
	require.Len(t, page2, 10)
	assert.Equal(t, "Game 19", page2[0].GameName)

	page3, err := db.GetSessions(int(page2[9].DBID), 10)
	require.NoError(t, err)
	require.Len(t, page3, 10)

	page4, err := db.GetSessions(int(page3[9].DBID), 10)
	require.NoError(t, err)
	assert.Empty(t, page4)

	// Zero limit falls back to the default page size.
	defaultPage, err := db.GetSessions(0, 0)
	require.NoError(t, err)
	assert.Len(t, defaultPage, 25)
}

func TestHistoryDB_CloseHangingSessions_Integration(t *testing.T) {
	db := setupTempHistoryDB(t)

	start := time.Now().Add(-2 * time.Hour).Truncate(time.Second)

	hanging1 := insertSession(t, db, 620, "Portal 2", start)
	require.NoError(t, db.UpdateSessionPlayTime(hanging1, 600))

	hanging2 := insertSession(t, db, 730, "Counter-Strike 2", start.Add(time.Minute))

	closedID := insertSession(t, db, 105600, "Terraria", start.Add(2*time.Minute))
	require.NoError(t, db.CloseSession(closedID, start.Add(time.Hour), &database.SessionClose{PlaySeconds: 3480}))

	rows, err := db.CloseHangingSessions()
	require.NoError(t, err)
	assert.Equal(t, int64(2), rows)

	sessions, err := db.GetSessions(0, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	for _, s := range sessions {
		require.NotNil(t, s.EndTime, "session %q should be closed", s.GameName)
		if s.DBID == hanging1 {
			// Hanging rows end at the last recorded play time.
			assert.Equal(t, start.Unix()+600, s.EndTime.Unix())
		}
		if s.DBID == hanging2 {
			assert.Equal(t, s.StartTime.Unix(), s.EndTime.Unix())
		}
	}

	// A second pass finds nothing left to close.
	rows, err = db.CloseHangingSessions()
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}

func TestHistoryDB_CleanupSessions_Integration(t *testing.T) {
	db := setupTempHistoryDB(t)

	old := time.Now().AddDate(0, 0, -400)
	recent := time.Now().Add(-2 * time.Hour)
	insertSession(t, db, 620, "Portal 2", old)
	insertSession(t, db, 730, "Counter-Strike 2", recent)

	deleted, err := db.CleanupSessions(365)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := db.GetSessions(0, 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "Counter-Strike 2", remaining[0].GameName)
}

func TestHistoryDB_TempSessions_Integration(t *testing.T) {
	db := setupTempHistoryDB(t)

	base := time.Now().Add(-5 * 24 * time.Hour).Truncate(time.Second)
	for i := range 5 {
		err := db.AddTempSession(&database.TempSession{
			AppID:       620,
			GameName:    "Portal 2",
			Timestamp:   base.Add(time.Duration(i) * 24 * time.Hour),
			MaxCPUTemp:  80.0 + float64(i),
			MaxGPUTemp:  70.0 + float64(i),
			DurationSec: 3600,
		})
		require.NoError(t, err)
	}
	for i := range 2 {
		err := db.AddTempSession(&database.TempSession{
			AppID:     730,
			GameName:  "Counter-Strike 2",
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
		})
		require.NoError(t, err)
	}

	pruned, err := db.PruneTempSessions(620, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pruned)

	kept, err := db.GetTempSessions(620, 10)
	require.NoError(t, err)
	require.Len(t, kept, 3)
	// Newest first, and the oldest two are the ones pruned.
	assert.InDelta(t, 84.0, kept[0].MaxCPUTemp, 0.001)
	assert.InDelta(t, 82.0, kept[2].MaxCPUTemp, 0.001)
	assert.True(t, kept[0].Timestamp.After(kept[2].Timestamp))

	// Other games keep their rows.
	other, err := db.GetTempSessions(730, 10)
	require.NoError(t, err)
	assert.Len(t, other, 2)
}

func TestHistoryDB_TempLifetime_Integration(t *testing.T) {
	db := setupTempHistoryDB(t)

	missing, err := db.GetTempLifetime(620)
	require.NoError(t, err)
	assert.Nil(t, missing)

	first := time.Now().Add(-24 * time.Hour).Truncate(time.Second)
	err = db.UpsertTempLifetime(&database.TempLifetime{
		AppID:          620,
		GameName:       "Portal 2",
		LifetimeMaxCPU: 88.0,
		LifetimeMaxGPU: 75.0,
		UpdatedAt:      first,
	})
	require.NoError(t, err)

	second := first.Add(24 * time.Hour)
	err = db.UpsertTempLifetime(&database.TempLifetime{
		AppID:          620,
		GameName:       "Portal 2",
		LifetimeMaxCPU: 80.0,
		LifetimeMaxGPU: 81.0,
		UpdatedAt:      second,
	})
	require.NoError(t, err)

	entry, err := db.GetTempLifetime(620)
	require.NoError(t, err)
	require.NotNil(t, entry)
	// Each sensor keeps its hottest value across sessions.
	assert.InDelta(t, 88.0, entry.LifetimeMaxCPU, 0.001)
	assert.InDelta(t, 81.0, entry.LifetimeMaxGPU, 0.001)
	assert.Equal(t, second.Unix(), entry.UpdatedAt.Unix())
}

func TestHistoryDB_ExportRows_Integration(t *testing.T) {
	db := setupTempHistoryDB(t)

	start := time.Now().Add(-3 * time.Hour).Truncate(time.Second)
	closedID := insertSession(t, db, 620, "Portal 2", start)
	require.NoError(t, db.CloseSession(closedID, start.Add(time.Hour), &database.SessionClose{
		PlaySeconds: 3600,
		ClosedApps:  1,
		MaxCPUTemp:  85.0,
		MaxGPUTemp:  79.5,
	}))
	require.NoError(t, db.UpsertTempLifetime(&database.TempLifetime{
		AppID:          620,
		GameName:       "Portal 2",
		LifetimeMaxCPU: 88.0,
		LifetimeMaxGPU: 81.0,
		UpdatedAt:      start,
	}))

	insertSession(t, db, 730, "Counter-Strike 2", start.Add(2*time.Hour))

	rows, err := db.ExportRows()
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Oldest first.
	assert.Equal(t, "Portal 2", rows[0].GameName)
	assert.Equal(t, 3600, rows[0].PlaySeconds)
	assert.NotEmpty(t, rows[0].EndTime)
	assert.InDelta(t, 88.0, rows[0].LifetimeMaxCPU, 0.001)
	assert.InDelta(t, 81.0, rows[0].LifetimeMaxGPU, 0.001)

	// Open session without lifetime data exports empty end time and zeroes.
	assert.Equal(t, "Counter-Strike 2", rows[1].GameName)
	assert.Empty(t, rows[1].EndTime)
	assert.InDelta(t, 0.0, rows[1].LifetimeMaxCPU, 0.001)
}

func TestHistoryDB_NotConnected(t *testing.T) {
	t.Parallel()
	db := &HistoryDB{}

	_, err := db.AddSession(&database.GameSession{})
	require.ErrorIs(t, err, ErrNullSQL)
	_, err = db.GetSessions(0, 10)
	require.ErrorIs(t, err, ErrNullSQL)
	_, err = db.CloseHangingSessions()
	require.ErrorIs(t, err, ErrNullSQL)
	err = db.UpsertTempLifetime(&database.TempLifetime{})
	require.ErrorIs(t, err, ErrNullSQL)
	_, err = db.ExportRows()
	require.ErrorIs(t, err, ErrNullSQL)
}
