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
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/VaporProject/vapor/pkg/database"
	testsqlmock "github.com/VaporProject/vapor/pkg/testing/sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqlAddTempSession_Success(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	entry := &database.TempSession{
		AppID:       620,
		GameName:    "Portal 2",
		Timestamp:   time.Now(),
		MaxCPUTemp:  85.0,
		MaxGPUTemp:  79.5,
		DurationSec: 5400,
	}

	mock.ExpectPrepare(`INSERT INTO TempSessions.*VALUES`).
		ExpectExec().
		WithArgs(
			entry.AppID,
			entry.GameName,
			entry.Timestamp.Unix(),
			entry.MaxCPUTemp,
			entry.MaxGPUTemp,
			entry.DurationSec,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = sqlAddTempSession(context.Background(), db, entry)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlAddTempSession_DatabaseError(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	entry := &database.TempSession{
		AppID:     620,
		GameName:  "Portal 2",
		Timestamp: time.Now(),
	}

	mock.ExpectPrepare(`INSERT INTO TempSessions.*VALUES`).
		ExpectExec().
		WithArgs(
			entry.AppID,
			entry.GameName,
			entry.Timestamp.Unix(),
			entry.MaxCPUTemp,
			entry.MaxGPUTemp,
			entry.DurationSec,
		).
		WillReturnError(sqlmock.ErrCancelled)

	err = sqlAddTempSession(context.Background(), db, entry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute temp session insert")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlPruneTempSessions_Success(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	appID := int64(620)
	keep := 100

	mock.ExpectPrepare(`DELETE FROM TempSessions.*WHERE AppID.*NOT IN`).
		ExpectExec().
		WithArgs(appID, appID, keep).
		WillReturnResult(sqlmock.NewResult(0, 7))

	pruned, err := sqlPruneTempSessions(context.Background(), db, appID, keep)
	require.NoError(t, err)
	assert.Equal(t, int64(7), pruned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlPruneTempSessions_ZeroCapKeepsEverything(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	// No statement expected for an unlimited cap.
	pruned, err := sqlPruneTempSessions(context.Background(), db, 620, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pruned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlPruneTempSessions_DatabaseError(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	appID := int64(620)

	mock.ExpectPrepare(`DELETE FROM TempSessions.*WHERE AppID.*NOT IN`).
		ExpectExec().
		WithArgs(appID, appID, 100).
		WillReturnError(sqlmock.ErrCancelled)

	pruned, err := sqlPruneTempSessions(context.Background(), db, appID, 100)
	require.Error(t, err)
	assert.Equal(t, int64(0), pruned)
	assert.Contains(t, err.Error(), "failed to execute temp session prune")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlGetTempSessions_Success(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	appID := int64(620)
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"DBID", "AppID", "GameName", "Timestamp", "MaxCPUTemp", "MaxGPUTemp", "DurationSec",
	}).
		AddRow(int64(2), appID, "Portal 2", now.Unix(), 85.0, 79.5, 5400).
		AddRow(int64(1), appID, "Portal 2", now.Add(-24*time.Hour).Unix(), 82.0, 75.0, 3600)

	mock.ExpectPrepare(`SELECT.*FROM TempSessions.*ORDER BY Timestamp DESC`).
		ExpectQuery().
		WithArgs(appID, 10).
		WillReturnRows(rows)

	entries, err := sqlGetTempSessions(context.Background(), db, appID, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, int64(2), entries[0].DBID)
	assert.Equal(t, now.Unix(), entries[0].Timestamp.Unix())
	assert.InDelta(t, 85.0, entries[0].MaxCPUTemp, 0.001)
	assert.Equal(t, 3600, entries[1].DurationSec)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlGetTempSessions_EmptyResult(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{
		"DBID", "AppID", "GameName", "Timestamp", "MaxCPUTemp", "MaxGPUTemp", "DurationSec",
	})

	mock.ExpectPrepare(`SELECT.*FROM TempSessions.*ORDER BY Timestamp DESC`).
		ExpectQuery().
		WithArgs(int64(620), 25). // limit<=0 becomes the default page size
		WillReturnRows(rows)

	entries, err := sqlGetTempSessions(context.Background(), db, 620, 0)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlUpsertTempLifetime_Success(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	entry := &database.TempLifetime{
		AppID:          620,
		GameName:       "Portal 2",
		LifetimeMaxCPU: 85.0,
		LifetimeMaxGPU: 79.5,
		UpdatedAt:      time.Now(),
	}

	mock.ExpectPrepare(`INSERT INTO TempLifetime.*ON CONFLICT\(AppID\) DO UPDATE`).
		ExpectExec().
		WithArgs(
			entry.AppID,
			entry.GameName,
			entry.LifetimeMaxCPU,
			entry.LifetimeMaxGPU,
			entry.UpdatedAt.Unix(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = sqlUpsertTempLifetime(context.Background(), db, entry)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlUpsertTempLifetime_DatabaseError(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	entry := &database.TempLifetime{
		AppID:     620,
		GameName:  "Portal 2",
		UpdatedAt: time.Now(),
	}

	mock.ExpectPrepare(`INSERT INTO TempLifetime.*ON CONFLICT\(AppID\) DO UPDATE`).
		ExpectExec().
		WithArgs(
			entry.AppID,
			entry.GameName,
			entry.LifetimeMaxCPU,
			entry.LifetimeMaxGPU,
			entry.UpdatedAt.Unix(),
		).
		WillReturnError(sqlmock.ErrCancelled)

	err = sqlUpsertTempLifetime(context.Background(), db, entry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute temp lifetime upsert")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlGetTempLifetime_Found(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	appID := int64(620)
	updatedAt := time.Now().Unix()

	rows := sqlmock.NewRows([]string{
		"AppID", "GameName", "LifetimeMaxCPU", "LifetimeMaxGPU", "UpdatedAt",
	}).AddRow(appID, "Portal 2", 88.0, 81.0, updatedAt)

	mock.ExpectPrepare(`SELECT.*FROM TempLifetime.*WHERE AppID`).
		ExpectQuery().
		WithArgs(appID).
		WillReturnRows(rows)

	entry, err := sqlGetTempLifetime(context.Background(), db, appID)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, appID, entry.AppID)
	assert.Equal(t, "Portal 2", entry.GameName)
	assert.InDelta(t, 88.0, entry.LifetimeMaxCPU, 0.001)
	assert.Equal(t, updatedAt, entry.UpdatedAt.Unix())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlGetTempLifetime_NotFound(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{
		"AppID", "GameName", "LifetimeMaxCPU", "LifetimeMaxGPU", "UpdatedAt",
	})

	mock.ExpectPrepare(`SELECT.*FROM TempLifetime.*WHERE AppID`).
		ExpectQuery().
		WithArgs(int64(999)).
		WillReturnRows(rows)

	entry, err := sqlGetTempLifetime(context.Background(), db, 999)
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSqlGetTempLifetime_DatabaseError(t *testing.T) {
	t.Parallel()
	db, mock, err := testsqlmock.NewSQLMock()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectPrepare(`SELECT.*FROM TempLifetime.*WHERE AppID`).
		WillReturnError(sqlmock.ErrCancelled)

	entry, err := sqlGetTempLifetime(context.Background(), db, 620)
	require.Error(t, err)
	assert.Nil(t, entry)
	assert.Contains(t, err.Error(), "failed to prepare temp lifetime query statement")
	assert.NoError(t, mock.ExpectationsWereMet())
}
