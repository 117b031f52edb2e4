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

// Package historydb stores finished play sessions and their temperature
// records in a local SQLite file.
package historydb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/VaporProject/vapor/pkg/config"
	"github.com/VaporProject/vapor/pkg/database"
	"github.com/VaporProject/vapor/pkg/helpers"
	"github.com/VaporProject/vapor/pkg/platforms"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNullSQL = errors.New("HistoryDB is not connected")

const sqliteConnParams = "?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000"

type HistoryDB struct {
	sql *sql.DB
	pl  platforms.Platform
	ctx context.Context
}

func OpenHistoryDB(ctx context.Context, pl platforms.Platform) (*HistoryDB, error) {
	db := &HistoryDB{sql: nil, pl: pl, ctx: ctx}
	err := db.Open()
	return db, err
}

func (db *HistoryDB) Open() error {
	exists := true
	dbPath := db.GetDBPath()
	_, err := os.Stat(dbPath)
	if err != nil {
		exists = false
		mkdirErr := os.MkdirAll(filepath.Dir(dbPath), 0o750)
		if mkdirErr != nil {
			return fmt.Errorf("failed to create directory for database: %w", mkdirErr)
		}
	}
	sqlInstance, err := sql.Open("sqlite3", dbPath+sqliteConnParams)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.sql = sqlInstance
	if !exists {
		return db.Allocate()
	}
	return nil
}

func (db *HistoryDB) GetDBPath() string {
	return filepath.Join(helpers.DataDir(db.pl), config.HistoryDbFile)
}

func (db *HistoryDB) UnsafeGetSQLDb() *sql.DB {
	return db.sql
}

func (db *HistoryDB) Truncate() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlTruncate(db.ctx, db.sql)
}

func (db *HistoryDB) Allocate() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *HistoryDB) MigrateUp() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *HistoryDB) Vacuum() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlVacuum(db.ctx, db.sql)
}

func (db *HistoryDB) Close() error {
	if db.sql == nil {
		return nil
	}
	err := db.sql.Close()
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// SetSQLForTesting injects a sql.DB instance, for in-memory databases in
// tests.
func (db *HistoryDB) SetSQLForTesting(ctx context.Context, sqlDB *sql.DB, platform platforms.Platform) error {
	db.sql = sqlDB
	db.pl = platform
	db.ctx = ctx
	return db.Allocate()
}

// AddSession inserts an open session row and returns its DBID.
func (db *HistoryDB) AddSession(entry *database.GameSession) (int64, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	return sqlAddSession(db.ctx, db.sql, entry)
}

// UpdateSessionPlayTime updates PlaySeconds for a session still running.
func (db *HistoryDB) UpdateSessionPlayTime(dbid int64, playSeconds int) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlUpdateSessionPlayTime(db.ctx, db.sql, dbid, playSeconds)
}

// CloseSession finalizes a session row with its end time and final numbers.
func (db *HistoryDB) CloseSession(dbid int64, endTime time.Time, closed *database.SessionClose) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlCloseSession(db.ctx, db.sql, dbid, endTime, closed)
}

// GetSessions retrieves sessions newest first with token pagination.
func (db *HistoryDB) GetSessions(lastID, limit int) ([]database.GameSession, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlGetSessions(db.ctx, db.sql, lastID, limit)
}

// CloseHangingSessions closes rows left open by an unclean shutdown,
// setting EndTime = StartTime + PlaySeconds.
func (db *HistoryDB) CloseHangingSessions() (int64, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	return sqlCloseHangingSessions(db.ctx, db.sql)
}

// CleanupSessions removes sessions older than the retention period.
func (db *HistoryDB) CleanupSessions(retentionDays int) (int64, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	return sqlCleanupSessions(db.ctx, db.sql, retentionDays)
}

// AddTempSession records the temperature summary of a finished session.
func (db *HistoryDB) AddTempSession(entry *database.TempSession) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlAddTempSession(db.ctx, db.sql, entry)
}

// PruneTempSessions keeps the newest rows per game and deletes the rest.
func (db *HistoryDB) PruneTempSessions(appID int64, keep int) (int64, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	return sqlPruneTempSessions(db.ctx, db.sql, appID, keep)
}

// GetTempSessions retrieves a game's temperature records, newest first.
func (db *HistoryDB) GetTempSessions(appID int64, limit int) ([]database.TempSession, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlGetTempSessions(db.ctx, db.sql, appID, limit)
}

// UpsertTempLifetime folds a session's maxima into the game's lifetime
// record, keeping the hotter value per sensor.
func (db *HistoryDB) UpsertTempLifetime(entry *database.TempLifetime) error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlUpsertTempLifetime(db.ctx, db.sql, entry)
}

// GetTempLifetime returns a game's lifetime maxima, or nil when the game
// has none yet.
func (db *HistoryDB) GetTempLifetime(appID int64) (*database.TempLifetime, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlGetTempLifetime(db.ctx, db.sql, appID)
}

// ExportRows returns every session joined with its game's lifetime
// temperatures, oldest first, ready for CSV export.
func (db *HistoryDB) ExportRows() ([]database.ExportRow, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlExportRows(db.ctx, db.sql)
}
