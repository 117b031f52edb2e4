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

package database

import (
	"database/sql"
	"time"
)

// Database bundles the concrete stores behind their interfaces so
// consumers stay decoupled from the SQL layer.
type Database struct {
	History HistoryDBI
}

/*
 * Structs for SQL records
 */

// GameSession is one play session of a Steam game. EndTime is nil while
// the session is open.
type GameSession struct {
	StartTime   time.Time
	EndTime     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	BootTime    time.Time
	ID          string `json:"id"`
	GameName    string `json:"gameName"`
	DBID        int64
	AppID       int64   `json:"appId"`
	PlaySeconds int     `json:"playSeconds"`
	ClosedApps  int     `json:"closedApps"`
	MaxCPUTemp  float64 `json:"maxCpuTemp"`
	MaxGPUTemp  float64 `json:"maxGpuTemp"`
}

// TempSession is the temperature record of one finished session.
type TempSession struct {
	Timestamp   time.Time
	GameName    string
	DBID        int64
	AppID       int64
	DurationSec int
	MaxCPUTemp  float64
	MaxGPUTemp  float64
}

// TempLifetime is the hottest reading ever seen per game.
type TempLifetime struct {
	UpdatedAt      time.Time
	GameName       string
	AppID          int64
	LifetimeMaxCPU float64
	LifetimeMaxGPU float64
}

/*
 * Interfaces for external deps
 */

type GenericDBI interface {
	Open() error
	UnsafeGetSQLDb() *sql.DB
	Truncate() error
	Allocate() error
	MigrateUp() error
	Vacuum() error
	Close() error
	GetDBPath() string
}

type HistoryDBI interface {
	GenericDBI

	AddSession(entry *GameSession) (int64, error)
	UpdateSessionPlayTime(dbid int64, playSeconds int) error
	CloseSession(dbid int64, endTime time.Time, closed *SessionClose) error
	GetSessions(lastID, limit int) ([]GameSession, error)
	CloseHangingSessions() (int64, error)
	CleanupSessions(retentionDays int) (int64, error)

	AddTempSession(entry *TempSession) error
	PruneTempSessions(appID int64, keep int) (int64, error)
	GetTempSessions(appID int64, limit int) ([]TempSession, error)
	UpsertTempLifetime(entry *TempLifetime) error
	GetTempLifetime(appID int64) (*TempLifetime, error)

	ExportRows() ([]ExportRow, error)
}

// SessionClose carries the final numbers written when a session ends.
type SessionClose struct {
	PlaySeconds int
	ClosedApps  int
	MaxCPUTemp  float64
	MaxGPUTemp  float64
}

// ExportRow is one line of the CSV history export: a session joined with
// the game's lifetime temperature maxima.
type ExportRow struct {
	StartTime      string  `csv:"start_time"`
	EndTime        string  `csv:"end_time"`
	GameName       string  `csv:"game_name"`
	AppID          int64   `csv:"app_id"`
	PlaySeconds    int     `csv:"play_seconds"`
	ClosedApps     int     `csv:"closed_apps"`
	MaxCPUTemp     float64 `csv:"max_cpu_temp"`
	MaxGPUTemp     float64 `csv:"max_gpu_temp"`
	LifetimeMaxCPU float64 `csv:"lifetime_max_cpu"`
	LifetimeMaxGPU float64 `csv:"lifetime_max_gpu"`
}
