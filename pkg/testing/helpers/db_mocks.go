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

// Package helpers provides testing utilities for database operations.
//
// This package includes mock implementations of database interfaces so
// components can be tested without a real SQLite database.
//
// Example usage:
//
//	func TestSessionRecording(t *testing.T) {
//		historyDB := helpers.NewMockHistoryDBI()
//		historyDB.On("AddSession", mock.Anything).Return(int64(1), nil)
//
//		err := MyFunction(historyDB)
//
//		require.NoError(t, err)
//		historyDB.AssertExpectations(t)
//	}
package helpers

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/VaporProject/vapor/pkg/database"
	"github.com/stretchr/testify/mock"
)

// MockHistoryDBI is a mock implementation of the HistoryDBI interface using
// testify/mock.
type MockHistoryDBI struct {
	mock.Mock
}

// NewMockHistoryDBI creates a new mock history database.
func NewMockHistoryDBI() *MockHistoryDBI {
	return &MockHistoryDBI{}
}

// GenericDBI methods

func (m *MockHistoryDBI) Open() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock HistoryDBI open failed: %w", err)
	}
	return nil
}

func (m *MockHistoryDBI) UnsafeGetSQLDb() *sql.DB {
	args := m.Called()
	if db, ok := args.Get(0).(*sql.DB); ok {
		return db
	}
	return nil
}

func (m *MockHistoryDBI) Truncate() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock HistoryDBI truncate failed: %w", err)
	}
	return nil
}

func (m *MockHistoryDBI) Allocate() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock HistoryDBI allocate failed: %w", err)
	}
	return nil
}

func (m *MockHistoryDBI) MigrateUp() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock HistoryDBI migrate up failed: %w", err)
	}
	return nil
}

func (m *MockHistoryDBI) Vacuum() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock HistoryDBI vacuum failed: %w", err)
	}
	return nil
}

func (m *MockHistoryDBI) Close() error {
	args := m.Called()
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock HistoryDBI close failed: %w", err)
	}
	return nil
}

func (m *MockHistoryDBI) GetDBPath() string {
	args := m.Called()
	return args.String(0)
}

// HistoryDBI session methods

func (m *MockHistoryDBI) AddSession(entry *database.GameSession) (int64, error) {
	args := m.Called(entry)
	if err := args.Error(1); err != nil {
		return args.Get(0).(int64), fmt.Errorf("mock HistoryDBI add session failed: %w", err)
	}
	return args.Get(0).(int64), nil
}

func (m *MockHistoryDBI) UpdateSessionPlayTime(dbid int64, playSeconds int) error {
	args := m.Called(dbid, playSeconds)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock HistoryDBI update play time failed: %w", err)
	}
	return nil
}

func (m *MockHistoryDBI) CloseSession(dbid int64, endTime time.Time, closed *database.SessionClose) error {
	args := m.Called(dbid, endTime, closed)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock HistoryDBI close session failed: %w", err)
	}
	return nil
}

func (m *MockHistoryDBI) GetSessions(lastID, limit int) ([]database.GameSession, error) {
	args := m.Called(lastID, limit)
	if sessions, ok := args.Get(0).([]database.GameSession); ok {
		if err := args.Error(1); err != nil {
			return sessions, fmt.Errorf("mock HistoryDBI get sessions failed: %w", err)
		}
		return sessions, nil
	}
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock HistoryDBI get sessions failed: %w", err)
	}
	return nil, nil
}

func (m *MockHistoryDBI) CloseHangingSessions() (int64, error) {
	args := m.Called()
	if err := args.Error(1); err != nil {
		return args.Get(0).(int64), fmt.Errorf("mock HistoryDBI close hanging sessions failed: %w", err)
	}
	return args.Get(0).(int64), nil
}

func (m *MockHistoryDBI) CleanupSessions(retentionDays int) (int64, error) {
	args := m.Called(retentionDays)
	if err := args.Error(1); err != nil {
		return args.Get(0).(int64), fmt.Errorf("mock HistoryDBI cleanup sessions failed: %w", err)
	}
	return args.Get(0).(int64), nil
}

// HistoryDBI temperature methods

func (m *MockHistoryDBI) AddTempSession(entry *database.TempSession) error {
	args := m.Called(entry)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock HistoryDBI add temp session failed: %w", err)
	}
	return nil
}

func (m *MockHistoryDBI) PruneTempSessions(appID int64, keep int) (int64, error) {
	args := m.Called(appID, keep)
	if err := args.Error(1); err != nil {
		return args.Get(0).(int64), fmt.Errorf("mock HistoryDBI prune temp sessions failed: %w", err)
	}
	return args.Get(0).(int64), nil
}

func (m *MockHistoryDBI) GetTempSessions(appID int64, limit int) ([]database.TempSession, error) {
	args := m.Called(appID, limit)
	if sessions, ok := args.Get(0).([]database.TempSession); ok {
		if err := args.Error(1); err != nil {
			return sessions, fmt.Errorf("mock HistoryDBI get temp sessions failed: %w", err)
		}
		return sessions, nil
	}
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock HistoryDBI get temp sessions failed: %w", err)
	}
	return nil, nil
}

func (m *MockHistoryDBI) UpsertTempLifetime(entry *database.TempLifetime) error {
	args := m.Called(entry)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock HistoryDBI upsert temp lifetime failed: %w", err)
	}
	return nil
}

func (m *MockHistoryDBI) GetTempLifetime(appID int64) (*database.TempLifetime, error) {
	args := m.Called(appID)
	if lifetime, ok := args.Get(0).(*database.TempLifetime); ok {
		if err := args.Error(1); err != nil {
			return lifetime, fmt.Errorf("mock HistoryDBI get temp lifetime failed: %w", err)
		}
		return lifetime, nil
	}
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock HistoryDBI get temp lifetime failed: %w", err)
	}
	return nil, nil
}

func (m *MockHistoryDBI) ExportRows() ([]database.ExportRow, error) {
	args := m.Called()
	if rows, ok := args.Get(0).([]database.ExportRow); ok {
		if err := args.Error(1); err != nil {
			return rows, fmt.Errorf("mock HistoryDBI export rows failed: %w", err)
		}
		return rows, nil
	}
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock HistoryDBI export rows failed: %w", err)
	}
	return nil, nil
}
