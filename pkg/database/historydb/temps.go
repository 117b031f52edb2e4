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
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/VaporProject/vapor/pkg/database"
	"github.com/rs/zerolog/log"
)

func sqlAddTempSession(ctx context.Context, db *sql.DB, entry *database.TempSession) error {
	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO TempSessions(
			AppID, GameName, Timestamp, MaxCPUTemp, MaxGPUTemp, DurationSec
		) VALUES (?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare temp session insert statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	_, err = stmt.ExecContext(ctx,
		entry.AppID,
		entry.GameName,
		entry.Timestamp.Unix(),
		entry.MaxCPUTemp,
		entry.MaxGPUTemp,
		entry.DurationSec,
	)
	if err != nil {
		return fmt.Errorf("failed to execute temp session insert: %w", err)
	}
	return nil
}

func sqlPruneTempSessions(ctx context.Context, db *sql.DB, appID int64, keep int) (int64, error) {
	if keep <= 0 {
		// Zero cap means keep everything.
		return 0, nil
	}

	stmt, err := db.PrepareContext(ctx, `
		DELETE FROM TempSessions
		WHERE AppID = ? AND DBID NOT IN (
			SELECT DBID FROM TempSessions
			WHERE AppID = ?
			ORDER BY Timestamp DESC, DBID DESC
			LIMIT ?
		);
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare temp session prune statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	result, err := stmt.ExecContext(ctx, appID, appID, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to execute temp session prune: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected, nil
}

func sqlGetTempSessions(ctx context.Context, db *sql.DB, appID int64, limit int) ([]database.TempSession, error) {
	if limit <= 0 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}

	list := make([]database.TempSession, 0, limit)

	q, err := db.PrepareContext(ctx, `
		SELECT DBID, AppID, GameName, Timestamp, MaxCPUTemp, MaxGPUTemp, DurationSec
		FROM TempSessions
		WHERE AppID = ?
		ORDER BY Timestamp DESC, DBID DESC
		LIMIT ?;
	`)
	if err != nil {
		return list, fmt.Errorf("failed to prepare temp session query statement: %w", err)
	}
	defer func() {
		if closeErr := q.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	rows, err := q.QueryContext(ctx, appID, limit)
	if err != nil {
		return list, fmt.Errorf("failed to query temp sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close rows")
		}
	}()

	for rows.Next() {
		var entry database.TempSession
		var timestampUnix int64

		err = rows.Scan(
			&entry.DBID,
			&entry.AppID,
			&entry.GameName,
			&timestampUnix,
			&entry.MaxCPUTemp,
			&entry.MaxGPUTemp,
			&entry.DurationSec,
		)
		if err != nil {
			return list, fmt.Errorf("failed to scan temp session row: %w", err)
		}

		entry.Timestamp = time.Unix(timestampUnix, 0)
		list = append(list, entry)
	}
	if err := rows.Err(); err != nil {
		return list, fmt.Errorf("failed to iterate temp session rows: %w", err)
	}

	return list, nil
}

func sqlUpsertTempLifetime(ctx context.Context, db *sql.DB, entry *database.TempLifetime) error {
	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO TempLifetime(AppID, GameName, LifetimeMaxCPU, LifetimeMaxGPU, UpdatedAt)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(AppID) DO UPDATE SET
			GameName = excluded.GameName,
			LifetimeMaxCPU = max(LifetimeMaxCPU, excluded.LifetimeMaxCPU),
			LifetimeMaxGPU = max(LifetimeMaxGPU, excluded.LifetimeMaxGPU),
			UpdatedAt = excluded.UpdatedAt;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare temp lifetime upsert statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	_, err = stmt.ExecContext(ctx,
		entry.AppID,
		entry.GameName,
		entry.LifetimeMaxCPU,
		entry.LifetimeMaxGPU,
		entry.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to execute temp lifetime upsert: %w", err)
	}
	return nil
}

func sqlGetTempLifetime(ctx context.Context, db *sql.DB, appID int64) (*database.TempLifetime, error) {
	q, err := db.PrepareContext(ctx, `
		SELECT AppID, GameName, LifetimeMaxCPU, LifetimeMaxGPU, UpdatedAt
		FROM TempLifetime
		WHERE AppID = ?;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare temp lifetime query statement: %w", err)
	}
	defer func() {
		if closeErr := q.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	var entry database.TempLifetime
	var updatedAtUnix int64

	row := q.QueryRowContext(ctx, appID)
	err = row.Scan(
		&entry.AppID,
		&entry.GameName,
		&entry.LifetimeMaxCPU,
		&entry.LifetimeMaxGPU,
		&updatedAtUnix,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // no row is not an error
	} else if err != nil {
		return nil, fmt.Errorf("failed to scan temp lifetime row: %w", err)
	}

	entry.UpdatedAt = time.Unix(updatedAtUnix, 0)
	return &entry, nil
}
