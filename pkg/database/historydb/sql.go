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
	"embed"
	"fmt"
	"time"

	"github.com/VaporProject/vapor/pkg/database"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func sqlMigrateUp(db *sql.DB) error {
	if err := database.MigrateUp(db, migrationFiles, "migrations"); err != nil {
		return fmt.Errorf("failed to run history database migrations: %w", err)
	}
	return nil
}

//goland:noinspection SqlWithoutWhere
func sqlTruncate(ctx context.Context, db *sql.DB) error {
	sqlStmt := `
	delete from Sessions;
	delete from TempSessions;
	delete from TempLifetime;
	vacuum;
	`
	_, err := db.ExecContext(ctx, sqlStmt)
	if err != nil {
		return fmt.Errorf("failed to truncate database: %w", err)
	}
	return nil
}

func sqlVacuum(ctx context.Context, db *sql.DB) error {
	sqlStmt := `
	vacuum;
	`
	_, err := db.ExecContext(ctx, sqlStmt)
	if err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}

func sqlAddSession(ctx context.Context, db *sql.DB, entry *database.GameSession) (int64, error) {
	stmt, err := db.PrepareContext(ctx, `
		INSERT INTO Sessions(
			ID, AppID, GameName, StartTime, EndTime, PlaySeconds, BootTime,
			ClosedApps, MaxCPUTemp, MaxGPUTemp, CreatedAt, UpdatedAt
		) VALUES (?, ?, ?, ?, NULL, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare session insert statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	result, err := stmt.ExecContext(ctx,
		entry.ID,
		entry.AppID,
		entry.GameName,
		entry.StartTime.Unix(),
		entry.PlaySeconds,
		entry.BootTime.Unix(),
		entry.ClosedApps,
		entry.MaxCPUTemp,
		entry.MaxGPUTemp,
		entry.CreatedAt.Unix(),
		entry.UpdatedAt.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to execute session insert: %w", err)
	}

	dbid, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted session id: %w", err)
	}
	return dbid, nil
}

func sqlUpdateSessionPlayTime(ctx context.Context, db *sql.DB, dbid int64, playSeconds int) error {
	stmt, err := db.PrepareContext(ctx, `
		UPDATE Sessions
		SET PlaySeconds = ?, UpdatedAt = ?
		WHERE DBID = ?;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare session time update statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	_, err = stmt.ExecContext(ctx, playSeconds, time.Now().Unix(), dbid)
	if err != nil {
		return fmt.Errorf("failed to execute session time update: %w", err)
	}
	return nil
}

func sqlCloseSession(
	ctx context.Context,
	db *sql.DB,
	dbid int64,
	endTime time.Time,
	closed *database.SessionClose,
) error {
	stmt, err := db.PrepareContext(ctx, `
		UPDATE Sessions
		SET EndTime = ?, PlaySeconds = ?, ClosedApps = ?,
		    MaxCPUTemp = ?, MaxGPUTemp = ?, UpdatedAt = ?
		WHERE DBID = ?;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare session close statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	_, err = stmt.ExecContext(ctx,
		endTime.Unix(),
		closed.PlaySeconds,
		closed.ClosedApps,
		closed.MaxCPUTemp,
		closed.MaxGPUTemp,
		time.Now().Unix(),
		dbid,
	)
	if err != nil {
		return fmt.Errorf("failed to execute session close: %w", err)
	}
	return nil
}

func sqlGetSessions(ctx context.Context, db *sql.DB, lastID, limit int) ([]database.GameSession, error) {
	if limit <= 0 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}

	list := make([]database.GameSession, 0, limit)

	// Token-based pagination, newest first.
	if lastID == 0 {
		lastID = 2147483646
	}

	q, err := db.PrepareContext(ctx, `
		SELECT
			DBID, ID, AppID, GameName, StartTime, EndTime, PlaySeconds,
			BootTime, ClosedApps, MaxCPUTemp, MaxGPUTemp, CreatedAt, UpdatedAt
		FROM Sessions
		WHERE DBID < ?
		ORDER BY DBID DESC
		LIMIT ?;
	`)
	if err != nil {
		return list, fmt.Errorf("failed to prepare session query statement: %w", err)
	}
	defer func() {
		if closeErr := q.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	rows, err := q.QueryContext(ctx, lastID, limit)
	if err != nil {
		return list, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close rows")
		}
	}()

	for rows.Next() {
		var entry database.GameSession
		var startTimeUnix, bootTimeUnix int64
		var endTimeUnix sql.NullInt64
		var createdAtUnix, updatedAtUnix int64

		err = rows.Scan(
			&entry.DBID,
			&entry.ID,
			&entry.AppID,
			&entry.GameName,
			&startTimeUnix,
			&endTimeUnix,
			&entry.PlaySeconds,
			&bootTimeUnix,
			&entry.ClosedApps,
			&entry.MaxCPUTemp,
			&entry.MaxGPUTemp,
			&createdAtUnix,
			&updatedAtUnix,
		)
		if err != nil {
			return list, fmt.Errorf("failed to scan session row: %w", err)
		}

		entry.StartTime = time.Unix(startTimeUnix, 0)
		if endTimeUnix.Valid {
			endTime := time.Unix(endTimeUnix.Int64, 0)
			entry.EndTime = &endTime
		}
		entry.BootTime = time.Unix(bootTimeUnix, 0)
		entry.CreatedAt = time.Unix(createdAtUnix, 0)
		entry.UpdatedAt = time.Unix(updatedAtUnix, 0)

		list = append(list, entry)
	}
	if err := rows.Err(); err != nil {
		return list, fmt.Errorf("failed to iterate session rows: %w", err)
	}

	return list, nil
}

func sqlCloseHangingSessions(ctx context.Context, db *sql.DB) (int64, error) {
	// Rows a crashed run left open end at the last recorded play time.
	stmt, err := db.PrepareContext(ctx, `
		UPDATE Sessions
		SET EndTime = StartTime + PlaySeconds,
		    UpdatedAt = unixepoch()
		WHERE EndTime IS NULL;
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare close hanging sessions statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	result, err := stmt.ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to close hanging sessions: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows > 0 {
		log.Info().Msgf("closed %d hanging sessions", rows)
	}
	return rows, nil
}

func sqlCleanupSessions(ctx context.Context, db *sql.DB, retentionDays int) (int64, error) {
	cutoffTime := time.Now().AddDate(0, 0, -retentionDays).Unix()

	stmt, err := db.PrepareContext(ctx, `DELETE FROM Sessions WHERE StartTime < ?;`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare session cleanup statement: %w", err)
	}
	defer func() {
		if closeErr := stmt.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	result, err := stmt.ExecContext(ctx, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to execute session cleanup: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		if err := sqlVacuum(ctx, db); err != nil {
			return rowsAffected, fmt.Errorf("cleanup succeeded but vacuum failed: %w", err)
		}
	}

	return rowsAffected, nil
}

func sqlExportRows(ctx context.Context, db *sql.DB) ([]database.ExportRow, error) {
	q, err := db.PrepareContext(ctx, `
		SELECT
			s.StartTime, s.EndTime, s.GameName, s.AppID, s.PlaySeconds,
			s.ClosedApps, s.MaxCPUTemp, s.MaxGPUTemp,
			COALESCE(l.LifetimeMaxCPU, 0), COALESCE(l.LifetimeMaxGPU, 0)
		FROM Sessions s
		LEFT JOIN TempLifetime l ON l.AppID = s.AppID
		ORDER BY s.StartTime, s.DBID;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare export query statement: %w", err)
	}
	defer func() {
		if closeErr := q.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql statement")
		}
	}()

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query export rows: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close rows")
		}
	}()

	list := make([]database.ExportRow, 0)
	for rows.Next() {
		var row database.ExportRow
		var startTimeUnix int64
		var endTimeUnix sql.NullInt64

		err = rows.Scan(
			&startTimeUnix,
			&endTimeUnix,
			&row.GameName,
			&row.AppID,
			&row.PlaySeconds,
			&row.ClosedApps,
			&row.MaxCPUTemp,
			&row.MaxGPUTemp,
			&row.LifetimeMaxCPU,
			&row.LifetimeMaxGPU,
		)
		if err != nil {
			return list, fmt.Errorf("failed to scan export row: %w", err)
		}

		row.StartTime = time.Unix(startTimeUnix, 0).Format(time.RFC3339)
		if endTimeUnix.Valid {
			row.EndTime = time.Unix(endTimeUnix.Int64, 0).Format(time.RFC3339)
		}

		list = append(list, row)
	}
	if err := rows.Err(); err != nil {
		return list, fmt.Errorf("failed to iterate export rows: %w", err)
	}

	return list, nil
}
