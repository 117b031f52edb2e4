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
	"fmt"
	"path/filepath"
	"time"

	"github.com/VaporProject/vapor/pkg/database"
	"github.com/VaporProject/vapor/pkg/helpers"
	"github.com/VaporProject/vapor/pkg/platforms"
	"github.com/gocarina/gocsv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// ExportHistoryCSV writes the session history, joined with lifetime
// temperature peaks, to path as CSV.
func ExportHistoryCSV(db *database.Database, fs afero.Fs, path string) error {
	rows, err := db.History.ExportRows()
	if err != nil {
		return fmt.Errorf("failed to read history for export: %w", err)
	}

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close export file")
		}
	}()

	if err := gocsv.Marshal(&rows, f); err != nil {
		return fmt.Errorf("failed to write history CSV: %w", err)
	}

	log.Info().Int("rows", len(rows)).Str("path", path).Msg("exported session history")
	return nil
}

// DefaultExportPath returns a timestamped CSV path in the data dir, used
// by the tray's export action.
func DefaultExportPath(pl platforms.Platform, now time.Time) string {
	name := fmt.Sprintf("vapor-history-%s.csv", now.Format("20060102-150405"))
	return filepath.Join(helpers.DataDir(pl), name)
}
