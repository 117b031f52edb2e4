//go:build linux || darwin

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

package helpers

import (
	"fmt"
	"time"

	"github.com/mackerelio/go-osstat/uptime"
)

// GetSystemUptime returns the duration since the system booted.
func GetSystemUptime() (time.Duration, error) {
	up, err := uptime.Get()
	if err != nil {
		return 0, fmt.Errorf("failed to read system uptime: %w", err)
	}
	return up, nil
}
