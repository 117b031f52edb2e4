//go:build windows

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

	"golang.org/x/sys/windows"
)

var (
	kernel32           = windows.NewLazySystemDLL("kernel32.dll")
	procGetTickCount64 = kernel32.NewProc("GetTickCount64")
)

// GetSystemUptime returns the duration since the system booted, from
// GetTickCount64's milliseconds-since-boot counter.
func GetSystemUptime() (time.Duration, error) {
	if err := procGetTickCount64.Find(); err != nil {
		return 0, fmt.Errorf("failed to find GetTickCount64: %w", err)
	}

	// GetTickCount64 has no failure return, every value is a valid tick
	// count including 0.
	ticks, _, _ := procGetTickCount64.Call()
	return time.Duration(ticks) * time.Millisecond, nil
}
