//go:build !windows

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

package steam

import "github.com/VaporProject/vapor/pkg/platforms"

type unsupportedSource struct{}

// NewSource returns the Steam state source for this OS.
func NewSource() Source {
	return unsupportedSource{}
}

func (unsupportedSource) RunningAppID() (int64, error) {
	return 0, platforms.ErrNotSupported
}

func (unsupportedSource) InstallDir() (string, error) {
	return "", platforms.ErrNotSupported
}
