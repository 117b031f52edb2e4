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

package config

import "time"

var AppVersion = "DEVELOPMENT"

const (
	AppName            = "vapor"
	AppDisplayName     = "Vapor"
	HistoryDbFile      = "history.db"
	JournalFile        = "journal.db"
	LogFile            = "vapor.log"
	PidFile            = "vapor.pid"
	CfgFile            = "vapor.toml"
	LegacySettingsFile = "vapor_settings.json"
	UserDir            = "user"
	ShutdownTimeout    = 10 * time.Second
)
