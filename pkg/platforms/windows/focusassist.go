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

package windows

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sys/windows/registry"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Focus Assist has no public API. The active profile is stored as a
// CloudStore blob with the profile name embedded as UTF-16LE text.
const quietHoursKey = `SOFTWARE\Microsoft\Windows\CurrentVersion\CloudStore\Store\DefaultAccount\Current` +
	`\default$windows.data.notifications.quiethoursprofile` +
	`\windows.data.notifications.quiethoursprofile`

// FocusAssistActive reports whether Focus Assist is set to priority only or
// alarms only. A missing key means the profile was never changed from off.
func (p *Platform) FocusAssistActive() (bool, error) {
	key, err := registry.OpenKey(registry.CURRENT_USER, quietHoursKey, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to open quiet hours key: %w", err)
	}
	defer func() {
		_ = key.Close()
	}()

	blob, _, err := key.GetBinaryValue("Data")
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read quiet hours data: %w", err)
	}

	return quietHoursBlobActive(blob), nil
}

func quietHoursBlobActive(blob []byte) bool {
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	text, _, err := transform.String(decoder, string(blob))
	if err != nil {
		// The blob header is not always valid UTF-16. The profile names are
		// plain ASCII, so stripping the interleaved NULs still finds them.
		text = strings.ReplaceAll(string(blob), "\x00", "")
	}
	return strings.Contains(text, "QuietHoursProfile.PriorityOnly") ||
		strings.Contains(text, "QuietHoursProfile.AlarmsOnly")
}
