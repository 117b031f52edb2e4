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
	"fmt"
	"math"
	"unsafe"

	"github.com/VaporProject/vapor/pkg/platforms"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"
)

func scalarToPercent(scalar float32) int {
	return int(math.Round(float64(scalar) * 100))
}

func percentToScalar(percent int) float32 {
	if percent < 0 {
		percent = 0
	} else if percent > 100 {
		percent = 100
	}
	return float32(percent) / 100
}

func (p *Platform) MasterVolume() (int, error) {
	done, err := comInit()
	if err != nil {
		return 0, err
	}
	defer done()

	device, err := defaultAudioEndpoint()
	if err != nil {
		return 0, err
	}
	defer device.Release()

	unk, err := device.activate(iidIAudioEndpointVolume)
	if err != nil {
		return 0, err
	}
	endpoint := (*audioEndpointVolume)(unsafe.Pointer(unk))
	defer endpoint.Release()

	scalar, err := endpoint.masterVolumeScalar()
	if err != nil {
		return 0, err
	}
	return scalarToPercent(scalar), nil
}

func (p *Platform) SetMasterVolume(percent int) error {
	done, err := comInit()
	if err != nil {
		return err
	}
	defer done()

	device, err := defaultAudioEndpoint()
	if err != nil {
		return err
	}
	defer device.Release()

	unk, err := device.activate(iidIAudioEndpointVolume)
	if err != nil {
		return err
	}
	endpoint := (*audioEndpointVolume)(unsafe.Pointer(unk))
	defer endpoint.Release()

	return endpoint.setMasterVolumeScalar(percentToScalar(percent))
}

// forEachAudioSession walks every active render session on the default
// device, skipping the system sounds session and sessions that fail to
// resolve. Returning stop from fn ends the walk early.
func forEachAudioSession(fn func(pid uint32, vol *simpleAudioVolume) bool) error {
	device, err := defaultAudioEndpoint()
	if err != nil {
		return err
	}
	defer device.Release()

	unk, err := device.activate(iidIAudioSessionManager2)
	if err != nil {
		return err
	}
	mgr := (*audioSessionManager2)(unsafe.Pointer(unk))
	defer mgr.Release()

	enum, err := mgr.sessionEnumerator()
	if err != nil {
		return err
	}
	defer enum.Release()

	count, err := enum.count()
	if err != nil {
		return err
	}

	for i := range count {
		stop, visitErr := visitAudioSession(enum, i, fn)
		if visitErr != nil {
			log.Debug().Err(visitErr).Int("session", i).Msg("skipping audio session")
			continue
		}
		if stop {
			return nil
		}
	}
	return nil
}

func visitAudioSession(
	enum *audioSessionEnumerator,
	index int,
	fn func(pid uint32, vol *simpleAudioVolume) bool,
) (bool, error) {
	sessionUnk, err := enum.session(index)
	if err != nil {
		return false, err
	}
	defer sessionUnk.Release()

	ctlUnk, err := queryInterface(sessionUnk, iidIAudioSessionControl2)
	if err != nil {
		return false, err
	}
	ctl := (*audioSessionControl2)(unsafe.Pointer(ctlUnk))
	defer ctl.Release()

	if ctl.isSystemSounds() {
		return false, nil
	}

	pid, err := ctl.processID()
	if err != nil || pid == 0 {
		return false, err
	}

	volUnk, err := queryInterface(sessionUnk, iidISimpleAudioVolume)
	if err != nil {
		return false, err
	}
	vol := (*simpleAudioVolume)(unsafe.Pointer(volUnk))
	defer vol.Release()

	return fn(pid, vol), nil
}

func (p *Platform) AudioSessions() ([]platforms.AudioSession, error) {
	done, err := comInit()
	if err != nil {
		return nil, err
	}
	defer done()

	var sessions []platforms.AudioSession
	err = forEachAudioSession(func(pid uint32, vol *simpleAudioVolume) bool {
		scalar, volErr := vol.masterVolume()
		if volErr != nil {
			log.Debug().Err(volErr).Uint32("pid", pid).Msg("failed to read session volume")
			return false
		}

		name := ""
		//nolint:gosec // Windows PIDs fit in int32
		if proc, procErr := process.NewProcess(int32(pid)); procErr == nil {
			if n, nameErr := proc.Name(); nameErr == nil {
				name = n
			}
		}

		sessions = append(sessions, platforms.AudioSession{
			ProcessName: name,
			//nolint:gosec // Windows PIDs fit in int32
			PID:    int32(pid),
			Volume: scalarToPercent(scalar),
		})
		return false
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (p *Platform) SetAudioSessionVolume(pid int32, percent int) error {
	done, err := comInit()
	if err != nil {
		return err
	}
	defer done()

	scalar := percentToScalar(percent)
	found := false
	err = forEachAudioSession(func(sessionPID uint32, vol *simpleAudioVolume) bool {
		//nolint:gosec // Windows PIDs fit in int32
		if int32(sessionPID) != pid {
			return false
		}
		if setErr := vol.setMasterVolume(scalar); setErr != nil {
			log.Warn().Err(setErr).Int32("pid", pid).Msg("failed to set session volume")
			return false
		}
		found = true
		// A process can own several sessions, keep walking.
		return false
	})
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no audio session for pid %d", pid)
	}
	return nil
}
