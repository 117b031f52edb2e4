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

package mocks

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/VaporProject/vapor/pkg/config"
	"github.com/VaporProject/vapor/pkg/helpers/syncutil"
	"github.com/VaporProject/vapor/pkg/platforms"
)

// MockPlatform is an in-memory implementation of the Platform interface. It
// keeps a fake process table, audio state and power state that tests mutate
// directly, and records every side effect for verification.
type MockPlatform struct {
	bootTime     time.Time
	processes    map[int32]platforms.ProcessInfo
	sessions     map[int32]int
	hotkeys      map[string]func()
	settings     platforms.Settings
	activePlan   string
	plans        []platforms.PowerPlan
	terminated   []int32  // Track terminated PIDs for verification
	launched     []string // Track launched paths for verification
	masterVolume int
	nextPID      int32
	gameMode     bool
	focusAssist  bool
	startOnLogin bool
	stopped      bool

	// Err fields force the matching method to fail when set.
	TerminateErr error
	LaunchErr    error
	VolumeErr    error
	SessionErr   error
	PowerErr     error
	GameModeErr  error

	mu syncutil.Mutex
}

// NewMockPlatform creates a mock platform with a running system: master
// volume at 60, the three stock power plans with Balanced active, Game Mode
// on and an empty process table.
func NewMockPlatform(tempDir string) *MockPlatform {
	return &MockPlatform{
		bootTime:  time.Now().Add(-time.Hour).Truncate(time.Second),
		processes: make(map[int32]platforms.ProcessInfo),
		sessions:  make(map[int32]int),
		hotkeys:   make(map[string]func()),
		settings: platforms.Settings{
			DataDir:   filepath.Join(tempDir, "data"),
			ConfigDir: filepath.Join(tempDir, "config"),
			TempDir:   filepath.Join(tempDir, "temp"),
		},
		activePlan: platforms.PowerPlanGUIDBalanced,
		plans: []platforms.PowerPlan{
			{GUID: platforms.PowerPlanGUIDBalanced, Name: "Balanced", Active: true},
			{GUID: platforms.PowerPlanGUIDHighPerformance, Name: "High performance"},
			{GUID: platforms.PowerPlanGUIDPowerSaver, Name: "Power saver"},
		},
		masterVolume: 60,
		nextPID:      1000,
		gameMode:     true,
	}
}

func (m *MockPlatform) ID() string {
	return platforms.PlatformIDMock
}

func (m *MockPlatform) StartPre(_ *config.Instance) error {
	return nil
}

func (m *MockPlatform) StartPost(_ *config.Instance) error {
	return nil
}

func (m *MockPlatform) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	return nil
}

func (m *MockPlatform) Settings() platforms.Settings {
	return m.settings
}

// AddProcess puts a fake process in the table and returns it. The exe path
// defaults to C:\fake\<name> when none is given.
func (m *MockPlatform) AddProcess(name, exe string, cmdline ...string) platforms.ProcessInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextPID++
	if exe == "" {
		exe = filepath.Join(`C:\fake`, name)
	}
	info := platforms.ProcessInfo{
		Name:       name,
		Exe:        exe,
		Cmdline:    append([]string{exe}, cmdline...),
		CreateTime: time.Now().UnixMilli(),
		PID:        m.nextPID,
		PPID:       1,
	}
	m.processes[info.PID] = info
	return info
}

// RemoveProcess drops a fake process, as if it exited on its own.
func (m *MockPlatform) RemoveProcess(pid int32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.processes, pid)
	delete(m.sessions, pid)
}

func (m *MockPlatform) Processes() ([]platforms.ProcessInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	procs := make([]platforms.ProcessInfo, 0, len(m.processes))
	for _, info := range m.processes {
		procs = append(procs, info)
	}
	return procs, nil
}

func (m *MockPlatform) IsProcessRunning(pid int32) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.processes[pid]
	return ok, nil
}

func (m *MockPlatform) TerminateProcess(_ context.Context, pid int32, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.TerminateErr != nil {
		return m.TerminateErr
	}
	if _, ok := m.processes[pid]; !ok {
		return fmt.Errorf("no such process: %d", pid)
	}
	delete(m.processes, pid)
	delete(m.sessions, pid)
	m.terminated = append(m.terminated, pid)
	return nil
}

func (m *MockPlatform) LaunchDetached(path string, _ ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.LaunchErr != nil {
		return m.LaunchErr
	}
	m.launched = append(m.launched, path)

	m.nextPID++
	name := filepath.Base(path)
	m.processes[m.nextPID] = platforms.ProcessInfo{
		Name:       name,
		Exe:        path,
		Cmdline:    []string{path},
		CreateTime: time.Now().UnixMilli(),
		PID:        m.nextPID,
		PPID:       1,
	}
	return nil
}

func (m *MockPlatform) BootTime() (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bootTime, nil
}

// SetBootTime overrides the fake boot time, for reboot scenarios.
func (m *MockPlatform) SetBootTime(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bootTime = t
}

func (m *MockPlatform) MasterVolume() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.VolumeErr != nil {
		return 0, m.VolumeErr
	}
	return m.masterVolume, nil
}

func (m *MockPlatform) SetMasterVolume(level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.VolumeErr != nil {
		return m.VolumeErr
	}
	m.masterVolume = level
	return nil
}

// AddAudioSession gives a fake process an audio session at the given volume.
func (m *MockPlatform) AddAudioSession(pid int32, volume int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[pid] = volume
}

func (m *MockPlatform) AudioSessions() ([]platforms.AudioSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SessionErr != nil {
		return nil, m.SessionErr
	}
	sessions := make([]platforms.AudioSession, 0, len(m.sessions))
	for pid, volume := range m.sessions {
		name := ""
		if info, ok := m.processes[pid]; ok {
			name = info.Name
		}
		sessions = append(sessions, platforms.AudioSession{
			ProcessName: name,
			PID:         pid,
			Volume:      volume,
		})
	}
	return sessions, nil
}

func (m *MockPlatform) SetAudioSessionVolume(pid int32, level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SessionErr != nil {
		return m.SessionErr
	}
	if _, ok := m.sessions[pid]; !ok {
		return fmt.Errorf("no audio session for pid %d", pid)
	}
	m.sessions[pid] = level
	return nil
}

// SessionVolume returns the fake session volume for a pid.
func (m *MockPlatform) SessionVolume(pid int32) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	volume, ok := m.sessions[pid]
	return volume, ok
}

func (m *MockPlatform) PowerPlans() ([]platforms.PowerPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PowerErr != nil {
		return nil, m.PowerErr
	}
	plans := make([]platforms.PowerPlan, len(m.plans))
	copy(plans, m.plans)
	for i := range plans {
		plans[i].Active = plans[i].GUID == m.activePlan
	}
	return plans, nil
}

func (m *MockPlatform) ActivePowerPlan() (platforms.PowerPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PowerErr != nil {
		return platforms.PowerPlan{}, m.PowerErr
	}
	for _, plan := range m.plans {
		if plan.GUID == m.activePlan {
			plan.Active = true
			return plan, nil
		}
	}
	return platforms.PowerPlan{}, fmt.Errorf("no active power plan: %s", m.activePlan)
}

func (m *MockPlatform) SetActivePowerPlan(guid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PowerErr != nil {
		return m.PowerErr
	}
	for _, plan := range m.plans {
		if plan.GUID == guid {
			m.activePlan = guid
			return nil
		}
	}
	return fmt.Errorf("unknown power plan: %s", guid)
}

func (m *MockPlatform) GameModeEnabled() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GameModeErr != nil {
		return false, m.GameModeErr
	}
	return m.gameMode, nil
}

func (m *MockPlatform) SetGameModeEnabled(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GameModeErr != nil {
		return m.GameModeErr
	}
	m.gameMode = enabled
	return nil
}

func (m *MockPlatform) FocusAssistActive() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focusAssist, nil
}

// SetFocusAssist toggles the fake Focus Assist state.
func (m *MockPlatform) SetFocusAssist(active bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.focusAssist = active
}

func (m *MockPlatform) RegisterHotkey(chord string, handler func()) (func() error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.hotkeys[chord]; ok {
		return nil, fmt.Errorf("hotkey already registered: %s", chord)
	}
	m.hotkeys[chord] = handler

	return func() error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.hotkeys, chord)
		return nil
	}, nil
}

// PressHotkey fires the handler registered for a chord, if any.
func (m *MockPlatform) PressHotkey(chord string) bool {
	m.mu.Lock()
	handler, ok := m.hotkeys[chord]
	m.mu.Unlock()
	if ok {
		handler()
	}
	return ok
}

func (m *MockPlatform) StartOnLogin() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startOnLogin, nil
}

func (m *MockPlatform) SetStartOnLogin(enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startOnLogin = enabled
	return nil
}

// Terminated returns the PIDs TerminateProcess was called with, in order.
func (m *MockPlatform) Terminated() []int32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int32, len(m.terminated))
	copy(out, m.terminated)
	return out
}

// Launched returns the paths LaunchDetached was called with, in order.
func (m *MockPlatform) Launched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.launched))
	copy(out, m.launched)
	return out
}

// Stopped reports whether Stop was called.
func (m *MockPlatform) Stopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}

// ClearHistory resets the recorded side effects without touching state.
func (m *MockPlatform) ClearHistory() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.terminated = nil
	m.launched = nil
}
