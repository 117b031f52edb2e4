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
	"runtime"
	"strings"
	"time"
	"unsafe"

	"github.com/VaporProject/vapor/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows"
)

var (
	user32                = windows.NewLazySystemDLL("user32.dll")
	procRegisterHotKey    = user32.NewProc("RegisterHotKey")
	procUnregisterHotKey  = user32.NewProc("UnregisterHotKey")
	procGetMessageW       = user32.NewProc("GetMessageW")
	procPeekMessageW      = user32.NewProc("PeekMessageW")
	procPostThreadMessage = user32.NewProc("PostThreadMessageW")
)

const (
	modAlt      = 0x0001
	modControl  = 0x0002
	modShift    = 0x0004
	modWin      = 0x0008
	modNoRepeat = 0x4000

	wmHotkey = 0x0312
	wmQuit   = 0x0012

	hotkeyQuitTimeout = 2 * time.Second
)

type winMsg struct {
	HWnd    uintptr
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      struct{ X, Y int32 }
}

var hotkeyModNames = map[string]uint32{
	"ctrl":    modControl,
	"control": modControl,
	"alt":     modAlt,
	"shift":   modShift,
	"win":     modWin,
	"windows": modWin,
	"super":   modWin,
}

var hotkeyKeyNames = map[string]uint32{
	"space":     0x20,
	"tab":       0x09,
	"enter":     0x0D,
	"esc":       0x1B,
	"escape":    0x1B,
	"backspace": 0x08,
	"insert":    0x2D,
	"delete":    0x2E,
	"home":      0x24,
	"end":       0x23,
	"pageup":    0x21,
	"pagedown":  0x22,
	"up":        0x26,
	"down":      0x28,
	"left":      0x25,
	"right":     0x27,
	"pause":     0x13,
}

// parseChord turns "ctrl+alt+k" into RegisterHotKey modifier flags and a
// virtual key code. The last part is the key, everything before it a
// modifier.
func parseChord(chord string) (mods, vk uint32, err error) {
	parts := strings.Split(chord, "+")
	if len(parts) < 2 {
		return 0, 0, fmt.Errorf("hotkey needs a modifier and a key: %q", chord)
	}

	for _, part := range parts[:len(parts)-1] {
		name := strings.ToLower(strings.TrimSpace(part))
		mod, ok := hotkeyModNames[name]
		if !ok {
			return 0, 0, fmt.Errorf("unknown hotkey modifier: %q", name)
		}
		mods |= mod
	}

	key := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
	switch {
	case key == "":
		return 0, 0, fmt.Errorf("hotkey has no key: %q", chord)
	case len(key) == 1 && (key[0] >= 'a' && key[0] <= 'z' || key[0] >= '0' && key[0] <= '9'):
		vk = uint32(strings.ToUpper(key)[0])
	default:
		if n, ok := hotkeyKeyNames[key]; ok {
			vk = n
			break
		}
		// f1 through f24
		var fn int
		if _, scanErr := fmt.Sscanf(key, "f%d", &fn); scanErr == nil && fn >= 1 && fn <= 24 {
			vk = uint32(0x70 + fn - 1)
			break
		}
		return 0, 0, fmt.Errorf("unknown hotkey key: %q", key)
	}
	return mods, vk, nil
}

type hotkeyRegistration struct {
	done     chan struct{}
	chord    string
	threadID uint32
}

func (r *hotkeyRegistration) quit() error {
	ret, _, err := procPostThreadMessage.Call(uintptr(r.threadID), wmQuit, 0, 0)
	if ret == 0 {
		return fmt.Errorf("failed to stop hotkey %q: %w", r.chord, err)
	}
	select {
	case <-r.done:
		return nil
	case <-time.After(hotkeyQuitTimeout):
		return fmt.Errorf("hotkey %q message loop did not exit", r.chord)
	}
}

// hotkeyManager owns one message loop thread per registered hotkey.
// RegisterHotKey only delivers WM_HOTKEY to the registering thread, so each
// registration pins a goroutine to its own OS thread.
type hotkeyManager struct {
	regs   map[int]*hotkeyRegistration
	mu     syncutil.Mutex
	nextID int
}

func newHotkeyManager() *hotkeyManager {
	return &hotkeyManager{regs: make(map[int]*hotkeyRegistration)}
}

func (m *hotkeyManager) register(chord string, handler func()) (func() error, error) {
	mods, vk, err := parseChord(chord)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.mu.Unlock()

	type regResult struct {
		err      error
		threadID uint32
	}
	ready := make(chan regResult, 1)
	done := make(chan struct{})

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(done)

		// Force creation of this thread's message queue before anyone can
		// PostThreadMessage to it.
		var msg winMsg
		_, _, _ = procPeekMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0, 0)

		ret, _, callErr := procRegisterHotKey.Call(
			0,
			uintptr(id),
			uintptr(mods|modNoRepeat),
			uintptr(vk),
		)
		if ret == 0 {
			ready <- regResult{err: fmt.Errorf("failed to register hotkey %q: %w", chord, callErr)}
			return
		}
		defer func() {
			_, _, _ = procUnregisterHotKey.Call(0, uintptr(id))
		}()
		ready <- regResult{threadID: windows.GetCurrentThreadId()}

		for {
			ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
			//nolint:gosec // GetMessage returns -1 as an unsigned all-ones value
			if int32(ret) <= 0 {
				return
			}
			if msg.Message == wmHotkey && int(msg.WParam) == id {
				log.Debug().Str("chord", chord).Msg("hotkey pressed")
				go handler()
			}
		}
	}()

	result := <-ready
	if result.err != nil {
		return nil, result.err
	}

	reg := &hotkeyRegistration{
		done:     done,
		chord:    chord,
		threadID: result.threadID,
	}
	m.mu.Lock()
	m.regs[id] = reg
	m.mu.Unlock()

	unregister := func() error {
		m.mu.Lock()
		stored, ok := m.regs[id]
		delete(m.regs, id)
		m.mu.Unlock()
		if !ok {
			return nil
		}
		return stored.quit()
	}
	return unregister, nil
}

func (m *hotkeyManager) stopAll() {
	m.mu.Lock()
	regs := make([]*hotkeyRegistration, 0, len(m.regs))
	for id, reg := range m.regs {
		regs = append(regs, reg)
		delete(m.regs, id)
	}
	m.mu.Unlock()

	for _, reg := range regs {
		if err := reg.quit(); err != nil {
			log.Warn().Err(err).Str("chord", reg.chord).Msg("failed to stop hotkey")
		}
	}
}

func (p *Platform) RegisterHotkey(chord string, handler func()) (func() error, error) {
	return p.hotkeys.register(chord, handler)
}
