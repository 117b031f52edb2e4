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
	"math"
	"runtime"
	"syscall"
	"unsafe"

	ole "github.com/go-ole/go-ole"
)

// Core Audio identifiers. The endpoint volume and session manager interfaces
// have no IDispatch support, so they are called through raw vtables.
var (
	clsidMMDeviceEnumerator  = ole.NewGUID("{BCDE0395-E52F-467C-8E3D-C4579291692E}")
	iidIMMDeviceEnumerator   = ole.NewGUID("{A95664D2-9614-4F35-A746-DE8DB63617E6}")
	iidIAudioEndpointVolume  = ole.NewGUID("{5CDF2C82-841E-4546-9722-0CF74078229A}")
	iidIAudioSessionManager2 = ole.NewGUID("{77AA99A0-1BD6-484F-8BC7-2C654C9A9B6F}")
	iidIAudioSessionControl2 = ole.NewGUID("{BFB7FF88-7239-4FC9-8FA2-07C950BE9C6D}")
	iidISimpleAudioVolume    = ole.NewGUID("{87CE5498-68D6-44E5-9215-6DA47EF883D8}")
)

const (
	eRender   = 0    // rendering endpoints
	eConsole  = 0    // role used by games and system sounds
	clsctxAll = 0x17 // CLSCTX_ALL

	hrSFalse = uintptr(1)
)

// comInit initializes COM for the calling goroutine, which is locked to its
// OS thread for the duration. The returned func undoes both.
func comInit() (func(), error) {
	runtime.LockOSThread()
	if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil {
		var oleErr *ole.OleError
		if errors.As(err, &oleErr) && oleErr.Code() == hrSFalse {
			// Already initialized on this thread, balance with uninit.
			return func() {
				ole.CoUninitialize()
				runtime.UnlockOSThread()
			}, nil
		}
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("failed to initialize COM: %w", err)
	}
	return func() {
		ole.CoUninitialize()
		runtime.UnlockOSThread()
	}, nil
}

func queryInterface(unk *ole.IUnknown, iid *ole.GUID) (*ole.IUnknown, error) {
	var out *ole.IUnknown
	hr, _, _ := syscall.SyscallN(
		unk.VTable().QueryInterface,
		uintptr(unsafe.Pointer(unk)),
		uintptr(unsafe.Pointer(iid)),
		uintptr(unsafe.Pointer(&out)),
	)
	if hr != 0 {
		return nil, fmt.Errorf("QueryInterface failed: %w", ole.NewError(hr))
	}
	return out, nil
}

// IMMDeviceEnumerator

type immDeviceEnumerator struct{ ole.IUnknown }

type immDeviceEnumeratorVtbl struct {
	ole.IUnknownVtbl
	EnumAudioEndpoints                     uintptr
	GetDefaultAudioEndpoint                uintptr
	GetDevice                              uintptr
	RegisterEndpointNotificationCallback   uintptr
	UnregisterEndpointNotificationCallback uintptr
}

func (v *immDeviceEnumerator) vtbl() *immDeviceEnumeratorVtbl {
	return (*immDeviceEnumeratorVtbl)(unsafe.Pointer(v.RawVTable))
}

func defaultAudioEndpoint() (*immDevice, error) {
	unk, err := ole.CreateInstance(clsidMMDeviceEnumerator, iidIMMDeviceEnumerator)
	if err != nil {
		return nil, fmt.Errorf("failed to create device enumerator: %w", err)
	}
	enumerator := (*immDeviceEnumerator)(unsafe.Pointer(unk))
	defer enumerator.Release()

	var device *immDevice
	hr, _, _ := syscall.SyscallN(
		enumerator.vtbl().GetDefaultAudioEndpoint,
		uintptr(unsafe.Pointer(enumerator)),
		uintptr(eRender),
		uintptr(eConsole),
		uintptr(unsafe.Pointer(&device)),
	)
	if hr != 0 {
		return nil, fmt.Errorf("failed to get default audio endpoint: %w", ole.NewError(hr))
	}
	return device, nil
}

// IMMDevice

type immDevice struct{ ole.IUnknown }

type immDeviceVtbl struct {
	ole.IUnknownVtbl
	Activate          uintptr
	OpenPropertyStore uintptr
	GetId             uintptr
	GetState          uintptr
}

func (v *immDevice) vtbl() *immDeviceVtbl {
	return (*immDeviceVtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *immDevice) activate(iid *ole.GUID) (*ole.IUnknown, error) {
	var out *ole.IUnknown
	hr, _, _ := syscall.SyscallN(
		v.vtbl().Activate,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(iid)),
		uintptr(clsctxAll),
		0,
		uintptr(unsafe.Pointer(&out)),
	)
	if hr != 0 {
		return nil, fmt.Errorf("failed to activate %s: %w", iid.String(), ole.NewError(hr))
	}
	return out, nil
}

// IAudioEndpointVolume

type audioEndpointVolume struct{ ole.IUnknown }

type audioEndpointVolumeVtbl struct {
	ole.IUnknownVtbl
	RegisterControlChangeNotify   uintptr
	UnregisterControlChangeNotify uintptr
	GetChannelCount               uintptr
	SetMasterVolumeLevel          uintptr
	SetMasterVolumeLevelScalar    uintptr
	GetMasterVolumeLevel          uintptr
	GetMasterVolumeLevelScalar    uintptr
	SetChannelVolumeLevel         uintptr
	SetChannelVolumeLevelScalar   uintptr
	GetChannelVolumeLevel         uintptr
	GetChannelVolumeLevelScalar   uintptr
	SetMute                       uintptr
	GetMute                       uintptr
	GetVolumeStepInfo             uintptr
	VolumeStepUp                  uintptr
	VolumeStepDown                uintptr
	QueryHardwareSupport          uintptr
	GetVolumeRange                uintptr
}

func (v *audioEndpointVolume) vtbl() *audioEndpointVolumeVtbl {
	return (*audioEndpointVolumeVtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *audioEndpointVolume) masterVolumeScalar() (float32, error) {
	var level float32
	hr, _, _ := syscall.SyscallN(
		v.vtbl().GetMasterVolumeLevelScalar,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&level)),
	)
	if hr != 0 {
		return 0, fmt.Errorf("failed to get master volume: %w", ole.NewError(hr))
	}
	return level, nil
}

func (v *audioEndpointVolume) setMasterVolumeScalar(level float32) error {
	hr, _, _ := syscall.SyscallN(
		v.vtbl().SetMasterVolumeLevelScalar,
		uintptr(unsafe.Pointer(v)),
		uintptr(math.Float32bits(level)),
		0,
	)
	if hr != 0 {
		return fmt.Errorf("failed to set master volume: %w", ole.NewError(hr))
	}
	return nil
}

// IAudioSessionManager2

type audioSessionManager2 struct{ ole.IUnknown }

type audioSessionManager2Vtbl struct {
	ole.IUnknownVtbl
	GetAudioSessionControl        uintptr
	GetSimpleAudioVolume          uintptr
	GetSessionEnumerator          uintptr
	RegisterSessionNotification   uintptr
	UnregisterSessionNotification uintptr
	RegisterDuckNotification      uintptr
	UnregisterDuckNotification    uintptr
}

func (v *audioSessionManager2) vtbl() *audioSessionManager2Vtbl {
	return (*audioSessionManager2Vtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *audioSessionManager2) sessionEnumerator() (*audioSessionEnumerator, error) {
	var out *audioSessionEnumerator
	hr, _, _ := syscall.SyscallN(
		v.vtbl().GetSessionEnumerator,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&out)),
	)
	if hr != 0 {
		return nil, fmt.Errorf("failed to get session enumerator: %w", ole.NewError(hr))
	}
	return out, nil
}

// IAudioSessionEnumerator

type audioSessionEnumerator struct{ ole.IUnknown }

type audioSessionEnumeratorVtbl struct {
	ole.IUnknownVtbl
	GetCount   uintptr
	GetSession uintptr
}

func (v *audioSessionEnumerator) vtbl() *audioSessionEnumeratorVtbl {
	return (*audioSessionEnumeratorVtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *audioSessionEnumerator) count() (int, error) {
	var n int32
	hr, _, _ := syscall.SyscallN(
		v.vtbl().GetCount,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&n)),
	)
	if hr != 0 {
		return 0, fmt.Errorf("failed to count audio sessions: %w", ole.NewError(hr))
	}
	return int(n), nil
}

func (v *audioSessionEnumerator) session(index int) (*ole.IUnknown, error) {
	var out *ole.IUnknown
	hr, _, _ := syscall.SyscallN(
		v.vtbl().GetSession,
		uintptr(unsafe.Pointer(v)),
		uintptr(int32(index)),
		uintptr(unsafe.Pointer(&out)),
	)
	if hr != 0 {
		return nil, fmt.Errorf("failed to get audio session %d: %w", index, ole.NewError(hr))
	}
	return out, nil
}

// IAudioSessionControl2

type audioSessionControl2 struct{ ole.IUnknown }

type audioSessionControl2Vtbl struct {
	ole.IUnknownVtbl
	GetState                           uintptr
	GetDisplayName                     uintptr
	SetDisplayName                     uintptr
	GetIconPath                        uintptr
	SetIconPath                        uintptr
	GetGroupingParam                   uintptr
	SetGroupingParam                   uintptr
	RegisterAudioSessionNotification   uintptr
	UnregisterAudioSessionNotification uintptr
	GetSessionIdentifier               uintptr
	GetSessionInstanceIdentifier       uintptr
	GetProcessId                       uintptr
	IsSystemSoundsSession              uintptr
	SetDuckingPreference               uintptr
}

func (v *audioSessionControl2) vtbl() *audioSessionControl2Vtbl {
	return (*audioSessionControl2Vtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *audioSessionControl2) processID() (uint32, error) {
	var pid uint32
	hr, _, _ := syscall.SyscallN(
		v.vtbl().GetProcessId,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&pid)),
	)
	if hr != 0 {
		return 0, fmt.Errorf("failed to get session process id: %w", ole.NewError(hr))
	}
	return pid, nil
}

func (v *audioSessionControl2) isSystemSounds() bool {
	hr, _, _ := syscall.SyscallN(
		v.vtbl().IsSystemSoundsSession,
		uintptr(unsafe.Pointer(v)),
	)
	return hr == 0 // S_OK means yes, S_FALSE means no
}

// ISimpleAudioVolume

type simpleAudioVolume struct{ ole.IUnknown }

type simpleAudioVolumeVtbl struct {
	ole.IUnknownVtbl
	SetMasterVolume uintptr
	GetMasterVolume uintptr
	SetMute         uintptr
	GetMute         uintptr
}

func (v *simpleAudioVolume) vtbl() *simpleAudioVolumeVtbl {
	return (*simpleAudioVolumeVtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *simpleAudioVolume) masterVolume() (float32, error) {
	var level float32
	hr, _, _ := syscall.SyscallN(
		v.vtbl().GetMasterVolume,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&level)),
	)
	if hr != 0 {
		return 0, fmt.Errorf("failed to get session volume: %w", ole.NewError(hr))
	}
	return level, nil
}

func (v *simpleAudioVolume) setMasterVolume(level float32) error {
	hr, _, _ := syscall.SyscallN(
		v.vtbl().SetMasterVolume,
		uintptr(unsafe.Pointer(v)),
		uintptr(math.Float32bits(level)),
		0,
	)
	if hr != 0 {
		return fmt.Errorf("failed to set session volume: %w", ole.NewError(hr))
	}
	return nil
}
