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

package audio

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/VaporProject/vapor/pkg/service/events"
	"github.com/gopxl/beep/v2/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validWAVBytes returns a minimal valid WAV file: header plus empty data
// chunk.
func validWAVBytes() []byte {
	return []byte{
		'R', 'I', 'F', 'F',
		36, 0, 0, 0,
		'W', 'A', 'V', 'E',
		'f', 'm', 't', ' ',
		16, 0, 0, 0,
		1, 0, // PCM
		1, 0, // mono
		0x44, 0xAC, 0, 0, // 44100 Hz
		0x88, 0x58, 0x01, 0,
		2, 0,
		16, 0,
		'd', 'a', 't', 'a',
		0, 0, 0, 0,
	}
}

func TestPlayWAVBytes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{
			name:    "valid WAV bytes",
			data:    validWAVBytes(),
			wantErr: false,
		},
		{
			name:    "invalid WAV bytes",
			data:    []byte("not a wav file"),
			wantErr: true,
		},
		{
			name:    "empty bytes",
			data:    []byte{},
			wantErr: true,
		},
		{
			name:    "nil bytes",
			data:    nil,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			player := NewMalgoPlayer()
			err := player.PlayWAVBytes(tt.data)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestPlayFile(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()

	validWAVPath := filepath.Join(tmpDir, "valid.wav")
	err := os.WriteFile(validWAVPath, validWAVBytes(), 0o600)
	require.NoError(t, err)

	invalidWAVPath := filepath.Join(tmpDir, "invalid.wav")
	err = os.WriteFile(invalidWAVPath, []byte("not a wav file"), 0o600)
	require.NoError(t, err)

	unsupportedPath := filepath.Join(tmpDir, "sound.aiff")
	err = os.WriteFile(unsupportedPath, []byte("aiff data"), 0o600)
	require.NoError(t, err)

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{
			name:    "valid WAV file",
			path:    validWAVPath,
			wantErr: false,
		},
		{
			name:    "invalid WAV file",
			path:    invalidWAVPath,
			wantErr: true,
		},
		{
			name:    "unsupported extension",
			path:    unsupportedPath,
			wantErr: true,
		},
		{
			name:    "non-existent file",
			path:    filepath.Join(tmpDir, "nonexistent.wav"),
			wantErr: true,
		},
		{
			name:    "empty path",
			path:    "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			player := NewMalgoPlayer()
			err := player.PlayFile(tt.path)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFileCache(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "cached.wav")
	require.NoError(t, os.WriteFile(path, validWAVBytes(), 0o600))

	player := NewMalgoPlayer()

	data, err := player.readFileWithCache(path)
	require.NoError(t, err)
	assert.Equal(t, validWAVBytes(), data)

	// Deleting the file doesn't matter while the cache holds it.
	require.NoError(t, os.Remove(path))
	data, err = player.readFileWithCache(path)
	require.NoError(t, err)
	assert.Equal(t, validWAVBytes(), data)

	// After clearing the cache the read hits the missing file.
	player.ClearFileCache()
	_, err = player.readFileWithCache(path)
	require.Error(t, err)
}

func TestChimeWAVDecodes(t *testing.T) {
	t.Parallel()

	for _, level := range []string{events.AlertLevelWarning, events.AlertLevelCritical} {
		t.Run(level, func(t *testing.T) {
			t.Parallel()

			data := ChimeWAV(level)
			require.NotEmpty(t, data)

			streamer, format, err := wav.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			defer func() { _ = streamer.Close() }()

			assert.Equal(t, chimeSampleRate, int(format.SampleRate))
			assert.Equal(t, 1, format.NumChannels)
			assert.Positive(t, streamer.Len())
		})
	}
}

func TestChimeWAVLevelsDiffer(t *testing.T) {
	t.Parallel()

	warning := ChimeWAV(events.AlertLevelWarning)
	critical := ChimeWAV(events.AlertLevelCritical)

	// Critical plays three beeps to the warning's two, so it has to be
	// longer.
	assert.Greater(t, len(critical), len(warning))
	assert.NotEqual(t, warning, critical)
}
