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
	"encoding/binary"
	"math"

	"github.com/VaporProject/vapor/pkg/config"
	"github.com/VaporProject/vapor/pkg/helpers"
	"github.com/VaporProject/vapor/pkg/platforms"
	"github.com/VaporProject/vapor/pkg/service/events"
	"github.com/rs/zerolog/log"
)

const (
	chimeSampleRate = 48000
	chimeBeepMillis = 140
	chimeGapMillis  = 90
	chimeAmplitude  = 0.28
)

// ChimeWAV synthesizes the built-in alert tone as a WAV byte buffer: two
// beeps for a warning, three higher ones for critical. Generated instead
// of embedded so the binary ships no asset files.
func ChimeWAV(level string) []byte {
	freq := 880.0
	beeps := 2
	if level == events.AlertLevelCritical {
		freq = 1320.0
		beeps = 3
	}

	beepSamples := chimeSampleRate * chimeBeepMillis / 1000
	gapSamples := chimeSampleRate * chimeGapMillis / 1000
	total := beeps*beepSamples + (beeps-1)*gapSamples

	pcm := make([]int16, total)
	pos := 0
	for b := 0; b < beeps; b++ {
		for i := 0; i < beepSamples; i++ {
			// Short attack/release ramps keep the beep from clicking.
			env := 1.0
			const ramp = chimeSampleRate / 100
			if i < ramp {
				env = float64(i) / ramp
			} else if rem := beepSamples - i; rem < ramp {
				env = float64(rem) / ramp
			}
			v := chimeAmplitude * env * math.Sin(2*math.Pi*freq*float64(i)/chimeSampleRate)
			pcm[pos] = int16(v * math.MaxInt16)
			pos++
		}
		if b < beeps-1 {
			pos += gapSamples
		}
	}

	return wrapPCM(pcm)
}

// wrapPCM wraps 16-bit mono PCM samples in a minimal RIFF/WAVE header.
func wrapPCM(pcm []int16) []byte {
	dataLen := len(pcm) * 2
	var buf bytes.Buffer
	buf.Grow(44 + dataLen)

	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	_ = binary.Write(&buf, binary.LittleEndian, uint32(chimeSampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(chimeSampleRate*2)) // byte rate
	_ = binary.Write(&buf, binary.LittleEndian, uint16(2))                 // block align
	_ = binary.Write(&buf, binary.LittleEndian, uint16(16))                // bits per sample

	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(dataLen))
	_ = binary.Write(&buf, binary.LittleEndian, pcm)

	return buf.Bytes()
}

// AlertChime returns the chime callback for the temperature tracker. It
// honors the alert sound setting (built-in tone, custom file, or silent)
// and stays quiet while Focus Assist is suppressing notifications.
func AlertChime(cfg *config.Instance, pl platforms.Platform, player Player) func(level string) {
	return func(level string) {
		path, enabled := cfg.AlertSoundPath(helpers.DataDir(pl))
		if !enabled {
			return
		}

		if cfg.RespectFocusAssist() {
			active, err := pl.FocusAssistActive()
			if err == nil && active {
				log.Debug().Msg("focus assist active, suppressing alert chime")
				return
			}
		}

		var err error
		if path == "" {
			err = player.PlayWAVBytes(ChimeWAV(level))
		} else {
			err = player.PlayFile(path)
		}
		if err != nil {
			log.Warn().Err(err).Msg("failed to play alert chime")
		}
	}
}
