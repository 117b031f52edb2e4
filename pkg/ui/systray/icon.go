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

package systray

import (
	"bytes"
	"encoding/binary"
)

const iconSize = 16

// Icon generates the 16x16 tray icon as ICO bytes: a white V on a filled
// blue disc. Generated at startup so the binary carries no asset files.
func Icon() []byte {
	pixels := make([]byte, iconSize*iconSize*4) // BGRA

	setPixel := func(x, y int, b, g, r, a byte) {
		// ICO pixel rows are stored bottom-up.
		row := iconSize - 1 - y
		off := (row*iconSize + x) * 4
		pixels[off] = b
		pixels[off+1] = g
		pixels[off+2] = r
		pixels[off+3] = a
	}

	const (
		cx, cy = 7.5, 7.5
		radius = 7.2
	)

	for y := 0; y < iconSize; y++ {
		for x := 0; x < iconSize; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			if dx*dx+dy*dy > radius*radius {
				continue // transparent outside the disc
			}

			if onV(x, y) {
				setPixel(x, y, 0xF5, 0xF5, 0xF5, 0xFF)
			} else {
				setPixel(x, y, 0xB5, 0x62, 0x1B, 0xFF) // steam-y blue
			}
		}
	}

	var buf bytes.Buffer

	// ICONDIR
	_ = binary.Write(&buf, binary.LittleEndian, uint16(0)) // reserved
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // type: icon
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1)) // count

	maskLen := iconSize * 4 // 1bpp AND mask, rows padded to 32 bits
	imageLen := 40 + len(pixels) + maskLen

	// ICONDIRENTRY
	buf.WriteByte(iconSize)                                         // width
	buf.WriteByte(iconSize)                                         // height
	buf.WriteByte(0)                                                // colors
	buf.WriteByte(0)                                                // reserved
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))          // planes
	_ = binary.Write(&buf, binary.LittleEndian, uint16(32))         // bpp
	_ = binary.Write(&buf, binary.LittleEndian, uint32(imageLen))   // image size
	_ = binary.Write(&buf, binary.LittleEndian, uint32(6+16))       // image offset

	// BITMAPINFOHEADER, height doubled for the AND mask
	_ = binary.Write(&buf, binary.LittleEndian, uint32(40))
	_ = binary.Write(&buf, binary.LittleEndian, int32(iconSize))
	_ = binary.Write(&buf, binary.LittleEndian, int32(iconSize*2))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(32))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0)) // BI_RGB
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(pixels)))
	_ = binary.Write(&buf, binary.LittleEndian, int32(0))
	_ = binary.Write(&buf, binary.LittleEndian, int32(0))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(0))

	buf.Write(pixels)
	buf.Write(make([]byte, maskLen)) // alpha channel makes the mask moot

	return buf.Bytes()
}

// onV reports whether the pixel sits on the V glyph's strokes.
func onV(x, y int) bool {
	if y < 4 || y > 11 {
		return false
	}
	t := y - 4 // 0..7 down the glyph

	// Left stroke runs from (4,4) to (7,11), right stroke mirrors it.
	left := 4 + t/2
	right := 11 - t/2
	return x == left || x == right
}
