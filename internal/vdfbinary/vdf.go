// Package vdfbinary parses Valve's binary VDF format, the encoding Steam
// uses for shortcuts.vdf and appinfo.vdf.
//
// Derived from github.com/TimDeve/valve-vdf-binary, licensed under MIT.
package vdfbinary

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrEmptyVDF     = errors.New("binary vdf is empty")
	ErrNotBinaryVDF = errors.New("data is not binary vdf, it may be the text form")
	ErrCorruptedVDF = errors.New("binary vdf ended early, the file may be corrupted")
)

// Parse decodes a whole binary VDF stream. The top level is an implicit
// map with no surrounding markers.
func Parse(r io.Reader) (VdfValue, error) {
	buf := bufio.NewReader(r)

	first, err := buf.Peek(1)
	if errors.Is(err, io.EOF) {
		return vdfValue{}, ErrEmptyVDF
	}
	if err != nil {
		return vdfValue{}, fmt.Errorf("failed to read vdf header: %w", err)
	}

	switch first[0] {
	case vdfMarkerMap, vdfMarkerString, vdfMarkerNumber, vdfMarkerEndOfMap:
	default:
		return vdfValue{}, ErrNotBinaryVDF
	}

	root, err := decodeMap(buf)
	if errors.Is(err, io.EOF) {
		return vdfValue{}, ErrCorruptedVDF
	}
	return root, err
}

// decodeMap reads marker+key+value entries until the end-of-map marker.
// Keys are lowercased on the way in; Steam's casing is not stable.
func decodeMap(buf *bufio.Reader) (vdfValue, error) {
	entries := make(VdfMap)

	for {
		marker, err := buf.ReadByte()
		if err != nil {
			return vdfValue{}, fmt.Errorf("failed to read entry marker: %w", err)
		}
		if marker == vdfMarkerEndOfMap {
			return vdfValue{entries}, nil
		}

		key, err := decodeString(buf)
		if err != nil {
			return vdfValue{}, err
		}

		var value vdfValue
		switch marker {
		case vdfMarkerMap:
			value, err = decodeMap(buf)
		case vdfMarkerNumber:
			value, err = decodeNumber(buf)
		case vdfMarkerString:
			var s string
			s, err = decodeString(buf)
			value = vdfValue{s}
		default:
			err = fmt.Errorf("unknown marker 0x%02x, the file may be corrupted", marker)
		}
		if err != nil {
			return vdfValue{}, err
		}

		entries[strings.ToLower(key)] = value
	}
}

func decodeNumber(buf *bufio.Reader) (vdfValue, error) {
	var raw [4]byte
	if _, err := io.ReadFull(buf, raw[:]); err != nil {
		return vdfValue{}, fmt.Errorf("failed to read number: %w", err)
	}
	return vdfValue{binary.LittleEndian.Uint32(raw[:])}, nil
}

func decodeString(buf *bufio.Reader) (string, error) {
	s, err := buf.ReadString(vdfMarkerEndOfString)
	if err != nil {
		return "", fmt.Errorf("failed to read string: %w", err)
	}
	return s[:len(s)-1], nil
}
