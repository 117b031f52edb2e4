package vdfbinary

import "strings"

const (
	vdfMarkerMap         byte = 0x00
	vdfMarkerString      byte = 0x01
	vdfMarkerNumber      byte = 0x02
	vdfMarkerEndOfMap    byte = 0x08
	vdfMarkerEndOfString byte = 0x00
)

// VdfMap holds the children of a binary VDF map node. Keys are stored
// lowercased because Steam writes them with inconsistent casing.
type VdfMap = map[string]vdfValue

// VdfValue is a parsed binary VDF node: a map, a string or a uint32.
type VdfValue interface {
	GetMap(key string) (VdfMap, bool)
	GetString(key string) (string, bool)
	GetUint(key string) (uint32, bool)
	GetBool(key string) (bool, bool)
	AsMap() (VdfMap, bool)
	AsString() (string, bool)
	AsUint() (uint32, bool)
}

type vdfValue struct {
	value any
}

func (v vdfValue) AsMap() (VdfMap, bool) {
	m, ok := v.value.(VdfMap)
	return m, ok
}

func (v vdfValue) AsString() (string, bool) {
	s, ok := v.value.(string)
	return s, ok
}

func (v vdfValue) AsUint() (uint32, bool) {
	n, ok := v.value.(uint32)
	return n, ok
}

func (v vdfValue) child(key string) (vdfValue, bool) {
	m, ok := v.AsMap()
	if !ok {
		return vdfValue{}, false
	}
	c, ok := m[strings.ToLower(key)]
	return c, ok
}

func (v vdfValue) GetMap(key string) (VdfMap, bool) {
	c, ok := v.child(key)
	if !ok {
		return nil, false
	}
	return c.AsMap()
}

func (v vdfValue) GetString(key string) (string, bool) {
	c, ok := v.child(key)
	if !ok {
		return "", false
	}
	return c.AsString()
}

func (v vdfValue) GetUint(key string) (uint32, bool) {
	c, ok := v.child(key)
	if !ok {
		return 0, false
	}
	return c.AsUint()
}

// GetBool reads a number field as a flag. Steam stores booleans as 0/1
// uint32 values.
func (v vdfValue) GetBool(key string) (bool, bool) {
	n, ok := v.GetUint(key)
	if !ok {
		return false, false
	}
	return n != 0, true
}
