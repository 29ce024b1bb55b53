// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

// Package gparam reads and writes GPARAM graphics parameter files.
package gparam

import (
	"errors"
	"fmt"
	"math"

	"github.com/woozymasta/yabber/internal/binio"
)

var (
	// ErrInvalidHeader means the file magic or structure is malformed.
	ErrInvalidHeader = errors.New("invalid GPARAM data")
	// ErrUnknownType means a parameter has an unknown value type.
	ErrUnknownType = errors.New("unknown GPARAM value type")
	// ErrInvalidValue means a textual value cannot be parsed for its type.
	ErrInvalidValue = errors.New("invalid GPARAM value")
)

// Type is a parameter value type.
type Type byte

// Value types.
const (
	TypeBool  Type = 0x01
	TypeByte  Type = 0x02
	TypeInt   Type = 0x03
	TypeFloat Type = 0x04
	TypeVec2  Type = 0x05
	TypeVec4  Type = 0x06
	TypeColor Type = 0x07
	TypeShort Type = 0x08
	TypeUint  Type = 0x09
)

// typeInfo describes the payload size and XML name of each type.
var typeInfo = map[Type]struct {
	name string
	size int
}{
	TypeBool:  {"bool", 1},
	TypeByte:  {"byte", 1},
	TypeInt:   {"int", 4},
	TypeFloat: {"float", 4},
	TypeVec2:  {"vec2", 8},
	TypeVec4:  {"vec4", 16},
	TypeColor: {"color", 4},
	TypeShort: {"short", 2},
	TypeUint:  {"uint", 4},
}

// String returns the XML type name.
func (t Type) String() string {
	if info, ok := typeInfo[t]; ok {
		return info.name
	}

	return fmt.Sprintf("0x%02X", byte(t))
}

// size returns the payload size of one value.
func (t Type) size() (int, error) {
	info, ok := typeInfo[t]
	if !ok {
		return 0, fmt.Errorf("%w: 0x%02X", ErrUnknownType, byte(t))
	}

	return info.size, nil
}

// parseTypeName resolves an XML type name.
func parseTypeName(name string) (Type, error) {
	for t, info := range typeInfo {
		if info.name == name {
			return t, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrUnknownType, name)
}

// Value is one ID-keyed value. Raw holds the little-endian payload.
type Value struct {
	Raw []byte `json:"raw" yaml:"raw"`
	ID  int32  `json:"id" yaml:"id"`
}

// Param is a named list of typed values.
type Param struct {
	Name   string  `json:"name" yaml:"name"`
	Values []Value `json:"values" yaml:"values"`
	Type   Type    `json:"type" yaml:"type"`
}

// Group is a named list of params.
type Group struct {
	Name   string  `json:"name" yaml:"name"`
	Params []Param `json:"params" yaml:"params"`
}

// GPARAM is a graphics parameter file.
type GPARAM struct {
	Groups  []Group `json:"groups" yaml:"groups"`
	Version uint32  `json:"version" yaml:"version"`
}

// Is reports whether data starts with GPARAM magic.
func Is(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "filt"
}

// Read parses a GPARAM file.
func Read(data []byte) (*GPARAM, error) {
	if !Is(data) {
		return nil, ErrInvalidHeader
	}

	c := binio.NewCursor(data, binio.OrderOf(false))
	c.Skip(4)
	g := &GPARAM{Version: c.U32()}
	groupCount := int(c.U32())
	if c.Err() != nil || groupCount > len(data) {
		return nil, fmt.Errorf("%w: group count", ErrInvalidHeader)
	}

	g.Groups = make([]Group, groupCount)
	for gi := range g.Groups {
		name, err := readName(c)
		if err != nil {
			return nil, err
		}
		grp := &g.Groups[gi]
		grp.Name = name

		paramCount := int(c.U32())
		if c.Err() != nil || paramCount > len(data) {
			return nil, fmt.Errorf("%w: param count in %q", ErrInvalidHeader, name)
		}
		grp.Params = make([]Param, paramCount)
		for pi := range grp.Params {
			if err := readParam(c, &grp.Params[pi], len(data)); err != nil {
				return nil, err
			}
		}
	}

	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if c.Offset() != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidHeader, len(data)-c.Offset())
	}

	return g, nil
}

// readParam parses one param record.
func readParam(c *binio.Cursor, p *Param, limit int) error {
	name, err := readName(c)
	if err != nil {
		return err
	}
	p.Name = name
	p.Type = Type(c.U8())

	size, err := p.Type.size()
	if err != nil {
		return fmt.Errorf("param %q: %w", name, err)
	}

	count := int(c.U32())
	if c.Err() != nil || count*(4+size) > limit {
		return fmt.Errorf("%w: value count in %q", ErrInvalidHeader, name)
	}

	p.Values = make([]Value, count)
	for i := range p.Values {
		p.Values[i].ID = c.I32()
		p.Values[i].Raw = c.Bytes(size)
	}

	return c.Err()
}

// readName reads a u16 length-prefixed UTF-16LE name.
func readName(c *binio.Cursor) (string, error) {
	n := int(c.U16())
	raw := c.Bytes(n * 2)
	if err := c.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}

	return binio.DecodeString(raw, binio.UTF16LE)
}

// Write serializes the file.
func (g *GPARAM) Write() ([]byte, error) {
	order := binio.OrderOf(false)
	out := []byte("filt")
	out = order.AppendUint32(out, g.Version)
	out = order.AppendUint32(out, uint32(len(g.Groups)))

	var err error
	for gi := range g.Groups {
		grp := &g.Groups[gi]
		if out, err = appendName(out, grp.Name); err != nil {
			return nil, err
		}
		out = order.AppendUint32(out, uint32(len(grp.Params)))

		for pi := range grp.Params {
			p := &grp.Params[pi]
			if out, err = appendName(out, p.Name); err != nil {
				return nil, err
			}

			size, err := p.Type.size()
			if err != nil {
				return nil, fmt.Errorf("param %q: %w", p.Name, err)
			}

			out = append(out, byte(p.Type))
			out = order.AppendUint32(out, uint32(len(p.Values)))
			for _, v := range p.Values {
				if len(v.Raw) != size {
					return nil, fmt.Errorf("%w: param %q value %d has %d bytes, want %d", ErrInvalidValue, p.Name, v.ID, len(v.Raw), size)
				}
				out = order.AppendUint32(out, uint32(v.ID))
				out = append(out, v.Raw...)
			}
		}
	}

	return out, nil
}

// appendName appends a u16 length-prefixed UTF-16LE name.
func appendName(dst []byte, name string) ([]byte, error) {
	raw, err := binio.EncodeString(name, binio.UTF16LE)
	if err != nil {
		return nil, err
	}
	if len(raw)/2 > math.MaxUint16 {
		return nil, fmt.Errorf("%w: name too long", ErrInvalidValue)
	}

	dst = binio.OrderOf(false).AppendUint16(dst, uint16(len(raw)/2))
	return append(dst, raw...), nil
}
