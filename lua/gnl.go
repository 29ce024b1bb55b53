// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

// Package lua reads and writes the LUAGNL global name list and LUAINFO goal table.
package lua

import (
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/woozymasta/yabber/internal/binio"
	"github.com/woozymasta/yabber/internal/fsutil"
)

var (
	// ErrInvalidGNL means the global name list layout is malformed.
	ErrInvalidGNL = errors.New("invalid LUAGNL data")
	// ErrInvalidInfo means the goal table layout is malformed.
	ErrInvalidInfo = errors.New("invalid LUAINFO data")
)

// GNL is a list of Lua global names.
type GNL struct {
	Globals    []string `json:"globals" yaml:"globals"`
	BigEndian  bool     `json:"big_endian,omitempty" yaml:"big_endian,omitempty"`
	LongFormat bool     `json:"long_format,omitempty" yaml:"long_format,omitempty"`
}

// ReadGNL parses a global name list. Offset width and byte order are detected
// from the first offset, which always equals the offset table size.
func ReadGNL(data []byte) (*GNL, error) {
	for _, big := range []bool{false, true} {
		for _, long := range []bool{false, true} {
			if g, ok := tryReadGNL(data, big, long); ok {
				return g, nil
			}
		}
	}

	return nil, ErrInvalidGNL
}

// tryReadGNL parses data with one layout guess.
func tryReadGNL(data []byte, bigEndian bool, long bool) (*GNL, bool) {
	width := 4
	if long {
		width = 8
	}

	c := binio.NewCursor(data, binio.OrderOf(bigEndian))
	var offsets []int
	for {
		var off uint64
		if long {
			off = c.U64()
		} else {
			off = uint64(c.U32())
		}
		if c.Err() != nil || off > uint64(len(data)) {
			return nil, false
		}
		if off == 0 {
			break
		}
		offsets = append(offsets, int(off))
	}

	tableSize := (len(offsets) + 1) * width
	if len(offsets) == 0 {
		if len(data) != width {
			return nil, false
		}
		return &GNL{BigEndian: bigEndian, LongFormat: long}, true
	}
	if offsets[0] != tableSize {
		return nil, false
	}

	g := &GNL{BigEndian: bigEndian, LongFormat: long, Globals: make([]string, len(offsets))}
	for i, off := range offsets {
		name, err := binio.CString(data, off, binio.ShiftJIS)
		if err != nil {
			return nil, false
		}
		g.Globals[i] = name
	}

	return g, true
}

// Write serializes the global name list.
func (g *GNL) Write() ([]byte, error) {
	width := 4
	if g.LongFormat {
		width = 8
	}

	var names []byte
	offsets := make([]int, len(g.Globals))
	base := (len(g.Globals) + 1) * width
	for i, name := range g.Globals {
		offsets[i] = base + len(names)

		var err error
		names, err = binio.AppendCString(names, name, binio.ShiftJIS)
		if err != nil {
			return nil, fmt.Errorf("global %d: %w", i, err)
		}
	}

	order := binio.OrderOf(g.BigEndian)
	out := make([]byte, 0, base+len(names))
	for _, off := range append(offsets, 0) {
		if g.LongFormat {
			out = order.AppendUint64(out, uint64(off))
		} else {
			out = order.AppendUint32(out, uint32(off))
		}
	}

	return append(out, names...), nil
}

// gnlSidecar is the XML form of a global name list.
type gnlSidecar struct {
	XMLName    xml.Name `xml:"luagnl"`
	Globals    []string `xml:"globals>global"`
	BigEndian  bool     `xml:"bigendian"`
	LongFormat bool     `xml:"longformat"`
}

// EncodeGNLXML renders the list as a sidecar document.
func EncodeGNLXML(g *GNL) ([]byte, error) {
	return fsutil.MarshalXML(gnlSidecar{Globals: g.Globals, BigEndian: g.BigEndian, LongFormat: g.LongFormat})
}

// DecodeGNLXML parses a sidecar document.
func DecodeGNLXML(data []byte) (*GNL, error) {
	var doc gnlSidecar
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode luagnl xml: %w", err)
	}

	return &GNL{Globals: doc.Globals, BigEndian: doc.BigEndian, LongFormat: doc.LongFormat}, nil
}
