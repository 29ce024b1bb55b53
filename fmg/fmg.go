// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

// Package fmg reads and writes FMG string tables and their XML sidecars.
package fmg

import (
	"encoding/xml"
	"errors"
	"fmt"
	"slices"

	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/internal/binio"
	"github.com/woozymasta/yabber/internal/fsutil"
)

// NullText marks an entry without a string in sidecar XML.
const NullText = "%null%"

// Table versions.
const (
	VersionDemonsSouls byte = 0
	VersionDarkSouls1  byte = 1
	VersionDarkSouls3  byte = 2
)

var (
	// ErrInvalidHeader means the table header or offsets are malformed.
	ErrInvalidHeader = errors.New("invalid FMG header")
	// ErrDuplicateID means two entries share one ID.
	ErrDuplicateID = errors.New("duplicate FMG entry ID")
)

// Entry is one ID and its text.
type Entry struct {
	// Text is the string value; ignored when Null is set.
	Text string `json:"text" yaml:"text"`
	// ID is the entry identifier.
	ID int32 `json:"id" yaml:"id"`
	// Null marks an ID that has no string.
	Null bool `json:"null,omitempty" yaml:"null,omitempty"`
}

// FMG is a string table.
type FMG struct {
	// Entries are sorted by ID on write.
	Entries []Entry `json:"entries" yaml:"entries"`
	// Version selects header and offset widths.
	Version byte `json:"version" yaml:"version"`
	// BigEndian selects big-endian integers and UTF-16BE text.
	BigEndian bool `json:"big_endian,omitempty" yaml:"big_endian,omitempty"`
}

// wide reports whether offsets are 64-bit.
func (f *FMG) wide() bool {
	return f.Version >= VersionDarkSouls3
}

// Read parses a string table.
func Read(data []byte) (*FMG, error) {
	if len(data) < 0x1C {
		return nil, ErrInvalidHeader
	}

	f := &FMG{BigEndian: data[1] != 0, Version: data[2]}
	c := binio.NewCursor(data, binio.OrderOf(f.BigEndian))
	c.Seek(0x0C)
	groupCount := int(c.U32())
	stringCount := int(c.U32())

	var offsetsAt int
	if f.wide() {
		c.Skip(4)
		offsetsAt = int(c.U64())
		c.Skip(8)
	} else {
		offsetsAt = int(c.U32())
		c.Skip(4)
	}
	if c.Err() != nil || groupCount < 0 || stringCount < 0 || offsetsAt < 0 || offsetsAt > len(data) {
		return nil, fmt.Errorf("%w: table bounds", ErrInvalidHeader)
	}

	type group struct {
		offsetIndex int
		first       int32
		last        int32
	}
	groups := make([]group, groupCount)
	for i := range groups {
		groups[i].offsetIndex = int(c.U32())
		groups[i].first = c.I32()
		groups[i].last = c.I32()
		if f.wide() {
			c.Skip(4)
		}
	}

	c.Seek(offsetsAt)
	offsets := make([]int, stringCount)
	for i := range offsets {
		if f.wide() {
			offsets[i] = int(c.U64())
		} else {
			offsets[i] = int(c.U32())
		}
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}

	enc := binio.UTF16(f.BigEndian)
	for _, g := range groups {
		if g.last < g.first {
			return nil, fmt.Errorf("%w: group %d..%d", ErrInvalidHeader, g.first, g.last)
		}

		for id := g.first; id <= g.last; id++ {
			idx := g.offsetIndex + int(id-g.first)
			if idx < 0 || idx >= len(offsets) {
				return nil, fmt.Errorf("%w: string index %d", ErrInvalidHeader, idx)
			}

			entry := Entry{ID: id}
			if offsets[idx] == 0 {
				entry.Null = true
			} else {
				text, err := binio.CString(data, offsets[idx], enc)
				if err != nil {
					return nil, fmt.Errorf("%w: entry %d: %w", ErrInvalidHeader, id, err)
				}
				entry.Text = text
			}

			f.Entries = append(f.Entries, entry)
		}
	}

	return f, nil
}

// Write serializes the string table. Entries are grouped by consecutive IDs.
func (f *FMG) Write() ([]byte, error) {
	entries := slices.Clone(f.Entries)
	slices.SortStableFunc(entries, func(a, b Entry) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		default:
			return 0
		}
	})
	for i := 1; i < len(entries); i++ {
		if entries[i].ID == entries[i-1].ID {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, entries[i].ID)
		}
	}

	type group struct{ offsetIndex, first, last int32 }
	var groups []group
	for i, e := range entries {
		if len(groups) > 0 && groups[len(groups)-1].last+1 == e.ID {
			groups[len(groups)-1].last = e.ID
			continue
		}
		groups = append(groups, group{offsetIndex: int32(i), first: e.ID, last: e.ID})
	}

	headerSize, groupSize, offsetSize := 0x1C, 12, 4
	if f.wide() {
		headerSize, groupSize, offsetSize = 0x28, 16, 8
	}
	offsetsAt := headerSize + len(groups)*groupSize
	stringsAt := offsetsAt + len(entries)*offsetSize

	enc := binio.UTF16(f.BigEndian)
	var texts []byte
	offsets := make([]int, len(entries))
	for i, e := range entries {
		if e.Null {
			continue
		}

		offsets[i] = stringsAt + len(texts)

		var err error
		texts, err = binio.AppendCString(texts, e.Text, enc)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", e.ID, err)
		}
	}
	fileSize := stringsAt + len(texts)

	order := binio.OrderOf(f.BigEndian)
	out := make([]byte, 0, fileSize)
	out = append(out, 0, boolByte(f.BigEndian), f.Version, 0)
	out = order.AppendUint32(out, uint32(fileSize))
	unk09 := byte(0)
	if f.wide() {
		unk09 = 0xFF
	}
	out = append(out, 1, unk09, 0, 0)
	out = order.AppendUint32(out, uint32(len(groups)))
	out = order.AppendUint32(out, uint32(len(entries)))
	if f.wide() {
		out = order.AppendUint32(out, 0xFF)
		out = order.AppendUint64(out, uint64(offsetsAt))
		out = order.AppendUint64(out, 0)
	} else {
		out = order.AppendUint32(out, uint32(offsetsAt))
		out = order.AppendUint32(out, 0)
	}

	for _, g := range groups {
		out = order.AppendUint32(out, uint32(g.offsetIndex))
		out = order.AppendUint32(out, uint32(g.first))
		out = order.AppendUint32(out, uint32(g.last))
		if f.wide() {
			out = order.AppendUint32(out, 0)
		}
	}
	for _, off := range offsets {
		if f.wide() {
			out = order.AppendUint64(out, uint64(off))
		} else {
			out = order.AppendUint32(out, uint32(off))
		}
	}

	return append(out, texts...), nil
}

// sidecar is the XML form of a string table.
type sidecar struct {
	XMLName     xml.Name      `xml:"fmg"`
	Compression string        `xml:"compression,omitempty"`
	Entries     []sidecarText `xml:"entries>text"`
	Version     fsutil.Hex    `xml:"version"`
	BigEndian   bool          `xml:"bigendian"`
}

// sidecarText is one entry in sidecar XML.
type sidecarText struct {
	Text string `xml:",chardata"`
	ID   int32  `xml:"id,attr"`
}

// EncodeXML renders the table as a sidecar document recording the envelope method.
func EncodeXML(f *FMG, compression dcx.Type) ([]byte, error) {
	doc := sidecar{
		Compression: string(compression),
		Version:     fsutil.Hex(f.Version),
		BigEndian:   f.BigEndian,
		Entries:     make([]sidecarText, len(f.Entries)),
	}
	for i, e := range f.Entries {
		doc.Entries[i] = sidecarText{ID: e.ID, Text: e.Text}
		if e.Null {
			doc.Entries[i].Text = NullText
		}
	}

	return fsutil.MarshalXML(doc)
}

// DecodeXML parses a sidecar document.
func DecodeXML(data []byte) (*FMG, dcx.Type, error) {
	var doc sidecar
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, dcx.TypeNone, fmt.Errorf("decode fmg xml: %w", err)
	}

	typ, err := dcx.ParseType(doc.Compression)
	if err != nil {
		return nil, dcx.TypeNone, err
	}
	if doc.Version > 0xFF {
		return nil, dcx.TypeNone, fmt.Errorf("%w: version %d", ErrInvalidHeader, doc.Version)
	}

	f := &FMG{
		Version:   byte(doc.Version),
		BigEndian: doc.BigEndian,
		Entries:   make([]Entry, len(doc.Entries)),
	}
	for i, e := range doc.Entries {
		f.Entries[i] = Entry{ID: e.ID, Text: e.Text, Null: e.Text == NullText}
		if f.Entries[i].Null {
			f.Entries[i].Text = ""
		}
	}

	return f, typ, nil
}

// boolByte encodes a boolean as one byte.
func boolByte(v bool) byte {
	if v {
		return 1
	}

	return 0
}
