// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

// Package ffx reads and writes FFX particle effect files (DLsE).
package ffx

import (
	"encoding/hex"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/internal/binio"
	"github.com/woozymasta/yabber/internal/fsutil"
)

// ErrInvalidHeader means the effect magic or section table is malformed.
var ErrInvalidHeader = errors.New("invalid FFX data")

// Section is one typed opaque block of effect data.
type Section struct {
	Data []byte `json:"data" yaml:"data"`
	Type int32  `json:"type" yaml:"type"`
}

// FFX is a particle effect definition.
type FFX struct {
	Sections []Section `json:"sections" yaml:"sections"`
	EffectID int32     `json:"effect_id" yaml:"effect_id"`
	Version  uint16    `json:"version" yaml:"version"`
	Unk06    uint16    `json:"unk06,omitempty" yaml:"unk06,omitempty"`
}

// Is reports whether data starts with DLsE magic.
func Is(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "DLsE"
}

// Read parses an effect file.
func Read(data []byte) (*FFX, error) {
	if !Is(data) {
		return nil, ErrInvalidHeader
	}

	c := binio.NewCursor(data, binio.OrderOf(false))
	c.Skip(4)
	f := &FFX{Version: c.U16(), Unk06: c.U16(), EffectID: c.I32()}
	count := int(c.U32())
	if c.Err() != nil || count*8 > len(data) {
		return nil, fmt.Errorf("%w: section count", ErrInvalidHeader)
	}

	f.Sections = make([]Section, count)
	for i := range f.Sections {
		f.Sections[i].Type = c.I32()
		f.Sections[i].Data = c.Bytes(int(c.U32()))
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}
	if c.Offset() != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidHeader, len(data)-c.Offset())
	}

	return f, nil
}

// Write serializes the effect file.
func (f *FFX) Write() ([]byte, error) {
	order := binio.OrderOf(false)
	out := []byte("DLsE")
	out = order.AppendUint16(out, f.Version)
	out = order.AppendUint16(out, f.Unk06)
	out = order.AppendUint32(out, uint32(f.EffectID))
	out = order.AppendUint32(out, uint32(len(f.Sections)))
	for i, s := range f.Sections {
		if uint64(len(s.Data)) > math.MaxUint32 {
			return nil, fmt.Errorf("section %d too large", i)
		}
		out = order.AppendUint32(out, uint32(s.Type))
		out = order.AppendUint32(out, uint32(len(s.Data)))
		out = append(out, s.Data...)
	}

	return out, nil
}

// sidecar is the XML form of an effect file.
type sidecar struct {
	XMLName     xml.Name         `xml:"ffx"`
	Compression string           `xml:"compression,omitempty"`
	Sections    []sidecarSection `xml:"sections>section"`
	Version     fsutil.Hex       `xml:"version"`
	Unk06       fsutil.Hex       `xml:"unk06,omitempty"`
	EffectID    int32            `xml:"id"`
}

type sidecarSection struct {
	Data string `xml:",chardata"`
	Type int32  `xml:"type,attr"`
}

// EncodeXML renders the effect as a sidecar document recording the envelope method.
func EncodeXML(f *FFX, compression dcx.Type) ([]byte, error) {
	doc := sidecar{
		Compression: string(compression),
		Version:     fsutil.Hex(f.Version),
		Unk06:       fsutil.Hex(f.Unk06),
		EffectID:    f.EffectID,
		Sections:    make([]sidecarSection, len(f.Sections)),
	}
	for i, s := range f.Sections {
		doc.Sections[i] = sidecarSection{Type: s.Type, Data: strings.ToUpper(hex.EncodeToString(s.Data))}
	}

	return fsutil.MarshalXML(doc)
}

// DecodeXML parses a sidecar document.
func DecodeXML(data []byte) (*FFX, dcx.Type, error) {
	var doc sidecar
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, dcx.TypeNone, fmt.Errorf("decode ffx xml: %w", err)
	}

	typ, err := dcx.ParseType(doc.Compression)
	if err != nil {
		return nil, dcx.TypeNone, err
	}
	if doc.Version > math.MaxUint16 || doc.Unk06 > math.MaxUint16 {
		return nil, dcx.TypeNone, fmt.Errorf("%w: header field out of range", ErrInvalidHeader)
	}

	f := &FFX{
		Version:  uint16(doc.Version),
		Unk06:    uint16(doc.Unk06),
		EffectID: doc.EffectID,
		Sections: make([]Section, len(doc.Sections)),
	}
	for i, s := range doc.Sections {
		raw, err := hex.DecodeString(strings.Join(strings.Fields(s.Data), ""))
		if err != nil {
			return nil, dcx.TypeNone, fmt.Errorf("%w: section %d: %w", ErrInvalidHeader, i, err)
		}
		f.Sections[i] = Section{Type: s.Type, Data: raw}
	}

	return f, typ, nil
}
