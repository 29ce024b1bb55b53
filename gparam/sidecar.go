// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package gparam

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/internal/fsutil"
)

// sidecar is the XML form of a GPARAM file.
type sidecar struct {
	XMLName     xml.Name       `xml:"gparam"`
	Compression string         `xml:"compression,omitempty"`
	Groups      []sidecarGroup `xml:"groups>group"`
	Version     fsutil.Hex     `xml:"version"`
}

type sidecarGroup struct {
	Name   string         `xml:"name,attr"`
	Params []sidecarParam `xml:"param"`
}

type sidecarParam struct {
	Name   string         `xml:"name,attr"`
	Type   string         `xml:"type,attr"`
	Values []sidecarValue `xml:"value"`
}

type sidecarValue struct {
	Text string `xml:",chardata"`
	ID   int32  `xml:"id,attr"`
}

// EncodeXML renders the file as a sidecar document recording the envelope method.
func EncodeXML(g *GPARAM, compression dcx.Type) ([]byte, error) {
	doc := sidecar{
		Compression: string(compression),
		Version:     fsutil.Hex(g.Version),
		Groups:      make([]sidecarGroup, len(g.Groups)),
	}

	for gi, grp := range g.Groups {
		sg := sidecarGroup{Name: grp.Name, Params: make([]sidecarParam, len(grp.Params))}
		for pi, p := range grp.Params {
			sp := sidecarParam{Name: p.Name, Type: p.Type.String(), Values: make([]sidecarValue, len(p.Values))}
			for vi, v := range p.Values {
				text, err := formatValue(p.Type, v.Raw)
				if err != nil {
					return nil, fmt.Errorf("param %q: %w", p.Name, err)
				}
				sp.Values[vi] = sidecarValue{ID: v.ID, Text: text}
			}
			sg.Params[pi] = sp
		}
		doc.Groups[gi] = sg
	}

	return fsutil.MarshalXML(doc)
}

// DecodeXML parses a sidecar document.
func DecodeXML(data []byte) (*GPARAM, dcx.Type, error) {
	var doc sidecar
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, dcx.TypeNone, fmt.Errorf("decode gparam xml: %w", err)
	}

	typ, err := dcx.ParseType(doc.Compression)
	if err != nil {
		return nil, dcx.TypeNone, err
	}
	if doc.Version > math.MaxUint32 {
		return nil, dcx.TypeNone, fmt.Errorf("%w: version %d", ErrInvalidValue, doc.Version)
	}

	g := &GPARAM{Version: uint32(doc.Version), Groups: make([]Group, len(doc.Groups))}
	for gi, sg := range doc.Groups {
		grp := Group{Name: sg.Name, Params: make([]Param, len(sg.Params))}
		for pi, sp := range sg.Params {
			t, err := parseTypeName(sp.Type)
			if err != nil {
				return nil, dcx.TypeNone, fmt.Errorf("param %q: %w", sp.Name, err)
			}

			p := Param{Name: sp.Name, Type: t, Values: make([]Value, len(sp.Values))}
			for vi, sv := range sp.Values {
				raw, err := parseValue(t, sv.Text)
				if err != nil {
					return nil, dcx.TypeNone, fmt.Errorf("param %q value %d: %w", sp.Name, sv.ID, err)
				}
				p.Values[vi] = Value{ID: sv.ID, Raw: raw}
			}
			grp.Params[pi] = p
		}
		g.Groups[gi] = grp
	}

	return g, typ, nil
}

// formatValue renders a raw payload as text.
func formatValue(t Type, raw []byte) (string, error) {
	le := binary.LittleEndian
	switch t {
	case TypeBool:
		return strconv.FormatBool(raw[0] != 0), nil
	case TypeByte:
		return strconv.FormatUint(uint64(raw[0]), 10), nil
	case TypeShort:
		return strconv.FormatInt(int64(int16(le.Uint16(raw))), 10), nil
	case TypeInt:
		return strconv.FormatInt(int64(int32(le.Uint32(raw))), 10), nil
	case TypeUint:
		return strconv.FormatUint(uint64(le.Uint32(raw)), 10), nil
	case TypeFloat, TypeVec2, TypeVec4:
		parts := make([]string, len(raw)/4)
		for i := range parts {
			parts[i] = formatFloat(math.Float32frombits(le.Uint32(raw[i*4:])))
		}
		return strings.Join(parts, ","), nil
	case TypeColor:
		return "#" + strings.ToUpper(hex.EncodeToString(raw)), nil
	default:
		return "", fmt.Errorf("%w: 0x%02X", ErrUnknownType, byte(t))
	}
}

// parseValue converts text back to a raw payload.
func parseValue(t Type, text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	le := binary.LittleEndian
	switch t {
	case TypeBool:
		v, err := strconv.ParseBool(text)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		if v {
			return []byte{1}, nil
		}
		return []byte{0}, nil
	case TypeByte:
		v, err := strconv.ParseUint(text, 10, 8)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return []byte{byte(v)}, nil
	case TypeShort:
		v, err := strconv.ParseInt(text, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return le.AppendUint16(nil, uint16(v)), nil
	case TypeInt:
		v, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return le.AppendUint32(nil, uint32(v)), nil
	case TypeUint:
		v, err := strconv.ParseUint(text, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return le.AppendUint32(nil, uint32(v)), nil
	case TypeFloat, TypeVec2, TypeVec4:
		size, _ := t.size()
		parts := strings.Split(text, ",")
		if len(parts) != size/4 {
			return nil, fmt.Errorf("%w: %q needs %d components", ErrInvalidValue, text, size/4)
		}
		out := make([]byte, 0, size)
		for _, part := range parts {
			v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
			}
			out = le.AppendUint32(out, math.Float32bits(float32(v)))
		}
		return out, nil
	case TypeColor:
		raw, err := hex.DecodeString(strings.TrimPrefix(text, "#"))
		if err != nil || len(raw) != 4 {
			return nil, fmt.Errorf("%w: color %q", ErrInvalidValue, text)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: 0x%02X", ErrUnknownType, byte(t))
	}
}

// formatFloat renders the shortest text that parses back to the same float32.
func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
