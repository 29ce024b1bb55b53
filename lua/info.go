// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package lua

import (
	"encoding/xml"
	"fmt"

	"github.com/woozymasta/yabber/internal/binio"
	"github.com/woozymasta/yabber/internal/fsutil"
)

// infoFlagLong marks 64-bit string offsets in the LUAINFO header.
const infoFlagLong = 0x1

// Goal is one AI goal registration.
type Goal struct {
	// Name is the goal function prefix.
	Name string `json:"name" yaml:"name"`
	// LogicInterruptName is an optional interrupt handler name.
	LogicInterruptName string `json:"logic_interrupt_name,omitempty" yaml:"logic_interrupt_name,omitempty"`
	// ID is the goal identifier.
	ID int32 `json:"id" yaml:"id"`
	// BattleInterrupt enables battle interrupts.
	BattleInterrupt bool `json:"battle_interrupt,omitempty" yaml:"battle_interrupt,omitempty"`
	// LogicInterrupt enables logic interrupts.
	LogicInterrupt bool `json:"logic_interrupt,omitempty" yaml:"logic_interrupt,omitempty"`
}

// Info is a goal table.
type Info struct {
	Goals      []Goal `json:"goals" yaml:"goals"`
	Version    uint32 `json:"version" yaml:"version"`
	BigEndian  bool   `json:"big_endian,omitempty" yaml:"big_endian,omitempty"`
	LongFormat bool   `json:"long_format,omitempty" yaml:"long_format,omitempty"`
}

// IsInfo reports whether data starts with LUAI magic.
func IsInfo(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "LUAI"
}

// goalSize returns the size of one goal record.
func (in *Info) goalSize() int {
	if in.LongFormat {
		return 32
	}

	return 16
}

// ReadInfo parses a goal table.
func ReadInfo(data []byte) (*Info, error) {
	if !IsInfo(data) || len(data) < 16 {
		return nil, ErrInvalidInfo
	}

	in := &Info{}
	le := binio.OrderOf(false)
	if le.Uint32(data[4:]) > 0xFFFF {
		in.BigEndian = true
	}

	c := binio.NewCursor(data, binio.OrderOf(in.BigEndian))
	c.Skip(4)
	in.Version = c.U32()
	count := int(c.U32())
	in.LongFormat = c.U32()&infoFlagLong != 0
	if count < 0 || count*in.goalSize() > len(data)-16 {
		return nil, fmt.Errorf("%w: goal count %d", ErrInvalidInfo, count)
	}

	in.Goals = make([]Goal, count)
	for i := range in.Goals {
		g := &in.Goals[i]
		g.ID = c.I32()

		var nameOff, interruptOff uint64
		if in.LongFormat {
			c.Skip(4)
			nameOff = c.U64()
			interruptOff = c.U64()
		} else {
			nameOff = uint64(c.U32())
			interruptOff = uint64(c.U32())
		}
		g.BattleInterrupt = c.Bool()
		g.LogicInterrupt = c.Bool()
		c.Skip(2)
		if in.LongFormat {
			c.Skip(4)
		}
		if err := c.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInfo, err)
		}

		name, err := binio.CString(data, int(min(nameOff, uint64(len(data)))), binio.ShiftJIS)
		if err != nil {
			return nil, fmt.Errorf("%w: goal %d name: %w", ErrInvalidInfo, g.ID, err)
		}
		g.Name = name

		if interruptOff != 0 {
			name, err := binio.CString(data, int(min(interruptOff, uint64(len(data)))), binio.ShiftJIS)
			if err != nil {
				return nil, fmt.Errorf("%w: goal %d interrupt: %w", ErrInvalidInfo, g.ID, err)
			}
			g.LogicInterruptName = name
		}
	}

	return in, nil
}

// Write serializes the goal table.
func (in *Info) Write() ([]byte, error) {
	base := 16 + len(in.Goals)*in.goalSize()

	var strs []byte
	nameOffs := make([]int, len(in.Goals))
	interruptOffs := make([]int, len(in.Goals))
	for i, g := range in.Goals {
		var err error
		nameOffs[i] = base + len(strs)
		if strs, err = binio.AppendCString(strs, g.Name, binio.ShiftJIS); err != nil {
			return nil, fmt.Errorf("goal %d name: %w", g.ID, err)
		}

		if g.LogicInterruptName == "" {
			continue
		}
		interruptOffs[i] = base + len(strs)
		if strs, err = binio.AppendCString(strs, g.LogicInterruptName, binio.ShiftJIS); err != nil {
			return nil, fmt.Errorf("goal %d interrupt: %w", g.ID, err)
		}
	}

	var flags uint32
	if in.LongFormat {
		flags |= infoFlagLong
	}

	order := binio.OrderOf(in.BigEndian)
	out := make([]byte, 0, base+len(strs))
	out = append(out, "LUAI"...)
	out = order.AppendUint32(out, in.Version)
	out = order.AppendUint32(out, uint32(len(in.Goals)))
	out = order.AppendUint32(out, flags)
	for i, g := range in.Goals {
		out = order.AppendUint32(out, uint32(g.ID))
		if in.LongFormat {
			out = order.AppendUint32(out, 0)
			out = order.AppendUint64(out, uint64(nameOffs[i]))
			out = order.AppendUint64(out, uint64(interruptOffs[i]))
		} else {
			out = order.AppendUint32(out, uint32(nameOffs[i]))
			out = order.AppendUint32(out, uint32(interruptOffs[i]))
		}
		out = append(out, boolByte(g.BattleInterrupt), boolByte(g.LogicInterrupt), 0, 0)
		if in.LongFormat {
			out = order.AppendUint32(out, 0)
		}
	}

	return append(out, strs...), nil
}

// infoSidecar is the XML form of a goal table.
type infoSidecar struct {
	XMLName    xml.Name      `xml:"luainfo"`
	Goals      []sidecarGoal `xml:"goals>goal"`
	Version    fsutil.Hex    `xml:"version"`
	BigEndian  bool          `xml:"bigendian"`
	LongFormat bool          `xml:"longformat"`
}

type sidecarGoal struct {
	Name               string `xml:"name,attr"`
	LogicInterruptName string `xml:"logicinterruptname,attr,omitempty"`
	ID                 int32  `xml:"id,attr"`
	BattleInterrupt    bool   `xml:"battleinterrupt,attr"`
	LogicInterrupt     bool   `xml:"logicinterrupt,attr"`
}

// EncodeInfoXML renders the goal table as a sidecar document.
func EncodeInfoXML(in *Info) ([]byte, error) {
	doc := infoSidecar{
		Version:    fsutil.Hex(in.Version),
		BigEndian:  in.BigEndian,
		LongFormat: in.LongFormat,
		Goals:      make([]sidecarGoal, len(in.Goals)),
	}
	for i, g := range in.Goals {
		doc.Goals[i] = sidecarGoal(g)
	}

	return fsutil.MarshalXML(doc)
}

// DecodeInfoXML parses a sidecar document.
func DecodeInfoXML(data []byte) (*Info, error) {
	var doc infoSidecar
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode luainfo xml: %w", err)
	}
	if doc.Version > 0xFFFF {
		return nil, fmt.Errorf("%w: version %d", ErrInvalidInfo, doc.Version)
	}

	in := &Info{
		Version:    uint32(doc.Version),
		BigEndian:  doc.BigEndian,
		LongFormat: doc.LongFormat,
		Goals:      make([]Goal, len(doc.Goals)),
	}
	for i, g := range doc.Goals {
		in.Goals[i] = Goal(g)
	}

	return in, nil
}

// boolByte encodes a boolean as one byte.
func boolByte(v bool) byte {
	if v {
		return 1
	}

	return 0
}
