// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package binder

import (
	"fmt"

	"github.com/woozymasta/yabber/internal/binio"
)

// Write serializes a BND3 or BND4 container.
func (b *Binder) Write() ([]byte, error) {
	if b.Kind.Split() {
		return nil, fmt.Errorf("%w: %s needs WriteSplit", ErrKindMismatch, b.Kind)
	}

	table, dataStart, offsets, err := b.buildTable(false)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, dataStart+payloadSize(b.Files))
	out = append(out, table...)
	out = appendPayloads(out, dataStart, b.Files, offsets)
	return out, nil
}

// WriteSplit serializes a BXF3 or BXF4 container as header and data files.
func (b *Binder) WriteSplit() ([]byte, []byte, error) {
	if !b.Kind.Split() {
		return nil, nil, fmt.Errorf("%w: %s needs Write", ErrKindMismatch, b.Kind)
	}

	table, dataStart, offsets, err := b.buildTable(true)
	if err != nil {
		return nil, nil, err
	}

	data := make([]byte, 0, dataStart+payloadSize(b.Files))
	data = b.appendDataHeader(data)
	data = appendPayloads(data, dataStart, b.Files, offsets)
	return table, data, nil
}

// buildTable serializes the header, entry table and names, and assigns data offsets.
func (b *Binder) buildTable(split bool) ([]byte, int, []int64, error) {
	if b.Kind < KindBND3 || b.Kind > KindBXF4 {
		return nil, 0, nil, fmt.Errorf("%w: kind %d", ErrKindMismatch, b.Kind)
	}

	order := binio.OrderOf(b.BigEndian)
	hdrSize := headerSizeV3
	if b.Kind.v4() {
		hdrSize = headerSizeV4
	}
	entrySize := entryHeaderSize(b.Kind, b.Format)
	namesStart := hdrSize + len(b.Files)*entrySize

	var names []byte
	nameOffsets := make([]int, len(b.Files))
	if b.Format.HasNames() {
		enc := nameEncoding(b.Header)
		for i := range b.Files {
			nameOffsets[i] = namesStart + len(names)

			var err error
			names, err = binio.AppendCString(names, b.Files[i].Name, enc)
			if err != nil {
				return nil, 0, nil, fmt.Errorf("entry %d name: %w", i, err)
			}
		}
	}
	tableEnd := namesStart + len(names)

	dataStart := binio.Align(tableEnd, dataAlign)
	if split {
		dataStart = bdfSizeV3
		if b.Kind.v4() {
			dataStart = bdfSizeV4
		}
	}

	offsets := make([]int64, len(b.Files))
	cur := dataStart
	for i := range b.Files {
		offsets[i] = int64(cur)
		cur = binio.Align(cur+len(b.Files[i].Data), dataAlign)
	}

	table := make([]byte, 0, tableEnd)
	if b.Kind.v4() {
		table = b.appendHeaderV4(table, order, entrySize, dataStart, split)
	} else {
		table = b.appendHeaderV3(table, order, tableEnd, split)
	}

	for i := range b.Files {
		f := &b.Files[i]
		table = append(table, f.Flags, 0, 0, 0)
		if b.Kind.v4() {
			table = order.AppendUint32(table, 0xFFFFFFFF)
			table = order.AppendUint64(table, uint64(len(f.Data)))
			if b.Format.HasCompression() {
				table = order.AppendUint64(table, uint64(f.UncompressedSize))
			}
			if b.Format.HasLongOffsets() {
				table = order.AppendUint64(table, uint64(offsets[i]))
			} else {
				table = order.AppendUint32(table, uint32(offsets[i]))
			}
			if b.Format.HasIDs() {
				table = order.AppendUint32(table, uint32(f.ID))
			}
			if b.Format.HasNames() {
				table = order.AppendUint32(table, uint32(nameOffsets[i]))
			}
			continue
		}

		table = order.AppendUint32(table, uint32(len(f.Data)))
		table = order.AppendUint32(table, uint32(offsets[i]))
		if b.Format.HasIDs() {
			table = order.AppendUint32(table, uint32(f.ID))
		}
		if b.Format.HasNames() {
			table = order.AppendUint32(table, uint32(nameOffsets[i]))
		}
		if b.Format.HasCompression() {
			table = order.AppendUint32(table, uint32(f.UncompressedSize))
		}
	}

	table = append(table, names...)
	return table, dataStart, offsets, nil
}

// appendHeaderV3 writes the fixed BND3 or BHF3 header.
func (b *Binder) appendHeaderV3(dst []byte, order binio.Order, tableEnd int, split bool) []byte {
	magic := "BND3"
	if split {
		magic = "BHF3"
	}

	dst = append(dst, magic...)
	dst = binio.AppendFixedString(dst, b.Version, 8)
	dst = append(dst, byte(b.Format), boolByte(b.BigEndian), boolByte(b.BitBigEndian), 0)
	dst = order.AppendUint32(dst, uint32(len(b.Files)))
	if split {
		dst = order.AppendUint32(dst, 0)
		dst = order.AppendUint32(dst, 0)
		return order.AppendUint32(dst, 0)
	}

	dst = order.AppendUint32(dst, uint32(tableEnd))
	dst = order.AppendUint32(dst, uint32(b.Unk18))
	return order.AppendUint32(dst, 0)
}

// appendHeaderV4 writes the fixed BND4 or BHF4 header.
func (b *Binder) appendHeaderV4(dst []byte, order binio.Order, entrySize int, dataStart int, split bool) []byte {
	magic := "BND4"
	if split {
		magic = "BHF4"
		dataStart = 0
	}

	dst = append(dst, magic...)
	dst = append(dst, boolByte(b.Unk04), boolByte(b.Unk05), 0, 0)
	dst = append(dst, 0, boolByte(b.BigEndian), boolByte(b.BitBigEndian), 0)
	dst = order.AppendUint32(dst, uint32(len(b.Files)))
	dst = order.AppendUint64(dst, headerSizeV4)
	dst = binio.AppendFixedString(dst, b.Version, 8)
	dst = order.AppendUint64(dst, uint64(entrySize))
	dst = order.AppendUint64(dst, uint64(dataStart))
	dst = append(dst, boolByte(b.Unicode), byte(b.Format), b.Extended, 0)
	dst = order.AppendUint32(dst, 0)
	return order.AppendUint64(dst, 0)
}

// appendDataHeader writes the BDF3 or BDF4 data file header.
func (b *Binder) appendDataHeader(dst []byte) []byte {
	order := binio.OrderOf(b.BigEndian)
	if !b.Kind.v4() {
		dst = append(dst, "BDF3"...)
		dst = binio.AppendFixedString(dst, b.Version, 8)
		return order.AppendUint32(dst, 0)
	}

	dst = append(dst, "BDF4"...)
	dst = append(dst, boolByte(b.Unk04), boolByte(b.Unk05), 0, 0)
	dst = append(dst, 0, boolByte(b.BigEndian), boolByte(b.BitBigEndian), 0)
	dst = order.AppendUint32(dst, 0)
	dst = order.AppendUint64(dst, bdfSizeV4)
	dst = binio.AppendFixedString(dst, b.Version, 8)
	dst = order.AppendUint64(dst, 0)
	return order.AppendUint64(dst, 0)
}

// appendPayloads appends aligned entry payloads starting at dataStart.
func appendPayloads(dst []byte, dataStart int, files []File, offsets []int64) []byte {
	for len(dst) < dataStart {
		dst = append(dst, 0)
	}

	for i := range files {
		for int64(len(dst)) < offsets[i] {
			dst = append(dst, 0)
		}
		dst = append(dst, files[i].Data...)
	}

	return binio.Pad(dst, dataAlign)
}

// payloadSize returns an upper bound of aligned payload bytes.
func payloadSize(files []File) int {
	n := 0
	for i := range files {
		n += binio.Align(len(files[i].Data), dataAlign)
	}

	return n
}

// boolByte encodes a boolean as one byte.
func boolByte(v bool) byte {
	if v {
		return 1
	}

	return 0
}
