// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package binder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/woozymasta/yabber/internal/binio"
)

// Is reports whether data starts with BND3 or BND4 magic.
func Is(data []byte) bool {
	return IsBND3(data) || IsBND4(data)
}

// IsBND3 reports whether data starts with BND3 magic.
func IsBND3(data []byte) bool { return hasMagic(data, "BND3") }

// IsBND4 reports whether data starts with BND4 magic.
func IsBND4(data []byte) bool { return hasMagic(data, "BND4") }

// IsBHF3 reports whether data starts with a BXF3 header magic.
func IsBHF3(data []byte) bool { return hasMagic(data, "BHF3") }

// IsBHF4 reports whether data starts with a BXF4 header magic.
func IsBHF4(data []byte) bool { return hasMagic(data, "BHF4") }

// hasMagic reports whether data starts with magic.
func hasMagic(data []byte, magic string) bool {
	return len(data) >= len(magic) && string(data[:len(magic)]) == magic
}

// DataPathFor returns the companion data file path for a split header path.
// The last "bhd" in the extension becomes "bdt": "a.bhd" -> "a.bdt", "b.tpfbhd" -> "b.tpfbdt".
func DataPathFor(headerPath string) string {
	dir, base := filepath.Split(headerPath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	lower := strings.ToLower(ext)
	if idx := strings.LastIndex(lower, "bhd"); idx >= 0 {
		ext = ext[:idx] + "bdt" + ext[idx+3:]
	} else {
		ext += ".bdt"
	}

	return dir + stem + ext
}

// entry is a parsed entry header with its payload location.
type entry struct {
	File
	offset int64
	size   int64
}

// Reader provides streamed read access to a parsed binder.
type Reader struct {
	// ra is the random-access source of entry payloads.
	ra io.ReaderAt
	// file is set when Reader owns the payload file.
	file *os.File
	// entries stores parsed entry metadata in stored order.
	entries []entry
	// header stores container-level fields.
	header Header
	// size is the payload source size in bytes.
	size int64
	// mu guards closed state and close operation.
	mu sync.Mutex
	// closed reports whether Close was already called.
	closed bool
}

// Open opens a BND3 or BND4 file and parses its entry table.
// Entry payloads are read on demand, so the Reader must be closed.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open binder: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	table, err := readTable(f, fi.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r, err := newReader(table, f, fi.Size(), false)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f
	return r, nil
}

// OpenSplit opens a BHF header file and its BDF data file.
func OpenSplit(headerPath string, dataPath string) (*Reader, error) {
	table, err := os.ReadFile(headerPath)
	if err != nil {
		return nil, fmt.Errorf("read binder header: %w", err)
	}

	f, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("open binder data: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("stat: %w", err)
	}

	r, err := NewSplitReader(table, f, fi.Size())
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	r.file = f
	return r, nil
}

// NewReader parses an in-memory BND3 or BND4 container.
func NewReader(data []byte) (*Reader, error) {
	return newReader(data, bytes.NewReader(data), int64(len(data)), false)
}

// NewSplitReader parses a BHF header and attaches the BDF data source.
func NewSplitReader(table []byte, data io.ReaderAt, size int64) (*Reader, error) {
	magic := make([]byte, 4)
	if _, err := data.ReadAt(magic, 0); err != nil {
		return nil, fmt.Errorf("%w: read data magic: %w", ErrInvalidHeader, err)
	}

	switch {
	case IsBHF3(table) && string(magic) == "BDF3":
	case IsBHF4(table) && string(magic) == "BDF4":
	default:
		return nil, fmt.Errorf("%w: header %q with data %q", ErrInvalidHeader, safeMagic(table), magic)
	}

	return newReader(table, data, size, true)
}

// Header returns container-level fields.
func (r *Reader) Header() Header {
	return r.header
}

// ReadEntry reads the stored payload of entry i.
func (r *Reader) ReadEntry(i int) ([]byte, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if i < 0 || i >= len(r.entries) {
		return nil, fmt.Errorf("%w: index %d", ErrInvalidEntry, i)
	}

	e := r.entries[i]
	buf := make([]byte, e.size)
	n, err := r.ra.ReadAt(buf, e.offset)
	if n == len(buf) {
		return buf, nil
	}
	if err == nil {
		err = io.ErrUnexpectedEOF
	}

	return nil, fmt.Errorf("read entry %d: %w", i, err)
}

// Load reads every entry into a Binder.
func (r *Reader) Load() (*Binder, error) {
	b := &Binder{Header: r.header, Files: make([]File, len(r.entries))}
	for i := range r.entries {
		data, err := r.ReadEntry(i)
		if err != nil {
			return nil, err
		}

		b.Files[i] = r.entries[i].File
		b.Files[i].Data = data
	}

	return b, nil
}

// Close releases the payload file when owned. Repeated calls are no-ops.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	if r.file != nil {
		return r.file.Close()
	}

	return nil
}

// readTable reads the header, entry table and names region of a BND file.
func readTable(ra io.ReaderAt, size int64) ([]byte, error) {
	prefix := make([]byte, min(size, headerSizeV4))
	if _, err := ra.ReadAt(prefix, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read binder header: %w", err)
	}

	var end, minEnd int64
	switch {
	case IsBND3(prefix) && len(prefix) >= headerSizeV3:
		end = int64(binio.OrderOf(prefix[0x0D] != 0).Uint32(prefix[0x14:]))
		minEnd = headerSizeV3
	case IsBND4(prefix) && len(prefix) >= headerSizeV4:
		end = int64(binio.OrderOf(prefix[0x09] != 0).Uint64(prefix[0x28:]))
		minEnd = headerSizeV4
	default:
		return nil, fmt.Errorf("%w: magic %q", ErrInvalidHeader, safeMagic(prefix))
	}
	if end < minEnd || end > size {
		return nil, fmt.Errorf("%w: table end %d outside file of %d bytes", ErrInvalidHeader, end, size)
	}

	table := make([]byte, end)
	if _, err := ra.ReadAt(table, 0); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read binder table: %w", err)
	}

	return table, nil
}

// newReader parses table and validates entry bounds against the payload size.
func newReader(table []byte, ra io.ReaderAt, size int64, split bool) (*Reader, error) {
	var (
		h       Header
		entries []entry
		err     error
	)
	switch {
	case !split && IsBND3(table):
		h, entries, err = parseV3(table, KindBND3)
	case !split && IsBND4(table):
		h, entries, err = parseV4(table, KindBND4)
	case split && IsBHF3(table):
		h, entries, err = parseV3(table, KindBXF3)
	case split && IsBHF4(table):
		h, entries, err = parseV4(table, KindBXF4)
	default:
		return nil, fmt.Errorf("%w: magic %q", ErrInvalidHeader, safeMagic(table))
	}
	if err != nil {
		return nil, err
	}

	for i := range entries {
		e := entries[i]
		if e.offset < 0 || e.size < 0 || e.offset+e.size > size {
			return nil, fmt.Errorf("%w: entry %d at %d+%d exceeds %d bytes", ErrInvalidEntry, i, e.offset, e.size, size)
		}
	}

	return &Reader{ra: ra, header: h, entries: entries, size: size}, nil
}

// parseV3 parses BND3 and BHF3 tables.
func parseV3(table []byte, kind Kind) (Header, []entry, error) {
	if len(table) < headerSizeV3 {
		return Header{}, nil, fmt.Errorf("%w: short v3 header", ErrInvalidHeader)
	}

	h := Header{Kind: kind}
	c := binio.NewCursor(table, binio.OrderOf(table[0x0D] != 0))
	c.Skip(4)
	h.Version = c.FixedString(8)
	h.Format = Format(c.U8())
	h.BigEndian = c.Bool()
	h.BitBigEndian = c.Bool()
	c.Skip(1)
	count := int(c.U32())
	if kind == KindBND3 {
		c.Skip(4)
		h.Unk18 = c.I32()
		c.Skip(4)
	} else {
		c.Skip(12)
	}

	if count < 0 || count*entryHeaderSize(kind, h.Format) > len(table)-headerSizeV3 {
		return Header{}, nil, fmt.Errorf("%w: entry count %d", ErrInvalidHeader, count)
	}

	entries := make([]entry, count)
	nameOffsets := make([]int, count)
	for i := range entries {
		e := &entries[i]
		e.Flags = c.U8()
		c.Skip(3)
		e.size = int64(c.U32())
		e.offset = int64(c.U32())
		if h.Format.HasIDs() {
			e.ID = c.I32()
		}
		if h.Format.HasNames() {
			nameOffsets[i] = int(c.U32())
		}
		if h.Format.HasCompression() {
			e.UncompressedSize = int64(c.U32())
		}
	}
	if err := c.Err(); err != nil {
		return Header{}, nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}

	if err := readNames(table, h, entries, nameOffsets); err != nil {
		return Header{}, nil, err
	}

	return h, entries, nil
}

// parseV4 parses BND4 and BHF4 tables.
func parseV4(table []byte, kind Kind) (Header, []entry, error) {
	if len(table) < headerSizeV4 {
		return Header{}, nil, fmt.Errorf("%w: short v4 header", ErrInvalidHeader)
	}

	h := Header{Kind: kind}
	c := binio.NewCursor(table, binio.OrderOf(table[0x09] != 0))
	c.Skip(4)
	h.Unk04 = c.Bool()
	h.Unk05 = c.Bool()
	c.Skip(3)
	h.BigEndian = c.Bool()
	h.BitBigEndian = c.Bool()
	c.Skip(1)
	count := int(c.U32())
	if c.U64() != headerSizeV4 {
		return Header{}, nil, fmt.Errorf("%w: unexpected v4 header size", ErrInvalidHeader)
	}
	h.Version = c.FixedString(8)
	entrySize := int(c.U64())
	c.Skip(8)
	h.Unicode = c.Bool()
	h.Format = Format(c.U8())
	h.Extended = c.U8()
	c.Skip(1 + 4 + 8)

	if entrySize != entryHeaderSize(kind, h.Format) {
		return Header{}, nil, fmt.Errorf("%w: entry header size %d for format 0x%X", ErrInvalidHeader, entrySize, h.Format)
	}
	if count < 0 || count*entrySize > len(table)-headerSizeV4 {
		return Header{}, nil, fmt.Errorf("%w: entry count %d", ErrInvalidHeader, count)
	}

	entries := make([]entry, count)
	nameOffsets := make([]int, count)
	for i := range entries {
		e := &entries[i]
		e.Flags = c.U8()
		c.Skip(3)
		c.Skip(4)
		e.size = int64(c.U64())
		if h.Format.HasCompression() {
			e.UncompressedSize = int64(c.U64())
		}
		if h.Format.HasLongOffsets() {
			e.offset = int64(c.U64())
		} else {
			e.offset = int64(c.U32())
		}
		if h.Format.HasIDs() {
			e.ID = c.I32()
		}
		if h.Format.HasNames() {
			nameOffsets[i] = int(c.U32())
		}
	}
	if err := c.Err(); err != nil {
		return Header{}, nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}

	if err := readNames(table, h, entries, nameOffsets); err != nil {
		return Header{}, nil, err
	}

	return h, entries, nil
}

// readNames decodes entry names when the format stores them.
func readNames(table []byte, h Header, entries []entry, nameOffsets []int) error {
	if !h.Format.HasNames() {
		return nil
	}

	enc := nameEncoding(h)
	for i := range entries {
		name, err := binio.CString(table, nameOffsets[i], enc)
		if err != nil {
			return fmt.Errorf("%w: entry %d name: %w", ErrInvalidEntry, i, err)
		}

		entries[i].Name = name
	}

	return nil
}

// nameEncoding returns the text encoding of entry names.
func nameEncoding(h Header) binio.Encoding {
	if h.Kind.v4() && h.Unicode {
		return binio.UTF16(h.BigEndian)
	}

	return binio.ShiftJIS
}

// safeMagic returns up to four leading bytes for error messages.
func safeMagic(data []byte) []byte {
	return data[:min(len(data), 4)]
}
