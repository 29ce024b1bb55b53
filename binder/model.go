// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package binder

// Kind selects one binder container variant.
type Kind uint8

// Binder container variants.
const (
	// KindBND3 is a single-file binder, version 3.
	KindBND3 Kind = iota + 1
	// KindBND4 is a single-file binder, version 4.
	KindBND4
	// KindBXF3 is a split header/data binder, version 3 (BHF3 + BDF3).
	KindBXF3
	// KindBXF4 is a split header/data binder, version 4 (BHF4 + BDF4).
	KindBXF4
)

// String returns the variant display name.
func (k Kind) String() string {
	switch k {
	case KindBND3:
		return "BND3"
	case KindBND4:
		return "BND4"
	case KindBXF3:
		return "BXF3"
	case KindBXF4:
		return "BXF4"
	default:
		return "unknown"
	}
}

// Split reports whether the variant stores headers and data in separate files.
func (k Kind) Split() bool {
	return k == KindBXF3 || k == KindBXF4
}

// v4 reports whether the variant uses the 64-bit version 4 layout.
func (k Kind) v4() bool {
	return k == KindBND4 || k == KindBXF4
}

// Layout constants shared by readers and writers.
const (
	headerSizeV3 = 0x20
	headerSizeV4 = 0x40
	bdfSizeV3    = 0x10
	bdfSizeV4    = 0x30
	dataAlign    = 0x10
)

// Format is the binder format bit set controlling entry header layout.
type Format byte

// Format flags.
const (
	FormatBigEndian   Format = 0x01
	FormatIDs         Format = 0x02
	FormatNames1      Format = 0x04
	FormatNames2      Format = 0x08
	FormatLongOffsets Format = 0x10
	FormatCompression Format = 0x20
)

// HasIDs reports whether entries carry numeric IDs.
func (f Format) HasIDs() bool { return f&FormatIDs != 0 }

// HasNames reports whether entries carry names.
func (f Format) HasNames() bool { return f&(FormatNames1|FormatNames2) != 0 }

// HasLongOffsets reports whether v4 data offsets are 64-bit.
func (f Format) HasLongOffsets() bool { return f&FormatLongOffsets != 0 }

// HasCompression reports whether entries record an uncompressed size.
func (f Format) HasCompression() bool { return f&FormatCompression != 0 }

// entryHeaderSize returns the size of one entry header for kind and format.
func entryHeaderSize(kind Kind, f Format) int {
	var n int
	if kind.v4() {
		n = 4 + 4 + 8
		if f.HasCompression() {
			n += 8
		}
		if f.HasLongOffsets() {
			n += 8
		} else {
			n += 4
		}
	} else {
		n = 4 + 4 + 4
		if f.HasCompression() {
			n += 4
		}
	}
	if f.HasIDs() {
		n += 4
	}
	if f.HasNames() {
		n += 4
	}

	return n
}

// Header holds container-level fields recorded in the manifest.
type Header struct {
	// Version is the 8-byte version tag, usually a build date.
	Version string `json:"version" yaml:"version"`
	// Kind is the container variant.
	Kind Kind `json:"kind" yaml:"kind"`
	// Format controls entry header layout.
	Format Format `json:"format" yaml:"format"`
	// BigEndian selects big-endian integers.
	BigEndian bool `json:"big_endian,omitempty" yaml:"big_endian,omitempty"`
	// BitBigEndian is stored verbatim for round-trip fidelity.
	BitBigEndian bool `json:"bit_big_endian,omitempty" yaml:"bit_big_endian,omitempty"`
	// Unicode selects UTF-16 names for v4; v3 names are always Shift-JIS.
	Unicode bool `json:"unicode,omitempty" yaml:"unicode,omitempty"`
	// Unk04 is a v4 header flag stored verbatim.
	Unk04 bool `json:"unk04,omitempty" yaml:"unk04,omitempty"`
	// Unk05 is a v4 header flag stored verbatim.
	Unk05 bool `json:"unk05,omitempty" yaml:"unk05,omitempty"`
	// Extended is the v4 hash table mode byte stored verbatim.
	Extended byte `json:"extended,omitempty" yaml:"extended,omitempty"`
	// Unk18 is a v3 header field stored verbatim.
	Unk18 int32 `json:"unk18,omitempty" yaml:"unk18,omitempty"`
}

// File describes one binder entry.
type File struct {
	// Name is the stored entry name; empty when the format has no names.
	Name string `json:"name" yaml:"name"`
	// Data is the stored entry payload.
	Data []byte `json:"-" yaml:"-"`
	// UncompressedSize is recorded when the format has the compression flag.
	UncompressedSize int64 `json:"uncompressed_size,omitempty" yaml:"uncompressed_size,omitempty"`
	// ID is the numeric entry ID.
	ID int32 `json:"id" yaml:"id"`
	// Flags is the per-entry flag byte.
	Flags byte `json:"flags" yaml:"flags"`
}

// Binder is a fully loaded container.
type Binder struct {
	// Files are kept in stored order.
	Files []File `json:"files" yaml:"files"`
	Header
}
