// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

// Package zero3 reads and writes legacy numbered "000" archives.
package zero3

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/woozymasta/lzss"
	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/internal/binio"
	"github.com/woozymasta/yabber/internal/entrypath"
	"github.com/woozymasta/yabber/internal/fsutil"
)

// ManifestName is the manifest file name of an unpacked archive.
const ManifestName = "_yabber-000.xml"

// Binary layout.
const (
	magic      = "\x00\x00\x00\x10"
	headerSize = 0x10
	entrySize  = 0x40
	nameSize   = 0x30
	// BlockSize is the payload alignment stored in every header.
	BlockSize = 0x10
)

// FlagCompressed marks an LZSS payload.
const FlagCompressed uint32 = 0x01

var (
	// ErrInvalidHeader means the archive magic or header fields are malformed.
	ErrInvalidHeader = errors.New("invalid 000 header")
	// ErrInvalidEntry means an entry record points outside the archive.
	ErrInvalidEntry = errors.New("invalid 000 entry")
	// ErrNameTooLong means an entry name does not fit its fixed field.
	ErrNameTooLong = errors.New("000 entry name too long")
	// ErrInvalidManifest means the manifest is incomplete or inconsistent.
	ErrInvalidManifest = errors.New("invalid 000 manifest")
)

// File is one archive entry with its decompressed payload.
type File struct {
	// Name is the stored entry name.
	Name string `json:"name" yaml:"name"`
	// Data is the decompressed payload.
	Data []byte `json:"-" yaml:"-"`
	// Flags are stored verbatim; FlagCompressed selects LZSS on write.
	Flags uint32 `json:"flags,omitempty" yaml:"flags,omitempty"`
}

// Compressed reports whether the entry is stored with LZSS.
func (f *File) Compressed() bool {
	return f.Flags&FlagCompressed != 0
}

// Archive is a numbered archive.
type Archive struct {
	Files []File `json:"files" yaml:"files"`
}

// Is reports whether data starts with the archive magic.
func Is(data []byte) bool {
	return len(data) >= headerSize && string(data[:4]) == magic
}

// Read parses an archive and decompresses every LZSS entry.
func Read(data []byte) (*Archive, error) {
	if !Is(data) {
		return nil, ErrInvalidHeader
	}

	c := binio.NewCursor(data, binio.OrderOf(false))
	c.Skip(4)
	count := int(c.U32())
	if block := c.U32(); block != BlockSize {
		return nil, fmt.Errorf("%w: block size 0x%X", ErrInvalidHeader, block)
	}
	c.Skip(4)
	if count < 0 || count > (len(data)-headerSize)/entrySize {
		return nil, fmt.Errorf("%w: entry count %d", ErrInvalidHeader, count)
	}

	a := &Archive{Files: make([]File, count)}
	for i := range a.Files {
		f := &a.Files[i]
		f.Name = c.FixedString(nameSize)
		f.Flags = c.U32()
		offset := uint64(c.U32())
		stored := uint64(c.U32())
		original := int(c.U32())
		if err := c.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEntry, err)
		}
		if offset+stored > uint64(len(data)) {
			return nil, fmt.Errorf("%w: %s outside archive", ErrInvalidEntry, f.Name)
		}

		payload := data[offset : offset+stored]
		if !f.Compressed() {
			f.Data = bytes.Clone(payload)
			continue
		}
		if original == 0 {
			f.Data = []byte{}
			continue
		}

		var buf bytes.Buffer
		if _, err := lzss.DecompressToWriter(&buf, bytes.NewReader(payload), original, nil); err != nil {
			return nil, fmt.Errorf("decompress entry %s: %w", f.Name, err)
		}
		f.Data = buf.Bytes()
	}

	return a, nil
}

// Write serializes the archive, compressing entries flagged FlagCompressed.
// Empty entries are stored with zero sizes whatever their flags.
func (a *Archive) Write() ([]byte, error) {
	payloads := make([][]byte, len(a.Files))
	for i := range a.Files {
		f := &a.Files[i]
		if len(f.Name) >= nameSize {
			return nil, fmt.Errorf("%w: %s", ErrNameTooLong, f.Name)
		}
		if uint64(len(f.Data)) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: %s exceeds 4 GiB", ErrInvalidEntry, f.Name)
		}

		if !f.Compressed() || len(f.Data) == 0 {
			payloads[i] = f.Data
			continue
		}

		packed, err := lzss.Compress(f.Data, lzss.DefaultCompressOptions())
		if err != nil {
			return nil, fmt.Errorf("compress entry %s: %w", f.Name, err)
		}
		payloads[i] = packed
	}

	order := binio.OrderOf(false)
	out := make([]byte, 0, headerSize+len(a.Files)*entrySize)
	out = append(out, magic...)
	out = order.AppendUint32(out, uint32(len(a.Files)))
	out = order.AppendUint32(out, BlockSize)
	out = order.AppendUint32(out, 0)

	offset := binio.Align(headerSize+len(a.Files)*entrySize, BlockSize)
	for i, f := range a.Files {
		if uint64(offset)+uint64(len(payloads[i])) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: archive exceeds 4 GiB", ErrInvalidEntry)
		}

		out = binio.AppendFixedString(out, f.Name, nameSize)
		out = order.AppendUint32(out, f.Flags)
		out = order.AppendUint32(out, uint32(offset))
		out = order.AppendUint32(out, uint32(len(payloads[i])))
		out = order.AppendUint32(out, uint32(len(f.Data)))
		offset = binio.Align(offset+len(payloads[i]), BlockSize)
	}

	for _, p := range payloads {
		out = binio.Pad(out, BlockSize)
		out = append(out, p...)
	}

	return out, nil
}

// Manifest is the on-disk description of an unpacked archive.
type Manifest struct {
	XMLName     xml.Name       `xml:"zero3"`
	Filename    string         `xml:"filename"`
	Compression string         `xml:"compression,omitempty"`
	Files       []ManifestFile `xml:"files>file"`
}

// ManifestFile describes one entry file in the unpacked directory.
type ManifestFile struct {
	Name  string     `xml:"name"`
	Path  string     `xml:"path"`
	Flags fsutil.Hex `xml:"flags"`
}

// UnpackOptions configures Unpack.
type UnpackOptions struct {
	// OnEntryDone is called after each entry is written.
	OnEntryDone func(done int, total int, relPath string) `json:"-" yaml:"-"`
	// SourceName is the archive file name recorded in the manifest.
	SourceName string `json:"source_name" yaml:"source_name"`
	// Compression is the envelope method recorded for repack.
	Compression dcx.Type `json:"compression,omitempty" yaml:"compression,omitempty"`
}

// Unpack writes every entry under dstDir and then the manifest.
func (a *Archive) Unpack(ctx context.Context, dstDir string, opts UnpackOptions) (*Manifest, error) {
	if err := os.MkdirAll(dstDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	m := &Manifest{
		Filename:    opts.SourceName,
		Compression: string(opts.Compression),
		Files:       make([]ManifestFile, len(a.Files)),
	}

	planner := entrypath.NewPlanner()
	for i := range a.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f := &a.Files[i]
		relPath, err := planner.Plan(f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := fsutil.WriteEntry(dstDir, relPath, f.Data); err != nil {
			return nil, err
		}

		m.Files[i] = ManifestFile{Name: f.Name, Path: relPath, Flags: fsutil.Hex(f.Flags)}
		if opts.OnEntryDone != nil {
			opts.OnEntryDone(i+1, len(a.Files), relPath)
		}
	}

	if err := fsutil.WriteXML(filepath.Join(dstDir, ManifestName), m); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	return m, nil
}

// Repack rebuilds an archive from an unpacked directory.
// It returns the manifest and uncompressed archive bytes.
func Repack(ctx context.Context, dir string) (*Manifest, []byte, error) {
	var m Manifest
	if err := fsutil.ReadXML(filepath.Join(dir, ManifestName), &m); err != nil {
		return nil, nil, err
	}
	if m.Filename == "" {
		return nil, nil, fmt.Errorf("%w: missing filename", ErrInvalidManifest)
	}
	if _, err := dcx.ParseType(m.Compression); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	a := &Archive{Files: make([]File, len(m.Files))}
	for i, mf := range m.Files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if mf.Flags > math.MaxUint32 {
			return nil, nil, fmt.Errorf("%w: flags of %s", ErrInvalidManifest, mf.Name)
		}

		data, err := fsutil.ReadEntry(dir, mf.Path)
		if err != nil {
			return nil, nil, err
		}
		a.Files[i] = File{Name: mf.Name, Data: data, Flags: uint32(mf.Flags)}
	}

	out, err := a.Write()
	if err != nil {
		return nil, nil, err
	}

	return &m, out, nil
}
