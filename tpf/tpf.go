// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

// Package tpf reads and writes TPF texture packages.
package tpf

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/internal/binio"
	"github.com/woozymasta/yabber/internal/entrypath"
	"github.com/woozymasta/yabber/internal/fsutil"
)

// ManifestName is the manifest file name of an unpacked texture package.
const ManifestName = "_yabber-tpf.xml"

const (
	headerSize  = 0x10
	textureSize = 0x14
	dataAlign   = 0x10
	// encodingUTF16 marks UTF-16 texture names; other values mean Shift-JIS.
	encodingUTF16 = 1
)

var (
	// ErrInvalidHeader means the package magic or header fields are malformed.
	ErrInvalidHeader = errors.New("invalid TPF header")
	// ErrInvalidManifest means the manifest is incomplete or inconsistent.
	ErrInvalidManifest = errors.New("invalid TPF manifest")
)

// Texture is one stored texture.
type Texture struct {
	// Name is the stored texture name without extension.
	Name string `json:"name" yaml:"name"`
	// Data is the DDS payload.
	Data []byte `json:"-" yaml:"-"`
	// Format is the texture format byte.
	Format byte `json:"format" yaml:"format"`
	// Type is the texture type byte (2D, cube, volume).
	Type byte `json:"type" yaml:"type"`
	// Mipmaps is the stored mip level count.
	Mipmaps byte `json:"mipmaps" yaml:"mipmaps"`
	// Flags1 is the per-texture flag byte.
	Flags1 byte `json:"flags1" yaml:"flags1"`
}

// TPF is a texture package.
type TPF struct {
	// Textures are kept in stored order.
	Textures []Texture `json:"textures" yaml:"textures"`
	// Platform is the target platform byte.
	Platform byte `json:"platform" yaml:"platform"`
	// Flag2 is a header flag stored verbatim.
	Flag2 byte `json:"flag2" yaml:"flag2"`
	// Encoding selects the name encoding.
	Encoding byte `json:"encoding" yaml:"encoding"`
}

// Is reports whether data starts with TPF magic.
func Is(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "TPF\x00"
}

// Read parses a texture package.
func Read(data []byte) (*TPF, error) {
	if !Is(data) || len(data) < headerSize {
		return nil, ErrInvalidHeader
	}

	c := binio.NewCursor(data, binio.OrderOf(false))
	c.Skip(4)
	c.Skip(4)
	count := int(c.U32())
	t := &TPF{Platform: c.U8(), Flag2: c.U8(), Encoding: c.U8()}
	c.Skip(1)

	if count < 0 || count*textureSize > len(data)-headerSize {
		return nil, fmt.Errorf("%w: texture count %d", ErrInvalidHeader, count)
	}

	t.Textures = make([]Texture, count)
	for i := range t.Textures {
		offset := int(c.U32())
		size := int(c.U32())
		tex := &t.Textures[i]
		tex.Format = c.U8()
		tex.Type = c.U8()
		tex.Mipmaps = c.U8()
		tex.Flags1 = c.U8()
		nameOffset := int(c.U32())
		c.Skip(4)
		if c.Err() != nil {
			break
		}

		if offset < 0 || size < 0 || offset+size > len(data) {
			return nil, fmt.Errorf("%w: texture %d data out of range", ErrInvalidHeader, i)
		}
		tex.Data = data[offset : offset+size]

		name, err := binio.CString(data, nameOffset, t.nameEncoding())
		if err != nil {
			return nil, fmt.Errorf("%w: texture %d name: %w", ErrInvalidHeader, i, err)
		}
		tex.Name = name
	}
	if err := c.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidHeader, err)
	}

	return t, nil
}

// Write serializes the texture package.
func (t *TPF) Write() ([]byte, error) {
	enc := t.nameEncoding()
	namesStart := headerSize + len(t.Textures)*textureSize

	var names []byte
	nameOffsets := make([]int, len(t.Textures))
	for i := range t.Textures {
		nameOffsets[i] = namesStart + len(names)

		var err error
		names, err = binio.AppendCString(names, t.Textures[i].Name, enc)
		if err != nil {
			return nil, fmt.Errorf("texture %d name: %w", i, err)
		}
	}

	offsets := make([]int, len(t.Textures))
	cur := binio.Align(namesStart+len(names), dataAlign)
	dataSize := 0
	for i := range t.Textures {
		offsets[i] = cur
		cur = binio.Align(cur+len(t.Textures[i].Data), dataAlign)
		dataSize += len(t.Textures[i].Data)
	}

	order := binio.OrderOf(false)
	out := make([]byte, 0, cur)
	out = append(out, "TPF\x00"...)
	out = order.AppendUint32(out, uint32(dataSize))
	out = order.AppendUint32(out, uint32(len(t.Textures)))
	out = append(out, t.Platform, t.Flag2, t.Encoding, 0)
	for i := range t.Textures {
		tex := &t.Textures[i]
		out = order.AppendUint32(out, uint32(offsets[i]))
		out = order.AppendUint32(out, uint32(len(tex.Data)))
		out = append(out, tex.Format, tex.Type, tex.Mipmaps, tex.Flags1)
		out = order.AppendUint32(out, uint32(nameOffsets[i]))
		out = order.AppendUint32(out, 0)
	}
	out = append(out, names...)

	for i := range t.Textures {
		out = binio.Pad(out, dataAlign)
		for len(out) < offsets[i] {
			out = append(out, 0)
		}
		out = append(out, t.Textures[i].Data...)
	}

	return binio.Pad(out, dataAlign), nil
}

// nameEncoding returns the text encoding of texture names.
func (t *TPF) nameEncoding() binio.Encoding {
	if t.Encoding == encodingUTF16 {
		return binio.UTF16LE
	}

	return binio.ShiftJIS
}

// Manifest is the on-disk description of an unpacked texture package.
type Manifest struct {
	XMLName     xml.Name          `xml:"tpf"`
	Filename    string            `xml:"filename"`
	Compression string            `xml:"compression,omitempty"`
	Textures    []ManifestTexture `xml:"textures>texture"`
	Platform    fsutil.Hex        `xml:"platform"`
	Flag2       fsutil.Hex        `xml:"flag2"`
	Encoding    fsutil.Hex        `xml:"encoding"`
}

// ManifestTexture describes one texture file in the unpacked directory.
type ManifestTexture struct {
	Name    string     `xml:"name"`
	Path    string     `xml:"path"`
	Format  fsutil.Hex `xml:"format"`
	Type    fsutil.Hex `xml:"type"`
	Mipmaps fsutil.Hex `xml:"mipmaps"`
	Flags1  fsutil.Hex `xml:"flags1"`
}

// UnpackOptions configures Unpack.
type UnpackOptions struct {
	// OnEntryDone is called after each texture is written.
	OnEntryDone func(done int, total int, relPath string) `json:"-" yaml:"-"`
	// SourceName is the package file name recorded in the manifest.
	SourceName string `json:"source_name" yaml:"source_name"`
	// Compression is the envelope method recorded for repack.
	Compression dcx.Type `json:"compression,omitempty" yaml:"compression,omitempty"`
}

// Unpack writes every texture as a .dds file under dstDir and then the manifest.
func (t *TPF) Unpack(ctx context.Context, dstDir string, opts UnpackOptions) (*Manifest, error) {
	if err := os.MkdirAll(dstDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	m := &Manifest{
		Filename:    opts.SourceName,
		Compression: string(opts.Compression),
		Platform:    fsutil.Hex(t.Platform),
		Flag2:       fsutil.Hex(t.Flag2),
		Encoding:    fsutil.Hex(t.Encoding),
		Textures:    make([]ManifestTexture, len(t.Textures)),
	}

	planner := entrypath.NewPlanner()
	for i := range t.Textures {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		tex := &t.Textures[i]
		relPath, err := planner.Plan(tex.Name + ".dds")
		if err != nil {
			return nil, err
		}
		if _, err := fsutil.WriteEntry(dstDir, relPath, tex.Data); err != nil {
			return nil, err
		}

		m.Textures[i] = ManifestTexture{
			Name:    tex.Name,
			Path:    relPath,
			Format:  fsutil.Hex(tex.Format),
			Type:    fsutil.Hex(tex.Type),
			Mipmaps: fsutil.Hex(tex.Mipmaps),
			Flags1:  fsutil.Hex(tex.Flags1),
		}

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(i+1, len(t.Textures), relPath)
		}
	}

	if err := fsutil.WriteXML(filepath.Join(dstDir, ManifestName), m); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	return m, nil
}

// Repack rebuilds a texture package from an unpacked directory.
// It returns the manifest and uncompressed package bytes.
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

	t := &TPF{
		Platform: byte(m.Platform),
		Flag2:    byte(m.Flag2),
		Encoding: byte(m.Encoding),
		Textures: make([]Texture, len(m.Textures)),
	}
	for i, mt := range m.Textures {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		data, err := fsutil.ReadEntry(dir, mt.Path)
		if err != nil {
			return nil, nil, err
		}

		t.Textures[i] = Texture{
			Name:    mt.Name,
			Data:    data,
			Format:  byte(mt.Format),
			Type:    byte(mt.Type),
			Mipmaps: byte(mt.Mipmaps),
			Flags1:  byte(mt.Flags1),
		}
	}

	out, err := t.Write()
	if err != nil {
		return nil, nil, err
	}

	return &m, out, nil
}
