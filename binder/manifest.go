// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package binder

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/internal/fsutil"
)

// ManifestName returns the manifest file name for a binder variant.
func ManifestName(kind Kind) string {
	return "_yabber-" + strings.ToLower(kind.String()) + ".xml"
}

// Envelope records an outer transform applied around the container.
type Envelope struct {
	// Scheme names the transform, for example a regulation title.
	Scheme string `xml:"scheme"`
	// IV is the hex initialization vector reused on re-encryption.
	IV string `xml:"iv,omitempty"`
}

// Manifest is the on-disk description of an unpacked binder.
type Manifest struct {
	XMLName      xml.Name
	Filename     string         `xml:"filename"`
	DataFilename string         `xml:"bdt_filename,omitempty"`
	Compression  string         `xml:"compression,omitempty"`
	Version      string         `xml:"version"`
	Format       fsutil.Hex     `xml:"format"`
	BigEndian    bool           `xml:"bigendian"`
	BitBigEndian bool           `xml:"bitbigendian"`
	Unicode      bool           `xml:"unicode,omitempty"`
	Unk04        bool           `xml:"unk04,omitempty"`
	Unk05        bool           `xml:"unk05,omitempty"`
	Extended     fsutil.Hex     `xml:"extended,omitempty"`
	Unk18        fsutil.Hex     `xml:"unk18,omitempty"`
	Envelope     *Envelope      `xml:"envelope,omitempty"`
	Files        []ManifestFile `xml:"files>file"`
}

// ManifestFile describes one entry and its file in the unpacked directory.
type ManifestFile struct {
	Name             string     `xml:"name"`
	Path             string     `xml:"path"`
	UncompressedSize int64      `xml:"uncompressed_size,omitempty"`
	ID               int32      `xml:"id"`
	Flags            fsutil.Hex `xml:"flags"`
}

// newManifest builds a manifest skeleton from container header fields.
func newManifest(h Header) *Manifest {
	return &Manifest{
		XMLName:      xml.Name{Local: strings.ToLower(h.Kind.String())},
		Version:      h.Version,
		Format:       fsutil.Hex(h.Format),
		BigEndian:    h.BigEndian,
		BitBigEndian: h.BitBigEndian,
		Unicode:      h.Unicode,
		Unk04:        h.Unk04,
		Unk05:        h.Unk05,
		Extended:     fsutil.Hex(h.Extended),
		Unk18:        fsutil.Hex(uint32(h.Unk18)),
	}
}

// ReadManifest loads and validates the manifest of kind from dir.
func ReadManifest(dir string, kind Kind) (*Manifest, error) {
	var m Manifest
	if err := fsutil.ReadXML(filepath.Join(dir, ManifestName(kind)), &m); err != nil {
		return nil, err
	}

	if want := strings.ToLower(kind.String()); m.XMLName.Local != want {
		return nil, fmt.Errorf("%w: root element %q, want %q", ErrInvalidManifest, m.XMLName.Local, want)
	}
	if !isBaseName(m.Filename) {
		return nil, fmt.Errorf("%w: filename %q is not a plain file name", ErrInvalidManifest, m.Filename)
	}
	if kind.Split() && !isBaseName(m.DataFilename) {
		return nil, fmt.Errorf("%w: bdt_filename %q is not a plain file name", ErrInvalidManifest, m.DataFilename)
	}
	if m.Format > 0xFF || m.Extended > 0xFF {
		return nil, fmt.Errorf("%w: format byte out of range", ErrInvalidManifest)
	}
	if _, err := dcx.ParseType(m.Compression); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}

	return &m, nil
}

// isBaseName reports whether name is a single path element usable next to
// the unpacked directory.
func isBaseName(name string) bool {
	return name != "" && name != "." && name != ".." && !strings.ContainsAny(name, `/\:`)
}

// CompressionType returns the recorded envelope method.
func (m *Manifest) CompressionType() dcx.Type {
	typ, _ := dcx.ParseType(m.Compression)
	return typ
}

// header converts manifest fields back into container header fields.
func (m *Manifest) header(kind Kind) Header {
	return Header{
		Kind:         kind,
		Version:      m.Version,
		Format:       Format(m.Format),
		BigEndian:    m.BigEndian,
		BitBigEndian: m.BitBigEndian,
		Unicode:      m.Unicode,
		Unk04:        m.Unk04,
		Unk05:        m.Unk05,
		Extended:     byte(m.Extended),
		Unk18:        int32(uint32(m.Unk18)),
	}
}
