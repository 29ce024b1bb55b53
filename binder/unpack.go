// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package binder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/internal/entrypath"
	"github.com/woozymasta/yabber/internal/fsutil"
)

// UnpackOptions configures Reader.Unpack.
type UnpackOptions struct {
	// Envelope records an outer transform, such as regulation encryption.
	Envelope *Envelope `json:"envelope,omitempty" yaml:"envelope,omitempty"`
	// OnEntryDone is called after each entry is written.
	OnEntryDone func(done int, total int, relPath string) `json:"-" yaml:"-"`
	// SourceName is the container file name recorded in the manifest.
	SourceName string `json:"source_name" yaml:"source_name"`
	// DataName is the data file name recorded for split variants.
	DataName string `json:"data_name,omitempty" yaml:"data_name,omitempty"`
	// Compression is the envelope method recorded for repack.
	Compression dcx.Type `json:"compression,omitempty" yaml:"compression,omitempty"`
}

// Repacked is a rebuilt container ready to be written next to its directory.
type Repacked struct {
	// Manifest is the manifest the container was rebuilt from.
	Manifest *Manifest
	// Data holds BND bytes, or BHF header bytes for split variants.
	Data []byte
	// SplitData holds BDF data bytes for split variants.
	SplitData []byte
}

// Unpack writes every entry under dstDir and then the manifest.
// The manifest is written last so an interrupted unpack never looks complete.
func (r *Reader) Unpack(ctx context.Context, dstDir string, opts UnpackOptions) (*Manifest, error) {
	r.mu.Lock()
	closed := r.closed
	r.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if opts.SourceName == "" {
		return nil, fmt.Errorf("%w: missing source name", ErrInvalidManifest)
	}

	if err := os.MkdirAll(dstDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	m := newManifest(r.header)
	m.Filename = opts.SourceName
	m.DataFilename = opts.DataName
	m.Compression = string(opts.Compression)
	m.Envelope = opts.Envelope
	m.Files = make([]ManifestFile, len(r.entries))

	planner := entrypath.NewPlanner()
	for i := range r.entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e := r.entries[i]
		name := e.Name
		if name == "" {
			name = strconv.Itoa(int(e.ID))
		}

		relPath, err := planner.Plan(name)
		if err != nil {
			return nil, err
		}

		data, err := r.ReadEntry(i)
		if err != nil {
			return nil, err
		}

		if _, err := fsutil.WriteEntry(dstDir, relPath, data); err != nil {
			return nil, err
		}

		m.Files[i] = ManifestFile{
			Name:             e.Name,
			Path:             relPath,
			ID:               e.ID,
			Flags:            fsutil.Hex(e.Flags),
			UncompressedSize: e.UncompressedSize,
		}

		if opts.OnEntryDone != nil {
			opts.OnEntryDone(i+1, len(r.entries), relPath)
		}
	}

	if err := fsutil.WriteXML(filepath.Join(dstDir, ManifestName(r.header.Kind)), m); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	return m, nil
}

// Repack rebuilds a container of kind from an unpacked directory.
func Repack(ctx context.Context, dir string, kind Kind) (*Repacked, error) {
	m, err := ReadManifest(dir, kind)
	if err != nil {
		return nil, err
	}

	b := &Binder{Header: m.header(kind), Files: make([]File, len(m.Files))}
	for i, mf := range m.Files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if mf.Flags > 0xFF {
			return nil, fmt.Errorf("%w: entry %d flags out of range", ErrInvalidManifest, i)
		}

		data, err := fsutil.ReadEntry(dir, mf.Path)
		if err != nil {
			return nil, err
		}

		b.Files[i] = File{
			Name:             mf.Name,
			ID:               mf.ID,
			Flags:            byte(mf.Flags),
			UncompressedSize: mf.UncompressedSize,
			Data:             data,
		}
	}

	out := &Repacked{Manifest: m}
	if kind.Split() {
		out.Data, out.SplitData, err = b.WriteSplit()
	} else {
		out.Data, err = b.Write()
	}
	if err != nil {
		return nil, err
	}

	return out, nil
}
