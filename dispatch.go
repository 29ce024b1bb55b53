// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package yabber

import (
	"fmt"
	"path/filepath"

	"github.com/woozymasta/yabber/binder"
	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/ffx"
	"github.com/woozymasta/yabber/gparam"
	"github.com/woozymasta/yabber/internal/fsutil"
	"github.com/woozymasta/yabber/lua"
	"github.com/woozymasta/yabber/tpf"
	"github.com/woozymasta/yabber/zero3"
)

// stage is the decoding stage a dispatcher row applies to.
type stage uint8

// Dispatcher stages.
const (
	stageRaw stage = 1 << iota
	stageDecompressed
	stageAny = stageRaw | stageDecompressed
)

// rowKind separates content predicates from file name predicates.
type rowKind uint8

// Dispatcher row kinds.
const (
	rowMagic rowKind = iota + 1
	rowSuffix
)

// detectRow is one ordered dispatcher predicate.
type detectRow struct {
	magic   func(data []byte) bool
	suffix  *nameMatcher
	variant Variant
	kind    rowKind
	stages  stage
	// sidecar marks rows whose input is an XML sidecar to repack.
	sidecar bool
}

// match reports whether the row accepts name and data at st.
func (r *detectRow) match(name string, data []byte, st stage) bool {
	if r.stages&st == 0 {
		return false
	}

	switch r.kind {
	case rowMagic:
		return r.magic(data)
	case rowSuffix:
		return r.suffix.Match(name)
	default:
		return false
	}
}

// detectTable is evaluated top to bottom; the first matching row wins.
var detectTable = []detectRow{
	{kind: rowMagic, stages: stageAny, variant: VariantBND3, magic: binder.IsBND3},
	{kind: rowMagic, stages: stageAny, variant: VariantBND4, magic: binder.IsBND4},
	{kind: rowMagic, stages: stageRaw, variant: VariantBXF3, magic: binder.IsBHF3},
	{kind: rowMagic, stages: stageRaw, variant: VariantBXF4, magic: binder.IsBHF4},
	{kind: rowMagic, stages: stageAny, variant: VariantFFX, magic: ffx.Is},
	{kind: rowSuffix, stages: stageRaw, variant: VariantFFX, sidecar: true, suffix: nameRule("*.ffx.xml", "*.ffx.dcx.xml")},
	{kind: rowSuffix, stages: stageRaw, variant: VariantFMG, suffix: nameRule("*.fmg")},
	{kind: rowSuffix, stages: stageDecompressed, variant: VariantFMG, suffix: nameRule("*.fmg.dcx")},
	{kind: rowSuffix, stages: stageRaw, variant: VariantFMG, sidecar: true, suffix: nameRule("*.fmg.xml", "*.fmg.dcx.xml")},
	{
		kind: rowSuffix, stages: stageRaw, variant: VariantGPARAM, sidecar: true,
		suffix: nameRule("*.gparam.xml", "*.gparam.dcx.xml", "*.fltparam.xml", "*.fltparam.dcx.xml"),
	},
	{kind: rowSuffix, stages: stageRaw, variant: VariantLUAGNL, suffix: nameRule("*.luagnl")},
	{kind: rowSuffix, stages: stageRaw, variant: VariantLUAGNL, sidecar: true, suffix: nameRule("*.luagnl.xml")},
	{kind: rowSuffix, stages: stageRaw, variant: VariantLUAINFO, sidecar: true, suffix: nameRule("*.luainfo.xml")},
	{kind: rowMagic, stages: stageAny, variant: VariantGPARAM, magic: gparam.Is},
	{kind: rowMagic, stages: stageRaw, variant: VariantLUAINFO, magic: lua.IsInfo},
	{kind: rowMagic, stages: stageAny, variant: VariantTPF, magic: tpf.Is},
	{kind: rowMagic, stages: stageRaw, variant: VariantZero3, magic: zero3.Is},
}

// Detection is the dispatcher verdict for one input file.
type Detection struct {
	// Variant is the matched container variant.
	Variant Variant `json:"variant" yaml:"variant"`
	// Compression is the DCX method when the input was an envelope.
	Compression dcx.Type `json:"compression,omitempty" yaml:"compression,omitempty"`
	// Companion is the data file of a split header.
	Companion string `json:"companion,omitempty" yaml:"companion,omitempty"`
	// Payload is the input after envelope removal.
	Payload []byte `json:"-" yaml:"-"`
	// Sidecar marks an XML sidecar that repacks into a binary file.
	Sidecar bool `json:"sidecar,omitempty" yaml:"sidecar,omitempty"`
}

// Detect runs the dispatcher over the contents of path.
func Detect(path string, data []byte, opts Options) (*Detection, error) {
	opts.applyDefaults()
	return opts.detect(path, data)
}

// detect removes a DCX envelope, then folds the table over the payload.
func (opts *Options) detect(path string, data []byte) (*Detection, error) {
	name := filepath.Base(path)
	st := stageRaw
	det := &Detection{Payload: data}

	if dcx.Is(data) {
		opts.Logger.Infof("Decompressing DCX: %s...", name)
		payload, typ, err := opts.decompress(data, path)
		if err != nil {
			return nil, fmt.Errorf("decompress %s: %w", name, err)
		}
		det.Payload, det.Compression = payload, typ
		st = stageDecompressed
	}

	row := firstMatch(name, det.Payload, st)
	if row == nil {
		return nil, fmt.Errorf("%w: %s", ErrFormatNotRecognized, name)
	}
	det.Variant = row.variant
	det.Sidecar = row.sidecar

	if det.Variant == VariantBXF3 || det.Variant == VariantBXF4 {
		det.Companion = binder.DataPathFor(path)
		if !fsutil.IsFile(det.Companion) {
			return nil, &MissingCompanionError{Header: name, Companion: filepath.Base(det.Companion)}
		}
	}

	return det, nil
}

// firstMatch returns the first row accepting the input, or nil.
func firstMatch(name string, data []byte, st stage) *detectRow {
	for i := range detectTable {
		if detectTable[i].match(name, data, st) {
			return &detectTable[i]
		}
	}

	return nil
}
