// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package yabber

import (
	"io"

	"github.com/charmbracelet/log"
	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/regulation"
)

// Variant names a container family handled by the dispatcher.
type Variant string

// Supported container variants.
const (
	VariantBND3    Variant = "BND3"
	VariantBND4    Variant = "BND4"
	VariantBXF3    Variant = "BXF3"
	VariantBXF4    Variant = "BXF4"
	VariantTPF     Variant = "TPF"
	VariantFFX     Variant = "FFX"
	VariantFMG     Variant = "FMG"
	VariantGPARAM  Variant = "GPARAM"
	VariantLUAGNL  Variant = "LUAGNL"
	VariantLUAINFO Variant = "LUAINFO"
	VariantZero3   Variant = "000"
)

// Action is what Process did with one path.
type Action string

// Process actions.
const (
	// ActionUnpack extracted a container into a directory or sidecar.
	ActionUnpack Action = "unpack"
	// ActionRepack rebuilt a container from a directory or sidecar.
	ActionRepack Action = "repack"
)

// Progress is one completed entry of an unpack.
type Progress struct {
	// Variant is the container being unpacked.
	Variant Variant `json:"variant" yaml:"variant"`
	// Entry is the written relative path.
	Entry string `json:"entry" yaml:"entry"`
	// Done is the number of entries written so far.
	Done int `json:"done" yaml:"done"`
	// Total is the entry count of the container.
	Total int `json:"total" yaml:"total"`
}

// Fraction returns completion in the range [0, 1].
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 1
	}

	return float64(p.Done) / float64(p.Total)
}

// Result describes one processed path.
type Result struct {
	// Variant is the detected container variant.
	Variant Variant `json:"variant" yaml:"variant"`
	// Action is unpack or repack.
	Action Action `json:"action" yaml:"action"`
	// Output is the written directory, sidecar, or container file.
	Output string `json:"output" yaml:"output"`
	// Compression is the envelope method read or written.
	Compression dcx.Type `json:"compression,omitempty" yaml:"compression,omitempty"`
	// Regulation is set when a regulation convention handled the path.
	Regulation regulation.Title `json:"regulation,omitempty" yaml:"regulation,omitempty"`
}

// Options configures Unpack, Repack, and Process.
type Options struct {
	// Logger receives progress messages; nil discards them.
	Logger *log.Logger `json:"-" yaml:"-"`
	// OnProgress is called synchronously after each unpacked entry; may be nil.
	OnProgress func(Progress) `json:"-" yaml:"-"`
	// Confirm asks the user before an unsafe action; nil declines.
	Confirm func(message string) (bool, error) `json:"-" yaml:"-"`
	// OodleLibrary overrides the native decompression library file name.
	OodleLibrary string `json:"oodle_library,omitempty" yaml:"oodle_library,omitempty"`
	// OodleDirs are searched first for the native library.
	OodleDirs []string `json:"oodle_dirs,omitempty" yaml:"oodle_dirs,omitempty"`
	// OodleFallbackDirs are searched once more after the first attempt fails.
	// The source file directory is always added to this list.
	OodleFallbackDirs []string `json:"oodle_fallback_dirs,omitempty" yaml:"oodle_fallback_dirs,omitempty"`
	// Backup preserves the first overwritten output as <output>.bak.
	Backup bool `json:"backup,omitempty" yaml:"backup,omitempty"`
}

// applyDefaults fills nil hooks with no-op implementations.
func (opts *Options) applyDefaults() {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	if opts.Confirm == nil {
		opts.Confirm = func(string) (bool, error) { return false, nil }
	}
}

// entryProgress adapts OnProgress to codec entry callbacks.
func (opts *Options) entryProgress(variant Variant) func(done int, total int, relPath string) {
	if opts.OnProgress == nil {
		return nil
	}

	return func(done int, total int, relPath string) {
		opts.OnProgress(Progress{Variant: variant, Entry: relPath, Done: done, Total: total})
	}
}
