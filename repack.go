// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package yabber

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/yabber/binder"
	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/internal/entrypath"
	"github.com/woozymasta/yabber/internal/fsutil"
	"github.com/woozymasta/yabber/tpf"
	"github.com/woozymasta/yabber/zero3"
)

// manifestProbe is one manifest file name checked by Repack, in priority order.
type manifestProbe struct {
	name    string
	variant Variant
}

// manifestProbes lists manifests in the order Repack checks them.
var manifestProbes = []manifestProbe{
	{name: binder.ManifestName(binder.KindBND3), variant: VariantBND3},
	{name: binder.ManifestName(binder.KindBND4), variant: VariantBND4},
	{name: binder.ManifestName(binder.KindBXF3), variant: VariantBXF3},
	{name: binder.ManifestName(binder.KindBXF4), variant: VariantBXF4},
	{name: tpf.ManifestName, variant: VariantTPF},
	{name: zero3.ManifestName, variant: VariantZero3},
}

// binderKinds maps binder variants to container kinds.
var binderKinds = map[Variant]binder.Kind{
	VariantBND3: binder.KindBND3,
	VariantBND4: binder.KindBND4,
	VariantBXF3: binder.KindBXF3,
	VariantBXF4: binder.KindBXF4,
}

// Repack rebuilds the container described by the manifest in dir and
// writes it into the parent directory.
func Repack(ctx context.Context, dir string, opts Options) (*Result, error) {
	opts.applyDefaults()

	info, err := os.Stat(dir)
	if err != nil {
		return nil, statError(dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrManifestNotFound, dir)
	}

	return opts.repack(ctx, dir)
}

// repack routes regulation directories, then probes manifests.
func (opts *Options) repack(ctx context.Context, dir string) (*Result, error) {
	dir = filepath.Clean(dir)
	name := filepath.Base(dir)

	if regulationDirRoute.Match(name) {
		return opts.repackRegulation(ctx, dir)
	}

	variant, ok := probeManifest(dir)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, name)
	}

	opts.Logger.Infof("Repacking %s: %s...", variant, name)
	res, err := opts.repackContainer(ctx, dir, variant)
	if err != nil {
		return nil, fmt.Errorf("repack %s: %w", name, err)
	}

	return res, nil
}

// probeManifest returns the variant of the first manifest present in dir.
func probeManifest(dir string) (Variant, bool) {
	for _, p := range manifestProbes {
		if fsutil.IsFile(filepath.Join(dir, p.name)) {
			return p.variant, true
		}
	}

	return "", false
}

// repackContainer rebuilds one directory-backed variant.
func (opts *Options) repackContainer(ctx context.Context, dir string, variant Variant) (*Result, error) {
	if kind, ok := binderKinds[variant]; ok {
		rep, err := binder.Repack(ctx, dir, kind)
		if err != nil {
			return nil, err
		}

		typ := rep.Manifest.CompressionType()
		outputs := make([]fsutil.Output, 0, 2)
		header, err := opts.prepareOutput(dir, rep.Manifest.Filename, rep.Data, typ)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, header)
		if kind.Split() {
			data, err := opts.prepareOutput(dir, rep.Manifest.DataFilename, rep.SplitData, dcx.TypeNone)
			if err != nil {
				return nil, err
			}
			outputs = append(outputs, data)
		}

		if err := fsutil.WriteOutputs(outputs, opts.Backup); err != nil {
			return nil, err
		}

		return &Result{Variant: variant, Action: ActionRepack, Output: header.Path, Compression: typ}, nil
	}

	var (
		filename    string
		compression string
		data        []byte
	)
	switch variant {
	case VariantTPF:
		m, out, err := tpf.Repack(ctx, dir)
		if err != nil {
			return nil, err
		}
		filename, compression, data = m.Filename, m.Compression, out
	case VariantZero3:
		m, out, err := zero3.Repack(ctx, dir)
		if err != nil {
			return nil, err
		}
		filename, compression, data = m.Filename, m.Compression, out
	default:
		return nil, &ContractViolationError{Op: "repack", Subject: filepath.Base(dir), Detail: "no repack routine for " + string(variant)}
	}

	typ, err := dcx.ParseType(compression)
	if err != nil {
		return nil, err
	}

	out, err := opts.writeContainer(dir, filename, data, typ)
	if err != nil {
		return nil, err
	}

	return &Result{Variant: variant, Action: ActionRepack, Output: out, Compression: typ}, nil
}

// writeContainer compresses data with typ and writes it next to dir.
func (opts *Options) writeContainer(dir string, filename string, data []byte, typ dcx.Type) (string, error) {
	out, err := opts.prepareOutput(dir, filename, data, typ)
	if err != nil {
		return "", err
	}

	if err := fsutil.WriteOutput(out.Path, out.Data, opts.Backup); err != nil {
		return "", err
	}

	return out.Path, nil
}

// prepareOutput resolves the output path of filename and compresses data
// with typ without touching the file system.
func (opts *Options) prepareOutput(dir string, filename string, data []byte, typ dcx.Type) (fsutil.Output, error) {
	out, err := outputPath(dir, filename)
	if err != nil {
		return fsutil.Output{}, err
	}

	data, err = opts.compress(data, typ, out)
	if err != nil {
		return fsutil.Output{}, fmt.Errorf("compress %s: %w", filename, err)
	}

	return fsutil.Output{Path: out, Data: data}, nil
}

// outputPath resolves a manifest file name in the parent of dir.
// Only plain base names are accepted.
func outputPath(dir string, filename string) (string, error) {
	if filename == "" || filename == "." || filename == ".." || strings.ContainsAny(filename, `/\`) {
		return "", fmt.Errorf("%w: output name %q", entrypath.ErrInvalidPath, filename)
	}

	return filepath.Join(filepath.Dir(dir), filename), nil
}
