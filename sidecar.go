// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package yabber

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/ffx"
	"github.com/woozymasta/yabber/fmg"
	"github.com/woozymasta/yabber/gparam"
	"github.com/woozymasta/yabber/internal/fsutil"
	"github.com/woozymasta/yabber/lua"
)

// sidecarExt is appended to single-file formats on unpack.
const sidecarExt = ".xml"

// unpackSidecar writes <path>.xml describing a single-file format.
func (opts *Options) unpackSidecar(path string, det *Detection) (*Result, error) {
	name := filepath.Base(path)
	opts.Logger.Infof("Unpacking %s: %s...", det.Variant, name)

	doc, err := encodeSidecar(det)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", name, err)
	}

	out := path + sidecarExt
	if err := fsutil.WriteFile(out, doc); err != nil {
		return nil, err
	}

	return &Result{Variant: det.Variant, Action: ActionUnpack, Output: out, Compression: det.Compression}, nil
}

// encodeSidecar parses the payload and renders its XML form.
func encodeSidecar(det *Detection) ([]byte, error) {
	switch det.Variant {
	case VariantFMG:
		f, err := fmg.Read(det.Payload)
		if err != nil {
			return nil, err
		}
		return fmg.EncodeXML(f, det.Compression)
	case VariantGPARAM:
		g, err := gparam.Read(det.Payload)
		if err != nil {
			return nil, err
		}
		return gparam.EncodeXML(g, det.Compression)
	case VariantFFX:
		f, err := ffx.Read(det.Payload)
		if err != nil {
			return nil, err
		}
		return ffx.EncodeXML(f, det.Compression)
	case VariantLUAGNL:
		g, err := lua.ReadGNL(det.Payload)
		if err != nil {
			return nil, err
		}
		return lua.EncodeGNLXML(g)
	case VariantLUAINFO:
		in, err := lua.ReadInfo(det.Payload)
		if err != nil {
			return nil, err
		}
		return lua.EncodeInfoXML(in)
	default:
		return nil, &ContractViolationError{Op: "unpack sidecar", Subject: string(det.Variant), Detail: "variant has no sidecar form"}
	}
}

// repackSidecar rebuilds the binary file named by path without ".xml".
func (opts *Options) repackSidecar(path string, det *Detection) (*Result, error) {
	name := filepath.Base(path)
	opts.Logger.Infof("Repacking %s: %s...", det.Variant, name)

	raw, typ, err := decodeSidecar(det)
	if err != nil {
		return nil, fmt.Errorf("repack %s: %w", name, err)
	}

	data, err := opts.compress(raw, typ, path)
	if err != nil {
		return nil, fmt.Errorf("compress %s: %w", name, err)
	}

	out := strings.TrimSuffix(path, filepath.Ext(path))
	if err := fsutil.WriteOutput(out, data, opts.Backup); err != nil {
		return nil, err
	}

	return &Result{Variant: det.Variant, Action: ActionRepack, Output: out, Compression: typ}, nil
}

// decodeSidecar parses an XML sidecar and serializes the binary form.
func decodeSidecar(det *Detection) ([]byte, dcx.Type, error) {
	switch det.Variant {
	case VariantFMG:
		f, typ, err := fmg.DecodeXML(det.Payload)
		if err != nil {
			return nil, "", err
		}
		out, err := f.Write()
		return out, typ, err
	case VariantGPARAM:
		g, typ, err := gparam.DecodeXML(det.Payload)
		if err != nil {
			return nil, "", err
		}
		out, err := g.Write()
		return out, typ, err
	case VariantFFX:
		f, typ, err := ffx.DecodeXML(det.Payload)
		if err != nil {
			return nil, "", err
		}
		out, err := f.Write()
		return out, typ, err
	case VariantLUAGNL:
		g, err := lua.DecodeGNLXML(det.Payload)
		if err != nil {
			return nil, "", err
		}
		out, err := g.Write()
		return out, dcx.TypeNone, err
	case VariantLUAINFO:
		in, err := lua.DecodeInfoXML(det.Payload)
		if err != nil {
			return nil, "", err
		}
		out, err := in.Write()
		return out, dcx.TypeNone, err
	default:
		return nil, "", &ContractViolationError{Op: "repack sidecar", Subject: string(det.Variant), Detail: "variant has no sidecar form"}
	}
}
