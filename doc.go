// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

/*
Package yabber unpacks game archive containers into directory trees with an
XML manifest, and repacks such directories into byte-compatible containers.

Supported variants: BND3, BND4, split BXF3/BXF4 (header plus data file),
TPF texture packages, the legacy "000" archive, and the single-file formats
FMG, GPARAM, FFX, LUAGNL and LUAINFO, which unpack into a sidecar XML file.
Any of them may be wrapped in a DCX compression envelope; the method is
recorded and reused on repack.

Dispatch rules (summary):
  - DCX envelopes are opened first and the payload is dispatched again;
  - magic rows and file name rows are evaluated in one fixed order;
  - split headers require their data file next to them;
  - regulation names are routed to the per-title decrypt/encrypt flow.

# Unpacking

	res, err := yabber.Unpack(ctx, "c0000.anibnd.dcx", yabber.Options{
	    Logger: logger,
	    OnProgress: func(p yabber.Progress) {
	        // one call per written entry
	    },
	})
	if err != nil {
	    return err
	}
	_ = res.Output // c0000-anibnd-dcx

# Repacking

	res, err := yabber.Repack(ctx, "c0000-anibnd-dcx", yabber.Options{
	    Backup: true,
	})
	if err != nil {
	    return err
	}
	_ = res.Output // c0000.anibnd.dcx, first original kept as .bak

Process picks the action from the path type:

	res, err := yabber.Process(ctx, path, opts)

# Errors

Failures are classified for reporting:

	switch yabber.Classify(err) {
	case yabber.KindNotFound:
	case yabber.KindNativeLibraryMissing:
	}

A missing Oodle runtime is retried once with Options.OodleFallbackDirs and
the directory of the input file before ErrNativeLibraryMissing is returned.
*/
package yabber
