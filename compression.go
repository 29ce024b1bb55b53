// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package yabber

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/oodle"
)

// decompress opens a DCX envelope. A missing native library is retried once
// with the fallback directories and the directory of sourcePath.
func (opts *Options) decompress(data []byte, sourcePath string) ([]byte, dcx.Type, error) {
	payload, typ, err := dcx.Decompress(data, opts.dcxOptions())
	if !isLibraryMissing(err) {
		return payload, typ, err
	}

	opts.Logger.Warn("oodle runtime not found, retrying with game directories",
		"file", filepath.Base(sourcePath), "library", libraryName(err))
	payload, typ, err = dcx.Decompress(data, opts.fallbackOptions(sourcePath))
	if isLibraryMissing(err) {
		return nil, "", fmt.Errorf("%w: %w", ErrNativeLibraryMissing, err)
	}

	return payload, typ, err
}

// compress wraps payload in a DCX envelope of typ with the same retry as decompress.
func (opts *Options) compress(payload []byte, typ dcx.Type, sourcePath string) ([]byte, error) {
	if typ == dcx.TypeNone {
		return payload, nil
	}

	out, err := dcx.Compress(payload, typ, opts.dcxOptions())
	if !isLibraryMissing(err) {
		return out, err
	}

	opts.Logger.Warn("oodle runtime not found, retrying with game directories",
		"file", filepath.Base(sourcePath), "library", libraryName(err))
	out, err = dcx.Compress(payload, typ, opts.fallbackOptions(sourcePath))
	if isLibraryMissing(err) {
		return nil, fmt.Errorf("%w: %w", ErrNativeLibraryMissing, err)
	}

	return out, err
}

// dcxOptions returns the first-attempt library search options.
func (opts *Options) dcxOptions() dcx.Options {
	return dcx.Options{OodleLibrary: opts.OodleLibrary, OodleDirs: opts.OodleDirs}
}

// fallbackOptions returns the second-attempt search options for sourcePath.
func (opts *Options) fallbackOptions(sourcePath string) dcx.Options {
	dirs := make([]string, 0, len(opts.OodleFallbackDirs)+1)
	dirs = append(dirs, filepath.Dir(sourcePath))
	for _, dir := range opts.OodleFallbackDirs {
		if dir != "" && !slices.Contains(dirs, dir) {
			dirs = append(dirs, dir)
		}
	}

	return dcx.Options{OodleLibrary: opts.OodleLibrary, OodleDirs: dirs}
}

// isLibraryMissing reports whether err is the typed missing-library result.
func isLibraryMissing(err error) bool {
	var missing *oodle.MissingLibraryError
	return errors.As(err, &missing)
}

// libraryName returns the library file name from a missing-library error.
func libraryName(err error) string {
	var missing *oodle.MissingLibraryError
	if errors.As(err, &missing) {
		return missing.Name
	}

	return ""
}
