// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package yabber

import (
	"encoding/xml"
	"errors"
	"fmt"

	"github.com/woozymasta/yabber/binder"
	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/ffx"
	"github.com/woozymasta/yabber/fmg"
	"github.com/woozymasta/yabber/gparam"
	"github.com/woozymasta/yabber/internal/binio"
	"github.com/woozymasta/yabber/internal/entrypath"
	"github.com/woozymasta/yabber/internal/fsutil"
	"github.com/woozymasta/yabber/lua"
	"github.com/woozymasta/yabber/oodle"
	"github.com/woozymasta/yabber/regulation"
	"github.com/woozymasta/yabber/tpf"
	"github.com/woozymasta/yabber/zero3"
)

// Sentinel errors for unpack and repack. Use errors.Is in callers.
var (
	// ErrNotFound means the input path does not exist.
	ErrNotFound = errors.New("path not found")
	// ErrMissingCompanion means a split header has no data file next to it.
	ErrMissingCompanion = errors.New("companion data file not found")
	// ErrFormatNotRecognized means no dispatcher row matched the input.
	ErrFormatNotRecognized = errors.New("file format not recognized")
	// ErrManifestNotFound means a directory has no known manifest.
	ErrManifestNotFound = errors.New("no manifest found")
	// ErrNativeLibraryMissing means the Oodle runtime was not found in any search directory.
	ErrNativeLibraryMissing = fmt.Errorf("native decompression library missing: %w", oodle.ErrLibraryMissing)
	// ErrUserDeclined means the user rejected an unsafe action.
	ErrUserDeclined = errors.New("declined by user")
	// ErrInternalContract means an internal routing invariant was broken.
	ErrInternalContract = errors.New("internal contract violated")
)

// MissingCompanionError names the header and the data file it expects.
type MissingCompanionError struct {
	Header    string
	Companion string
}

// Error implements error.
func (e *MissingCompanionError) Error() string {
	return fmt.Sprintf("%s: %s requires %s", ErrMissingCompanion, e.Header, e.Companion)
}

// Unwrap returns ErrMissingCompanion.
func (e *MissingCompanionError) Unwrap() error {
	return ErrMissingCompanion
}

// ContractViolationError reports a state that routing should have excluded.
type ContractViolationError struct {
	// Op is the operation that hit the state.
	Op string
	// Subject is the file or directory name involved.
	Subject string
	// Detail describes the broken invariant.
	Detail string
}

// Error implements error.
func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("%s: %s %s: %s", ErrInternalContract, e.Op, e.Subject, e.Detail)
}

// Unwrap returns ErrInternalContract.
func (e *ContractViolationError) Unwrap() error {
	return ErrInternalContract
}

// ErrorKind is the failure class of one processed path.
type ErrorKind uint8

// Failure classes, from the most to the least specific.
const (
	// KindUnexpected is any error without a known class.
	KindUnexpected ErrorKind = iota
	// KindNotFound is ErrNotFound.
	KindNotFound
	// KindMissingCompanion is ErrMissingCompanion.
	KindMissingCompanion
	// KindFormatNotRecognized is ErrFormatNotRecognized.
	KindFormatNotRecognized
	// KindManifestNotFound is ErrManifestNotFound.
	KindManifestNotFound
	// KindNativeLibraryMissing is ErrNativeLibraryMissing.
	KindNativeLibraryMissing
	// KindUserDeclined is ErrUserDeclined.
	KindUserDeclined
	// KindCodec is malformed container data or manifests.
	KindCodec
	// KindInternalContract is ErrInternalContract.
	KindInternalContract
)

// String returns a short class name.
func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindMissingCompanion:
		return "missing companion"
	case KindFormatNotRecognized:
		return "format not recognized"
	case KindManifestNotFound:
		return "manifest not found"
	case KindNativeLibraryMissing:
		return "native library missing"
	case KindUserDeclined:
		return "user declined"
	case KindCodec:
		return "codec"
	case KindInternalContract:
		return "internal contract"
	default:
		return "unexpected"
	}
}

// Expected reports whether the class is a user-facing failure that needs no stack of causes.
func (k ErrorKind) Expected() bool {
	return k != KindUnexpected && k != KindInternalContract
}

// codecErrors are sentinels of malformed input data and manifests.
var codecErrors = []error{
	binder.ErrInvalidHeader, binder.ErrInvalidEntry, binder.ErrKindMismatch, binder.ErrInvalidManifest,
	dcx.ErrInvalidHeader, dcx.ErrUnsupportedType, dcx.ErrSizeMismatch,
	oodle.ErrCodec,
	tpf.ErrInvalidHeader, tpf.ErrInvalidManifest,
	fmg.ErrInvalidHeader, fmg.ErrDuplicateID,
	gparam.ErrInvalidHeader, gparam.ErrUnknownType, gparam.ErrInvalidValue,
	ffx.ErrInvalidHeader,
	lua.ErrInvalidGNL, lua.ErrInvalidInfo,
	zero3.ErrInvalidHeader, zero3.ErrInvalidEntry, zero3.ErrNameTooLong, zero3.ErrInvalidManifest,
	regulation.ErrCiphertext, regulation.ErrInvalidIV, regulation.ErrEncryptUnsupported, regulation.ErrUnknownTitle,
	binio.ErrTruncated, binio.ErrUnterminated,
	entrypath.ErrInvalidPath, entrypath.ErrOutsideRoot,
	fsutil.ErrOutputIsDir,
}

// Classify maps err to its failure class.
func Classify(err error) ErrorKind {
	switch {
	case err == nil:
		return KindUnexpected
	case errors.Is(err, ErrInternalContract):
		return KindInternalContract
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrMissingCompanion):
		return KindMissingCompanion
	case errors.Is(err, ErrFormatNotRecognized):
		return KindFormatNotRecognized
	case errors.Is(err, ErrManifestNotFound):
		return KindManifestNotFound
	case errors.Is(err, ErrNativeLibraryMissing), errors.Is(err, oodle.ErrLibraryMissing):
		return KindNativeLibraryMissing
	case errors.Is(err, ErrUserDeclined):
		return KindUserDeclined
	}

	for _, sentinel := range codecErrors {
		if errors.Is(err, sentinel) {
			return KindCodec
		}
	}

	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return KindCodec
	}

	return KindUnexpected
}
