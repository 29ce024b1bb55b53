// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package binder

import "errors"

// Sentinel errors for binder operations. Use errors.Is in callers.
var (
	// ErrInvalidHeader means the container magic or header fields are malformed.
	ErrInvalidHeader = errors.New("invalid binder header")
	// ErrInvalidEntry means an entry header points outside the container.
	ErrInvalidEntry = errors.New("invalid binder entry")
	// ErrClosed means the reader is already closed.
	ErrClosed = errors.New("binder reader already closed")
	// ErrKindMismatch means the operation does not apply to the container variant.
	ErrKindMismatch = errors.New("binder kind mismatch")
	// ErrInvalidManifest means the manifest is incomplete or inconsistent.
	ErrInvalidManifest = errors.New("invalid binder manifest")
)
