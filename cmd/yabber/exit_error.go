// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package main

import (
	"fmt"

	"github.com/woozymasta/yabber"
)

// Process exit codes.
const (
	exitOK                   = 0
	exitUnexpected           = 1
	exitNotFound             = 2
	exitNativeLibraryMissing = 3
	exitExpected             = 4
)

// ExitError signals a non-zero exit code without forcing os.Exit in RunE handlers.
type ExitError struct {
	Code int
	Err  error
}

// Error returns the error message for ExitError.
func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Unwrap returns the underlying error, if any.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// exitCode maps a failure class to the process exit code.
func exitCode(kind yabber.ErrorKind) int {
	switch {
	case kind == yabber.KindNotFound:
		return exitNotFound
	case kind == yabber.KindNativeLibraryMissing:
		return exitNativeLibraryMissing
	case kind.Expected():
		return exitExpected
	default:
		return exitUnexpected
	}
}
