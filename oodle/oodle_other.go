// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

//go:build !(darwin || freebsd || linux || netbsd || windows)

package oodle

import "errors"

const defaultLibraryName = "liboo2core.so"

// errUnsupportedPlatform means dynamic loading is not available on this platform.
var errUnsupportedPlatform = errors.New("dynamic library loading is not supported on this platform")

func loadLibrary(string) (uintptr, error) { return 0, errUnsupportedPlatform }

func lookupSymbol(uintptr, string) (uintptr, error) { return 0, errUnsupportedPlatform }

func freeLibrary(uintptr) error { return nil }
