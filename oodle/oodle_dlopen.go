// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

//go:build darwin || freebsd || linux || netbsd

package oodle

import (
	"runtime"

	"github.com/ebitengine/purego"
)

var defaultLibraryName = func() string {
	if runtime.GOOS == "darwin" {
		return "liboo2coremac64.2.9.dylib"
	}

	return "liboo2corelinux64.so.9"
}()

// loadLibrary opens a shared object with immediate symbol binding.
func loadLibrary(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

// lookupSymbol resolves an exported symbol address.
func lookupSymbol(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}

// freeLibrary closes a shared object handle.
func freeLibrary(handle uintptr) error {
	return purego.Dlclose(handle)
}
