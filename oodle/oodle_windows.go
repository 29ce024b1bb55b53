// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

//go:build windows

package oodle

import "syscall"

const defaultLibraryName = "oo2core_6_win64.dll"

// loadLibrary loads a DLL by absolute path.
func loadLibrary(path string) (uintptr, error) {
	handle, err := syscall.LoadLibrary(path)
	return uintptr(handle), err
}

// lookupSymbol resolves an exported procedure address.
func lookupSymbol(handle uintptr, name string) (uintptr, error) {
	return syscall.GetProcAddress(syscall.Handle(handle), name)
}

// freeLibrary releases a DLL handle.
func freeLibrary(handle uintptr) error {
	return syscall.FreeLibrary(syscall.Handle(handle))
}
