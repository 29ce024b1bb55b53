// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

/*
Package oodle loads the Oodle runtime on demand and exposes Kraken
compression for DCX_KRAK containers.

The runtime is proprietary and ships with the games, so it is never bundled.
Callers open a Library for one operation and close it right after:

	lib, err := oodle.Open("", dirs)
	if err != nil {
	    return err
	}
	defer func() { _ = lib.Close() }()
	raw, err := lib.Decompress(compressed, rawLen)

A missing runtime yields *MissingLibraryError; callers may retry Open once with
a different set of directories.
*/
package oodle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Kraken compression parameters used for DCX_KRAK payloads.
const (
	compressorKraken = 8
	levelOptimal2    = 6
)

var (
	// ErrLibraryMissing means the Oodle runtime library was not found in any searched location.
	ErrLibraryMissing = errors.New("oodle library not found")
	// ErrClosed means the library handle was already released.
	ErrClosed = errors.New("oodle library already closed")
	// ErrCodec means the runtime reported a compression or decompression failure.
	ErrCodec = errors.New("oodle codec failure")
)

// MissingLibraryError reports the library name and the directories searched for it.
type MissingLibraryError struct {
	// Name is the library file name that was looked up.
	Name string
	// Searched lists directories probed in order.
	Searched []string
}

// Error implements error.
func (e *MissingLibraryError) Error() string {
	if len(e.Searched) == 0 {
		return fmt.Sprintf("%s: %s (no search directories)", ErrLibraryMissing, e.Name)
	}

	return fmt.Sprintf("%s: %s (searched %s)", ErrLibraryMissing, e.Name, strings.Join(e.Searched, ", "))
}

// Unwrap returns ErrLibraryMissing so callers can use errors.Is.
func (e *MissingLibraryError) Unwrap() error {
	return ErrLibraryMissing
}

// DefaultLibraryName returns the platform runtime file name.
func DefaultLibraryName() string {
	return defaultLibraryName
}

// Locate returns the first existing path of name within dirs.
func Locate(name string, dirs []string) (string, error) {
	if name == "" {
		name = defaultLibraryName
	}

	searched := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if dir == "" {
			continue
		}

		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}

		searched = append(searched, dir)
	}

	return "", &MissingLibraryError{Name: name, Searched: searched}
}

// Library is one loaded Oodle runtime handle.
type Library struct {
	decompress func(
		comp *byte, compLen int64, raw *byte, rawLen int64,
		fuzzSafe, checkCRC, verbosity int32,
		decBufBase uintptr, decBufSize int64,
		callback, callbackData, decoderMemory uintptr, decoderMemorySize int64,
		threadPhase int32,
	) int64
	compress func(
		compressor int32, raw *byte, rawLen int64, comp *byte, level int32,
		options, dictionary, lrm, scratch uintptr, scratchSize int64,
	) int64
	handle uintptr
	mu     sync.Mutex
	closed bool
}

// Open locates and loads the runtime. An empty name selects the platform default.
func Open(name string, dirs []string) (*Library, error) {
	path, err := Locate(name, dirs)
	if err != nil {
		return nil, err
	}

	handle, err := loadLibrary(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}

	lib := &Library{handle: handle}
	if err := lib.bind(); err != nil {
		_ = freeLibrary(handle)
		return nil, err
	}

	return lib, nil
}

// bind resolves exported runtime functions.
func (l *Library) bind() error {
	decompressSym, err := lookupSymbol(l.handle, "OodleLZ_Decompress")
	if err != nil {
		return fmt.Errorf("resolve OodleLZ_Decompress: %w", err)
	}
	compressSym, err := lookupSymbol(l.handle, "OodleLZ_Compress")
	if err != nil {
		return fmt.Errorf("resolve OodleLZ_Compress: %w", err)
	}

	purego.RegisterFunc(&l.decompress, decompressSym)
	purego.RegisterFunc(&l.compress, compressSym)
	return nil
}

// Close releases the runtime handle. Repeated calls are no-ops.
func (l *Library) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	return freeLibrary(l.handle)
}

// Decompress decodes a Kraken stream of known decompressed size.
func (l *Library) Decompress(src []byte, rawLen int) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrClosed
	}
	if len(src) == 0 || rawLen <= 0 {
		return nil, fmt.Errorf("%w: empty input", ErrCodec)
	}

	out := make([]byte, rawLen)
	n := l.decompress(
		unsafe.SliceData(src), int64(len(src)), unsafe.SliceData(out), int64(rawLen),
		1, 0, 0,
		0, 0,
		0, 0, 0, 0,
		3,
	)
	if n != int64(rawLen) {
		return nil, fmt.Errorf("%w: decompressed %d of %d bytes", ErrCodec, n, rawLen)
	}

	return out, nil
}

// Compress encodes src with the Kraken compressor.
func (l *Library) Compress(src []byte) ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrClosed
	}
	if len(src) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrCodec)
	}

	out := make([]byte, compressBound(len(src)))
	n := l.compress(
		compressorKraken, unsafe.SliceData(src), int64(len(src)), unsafe.SliceData(out), levelOptimal2,
		0, 0, 0, 0, 0,
	)
	if n <= 0 || n > int64(len(out)) {
		return nil, fmt.Errorf("%w: compress returned %d", ErrCodec, n)
	}

	return out[:n], nil
}

// compressBound returns a safe output buffer size for Kraken.
func compressBound(n int) int {
	return n + 274*((n+0x3FFFF)/0x40000)
}
