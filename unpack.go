// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package yabber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/yabber/binder"
	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/internal/fsutil"
	"github.com/woozymasta/yabber/tpf"
	"github.com/woozymasta/yabber/zero3"
)

const (
	// unpackDirSuffix is appended when a regular file occupies the target name.
	unpackDirSuffix = "-ybr"
	// binderMagicSize is the length of the BND3/BND4 signature.
	binderMagicSize = 4
)

// Process unpacks a file or repacks a directory.
func Process(ctx context.Context, path string, opts Options) (*Result, error) {
	opts.applyDefaults()

	info, err := os.Stat(path)
	if err != nil {
		return nil, statError(path, err)
	}
	if info.IsDir() {
		return opts.repack(ctx, path)
	}

	return opts.unpack(ctx, path)
}

// Unpack extracts the container at path next to it.
// Sidecar inputs (*.xml) are repacked into their binary form instead.
func Unpack(ctx context.Context, path string, opts Options) (*Result, error) {
	opts.applyDefaults()

	if _, err := os.Stat(path); err != nil {
		return nil, statError(path, err)
	}

	return opts.unpack(ctx, path)
}

// unpack routes regulation names, then runs the dispatcher.
func (opts *Options) unpack(ctx context.Context, path string) (*Result, error) {
	name := filepath.Base(path)
	targetDir := UnpackDir(path)

	if regulationFileRoute.Match(name) {
		return opts.unpackRegulation(ctx, path, targetDir)
	}

	data, err := readInput(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	det, err := opts.detect(path, data)
	if err != nil {
		return nil, err
	}

	switch det.Variant {
	case VariantFMG, VariantGPARAM, VariantFFX, VariantLUAGNL, VariantLUAINFO:
		if det.Sidecar {
			return opts.repackSidecar(path, det)
		}
		return opts.unpackSidecar(path, det)
	}

	opts.Logger.Infof("Unpacking %s: %s...", det.Variant, name)
	err = extractInto(targetDir, func(stageDir string) error {
		return opts.unpackContainer(ctx, path, stageDir, det)
	})
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", name, err)
	}

	return &Result{Variant: det.Variant, Action: ActionUnpack, Output: targetDir, Compression: det.Compression}, nil
}

// unpackContainer extracts a directory-backed variant into targetDir.
func (opts *Options) unpackContainer(ctx context.Context, path string, targetDir string, det *Detection) error {
	name := filepath.Base(path)
	progress := opts.entryProgress(det.Variant)

	switch det.Variant {
	case VariantBND3, VariantBND4:
		r, err := openBinder(path, det)
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()

		_, err = r.Unpack(ctx, targetDir, binder.UnpackOptions{
			SourceName:  name,
			Compression: det.Compression,
			OnEntryDone: progress,
		})
		return err

	case VariantBXF3, VariantBXF4:
		r, err := binder.OpenSplit(path, det.Companion)
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()

		_, err = r.Unpack(ctx, targetDir, binder.UnpackOptions{
			SourceName:  name,
			DataName:    filepath.Base(det.Companion),
			Compression: det.Compression,
			OnEntryDone: progress,
		})
		return err

	case VariantTPF:
		t, err := tpf.Read(det.Payload)
		if err != nil {
			return err
		}

		_, err = t.Unpack(ctx, targetDir, tpf.UnpackOptions{
			SourceName:  name,
			Compression: det.Compression,
			OnEntryDone: progress,
		})
		return err

	case VariantZero3:
		a, err := zero3.Read(det.Payload)
		if err != nil {
			return err
		}

		_, err = a.Unpack(ctx, targetDir, zero3.UnpackOptions{
			SourceName:  name,
			Compression: det.Compression,
			OnEntryDone: progress,
		})
		return err

	default:
		return &ContractViolationError{Op: "unpack", Subject: name, Detail: "variant " + string(det.Variant) + " has no directory form"}
	}
}

// openBinder streams a raw container from disk and parses a decompressed
// one from memory.
func openBinder(path string, det *Detection) (*binder.Reader, error) {
	if det.Compression == dcx.TypeNone {
		return binder.Open(path)
	}

	return binder.NewReader(det.Payload)
}

// readInput loads path for detection. Raw BND3/BND4 containers are streamed
// from disk by the unpacker, so only their magic is read here.
func readInput(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	magic := make([]byte, binderMagicSize)
	n, err := io.ReadFull(f, magic)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	magic = magic[:n]
	if binder.Is(magic) {
		return magic, nil
	}

	rest, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return append(magic, rest...), nil
}

// UnpackDir returns the directory a container at path unpacks into:
// the file name with dots replaced by dashes, plus "-ybr" when a regular
// file already occupies that name.
func UnpackDir(path string) string {
	name := strings.ReplaceAll(filepath.Base(path), ".", "-")
	target := filepath.Join(filepath.Dir(path), name)
	if fsutil.IsFile(target) {
		target += unpackDirSuffix
	}

	return target
}

// extractInto runs fn against a staging directory beside targetDir and
// merges the result into targetDir only when fn succeeds. A failed unpack
// leaves targetDir as it was, or absent.
func extractInto(targetDir string, fn func(stageDir string) error) error {
	stageDir, err := os.MkdirTemp(filepath.Dir(targetDir), "."+filepath.Base(targetDir)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(stageDir) }()

	if err := fn(stageDir); err != nil {
		return err
	}

	return fsutil.MergeDir(stageDir, targetDir)
}

// statError maps a missing input to ErrNotFound.
func statError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	return fmt.Errorf("stat %s: %w", path, err)
}
