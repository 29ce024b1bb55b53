// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

// Package fsutil holds output safety helpers shared by unpack and repack paths.
package fsutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/woozymasta/yabber/internal/entrypath"
)

// BackupSuffix is appended to an output path to keep its first original copy.
const BackupSuffix = ".bak"

// ErrOutputIsDir means a directory occupies an output file path.
var ErrOutputIsDir = errors.New("output path is a directory")

// Output is one file of a rebuilt container.
type Output struct {
	// Path is the final output location.
	Path string
	// Data is the complete file content.
	Data []byte
}

// WriteFile atomically replaces path with data through a temp file and rename.
func WriteFile(path string, data []byte) error {
	tmpName, err := stageTemp(path, data)
	if err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// WriteOutput writes a rebuilt container, keeping the first original as a backup when requested.
func WriteOutput(path string, data []byte, backup bool) error {
	return WriteOutputs([]Output{{Path: path, Data: data}}, backup)
}

// WriteOutputs writes the files of one container together. All of them are
// staged as temp files before any existing output is backed up or replaced,
// so a failed write leaves every previous output untouched.
func WriteOutputs(outputs []Output, backup bool) error {
	for _, o := range outputs {
		if IsDir(o.Path) {
			return fmt.Errorf("write %s: %w", o.Path, ErrOutputIsDir)
		}
	}

	staged := make([]string, 0, len(outputs))
	discard := func() {
		for _, name := range staged {
			_ = os.Remove(name)
		}
	}

	for _, o := range outputs {
		tmpName, err := stageTemp(o.Path, o.Data)
		if err != nil {
			discard()
			return err
		}
		staged = append(staged, tmpName)
	}

	if backup {
		for _, o := range outputs {
			if err := PreserveOriginal(o.Path); err != nil {
				discard()
				return err
			}
		}
	}

	for i, o := range outputs {
		if err := os.Rename(staged[i], o.Path); err != nil {
			staged = staged[i:]
			discard()
			return fmt.Errorf("rename temp file: %w", err)
		}
	}

	return nil
}

// stageTemp writes data to a synced temp file beside path and returns its name.
func stageTemp(path string, data []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close temp file: %w", err)
	}

	return tmpName, nil
}

// PreserveOriginal copies path to path+".bak" unless a backup already exists.
// The earliest backup is never overwritten.
func PreserveOriginal(path string) error {
	if !IsFile(path) {
		return nil
	}

	backupPath := path + BackupSuffix
	_, err := os.Stat(backupPath)
	if err == nil {
		return nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", backupPath, err)
	}

	if err := copyFile(path, backupPath); err != nil {
		_ = os.Remove(backupPath)
		return fmt.Errorf("backup %s: %w", path, err)
	}

	return nil
}

// MergeDir moves every file under src into the same relative location under
// dst, replacing files that already exist there. Files directly under src
// with an .xml extension move last, so a manifest never lands before the
// entries it lists.
func MergeDir(src string, dst string) error {
	var files, manifests []string
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if filepath.Dir(rel) == "." && strings.EqualFold(filepath.Ext(rel), ".xml") {
			manifests = append(manifests, rel)
		} else {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan %s: %w", src, err)
	}

	if err := os.MkdirAll(dst, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	for _, rel := range append(files, manifests...) {
		target := filepath.Join(dst, rel)
		if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
			return fmt.Errorf("create entry dir: %w", err)
		}
		if err := os.Rename(filepath.Join(src, rel), target); err != nil {
			return fmt.Errorf("move %s: %w", filepath.ToSlash(rel), err)
		}
	}

	return nil
}

// WriteEntry writes one extracted entry under root at a validated relative path.
func WriteEntry(root string, relPath string, data []byte) (string, error) {
	outPath, err := entrypath.Join(root, relPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return "", fmt.Errorf("create entry dir: %w", err)
	}

	f, err := os.OpenFile(outPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("create entry file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write entry %s: %w", relPath, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close entry %s: %w", relPath, err)
	}

	return outPath, nil
}

// ReadEntry reads one entry file under root at a validated relative path.
func ReadEntry(root string, relPath string) ([]byte, error) {
	inPath, err := entrypath.Join(root, relPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(inPath)
	if err != nil {
		return nil, fmt.Errorf("read entry %s: %w", relPath, err)
	}

	return data, nil
}

// IsFile reports whether path exists and is a regular file.
func IsFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// IsDir reports whether path exists and is a directory.
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// copyFile copies src to a new file dst.
func copyFile(src string, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		_ = out.Close()
		return err
	}

	return out.Close()
}
