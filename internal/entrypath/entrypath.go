// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

// Package entrypath maps container entry names to safe relative file system paths.
package entrypath

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidPath means the entry path is empty or malformed for extraction.
	ErrInvalidPath = errors.New("invalid entry path")
	// ErrOutsideRoot means the resolved path escapes the destination root.
	ErrOutsideRoot = errors.New("entry path escapes destination root")
)

// Normalize converts an entry name to slash-separated form.
// It trims spaces, accepts both "/" and "\", removes leading "./" and "/", and cleans "." segments.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.ReplaceAll(raw, `\`, `/`)
	raw = strings.TrimPrefix(raw, "./")
	raw = strings.TrimPrefix(raw, "/")
	raw = path.Clean("/" + raw)
	raw = strings.TrimPrefix(raw, "/")
	if raw == "." {
		return ""
	}

	return strings.TrimSuffix(raw, "/")
}

// StripRoot removes a drive letter or UNC-like root from an entry name.
// Game containers commonly store names such as "N:\FDP\data\param\a.param".
func StripRoot(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, `/`)
	if len(name) >= 2 && isASCIIAlpha(name[0]) && name[1] == ':' {
		name = name[2:]
	}

	return strings.TrimLeft(name, "/")
}

// Validate normalizes an entry path and rejects absolute or traversal inputs.
func Validate(entryPath string) (string, error) {
	raw := strings.TrimSpace(entryPath)
	if raw == "" {
		return "", ErrInvalidPath
	}
	if strings.ContainsRune(raw, 0) {
		return "", ErrInvalidPath
	}
	if strings.HasPrefix(raw, `/`) || strings.HasPrefix(raw, `\`) {
		return "", ErrInvalidPath
	}

	raw = strings.ReplaceAll(raw, `\`, `/`)
	if hasWindowsAbsDrivePrefix(raw) {
		return "", ErrInvalidPath
	}

	parts := strings.Split(raw, `/`)
	cleanParts := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			return "", ErrInvalidPath
		default:
			cleanParts = append(cleanParts, part)
		}
	}
	if len(cleanParts) == 0 {
		return "", ErrInvalidPath
	}

	return strings.Join(cleanParts, `/`), nil
}

// Join resolves a validated relative path under root.
func Join(root string, relPath string) (string, error) {
	clean, err := Validate(relPath)
	if err != nil {
		return "", fmt.Errorf("%w: %q", err, relPath)
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}

	full := filepath.Join(rootAbs, filepath.FromSlash(clean))
	rel, err := filepath.Rel(rootAbs, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrOutsideRoot, relPath)
	}

	return full, nil
}

// hasWindowsAbsDrivePrefix reports whether path starts with drive-root prefix like C:/.
func hasWindowsAbsDrivePrefix(path string) bool {
	if len(path) < 3 {
		return false
	}

	return isASCIIAlpha(path[0]) && path[1] == ':' && path[2] == '/'
}

// isASCIIAlpha reports whether byte is ASCII latin letter.
func isASCIIAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
