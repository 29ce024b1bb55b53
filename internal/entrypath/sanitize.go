// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package entrypath

import (
	"fmt"
	"hash/fnv"
	"path"
	"strconv"
	"strings"
	"unicode"
)

// maxSegmentLen limits one path segment to common filesystem-safe length.
const maxSegmentLen = 240

// reservedNames contains case-insensitive Windows device names.
var reservedNames = map[string]struct{}{
	"aux": {}, "con": {}, "nul": {}, "prn": {},
	"clock$": {}, "conin$": {}, "conout$": {},
	"com1": {}, "com2": {}, "com3": {}, "com4": {}, "com5": {},
	"com6": {}, "com7": {}, "com8": {}, "com9": {},
	"lpt1": {}, "lpt2": {}, "lpt3": {}, "lpt4": {}, "lpt5": {},
	"lpt6": {}, "lpt7": {}, "lpt8": {}, "lpt9": {},
}

// Planner assigns unique, filesystem-safe relative paths to entry names.
// The zero value is not usable; use NewPlanner.
type Planner struct {
	used       map[string]struct{}
	nextSuffix map[string]int
}

// NewPlanner returns an empty path planner.
func NewPlanner() *Planner {
	return &Planner{
		used:       make(map[string]struct{}),
		nextSuffix: make(map[string]int),
	}
}

// Plan converts one stored entry name to a unique relative slash path.
func (p *Planner) Plan(name string) (string, error) {
	relPath := StripRoot(name)
	if normalized, err := Validate(relPath); err == nil {
		relPath = normalized
	}

	sanitized, err := sanitizeRelativePath(relPath)
	if err != nil {
		return "", fmt.Errorf("sanitize path %s: %w", name, err)
	}

	sanitized, err = p.unique(sanitized)
	if err != nil {
		return "", fmt.Errorf("sanitize path %s: %w", name, err)
	}

	if _, err := Validate(sanitized); err != nil {
		return "", fmt.Errorf("sanitize path %s: %w", name, err)
	}

	return sanitized, nil
}

// sanitizeRelativePath sanitizes each segment of relative slash-separated path.
func sanitizeRelativePath(relativePath string) (string, error) {
	parts := strings.Split(relativePath, "/")
	sanitized := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || part == "." {
			continue
		}
		if part == ".." {
			part = "_"
		}

		segment, err := sanitizeSegment(part)
		if err != nil {
			return "", err
		}

		sanitized = append(sanitized, segment)
	}
	if len(sanitized) == 0 {
		return "_", nil
	}

	return strings.Join(sanitized, "/"), nil
}

// sanitizeSegment sanitizes one path segment for broad filesystem compatibility.
func sanitizeSegment(segment string) (string, error) {
	reserved := isReservedName(segment)

	var b strings.Builder
	b.Grow(len(segment))
	for _, r := range segment {
		if unicode.IsControl(r) || unicode.In(r, unicode.Cf) || r == '\uFFFD' || strings.ContainsRune(`<>:"/\|?*`, r) {
			b.WriteRune('_')
			continue
		}

		b.WriteRune(r)
	}

	sanitized := strings.TrimRight(b.String(), ". ")
	if sanitized == "" {
		sanitized = "_"
	}
	if reserved || isReservedName(sanitized) {
		sanitized = "_" + sanitized
	}
	if len(sanitized) > maxSegmentLen {
		sanitized = shorten(sanitized, maxSegmentLen)
	}
	if sanitized == "" {
		return "", ErrInvalidPath
	}

	return sanitized, nil
}

// isReservedName reports whether the segment base matches a reserved device name.
func isReservedName(name string) bool {
	candidate := strings.ToLower(strings.TrimRight(strings.TrimSpace(name), ". :"))
	if dot := strings.IndexByte(candidate, '.'); dot >= 0 {
		candidate = candidate[:dot]
	}
	if candidate == "" {
		return false
	}

	_, ok := reservedNames[candidate]
	return ok
}

// unique resolves collisions by adding a deterministic numeric suffix.
func (p *Planner) unique(pathValue string) (string, error) {
	key := strings.ToLower(pathValue)
	if _, exists := p.used[key]; !exists {
		p.used[key] = struct{}{}
		return pathValue, nil
	}

	dir := path.Dir(pathValue)
	name := path.Base(pathValue)
	startIdx := max(p.nextSuffix[key], 2)

	for idx := startIdx; idx < 1000000; idx++ {
		candidate := withNumericSuffix(name, idx)
		if dir != "." {
			candidate = dir + "/" + candidate
		}

		candidateKey := strings.ToLower(candidate)
		if _, exists := p.used[candidateKey]; exists {
			continue
		}

		p.used[candidateKey] = struct{}{}
		p.nextSuffix[key] = idx + 1
		return candidate, nil
	}

	return "", ErrInvalidPath
}

// withNumericSuffix appends "~N" before extension and preserves max segment length.
func withNumericSuffix(name string, n int) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	suffix := "~" + strconv.Itoa(n)
	allowed := max(maxSegmentLen-len(ext)-len(suffix), 1)
	if len(base) > allowed {
		base = shorten(base, allowed)
	}

	return base + suffix + ext
}

// shorten truncates a long segment while keeping a deterministic hash suffix.
func shorten(value string, maxLen int) string {
	if len(value) <= maxLen {
		return value
	}
	if maxLen <= 10 {
		return value[:maxLen]
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(value))
	hashPart := fmt.Sprintf("~%08x", h.Sum32())

	return value[:max(maxLen-len(hashPart), 1)] + hashPart
}
