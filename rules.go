// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package yabber

import (
	"fmt"
	"path/filepath"

	"github.com/woozymasta/pathrules"
	"github.com/woozymasta/yabber/regulation"
)

// nameMatcher holds compiled allow-list rules applied to base names.
type nameMatcher struct {
	matcher *pathrules.Matcher
}

// newNameMatcher compiles include patterns into one matcher.
func newNameMatcher(caseInsensitive bool, patterns ...string) (*nameMatcher, error) {
	rules := make([]pathrules.Rule, 0, len(patterns))
	for _, pattern := range patterns {
		rules = append(rules, pathrules.Rule{Action: pathrules.ActionInclude, Pattern: pattern})
	}

	matcher, err := pathrules.NewMatcher(rules, pathrules.MatcherOptions{
		CaseInsensitive: caseInsensitive,
		DefaultAction:   pathrules.ActionExclude,
	})
	if err != nil {
		return nil, fmt.Errorf("compile name rules %v: %w", patterns, err)
	}

	return &nameMatcher{matcher: matcher}, nil
}

// mustNameMatcher is newNameMatcher for package-level rule tables.
func mustNameMatcher(caseInsensitive bool, patterns ...string) *nameMatcher {
	m, err := newNameMatcher(caseInsensitive, patterns...)
	if err != nil {
		panic(err)
	}

	return m
}

// Match reports whether the base name of path is included.
func (m *nameMatcher) Match(path string) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) {
		return false
	}

	return m.matcher.Included(name, false)
}

// nameRule builds a case-insensitive file name rule.
func nameRule(patterns ...string) *nameMatcher {
	return mustNameMatcher(true, patterns...)
}

// regulationConvention binds a title to its file and directory name rules.
type regulationConvention struct {
	file  *nameMatcher
	dir   *nameMatcher
	title regulation.Title
}

// Regulation names are matched case-sensitively, as the games ship them.
var (
	regulationFileRoute = mustNameMatcher(false,
		"*regulation.bnd.dcx*", "*Data0*", "*regulation.bin*", "*regulation.bnd*")
	regulationDirRoute = mustNameMatcher(false,
		"*regulation-bnd-dcx*", "*Data0*", "*regulation-bin*")

	regulationConventions = []regulationConvention{
		{
			title: regulation.TitleEldenRing,
			file:  mustNameMatcher(false, "*regulation.bin*"),
			dir:   mustNameMatcher(false, "*regulation-bin*"),
		},
		{
			title: regulation.TitleDarkSouls3,
			file:  mustNameMatcher(false, "*Data0*"),
			dir:   mustNameMatcher(false, "*Data0*"),
		},
		{
			title: regulation.TitleDarkSouls2,
			file:  mustNameMatcher(false, "*enc_regulation.bnd.dcx*"),
			dir:   mustNameMatcher(false, "*enc_regulation-bnd-dcx*"),
		},
	}
)

// regulationFileTitle returns the convention of a regulation file name.
func regulationFileTitle(name string) (regulation.Title, bool) {
	for _, c := range regulationConventions {
		if c.file.Match(name) {
			return c.title, true
		}
	}

	return "", false
}

// regulationDirTitle returns the convention of an unpacked regulation directory.
func regulationDirTitle(name string) (regulation.Title, bool) {
	for _, c := range regulationConventions {
		if c.dir.Match(name) {
			return c.title, true
		}
	}

	return "", false
}
