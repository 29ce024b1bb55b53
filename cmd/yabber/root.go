// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/woozymasta/yabber"
	"github.com/woozymasta/yabber/internal/config"
)

// app carries the per-run logger and library options.
type app struct {
	logger *log.Logger
	opts   yabber.Options
}

// newApp applies settings to the logger and builds library options.
func newApp(cfg *config.Config, logger *log.Logger) *app {
	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		logger.Warn("unknown log level, using info", "level", cfg.Log.Level)
		level = log.InfoLevel
	}
	logger.SetLevel(level)

	a := &app{logger: logger}
	a.opts = yabber.Options{
		Logger:            logger,
		OodleLibrary:      cfg.Oodle.Library,
		OodleDirs:         cfg.OodleSearchDirs(),
		OodleFallbackDirs: cfg.Oodle.GameDirs,
		Backup:            cfg.BackupEnabled(),
		Confirm:           a.confirm,
		OnProgress: func(p yabber.Progress) {
			logger.Debug("entry", "variant", p.Variant, "done", p.Done, "total", p.Total, "path", p.Entry)
		},
	}

	return a
}

// newRootCmd builds the yabber command.
func newRootCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "yabber [path ...]",
		Short: "Unpack and repack game archive containers",
		Long: `Unpacks BND3/BND4, split BXF3/BXF4, TPF and 000 containers into
directories with an XML manifest, and converts FMG, GPARAM, FFX, LUAGNL and
LUAINFO files to XML. Directories and XML files are repacked.

Paths are processed in order; a failure does not stop the batch.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return a.run(cmd.Context(), args)
		},
	}
}

// run processes every path and returns the exit code of the last failure.
func (a *app) run(ctx context.Context, paths []string) error {
	code := exitOK
	var last error

	for _, path := range paths {
		res, err := yabber.Process(ctx, path, a.opts)
		if err != nil {
			code, last = a.report(path, err), err
			continue
		}
		a.logger.Debug("done", "action", res.Action, "variant", res.Variant, "output", res.Output)
	}

	if code == exitOK {
		return nil
	}
	return &ExitError{Code: code, Err: last}
}

// report logs one failure and returns its exit code. Expected failures get a
// one-line message, anything else is logged with the whole error chain.
func (a *app) report(path string, err error) int {
	kind := yabber.Classify(err)
	name := filepath.Base(path)

	switch kind {
	case yabber.KindNotFound:
		a.logger.Errorf("File or directory not found: %s", path)
	case yabber.KindNativeLibraryMissing:
		a.logger.Errorf("Oodle runtime not found while processing %s. Copy oo2core from the game folder next to yabber or set oodle.game_dirs.", name)
	case yabber.KindUnexpected, yabber.KindInternalContract:
		a.logger.Error("unhandled failure", "path", path, "kind", kind, "err", fmt.Sprintf("%+v", err))
	default:
		a.logger.Errorf("%s: %v", name, err)
	}

	return exitCode(kind)
}

// confirm asks a yes/no question on an interactive terminal. Without one the
// answer is no.
func (a *app) confirm(message string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		a.logger.Warn("input is not a terminal, declining", "question", message)
		return false, nil
	}

	var ok bool
	err := huh.NewConfirm().
		Title(message).
		Affirmative("Yes").
		Negative("No").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("prompt: %w", err)
	}

	return ok, nil
}
