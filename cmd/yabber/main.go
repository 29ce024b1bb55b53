// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

// Command yabber unpacks game containers into directories and repacks them.
//
// Usage:
//
//	yabber [path ...]
//
// Files are unpacked next to themselves, directories are repacked.
package main

import (
	"context"
	"errors"
	"os"

	"github.com/charmbracelet/log"

	"github.com/woozymasta/yabber/internal/config"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "yabber"})

	cfg, err := config.Load()
	if err != nil {
		logger.Warn("config ignored", "err", err)
		cfg = config.Default()
	}

	a := newApp(cfg, logger)
	cmd := newRootCmd(a)
	cmd.SetArgs(os.Args[1:])

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		logger.Error(err)
		os.Exit(exitUnexpected)
	}
}
