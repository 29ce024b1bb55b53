// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package yabber

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/woozymasta/yabber/binder"
	"github.com/woozymasta/yabber/dcx"
	"github.com/woozymasta/yabber/internal/fsutil"
	"github.com/woozymasta/yabber/regulation"
)

// ds2ConfirmMessage is shown before a Dark Souls II regulation is repacked.
const ds2ConfirmMessage = "DS2 files cannot be re-encrypted yet, so repacking this folder might ruin your encrypted bnd. Continue?"

// unpackRegulation decrypts a regulation file and unpacks its BND4 payload.
// Generic codecs never see the encrypted bytes.
func (opts *Options) unpackRegulation(ctx context.Context, path string, targetDir string) (*Result, error) {
	name := filepath.Base(path)
	title, ok := regulationFileTitle(name)
	if !ok {
		return nil, &ContractViolationError{Op: "unpack regulation", Subject: name, Detail: "name matches no regulation convention"}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	plain, seal, err := regulation.Decrypt(title, data)
	if err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", name, err)
	}

	payload, typ := plain, dcx.TypeNone
	if dcx.Is(plain) {
		payload, typ, err = opts.decompress(plain, path)
		if err != nil {
			return nil, fmt.Errorf("decompress %s: %w", name, err)
		}
	}
	if !binder.IsBND4(payload) {
		return nil, fmt.Errorf("%w: decrypted %s is not a BND4 container", ErrFormatNotRecognized, name)
	}

	opts.Logger.Infof("Unpacking %s regulation: %s...", regulationLabel(title), name)
	err = extractInto(targetDir, func(stageDir string) error {
		r, err := binder.NewReader(payload)
		if err != nil {
			return err
		}
		defer func() { _ = r.Close() }()

		_, err = r.Unpack(ctx, stageDir, binder.UnpackOptions{
			SourceName:  name,
			Compression: typ,
			Envelope:    &binder.Envelope{Scheme: string(title), IV: seal.HexIV()},
			OnEntryDone: opts.entryProgress(VariantBND4),
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", name, err)
	}

	return &Result{Variant: VariantBND4, Action: ActionUnpack, Output: targetDir, Compression: typ, Regulation: title}, nil
}

// repackRegulation rebuilds the BND4 payload and re-encrypts it when the
// title supports encryption. Dark Souls II needs confirmation before any work
// and is written as plaintext.
func (opts *Options) repackRegulation(ctx context.Context, dir string) (*Result, error) {
	name := filepath.Base(dir)
	title, ok := regulationDirTitle(name)
	if !ok {
		return nil, &ContractViolationError{Op: "repack regulation", Subject: name, Detail: "directory matches no regulation convention"}
	}

	if title == regulation.TitleDarkSouls2 {
		accepted, err := opts.Confirm(ds2ConfirmMessage)
		if err != nil {
			return nil, fmt.Errorf("confirm repack of %s: %w", name, err)
		}
		if !accepted {
			return nil, fmt.Errorf("%w: repack of %s", ErrUserDeclined, name)
		}
	}

	if !fsutil.IsFile(filepath.Join(dir, binder.ManifestName(binder.KindBND4))) {
		return nil, fmt.Errorf("%w: %s", ErrManifestNotFound, name)
	}

	opts.Logger.Infof("Repacking %s regulation: %s...", regulationLabel(title), name)
	rep, err := binder.Repack(ctx, dir, binder.KindBND4)
	if err != nil {
		return nil, fmt.Errorf("repack %s: %w", name, err)
	}

	out, err := outputPath(dir, rep.Manifest.Filename)
	if err != nil {
		return nil, err
	}

	typ := rep.Manifest.CompressionType()
	plain, err := opts.compress(rep.Data, typ, out)
	if err != nil {
		return nil, fmt.Errorf("compress %s: %w", name, err)
	}

	data := plain
	if title == regulation.TitleDarkSouls2 {
		opts.Logger.Warn("regulation written without encryption", "file", filepath.Base(out))
	} else {
		seal, err := sealFor(title, rep.Manifest.Envelope)
		if err != nil {
			return nil, err
		}

		data, err = regulation.Encrypt(title, plain, seal)
		if err != nil {
			return nil, fmt.Errorf("encrypt %s: %w", name, err)
		}
	}

	if err := fsutil.WriteOutput(out, data, opts.Backup); err != nil {
		return nil, err
	}

	return &Result{Variant: VariantBND4, Action: ActionRepack, Output: out, Compression: typ, Regulation: title}, nil
}

// sealFor restores the IV recorded at unpack time. A missing envelope or
// one recorded for another title yields a fresh random IV.
func sealFor(title regulation.Title, env *binder.Envelope) (regulation.Seal, error) {
	if env == nil || env.Scheme == "" {
		return regulation.Seal{Title: title}, nil
	}

	scheme, err := regulation.ParseTitle(env.Scheme)
	if err != nil {
		return regulation.Seal{}, fmt.Errorf("manifest envelope: %w", err)
	}
	if scheme != title {
		return regulation.Seal{Title: title}, nil
	}

	return regulation.ParseSeal(title, env.IV)
}

// regulationLabel returns the log label of a title.
func regulationLabel(title regulation.Title) string {
	switch title {
	case regulation.TitleEldenRing:
		return "ER"
	case regulation.TitleDarkSouls3:
		return "DS3"
	case regulation.TitleDarkSouls2:
		return "DS2"
	default:
		return string(title)
	}
}
