// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

/*
Package dcx reads and writes DCX compression envelopes.

A DCX file is a big-endian header made of DCX, DCS, DCP and DCA blocks
followed by one compressed stream. The header records the compression
method; Decompress reports it as a Type so the same method can be used
again on Compress:

	payload, typ, err := dcx.Decompress(data, dcx.Options{})
	if err != nil {
	    return err
	}
	// edit payload
	out, err := dcx.Compress(payload, typ, dcx.Options{})

DFLT methods use zlib, ZSTD uses zstd, KRAK loads the Oodle runtime for the
duration of one call.
*/
package dcx

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/woozymasta/yabber/oodle"
)

// headerSize is the fixed size of the DCX header before compressed data.
const headerSize = 0x48

var (
	// ErrInvalidHeader means the envelope header is missing or malformed.
	ErrInvalidHeader = errors.New("invalid DCX header")
	// ErrUnsupportedType means the compression method is not implemented.
	ErrUnsupportedType = errors.New("unsupported DCX compression type")
	// ErrSizeMismatch means decompressed data length differs from the header.
	ErrSizeMismatch = errors.New("decompressed size mismatch")
)

// Type is a DCX compression method tag as recorded in manifests.
type Type string

// Supported compression types. TypeNone marks an uncompressed payload.
const (
	TypeNone              Type = ""
	TypeDFLT10000_24_9    Type = "DCX_DFLT_10000_24_9"
	TypeDFLT10000_44_9    Type = "DCX_DFLT_10000_44_9"
	TypeDFLT11000_44_8    Type = "DCX_DFLT_11000_44_8"
	TypeDFLT11000_44_9    Type = "DCX_DFLT_11000_44_9"
	TypeDFLT11000_44_9_15 Type = "DCX_DFLT_11000_44_9_15"
	TypeKRAK              Type = "DCX_KRAK"
	TypeZSTD              Type = "DCX_ZSTD"
)

// params holds header fields that distinguish one Type from another.
type params struct {
	format  string
	version uint32
	unk10   uint32
	unk14   uint32
	level   byte
	unk31   byte
}

// typeParams maps each Type to its header fields. Order is significant for detection.
var typeParams = []struct {
	typ Type
	p   params
}{
	{TypeDFLT10000_24_9, params{format: "DFLT", version: 0x10000, unk10: 0x24, unk14: 0x2C, level: 9}},
	{TypeDFLT10000_44_9, params{format: "DFLT", version: 0x10000, unk10: 0x44, unk14: 0x4C, level: 9}},
	{TypeDFLT11000_44_8, params{format: "DFLT", version: 0x11000, unk10: 0x44, unk14: 0x4C, level: 8}},
	{TypeDFLT11000_44_9, params{format: "DFLT", version: 0x11000, unk10: 0x44, unk14: 0x4C, level: 9}},
	{TypeDFLT11000_44_9_15, params{format: "DFLT", version: 0x11000, unk10: 0x44, unk14: 0x4C, level: 9, unk31: 15}},
	{TypeKRAK, params{format: "KRAK", version: 0x11000, unk10: 0x44, unk14: 0x4C, level: 6}},
	{TypeZSTD, params{format: "ZSTD", version: 0x11000, unk10: 0x44, unk14: 0x4C, level: 21}},
}

// Options configures native library lookup for KRAK.
type Options struct {
	// OodleLibrary overrides the runtime file name; empty selects the platform default.
	OodleLibrary string `json:"oodle_library,omitempty" yaml:"oodle_library,omitempty"`
	// OodleDirs lists directories searched for the runtime, in order.
	OodleDirs []string `json:"oodle_dirs,omitempty" yaml:"oodle_dirs,omitempty"`
}

// ParseType validates a manifest compression tag.
func ParseType(s string) (Type, error) {
	if s == "" || s == "None" {
		return TypeNone, nil
	}

	for _, tp := range typeParams {
		if string(tp.typ) == s {
			return tp.typ, nil
		}
	}

	return TypeNone, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
}

// Is reports whether data begins with a DCX envelope.
func Is(data []byte) bool {
	return len(data) >= 4 && string(data[:4]) == "DCX\x00"
}

// Decompress unwraps a DCX envelope and returns the payload with its method.
func Decompress(data []byte, opts Options) ([]byte, Type, error) {
	if !Is(data) || len(data) < headerSize {
		return nil, TypeNone, ErrInvalidHeader
	}

	be := binary.BigEndian
	if string(data[0x18:0x1C]) != "DCS\x00" || string(data[0x24:0x28]) != "DCP\x00" || string(data[0x40:0x44]) != "DCA\x00" {
		return nil, TypeNone, ErrInvalidHeader
	}

	p := params{
		version: be.Uint32(data[0x04:]),
		unk10:   be.Uint32(data[0x10:]),
		unk14:   be.Uint32(data[0x14:]),
		format:  string(data[0x28:0x2C]),
		level:   data[0x30],
		unk31:   data[0x31],
	}
	typ, ok := lookupType(p)
	if !ok {
		return nil, TypeNone, fmt.Errorf("%w: format %q version 0x%X level %d", ErrUnsupportedType, p.format, p.version, p.level)
	}

	rawLen := int(be.Uint32(data[0x1C:]))
	compLen := int(be.Uint32(data[0x20:]))
	if compLen < 0 || headerSize+compLen > len(data) {
		return nil, TypeNone, fmt.Errorf("%w: compressed size %d exceeds file", ErrInvalidHeader, compLen)
	}
	comp := data[headerSize : headerSize+compLen]

	var (
		out []byte
		err error
	)
	switch p.format {
	case "DFLT":
		out, err = inflate(comp)
	case "ZSTD":
		out, err = unzstd(comp)
	case "KRAK":
		out, err = unkraken(comp, rawLen, opts)
	}
	if err != nil {
		return nil, TypeNone, err
	}
	if len(out) != rawLen {
		return nil, TypeNone, fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, len(out), rawLen)
	}

	return out, typ, nil
}

// Compress wraps payload into a DCX envelope of the given type.
// TypeNone returns payload unchanged.
func Compress(payload []byte, typ Type, opts Options) ([]byte, error) {
	if typ == TypeNone {
		return payload, nil
	}

	p, ok := paramsOf(typ)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, typ)
	}

	var (
		comp []byte
		err  error
	)
	switch p.format {
	case "DFLT":
		comp, err = deflate(payload, int(p.level))
	case "ZSTD":
		comp, err = enzstd(payload)
	case "KRAK":
		comp, err = enkraken(payload, opts)
	}
	if err != nil {
		return nil, err
	}

	return appendHeader(make([]byte, 0, headerSize+len(comp)), p, len(payload), comp), nil
}

// appendHeader writes the envelope header and compressed data to dst.
func appendHeader(dst []byte, p params, rawLen int, comp []byte) []byte {
	be := binary.BigEndian
	dst = append(dst, "DCX\x00"...)
	dst = be.AppendUint32(dst, p.version)
	dst = be.AppendUint32(dst, 0x18)
	dst = be.AppendUint32(dst, 0x24)
	dst = be.AppendUint32(dst, p.unk10)
	dst = be.AppendUint32(dst, p.unk14)
	dst = append(dst, "DCS\x00"...)
	dst = be.AppendUint32(dst, uint32(rawLen))
	dst = be.AppendUint32(dst, uint32(len(comp)))
	dst = append(dst, "DCP\x00"...)
	dst = append(dst, p.format...)
	dst = be.AppendUint32(dst, 0x20)
	dst = append(dst, p.level, p.unk31, 0, 0)
	dst = be.AppendUint32(dst, 0)
	dst = be.AppendUint32(dst, 0)
	dst = be.AppendUint32(dst, 0)
	dst = append(dst, "DCA\x00"...)
	dst = be.AppendUint32(dst, 8)
	return append(dst, comp...)
}

// lookupType finds the Type matching parsed header fields.
func lookupType(p params) (Type, bool) {
	for _, tp := range typeParams {
		if tp.p == p {
			return tp.typ, true
		}
	}

	return TypeNone, false
}

// paramsOf returns header fields for a Type.
func paramsOf(typ Type) (params, bool) {
	for _, tp := range typeParams {
		if tp.typ == typ {
			return tp.p, true
		}
	}

	return params{}, false
}

// inflate decodes a zlib stream.
func inflate(comp []byte) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(comp))
	if err != nil {
		return nil, fmt.Errorf("open zlib stream: %w", err)
	}
	defer func() { _ = zr.Close() }()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}

	return out, nil
}

// deflate encodes payload as a zlib stream at a fixed level.
func deflate(payload []byte, level int) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("create zlib writer: %w", err)
	}
	if _, err := zw.Write(payload); err != nil {
		_ = zw.Close()
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}

	return buf.Bytes(), nil
}

// unzstd decodes a zstd frame.
func unzstd(comp []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	out, err := dec.DecodeAll(comp, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}

	return out, nil
}

// enzstd encodes payload as one zstd frame.
func enzstd(payload []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.SpeedBestCompression),
		zstd.WithEncoderConcurrency(1),
	)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	defer func() { _ = enc.Close() }()

	return enc.EncodeAll(payload, make([]byte, 0, len(payload))), nil
}

// unkraken decodes a Kraken stream with a scoped runtime handle.
func unkraken(comp []byte, rawLen int, opts Options) ([]byte, error) {
	lib, err := oodle.Open(opts.OodleLibrary, opts.OodleDirs)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lib.Close() }()

	return lib.Decompress(comp, rawLen)
}

// enkraken encodes payload with a scoped runtime handle.
func enkraken(payload []byte, opts Options) ([]byte, error) {
	lib, err := oodle.Open(opts.OodleLibrary, opts.OodleDirs)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lib.Close() }()

	return lib.Compress(payload)
}
