// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

// Package binio provides endian-aware cursors and string codecs for container formats.
package binio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	xunicode "golang.org/x/text/encoding/unicode"
)

var (
	// ErrTruncated means a read went past the end of the buffer.
	ErrTruncated = errors.New("unexpected end of data")
	// ErrUnterminated means a string has no terminator before the end of the buffer.
	ErrUnterminated = errors.New("unterminated string")
)

// Order is a byte order usable for both decoding and appending.
type Order interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// OrderOf returns big-endian order when bigEndian is set, little-endian otherwise.
func OrderOf(bigEndian bool) Order {
	if bigEndian {
		return binary.BigEndian
	}

	return binary.LittleEndian
}

// Align rounds n up to a multiple of align.
func Align(n int, align int) int {
	if align <= 1 {
		return n
	}

	return (n + align - 1) / align * align
}

// Pad appends zero bytes until len(dst) is a multiple of align.
func Pad(dst []byte, align int) []byte {
	for len(dst)%align != 0 {
		dst = append(dst, 0)
	}

	return dst
}

// Cursor reads fixed-size values from a byte slice. The first error sticks.
type Cursor struct {
	order Order
	err   error
	buf   []byte
	off   int
}

// NewCursor creates a cursor at offset zero.
func NewCursor(buf []byte, order Order) *Cursor {
	return &Cursor{buf: buf, order: order}
}

// Err returns the first read error.
func (c *Cursor) Err() error {
	return c.err
}

// Offset returns the current position.
func (c *Cursor) Offset() int {
	return c.off
}

// Seek moves to an absolute position.
func (c *Cursor) Seek(off int) {
	if c.err != nil {
		return
	}
	if off < 0 || off > len(c.buf) {
		c.err = fmt.Errorf("%w: seek to %d of %d", ErrTruncated, off, len(c.buf))
		return
	}

	c.off = off
}

// SetOrder switches byte order for subsequent reads.
func (c *Cursor) SetOrder(order Order) {
	c.order = order
}

// Bytes returns the next n bytes without copying.
func (c *Cursor) Bytes(n int) []byte {
	if c.err != nil {
		return nil
	}
	if n < 0 || c.off+n > len(c.buf) {
		c.err = fmt.Errorf("%w: read %d at %d of %d", ErrTruncated, n, c.off, len(c.buf))
		return nil
	}

	b := c.buf[c.off : c.off+n]
	c.off += n
	return b
}

// Skip advances n bytes.
func (c *Cursor) Skip(n int) {
	c.Bytes(n)
}

// U8 reads one byte.
func (c *Cursor) U8() byte {
	b := c.Bytes(1)
	if b == nil {
		return 0
	}

	return b[0]
}

// Bool reads one byte as a boolean.
func (c *Cursor) Bool() bool {
	return c.U8() != 0
}

// U16 reads an unsigned 16-bit value.
func (c *Cursor) U16() uint16 {
	b := c.Bytes(2)
	if b == nil {
		return 0
	}

	return c.order.Uint16(b)
}

// U32 reads an unsigned 32-bit value.
func (c *Cursor) U32() uint32 {
	b := c.Bytes(4)
	if b == nil {
		return 0
	}

	return c.order.Uint32(b)
}

// I32 reads a signed 32-bit value.
func (c *Cursor) I32() int32 {
	return int32(c.U32())
}

// U64 reads an unsigned 64-bit value.
func (c *Cursor) U64() uint64 {
	b := c.Bytes(8)
	if b == nil {
		return 0
	}

	return c.order.Uint64(b)
}

// Magic reads n bytes and reports whether they equal want.
func (c *Cursor) Magic(want string) bool {
	b := c.Bytes(len(want))
	return b != nil && string(b) == want
}

// FixedString reads n bytes and trims trailing zero bytes.
func (c *Cursor) FixedString(n int) string {
	return string(bytes.TrimRight(c.Bytes(n), "\x00"))
}

// AppendFixedString appends s padded or truncated to exactly n bytes.
func AppendFixedString(dst []byte, s string, n int) []byte {
	b := make([]byte, n)
	copy(b, s)
	return append(dst, b...)
}

// Encoding selects the on-disk text encoding of a string.
type Encoding uint8

// Supported string encodings.
const (
	// ShiftJIS is the single/double byte Japanese encoding used by older formats.
	ShiftJIS Encoding = iota
	// UTF16LE is little-endian UTF-16.
	UTF16LE
	// UTF16BE is big-endian UTF-16.
	UTF16BE
)

// UTF16 returns UTF16BE for big-endian containers and UTF16LE otherwise.
func UTF16(bigEndian bool) Encoding {
	if bigEndian {
		return UTF16BE
	}

	return UTF16LE
}

// codec returns the x/text encoding for e.
func (e Encoding) codec() encoding.Encoding {
	switch e {
	case UTF16LE:
		return xunicode.UTF16(xunicode.LittleEndian, xunicode.IgnoreBOM)
	case UTF16BE:
		return xunicode.UTF16(xunicode.BigEndian, xunicode.IgnoreBOM)
	default:
		return japanese.ShiftJIS
	}
}

// unit returns the terminator width in bytes.
func (e Encoding) unit() int {
	if e == ShiftJIS {
		return 1
	}

	return 2
}

// CString decodes a zero-terminated string starting at off in buf.
func CString(buf []byte, off int, enc Encoding) (string, error) {
	if off < 0 || off > len(buf) {
		return "", fmt.Errorf("%w: string offset %d", ErrTruncated, off)
	}

	unit := enc.unit()
	end := -1
	for i := off; i+unit <= len(buf); i += unit {
		if buf[i] == 0 && (unit == 1 || buf[i+1] == 0) {
			end = i
			break
		}
	}
	if end < 0 {
		return "", fmt.Errorf("%w at offset %d", ErrUnterminated, off)
	}

	out, err := enc.codec().NewDecoder().Bytes(buf[off:end])
	if err != nil {
		return "", fmt.Errorf("decode string at %d: %w", off, err)
	}

	return string(out), nil
}

// AppendCString appends s encoded with enc followed by a terminator.
func AppendCString(dst []byte, s string, enc Encoding) ([]byte, error) {
	b, err := EncodeString(s, enc)
	if err != nil {
		return nil, err
	}

	dst = append(dst, b...)
	for range enc.unit() {
		dst = append(dst, 0)
	}

	return dst, nil
}

// EncodeString encodes s with enc without a terminator.
func EncodeString(s string, enc Encoding) ([]byte, error) {
	b, err := enc.codec().NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encode string %q: %w", s, err)
	}

	return b, nil
}

// DecodeString decodes b with enc.
func DecodeString(b []byte, enc Encoding) (string, error) {
	out, err := enc.codec().NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode string: %w", err)
	}

	return string(out), nil
}
