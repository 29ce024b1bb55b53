// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

package fsutil

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Hex is an unsigned integer written to XML as a 0x-prefixed hex string.
type Hex uint64

// MarshalText implements encoding.TextMarshaler.
func (h Hex) MarshalText() ([]byte, error) {
	return []byte("0x" + strings.ToUpper(strconv.FormatUint(uint64(h), 16))), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Decimal input is accepted too.
func (h *Hex) UnmarshalText(text []byte) error {
	v, err := strconv.ParseUint(strings.TrimSpace(string(text)), 0, 64)
	if err != nil {
		return fmt.Errorf("parse hex %q: %w", text, err)
	}

	*h = Hex(v)
	return nil
}

// MarshalXML encodes v as an indented XML document with declaration.
func MarshalXML(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)

	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode xml: %w", err)
	}
	buf.WriteByte('\n')

	return buf.Bytes(), nil
}

// WriteXML atomically writes v as an XML document to path.
func WriteXML(path string, v any) error {
	data, err := MarshalXML(v)
	if err != nil {
		return err
	}

	return WriteFile(path, data)
}

// ReadXML decodes the XML document at path into v.
func ReadXML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := xml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	return nil
}
