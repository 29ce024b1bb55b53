// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/yabber

// Package regulation decrypts and encrypts per-title regulation containers.
//
// Elden Ring and Dark Souls III files are AES-256-CBC with the IV stored in
// the first 16 bytes and the plaintext zero-padded to the block size. Dark
// Souls II files are AES-128-CTR and can only be decrypted.
package regulation

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/woozymasta/yabber/binder"
	"github.com/woozymasta/yabber/dcx"
)

// Title selects a regulation convention.
type Title string

// Supported titles.
const (
	TitleEldenRing  Title = "er"
	TitleDarkSouls3 Title = "ds3"
	TitleDarkSouls2 Title = "ds2"
)

const (
	ivSize           = aes.BlockSize
	ds2PayloadOffset = 0x20
)

var (
	// ErrUnknownTitle means the title has no registered cipher.
	ErrUnknownTitle = errors.New("unknown regulation title")
	// ErrEncryptUnsupported means the title cannot be re-encrypted.
	ErrEncryptUnsupported = errors.New("regulation encryption is not supported for this title")
	// ErrCiphertext means the encrypted input is too short or misaligned.
	ErrCiphertext = errors.New("invalid regulation ciphertext")
	// ErrInvalidIV means a stored IV could not be used.
	ErrInvalidIV = errors.New("invalid regulation IV")
)

var (
	keyEldenRing = mustHex("99BFFC366A6BC8C6F5827D093602D676C42892A01C207FB024D3AF4E493FEF99")
	keyDS3       = []byte("ds3#jn/8_7(rsY9pg55GFN7VFL#+3n/)")
	keyDS2       = mustHex("40178130DF0A94543309E171ECBF254C")
)

// Seal carries what Encrypt needs to reproduce the original ciphertext.
type Seal struct {
	// Title is the convention the plaintext came from.
	Title Title `json:"title" yaml:"title"`
	// IV is the initialization vector prefix of the encrypted file.
	IV []byte `json:"iv,omitempty" yaml:"iv,omitempty"`
}

// HexIV returns the IV as an upper-case hex string.
func (s Seal) HexIV() string {
	return fmt.Sprintf("%X", s.IV)
}

// ParseSeal rebuilds a seal from a title and hex IV.
func ParseSeal(title Title, ivHex string) (Seal, error) {
	if ivHex == "" {
		return Seal{Title: title}, nil
	}

	iv, err := hex.DecodeString(ivHex)
	if err != nil || len(iv) != ivSize {
		return Seal{}, fmt.Errorf("%w: %q", ErrInvalidIV, ivHex)
	}

	return Seal{Title: title, IV: iv}, nil
}

// ParseTitle validates a title name.
func ParseTitle(name string) (Title, error) {
	switch t := Title(name); t {
	case TitleEldenRing, TitleDarkSouls3, TitleDarkSouls2:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownTitle, name)
	}
}

// Decrypt returns the plaintext container and the seal needed to re-encrypt it.
func Decrypt(title Title, data []byte) ([]byte, Seal, error) {
	switch title {
	case TitleEldenRing:
		return decryptCBC(title, keyEldenRing, data)
	case TitleDarkSouls3:
		return decryptCBC(title, keyDS3, data)
	case TitleDarkSouls2:
		return decryptDS2(data)
	default:
		return nil, Seal{}, fmt.Errorf("%w: %q", ErrUnknownTitle, title)
	}
}

// Encrypt wraps plaintext for title, reusing seal.IV when present and
// generating a random IV otherwise.
func Encrypt(title Title, plaintext []byte, seal Seal) ([]byte, error) {
	switch title {
	case TitleEldenRing:
		return encryptCBC(keyEldenRing, plaintext, seal.IV)
	case TitleDarkSouls3:
		return encryptCBC(keyDS3, plaintext, seal.IV)
	case TitleDarkSouls2:
		return nil, ErrEncryptUnsupported
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTitle, title)
	}
}

// decryptCBC splits the IV prefix and decrypts the rest into a new buffer.
func decryptCBC(title Title, key []byte, data []byte) ([]byte, Seal, error) {
	if len(data) < 2*ivSize || (len(data)-ivSize)%aes.BlockSize != 0 {
		return nil, Seal{}, fmt.Errorf("%w: %d bytes", ErrCiphertext, len(data))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, Seal{}, fmt.Errorf("init cipher: %w", err)
	}

	iv := append([]byte(nil), data[:ivSize]...)
	out := make([]byte, len(data)-ivSize)
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, data[ivSize:])

	return out, Seal{Title: title, IV: iv}, nil
}

// encryptCBC zero-pads plaintext and prepends the IV.
func encryptCBC(key []byte, plaintext []byte, iv []byte) ([]byte, error) {
	if len(iv) == 0 {
		iv = make([]byte, ivSize)
		if _, err := rand.Read(iv); err != nil {
			return nil, fmt.Errorf("generate IV: %w", err)
		}
	}
	if len(iv) != ivSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidIV, len(iv))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}

	padded := len(plaintext)
	if rem := padded % aes.BlockSize; rem != 0 || padded == 0 {
		padded += aes.BlockSize - rem
	}

	out := make([]byte, ivSize+padded)
	copy(out, iv)
	copy(out[ivSize:], plaintext)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[ivSize:], out[ivSize:])

	return out, nil
}

// decryptDS2 accepts an already plaintext container, otherwise runs the CTR
// transform. The counter block is 0x80, the first 11 file bytes, and a
// trailing 1; the payload starts at 0x20.
func decryptDS2(data []byte) ([]byte, Seal, error) {
	if dcx.Is(data) || binder.IsBND4(data) {
		return append([]byte(nil), data...), Seal{Title: TitleDarkSouls2}, nil
	}
	if len(data) <= ds2PayloadOffset {
		return nil, Seal{}, fmt.Errorf("%w: %d bytes", ErrCiphertext, len(data))
	}

	block, err := aes.NewCipher(keyDS2)
	if err != nil {
		return nil, Seal{}, fmt.Errorf("init cipher: %w", err)
	}

	iv := make([]byte, ivSize)
	iv[0] = 0x80
	copy(iv[1:12], data[:11])
	iv[ivSize-1] = 1

	out := make([]byte, len(data)-ds2PayloadOffset)
	cipher.NewCTR(block, iv).XORKeyStream(out, data[ds2PayloadOffset:])

	return out, Seal{Title: TitleDarkSouls2, IV: iv}, nil
}

// mustHex decodes a compile-time hex constant.
func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}

	return b
}
