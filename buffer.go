// Copyright 2020 Sebastian Lehmann. All rights reserved.
// Use of this source code is governed by a GNU-style
// license that can be found in the LICENSE file.

package stlinkprobe

import (
	"bytes"
	"fmt"
)

// Buffer collects the bytes of one command block.
type Buffer struct {
	bytes.Buffer
}

type Endian uint8

const (
	littleEndian Endian = 0
	bigEndian    Endian = 1
)

func (e Endian) String() string {
	if e == littleEndian {
		return "little endian"
	} else {
		return "big endian"
	}
}

func NewBuffer(initSize int) *Buffer {
	b := &Buffer{}

	b.Grow(initSize)

	return b
}

func (buf *Buffer) WriteUint32LE(value uint32) {
	buf.WriteByte(byte(value))
	buf.WriteByte(byte(value >> 8))
	buf.WriteByte(byte(value >> 16))
	buf.WriteByte(byte(value >> 24))
}

func (buf *Buffer) WriteUint16LE(value uint16) {
	buf.WriteByte(byte(value))
	buf.WriteByte(byte(value >> 8))
}

func convertToUint16(buf []byte, e Endian) (uint16, error) {
	if len(buf) < 2 {
		return 0, fmt.Errorf("could not read uint16 %v from %d bytes: %w", e, len(buf), ErrNotEnoughBytesRead)
	}

	if e == littleEndian {
		return uint16(buf[0]) | (uint16(buf[1]) << 8), nil
	} else {
		return uint16(buf[1]) | (uint16(buf[0]) << 8), nil
	}
}

func convertToUint32(buf []byte, e Endian) (uint32, error) {
	if len(buf) < 4 {
		return 0, fmt.Errorf("could not read uint32 %v from %d bytes: %w", e, len(buf), ErrNotEnoughBytesRead)
	}

	if e == littleEndian {
		return uint32(buf[0]) | (uint32(buf[1]) << 8) | (uint32(buf[2]) << 16) | (uint32(buf[3]) << 24), nil
	} else {
		return uint32(buf[3]) | (uint32(buf[2]) << 8) | (uint32(buf[1]) << 16) | (uint32(buf[0]) << 24), nil
	}
}

// uint32Words splits buf into little endian words, dropping a trailing
// partial word.
func uint32Words(buf []byte) []uint32 {
	words := make([]uint32, 0, len(buf)/4)

	for i := 0; i+4 <= len(buf); i += 4 {
		w, _ := convertToUint32(buf[i:], littleEndian)
		words = append(words, w)
	}

	return words
}
