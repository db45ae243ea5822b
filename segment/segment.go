// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package segment converts digits, characters, numbers and times into the
// segment images of a 4 digit 7-segment display.
//
// Segment layout:
//
//	    A
//	   ---
//	F |   | B
//	   -G-
//	E |   | C
//	   ---
//	    D
package segment

import (
	"fmt"
	"strconv"
	"strings"
)

// Mask is the image of a single digit. Bit 0 is segment A through bit 6 for
// segment G. Bit 7 lights the colon when set on digit 1, and the decimal
// point on any other digit.
type Mask byte

const (
	SegA Mask = 1 << iota
	SegB
	SegC
	SegD
	SegE
	SegF
	SegG
	// SegDP is the decimal point after the digit.
	SegDP
)

// SegColon is the colon between the two digit pairs. It shares bit 7 with
// SegDP and must be set on digit 1.
const SegColon = SegDP

// Glyphs that EncodeDigit can't produce.
const (
	Off    Mask = 0
	Minus  Mask = SegG
	H      Mask = SegB | SegC | SegE | SegF | SegG
	LowerR Mask = SegE | SegG
	LowerI Mask = SegE
)

// Patterns for SetPattern style raw writes.
const (
	DashTop     = SegA
	DashMiddle  = SegG
	DashBottom  = SegD
	ColumnLeft  = SegF | SegE
	ColumnRight = SegB | SegC
)

// Digits is the number of digit positions on the display.
const Digits = 4

// Frame is the content of the whole display. Index 0 is the leftmost digit.
type Frame [Digits]Mask

// minusIndex is the position of the minus glyph in digitTable.
const minusIndex = 16

//	XGFEDCBA
var digitTable = [...]Mask{
	0b00111111, // 0
	0b00000110, // 1
	0b01011011, // 2
	0b01001111, // 3
	0b01100110, // 4
	0b01101101, // 5
	0b01111101, // 6
	0b00000111, // 7
	0b01111111, // 8
	0b01101111, // 9
	0b01110111, // A
	0b01111100, // b
	0b00111001, // C
	0b01011110, // d
	0b01111001, // E
	0b01110001, // F
	0b01000000, // -
}

// EncodeDigit returns the segment image of v, 0-9 as decimal digits and
// 10-15 as the hexadecimal letters A to F. Only the low nibble of v is used.
func EncodeDigit(v byte) Mask {
	return digitTable[v&0x0f]
}

// SelectDigit returns the segment image of an ASCII character.
//
// Hexadecimal digits of either case, '-', 'H', 'r' and 'i' are supported.
// Anything else is blank.
func SelectDigit(c rune) Mask {
	switch {
	case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		v, err := strconv.ParseUint(string(c), 16, 8)
		if err != nil {
			return Off
		}
		return EncodeDigit(byte(v))
	}
	switch c {
	case 'H':
		return H
	case 'r':
		return LowerR
	case 'i':
		return LowerI
	case '-':
		return digitTable[minusIndex]
	}
	return Off
}

// Tail returns the rightmost length digits of the frame. length is clamped
// to [0, Digits].
func (f Frame) Tail(length int) []Mask {
	length = min(max(length, 0), Digits)
	return f[Digits-length:]
}

func (f Frame) String() string {
	s := make([]string, Digits)
	for ix, m := range f {
		s[ix] = fmt.Sprintf("%02x", byte(m))
	}
	return "[" + strings.Join(s, " ") + "]"
}
