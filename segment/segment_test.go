// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package segment

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEncodeDigit(t *testing.T) {
	expected := []Mask{
		0x3f, 0x06, 0x5b, 0x4f, 0x66, 0x6d, 0x7d, 0x07,
		0x7f, 0x6f, 0x77, 0x7c, 0x39, 0x5e, 0x79, 0x71,
	}
	for v := range 16 {
		if got := EncodeDigit(byte(v)); got != expected[v] {
			t.Errorf("EncodeDigit(%d) expected 0x%02x found 0x%02x", v, expected[v], got)
		}
		if got := EncodeDigit(byte(v + 16)); got != expected[v] {
			t.Errorf("EncodeDigit(%d) should use the low nibble, found 0x%02x", v+16, got)
		}
	}
	if digitTable[minusIndex] != Minus {
		t.Errorf("minus glyph expected 0x%02x found 0x%02x", Minus, digitTable[minusIndex])
	}
}

func TestSelectDigit(t *testing.T) {
	for _, tc := range []struct {
		c    rune
		want Mask
	}{
		{'0', 0x3f},
		{'7', 0x07},
		{'9', 0x6f},
		{'a', 0x77},
		{'A', 0x77},
		{'b', 0x7c},
		{'B', 0x7c},
		{'f', 0x71},
		{'F', 0x71},
		{'H', 0x76},
		{'r', 0x50},
		{'i', 0x10},
		{'-', 0x40},
	} {
		if got := SelectDigit(tc.c); got != tc.want {
			t.Errorf("SelectDigit(%q) expected 0x%02x found 0x%02x", tc.c, tc.want, got)
		}
	}
}

func TestSelectDigitBlank(t *testing.T) {
	for _, c := range " .:_gGhIRxz*é\x00" {
		if got := SelectDigit(c); got != Off {
			t.Errorf("SelectDigit(%q) expected blank found 0x%02x", c, got)
		}
	}
}

func TestFrameTail(t *testing.T) {
	f := Frame{1, 2, 3, 4}
	for _, tc := range []struct {
		length int
		want   []Mask
	}{
		{-1, []Mask{}},
		{0, []Mask{}},
		{1, []Mask{4}},
		{3, []Mask{2, 3, 4}},
		{4, []Mask{1, 2, 3, 4}},
		{9, []Mask{1, 2, 3, 4}},
	} {
		if diff := cmp.Diff(tc.want, f.Tail(tc.length)); diff != "" {
			t.Errorf("Tail(%d) difference (-want +got):\n%s", tc.length, diff)
		}
	}
}

func TestFrameString(t *testing.T) {
	f := Frame{EncodeDigit(1), EncodeDigit(2) | SegColon, Off, Minus}
	if s := f.String(); s != "[06 db 00 40]" {
		t.Errorf("unexpected String() %q", s)
	}
}
