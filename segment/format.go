// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package segment

import (
	"math"
	"strconv"
	"strings"
)

// DefaultPrecision is the number of fractional digits FloatText formats
// before trimming trailing zeros when no precision is requested.
const DefaultPrecision = 2

// Range accepted by Int.
const (
	MinInt = -999
	MaxInt = 9999
)

var divisors = [Digits]int{1000, 100, 10, 1}

// Dec formats a non-negative decimal number right aligned.
//
// Unless leadingZero is set, zeros before the first significant digit are
// blank. The units digit is always shown. Negative numbers are not
// supported and produce an unspecified, but harmless, frame.
func Dec(num int, leadingZero bool) Frame {
	var f Frame
	leading := true
	for k, divisor := range divisors {
		d := num / divisor
		if d == 0 {
			if leadingZero || !leading || k == Digits-1 {
				f[k] = EncodeDigit(0)
			} else {
				f[k] = Off
			}
			continue
		}
		f[k] = EncodeDigit(byte(d))
		num -= d * divisor
		leading = false
	}
	return f
}

// Int formats num with a minus glyph for negative values.
//
// ok is false when num is outside [MinInt, MaxInt]; the frame is then blank
// and must not be displayed. The minus glyph is placed right before the
// first digit of a negative number. leadingZero only applies to positive
// numbers.
func Int(num int, leadingZero bool) (f Frame, ok bool) {
	if num > MaxInt || num < MinInt {
		return f, false
	}
	if num < 0 {
		n := -num
		switch {
		case n <= 9:
			f[2] = Minus
		case n <= 99:
			f[1] = Minus
			f[2] = EncodeDigit(byte(n / 10))
		default:
			f[0] = Minus
			f[1] = EncodeDigit(byte(n / 100))
			n %= 100
			f[2] = EncodeDigit(byte(n / 10))
		}
		f[3] = EncodeDigit(byte(n % 10))
		return f, true
	}

	n := num
	f[0] = EncodeDigit(byte(n / 1000))
	n %= 1000
	f[1] = EncodeDigit(byte(n / 100))
	n %= 100
	f[2] = EncodeDigit(byte(n / 10))
	f[3] = EncodeDigit(byte(n % 10))
	if !leadingZero {
		zero := EncodeDigit(0)
		for k := 0; k < Digits-1 && f[k] == zero; k++ {
			f[k] = Off
		}
	}
	return f, true
}

// FloatText returns the text Float displays.
//
// The absolute value is formatted with prec fractional digits. A negative
// prec formats DefaultPrecision digits and trims the trailing zeros, keeping
// the decimal point so "3.00" becomes "3.".
func FloatText(num float64, prec int) string {
	var s string
	if prec < 0 {
		s = strconv.FormatFloat(math.Abs(num), 'f', DefaultPrecision, 64)
		s = strings.TrimRight(s, "0")
	} else {
		s = strconv.FormatFloat(math.Abs(num), 'f', prec, 64)
	}
	if num < 0 {
		s = "-" + s
	}
	return s
}

// Float formats num as text, see FloatText and Text.
func Float(num float64, prec int) Frame {
	return Text(FloatText(num, prec))
}

// Text formats a short string right aligned.
//
// Characters are mapped with SelectDigit. A '.' does not use a position: it
// lights the decimal point of the digit holding the next character on its
// left. Since bit 7 of position 1 is the colon, a decimal point landing there
// is moved to position 0. Characters that don't fit are dropped from the
// left.
func Text(s string) Frame {
	var f Frame
	pos := Digits - 1
	rs := []rune(s)
	for i := len(rs) - 1; i >= 0; i-- {
		c := rs[i]
		if c == '.' {
			if pos == 1 {
				f[0] |= SegDP
			} else {
				f[pos] |= SegDP
			}
			continue
		}
		f[pos] |= SelectDigit(c)
		pos--
		if pos < 0 {
			break
		}
	}
	return f
}

// Time formats two 2 digit fields, typically hours and minutes.
//
// Each field is capped at 99. A field of -1 is left blank. colon lights the
// colon between the fields. Without leadingZero, the tens of left are blank
// when left is below 10.
func Time(left, right int, colon, leadingZero bool) Frame {
	var f Frame
	left = min(left, 99)
	right = min(right, 99)
	if left != -1 {
		f[0] = EncodeDigit(byte(left / 10))
		f[1] = EncodeDigit(byte(left % 10))
	}
	if right != -1 {
		f[2] = EncodeDigit(byte(right / 10))
		f[3] = EncodeDigit(byte(right % 10))
	}
	if colon {
		f[1] |= SegColon
	}
	if !leadingZero && left <= 9 {
		f[0] = Off
	}
	return f
}

// Blank returns an empty frame with optional overlays.
//
// dp1 is the decimal point of the rightmost digit, dp2 of the one on its
// left and dp3 of the leftmost digit.
func Blank(colon, dp1, dp2, dp3 bool) Frame {
	return Frame{
		overlay(dp3, SegDP),
		overlay(colon, SegColon),
		overlay(dp2, SegDP),
		overlay(dp1, SegDP),
	}
}

// Pattern returns raw segment images. dig1 is the rightmost digit.
func Pattern(dig1, dig2, dig3, dig4 Mask) Frame {
	return Frame{dig4, dig3, dig2, dig1}
}

// Fill repeats p on the selected digits. dig1 is the rightmost digit.
func Fill(p Mask, dig1, dig2, dig3, dig4 bool) Frame {
	return Frame{overlay(dig4, p), overlay(dig3, p), overlay(dig2, p), overlay(dig1, p)}
}

func overlay(on bool, m Mask) Mask {
	if on {
		return m
	}
	return Off
}
