// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package segdisplay is a container for the 4 digit 7-segment display
// drivers and their tooling.
//
// The driver lives in package tm1637, the glyph table and number formatting
// in package segment. screen7seg and segimage render a segment.Frame to a
// terminal or an image for use without hardware.
package segdisplay
