// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package segimage

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/GermanBionicSystems/segdisplay/segment"
	"github.com/google/go-cmp/cmp"
)

var (
	testOn  = color.RGBA{R: 255, A: 255}
	testOff = color.RGBA{G: 255, A: 255}
)

func rgba(c color.Color) color.RGBA {
	return color.RGBAModel.Convert(c).(color.RGBA)
}

// center returns the pixel at the middle of a segment of a digit.
func center(img image.Image, digit int, r rect, scale int) color.RGBA {
	s := float64(scale)
	ox := s + float64(digit*pitch)*s
	x := ox + (r.x+r.w/2)*s
	y := s + (r.y+r.h/2)*s
	return rgba(img.At(int(x), int(y)))
}

func TestRender(t *testing.T) {
	opts := &Opts{Scale: 8, On: testOn, Off: testOff}
	f := segment.Frame{segment.EncodeDigit(7), 0, segment.Minus, segment.SegDP}
	img, err := Render(f, opts)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(image.Rect(0, 0, 34*8, 12*8), img.Bounds()); diff != "" {
		t.Errorf("bounds difference (-want +got):\n%s", diff)
	}
	for _, tc := range []struct {
		digit int
		seg   int
		want  color.RGBA
	}{
		{0, 0, testOn},  // 7: A
		{0, 1, testOn},  // 7: B
		{0, 2, testOn},  // 7: C
		{0, 3, testOff}, // 7: D
		{0, 6, testOff}, // 7: G
		{1, 0, testOff},
		{2, 6, testOn},
		{2, 0, testOff},
		{3, 6, testOff},
	} {
		if got := center(img, tc.digit, segments[tc.seg], 8); got != tc.want {
			t.Errorf("digit %d segment %d expected %v found %v", tc.digit, tc.seg, tc.want, got)
		}
	}
	// Decimal point of the last digit.
	dp := rgba(img.At(8+3*pitch*8+int(6.75*8), 8+int(9.5*8)))
	if dp != testOn {
		t.Errorf("decimal point expected %v found %v", testOn, dp)
	}
}

func TestRenderColon(t *testing.T) {
	img, err := Render(segment.Frame{0, segment.SegColon, 0, 0}, &Opts{Scale: 8, On: testOn, Off: testOff})
	if err != nil {
		t.Fatal(err)
	}
	for _, y := range []int{3, 7} {
		if c := rgba(img.At(8+pitch*8+7*8, 8+y*8)); c != testOn {
			t.Errorf("colon dot at %d expected %v found %v", y, testOn, c)
		}
	}
}

func TestWritePNG(t *testing.T) {
	var buf bytes.Buffer
	opts := &Opts{Label: "12:34"}
	if err := WritePNG(&buf, segment.Time(12, 34, true, false), opts); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	want := Size(opts)
	if diff := cmp.Diff(image.Rectangle{Max: want}, img.Bounds()); diff != "" {
		t.Errorf("bounds difference (-want +got):\n%s", diff)
	}
	if want.Y != (digitH+2+labelH)*DefaultOpts.Scale {
		t.Errorf("the label should add %d rows, size is %v", labelH*DefaultOpts.Scale, want)
	}
}
