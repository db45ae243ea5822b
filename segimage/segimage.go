// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package segimage renders a 4 digit 7-segment display to an image.
//
// The image can be saved as a PNG to preview what a display would show.
package segimage

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/GermanBionicSystems/segdisplay/segment"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/goregular"
)

// Opts holds the rendering options.
type Opts struct {
	// Scale is the thickness of a segment in pixels. Defaults to 10.
	Scale int
	// On is the color of a lit segment.
	On color.Color
	// Off is the color of an unlit segment.
	Off color.Color
	// Background fills the image.
	Background color.Color
	// Label is printed under the digits when not empty.
	Label string
}

// DefaultOpts is a red display.
var DefaultOpts = Opts{
	Scale:      10,
	On:         color.NRGBA{R: 255, G: 32, A: 255},
	Off:        color.NRGBA{R: 40, G: 40, B: 40, A: 255},
	Background: color.Black,
}

// Layout in segment thickness units.
const (
	digitW = 6
	digitH = 10
	// Room for the decimal point and colon after a digit.
	pitch  = digitW + 2
	labelH = 3
)

// rect is a segment position within a digit cell.
type rect struct {
	x, y, w, h float64
}

var segments = [7]rect{
	{1, 0, 4, 1},     // A
	{5, 1, 1, 3.5},   // B
	{5, 5.5, 1, 3.5}, // C
	{1, 9, 4, 1},     // D
	{0, 5.5, 1, 3.5}, // E
	{0, 1, 1, 3.5},   // F
	{1, 4.5, 4, 1},   // G
}

var loadFont = sync.OnceValues(func() (*truetype.Font, error) {
	return truetype.Parse(goregular.TTF)
})

// Size returns the size of the image Render produces.
func Size(opts *Opts) image.Point {
	o := withDefaults(opts)
	s := o.Scale
	p := image.Point{X: (segment.Digits*pitch + 2) * s, Y: (digitH + 2) * s}
	if o.Label != "" {
		p.Y += labelH * s
	}
	return p
}

// Render draws f.
func Render(f segment.Frame, opts *Opts) (image.Image, error) {
	dc, err := render(f, opts)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// WritePNG renders f and encodes it as a PNG to w.
func WritePNG(w io.Writer, f segment.Frame, opts *Opts) error {
	dc, err := render(f, opts)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

func withDefaults(opts *Opts) Opts {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Scale <= 0 {
		o.Scale = DefaultOpts.Scale
	}
	if o.On == nil {
		o.On = DefaultOpts.On
	}
	if o.Off == nil {
		o.Off = DefaultOpts.Off
	}
	if o.Background == nil {
		o.Background = DefaultOpts.Background
	}
	return o
}

func render(f segment.Frame, opts *Opts) (*gg.Context, error) {
	o := withDefaults(opts)
	size := Size(&o)
	s := float64(o.Scale)
	dc := gg.NewContext(size.X, size.Y)
	dc.SetColor(o.Background)
	dc.Clear()
	pick := func(lit bool) {
		if lit {
			dc.SetColor(o.On)
		} else {
			dc.SetColor(o.Off)
		}
	}
	for ix, m := range f {
		ox := s + float64(ix*pitch)*s
		oy := s
		for bit, r := range segments {
			pick(m&(1<<bit) != 0)
			dc.DrawRoundedRectangle(ox+r.x*s, oy+r.y*s, r.w*s, r.h*s, s/3)
			dc.Fill()
		}
		pick(m&segment.SegDP != 0)
		if ix == 1 {
			dc.DrawCircle(ox+7*s, oy+3*s, s/2)
			dc.DrawCircle(ox+7*s, oy+7*s, s/2)
		} else {
			dc.DrawCircle(ox+6.75*s, oy+9.5*s, s/2)
		}
		dc.Fill()
	}
	if o.Label != "" {
		font, err := loadFont()
		if err != nil {
			return nil, fmt.Errorf("segimage: font: %w", err)
		}
		dc.SetFontFace(truetype.NewFace(font, &truetype.Options{Size: 2 * s}))
		dc.SetColor(o.On)
		dc.DrawStringAnchored(o.Label, float64(size.X)/2, float64(size.Y)-float64(labelH)*s/2, 0.5, 0.5)
	}
	return dc, nil
}
