// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package screen7seg draws a 4 digit 7-segment display on the terminal
// (stdout) using ANSI color codes.
//
// Useful while you are waiting for your TM1637 module to come by mail, and
// to watch what tm1637/chipsim received.
package screen7seg

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/segdisplay/segment"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3"
)

const (
	rows = 5
	// Left vertical, horizontal, right vertical and the dot column.
	cols = 4
)

// Opts represents the options available for this display.
type Opts struct {
	Palette *ansi256.Palette
	// On is the color of a lit segment at full brightness.
	On color.Color
	// Off is the color of an unlit segment.
	Off color.Color

	_ struct{}
}

// DefaultOpts is a red display on a dark background.
var DefaultOpts = Opts{
	On:  color.NRGBA{R: 255, G: 32, A: 255},
	Off: color.NRGBA{R: 24, G: 24, B: 24, A: 255},
}

// Dev is a 7-segment display emulator that outputs to the console.
type Dev struct {
	w       io.Writer
	palette ansi256.Palette
	on      color.NRGBA
	off     color.NRGBA

	lit   color.NRGBA
	frame segment.Frame
	drawn bool
	buf   bytes.Buffer
}

// New returns a Dev that displays at the console.
func New(opts *Opts) *Dev {
	return newDev(colorable.NewColorableStdout(), opts)
}

func newDev(w io.Writer, opts *Opts) *Dev {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	p := o.Palette
	if p == nil {
		p = ansi256.Default
	}
	if o.On == nil {
		o.On = DefaultOpts.On
	}
	if o.Off == nil {
		o.Off = DefaultOpts.Off
	}
	on := toNRGBA(o.On)
	return &Dev{w: w, palette: *p, on: on, off: toNRGBA(o.Off), lit: on}
}

func (d *Dev) String() string {
	return "Screen7Seg"
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so the console is not corrupted.
func (d *Dev) Halt() error {
	_, err := d.w.Write([]byte("\033[0m\n"))
	return err
}

// SetBrightness dims the lit segments the way a TM1637 does: bit 3 turns
// the display on, bits 0-2 select the pulse width.
func (d *Dev) SetBrightness(b byte) error {
	if b&0x08 == 0 {
		d.lit = d.off
	} else {
		d.lit = scale(d.on, int(b&0x07)+1, 8)
	}
	return d.refresh()
}

// Show draws f. The previous image is overwritten in place.
func (d *Dev) Show(f segment.Frame) error {
	d.frame = f
	return d.refresh()
}

// cells returns which cells of a digit are lit. digit is the index of the
// digit in the frame, the colon being drawn after digit 1.
func cells(m segment.Mask, digit int) [rows][cols]bool {
	on := func(s segment.Mask) bool { return m&s != 0 }
	a, b, c, dd, e, f, g := on(segment.SegA), on(segment.SegB), on(segment.SegC), on(segment.SegD), on(segment.SegE), on(segment.SegF), on(segment.SegG)
	var out [rows][cols]bool
	out[0] = [cols]bool{a || f, a, a || b}
	out[1] = [cols]bool{f, false, b}
	out[2] = [cols]bool{f || e || g, g, b || c || g}
	out[3] = [cols]bool{e, false, c}
	out[4] = [cols]bool{dd || e, dd, dd || c}
	if on(segment.SegDP) {
		if digit == 1 {
			out[1][3] = true
			out[3][3] = true
		} else {
			out[4][3] = true
		}
	}
	return out
}

func (d *Dev) refresh() error {
	// This code is designed to minimize the amount of memory allocated per call.
	d.buf.Reset()
	if d.drawn {
		fmt.Fprintf(&d.buf, "\033[%dA", rows)
	}
	on := d.palette.Block(d.lit)
	off := d.palette.Block(d.off)
	var grid [segment.Digits][rows][cols]bool
	for ix, m := range d.frame {
		grid[ix] = cells(m, ix)
	}
	for r := range rows {
		_, _ = d.buf.WriteString("\r")
		for ix := range grid {
			for _, lit := range grid[ix][r] {
				if lit {
					_, _ = d.buf.WriteString(on)
				} else {
					_, _ = d.buf.WriteString(off)
				}
			}
		}
		_, _ = d.buf.WriteString("\033[0m\n")
	}
	d.drawn = true
	_, err := d.buf.WriteTo(d.w)
	return err
}

func toNRGBA(c color.Color) color.NRGBA {
	return color.NRGBAModel.Convert(c).(color.NRGBA)
}

// scale multiplies the color channels of c by num/den.
func scale(c color.NRGBA, num, den int) color.NRGBA {
	return color.NRGBA{
		R: uint8(int(c.R) * num / den),
		G: uint8(int(c.G) * num / den),
		B: uint8(int(c.B) * num / den),
		A: c.A,
	}
}

var _ conn.Resource = &Dev{}
var _ fmt.Stringer = &Dev{}
