// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tm1637

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/GermanBionicSystems/segdisplay/nxp74hc595"
	"github.com/GermanBionicSystems/segdisplay/segment"
	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3/cpu"
)

// Opts holds the configuration options.
type Opts struct {
	// Brightness is the initial brightness, see SetBrightness.
	Brightness byte
	// CheckAck makes writes fail with ErrNoAck when the TM1637 doesn't
	// acknowledge a byte. By default a missing acknowledge is ignored.
	CheckAck bool
	// DigitActiveLow inverts the digit enable pins of the discrete backend.
	DigitActiveLow bool
	// Sleep waits for the bit delay. It must be accurate to a few
	// microseconds. Defaults to cpu.Nanospin.
	Sleep func(time.Duration)
	// Clock drives Run. Defaults to the real clock.
	Clock clockwork.Clock
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Brightness: LightBrightest,
}

// backend writes segments to one kind of hardware.
type backend interface {
	write(segs []segment.Mask, pos int, brightness byte) error
	update() error
	halt(brightness byte) error
	String() string
}

// Dev is a 4 digit 7-segment display.
type Dev struct {
	mu         sync.Mutex
	b          backend
	brightness byte
	clock      clockwork.Clock
	// shadow is what was written last, see Frame.
	shadow segment.Frame
}

// New returns a display driven by a TM1637 on the clk and dio pins.
//
// Both pins are released and rely on the pull-ups of the module.
func New(clk, dio gpio.PinIO, opts *Opts) (*Dev, error) {
	if clk == nil || dio == nil {
		return nil, errors.New("tm1637: nil pin")
	}
	o := withDefaults(opts)
	b, err := newBus(clk, dio, o.Sleep)
	if err != nil {
		return nil, err
	}
	return newDev(&controller{b: b, checkAck: o.CheckAck}, o), nil
}

// NewDiscrete returns a display driven by a 74HC595 on the clk, latch and
// data pins, and one enable pin per digit, digits[0] being the leftmost.
//
// Every digit is turned off. The image is only visible while Update is
// called continuously, see Run.
//
// The enable pins are active high. Modules where a digit is off while its
// pin is high, like PNP transistor switches or common cathodes wired to the
// pins directly, need Opts.DigitActiveLow.
func NewDiscrete(clk, latch, data gpio.PinOut, digits [segment.Digits]gpio.PinOut, opts *Opts) (*Dev, error) {
	for _, p := range digits {
		if p == nil {
			return nil, errors.New("tm1637: nil digit pin")
		}
	}
	o := withDefaults(opts)
	sr, err := nxp74hc595.NewGPIO(clk, data, latch)
	if err != nil {
		return nil, fmt.Errorf("tm1637: %w", err)
	}
	m, err := newMultiplexer(sr, digits, o.DigitActiveLow, o.Sleep)
	if err != nil {
		return nil, err
	}
	return newDev(m, o), nil
}

func withDefaults(opts *Opts) Opts {
	o := DefaultOpts
	if opts != nil {
		o = *opts
	}
	if o.Sleep == nil {
		o.Sleep = cpu.Nanospin
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	return o
}

func newDev(b backend, o Opts) *Dev {
	return &Dev{b: b, brightness: o.Brightness, clock: o.Clock}
}

func (d *Dev) String() string {
	return d.b.String()
}

// SetBrightness sets the brightness used by the next write. Only the low
// nibble is sent: bit 3 turns the display on and bits 0-2 select one of 8
// levels. See LightDark to LightMax.
func (d *Dev) SetBrightness(brightness byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.brightness = brightness
}

// Brightness returns the brightness set last.
func (d *Dev) Brightness() byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.brightness
}

// SetSegments writes raw segment images starting at digit pos, 0 being the
// leftmost. At most 4 segments are written, pos is used modulo 4. Other
// digits are not modified.
func (d *Dev) SetSegments(segs []segment.Mask, pos int) error {
	if len(segs) > segment.Digits {
		segs = segs[:segment.Digits]
	}
	pos &= 0x03
	d.mu.Lock()
	defer d.mu.Unlock()
	for k, m := range segs {
		if pos+k < segment.Digits {
			d.shadow[pos+k] = m
		}
	}
	return d.b.write(segs, pos, d.brightness)
}

// Frame returns the segments written so far. Digits written past the last
// one are not tracked.
func (d *Dev) Frame() segment.Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.shadow
}

// SetFrame writes the whole display.
func (d *Dev) SetFrame(f segment.Frame) error {
	return d.SetSegments(f[:], 0)
}

// ShowNumberDec displays a non-negative decimal number. length is the
// number of digits written and pos the first digit written. The number must
// fit in length digits.
func (d *Dev) ShowNumberDec(num int, leadingZero bool, length, pos int) error {
	return d.SetSegments(segment.Dec(num, leadingZero).Tail(length), pos)
}

// ShowNumberInt displays num in [-999, 9999], with a minus sign when
// negative. Numbers out of range leave the display untouched.
func (d *Dev) ShowNumberInt(num int, leadingZero bool, length, pos int) error {
	f, ok := segment.Int(num, leadingZero)
	if !ok {
		return nil
	}
	return d.SetSegments(f.Tail(length), pos)
}

// ShowNumberFloat displays num with prec fractional digits. With a negative
// prec, trailing zeros are trimmed.
func (d *Dev) ShowNumberFloat(num float64, prec int) error {
	return d.SetFrame(segment.Float(num, prec))
}

// ShowString displays the last 4 characters of s. See segment.Text.
func (d *Dev) ShowString(s string) error {
	return d.SetFrame(segment.Text(s))
}

// ShowTime displays two 2 digit fields, -1 leaving a field blank. See
// segment.Time.
func (d *Dev) ShowTime(left, right int, colon, leadingZero bool, length, pos int) error {
	return d.SetSegments(segment.Time(left, right, colon, leadingZero).Tail(length), pos)
}

// Clear blanks the rightmost length digits, optionally keeping the colon and
// decimal points. dp1 is the rightmost decimal point.
func (d *Dev) Clear(colon, dp1, dp2, dp3 bool, length int) error {
	return d.SetSegments(segment.Blank(colon, dp1, dp2, dp3).Tail(length), 0)
}

// SetPattern writes one raw segment image per digit. dig1 is the rightmost
// digit.
func (d *Dev) SetPattern(dig1, dig2, dig3, dig4 segment.Mask) error {
	return d.SetFrame(segment.Pattern(dig1, dig2, dig3, dig4))
}

// SetPatternAll writes p on the selected digits and blanks the others. dig1
// is the rightmost digit.
func (d *Dev) SetPatternAll(p segment.Mask, dig1, dig2, dig3, dig4 bool) error {
	return d.SetFrame(segment.Fill(p, dig1, dig2, dig3, dig4))
}

// Update lights the next digit of a display created with NewDiscrete. It is
// a no-op on a TM1637.
func (d *Dev) Update() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.b.update()
}

// Run calls Update every period until ctx is canceled. Errors are logged.
//
// It returns immediately on a TM1637, which keeps the image by itself.
func (d *Dev) Run(ctx context.Context, period time.Duration) error {
	if _, ok := d.b.(*controller); ok {
		return nil
	}
	if period <= 0 {
		return fmt.Errorf("tm1637: invalid refresh period %s", period)
	}
	t := d.clock.NewTicker(period)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.Chan():
			if err := d.Update(); err != nil {
				log.Printf("tm1637: refresh: %v", err)
			}
		}
	}
}

// Halt implements conn.Resource.
//
// It turns the display off.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.b.halt(d.brightness)
}

var _ conn.Resource = &Dev{}
var _ fmt.Stringer = &Dev{}
