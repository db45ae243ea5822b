// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tm1637

import (
	"errors"
	"fmt"

	"github.com/GermanBionicSystems/segdisplay/segment"
)

const (
	// Data command: write to display register, auto increment address.
	cmdData byte = 0x40
	// Address command, OR'd with the first grid (0-3).
	cmdAddress byte = 0xc0
	// Display control command, OR'd with the brightness nibble.
	cmdDisplay byte = 0x80

	displayOn  byte = 0x08
	pulseWidth byte = 0x07
)

// Brightness levels. Bit 3 turns the display on, bits 0-2 are the pulse
// width.
const (
	LightOff       byte = 0x00
	LightDark      byte = displayOn
	LightNormal    byte = displayOn | 1
	LightBright    byte = displayOn | 2
	LightBrightest byte = displayOn | 3
	LightMax       byte = displayOn | pulseWidth
)

// ErrNoAck is returned when Opts.CheckAck is set and the controller didn't
// acknowledge a byte.
var ErrNoAck = errors.New("tm1637: no acknowledge")

// command sends a single byte transaction.
func (b *bus) command(cmd byte) {
	b.start()
	b.writeByte(cmd)
	b.stop()
}

// writeFrame updates the digits starting at pos with segs and resends the
// display control.
func (b *bus) writeFrame(segs []segment.Mask, pos int, brightness byte) {
	b.command(cmdData)

	b.start()
	b.writeByte(cmdAddress | byte(pos)&0x03)
	for _, s := range segs {
		b.writeByte(byte(s))
	}
	b.stop()

	b.command(cmdDisplay | brightness&0x0f)
}

// controller is the TM1637 backend.
type controller struct {
	b        *bus
	checkAck bool
}

func (c *controller) write(segs []segment.Mask, pos int, brightness byte) error {
	c.b.nacks = 0
	c.b.writeFrame(segs, pos, brightness)
	return c.result()
}

func (c *controller) update() error {
	return nil
}

// halt turns the display off and leaves both lines released.
func (c *controller) halt(brightness byte) error {
	c.b.nacks = 0
	c.b.command(cmdDisplay | brightness&pulseWidth)
	return c.result()
}

func (c *controller) result() error {
	if err := c.b.flush(); err != nil {
		return err
	}
	if c.checkAck && c.b.nacks != 0 {
		return fmt.Errorf("%w: %d byte(s)", ErrNoAck, c.b.nacks)
	}
	return nil
}

func (c *controller) String() string {
	return fmt.Sprintf("TM1637{%s, %s}", c.b.clk.p, c.b.dio.p)
}
