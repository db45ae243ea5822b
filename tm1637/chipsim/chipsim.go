// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package chipsim emulates a TM1637 and its two pulled-up bus lines.
//
// The pins returned by Chip.CLK and Chip.DIO implement gpio.PinIO and can
// be passed to tm1637.New. The emulator decodes start and stop conditions
// and the bytes clocked in, acknowledges them and keeps the display memory
// and control register up to date.
package chipsim

import (
	"errors"
	"sync"
	"time"

	"github.com/GermanBionicSystems/segdisplay/segment"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Grids is the size of the display memory of a TM1637.
const Grids = 6

// Chip is an emulated TM1637.
type Chip struct {
	// Observe, when set, is called on every change the host makes to a
	// line, with the pin name and whether the line is released.
	Observe func(name string, released bool)

	mu   sync.Mutex
	clk  *Pin
	dio  *Pin
	mute bool

	// Bus levels as seen by the chip.
	clkHigh, dioHigh bool
	ackLow           bool

	active  bool
	bits    int
	cur     byte
	tx      []byte
	autoInc bool
	addr    int

	ram        [Grids]byte
	control    byte
	txs        [][]byte
	violations int
}

// New returns an idle chip with both lines released.
func New() *Chip {
	c := &Chip{clkHigh: true, dioHigh: true, autoInc: true}
	c.clk = &Pin{c: c, name: "CLK", number: 0}
	c.dio = &Pin{c: c, name: "DIO", number: 1}
	return c
}

// CLK returns the clock pin.
func (c *Chip) CLK() *Pin {
	return c.clk
}

// DIO returns the data pin.
func (c *Chip) DIO() *Pin {
	return c.dio
}

// SetAck controls whether the chip acknowledges bytes. It does by default.
func (c *Chip) SetAck(ack bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mute = !ack
}

// RAM returns the display memory.
func (c *Chip) RAM() [Grids]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ram
}

// Frame returns the first 4 grids of the display memory.
func (c *Chip) Frame() segment.Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	var f segment.Frame
	for ix := range f {
		f[ix] = segment.Mask(c.ram[ix])
	}
	return f
}

// Control returns the last display control command received.
func (c *Chip) Control() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.control
}

// On reports whether the display is on.
func (c *Chip) On() bool {
	return c.Control()&0x08 != 0
}

// Brightness returns the pulse width setting, 0-7.
func (c *Chip) Brightness() byte {
	return c.Control() & 0x07
}

// Transactions returns the bytes of every transaction completed by a stop
// condition.
func (c *Chip) Transactions() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.txs))
	for ix, tx := range c.txs {
		out[ix] = append([]byte{}, tx...)
	}
	return out
}

// Reset forgets the recorded transactions.
func (c *Chip) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.txs = nil
}

// Violations returns how many times the host drove a line high, which is
// forbidden on an open drain bus.
func (c *Chip) Violations() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.violations
}

func (c *Chip) level(p *Pin) gpio.Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p == c.clk {
		return gpio.Level(c.clkHigh)
	}
	return gpio.Level(c.dioHigh)
}

// drive is called by a pin when the host changes it.
func (c *Chip) drive(p *Pin, low bool) {
	c.mu.Lock()
	p.low = low
	c.settle()
	observe := c.Observe
	c.mu.Unlock()
	if observe != nil {
		observe(p.name, !low)
	}
}

// settle recomputes the line levels and runs the protocol on the edges.
func (c *Chip) settle() {
	clkHigh := !c.clk.low
	if clkHigh != c.clkHigh {
		c.clkHigh = clkHigh
		if clkHigh {
			c.risingClock()
		} else {
			c.fallingClock()
		}
	}
	dioHigh := !c.dio.low && !c.ackLow
	if dioHigh != c.dioHigh {
		c.dioHigh = dioHigh
		if c.clkHigh {
			if dioHigh {
				c.stopCondition()
			} else {
				c.startCondition()
			}
		}
	}
}

func (c *Chip) startCondition() {
	c.active = true
	c.bits = 0
	c.cur = 0
	c.tx = nil
}

func (c *Chip) stopCondition() {
	if !c.active {
		return
	}
	c.active = false
	c.ackLow = false
	c.txs = append(c.txs, c.tx)
	c.tx = nil
}

func (c *Chip) risingClock() {
	if !c.active {
		return
	}
	switch {
	case c.bits < 8:
		if c.dioHigh {
			c.cur |= 1 << c.bits
		}
		c.bits++
	case c.bits == 8:
		c.bits++
	}
}

func (c *Chip) fallingClock() {
	if !c.active {
		return
	}
	switch c.bits {
	case 8:
		// Acknowledge from the falling edge of the 8th clock to the falling
		// edge of the 9th.
		c.ackLow = !c.mute
	case 9:
		c.ackLow = false
		c.receive(c.cur)
		c.bits = 0
		c.cur = 0
	}
}

func (c *Chip) receive(b byte) {
	c.tx = append(c.tx, b)
	if len(c.tx) > 1 {
		if c.tx[0]&0xc0 == 0xc0 {
			c.ram[c.addr%Grids] = b
			if c.autoInc {
				c.addr++
			}
		}
		return
	}
	switch b & 0xc0 {
	case 0x40:
		c.autoInc = b&0x04 == 0
	case 0x80:
		c.control = b
	case 0xc0:
		c.addr = int(b & 0x0f)
	}
}

// Pin is one host pin wired to a chip line.
type Pin struct {
	c      *Chip
	name   string
	number int
	low    bool
	pull   gpio.Pull
}

func (p *Pin) String() string {
	return "chipsim." + p.name
}

// Halt implements conn.Resource.
func (p *Pin) Halt() error {
	return nil
}

// Name returns the name of the line.
func (p *Pin) Name() string {
	return p.name
}

// Number returns 0 for CLK and 1 for DIO.
func (p *Pin) Number() int {
	return p.number
}

// Deprecated: returns "In" or "Out".
func (p *Pin) Function() string {
	if p.Low() {
		return "Out"
	}
	return "In"
}

// Low reports whether the host drives the line low.
func (p *Pin) Low() bool {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	return p.low
}

// In releases the line.
func (p *Pin) In(pull gpio.Pull, edge gpio.Edge) error {
	p.c.mu.Lock()
	p.pull = pull
	p.c.mu.Unlock()
	p.c.drive(p, false)
	return nil
}

// Read returns the level of the line.
func (p *Pin) Read() gpio.Level {
	return p.c.level(p)
}

// WaitForEdge is not supported, it returns false immediately.
func (p *Pin) WaitForEdge(timeout time.Duration) bool {
	return false
}

// Pull returns the pull set by In.
func (p *Pin) Pull() gpio.Pull {
	p.c.mu.Lock()
	defer p.c.mu.Unlock()
	return p.pull
}

// DefaultPull returns gpio.PullUp, the module has external pull-ups.
func (p *Pin) DefaultPull() gpio.Pull {
	return gpio.PullUp
}

// Out drives the line low. Driving it high is recorded as a violation and
// released instead.
func (p *Pin) Out(l gpio.Level) error {
	if l == gpio.High {
		p.c.mu.Lock()
		p.c.violations++
		p.c.mu.Unlock()
	}
	p.c.drive(p, l == gpio.Low)
	return nil
}

// PWM is not supported.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return errors.New("chipsim: PWM not supported")
}

var _ gpio.PinIO = &Pin{}
