// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tm1637

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// bitDelay is the settle time after every line transition.
const bitDelay = 50 * time.Microsecond

// bus implements the TM1637 2 wire protocol on two open drain lines.
//
// The first pin error is kept and later transitions are skipped until the
// error is collected with flush.
type bus struct {
	clk   line
	dio   line
	sleep func(time.Duration)
	err   error
	nacks int
}

func newBus(clk, dio gpio.PinIO, sleep func(time.Duration)) (*bus, error) {
	b := &bus{clk: line{p: clk}, dio: line{p: dio}, sleep: sleep}
	b.set(&b.clk, Released)
	b.set(&b.dio, Released)
	return b, b.flush()
}

func (b *bus) set(l *line, s LineState) {
	if b.err != nil {
		return
	}
	b.err = l.set(s)
}

func (b *bus) wait() {
	b.sleep(bitDelay)
}

// flush returns the pending error, if any, and clears it.
func (b *bus) flush() error {
	err := b.err
	b.err = nil
	return err
}

// start pulls DIO low while CLK is released.
func (b *bus) start() {
	b.set(&b.dio, DrivenLow)
	b.wait()
}

// stop releases DIO while CLK is released.
func (b *bus) stop() {
	b.set(&b.dio, DrivenLow)
	b.wait()
	b.set(&b.clk, Released)
	b.wait()
	b.set(&b.dio, Released)
	b.wait()
}

// writeByte clocks out v LSB first and returns true when the chip
// acknowledged it by pulling DIO low on the ninth clock.
func (b *bus) writeByte(v byte) bool {
	for range 8 {
		b.set(&b.clk, DrivenLow)
		b.wait()
		if v&0x01 != 0 {
			b.set(&b.dio, Released)
		} else {
			b.set(&b.dio, DrivenLow)
		}
		b.wait()
		b.set(&b.clk, Released)
		b.wait()
		v >>= 1
	}

	b.set(&b.clk, DrivenLow)
	b.set(&b.dio, Released)
	b.wait()
	b.set(&b.clk, Released)
	b.wait()
	acked := b.err == nil && b.dio.read() == gpio.Low
	if acked {
		// DIO stays low after the chip lets go of it.
		b.set(&b.dio, DrivenLow)
	} else {
		b.nacks++
	}
	b.wait()
	b.set(&b.clk, DrivenLow)
	b.wait()
	return acked
}
