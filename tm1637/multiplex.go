// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tm1637

import (
	"fmt"
	"time"

	"github.com/GermanBionicSystems/segdisplay/nxp74hc595"
	"github.com/GermanBionicSystems/segdisplay/segment"
	"periph.io/x/conn/v3/gpio"
)

// multiplexer is the discrete backend: a 74HC595 on the segment lines and
// one enable pin per digit, lit one at a time.
type multiplexer struct {
	sr     *nxp74hc595.Dev
	digits [segment.Digits]gpio.PinOut
	active gpio.Level
	sleep  func(time.Duration)

	buf  segment.Frame
	scan int
}

func newMultiplexer(sr *nxp74hc595.Dev, digits [segment.Digits]gpio.PinOut, activeLow bool, sleep func(time.Duration)) (*multiplexer, error) {
	m := &multiplexer{sr: sr, digits: digits, active: gpio.Level(!activeLow), sleep: sleep}
	if err := m.allOff(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *multiplexer) allOff() error {
	for ix, p := range m.digits {
		if err := p.Out(!m.active); err != nil {
			return fmt.Errorf("tm1637: digit %d: %w", ix, err)
		}
	}
	return nil
}

// write only updates the buffer. brightness is not supported by the
// hardware.
func (m *multiplexer) write(segs []segment.Mask, pos int, brightness byte) error {
	for k, s := range segs {
		if pos+k >= segment.Digits {
			break
		}
		m.buf[pos+k] = s
	}
	return nil
}

// update lights the next digit.
//
// The segments are latched while every digit is off so the previous digit's
// image never shows on the new one.
func (m *multiplexer) update() error {
	if err := m.allOff(); err != nil {
		return err
	}
	if err := m.sr.WriteByte(byte(m.buf[m.scan])); err != nil {
		return fmt.Errorf("tm1637: %w", err)
	}
	m.sleep(bitDelay)
	if err := m.digits[m.scan].Out(m.active); err != nil {
		return fmt.Errorf("tm1637: digit %d: %w", m.scan, err)
	}
	m.scan = (m.scan + 1) % segment.Digits
	return nil
}

func (m *multiplexer) halt(brightness byte) error {
	return m.allOff()
}

func (m *multiplexer) String() string {
	return fmt.Sprintf("Multiplexed{%s}", m.sr)
}
