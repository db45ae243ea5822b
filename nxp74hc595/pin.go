// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package nxp74hc595

import (
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
)

// Pin is one parallel output, Q0 to Q7. Writing it shifts the whole
// register out again.
type Pin struct {
	dev    *Dev
	name   string
	number int
}

// Halt implements conn.Resource.
func (p *Pin) Halt() error {
	return nil
}

// Name returns the name of the output, like "74HC595_GPO3".
func (p *Pin) Name() string {
	return p.name
}

// Number returns the output index, 0 for Q0.
func (p *Pin) Number() int {
	return p.number
}

// Deprecated: returns "Out"
func (p *Pin) Function() string {
	return "Out"
}

// Out sets the output. The other outputs keep their level.
func (p *Pin) Out(l gpio.Level) error {
	mask := gpio.GPIOValue(1 << p.number)
	var v gpio.GPIOValue
	if l {
		v = mask
	}
	return p.dev.write(v, mask)
}

// level returns the level last written to the output.
func (p *Pin) level() gpio.Level {
	p.dev.mu.Lock()
	defer p.dev.mu.Unlock()
	return gpio.Level(p.dev.value&(1<<p.number) != 0)
}

// PWM is not supported by the device.
func (p *Pin) PWM(duty gpio.Duty, f physic.Frequency) error {
	return ErrNotImplemented
}

func (p *Pin) String() string {
	return p.name
}
