// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// The 74HC595 is a serial shift register. It converts a serial stream to a
// parallel output, here the segment lines of a multiplexed 7-segment
// display.
//
// The register can be fed from an SPI bus, with CS wired to the storage
// clock, or from three plain GPIO pins (shift clock, serial data and latch)
// using NewGPIO.
//
// # Datasheet
//
// https://www.nexperia.com/product/74HC595D
//
// There's a nice tutorial on the device here:
//
// https://docs.arduino.cc/tutorials/communication/guide-to-shift-out/
package nxp74hc595

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/pin"
	"periph.io/x/conn/v3/spi"
)

const (
	devMask = 0xff
	devName = "74HC595"
	numPins = 8
)

var (
	ErrNotImplemented = errors.New("nxp74hc595: not implemented")
	errHalted         = errors.New("nxp74hc595: device halted")
)

// shifter moves one byte into the register and latches it on the outputs.
type shifter interface {
	shift(v byte) error
	String() string
}

// spiShifter latches when CS goes high at the end of the transaction.
type spiShifter struct {
	conn spi.Conn
}

func (s *spiShifter) shift(v byte) error {
	return s.conn.Tx([]byte{v}, nil)
}

func (s *spiShifter) String() string {
	return s.conn.String()
}

// gpioShifter bit-bangs the serial input MSB first. Both the shift clock and
// the latch act on their rising edge.
type gpioShifter struct {
	clock, data, latch gpio.PinOut
}

func (s *gpioShifter) shift(v byte) error {
	var err error
	out := func(p gpio.PinOut, l gpio.Level) {
		if err == nil {
			err = p.Out(l)
		}
	}
	out(s.latch, gpio.Low)
	for bit := 7; bit >= 0; bit-- {
		out(s.data, gpio.Level(v&(1<<bit) != 0))
		out(s.clock, gpio.High)
		out(s.clock, gpio.Low)
	}
	out(s.latch, gpio.High)
	return err
}

func (s *gpioShifter) String() string {
	return fmt.Sprintf("%s,%s,%s", s.clock, s.data, s.latch)
}

// Dev represents a 74hc595 device.
type Dev struct {
	Pins []gpio.PinOut

	mu    sync.Mutex
	out   shifter
	value gpio.GPIOValue
}

// Group implements gpio.Group and provides a way to write to multiple GPO pins
// in a single transaction.
type Group struct {
	dev  *Dev
	pins []Pin
}

// New accepts an spi.Conn and returns a new 74HC595 device.
func New(conn spi.Conn) (*Dev, error) {
	if conn == nil {
		return nil, errors.New("nxp74hc595: nil spi.Conn")
	}
	return newDev(&spiShifter{conn: conn}), nil
}

// NewGPIO returns a 74HC595 device driven by three GPIO pins: clock to SHCP,
// data to DS and latch to STCP.
func NewGPIO(clock, data, latch gpio.PinOut) (*Dev, error) {
	if clock == nil || data == nil || latch == nil {
		return nil, errors.New("nxp74hc595: nil pin")
	}
	s := &gpioShifter{clock: clock, data: data, latch: latch}
	for _, p := range []gpio.PinOut{clock, latch} {
		if err := p.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("nxp74hc595: %s: %w", p, err)
		}
	}
	return newDev(s), nil
}

func newDev(s shifter) *Dev {
	// setting value to an invalid initial state forces the first write to
	// happen, even if it's 0.
	dev := &Dev{out: s, value: gpio.GPIOValue(1 << 9), Pins: make([]gpio.PinOut, numPins)}
	for ix := range numPins {
		dev.Pins[ix] = &Pin{number: ix, name: fmt.Sprintf("%s_GPO%d", devName, ix), dev: dev}
	}
	return dev
}

// write does the low-level write to the device. Outputs that don't change
// are not written again.
func (dev *Dev) write(value, mask gpio.GPIOValue) error {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.out == nil {
		return errHalted
	}
	newValue := (dev.value & (devMask ^ mask)) | (value & mask)
	if dev.value == newValue {
		return nil
	}
	err := dev.out.shift(byte(newValue))
	if err == nil {
		dev.value = newValue
	}
	return err
}

// WriteByte sets all 8 outputs at once, Q0 being bit 0.
func (dev *Dev) WriteByte(v byte) error {
	return dev.write(gpio.GPIOValue(v), devMask)
}

// Group returns a subset of pins on the device as a gpio.Group. A Group
// allows you to write to multiple pins in a single transaction.
func (dev *Dev) Group(pins ...int) (gpio.Group, error) {
	gr := Group{dev: dev, pins: make([]Pin, len(pins))}
	for ix, pinNumber := range pins {
		if pinNumber < 0 || pinNumber >= len(dev.Pins) {
			return nil, fmt.Errorf("nxp74hc595: invalid pin %d", pinNumber)
		}
		if p, ok := dev.Pins[pinNumber].(*Pin); ok {
			gr.pins[ix] = *p
		}
	}
	return &gr, nil
}

// Halt disables the device
func (dev *Dev) Halt() (err error) {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	dev.Pins = make([]gpio.PinOut, 0)
	dev.out = nil
	return
}

func (dev *Dev) String() string {
	dev.mu.Lock()
	defer dev.mu.Unlock()
	if dev.out == nil {
		return devName
	}
	return devName + "{" + dev.out.String() + "}"
}

// Return the set of GPO Pins that are associated with this group.
func (gr *Group) Pins() []pin.Pin {
	result := make([]pin.Pin, len(gr.pins))
	for ix := range gr.pins {
		result[ix] = &gr.pins[ix]
	}
	return result
}

// Given an offset of a pin into the group, return that pin.
func (gr *Group) ByOffset(offset int) pin.Pin {
	return &gr.pins[offset]
}

// Given a name of a pin in the group, return that pin.
func (gr *Group) ByName(name string) pin.Pin {
	for ix := range gr.pins {
		if gr.pins[ix].name == name {
			return &gr.pins[ix]
		}
	}
	return nil
}

// Given the pin number of a pin within the group, return that pin.
func (gr *Group) ByNumber(number int) pin.Pin {
	for ix := range gr.pins {
		if gr.pins[ix].number == number {
			return &gr.pins[ix]
		}
	}
	return nil
}

// Out writes the value to the device. Only pins identified by mask are
// modified. A zero mask selects every pin of the group.
func (gr *Group) Out(value, mask gpio.GPIOValue) error {
	if mask == 0 {
		mask = gpio.GPIOValue(1<<len(gr.pins)) - 1
	}
	wrMask := gpio.GPIOValue(0)
	wrValue := gpio.GPIOValue(0)
	for ix := range len(gr.pins) {
		currentBit := gpio.GPIOValue(1 << ix)
		if (mask & currentBit) == currentBit {
			wrMask |= gpio.GPIOValue(1 << gr.pins[ix].number)
		}
		if (value & currentBit) == currentBit {
			wrValue |= gpio.GPIOValue(1 << gr.pins[ix].number)
		}
	}
	return gr.dev.write(wrValue, wrMask)
}

// Read is not available for this device.
func (gr *Group) Read(mask gpio.GPIOValue) (gpio.GPIOValue, error) {
	return 0, ErrNotImplemented
}

// WaitForEdge is not available for this device.
func (gr *Group) WaitForEdge(timeout time.Duration) (int, gpio.Edge, error) {
	return 0, gpio.NoEdge, ErrNotImplemented
}

// Halt frees the group's resources and prevents it from being used again.
func (gr *Group) Halt() error {
	gr.pins = nil
	return nil
}

func (gr *Group) String() string {
	s := gr.dev.String() + "[ "
	for ix := range len(gr.pins) {
		s += fmt.Sprintf("%d ", gr.pins[ix].number)
	}
	s += "]"
	return s
}

var _ gpio.PinOut = &Pin{}
var _ gpio.Group = &Group{}
