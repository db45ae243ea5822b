// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/GermanBionicSystems/segdisplay/screen7seg"
	"github.com/GermanBionicSystems/segdisplay/segimage"
	"github.com/GermanBionicSystems/segdisplay/segment"
	"github.com/GermanBionicSystems/segdisplay/tm1637"
	"github.com/GermanBionicSystems/segdisplay/tm1637/chipsim"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// display is an opened Dev and what to do after each command.
type display struct {
	dev       *tm1637.Dev
	refreshed []func() error
	halt      []func() error
}

func (d *display) refresh() error {
	var errs []error
	for _, f := range d.refreshed {
		errs = append(errs, f())
	}
	return errors.Join(errs...)
}

func (d *display) Halt() error {
	errs := []error{d.dev.Halt()}
	for _, f := range d.halt {
		errs = append(errs, f())
	}
	return errors.Join(errs...)
}

func openDisplay(cfg *Config) (*display, error) {
	opts := tm1637.DefaultOpts
	opts.Brightness = byte(cfg.Brightness)
	opts.CheckAck = cfg.CheckAck
	opts.DigitActiveLow = cfg.DigitActiveLow

	var d *display
	var err error
	switch cfg.Backend {
	case backendSim:
		d, err = openSim(&opts)
	case backendDiscrete:
		d, err = openDiscrete(cfg, &opts)
	default:
		d, err = openTM1637(cfg, &opts)
	}
	if err != nil {
		return nil, err
	}
	if cfg.PNG != "" {
		img := &segimage.Opts{Label: cfg.Label}
		d.refreshed = append(d.refreshed, func() error {
			return writePNG(cfg.PNG, d.dev.Frame(), img)
		})
	}
	return d, nil
}

// openSim wires the driver to an emulated TM1637 shown on the terminal.
func openSim(opts *tm1637.Opts) (*display, error) {
	chip := chipsim.New()
	// The emulator has no timing constraint.
	opts.Sleep = func(time.Duration) {}
	dev, err := tm1637.New(chip.CLK(), chip.DIO(), opts)
	if err != nil {
		return nil, err
	}
	scr := screen7seg.New(nil)
	d := &display{dev: dev, halt: []func() error{scr.Halt}}
	d.refreshed = append(d.refreshed, func() error {
		if v := chip.Violations(); v != 0 {
			return fmt.Errorf("sim: a line was driven high %d times", v)
		}
		if err := scr.Show(chip.Frame()); err != nil {
			return err
		}
		return scr.SetBrightness(chip.Control() & 0x0f)
	})
	return d, nil
}

func openTM1637(cfg *Config, opts *tm1637.Opts) (*display, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}
	clk, err := pinByName(cfg.Pins.CLK)
	if err != nil {
		return nil, err
	}
	dio, err := pinByName(cfg.Pins.DIO)
	if err != nil {
		return nil, err
	}
	dev, err := tm1637.New(clk, dio, opts)
	if err != nil {
		return nil, err
	}
	return &display{dev: dev}, nil
}

func openDiscrete(cfg *Config, opts *tm1637.Opts) (*display, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}
	var pins [3]gpio.PinIO
	for ix, name := range []string{cfg.Pins.CLK, cfg.Pins.Latch, cfg.Pins.Data} {
		p, err := pinByName(name)
		if err != nil {
			return nil, err
		}
		pins[ix] = p
	}
	var digits [segment.Digits]gpio.PinOut
	for ix, name := range cfg.Pins.Digits {
		p, err := pinByName(name)
		if err != nil {
			return nil, err
		}
		digits[ix] = p
	}
	dev, err := tm1637.NewDiscrete(pins[0], pins[1], pins[2], digits, opts)
	if err != nil {
		return nil, err
	}
	return &display{dev: dev}, nil
}

func pinByName(name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("failed to find pin %q", name)
	}
	return p, nil
}

func writePNG(path string, f segment.Frame, opts *segimage.Opts) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := segimage.WritePNG(out, f, opts); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
