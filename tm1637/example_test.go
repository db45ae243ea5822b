// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tm1637_test

import (
	"context"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/GermanBionicSystems/segdisplay/tm1637"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

func Example() {
	if _, err := host.Init(); err != nil {
		log.Fatalf("failed to initialize periph: %v", err)
	}
	clk := gpioreg.ByName("GPIO6")
	dio := gpioreg.ByName("GPIO12")
	if clk == nil || dio == nil {
		log.Fatal("failed to find the pins")
	}
	dev, err := tm1637.New(clk, dio, &tm1637.DefaultOpts)
	if err != nil {
		log.Fatalf("failed to initialize tm1637: %v", err)
	}
	defer dev.Halt()
	for i := range 10 {
		now := time.Now()
		if err := dev.ShowTime(now.Hour(), now.Minute(), i%2 == 0, true, 4, 0); err != nil {
			log.Fatal(err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func ExampleNewDiscrete() {
	if _, err := host.Init(); err != nil {
		log.Fatalf("failed to initialize periph: %v", err)
	}
	var digits [4]gpio.PinOut
	for ix, name := range []string{"GPIO5", "GPIO6", "GPIO13", "GPIO19"} {
		if digits[ix] = gpioreg.ByName(name); digits[ix] == nil {
			log.Fatalf("failed to find %s", name)
		}
	}
	dev, err := tm1637.NewDiscrete(gpioreg.ByName("GPIO11"), gpioreg.ByName("GPIO8"), gpioreg.ByName("GPIO10"), digits, nil)
	if err != nil {
		log.Fatalf("failed to initialize the display: %v", err)
	}
	defer dev.Halt()
	if err := dev.ShowNumberFloat(-1.5, 1); err != nil {
		log.Fatal(err)
	}
	// The image stays visible while the digits are scanned.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := dev.Run(ctx, 2*time.Millisecond); err != context.Canceled {
		log.Fatal(err)
	}
}
