// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// tm1637 writes to a 4 digit 7-segment display.
//
// Usage:
//
//	tm1637 [flags] [command args...]
//
// Without a command, an interactive console is started. Run "tm1637 help"
// for the list of commands.
//
// Examples:
//
//	# Show the time on a TM1637 module
//	tm1637 -clk GPIO6 -dio GPIO12 time now
//
//	# Try the commands without hardware
//	tm1637 -backend sim
//
//	# Multiplexed display described in a config file
//	tm1637 -config /etc/tm1637.yaml int -42
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/GermanBionicSystems/segdisplay/cmd/tm1637/interactive"
	"gopkg.in/natefinch/lumberjack.v2"
)

func setupLogging(cfg LogConfig, verbose bool) {
	log.SetFlags(log.Ltime | log.Lmicroseconds)
	if verbose {
		log.SetFlags(log.Ltime | log.Lmicroseconds | log.Lshortfile)
	}
	if cfg.File != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		})
	}
}

// parseArgs returns the configuration from the defaults, the -config file
// and the flags set in args, in that order of precedence.
func parseArgs(args []string) (cfg *Config, verbose bool, rest []string, err error) {
	def := defaultConfig()
	fs := flag.NewFlagSet("tm1637", flag.ContinueOnError)
	configFile := fs.String("config", "", "YAML or JSON configuration file")
	v := fs.Bool("v", false, "verbose logging")
	var f Config
	digits := fs.String("digits", strings.Join(def.Pins.Digits, ","), "discrete backend digit enable pins, leftmost first")
	fs.StringVar(&f.Backend, "backend", def.Backend, "tm1637, discrete or sim")
	fs.StringVar(&f.Pins.CLK, "clk", def.Pins.CLK, "clock pin")
	fs.StringVar(&f.Pins.DIO, "dio", def.Pins.DIO, "TM1637 data pin")
	fs.StringVar(&f.Pins.Latch, "latch", def.Pins.Latch, "74HC595 latch pin")
	fs.StringVar(&f.Pins.Data, "data", def.Pins.Data, "74HC595 data pin")
	fs.IntVar(&f.Brightness, "brightness", def.Brightness, "brightness, 8-15 is on")
	fs.BoolVar(&f.CheckAck, "check-ack", false, "fail when the TM1637 doesn't acknowledge")
	fs.BoolVar(&f.DigitActiveLow, "digit-active-low", false, "digit enable pins are active low")
	fs.DurationVar(&f.Refresh, "refresh", def.Refresh, "discrete backend refresh period per digit")
	fs.StringVar(&f.PNG, "png", "", "write an image of the display to this file after every command")
	fs.StringVar(&f.Label, "label", "", "text printed under the digits of the image")
	fs.StringVar(&f.Log.File, "log", "", "log to this file, rotated")
	if err := fs.Parse(args); err != nil {
		return nil, false, nil, err
	}

	cfg = def
	if *configFile != "" {
		if cfg, err = loadConfig(*configFile); err != nil {
			return nil, false, nil, err
		}
	}
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "digits":
			cfg.Pins.Digits = strings.Split(*digits, ",")
		case "backend":
			cfg.Backend = f.Backend
		case "clk":
			cfg.Pins.CLK = f.Pins.CLK
		case "dio":
			cfg.Pins.DIO = f.Pins.DIO
		case "latch":
			cfg.Pins.Latch = f.Pins.Latch
		case "data":
			cfg.Pins.Data = f.Pins.Data
		case "brightness":
			cfg.Brightness = f.Brightness
		case "check-ack":
			cfg.CheckAck = f.CheckAck
		case "digit-active-low":
			cfg.DigitActiveLow = f.DigitActiveLow
		case "refresh":
			cfg.Refresh = f.Refresh
		case "png":
			cfg.PNG = f.PNG
		case "label":
			cfg.Label = f.Label
		case "log":
			cfg.Log.File = f.Log.File
		}
	})
	if err := cfg.validate(); err != nil {
		return nil, false, nil, err
	}
	return cfg, *v, fs.Args(), nil
}

func mainImpl() error {
	cfg, verbose, args, err := parseArgs(os.Args[1:])
	if err != nil {
		return err
	}
	if len(args) != 0 && args[0] == "help" {
		(&interactive.Shell{}).Help(os.Stdout)
		return nil
	}
	setupLogging(cfg.Log, verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := openDisplay(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.Halt(); err != nil {
			log.Printf("halt: %v", err)
		}
	}()
	log.Printf("display %s, backend %s", d.dev, cfg.Backend)

	if cfg.Backend == backendDiscrete {
		done := make(chan error, 1)
		go func() {
			done <- d.dev.Run(ctx, cfg.Refresh)
		}()
		defer func() {
			stop()
			if err := <-done; !errors.Is(err, context.Canceled) {
				log.Printf("refresh: %v", err)
			}
		}()
	}

	sh := &interactive.Shell{Dev: d.dev, Refreshed: d.refresh}
	if len(args) != 0 {
		if err := sh.Exec(args); err != nil {
			return err
		}
		if cfg.Backend == backendDiscrete {
			// The image only stays while the digits are scanned.
			fmt.Fprintln(os.Stderr, "refreshing, press Ctrl-C to exit")
			<-ctx.Done()
		}
		return nil
	}
	return sh.Run(ctx, "tm1637> ")
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "tm1637: %s.\n", err)
		os.Exit(1)
	}
}
