// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/buger/jsonparser"
	"gopkg.in/yaml.v3"
)

// Backends.
const (
	backendTM1637   = "tm1637"
	backendDiscrete = "discrete"
	backendSim      = "sim"
)

// Config holds the tool configuration.
type Config struct {
	Backend string `yaml:"backend"`
	Pins    Pins   `yaml:"pins"`
	// Brightness is the TM1637 brightness nibble, 8-15 being on.
	Brightness     int           `yaml:"brightness"`
	CheckAck       bool          `yaml:"check_ack"`
	DigitActiveLow bool          `yaml:"digit_active_low"`
	Refresh        time.Duration `yaml:"refresh"`
	// PNG, when set, is updated with an image of the display after every
	// command.
	PNG   string    `yaml:"png"`
	Label string    `yaml:"label"`
	Log   LogConfig `yaml:"log"`
}

// Pins names the GPIO pins as known to gpioreg.
type Pins struct {
	CLK    string   `yaml:"clk"`
	DIO    string   `yaml:"dio"`
	Latch  string   `yaml:"latch"`
	Data   string   `yaml:"data"`
	Digits []string `yaml:"digits"`
}

// LogConfig enables a rotating log file.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

func defaultConfig() *Config {
	return &Config{
		Backend:    backendTM1637,
		Pins:       Pins{CLK: "GPIO6", DIO: "GPIO12", Latch: "GPIO8", Data: "GPIO10", Digits: []string{"GPIO5", "GPIO13", "GPIO19", "GPIO26"}},
		Brightness: 0x0b,
		Refresh:    2 * time.Millisecond,
		Log:        LogConfig{MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28},
	}
}

// LoadError is returned when the configuration file can't be used.
type LoadError struct {
	File    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Cause != nil {
		return e.File + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.File + ": " + e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// loadConfig reads path over the defaults. Files ending in .json are
// accepted too.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = cfg.fromJSON(data)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, &LoadError{File: path, Message: "failed to parse", Cause: err}
	}
	if err := cfg.validate(); err != nil {
		return nil, &LoadError{File: path, Message: err.Error()}
	}
	return cfg, nil
}

// fromJSON sets the keys present in data, using the same names as the YAML
// form.
func (c *Config) fromJSON(data []byte) error {
	strs := []struct {
		v    *string
		keys []string
	}{
		{&c.Backend, []string{"backend"}},
		{&c.Pins.CLK, []string{"pins", "clk"}},
		{&c.Pins.DIO, []string{"pins", "dio"}},
		{&c.Pins.Latch, []string{"pins", "latch"}},
		{&c.Pins.Data, []string{"pins", "data"}},
		{&c.PNG, []string{"png"}},
		{&c.Label, []string{"label"}},
		{&c.Log.File, []string{"log", "file"}},
	}
	for _, s := range strs {
		v, err := jsonparser.GetString(data, s.keys...)
		if err == nil {
			*s.v = v
		} else if !errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return fmt.Errorf("%s: %w", strings.Join(s.keys, "."), err)
		}
	}
	ints := []struct {
		v    *int
		keys []string
	}{
		{&c.Brightness, []string{"brightness"}},
		{&c.Log.MaxSizeMB, []string{"log", "max_size_mb"}},
		{&c.Log.MaxBackups, []string{"log", "max_backups"}},
		{&c.Log.MaxAgeDays, []string{"log", "max_age_days"}},
	}
	for _, i := range ints {
		v, err := jsonparser.GetInt(data, i.keys...)
		if err == nil {
			*i.v = int(v)
		} else if !errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return fmt.Errorf("%s: %w", strings.Join(i.keys, "."), err)
		}
	}
	bools := []struct {
		v    *bool
		keys []string
	}{
		{&c.CheckAck, []string{"check_ack"}},
		{&c.DigitActiveLow, []string{"digit_active_low"}},
		{&c.Log.Compress, []string{"log", "compress"}},
	}
	for _, b := range bools {
		v, err := jsonparser.GetBoolean(data, b.keys...)
		if err == nil {
			*b.v = v
		} else if !errors.Is(err, jsonparser.KeyPathNotFoundError) {
			return fmt.Errorf("%s: %w", strings.Join(b.keys, "."), err)
		}
	}
	if v, err := jsonparser.GetString(data, "refresh"); err == nil {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("refresh: %w", err)
		}
		c.Refresh = d
	}
	digits, _, _, err := jsonparser.Get(data, "pins", "digits")
	if err == nil {
		var names []string
		var perr error
		_, err = jsonparser.ArrayEach(digits, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
			if dataType != jsonparser.String {
				perr = fmt.Errorf("pins.digits: %q is not a string", value)
				return
			}
			names = append(names, string(value))
		})
		if err != nil {
			return fmt.Errorf("pins.digits: %w", err)
		}
		if perr != nil {
			return perr
		}
		c.Pins.Digits = names
	}
	return nil
}

func (c *Config) validate() error {
	switch c.Backend {
	case backendTM1637, backendSim:
	case backendDiscrete:
		if len(c.Pins.Digits) != 4 {
			return fmt.Errorf("pins.digits: expected 4 pins, found %d", len(c.Pins.Digits))
		}
		if c.Refresh <= 0 {
			return fmt.Errorf("refresh: must be positive, found %s", c.Refresh)
		}
	default:
		return fmt.Errorf("backend: unknown %q, expected %s, %s or %s", c.Backend, backendTM1637, backendDiscrete, backendSim)
	}
	if c.Brightness < 0 || c.Brightness > 15 {
		return fmt.Errorf("brightness: must be in [0, 15], found %d", c.Brightness)
	}
	return nil
}
