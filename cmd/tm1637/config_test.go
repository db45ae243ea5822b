// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GermanBionicSystems/segdisplay/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	path := writeFile(t, "tm1637.yaml", `
backend: discrete
pins:
  clk: GPIO11
  latch: GPIO8
  data: GPIO10
  digits: [GPIO2, GPIO3, GPIO4, GPIO17]
brightness: 9
digit_active_low: true
refresh: 3ms
log:
  file: /tmp/tm1637.log
  compress: true
`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, backendDiscrete, cfg.Backend)
	assert.Equal(t, Pins{
		CLK:    "GPIO11",
		DIO:    "GPIO12",
		Latch:  "GPIO8",
		Data:   "GPIO10",
		Digits: []string{"GPIO2", "GPIO3", "GPIO4", "GPIO17"},
	}, cfg.Pins)
	assert.Equal(t, 9, cfg.Brightness)
	assert.True(t, cfg.DigitActiveLow)
	assert.False(t, cfg.CheckAck)
	assert.Equal(t, 3*time.Millisecond, cfg.Refresh)
	assert.Equal(t, LogConfig{File: "/tmp/tm1637.log", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 28, Compress: true}, cfg.Log)
}

func TestLoadConfigJSON(t *testing.T) {
	path := writeFile(t, "tm1637.json", `{
  "backend": "sim",
  "pins": {"clk": "GPIO20", "digits": ["A", "B", "C", "D"]},
  "brightness": 15,
  "check_ack": true,
  "refresh": "1ms",
  "png": "out.png",
  "log": {"max_backups": 7}
}`)
	cfg, err := loadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, backendSim, cfg.Backend)
	assert.Equal(t, "GPIO20", cfg.Pins.CLK)
	assert.Equal(t, "GPIO12", cfg.Pins.DIO)
	assert.Equal(t, []string{"A", "B", "C", "D"}, cfg.Pins.Digits)
	assert.Equal(t, 15, cfg.Brightness)
	assert.True(t, cfg.CheckAck)
	assert.Equal(t, time.Millisecond, cfg.Refresh)
	assert.Equal(t, "out.png", cfg.PNG)
	assert.Equal(t, 7, cfg.Log.MaxBackups)
	assert.Equal(t, 10, cfg.Log.MaxSizeMB)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		message string
	}{
		{"bad yaml", "a.yaml", "backend: [", "failed to parse"},
		{"bad json", "a.json", `{"brightness": "high"}`, "failed to parse"},
		{"bad json digits", "a.json", `{"pins": {"digits": [1, 2, 3, 4]}}`, "failed to parse"},
		{"unknown backend", "a.yaml", "backend: hd44780", "unknown"},
		{"brightness", "a.yaml", "brightness: 16", "brightness"},
		{"digits", "a.yaml", "backend: discrete\npins:\n  digits: [GPIO1]", "expected 4 pins"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadConfig(writeFile(t, tc.file, tc.content))
			var le *LoadError
			require.True(t, errors.As(err, &le), "expected a LoadError, got %v", err)
			assert.Contains(t, le.Error(), tc.message)
		})
	}

	_, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseArgs(t *testing.T) {
	path := writeFile(t, "tm1637.yaml", "backend: sim\nbrightness: 9\nlabel: from file\n")
	cfg, verbose, rest, err := parseArgs([]string{"-config", path, "-brightness", "12", "-v", "str", "Hi"})
	require.NoError(t, err)
	assert.True(t, verbose)
	assert.Equal(t, []string{"str", "Hi"}, rest)
	assert.Equal(t, backendSim, cfg.Backend)
	assert.Equal(t, 12, cfg.Brightness, "flags override the file")
	assert.Equal(t, "from file", cfg.Label, "unset flags keep the file value")

	cfg, _, _, err = parseArgs([]string{"-backend", "discrete", "-digits", "D1,D2,D3,D4", "-refresh", "5ms"})
	require.NoError(t, err)
	assert.Equal(t, []string{"D1", "D2", "D3", "D4"}, cfg.Pins.Digits)
	assert.Equal(t, 5*time.Millisecond, cfg.Refresh)

	_, _, _, err = parseArgs([]string{"-backend", "discrete", "-digits", "D1,D2"})
	assert.Error(t, err)
	_, _, _, err = parseArgs([]string{"-backend", "lcd"})
	assert.Error(t, err)
}

func TestOpenSim(t *testing.T) {
	out := filepath.Join(t.TempDir(), "display.png")
	d, err := openDisplay(&Config{Backend: backendSim, Brightness: 0x0a, PNG: out})
	require.NoError(t, err)
	require.NoError(t, d.dev.ShowString("12.34"))
	require.NoError(t, d.refresh())
	// The decimal point after digit 1 is shown on digit 0.
	d1 := segment.EncodeDigit(1) | segment.SegDP
	assert.Equal(t, segment.Frame{d1, segment.EncodeDigit(2), segment.EncodeDigit(3), segment.EncodeDigit(4)}, d.dev.Frame())

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	_, err = png.Decode(f)
	assert.NoError(t, err)
	assert.NoError(t, d.Halt())
}
