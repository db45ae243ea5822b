// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package interactive

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/GermanBionicSystems/segdisplay/segment"
	"github.com/GermanBionicSystems/segdisplay/tm1637"
	"github.com/GermanBionicSystems/segdisplay/tm1637/chipsim"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShell(t *testing.T) (*Shell, *chipsim.Chip) {
	t.Helper()
	chip := chipsim.New()
	dev, err := tm1637.New(chip.CLK(), chip.DIO(), &tm1637.Opts{
		Brightness: tm1637.LightBrightest,
		Sleep:      func(time.Duration) {},
	})
	require.NoError(t, err)
	return &Shell{Dev: dev}, chip
}

func TestExec(t *testing.T) {
	d := segment.EncodeDigit
	tests := []struct {
		name string
		args []string
		want segment.Frame
	}{
		{"dec", []string{"dec", "42"}, segment.Frame{0, 0, d(4), d(2)}},
		{"dec leading zero", []string{"dec", "42", "true"}, segment.Frame{d(0), d(0), d(4), d(2)}},
		{"dec length pos", []string{"dec", "7", "false", "1", "0"}, segment.Frame{d(7), 0, 0, 0}},
		{"int", []string{"int", "-12"}, segment.Frame{0, segment.Minus, d(1), d(2)}},
		// The decimal point of digit 1 moves to digit 0, bit 7 of digit 1 is the colon.
		{"float", []string{"float", "3.25", "2"}, segment.Frame{segment.SegDP, d(3), d(2), d(5)}},
		{"float default", []string{"float", "-1.5"}, segment.Frame{0, segment.Minus, d(1) | segment.SegDP, d(5)}},
		{"str", []string{"STR", "Err"}, segment.Frame{0, d(14), segment.LowerR, segment.LowerR}},
		{"time", []string{"time", "12", "34", "true"}, segment.Frame{d(1), d(2) | segment.SegColon, d(3), d(4)}},
		{"clear", []string{"clear", "true"}, segment.Frame{0, segment.SegColon, 0, 0}},
		{"raw", []string{"raw", "2", "0x76", "3f"}, segment.Frame{0, 0, segment.H, d(0)}},
		{"pattern", []string{"pattern", "1", "40", "8", "30"}, segment.Frame{segment.ColumnLeft, segment.DashBottom, segment.DashMiddle, segment.DashTop}},
		{"fill", []string{"fill", "40", "1", "0", "0", "1"}, segment.Frame{segment.DashMiddle, 0, 0, segment.DashMiddle}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sh, chip := newShell(t)
			refreshed := 0
			sh.Refreshed = func() error {
				refreshed++
				return nil
			}
			require.NoError(t, sh.Exec(tc.args))
			assert.Equal(t, tc.want, chip.Frame())
			assert.Equal(t, 1, refreshed)
		})
	}
}

func TestExecTimeNow(t *testing.T) {
	sh, chip := newShell(t)
	sh.Clock = clockwork.NewFakeClockAt(time.Date(2025, 3, 1, 9, 5, 0, 0, time.Local))
	require.NoError(t, sh.Exec([]string{"time", "now"}))
	d := segment.EncodeDigit
	assert.Equal(t, segment.Frame{d(0), d(9) | segment.SegColon, d(0), d(5)}, chip.Frame())
}

func TestExecBrightness(t *testing.T) {
	sh, chip := newShell(t)
	require.NoError(t, sh.Exec([]string{"str", "88"}))
	require.NoError(t, sh.Exec([]string{"bright", "9"}))
	assert.Equal(t, byte(0x89), chip.Control())
	// The image is sent again with the new brightness.
	assert.Equal(t, segment.Frame{0, 0, segment.EncodeDigit(8), segment.EncodeDigit(8)}, chip.Frame())

	require.NoError(t, sh.Exec([]string{"halt"}))
	assert.False(t, chip.On())
}

func TestExecErrors(t *testing.T) {
	sh, chip := newShell(t)
	tests := [][]string{
		nil,
		{"bogus"},
		{"dec"},
		{"dec", "x"},
		{"dec", "-1"},
		{"int", "10000"},
		{"float", "pi"},
		{"time", "1", "2", "maybe"},
		{"raw", "0", "zz"},
		{"pattern", "1", "2"},
		{"fill", "40"},
		{"bright", "16"},
		{"halt", "now"},
	}
	for _, args := range tests {
		assert.Error(t, sh.Exec(args), "%q", args)
	}
	assert.Empty(t, chip.Transactions())

	err := sh.Exec([]string{"dec", "x"})
	assert.ErrorIs(t, err, ErrUsage)
	assert.Contains(t, err.Error(), "dec <num>")
}

func TestLoop(t *testing.T) {
	sh, chip := newShell(t)
	lines := []string{"help", "", "str 1234", "nope", "quit", "str 9999"}
	readLine := func() (string, error) {
		if len(lines) == 0 {
			return "", io.EOF
		}
		l := lines[0]
		lines = lines[1:]
		return l, nil
	}
	var out bytes.Buffer
	require.NoError(t, sh.loop(context.Background(), readLine, &out))
	assert.Equal(t, []string{"str 9999"}, lines, "the loop should stop at quit")
	assert.Contains(t, out.String(), "Display commands:")
	assert.Contains(t, out.String(), `error: unknown command "nope"`)
	d := segment.EncodeDigit
	assert.Equal(t, segment.Frame{d(1), d(2), d(3), d(4)}, chip.Frame())
}

func TestLoopCanceled(t *testing.T) {
	sh, _ := newShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	readLine := func() (string, error) {
		t.Error("no line should be read once canceled")
		return "", io.EOF
	}
	require.NoError(t, sh.loop(ctx, readLine, io.Discard))
}

// blockingInput is a console whose reads block until it is closed.
type blockingInput struct {
	closed chan struct{}
	closes int
}

func (b *blockingInput) Close() error {
	b.closes++
	close(b.closed)
	return nil
}

func (b *blockingInput) readLine() (string, error) {
	<-b.closed
	return "", io.EOF
}

func TestLoopCanceledWhileReading(t *testing.T) {
	sh, _ := newShell(t)
	in := &blockingInput{closed: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	closeIn := closeOnDone(ctx, in)
	done := make(chan error, 1)
	go func() {
		done <- sh.loop(ctx, in.readLine, io.Discard)
	}()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("the loop should return once canceled")
	}
	require.NoError(t, closeIn())
	assert.Equal(t, 1, in.closes, "the console should be closed once")
}

func TestCloseOnDoneStop(t *testing.T) {
	in := &blockingInput{closed: make(chan struct{})}
	closeIn := closeOnDone(context.Background(), in)
	require.NoError(t, closeIn())
	assert.Equal(t, 1, in.closes)
}
