// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package tm1637

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// LineState is the state of an open drain bus line.
type LineState uint8

const (
	// Released sets the pin as an input. The pull-up brings the line high
	// unless the other side drives it low.
	Released LineState = iota
	// DrivenLow sets the pin as an output at gpio.Low.
	DrivenLow
)

func (s LineState) String() string {
	switch s {
	case Released:
		return "Released"
	case DrivenLow:
		return "DrivenLow"
	default:
		return fmt.Sprintf("LineState(%d)", uint8(s))
	}
}

// line is one open drain bus line on a host pin.
type line struct {
	p     gpio.PinIO
	state LineState
}

func (l *line) set(s LineState) error {
	var err error
	if s == DrivenLow {
		err = l.p.Out(gpio.Low)
	} else {
		err = l.p.In(gpio.PullUp, gpio.NoEdge)
	}
	if err != nil {
		return fmt.Errorf("tm1637: %s %s: %w", l.p, s, err)
	}
	l.state = s
	return nil
}

func (l *line) read() gpio.Level {
	return l.p.Read()
}
