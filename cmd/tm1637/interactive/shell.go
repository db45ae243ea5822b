// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package interactive provides the command interpreter of the tm1637 tool,
// either for a single command or as a readline console.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/GermanBionicSystems/segdisplay/segment"
	"github.com/GermanBionicSystems/segdisplay/tm1637"
	"github.com/chzyer/readline"
	"github.com/jonboulle/clockwork"
)

// ErrUsage is returned for malformed commands.
var ErrUsage = errors.New("usage")

// Shell runs display commands on a Dev.
type Shell struct {
	Dev *tm1637.Dev
	// Refreshed, when set, is called after every command that wrote to the
	// display.
	Refreshed func() error
	// Clock provides the time of "time now". Defaults to the real clock.
	Clock clockwork.Clock
}

type command struct {
	usage string
	help  string
	run   func(s *Shell, args []string) error
}

var commands = map[string]command{
	"dec":     {"dec <num> [leadingZero] [length] [pos]", "show a non-negative number", cmdDec},
	"int":     {"int <num> [leadingZero] [length] [pos]", "show a number in [-999, 9999]", cmdInt},
	"float":   {"float <num> [prec]", "show a number with a decimal point", cmdFloat},
	"str":     {"str <text>", "show the last 4 characters of text", cmdStr},
	"time":    {"time <left|now> [right] [colon] [leadingZero]", "show two 2 digit fields", cmdTime},
	"clear":   {"clear [colon] [dp1] [dp2] [dp3] [length]", "blank the display", cmdClear},
	"raw":     {"raw <pos> <hex>...", "write raw segment bytes", cmdRaw},
	"pattern": {"pattern <hex1> <hex2> <hex3> <hex4>", "write one pattern per digit, 1 is rightmost", cmdPattern},
	"fill":    {"fill <hex> <dig1> <dig2> <dig3> <dig4>", "write a pattern on the selected digits", cmdFill},
	"bright":  {"bright <0-15>", "set the brightness, 8-15 is on", cmdBright},
	"halt":    {"halt", "turn the display off", cmdHalt},
}

// Exec runs one command, args[0] being its name.
func (s *Shell) Exec(args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	c, ok := commands[strings.ToLower(args[0])]
	if !ok {
		return fmt.Errorf("unknown command %q (type 'help' for commands)", args[0])
	}
	if err := c.run(s, args[1:]); err != nil {
		if errors.Is(err, ErrUsage) {
			return fmt.Errorf("%w\n  %s", err, c.usage)
		}
		return err
	}
	if s.Refreshed != nil {
		return s.Refreshed()
	}
	return nil
}

// Help prints the list of commands.
func (s *Shell) Help(w io.Writer) {
	fmt.Fprintln(w, "Display commands:")
	for _, name := range []string{"dec", "int", "float", "str", "time", "clear", "raw", "pattern", "fill", "bright", "halt"} {
		c := commands[name]
		fmt.Fprintf(w, "  %-46s - %s\n", c.usage, c.help)
	}
	fmt.Fprintln(w, "  help                                           - show this help")
	fmt.Fprintln(w, "  quit                                           - exit")
}

// Run starts the interactive command loop. It returns when the user quits or
// ctx is canceled.
func (s *Shell) Run(ctx context.Context, prompt string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	// Readline blocks until a line is typed, closing it unblocks it.
	closeRL := closeOnDone(ctx, rl)
	defer closeRL()
	s.Help(rl.Stdout())
	return s.loop(ctx, rl.Readline, rl.Stdout())
}

// closeOnDone closes c when ctx is canceled. The returned function closes c
// if it wasn't already and stops watching ctx.
func closeOnDone(ctx context.Context, c io.Closer) func() error {
	var once sync.Once
	var err error
	closeOnce := func() error {
		once.Do(func() { err = c.Close() })
		return err
	}
	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			closeOnce()
		case <-stop:
		}
	}()
	return func() error {
		close(stop)
		return closeOnce()
	}
}

func (s *Shell) loop(ctx context.Context, readLine func() (string, error), out io.Writer) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		line, err := readLine()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}
		args := strings.Fields(line)
		if len(args) == 0 {
			continue
		}
		switch strings.ToLower(args[0]) {
		case "help", "?":
			s.Help(out)
		case "quit", "exit", "q":
			return nil
		default:
			if err := s.Exec(args); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}

func (s *Shell) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

// argInt returns args[i] as an int, or def when absent.
func argInt(args []string, i, def int) (int, error) {
	if i >= len(args) {
		return def, nil
	}
	v, err := strconv.Atoi(args[i])
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrUsage, args[i])
	}
	return v, nil
}

// argBool returns args[i] as a bool, or false when absent.
func argBool(args []string, i int) (bool, error) {
	if i >= len(args) {
		return false, nil
	}
	v, err := strconv.ParseBool(args[i])
	if err != nil {
		return false, fmt.Errorf("%w: %q is not a boolean", ErrUsage, args[i])
	}
	return v, nil
}

func argMask(arg string) (segment.Mask, error) {
	v, err := strconv.ParseUint(strings.TrimPrefix(arg, "0x"), 16, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a hex byte", ErrUsage, arg)
	}
	return segment.Mask(v), nil
}

// numberArgs parses "<num> [leadingZero] [length] [pos]".
func numberArgs(args []string) (num int, lz bool, length, pos int, err error) {
	if len(args) == 0 || len(args) > 4 {
		return 0, false, 0, 0, ErrUsage
	}
	if num, err = argInt(args, 0, 0); err != nil {
		return
	}
	if lz, err = argBool(args, 1); err != nil {
		return
	}
	if length, err = argInt(args, 2, segment.Digits); err != nil {
		return
	}
	pos, err = argInt(args, 3, 0)
	return
}

func cmdDec(s *Shell, args []string) error {
	num, lz, length, pos, err := numberArgs(args)
	if err != nil {
		return err
	}
	if num < 0 {
		return fmt.Errorf("%d is negative, use int", num)
	}
	return s.Dev.ShowNumberDec(num, lz, length, pos)
}

func cmdInt(s *Shell, args []string) error {
	num, lz, length, pos, err := numberArgs(args)
	if err != nil {
		return err
	}
	if num < segment.MinInt || num > segment.MaxInt {
		return fmt.Errorf("%d is out of range [%d, %d]", num, segment.MinInt, segment.MaxInt)
	}
	return s.Dev.ShowNumberInt(num, lz, length, pos)
}

func cmdFloat(s *Shell, args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return ErrUsage
	}
	num, err := strconv.ParseFloat(args[0], 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", ErrUsage, args[0])
	}
	prec, err := argInt(args, 1, -1)
	if err != nil {
		return err
	}
	return s.Dev.ShowNumberFloat(num, prec)
}

func cmdStr(s *Shell, args []string) error {
	if len(args) == 0 {
		return ErrUsage
	}
	return s.Dev.ShowString(strings.Join(args, " "))
}

func cmdTime(s *Shell, args []string) error {
	if len(args) == 0 || len(args) > 4 {
		return ErrUsage
	}
	if args[0] == "now" {
		now := s.now()
		return s.Dev.ShowTime(now.Hour(), now.Minute(), true, true, segment.Digits, 0)
	}
	left, err := argInt(args, 0, 0)
	if err != nil {
		return err
	}
	right, err := argInt(args, 1, -1)
	if err != nil {
		return err
	}
	colon, err := argBool(args, 2)
	if err != nil {
		return err
	}
	lz, err := argBool(args, 3)
	if err != nil {
		return err
	}
	return s.Dev.ShowTime(left, right, colon, lz, segment.Digits, 0)
}

func cmdClear(s *Shell, args []string) error {
	if len(args) > 5 {
		return ErrUsage
	}
	var flags [4]bool
	for i := range flags {
		v, err := argBool(args, i)
		if err != nil {
			return err
		}
		flags[i] = v
	}
	length, err := argInt(args, 4, segment.Digits)
	if err != nil {
		return err
	}
	return s.Dev.Clear(flags[0], flags[1], flags[2], flags[3], length)
}

func cmdRaw(s *Shell, args []string) error {
	if len(args) < 2 {
		return ErrUsage
	}
	pos, err := argInt(args, 0, 0)
	if err != nil {
		return err
	}
	segs := make([]segment.Mask, 0, len(args)-1)
	for _, a := range args[1:] {
		m, err := argMask(a)
		if err != nil {
			return err
		}
		segs = append(segs, m)
	}
	return s.Dev.SetSegments(segs, pos)
}

func cmdPattern(s *Shell, args []string) error {
	if len(args) != 4 {
		return ErrUsage
	}
	var p [4]segment.Mask
	for i, a := range args {
		m, err := argMask(a)
		if err != nil {
			return err
		}
		p[i] = m
	}
	return s.Dev.SetPattern(p[0], p[1], p[2], p[3])
}

func cmdFill(s *Shell, args []string) error {
	if len(args) != 5 {
		return ErrUsage
	}
	m, err := argMask(args[0])
	if err != nil {
		return err
	}
	var dig [4]bool
	for i := range dig {
		if dig[i], err = argBool(args, i+1); err != nil {
			return err
		}
	}
	return s.Dev.SetPatternAll(m, dig[0], dig[1], dig[2], dig[3])
}

func cmdBright(s *Shell, args []string) error {
	if len(args) != 1 {
		return ErrUsage
	}
	v, err := strconv.ParseUint(args[0], 0, 8)
	if err != nil || v > 15 {
		return fmt.Errorf("%w: brightness must be in [0, 15]", ErrUsage)
	}
	s.Dev.SetBrightness(byte(v))
	// The brightness is sent along with the segments.
	return s.Dev.SetFrame(s.Dev.Frame())
}

func cmdHalt(s *Shell, args []string) error {
	if len(args) != 0 {
		return ErrUsage
	}
	return s.Dev.Halt()
}
