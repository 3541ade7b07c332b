// Copyright 2017 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/GermanBionicSystems/lcdbus/hd44780"
	"github.com/maruel/ansi256"
	"github.com/mattn/go-colorable"
	"periph.io/x/conn/v3"
)

// TerminalOpts represents the options of a Terminal.
type TerminalOpts struct {
	// W defaults to stdout, with ANSI support on Windows consoles.
	W       io.Writer
	Palette *ansi256.Palette

	_ struct{}
}

// Terminal prints the content of a Controller to a console using ANSI
// colors. The backlight is drawn as a colored bezel on both sides of each
// row.
type Terminal struct {
	c       *Controller
	w       io.Writer
	palette ansi256.Palette

	drawn int
	buf   bytes.Buffer
}

var (
	backlightOn  = color.NRGBA{0x7c, 0xd0, 0x2c, 0xff}
	backlightOff = color.NRGBA{0x1c, 0x2c, 0x14, 0xff}
)

// NewTerminal returns a Terminal showing c.
func NewTerminal(c *Controller, opts *TerminalOpts) *Terminal {
	t := &Terminal{c: c, palette: *ansi256.Default}
	if opts != nil {
		t.w = opts.W
		if opts.Palette != nil {
			t.palette = *opts.Palette
		}
	}
	if t.w == nil {
		t.w = colorable.NewColorableStdout()
	}
	return t
}

func (t *Terminal) String() string {
	rows, cols := t.c.Size()
	return fmt.Sprintf("lcdsim.Terminal{%dx%d}", cols, rows)
}

// Halt implements conn.Resource.
//
// It resets the terminal colors so the console is not left corrupted.
func (t *Terminal) Halt() error {
	_, err := t.w.Write([]byte("\n\033[0m"))
	return err
}

// Refresh redraws the display in place.
func (t *Terminal) Refresh() error {
	// This code is designed to minimize the amount of memory allocated per call.
	t.buf.Reset()
	if t.drawn > 0 {
		fmt.Fprintf(&t.buf, "\033[%dA", t.drawn)
	}
	rows, _ := t.c.Size()
	bl := backlightOff
	if t.c.Backlight() {
		bl = backlightOn
	}
	on := t.c.DisplayMode()&hd44780.DisplayOn != 0
	for row := range rows {
		_, _ = t.buf.WriteString("\r\033[0m")
		_, _ = io.WriteString(&t.buf, t.palette.Block(bl))
		for _, ch := range []byte(t.c.Line(row)) {
			if !on {
				ch = ' '
			}
			_ = t.buf.WriteByte(printable(ch))
		}
		_, _ = io.WriteString(&t.buf, t.palette.Block(bl))
		_, _ = t.buf.WriteString("\033[0m\n")
	}
	t.drawn = rows
	_, err := t.buf.WriteTo(t.w)
	return err
}

// printable maps the character ROM codes that differ from ASCII, and the
// custom CGRAM characters, to '?'.
func printable(ch byte) byte {
	if ch < 0x20 || ch > 0x7d || ch == '\\' {
		return '?'
	}
	return ch
}

var _ conn.Resource = &Terminal{}
var _ fmt.Stringer = &Terminal{}
