// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdsim emulates the bus side of an HD44780 controller.
//
// A Controller decodes Enable strobes coming either from simulated parallel
// lines (Pins8, Pins4) or from a simulated PCF8574 I²C expander (Expander).
// It keeps the DDRAM, CGRAM, address counter and mode registers, answers
// status reads and can render its content to a terminal or to an image.
//
// Useful to test display code, or while you are waiting for your LCD to come
// by mail.
package lcdsim

import (
	"log"
	"sync"

	"github.com/GermanBionicSystems/lcdbus/hd44780"
)

const (
	ddramSize = 0x80
	cgramSize = 0x40
	// lineLength is the DDRAM length of one display line in two line mode.
	lineLength = 40
)

// Opts represents the options of the simulated module.
type Opts struct {
	Rows int
	Cols int
	// Logger receives one line per decoded transfer, when set.
	Logger *log.Logger

	_ struct{}
}

// Latch is one Enable strobe of a write, as seen on the data lines.
type Latch struct {
	RS hd44780.RegisterSelect
	// Data holds the D7-D0 levels. With a 4-bit interface only D7-D4 are
	// meaningful.
	Data byte
}

// Transfer is one complete byte received by the controller.
type Transfer struct {
	RS    hd44780.RegisterSelect
	Value byte
}

// Controller is a simulated HD44780.
type Controller struct {
	mu     sync.Mutex
	rows   int
	cols   int
	logger *log.Logger

	// Levels on the bus.
	rs, rw, e bool
	data      byte
	backlight bool

	// Interface state.
	eightBit bool
	half     bool
	upper    byte
	readHalf bool
	readVal  byte

	// Registers and memories.
	ddram    [ddramSize]byte
	cgram    [cgramSize]byte
	ac       byte
	cg       bool
	shift    int
	entry    hd44780.EntryMode
	dm       hd44780.DisplayMode
	function hd44780.FunctionMode
	busy     bool

	latches   []Latch
	transfers []Transfer

	failAfter int
	failErr   error
}

// New returns a Controller in its power-on state: 8-bit interface, display
// off, DDRAM filled with spaces and backlight on. A nil opts means a 2x16
// module.
func New(opts *Opts) *Controller {
	c := &Controller{rows: 2, cols: 16, backlight: true, failAfter: -1}
	if opts != nil {
		if opts.Rows > 0 {
			c.rows = opts.Rows
		}
		if opts.Cols > 0 {
			c.cols = opts.Cols
		}
		c.logger = opts.Logger
	}
	c.reset()
	return c
}

func (c *Controller) reset() {
	c.eightBit = true
	c.half = false
	c.readHalf = false
	for ix := range c.ddram {
		c.ddram[ix] = ' '
	}
	c.ac = 0
	c.cg = false
	c.shift = 0
	c.entry = hd44780.EntryIncrement
	c.dm = 0
	c.function = hd44780.DataLength8
}

// FailAfter makes every bus operation fail with err once n more operations
// succeeded. A line Set or Get and an expander Tx each count as one
// operation. A negative n disables the failure.
func (c *Controller) FailAfter(n int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failAfter = n
	c.failErr = err
}

// fail must be called with the lock held.
func (c *Controller) fail() error {
	switch {
	case c.failAfter < 0:
		return nil
	case c.failAfter == 0:
		return c.failErr
	default:
		c.failAfter--
		return nil
	}
}

// SetBusy forces the busy flag returned by status reads.
func (c *Controller) SetBusy(busy bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = busy
}

// SetAddress forces the DDRAM address counter.
func (c *Controller) SetAddress(a byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ac = a & 0x7f
	c.cg = false
}

// Address returns the address counter.
func (c *Controller) Address() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ac
}

// EightBit reports whether the controller interface is 8 bits wide.
func (c *Controller) EightBit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.eightBit
}

// FunctionMode returns the flags of the last function set.
func (c *Controller) FunctionMode() hd44780.FunctionMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.function
}

// DisplayMode returns the flags of the last display control.
func (c *Controller) DisplayMode() hd44780.DisplayMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dm
}

// EntryMode returns the flags of the last entry mode set.
func (c *Controller) EntryMode() hd44780.EntryMode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entry
}

// Backlight reports whether the backlight is on.
func (c *Controller) Backlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.backlight
}

// Latches returns every write strobe seen since creation or ClearLog.
func (c *Controller) Latches() []Latch {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Latch(nil), c.latches...)
}

// Transfers returns every byte received since creation or ClearLog.
func (c *Controller) Transfers() []Transfer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Transfer(nil), c.transfers...)
}

// ClearLog forgets the recorded latches and transfers.
func (c *Controller) ClearLog() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.latches = nil
	c.transfers = nil
}

// Size returns the number of rows and columns.
func (c *Controller) Size() (rows, cols int) {
	return c.rows, c.cols
}

// Line returns the characters shown on row, counted from 0. The bytes are
// controller character codes.
func (c *Controller) Line(row int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return string(c.line(row))
}

func (c *Controller) line(row int) []byte {
	if row < 0 || row >= c.rows {
		return nil
	}
	// Rows 2 and 3 continue the DDRAM lines of rows 0 and 1.
	var base byte
	if row%2 == 1 && c.function&hd44780.TwoLines != 0 {
		base = 0x40
	}
	offset := (row / 2) * c.cols
	if c.function&hd44780.TwoLines == 0 {
		offset = row * c.cols
	}
	length := lineLength
	if c.function&hd44780.TwoLines == 0 {
		length = 2 * lineLength
	}
	out := make([]byte, c.cols)
	for col := range c.cols {
		pos := ((offset+col+c.shift)%length + length) % length
		out[col] = c.ddram[base+byte(pos)]
	}
	return out
}

// status must be called with the lock held.
func (c *Controller) status() byte {
	s := c.ac & 0x7f
	if c.busy {
		s |= 0x80
	}
	return s
}

// latch is called on a falling Enable edge in write mode.
func (c *Controller) latch() {
	rs := hd44780.RegisterSelect(c.rs)
	c.latches = append(c.latches, Latch{RS: rs, Data: c.data})
	if c.eightBit {
		c.transfer(rs, c.data)
		return
	}
	if !c.half {
		c.upper = c.data & 0xf0
		c.half = true
		return
	}
	c.half = false
	c.transfer(rs, c.upper|c.data>>4)
}

// startRead is called on a rising Enable edge in read mode.
func (c *Controller) startRead() {
	if c.readHalf {
		return
	}
	if c.rs {
		c.readVal = *c.cell()
		c.advance()
	} else {
		c.readVal = c.status()
	}
}

// endRead is called on a falling Enable edge in read mode.
func (c *Controller) endRead() {
	if !c.eightBit {
		c.readHalf = !c.readHalf
	}
}

// output returns the byte the controller drives on D7-D0 while reading.
// With a 4-bit interface the current nibble is on D7-D4.
func (c *Controller) output() byte {
	if c.eightBit {
		return c.readVal
	}
	if c.readHalf {
		return c.readVal << 4
	}
	return c.readVal & 0xf0
}

func (c *Controller) transfer(rs hd44780.RegisterSelect, v byte) {
	c.transfers = append(c.transfers, Transfer{RS: rs, Value: v})
	if c.logger != nil {
		c.logger.Printf("lcdsim: %s 0x%02x", rs, v)
	}
	if rs == hd44780.Memory {
		*c.cell() = v
		c.advance()
		if c.entry&hd44780.EntryShift != 0 {
			c.shiftDisplay(c.entry&hd44780.EntryIncrement != 0)
		}
		return
	}
	c.execute(v)
}

// memory returns the RAM selected by the last address instruction, sized so
// the address counter always indexes it.
func (c *Controller) memory() []byte {
	if c.cg {
		return c.cgram[:]
	}
	return c.ddram[:]
}

// cell returns the RAM byte at the address counter.
func (c *Controller) cell() *byte {
	mem := c.memory()
	return &mem[int(c.ac)%len(mem)]
}

func (c *Controller) advance() {
	size := byte(len(c.memory()))
	if c.entry&hd44780.EntryIncrement != 0 {
		c.ac = (c.ac + 1) % size
	} else {
		c.ac = (c.ac + size - 1) % size
	}
}

func (c *Controller) shiftDisplay(left bool) {
	if left {
		c.shift++
	} else {
		c.shift--
	}
}

func (c *Controller) execute(cmd byte) {
	switch {
	case cmd&hd44780.CmdSetDDRAMAddress != 0:
		c.ac = cmd & 0x7f
		c.cg = false
	case cmd&hd44780.CmdSetCGRAMAddress != 0:
		c.ac = cmd & 0x3f
		c.cg = true
	case cmd&hd44780.CmdFunctionSet != 0:
		c.function = hd44780.FunctionMode(cmd) & (hd44780.Font5x10 | hd44780.TwoLines | hd44780.DataLength8)
		eightBit := c.function&hd44780.DataLength8 != 0
		if eightBit != c.eightBit {
			c.eightBit = eightBit
			c.half = false
			c.readHalf = false
		}
	case cmd&hd44780.CmdCursorShift != 0:
		right := cmd&0x04 != 0
		if cmd&0x08 != 0 {
			c.shiftDisplay(!right)
			return
		}
		if right {
			c.ac = (c.ac + 1) & 0x7f
		} else {
			c.ac = (c.ac - 1) & 0x7f
		}
	case cmd&hd44780.CmdDisplayControl != 0:
		c.dm = hd44780.DisplayMode(cmd) & (hd44780.CursorBlink | hd44780.CursorOn | hd44780.DisplayOn)
	case cmd&hd44780.CmdEntryModeSet != 0:
		c.entry = hd44780.EntryMode(cmd) & (hd44780.EntryShift | hd44780.EntryIncrement)
	case cmd&hd44780.CmdReturnHome != 0:
		c.ac = 0
		c.cg = false
		c.shift = 0
	case cmd == hd44780.CmdClearDisplay:
		for ix := range c.ddram {
			c.ddram[ix] = ' '
		}
		c.ac = 0
		c.cg = false
		c.shift = 0
		c.entry |= hd44780.EntryIncrement
	}
}
