// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package hd44780 drives the bus of Hitachi HD44780 compatible character LCD
// controllers.
//
// Three transports are supported: an 8-bit parallel bus, a 4-bit parallel bus
// and a PCF8574 I²C GPIO expander wired as a 4-bit bus (the common "LCD
// backpack"). All of them expose the same Bus contract: initialize the
// controller, write a byte to the control or memory register, and read the
// status byte.
//
// The package does not interpret display content. Turning text into bytes
// and cursor positions into DDRAM addresses is left to the caller.
//
// Any error returned by a Bus leaves the controller synchronization in doubt.
// Call Init again before further use.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780

import (
	"errors"
	"fmt"
	"time"
)

const packageName = "hd44780"

var (
	// ErrWriteOnly is returned by ReadStatus when the bus has no read/write
	// line, or when a line cannot be sampled.
	ErrWriteOnly = errors.New("hd44780: bus is write only")
	// ErrDataWidth is returned when a parallel bus is built with a number of
	// data lines other than 4 or 8.
	ErrDataWidth = errors.New("hd44780: data lines must be 4 (D4-D7) or 8 (D0-D7)")
	// ErrMissingLine is returned when a mandatory line is nil.
	ErrMissingLine = errors.New("hd44780: missing line")
	// ErrBusyTimeout is returned by WaitReady when the busy flag never
	// cleared.
	ErrBusyTimeout = errors.New("hd44780: busy flag did not clear")
)

// Controller instruction opcodes. Flags are OR'ed into the low bits.
const (
	CmdClearDisplay    byte = 0x01
	CmdReturnHome      byte = 0x02
	CmdEntryModeSet    byte = 0x04
	CmdDisplayControl  byte = 0x08
	CmdCursorShift     byte = 0x10
	CmdFunctionSet     byte = 0x20
	CmdSetCGRAMAddress byte = 0x40
	CmdSetDDRAMAddress byte = 0x80
)

// RegisterSelect selects the controller register a transfer targets. It
// drives the RS line and selects the timing class of the transfer.
type RegisterSelect bool

const (
	// Control is the instruction register (RS low).
	Control RegisterSelect = false
	// Memory is the data register, i.e. DDRAM or CGRAM (RS high).
	Memory RegisterSelect = true
)

func (rs RegisterSelect) String() string {
	if rs == Memory {
		return "Memory"
	}
	return "Control"
}

// Status is the byte returned by a status read. Bit 7 is the busy flag, bits
// 0-6 the address counter.
type Status byte

const (
	statusBusy    Status = 0x80
	statusAddress Status = 0x7f
)

// Busy reports whether the controller is still executing an instruction.
func (s Status) Busy() bool {
	return s&statusBusy != 0
}

// Address returns the DDRAM or CGRAM address counter.
func (s Status) Address() byte {
	return byte(s & statusAddress)
}

func (s Status) String() string {
	return fmt.Sprintf("Status{Address: 0x%02x, Busy: %t}", s.Address(), s.Busy())
}

// FunctionMode are the flags of the function set instruction.
type FunctionMode byte

const (
	// Font5x10 selects the 5x10 dots font. The 5x8 font is used otherwise.
	Font5x10 FunctionMode = 0x04
	// TwoLines selects two display lines. One line is used otherwise.
	TwoLines FunctionMode = 0x08
	// DataLength8 selects the 8-bit interface. The bus engines set or clear
	// it themselves to match their wiring.
	DataLength8 FunctionMode = 0x10

	functionMask = Font5x10 | TwoLines | DataLength8
)

// DisplayMode are the flags of the display control instruction.
type DisplayMode byte

const (
	// CursorBlink blinks the character at the cursor position.
	CursorBlink DisplayMode = 0x01
	// CursorOn shows the underline cursor.
	CursorOn DisplayMode = 0x02
	// DisplayOn turns the display on.
	DisplayOn DisplayMode = 0x04

	displayMask = CursorBlink | CursorOn | DisplayOn
)

// EntryMode are the flags of the entry mode set instruction.
type EntryMode byte

const (
	// EntryShift shifts the whole display on each write.
	EntryShift EntryMode = 0x01
	// EntryIncrement increments the address counter on each write. It is
	// decremented otherwise.
	EntryIncrement EntryMode = 0x02

	entryMask = EntryShift | EntryIncrement
)

// Kind identifies the transport variant of a Bus.
type Kind int

const (
	EightBitParallel Kind = iota
	FourBitParallel
	I2CExpander
)

func (k Kind) String() string {
	switch k {
	case EightBitParallel:
		return "EightBitParallel"
	case FourBitParallel:
		return "FourBitParallel"
	case I2CExpander:
		return "I2CExpander"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Bus is the uniform contract of the bus engines.
//
// A Bus is not safe for concurrent use. Every call blocks inside the Delay
// for the durations mandated by the timing policy.
type Bus interface {
	// Init runs the power-on bring-up sequence and configures the controller
	// with the function, display and entry mode flags. Flags outside of
	// their legal bit range are ignored.
	Init(function FunctionMode, dm DisplayMode, entry EntryMode, d Delay) error
	// Write transfers one byte to the selected register.
	Write(rs RegisterSelect, b byte, d Delay) error
	// ReadStatus reads the busy flag and address counter.
	ReadStatus(d Delay) (Status, error)
	// Kind returns the transport variant.
	Kind() Kind
	String() string
}

// WriteCommand writes an instruction to the control register.
func WriteCommand(b Bus, cmd byte, d Delay) error {
	return b.Write(Control, cmd, d)
}

// WriteData writes a byte to DDRAM or CGRAM.
func WriteData(b Bus, data byte, d Delay) error {
	return b.Write(Memory, data, d)
}

// WaitReady polls the busy flag every poll interval until it clears. It gives
// up after limit reads with ErrBusyTimeout.
func WaitReady(b Bus, d Delay, poll time.Duration, limit int) (Status, error) {
	var s Status
	for range limit {
		var err error
		if s, err = b.ReadStatus(d); err != nil {
			return s, err
		}
		if !s.Busy() {
			return s, nil
		}
		d.Sleep(poll)
	}
	return s, ErrBusyTimeout
}

// functionSet builds the function set instruction. The data length bit is
// forced to match the wiring.
func functionSet(function FunctionMode, eightBit bool) byte {
	f := function & functionMask
	if eightBit {
		f |= DataLength8
	} else {
		f &^= DataLength8
	}
	return CmdFunctionSet | byte(f)
}

// configure sends the four instructions that close the bring-up sequence.
func configure(b Bus, eightBit bool, function FunctionMode, dm DisplayMode, entry EntryMode, d Delay) error {
	cmds := [...]byte{
		functionSet(function, eightBit),
		CmdDisplayControl | byte(dm&displayMask),
		CmdClearDisplay,
		CmdEntryModeSet | byte(entry&entryMask),
	}
	for _, cmd := range cmds {
		if err := b.Write(Control, cmd, d); err != nil {
			return err
		}
	}
	return nil
}

var _ Bus = &ParallelBus{}
var _ Bus = &ExpanderBus{}
