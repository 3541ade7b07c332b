// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import "fmt"

// Pins are the lines of a parallel bus.
type Pins struct {
	// RS is the register select line.
	RS DigitalLine
	// RW is the read/write line. Leave it nil, or use WriteOnly, when the pin
	// is tied to ground.
	RW DigitalLine
	// E is the enable strobe.
	E DigitalLine
	// Data holds D0-D7 for an 8-bit bus, or D4-D7 for a 4-bit bus, least
	// significant line first.
	Data []DigitalLine
}

// ParallelBus drives the controller directly through its RS, RW, E and data
// lines.
type ParallelBus struct {
	pins    Pins
	timings Timings
	kind    Kind
}

// NewParallel returns a parallel bus. The width is taken from the number of
// data lines: 8 for D0-D7, 4 for D4-D7.
//
// If t is nil, Parallel8Timings or Parallel4Timings is used according to the
// width.
//
// The controller is not touched. Call Init before anything else.
func NewParallel(p Pins, t Timings) (*ParallelBus, error) {
	if p.RS == nil {
		return nil, fmt.Errorf("%w: RS", ErrMissingLine)
	}
	if p.E == nil {
		return nil, fmt.Errorf("%w: E", ErrMissingLine)
	}
	var kind Kind
	switch len(p.Data) {
	case 8:
		kind = EightBitParallel
		if t == nil {
			t = Parallel8Timings
		}
	case 4:
		kind = FourBitParallel
		if t == nil {
			t = Parallel4Timings
		}
	default:
		return nil, ErrDataWidth
	}
	for ix, l := range p.Data {
		if l == nil {
			return nil, fmt.Errorf("%w: data line %d", ErrMissingLine, ix)
		}
	}
	if p.RW == nil {
		p.RW = WriteOnly
	}
	p.Data = append([]DigitalLine(nil), p.Data...)
	return &ParallelBus{pins: p, timings: t, kind: kind}, nil
}

// Init runs the datasheet bring-up: three "8-bit mode" reset pulses, the
// 4-bit mode select pulse on a 4-bit bus, then function set, display
// control, clear display and entry mode set.
func (b *ParallelBus) Init(function FunctionMode, dm DisplayMode, entry EntryMode, d Delay) error {
	eh := b.handler(d)
	eh.set(b.pins.RS, false)
	eh.set(b.pins.RW, false)
	eh.set(b.pins.E, false)
	eh.powerOnWait()

	reset := CmdFunctionSet | byte(DataLength8)
	if b.kind == FourBitParallel {
		reset >>= 4
	}
	b.setData(eh, reset)
	b.pulseNoDelayAfter(eh, Control)
	eh.firstInitWait()
	b.pulseNoDelayAfter(eh, Control)
	eh.secondInitWait()
	b.pulse(eh, Control)

	if b.kind == FourBitParallel {
		b.setData(eh, CmdFunctionSet>>4)
		b.pulse(eh, Control)
	}
	if eh.err != nil {
		return eh.err
	}
	return configure(b, b.kind == EightBitParallel, function, dm, entry, d)
}

// Write transfers one byte. A 4-bit bus sends the upper nibble first.
func (b *ParallelBus) Write(rs RegisterSelect, v byte, d Delay) error {
	eh := b.handler(d)
	eh.set(b.pins.RS, bool(rs))
	if b.kind == EightBitParallel {
		b.setData(eh, v)
		b.pulse(eh, rs)
	} else {
		b.setData(eh, v>>4)
		b.pulse(eh, rs)
		b.setData(eh, v&0x0f)
		b.pulse(eh, rs)
	}
	return eh.err
}

// ReadStatus reads the busy flag and address counter. It returns
// ErrWriteOnly when the bus has no RW line.
func (b *ParallelBus) ReadStatus(d Delay) (Status, error) {
	if b.pins.RW == WriteOnly {
		return 0, ErrWriteOnly
	}
	eh := b.handler(d)
	eh.set(b.pins.RS, false)
	eh.set(b.pins.RW, true)
	// Release the data lines so the controller can drive them.
	b.setData(eh, 0xff)

	v := b.readCycle(eh)
	if b.kind == FourBitParallel {
		v = v<<4 | b.readCycle(eh)
	}
	eh.set(b.pins.RW, false)
	return Status(v), eh.err
}

// Kind returns EightBitParallel or FourBitParallel.
func (b *ParallelBus) Kind() Kind {
	return b.kind
}

// Release hands the lines back. The bus must not be used afterward.
func (b *ParallelBus) Release() Pins {
	p := b.pins
	b.pins = Pins{}
	return p
}

func (b *ParallelBus) String() string {
	return fmt.Sprintf("HD44780::%s", b.kind)
}

func (b *ParallelBus) handler(d Delay) *errorHandler {
	return &errorHandler{t: b.timings, d: d}
}

// setData drives the data lines with the low bits of v, one bit per line.
func (b *ParallelBus) setData(eh *errorHandler, v byte) {
	for ix, l := range b.pins.Data {
		eh.set(l, v&(1<<ix) != 0)
	}
}

func (b *ParallelBus) readData(eh *errorHandler) byte {
	var v byte
	for ix, l := range b.pins.Data {
		if eh.get(l) {
			v |= 1 << ix
		}
	}
	return v
}

// pulse strobes E so the controller latches the data lines.
func (b *ParallelBus) pulse(eh *errorHandler, rs RegisterSelect) {
	b.pulseNoDelayAfter(eh, rs)
	eh.enableOffWait(rs)
}

func (b *ParallelBus) pulseNoDelayAfter(eh *errorHandler, rs RegisterSelect) {
	eh.set(b.pins.E, true)
	eh.enableOnWait(rs)
	eh.set(b.pins.E, false)
}

// readCycle raises E, samples the data lines and lowers E.
func (b *ParallelBus) readCycle(eh *errorHandler) byte {
	eh.set(b.pins.E, true)
	eh.readWait()
	v := b.readData(eh)
	eh.set(b.pins.E, false)
	eh.enableOffWait(Control)
	return v
}
