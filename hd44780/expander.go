// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// ExpanderState is the byte written to the PCF8574 expander. Each bit is one
// expander pin.
type ExpanderState byte

const (
	StateRegisterSelect ExpanderState = 0x01
	StateRead           ExpanderState = 0x02
	StateEnable         ExpanderState = 0x04
	StateBacklight      ExpanderState = 0x08
	// StateData are D4-D7. A nibble always travels in the upper half of the
	// byte.
	StateData ExpanderState = 0xf0
)

const (
	// DefaultExpanderAddress is the address of PCF8574T backpacks.
	DefaultExpanderAddress uint16 = 0x27
	// AltExpanderAddress is the address of PCF8574AT backpacks.
	AltExpanderAddress uint16 = 0x3f
)

// ExpanderBus drives the controller through a PCF8574 I²C GPIO expander
// wired as a 4-bit bus: P0=RS, P1=RW, P2=E, P3=backlight, P4-P7=D4-D7.
//
// The expander has no per pin access, so each transition rewrites the whole
// byte. The backlight bit is the only state kept between calls.
type ExpanderBus struct {
	d       *i2c.Dev
	state   ExpanderState
	timings Timings
}

// NewExpander returns an expander bus at addr. If t is nil, I2CTimings is
// used. The backlight starts on.
//
// The controller is not touched. Call Init before anything else.
func NewExpander(bus i2c.Bus, addr uint16, t Timings) *ExpanderBus {
	if t == nil {
		t = I2CTimings
	}
	return &ExpanderBus{
		d:       &i2c.Dev{Bus: bus, Addr: addr},
		state:   StateBacklight,
		timings: t,
	}
}

// Init runs the datasheet bring-up in 4-bit mode. Every pulse is an Enable
// high byte followed by an Enable low byte.
func (b *ExpanderBus) Init(function FunctionMode, dm DisplayMode, entry EntryMode, d Delay) error {
	eh := b.handler(d)
	eh.powerOnWait()

	reset := b.state | ExpanderState(CmdFunctionSet|byte(DataLength8))
	eh.tx(b.d, []byte{byte(reset), byte(reset | StateEnable)}, nil)
	eh.enableOnWait(Control)
	eh.tx(b.d, []byte{byte(reset)}, nil)
	eh.firstInitWait()

	eh.tx(b.d, []byte{byte(reset | StateEnable)}, nil)
	eh.enableOnWait(Control)
	eh.tx(b.d, []byte{byte(reset)}, nil)
	eh.secondInitWait()

	eh.tx(b.d, []byte{byte(reset | StateEnable)}, nil)
	eh.enableOnWait(Control)
	eh.tx(b.d, []byte{byte(reset)}, nil)
	eh.enableOffWait(Control)

	b.nibble(eh, Control, b.state|ExpanderState(CmdFunctionSet))
	if eh.err != nil {
		return eh.err
	}
	return configure(b, false, function, dm, entry, d)
}

// Write transfers one byte as two nibbles, upper first. Each nibble costs two
// I²C writes.
func (b *ExpanderBus) Write(rs RegisterSelect, v byte, d Delay) error {
	eh := b.handler(d)
	base := b.base(rs)
	b.nibble(eh, rs, base|ExpanderState(v&0xf0))
	b.nibble(eh, rs, base|ExpanderState(v<<4))
	return eh.err
}

// ReadStatus reads the busy flag and address counter.
//
// For each nibble the read request (data pins released high, RW set) is
// latched with Enable raised, the expander pins are read back while Enable is
// still high, then Enable is lowered. The data pins carry the upper half of
// the expander byte for both nibbles.
func (b *ExpanderBus) ReadStatus(d Delay) (Status, error) {
	eh := b.handler(d)
	req := b.base(Control) | StateData | StateRead
	var r [1]byte

	b.readCycle(eh, req, r[:], []byte{byte(req)})
	v := r[0] & 0xf0
	// The last Enable low byte is followed by one leaving read mode.
	b.readCycle(eh, req, r[:], []byte{byte(req), byte(b.state)})
	v |= r[0] >> 4
	return Status(v), eh.err
}

// SetBacklight turns the backlight on or off. The state is only updated when
// the expander acknowledged the write.
func (b *ExpanderBus) SetBacklight(on bool) error {
	next := b.state &^ StateBacklight
	if on {
		next |= StateBacklight
	}
	if err := b.d.Tx([]byte{byte(next)}, nil); err != nil {
		return err
	}
	b.state = next
	return nil
}

// State returns the persisted expander state.
func (b *ExpanderBus) State() ExpanderState {
	return b.state
}

// Kind returns I2CExpander.
func (b *ExpanderBus) Kind() Kind {
	return I2CExpander
}

// Release hands the I²C bus back. The ExpanderBus must not be used afterward.
func (b *ExpanderBus) Release() i2c.Bus {
	bus := b.d.Bus
	b.d = &i2c.Dev{}
	return bus
}

func (b *ExpanderBus) String() string {
	return fmt.Sprintf("HD44780::%s{%s}", I2CExpander, b.d)
}

func (b *ExpanderBus) handler(d Delay) *errorHandler {
	return &errorHandler{t: b.timings, d: d}
}

// base is the persisted state with the register select pin set for rs.
func (b *ExpanderBus) base(rs RegisterSelect) ExpanderState {
	s := b.state &^ (StateRegisterSelect | StateRead | StateEnable | StateData)
	if rs == Memory {
		s |= StateRegisterSelect
	}
	return s
}

// nibble strobes the data bits of s into the controller.
func (b *ExpanderBus) nibble(eh *errorHandler, rs RegisterSelect, s ExpanderState) {
	eh.tx(b.d, []byte{byte(s), byte(s | StateEnable)}, nil)
	eh.enableOnWait(rs)
	eh.tx(b.d, []byte{byte(s)}, nil)
	eh.enableOffWait(rs)
}

// readCycle raises Enable with the request latched, reads the expander pins
// into r then writes off.
func (b *ExpanderBus) readCycle(eh *errorHandler, req ExpanderState, r, off []byte) {
	eh.tx(b.d, []byte{byte(req), byte(req | StateEnable)}, nil)
	eh.readWait()
	eh.tx(b.d, nil, r)
	eh.tx(b.d, off, nil)
	eh.enableOffWait(Control)
}
