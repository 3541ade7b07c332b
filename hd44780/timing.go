// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import "time"

// Timings supplies the waits of the bus protocol. The enable pulse waits
// depend on the register, instructions take far longer to execute than
// memory writes.
type Timings interface {
	// EnablePulseOn waits after Enable was raised.
	EnablePulseOn(rs RegisterSelect, d Delay)
	// EnablePulseOff waits after Enable was lowered.
	EnablePulseOff(rs RegisterSelect, d Delay)
	// ReadDelay waits between entering read mode and sampling the data lines.
	ReadDelay(d Delay)
	// PowerOnDelay waits for the controller power-on reset.
	PowerOnDelay(d Delay)
	// FirstInitDelay waits after the first reset pulse.
	FirstInitDelay(d Delay)
	// SecondInitDelay waits after the second reset pulse.
	SecondInitDelay(d Delay)
}

// TimingTable is a Timings made of fixed durations. It is a plain value and
// can be copied and modified freely.
type TimingTable struct {
	EnableOnControl  time.Duration
	EnableOnMemory   time.Duration
	EnableOffControl time.Duration
	EnableOffMemory  time.Duration
	Read             time.Duration
	PowerOn          time.Duration
	FirstInit        time.Duration
	SecondInit       time.Duration
}

var (
	// Parallel8Timings is the default table of the 8-bit parallel bus. The
	// memory enable pulse honours PW_EH >= 230ns.
	Parallel8Timings = TimingTable{
		EnableOnControl:  1500 * time.Microsecond,
		EnableOnMemory:   500 * time.Nanosecond,
		EnableOffControl: time.Millisecond,
		EnableOffMemory:  50 * time.Microsecond,
		Read:             time.Millisecond,
		PowerOn:          50 * time.Millisecond,
		FirstInit:        4500 * time.Microsecond,
		SecondInit:       100 * time.Microsecond,
	}

	// Parallel4Timings is the default table of the 4-bit parallel bus.
	Parallel4Timings = TimingTable{
		EnableOnControl:  750 * time.Microsecond,
		EnableOnMemory:   3 * time.Microsecond,
		EnableOffControl: 800 * time.Microsecond,
		EnableOffMemory:  50 * time.Microsecond,
		Read:             800 * time.Microsecond,
		PowerOn:          50 * time.Millisecond,
		FirstInit:        4500 * time.Microsecond,
		SecondInit:       100 * time.Microsecond,
	}

	// I2CTimings is the default table of the I²C expander bus.
	I2CTimings = Parallel4Timings
)

func (t TimingTable) EnablePulseOn(rs RegisterSelect, d Delay) {
	if rs == Memory {
		d.Sleep(t.EnableOnMemory)
	} else {
		d.Sleep(t.EnableOnControl)
	}
}

func (t TimingTable) EnablePulseOff(rs RegisterSelect, d Delay) {
	if rs == Memory {
		d.Sleep(t.EnableOffMemory)
	} else {
		d.Sleep(t.EnableOffControl)
	}
}

func (t TimingTable) ReadDelay(d Delay) {
	d.Sleep(t.Read)
}

func (t TimingTable) PowerOnDelay(d Delay) {
	d.Sleep(t.PowerOn)
}

func (t TimingTable) FirstInitDelay(d Delay) {
	d.Sleep(t.FirstInit)
}

func (t TimingTable) SecondInitDelay(d Delay) {
	d.Sleep(t.SecondInit)
}

var _ Timings = TimingTable{}
