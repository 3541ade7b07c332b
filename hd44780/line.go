// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3/cpu"
)

// DigitalLine is a single electrical line of the parallel bus.
type DigitalLine interface {
	// Set drives the line high or low.
	Set(high bool) error
	// Get samples the line.
	Get() (bool, error)
}

// WriteOnly stands for a read/write line tied to ground. Setting it always
// succeeds. A parallel bus using it can't read the status byte.
var WriteOnly DigitalLine = writeOnly{}

type writeOnly struct{}

func (writeOnly) Set(bool) error {
	return nil
}

func (writeOnly) Get() (bool, error) {
	return false, ErrWriteOnly
}

// Line returns a DigitalLine backed by a periph GPIO pin. Get switches the
// pin to input before reading it; the next Set switches it back to output.
func Line(p gpio.PinIO) DigitalLine {
	return pinLine{p: p}
}

// LineOut returns a DigitalLine backed by an output only GPIO pin. Get
// returns ErrWriteOnly.
func LineOut(p gpio.PinOut) DigitalLine {
	return pinOutLine{p: p}
}

// LinesByName looks up the GPIO pins by name in the periph registry and
// returns them as lines, in order.
func LinesByName(names ...string) ([]DigitalLine, error) {
	lines := make([]DigitalLine, len(names))
	for ix, name := range names {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("%s: pin %q not found", packageName, name)
		}
		lines[ix] = Line(p)
	}
	return lines, nil
}

type pinLine struct {
	p gpio.PinIO
}

func (l pinLine) Set(high bool) error {
	return l.p.Out(gpio.Level(high))
}

func (l pinLine) Get() (bool, error) {
	if err := l.p.In(gpio.PullNoChange, gpio.NoEdge); err != nil {
		return false, err
	}
	return bool(l.p.Read()), nil
}

func (l pinLine) String() string {
	return l.p.String()
}

type pinOutLine struct {
	p gpio.PinOut
}

func (l pinOutLine) Set(high bool) error {
	return l.p.Out(gpio.Level(high))
}

func (l pinOutLine) Get() (bool, error) {
	return false, ErrWriteOnly
}

func (l pinOutLine) String() string {
	return l.p.String()
}

// Delay blocks the calling goroutine. Implementations are expected to wait at
// least d; the bus timings are minimums.
type Delay interface {
	Sleep(d time.Duration)
}

// DelayFunc adapts a function to the Delay interface.
type DelayFunc func(d time.Duration)

// Sleep calls f(d).
func (f DelayFunc) Sleep(d time.Duration) {
	f(d)
}

// SleepDelay waits with time.Sleep. The scheduler granularity makes
// sub-microsecond pulses much longer than requested, which is harmless.
var SleepDelay Delay = DelayFunc(time.Sleep)

// SpinDelay busy-loops for waits under spinThreshold and sleeps otherwise.
// Use it when the many short enable pulses make SleepDelay too slow.
var SpinDelay Delay = DelayFunc(spin)

const spinThreshold = 100 * time.Microsecond

func spin(d time.Duration) {
	if d < spinThreshold {
		cpu.Nanospin(d)
		return
	}
	time.Sleep(d)
}
