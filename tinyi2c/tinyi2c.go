// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package tinyi2c exposes a TinyGo I²C bus as a periph i2c.Bus, so periph
// device drivers can run on microcontroller boards.
package tinyi2c

import (
	"errors"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers"
)

// ErrSpeed is returned by SetSpeed. The clock of a TinyGo bus is set when the
// board configures it.
var ErrSpeed = errors.New("tinyi2c: bus speed is fixed by the board configuration")

// Bus wraps a drivers.I2C.
type Bus struct {
	bus drivers.I2C
}

// New returns bus as an i2c.Bus.
func New(bus drivers.I2C) *Bus {
	return &Bus{bus: bus}
}

// Tx forwards the transaction unchanged.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	return b.bus.Tx(addr, w, r)
}

// SetSpeed returns ErrSpeed.
func (b *Bus) SetSpeed(f physic.Frequency) error {
	return ErrSpeed
}

func (b *Bus) String() string {
	return "tinyi2c"
}

var _ i2c.Bus = &Bus{}
