// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
)

// Expander is a simulated PCF8574 backpack soldered to the Controller. It
// implements i2c.Bus.
//
// Pin map: P0=RS, P1=RW, P2=E, P3=backlight, P4-P7=D4-D7.
type Expander struct {
	c    *Controller
	addr uint16

	mu     sync.Mutex
	pins   byte
	writes []byte
	speed  physic.Frequency
}

// Expander returns an expander answering at addr.
func (c *Controller) Expander(addr uint16) *Expander {
	return &Expander{c: c, addr: addr, pins: 0xff}
}

// Tx writes each byte of w to the pins in order, then reads the pins once
// per byte of r.
//
// Like the real chip a pin written low reads low, and a pin written high
// reads what the controller drives on it.
func (x *Expander) Tx(addr uint16, w, r []byte) error {
	if addr != x.addr {
		return fmt.Errorf("lcdsim: no device at address 0x%02x", addr)
	}
	x.mu.Lock()
	defer x.mu.Unlock()
	x.c.mu.Lock()
	defer x.c.mu.Unlock()
	if err := x.c.fail(); err != nil {
		return err
	}
	for _, b := range w {
		x.apply(b)
	}
	for ix := range r {
		r[ix] = x.sample()
	}
	return nil
}

// SetSpeed records the requested clock.
func (x *Expander) SetSpeed(f physic.Frequency) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.speed = f
	return nil
}

// Speed returns the clock set with SetSpeed.
func (x *Expander) Speed() physic.Frequency {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.speed
}

// Writes returns every byte written to the pins.
func (x *Expander) Writes() []byte {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]byte(nil), x.writes...)
}

// Pins returns the last byte written to the pins.
func (x *Expander) Pins() byte {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.pins
}

func (x *Expander) String() string {
	return fmt.Sprintf("lcdsim.PCF8574(0x%02x)", x.addr)
}

// apply must be called with both locks held. E goes last so the controller
// sees the other pins settled on the edge.
func (x *Expander) apply(b byte) {
	x.pins = b
	x.writes = append(x.writes, b)
	c := x.c
	c.setLevel(lineRS, b&0x01 != 0)
	c.setLevel(lineRW, b&0x02 != 0)
	c.setLevel(lineBacklight, b&0x08 != 0)
	for n := 4; n < 8; n++ {
		c.setLevel(lineD0+lineID(n), b&(1<<n) != 0)
	}
	c.setLevel(lineE, b&0x04 != 0)
}

// sample must be called with both locks held.
func (x *Expander) sample() byte {
	v := x.pins
	for n := 4; n < 8; n++ {
		if !x.c.level(lineD0 + lineID(n)) {
			v &^= 1 << n
		}
	}
	return v
}

var _ i2c.Bus = &Expander{}
