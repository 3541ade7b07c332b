// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"fmt"

	"github.com/GermanBionicSystems/lcdbus/hd44780"
)

type lineID int

const (
	lineRS lineID = iota
	lineRW
	lineE
	lineBacklight
	lineD0
)

// Pins8 returns simulated lines for an 8-bit parallel bus.
func (c *Controller) Pins8() hd44780.Pins {
	p := hd44780.Pins{RS: c.newLine(lineRS), RW: c.newLine(lineRW), E: c.newLine(lineE)}
	for n := range 8 {
		p.Data = append(p.Data, c.newLine(lineD0+lineID(n)))
	}
	return p
}

// Pins4 returns simulated lines for a 4-bit parallel bus. D0-D3 are left
// unconnected and read as low.
func (c *Controller) Pins4() hd44780.Pins {
	p := hd44780.Pins{RS: c.newLine(lineRS), RW: c.newLine(lineRW), E: c.newLine(lineE)}
	for n := 4; n < 8; n++ {
		p.Data = append(p.Data, c.newLine(lineD0+lineID(n)))
	}
	return p
}

// BacklightLine returns the simulated backlight control line.
func (c *Controller) BacklightLine() hd44780.DigitalLine {
	return c.newLine(lineBacklight)
}

func (c *Controller) newLine(id lineID) *line {
	return &line{c: c, id: id}
}

// setLevel must be called with the lock held.
func (c *Controller) setLevel(id lineID, high bool) {
	switch id {
	case lineRS:
		c.rs = high
	case lineRW:
		if c.rw != high {
			c.readHalf = false
		}
		c.rw = high
	case lineE:
		rising := high && !c.e
		falling := !high && c.e
		c.e = high
		switch {
		case rising && c.rw:
			c.startRead()
		case falling && c.rw:
			c.endRead()
		case falling:
			c.latch()
		}
	case lineBacklight:
		c.backlight = high
	default:
		bit := byte(1) << uint(id-lineD0)
		if high {
			c.data |= bit
		} else {
			c.data &^= bit
		}
	}
}

// level must be called with the lock held.
func (c *Controller) level(id lineID) bool {
	switch id {
	case lineRS:
		return c.rs
	case lineRW:
		return c.rw
	case lineE:
		return c.e
	case lineBacklight:
		return c.backlight
	}
	n := uint(id - lineD0)
	if c.rw && c.e && (c.eightBit || n >= 4) {
		return c.output()>>n&1 != 0
	}
	return c.data>>n&1 != 0
}

type line struct {
	c  *Controller
	id lineID
}

func (l *line) Set(high bool) error {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()
	if err := l.c.fail(); err != nil {
		return err
	}
	l.c.setLevel(l.id, high)
	return nil
}

func (l *line) Get() (bool, error) {
	l.c.mu.Lock()
	defer l.c.mu.Unlock()
	if err := l.c.fail(); err != nil {
		return false, err
	}
	return l.c.level(l.id), nil
}

func (l *line) String() string {
	switch l.id {
	case lineRS:
		return "RS"
	case lineRW:
		return "RW"
	case lineE:
		return "E"
	case lineBacklight:
		return "BL"
	default:
		return fmt.Sprintf("D%d", l.id-lineD0)
	}
}

var _ hd44780.DigitalLine = &line{}
