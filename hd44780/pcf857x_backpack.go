// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"periph.io/x/conn/v3/i2c"
)

// NewPCF857xBackpack returns a bus for the PCF8574 I²C backpacks sold with
// LCD1602 and LCD2004 modules, using the default I²C timings.
//
// # Product Information
//
// https://www.handsontec.com/dataspecs/I2C_2004_LCD.pdf
//
// address is usually DefaultExpanderAddress, or AltExpanderAddress for the
// PCF8574A variant. The returned bus must still be initialized with Init.
func NewPCF857xBackpack(bus i2c.Bus, address uint16) *ExpanderBus {
	return NewExpander(bus, address, I2CTimings)
}
