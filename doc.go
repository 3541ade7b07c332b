// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package lcdbus is a container for the HD44780 character LCD bus drivers.
//
// hd44780 drives the controller over a parallel bus or a PCF8574 I²C
// backpack. lcdsim emulates the controller for tests and demos. tinyi2c lets
// the I²C backpack run on a TinyGo bus.
package lcdbus
