// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"periph.io/x/conn/v3/display"
)

// LineBacklight is a monochrome backlight switched by a single line, as
// found on parallel wired modules. Implements display.DisplayBacklight.
type LineBacklight struct {
	l DigitalLine
}

// NewBacklight returns a backlight driven by l.
func NewBacklight(l DigitalLine) *LineBacklight {
	return &LineBacklight{l: l}
}

// Backlight turns the backlight on for any non zero intensity.
func (bl *LineBacklight) Backlight(intensity display.Intensity) error {
	return bl.l.Set(intensity != 0)
}

// Backlight turns the expander backlight on for any non zero intensity.
// Implements display.DisplayBacklight.
func (b *ExpanderBus) Backlight(intensity display.Intensity) error {
	return b.SetBacklight(intensity != 0)
}

var _ display.DisplayBacklight = &LineBacklight{}
var _ display.DisplayBacklight = &ExpanderBus{}
