// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package lcdsim

import (
	"image"
	"image/color"
	"io"
	"sync"

	"github.com/GermanBionicSystems/lcdbus/hd44780"
	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font/gofont/gomono"
)

const (
	cellW  = 12
	cellH  = 20
	margin = 16
)

var (
	bezel = color.NRGBA{0x20, 0x20, 0x20, 0xff}
	ink   = color.NRGBA{0x10, 0x20, 0x08, 0xff}

	monoFont = sync.OnceValues(func() (*truetype.Font, error) {
		return truetype.Parse(gomono.TTF)
	})
)

// Snapshot renders the module as it would look: bezel, backlight and
// characters. Each character cell is 12x20 pixels.
func Snapshot(c *Controller) (image.Image, error) {
	dc, err := render(c)
	if err != nil {
		return nil, err
	}
	return dc.Image(), nil
}

// WritePNG renders the module like Snapshot and encodes it as PNG to w.
func WritePNG(c *Controller, w io.Writer) error {
	dc, err := render(c)
	if err != nil {
		return err
	}
	return dc.EncodePNG(w)
}

func render(c *Controller) (*gg.Context, error) {
	f, err := monoFont()
	if err != nil {
		return nil, err
	}
	rows, cols := c.Size()
	dc := gg.NewContext(cols*cellW+2*margin, rows*cellH+2*margin)
	dc.SetColor(bezel)
	dc.Clear()

	bl := backlightOff
	if c.Backlight() {
		bl = backlightOn
	}
	dc.SetColor(bl)
	dc.DrawRoundedRectangle(margin/2, margin/2, float64(cols*cellW+margin), float64(rows*cellH+margin), 4)
	dc.Fill()

	if c.DisplayMode()&hd44780.DisplayOn == 0 {
		return dc, nil
	}
	dc.SetFontFace(truetype.NewFace(f, &truetype.Options{Size: cellH * 0.8}))
	dc.SetColor(ink)
	for row := range rows {
		y := float64(margin + (row+1)*cellH - cellH/4)
		for col, ch := range []byte(c.Line(row)) {
			x := float64(margin + col*cellW)
			dc.DrawString(string(rune(printable(ch))), x, y)
		}
	}
	return dc, nil
}
