// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import "periph.io/x/conn/v3/i2c"

// errorHandler keeps the first error of a bus sequence. Once it is set every
// following line operation, transaction and wait is skipped, so the sequence
// aborts without further bus activity.
type errorHandler struct {
	t   Timings
	d   Delay
	err error
}

func (eh *errorHandler) set(l DigitalLine, high bool) {
	if eh.err != nil {
		return
	}
	eh.err = l.Set(high)
}

func (eh *errorHandler) get(l DigitalLine) bool {
	if eh.err != nil {
		return false
	}
	v, err := l.Get()
	eh.err = err
	return v
}

func (eh *errorHandler) tx(d *i2c.Dev, w, r []byte) {
	if eh.err != nil {
		return
	}
	eh.err = d.Tx(w, r)
}

func (eh *errorHandler) enableOnWait(rs RegisterSelect) {
	if eh.err != nil {
		return
	}
	eh.t.EnablePulseOn(rs, eh.d)
}

func (eh *errorHandler) enableOffWait(rs RegisterSelect) {
	if eh.err != nil {
		return
	}
	eh.t.EnablePulseOff(rs, eh.d)
}

func (eh *errorHandler) readWait() {
	if eh.err != nil {
		return
	}
	eh.t.ReadDelay(eh.d)
}

func (eh *errorHandler) powerOnWait() {
	if eh.err != nil {
		return
	}
	eh.t.PowerOnDelay(eh.d)
}

func (eh *errorHandler) firstInitWait() {
	if eh.err != nil {
		return
	}
	eh.t.FirstInitDelay(eh.d)
}

func (eh *errorHandler) secondInitWait() {
	if eh.err != nil {
		return
	}
	eh.t.SecondInitDelay(eh.d)
}
