// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package hd44780

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// latch is one falling edge of E in write mode.
type latch struct {
	RS   bool
	Data byte
}

// fakeBus records every line operation and wait, and the value on the data
// lines each time E falls while writing.
type fakeBus struct {
	ops     []string
	latches []latch

	rs, rw, e *fakeLine
	data      []*fakeLine

	// reads holds the values driven on the data lines by successive read
	// cycles.
	reads   []byte
	readIx  int
	current byte

	// failAfter counts the line operations allowed to succeed. Negative
	// means never fail.
	failAfter int
	err       error
}

type fakeLine struct {
	b     *fakeBus
	name  string
	bit   int
	level bool
}

func newFakeBus(width int) *fakeBus {
	b := &fakeBus{failAfter: -1, err: errors.New("injected")}
	b.rs = &fakeLine{b: b, name: "RS"}
	b.rw = &fakeLine{b: b, name: "RW"}
	b.e = &fakeLine{b: b, name: "E"}
	first := 8 - width
	for n := range width {
		b.data = append(b.data, &fakeLine{b: b, name: fmt.Sprintf("D%d", first+n), bit: n})
	}
	return b
}

func (b *fakeBus) pins() Pins {
	p := Pins{RS: b.rs, RW: b.rw, E: b.e}
	for _, l := range b.data {
		p.Data = append(p.Data, l)
	}
	return p
}

func (b *fakeBus) Sleep(d time.Duration) {
	b.ops = append(b.ops, "sleep "+d.String())
}

func (b *fakeBus) check() error {
	switch {
	case b.failAfter < 0:
		return nil
	case b.failAfter == 0:
		b.ops = append(b.ops, "FAIL")
		return b.err
	default:
		b.failAfter--
		return nil
	}
}

func (b *fakeBus) dataValue() byte {
	var v byte
	for n, l := range b.data {
		if l.level {
			v |= 1 << n
		}
	}
	return v
}

func (b *fakeBus) sleeps() []string {
	var out []string
	for _, op := range b.ops {
		if strings.HasPrefix(op, "sleep ") {
			out = append(out, op)
		}
	}
	return out
}

func (l *fakeLine) Set(high bool) error {
	if err := l.b.check(); err != nil {
		return err
	}
	v := 0
	if high {
		v = 1
	}
	l.b.ops = append(l.b.ops, fmt.Sprintf("%s=%d", l.name, v))
	prev := l.level
	l.level = high
	if l == l.b.e {
		switch {
		case high && !prev && l.b.rw.level:
			if l.b.readIx < len(l.b.reads) {
				l.b.current = l.b.reads[l.b.readIx]
			}
			l.b.readIx++
		case !high && prev && !l.b.rw.level:
			l.b.latches = append(l.b.latches, latch{RS: l.b.rs.level, Data: l.b.dataValue()})
		}
	}
	return nil
}

func (l *fakeLine) Get() (bool, error) {
	if err := l.b.check(); err != nil {
		return false, err
	}
	l.b.ops = append(l.b.ops, "get "+l.name)
	return l.b.current>>l.bit&1 != 0, nil
}

func TestNewParallel(t *testing.T) {
	b := newFakeBus(8)
	p := b.pins()
	p.Data = p.Data[:3]
	if _, err := NewParallel(p, nil); !errors.Is(err, ErrDataWidth) {
		t.Errorf("3 data lines: expected ErrDataWidth, got %v", err)
	}
	p = b.pins()
	p.RS = nil
	if _, err := NewParallel(p, nil); !errors.Is(err, ErrMissingLine) {
		t.Errorf("nil RS: expected ErrMissingLine, got %v", err)
	}
	p = b.pins()
	p.E = nil
	if _, err := NewParallel(p, nil); !errors.Is(err, ErrMissingLine) {
		t.Errorf("nil E: expected ErrMissingLine, got %v", err)
	}
	p = b.pins()
	p.Data[5] = nil
	if _, err := NewParallel(p, nil); !errors.Is(err, ErrMissingLine) {
		t.Errorf("nil D5: expected ErrMissingLine, got %v", err)
	}
	if len(b.ops) != 0 {
		t.Errorf("constructor touched the lines: %v", b.ops)
	}

	tests := []struct {
		width int
		kind  Kind
		t     Timings
	}{
		{8, EightBitParallel, Parallel8Timings},
		{4, FourBitParallel, Parallel4Timings},
	}
	for _, test := range tests {
		lcd, err := NewParallel(newFakeBus(test.width).pins(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if lcd.Kind() != test.kind {
			t.Errorf("width %d: Kind()=%s", test.width, lcd.Kind())
		}
		if lcd.timings != test.t {
			t.Errorf("width %d: unexpected default timings %v", test.width, lcd.timings)
		}
		if s := lcd.String(); s != "HD44780::"+test.kind.String() {
			t.Errorf("String()=%q", s)
		}
	}
}

func TestParallel8Write(t *testing.T) {
	for _, rs := range []RegisterSelect{Control, Memory} {
		for v := range 256 {
			b := newFakeBus(8)
			lcd, err := NewParallel(b.pins(), nil)
			if err != nil {
				t.Fatal(err)
			}
			if err := lcd.Write(rs, byte(v), b); err != nil {
				t.Fatal(err)
			}
			want := []latch{{RS: bool(rs), Data: byte(v)}}
			if diff := cmp.Diff(want, b.latches); diff != "" {
				t.Errorf("Write(%s, 0x%02x) mismatch (-want +got):\n%s", rs, v, diff)
			}
		}
	}
}

func TestParallel8WriteOps(t *testing.T) {
	b := newFakeBus(8)
	lcd, err := NewParallel(b.pins(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteData(lcd, 'A', b); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"RS=1",
		"D0=1", "D1=0", "D2=0", "D3=0", "D4=0", "D5=0", "D6=1", "D7=0",
		"E=1", "sleep 500ns", "E=0", "sleep 50µs",
	}
	if diff := cmp.Diff(want, b.ops); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}

	b.ops = nil
	if err := WriteCommand(lcd, CmdClearDisplay, b); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"sleep 1.5ms", "sleep 1ms"}, b.sleeps()); diff != "" {
		t.Errorf("control waits mismatch (-want +got):\n%s", diff)
	}
}

func TestParallel4Write(t *testing.T) {
	for _, rs := range []RegisterSelect{Control, Memory} {
		for v := range 256 {
			b := newFakeBus(4)
			lcd, err := NewParallel(b.pins(), nil)
			if err != nil {
				t.Fatal(err)
			}
			if err := lcd.Write(rs, byte(v), b); err != nil {
				t.Fatal(err)
			}
			want := []latch{
				{RS: bool(rs), Data: byte(v) >> 4},
				{RS: bool(rs), Data: byte(v) & 0x0f},
			}
			if diff := cmp.Diff(want, b.latches); diff != "" {
				t.Errorf("Write(%s, 0x%02x) mismatch (-want +got):\n%s", rs, v, diff)
			}
		}
	}
}

func TestParallel4WriteOps(t *testing.T) {
	b := newFakeBus(4)
	lcd, err := NewParallel(b.pins(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := WriteData(lcd, 'A', b); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"RS=1",
		"D4=0", "D5=0", "D6=1", "D7=0",
		"E=1", "sleep 3µs", "E=0", "sleep 50µs",
		"D4=1", "D5=0", "D6=0", "D7=0",
		"E=1", "sleep 3µs", "E=0", "sleep 50µs",
	}
	if diff := cmp.Diff(want, b.ops); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParallel8Init(t *testing.T) {
	b := newFakeBus(8)
	lcd, err := NewParallel(b.pins(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := lcd.Init(TwoLines, DisplayOn, EntryIncrement, b); err != nil {
		t.Fatal(err)
	}
	want := []latch{
		{Data: 0x30}, {Data: 0x30}, {Data: 0x30},
		{Data: 0x38}, {Data: 0x0c}, {Data: 0x01}, {Data: 0x06},
	}
	if diff := cmp.Diff(want, b.latches); diff != "" {
		t.Errorf("latches mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"RS=0", "RW=0", "E=0", "sleep 50ms"}, b.ops[:4]); diff != "" {
		t.Errorf("prologue mismatch (-want +got):\n%s", diff)
	}
	sleeps := []string{
		"sleep 50ms",
		"sleep 1.5ms", "sleep 4.5ms",
		"sleep 1.5ms", "sleep 100µs",
		"sleep 1.5ms", "sleep 1ms",
	}
	for range 4 {
		sleeps = append(sleeps, "sleep 1.5ms", "sleep 1ms")
	}
	if diff := cmp.Diff(sleeps, b.sleeps()); diff != "" {
		t.Errorf("waits mismatch (-want +got):\n%s", diff)
	}
}

func TestParallel4Init(t *testing.T) {
	b := newFakeBus(4)
	lcd, err := NewParallel(b.pins(), nil)
	if err != nil {
		t.Fatal(err)
	}
	// DataLength8 is cleared to match the wiring.
	if err := lcd.Init(TwoLines|DataLength8, DisplayOn|CursorOn, EntryIncrement, b); err != nil {
		t.Fatal(err)
	}
	var got []byte
	for _, l := range b.latches {
		if l.RS {
			t.Errorf("unexpected memory write %v", l)
		}
		got = append(got, l.Data)
	}
	want := []byte{3, 3, 3, 2, 2, 8, 0, 0xe, 0, 1, 0, 6}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("nibbles mismatch (-want +got):\n%s", diff)
	}
	sleeps := []string{
		"sleep 50ms",
		"sleep 750µs", "sleep 4.5ms",
		"sleep 750µs", "sleep 100µs",
		"sleep 750µs", "sleep 800µs",
		"sleep 750µs", "sleep 800µs",
	}
	for range 8 {
		sleeps = append(sleeps, "sleep 750µs", "sleep 800µs")
	}
	if diff := cmp.Diff(sleeps, b.sleeps()); diff != "" {
		t.Errorf("waits mismatch (-want +got):\n%s", diff)
	}
}

func TestParallelInitMasksFlags(t *testing.T) {
	b := newFakeBus(8)
	lcd, err := NewParallel(b.pins(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := lcd.Init(0xff, 0xff, 0xff, b); err != nil {
		t.Fatal(err)
	}
	var got []byte
	for _, l := range b.latches[3:] {
		got = append(got, l.Data)
	}
	if diff := cmp.Diff([]byte{0x3c, 0x0f, 0x01, 0x07}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParallel8ReadStatus(t *testing.T) {
	for _, busy := range []bool{false, true} {
		for addr := range 128 {
			s := byte(addr)
			if busy {
				s |= 0x80
			}
			b := newFakeBus(8)
			b.reads = []byte{s}
			lcd, err := NewParallel(b.pins(), nil)
			if err != nil {
				t.Fatal(err)
			}
			got, err := lcd.ReadStatus(b)
			if err != nil {
				t.Fatal(err)
			}
			if got.Busy() != busy || got.Address() != byte(addr) {
				t.Errorf("expected busy=%t addr=0x%02x, got %s", busy, addr, got)
			}
			if b.readIx != 1 {
				t.Errorf("expected 1 read cycle, got %d", b.readIx)
			}
			if last := b.ops[len(b.ops)-1]; last != "RW=0" {
				t.Errorf("bus left in read mode, last op %q", last)
			}
		}
	}
}

func TestParallel8ReadStatusOps(t *testing.T) {
	b := newFakeBus(8)
	b.reads = []byte{0x85}
	lcd, err := NewParallel(b.pins(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := lcd.ReadStatus(b); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"RS=0", "RW=1",
		"D0=1", "D1=1", "D2=1", "D3=1", "D4=1", "D5=1", "D6=1", "D7=1",
		"E=1", "sleep 1ms",
		"get D0", "get D1", "get D2", "get D3", "get D4", "get D5", "get D6", "get D7",
		"E=0", "sleep 1ms",
		"RW=0",
	}
	if diff := cmp.Diff(want, b.ops); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParallel4ReadStatus(t *testing.T) {
	for _, s := range []byte{0x00, 0x7f, 0x80, 0xa5, 0x5a, 0xff} {
		b := newFakeBus(4)
		// D4-D7 are data lines 0-3.
		b.reads = []byte{s >> 4, s & 0x0f}
		lcd, err := NewParallel(b.pins(), nil)
		if err != nil {
			t.Fatal(err)
		}
		got, err := lcd.ReadStatus(b)
		if err != nil {
			t.Fatal(err)
		}
		if byte(got) != s {
			t.Errorf("expected 0x%02x, got 0x%02x", s, byte(got))
		}
		if b.readIx != 2 {
			t.Errorf("expected 2 read cycles, got %d", b.readIx)
		}
		if diff := cmp.Diff([]string{"sleep 800µs", "sleep 800µs", "sleep 800µs", "sleep 800µs"}, b.sleeps()); diff != "" {
			t.Errorf("waits mismatch (-want +got):\n%s", diff)
		}
	}
}

func TestParallelWriteOnly(t *testing.T) {
	for _, rw := range []DigitalLine{nil, WriteOnly} {
		b := newFakeBus(4)
		p := b.pins()
		p.RW = rw
		lcd, err := NewParallel(p, nil)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := lcd.ReadStatus(b); !errors.Is(err, ErrWriteOnly) {
			t.Errorf("expected ErrWriteOnly, got %v", err)
		}
		if len(b.ops) != 0 {
			t.Errorf("unexpected bus activity %v", b.ops)
		}
		// Writes still work.
		if err := lcd.Init(TwoLines, DisplayOn, EntryIncrement, b); err != nil {
			t.Fatal(err)
		}
		if len(b.latches) != 12 {
			t.Errorf("expected 12 latches, got %d", len(b.latches))
		}
	}
}

func TestParallelErrorAborts(t *testing.T) {
	ops := map[string]func(lcd *ParallelBus, b *fakeBus) error{
		"Init": func(lcd *ParallelBus, b *fakeBus) error {
			return lcd.Init(TwoLines, DisplayOn, EntryIncrement, b)
		},
		"Write": func(lcd *ParallelBus, b *fakeBus) error {
			return lcd.Write(Memory, 0x5a, b)
		},
		"ReadStatus": func(lcd *ParallelBus, b *fakeBus) error {
			_, err := lcd.ReadStatus(b)
			return err
		},
	}
	for name, op := range ops {
		for _, width := range []int{4, 8} {
			// Count the line operations of a clean run.
			clean := newFakeBus(width)
			lcd, err := NewParallel(clean.pins(), nil)
			if err != nil {
				t.Fatal(err)
			}
			if err := op(lcd, clean); err != nil {
				t.Fatal(err)
			}
			total := len(clean.ops) - len(clean.sleeps())
			for n := range total {
				b := newFakeBus(width)
				b.failAfter = n
				lcd, err := NewParallel(b.pins(), nil)
				if err != nil {
					t.Fatal(err)
				}
				if err := op(lcd, b); err != b.err {
					t.Errorf("%s/%d fail after %d: expected injected error, got %v", name, width, n, err)
				}
				if last := b.ops[len(b.ops)-1]; last != "FAIL" {
					t.Errorf("%s/%d fail after %d: bus activity after the error: %v", name, width, n, b.ops)
				}
			}
		}
	}
}

func TestParallelRelease(t *testing.T) {
	b := newFakeBus(8)
	lcd, err := NewParallel(b.pins(), nil)
	if err != nil {
		t.Fatal(err)
	}
	p := lcd.Release()
	if p.RS != b.rs || p.RW != b.rw || p.E != b.e || len(p.Data) != 8 {
		t.Errorf("unexpected pins %+v", p)
	}
	if diff := cmp.Diff(Pins{}, lcd.pins, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("bus still holds the pins (-want +got):\n%s", diff)
	}
}

func TestWaitReady(t *testing.T) {
	b := newFakeBus(8)
	b.reads = []byte{0x80, 0x80, 0x05}
	lcd, err := NewParallel(b.pins(), nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err := WaitReady(lcd, b, time.Millisecond, 10)
	if err != nil {
		t.Fatal(err)
	}
	if s.Busy() || s.Address() != 5 {
		t.Errorf("unexpected status %s", s)
	}
	if b.readIx != 3 {
		t.Errorf("expected 3 reads, got %d", b.readIx)
	}

	b = newFakeBus(8)
	b.reads = []byte{0x81, 0x81, 0x81}
	lcd, err = NewParallel(b.pins(), nil)
	if err != nil {
		t.Fatal(err)
	}
	s, err = WaitReady(lcd, b, time.Millisecond, 3)
	if !errors.Is(err, ErrBusyTimeout) {
		t.Errorf("expected ErrBusyTimeout, got %v", err)
	}
	if !s.Busy() || s.Address() != 1 {
		t.Errorf("expected the last status, got %s", s)
	}

	lcd, err = NewParallel(Pins{RS: b.rs, E: b.e, Data: b.pins().Data}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := WaitReady(lcd, b, time.Millisecond, 3); !errors.Is(err, ErrWriteOnly) {
		t.Errorf("expected ErrWriteOnly, got %v", err)
	}
}
