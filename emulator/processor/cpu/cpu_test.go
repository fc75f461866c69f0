/*
Copyright (C) 2019-2020 Andreas T Jonsson

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

package cpu

import (
	"errors"
	"testing"

	"github.com/andreas-jonsson/virtualgba/emulator/memory"
	"github.com/andreas-jonsson/virtualgba/emulator/processor"
)

type testPIC struct {
	pending bool
	raised  uint16
}

func (m *testPIC) Raise(n int) {
	m.raised |= 1 << n
}

func (m *testPIC) Pending() bool {
	return m.pending
}

func (m *testPIC) GetInterrupt() (int, error) {
	if !m.pending {
		return 0, errors.New("no interrupts")
	}
	return 0, nil
}

type testRAM struct {
	data []byte
}

func (m *testRAM) ReadByte(addr memory.Pointer) byte {
	return m.data[int(uint32(addr)&0xFFFFFF)%len(m.data)]
}

func (m *testRAM) WriteByte(addr memory.Pointer, data byte) {
	m.data[int(uint32(addr)&0xFFFFFF)%len(m.data)] = data
}

func newTestCPU() (*CPU, *memory.Bus, *testPIC) {
	bus := memory.NewBus()
	bus.Map(0, &testRAM{data: make([]byte, 0x4000)}, 1)
	bus.Map(3, &testRAM{data: make([]byte, 0x8000)}, 1)
	bus.Map(8, &testRAM{data: make([]byte, 0x10000)}, 1)

	pic := &testPIC{}
	return New(bus, pic), bus, pic
}

// step writes one ARM instruction at PC and executes it.
func step(p *CPU, bus *memory.Bus, op uint32) int {
	bus.WriteWord(memory.Pointer(p.PC), op)
	return p.Step()
}

// step16 writes one Thumb instruction at PC and executes it.
func step16(p *CPU, bus *memory.Bus, op uint16) int {
	bus.WriteHalf(memory.Pointer(p.PC), op)
	return p.Step()
}

func TestInitialState(t *testing.T) {
	p, _, _ := newTestCPU()

	if p.PC != processor.EntryPoint {
		t.Errorf("unexpected PC: 0x%X", p.PC)
	}
	if p.Mode() != processor.ModeSystem {
		t.Errorf("unexpected mode: 0x%X", uint32(p.Mode()))
	}
	if p.Get(13) != processor.InitialSP {
		t.Errorf("unexpected SP: 0x%X", p.Get(13))
	}
	if p.CPSR.GetBool(processor.Thumb) {
		t.Error("should start in ARM state")
	}
}

func TestInterruptEntry(t *testing.T) {
	p, _, pic := newTestCPU()
	pic.pending = true

	oldCPSR := p.CPSR
	c := p.Step()

	if c != 3 {
		t.Errorf("interrupt entry should take 3 cycles, took %d", c)
	}
	if p.Mode() != processor.ModeIRQ {
		t.Errorf("unexpected mode: 0x%X", uint32(p.Mode()))
	}
	if p.PC != processor.VectorIRQ {
		t.Errorf("unexpected PC: 0x%X", p.PC)
	}
	if lr := p.Get(14); lr != processor.EntryPoint+4 {
		t.Errorf("unexpected LR: 0x%X", lr)
	}
	if p.SPSR() != oldCPSR {
		t.Error("SPSR should hold the pre-exception status")
	}
	if !p.CPSR.GetBool(processor.IRQDisable) {
		t.Error("IRQ should be masked on entry")
	}
	if sp := p.Get(13); sp != processor.InitialSPIRQ {
		t.Errorf("unexpected banked SP: 0x%X", sp)
	}
}

func TestInterruptMasked(t *testing.T) {
	p, bus, pic := newTestCPU()
	pic.pending = true
	p.CPSR.Set(processor.IRQDisable)

	step(p, bus, 0xE3A00005) // MOV R0, #5
	if p.Get(0) != 5 {
		t.Error("masked interrupt should not preempt execution")
	}
	if p.PC != processor.EntryPoint+4 {
		t.Errorf("unexpected PC: 0x%X", p.PC)
	}
}

func TestExceptionReturn(t *testing.T) {
	p, bus, pic := newTestCPU()
	pic.pending = true
	p.Step()
	pic.pending = false

	// SUBS PC, LR, #4 restores both PC and the banked status word.
	step(p, bus, 0xE25EF004)

	if p.PC != processor.EntryPoint {
		t.Errorf("unexpected PC: 0x%X", p.PC)
	}
	if p.Mode() != processor.ModeSystem {
		t.Errorf("unexpected mode: 0x%X", uint32(p.Mode()))
	}
	if p.CPSR.GetBool(processor.IRQDisable) {
		t.Error("IRQ mask should be restored")
	}
}

func TestHaltWakesOnInterrupt(t *testing.T) {
	p, bus, pic := newTestCPU()

	step(p, bus, 0xEF020000) // Halt system call
	if !p.Halted() {
		t.Fatal("should be halted")
	}

	pc := p.PC
	if c := p.Step(); c != 1 {
		t.Errorf("halted step should idle for 1 cycle, took %d", c)
	}
	if p.PC != pc {
		t.Error("halted processor should not advance")
	}

	pic.pending = true
	p.Step()
	if p.Halted() {
		t.Error("interrupt should wake the processor")
	}
	if p.PC != processor.VectorIRQ {
		t.Errorf("unexpected PC: 0x%X", p.PC)
	}
}

func TestSystemCallTrapsWithBIOS(t *testing.T) {
	p, bus, _ := newTestCPU()
	p.SetBIOSLoaded(true)

	step(p, bus, 0xEF060000)
	if p.Mode() != processor.ModeSupervisor {
		t.Errorf("unexpected mode: 0x%X", uint32(p.Mode()))
	}
	if p.PC != processor.VectorSWI {
		t.Errorf("unexpected PC: 0x%X", p.PC)
	}
	if lr := p.Get(14); lr != processor.EntryPoint+4 {
		t.Errorf("unexpected LR: 0x%X", lr)
	}
}

func TestDivSystemCall(t *testing.T) {
	p, bus, _ := newTestCPU()
	p.Set(0, 17)
	p.Set(1, 5)

	step(p, bus, 0xEF060000)
	if q := p.Get(0); q != 3 {
		t.Errorf("unexpected quotient: %d", q)
	}
	if r := p.Get(1); r != 2 {
		t.Errorf("unexpected remainder: %d", r)
	}
	if a := p.Get(3); a != 3 {
		t.Errorf("unexpected absolute quotient: %d", a)
	}
	if p.PC != processor.EntryPoint+4 {
		t.Error("inline system call should fall through")
	}
}

func TestSqrtSystemCall(t *testing.T) {
	p, bus, _ := newTestCPU()
	p.Set(0, 90)

	step(p, bus, 0xEF0E0000)
	if v := p.Get(0); v != 9 {
		t.Errorf("unexpected root: %d", v)
	}
}

func TestEvalCondition(t *testing.T) {
	p, _, _ := newTestCPU()

	tests := []struct {
		cond  byte
		flags processor.Flags
		want  bool
	}{
		{0x0, processor.Zero, true},      // EQ
		{0x0, 0, false},                  // EQ
		{0x1, 0, true},                   // NE
		{0x2, processor.Carry, true},     // CS
		{0x3, processor.Carry, false},    // CC
		{0x4, processor.Negative, true},  // MI
		{0x5, processor.Negative, false}, // PL
		{0x8, processor.Carry, true},     // HI
		{0x8, processor.Carry | processor.Zero, false},
		{0x9, processor.Zero, true}, // LS
		{0xA, processor.Negative | processor.Overflow, true}, // GE
		{0xA, processor.Negative, false},
		{0xB, processor.Negative, true}, // LT
		{0xC, 0, true},                  // GT
		{0xC, processor.Zero, false},
		{0xD, processor.Zero, true}, // LE
		{0xE, 0, true},              // AL
	}

	for i, tt := range tests {
		p.CPSR = tt.flags | processor.ModeSystem
		if got := p.evalCondition(tt.cond); got != tt.want {
			t.Errorf("case %d: cond 0x%X with flags 0x%X: got %v", i, tt.cond, uint32(tt.flags), got)
		}
	}
}

func TestIsqrt(t *testing.T) {
	for _, tt := range [][2]uint32{{0, 0}, {1, 1}, {3, 1}, {4, 2}, {80, 8}, {81, 9}, {0xFFFFFFFF, 0xFFFF}} {
		if got := isqrt(tt[0]); got != tt[1] {
			t.Errorf("isqrt(%d) = %d, want %d", tt[0], got, tt[1])
		}
	}
}
