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
	"testing"

	"github.com/andreas-jonsson/virtualgba/emulator/memory"
	"github.com/andreas-jonsson/virtualgba/emulator/processor"
)

func newThumbCPU() (*CPU, *memory.Bus, *testPIC) {
	p, bus, pic := newTestCPU()
	p.CPSR.Set(processor.Thumb)
	return p, bus, pic
}

func TestThumbMoveImmediate(t *testing.T) {
	p, bus, _ := newThumbCPU()

	step16(p, bus, 0x202A) // MOV R0, #42
	if v := p.Get(0); v != 42 {
		t.Errorf("unexpected R0: %d", v)
	}
	if p.PC != processor.EntryPoint+2 {
		t.Errorf("unexpected PC: 0x%X", p.PC)
	}

	step16(p, bus, 0x2100) // MOV R1, #0
	if !p.CPSR.GetBool(processor.Zero) {
		t.Error("Z should be set")
	}
}

func TestThumbShiftImmediate(t *testing.T) {
	p, bus, _ := newThumbCPU()
	p.Set(1, 0x0F)

	step16(p, bus, 0x0108) // LSL R0, R1, #4
	if v := p.Get(0); v != 0xF0 {
		t.Errorf("unexpected R0: 0x%X", v)
	}

	p.Set(2, 0x80000000)
	step16(p, bus, 0x1011) // ASR R1, R2, #32 (encoded as 0)
	if v := p.Get(1); v != 0xFFFFFFFF {
		t.Errorf("unexpected R1: 0x%X", v)
	}
	if !p.CPSR.GetBool(processor.Carry) {
		t.Error("sign bit should flow into C")
	}
}

func TestThumbAddSubtract(t *testing.T) {
	p, bus, _ := newThumbCPU()
	p.Set(0, 10)
	p.Set(1, 3)

	step16(p, bus, 0x1842) // ADD R2, R0, R1
	if v := p.Get(2); v != 13 {
		t.Errorf("unexpected R2: %d", v)
	}

	step16(p, bus, 0x1E53) // SUB R3, R2, #1
	if v := p.Get(3); v != 12 {
		t.Errorf("unexpected R3: %d", v)
	}
	if !p.CPSR.GetBool(processor.Carry) {
		t.Error("C should be set without borrow")
	}
}

func TestThumbALU(t *testing.T) {
	p, bus, _ := newThumbCPU()
	p.Set(0, 0xF0)
	p.Set(1, 0xFF)

	step16(p, bus, 0x4008) // AND R0, R1
	if v := p.Get(0); v != 0xF0 {
		t.Errorf("unexpected R0: 0x%X", v)
	}

	p.Set(2, 6)
	p.Set(3, 7)
	step16(p, bus, 0x435A) // MUL R2, R3
	if v := p.Get(2); v != 42 {
		t.Errorf("unexpected R2: %d", v)
	}

	p.Set(4, 5)
	step16(p, bus, 0x4264) // NEG R4, R4
	if v := p.Get(4); v != 0xFFFFFFFB {
		t.Errorf("unexpected R4: 0x%X", v)
	}
}

func TestThumbHiRegisterOps(t *testing.T) {
	p, bus, _ := newThumbCPU()
	p.Set(0, 0x1000)

	step16(p, bus, 0x4685) // MOV SP, R0
	if v := p.Get(13); v != 0x1000 {
		t.Errorf("unexpected SP: 0x%X", v)
	}

	// High-register ADD leaves the flags alone.
	p.CPSR.Clear(processor.ConditionFlags)
	p.Set(1, 0xFFFFFFFF)
	p.Set(8, 1)
	step16(p, bus, 0x4441) // ADD R1, R8
	if v := p.Get(1); v != 0 {
		t.Errorf("unexpected R1: 0x%X", v)
	}
	if p.CPSR.GetBool(processor.Zero) {
		t.Error("hi-register ADD must not set flags")
	}
}

func TestThumbBranchExchangeToARM(t *testing.T) {
	p, bus, _ := newThumbCPU()
	p.Set(14, 0x08000200) // bit zero clear selects ARM

	step16(p, bus, 0x4770) // BX LR
	if p.CPSR.GetBool(processor.Thumb) {
		t.Error("should be back in ARM state")
	}
	if p.PC != 0x08000200 {
		t.Errorf("unexpected PC: 0x%X", p.PC)
	}
}

func TestThumbPCRelativeLoad(t *testing.T) {
	p, bus, _ := newThumbCPU()
	base := (processor.EntryPoint + 4) &^ 3
	bus.WriteWord(memory.Pointer(base+8), 0xDEADBEEF)

	step16(p, bus, 0x4802) // LDR R0, [PC, #8]
	if v := p.Get(0); v != 0xDEADBEEF {
		t.Errorf("unexpected R0: 0x%X", v)
	}
}

func TestThumbLoadStoreImmediate(t *testing.T) {
	p, bus, _ := newThumbCPU()
	p.Set(1, 0x03000100)
	p.Set(0, 0xFEEDFACE)

	step16(p, bus, 0x6048) // STR R0, [R1, #4]
	v, _ := bus.ReadWord(0x03000104)
	if v != 0xFEEDFACE {
		t.Errorf("unexpected memory: 0x%X", v)
	}

	step16(p, bus, 0x684A) // LDR R2, [R1, #4]
	if v := p.Get(2); v != 0xFEEDFACE {
		t.Errorf("unexpected R2: 0x%X", v)
	}
}

func TestThumbLoadStoreHalfword(t *testing.T) {
	p, bus, _ := newThumbCPU()
	p.Set(1, 0x03000120)
	p.Set(0, 0xABCD)

	step16(p, bus, 0x8048) // STRH R0, [R1, #2]
	v, _ := bus.ReadHalf(0x03000122)
	if v != 0xABCD {
		t.Errorf("unexpected memory: 0x%X", v)
	}

	step16(p, bus, 0x884A) // LDRH R2, [R1, #2]
	if v := p.Get(2); v != 0xABCD {
		t.Errorf("unexpected R2: 0x%X", v)
	}
}

func TestThumbSPRelative(t *testing.T) {
	p, bus, _ := newThumbCPU()
	p.Set(13, 0x03000800)
	p.Set(0, 0x7777)

	step16(p, bus, 0x9001) // STR R0, [SP, #4]
	step16(p, bus, 0x9901) // LDR R1, [SP, #4]
	if v := p.Get(1); v != 0x7777 {
		t.Errorf("unexpected R1: 0x%X", v)
	}
}

func TestThumbPushPop(t *testing.T) {
	p, bus, _ := newThumbCPU()
	p.Set(13, 0x03001000)
	p.Set(0, 0xAA)
	p.Set(14, 0x08000301)

	step16(p, bus, 0xB501) // PUSH {R0, LR}
	if sp := p.Get(13); sp != 0x03000FF8 {
		t.Errorf("unexpected SP: 0x%X", sp)
	}

	p.Set(0, 0)
	step16(p, bus, 0xBD01) // POP {R0, PC}
	if v := p.Get(0); v != 0xAA {
		t.Errorf("unexpected R0: 0x%X", v)
	}
	if p.PC != 0x08000300 {
		t.Errorf("unexpected PC: 0x%X", p.PC)
	}
	if sp := p.Get(13); sp != 0x03001000 {
		t.Errorf("unexpected SP: 0x%X", sp)
	}
}

func TestThumbMultipleTransfer(t *testing.T) {
	p, bus, _ := newThumbCPU()
	p.Set(0, 0x03000400)
	p.Set(1, 0x11)
	p.Set(2, 0x22)

	step16(p, bus, 0xC006) // STMIA R0!, {R1, R2}
	if v := p.Get(0); v != 0x03000408 {
		t.Errorf("unexpected base: 0x%X", v)
	}

	p.Set(0, 0x03000400)
	step16(p, bus, 0xC818) // LDMIA R0!, {R3, R4}
	if p.Get(3) != 0x11 || p.Get(4) != 0x22 {
		t.Errorf("unexpected registers: 0x%X 0x%X", p.Get(3), p.Get(4))
	}
}

func TestThumbConditionalBranch(t *testing.T) {
	p, bus, _ := newThumbCPU()

	p.CPSR.Set(processor.Zero)
	step16(p, bus, 0xD002) // BEQ +4
	if p.PC != processor.EntryPoint+8 {
		t.Errorf("unexpected PC: 0x%X", p.PC)
	}

	p.CPSR.Clear(processor.Zero)
	pc := p.PC
	step16(p, bus, 0xD002)
	if p.PC != pc+2 {
		t.Errorf("untaken branch should fall through, PC=0x%X", p.PC)
	}
}

func TestThumbUnconditionalBranch(t *testing.T) {
	p, bus, _ := newThumbCPU()

	step16(p, bus, 0xE7FE) // B -4 (branch to self)
	if p.PC != processor.EntryPoint {
		t.Errorf("unexpected PC: 0x%X", p.PC)
	}
}

func TestThumbLongBranchLink(t *testing.T) {
	p, bus, _ := newThumbCPU()

	bus.WriteHalf(memory.Pointer(p.PC), 0xF000)
	bus.WriteHalf(memory.Pointer(p.PC+2), 0xF802)
	p.Step()
	p.Step()

	if p.PC != processor.EntryPoint+8 {
		t.Errorf("unexpected PC: 0x%X", p.PC)
	}
	if lr := p.Get(14); lr != processor.EntryPoint+4|1 {
		t.Errorf("unexpected LR: 0x%X", lr)
	}
	if !p.CPSR.GetBool(processor.Thumb) {
		t.Error("BL must stay in Thumb state")
	}
}

func TestThumbAdjustSP(t *testing.T) {
	p, bus, _ := newThumbCPU()
	p.Set(13, 0x03000800)

	step16(p, bus, 0xB082) // SUB SP, #8
	if v := p.Get(13); v != 0x030007F8 {
		t.Errorf("unexpected SP: 0x%X", v)
	}

	step16(p, bus, 0xB002) // ADD SP, #8
	if v := p.Get(13); v != 0x03000800 {
		t.Errorf("unexpected SP: 0x%X", v)
	}
}

func TestThumbSystemCall(t *testing.T) {
	p, bus, _ := newThumbCPU()
	p.Set(0, 80)

	step16(p, bus, 0xDF0E) // Sqrt
	if v := p.Get(0); v != 8 {
		t.Errorf("unexpected R0: %d", v)
	}
	if !p.CPSR.GetBool(processor.Thumb) {
		t.Error("inline system call must preserve Thumb state")
	}
}
