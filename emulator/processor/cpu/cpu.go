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
	"github.com/sirupsen/logrus"

	"github.com/andreas-jonsson/virtualgba/emulator/memory"
	"github.com/andreas-jonsson/virtualgba/emulator/processor"
)

// CPU is an ARM7TDMI instruction interpreter. PC always holds the address
// of the executing instruction; the pipeline prefetch offset is applied
// when R15 is read as an operand.
type CPU struct {
	processor.Registers

	mem *memory.Bus
	pic processor.InterruptController

	cycles   int
	branched bool
	halted   bool

	// With a real BIOS image in region zero, software interrupts vector
	// into it instead of being serviced by the built-in handlers.
	biosLoaded bool
}

func New(mem *memory.Bus, pic processor.InterruptController) *CPU {
	p := &CPU{mem: mem, pic: pic}
	p.Registers.Reset()
	return p
}

func (p *CPU) Reset() {
	p.Registers.Reset()
	p.halted = false
}

func (p *CPU) SetBIOSLoaded(loaded bool) {
	p.biosLoaded = loaded
}

// Halted reports whether the processor is stopped waiting for an interrupt.
func (p *CPU) Halted() bool {
	return p.halted
}

// Step services a pending interrupt or executes one instruction and
// returns the number of cycles consumed.
func (p *CPU) Step() int {
	if p.pic.Pending() {
		p.halted = false
		if !p.CPSR.GetBool(processor.IRQDisable) {
			if n, err := p.pic.GetInterrupt(); err == nil {
				logrus.Debugf("servicing interrupt %d", n)
			}
			p.exception(processor.ModeIRQ, processor.VectorIRQ, p.PC+4)
			return 3
		}
	}
	if p.halted {
		return 1
	}

	p.cycles = 0
	p.branched = false

	if p.CPSR.GetBool(processor.Thumb) {
		op := p.fetchHalf(memory.Pointer(p.PC))
		p.executeThumb(op)
		if !p.branched {
			p.PC += 2
		}
	} else {
		op := p.fetchWord(memory.Pointer(p.PC))
		if p.evalCondition(byte(op >> 28)) {
			p.executeARM(op)
		}
		if !p.branched {
			p.PC += 4
		}
	}

	if p.cycles < 1 {
		p.cycles = 1
	}
	return p.cycles
}

// exception switches mode, banks the old status word and continues in ARM
// state at the vector.
func (p *CPU) exception(mode processor.Flags, vector uint32, lr uint32) {
	old := p.CPSR
	p.SetSPSRFor(mode, old)

	p.CPSR = old&^(processor.ModeMask|processor.Thumb) | mode
	p.CPSR.Set(processor.IRQDisable)

	p.Set(14, lr)
	p.PC = vector
	p.branched = true
}

func (p *CPU) evalCondition(cond byte) bool {
	n := p.CPSR.GetBool(processor.Negative)
	z := p.CPSR.GetBool(processor.Zero)
	c := p.CPSR.GetBool(processor.Carry)
	v := p.CPSR.GetBool(processor.Overflow)

	switch cond & 0xF {
	case 0x0: // EQ
		return z
	case 0x1: // NE
		return !z
	case 0x2: // CS
		return c
	case 0x3: // CC
		return !c
	case 0x4: // MI
		return n
	case 0x5: // PL
		return !n
	case 0x6: // VS
		return v
	case 0x7: // VC
		return !v
	case 0x8: // HI
		return c && !z
	case 0x9: // LS
		return !c || z
	case 0xA: // GE
		return n == v
	case 0xB: // LT
		return n != v
	case 0xC: // GT
		return !z && n == v
	case 0xD: // LE
		return z || n != v
	case 0xE: // AL
		return true
	}
	return false
}

// reg reads a register as an instruction operand, applying the prefetch
// offset when R15 is named.
func (p *CPU) reg(i int) uint32 {
	if i == 15 {
		if p.CPSR.GetBool(processor.Thumb) {
			return p.PC + 4
		}
		return p.PC + 8
	}
	return p.Get(i)
}

func (p *CPU) setReg(i int, v uint32) {
	if i == 15 {
		p.branchTo(v)
		return
	}
	p.Set(i, v)
}

// branchTo flushes the pipeline. The target is force-aligned to the
// current instruction width.
func (p *CPU) branchTo(addr uint32) {
	if p.CPSR.GetBool(processor.Thumb) {
		p.PC = addr &^ 1
	} else {
		p.PC = addr &^ 3
	}
	p.branched = true
}

// branchExchange switches instruction set on bit zero of the target.
func (p *CPU) branchExchange(addr uint32) {
	p.CPSR.SetBool(processor.Thumb, addr&1 != 0)
	p.branchTo(addr)
}

func (p *CPU) fetchHalf(addr memory.Pointer) uint16 {
	v, c := p.mem.ReadHalf(addr)
	p.cycles += c
	return v
}

func (p *CPU) fetchWord(addr memory.Pointer) uint32 {
	v, c := p.mem.ReadWord(addr)
	p.cycles += c
	return v
}

func (p *CPU) readByte(addr uint32) uint32 {
	v, c := p.mem.ReadByte(memory.Pointer(addr))
	p.cycles += c
	return uint32(v)
}

func (p *CPU) readHalf(addr uint32) uint32 {
	v, c := p.mem.ReadHalf(memory.Pointer(addr))
	p.cycles += c
	return uint32(v)
}

func (p *CPU) readWord(addr uint32) uint32 {
	v, c := p.mem.ReadWord(memory.Pointer(addr))
	p.cycles += c
	return v
}

func (p *CPU) writeByte(addr, v uint32) {
	p.cycles += p.mem.WriteByte(memory.Pointer(addr), byte(v))
}

func (p *CPU) writeHalf(addr, v uint32) {
	p.cycles += p.mem.WriteHalf(memory.Pointer(addr), uint16(v))
}

func (p *CPU) writeWord(addr, v uint32) {
	p.cycles += p.mem.WriteWord(memory.Pointer(addr), v)
}
