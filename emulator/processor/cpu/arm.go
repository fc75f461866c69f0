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
	"math/bits"

	"github.com/andreas-jonsson/virtualgba/emulator/processor"
)

// Data processing opcodes.
const (
	opAND = iota
	opEOR
	opSUB
	opRSB
	opADD
	opADC
	opSBC
	opRSC
	opTST
	opTEQ
	opCMP
	opCMN
	opORR
	opMOV
	opBIC
	opMVN
)

// executeARM decodes and runs one 32-bit instruction. The condition has
// already been evaluated. Decode order matters: the multiply, swap and
// halfword forms all live in holes of the data processing encoding.
func (p *CPU) executeARM(op uint32) {
	switch {
	case op&0x0FFFFFF0 == 0x012FFF10:
		p.armBranchExchange(op)
	case op&0x0FB00FF0 == 0x01000090:
		p.armSwap(op)
	case op&0x0FC000F0 == 0x00000090:
		p.armMultiply(op)
	case op&0x0F8000F0 == 0x00800090:
		p.armMultiplyLong(op)
	case op&0x0E000090 == 0x00000090:
		p.armHalfTransfer(op)
	case op&0x0C000000 == 0x00000000:
		switch {
		case op&0x0FBF0FFF == 0x010F0000:
			p.armMRS(op)
		case op&0x0DB0F000 == 0x0120F000:
			p.armMSR(op)
		default:
			p.armDataProcessing(op)
		}
	case op&0x0E000010 == 0x06000010:
		p.undefined()
	case op&0x0C000000 == 0x04000000:
		p.armSingleTransfer(op)
	case op&0x0E000000 == 0x08000000:
		p.armBlockTransfer(op)
	case op&0x0E000000 == 0x0A000000:
		p.armBranch(op)
	case op&0x0F000000 == 0x0F000000:
		p.softwareInterrupt(byte(op >> 16))
	default:
		p.undefined()
	}
}

func (p *CPU) undefined() {
	p.exception(processor.ModeUndefined, processor.VectorUndefined, p.PC+4)
}

func (p *CPU) setNZ(v uint32) {
	p.CPSR.SetBool(processor.Negative, v>>31 != 0)
	p.CPSR.SetBool(processor.Zero, v == 0)
}

// add computes a+b+carry and optionally updates all four condition flags.
// Subtraction goes through here as a + ^b + 1.
func (p *CPU) add(a, b, carry uint32, set bool) uint32 {
	r64 := uint64(a) + uint64(b) + uint64(carry)
	r := uint32(r64)
	if set {
		p.setNZ(r)
		p.CPSR.SetBool(processor.Carry, r64 > 0xFFFFFFFF)
		p.CPSR.SetBool(processor.Overflow, ((a^r)&(b^r))>>31 != 0)
	}
	return r
}

func (p *CPU) carryIn() uint32 {
	if p.CPSR.GetBool(processor.Carry) {
		return 1
	}
	return 0
}

// armOperand2 evaluates the shifter operand and its carry-out. Register
// specified shifts cost an internal cycle and see R15 one word further
// down the pipeline.
func (p *CPU) armOperand2(op uint32) (uint32, bool) {
	carry := p.CPSR.GetBool(processor.Carry)

	if op&(1<<25) != 0 {
		rot := op >> 8 & 0xF * 2
		return ror(op&0xFF, rot, carry)
	}

	typ := int(op >> 5 & 3)
	rm := int(op & 0xF)
	v := p.reg(rm)

	if op&(1<<4) != 0 {
		if rm == 15 {
			v += 4
		}
		n := p.reg(int(op>>8&0xF)) & 0xFF
		p.cycles++
		return shiftByReg(typ, v, n, carry)
	}
	return shiftByImm(typ, v, op>>7&31, carry)
}

func (p *CPU) armDataProcessing(op uint32) {
	code := int(op >> 21 & 0xF)
	set := op&(1<<20) != 0
	rn := int(op >> 16 & 0xF)
	rd := int(op >> 12 & 0xF)

	a := p.reg(rn)
	if rn == 15 && op&(1<<25) == 0 && op&(1<<4) != 0 {
		a += 4
	}
	b, shiftCarry := p.armOperand2(op)

	logical := func(r uint32) uint32 {
		if set {
			p.setNZ(r)
			p.CPSR.SetBool(processor.Carry, shiftCarry)
		}
		return r
	}

	var r uint32
	writeback := true

	switch code {
	case opAND:
		r = logical(a & b)
	case opEOR:
		r = logical(a ^ b)
	case opSUB:
		r = p.add(a, ^b, 1, set)
	case opRSB:
		r = p.add(b, ^a, 1, set)
	case opADD:
		r = p.add(a, b, 0, set)
	case opADC:
		r = p.add(a, b, p.carryIn(), set)
	case opSBC:
		r = p.add(a, ^b, p.carryIn(), set)
	case opRSC:
		r = p.add(b, ^a, p.carryIn(), set)
	case opTST:
		logical(a & b)
		writeback = false
	case opTEQ:
		logical(a ^ b)
		writeback = false
	case opCMP:
		p.add(a, ^b, 1, true)
		writeback = false
	case opCMN:
		p.add(a, b, 0, true)
		writeback = false
	case opORR:
		r = logical(a | b)
	case opMOV:
		r = logical(b)
	case opBIC:
		r = logical(a &^ b)
	case opMVN:
		r = logical(^b)
	}

	if !writeback {
		return
	}
	if rd == 15 {
		if set {
			// Exception return: the banked status word comes back with PC.
			p.CPSR = p.SPSR()
		}
		p.branchTo(r)
		return
	}
	p.Set(rd, r)
}

func (p *CPU) armMRS(op uint32) {
	rd := int(op >> 12 & 0xF)
	if op&(1<<22) != 0 {
		p.Set(rd, uint32(p.SPSR()))
		return
	}
	p.Set(rd, uint32(p.CPSR))
}

func (p *CPU) armMSR(op uint32) {
	var v uint32
	if op&(1<<25) != 0 {
		v, _ = ror(op&0xFF, op>>8&0xF*2, false)
	} else {
		v = p.reg(int(op & 0xF))
	}

	var mask uint32
	for i := uint(0); i < 4; i++ {
		if op&(1<<(16+i)) != 0 {
			mask |= 0xFF << (8 * i)
		}
	}
	// Only the flag byte is writable from user mode.
	if p.Mode() == processor.ModeUser {
		mask &= 0xFF000000
	}

	if op&(1<<22) != 0 {
		p.SetSPSR(processor.Flags(uint32(p.SPSR())&^mask | v&mask))
		return
	}
	p.CPSR = processor.Flags(uint32(p.CPSR)&^mask | v&mask)
}

func (p *CPU) armBranchExchange(op uint32) {
	p.branchExchange(p.reg(int(op & 0xF)))
}

func (p *CPU) armBranch(op uint32) {
	offset := int32(op<<8) >> 6
	if op&(1<<24) != 0 {
		p.Set(14, p.PC+4)
	}
	p.branchTo(uint32(int32(p.PC+8) + offset))
}

func (p *CPU) armMultiply(op uint32) {
	rd := int(op >> 16 & 0xF)
	rn := int(op >> 12 & 0xF)
	rs := int(op >> 8 & 0xF)
	rm := int(op & 0xF)

	r := p.reg(rm) * p.reg(rs)
	if op&(1<<21) != 0 {
		r += p.reg(rn)
		p.cycles++
	}
	p.cycles++

	p.Set(rd, r)
	if op&(1<<20) != 0 {
		p.setNZ(r)
	}
}

func (p *CPU) armMultiplyLong(op uint32) {
	rdhi := int(op >> 16 & 0xF)
	rdlo := int(op >> 12 & 0xF)
	rs := int(op >> 8 & 0xF)
	rm := int(op & 0xF)

	var r uint64
	if op&(1<<22) != 0 {
		r = uint64(int64(int32(p.reg(rm))) * int64(int32(p.reg(rs))))
	} else {
		r = uint64(p.reg(rm)) * uint64(p.reg(rs))
	}
	if op&(1<<21) != 0 {
		r += uint64(p.reg(rdhi))<<32 | uint64(p.reg(rdlo))
		p.cycles++
	}
	p.cycles += 2

	p.Set(rdhi, uint32(r>>32))
	p.Set(rdlo, uint32(r))
	if op&(1<<20) != 0 {
		p.CPSR.SetBool(processor.Negative, r>>63 != 0)
		p.CPSR.SetBool(processor.Zero, r == 0)
	}
}

func (p *CPU) armSwap(op uint32) {
	rn := int(op >> 16 & 0xF)
	rd := int(op >> 12 & 0xF)
	rm := int(op & 0xF)

	addr := p.reg(rn)
	if op&(1<<22) != 0 {
		v := p.readByte(addr)
		p.writeByte(addr, p.reg(rm))
		p.Set(rd, v)
	} else {
		v := p.readWord(addr)
		p.writeWord(addr, p.reg(rm))
		p.Set(rd, v)
	}
	p.cycles++
}

func (p *CPU) armSingleTransfer(op uint32) {
	pre := op&(1<<24) != 0
	up := op&(1<<23) != 0
	byteWide := op&(1<<22) != 0
	wb := op&(1<<21) != 0
	load := op&(1<<20) != 0
	rn := int(op >> 16 & 0xF)
	rd := int(op >> 12 & 0xF)

	var offset uint32
	if op&(1<<25) != 0 {
		offset, _ = shiftByImm(int(op>>5&3), p.reg(int(op&0xF)), op>>7&31, p.CPSR.GetBool(processor.Carry))
	} else {
		offset = op & 0xFFF
	}

	base := p.reg(rn)
	addr := base
	if pre {
		if up {
			addr += offset
		} else {
			addr -= offset
		}
	}

	if load {
		var v uint32
		if byteWide {
			v = p.readByte(addr)
		} else {
			v = p.readWord(addr)
		}
		p.cycles++
		p.writebackSingle(rn, base, offset, pre, up, wb)
		p.setReg(rd, v)
	} else {
		v := p.reg(rd)
		if rd == 15 {
			v += 4
		}
		if byteWide {
			p.writeByte(addr, v)
		} else {
			p.writeWord(addr, v)
		}
		p.writebackSingle(rn, base, offset, pre, up, wb)
	}
}

// writebackSingle commits the indexed address. Post-indexed forms always
// write back.
func (p *CPU) writebackSingle(rn int, base, offset uint32, pre, up, wb bool) {
	if pre && !wb {
		return
	}
	if up {
		base += offset
	} else {
		base -= offset
	}
	p.Set(rn, base)
}

func (p *CPU) armHalfTransfer(op uint32) {
	pre := op&(1<<24) != 0
	up := op&(1<<23) != 0
	wb := op&(1<<21) != 0
	load := op&(1<<20) != 0
	rn := int(op >> 16 & 0xF)
	rd := int(op >> 12 & 0xF)

	var offset uint32
	if op&(1<<22) != 0 {
		offset = op>>4&0xF0 | op&0xF
	} else {
		offset = p.reg(int(op & 0xF))
	}

	base := p.reg(rn)
	addr := base
	if pre {
		if up {
			addr += offset
		} else {
			addr -= offset
		}
	}

	if load {
		var v uint32
		switch op >> 5 & 3 {
		case 1: // unsigned halfword, bus handles misalignment by rotation
			v = p.readHalf(addr)
		case 2: // signed byte
			v = uint32(int32(int8(p.readByte(addr))))
		case 3: // signed halfword; a misaligned access degrades to a byte
			if addr&1 != 0 {
				v = uint32(int32(int8(p.readByte(addr))))
			} else {
				v = uint32(int32(int16(p.readHalf(addr))))
			}
		}
		p.cycles++
		p.writebackSingle(rn, base, offset, pre, up, wb)
		p.setReg(rd, v)
	} else {
		p.writeHalf(addr, p.reg(rd))
		p.writebackSingle(rn, base, offset, pre, up, wb)
	}
}

func (p *CPU) armBlockTransfer(op uint32) {
	pre := op&(1<<24) != 0
	up := op&(1<<23) != 0
	psr := op&(1<<22) != 0
	wb := op&(1<<21) != 0
	load := op&(1<<20) != 0
	rn := int(op >> 16 & 0xF)
	rlist := uint16(op)

	// An empty list transfers R15 and moves the base a full bank.
	count := bits.OnesCount16(rlist)
	if rlist == 0 {
		rlist = 0x8000
		count = 16
	}

	base := p.reg(rn)
	var addr, final uint32
	if up {
		final = base + 4*uint32(count)
		addr = base
		if pre {
			addr += 4
		}
	} else {
		final = base - 4*uint32(count)
		addr = final
		if !pre {
			addr += 4
		}
	}

	// Whether transfers touch the user bank instead of the current one.
	userBank := psr && (!load || rlist&0x8000 == 0)

	if load {
		if wb {
			p.Set(rn, final)
		}
		for i := 0; i < 16; i++ {
			if rlist&(1<<i) == 0 {
				continue
			}
			v := p.readWord(addr)
			addr += 4
			if i == 15 {
				if psr {
					p.CPSR = p.SPSR()
				}
				p.branchTo(v)
			} else if userBank {
				p.SetUser(i, v)
			} else {
				p.Set(i, v)
			}
		}
		p.cycles++
	} else {
		first := true
		for i := 0; i < 16; i++ {
			if rlist&(1<<i) == 0 {
				continue
			}
			var v uint32
			if i == 15 {
				v = p.reg(15) + 4
			} else if userBank {
				v = p.GetUser(i)
			} else {
				v = p.Get(i)
			}
			p.writeWord(addr, v)
			addr += 4

			// The base writes back after the first store, so a base
			// further down the list stores its updated value.
			if first && wb {
				p.Set(rn, final)
				first = false
			}
		}
	}
}
