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

// executeThumb decodes and runs one 16-bit instruction. Thumb has no
// condition field outside the branch format.
func (p *CPU) executeThumb(op uint16) {
	switch {
	case op&0xF800 == 0x1800:
		p.thumbAddSub(op)
	case op&0xE000 == 0x0000:
		p.thumbShiftImm(op)
	case op&0xE000 == 0x2000:
		p.thumbImmediate(op)
	case op&0xFC00 == 0x4000:
		p.thumbALU(op)
	case op&0xFC00 == 0x4400:
		p.thumbHiReg(op)
	case op&0xF800 == 0x4800:
		p.thumbLoadPCRel(op)
	case op&0xF200 == 0x5000:
		p.thumbTransferReg(op)
	case op&0xF200 == 0x5200:
		p.thumbTransferSigned(op)
	case op&0xE000 == 0x6000:
		p.thumbTransferImm(op)
	case op&0xF000 == 0x8000:
		p.thumbTransferHalf(op)
	case op&0xF000 == 0x9000:
		p.thumbTransferSPRel(op)
	case op&0xF000 == 0xA000:
		p.thumbLoadAddress(op)
	case op&0xFF00 == 0xB000:
		p.thumbAdjustSP(op)
	case op&0xF600 == 0xB400:
		p.thumbPushPop(op)
	case op&0xF000 == 0xC000:
		p.thumbTransferMultiple(op)
	case op&0xFF00 == 0xDF00:
		p.softwareInterrupt(byte(op))
	case op&0xF000 == 0xD000:
		p.thumbCondBranch(op)
	case op&0xF800 == 0xE000:
		p.thumbBranch(op)
	case op&0xF000 == 0xF000:
		p.thumbLongBranch(op)
	default:
		p.undefined()
	}
}

func (p *CPU) thumbShiftImm(op uint16) {
	typ := int(op >> 11 & 3)
	n := uint32(op >> 6 & 31)
	rs := int(op >> 3 & 7)
	rd := int(op & 7)

	r, carry := shiftByImm(typ, p.Get(rs), n, p.CPSR.GetBool(processor.Carry))
	p.Set(rd, r)
	p.setNZ(r)
	p.CPSR.SetBool(processor.Carry, carry)
}

func (p *CPU) thumbAddSub(op uint16) {
	rs := int(op >> 3 & 7)
	rd := int(op & 7)

	var b uint32
	if op&(1<<10) != 0 {
		b = uint32(op >> 6 & 7)
	} else {
		b = p.Get(int(op >> 6 & 7))
	}

	if op&(1<<9) != 0 {
		p.Set(rd, p.add(p.Get(rs), ^b, 1, true))
	} else {
		p.Set(rd, p.add(p.Get(rs), b, 0, true))
	}
}

func (p *CPU) thumbImmediate(op uint16) {
	rd := int(op >> 8 & 7)
	imm := uint32(op & 0xFF)

	switch op >> 11 & 3 {
	case 0: // MOV
		p.Set(rd, imm)
		p.setNZ(imm)
	case 1: // CMP
		p.add(p.Get(rd), ^imm, 1, true)
	case 2: // ADD
		p.Set(rd, p.add(p.Get(rd), imm, 0, true))
	case 3: // SUB
		p.Set(rd, p.add(p.Get(rd), ^imm, 1, true))
	}
}

func (p *CPU) thumbALU(op uint16) {
	rs := int(op >> 3 & 7)
	rd := int(op & 7)
	a, b := p.Get(rd), p.Get(rs)
	carry := p.CPSR.GetBool(processor.Carry)

	logical := func(r uint32) {
		p.Set(rd, r)
		p.setNZ(r)
	}
	shift := func(typ int) {
		r, c := shiftByReg(typ, a, b&0xFF, carry)
		p.cycles++
		p.Set(rd, r)
		p.setNZ(r)
		p.CPSR.SetBool(processor.Carry, c)
	}

	switch op >> 6 & 0xF {
	case 0x0: // AND
		logical(a & b)
	case 0x1: // EOR
		logical(a ^ b)
	case 0x2: // LSL
		shift(shiftLSL)
	case 0x3: // LSR
		shift(shiftLSR)
	case 0x4: // ASR
		shift(shiftASR)
	case 0x5: // ADC
		p.Set(rd, p.add(a, b, p.carryIn(), true))
	case 0x6: // SBC
		p.Set(rd, p.add(a, ^b, p.carryIn(), true))
	case 0x7: // ROR
		shift(shiftROR)
	case 0x8: // TST
		p.setNZ(a & b)
	case 0x9: // NEG
		p.Set(rd, p.add(0, ^b, 1, true))
	case 0xA: // CMP
		p.add(a, ^b, 1, true)
	case 0xB: // CMN
		p.add(a, b, 0, true)
	case 0xC: // ORR
		logical(a | b)
	case 0xD: // MUL
		p.cycles++
		logical(a * b)
	case 0xE: // BIC
		logical(a &^ b)
	case 0xF: // MVN
		logical(^b)
	}
}

func (p *CPU) thumbHiReg(op uint16) {
	rd := int(op&7 | op>>4&8)
	rs := int(op >> 3 & 0xF)

	switch op >> 8 & 3 {
	case 0: // ADD, no flags
		p.setReg(rd, p.reg(rd)+p.reg(rs))
	case 1: // CMP
		p.add(p.reg(rd), ^p.reg(rs), 1, true)
	case 2: // MOV
		p.setReg(rd, p.reg(rs))
	case 3: // BX
		p.branchExchange(p.reg(rs))
	}
}

func (p *CPU) thumbLoadPCRel(op uint16) {
	rd := int(op >> 8 & 7)
	addr := (p.PC+4)&^3 + uint32(op&0xFF)*4
	p.Set(rd, p.readWord(addr))
	p.cycles++
}

func (p *CPU) thumbTransferReg(op uint16) {
	addr := p.Get(int(op>>3&7)) + p.Get(int(op>>6&7))
	rd := int(op & 7)

	switch op >> 10 & 3 {
	case 0: // STR
		p.writeWord(addr, p.Get(rd))
	case 1: // STRB
		p.writeByte(addr, p.Get(rd))
	case 2: // LDR
		p.Set(rd, p.readWord(addr))
		p.cycles++
	case 3: // LDRB
		p.Set(rd, p.readByte(addr))
		p.cycles++
	}
}

func (p *CPU) thumbTransferSigned(op uint16) {
	addr := p.Get(int(op>>3&7)) + p.Get(int(op>>6&7))
	rd := int(op & 7)

	switch op >> 10 & 3 {
	case 0: // STRH
		p.writeHalf(addr, p.Get(rd))
		return
	case 1: // LDRSB
		p.Set(rd, uint32(int32(int8(p.readByte(addr)))))
	case 2: // LDRH
		p.Set(rd, p.readHalf(addr))
	case 3: // LDRSH, degrades to a signed byte when misaligned
		if addr&1 != 0 {
			p.Set(rd, uint32(int32(int8(p.readByte(addr)))))
		} else {
			p.Set(rd, uint32(int32(int16(p.readHalf(addr)))))
		}
	}
	p.cycles++
}

func (p *CPU) thumbTransferImm(op uint16) {
	rb := int(op >> 3 & 7)
	rd := int(op & 7)
	imm := uint32(op >> 6 & 31)

	if op&(1<<12) != 0 {
		addr := p.Get(rb) + imm
		if op&(1<<11) != 0 {
			p.Set(rd, p.readByte(addr))
			p.cycles++
		} else {
			p.writeByte(addr, p.Get(rd))
		}
	} else {
		addr := p.Get(rb) + imm*4
		if op&(1<<11) != 0 {
			p.Set(rd, p.readWord(addr))
			p.cycles++
		} else {
			p.writeWord(addr, p.Get(rd))
		}
	}
}

func (p *CPU) thumbTransferHalf(op uint16) {
	addr := p.Get(int(op>>3&7)) + uint32(op>>6&31)*2
	rd := int(op & 7)

	if op&(1<<11) != 0 {
		p.Set(rd, p.readHalf(addr))
		p.cycles++
	} else {
		p.writeHalf(addr, p.Get(rd))
	}
}

func (p *CPU) thumbTransferSPRel(op uint16) {
	rd := int(op >> 8 & 7)
	addr := p.Get(13) + uint32(op&0xFF)*4

	if op&(1<<11) != 0 {
		p.Set(rd, p.readWord(addr))
		p.cycles++
	} else {
		p.writeWord(addr, p.Get(rd))
	}
}

func (p *CPU) thumbLoadAddress(op uint16) {
	rd := int(op >> 8 & 7)
	imm := uint32(op&0xFF) * 4

	if op&(1<<11) != 0 {
		p.Set(rd, p.Get(13)+imm)
	} else {
		p.Set(rd, (p.PC+4)&^2+imm)
	}
}

func (p *CPU) thumbAdjustSP(op uint16) {
	imm := uint32(op&0x7F) * 4
	if op&(1<<7) != 0 {
		p.Set(13, p.Get(13)-imm)
	} else {
		p.Set(13, p.Get(13)+imm)
	}
}

func (p *CPU) thumbPushPop(op uint16) {
	rlist := uint32(op & 0xFF)
	count := bits.OnesCount32(rlist)
	if op&(1<<8) != 0 {
		count++
	}

	if op&(1<<11) != 0 { // POP
		addr := p.Get(13)
		for i := 0; i < 8; i++ {
			if rlist&(1<<i) != 0 {
				p.Set(i, p.readWord(addr))
				addr += 4
			}
		}
		if op&(1<<8) != 0 {
			p.branchTo(p.readWord(addr))
			addr += 4
		}
		p.Set(13, addr)
		p.cycles++
	} else { // PUSH
		addr := p.Get(13) - 4*uint32(count)
		p.Set(13, addr)
		for i := 0; i < 8; i++ {
			if rlist&(1<<i) != 0 {
				p.writeWord(addr, p.Get(i))
				addr += 4
			}
		}
		if op&(1<<8) != 0 {
			p.writeWord(addr, p.Get(14))
		}
	}
}

func (p *CPU) thumbTransferMultiple(op uint16) {
	rb := int(op >> 8 & 7)
	rlist := uint32(op & 0xFF)
	addr := p.Get(rb)

	// An empty list transfers R15 and moves the base a full bank.
	if rlist == 0 {
		if op&(1<<11) != 0 {
			p.branchTo(p.readWord(addr))
		} else {
			p.writeWord(addr, p.reg(15))
		}
		p.Set(rb, addr+0x40)
		return
	}

	if op&(1<<11) != 0 { // LDMIA
		p.Set(rb, addr+4*uint32(bits.OnesCount32(rlist)))
		for i := 0; i < 8; i++ {
			if rlist&(1<<i) != 0 {
				p.Set(i, p.readWord(addr))
				addr += 4
			}
		}
		p.cycles++
	} else { // STMIA
		final := addr + 4*uint32(bits.OnesCount32(rlist))
		first := true
		for i := 0; i < 8; i++ {
			if rlist&(1<<i) != 0 {
				p.writeWord(addr, p.Get(i))
				addr += 4
				if first {
					p.Set(rb, final)
					first = false
				}
			}
		}
	}
}

func (p *CPU) thumbCondBranch(op uint16) {
	cond := byte(op >> 8 & 0xF)
	if cond == 0xE {
		p.undefined()
		return
	}
	if !p.evalCondition(cond) {
		return
	}
	offset := int32(int8(op)) * 2
	p.branchTo(uint32(int32(p.PC+4) + offset))
}

func (p *CPU) thumbBranch(op uint16) {
	offset := int32(uint32(op)<<21) >> 20
	p.branchTo(uint32(int32(p.PC+4) + offset))
}

// thumbLongBranch is the two-instruction BL pair. The first half stages
// the upper offset bits in LR, the second half jumps and leaves the
// return address with the Thumb bit set.
func (p *CPU) thumbLongBranch(op uint16) {
	if op&(1<<11) == 0 {
		offset := int32(uint32(op)<<21) >> 9
		p.Set(14, uint32(int32(p.PC+4)+offset))
		return
	}

	ret := p.PC + 2
	target := p.Get(14) + uint32(op&0x7FF)*2
	p.Set(14, ret|1)
	p.branchTo(target)
}
