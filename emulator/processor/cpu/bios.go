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
	"github.com/andreas-jonsson/virtualgba/emulator/memory"
	"github.com/andreas-jonsson/virtualgba/emulator/processor"
	"github.com/sirupsen/logrus"
)

// System call numbers serviced by the built-in handlers.
const (
	swiSoftReset        = 0x00
	swiRegisterRamReset = 0x01
	swiHalt             = 0x02
	swiStop             = 0x03
	swiIntrWait         = 0x04
	swiVBlankIntrWait   = 0x05
	swiDiv              = 0x06
	swiDivArm           = 0x08
	swiSqrt             = 0x0E
)

// softwareInterrupt dispatches a system call. With a BIOS image loaded
// the call takes the real supervisor trap; otherwise the common calls
// are serviced in place.
func (p *CPU) softwareInterrupt(n byte) {
	if p.biosLoaded {
		lr := p.PC + 4
		if p.CPSR.GetBool(processor.Thumb) {
			lr = p.PC + 2
		}
		p.exception(processor.ModeSupervisor, processor.VectorSWI, lr)
		return
	}

	switch n {
	case swiSoftReset:
		p.Registers.Reset()
		p.branched = true
	case swiRegisterRamReset:
		p.ramReset(p.Get(0))
	case swiHalt, swiStop:
		p.halted = true
	case swiIntrWait, swiVBlankIntrWait:
		// Simplified: sleep until the next serviced interrupt.
		p.halted = true
	case swiDiv:
		p.divide(p.Get(0), p.Get(1))
	case swiDivArm:
		p.divide(p.Get(1), p.Get(0))
	case swiSqrt:
		p.Set(0, isqrt(p.Get(0)))
	default:
		logrus.Warnf("unhandled system call: 0x%02X", n)
	}
}

func (p *CPU) divide(num, den uint32) {
	if den == 0 {
		logrus.Warn("division by zero in system call")
		return
	}
	q := int32(num) / int32(den)
	r := int32(num) % int32(den)

	p.Set(0, uint32(q))
	p.Set(1, uint32(r))
	if q < 0 {
		q = -q
	}
	p.Set(3, uint32(q))
}

// ramReset clears the memory blocks selected by the flag word. The top
// of working RAM survives an IWRAM clear because the system reserves it.
func (p *CPU) ramReset(flags uint32) {
	clear := func(base memory.Pointer, size uint32) {
		for i := uint32(0); i < size; i += 4 {
			p.mem.WriteWord(base+memory.Pointer(i), 0)
		}
	}

	if flags&1 != 0 {
		clear(0x02000000, 0x40000)
	}
	if flags&2 != 0 {
		clear(0x03000000, 0x8000-0x200)
	}
	if flags&4 != 0 {
		clear(0x05000000, 0x400)
	}
	if flags&8 != 0 {
		clear(0x06000000, 0x18000)
	}
	if flags&16 != 0 {
		clear(0x07000000, 0x400)
	}
}

func isqrt(v uint32) uint32 {
	var r uint32
	for bit := uint32(1) << 30; bit != 0; bit >>= 2 {
		if v >= r+bit {
			v -= r + bit
			r = r>>1 + bit
		} else {
			r >>= 1
		}
	}
	return r
}
