/*
Copyright (c) 2019-2021 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software
   in a product, an acknowledgment in the product documentation would be
   appreciated but is not required.
2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.
3. This notice may not be removed or altered from any source distribution.
*/

package memory

import "errors"

const (
	MaxIODevices = 32

	// IOBase is the start of the register window.
	IOBase Pointer = 0x04000000
	IOSize         = 0x400

	// WAITCNT configures the cartridge waitstates and is owned by the bus.
	AddrWAITCNT = 0x204
)

var ErrTooManyDevices = errors.New("too many IO devices")

type region struct {
	device Memory
	cycles int
	view   int // cartridge waitstate view 0-2, or -1
}

// Bus is the system address space. Every address resolves to exactly one
// region; regions smaller than their 16MB window mirror by wraparound in
// the backing device. Accesses through the register window are routed to
// the owning peripheral by offset.
type Bus struct {
	regions [16]region

	iomap     [IOSize]byte
	ioDevices [MaxIODevices]IO
	numIO     int

	// Backing store for window registers no peripheral claims, so that
	// writes read back.
	ioreg [IOSize]byte

	waitcnt uint16
	last    Pointer
}

func NewBus() *Bus {
	b := &Bus{numIO: 1}

	dummyMem := &DummyMemory{}
	for i := range b.regions {
		b.regions[i] = region{device: dummyMem, cycles: 1, view: -1}
	}

	dummyIO := &DummyIO{}
	for i := range b.ioDevices {
		b.ioDevices[i] = dummyIO
	}
	return b
}

// Map installs a memory device as the backing store of a region. The device
// receives full addresses and is responsible for mirroring within its window.
func (b *Bus) Map(r byte, dev Memory, cycles int) {
	b.regions[r&0xF] = region{device: dev, cycles: cycles, view: -1}
}

// MapGamePak installs the cartridge image across the three waitstate views.
func (b *Bus) MapGamePak(dev Memory) {
	for r := 8; r <= 13; r++ {
		b.regions[r] = region{device: dev, view: (r - 8) / 2}
	}
}

// MapIO installs an IO device over an inclusive range of window offsets.
func (b *Bus) MapIO(dev IO, from, to uint16) error {
	if b.numIO >= MaxIODevices {
		return ErrTooManyDevices
	}
	idx := byte(b.numIO)
	b.ioDevices[idx] = dev
	b.numIO++

	for p := from; p <= to && int(p) < IOSize; p++ {
		b.iomap[p] = idx
	}
	return nil
}

func (b *Bus) Reset() {
	b.ioreg = [IOSize]byte{}
	b.waitcnt = 0
	b.last = 0
}

func (b *Bus) WaitControl() uint16 {
	return b.waitcnt
}

// Waitstate setting to cycle count, first the non-sequential then the
// sequential field per cartridge view.
var gamePakWaits = [4]int{3, 2, 1, 3}

func (b *Bus) accessCycles(addr Pointer) int {
	r := &b.regions[addr.Region()]
	if r.view < 0 {
		return r.cycles
	}

	sequential := addr.Region() == b.last.Region() && addr >= b.last && addr-b.last <= 4
	shift := uint(r.view * 4)
	if sequential {
		shift += 2
	}
	return gamePakWaits[(b.waitcnt>>shift)&3]
}

func (b *Bus) readByte(addr Pointer) byte {
	if addr.Region() == 4 {
		if off := uint32(addr) & 0xFFFFFF; off < IOSize {
			return b.in(uint16(off))
		}
		return 0
	}
	return b.regions[addr.Region()].device.ReadByte(addr)
}

func (b *Bus) writeByte(addr Pointer, data byte) {
	if addr.Region() == 4 {
		if off := uint32(addr) & 0xFFFFFF; off < IOSize {
			b.out(uint16(off), data)
		}
		return
	}
	b.regions[addr.Region()].device.WriteByte(addr, data)
}

func (b *Bus) in(port uint16) byte {
	if port == AddrWAITCNT || port == AddrWAITCNT+1 {
		return byte(b.waitcnt >> (8 * (port & 1)))
	}
	if idx := b.iomap[port]; idx != 0 {
		return b.ioDevices[idx].In(port)
	}
	return b.ioreg[port]
}

func (b *Bus) out(port uint16, data byte) {
	switch port {
	case AddrWAITCNT:
		b.waitcnt = (b.waitcnt & 0xFF00) | uint16(data)
		return
	case AddrWAITCNT + 1:
		b.waitcnt = (b.waitcnt & 0x00FF) | uint16(data)<<8
		return
	}
	if idx := b.iomap[port]; idx != 0 {
		b.ioDevices[idx].Out(port, data)
		return
	}
	b.ioreg[port] = data
}

func (b *Bus) ReadByte(addr Pointer) (byte, int) {
	c := b.accessCycles(addr)
	b.last = addr
	return b.readByte(addr), c
}

func (b *Bus) WriteByte(addr Pointer, data byte) int {
	c := b.accessCycles(addr)
	b.last = addr
	b.writeByte(addr, data)
	return c
}

// ReadHalf reads the aligned halfword containing addr and rotates the
// result so that unaligned reads reproduce the forced-alignment behavior
// of the hardware instead of faulting.
func (b *Bus) ReadHalf(addr Pointer) (uint16, int) {
	aligned := addr &^ 1
	c := b.accessCycles(aligned)
	b.last = aligned

	v := uint16(b.readByte(aligned)) | uint16(b.readByte(aligned+1))<<8
	if rot := uint(addr&1) * 8; rot != 0 {
		v = v>>rot | v<<(16-rot)
	}
	return v, c
}

func (b *Bus) WriteHalf(addr Pointer, data uint16) int {
	aligned := addr &^ 1
	c := b.accessCycles(aligned)
	b.last = aligned

	b.writeByte(aligned, byte(data))
	b.writeByte(aligned+1, byte(data>>8))
	return c
}

func (b *Bus) ReadWord(addr Pointer) (uint32, int) {
	aligned := addr &^ 3
	c := b.accessCycles(aligned)
	b.last = aligned

	v := uint32(b.readByte(aligned)) |
		uint32(b.readByte(aligned+1))<<8 |
		uint32(b.readByte(aligned+2))<<16 |
		uint32(b.readByte(aligned+3))<<24
	if rot := uint(addr&3) * 8; rot != 0 {
		v = v>>rot | v<<(32-rot)
	}
	return v, c
}

func (b *Bus) WriteWord(addr Pointer, data uint32) int {
	aligned := addr &^ 3
	c := b.accessCycles(aligned)
	b.last = aligned

	b.writeByte(aligned, byte(data))
	b.writeByte(aligned+1, byte(data>>8))
	b.writeByte(aligned+2, byte(data>>16))
	b.writeByte(aligned+3, byte(data>>24))
	return c
}
