/*
Copyright (c) 2019-2020 Andreas T Jonsson

This software is provided 'as-is', without any express or implied
warranty. In no event will the authors be held liable for any damages
arising from the use of this software.

Permission is granted to anyone to use this software for any purpose,
including commercial applications, and to alter it and redistribute it
freely, subject to the following restrictions:

1. The origin of this software must not be misrepresented; you must not
   claim that you wrote the original software. If you use this software in
   a product, an acknowledgment in the product documentation would be
   appreciated but is not required.

2. Altered source versions must be plainly marked as such, and must not be
   misrepresented as being the original software.

3. This notice may not be removed or altered from any source distribution.
*/

package ram

import (
	"github.com/andreas-jonsson/virtualgba/emulator/memory"
	"github.com/andreas-jonsson/virtualgba/emulator/processor"
)

// Device is a block of work RAM mapped into one address space region.
// The region's 16MB window mirrors the block: addresses wrap modulo
// Window, and when Window exceeds Size the upper half folds back onto
// the tail of the block, which is how the 96KB of video memory fills
// its 128KB window.
type Device struct {
	Base   memory.Pointer
	Size   uint32
	Window uint32
	Cycles int

	mem []byte
}

func (m *Device) Install(p processor.Machine) error {
	m.mem = make([]byte, m.Size)
	if m.Window == 0 {
		m.Window = m.Size
	}
	p.Memory().Map(m.Base.Region(), m, m.Cycles)
	return nil
}

func (m *Device) Name() string {
	return "RAM"
}

func (m *Device) Reset() {
	for i := range m.mem {
		m.mem[i] = 0
	}
}

func (m *Device) Step(int) error {
	return nil
}

func (m *Device) index(addr memory.Pointer) uint32 {
	off := uint32(addr) & 0xFFFFFF % m.Window
	if off >= m.Size {
		off -= m.Window - m.Size
	}
	return off
}

func (m *Device) ReadByte(addr memory.Pointer) byte {
	return m.mem[m.index(addr)]
}

func (m *Device) WriteByte(addr memory.Pointer, data byte) {
	m.mem[m.index(addr)] = data
}
