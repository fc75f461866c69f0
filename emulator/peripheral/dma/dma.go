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

package dma

import (
	"github.com/andreas-jonsson/virtualgba/emulator/memory"
	"github.com/andreas-jonsson/virtualgba/emulator/processor"
)

const portBase = 0xB0

// Control word fields.
const (
	ctrlDstAdjust = 5 // 2 bits
	ctrlSrcAdjust = 7 // 2 bits
	ctrlRepeat    = 1 << 9
	ctrlWord      = 1 << 10
	ctrlTiming    = 12 // 2 bits
	ctrlIRQ       = 1 << 14
	ctrlEnable    = 1 << 15
)

// Trigger timings.
const (
	TimingImmediate = iota
	TimingVBlank
	TimingHBlank
	TimingSpecial
)

// Address adjustment modes.
const (
	adjustIncrement = iota
	adjustDecrement
	adjustFixed
	adjustReload // destination only: increment, reload on repeat
)

type channel struct {
	sad, dad uint32
	count    uint16
	control  uint16

	// Transfer state, loaded when the enable bit rises.
	src, dst  uint32
	remaining int
	pending   bool
}

func (ch *channel) enabled() bool {
	return ch.control&ctrlEnable != 0
}

func (ch *channel) timing() int {
	return int(ch.control>>ctrlTiming) & 3
}

// Device is the block of four DMA channels. Lower-numbered channels have
// priority when several are pending.
type Device struct {
	mem      *memory.Bus
	pic      processor.InterruptController
	channels [4]channel
}

func (m *Device) Install(p processor.Machine) error {
	m.mem = p.Memory()
	m.pic = p.GetInterruptController()
	return p.Memory().MapIO(m, portBase, portBase+4*12-1)
}

func (m *Device) Name() string {
	return "DMA Controller"
}

func (m *Device) Reset() {
	*m = Device{mem: m.mem, pic: m.pic}
}

func (m *Device) Step(int) error {
	return nil
}

// VBlank triggers every armed channel with VBlank timing. Called once per
// vertical blanking edge by the display collaborator.
func (m *Device) VBlank() {
	m.trigger(TimingVBlank)
}

// HBlank triggers every armed channel with HBlank timing. Called once per
// horizontal blanking edge on visible scanlines.
func (m *Device) HBlank() {
	m.trigger(TimingHBlank)
}

func (m *Device) trigger(timing int) {
	for i := range m.channels {
		ch := &m.channels[i]
		if ch.enabled() && ch.timing() == timing {
			ch.pending = true
		}
	}
}

// Active reports whether a channel is between trigger and completion.
func (m *Device) Active(i int) bool {
	return m.channels[i].pending
}

// Run executes every pending transfer in priority order and returns the
// bus cycles consumed.
func (m *Device) Run() int {
	var cycles int
	for i := range m.channels {
		if m.channels[i].pending {
			cycles += m.transfer(i)
		}
	}
	return cycles
}

// Only the last channel carries a full-width count field.
func (m *Device) maxCount(i int) int {
	if i == 3 {
		return 0x10000
	}
	return 0x4000
}

func (m *Device) loadCount(i int) int {
	ch := &m.channels[i]
	if n := int(ch.count) % m.maxCount(i); n != 0 {
		return n
	}
	// A configured count of zero means the maximum representable count.
	return m.maxCount(i)
}

func (m *Device) transfer(i int) int {
	ch := &m.channels[i]

	width := uint32(2)
	if ch.control&ctrlWord != 0 {
		width = 4
	}

	var cycles int
	for ; ch.remaining > 0; ch.remaining-- {
		if width == 4 {
			v, c := m.mem.ReadWord(memory.Pointer(ch.src &^ 3))
			cycles += c + m.mem.WriteWord(memory.Pointer(ch.dst&^3), v)
		} else {
			v, c := m.mem.ReadHalf(memory.Pointer(ch.src &^ 1))
			cycles += c + m.mem.WriteHalf(memory.Pointer(ch.dst&^1), v)
		}

		switch ch.control >> ctrlSrcAdjust & 3 {
		case adjustIncrement:
			ch.src += width
		case adjustDecrement:
			ch.src -= width
		}
		switch ch.control >> ctrlDstAdjust & 3 {
		case adjustIncrement, adjustReload:
			ch.dst += width
		case adjustDecrement:
			ch.dst -= width
		}
	}

	ch.pending = false
	if ch.control&ctrlRepeat != 0 && ch.timing() != TimingImmediate {
		// Re-arm for the next trigger instead of deactivating.
		ch.remaining = m.loadCount(i)
		if ch.control>>ctrlDstAdjust&3 == adjustReload {
			ch.dst = ch.dad
		}
	} else {
		ch.control &^= ctrlEnable
	}

	if ch.control&ctrlIRQ != 0 {
		m.pic.Raise(processor.IRQDMA0 + i)
	}
	return cycles + 2
}

func (m *Device) In(port uint16) byte {
	i := int(port-portBase) / 12
	ch := &m.channels[i]

	switch reg := int(port-portBase) % 12; reg {
	case 0, 1, 2, 3:
		return byte(ch.sad >> (uint(reg) * 8))
	case 4, 5, 6, 7:
		return byte(ch.dad >> (uint(reg-4) * 8))
	case 8:
		return byte(ch.count)
	case 9:
		return byte(ch.count >> 8)
	case 10:
		return byte(ch.control)
	default:
		return byte(ch.control >> 8)
	}
}

func (m *Device) Out(port uint16, data byte) {
	i := int(port-portBase) / 12
	ch := &m.channels[i]
	reg := int(port-portBase) % 12

	// Address and count registers are frozen while a transfer is active.
	if ch.pending && reg < 10 {
		return
	}

	switch reg {
	case 0, 1, 2, 3:
		shift := uint(reg) * 8
		ch.sad = ch.sad&^(0xFF<<shift) | uint32(data)<<shift
	case 4, 5, 6, 7:
		shift := uint(reg-4) * 8
		ch.dad = ch.dad&^(0xFF<<shift) | uint32(data)<<shift
	case 8:
		ch.count = (ch.count & 0xFF00) | uint16(data)
	case 9:
		ch.count = (ch.count & 0x00FF) | uint16(data)<<8
	case 10:
		ch.control = (ch.control & 0xFF00) | uint16(data)
	case 11:
		wasEnabled := ch.enabled()
		ch.control = (ch.control & 0x00FF) | uint16(data)<<8

		if !wasEnabled && ch.enabled() {
			ch.src = ch.sad
			ch.dst = ch.dad
			ch.remaining = m.loadCount(i)
			if ch.timing() == TimingImmediate {
				ch.pending = true
			}
		}
	}
}
