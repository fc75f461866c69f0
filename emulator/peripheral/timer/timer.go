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

package timer

import (
	"github.com/andreas-jonsson/virtualgba/emulator/processor"
)

const portBase = 0x100

// Prescaler selector to shift amount: 1, 64, 256 or 1024 cycles per tick.
var prescalerShift = [4]uint{0, 6, 8, 10}

const (
	ctrlPrescale = 0x3
	ctrlCountUp  = 1 << 2
	ctrlIRQ      = 1 << 6
	ctrlEnable   = 1 << 7
)

type channel struct {
	counter, reload uint16
	control         byte
	ticks           int
}

func (ch *channel) enabled() bool {
	return ch.control&ctrlEnable != 0
}

func (ch *channel) countUp() bool {
	return ch.control&ctrlCountUp != 0
}

// Device is the block of four programmable timers.
type Device struct {
	pic      processor.InterruptController
	channels [4]channel
}

func (m *Device) Install(p processor.Machine) error {
	m.pic = p.GetInterruptController()
	return p.Memory().MapIO(m, portBase, portBase+0xF)
}

func (m *Device) Name() string {
	return "Programmable Timers"
}

func (m *Device) Reset() {
	*m = Device{pic: m.pic}
}

// Step advances every prescaler-driven timer. Cascade-configured timers
// tick only from the overflow of the timer below them.
func (m *Device) Step(cycles int) error {
	for i := range m.channels {
		ch := &m.channels[i]
		if !ch.enabled() || (i > 0 && ch.countUp()) {
			continue
		}

		shift := prescalerShift[ch.control&ctrlPrescale]
		ch.ticks += cycles
		n := ch.ticks >> shift
		ch.ticks &= 1<<shift - 1
		m.advance(i, n)
	}
	return nil
}

func (m *Device) advance(i, n int) {
	ch := &m.channels[i]
	for n > 0 {
		space := 0x10000 - int(ch.counter)
		if n < space {
			ch.counter += uint16(n)
			return
		}
		n -= space
		m.overflow(i)
	}
}

func (m *Device) overflow(i int) {
	ch := &m.channels[i]
	ch.counter = ch.reload

	if ch.control&ctrlIRQ != 0 {
		m.pic.Raise(processor.IRQTimer0 + i)
	}
	if i < 3 {
		if next := &m.channels[i+1]; next.enabled() && next.countUp() {
			m.advance(i+1, 1)
		}
	}
}

// Counter returns the live counter of a timer.
func (m *Device) Counter(i int) uint16 {
	return m.channels[i].counter
}

func (m *Device) In(port uint16) byte {
	i := int(port-portBase) >> 2
	ch := &m.channels[i]

	switch port & 3 {
	case 0:
		return byte(ch.counter)
	case 1:
		return byte(ch.counter >> 8)
	case 2:
		return ch.control
	}
	return 0
}

func (m *Device) Out(port uint16, data byte) {
	i := int(port-portBase) >> 2
	ch := &m.channels[i]

	switch port & 3 {
	case 0: // Writes latch the reload value, not the live counter.
		ch.reload = (ch.reload & 0xFF00) | uint16(data)
	case 1:
		ch.reload = (ch.reload & 0x00FF) | uint16(data)<<8
	case 2:
		wasEnabled := ch.enabled()
		ch.control = data & (ctrlPrescale | ctrlCountUp | ctrlIRQ | ctrlEnable)
		if !wasEnabled && ch.enabled() {
			ch.counter = ch.reload
			ch.ticks = 0
		}
	}
}
