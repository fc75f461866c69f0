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

package keypad

import (
	"github.com/andreas-jonsson/virtualgba/emulator/processor"
)

const (
	portKEYINPUT = 0x130
	portKEYCNT   = 0x132
)

// Button bits. KEYINPUT is active low so a set bit means released.
const (
	ButtonA = 1 << iota
	ButtonB
	ButtonSelect
	ButtonStart
	ButtonRight
	ButtonLeft
	ButtonUp
	ButtonDown
	ButtonR
	ButtonL

	buttonMask = 0x3FF
)

const (
	keycntIRQ = 1 << 14
	keycntAnd = 1 << 15
)

// Device tracks the button matrix and raises the keypad interrupt
// according to the KEYCNT condition.
type Device struct {
	pic processor.InterruptController

	pressed uint16
	control uint16
}

func (m *Device) Install(p processor.Machine) error {
	m.pic = p.GetInterruptController()
	return p.Memory().MapIO(m, portKEYINPUT, portKEYCNT+1)
}

func (m *Device) Name() string {
	return "Keypad"
}

func (m *Device) Reset() {
	*m = Device{pic: m.pic}
}

func (m *Device) Step(int) error {
	return nil
}

func (m *Device) Press(button uint16) {
	m.pressed |= button & buttonMask
	m.check()
}

func (m *Device) Release(button uint16) {
	m.pressed &^= button
}

func (m *Device) check() {
	if m.control&keycntIRQ == 0 {
		return
	}
	selected := m.control & buttonMask
	if m.control&keycntAnd != 0 {
		if selected != 0 && m.pressed&selected == selected {
			m.pic.Raise(processor.IRQKeypad)
		}
	} else if m.pressed&selected != 0 {
		m.pic.Raise(processor.IRQKeypad)
	}
}

func (m *Device) In(port uint16) byte {
	switch port {
	case portKEYINPUT:
		return byte(^m.pressed)
	case portKEYINPUT + 1:
		return byte(^m.pressed>>8)&3 | 0xFC
	case portKEYCNT:
		return byte(m.control)
	case portKEYCNT + 1:
		return byte(m.control >> 8)
	}
	return 0
}

func (m *Device) Out(port uint16, data byte) {
	switch port {
	case portKEYCNT:
		m.control = (m.control & 0xFF00) | uint16(data)
	case portKEYCNT + 1:
		m.control = (m.control & 0x00FF) | uint16(data)<<8
		m.check()
	}
}
