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

package irq

import (
	"errors"

	"github.com/andreas-jonsson/virtualgba/emulator/processor"
)

var ErrNoInterrupts = errors.New("no interrupts")

const (
	portIE  = 0x200
	portIF  = 0x202
	portIME = 0x208
)

// Device is the interrupt controller. A request bit may be set by any
// peripheral at any time but is only cleared by software writing a 1 to it.
type Device struct {
	enable, request uint16
	master          bool
}

func (m *Device) Install(p processor.Machine) error {
	if err := p.Memory().MapIO(m, portIE, portIF+1); err != nil {
		return err
	}
	return p.Memory().MapIO(m, portIME, portIME+3)
}

func (m *Device) Name() string {
	return "Interrupt Controller"
}

func (m *Device) Reset() {
	*m = Device{}
}

func (m *Device) Step(int) error {
	return nil
}

func (m *Device) Raise(n int) {
	m.request |= 1 << n
}

// Pending reports whether any enabled request is waiting and the master
// enable is set.
func (m *Device) Pending() bool {
	return m.master && m.enable&m.request != 0
}

// GetInterrupt returns the lowest-numbered takeable source. The request
// bit stays set until software acknowledges it.
func (m *Device) GetInterrupt() (int, error) {
	has := m.request & m.enable
	if !m.master || has == 0 {
		return 0, ErrNoInterrupts
	}
	for i := 0; i < 16; i++ {
		if has>>i&1 != 0 {
			return i, nil
		}
	}
	return 0, ErrNoInterrupts
}

func (m *Device) In(port uint16) byte {
	switch port {
	case portIE:
		return byte(m.enable)
	case portIE + 1:
		return byte(m.enable >> 8)
	case portIF:
		return byte(m.request)
	case portIF + 1:
		return byte(m.request >> 8)
	case portIME:
		if m.master {
			return 1
		}
	}
	return 0
}

func (m *Device) Out(port uint16, data byte) {
	switch port {
	case portIE:
		m.enable = (m.enable & 0xFF00) | uint16(data)
	case portIE + 1:
		m.enable = (m.enable & 0x00FF) | uint16(data)<<8
	case portIF: // Write 1 to acknowledge.
		m.request &^= uint16(data)
	case portIF + 1:
		m.request &^= uint16(data) << 8
	case portIME:
		m.master = data&1 != 0
	}
}
