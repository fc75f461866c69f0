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

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Pointer is a 32-bit physical address. Bits 24-27 select the region.
type Pointer uint32

func (p Pointer) String() string {
	return fmt.Sprintf("0x%08X", uint32(p))
}

// Region returns the region index of the address.
func (p Pointer) Region() byte {
	return byte(p>>24) & 0xF
}

type Memory interface {
	ReadByte(addr Pointer) byte
	WriteByte(addr Pointer, data byte)
}

// IO is a device mapped into the register window. Ports are offsets
// within the window.
type IO interface {
	In(port uint16) byte
	Out(port uint16, data byte)
}

type DummyIO struct{}

func (m *DummyIO) In(port uint16) byte {
	logrus.Debugf("reading unmapped IO register: 0x%03X", port)
	return 0
}

func (m *DummyIO) Out(port uint16, data byte) {
	logrus.Debugf("writing unmapped IO register: 0x%03X", port)
}

type DummyMemory struct{}

func (m *DummyMemory) ReadByte(addr Pointer) byte {
	logrus.Debugf("reading unmapped memory: %v", addr)
	return 0
}

func (m *DummyMemory) WriteByte(addr Pointer, data byte) {
	logrus.Debugf("writing unmapped memory: %v", addr)
}
