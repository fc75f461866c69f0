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

package rom

import (
	"errors"
	"io"
	"io/ioutil"

	"github.com/andreas-jonsson/virtualgba/emulator/memory"
	"github.com/andreas-jonsson/virtualgba/emulator/processor"
	"github.com/sirupsen/logrus"
)

var ErrEmptyImage = errors.New("image is empty")

const maxImageSize = 32 * 1024 * 1024

// Device is a cartridge image mapped across the three waitstate views.
// Reads past the end of the image mirror it.
type Device struct {
	image []byte
}

func NewDevice(r io.Reader) (*Device, error) {
	data, err := ioutil.ReadAll(io.LimitReader(r, maxImageSize))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	logrus.Infof("cartridge image is %d bytes", len(data))
	return &Device{image: data}, nil
}

func (m *Device) Install(p processor.Machine) error {
	p.Memory().MapGamePak(m)
	return nil
}

func (m *Device) Name() string {
	return "Cartridge ROM"
}

func (m *Device) Reset() {
}

func (m *Device) Step(int) error {
	return nil
}

// Size returns the image size in bytes.
func (m *Device) Size() int {
	return len(m.image)
}

func (m *Device) ReadByte(addr memory.Pointer) byte {
	// The three views mirror the same image, so only the offset within
	// a 32MB view pair matters.
	off := uint32(addr) & 0x1FFFFFF
	return m.image[int(off)%len(m.image)]
}

func (m *Device) WriteByte(addr memory.Pointer, data byte) {
	logrus.Debugf("writing to read-only memory: %v", addr)
}

// BIOS is the system ROM in region zero.
type BIOS struct {
	image []byte
}

func NewBIOS(r io.Reader) (*BIOS, error) {
	data, err := ioutil.ReadAll(io.LimitReader(r, 0x4000))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	return &BIOS{image: data}, nil
}

func (m *BIOS) Install(p processor.Machine) error {
	p.Memory().Map(0, m, 2)
	return nil
}

func (m *BIOS) Name() string {
	return "System BIOS"
}

func (m *BIOS) Reset() {
}

func (m *BIOS) Step(int) error {
	return nil
}

func (m *BIOS) ReadByte(addr memory.Pointer) byte {
	if off := int(addr) & 0xFFFFFF; off < len(m.image) {
		return m.image[off]
	}
	return 0
}

func (m *BIOS) WriteByte(addr memory.Pointer, data byte) {
	logrus.Debugf("writing to read-only memory: %v", addr)
}
