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

package emulator

import (
	"io"

	"github.com/spf13/afero"

	"github.com/andreas-jonsson/virtualgba/emulator/memory"
	"github.com/andreas-jonsson/virtualgba/emulator/peripheral"
	"github.com/andreas-jonsson/virtualgba/emulator/peripheral/dma"
	"github.com/andreas-jonsson/virtualgba/emulator/peripheral/irq"
	"github.com/andreas-jonsson/virtualgba/emulator/peripheral/keypad"
	"github.com/andreas-jonsson/virtualgba/emulator/peripheral/ram"
	"github.com/andreas-jonsson/virtualgba/emulator/peripheral/rom"
	"github.com/andreas-jonsson/virtualgba/emulator/peripheral/timer"
	"github.com/andreas-jonsson/virtualgba/emulator/peripheral/video"
	"github.com/andreas-jonsson/virtualgba/emulator/processor"
	"github.com/andreas-jonsson/virtualgba/emulator/processor/cpu"
	"github.com/sirupsen/logrus"
)

// System is a complete machine: processor, bus and the standard
// peripheral set.
type System struct {
	mem *memory.Bus
	cpu *cpu.CPU

	pic    *irq.Device
	dma    *dma.Device
	timers *timer.Device
	video  *video.Device
	keypad *keypad.Device

	peripherals []peripheral.Peripheral
	fs          afero.Fs
}

func New() (*System, error) {
	return NewWithFilesystem(afero.NewOsFs())
}

// NewWithFilesystem builds a machine that loads images from fs.
func NewWithFilesystem(fs afero.Fs) (*System, error) {
	s := &System{
		mem:    memory.NewBus(),
		pic:    &irq.Device{},
		dma:    &dma.Device{},
		timers: &timer.Device{},
		video:  &video.Device{},
		keypad: &keypad.Device{},
		fs:     fs,
	}
	s.cpu = cpu.New(s.mem, s.pic)

	s.peripherals = []peripheral.Peripheral{
		&ram.Device{Base: 0x02000000, Size: 0x40000, Cycles: 3}, // on-board WRAM
		&ram.Device{Base: 0x03000000, Size: 0x8000, Cycles: 1},  // on-chip WRAM
		&ram.Device{Base: 0x05000000, Size: 0x400, Cycles: 1},   // palette
		&ram.Device{Base: 0x06000000, Size: 0x18000, Window: 0x20000, Cycles: 1},
		&ram.Device{Base: 0x07000000, Size: 0x400, Cycles: 1}, // OAM
		s.pic,
		s.dma,
		s.timers,
		s.video,
		s.keypad,
	}

	for _, p := range s.peripherals {
		logrus.Debugf("installing peripheral: %s", p.Name())
		if err := p.Install(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Machine interface, what peripherals see when installed.

func (s *System) Memory() *memory.Bus {
	return s.mem
}

func (s *System) GetInterruptController() processor.InterruptController {
	return s.pic
}

func (s *System) GetDMAController() processor.DMAController {
	return s.dma
}

// Processor exposes the CPU for register inspection.
func (s *System) Processor() *cpu.CPU {
	return s.cpu
}

// Keypad exposes the button matrix to the front-end.
func (s *System) Keypad() *keypad.Device {
	return s.keypad
}

// Display exposes the display sequencer state.
func (s *System) Display() *video.Device {
	return s.video
}

// LoadCartridge installs a cartridge image from the filesystem.
func (s *System) LoadCartridge(path string) error {
	fp, err := s.fs.Open(path)
	if err != nil {
		return err
	}
	defer fp.Close()
	return s.LoadCartridgeFrom(fp)
}

func (s *System) LoadCartridgeFrom(r io.Reader) error {
	dev, err := rom.NewDevice(r)
	if err != nil {
		return err
	}
	s.peripherals = append(s.peripherals, dev)
	return dev.Install(s)
}

// LoadBIOS installs a system ROM image. System calls then trap into it
// instead of the built-in handlers.
func (s *System) LoadBIOS(path string) error {
	fp, err := s.fs.Open(path)
	if err != nil {
		return err
	}
	defer fp.Close()
	return s.LoadBIOSFrom(fp)
}

func (s *System) LoadBIOSFrom(r io.Reader) error {
	dev, err := rom.NewBIOS(r)
	if err != nil {
		return err
	}
	s.peripherals = append(s.peripherals, dev)
	if err := dev.Install(s); err != nil {
		return err
	}
	s.cpu.SetBIOSLoaded(true)
	return nil
}

func (s *System) Reset() {
	s.mem.Reset()
	s.cpu.Reset()
	for _, p := range s.peripherals {
		p.Reset()
	}
}

// Step runs one instruction, any transfers it triggered, and advances
// the counting peripherals by the elapsed cycles.
func (s *System) Step() (int, error) {
	cycles := s.cpu.Step()
	cycles += s.dma.Run()

	for _, p := range s.peripherals {
		if err := p.Step(cycles); err != nil {
			return cycles, err
		}
	}
	return cycles, nil
}

// RunFrame steps the machine for one full display refresh.
func (s *System) RunFrame() error {
	for n := 0; n < video.CyclesPerFrame; {
		c, err := s.Step()
		if err != nil {
			return err
		}
		n += c
	}
	return nil
}
