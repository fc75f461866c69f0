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

package video

import (
	"github.com/andreas-jonsson/virtualgba/emulator/processor"
)

// Scanline timing in bus cycles.
const (
	CyclesPerLine  = 1232
	HBlankStart    = 960
	VisibleLines   = 160
	TotalLines     = 228
	CyclesPerFrame = CyclesPerLine * TotalLines
)

const (
	portDISPCNT  = 0x000
	portDISPSTAT = 0x004
	portVCOUNT   = 0x006
)

// DISPSTAT flags.
const (
	statVBlank       = 1 << 0
	statHBlank       = 1 << 1
	statVCount       = 1 << 2
	statVBlankIRQ    = 1 << 3
	statHBlankIRQ    = 1 << 4
	statVCountIRQ    = 1 << 5
	statWritableMask = 0xFF38
)

// Device is the display sequencer. It steps the horizontal and vertical
// counters in lockstep with the processor and raises the blanking
// interrupts and transfer triggers, which is all software-visible timing
// even before any rendering happens.
type Device struct {
	pic processor.InterruptController
	dma processor.DMAController

	dispcnt  uint16
	dispstat uint16
	vcount   uint16

	dot      int
	inHBlank bool
}

func (m *Device) Install(p processor.Machine) error {
	m.pic = p.GetInterruptController()
	m.dma = p.GetDMAController()
	return p.Memory().MapIO(m, portDISPCNT, portVCOUNT+1)
}

func (m *Device) Name() string {
	return "Display Sequencer"
}

func (m *Device) Reset() {
	*m = Device{pic: m.pic, dma: m.dma}
	m.checkVCount()
}

func (m *Device) Step(cycles int) error {
	for cycles > 0 {
		if !m.inHBlank {
			if need := HBlankStart - m.dot; cycles < need {
				m.dot += cycles
				break
			} else {
				cycles -= need
			}
			m.dot = HBlankStart
			m.enterHBlank()
		} else {
			if need := CyclesPerLine - m.dot; cycles < need {
				m.dot += cycles
				break
			} else {
				cycles -= need
			}
			m.dot = 0
			m.nextLine()
		}
	}
	return nil
}

func (m *Device) enterHBlank() {
	m.inHBlank = true
	m.dispstat |= statHBlank

	if m.dispstat&statHBlankIRQ != 0 {
		m.pic.Raise(processor.IRQHBlank)
	}
	// Blanking transfers only run on visible scanlines.
	if m.vcount < VisibleLines {
		m.dma.HBlank()
	}
}

func (m *Device) nextLine() {
	m.inHBlank = false
	m.dispstat &^= statHBlank

	if m.vcount++; m.vcount >= TotalLines {
		m.vcount = 0
	}

	// The flag drops one line before the counter wraps, so software
	// polling on the final line already sees it clear.
	if m.vcount == TotalLines-1 {
		m.dispstat &^= statVBlank
	}

	if m.vcount == VisibleLines {
		m.dispstat |= statVBlank
		if m.dispstat&statVBlankIRQ != 0 {
			m.pic.Raise(processor.IRQVBlank)
		}
		m.dma.VBlank()
	}
	m.checkVCount()
}

func (m *Device) checkVCount() {
	if m.vcount == m.dispstat>>8 {
		if m.dispstat&statVCount == 0 && m.dispstat&statVCountIRQ != 0 {
			m.pic.Raise(processor.IRQVCount)
		}
		m.dispstat |= statVCount
	} else {
		m.dispstat &^= statVCount
	}
}

// Scanline returns the current vertical counter.
func (m *Device) Scanline() int {
	return int(m.vcount)
}

// VBlank reports whether the sequencer is in the vertical blanking period.
func (m *Device) VBlank() bool {
	return m.dispstat&statVBlank != 0
}

func (m *Device) In(port uint16) byte {
	switch port {
	case portDISPCNT:
		return byte(m.dispcnt)
	case portDISPCNT + 1:
		return byte(m.dispcnt >> 8)
	case portDISPSTAT:
		return byte(m.dispstat)
	case portDISPSTAT + 1:
		return byte(m.dispstat >> 8)
	case portVCOUNT:
		return byte(m.vcount)
	case portVCOUNT + 1:
		return byte(m.vcount >> 8)
	}
	return 0
}

func (m *Device) Out(port uint16, data byte) {
	switch port {
	case portDISPCNT:
		m.dispcnt = (m.dispcnt & 0xFF00) | uint16(data)
	case portDISPCNT + 1:
		m.dispcnt = (m.dispcnt & 0x00FF) | uint16(data)<<8
	case portDISPSTAT:
		// The status bits in the low byte are owned by the sequencer.
		m.dispstat = m.dispstat&^(statWritableMask&0xFF) | uint16(data)&statWritableMask&0xFF
	case portDISPSTAT + 1:
		m.dispstat = (m.dispstat & 0x00FF) | uint16(data)<<8
		m.checkVCount()
	}
}
