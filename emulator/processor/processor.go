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

package processor

import (
	"github.com/andreas-jonsson/virtualgba/emulator/memory"
)

// Interrupt sources, by request-bit index.
const (
	IRQVBlank = iota
	IRQHBlank
	IRQVCount
	IRQTimer0
	IRQTimer1
	IRQTimer2
	IRQTimer3
	IRQSerial
	IRQDMA0
	IRQDMA1
	IRQDMA2
	IRQDMA3
	IRQKeypad
	IRQGamePak
)

// Exception vectors.
const (
	VectorReset     = 0x00
	VectorUndefined = 0x04
	VectorSWI       = 0x08
	VectorIRQ       = 0x18
)

// Documented reset constants.
const (
	EntryPoint          = 0x08000000
	InitialSP           = 0x03007F00
	InitialSPIRQ        = 0x03007FA0
	InitialSPSupervisor = 0x03007FE0
)

type InterruptController interface {
	// Raise sets a request bit. Only software acknowledgment clears it.
	Raise(n int)

	// Pending reports whether an enabled, unmasked request is waiting.
	Pending() bool

	// GetInterrupt returns the lowest-numbered takeable source without
	// acknowledging it.
	GetInterrupt() (int, error)
}

// DMAController receives display edges that may start triggered transfers.
type DMAController interface {
	VBlank()
	HBlank()
}

// Machine is what peripherals see when they are installed.
type Machine interface {
	Memory() *memory.Bus
	GetInterruptController() InterruptController
	GetDMAController() DMAController
}
