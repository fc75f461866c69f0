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

package processor

// Flags is the current or saved status word.
type Flags uint32

const (
	Negative Flags = 1 << 31
	Zero     Flags = 1 << 30
	Carry    Flags = 1 << 29
	Overflow Flags = 1 << 28

	IRQDisable Flags = 1 << 7
	FIQDisable Flags = 1 << 6
	Thumb      Flags = 1 << 5
)

const ConditionFlags = Negative | Zero | Carry | Overflow

const ModeMask Flags = 0x1F

// Processor modes. User and System share one register bank; every other
// mode owns a banked stack pointer, link register and saved status word.
const (
	ModeUser       Flags = 0x10
	ModeFIQ        Flags = 0x11
	ModeIRQ        Flags = 0x12
	ModeSupervisor Flags = 0x13
	ModeAbort      Flags = 0x17
	ModeUndefined  Flags = 0x1B
	ModeSystem     Flags = 0x1F
)

func (r *Flags) Get(f Flags) Flags {
	return *r & f
}

func (r *Flags) GetBool(f Flags) bool {
	return r.Get(f) != 0
}

func (r *Flags) Set(f Flags) {
	*r |= f
}

func (r *Flags) SetBool(f Flags, b bool) {
	if b {
		r.Set(f)
		return
	}
	r.Clear(f)
}

func (r *Flags) Clear(f Flags) {
	*r &= ^f
}

// Bank index per mode. User and System share index 0.
func bankIndex(mode Flags) int {
	switch mode {
	case ModeFIQ:
		return 1
	case ModeIRQ:
		return 2
	case ModeSupervisor:
		return 3
	case ModeAbort:
		return 4
	case ModeUndefined:
		return 5
	default:
		return 0
	}
}

// Registers is the register file. Banked registers are arrays indexed by
// the mode of the current status word; switching modes only changes which
// index is used for lookup, data is never copied between banks.
type Registers struct {
	r   [13]uint32
	fiq [5]uint32 // R8-R12, visible in FIQ mode only

	sp   [6]uint32
	lr   [6]uint32
	spsr [6]Flags

	PC   uint32
	CPSR Flags
}

func (r *Registers) Mode() Flags {
	return r.CPSR & ModeMask
}

func (r *Registers) bank() int {
	return bankIndex(r.Mode())
}

// Get returns general register i as visible in the current mode.
// R15 is returned without any pipeline offset; the execution engine
// applies the fetch lookahead where instructions observe it.
func (r *Registers) Get(i int) uint32 {
	switch {
	case i == 15:
		return r.PC
	case i == 14:
		return r.lr[r.bank()]
	case i == 13:
		return r.sp[r.bank()]
	case i >= 8 && r.Mode() == ModeFIQ:
		return r.fiq[i-8]
	default:
		return r.r[i]
	}
}

func (r *Registers) Set(i int, v uint32) {
	switch {
	case i == 15:
		r.PC = v
	case i == 14:
		r.lr[r.bank()] = v
	case i == 13:
		r.sp[r.bank()] = v
	case i >= 8 && r.Mode() == ModeFIQ:
		r.fiq[i-8] = v
	default:
		r.r[i] = v
	}
}

// GetUser accesses the User/System bank regardless of the current mode.
// Block transfers with the user-bank bit set use these.
func (r *Registers) GetUser(i int) uint32 {
	switch i {
	case 15:
		return r.PC
	case 14:
		return r.lr[0]
	case 13:
		return r.sp[0]
	default:
		return r.r[i]
	}
}

func (r *Registers) SetUser(i int, v uint32) {
	switch i {
	case 15:
		r.PC = v
	case 14:
		r.lr[0] = v
	case 13:
		r.sp[0] = v
	default:
		r.r[i] = v
	}
}

// SPSR returns the saved status word of the current mode. User and System
// have none and observe the current status word instead.
func (r *Registers) SPSR() Flags {
	if b := r.bank(); b != 0 {
		return r.spsr[b]
	}
	return r.CPSR
}

func (r *Registers) SetSPSR(f Flags) {
	if b := r.bank(); b != 0 {
		r.spsr[b] = f
	}
}

// SetSPSRFor stores into the saved status word of an explicit mode.
func (r *Registers) SetSPSRFor(mode, f Flags) {
	if b := bankIndex(mode); b != 0 {
		r.spsr[b] = f
	}
}

// Reset reinitializes the file to the documented boot state: System mode,
// 32-bit instruction set, stacks in on-chip work RAM and the program
// counter at the cartridge entry point.
func (r *Registers) Reset() {
	*r = Registers{}
	r.CPSR = ModeSystem | FIQDisable

	r.sp[0] = InitialSP
	r.sp[bankIndex(ModeIRQ)] = InitialSPIRQ
	r.sp[bankIndex(ModeSupervisor)] = InitialSPSupervisor

	r.lr[0] = EntryPoint
	r.PC = EntryPoint
}
