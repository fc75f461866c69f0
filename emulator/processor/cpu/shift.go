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

package cpu

import "math/bits"

// Barrel shifter operations. Shift type encoding shared by both
// instruction sets.
const (
	shiftLSL = iota
	shiftLSR
	shiftASR
	shiftROR
)

// Each shift returns the result and the shifter carry-out. A zero amount
// leaves both the value and the incoming carry untouched; amounts up to
// 255 can come from register-specified shifts.

func lsl(v, n uint32, carry bool) (uint32, bool) {
	switch {
	case n == 0:
		return v, carry
	case n < 32:
		return v << n, v>>(32-n)&1 != 0
	case n == 32:
		return 0, v&1 != 0
	}
	return 0, false
}

func lsr(v, n uint32, carry bool) (uint32, bool) {
	switch {
	case n == 0:
		return v, carry
	case n < 32:
		return v >> n, v>>(n-1)&1 != 0
	case n == 32:
		return 0, v>>31 != 0
	}
	return 0, false
}

func asr(v, n uint32, carry bool) (uint32, bool) {
	switch {
	case n == 0:
		return v, carry
	case n < 32:
		return uint32(int32(v) >> n), v>>(n-1)&1 != 0
	}
	// The sign bit fills the whole word.
	return uint32(int32(v) >> 31), v>>31 != 0
}

func ror(v, n uint32, carry bool) (uint32, bool) {
	if n == 0 {
		return v, carry
	}
	if n &= 31; n == 0 {
		return v, v>>31 != 0
	}
	r := bits.RotateLeft32(v, -int(n))
	return r, r>>31 != 0
}

// rrx shifts right one bit through the carry flag.
func rrx(v uint32, carry bool) (uint32, bool) {
	r := v >> 1
	if carry {
		r |= 1 << 31
	}
	return r, v&1 != 0
}

// shiftByImm applies an immediate-specified shift, decoding the amount
// zero special cases of the instruction formats.
func shiftByImm(typ int, v, n uint32, carry bool) (uint32, bool) {
	switch typ {
	case shiftLSL:
		return lsl(v, n, carry)
	case shiftLSR:
		if n == 0 {
			n = 32
		}
		return lsr(v, n, carry)
	case shiftASR:
		if n == 0 {
			n = 32
		}
		return asr(v, n, carry)
	}
	if n == 0 {
		return rrx(v, carry)
	}
	return ror(v, n, carry)
}

// shiftByReg applies a register-specified shift. There are no special
// encodings: a zero amount is a plain no-op.
func shiftByReg(typ int, v, n uint32, carry bool) (uint32, bool) {
	switch typ {
	case shiftLSL:
		return lsl(v, n, carry)
	case shiftLSR:
		return lsr(v, n, carry)
	case shiftASR:
		return asr(v, n, carry)
	}
	return ror(v, n, carry)
}
