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

import "testing"

type shiftCase struct {
	v, n     uint32
	carryIn  bool
	want     uint32
	carryOut bool
}

func runShiftCases(t *testing.T, name string, fn func(uint32, uint32, bool) (uint32, bool), cases []shiftCase) {
	t.Helper()
	for i, tt := range cases {
		r, c := fn(tt.v, tt.n, tt.carryIn)
		if r != tt.want || c != tt.carryOut {
			t.Errorf("%s case %d: got (0x%X, %v), want (0x%X, %v)", name, i, r, c, tt.want, tt.carryOut)
		}
	}
}

func TestLogicalShiftLeft(t *testing.T) {
	runShiftCases(t, "LSL", lsl, []shiftCase{
		{0x1, 0, true, 0x1, true}, // zero amount keeps carry
		{0x1, 1, false, 0x2, false},
		{0x80000001, 1, false, 0x2, true},
		{0x1, 31, false, 0x80000000, false},
		{0x3, 32, false, 0, true},
		{0x3, 33, true, 0, false},
		{0x3, 255, true, 0, false},
	})
}

func TestLogicalShiftRight(t *testing.T) {
	runShiftCases(t, "LSR", lsr, []shiftCase{
		{0x2, 0, true, 0x2, true},
		{0x3, 1, false, 0x1, true},
		{0x80000000, 31, false, 0x1, false},
		{0x80000000, 32, false, 0, true},
		{0x80000000, 33, true, 0, false},
	})
}

func TestArithmeticShiftRight(t *testing.T) {
	runShiftCases(t, "ASR", asr, []shiftCase{
		{0x80000000, 0, true, 0x80000000, true},
		{0x80000000, 1, false, 0xC0000000, false},
		{0x80000001, 1, false, 0xC0000000, true},
		{0x80000000, 32, false, 0xFFFFFFFF, true},
		{0x7FFFFFFF, 40, false, 0, false},
	})
}

func TestRotateRight(t *testing.T) {
	runShiftCases(t, "ROR", ror, []shiftCase{
		{0x12345678, 0, true, 0x12345678, true},
		{0x12345678, 4, false, 0x81234567, true},
		{0x12345678, 8, false, 0x78123456, false},
		{0x12345678, 32, false, 0x12345678, false},
		{0x12345678, 36, false, 0x81234567, true},
	})
}

func TestRotateRightExtended(t *testing.T) {
	r, c := rrx(0x3, false)
	if r != 0x1 || !c {
		t.Errorf("got (0x%X, %v)", r, c)
	}
	r, c = rrx(0x2, true)
	if r != 0x80000001 || c {
		t.Errorf("got (0x%X, %v)", r, c)
	}
}

func TestImmediateShiftSpecialEncodings(t *testing.T) {
	// LSR #0 means LSR #32.
	r, c := shiftByImm(shiftLSR, 0x80000000, 0, false)
	if r != 0 || !c {
		t.Errorf("LSR #0: got (0x%X, %v)", r, c)
	}

	// ASR #0 means ASR #32.
	r, c = shiftByImm(shiftASR, 0x80000000, 0, false)
	if r != 0xFFFFFFFF || !c {
		t.Errorf("ASR #0: got (0x%X, %v)", r, c)
	}

	// ROR #0 means RRX.
	r, c = shiftByImm(shiftROR, 0x2, 0, true)
	if r != 0x80000001 || c {
		t.Errorf("ROR #0: got (0x%X, %v)", r, c)
	}

	// LSL #0 passes the value through untouched.
	r, c = shiftByImm(shiftLSL, 0x42, 0, true)
	if r != 0x42 || !c {
		t.Errorf("LSL #0: got (0x%X, %v)", r, c)
	}
}

func TestRegisterShiftNoSpecialCases(t *testing.T) {
	// By-register shifts treat zero as a plain no-op.
	r, c := shiftByReg(shiftROR, 0x2, 0, true)
	if r != 0x2 || !c {
		t.Errorf("ROR reg #0: got (0x%X, %v)", r, c)
	}
	r, c = shiftByReg(shiftLSR, 0xF0, 4, false)
	if r != 0xF || c {
		t.Errorf("LSR reg: got (0x%X, %v)", r, c)
	}
}
