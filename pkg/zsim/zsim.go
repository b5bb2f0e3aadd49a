// Package zsim verifies hand-emitted Z80 instruction fragments against
// fixed input states. Adapted from pkg/search/verifier.go's
// TestVectors/execSeq/QuickCheck: where that package used fixed vectors to
// reject non-equivalent candidate sequences during search, this package uses
// the same vectors to confirm a hand-designed fragment (one step of
// bcd_add's or bcd_sub's digit loop, bcd_neg's sign flip) produces the carry/decimal-adjust behavior pkg/rom's emitters assume.
package zsim

import (
	"github.com/ajokela/kz80-bc/pkg/cpu"
	"github.com/ajokela/kz80-bc/pkg/inst"
)

// TestVectors are fixed (A, F, C) states exercised by every Run call: the
// only fields the oracle's four-opcode model reads. They cover all-zero,
// all-one, an ascending pattern, and three bit-pattern pairs likely to
// surface carry/borrow edge cases.
var TestVectors = []cpu.State{
	{A: 0x00, F: 0x00, C: 0x00},
	{A: 0xFF, F: 0xFF, C: 0xFF},
	{A: 0x01, F: 0x00, C: 0x03},
	{A: 0x80, F: 0x01, C: 0x20},
	{A: 0x55, F: 0x00, C: 0x55},
	{A: 0xAA, F: 0x01, C: 0xAA},
}

// Run executes seq starting from initial and returns the final state.
func Run(initial cpu.State, seq []inst.Instruction) cpu.State {
	s := initial
	for i := range seq {
		cpu.Exec(&s, seq[i].Op, seq[i].Imm)
	}
	return s
}

// RunAll executes seq once per TestVectors entry and returns every final
// state, index-aligned with TestVectors.
func RunAll(seq []inst.Instruction) []cpu.State {
	out := make([]cpu.State, len(TestVectors))
	for i := range TestVectors {
		out[i] = Run(TestVectors[i], seq)
	}
	return out
}

// BCDAddDigit builds the one-byte fragment pkg/rom's emitMagnitudeAdd emits
// per packed byte: ADC A,C (add the operand digit plus incoming carry) then
// DAA (decimal-adjust the sum back into a single BCD digit pair).
func BCDAddDigit() []inst.Instruction {
	return []inst.Instruction{
		{Op: inst.ADC_A_C},
		{Op: inst.DAA},
	}
}

// BCDSubDigit builds emitMagnitudeSub's per-byte fragment: SBC A,C then DAA.
func BCDSubDigit() []inst.Instruction {
	return []inst.Instruction{
		{Op: inst.SBC_A_C},
		{Op: inst.DAA},
	}
}

// PackedDigit splits a packed BCD byte into (tens, ones), mirroring how
// pkg/rom's dispatch loop decodes StoreScale's operand and how bcd_mul10
// reasons about high/low nibbles.
func PackedDigit(b uint8) (tens, ones uint8) {
	return b >> 4, b & 0x0F
}
