package zsim

import (
	"testing"

	"github.com/ajokela/kz80-bc/pkg/cpu"
	"github.com/ajokela/kz80-bc/pkg/inst"
)

// TestBCDAddDigitNoCarry checks the plain digit-sum path emitMagnitudeAdd
// relies on: 3 + 4 with no carry in produces 7, no carry out.
func TestBCDAddDigitNoCarry(t *testing.T) {
	initial := cpu.State{A: 0x03, C: 0x04, F: 0x00}
	out := Run(initial, BCDAddDigit())
	if out.A != 0x07 {
		t.Fatalf("A = %#02x, want 0x07", out.A)
	}
	if out.F&cpu.FlagC != 0 {
		t.Fatalf("carry set, want clear")
	}
}

// TestBCDAddDigitCarryOut checks a sum that overflows a single BCD digit
// pair (99 + 1) decimal-adjusts to 00 with carry out, the condition
// emitMagnitudeAdd's DJNZ loop depends on to propagate into the next byte.
func TestBCDAddDigitCarryOut(t *testing.T) {
	initial := cpu.State{A: 0x99, C: 0x01, F: 0x00}
	out := Run(initial, BCDAddDigit())
	if out.A != 0x00 {
		t.Fatalf("A = %#02x, want 0x00", out.A)
	}
	if out.F&cpu.FlagC == 0 {
		t.Fatalf("carry clear, want set")
	}
}

// TestBCDAddDigitCarryIn checks that a pending carry from a previous byte
// (ADC, not ADD) is folded into the sum: 49 + 50 + carry-in(1) = 100, which
// decimal-adjusts this byte to 00 with carry out.
func TestBCDAddDigitCarryIn(t *testing.T) {
	initial := cpu.State{A: 0x49, C: 0x50, F: cpu.FlagC}
	out := Run(initial, BCDAddDigit())
	if out.A != 0x00 {
		t.Fatalf("A = %#02x, want 0x00", out.A)
	}
	if out.F&cpu.FlagC == 0 {
		t.Fatalf("carry clear, want set")
	}
}

// TestBCDSubDigitBorrow checks the borrow path emitMagnitudeSub's DJNZ loop
// depends on: 20 - 25 borrows, decimal-adjusting to 95 with the carry
// (borrow) flag set for the next, more-significant byte's SBC.
func TestBCDSubDigitBorrow(t *testing.T) {
	initial := cpu.State{A: 0x20, C: 0x25, F: 0x00}
	out := Run(initial, BCDSubDigit())
	if out.A != 0x95 {
		t.Fatalf("A = %#02x, want 0x95", out.A)
	}
	if out.F&cpu.FlagC == 0 {
		t.Fatalf("borrow flag clear, want set")
	}
}

// TestBCDSubDigitNoBorrow checks the plain case: 50 - 30 = 20, no borrow.
func TestBCDSubDigitNoBorrow(t *testing.T) {
	initial := cpu.State{A: 0x50, C: 0x30, F: 0x00}
	out := Run(initial, BCDSubDigit())
	if out.A != 0x20 {
		t.Fatalf("A = %#02x, want 0x20", out.A)
	}
	if out.F&cpu.FlagC != 0 {
		t.Fatalf("borrow flag set, want clear")
	}
}

// TestPackedDigit checks the nibble split pkg/rom's StoreScale handler and
// bcd_mul10's shift both rely on.
func TestPackedDigit(t *testing.T) {
	tens, ones := PackedDigit(0x37)
	if tens != 3 || ones != 7 {
		t.Fatalf("PackedDigit(0x37) = (%d,%d), want (3,7)", tens, ones)
	}
}

// TestSignNegate checks the sign toggle emitBCDNeg applies to a nonzero
// number's sign byte: XOR 0x80 flips only the sign bit.
func TestSignNegate(t *testing.T) {
	initial := cpu.State{A: 0x00}
	out := Run(initial, []inst.Instruction{{Op: inst.XOR_N, Imm: 0x80}})
	if out.A != 0x80 {
		t.Fatalf("A = %#02x, want 0x80 (negative sign set)", out.A)
	}
	out2 := Run(out, []inst.Instruction{{Op: inst.XOR_N, Imm: 0x80}})
	if out2.A != 0x00 {
		t.Fatalf("A = %#02x, want 0x00 (sign cleared back)", out2.A)
	}
}

// TestRunAllVectorCount checks RunAll produces one state per TestVectors
// entry, so results can be indexed by vector.
func TestRunAllVectorCount(t *testing.T) {
	out := RunAll(BCDAddDigit())
	if len(out) != len(TestVectors) {
		t.Fatalf("len(out) = %d, want %d", len(out), len(TestVectors))
	}
}
