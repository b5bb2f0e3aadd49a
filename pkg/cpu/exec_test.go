package cpu

import (
	"testing"

	"github.com/ajokela/kz80-bc/pkg/inst"
)

// TestFlagTables verifies the precomputed tables DAA and the ALU helpers
// index into.
func TestFlagTables(t *testing.T) {
	if Sz53Table[0]&FlagZ == 0 {
		t.Error("Sz53Table[0] should have Z flag")
	}
	if Sz53pTable[0]&FlagZ == 0 {
		t.Error("Sz53pTable[0] should have Z flag")
	}
	if Sz53Table[0x80]&FlagS == 0 {
		t.Error("Sz53Table[0x80] should have S flag")
	}
	if ParityTable[0]&FlagP == 0 {
		t.Error("ParityTable[0] should have P flag (even parity)")
	}
	if ParityTable[1]&FlagP != 0 {
		t.Error("ParityTable[1] should NOT have P flag (odd parity)")
	}
	if ParityTable[0xFF]&FlagP == 0 {
		t.Error("ParityTable[0xFF] should have P flag")
	}
}

func TestExecAdcNoCarry(t *testing.T) {
	s := State{A: 0x03, C: 0x04}
	Exec(&s, inst.ADC_A_C, 0)
	if s.A != 0x07 {
		t.Fatalf("A = %#02x, want 0x07", s.A)
	}
	if s.F&FlagC != 0 {
		t.Fatalf("carry set, want clear")
	}
}

func TestExecAdcWithCarryIn(t *testing.T) {
	s := State{A: 0x01, C: 0x01, F: FlagC}
	Exec(&s, inst.ADC_A_C, 0)
	if s.A != 0x03 {
		t.Fatalf("A = %#02x, want 0x03 (1+1+carry)", s.A)
	}
}

func TestExecAdcOverflowSetsCarry(t *testing.T) {
	s := State{A: 0xFF, C: 0x01}
	Exec(&s, inst.ADC_A_C, 0)
	if s.A != 0x00 {
		t.Fatalf("A = %#02x, want 0x00", s.A)
	}
	if s.F&FlagC == 0 {
		t.Fatalf("carry clear, want set")
	}
}

func TestExecSbcNoBorrow(t *testing.T) {
	s := State{A: 0x05, C: 0x03}
	Exec(&s, inst.SBC_A_C, 0)
	if s.A != 0x02 {
		t.Fatalf("A = %#02x, want 0x02", s.A)
	}
	if s.F&FlagC != 0 {
		t.Fatalf("borrow set, want clear")
	}
}

func TestExecSbcBorrow(t *testing.T) {
	s := State{A: 0x00, C: 0x01}
	Exec(&s, inst.SBC_A_C, 0)
	if s.A != 0xFF {
		t.Fatalf("A = %#02x, want 0xFF", s.A)
	}
	if s.F&FlagC == 0 {
		t.Fatalf("borrow clear, want set")
	}
}

func TestExecXorToggle(t *testing.T) {
	s := State{A: 0x00}
	Exec(&s, inst.XOR_N, 0x80)
	if s.A != 0x80 {
		t.Fatalf("A = %#02x, want 0x80", s.A)
	}
	Exec(&s, inst.XOR_N, 0x80)
	if s.A != 0x00 {
		t.Fatalf("A = %#02x, want 0x00", s.A)
	}
}

// TestExecDaaAfterAdc checks the BCD digit-sum path pkg/rom's bcd_add relies
// on: 9 + 9 binary-sums to 0x12 with a half-carry, and DAA folds that back
// into the packed digit pair 18; the sum fits the byte, so no carry out.
func TestExecDaaAfterAdc(t *testing.T) {
	s := State{A: 0x09, C: 0x09}
	Exec(&s, inst.ADC_A_C, 0)
	Exec(&s, inst.DAA, 0)
	if s.A != 0x18 {
		t.Fatalf("A = %#02x, want 0x18", s.A)
	}
	if s.F&FlagC != 0 {
		t.Fatalf("carry set, want clear")
	}
}

// TestExecDaaAfterSbc checks the borrow path pkg/rom's bcd_sub relies on:
// 0 - 1 binary-subtracts to 0xFF, DAA decimal-adjusts the borrow back into
// a valid digit pair (99) with the borrow flag still set.
func TestExecDaaAfterSbc(t *testing.T) {
	s := State{A: 0x00, C: 0x01}
	Exec(&s, inst.SBC_A_C, 0)
	Exec(&s, inst.DAA, 0)
	if s.A != 0x99 {
		t.Fatalf("A = %#02x, want 0x99", s.A)
	}
	if s.F&FlagC == 0 {
		t.Fatalf("borrow flag clear, want set")
	}
}

func TestExecUnhandledOpcodePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected a panic for an opcode Exec does not dispatch")
		}
	}()
	s := State{}
	Exec(&s, inst.OpCode(255), 0)
}
