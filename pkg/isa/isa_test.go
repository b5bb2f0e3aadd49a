package isa

import (
	"testing"

	"github.com/ajokela/kz80-bc/pkg/bcd"
)

func TestRequiredOpcodesCovered(t *testing.T) {
	required := []Op{
		Halt, Nop, Pop, Dup,
		LoadZero, LoadOne, LoadNum,
		LoadVar, StoreVar,
		Add, Sub, Mul, Div, Neg,
		Eq, Lt, Gt,
		Jump, JumpIfZero, JumpIfNotZero,
		Print, PrintNewline, StoreScale,
	}
	for _, op := range required {
		if !op.IsRequired() {
			t.Errorf("%v (0x%02X) should be required", op.Name(), byte(op))
		}
		if op.Name() == "???" {
			t.Errorf("0x%02X has no name", byte(op))
		}
	}
}

func TestReservedOpcodesNotRequired(t *testing.T) {
	reserved := []Op{Mod, Pow, And, Or, Not, Inc, Dec, Call, Return, ReturnValue,
		Length, ScaleOf, Sqrt, LoadArray, StoreArray, LoadIbase, StoreIbase,
		LoadObase, StoreObase, LoadLast, PrintStr, Read}
	for _, op := range reserved {
		if op.IsRequired() {
			t.Errorf("%v should be reserved, not required", op.Name())
		}
	}
}

func TestOperandWidths(t *testing.T) {
	cases := map[Op]OperandWidth{
		LoadNum: U16Operand, LoadStr: U16Operand, PrintStr: U16Operand,
		Jump: U16Operand, JumpIfZero: U16Operand, JumpIfNotZero: U16Operand,
		LoadVar: U8Operand, StoreVar: U8Operand, Call: U8Operand,
		Halt: NoOperand, Add: NoOperand, Print: NoOperand,
	}
	for op, want := range cases {
		if got := Operand(op); got != want {
			t.Errorf("Operand(%v) = %d, want %d", op.Name(), got, want)
		}
	}
}

func TestEmitAndPatch(t *testing.T) {
	m := NewCompiledModule()
	m.Emit(Jump)
	pos := m.CurrentOffset()
	m.EmitU16(0) // placeholder
	m.Emit(Nop)
	target := uint16(m.CurrentOffset())
	if err := m.PatchU16(pos, target); err != nil {
		t.Fatal(err)
	}
	got := uint16(m.Bytecode[pos]) | uint16(m.Bytecode[pos+1])<<8
	if got != target {
		t.Errorf("patched target = %d, want %d", got, target)
	}
}

func TestPatchOutOfRange(t *testing.T) {
	m := NewCompiledModule()
	m.Emit(Nop)
	if err := m.PatchU16(10, 0); err == nil {
		t.Fatal("expected error patching out-of-range offset")
	}
}

func TestAddNumberIndexing(t *testing.T) {
	m := NewCompiledModule()
	a, _ := bcd.Parse("7")
	b, _ := bcd.Parse("5")
	idxA := m.AddNumber(a)
	idxB := m.AddNumber(b)
	if idxA != 0 || idxB != 1 {
		t.Fatalf("expected indices 0,1 got %d,%d", idxA, idxB)
	}
	if len(m.Numbers) != 2 {
		t.Fatalf("expected 2 numbers, got %d", len(m.Numbers))
	}
}

func TestAddStringDedup(t *testing.T) {
	m := NewCompiledModule()
	i1 := m.AddString("hello")
	i2 := m.AddString("world")
	i3 := m.AddString("hello")
	if i1 != i3 {
		t.Errorf("duplicate string got different indices: %d vs %d", i1, i3)
	}
	if i2 == i1 {
		t.Errorf("distinct strings got the same index")
	}
	if len(m.Strings) != 2 {
		t.Fatalf("expected 2 distinct strings, got %d", len(m.Strings))
	}
}
