package asm

import "testing"

func TestEmitU16LELittleEndian(t *testing.T) {
	var b Buffer
	b.EmitU16LE(0x1234)
	if len(b.Code) != 2 || b.Code[0] != 0x34 || b.Code[1] != 0x12 {
		t.Fatalf("EmitU16LE(0x1234) = %v, want [0x34 0x12]", b.Code)
	}
}

func TestJRPatchInRange(t *testing.T) {
	var b Buffer
	pos := b.JRPlaceholder(OpJrNZN)
	b.EmitOp(OpNOP)
	b.EmitOp(OpNOP)
	if err := b.PatchJR(pos); err != nil {
		t.Fatalf("PatchJR: %v", err)
	}
	disp := int8(b.Code[pos])
	if disp != 2 {
		t.Errorf("displacement = %d, want 2", disp)
	}
}

func TestJRPatchOutOfRange(t *testing.T) {
	var b Buffer
	pos := b.JRPlaceholder(OpJrNZN)
	for i := 0; i < 200; i++ {
		b.EmitOp(OpNOP)
	}
	if err := b.PatchJR(pos); err == nil {
		t.Fatal("expected an error for an out-of-range relative jump")
	}
}

func TestJRPatchBoundaries(t *testing.T) {
	// Exactly +127 must succeed, +128 must fail.
	var b Buffer
	pos := b.JRPlaceholder(OpJrNZN)
	for i := 0; i < 127; i++ {
		b.EmitOp(OpNOP)
	}
	if err := b.PatchJR(pos); err != nil {
		t.Fatalf("displacement of exactly 127 should succeed: %v", err)
	}

	var b2 Buffer
	pos2 := b2.JRPlaceholder(OpJrNZN)
	for i := 0; i < 128; i++ {
		b2.EmitOp(OpNOP)
	}
	if err := b2.PatchJR(pos2); err == nil {
		t.Fatal("displacement of 128 should fail")
	}
}

func TestJPPlaceholderAndPatch(t *testing.T) {
	var b Buffer
	b.EmitOp(OpNOP)
	pos := b.JPPlaceholder(OpJpNN)
	if err := b.PatchJP(pos, 0x2000); err != nil {
		t.Fatal(err)
	}
	got := uint16(b.Code[pos]) | uint16(b.Code[pos+1])<<8
	if got != 0x2000 {
		t.Errorf("patched jump target = 0x%04X, want 0x2000", got)
	}
}

func TestPadWithNOP(t *testing.T) {
	var b Buffer
	b.EmitOp(OpDI)
	b.PadWithNOP(10, OpNOP)
	if len(b.Code) != 10 {
		t.Fatalf("len = %d, want 10", len(b.Code))
	}
	for i := 1; i < 10; i++ {
		if b.Code[i] != OpNOP {
			t.Errorf("byte %d = 0x%02X, want NOP", i, b.Code[i])
		}
	}
	// Padding to a shorter length than current is a no-op.
	b.PadWithNOP(5, OpNOP)
	if len(b.Code) != 10 {
		t.Fatalf("PadWithNOP shrank the buffer: len = %d", len(b.Code))
	}
}

func TestEmitJRBackward(t *testing.T) {
	var b Buffer
	loopTarget := b.Len()
	b.EmitOp(OpInAN)
	b.EmitU8(0x80)
	if err := b.EmitJR(OpJrZN, loopTarget); err != nil {
		t.Fatalf("EmitJR: %v", err)
	}
	disp := int8(b.Code[len(b.Code)-1])
	if int(disp) != loopTarget-len(b.Code) {
		t.Errorf("displacement = %d, want %d", disp, loopTarget-len(b.Code))
	}
}

func TestEmitJROutOfRange(t *testing.T) {
	var b Buffer
	loopTarget := b.Len()
	for i := 0; i < 200; i++ {
		b.EmitOp(OpNOP)
	}
	if err := b.EmitJR(OpJrZN, loopTarget); err == nil {
		t.Fatal("expected an error for an out-of-range backward jump")
	}
}

func TestEmitEDCBIX(t *testing.T) {
	var b Buffer
	b.EmitED(OpNEG)
	b.EmitCB(0x07)
	b.EmitIX(0x21)
	want := []byte{OpEDPrefix, OpNEG, OpCBPrefix, 0x07, OpIXPrefix, 0x21}
	if len(b.Code) != len(want) {
		t.Fatalf("len = %d, want %d", len(b.Code), len(want))
	}
	for i := range want {
		if b.Code[i] != want[i] {
			t.Errorf("byte %d = 0x%02X, want 0x%02X", i, b.Code[i], want[i])
		}
	}
}
