package rom

import "github.com/ajokela/kz80-bc/pkg/asm"

// emitAddAToHL emits "HL += A" (A treated as unsigned 0..255), the standard
// Z80 idiom for indexing a byte table by a register: ADD A,L / LD L,A then
// bump H on carry. Clobbers A.
func (b *builder) emitAddAToHL() {
	buf := &b.buf
	buf.EmitOp(asm.OpAddAL)
	buf.EmitOp(asm.OpLdLA)
	noCarryPos := buf.JRPlaceholder(asm.OpJrNCN)
	buf.EmitOp(asm.OpIncH)
	_ = buf.PatchJR(noCarryPos)
}

// emitLdHLFromNN emits "LD HL,(nn)" — load HL from two consecutive memory
// bytes (low byte first), using the ED-free 0x2A opcode this target's
// opcode table already carries as OpLdHLNNInd.
func (b *builder) emitLdHLFromNN(addr uint16) {
	buf := &b.buf
	buf.EmitOp(asm.OpLdHLNNInd)
	buf.EmitU16LE(addr)
}

// emitCursorAtOffset emits "HL = (cell) + offset" — loads a base pointer
// stored at `cell`, adds a fixed offset, leaving the resulting cursor in HL.
// Clobbers DE.
func (b *builder) emitCursorAtOffset(cell uint16, offset uint16) {
	buf := &b.buf
	buf.EmitOp(asm.OpLdHLNNInd)
	buf.EmitU16LE(cell)
	buf.EmitOp(asm.OpLdDENN)
	buf.EmitU16LE(offset)
	buf.EmitOp(asm.OpAddHLDE)
}

// emitLdNNFromHL emits "LD (nn),HL" — store HL to two consecutive memory
// bytes (low byte first).
func (b *builder) emitLdNNFromHL(addr uint16) {
	buf := &b.buf
	buf.EmitOp(asm.OpLdNNHL)
	buf.EmitU16LE(addr)
}
