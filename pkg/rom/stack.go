package rom

import (
	"github.com/ajokela/kz80-bc/pkg/asm"
	"github.com/ajokela/kz80-bc/pkg/bcd"
)

// emitPushVStack emits push_vstack: push the 16-bit pointer in HL onto the
// value stack at (VMSP), advancing VMSP by 2. The value stack holds pointers
// to heap-allocated BCD records, never the records themselves: variables
// and values live by reference on this target.
func (b *builder) emitPushVStack() {
	buf := &b.buf
	buf.EmitOp(asm.OpPushDE)
	buf.EmitED(asm.OpLdDENNInd)
	buf.EmitU16LE(VMSP)
	buf.EmitOp(asm.OpLdAL)
	buf.EmitOp(asm.OpLdDEA)
	buf.EmitOp(asm.OpIncDE)
	buf.EmitOp(asm.OpLdAH)
	buf.EmitOp(asm.OpLdDEA)
	buf.EmitOp(asm.OpIncDE)
	buf.EmitED(asm.OpLdNNDE)
	buf.EmitU16LE(VMSP)
	buf.EmitOp(asm.OpPopDE)
	buf.EmitOp(asm.OpRet)
}

// emitPopVStack emits pop_vstack: pop the top 16-bit pointer off the value
// stack into HL, retreating VMSP by 2.
func (b *builder) emitPopVStack() {
	buf := &b.buf
	buf.EmitOp(asm.OpPushDE)
	buf.EmitED(asm.OpLdDENNInd)
	buf.EmitU16LE(VMSP)
	buf.EmitOp(asm.OpDecDE)
	buf.EmitOp(asm.OpLdADE)
	buf.EmitOp(asm.OpLdHA)
	buf.EmitOp(asm.OpDecDE)
	buf.EmitOp(asm.OpLdADE)
	buf.EmitOp(asm.OpLdLA)
	buf.EmitED(asm.OpLdNNDE)
	buf.EmitU16LE(VMSP)
	buf.EmitOp(asm.OpPopDE)
	buf.EmitOp(asm.OpRet)
}

// emitAllocNumber emits alloc_number: bump-allocate one bcd.RecordSize block
// from the heap and return its address in HL. There is no free — the heap
// only grows, for the lifetime of one compiled program run, with no
// garbage collection.
func (b *builder) emitAllocNumber() {
	buf := &b.buf
	b.emitLdHLFromNN(VMHeap)
	buf.EmitOp(asm.OpPushHL)
	buf.EmitOp(asm.OpLdDENN)
	buf.EmitU16LE(bcd.RecordSize)
	buf.EmitOp(asm.OpAddHLDE)
	b.emitLdNNFromHL(VMHeap)
	buf.EmitOp(asm.OpPopHL)
	buf.EmitOp(asm.OpRet)
}

// emitCopyNumber emits copy_number: block-copy one bcd.RecordSize record
// from (HL) to (DE) via LDIR. HL and DE both end up past the copied block —
// callers needing the destination address afterwards must save it first.
func (b *builder) emitCopyNumber() {
	buf := &b.buf
	buf.EmitOp(asm.OpPushBC)
	buf.EmitOp(asm.OpLdBCNN)
	buf.EmitU16LE(bcd.RecordSize)
	buf.EmitED(asm.OpLDIR)
	buf.EmitOp(asm.OpPopBC)
	buf.EmitOp(asm.OpRet)
}
