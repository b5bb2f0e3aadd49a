package repl

import (
	"github.com/ajokela/kz80-bc/pkg/asm"
	"github.com/ajokela/kz80-bc/pkg/bcd"
)

// builder assembles the REPL ROM, tracking subroutine entry addresses as it
// emits them so later handlers can CALL them absolutely. Mirrors pkg/rom's
// builder shape, independently re-emitted since pkg/rom's equivalent
// methods are unexported on its own private builder type.
type builder struct {
	buf asm.Buffer

	constDataAddr uint16

	aciaOutAddr   uint16
	aciaInAddr    uint16
	printBCDAddr  uint16
	printCrlfAddr uint16
	allocNumAddr  uint16
	copyNumAddr   uint16
	bcdNegAddr    uint16
	bcdCmpMagAddr uint16
	bcdCmpAddr    uint16
	bcdAddAddr    uint16
	bcdSubAddr    uint16
	bcdMul10Addr  uint16
	bcdMulAddr    uint16
	bcdDivAddr    uint16
	pushValAddr   uint16
	popValAddr    uint16
	pushOpByteAddr uint16
	popOpByteAddr  uint16
	peekOpByteAddr uint16
	precedenceAddr uint16
	applyTopOpAddr uint16
	scanNumberAddr    uint16
	identSlotAddr     uint16
	varCellAddrAddr   uint16
	syncReplScaleAddr uint16
	evalExprAddr      uint16
	readLineAddr   uint16
	evalLineAddr   uint16
	mainLoopAddr   uint16
}

// emitLdHLFromNN emits "LD HL,(nn)".
func (b *builder) emitLdHLFromNN(addr uint16) {
	buf := &b.buf
	buf.EmitOp(asm.OpLdHLNNInd)
	buf.EmitU16LE(addr)
}

// emitLdNNFromHL emits "LD (nn),HL".
func (b *builder) emitLdNNFromHL(addr uint16) {
	buf := &b.buf
	buf.EmitOp(asm.OpLdNNHL)
	buf.EmitU16LE(addr)
}

// emitPushVal emits push_val: push the 16-bit pointer in HL onto the value
// stack at (valSP), advancing valSP by 2. Identical in structure to
// pkg/rom's push_vstack, retargeted to valSP.
func (b *builder) emitPushVal() {
	buf := &b.buf
	b.pushValAddr = uint16(buf.Len())
	buf.EmitOp(asm.OpPushDE)
	buf.EmitED(asm.OpLdDENNInd)
	buf.EmitU16LE(valSP)
	buf.EmitOp(asm.OpLdAL)
	buf.EmitOp(asm.OpLdDEA)
	buf.EmitOp(asm.OpIncDE)
	buf.EmitOp(asm.OpLdAH)
	buf.EmitOp(asm.OpLdDEA)
	buf.EmitOp(asm.OpIncDE)
	buf.EmitED(asm.OpLdNNDE)
	buf.EmitU16LE(valSP)
	buf.EmitOp(asm.OpPopDE)
	buf.EmitOp(asm.OpRet)
}

// emitPopVal emits pop_val: pop the top 16-bit pointer off the value stack
// into HL, retreating valSP by 2.
func (b *builder) emitPopVal() {
	buf := &b.buf
	b.popValAddr = uint16(buf.Len())
	buf.EmitOp(asm.OpPushDE)
	buf.EmitED(asm.OpLdDENNInd)
	buf.EmitU16LE(valSP)
	buf.EmitOp(asm.OpDecDE)
	buf.EmitOp(asm.OpLdADE)
	buf.EmitOp(asm.OpLdHA)
	buf.EmitOp(asm.OpDecDE)
	buf.EmitOp(asm.OpLdADE)
	buf.EmitOp(asm.OpLdLA)
	buf.EmitED(asm.OpLdNNDE)
	buf.EmitU16LE(valSP)
	buf.EmitOp(asm.OpPopDE)
	buf.EmitOp(asm.OpRet)
}

// emitAllocNumber emits alloc_number: bump-allocate one bcd.RecordSize block
// from the heap and return its address in HL. No free — a REPL ROM's heap
// only grows for the life of the running session, same as pkg/rom's.
func (b *builder) emitAllocNumber() {
	buf := &b.buf
	b.allocNumAddr = uint16(buf.Len())
	b.emitLdHLFromNN(heapPtr)
	buf.EmitOp(asm.OpPushHL)
	buf.EmitOp(asm.OpLdDENN)
	buf.EmitU16LE(bcd.RecordSize)
	buf.EmitOp(asm.OpAddHLDE)
	b.emitLdNNFromHL(heapPtr)
	buf.EmitOp(asm.OpPopHL)
	buf.EmitOp(asm.OpRet)
}

// emitCopyNumber emits copy_number: block-copy one bcd.RecordSize record
// from (HL) to (DE) via LDIR. Both end up past the copied block.
func (b *builder) emitCopyNumber() {
	buf := &b.buf
	b.copyNumAddr = uint16(buf.Len())
	buf.EmitOp(asm.OpPushBC)
	buf.EmitOp(asm.OpLdBCNN)
	buf.EmitU16LE(bcd.RecordSize)
	buf.EmitED(asm.OpLDIR)
	buf.EmitOp(asm.OpPopBC)
	buf.EmitOp(asm.OpRet)
}
